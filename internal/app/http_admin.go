package app

import (
	"net/http"
	"path/filepath"
	"strings"

	"folio/api/internal/auth"
)

// handleAdmin dispatches everything under /api/admin/. The caller has
// already validated the bearer token.
func (s *HTTPServer) handleAdmin(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	parts := splitPath(r.URL.Path) // ["api", "admin", ...]
	rest := parts[2:]

	switch {
	case len(rest) == 2 && rest[0] == "sections" && r.Method == http.MethodPatch:
		var patch map[string]any
		if err := decodeBody(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.store.PatchSection(r.Context(), rest[1], patch); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 3 && rest[0] == "sections" && r.Method == http.MethodGet:
		items, err := s.service.store.ListItems(r.Context(), rest[1], rest[2])
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case len(rest) == 3 && rest[0] == "sections" && r.Method == http.MethodPost:
		var fields map[string]any
		if err := decodeBody(r, &fields); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		id, err := s.service.store.InsertItem(r.Context(), rest[1], rest[2], fields)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})

	case len(rest) == 4 && rest[0] == "sections" && r.Method == http.MethodPatch:
		var patch map[string]any
		if err := decodeBody(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.store.PatchItem(r.Context(), rest[1], rest[2], rest[3], patch); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 4 && rest[0] == "sections" && r.Method == http.MethodDelete:
		if err := s.service.store.DeleteItem(r.Context(), rest[1], rest[2], rest[3]); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 4 && rest[0] == "nested" && r.Method == http.MethodGet:
		items, err := s.service.store.ListNested(r.Context(), rest[1], rest[2], rest[3])
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case len(rest) == 4 && rest[0] == "nested" && r.Method == http.MethodPost:
		var fields map[string]any
		if err := decodeBody(r, &fields); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		id, err := s.service.store.InsertNested(r.Context(), rest[1], rest[2], rest[3], fields)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})

	case len(rest) == 5 && rest[0] == "nested" && r.Method == http.MethodPatch:
		var patch map[string]any
		if err := decodeBody(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.store.PatchNested(r.Context(), rest[1], rest[3], rest[4], patch); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 5 && rest[0] == "nested" && r.Method == http.MethodDelete:
		if err := s.service.store.DeleteNested(r.Context(), rest[1], rest[3], rest[4]); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 1 && rest[0] == "upload" && r.Method == http.MethodPost:
		s.handleUpload(w, r)

	case len(rest) == 2 && rest[0] == "storage" && rest[1] == "list" && r.Method == http.MethodGet:
		if s.assets == nil {
			writeError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Object storage not configured", nil)
			return
		}
		objects, err := s.assets.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("prefix")))
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"objects": objects})

	case len(rest) == 1 && rest[0] == "emails" && r.Method == http.MethodGet:
		emails, err := s.service.store.ListContactEmails(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"emails": emails})

	case len(rest) == 2 && rest[0] == "emails" && r.Method == http.MethodDelete:
		if err := s.service.store.DeleteContactEmail(r.Context(), rest[1]); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(rest) == 1 && rest[0] == "admin-emails" && r.Method == http.MethodGet:
		emails, err := s.service.store.ListAdminEmails(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"emails": emails})

	case len(rest) == 1 && rest[0] == "admin-emails" && r.Method == http.MethodPost:
		var body struct {
			Email string `json:"email"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if strings.TrimSpace(body.Email) == "" {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email is required", nil)
			return
		}
		id, err := s.service.store.InsertAdminEmail(r.Context(), strings.TrimSpace(body.Email))
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})

	case len(rest) == 2 && rest[0] == "admin-emails" && r.Method == http.MethodDelete:
		if err := s.service.store.DeleteAdminEmail(r.Context(), rest[1]); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

const maxUploadBytes = 32 << 20

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.assets == nil {
		writeError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Object storage not configured", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid multipart body", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "file field is required", nil)
		return
	}
	defer file.Close()

	objectPath := strings.TrimSpace(r.FormValue("path"))
	if objectPath == "" {
		objectPath = "uploads/" + filepath.Base(header.Filename)
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	object, err := s.assets.Upload(r.Context(), objectPath, contentType, header.Size, file)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, object)
}
