package app

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"folio/api/internal/store"
)

func TestAdminRequiresToken(t *testing.T) {
	server := newTestServer(newTestService(newFakeGateway(), &fakeAdminStore{}))

	rec := doRequest(t, server, http.MethodGet, "/api/admin/sections/home/organizations", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = doRequest(t, server, http.MethodGet, "/api/admin/sections/home/organizations", "not-a-token", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d", rec.Code)
	}
}

func TestAdminPatchSection(t *testing.T) {
	var gotSection string
	var gotPatch map[string]any
	adminStore := &fakeAdminStore{
		patchSectionFn: func(ctx context.Context, section string, patch map[string]any) error {
			gotSection = section
			gotPatch = patch
			return nil
		},
	}
	svc := newTestService(newFakeGateway(), adminStore)
	server := newTestServer(svc)

	rec := doRequest(t, server, http.MethodPatch, "/api/admin/sections/home", adminToken(t, svc),
		`{"greeting":"Bonjour"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if gotSection != "home" || gotPatch["greeting"] != "Bonjour" {
		t.Errorf("section = %q, patch = %v", gotSection, gotPatch)
	}
}

func TestAdminItemRoutes(t *testing.T) {
	adminStore := &fakeAdminStore{
		listItemsFn: func(ctx context.Context, section, itemType string) ([]map[string]any, error) {
			if section != "experience" || itemType != "professional" {
				t.Errorf("section = %q, itemType = %q", section, itemType)
			}
			return []map[string]any{{"id": "pos_1", "title": "Engineer"}}, nil
		},
	}
	svc := newTestService(newFakeGateway(), adminStore)
	server := newTestServer(svc)
	token := adminToken(t, svc)

	rec := doRequest(t, server, http.MethodGet, "/api/admin/sections/experience/professional", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	payload := decodeResponse(t, rec)
	items, _ := payload["items"].([]any)
	if len(items) != 1 {
		t.Errorf("items = %v", payload["items"])
	}

	rec = doRequest(t, server, http.MethodPost, "/api/admin/sections/projects/items", token,
		`{"title":"New project"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("insert: status = %d", rec.Code)
	}
	if payload := decodeResponse(t, rec); payload["id"] != "item_1" {
		t.Errorf("payload = %v", payload)
	}

	rec = doRequest(t, server, http.MethodPatch, "/api/admin/sections/projects/items/item_1", token,
		`{"title":"Renamed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: status = %d", rec.Code)
	}

	rec = doRequest(t, server, http.MethodDelete, "/api/admin/sections/projects/items/item_1", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}
}

func TestAdminUnknownResource(t *testing.T) {
	adminStore := &fakeAdminStore{
		listItemsFn: func(ctx context.Context, section, itemType string) ([]map[string]any, error) {
			return nil, store.ErrUnknownResource
		},
	}
	svc := newTestService(newFakeGateway(), adminStore)
	server := newTestServer(svc)

	rec := doRequest(t, server, http.MethodGet, "/api/admin/sections/bogus/items", adminToken(t, svc), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload := decodeResponse(t, rec); payload["code"] != "NOT_FOUND" {
		t.Errorf("payload = %v", payload)
	}
}

func TestAdminInvalidField(t *testing.T) {
	adminStore := &fakeAdminStore{
		patchItemFn: func(ctx context.Context, section, itemType, id string, patch map[string]any) error {
			return store.ErrInvalidField
		},
	}
	svc := newTestService(newFakeGateway(), adminStore)
	server := newTestServer(svc)

	rec := doRequest(t, server, http.MethodPatch, "/api/admin/sections/projects/items/item_1",
		adminToken(t, svc), `{"bogus_column":"x"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload := decodeResponse(t, rec); payload["code"] != "VALIDATION_ERROR" {
		t.Errorf("payload = %v", payload)
	}
}

func TestAdminNestedRoutes(t *testing.T) {
	var inserted struct {
		parentTable, parentID, nestedType string
	}
	adminStore := &fakeAdminStore{
		insertNestedFn: func(ctx context.Context, parentTable, parentID, nestedType string, fields map[string]any) (string, error) {
			inserted.parentTable = parentTable
			inserted.parentID = parentID
			inserted.nestedType = nestedType
			return "nested_1", nil
		},
	}
	svc := newTestService(newFakeGateway(), adminStore)
	server := newTestServer(svc)
	token := adminToken(t, svc)

	rec := doRequest(t, server, http.MethodGet, "/api/admin/nested/project_items/proj_1/technologies", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}

	rec = doRequest(t, server, http.MethodPost, "/api/admin/nested/project_items/proj_1/technologies", token,
		`{"name":"Go"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("insert: status = %d", rec.Code)
	}
	if inserted.parentTable != "project_items" || inserted.parentID != "proj_1" || inserted.nestedType != "technologies" {
		t.Errorf("inserted = %+v", inserted)
	}

	rec = doRequest(t, server, http.MethodPatch, "/api/admin/nested/project_items/proj_1/technologies/nested_1", token,
		`{"name":"Rust"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: status = %d", rec.Code)
	}

	rec = doRequest(t, server, http.MethodDelete, "/api/admin/nested/project_items/proj_1/technologies/nested_1", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}
}

func TestAdminContactEmails(t *testing.T) {
	deleted := ""
	adminStore := &fakeAdminStore{
		listContactEmailsFn: func(ctx context.Context) ([]store.ContactEmail, error) {
			return []store.ContactEmail{{ID: "msg_1", Name: "Ada", Status: store.EmailStatusPending}}, nil
		},
		deleteContactEmailFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := newTestService(newFakeGateway(), adminStore)
	server := newTestServer(svc)
	token := adminToken(t, svc)

	rec := doRequest(t, server, http.MethodGet, "/api/admin/emails", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	payload := decodeResponse(t, rec)
	emails, _ := payload["emails"].([]any)
	if len(emails) != 1 {
		t.Errorf("emails = %v", payload["emails"])
	}

	rec = doRequest(t, server, http.MethodDelete, "/api/admin/emails/msg_1", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	if deleted != "msg_1" {
		t.Errorf("deleted = %q", deleted)
	}
}

func TestAdminEmailRecipients(t *testing.T) {
	svc := newTestService(newFakeGateway(), &fakeAdminStore{})
	server := newTestServer(svc)
	token := adminToken(t, svc)

	rec := doRequest(t, server, http.MethodGet, "/api/admin/admin-emails", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}

	rec = doRequest(t, server, http.MethodPost, "/api/admin/admin-emails", token, `{"email":"new@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("insert: status = %d", rec.Code)
	}

	rec = doRequest(t, server, http.MethodPost, "/api/admin/admin-emails", token, `{"email":"  "}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank email: status = %d", rec.Code)
	}

	rec = doRequest(t, server, http.MethodDelete, "/api/admin/admin-emails/adm_1", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}
}

func TestAdminUploadWithoutStorage(t *testing.T) {
	svc := newTestService(newFakeGateway(), &fakeAdminStore{})
	server := newTestServer(svc)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "photo.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("jpegdata")); err != nil {
		t.Fatal(err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminToken(t, svc))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload := decodeResponse(t, rec); payload["code"] != "STORAGE_UNAVAILABLE" {
		t.Errorf("payload = %v", payload)
	}
}

func TestAdminStorageListWithoutStorage(t *testing.T) {
	svc := newTestService(newFakeGateway(), &fakeAdminStore{})
	server := newTestServer(svc)

	rec := doRequest(t, server, http.MethodGet, "/api/admin/storage/list", adminToken(t, svc), "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAdminUnknownRoute(t *testing.T) {
	svc := newTestService(newFakeGateway(), &fakeAdminStore{})
	server := newTestServer(svc)

	rec := doRequest(t, server, http.MethodGet, "/api/admin/bogus", adminToken(t, svc), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}
