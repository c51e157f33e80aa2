// Package app hosts the data orchestrator and the HTTP surface. The
// orchestrator owns the published content tree: cache tiers are consulted
// first, all section accessors are fetched concurrently on a miss, and a
// failed refresh never clears data that was already published.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/bcrypt"

	"folio/api/internal/auth"
	"folio/api/internal/cache"
	"folio/api/internal/content"
	"folio/api/internal/email"
	"folio/api/internal/search"
	"folio/api/internal/store"
)

const contentCacheKey = "content:en"

// ContentGateway is the per-section read surface of the content database.
type ContentGateway interface {
	GetHomeData(ctx context.Context, languageCode string) (*content.Home, error)
	GetAboutData(ctx context.Context, languageCode string) (*content.About, error)
	GetEducationData(ctx context.Context, languageCode string) (*content.Education, error)
	GetExperienceData(ctx context.Context, languageCode string) (*content.Experience, error)
	GetProjectsData(ctx context.Context, languageCode string) (*content.Projects, error)
	GetAwardsData(ctx context.Context, languageCode string) (*content.Awards, error)
	GetGalleryData(ctx context.Context, languageCode string) (*content.Gallery, error)
}

// AdminStore is the write surface plus the auxiliary tables.
type AdminStore interface {
	Ping(ctx context.Context) error

	PatchSection(ctx context.Context, section string, patch map[string]any) error
	ListItems(ctx context.Context, section, itemType string) ([]map[string]any, error)
	InsertItem(ctx context.Context, section, itemType string, fields map[string]any) (string, error)
	PatchItem(ctx context.Context, section, itemType, id string, patch map[string]any) error
	DeleteItem(ctx context.Context, section, itemType, id string) error

	ListNested(ctx context.Context, parentTable, parentID, nestedType string) ([]map[string]any, error)
	InsertNested(ctx context.Context, parentTable, parentID, nestedType string, fields map[string]any) (string, error)
	PatchNested(ctx context.Context, parentTable, nestedType, id string, patch map[string]any) error
	DeleteNested(ctx context.Context, parentTable, nestedType, id string) error

	InsertContactEmail(ctx context.Context, name, emailAddr, message string) (string, error)
	UpdateContactEmailStatus(ctx context.Context, id, status string) error
	ListContactEmails(ctx context.Context) ([]store.ContactEmail, error)
	DeleteContactEmail(ctx context.Context, id string) error

	ListAdminEmails(ctx context.Context) ([]store.AdminEmail, error)
	InsertAdminEmail(ctx context.Context, emailAddr string) (string, error)
	DeleteAdminEmail(ctx context.Context, id string) error

	GetAdminUserByEmail(ctx context.Context, emailAddr string) (store.AdminUser, error)
}

// PersistentCache is the Redis tier; nil disables it.
type PersistentCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, maxAge time.Duration)
	Clear(ctx context.Context)
}

// Translator renders a tree into a target language; nil serves English only.
type Translator interface {
	TranslateTree(ctx context.Context, tree *content.Tree, target string) (*content.Tree, error)
}

// Mailer relays contact submissions; nil or unconfigured disables the relay.
type Mailer interface {
	IsConfigured() bool
	SendContactNotification(data email.ContactData) error
}

// Searcher answers the public search endpoint.
type Searcher interface {
	Search(q search.Query) search.Response
	Reindex(tree *content.Tree)
}

// Preloader warms image URLs after a publish.
type Preloader interface {
	WarmTree(ctx context.Context, tree *content.Tree) int
}

type Service struct {
	gateway    ContentGateway
	store      AdminStore
	memory     *cache.Memory
	persistent PersistentCache
	translator Translator
	mailer     Mailer
	searcher   Searcher
	preloader  Preloader

	authSecret []byte
	accessTTL  time.Duration
	cacheTTL   time.Duration

	mu         sync.RWMutex
	lastGood   *content.Tree
	refreshing atomic.Bool
}

type ServiceOptions struct {
	Gateway    ContentGateway
	Store      AdminStore
	Memory     *cache.Memory
	Persistent PersistentCache
	Translator Translator
	Mailer     Mailer
	Searcher   Searcher
	Preloader  Preloader
	AuthSecret string
	AccessTTL  time.Duration
	CacheTTL   time.Duration
}

func NewService(opts ServiceOptions) *Service {
	if opts.Memory == nil {
		opts.Memory = cache.NewMemory()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = time.Hour
	}
	return &Service{
		gateway:    opts.Gateway,
		store:      opts.Store,
		memory:     opts.Memory,
		persistent: opts.Persistent,
		translator: opts.Translator,
		mailer:     opts.Mailer,
		searcher:   opts.Searcher,
		preloader:  opts.Preloader,
		authSecret: []byte(opts.AuthSecret),
		accessTTL:  opts.AccessTTL,
		cacheTTL:   opts.CacheTTL,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Content returns the tree in the requested language. stale reports that the
// English tree could not be refreshed and a previously published one is
// being served.
func (s *Service) Content(ctx context.Context, languageCode string) (*content.Tree, bool, error) {
	tree, stale, err := s.englishTree(ctx)
	if err != nil {
		return nil, false, err
	}
	if languageCode == "" || languageCode == "en" || s.translator == nil {
		return tree, stale, nil
	}
	translated, err := s.translator.TranslateTree(ctx, tree, languageCode)
	if err != nil {
		// Translation never blocks serving; fall back to English.
		log.Printf("app: translate tree to %s: %v", languageCode, err)
		return tree, stale, nil
	}
	return translated, stale, nil
}

// ContentTree adapts Content for callers that do not track staleness.
func (s *Service) ContentTree(ctx context.Context, languageCode string) (*content.Tree, error) {
	tree, _, err := s.Content(ctx, languageCode)
	return tree, err
}

// Refetch bypasses both cache tiers, fetches everything, and republishes.
// The admin panel calls this after each save.
func (s *Service) Refetch(ctx context.Context) (*content.Tree, error) {
	tree, err := s.fetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("refetch content: %w", err)
	}
	s.publish(ctx, tree)
	return tree, nil
}

// englishTree resolves the source tree: memory, then the persistent tier,
// then a full fetch. A fetch failure falls back to the last published tree.
func (s *Service) englishTree(ctx context.Context) (*content.Tree, bool, error) {
	if raw, ok := s.memory.Get(contentCacheKey); ok {
		var tree content.Tree
		if err := json.Unmarshal(raw, &tree); err == nil {
			s.maybeRefreshInBackground()
			return &tree, false, nil
		}
		s.memory.Delete(contentCacheKey)
	}

	if s.persistent != nil {
		if raw, ok := s.persistent.Get(ctx, contentCacheKey); ok {
			var tree content.Tree
			if err := json.Unmarshal(raw, &tree); err == nil {
				s.memory.Set(contentCacheKey, raw, s.cacheTTL)
				s.setLastGood(&tree)
				return &tree, false, nil
			}
		}
	}

	tree, err := s.fetchAll(ctx)
	if err != nil {
		if last := s.getLastGood(); last != nil {
			log.Printf("app: content fetch failed, serving stale tree: %v", err)
			return last, true, nil
		}
		return nil, false, fmt.Errorf("fetch content: %w", err)
	}
	s.publish(ctx, tree)
	return tree, false, nil
}

// fetchAll runs every section accessor concurrently and merges the results.
// All sections must succeed; a missing row is an empty section, not an error.
func (s *Service) fetchAll(ctx context.Context) (*content.Tree, error) {
	var tree content.Tree
	var wg sync.WaitGroup
	errs := make([]error, 7)

	run := func(i int, fetch func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = fetch()
		}()
	}

	run(0, func() (err error) { tree.Home, err = s.gateway.GetHomeData(ctx, "en"); return })
	run(1, func() (err error) { tree.About, err = s.gateway.GetAboutData(ctx, "en"); return })
	run(2, func() (err error) { tree.Education, err = s.gateway.GetEducationData(ctx, "en"); return })
	run(3, func() (err error) { tree.Experience, err = s.gateway.GetExperienceData(ctx, "en"); return })
	run(4, func() (err error) { tree.Projects, err = s.gateway.GetProjectsData(ctx, "en"); return })
	run(5, func() (err error) { tree.Awards, err = s.gateway.GetAwardsData(ctx, "en"); return })
	run(6, func() (err error) { tree.Gallery, err = s.gateway.GetGalleryData(ctx, "en"); return })

	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &tree, nil
}

// publish stores the fresh tree in both cache tiers, records it as the
// stale-fallback copy, and kicks off the post-publish side effects.
func (s *Service) publish(ctx context.Context, tree *content.Tree) {
	raw, err := json.Marshal(tree)
	if err != nil {
		log.Printf("app: encode tree for cache: %v", err)
		return
	}
	s.memory.Set(contentCacheKey, raw, s.cacheTTL)
	if s.persistent != nil {
		s.persistent.Set(ctx, contentCacheKey, raw, s.cacheTTL)
	}
	s.setLastGood(tree)

	if s.searcher != nil {
		s.searcher.Reindex(tree)
	}
	if s.preloader != nil {
		go func() {
			warmCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			s.preloader.WarmTree(warmCtx, tree)
		}()
	}
}

// maybeRefreshInBackground refetches once the cached tree has passed half
// its TTL. Overlapping refreshes collapse into one.
func (s *Service) maybeRefreshInBackground() {
	age, ok := s.memory.Age(contentCacheKey)
	if !ok || age < s.cacheTTL/2 {
		return
	}
	if !s.refreshing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.refreshing.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		tree, err := s.fetchAll(ctx)
		if err != nil {
			log.Printf("app: background refresh failed: %v", err)
			return
		}
		s.publish(ctx, tree)
	}()
}

func (s *Service) setLastGood(tree *content.Tree) {
	s.mu.Lock()
	s.lastGood = tree
	s.mu.Unlock()
}

func (s *Service) getLastGood() *content.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastGood
}

// Contact persists a submission and relays it. The row is written before the
// relay is attempted; relay failures mark it failed and are not returned to
// the visitor.
func (s *Service) Contact(ctx context.Context, name, emailAddr, message string) (string, error) {
	name = strings.TrimSpace(name)
	emailAddr = strings.TrimSpace(emailAddr)
	message = strings.TrimSpace(message)
	if name == "" || emailAddr == "" || message == "" {
		return "", domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name, email and message are required", nil)
	}

	id, err := s.store.InsertContactEmail(ctx, name, emailAddr, message)
	if err != nil {
		return "", err
	}

	if s.mailer == nil || !s.mailer.IsConfigured() {
		log.Printf("app: contact relay not configured, message %s stays pending", id)
		return id, nil
	}

	status := store.EmailStatusSent
	if err := s.mailer.SendContactNotification(email.ContactData{Name: name, Email: emailAddr, Message: message}); err != nil {
		log.Printf("app: contact relay for %s: %v", id, err)
		status = store.EmailStatusFailed
	}
	if err := s.store.UpdateContactEmailStatus(ctx, id, status); err != nil {
		log.Printf("app: update contact status for %s: %v", id, err)
	}
	return id, nil
}

// LoginResult is what a successful admin login returns.
type LoginResult struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Login checks admin credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (LoginResult, error) {
	user, err := s.store.GetAdminUserByEmail(ctx, strings.TrimSpace(emailAddr))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		}
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	}

	exp := time.Now().Add(s.accessTTL)
	token, err := auth.IssueToken(s.authSecret, auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  user.DisplayName,
		Exp:   exp.Unix(),
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{
		Token:     token,
		Email:     user.Email,
		Name:      user.DisplayName,
		ExpiresAt: exp.Unix(),
	}, nil
}

// ClaimsFromToken validates an admin bearer token.
func (s *Service) ClaimsFromToken(token string) (auth.Claims, error) {
	return auth.ParseToken(s.authSecret, token)
}
