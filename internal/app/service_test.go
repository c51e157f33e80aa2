package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"folio/api/internal/cache"
	"folio/api/internal/content"
	"folio/api/internal/email"
	"folio/api/internal/store"
)

// fakeGateway serves a small in-memory content set and records call counts.
type fakeGateway struct {
	mu       sync.Mutex
	calls    int
	err      error
	greeting string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{greeting: "Hello"}
}

func (f *fakeGateway) tick() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeGateway) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeGateway) setGreeting(greeting string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.greeting = greeting
}

func (f *fakeGateway) GetHomeData(ctx context.Context, lang string) (*content.Home, error) {
	if err := f.tick(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	greeting := f.greeting
	f.mu.Unlock()
	return &content.Home{Greeting: greeting, Organizations: []content.Organization{}, Qualities: []content.Quality{}}, nil
}

func (f *fakeGateway) GetAboutData(ctx context.Context, lang string) (*content.About, error) {
	if err := f.tick(); err != nil {
		return nil, err
	}
	return &content.About{Skills: []content.Skill{}, Interests: []string{}}, nil
}

func (f *fakeGateway) GetEducationData(ctx context.Context, lang string) (*content.Education, error) {
	if err := f.tick(); err != nil {
		return nil, err
	}
	return &content.Education{Items: []content.EducationItem{}}, nil
}

func (f *fakeGateway) GetExperienceData(ctx context.Context, lang string) (*content.Experience, error) {
	if err := f.tick(); err != nil {
		return nil, err
	}
	return &content.Experience{ProfessionalPositions: []content.Position{}, LeadershipPositions: []content.Position{}}, nil
}

func (f *fakeGateway) GetProjectsData(ctx context.Context, lang string) (*content.Projects, error) {
	if err := f.tick(); err != nil {
		return nil, err
	}
	return &content.Projects{Items: []content.ProjectItem{}}, nil
}

func (f *fakeGateway) GetAwardsData(ctx context.Context, lang string) (*content.Awards, error) {
	if err := f.tick(); err != nil {
		return nil, err
	}
	return &content.Awards{Items: []content.AwardItem{}}, nil
}

func (f *fakeGateway) GetGalleryData(ctx context.Context, lang string) (*content.Gallery, error) {
	if err := f.tick(); err != nil {
		return nil, err
	}
	return &content.Gallery{Items: []content.GalleryItem{}}, nil
}

// fakeAdminStore implements AdminStore with overridable function fields.
type fakeAdminStore struct {
	pingFn                     func(context.Context) error
	patchSectionFn             func(ctx context.Context, section string, patch map[string]any) error
	listItemsFn                func(ctx context.Context, section, itemType string) ([]map[string]any, error)
	insertItemFn               func(ctx context.Context, section, itemType string, fields map[string]any) (string, error)
	patchItemFn                func(ctx context.Context, section, itemType, id string, patch map[string]any) error
	deleteItemFn               func(ctx context.Context, section, itemType, id string) error
	listNestedFn               func(ctx context.Context, parentTable, parentID, nestedType string) ([]map[string]any, error)
	insertNestedFn             func(ctx context.Context, parentTable, parentID, nestedType string, fields map[string]any) (string, error)
	patchNestedFn              func(ctx context.Context, parentTable, nestedType, id string, patch map[string]any) error
	deleteNestedFn             func(ctx context.Context, parentTable, nestedType, id string) error
	insertContactEmailFn       func(ctx context.Context, name, emailAddr, message string) (string, error)
	updateContactEmailStatusFn func(ctx context.Context, id, status string) error
	listContactEmailsFn        func(ctx context.Context) ([]store.ContactEmail, error)
	deleteContactEmailFn       func(ctx context.Context, id string) error
	listAdminEmailsFn          func(ctx context.Context) ([]store.AdminEmail, error)
	insertAdminEmailFn         func(ctx context.Context, emailAddr string) (string, error)
	deleteAdminEmailFn         func(ctx context.Context, id string) error
	getAdminUserByEmailFn      func(ctx context.Context, emailAddr string) (store.AdminUser, error)
}

func (f *fakeAdminStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

func (f *fakeAdminStore) PatchSection(ctx context.Context, section string, patch map[string]any) error {
	if f.patchSectionFn != nil {
		return f.patchSectionFn(ctx, section, patch)
	}
	return nil
}

func (f *fakeAdminStore) ListItems(ctx context.Context, section, itemType string) ([]map[string]any, error) {
	if f.listItemsFn != nil {
		return f.listItemsFn(ctx, section, itemType)
	}
	return []map[string]any{}, nil
}

func (f *fakeAdminStore) InsertItem(ctx context.Context, section, itemType string, fields map[string]any) (string, error) {
	if f.insertItemFn != nil {
		return f.insertItemFn(ctx, section, itemType, fields)
	}
	return "item_1", nil
}

func (f *fakeAdminStore) PatchItem(ctx context.Context, section, itemType, id string, patch map[string]any) error {
	if f.patchItemFn != nil {
		return f.patchItemFn(ctx, section, itemType, id, patch)
	}
	return nil
}

func (f *fakeAdminStore) DeleteItem(ctx context.Context, section, itemType, id string) error {
	if f.deleteItemFn != nil {
		return f.deleteItemFn(ctx, section, itemType, id)
	}
	return nil
}

func (f *fakeAdminStore) ListNested(ctx context.Context, parentTable, parentID, nestedType string) ([]map[string]any, error) {
	if f.listNestedFn != nil {
		return f.listNestedFn(ctx, parentTable, parentID, nestedType)
	}
	return []map[string]any{}, nil
}

func (f *fakeAdminStore) InsertNested(ctx context.Context, parentTable, parentID, nestedType string, fields map[string]any) (string, error) {
	if f.insertNestedFn != nil {
		return f.insertNestedFn(ctx, parentTable, parentID, nestedType, fields)
	}
	return "nested_1", nil
}

func (f *fakeAdminStore) PatchNested(ctx context.Context, parentTable, nestedType, id string, patch map[string]any) error {
	if f.patchNestedFn != nil {
		return f.patchNestedFn(ctx, parentTable, nestedType, id, patch)
	}
	return nil
}

func (f *fakeAdminStore) DeleteNested(ctx context.Context, parentTable, nestedType, id string) error {
	if f.deleteNestedFn != nil {
		return f.deleteNestedFn(ctx, parentTable, nestedType, id)
	}
	return nil
}

func (f *fakeAdminStore) InsertContactEmail(ctx context.Context, name, emailAddr, message string) (string, error) {
	if f.insertContactEmailFn != nil {
		return f.insertContactEmailFn(ctx, name, emailAddr, message)
	}
	return "msg_1", nil
}

func (f *fakeAdminStore) UpdateContactEmailStatus(ctx context.Context, id, status string) error {
	if f.updateContactEmailStatusFn != nil {
		return f.updateContactEmailStatusFn(ctx, id, status)
	}
	return nil
}

func (f *fakeAdminStore) ListContactEmails(ctx context.Context) ([]store.ContactEmail, error) {
	if f.listContactEmailsFn != nil {
		return f.listContactEmailsFn(ctx)
	}
	return []store.ContactEmail{}, nil
}

func (f *fakeAdminStore) DeleteContactEmail(ctx context.Context, id string) error {
	if f.deleteContactEmailFn != nil {
		return f.deleteContactEmailFn(ctx, id)
	}
	return nil
}

func (f *fakeAdminStore) ListAdminEmails(ctx context.Context) ([]store.AdminEmail, error) {
	if f.listAdminEmailsFn != nil {
		return f.listAdminEmailsFn(ctx)
	}
	return []store.AdminEmail{}, nil
}

func (f *fakeAdminStore) InsertAdminEmail(ctx context.Context, emailAddr string) (string, error) {
	if f.insertAdminEmailFn != nil {
		return f.insertAdminEmailFn(ctx, emailAddr)
	}
	return "adm_1", nil
}

func (f *fakeAdminStore) DeleteAdminEmail(ctx context.Context, id string) error {
	if f.deleteAdminEmailFn != nil {
		return f.deleteAdminEmailFn(ctx, id)
	}
	return nil
}

func (f *fakeAdminStore) GetAdminUserByEmail(ctx context.Context, emailAddr string) (store.AdminUser, error) {
	if f.getAdminUserByEmailFn != nil {
		return f.getAdminUserByEmailFn(ctx, emailAddr)
	}
	return store.AdminUser{}, store.ErrNotFound
}

// fakeMailer records the last notification.
type fakeMailer struct {
	configured bool
	err        error
	sent       []email.ContactData
}

func (f *fakeMailer) IsConfigured() bool { return f.configured }

func (f *fakeMailer) SendContactNotification(data email.ContactData) error {
	f.sent = append(f.sent, data)
	return f.err
}

func newTestService(gateway ContentGateway, adminStore AdminStore) *Service {
	return NewService(ServiceOptions{
		Gateway:    gateway,
		Store:      adminStore,
		AuthSecret: "test-secret",
		AccessTTL:  time.Hour,
		CacheTTL:   30 * time.Minute,
	})
}

func TestContentFetchesAllSections(t *testing.T) {
	gateway := newFakeGateway()
	svc := newTestService(gateway, &fakeAdminStore{})

	tree, stale, err := svc.Content(context.Background(), "en")
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if stale {
		t.Error("fresh fetch must not be stale")
	}
	if tree.Home == nil || tree.About == nil || tree.Education == nil || tree.Experience == nil ||
		tree.Projects == nil || tree.Awards == nil || tree.Gallery == nil {
		t.Errorf("expected every section populated: %+v", tree)
	}
	if gateway.callCount() != 7 {
		t.Errorf("expected 7 accessor calls, got %d", gateway.callCount())
	}
	if tree.Gallery.Items == nil || len(tree.Gallery.Items) != 0 {
		t.Errorf("empty gallery must be a renderable empty list, got %+v", tree.Gallery.Items)
	}
}

func TestContentServedFromMemoryCache(t *testing.T) {
	gateway := newFakeGateway()
	svc := newTestService(gateway, &fakeAdminStore{})
	ctx := context.Background()

	if _, _, err := svc.Content(ctx, "en"); err != nil {
		t.Fatal(err)
	}
	first := gateway.callCount()

	tree, _, err := svc.Content(ctx, "en")
	if err != nil {
		t.Fatal(err)
	}
	if gateway.callCount() != first {
		t.Errorf("cached read must not hit the gateway: %d -> %d", first, gateway.callCount())
	}
	if tree.Home.Greeting != "Hello" {
		t.Errorf("cached tree mismatch: %q", tree.Home.Greeting)
	}
}

func TestContentStaleFallbackOnFetchFailure(t *testing.T) {
	gateway := newFakeGateway()
	svc := NewService(ServiceOptions{
		Gateway:    gateway,
		Store:      &fakeAdminStore{},
		AuthSecret: "test-secret",
		CacheTTL:   time.Millisecond,
	})
	ctx := context.Background()

	if _, _, err := svc.Content(ctx, "en"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond) // let the cached entry expire
	gateway.setErr(errors.New("database gone"))

	tree, stale, err := svc.Content(ctx, "en")
	if err != nil {
		t.Fatalf("expected stale fallback, got error: %v", err)
	}
	if !stale {
		t.Error("expected stale flag after failed refresh")
	}
	if tree.Home.Greeting != "Hello" {
		t.Errorf("stale tree mismatch: %q", tree.Home.Greeting)
	}
}

func TestContentErrorWithoutFallback(t *testing.T) {
	gateway := newFakeGateway()
	gateway.setErr(errors.New("database gone"))
	svc := newTestService(gateway, &fakeAdminStore{})

	if _, _, err := svc.Content(context.Background(), "en"); err == nil {
		t.Fatal("expected error when no published tree exists")
	}
}

func TestRefetchBypassesCaches(t *testing.T) {
	gateway := newFakeGateway()
	svc := newTestService(gateway, &fakeAdminStore{})
	ctx := context.Background()

	if _, _, err := svc.Content(ctx, "en"); err != nil {
		t.Fatal(err)
	}
	gateway.setGreeting("Updated")

	if _, err := svc.Refetch(ctx); err != nil {
		t.Fatalf("Refetch: %v", err)
	}
	tree, _, err := svc.Content(ctx, "en")
	if err != nil {
		t.Fatal(err)
	}
	if tree.Home.Greeting != "Updated" {
		t.Errorf("expected refetched data, got %q", tree.Home.Greeting)
	}
}

// Saving through the admin store and then triggering a refetch must surface
// the new values on the public read path.
func TestAdminPatchThenRefetchRoundTrip(t *testing.T) {
	gateway := newFakeGateway()
	adminStore := &fakeAdminStore{
		patchSectionFn: func(ctx context.Context, section string, patch map[string]any) error {
			if greeting, ok := patch["greeting"].(string); ok {
				gateway.setGreeting(greeting)
			}
			return nil
		},
	}
	svc := newTestService(gateway, adminStore)
	ctx := context.Background()

	if _, _, err := svc.Content(ctx, "en"); err != nil {
		t.Fatal(err)
	}
	if err := adminStore.PatchSection(ctx, "home", map[string]any{"greeting": "Bonjour"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Refetch(ctx); err != nil {
		t.Fatal(err)
	}

	tree, _, err := svc.Content(ctx, "en")
	if err != nil {
		t.Fatal(err)
	}
	if tree.Home.Greeting != "Bonjour" {
		t.Errorf("expected patched greeting after refetch, got %q", tree.Home.Greeting)
	}
}

type fakeTranslator struct {
	err error
}

func (f *fakeTranslator) TranslateTree(ctx context.Context, tree *content.Tree, target string) (*content.Tree, error) {
	if f.err != nil {
		return nil, f.err
	}
	clone := *tree
	home := *tree.Home
	home.Greeting = strings.ToUpper(home.Greeting) + " (" + target + ")"
	clone.Home = &home
	return &clone, nil
}

func TestContentTranslated(t *testing.T) {
	gateway := newFakeGateway()
	svc := NewService(ServiceOptions{
		Gateway:    gateway,
		Store:      &fakeAdminStore{},
		Translator: &fakeTranslator{},
		AuthSecret: "test-secret",
	})

	tree, _, err := svc.Content(context.Background(), "fr")
	if err != nil {
		t.Fatal(err)
	}
	if tree.Home.Greeting != "HELLO (fr)" {
		t.Errorf("expected translated greeting, got %q", tree.Home.Greeting)
	}
}

func TestContentTranslationFailureFallsBackToEnglish(t *testing.T) {
	gateway := newFakeGateway()
	svc := NewService(ServiceOptions{
		Gateway:    gateway,
		Store:      &fakeAdminStore{},
		Translator: &fakeTranslator{err: errors.New("translator down")},
		AuthSecret: "test-secret",
	})

	tree, _, err := svc.Content(context.Background(), "fr")
	if err != nil {
		t.Fatalf("translation failure must not fail the read: %v", err)
	}
	if tree.Home.Greeting != "Hello" {
		t.Errorf("expected English fallback, got %q", tree.Home.Greeting)
	}
}

func TestContactRelaySuccess(t *testing.T) {
	var statuses []string
	adminStore := &fakeAdminStore{
		updateContactEmailStatusFn: func(ctx context.Context, id, status string) error {
			statuses = append(statuses, status)
			return nil
		},
	}
	mailer := &fakeMailer{configured: true}
	svc := NewService(ServiceOptions{
		Gateway: newFakeGateway(), Store: adminStore, Mailer: mailer, AuthSecret: "x",
	})

	id, err := svc.Contact(context.Background(), "Ada", "ada@example.com", "Hi")
	if err != nil {
		t.Fatalf("Contact: %v", err)
	}
	if id != "msg_1" {
		t.Errorf("id = %q", id)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].Name != "Ada" {
		t.Errorf("sent = %+v", mailer.sent)
	}
	if len(statuses) != 1 || statuses[0] != store.EmailStatusSent {
		t.Errorf("statuses = %v", statuses)
	}
}

func TestContactRelayFailureMarksFailed(t *testing.T) {
	var statuses []string
	adminStore := &fakeAdminStore{
		updateContactEmailStatusFn: func(ctx context.Context, id, status string) error {
			statuses = append(statuses, status)
			return nil
		},
	}
	mailer := &fakeMailer{configured: true, err: errors.New("smtp refused")}
	svc := NewService(ServiceOptions{
		Gateway: newFakeGateway(), Store: adminStore, Mailer: mailer, AuthSecret: "x",
	})

	// The visitor still gets a success: the message is recorded.
	if _, err := svc.Contact(context.Background(), "Ada", "ada@example.com", "Hi"); err != nil {
		t.Fatalf("Contact: %v", err)
	}
	if len(statuses) != 1 || statuses[0] != store.EmailStatusFailed {
		t.Errorf("statuses = %v", statuses)
	}
}

func TestContactWithoutMailerStaysPending(t *testing.T) {
	updated := false
	adminStore := &fakeAdminStore{
		updateContactEmailStatusFn: func(ctx context.Context, id, status string) error {
			updated = true
			return nil
		},
	}
	svc := NewService(ServiceOptions{
		Gateway: newFakeGateway(), Store: adminStore, Mailer: &fakeMailer{configured: false}, AuthSecret: "x",
	})

	if _, err := svc.Contact(context.Background(), "Ada", "ada@example.com", "Hi"); err != nil {
		t.Fatal(err)
	}
	if updated {
		t.Error("status must stay pending when relay is not configured")
	}
}

func TestContactValidation(t *testing.T) {
	svc := newTestService(newFakeGateway(), &fakeAdminStore{})

	_, err := svc.Contact(context.Background(), "", "ada@example.com", "Hi")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != 422 {
		t.Errorf("expected 422 domain error, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	adminStore := &fakeAdminStore{
		getAdminUserByEmailFn: func(ctx context.Context, emailAddr string) (store.AdminUser, error) {
			if emailAddr != "admin@example.com" {
				return store.AdminUser{}, store.ErrNotFound
			}
			return store.AdminUser{ID: "usr_1", Email: emailAddr, PasswordHash: string(hash), DisplayName: "Admin"}, nil
		},
	}
	svc := newTestService(newFakeGateway(), adminStore)
	ctx := context.Background()

	result, err := svc.Login(ctx, "admin@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := svc.ClaimsFromToken(result.Token)
	if err != nil {
		t.Fatalf("issued token did not parse: %v", err)
	}
	if claims.Sub != "usr_1" || claims.Email != "admin@example.com" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := svc.Login(ctx, "admin@example.com", "wrong"); err == nil {
		t.Error("expected wrong password to fail")
	}
	var domainErr *DomainError
	_, err = svc.Login(ctx, "nobody@example.com", "hunter2")
	if !errors.As(err, &domainErr) || domainErr.Status != 401 {
		t.Errorf("expected 401 for unknown user, got %v", err)
	}
}

func TestMemoryCacheNotUsedAcrossServices(t *testing.T) {
	// Two services with separate memory tiers must not share state.
	gateway := newFakeGateway()
	first := newTestService(gateway, &fakeAdminStore{})
	second := NewService(ServiceOptions{
		Gateway: gateway, Store: &fakeAdminStore{}, Memory: cache.NewMemory(), AuthSecret: "x",
	})
	ctx := context.Background()

	if _, _, err := first.Content(ctx, "en"); err != nil {
		t.Fatal(err)
	}
	calls := gateway.callCount()
	if _, _, err := second.Content(ctx, "en"); err != nil {
		t.Fatal(err)
	}
	if gateway.callCount() != calls+7 {
		t.Errorf("expected a separate fetch for the second service")
	}
}
