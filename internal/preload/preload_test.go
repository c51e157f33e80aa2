package preload

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"folio/api/internal/content"
)

func TestCollectImageURLs(t *testing.T) {
	tree := &content.Tree{
		Home: &content.Home{
			HeroImageURL: "https://cdn.example.com/hero.png",
			ResumeURL:    "/assets/resume.pdf", // relative, skipped
			Organizations: []content.Organization{
				{LogoURL: "https://cdn.example.com/acme.png"},
			},
		},
		About: &content.About{
			ProfileImageURL: "https://cdn.example.com/profile.jpg",
		},
		Gallery: &content.Gallery{
			Items: []content.GalleryItem{
				{ImageURL: "https://cdn.example.com/hero.png"}, // duplicate
				{ImageURL: "https://cdn.example.com/gallery1.jpg"},
			},
		},
	}

	urls := CollectImageURLs(tree)
	sort.Strings(urls)

	want := []string{
		"https://cdn.example.com/acme.png",
		"https://cdn.example.com/gallery1.jpg",
		"https://cdn.example.com/hero.png",
		"https://cdn.example.com/profile.jpg",
	}
	if len(urls) != len(want) {
		t.Fatalf("got %d urls, want %d: %v", len(urls), len(want), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestCollectImageURLsNilTree(t *testing.T) {
	if urls := CollectImageURLs(nil); len(urls) != 0 {
		t.Errorf("expected no urls, got %v", urls)
	}
}

func TestWarmTree(t *testing.T) {
	var mu sync.Mutex
	hits := make(map[string]int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
	}))
	defer srv.Close()

	tree := &content.Tree{
		Home: &content.Home{HeroImageURL: srv.URL + "/hero.png"},
		Gallery: &content.Gallery{
			Items: []content.GalleryItem{
				{ImageURL: srv.URL + "/one.jpg"},
				{ImageURL: srv.URL + "/two.jpg"},
			},
		},
	}

	n := New().WarmTree(context.Background(), tree)
	if n != 3 {
		t.Errorf("attempted = %d, want 3", n)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, path := range []string{"/hero.png", "/one.jpg", "/two.jpg"} {
		if hits[path] != 1 {
			t.Errorf("hits[%s] = %d, want 1", path, hits[path])
		}
	}
}

func TestWarmTreeUnreachableHost(t *testing.T) {
	tree := &content.Tree{
		Home: &content.Home{HeroImageURL: "http://127.0.0.1:1/hero.png"},
	}
	// Must not panic or block; the failure is logged and swallowed.
	if n := New().WarmTree(context.Background(), tree); n != 1 {
		t.Errorf("attempted = %d, want 1", n)
	}
}
