// Package preload warms CDN and browser caches by issuing best-effort HEAD
// requests for every image URL in the content tree after a fetch cycle.
package preload

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"folio/api/internal/content"
)

const defaultWorkers = 4

// Preloader fetches image URLs concurrently. Failures are logged and
// otherwise ignored; preloading never affects the serving path.
type Preloader struct {
	client  *http.Client
	workers int
}

func New() *Preloader {
	return &Preloader{
		client:  &http.Client{Timeout: 10 * time.Second},
		workers: defaultWorkers,
	}
}

// WarmTree collects every image URL in the tree and requests each once.
// It blocks until all requests finish and returns the number attempted.
func (p *Preloader) WarmTree(ctx context.Context, tree *content.Tree) int {
	urls := CollectImageURLs(tree)
	if len(urls) == 0 {
		return 0
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range jobs {
				p.warm(ctx, url)
			}
		}()
	}

	for _, url := range urls {
		jobs <- url
	}
	close(jobs)
	wg.Wait()
	return len(urls)
}

func (p *Preloader) warm(ctx context.Context, url string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		log.Printf("preload: build request for %s: %v", url, err)
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("preload: %s: %v", url, err)
		return
	}
	resp.Body.Close()
}

// CollectImageURLs walks the tree and returns the distinct absolute URLs of
// fields whose JSON name ends in "Url". Relative paths are skipped; the
// client cannot reach them without a base host.
func CollectImageURLs(tree *content.Tree) []string {
	if tree == nil {
		return nil
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return nil
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var urls []string
	var visit func(node any, field string)
	visit = func(node any, field string) {
		switch typed := node.(type) {
		case map[string]any:
			for key, value := range typed {
				visit(value, key)
			}
		case []any:
			for _, value := range typed {
				visit(value, field)
			}
		case string:
			if !strings.HasSuffix(field, "Url") {
				return
			}
			if !strings.HasPrefix(typed, "http://") && !strings.HasPrefix(typed, "https://") {
				return
			}
			if _, ok := seen[typed]; ok {
				return
			}
			seen[typed] = struct{}{}
			urls = append(urls, typed)
		}
	}
	visit(generic, "")
	return urls
}
