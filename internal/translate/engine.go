package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"folio/api/internal/content"
)

// Fields whose string values are translation candidates. Anything else is
// passed through unchanged even when it is a string (names, ids, URLs).
var translatableFields = map[string]struct{}{
	"title":            {},
	"subtitle":         {},
	"greeting":         {},
	"introduction":     {},
	"description":      {},
	"degree":           {},
	"fieldOfStudy":     {},
	"relevantCourses":  {},
	"role":             {},
	"organization":     {},
	"responsibilities": {},
	"skills":           {},
	"interests":        {},
	"qualities":        {},
	"highlights":       {},
	"caption":          {},
	"category":         {},
	"location":         {},
}

// Technology names stay in English regardless of target language.
var technologyBlocklist = map[string]struct{}{
	"Python": {}, "JavaScript": {}, "TypeScript": {}, "Go": {}, "Rust": {},
	"React": {}, "Vue": {}, "Angular": {}, "Node.js": {}, "Next.js": {},
	"AWS": {}, "GCP": {}, "Azure": {}, "Docker": {}, "Kubernetes": {},
	"PostgreSQL": {}, "MySQL": {}, "Redis": {}, "MongoDB": {}, "GraphQL": {},
	"Git": {}, "Linux": {}, "HTML": {}, "CSS": {}, "SQL": {}, "C++": {}, "Java": {},
}

var (
	datePattern  = regexp.MustCompile(`^(\d{4}([-/.]\d{1,2}){0,2}|[A-Z][a-z]+ \d{4}|\d{1,2}/\d{4})$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Engine walks a content tree and replaces translatable leaves. A given
// {text, language} pair is translated at most once across the process
// lifetime; the monthly character budget is guarded by a single writer.
type Engine struct {
	client     Client
	cache      Cache
	batchItems int
	batchChars int
	budget     int

	mu  sync.Mutex // guards budget reads and commits
	now func() time.Time
}

func NewEngine(client Client, cache Cache, batchItems, batchChars, monthlyBudget int) *Engine {
	if batchItems <= 0 {
		batchItems = 50
	}
	if batchChars <= 0 {
		batchChars = 4500
	}
	return &Engine{
		client:     client,
		cache:      cache,
		batchItems: batchItems,
		batchChars: batchChars,
		budget:     monthlyBudget,
		now:        time.Now,
	}
}

// TranslateTree returns a deep copy of tree with translatable strings in the
// target language. Untranslatable or failed strings keep their English value;
// the tree itself never fails once it decodes.
func (e *Engine) TranslateTree(ctx context.Context, tree *content.Tree, target string) (*content.Tree, error) {
	if tree == nil || target == "" || target == "en" {
		return tree, nil
	}

	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encode content tree: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode content tree: %w", err)
	}

	// First pass: gather the distinct candidate strings.
	candidates := make(map[string]struct{})
	walk(generic, "", func(field, value string) (string, bool) {
		if isCandidate(field, value) {
			candidates[value] = struct{}{}
		}
		return "", false
	})

	results := e.resolve(ctx, candidates, target)

	// Second pass: substitute resolved translations in place.
	translated := walk(generic, "", func(field, value string) (string, bool) {
		if !isCandidate(field, value) {
			return "", false
		}
		if out, ok := results[value]; ok {
			return out, true
		}
		return "", false
	})

	out, err := json.Marshal(translated)
	if err != nil {
		return nil, fmt.Errorf("encode translated tree: %w", err)
	}
	var result content.Tree
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("decode translated tree: %w", err)
	}
	return &result, nil
}

// resolve maps candidate texts to translations, serving from cache first and
// batching the remainder. Failed batches simply leave their texts out of the
// result map, which falls back to English.
func (e *Engine) resolve(ctx context.Context, candidates map[string]struct{}, target string) map[string]string {
	results := make(map[string]string, len(candidates))

	var misses []string
	for text := range candidates {
		if cached, ok := e.cache.Get(ctx, cacheKey(text, target)); ok {
			results[text] = cached
			continue
		}
		misses = append(misses, text)
	}
	if len(misses) == 0 {
		return results
	}
	sort.Strings(misses)

	month := e.monthKey()
	budgetWarned := false

	var batch []string
	batchSize := 0
	flush := func() {
		if len(batch) == 0 {
			return
		}
		e.translateBatch(ctx, batch, target, month, results)
		batch = nil
		batchSize = 0
	}

	for _, text := range misses {
		if e.budget > 0 && e.overBudget(ctx, month, batchSize+len(text)) {
			// Soft degrade: the text stays English and nothing is deducted.
			if !budgetWarned {
				log.Printf("translate: monthly character budget exhausted, serving English for remaining strings")
				budgetWarned = true
			}
			continue
		}
		if len(batch) >= e.batchItems || (batchSize > 0 && batchSize+len(text)+1 > e.batchChars) {
			flush()
		}
		batch = append(batch, text)
		batchSize += len(text) + 1
	}
	flush()

	return results
}

// translateBatch sends one newline-joined request and commits its results.
// Any failure isolates to this batch: its texts are left untranslated.
func (e *Engine) translateBatch(ctx context.Context, batch []string, target, month string, results map[string]string) {
	joined := strings.Join(batch, "\n")
	translated, err := e.client.Translate(ctx, joined, target)
	if err != nil {
		log.Printf("translate: batch of %d failed: %v", len(batch), err)
		return
	}

	parts := strings.Split(translated, "\n")
	if len(parts) != len(batch) {
		// The response grew or lost newlines; alignment is unknowable.
		log.Printf("translate: batch response line count %d != %d, discarding batch", len(parts), len(batch))
		return
	}

	chars := 0
	for i, text := range batch {
		out := strings.TrimSpace(parts[i])
		if out == "" {
			continue
		}
		results[text] = out
		e.cache.Set(ctx, cacheKey(text, target), out)
		chars += len(text)
	}

	e.mu.Lock()
	e.cache.AddUsage(ctx, month, chars)
	e.mu.Unlock()
}

func (e *Engine) overBudget(ctx context.Context, month string, pending int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Usage(ctx, month)+pending > e.budget
}

// monthKey names the budget counter; the counter resets when the wall-clock
// month changes because the key changes.
func (e *Engine) monthKey() string {
	return e.now().UTC().Format("2006-01")
}

func cacheKey(text, target string) string {
	return text + "_" + target
}

func isCandidate(field, value string) bool {
	if _, ok := translatableFields[field]; !ok {
		return false
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "http") || strings.HasPrefix(trimmed, "/") {
		return false
	}
	if datePattern.MatchString(trimmed) || emailPattern.MatchString(trimmed) {
		return false
	}
	if _, ok := technologyBlocklist[trimmed]; ok {
		return false
	}
	return true
}

// walk visits every string in a decoded JSON tree. Array elements inherit
// the field name of their containing array. visit returns a replacement and
// whether to apply it.
func walk(node any, field string, visit func(field, value string) (string, bool)) any {
	switch typed := node.(type) {
	case map[string]any:
		for key, value := range typed {
			typed[key] = walk(value, key, visit)
		}
		return typed
	case []any:
		for i, value := range typed {
			typed[i] = walk(value, field, visit)
		}
		return typed
	case string:
		if out, ok := visit(field, typed); ok {
			return out
		}
		return typed
	default:
		return node
	}
}
