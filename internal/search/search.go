// Package search indexes portfolio entries for the public search endpoint.
// Meilisearch serves queries when available; a PostgreSQL ILIKE fallback
// answers when it is not.
package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultProject  ResultType = "project"
	ResultPosition ResultType = "position"
	ResultAward    ResultType = "award"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type     ResultType `json:"type"`
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Snippet  string     `json:"snippet"`
	Section  string     `json:"section"`
	Category string     `json:"category,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// ProjectRecord is the data we index for a project.
type ProjectRecord struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
}

// PositionRecord is the data we index for an experience position.
type PositionRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Category string `json:"category"`
}

// AwardRecord is the data we index for an award.
type AwardRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Description  string `json:"description"`
}
