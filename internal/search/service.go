package search

import (
	"log"

	"folio/api/internal/content"
)

// Service is the facade that tries Meilisearch first and falls back to ILIKE.
type Service struct {
	meili *Meili
	pg    *PgSearch
}

// NewService creates a search service. meili may be nil when not configured.
func NewService(meili *Meili, pg *PgSearch) *Service {
	return &Service{meili: meili, pg: pg}
}

// Search tries Meilisearch if healthy, otherwise falls back to Postgres.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to postgres: %v", err)
	}

	results, total, err := s.pg.Search(q)
	if err != nil {
		log.Printf("search: postgres error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// Reindex pushes the current content tree into Meilisearch. Called after
// every clean full fetch; fire-and-forget, errors are only logged.
func (s *Service) Reindex(tree *content.Tree) {
	if s.meili == nil || !s.meili.Healthy() || tree == nil {
		return
	}

	projects, positions, awards := RecordsFromTree(tree)
	go func() {
		if err := s.meili.IndexProjects(projects); err != nil {
			log.Printf("search: reindex projects: %v", err)
		}
		if err := s.meili.IndexPositions(positions); err != nil {
			log.Printf("search: reindex positions: %v", err)
		}
		if err := s.meili.IndexAwards(awards); err != nil {
			log.Printf("search: reindex awards: %v", err)
		}
	}()
}

// RecordsFromTree flattens the searchable sections of a content tree.
func RecordsFromTree(tree *content.Tree) ([]ProjectRecord, []PositionRecord, []AwardRecord) {
	var projects []ProjectRecord
	if tree.Projects != nil {
		for _, item := range tree.Projects.Items {
			projects = append(projects, ProjectRecord{
				ID:           item.ID,
				Title:        item.Title,
				Description:  item.Description,
				Technologies: item.Technologies,
			})
		}
	}

	var positions []PositionRecord
	if tree.Experience != nil {
		for _, pos := range tree.Experience.ProfessionalPositions {
			positions = append(positions, PositionRecord{
				ID: pos.ID, Title: pos.Title, Company: pos.Company, Category: "professional",
			})
		}
		for _, pos := range tree.Experience.LeadershipPositions {
			positions = append(positions, PositionRecord{
				ID: pos.ID, Title: pos.Title, Company: pos.Company, Category: "leadership",
			})
		}
	}

	var awards []AwardRecord
	if tree.Awards != nil {
		for _, item := range tree.Awards.Items {
			awards = append(awards, AwardRecord{
				ID:           item.ID,
				Title:        item.Title,
				Organization: item.Organization,
				Description:  item.Description,
			})
		}
	}

	return projects, positions, awards
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
