package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgSearch implements Searcher with plain ILIKE matching as a fallback.
// The content tables are small enough that sequential scans are fine.
type PgSearch struct {
	db *sql.DB
}

// NewPgSearch creates a PostgreSQL searcher.
func NewPgSearch(db *sql.DB) *PgSearch {
	return &PgSearch{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgSearch) Healthy() bool {
	return true
}

// Search runs a UNION ALL across project items, experience positions, and
// awards, ranked by section order and sort_order.
func (p *PgSearch) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	args := []any{"%" + q.Text + "%"}
	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultProject {
		subQueries = append(subQueries, `
			SELECT 'project'::text AS type, pi.id, pi.title,
				pi.description AS snippet,
				'projects'::text AS section,
				''::text AS category,
				1 AS section_rank, pi.sort_order
			FROM project_items pi
			WHERE pi.is_active AND (pi.title ILIKE $1 OR pi.description ILIKE $1
				OR EXISTS (
					SELECT 1 FROM project_technologies pt
					WHERE pt.item_id = pi.id AND pt.is_active AND pt.name ILIKE $1
				))`)
	}

	if q.FilterType == "" || q.FilterType == ResultPosition {
		subQueries = append(subQueries, `
			SELECT 'position'::text AS type, ep.id, ep.title,
				ep.company AS snippet,
				'experience'::text AS section,
				ep.category,
				2 AS section_rank, ep.sort_order
			FROM experience_positions ep
			WHERE ep.is_active AND (ep.title ILIKE $1 OR ep.company ILIKE $1)`)
	}

	if q.FilterType == "" || q.FilterType == ResultAward {
		subQueries = append(subQueries, `
			SELECT 'award'::text AS type, ai.id, ai.title,
				ai.organization AS snippet,
				'awards'::text AS section,
				''::text AS category,
				3 AS section_rank, ai.sort_order
			FROM award_items ai
			WHERE ai.is_active AND (ai.title ILIKE $1 OR ai.organization ILIKE $1 OR ai.description ILIKE $1)`)
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, section, category
		FROM (%s) sub
		ORDER BY section_rank, sort_order
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pg search count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pg search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.Section, &r.Category); err != nil {
			return nil, 0, fmt.Errorf("pg search scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}
