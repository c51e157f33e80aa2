package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Gateway issues the per-section queries. Every accessor accepts a
// languageCode but queries the 'en' rows: rows are stored in English and
// translated downstream. The parameter is kept for compatibility with the
// admin tooling that threads it through; see DESIGN.md before wiring it up.
type Gateway struct {
	db *sql.DB
}

func NewGateway(db *sql.DB) *Gateway {
	return &Gateway{db: db}
}

const sourceLanguage = "en"

func (g *Gateway) GetHomeData(ctx context.Context, languageCode string) (*Home, error) {
	_ = languageCode
	const query = `
		SELECT h.id, h.greeting, h.name, h.title, h.introduction, h.hero_image_url,
			h.email, h.phone, h.location, h.linkedin_url, h.github_url, h.resume_url,
			(SELECT COALESCE(json_agg(json_build_object('name', o.name, 'logoUrl', o.logo_url, 'link', o.link) ORDER BY o.sort_order), '[]')
				FROM home_organizations o WHERE o.home_id = h.id AND o.is_active) AS organizations,
			(SELECT COALESCE(json_agg(json_build_object('title', q.title, 'description', q.description) ORDER BY q.sort_order), '[]')
				FROM home_qualities q WHERE q.home_id = h.id AND q.is_active) AS qualities
		FROM home h
		WHERE h.language_code = $1 AND h.is_active
		LIMIT 1
	`
	var item Home
	var organizations, qualities []byte
	err := g.db.QueryRowContext(ctx, query, sourceLanguage).Scan(
		&item.ID, &item.Greeting, &item.Name, &item.Title, &item.Introduction, &item.HeroImageURL,
		&item.Email, &item.Phone, &item.Location, &item.LinkedinURL, &item.GithubURL, &item.ResumeURL,
		&organizations, &qualities,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &Home{Organizations: []Organization{}, Qualities: []Quality{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query home: %w", err)
	}
	if err := decodeAgg(organizations, &item.Organizations); err != nil {
		return nil, fmt.Errorf("decode home organizations: %w", err)
	}
	if err := decodeAgg(qualities, &item.Qualities); err != nil {
		return nil, fmt.Errorf("decode home qualities: %w", err)
	}
	return &item, nil
}

func (g *Gateway) GetAboutData(ctx context.Context, languageCode string) (*About, error) {
	_ = languageCode
	const query = `
		SELECT a.id, a.title, a.description, a.profile_image_url,
			(SELECT COALESCE(json_agg(json_build_object('name', s.name, 'category', s.category) ORDER BY s.sort_order), '[]')
				FROM about_skills s WHERE s.about_id = a.id AND s.is_active) AS skills,
			(SELECT COALESCE(json_agg(i.name ORDER BY i.sort_order), '[]')
				FROM about_interests i WHERE i.about_id = a.id AND i.is_active) AS interests
		FROM about a
		WHERE a.language_code = $1 AND a.is_active
		LIMIT 1
	`
	var item About
	var skills, interests []byte
	err := g.db.QueryRowContext(ctx, query, sourceLanguage).Scan(
		&item.ID, &item.Title, &item.Description, &item.ProfileImageURL, &skills, &interests,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &About{Skills: []Skill{}, Interests: []string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query about: %w", err)
	}
	if err := decodeAgg(skills, &item.Skills); err != nil {
		return nil, fmt.Errorf("decode about skills: %w", err)
	}
	if err := decodeAgg(interests, &item.Interests); err != nil {
		return nil, fmt.Errorf("decode about interests: %w", err)
	}
	return &item, nil
}

func (g *Gateway) GetEducationData(ctx context.Context, languageCode string) (*Education, error) {
	_ = languageCode
	section := Education{Items: []EducationItem{}}
	if err := g.sectionHeader(ctx, "education", &section.ID, &section.Title); err != nil {
		return nil, err
	}

	const query = `
		SELECT i.id, i.name, i.degree, i.field_of_study, i.completion_date, i.logo_url, i.description,
			(SELECT COALESCE(json_agg(c.name ORDER BY c.sort_order), '[]')
				FROM education_relevant_courses c WHERE c.item_id = i.id AND c.is_active) AS relevant_courses,
			(SELECT COALESCE(json_agg(json_build_object('organization', v.organization, 'role', v.role) ORDER BY v.sort_order), '[]')
				FROM education_organization_involvement v WHERE v.item_id = i.id AND v.is_active) AS organization_involvement
		FROM education_items i
		JOIN education e ON e.id = i.education_id
		WHERE e.language_code = $1 AND e.is_active AND i.is_active
		ORDER BY i.sort_order
	`
	rows, err := g.db.QueryContext(ctx, query, sourceLanguage)
	if err != nil {
		return nil, fmt.Errorf("query education items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item EducationItem
		var courses, involvement []byte
		if err := rows.Scan(&item.ID, &item.Name, &item.Degree, &item.FieldOfStudy, &item.CompletionDate,
			&item.LogoURL, &item.Description, &courses, &involvement); err != nil {
			return nil, fmt.Errorf("scan education item: %w", err)
		}
		if err := decodeAgg(courses, &item.RelevantCourses); err != nil {
			return nil, fmt.Errorf("decode relevant courses: %w", err)
		}
		if err := decodeAgg(involvement, &item.OrganizationInvolvement); err != nil {
			return nil, fmt.Errorf("decode organization involvement: %w", err)
		}
		section.Items = append(section.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate education items: %w", err)
	}
	return &section, nil
}

func (g *Gateway) GetExperienceData(ctx context.Context, languageCode string) (*Experience, error) {
	_ = languageCode
	section := Experience{ProfessionalPositions: []Position{}, LeadershipPositions: []Position{}}
	if err := g.sectionHeader(ctx, "experience", &section.ID, &section.Title); err != nil {
		return nil, err
	}

	const query = `
		SELECT p.id, p.category, p.title, p.company, p.location, p.start_date, p.end_date, p.logo_url,
			(SELECT COALESCE(json_agg(r.description ORDER BY r.sort_order), '[]')
				FROM experience_responsibilities r WHERE r.position_id = p.id AND r.is_active) AS responsibilities
		FROM experience_positions p
		JOIN experience e ON e.id = p.experience_id
		WHERE e.language_code = $1 AND e.is_active AND p.is_active
		ORDER BY p.sort_order
	`
	rows, err := g.db.QueryContext(ctx, query, sourceLanguage)
	if err != nil {
		return nil, fmt.Errorf("query experience positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item Position
		var category string
		var responsibilities []byte
		if err := rows.Scan(&item.ID, &category, &item.Title, &item.Company, &item.Location,
			&item.StartDate, &item.EndDate, &item.LogoURL, &responsibilities); err != nil {
			return nil, fmt.Errorf("scan experience position: %w", err)
		}
		if err := decodeAgg(responsibilities, &item.Responsibilities); err != nil {
			return nil, fmt.Errorf("decode responsibilities: %w", err)
		}
		if category == "leadership" {
			section.LeadershipPositions = append(section.LeadershipPositions, item)
		} else {
			section.ProfessionalPositions = append(section.ProfessionalPositions, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate experience positions: %w", err)
	}
	return &section, nil
}

func (g *Gateway) GetProjectsData(ctx context.Context, languageCode string) (*Projects, error) {
	_ = languageCode
	section := Projects{Items: []ProjectItem{}}
	if err := g.sectionHeader(ctx, "projects", &section.ID, &section.Title); err != nil {
		return nil, err
	}

	const query = `
		SELECT i.id, i.title, i.description, i.image_url, i.link, i.repo_url,
			(SELECT COALESCE(json_agg(t.name ORDER BY t.sort_order), '[]')
				FROM project_technologies t WHERE t.item_id = i.id AND t.is_active) AS technologies,
			(SELECT COALESCE(json_agg(h.description ORDER BY h.sort_order), '[]')
				FROM project_highlights h WHERE h.item_id = i.id AND h.is_active) AS highlights
		FROM project_items i
		JOIN projects p ON p.id = i.projects_id
		WHERE p.language_code = $1 AND p.is_active AND i.is_active
		ORDER BY i.sort_order
	`
	rows, err := g.db.QueryContext(ctx, query, sourceLanguage)
	if err != nil {
		return nil, fmt.Errorf("query project items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item ProjectItem
		var technologies, highlights []byte
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.ImageURL,
			&item.Link, &item.RepoURL, &technologies, &highlights); err != nil {
			return nil, fmt.Errorf("scan project item: %w", err)
		}
		if err := decodeAgg(technologies, &item.Technologies); err != nil {
			return nil, fmt.Errorf("decode technologies: %w", err)
		}
		if err := decodeAgg(highlights, &item.Highlights); err != nil {
			return nil, fmt.Errorf("decode highlights: %w", err)
		}
		section.Items = append(section.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project items: %w", err)
	}
	return &section, nil
}

func (g *Gateway) GetAwardsData(ctx context.Context, languageCode string) (*Awards, error) {
	_ = languageCode
	section := Awards{Items: []AwardItem{}}
	if err := g.sectionHeader(ctx, "awards", &section.ID, &section.Title); err != nil {
		return nil, err
	}

	const query = `
		SELECT i.id, i.title, i.organization, i.awarded_on, i.description, i.image_url
		FROM award_items i
		JOIN awards a ON a.id = i.awards_id
		WHERE a.language_code = $1 AND a.is_active AND i.is_active
		ORDER BY i.sort_order
	`
	rows, err := g.db.QueryContext(ctx, query, sourceLanguage)
	if err != nil {
		return nil, fmt.Errorf("query award items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item AwardItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Organization, &item.AwardedOn,
			&item.Description, &item.ImageURL); err != nil {
			return nil, fmt.Errorf("scan award item: %w", err)
		}
		section.Items = append(section.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate award items: %w", err)
	}
	return &section, nil
}

func (g *Gateway) GetGalleryData(ctx context.Context, languageCode string) (*Gallery, error) {
	_ = languageCode
	section := Gallery{Items: []GalleryItem{}}
	if err := g.sectionHeader(ctx, "gallery", &section.ID, &section.Title); err != nil {
		return nil, err
	}

	const query = `
		SELECT i.id, i.image_url, i.caption, i.category
		FROM gallery_items i
		JOIN gallery g ON g.id = i.gallery_id
		WHERE g.language_code = $1 AND g.is_active AND i.is_active
		ORDER BY i.sort_order
	`
	rows, err := g.db.QueryContext(ctx, query, sourceLanguage)
	if err != nil {
		return nil, fmt.Errorf("query gallery items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item GalleryItem
		if err := rows.Scan(&item.ID, &item.ImageURL, &item.Caption, &item.Category); err != nil {
			return nil, fmt.Errorf("scan gallery item: %w", err)
		}
		section.Items = append(section.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery items: %w", err)
	}
	return &section, nil
}

// sectionHeader loads the singleton header row for list-style sections.
// A missing row leaves the zero value in place; the section still renders.
func (g *Gateway) sectionHeader(ctx context.Context, table string, id, title *string) error {
	query := fmt.Sprintf(`SELECT id, title FROM %s WHERE language_code = $1 AND is_active LIMIT 1`, table)
	err := g.db.QueryRowContext(ctx, query, sourceLanguage).Scan(id, title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query %s header: %w", table, err)
	}
	return nil
}

func decodeAgg(raw []byte, target any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}
