package store

import (
	"fmt"
	"regexp"
	"strings"
)

// The admin surface operates over dynamic table and column names. Everything
// is resolved through this static registry; a name that is not registered
// never reaches SQL.

type itemDef struct {
	table     string
	parentCol string
	idPrefix  string
	// fixed columns stamped on insert and matched on list, e.g. the
	// category discriminator for experience positions.
	fixed map[string]string
}

type sectionDef struct {
	table    string
	idPrefix string
	items    map[string]itemDef
}

type nestedDef struct {
	table     string
	parentCol string
	idPrefix  string
}

var sections = map[string]sectionDef{
	"home": {
		table:    "home",
		idPrefix: "hm",
		items: map[string]itemDef{
			"organizations": {table: "home_organizations", parentCol: "home_id", idPrefix: "org"},
			"qualities":     {table: "home_qualities", parentCol: "home_id", idPrefix: "ql"},
		},
	},
	"about": {
		table:    "about",
		idPrefix: "ab",
		items: map[string]itemDef{
			"skills":    {table: "about_skills", parentCol: "about_id", idPrefix: "sk"},
			"interests": {table: "about_interests", parentCol: "about_id", idPrefix: "in"},
		},
	},
	"education": {
		table:    "education",
		idPrefix: "ed",
		items: map[string]itemDef{
			"items": {table: "education_items", parentCol: "education_id", idPrefix: "edi"},
		},
	},
	"experience": {
		table:    "experience",
		idPrefix: "ex",
		items: map[string]itemDef{
			"professional": {table: "experience_positions", parentCol: "experience_id", idPrefix: "pos", fixed: map[string]string{"category": "professional"}},
			"leadership":   {table: "experience_positions", parentCol: "experience_id", idPrefix: "pos", fixed: map[string]string{"category": "leadership"}},
		},
	},
	"projects": {
		table:    "projects",
		idPrefix: "pr",
		items: map[string]itemDef{
			"items": {table: "project_items", parentCol: "projects_id", idPrefix: "pri"},
		},
	},
	"awards": {
		table:    "awards",
		idPrefix: "aw",
		items: map[string]itemDef{
			"items": {table: "award_items", parentCol: "awards_id", idPrefix: "awi"},
		},
	},
	"gallery": {
		table:    "gallery",
		idPrefix: "ga",
		items: map[string]itemDef{
			"items": {table: "gallery_items", parentCol: "gallery_id", idPrefix: "gai"},
		},
	},
}

// nested is keyed by the parent item table, then by the nested type the
// admin API addresses.
var nested = map[string]map[string]nestedDef{
	"education_items": {
		"relevantCourses":         {table: "education_relevant_courses", parentCol: "item_id", idPrefix: "crs"},
		"organizationInvolvement": {table: "education_organization_involvement", parentCol: "item_id", idPrefix: "inv"},
	},
	"experience_positions": {
		"responsibilities": {table: "experience_responsibilities", parentCol: "position_id", idPrefix: "rsp"},
	},
	"project_items": {
		"technologies": {table: "project_technologies", parentCol: "item_id", idPrefix: "tec"},
		"highlights":   {table: "project_highlights", parentCol: "item_id", idPrefix: "hl"},
	},
}

func sectionByName(name string) (sectionDef, error) {
	def, ok := sections[name]
	if !ok {
		return sectionDef{}, fmt.Errorf("%w: unknown section %q", ErrUnknownResource, name)
	}
	return def, nil
}

func (d sectionDef) itemType(itemType string) (itemDef, error) {
	if itemType == "" {
		itemType = "items"
	}
	def, ok := d.items[itemType]
	if !ok {
		return itemDef{}, fmt.Errorf("%w: unknown item type %q", ErrUnknownResource, itemType)
	}
	return def, nil
}

func nestedByName(parentTable, nestedType string) (nestedDef, error) {
	types, ok := nested[parentTable]
	if !ok {
		return nestedDef{}, fmt.Errorf("%w: unknown parent table %q", ErrUnknownResource, parentTable)
	}
	def, ok := types[nestedType]
	if !ok {
		return nestedDef{}, fmt.Errorf("%w: unknown nested type %q", ErrUnknownResource, nestedType)
	}
	return def, nil
}

var columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// protected columns can never be set through a patch body.
var protectedColumns = map[string]struct{}{
	"id": {}, "language_code": {}, "created_at": {},
}

// normalizePatch converts a camelCase patch body into snake_case columns,
// rejecting anything that does not survive the column pattern. This is the
// single reshaping point between wire names and storage names.
func normalizePatch(patch map[string]any) (map[string]any, error) {
	normalized := make(map[string]any, len(patch))
	for key, value := range patch {
		column := CamelToSnake(key)
		if !columnPattern.MatchString(column) {
			return nil, fmt.Errorf("%w: invalid field %q", ErrInvalidField, key)
		}
		if _, ok := protectedColumns[column]; ok {
			continue
		}
		normalized[column] = value
	}
	return normalized, nil
}

// CamelToSnake converts an API field name to its column name.
func CamelToSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SnakeToCamel converts a column name back to its API field name.
func SnakeToCamel(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
