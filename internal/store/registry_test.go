package store

import (
	"errors"
	"testing"
)

func TestCamelToSnake(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"title", "title"},
		{"imageUrl", "image_url"},
		{"educationImageUrl", "education_image_url"},
		{"completionDate", "completion_date"},
		{"fieldOfStudy", "field_of_study"},
		{"sortOrder", "sort_order"},
	}
	for _, tt := range tests {
		if got := CamelToSnake(tt.in); got != tt.want {
			t.Errorf("CamelToSnake(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSnakeToCamel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"title", "title"},
		{"image_url", "imageUrl"},
		{"completion_date", "completionDate"},
		{"is_active", "isActive"},
		{"education_image_url", "educationImageUrl"},
	}
	for _, tt := range tests {
		if got := SnakeToCamel(tt.in); got != tt.want {
			t.Errorf("SnakeToCamel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoundTripNaming(t *testing.T) {
	fields := []string{"imageUrl", "completionDate", "fieldOfStudy", "logoUrl", "startDate"}
	for _, field := range fields {
		if got := SnakeToCamel(CamelToSnake(field)); got != field {
			t.Errorf("round trip %q = %q", field, got)
		}
	}
}

func TestNormalizePatch(t *testing.T) {
	patch := map[string]any{
		"imageUrl":  "/assets/pic.png",
		"sortOrder": 3,
		"id":        "evil_override",
	}
	normalized, err := normalizePatch(patch)
	if err != nil {
		t.Fatalf("normalizePatch: %v", err)
	}
	if normalized["image_url"] != "/assets/pic.png" {
		t.Errorf("expected image_url mapped, got %v", normalized)
	}
	if _, ok := normalized["id"]; ok {
		t.Error("expected protected id column to be stripped")
	}
}

func TestNormalizePatchRejectsBadNames(t *testing.T) {
	bad := []string{"image-url", "a;DROP TABLE home", "Image Url", "1col"}
	for _, field := range bad {
		_, err := normalizePatch(map[string]any{field: "x"})
		if !errors.Is(err, ErrInvalidField) {
			t.Errorf("expected ErrInvalidField for %q, got %v", field, err)
		}
	}
}

func TestSectionRegistry(t *testing.T) {
	for _, name := range []string{"home", "about", "education", "experience", "projects", "awards", "gallery"} {
		if _, err := sectionByName(name); err != nil {
			t.Errorf("expected section %q registered: %v", name, err)
		}
	}
	if _, err := sectionByName("users"); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("expected ErrUnknownResource, got %v", err)
	}
}

func TestItemTypeDefaults(t *testing.T) {
	def, err := sectionByName("education")
	if err != nil {
		t.Fatal(err)
	}
	item, err := def.itemType("")
	if err != nil {
		t.Fatalf("expected default item type: %v", err)
	}
	if item.table != "education_items" {
		t.Errorf("unexpected table %q", item.table)
	}
}

func TestExperienceDiscriminator(t *testing.T) {
	def, err := sectionByName("experience")
	if err != nil {
		t.Fatal(err)
	}
	professional, err := def.itemType("professional")
	if err != nil {
		t.Fatal(err)
	}
	leadership, err := def.itemType("leadership")
	if err != nil {
		t.Fatal(err)
	}
	if professional.table != leadership.table {
		t.Error("expected both position types to share a table")
	}
	if professional.fixed["category"] != "professional" || leadership.fixed["category"] != "leadership" {
		t.Error("expected category discriminators")
	}
}

func TestNestedRegistry(t *testing.T) {
	def, err := nestedByName("education_items", "relevantCourses")
	if err != nil {
		t.Fatalf("expected relevantCourses registered: %v", err)
	}
	if def.table != "education_relevant_courses" || def.parentCol != "item_id" {
		t.Errorf("unexpected nested def %+v", def)
	}

	if _, err := nestedByName("education_items", "passwords"); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("expected ErrUnknownResource, got %v", err)
	}
	if _, err := nestedByName("admin_users", "anything"); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("expected ErrUnknownResource for unregistered parent, got %v", err)
	}
}
