package export

import (
	"context"
	"fmt"

	"folio/api/internal/content"
)

// TreeSource supplies the merged content tree the resume renders from.
type TreeSource interface {
	ContentTree(ctx context.Context, languageCode string) (*content.Tree, error)
}

// Service turns the content tree into a downloadable resume PDF.
type Service struct {
	source TreeSource
}

// NewService creates a new export service
func NewService(source TreeSource) *Service {
	return &Service{source: source}
}

// ExportResume renders the resume for the given language and prints it to PDF.
func (s *Service) ExportResume(ctx context.Context, languageCode string) (*Result, error) {
	tree, err := s.source.ContentTree(ctx, languageCode)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	html, err := renderResumeHTML(tree)
	if err != nil {
		return nil, err
	}

	title := "resume"
	if tree.Home != nil && tree.Home.Name != "" {
		title = tree.Home.Name + " Resume"
	}
	return exportPDF(html, title)
}
