// -----------------------------------------------------------------------
// Render Service - Deck assembly, PDF generation and validation
// -----------------------------------------------------------------------

package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

// Service implements RenderCapability: it assembles the deck markdown from
// the job's stage outputs, renders it to PDF, validates the output and
// persists it under the decks directory.
type Service struct {
	config    *common.RenderConfig
	logger    arbor.ILogger
	templates *TemplateStore
}

// NewService creates the render service.
func NewService(config *common.RenderConfig, logger arbor.ILogger) (*Service, error) {
	if err := os.MkdirAll(config.DecksDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create decks directory: %w", err)
	}

	return &Service{
		config:    config,
		logger:    logger,
		templates: NewTemplateStore(config.TemplatesDir),
	}, nil
}

var _ interfaces.RenderCapability = (*Service)(nil)

// RenderDeck builds, validates and persists the deck for a job, returning
// the path of the written PDF.
func (s *Service) RenderDeck(ctx context.Context, job *models.Job) (string, error) {
	if job.Storyline == nil || job.Research == nil {
		return "", fmt.Errorf("job %s is missing stage outputs required for rendering", job.ID)
	}

	templateName := job.TemplateID
	if templateName == "" {
		templateName = s.config.Template
	}
	tmpl, err := s.templates.Get(templateName)
	if err != nil {
		return "", fmt.Errorf("failed to load deck template: %w", err)
	}

	markdown := BuildDeckMarkdown(job)

	pdfBytes, err := MarkdownToPDF(markdown, tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to render deck: %w", err)
	}

	// Validate before persisting; a corrupt deck fails the stage.
	if err := api.Validate(bytes.NewReader(pdfBytes), nil); err != nil {
		return "", fmt.Errorf("rendered deck failed PDF validation: %w", err)
	}

	path := filepath.Join(s.config.DecksDir, job.ID+".pdf")
	if err := os.WriteFile(path, pdfBytes, 0644); err != nil {
		return "", fmt.Errorf("failed to write deck file: %w", err)
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("template", tmpl.Name).
		Str("path", path).
		Int("size_bytes", len(pdfBytes)).
		Msg("Deck rendered")

	return path, nil
}

// Templates lists the available deck template names.
func (s *Service) Templates() []string {
	return s.templates.List()
}
