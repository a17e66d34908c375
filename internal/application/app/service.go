// Package app serves read-only lookups of published apps.
package app

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/app"
	"github.com/llmstack/backend/internal/domain/shared"
	"github.com/llmstack/backend/internal/infrastructure/logger"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// PublishedAppResponse is the public view of a published app
type PublishedAppResponse struct {
	PublishedUUID uuid.UUID `json:"published_uuid"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TitleConfig configures page titles of the SPA shell
type TitleConfig struct {
	Default string
	Suffix  string
}

// AppService handles app lookups
type AppService struct {
	repo      app.AppRepository
	titles    TitleConfig
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
}

// NewAppService creates a new AppService
func NewAppService(repo app.AppRepository, titles TitleConfig, log *zap.Logger) *AppService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AppService{
		repo:      repo,
		titles:    titles,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    log,
	}
}

// GetPublished returns a published app. Apps that were unpublished are not found.
func (s *AppService) GetPublished(ctx context.Context, publishedUUID uuid.UUID) (*PublishedAppResponse, error) {
	a, err := s.repo.FindByPublishedUUID(ctx, publishedUUID)
	if err != nil {
		return nil, err
	}
	if !a.IsPublished {
		return nil, shared.ErrNotFound
	}
	return &PublishedAppResponse{
		PublishedUUID: publishedUUID,
		Name:          s.plainText(a.Name),
		Description:   s.plainText(a.Description),
		UpdatedAt:     a.UpdatedAt,
	}, nil
}

// PageTitle returns the document title for a shell request path. Paths of the
// form /app/<published uuid>/... are titled after the app; everything else, and
// every failed lookup, gets the default title.
func (s *AppService) PageTitle(ctx context.Context, path string) string {
	if !strings.HasPrefix(path, "/app/") {
		return s.titles.Default
	}
	segment := strings.SplitN(strings.TrimPrefix(path, "/app/"), "/", 2)[0]
	id, err := uuid.Parse(segment)
	if err != nil {
		return s.titles.Default
	}

	a, err := s.repo.FindByPublishedUUID(ctx, id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			logger.LOr(ctx, s.logger).Warn("app lookup for page title failed",
				zap.String("published_uuid", id.String()),
				zap.Error(err),
			)
		}
		return s.titles.Default
	}

	return s.plainText(a.Name) + s.titles.Suffix
}

// plainText strips markup and decodes entities; the template escapes on output
func (s *AppService) plainText(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(v)))
}
