package app

import (
	"strings"

	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/shared"
)

// App is the aggregate root for a user-built application.
// Only published apps are reachable through the public /app/<uuid> URLs;
// the published UUID is assigned once and never changes afterwards.
type App struct {
	shared.BaseAggregateRoot
	OwnerID       uuid.UUID  `json:"owner_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	PublishedUUID *uuid.UUID `json:"published_uuid,omitempty"`
	IsPublished   bool       `json:"is_published"`
}

// NewApp creates a new unpublished app
func NewApp(ownerID uuid.UUID, name, description string) (*App, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "App name cannot be empty")
	}
	if len(name) > 255 {
		return nil, shared.NewDomainError("INVALID_NAME", "App name cannot exceed 255 characters")
	}
	return &App{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		Name:              name,
		Description:       description,
	}, nil
}

// Publish marks the app as published, assigning a published UUID on first call.
func (a *App) Publish() uuid.UUID {
	if a.PublishedUUID == nil {
		id := uuid.New()
		a.PublishedUUID = &id
	}
	if !a.IsPublished {
		a.IsPublished = true
		a.Touch()
	}
	return *a.PublishedUUID
}

// Unpublish hides the app but keeps its published UUID for a later re-publish.
func (a *App) Unpublish() {
	if a.IsPublished {
		a.IsPublished = false
		a.Touch()
	}
}

// Rename changes the app name
func (a *App) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "App name cannot be empty")
	}
	a.Name = name
	a.Touch()
	return nil
}
