package app

import (
	"context"

	"github.com/google/uuid"
)

// AppRepository defines persistence for apps
type AppRepository interface {
	// FindByID finds an app by its ID.
	// Returns shared.ErrNotFound if not found.
	FindByID(ctx context.Context, id uuid.UUID) (*App, error)

	// FindByPublishedUUID finds an app by the UUID used in its public URL.
	// Returns shared.ErrNotFound if no app carries that UUID.
	FindByPublishedUUID(ctx context.Context, publishedUUID uuid.UUID) (*App, error)

	// Save creates or updates an app
	Save(ctx context.Context, app *App) error
}
