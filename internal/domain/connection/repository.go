package connection

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/shared"
)

// ConnectionRepository defines persistence for connections
type ConnectionRepository interface {
	// FindByID returns shared.ErrNotFound if not found
	FindByID(ctx context.Context, id uuid.UUID) (*Connection, error)

	// FindByOwner lists the owner's connections, newest first
	FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Connection, error)

	// CountByOwner counts the owner's connections
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// Save creates or updates a connection
	Save(ctx context.Context, conn *Connection) error

	// FailStaleConnecting marks connections that have been CONNECTING since
	// before cutoff as FAILED and returns how many changed
	FailStaleConnecting(ctx context.Context, cutoff time.Time) (int64, error)

	// Delete returns shared.ErrNotFound if nothing was deleted
	Delete(ctx context.Context, id uuid.UUID) error
}
