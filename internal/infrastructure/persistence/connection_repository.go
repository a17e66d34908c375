package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/connection"
	"github.com/llmstack/backend/internal/domain/shared"
	"github.com/llmstack/backend/internal/infrastructure/crypto"
	"github.com/llmstack/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// ConnectionSortFields contains allowed sort fields for connections
var ConnectionSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"status":     true,
}

// GormConnectionRepository implements connection.ConnectionRepository using GORM.
// Configuration is sealed with the cipher on write and opened on read.
type GormConnectionRepository struct {
	db     *gorm.DB
	cipher crypto.Cipher
}

// NewGormConnectionRepository creates a new GormConnectionRepository.
// A nil cipher stores configuration as plain JSON.
func NewGormConnectionRepository(db *gorm.DB, cipher crypto.Cipher) *GormConnectionRepository {
	if cipher == nil {
		cipher = crypto.Plaintext{}
	}
	return &GormConnectionRepository{db: db, cipher: cipher}
}

// FindByID finds a connection by its ID
func (r *GormConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*connection.Connection, error) {
	var model models.ConnectionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(r.cipher)
}

// FindByOwner lists the owner's connections
func (r *GormConnectionRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]connection.Connection, error) {
	var rows []models.ConnectionModel
	query := r.db.WithContext(ctx).Model(&models.ConnectionModel{}).Where("owner_id = ?", ownerID)
	query = applyFilter(query, filter, ConnectionSortFields)

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]connection.Connection, 0, len(rows))
	for i := range rows {
		conn, err := rows[i].ToDomain(r.cipher)
		if err != nil {
			return nil, err
		}
		out = append(out, *conn)
	}
	return out, nil
}

// CountByOwner counts the owner's connections
func (r *GormConnectionRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ConnectionModel{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

// Save creates or updates a connection
func (r *GormConnectionRepository) Save(ctx context.Context, conn *connection.Connection) error {
	model, err := models.ConnectionModelFromDomain(conn, r.cipher)
	if err != nil {
		return fmt.Errorf("save connection %s: %w", conn.ID, err)
	}
	return r.db.WithContext(ctx).Save(model).Error
}

// FailStaleConnecting fails connections left CONNECTING by an activation
// that never finished, e.g. after a crash
func (r *GormConnectionRepository) FailStaleConnecting(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.ConnectionModel{}).
		Where("status = ? AND updated_at < ?", string(connection.StatusConnecting), cutoff).
		Updates(map[string]any{
			"status":     string(connection.StatusFailed),
			"updated_at": time.Now(),
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

// Delete deletes a connection
func (r *GormConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ConnectionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies ordering and pagination. Unknown sort fields fall back
// to created_at so user input never reaches the ORDER BY clause.
func applyFilter(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	orderBy := filter.OrderBy
	if !allowed[orderBy] {
		orderBy = "created_at"
	}
	dir := "DESC"
	if filter.OrderDir == "asc" {
		dir = "ASC"
	}
	query = query.Order(orderBy + " " + dir)

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

var _ connection.ConnectionRepository = (*GormConnectionRepository)(nil)
