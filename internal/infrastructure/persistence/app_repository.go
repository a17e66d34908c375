package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/app"
	"github.com/llmstack/backend/internal/domain/shared"
	"github.com/llmstack/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAppRepository implements app.AppRepository using GORM
type GormAppRepository struct {
	db *gorm.DB
}

// NewGormAppRepository creates a new GormAppRepository
func NewGormAppRepository(db *gorm.DB) *GormAppRepository {
	return &GormAppRepository{db: db}
}

// FindByID finds an app by its ID
func (r *GormAppRepository) FindByID(ctx context.Context, id uuid.UUID) (*app.App, error) {
	var model models.AppModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPublishedUUID finds an app by the UUID in its public URL
func (r *GormAppRepository) FindByPublishedUUID(ctx context.Context, publishedUUID uuid.UUID) (*app.App, error) {
	var model models.AppModel
	if err := r.db.WithContext(ctx).Where("published_uuid = ?", publishedUUID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an app
func (r *GormAppRepository) Save(ctx context.Context, a *app.App) error {
	return r.db.WithContext(ctx).Save(models.AppModelFromDomain(a)).Error
}

var _ app.AppRepository = (*GormAppRepository)(nil)
