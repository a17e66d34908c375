package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/app"
	"github.com/llmstack/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockGormDB creates a GORM DB backed by sqlmock speaking the postgres dialect
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

var appColumns = []string{
	"id", "created_at", "updated_at", "version",
	"owner_id", "name", "description", "published_uuid", "is_published",
}

func TestGormAppRepository_FindByPublishedUUID(t *testing.T) {
	t.Run("finds the app", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormAppRepository(db)

		id, owner, published := uuid.New(), uuid.New(), uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows(appColumns).AddRow(
			id.String(), now, now, 2,
			owner.String(), "Research Assistant", "", published.String(), true,
		)
		mock.ExpectQuery(`SELECT \* FROM "apps" WHERE published_uuid = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(published, 1).
			WillReturnRows(rows)

		a, err := repo.FindByPublishedUUID(context.Background(), published)
		require.NoError(t, err)
		assert.Equal(t, id, a.ID)
		assert.Equal(t, "Research Assistant", a.Name)
		require.NotNil(t, a.PublishedUUID)
		assert.Equal(t, published, *a.PublishedUUID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to ErrNotFound", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormAppRepository(db)

		published := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "apps" WHERE published_uuid = \$1`).
			WithArgs(published, 1).
			WillReturnRows(sqlmock.NewRows(appColumns))

		a, err := repo.FindByPublishedUUID(context.Background(), published)
		assert.Nil(t, a)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("passes through driver errors", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormAppRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "apps"`).WillReturnError(errors.New("connection refused"))

		_, err := repo.FindByPublishedUUID(context.Background(), uuid.New())
		require.Error(t, err)
		assert.NotErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormAppRepository_SQLiteRoundTrip(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormAppRepository(db.DB)
	ctx := context.Background()

	a, err := app.NewApp(uuid.New(), "Support Bot", "answers tickets")
	require.NoError(t, err)
	published := a.Publish()
	require.NoError(t, repo.Save(ctx, a))

	found, err := repo.FindByPublishedUUID(ctx, published)
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)
	assert.True(t, found.IsPublished)

	require.NoError(t, found.Rename("Helpdesk Bot"))
	require.NoError(t, repo.Save(ctx, found))

	byID, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Helpdesk Bot", byID.Name)

	_, err = repo.FindByPublishedUUID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
