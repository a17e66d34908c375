package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/connection"
	"github.com/llmstack/backend/internal/domain/shared"
	"github.com/llmstack/backend/internal/infrastructure/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var linkedInDescriptor = connection.TypeDescriptor{
	Name:         "LinkedIn Login",
	ProviderSlug: "linkedin",
	Slug:         "web_login",
	BaseType:     connection.BaseTypeCredentials,
}

func newTestConnection(t *testing.T, owner uuid.UUID, name string) *connection.Connection {
	t.Helper()
	c, err := connection.NewConnection(owner, name, "", linkedInDescriptor, map[string]any{
		"username": "jane@example.com",
		"password": "hunter2",
	})
	require.NoError(t, err)
	return c
}

func TestGormConnectionRepository_FindByID_NotFound(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormConnectionRepository(db, nil)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "connections" WHERE id = \$1 ORDER BY .* LIMIT .*`).
		WithArgs(id, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	c, err := repo.FindByID(context.Background(), id)
	assert.Nil(t, c)
	assert.Equal(t, shared.ErrNotFound, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormConnectionRepository_Delete(t *testing.T) {
	t.Run("deletes existing row", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormConnectionRepository(db, nil)

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM "connections" WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when nothing deleted", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormConnectionRepository(db, nil)

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM "connections" WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.Equal(t, shared.ErrNotFound, repo.Delete(context.Background(), id))
	})
}

func TestGormConnectionRepository_SaveUpdates(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormConnectionRepository(db, nil)

	c := newTestConnection(t, uuid.New(), "Work")
	mock.ExpectExec(`UPDATE "connections" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormConnectionRepository_SQLiteRoundTrip(t *testing.T) {
	db := newSQLiteDatabase(t)
	cipher, err := crypto.New("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	repo := NewGormConnectionRepository(db.DB, cipher)
	ctx := context.Background()

	owner := uuid.New()
	first := newTestConnection(t, owner, "Alpha")
	second := newTestConnection(t, owner, "Beta")
	other := newTestConnection(t, uuid.New(), "Gamma")
	for _, c := range []*connection.Connection{first, second, other} {
		require.NoError(t, repo.Save(ctx, c))
	}

	t.Run("stores configuration sealed", func(t *testing.T) {
		var raw string
		require.NoError(t, db.DB.Raw("SELECT configuration FROM connections WHERE id = ?", first.ID).Scan(&raw).Error)
		assert.NotContains(t, raw, "hunter2")
	})

	t.Run("persists activation outcome", func(t *testing.T) {
		first.MarkConnecting()
		require.NoError(t, first.MarkActive(&connection.StorageState{
			Cookies: []connection.Cookie{{Name: "li_at", Value: "abc", Domain: ".linkedin.com", Path: "/"}},
			Origins: []connection.OriginState{},
		}))
		require.NoError(t, repo.Save(ctx, first))

		loaded, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, connection.StatusActive, loaded.Status)
		assert.Equal(t, "hunter2", loaded.Credential("password"))
		state, err := loaded.StorageState()
		require.NoError(t, err)
		cookie, ok := state.CookieNamed("li_at")
		require.True(t, ok)
		assert.Equal(t, "abc", cookie.Value)
	})

	t.Run("lists only the owner's connections", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.OrderBy = "name"
		filter.OrderDir = "asc"

		list, err := repo.FindByOwner(ctx, owner, filter)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Alpha", list[0].Name)
		assert.Equal(t, "Beta", list[1].Name)

		count, err := repo.CountByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("delete removes the row", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, second.ID))
		_, err := repo.FindByID(ctx, second.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormConnectionRepository_FailStaleConnecting(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormConnectionRepository(db.DB, nil)
	ctx := context.Background()
	owner := uuid.New()

	stale := newTestConnection(t, owner, "stale")
	stale.MarkConnecting()
	fresh := newTestConnection(t, owner, "fresh")
	fresh.MarkConnecting()
	idle := newTestConnection(t, owner, "idle")
	for _, c := range []*connection.Connection{stale, fresh, idle} {
		require.NoError(t, repo.Save(ctx, c))
	}
	old := time.Now().Add(-time.Hour)
	require.NoError(t, db.DB.Exec("UPDATE connections SET updated_at = ? WHERE id IN (?, ?)", old, stale.ID, idle.ID).Error)

	n, err := repo.FailStaleConnecting(ctx, time.Now().Add(-10*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	want := map[uuid.UUID]connection.Status{
		stale.ID: connection.StatusFailed,
		fresh.ID: connection.StatusConnecting,
		idle.ID:  connection.StatusCreated,
	}
	for id, status := range want {
		loaded, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, loaded.Status, loaded.Name)
	}
}
