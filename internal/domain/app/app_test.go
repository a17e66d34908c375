package app

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp(t *testing.T) {
	owner := uuid.New()

	t.Run("creates unpublished app", func(t *testing.T) {
		a, err := NewApp(owner, "  Research Assistant ", "answers questions")
		require.NoError(t, err)
		assert.Equal(t, "Research Assistant", a.Name)
		assert.Equal(t, owner, a.OwnerID)
		assert.False(t, a.IsPublished)
		assert.Nil(t, a.PublishedUUID)
		assert.Equal(t, 1, a.Version)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewApp(owner, "   ", "")
		require.Error(t, err)
	})
}

func TestApp_Publish(t *testing.T) {
	a, err := NewApp(uuid.New(), "Bot", "")
	require.NoError(t, err)

	first := a.Publish()
	assert.True(t, a.IsPublished)
	require.NotNil(t, a.PublishedUUID)
	assert.Equal(t, first, *a.PublishedUUID)
	assert.Equal(t, 2, a.Version)

	t.Run("publishing twice keeps the same uuid", func(t *testing.T) {
		second := a.Publish()
		assert.Equal(t, first, second)
		assert.Equal(t, 2, a.Version)
	})

	t.Run("re-publish after unpublish reuses uuid", func(t *testing.T) {
		a.Unpublish()
		assert.False(t, a.IsPublished)
		assert.Equal(t, first, a.Publish())
		assert.True(t, a.IsPublished)
	})
}

func TestApp_Rename(t *testing.T) {
	a, err := NewApp(uuid.New(), "Bot", "")
	require.NoError(t, err)

	require.NoError(t, a.Rename("Helper"))
	assert.Equal(t, "Helper", a.Name)
	assert.Error(t, a.Rename(""))
}
