package services

import (
	"context"
	"errors"
	"testing"

	"golivehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLivestreamStore_UpsertKeepsOneRowPerOwner(t *testing.T) {
	db := setupTestDB(t)
	store := NewLivestreamStore(db)
	ctx := context.Background()

	first, err := store.Upsert(ctx, LivestreamInput{
		Name:       "Morning stream",
		Categories: []string{"Gaming"},
		UserID:     "u1",
	})
	require.NoError(t, err)

	second, err := store.Upsert(ctx, LivestreamInput{
		Name:       "Evening stream",
		Categories: []string{"Music", "Art"},
		UserID:     "u1",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Evening stream", second.Name)
	assert.Equal(t, []string{"Music", "Art"}, []string(second.Categories))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLivestreamStore_UpsertValidation(t *testing.T) {
	store := NewLivestreamStore(setupTestDB(t))
	ctx := context.Background()

	_, err := store.Upsert(ctx, LivestreamInput{Name: "x"})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = store.Upsert(ctx, LivestreamInput{UserID: "u1", Name: "<script></script>"})
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestLivestreamStore_FindAndDelete(t *testing.T) {
	db := setupTestDB(t)
	store := NewLivestreamStore(db)
	ctx := context.Background()

	none, err := store.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = store.Upsert(ctx, LivestreamInput{Name: "Live", UserID: "u1"})
	require.NoError(t, err)

	found, err := store.FindByOwner(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Live", found.Name)
	assert.NotNil(t, found.Categories)

	deleted, err := store.DeleteByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.DeleteByOwner(ctx, "")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestLivestreamStore_MockData(t *testing.T) {
	db := setupTestDB(t)
	store := NewLivestreamStore(db)
	ctx := context.Background()

	_, err := store.Upsert(ctx, LivestreamInput{Name: "Real", UserID: "real_user"})
	require.NoError(t, err)

	seeded, err := store.SeedMock(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(models.MockLivestreams), seeded)

	seeded, err = store.SeedMock(ctx)
	require.NoError(t, err)
	assert.Zero(t, seeded)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(models.MockLivestreams)+1)

	removed, err := store.RemoveMock(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(models.MockLivestreams), removed)

	all, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "real_user", all[0].UserID)
}
