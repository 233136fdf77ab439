package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugnoguchigxp/regular-rag/model"
)

func TestFindByHashMissReturnsNilNil(t *testing.T) {
	store := newTestStore(t)
	repo, err := NewCacheRepository(store, false)
	require.NoError(t, err)

	entry, err := repo.FindByHash(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestSaveThenFindRoundTrips(t *testing.T) {
	store := newTestStore(t)
	repo, err := NewCacheRepository(store, false)
	require.NoError(t, err)

	ctx := context.Background()
	saved, err := repo.Save(ctx, "hash-1", "what is aspirin?", model.Metadata{"screen": "default"}, "aspirin is an NSAID")
	require.NoError(t, err)
	assert.Equal(t, int64(0), saved.HitCount)

	found, err := repo.FindByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "aspirin is an NSAID", found.Response)
}

func TestIncrementHitCountIsMonotonic(t *testing.T) {
	store := newTestStore(t)
	repo, err := NewCacheRepository(store, false)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = repo.Save(ctx, "hash-2", "q", model.Metadata{}, "r")
	require.NoError(t, err)

	first, err := repo.IncrementHitCount(ctx, "hash-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.HitCount)

	second, err := repo.IncrementHitCount(ctx, "hash-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.HitCount)
	require.NotNil(t, second.LastHitAt)
}

func TestSaveOverwritesWithoutResettingHitCount(t *testing.T) {
	store := newTestStore(t)
	repo, err := NewCacheRepository(store, false)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = repo.Save(ctx, "hash-3", "q", model.Metadata{}, "r1")
	require.NoError(t, err)
	_, err = repo.IncrementHitCount(ctx, "hash-3")
	require.NoError(t, err)

	updated, err := repo.Save(ctx, "hash-3", "q", model.Metadata{}, "r2")
	require.NoError(t, err)
	assert.Equal(t, "r2", updated.Response)
	assert.Equal(t, int64(1), updated.HitCount)
}
