package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugnoguchigxp/regular-rag/model"
)

const testDimension = 4

func vec(values ...float32) []float32 { return values }

func TestUpsertAndSelectDocument(t *testing.T) {
	store := newTestStore(t)
	repo, err := NewDocumentRepository(store, testDimension, false)
	require.NoError(t, err)

	doc := &model.Document{
		Content:   "aspirin treats fever",
		Path:      "docs/aspirin.md",
		Screen:    "default",
		Domain:    "medicine",
		Metadata:  model.Metadata{"author": "tester"},
		Embedding: vec(0.1, 0.2, 0.3, 0.4),
	}
	require.NoError(t, repo.UpsertDocument(context.Background(), doc))
	require.NotEmpty(t, doc.ID)

	got, err := repo.SelectDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, "tester", got.Metadata["author"])
}

func TestUpsertDocumentRejectsWrongDimension(t *testing.T) {
	store := newTestStore(t)
	repo, err := NewDocumentRepository(store, testDimension, false)
	require.NoError(t, err)

	doc := &model.Document{Content: "bad embedding", Embedding: vec(0.1, 0.2)}
	err = repo.UpsertDocument(context.Background(), doc)
	assert.ErrorIs(t, err, model.ErrDimensionMismatch)
}

func TestHybridSearchFusesAndOrdersResults(t *testing.T) {
	store := newTestStore(t)
	repo, err := NewDocumentRepository(store, testDimension, false)
	require.NoError(t, err)

	ctx := context.Background()
	close := &model.Document{Content: "aspirin reduces fever and pain", Embedding: vec(1, 0, 0, 0)}
	far := &model.Document{Content: "unrelated gardening tips", Embedding: vec(0, 1, 0, 0)}
	require.NoError(t, repo.UpsertDocument(ctx, close))
	require.NoError(t, repo.UpsertDocument(ctx, far))

	results, err := repo.HybridSearch(ctx, vec(1, 0, 0, 0), "aspirin fever", 5, "")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, close.ID, results[0].Document.ID)
}

func TestHybridSearchRespectsScreenFilter(t *testing.T) {
	store := newTestStore(t)
	repo, err := NewDocumentRepository(store, testDimension, false)
	require.NoError(t, err)

	ctx := context.Background()
	doc := &model.Document{Content: "screened document about aspirin", Screen: "clinical", Embedding: vec(1, 1, 0, 0)}
	require.NoError(t, repo.UpsertDocument(ctx, doc))

	results, err := repo.HybridSearch(ctx, vec(1, 1, 0, 0), "aspirin", 5, "other-screen")
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, doc.ID, r.Document.ID)
	}
}
