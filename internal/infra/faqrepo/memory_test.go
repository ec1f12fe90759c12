package faqrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/shopbot/internal/domain/faq"
)

func TestMemoryRepositoryUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.UpsertBatch(ctx, []faq.Entry{
		{ID: "faq-0", Question: "old", Answer: "a", Embedding: []float32{1, 0}},
		{ID: "faq-1", Question: "other", Answer: "b", Embedding: []float32{0, 1}},
	}))
	require.NoError(t, repo.UpsertBatch(ctx, []faq.Entry{
		{ID: "faq-0", Question: "new", Answer: "a2", Type: "shipping", Embedding: []float32{1, 1}},
	}))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	entries := repo.Entries()
	require.Equal(t, "faq-0", entries[0].ID)
	require.Equal(t, "new", entries[0].Question)
	require.Equal(t, "shipping", entries[0].Type)
	require.Equal(t, 2, repo.Commits())
}

func TestMemoryRepositoryNearestOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.UpsertBatch(ctx, []faq.Entry{
		{ID: "far", Embedding: []float32{10, 10}},
		{ID: "near", Embedding: []float32{1, 1}},
		{ID: "exact", Embedding: []float32{0, 0}},
		{ID: "mid", Embedding: []float32{3, 3}},
	}))

	matches, err := repo.Nearest(ctx, []float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	require.Equal(t, "exact", matches[0].Entry.ID)
	require.Zero(t, matches[0].Distance)
	require.Equal(t, "near", matches[1].Entry.ID)
	require.Equal(t, "mid", matches[2].Entry.ID)
}

func TestDistanceOperator(t *testing.T) {
	cases := map[string]string{"": "<->", "l2": "<->", "cosine": "<=>", "inner_product": "<#>"}
	for name, want := range cases {
		got, err := DistanceOperator(name)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := DistanceOperator("hamming")
	require.Error(t, err)
}
