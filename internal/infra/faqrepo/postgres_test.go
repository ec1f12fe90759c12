package faqrepo

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/shopbot/internal/domain/faq"
)

// Runs against a disposable pgvector database when FAQ_TEST_POSTGRES_DSN is set.
func TestPostgresRepositoryRoundTrip(t *testing.T) {
	dsn := os.Getenv("FAQ_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FAQ_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS faqs`)
	require.NoError(t, err)

	repo, err := NewPostgresRepository(pool, "l2")
	require.NoError(t, err)
	require.NoError(t, repo.EnsureSchema(ctx, 3))

	entries := []faq.Entry{
		{ID: "faq-0", Question: "Return policy?", Answer: "30 days", Type: "returns", Embedding: []float32{1, 0, 0}},
		{ID: "faq-1", Question: "Shipping time?", Answer: "3-5 days", Embedding: []float32{0, 1, 0}},
	}
	require.NoError(t, repo.UpsertBatch(ctx, entries))
	require.NoError(t, repo.UpsertBatch(ctx, entries))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	matches, err := repo.Nearest(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "faq-0", matches[0].Entry.ID)
	require.Equal(t, "returns", matches[0].Entry.Type)
	require.InDelta(t, 0, matches[0].Distance, 1e-6)
}
