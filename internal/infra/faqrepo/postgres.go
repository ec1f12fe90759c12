package faqrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/shopbot/internal/domain/faq"
)

// PostgresRepository implements faq.Repository on a pgvector-enabled faqs table.
type PostgresRepository struct {
	pool     *pgxpool.Pool
	operator string
}

// NewPostgresRepository constructs the repository. distance is l2, cosine or inner_product.
func NewPostgresRepository(pool *pgxpool.Pool, distance string) (*PostgresRepository, error) {
	op, err := DistanceOperator(distance)
	if err != nil {
		return nil, err
	}
	return &PostgresRepository{pool: pool, operator: op}, nil
}

// DistanceOperator maps a distance name onto the pgvector ordering operator.
func DistanceOperator(distance string) (string, error) {
	switch distance {
	case "", "l2":
		return "<->", nil
	case "cosine":
		return "<=>", nil
	case "inner_product":
		return "<#>", nil
	default:
		return "", fmt.Errorf("unsupported distance %q", distance)
	}
}

// EnsureSchema creates the vector extension and the faqs table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}
	if _, err := r.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	_, err := r.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS faqs (
			faq_id    TEXT PRIMARY KEY,
			question  TEXT NOT NULL,
			answer    TEXT NOT NULL,
			type      TEXT,
			embedding vector(%d)
		)
	`, dimension))
	if err != nil {
		return fmt.Errorf("create faqs table: %w", err)
	}
	return nil
}

const upsertFAQ = `
	INSERT INTO faqs (faq_id, question, answer, type, embedding)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (faq_id) DO UPDATE
	SET question = EXCLUDED.question,
		answer = EXCLUDED.answer,
		type = EXCLUDED.type,
		embedding = EXCLUDED.embedding
`

// UpsertBatch writes entries in a single transaction.
func (r *PostgresRepository) UpsertBatch(ctx context.Context, entries []faq.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, entry := range entries {
			batch.Queue(upsertFAQ, entry.ID, entry.Question, entry.Answer, entry.Type, pgvector.NewVector(entry.Embedding))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// Nearest returns the k closest rows ordered by the configured distance operator.
func (r *PostgresRepository) Nearest(ctx context.Context, embedding []float32, k int) ([]faq.Match, error) {
	query := fmt.Sprintf(`
		SELECT faq_id, question, answer, COALESCE(type, ''), embedding %[1]s $1 AS distance
		FROM faqs
		ORDER BY embedding %[1]s $1
		LIMIT $2
	`, r.operator)
	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []faq.Match
	for rows.Next() {
		var m faq.Match
		if err := rows.Scan(&m.Entry.ID, &m.Entry.Question, &m.Entry.Answer, &m.Entry.Type, &m.Distance); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Count returns the number of stored rows.
func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM faqs`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

var _ faq.Repository = (*PostgresRepository)(nil)
