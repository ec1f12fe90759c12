package faq

import "context"

// Repository encapsulates the faqs table.
type Repository interface {
	EnsureSchema(ctx context.Context, dimension int) error
	// UpsertBatch writes all entries in one transaction keyed by Entry.ID.
	UpsertBatch(ctx context.Context, entries []Entry) error
	// Nearest returns up to k entries ordered by ascending vector distance.
	Nearest(ctx context.Context, embedding []float32, k int) ([]Match, error)
	Count(ctx context.Context) (int64, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
