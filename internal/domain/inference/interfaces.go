package inference

import "context"

// Embedder produces embeddings for free form text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator completes a prompt.
type Generator interface {
	Complete(ctx context.Context, req Completion) (string, error)
}

// TokenCounter counts tokens for usage reporting.
type TokenCounter interface {
	Count(text string) int
}
