package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/yanqian/shopbot/internal/domain/inference"
	"github.com/yanqian/shopbot/internal/infra/llm/chatgpt"
	"github.com/yanqian/shopbot/internal/infra/tokenizer"
)

// stay well below the provider's 300k token cap per request
const maxBatchTokens = 200_000

// OpenAIEmbedder calls an OpenAI-compatible embeddings API.
type OpenAIEmbedder struct {
	client *chatgpt.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIEmbedder constructs an embedder backed by the ChatGPT client.
func NewOpenAIEmbedder(client *chatgpt.Client, model string, logger *slog.Logger) *OpenAIEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIEmbedder{
		client: client,
		model:  strings.TrimSpace(model),
		logger: logger.With("component", "embedder.openai"),
	}
}

// Embed requests embeddings for the given texts, splitting large inputs into several calls.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var (
		out         = make([][]float32, 0, len(texts))
		batch       []string
		batchTokens int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		resp, err := e.client.CreateEmbedding(ctx, chatgpt.EmbeddingRequest{
			Model: e.model,
			Input: batch,
		})
		if err != nil {
			return fmt.Errorf("create embedding: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return fmt.Errorf("embedding result count mismatch: expected %d got %d", len(batch), len(resp.Data))
		}
		sort.SliceStable(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
		for _, item := range resp.Data {
			vec := make([]float32, len(item.Embedding))
			copy(vec, item.Embedding)
			out = append(out, vec)
		}
		batch = batch[:0]
		batchTokens = 0
		return nil
	}

	for _, text := range texts {
		tokens := tokenizer.Estimate(text)
		if tokens > maxBatchTokens {
			return nil, fmt.Errorf("text too large for embedding request: estimated tokens=%d", tokens)
		}
		if batchTokens+tokens > maxBatchTokens && len(batch) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, text)
		batchTokens += tokens
	}
	if err := flush(); err != nil {
		return nil, err
	}
	e.logger.Debug("embedded texts", "count", len(out), "model", e.model)
	return out, nil
}

var _ inference.Embedder = (*OpenAIEmbedder)(nil)
