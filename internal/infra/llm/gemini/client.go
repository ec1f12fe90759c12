// Package gemini adapts the Google Gen AI SDK to the model server backends.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/yanqian/shopbot/internal/domain/inference"
)

// Options configure the shared SDK client.
type Options struct {
	APIKey string
	// BaseURL overrides the API endpoint; empty uses the SDK default.
	BaseURL string
}

// NewClient constructs one SDK client to be shared by the embedder and generator.
func NewClient(ctx context.Context, opts Options) (*genai.Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	return genai.NewClient(ctx, cfg)
}

// Embedder calls EmbedContent for a batch of texts.
type Embedder struct {
	client    *genai.Client
	model     string
	dimension int
	logger    *slog.Logger
}

// NewEmbedder constructs the embedder. A positive dimension requests reduced output vectors.
func NewEmbedder(client *genai.Client, model string, dimension int, logger *slog.Logger) *Embedder {
	return &Embedder{
		client:    client,
		model:     model,
		dimension: dimension,
		logger:    logger.With("component", "embedder.gemini"),
	}
}

// Embed returns one vector per text.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{Parts: []*genai.Part{{Text: text}}})
	}
	var cfg *genai.EmbedContentConfig
	if e.dimension > 0 {
		cfg = &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(int32(e.dimension))}
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("gemini embedding %d missing", i)
		}
		out[i] = emb.Values
	}
	e.logger.Debug("embedded texts", "count", len(out), "model", e.model)
	return out, nil
}

// Generator calls GenerateContent with a single user prompt.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator constructs the generator.
func NewGenerator(client *genai.Client, model string) *Generator {
	return &Generator{client: client, model: model}
}

// Complete generates text for the prompt.
func (g *Generator) Complete(ctx context.Context, req inference.Completion) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:   genai.Ptr(req.Temperature),
		StopSequences: req.Stop,
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

var (
	_ inference.Embedder  = (*Embedder)(nil)
	_ inference.Generator = (*Generator)(nil)
)
