package inference

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/shopbot/pkg/errors"
	"github.com/yanqian/shopbot/pkg/metrics"
)

// UnavailableMessage is returned when no generation backend is loaded.
const UnavailableMessage = "No LLM available"

// Service exposes the embedding and generation models.
type Service interface {
	Embed(ctx context.Context, req EmbedRequest) (EmbedResponse, error)
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	Health(ctx context.Context) Health
}

type service struct {
	cfg       Config
	embedder  Embedder
	generator Generator
	counter   TokenCounter
	logger    *slog.Logger
}

// NewService wires up the model server domain. generator may be nil, in which
// case Generate reports the backend as unavailable.
func NewService(cfg Config, embedder Embedder, generator Generator, counter TokenCounter, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg.withDefaults(),
		embedder:  embedder,
		generator: generator,
		counter:   counter,
		logger:    logger.With("component", "inference.service"),
	}
}

// Embed accepts any text, including empty or whitespace-only input.
func (s *service) Embed(ctx context.Context, req EmbedRequest) (EmbedResponse, error) {
	vectors, err := s.embedder.Embed(ctx, []string{req.Text})
	if err != nil {
		return EmbedResponse{}, apperrors.Wrap(apperrors.CodeEmbed, "embedding failed", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return EmbedResponse{}, apperrors.Wrap(apperrors.CodeEmbed, "embedding response empty", errors.New("no vectors"))
	}
	vector := vectors[0]
	if s.cfg.Dimension > 0 && len(vector) != s.cfg.Dimension {
		s.logger.Error("embedding dimension mismatch", "got", len(vector), "want", s.cfg.Dimension)
		return EmbedResponse{}, apperrors.Wrap(apperrors.CodeEmbed, "embedding dimension mismatch", nil)
	}
	return EmbedResponse{Embedding: vector}, nil
}

func (s *service) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	if s.generator == nil {
		return GenerateResponse{}, apperrors.Wrap(apperrors.CodeLLMUnavailable, UnavailableMessage, nil)
	}
	completion := Completion{
		Prompt:      req.Text,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Stop:        s.cfg.Stop,
	}
	if req.MaxTokens != nil {
		if *req.MaxTokens <= 0 {
			return GenerateResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "max_tokens must be positive", nil)
		}
		completion.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		if *req.Temperature < 0 {
			return GenerateResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "temperature must be non-negative", nil)
		}
		completion.Temperature = *req.Temperature
	}

	raw, err := s.generator.Complete(ctx, completion)
	if err != nil {
		return GenerateResponse{}, apperrors.Wrap(apperrors.CodeLLM, "generation failed", err)
	}
	text := TruncateAtStop(raw, completion.Stop)

	resp := GenerateResponse{Text: text}
	if s.counter != nil {
		usage := metrics.NewTokenUsage(s.counter.Count(completion.Prompt), s.counter.Count(text))
		resp.Usage = &usage
		s.logger.Debug("generation complete", "prompt_tokens", usage.PromptTokens, "completion_tokens", usage.CompletionTokens)
	}
	return resp, nil
}

func (s *service) Health(_ context.Context) Health {
	backend := s.cfg.GenerationBackend
	if backend == "" {
		backend = "none"
	}
	return Health{
		Status:            "ok",
		EmbeddingModel:    s.cfg.EmbeddingModel,
		Dimension:         s.cfg.Dimension,
		GenerationBackend: backend,
		GenerationReady:   s.generator != nil,
	}
}

// TruncateAtStop cuts text at the earliest stop marker and trims surrounding whitespace.
func TruncateAtStop(text string, stops []string) string {
	cut := len(text)
	for _, stop := range stops {
		if stop == "" {
			continue
		}
		if idx := strings.Index(text, stop); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return strings.TrimSpace(text[:cut])
}
