package faq

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/yanqian/shopbot/pkg/errors"
)

// Assistant answers one user turn with retrieved FAQ context.
type Assistant struct {
	cfg       Config
	repo      Repository
	embedder  Embedder
	generator Generator
	logger    *slog.Logger
}

// NewAssistant wires up the retrieval-augmented reply flow.
func NewAssistant(cfg Config, repo Repository, embedder Embedder, generator Generator, logger *slog.Logger) *Assistant {
	return &Assistant{
		cfg:       cfg.withDefaults(),
		repo:      repo,
		embedder:  embedder,
		generator: generator,
		logger:    logger.With("component", "faq.assistant"),
	}
}

// Reply embeds the query, retrieves the nearest entries and asks the generator.
// A missing generation backend is reported through Reply.Unavailable rather than an error.
func (a *Assistant) Reply(ctx context.Context, query string) (Reply, error) {
	if strings.TrimSpace(query) == "" {
		return Reply{}, apperrors.Wrap(apperrors.CodeInvalidInput, "query cannot be empty", nil)
	}

	vector, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return Reply{}, apperrors.Wrap(apperrors.CodeEmbed, "embed query", err)
	}

	matches, err := a.repo.Nearest(ctx, vector, a.cfg.TopK)
	if err != nil {
		return Reply{}, apperrors.Wrap(apperrors.CodeStore, "nearest faqs", err)
	}
	a.logger.Debug("retrieved faqs", "count", len(matches))

	prompt := BuildPrompt(a.cfg.Prompt, BuildContext(matches), query)
	text, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeLLMUnavailable) {
			a.logger.Warn("generation backend unavailable")
			return Reply{Matches: matches, Unavailable: true}, nil
		}
		return Reply{}, apperrors.Wrap(apperrors.CodeLLM, "generate reply", err)
	}

	return Reply{Text: strings.TrimSpace(text), Matches: matches}, nil
}
