package faq

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	apperrors "github.com/yanqian/shopbot/pkg/errors"
	"github.com/yanqian/shopbot/pkg/util"
)

// embeddingSeparator joins question and answer into the text that gets embedded.
const embeddingSeparator = " ||| "

// Ingestor loads prepared rows into the repository.
type Ingestor struct {
	cfg      Config
	repo     Repository
	embedder Embedder
	logger   *slog.Logger
}

// NewIngestor wires up the ingestion pipeline.
func NewIngestor(cfg Config, repo Repository, embedder Embedder, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		cfg:      cfg.withDefaults(),
		repo:     repo,
		embedder: embedder,
		logger:   logger.With("component", "faq.ingestor"),
	}
}

type pairKey struct {
	question string
	answer   string
}

// Prepare trims rows, drops those missing a question or answer and removes
// exact duplicate (question, answer) pairs, keeping the first occurrence.
func Prepare(rows []Row) (kept []Row, missing, duplicates int) {
	seen := make(map[pairKey]struct{}, len(rows))
	kept = make([]Row, 0, len(rows))
	for _, row := range rows {
		row.Question = strings.TrimSpace(row.Question)
		row.Answer = strings.TrimSpace(row.Answer)
		row.Type = strings.TrimSpace(row.Type)
		if row.Question == "" || row.Answer == "" {
			missing++
			continue
		}
		key := pairKey{question: row.Question, answer: row.Answer}
		if _, dup := seen[key]; dup {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	return kept, missing, duplicates
}

// EmbeddingText is the text embedded for a stored FAQ entry.
func EmbeddingText(question, answer string) string {
	return question + embeddingSeparator + answer
}

// Ingest embeds and upserts rows, committing every BatchSize rows.
func (i *Ingestor) Ingest(ctx context.Context, rows []Row) (IngestReport, error) {
	report := IngestReport{RowsRead: len(rows), StartedAt: util.NowUTC()}

	if err := i.repo.EnsureSchema(ctx, i.cfg.Dimension); err != nil {
		return report, apperrors.Wrap(apperrors.CodeStore, "ensure faqs schema", err)
	}

	kept, missing, duplicates := Prepare(rows)
	report.MissingDropped = missing
	report.DuplicatesDropped = duplicates
	i.logger.Info("embedding faqs", "rows", len(rows), "kept", len(kept), "missing", missing, "duplicates", duplicates)

	batch := make([]Entry, 0, i.cfg.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := i.repo.UpsertBatch(ctx, batch); err != nil {
			return apperrors.Wrap(apperrors.CodeStore, "upsert faqs", err)
		}
		report.Upserted += len(batch)
		report.Commits++
		i.logger.Info("inserted rows", "upserted", report.Upserted)
		batch = batch[:0]
		return nil
	}

	for idx, row := range kept {
		vector, err := i.embedder.Embed(ctx, EmbeddingText(row.Question, row.Answer))
		if err != nil {
			return report, apperrors.Wrap(apperrors.CodeEmbed, fmt.Sprintf("embed csv line %d", row.Line), err)
		}
		if i.cfg.Dimension > 0 && len(vector) != i.cfg.Dimension {
			return report, apperrors.Wrap(apperrors.CodeEmbed,
				fmt.Sprintf("embedding for csv line %d has %d dimensions, want %d", row.Line, len(vector), i.cfg.Dimension), nil)
		}
		batch = append(batch, Entry{
			ID:        i.cfg.IDPrefix + strconv.Itoa(idx),
			Question:  row.Question,
			Answer:    row.Answer,
			Type:      row.Type,
			Embedding: vector,
		})
		if len(batch) >= i.cfg.BatchSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}
	if err := flush(); err != nil {
		return report, err
	}

	report.FinishedAt = util.NowUTC()
	i.logger.Info("ingestion complete",
		"upserted", report.Upserted,
		"commits", report.Commits,
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
	return report, nil
}
