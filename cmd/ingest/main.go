package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yanqian/shopbot/internal/domain/faq"
	"github.com/yanqian/shopbot/internal/domain/servicetoken"
	"github.com/yanqian/shopbot/internal/infra/config"
	"github.com/yanqian/shopbot/internal/infra/faqrepo"
	"github.com/yanqian/shopbot/internal/infra/faqsource"
	"github.com/yanqian/shopbot/internal/infra/modelclient"
	"github.com/yanqian/shopbot/internal/infra/postgres"
	"github.com/yanqian/shopbot/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appLogger := logger.NewWithWriter(os.Stdout, "ingest")

	pool, err := postgres.Open(ctx, cfg.Postgres, appLogger)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo, err := faqrepo.NewPostgresRepository(pool, cfg.Postgres.Distance)
	if err != nil {
		return err
	}

	source, err := newSource(cfg.Ingest, appLogger)
	if err != nil {
		return err
	}
	rows, err := source.ReadRows(ctx, cfg.Ingest.CSVPath)
	if err != nil {
		return err
	}

	client, err := newModelClient(cfg.ModelServer, appLogger)
	if err != nil {
		return err
	}

	ingestor := faq.NewIngestor(faq.Config{
		Dimension: cfg.Embedding.Dimension,
		BatchSize: cfg.Ingest.BatchSize,
		IDPrefix:  cfg.Ingest.IDPrefix,
	}, repo, client, appLogger)

	report, err := ingestor.Ingest(ctx, rows)
	if err != nil {
		return err
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	appLogger.Info("faqs table updated",
		"rows_read", report.RowsRead,
		"missing_dropped", report.MissingDropped,
		"duplicates_dropped", report.DuplicatesDropped,
		"upserted", report.Upserted,
		"commits", report.Commits,
		"table_rows", total,
	)
	return nil
}

func newSource(cfg config.IngestConfig, logger *slog.Logger) (*faqsource.Source, error) {
	cols := faqsource.Columns{
		Question: cfg.QuestionColumn,
		Answer:   cfg.AnswerColumn,
		Type:     cfg.TypeColumn,
	}
	if strings.TrimSpace(cfg.Storage.Endpoint) == "" {
		return faqsource.NewSource(cols, nil, logger), nil
	}
	fetcher, err := faqsource.NewMinioFetcher(cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Region, logger)
	if err != nil {
		return nil, err
	}
	return faqsource.NewSource(cols, fetcher, logger), nil
}

func newModelClient(cfg config.ModelServerConfig, logger *slog.Logger) (*modelclient.Client, error) {
	if strings.TrimSpace(cfg.AuthSecret) == "" {
		return modelclient.NewClient(cfg.URL, cfg.Timeout, nil, logger), nil
	}
	signer, err := servicetoken.NewSigner(cfg.AuthSecret, "ingest", cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("service token: %w", err)
	}
	return modelclient.NewClient(cfg.URL, cfg.Timeout, signer, logger), nil
}
