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
	"github.com/yanqian/shopbot/internal/infra/modelclient"
	"github.com/yanqian/shopbot/internal/infra/postgres"
	"github.com/yanqian/shopbot/internal/interface/cli"
	"github.com/yanqian/shopbot/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("chat stopped: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appLogger := logger.NewWithWriter(os.Stderr, "chat")

	pool, err := postgres.Open(ctx, cfg.Postgres, appLogger)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo, err := faqrepo.NewPostgresRepository(pool, cfg.Postgres.Distance)
	if err != nil {
		return err
	}

	client, err := newModelClient(cfg.ModelServer, appLogger)
	if err != nil {
		return err
	}

	assistant := faq.NewAssistant(faq.Config{
		TopK:   cfg.Chat.TopK,
		Prompt: cfg.Chat.Prompt,
	}, repo, client, client, appLogger)

	return cli.NewREPL(assistant, os.Stdin, os.Stdout, cfg.Chat.ExitKeywords, appLogger).Run(ctx)
}

func newModelClient(cfg config.ModelServerConfig, logger *slog.Logger) (*modelclient.Client, error) {
	if strings.TrimSpace(cfg.AuthSecret) == "" {
		return modelclient.NewClient(cfg.URL, cfg.Timeout, nil, logger), nil
	}
	signer, err := servicetoken.NewSigner(cfg.AuthSecret, "chat", cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("service token: %w", err)
	}
	return modelclient.NewClient(cfg.URL, cfg.Timeout, signer, logger), nil
}
