package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
	"google.golang.org/genai"

	"github.com/yanqian/shopbot/internal/domain/inference"
	"github.com/yanqian/shopbot/internal/domain/servicetoken"
	"github.com/yanqian/shopbot/internal/infra/config"
	"github.com/yanqian/shopbot/internal/infra/embedder"
	"github.com/yanqian/shopbot/internal/infra/llm/chatgpt"
	"github.com/yanqian/shopbot/internal/infra/llm/gemini"
	"github.com/yanqian/shopbot/internal/infra/llm/llamacpp"
	"github.com/yanqian/shopbot/internal/infra/tokenizer"
	httpiface "github.com/yanqian/shopbot/internal/interface/http"
)

const (
	backendOllama        = "ollama"
	backendOpenAI        = "openai"
	backendGemini        = "gemini"
	backendDeterministic = "deterministic"
	backendLlamaCpp      = "llama_cpp"
	backendNone          = "none"
)

func provideInferenceConfig(cfg *config.Config) inference.Config {
	backend := strings.ToLower(strings.TrimSpace(cfg.LLM.Backend))
	if backend == backendNone {
		backend = ""
	}
	return inference.Config{
		EmbeddingModel:    cfg.Embedding.Model,
		Dimension:         cfg.Embedding.Dimension,
		GenerationBackend: backend,
		MaxTokens:         cfg.LLM.MaxTokens,
		Temperature:       cfg.LLM.Temperature,
		Stop:              cfg.LLM.Stop,
	}
}

// provideEmbedder builds the configured backend behind the Valkey and LRU caches.
func provideEmbedder(cfg *config.Config, logger *slog.Logger) (inference.Embedder, func(), error) {
	ec := cfg.Embedding
	var (
		base inference.Embedder
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(ec.Backend)) {
	case "", backendOllama:
		base = embedder.NewOllamaEmbedder(ec.BaseURL, ec.Model, logger)
	case backendOpenAI:
		var client *chatgpt.Client
		client, err = chatgpt.NewClient(ec.APIKey, ec.BaseURL)
		if err == nil {
			base = embedder.NewOpenAIEmbedder(client, ec.Model, logger)
		}
	case backendGemini:
		var client *genai.Client
		client, err = gemini.NewClient(context.Background(), gemini.Options{APIKey: ec.APIKey, BaseURL: ec.BaseURL})
		if err == nil {
			base = gemini.NewEmbedder(client, ec.Model, ec.Dimension, logger)
		}
	case backendDeterministic:
		base = embedder.NewDeterministicEmbedder(ec.Dimension)
	default:
		err = fmt.Errorf("unknown embedding backend %q", ec.Backend)
	}
	if err != nil {
		return nil, nil, err
	}
	logger.Info("embedding backend ready", "backend", ec.Backend, "model", ec.Model, "dimension", ec.Dimension)

	cleanup := func() {}
	if ec.Cache.Valkey.Enabled {
		client, err := newValkeyClient(ec.Cache.Valkey.Addr)
		if err != nil {
			logger.Error("valkey embedding cache unavailable, continuing without it", "error", err)
		} else {
			logger.Info("valkey embedding cache enabled", "addr", ec.Cache.Valkey.Addr)
			base = embedder.WrapValkey(base, client, ec.Model, ec.Cache.TTL, logger)
			cleanup = client.Close
		}
	}
	return embedder.WrapLRU(base, ec.Model, ec.Cache.Size, ec.Cache.TTL, logger), cleanup, nil
}

func newValkeyClient(addr string) (valkey.Client, error) {
	opt, err := embedder.ValkeyOptions(addr)
	if err != nil {
		return nil, err
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// provideGenerator returns a nil Generator when no backend is configured, which the
// service reports as unavailable.
func provideGenerator(cfg *config.Config, logger *slog.Logger) (inference.Generator, error) {
	lc := cfg.LLM
	switch strings.ToLower(strings.TrimSpace(lc.Backend)) {
	case "", backendNone:
		logger.Warn("no generation backend configured; /generate will report unavailable")
		return nil, nil
	case backendLlamaCpp:
		client := llamacpp.NewClient(lc.BaseURL, lc.ModelPath, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx); err != nil {
			logger.Warn("llama.cpp server not reachable yet", "base_url", lc.BaseURL, "error", err)
		}
		logger.Info("generation backend ready", "backend", backendLlamaCpp, "model_path", client.ModelPath())
		return client, nil
	case backendOpenAI:
		client, err := chatgpt.NewClient(lc.APIKey, lc.BaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("generation backend ready", "backend", backendOpenAI, "model", lc.Model)
		return chatgpt.NewGenerator(client, lc.Model), nil
	case backendGemini:
		client, err := gemini.NewClient(context.Background(), gemini.Options{APIKey: lc.APIKey, BaseURL: lc.BaseURL})
		if err != nil {
			return nil, err
		}
		logger.Info("generation backend ready", "backend", backendGemini, "model", lc.Model)
		return gemini.NewGenerator(client, lc.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q", lc.Backend)
	}
}

func provideTokenCounter(logger *slog.Logger) inference.TokenCounter {
	return tokenizer.NewCounter(tokenizer.DefaultEncoding, logger)
}

func provideTokenVerifier(cfg *config.Config, logger *slog.Logger) (httpiface.TokenVerifier, error) {
	if strings.TrimSpace(cfg.HTTP.AuthSecret) == "" {
		return nil, nil
	}
	verifier, err := servicetoken.NewVerifier(cfg.HTTP.AuthSecret)
	if err != nil {
		return nil, err
	}
	logger.Info("service token auth enabled")
	return verifier, nil
}
