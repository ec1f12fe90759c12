package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yanqian/shopbot/internal/domain/inference"
)

// WrapLRU memoises embeddings in process. A non-positive size or ttl returns next unchanged.
func WrapLRU(next inference.Embedder, model string, size int, ttl time.Duration, logger *slog.Logger) inference.Embedder {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &lruEmbedder{
		next:   next,
		model:  model,
		cache:  expirable.NewLRU[string, []float32](size, nil, ttl),
		logger: logger.With("component", "embedder.cache.lru"),
	}
}

type lruEmbedder struct {
	next   inference.Embedder
	model  string
	cache  *expirable.LRU[string, []float32]
	logger *slog.Logger
}

func (l *lruEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missTexts []string
		missIdx   []int
	)
	for i, text := range texts {
		if cached, ok := l.cache.Get(cacheKey(l.model, text)); ok {
			out[i] = cloneEmbedding(cached)
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		l.logger.Debug("embedding cache hit", "count", len(texts))
		return out, nil
	}
	vectors, err := l.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range vectors {
		if j >= len(missIdx) {
			break
		}
		out[missIdx[j]] = vec
		l.cache.Add(cacheKey(l.model, missTexts[j]), cloneEmbedding(vec))
	}
	return out, nil
}

// cacheKey hashes the text so arbitrarily long inputs make bounded keys.
func cacheKey(model, text string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		model = "unknown"
	}
	hash := sha256.Sum256([]byte(text))
	return "embed:" + model + ":" + hex.EncodeToString(hash[:])
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
