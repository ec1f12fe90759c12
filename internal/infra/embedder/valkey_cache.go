package embedder

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/shopbot/internal/domain/inference"
)

// WrapValkey shares embeddings across processes through Valkey. Cache failures are
// logged and fall through to next, so the backend stays the source of truth.
func WrapValkey(next inference.Embedder, client valkey.Client, model string, ttl time.Duration, logger *slog.Logger) inference.Embedder {
	if next == nil || client == nil {
		return next
	}
	return &valkeyEmbedder{
		next:   next,
		client: client,
		model:  model,
		ttl:    ttl,
		logger: logger.With("component", "embedder.cache.valkey"),
	}
}

type valkeyEmbedder struct {
	next   inference.Embedder
	client valkey.Client
	model  string
	ttl    time.Duration
	logger *slog.Logger
}

func (v *valkeyEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missTexts []string
		missIdx   []int
	)
	for i, text := range texts {
		vec, ok := v.get(ctx, cacheKey(v.model, text))
		if ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}
	vectors, err := v.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range vectors {
		if j >= len(missIdx) {
			break
		}
		out[missIdx[j]] = vec
		v.set(ctx, cacheKey(v.model, missTexts[j]), vec)
	}
	return out, nil
}

func (v *valkeyEmbedder) get(ctx context.Context, key string) ([]float32, bool) {
	payload, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).ToString()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			v.logger.Warn("embedding cache read failed", "error", err)
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal([]byte(payload), &vec); err != nil {
		v.logger.Warn("embedding cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return vec, true
}

func (v *valkeyEmbedder) set(ctx context.Context, key string, vec []float32) {
	payload, err := json.Marshal(vec)
	if err != nil {
		return
	}
	builder := v.client.B().Set().Key(key).Value(string(payload))
	var cmd valkey.Completed
	if v.ttl > 0 {
		ttl := v.ttl
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		v.logger.Warn("embedding cache write failed", "error", err)
	}
}

// ValkeyOptions accepts either a host:port address or a redis:// style URL.
func ValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
