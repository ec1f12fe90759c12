package inference

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/shopbot/pkg/errors"
)

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1, 0}
	}
	return out, nil
}

type fakeGenerator struct {
	last Completion
	resp string
	err  error
}

func (f *fakeGenerator) Complete(_ context.Context, req Completion) (string, error) {
	f.last = req
	return f.resp, f.err
}

type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{EmbeddingModel: "all-minilm", Dimension: 3, GenerationBackend: "llama_cpp", MaxTokens: 128, Temperature: 0.2}
}

func TestEmbedDeterministic(t *testing.T) {
	svc := NewService(testConfig(), &fakeEmbedder{}, nil, nil, newTestLogger())

	first, err := svc.Embed(context.Background(), EmbedRequest{Text: "where is my order"})
	require.NoError(t, err)
	second, err := svc.Embed(context.Background(), EmbedRequest{Text: "where is my order"})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, first.Embedding, 3)
}

func TestEmbedAcceptsBlankText(t *testing.T) {
	emb := &fakeEmbedder{}
	svc := NewService(testConfig(), emb, nil, nil, newTestLogger())

	for _, text := range []string{"", "   "} {
		resp, err := svc.Embed(context.Background(), EmbedRequest{Text: text})
		require.NoError(t, err)
		require.Len(t, resp.Embedding, 3)
	}
	require.Equal(t, 2, emb.calls)
}

func TestGenerateForwardsBlankPrompt(t *testing.T) {
	gen := &fakeGenerator{resp: "Hello."}
	svc := NewService(testConfig(), &fakeEmbedder{}, gen, nil, newTestLogger())

	resp, err := svc.Generate(context.Background(), GenerateRequest{Text: " "})
	require.NoError(t, err)
	require.Equal(t, "Hello.", resp.Text)
	require.Equal(t, " ", gen.last.Prompt)
}

func TestEmbedDimensionMismatch(t *testing.T) {
	cfg := testConfig()
	cfg.Dimension = 384
	svc := NewService(cfg, &fakeEmbedder{}, nil, nil, newTestLogger())

	_, err := svc.Embed(context.Background(), EmbedRequest{Text: "hi"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeEmbed))
}

func TestEmbedBackendFailure(t *testing.T) {
	svc := NewService(testConfig(), &fakeEmbedder{err: errors.New("connection refused")}, nil, nil, newTestLogger())

	_, err := svc.Embed(context.Background(), EmbedRequest{Text: "hi"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeEmbed))
	require.ErrorContains(t, err, "connection refused")
}

func TestGenerateWithoutBackendIsUnavailable(t *testing.T) {
	svc := NewService(testConfig(), &fakeEmbedder{}, nil, nil, newTestLogger())

	_, err := svc.Generate(context.Background(), GenerateRequest{Text: "hello"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeLLMUnavailable))
	require.Equal(t, UnavailableMessage, apperrors.Message(err))

	health := svc.Health(context.Background())
	require.False(t, health.GenerationReady)
}

func TestGenerateAppliesDefaultsAndStops(t *testing.T) {
	gen := &fakeGenerator{resp: "  We accept returns within 30 days.\nUser: and shipping?"}
	svc := NewService(testConfig(), &fakeEmbedder{}, gen, wordCounter{}, newTestLogger())

	resp, err := svc.Generate(context.Background(), GenerateRequest{Text: "Bot:"})
	require.NoError(t, err)
	require.Equal(t, "We accept returns within 30 days.", resp.Text)
	require.Equal(t, 128, gen.last.MaxTokens)
	require.InDelta(t, 0.2, gen.last.Temperature, 1e-6)
	require.Equal(t, []string{"User:", "You:"}, gen.last.Stop)
	require.NotNil(t, resp.Usage)
	require.Equal(t, 1, resp.Usage.PromptTokens)
	require.Equal(t, 6, resp.Usage.CompletionTokens)
	require.Equal(t, 7, resp.Usage.TotalTokens)
}

func TestGenerateHonoursRequestParameters(t *testing.T) {
	gen := &fakeGenerator{resp: "ok"}
	svc := NewService(testConfig(), &fakeEmbedder{}, gen, nil, newTestLogger())
	maxTokens := 16
	temperature := float32(0.9)

	resp, err := svc.Generate(context.Background(), GenerateRequest{Text: "hi", MaxTokens: &maxTokens, Temperature: &temperature})
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Text)
	require.Nil(t, resp.Usage)
	require.Equal(t, 16, gen.last.MaxTokens)
	require.InDelta(t, 0.9, gen.last.Temperature, 1e-6)
}

func TestGenerateRejectsBadParameters(t *testing.T) {
	svc := NewService(testConfig(), &fakeEmbedder{}, &fakeGenerator{}, nil, newTestLogger())
	zero := 0
	negative := float32(-1)

	_, err := svc.Generate(context.Background(), GenerateRequest{Text: "hi", MaxTokens: &zero})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.Generate(context.Background(), GenerateRequest{Text: "hi", Temperature: &negative})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestGenerateBackendFailure(t *testing.T) {
	svc := NewService(testConfig(), &fakeEmbedder{}, &fakeGenerator{err: errors.New("model crashed")}, nil, newTestLogger())

	_, err := svc.Generate(context.Background(), GenerateRequest{Text: "hi"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeLLM))
}

func TestTruncateAtStop(t *testing.T) {
	cases := []struct {
		name string
		in   string
		out  string
	}{
		{name: "no marker", in: " plain answer ", out: "plain answer"},
		{name: "earliest marker wins", in: "answer You: x User: y", out: "answer"},
		{name: "marker at start", in: "User: hi", out: ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.out, TruncateAtStop(tc.in, DefaultStop), tc.name)
	}
}
