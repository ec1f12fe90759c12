package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/shopbot/internal/domain/inference"
	"github.com/yanqian/shopbot/internal/domain/servicetoken"
	"github.com/yanqian/shopbot/internal/infra/config"
	"github.com/yanqian/shopbot/internal/infra/embedder"
)

type fakeGenerator struct {
	text string
	err  error
	got  inference.Completion
}

func (g *fakeGenerator) Complete(_ context.Context, req inference.Completion) (string, error) {
	g.got = req
	return g.text, g.err
}

type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(bytes.Fields([]byte(text))) }

func TestRouter_EmbedIsDeterministic(t *testing.T) {
	server := newRouterUnderTest(t, nil, nil)

	first := performRequest(server, http.MethodPost, "/embed", `{"text":"Return policy?"}`, "")
	second := performRequest(server, http.MethodPost, "/embed", `{"text":"Return policy?"}`, "")
	require.Equal(t, http.StatusOK, first.Code)
	require.NotEmpty(t, first.Header().Get("X-Request-ID"))

	var a, b inference.EmbedResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	require.Len(t, a.Embedding, 16)
	require.Equal(t, a, b)
}

func TestRouter_EmbedAcceptsBlankText(t *testing.T) {
	server := newRouterUnderTest(t, nil, nil)
	for _, body := range []string{`{"text":""}`, `{"text":" "}`} {
		rec := performRequest(server, http.MethodPost, "/embed", body, "")
		require.Equal(t, http.StatusOK, rec.Code, body)

		var got inference.EmbedResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got.Embedding, 16)
	}
}

func TestRouter_EmbedInvalidJSON(t *testing.T) {
	rec := performRequest(newRouterUnderTest(t, nil, nil), http.MethodPost, "/embed", `{"text":123}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_input", decodeErrorBody(t, rec.Body.Bytes())["code"])
}

func TestRouter_GenerateUnavailable(t *testing.T) {
	rec := performRequest(newRouterUnderTest(t, nil, nil), http.MethodPost, "/generate", `{"text":"hi"}`, "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, map[string]string{"error": "No LLM available", "code": "llm_unavailable"}, decodeErrorBody(t, rec.Body.Bytes()))
}

func TestRouter_GenerateSuccess(t *testing.T) {
	gen := &fakeGenerator{text: " We accept returns within 30 days.\nUser: thanks"}
	rec := performRequest(newRouterUnderTest(t, gen, nil), http.MethodPost, "/generate", `{"text":"User: returns?\nBot:","max_tokens":64}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got inference.GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "We accept returns within 30 days.", got.Text)
	require.NotNil(t, got.Usage)
	require.Equal(t, 64, gen.got.MaxTokens)
	require.InDelta(t, 0.2, gen.got.Temperature, 1e-6)
}

func TestRouter_GenerateBackendFailure(t *testing.T) {
	gen := &fakeGenerator{err: context.DeadlineExceeded}
	rec := performRequest(newRouterUnderTest(t, gen, nil), http.MethodPost, "/generate", `{"text":"hi"}`, "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "llm_error", decodeErrorBody(t, rec.Body.Bytes())["code"])
}

func TestRouter_Health(t *testing.T) {
	rec := performRequest(newRouterUnderTest(t, nil, nil), http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health inference.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "none", health.GenerationBackend)
	require.False(t, health.GenerationReady)
	require.Equal(t, 16, health.Dimension)
}

func TestRouter_AuthRequired(t *testing.T) {
	verifier, err := servicetoken.NewVerifier("secret")
	require.NoError(t, err)
	server := newRouterUnderTest(t, nil, verifier)

	rec := performRequest(server, http.MethodPost, "/embed", `{"text":"hi"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = performRequest(server, http.MethodPost, "/embed", `{"text":"hi"}`, "Bearer nope")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "invalid_token", decodeErrorBody(t, rec.Body.Bytes())["code"])

	signer, err := servicetoken.NewSigner("secret", "chat", time.Minute)
	require.NoError(t, err)
	token, err := signer.Sign()
	require.NoError(t, err)
	rec = performRequest(server, http.MethodPost, "/embed", `{"text":"hi"}`, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = performRequest(server, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func performRequest(server *http.Server, method, path, body, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, gen inference.Generator, verifier TokenVerifier) *http.Server {
	t.Helper()
	logger := newTestLogger()
	backend := ""
	if gen != nil {
		backend = "fake"
	}
	svc := inference.NewService(inference.Config{
		EmbeddingModel:    "deterministic",
		Dimension:         16,
		GenerationBackend: backend,
		Temperature:       0.2,
	}, embedder.NewDeterministicEmbedder(16), gen, wordCounter{}, logger)
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
	return NewRouter(cfg, NewHandler(svc, logger), verifier)
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
