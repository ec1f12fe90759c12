package modelclient

import (
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
	apperrors "github.com/yanqian/shopbot/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticToken string

func (s staticToken) Sign() (string, error) { return string(s), nil }

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embed", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var req inference.EmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "hello", req.Text)
		_, _ = w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", time.Second, staticToken("tok"), newTestLogger())
	vec, err := client.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		require.Equal(t, map[string]any{"text": "prompt"}, raw)
		_, _ = w.Write([]byte(`{"text":"answer","usage":{"promptTokens":1,"completionTokens":1,"totalTokens":2}}`))
	}))
	defer srv.Close()

	text, err := NewClient(srv.URL, time.Second, nil, newTestLogger()).Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "answer", text)
}

func TestGenerateUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"No LLM available","code":"llm_unavailable"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil, newTestLogger()).Generate(context.Background(), "prompt")
	require.True(t, apperrors.IsCode(err, apperrors.CodeLLMUnavailable))
	require.Equal(t, "No LLM available", apperrors.Message(err))
}

func TestServerErrorIsRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"generation failed","code":"llm_error"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil, newTestLogger()).Generate(context.Background(), "prompt")
	require.True(t, apperrors.IsCode(err, apperrors.CodeRemote))
	require.ErrorContains(t, err, "generation failed")
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil, newTestLogger()).Embed(context.Background(), "x")
	require.True(t, apperrors.IsCode(err, apperrors.CodeRemote))
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second, nil, newTestLogger()).Embed(context.Background(), "x")
	require.True(t, apperrors.IsCode(err, apperrors.CodeRemote))
}
