package chatgpt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(" ", "")
	require.Error(t, err)
}

func TestCreateChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"User:"}, req.Stop)
		require.Equal(t, 64, req.MaxTokens)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL+"/v1/")
	require.NoError(t, err)
	resp, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Model:     "gpt-4o-mini",
		Messages:  []Message{{Role: "user", Content: "hi"}},
		MaxTokens: 64,
		Stop:      []string{"User:"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	require.Equal(t, "hello", resp.Choices[0].Message.Content)
}

func TestCreateEmbeddingErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL)
	require.NoError(t, err)
	_, err = client.CreateEmbedding(context.Background(), EmbeddingRequest{Model: "text-embedding-3-small", Input: []string{"x"}})
	require.ErrorContains(t, err, "status=401")
}
