// Package modelclient calls the model server's /embed and /generate endpoints.
package modelclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/shopbot/internal/domain/faq"
	"github.com/yanqian/shopbot/internal/domain/inference"
	apperrors "github.com/yanqian/shopbot/pkg/errors"
)

// TokenSource supplies bearer tokens for authenticated servers.
type TokenSource interface {
	Sign() (string, error)
}

// Client is a thin HTTP client for the model server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
}

// NewClient constructs a client. tokens may be nil when the server runs without auth.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger.With("component", "modelclient"),
	}
}

// Embed implements faq.Embedder.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var out inference.EmbedResponse
	if err := c.post(ctx, "/embed", inference.EmbedRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeRemote, "model server returned an empty embedding", nil)
	}
	return out.Embedding, nil
}

// Generate implements faq.Generator using the server's default parameters.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.GenerateWith(ctx, inference.GenerateRequest{Text: prompt})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// GenerateWith sends an explicit /generate request.
func (c *Client) GenerateWith(ctx context.Context, req inference.GenerateRequest) (inference.GenerateResponse, error) {
	var out inference.GenerateResponse
	if err := c.post(ctx, "/generate", req, &out); err != nil {
		return inference.GenerateResponse{}, err
	}
	if out.Usage != nil {
		c.logger.Debug("generation usage", "prompt_tokens", out.Usage.PromptTokens, "completion_tokens", out.Usage.CompletionTokens)
	}
	return out, nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeRemote, "encode "+path+" request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeRemote, "build "+path+" request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.Sign()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeRemote, "model server unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeRemote, "read "+path+" response", err)
	}
	if resp.StatusCode >= 300 {
		return decodeError(path, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.Wrap(apperrors.CodeRemote, "malformed "+path+" response", err)
	}
	return nil
}

// decodeError maps the server's {"error","code"} body to an AppError.
// An unavailable generation backend keeps its own code so callers can recover.
func decodeError(path string, status int, body []byte) error {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)
	if parsed.Code == apperrors.CodeLLMUnavailable {
		return apperrors.Wrap(apperrors.CodeLLMUnavailable, parsed.Error, nil)
	}
	msg := parsed.Error
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	return apperrors.Wrap(apperrors.CodeRemote, fmt.Sprintf("%s failed: status=%d", path, status), fmt.Errorf("%s", msg))
}

var (
	_ faq.Embedder  = (*Client)(nil)
	_ faq.Generator = (*Client)(nil)
)
