// Package llamacpp talks to a llama.cpp HTTP server hosting a local GGUF model.
package llamacpp

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

	"github.com/yanqian/shopbot/internal/domain/inference"
)

const defaultBaseURL = "http://127.0.0.1:8080"

// Client calls the llama.cpp /completion endpoint.
type Client struct {
	baseURL   string
	modelPath string
	http      *http.Client
	logger    *slog.Logger
}

// NewClient constructs a client. modelPath names the GGUF file the server was started
// with and is only reported.
func NewClient(baseURL, modelPath string, logger *slog.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		modelPath: modelPath,
		http: &http.Client{
			Timeout: 5 * time.Minute,
		},
		logger: logger.With("component", "llm.llamacpp"),
	}
}

type completionRequest struct {
	Prompt      string   `json:"prompt"`
	NPredict    int      `json:"n_predict"`
	Temperature float32  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
	Stream      bool     `json:"stream"`
}

type completionResponse struct {
	Content string `json:"content"`
}

// ModelPath reports the configured model file.
func (c *Client) ModelPath() string {
	return c.modelPath
}

// Ping checks that the server is up via /health.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("llama.cpp health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("llama.cpp health: status %d", resp.StatusCode)
	}
	return nil
}

// Complete runs one non-streaming completion.
func (c *Client) Complete(ctx context.Context, req inference.Completion) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Prompt:      req.Prompt,
		NPredict:    req.MaxTokens,
		Temperature: req.Temperature,
		Stop:        req.Stop,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completion", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call llama.cpp: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("llama.cpp completion failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	c.logger.Debug("completion finished", "model", c.modelPath, "duration_ms", time.Since(start).Milliseconds())
	return out.Content, nil
}

var _ inference.Generator = (*Client)(nil)
