package chatgpt

import (
	"context"
	"strings"

	"github.com/yanqian/shopbot/internal/domain/inference"
)

// Generator adapts the chat completions API to a single-prompt completion.
type Generator struct {
	client *Client
	model  string
}

// NewGenerator constructs the adapter.
func NewGenerator(client *Client, model string) *Generator {
	return &Generator{client: client, model: model}
}

// Complete sends the prompt as a single user message.
func (g *Generator) Complete(ctx context.Context, req inference.Completion) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, ChatCompletionRequest{
		Model:       g.model,
		Messages:    []Message{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stop:        req.Stop,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ inference.Generator = (*Generator)(nil)
