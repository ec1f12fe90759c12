package inference

import "github.com/yanqian/shopbot/pkg/metrics"

// EmbedRequest is the /embed payload.
type EmbedRequest struct {
	Text string `json:"text"`
}

// EmbedResponse carries the vector for the request text.
type EmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// GenerateRequest is the /generate payload. Unset parameters fall back to server defaults.
type GenerateRequest struct {
	Text        string   `json:"text"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
}

// GenerateResponse carries the generated text.
type GenerateResponse struct {
	Text  string              `json:"text"`
	Usage *metrics.TokenUsage `json:"usage,omitempty"`
}

// Health describes the loaded models.
type Health struct {
	Status            string `json:"status"`
	EmbeddingModel    string `json:"embeddingModel"`
	Dimension         int    `json:"dimension"`
	GenerationBackend string `json:"generationBackend"`
	GenerationReady   bool   `json:"generationReady"`
}

// Completion is a single prompt handed to a generation backend.
type Completion struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
	Stop        []string
}
