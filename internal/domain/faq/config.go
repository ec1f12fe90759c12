package faq

import "strings"

// DefaultPrompt is the instruction template used when none is configured.
const DefaultPrompt = `
You are a helpful shop assistant. Use the FAQ context below to answer the user.
If not enough info, politely say you don't know.

FAQ context:
{context}

User: {question}
Bot:`

// Config holds runtime knobs for ingestion and retrieval.
type Config struct {
	// Dimension is the embedding width the faqs table is created with.
	Dimension int
	// BatchSize is the number of upserted rows per committed transaction.
	BatchSize int
	// IDPrefix is prepended to the row position to form faq_id.
	IDPrefix string
	// TopK is the number of nearest entries placed in the prompt.
	TopK int
	// Prompt is the instruction template with {context} and {question} placeholders.
	Prompt string
}

const (
	defaultBatchSize = 100
	defaultTopK      = 3
	defaultIDPrefix  = "faq-"
)

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.TopK <= 0 {
		c.TopK = defaultTopK
	}
	if c.IDPrefix == "" {
		c.IDPrefix = defaultIDPrefix
	}
	if strings.TrimSpace(c.Prompt) == "" {
		c.Prompt = DefaultPrompt
	}
	return c
}
