package tokenizer

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used when no encoding name is configured.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens with a tiktoken encoding, or estimates when none could be loaded.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter loads the named encoding. Loading may need network access to fetch the
// BPE ranks; on failure the counter falls back to Estimate.
func NewCounter(encoding string, logger *slog.Logger) *Counter {
	if strings.TrimSpace(encoding) == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		logger.With("component", "tokenizer").Warn("tiktoken encoding unavailable, estimating tokens", "encoding", encoding, "error", err)
		return &Counter{}
	}
	return &Counter{enc: enc}
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c == nil || c.enc == nil {
		return Estimate(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Estimate provides a rough, upper-biased token count without an encoding.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))
	// assume ~1 token per 2 runes and never below word count
	byRunes := (runes + 1) / 2
	if byRunes < words {
		return words
	}
	return byRunes
}
