// Package cli implements the interactive chat loop.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/yanqian/shopbot/internal/domain/faq"
)

const (
	banner            = "SHOP-BOT CLI - type 'quit' to exit"
	unavailableNotice = "[LLM not available on server]"
)

// Responder answers one user turn.
type Responder interface {
	Reply(ctx context.Context, query string) (faq.Reply, error)
}

// REPL reads questions line by line and prints the bot's answers.
type REPL struct {
	responder    Responder
	in           *bufio.Scanner
	out          io.Writer
	exitKeywords map[string]struct{}
	logger       *slog.Logger
}

// NewREPL constructs a loop over in and out. Exit keywords match case-insensitively.
func NewREPL(responder Responder, in io.Reader, out io.Writer, exitKeywords []string, logger *slog.Logger) *REPL {
	keywords := make(map[string]struct{}, len(exitKeywords))
	for _, kw := range exitKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords[kw] = struct{}{}
		}
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &REPL{
		responder:    responder,
		in:           scanner,
		out:          out,
		exitKeywords: keywords,
		logger:       logger.With("component", "cli.repl"),
	}
}

// Run loops until EOF, an exit keyword, context cancellation or a fatal reply error.
// Input is read on a separate goroutine so cancellation interrupts a pending prompt.
func (r *REPL) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	lines, readErr := r.readLines(done)

	fmt.Fprintln(r.out, banner)
	for {
		fmt.Fprint(r.out, "You: ")
		var (
			raw string
			ok  bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case raw, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(r.out)
			return <-readErr
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if _, exit := r.exitKeywords[strings.ToLower(line)]; exit {
			return nil
		}

		reply, err := r.responder.Reply(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("answer %q: %w", line, err)
		}
		if reply.Unavailable {
			fmt.Fprintln(r.out, "Bot: "+unavailableNotice)
			continue
		}
		r.logger.Debug("answered", "matches", len(reply.Matches))
		fmt.Fprintln(r.out, "Bot: "+reply.Text)
	}
}

// readLines feeds scanned lines into the returned channel until EOF or done is closed.
// The channel is closed after the scanner error, if any, is sent on the error channel.
func (r *REPL) readLines(done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		for r.in.Scan() {
			select {
			case lines <- r.in.Text():
			case <-done:
				return
			}
		}
		errc <- r.in.Err()
	}()
	return lines, errc
}
