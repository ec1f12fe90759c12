package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/shopbot/internal/domain/faq"
)

type scriptedResponder struct {
	replies map[string]faq.Reply
	err     error
	asked   []string
}

func (s *scriptedResponder) Reply(_ context.Context, query string) (faq.Reply, error) {
	s.asked = append(s.asked, query)
	if s.err != nil {
		return faq.Reply{}, s.err
	}
	return s.replies[query], nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func run(t *testing.T, responder Responder, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	repl := NewREPL(responder, strings.NewReader(input), &out, []string{"quit", "exit"}, newTestLogger())
	err := repl.Run(context.Background())
	return out.String(), err
}

func TestREPLAnswersUntilExitKeyword(t *testing.T) {
	responder := &scriptedResponder{replies: map[string]faq.Reply{
		"Return policy?": {Text: "30 days."},
	}}

	out, err := run(t, responder, "Return policy?\n\n  QUIT \nnever asked\n")
	require.NoError(t, err)
	require.Equal(t, []string{"Return policy?"}, responder.asked)
	require.Equal(t, banner+"\nYou: Bot: 30 days.\nYou: You: ", out)
}

func TestREPLStopsAtEOF(t *testing.T) {
	responder := &scriptedResponder{replies: map[string]faq.Reply{"hi": {Text: "hello"}}}

	out, err := run(t, responder, "hi")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(out, "Bot: hello\nYou: \n"))
}

func TestREPLContinuesWhenGenerationUnavailable(t *testing.T) {
	responder := &scriptedResponder{replies: map[string]faq.Reply{
		"a": {Unavailable: true},
		"b": {Text: "second"},
	}}

	out, err := run(t, responder, "a\nb\nexit\n")
	require.NoError(t, err)
	require.Contains(t, out, "Bot: "+unavailableNotice+"\n")
	require.Contains(t, out, "Bot: second\n")
}

func TestREPLReturnsFatalErrors(t *testing.T) {
	responder := &scriptedResponder{err: errors.New("model server unreachable")}

	_, err := run(t, responder, "hello\nquit\n")
	require.ErrorContains(t, err, "model server unreachable")
	require.Len(t, responder.asked, 1)
}

func TestREPLStopsWhenContextCancelledWhileWaitingForInput(t *testing.T) {
	in, writer := io.Pipe()
	defer writer.Close()
	var out bytes.Buffer
	repl := NewREPL(&scriptedResponder{}, in, &out, []string{"quit"}, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- repl.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the context was cancelled")
	}
}

func TestREPLIgnoresReplyErrorAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	responder := &cancellingResponder{cancel: cancel}
	var out bytes.Buffer

	err := NewREPL(responder, strings.NewReader("hello\n"), &out, []string{"quit"}, newTestLogger()).Run(ctx)
	require.NoError(t, err)
}

type cancellingResponder struct {
	cancel context.CancelFunc
}

func (c *cancellingResponder) Reply(ctx context.Context, _ string) (faq.Reply, error) {
	c.cancel()
	return faq.Reply{}, ctx.Err()
}
