package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-rbridge/bridge"
	"github.com/robbyt/go-rbridge/bridgetest"
	"github.com/robbyt/go-rbridge/transcript"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// scriptedLines returns a reader that replays lines, then reports io.EOF.
func scriptedLines(lines ...string) (func(string) (string, error), *[]string) {
	var prompts []string
	return func(prompt string) (string, error) {
		prompts = append(prompts, prompt)
		if len(lines) == 0 {
			return "", io.EOF
		}
		line := lines[0]
		lines = lines[1:]
		return line, nil
	}, &prompts
}

func newTestConsole(t *testing.T, engine *bridgetest.Engine) (*console, *syncBuffer) {
	t.Helper()
	handler := slog.NewTextHandler(os.Stdout, nil)
	b, err := bridge.NewFactory().Connect(engine, bridge.WithLogHandler(handler))
	require.NoError(t, err)
	t.Cleanup(func() {
		b.Close()
		select {
		case <-engine.Done():
		case <-time.After(2 * time.Second):
			t.Error("engine did not stop")
		}
	})

	out := &syncBuffer{}
	require.NoError(t, b.AddListener(transcript.NewRecorder(handler, consoleSink(out, out))))
	return &console{bridge: b, out: out, prompt: "> "}, out
}

func echoConsole(cb bridge.Callbacks, text string) error {
	switch {
	case strings.HasPrefix(text, "fail"):
		cb.ShowMessage("Error: " + text + "\n")
	case strings.HasPrefix(text, "die"):
		return errors.New("segfault")
	default:
		cb.WriteOutput(text + "\n")
	}
	return nil
}

func TestConsoleLoop(t *testing.T) {
	t.Parallel()
	engine := bridgetest.NewEngine(
		bridgetest.WithConsole(echoConsole),
		bridgetest.WithEval(func(text string) (bridge.Result, error) {
			if strings.Contains(text, "boom") {
				return nil, errors.New("name boom is not defined")
			}
			return bridgetest.Value{V: strings.ToUpper(strings.TrimSpace(text))}, nil
		}),
	)
	c, out := newTestConsole(t, engine)
	read, prompts := scriptedLines(
		"x = 1",
		"",
		"# a note",
		"fail now",
		":eval x",
		":eval boom",
		":eval",
		":pending",
		":flush",
		":what",
		"def f():",
		"    return 1",
		"",
		":quit",
		"never read",
	)
	c.read = read
	var history []string
	c.remember = func(text string) { history = append(history, text) }

	require.NoError(t, c.loop(context.Background()))

	assert.Equal(t, []string{"x = 1\n", "fail now\n", "def f():\n    return 1\n"}, engine.Inputs())
	// the pending count may still include the last evaluation while it is being retired
	assert.Regexp(t, "^"+regexp.QuoteMeta(strings.Join([]string{
		"x = 1",
		"Error: fail now",
		"X",
		"error: name boom is not defined",
		"usage: :eval <expr>",
	}, "\n")+"\n")+`[01] pending\n`+regexp.QuoteMeta(strings.Join([]string{
		"unknown command :what, type :help for help",
		"def f():",
		"    return 1",
	}, "\n")+"\n")+"$", out.String())
	assert.Equal(t, []string{
		"x = 1", "# a note", "fail now", ":eval x", ":eval boom", ":eval",
		":pending", ":flush", ":what", "def f():" + " " + "    return 1",
	}, history, "every non-blank input except :quit is remembered")
	assert.Equal(t, []string{"> ", "> ", "> ", "> ", "> ", "> ", "> ", "> ", "> ", "> ", "> ", "... ", "... ", "> "}, *prompts)
}

func TestConsoleEndOfInput(t *testing.T) {
	t.Parallel()
	c, out := newTestConsole(t, bridgetest.NewEngine(bridgetest.WithConsole(echoConsole)))
	c.read, _ = scriptedLines("hello")

	require.NoError(t, c.loop(context.Background()))
	assert.Equal(t, "hello\n\n", out.String())
}

func TestConsoleAbortedPrompt(t *testing.T) {
	t.Parallel()
	c, _ := newTestConsole(t, bridgetest.NewEngine())
	calls := 0
	c.read = func(string) (string, error) {
		calls++
		if calls == 1 {
			return "", liner.ErrPromptAborted
		}
		return ":quit", nil
	}

	require.NoError(t, c.loop(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestConsoleEngineDeath(t *testing.T) {
	t.Parallel()
	engine := bridgetest.NewEngine(bridgetest.WithConsole(echoConsole))
	c, _ := newTestConsole(t, engine)
	c.read, _ = scriptedLines("die", "after")

	err := c.loop(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, bridge.ErrConnection)
	assert.Equal(t, []string{"die\n"}, engine.Inputs())
}

func TestConsoleContextDone(t *testing.T) {
	t.Parallel()
	c, _ := newTestConsole(t, bridgetest.NewEngine())
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	started := make(chan struct{}, 1)
	c.read = func(string) (string, error) {
		started <- struct{}{}
		<-block
		return "", io.EOF
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.loop(ctx) }()

	<-started
	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not return")
	}
}

func TestReadBlock(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{name: "single line", lines: []string{"x = 1", "y"}, want: "x = 1"},
		{name: "console command ending in colon", lines: []string{":eval d[1:", "y"}, want: ":eval d[1:"},
		{name: "block until blank line", lines: []string{"for i in range(3):", "  print(i)", " ", "z"}, want: "for i in range(3):\n  print(i)"},
		{name: "block until end of input", lines: []string{"if x:", "  y()"}, want: "if x:\n  y()"},
		{name: "brace block", lines: []string{"func f(n) {", "  return n", "}", "", "z"}, want: "func f(n) {\n  return n\n}"},
		{name: "console command ending in brace", lines: []string{":eval {", "y"}, want: ":eval {"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			read, _ := scriptedLines(tc.lines...)
			got, err := readBlock(read, "> ")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestConsoleSink(t *testing.T) {
	t.Parallel()
	var out, diag bytes.Buffer
	sink := consoleSink(&out, &diag)
	for _, e := range []transcript.Entry{
		{Kind: transcript.KindCommand, Text: "x\n"},
		{Kind: transcript.KindOutput, Text: "1\n"},
		{Kind: transcript.KindMessage, Text: "warning\n"},
		{Kind: transcript.KindPrompt, Text: "> "},
		{Kind: transcript.KindComment, Text: "# c\n"},
	} {
		require.NoError(t, sink.Write(e))
	}
	assert.Equal(t, "1\n", out.String())
	assert.Equal(t, "warning\n", diag.String())
}

func TestConsoleSource(t *testing.T) {
	t.Parallel()
	engine := bridgetest.NewEngine()
	c, out := newTestConsole(t, engine)

	recorder := transcript.NewRecorder(slog.NewTextHandler(os.Stdout, nil))
	require.NoError(t, c.bridge.AddListener(recorder))

	path := filepath.Join(t.TempDir(), "setup.star")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\ny = 2\n\n"), 0o600))
	c.read, _ = scriptedLines(
		":source "+path,
		":source",
		":source "+filepath.Join(t.TempDir(), "missing.star"),
		":source ftp://example.com/a.star",
	)

	require.NoError(t, c.loop(context.Background()))
	assert.Equal(t, []string{"x = 1\ny = 2\n"}, engine.Inputs())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "usage: :source <path or url>", lines[0])
	assert.Contains(t, lines[1], "script not available")
	assert.Contains(t, lines[2], "unsupported scheme")

	text := recorder.Text()
	assert.Contains(t, text, "# source file://"+filepath.ToSlash(path)+" (sha256 ")
	assert.Contains(t, text, "x = 1\ny = 2\n> ")
}
