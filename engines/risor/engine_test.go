package risor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/risor-io/risor/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robbyt/go-rbridge/bridge"
	"github.com/robbyt/go-rbridge/command"
)

// consoleListener keeps console output and diagnostics in arrival order.
type consoleListener struct {
	bridge.BaseListener
	mu  sync.Mutex
	out []string
}

func (l *consoleListener) ReceivedOutput(text string, active *command.Command) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = append(l.out, text)
}

func (l *consoleListener) ReceivedMessage(text string, active *command.Command) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = append(l.out, "message: "+text)
}

func (l *consoleListener) Output() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.out...)
}

func newConsole(t *testing.T, args []string, opts ...Option) (*bridge.Bridge, *consoleListener) {
	t.Helper()
	handler := slog.NewTextHandler(os.Stdout, nil)
	engine, err := New(append([]Option{WithLogHandler(handler)}, opts...)...)
	require.NoError(t, err)

	b, err := bridge.NewFactory().Connect(engine,
		bridge.WithLogHandler(handler),
		bridge.WithEngineArgs(args...),
	)
	require.NoError(t, err)

	l := &consoleListener{}
	require.NoError(t, b.AddListener(l))

	t.Cleanup(func() {
		b.Close()
		if !engine.started.Load() {
			return
		}
		select {
		case <-engine.Done():
		case <-time.After(2 * time.Second):
			t.Error("console did not stop")
		}
	})
	return b, l
}

func TestConsole(t *testing.T) {
	t.Parallel()
	b, l := newConsole(t, []string{"--quiet"})
	ctx := context.Background()

	for _, line := range []string{
		"x := 5",
		"x + 1",
		`print("hello", 2)`,
		"nil",
		"y := x * 2",
		"y",
		"undefined_name",
		"1 +",
	} {
		require.NoError(t, b.SubmitFireAndForget(command.Plain(line)))
	}
	require.NoError(t, b.Flush(ctx))

	out := l.Output()
	require.Len(t, out, 5)
	assert.Equal(t, []string{"6\n", "hello 2\n", "10\n"}, out[:3])
	assert.True(t, strings.HasPrefix(out[3], "message: Error: "), out[3])
	assert.Contains(t, out[3], ErrCompile.Error())
	assert.True(t, strings.HasPrefix(out[4], "message: Error: "), out[4])
	assert.Contains(t, out[4], ErrParse.Error())
}

func TestReentrantEvaluation(t *testing.T) {
	t.Parallel()
	b, l := newConsole(t, []string{"--quiet"}, WithGlobals(map[string]any{
		"greeting": "hello",
		"sizes":    []any{1, 2, 3},
	}))
	ctx := context.Background()

	require.NoError(t, b.SubmitFireAndForget(command.Plain("x := 5")))

	tests := []struct {
		name    string
		cmd     command.Command
		want    any
		inspect string
		wantErr error
	}{
		{name: "console globals are shared", cmd: command.Plain("x * 2"), want: int64(10), inspect: "10"},
		{name: "predefined string", cmd: command.Plain(`greeting + " world"`), want: "hello world", inspect: `"hello world"`},
		{name: "predefined list", cmd: command.Invoke("len", command.Positional("sizes")), want: int64(3), inspect: "3"},
		{name: "list", cmd: command.Plain("[1, 2]"), want: []any{int64(1), int64(2)}},
		{name: "map", cmd: command.Plain(`{"k": true}`), want: map[string]any{"k": true}},
		{name: "statements yield nil", cmd: command.Plain("y := 1\nz := 2"), want: nil},
		{name: "print is not console output", cmd: command.Plain(`print("quiet")`), want: nil},
		{name: "parse error", cmd: command.Plain("1 +"), wantErr: ErrParse},
		{name: "undefined name", cmd: command.Plain("nope"), wantErr: ErrCompile},
		{name: "runtime error", cmd: command.Plain("sizes[10]"), wantErr: ErrExec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := b.Evaluate(ctx, tt.cmd)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, bridge.ErrEvaluation)
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Interface())
			if tt.inspect != "" {
				assert.Equal(t, tt.inspect, result.Inspect())
			}
		})
	}

	require.NoError(t, b.Flush(ctx))
	assert.Empty(t, l.Output())

	result, err := b.Evaluate(ctx, command.Plain("y + z"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Interface())
}

func TestAssignmentDoesNotAssign(t *testing.T) {
	t.Parallel()
	b, _ := newConsole(t, []string{"--quiet"}, WithGlobals(map[string]any{"x": 1}))
	ctx := context.Background()

	if result, err := b.Evaluate(ctx, command.Assign("x", "5")); err == nil {
		assert.NotEqual(t, int64(5), result.Interface())
	}

	result, err := b.Evaluate(ctx, command.Plain("x"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Interface(), "x is unchanged")
}

func TestBanner(t *testing.T) {
	t.Parallel()
	b, l := newConsole(t, nil)
	require.NoError(t, b.SubmitFireAndForget(command.Plain(`"ready"`)))
	require.NoError(t, b.Flush(context.Background()))

	assert.Equal(t, []string{banner, "\"ready\"\n"}, l.Output())
}

func TestTimeout(t *testing.T) {
	t.Parallel()
	b, _ := newConsole(t, []string{"-q"}, WithTimeout(50*time.Millisecond))

	_, err := b.Evaluate(context.Background(), command.Plain("for { }"))
	require.ErrorIs(t, err, ErrExec)

	result, err := b.Evaluate(context.Background(), command.Plain("1 + 1"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Interface())
}

// stopCallbacks ends the read loop on the first read and keeps the evaluator it was given.
type stopCallbacks struct {
	evaluator  bridge.Evaluator
	terminated chan error
}

func (c *stopCallbacks) NextInput(ev bridge.Evaluator, prompt string) (string, error) {
	c.evaluator = ev
	if _, err := ev.Eval("1"); err != nil {
		return "", fmt.Errorf("evaluator unusable inside callback: %w", err)
	}
	return "", errors.New("stop")
}

func (c *stopCallbacks) WriteOutput(string) {}
func (c *stopCallbacks) ShowMessage(string) {}
func (c *stopCallbacks) Busy(bool)          {}
func (c *stopCallbacks) Terminated(err error) {
	c.terminated <- err
}

func TestEngineLifecycle(t *testing.T) {
	t.Parallel()
	engine, err := New(WithLogHandler(slog.NewTextHandler(os.Stdout, nil)), WithPrompt(">>> "))
	require.NoError(t, err)
	assert.Equal(t, "risor.Engine", engine.String())
	assert.Equal(t, ">>> ", engine.prompt)

	require.Error(t, engine.Start(nil, nil))

	cb := &stopCallbacks{terminated: make(chan error, 1)}
	require.NoError(t, engine.Start([]string{"--quiet"}, cb))
	require.ErrorIs(t, engine.Start(nil, cb), ErrAlreadyStarted)

	select {
	case err := <-cb.terminated:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not end")
	}
	<-engine.Done()

	_, err = cb.evaluator.Eval("1")
	assert.ErrorIs(t, err, ErrOutsideCallback)
}

func TestOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opt     Option
		wantErr string
	}{
		{name: "empty prompt", opt: WithPrompt("  "), wantErr: "prompt cannot be empty"},
		{name: "nil handler", opt: WithLogHandler(nil), wantErr: "log handler cannot be nil"},
		{name: "nil logger", opt: WithLogger(nil), wantErr: "logger cannot be nil"},
		{name: "empty global name", opt: WithGlobals(map[string]any{" ": 1}), wantErr: "global name cannot be empty"},
		{name: "negative timeout", opt: WithTimeout(-time.Second), wantErr: "timeout cannot be negative"},
		{name: "logger", opt: WithLogger(slog.New(slog.NewTextHandler(os.Stdout, nil)))},
		{name: "timeout", opt: WithTimeout(time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			engine, err := New(tt.opt)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, engine)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, engine.logger)
			assert.Equal(t, DefaultPrompt, engine.prompt)
		})
	}
}

func TestResult(t *testing.T) {
	t.Parallel()
	r := newResult(nil)
	assert.Equal(t, "nil", r.Inspect())
	assert.Nil(t, r.Interface())
	assert.Equal(t, "Result{Type: nil, Value: nil}", r.String())

	r = newResult(object.NewString("a"))
	assert.Equal(t, `"a"`, r.Inspect())
	assert.Equal(t, "a", r.Interface())
}
