package bridgetest

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robbyt/go-rbridge/bridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoMoreInput = errors.New("no more input")

// scriptedCallbacks feeds a fixed list of lines and records what the engine reports.
type scriptedCallbacks struct {
	mu         sync.Mutex
	lines      []string
	evaluator  bridge.Evaluator
	evalResult bridge.Result
	evalErr    error
	outputs    []string
	busy       []bool
	terminated chan error
}

func (c *scriptedCallbacks) NextInput(ev bridge.Evaluator, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evaluator = ev
	if c.evalResult == nil {
		c.evalResult, c.evalErr = ev.Eval("1 + 1\n")
	}
	if len(c.lines) == 0 {
		return "", errNoMoreInput
	}
	line := c.lines[0]
	c.lines = c.lines[1:]
	return line + "\n", nil
}

func (c *scriptedCallbacks) WriteOutput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputs = append(c.outputs, text)
}

func (c *scriptedCallbacks) ShowMessage(text string) {
	c.WriteOutput("message: " + text)
}

func (c *scriptedCallbacks) Busy(busy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = append(c.busy, busy)
}

func (c *scriptedCallbacks) Terminated(err error) {
	c.terminated <- err
}

func TestEngine(t *testing.T) {
	t.Parallel()

	t.Run("runs the read loop", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(WithConsole(func(cb bridge.Callbacks, text string) error {
			cb.WriteOutput("ran " + text)
			if text == "warn" {
				cb.ShowMessage("careful")
			}
			return nil
		}))
		cb := &scriptedCallbacks{lines: []string{"a", "warn"}, terminated: make(chan error, 1)}

		require.NoError(t, e.Start([]string{"--save"}, cb))
		select {
		case err := <-cb.terminated:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("engine did not terminate")
		}
		<-e.Done()

		assert.Equal(t, []string{"--save"}, e.Args())
		assert.Equal(t, 1, e.Starts())
		assert.Equal(t, []string{"a\n", "warn\n"}, e.Inputs())
		assert.Equal(t, []string{"1 + 1\n"}, e.Evals())
		assert.Equal(t, []string{"ran a", "ran warn", "message: careful"}, cb.outputs)
		assert.Equal(t, []bool{true, false, true, false}, cb.busy)
		require.NoError(t, cb.evalErr)
		assert.Equal(t, "1 + 1", cb.evalResult.Inspect())

		_, err := cb.evaluator.Eval("2\n")
		assert.ErrorIs(t, err, ErrOutsideCallback)
	})

	t.Run("console error kills the engine", func(t *testing.T) {
		t.Parallel()
		crash := errors.New("crash")
		e := NewEngine(WithConsole(func(bridge.Callbacks, string) error { return crash }))
		cb := &scriptedCallbacks{lines: []string{"boom", "unreached"}, terminated: make(chan error, 1)}

		require.NoError(t, e.Start(nil, cb))
		assert.ErrorIs(t, <-cb.terminated, crash)
		<-e.Done()
		assert.ErrorIs(t, e.ExitErr(), crash)
		assert.Equal(t, []string{"boom\n"}, e.Inputs())
	})

	t.Run("start error", func(t *testing.T) {
		t.Parallel()
		e := NewEngine(WithStartError(errors.New("missing")))
		err := e.Start(nil, &scriptedCallbacks{})
		assert.EqualError(t, err, "missing")
		assert.Equal(t, 1, e.Starts())
		assert.Empty(t, e.Inputs())
	})
}

func TestValue(t *testing.T) {
	t.Parallel()
	v := Value{V: []int{1, 2}}
	assert.Equal(t, "[1 2]", v.Inspect())
	assert.Equal(t, []int{1, 2}, v.Interface())
}
