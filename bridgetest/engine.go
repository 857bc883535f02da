// Package bridgetest provides a scripted interpreter for testing code that drives a Bridge.
package bridgetest

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/robbyt/go-rbridge/bridge"
)

// ErrOutsideCallback is returned when the evaluator is used outside NextInput.
var ErrOutsideCallback = errors.New("evaluator used outside of the interpreter callback")

// Prompt is the prompt the scripted engine passes to NextInput.
const Prompt = "> "

// ConsoleFunc executes one line handed to the read loop. It may call cb.WriteOutput and
// cb.ShowMessage. Returning an error kills the engine.
type ConsoleFunc func(cb bridge.Callbacks, text string) error

// EvalFunc is the reentrant evaluator.
type EvalFunc func(text string) (bridge.Result, error)

// Engine is a bridge.Engine whose behavior is supplied by the test.
type Engine struct {
	console  ConsoleFunc
	eval     EvalFunc
	startErr error

	mu     sync.Mutex
	args   []string
	starts int
	inputs []string
	evals  []string

	done    chan struct{}
	exitErr error
}

// Option configures an Engine.
type Option func(*Engine)

// WithConsole sets the read-loop handler. The default does nothing.
func WithConsole(fn ConsoleFunc) Option {
	return func(e *Engine) {
		e.console = fn
	}
}

// WithEval sets the reentrant evaluator. The default echoes the trimmed text as a Value.
func WithEval(fn EvalFunc) Option {
	return func(e *Engine) {
		e.eval = fn
	}
}

// WithStartError makes Start fail.
func WithStartError(err error) Option {
	return func(e *Engine) {
		e.startErr = err
	}
}

// NewEngine creates a scripted engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		console: func(bridge.Callbacks, string) error { return nil },
		eval: func(text string) (bridge.Result, error) {
			return Value{V: strings.TrimSpace(text)}, nil
		},
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the read loop on its own goroutine.
func (e *Engine) Start(args []string, cb bridge.Callbacks) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.starts++
	if e.startErr != nil {
		return e.startErr
	}
	e.args = slices.Clone(args)
	go e.loop(cb)
	return nil
}

func (e *Engine) loop(cb bridge.Callbacks) {
	defer close(e.done)

	ev := &evaluator{engine: e}
	for {
		ev.active.Store(true)
		text, err := cb.NextInput(ev, Prompt)
		ev.active.Store(false)
		if err != nil {
			cb.Terminated(nil)
			return
		}

		e.mu.Lock()
		e.inputs = append(e.inputs, text)
		e.mu.Unlock()

		cb.Busy(true)
		err = e.console(cb, strings.TrimSuffix(text, "\n"))
		cb.Busy(false)
		if err != nil {
			e.mu.Lock()
			e.exitErr = err
			e.mu.Unlock()
			cb.Terminated(err)
			return
		}
	}
}

// Done is closed when the read loop has ended.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// ExitErr returns the error that killed the engine, if any.
func (e *Engine) ExitErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exitErr
}

// Starts returns how many times Start was called.
func (e *Engine) Starts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

// Args returns the arguments given to Start.
func (e *Engine) Args() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.args)
}

// Inputs returns every line handed to the read loop, newline included.
func (e *Engine) Inputs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.inputs)
}

// Evals returns every text given to the reentrant evaluator, newline included.
func (e *Engine) Evals() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.evals)
}

type evaluator struct {
	engine *Engine
	active atomic.Bool
}

func (ev *evaluator) Eval(text string) (bridge.Result, error) {
	if !ev.active.Load() {
		return nil, ErrOutsideCallback
	}
	ev.engine.mu.Lock()
	ev.engine.evals = append(ev.engine.evals, text)
	ev.engine.mu.Unlock()
	return ev.engine.eval(text)
}

// Value is a trivial bridge.Result.
type Value struct {
	V any
}

func (v Value) Inspect() string {
	return fmt.Sprint(v.V)
}

func (v Value) Interface() any {
	return v.V
}
