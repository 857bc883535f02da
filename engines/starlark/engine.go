// Package starlark runs a Starlark console behind the bridge's pull protocol.
//
// The console owns one goroutine, locked to its OS thread, for its whole life. Globals
// persist across inputs and start out with the json, math and time modules.
//
// Command rendering targets an R-dialect interpreter. command.Assign renders "x <- 5",
// which Starlark parses as the comparison x < -5 and evaluates without assigning. The
// rsyntax literals (TRUE, FALSE, c(...)) and the objects helpers are not executable here
// either. Use command.Plain with Starlark source, and command.Invoke for plain calls.
package starlark

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"sync/atomic"

	"github.com/robbyt/go-rbridge/bridge"
	"github.com/robbyt/go-rbridge/engines/starlark/internal"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const (
	consoleFile = "<console>"
	banner      = "Starlark console (go.starlark.net)\n"
)

var quietArgs = []string{"-q", "--quiet", "--silent"}

// Engine implements bridge.Engine with an in-process Starlark interpreter.
type Engine struct {
	prompt   string
	globals  starlarkLib.StringDict
	maxSteps uint64
	fileOpts *syntax.FileOptions

	started atomic.Bool
	done    chan struct{}

	logHandler slog.Handler
	logger     *slog.Logger
}

var _ bridge.Engine = (*Engine)(nil)

// New creates an Engine. It does nothing until Start is called.
func New(opts ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	cfg.applyDefaults()
	cfg.setupLogger()

	globals := internal.Modules()
	maps.Copy(globals, cfg.globals)

	return &Engine{
		prompt:   cfg.prompt,
		globals:  globals,
		maxSteps: cfg.maxSteps,
		fileOpts: &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		},
		done:       make(chan struct{}),
		logHandler: cfg.logHandler,
		logger:     cfg.logger,
	}, nil
}

func (e *Engine) String() string {
	return "starlark.Engine"
}

// Start launches the read loop. Any of -q, --quiet or --silent suppresses the banner.
func (e *Engine) Start(args []string, cb bridge.Callbacks) error {
	if cb == nil {
		return fmt.Errorf("callbacks cannot be nil")
	}
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	quiet := slices.ContainsFunc(args, func(arg string) bool {
		return slices.Contains(quietArgs, arg)
	})
	e.logger.Info("starting console", "args", args)
	go e.run(cb, quiet)
	return nil
}

// Done is closed once the read loop has ended.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) run(cb bridge.Callbacks, quiet bool) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(e.done)
	logger := e.logger.WithGroup("run")

	if !quiet {
		cb.WriteOutput(banner)
	}

	ev := &evaluator{engine: e}
	for {
		ev.active.Store(true)
		text, err := cb.NextInput(ev, e.prompt)
		ev.active.Store(false)
		if err != nil {
			logger.Info("leaving read loop", "reason", err)
			cb.Terminated(nil)
			return
		}

		cb.Busy(true)
		err = e.safeConsole(cb, text)
		cb.Busy(false)
		if err != nil {
			logger.Error("console crashed", "error", err)
			cb.Terminated(err)
			return
		}
	}
}

// safeConsole turns a panic escaping the interpreter into a fatal error.
func (e *Engine) safeConsole(cb bridge.Callbacks, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrExec, r)
		}
	}()
	e.console(cb, text)
	return nil
}

// console executes one chunk of input the way an interactive prompt does: output from
// print and the value of a lone expression go to the console, errors go to diagnostics.
func (e *Engine) console(cb bridge.Callbacks, text string) {
	thread := e.newThread("console", func(_ *starlarkLib.Thread, msg string) {
		cb.WriteOutput(msg + "\n")
	})

	v, err := e.exec(thread, text)
	if err != nil {
		cb.ShowMessage(errorMessage(err))
		return
	}
	if v != starlarkLib.None {
		cb.WriteOutput(v.String() + "\n")
	}
}

// exec parses text and runs it against the persistent globals. A single expression
// yields its value; anything else yields None.
func (e *Engine) exec(thread *starlarkLib.Thread, text string) (starlarkLib.Value, error) {
	f, err := e.fileOpts.Parse(consoleFile, text, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if expr := soleExpr(f); expr != nil {
		v, err := starlarkLib.EvalExprOptions(e.fileOpts, thread, expr, e.globals)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExec, err)
		}
		return v, nil
	}

	if err := starlarkLib.ExecREPLChunk(f, thread, e.globals); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExec, err)
	}
	return starlarkLib.None, nil
}

func (e *Engine) newThread(name string, printFn func(*starlarkLib.Thread, string)) *starlarkLib.Thread {
	thread := &starlarkLib.Thread{Name: name, Print: printFn}
	if e.maxSteps > 0 {
		thread.SetMaxExecutionSteps(e.maxSteps)
	}
	return thread
}

func soleExpr(f *syntax.File) syntax.Expr {
	if len(f.Stmts) != 1 {
		return nil
	}
	if stmt, ok := f.Stmts[0].(*syntax.ExprStmt); ok {
		return stmt.X
	}
	return nil
}

func errorMessage(err error) string {
	var evalErr *starlarkLib.EvalError
	if errors.As(err, &evalErr) {
		return evalErr.Backtrace() + "\n"
	}
	return "Error: " + err.Error() + "\n"
}

// evaluator is the reentrant entry point handed out with every NextInput call.
type evaluator struct {
	engine *Engine
	active atomic.Bool
}

// Eval runs text on the console goroutine. print output is sent to the debug log rather
// than the console.
func (ev *evaluator) Eval(text string) (bridge.Result, error) {
	if !ev.active.Load() {
		return nil, ErrOutsideCallback
	}
	e := ev.engine
	logger := e.logger.WithGroup("Eval")

	thread := e.newThread("eval", func(thread *starlarkLib.Thread, msg string) {
		logger.Debug(msg, "starlark-thread", thread.Name)
	})
	v, err := e.exec(thread, text)
	if err != nil {
		return nil, err
	}
	return newResult(logger, v), nil
}
