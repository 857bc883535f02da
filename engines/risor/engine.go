// Package risor runs a Risor console behind the bridge's pull protocol.
//
// Each input is parsed, compiled against the names currently defined and run on a fresh
// virtual machine. Globals the input defines are copied back afterwards, so they persist
// across inputs the way they do at an interactive prompt. The console owns one goroutine,
// locked to its OS thread, for its whole life.
//
// Like the Starlark engine, command rendering targets an R-dialect interpreter:
// command.Assign renders "x <- 5", which Risor never runs as an assignment. Submit Risor
// source with command.Plain.
package risor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	risorLib "github.com/risor-io/risor"
	risorCompiler "github.com/risor-io/risor/compiler"
	risorErrors "github.com/risor-io/risor/errz"
	"github.com/risor-io/risor/object"
	risorParser "github.com/risor-io/risor/parser"
	"github.com/risor-io/risor/vm"

	"github.com/robbyt/go-rbridge/bridge"
)

const banner = "Risor console (github.com/risor-io/risor)\n"

var quietArgs = []string{"-q", "--quiet", "--silent"}

// Engine implements bridge.Engine with an in-process Risor interpreter.
type Engine struct {
	prompt  string
	timeout time.Duration

	// state holds the user globals between inputs. Only the console goroutine touches it.
	state    map[string]any
	builtins map[string]bool

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

	builtins := make(map[string]bool)
	for _, name := range risorLib.NewConfig().GlobalNames() {
		builtins[name] = true
	}

	state := make(map[string]any, len(cfg.globals))
	maps.Copy(state, cfg.globals)

	return &Engine{
		prompt:     cfg.prompt,
		timeout:    cfg.timeout,
		state:      state,
		builtins:   builtins,
		done:       make(chan struct{}),
		logHandler: cfg.logHandler,
		logger:     cfg.logger,
	}, nil
}

func (e *Engine) String() string {
	return "risor.Engine"
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

func (e *Engine) safeConsole(cb bridge.Callbacks, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrExec, r)
		}
	}()
	e.console(cb, text)
	return nil
}

// console runs one input the way an interactive prompt does: print output and any non-nil
// value go to the console, errors go to diagnostics.
func (e *Engine) console(cb bridge.Callbacks, text string) {
	obj, err := e.exec(text, func(line string) {
		cb.WriteOutput(line)
	})
	if err != nil {
		cb.ShowMessage("Error: " + err.Error() + "\n")
		return
	}
	if obj != object.Nil {
		cb.WriteOutput(obj.Inspect() + "\n")
	}
}

// exec parses, compiles and runs text against the persistent globals. print calls are
// handed to out one line at a time.
func (e *Engine) exec(text string, out func(string)) (object.Object, error) {
	ctx := context.Background()
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	ast, err := risorParser.Parse(ctx, text)
	if err != nil {
		errMsg := err.Error()
		var friendlyErr risorErrors.FriendlyError
		if errors.As(err, &friendlyErr) {
			errMsg = friendlyErr.FriendlyErrorMessage()
		}
		return nil, fmt.Errorf("%w: %s", ErrParse, errMsg)
	}

	options := make([]risorLib.Option, 0, len(e.state)+1)
	for name, value := range e.state {
		options = append(options, risorLib.WithGlobal(name, value))
	}
	options = append(options, risorLib.WithGlobal("print", printBuiltin(out)))
	cfg := risorLib.NewConfig(options...)

	code, err := risorCompiler.Compile(ast, risorCompiler.WithGlobalNames(cfg.GlobalNames()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}

	machine := vm.New(code, vm.WithGlobals(cfg.Globals()))
	runErr := machine.Run(ctx)
	e.keepGlobals(machine)
	if runErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrExec, runErr)
	}

	obj, ok := machine.TOS()
	if !ok || obj == nil {
		return object.Nil, nil
	}
	if obj.Type() == "error" {
		return nil, fmt.Errorf("%w: %s", ErrExec, obj.Inspect())
	}
	return obj, nil
}

// keepGlobals copies every non-builtin global out of machine into the persistent state.
func (e *Engine) keepGlobals(machine *vm.VirtualMachine) {
	for _, name := range machine.GlobalNames() {
		if e.builtins[name] {
			continue
		}
		obj, err := machine.Get(name)
		if err != nil {
			continue
		}
		e.state[name] = obj
	}
}

// printBuiltin writes its arguments separated by spaces. Strings print without quotes.
func printBuiltin(out func(string)) *object.Builtin {
	return object.NewBuiltin("print", func(ctx context.Context, args ...object.Object) object.Object {
		parts := make([]string, len(args))
		for i, arg := range args {
			if s, ok := arg.(*object.String); ok {
				parts[i] = s.Value()
				continue
			}
			parts[i] = arg.Inspect()
		}
		out(strings.Join(parts, " ") + "\n")
		return object.Nil
	})
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
	logger := ev.engine.logger.WithGroup("Eval")

	obj, err := ev.engine.exec(text, func(line string) {
		logger.Debug(strings.TrimSuffix(line, "\n"))
	})
	if err != nil {
		return nil, err
	}
	return newResult(obj), nil
}
