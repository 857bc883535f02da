package starlark

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/robbyt/go-rbridge/engines/starlark/internal"
	"github.com/robbyt/go-rbridge/internal/helpers"
	starlarkLib "go.starlark.net/starlark"
)

// DefaultPrompt is handed to the bridge on every read.
const DefaultPrompt = "> "

// Option configures an Engine.
type Option func(*config) error

type config struct {
	prompt   string
	globals  starlarkLib.StringDict
	maxSteps uint64

	logHandler slog.Handler
	logger     *slog.Logger
}

// WithPrompt sets the console prompt.
func WithPrompt(prompt string) Option {
	return func(c *config) error {
		if strings.TrimSpace(prompt) == "" {
			return fmt.Errorf("prompt cannot be empty")
		}
		c.prompt = prompt
		return nil
	}
}

// WithGlobals predefines global variables. Values are converted from Go types.
func WithGlobals(vars map[string]any) Option {
	return func(c *config) error {
		globals, err := internal.ToGlobals(vars)
		if err != nil {
			return err
		}
		if c.globals == nil {
			c.globals = make(starlarkLib.StringDict, len(globals))
		}
		for k, v := range globals {
			c.globals[k] = v
		}
		return nil
	}
}

// WithMaxExecutionSteps bounds the work of every single input. Zero means unlimited.
func WithMaxExecutionSteps(steps uint64) Option {
	return func(c *config) error {
		c.maxSteps = steps
		return nil
	}
}

// WithLogHandler sets the log handler for the engine.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *config) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.logHandler = handler
		c.logger = nil
		return nil
	}
}

// WithLogger sets a specific logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		c.logHandler = nil
		return nil
	}
}

func (c *config) applyDefaults() {
	if c.logHandler == nil && c.logger == nil {
		c.logHandler = slog.NewTextHandler(os.Stderr, nil)
	}
	if c.prompt == "" {
		c.prompt = DefaultPrompt
	}
}

func (c *config) setupLogger() {
	if c.logger != nil {
		c.logHandler = c.logger.Handler()
		return
	}
	c.logHandler, c.logger = helpers.SetupLogger(c.logHandler, "starlark", "Engine")
}
