package risor

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/robbyt/go-rbridge/internal/helpers"
)

// DefaultPrompt is handed to the bridge on every read.
const DefaultPrompt = "> "

// Option configures an Engine.
type Option func(*config) error

type config struct {
	prompt  string
	globals map[string]any
	timeout time.Duration

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

// WithGlobals predefines global variables. Risor converts the Go values when a chunk runs.
func WithGlobals(vars map[string]any) Option {
	return func(c *config) error {
		for name := range vars {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("global name cannot be empty")
			}
		}
		if c.globals == nil {
			c.globals = make(map[string]any, len(vars))
		}
		maps.Copy(c.globals, vars)
		return nil
	}
}

// WithTimeout bounds the run time of every single input. Zero means unlimited.
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d < 0 {
			return fmt.Errorf("timeout cannot be negative")
		}
		c.timeout = d
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
	c.logHandler, c.logger = helpers.SetupLogger(c.logHandler, "risor", "Engine")
}
