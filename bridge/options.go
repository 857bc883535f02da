package bridge

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/robbyt/go-rbridge/internal/helpers"
)

// DefaultEngineArgs are passed to Engine.Start unless WithEngineArgs overrides them.
var DefaultEngineArgs = []string{"--save"}

// Option configures a Bridge.
type Option func(*config) error

type config struct {
	engineArgs []string
	logHandler slog.Handler
	logger     *slog.Logger
}

// WithEngineArgs sets the arguments handed to the engine when it is started.
func WithEngineArgs(args ...string) Option {
	return func(c *config) error {
		c.engineArgs = append([]string{}, args...)
		return nil
	}
}

// WithLogHandler sets the slog handler used by the Bridge.
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

// WithLogger sets a specific logger for the Bridge. It takes precedence over a handler set
// earlier.
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
	if c.engineArgs == nil {
		c.engineArgs = slices.Clone(DefaultEngineArgs)
	}
}

func (c *config) setupLogger() {
	if c.logger != nil {
		c.logHandler = c.logger.Handler()
		return
	}
	c.logHandler, c.logger = helpers.SetupLogger(c.logHandler, "bridge", "Bridge")
}
