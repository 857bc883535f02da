// Package config loads the console configuration from flags, the environment and an
// optional .env file. Flags win over the environment, which wins over the .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robbyt/go-rbridge/internal/helpers"
)

const (
	defaultEnvFile = ".env"
	historyName    = ".rconsole_history"
	defaultPrompt  = "> "

	// EngineStarlark and EngineRisor name the interpreters the console can run.
	EngineStarlark = "starlark"
	EngineRisor    = "risor"
)

// Config is the console configuration.
type Config struct {
	LogLevel       slog.Level
	HistoryFile    string
	TranscriptFile string
	FeedAddr       string
	Prompt         string
	Engine         string
	MaxSteps       uint64
	Timeout        time.Duration
	Quiet          bool
	ShowHelp       bool

	// EngineArgs are the positional arguments, handed to the interpreter on start.
	EngineArgs []string
}

// Load parses args (without the program name) against the process environment.
func Load(args []string, output io.Writer) (*Config, error) {
	home, _ := os.UserHomeDir()
	return load(args, output, os.LookupEnv, home)
}

func load(
	args []string,
	output io.Writer,
	lookup func(string) (string, bool),
	home string,
) (*Config, error) {
	flags := flag.NewFlagSet("rconsole", flag.ContinueOnError)
	flags.SetOutput(output)

	var (
		envFile    string
		logLevel   string
		maxStepsIn string
		timeoutIn  string
	)
	cfg := &Config{}
	flags.StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file with defaults")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.HistoryFile, "history", "", "line editor history file")
	flags.StringVar(&cfg.TranscriptFile, "transcript", "", "append the session transcript to this file")
	flags.StringVar(&cfg.FeedAddr, "feed", "", "serve the transcript over websocket on this address")
	flags.StringVar(&cfg.Prompt, "prompt", defaultPrompt, "console prompt")
	flags.StringVar(&cfg.Engine, "engine", EngineStarlark, "interpreter to run (starlark, risor)")
	flags.StringVar(&maxStepsIn, "max-steps", "0", "starlark execution step limit per input, 0 for none")
	flags.StringVar(&timeoutIn, "timeout", "0s", "risor run time limit per input, 0 for none")
	flags.BoolVar(&cfg.Quiet, "quiet", false, "suppress the interpreter banner")
	flags.BoolVar(&cfg.ShowHelp, "help", false, "show help")
	flags.BoolVar(&cfg.ShowHelp, "h", false, "show help (shorthand)")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	cfg.EngineArgs = flags.Args()

	explicit := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})

	dotenv, err := readEnvFile(envFile, explicit["env-file"])
	if err != nil {
		return nil, err
	}
	env := func(key string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(dotenv[key])
	}
	fallback := func(flagName string, target *string, key string) {
		if explicit[flagName] {
			return
		}
		if v := env(key); v != "" {
			*target = v
		}
	}

	fallback("log-level", &logLevel, "LOG_LEVEL")
	fallback("history", &cfg.HistoryFile, "RCONSOLE_HISTORY")
	fallback("transcript", &cfg.TranscriptFile, "RCONSOLE_TRANSCRIPT")
	fallback("feed", &cfg.FeedAddr, "RCONSOLE_FEED_ADDR")
	fallback("prompt", &cfg.Prompt, "RCONSOLE_PROMPT")
	fallback("engine", &cfg.Engine, "RCONSOLE_ENGINE")
	fallback("max-steps", &maxStepsIn, "RCONSOLE_MAX_STEPS")
	fallback("timeout", &timeoutIn, "RCONSOLE_TIMEOUT")
	if !explicit["quiet"] {
		if v := env("RCONSOLE_QUIET"); v != "" {
			quiet, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("invalid RCONSOLE_QUIET %q: %w", v, err)
			}
			cfg.Quiet = quiet
		}
	}

	if cfg.LogLevel, err = helpers.ParseLevel(logLevel); err != nil {
		return nil, err
	}
	if cfg.MaxSteps, err = strconv.ParseUint(maxStepsIn, 10, 64); err != nil {
		return nil, fmt.Errorf("invalid max steps %q: must be a non-negative integer", maxStepsIn)
	}
	if cfg.Timeout, err = time.ParseDuration(timeoutIn); err != nil || cfg.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout %q: must be a non-negative duration", timeoutIn)
	}
	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))
	if cfg.Engine != EngineStarlark && cfg.Engine != EngineRisor {
		return nil, fmt.Errorf("unknown engine %q: want %s or %s", cfg.Engine, EngineStarlark, EngineRisor)
	}
	if strings.TrimSpace(cfg.Prompt) == "" {
		return nil, errors.New("prompt cannot be empty")
	}
	if cfg.HistoryFile == "" && home != "" {
		cfg.HistoryFile = filepath.Join(home, historyName)
	}
	if cfg.FeedAddr != "" && !strings.Contains(cfg.FeedAddr, ":") {
		cfg.FeedAddr = ":" + cfg.FeedAddr
	}
	return cfg, nil
}

// readEnvFile returns the variables of a dotenv file. A missing default file is not an error.
func readEnvFile(path string, required bool) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err == nil {
		return vars, nil
	}
	if !required && errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	return nil, fmt.Errorf("reading env file %s: %w", path, err)
}
