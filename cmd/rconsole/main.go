// Command rconsole is an interactive console over a Starlark or Risor interpreter driven
// through a bridge. Everything typed goes through the bridge's queue, so the session
// transcript, the optional transcript file and the optional websocket feed all see the
// same history.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/peterh/liner"
	"golang.org/x/sync/errgroup"

	"github.com/robbyt/go-rbridge/bridge"
	"github.com/robbyt/go-rbridge/engines/risor"
	"github.com/robbyt/go-rbridge/engines/starlark"
	"github.com/robbyt/go-rbridge/internal/config"
	"github.com/robbyt/go-rbridge/transcript"
)

const (
	shutdownTimeout = 5 * time.Second
	feedPath        = "/feed"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if cfg.ShowHelp {
		fmt.Print(helpText)
		return 0
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})
	logger := slog.New(handler).WithGroup("rconsole")

	engine, err := newEngine(cfg, handler)
	if err != nil {
		logger.Error("creating interpreter", "error", err)
		return 1
	}

	b, err := bridge.Connect(engine,
		bridge.WithEngineArgs(engineArgs(cfg.EngineArgs, cfg.Quiet)...),
		bridge.WithLogHandler(handler),
	)
	if err != nil {
		logger.Error("connecting bridge", "error", err)
		return 1
	}

	recorder := transcript.NewRecorder(handler, consoleSink(os.Stdout, os.Stderr))
	if cfg.TranscriptFile != "" {
		f, err := os.OpenFile(cfg.TranscriptFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("opening transcript", "error", err, "path", cfg.TranscriptFile)
			return 1
		}
		defer f.Close()
		recorder.AddSink(transcript.NewWriterSink(f))
	}

	var feed *transcript.Feed
	if cfg.FeedAddr != "" {
		feed = transcript.NewFeed(handler)
		recorder.AddSink(feed)
	}
	if err := b.AddListener(recorder); err != nil {
		logger.Error("registering transcript", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if feed != nil {
		mux := http.NewServeMux()
		mux.Handle(feedPath, feed)
		server := &http.Server{
			Addr:              cfg.FeedAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving transcript feed", "addr", cfg.FeedAddr, "path", feedPath)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("feed server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			feed.Close()
			shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
			defer done()
			return server.Shutdown(shutdownCtx)
		})
	}

	exitCode := 0
	g.Go(func() error {
		defer cancel()
		c := &console{bridge: b, out: os.Stdout, prompt: cfg.Prompt}
		if err := c.repl(gctx, cfg.HistoryFile); err != nil {
			exitCode = 1
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("console stopped", "error", err)
		if exitCode == 0 {
			exitCode = 1
		}
	}

	b.Close()
	select {
	case <-engine.Done():
	case <-time.After(shutdownTimeout):
		logger.Warn("interpreter did not stop in time")
	}
	return exitCode
}

// stoppableEngine is a bridge.Engine that reports when its read loop has stopped.
type stoppableEngine interface {
	bridge.Engine
	Done() <-chan struct{}
}

// newEngine builds the interpreter named by cfg.Engine.
func newEngine(cfg *config.Config, handler slog.Handler) (stoppableEngine, error) {
	switch cfg.Engine {
	case config.EngineRisor:
		return risor.New(
			risor.WithPrompt(cfg.Prompt),
			risor.WithTimeout(cfg.Timeout),
			risor.WithLogHandler(handler),
		)
	default:
		return starlark.New(
			starlark.WithPrompt(cfg.Prompt),
			starlark.WithMaxExecutionSteps(cfg.MaxSteps),
			starlark.WithLogHandler(handler),
		)
	}
}

// engineArgs starts from bridge.DefaultEngineArgs when no interpreter arguments were given.
func engineArgs(args []string, quiet bool) []string {
	out := slices.Clone(args)
	if len(out) == 0 {
		out = slices.Clone(bridge.DefaultEngineArgs)
	}
	if quiet {
		out = append(out, "--quiet")
	}
	return out
}

// consoleSink prints interpreter output to out and diagnostics to diag. Commands and prompts
// are left out because the line editor already shows them.
func consoleSink(out, diag io.Writer) transcript.Sink {
	return transcript.SinkFunc(func(e transcript.Entry) error {
		var err error
		switch e.Kind {
		case transcript.KindOutput:
			_, err = io.WriteString(out, e.Text)
		case transcript.KindMessage:
			_, err = io.WriteString(diag, e.Text)
		}
		return err
	})
}

// loadHistory and saveHistory are best effort; a missing history file is normal.
func loadHistory(ln *liner.State, path string) {
	if path == "" {
		return
	}
	if f, err := os.Open(path); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
}

func saveHistory(ln *liner.State, path string) {
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
}
