package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/robbyt/go-rbridge/bridge"
	"github.com/robbyt/go-rbridge/command"
	"github.com/robbyt/go-rbridge/internal/source"
)

const continuationPrompt = "... "

const helpText = `Usage: rconsole [flags] [--] [interpreter args...]

Lines are queued for the interpreter in order. Lines ending in ':' or '{' open
a block that continues until an empty line.

Console commands:
  :eval <expr>   Evaluate expr and print its value
  :flush         Wait for all queued input
  :pending       Show the number of queued inputs
  :source <loc>  Run a script from a file path or http(s) URL
  :help          Show this help
  :quit          Exit (Ctrl+D also exits)
  # text         Add a comment to the transcript

Flags:
  -env-file, -log-level, -history, -transcript, -feed, -prompt, -engine,
  -max-steps, -timeout, -quiet
`

var errQuit = errors.New("quit")

type console struct {
	bridge *bridge.Bridge
	out    io.Writer
	prompt string

	// read shows a prompt and returns one line. io.EOF ends the session.
	read func(prompt string) (string, error)
	// remember adds a completed input to the history.
	remember func(text string)
}

// repl runs the line editor until :quit, end of input or ctx is done.
func (c *console) repl(ctx context.Context, historyPath string) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	loadHistory(ln, historyPath)
	defer saveHistory(ln, historyPath)

	c.read = ln.Prompt
	c.remember = ln.AppendHistory
	return c.loop(ctx)
}

func (c *console) loop(ctx context.Context) error {
	// starts the interpreter so its banner shows before the first prompt
	if err := c.bridge.Flush(ctx); err != nil {
		return err
	}

	for {
		text, err := c.readInput(ctx)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out)
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return err
		}

		err = c.handle(ctx, text)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) != "" && c.remember != nil {
			c.remember(strings.ReplaceAll(text, "\n", " "))
		}
	}
}

type lineResult struct {
	text string
	err  error
}

// readInput reads one input, following block continuations, without outliving ctx.
func (c *console) readInput(ctx context.Context) (string, error) {
	ch := make(chan lineResult, 1)
	go func() {
		text, err := readBlock(c.read, c.prompt)
		ch <- lineResult{text: text, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.text, r.err
	}
}

// readBlock reads a line and, when it opens a block, every following line up to a blank one.
func readBlock(read func(string) (string, error), prompt string) (string, error) {
	first, err := read(prompt)
	if err != nil {
		return "", err
	}
	if !opensBlock(first) {
		return first, nil
	}

	lines := []string{first}
	for {
		next, err := read(continuationPrompt)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(next) == "" {
			break
		}
		lines = append(lines, next)
	}
	return strings.Join(lines, "\n"), nil
}

// opensBlock reports a Starlark block header or a Risor brace. Console commands never open one.
func opensBlock(line string) bool {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, ":") {
		return false
	}
	return strings.HasSuffix(line, ":") || strings.HasSuffix(line, "{")
}

// handle runs one console input. Only a dead interpreter or a done ctx is an error.
func (c *console) handle(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return nil

	case trimmed == ":quit" || trimmed == ":q":
		return errQuit

	case trimmed == ":help":
		fmt.Fprint(c.out, helpText)
		return nil

	case trimmed == ":pending":
		fmt.Fprintf(c.out, "%d pending\n", c.bridge.PendingCount())
		return nil

	case trimmed == ":flush":
		return c.bridge.Flush(ctx)

	case strings.HasPrefix(trimmed, ":eval"):
		expr := strings.TrimSpace(strings.TrimPrefix(trimmed, ":eval"))
		if expr == "" {
			fmt.Fprintln(c.out, "usage: :eval <expr>")
			return nil
		}
		result, err := c.bridge.Evaluate(ctx, command.Plain(expr))
		if errors.Is(err, bridge.ErrEvaluation) {
			fmt.Fprintf(c.out, "error: %v\n", errors.Unwrap(err))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, result.Inspect())
		return nil

	case strings.HasPrefix(trimmed, ":source"):
		return c.source(ctx, strings.TrimSpace(strings.TrimPrefix(trimmed, ":source")))

	case strings.HasPrefix(trimmed, ":"):
		fmt.Fprintf(c.out, "unknown command %s, type :help for help\n", trimmed)
		return nil

	case strings.HasPrefix(trimmed, "#"):
		if err := c.bridge.SubmitComment(strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))); err != nil {
			return err
		}
		return c.bridge.Flush(ctx)

	default:
		if err := c.bridge.SubmitFireAndForget(command.Plain(text)); err != nil {
			return err
		}
		return c.bridge.Flush(ctx)
	}
}

// source queues a whole script as one input, preceded by a comment naming it. Problems
// fetching the script are reported but do not end the session.
func (c *console) source(ctx context.Context, location string) error {
	if location == "" {
		fmt.Fprintln(c.out, "usage: :source <path or url>")
		return nil
	}
	src, err := source.Infer(location)
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return nil
	}
	script, err := source.Load(ctx, src)
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
		return nil
	}

	comment := fmt.Sprintf("source %s (sha256 %s)", script.URL, script.ShortChecksum())
	if err := c.bridge.SubmitComment(comment); err != nil {
		return err
	}
	if err := c.bridge.SubmitFireAndForget(command.Plain(strings.TrimRight(script.Text, "\n"))); err != nil {
		return err
	}
	return c.bridge.Flush(ctx)
}
