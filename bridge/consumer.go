package bridge

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/robbyt/go-rbridge/command"
)

// consumer implements Callbacks. All of its methods run on the interpreter goroutine.
type consumer struct {
	b      *Bridge
	logger *slog.Logger

	// outstanding is the fire-and-forget command handed to the read loop by the previous
	// NextInput call. It completes when NextInput is called again.
	outstanding atomic.Pointer[command.Command]
}

var _ Callbacks = (*consumer)(nil)

func newConsumer(b *Bridge) *consumer {
	return &consumer{
		b:      b,
		logger: slog.New(b.logHandler.WithGroup("consumer")),
	}
}

// NextInput processes queued items until one must go through the interpreter's read loop.
func (c *consumer) NextInput(ev Evaluator, prompt string) (string, error) {
	b := c.b

	if cmd := c.outstanding.Swap(nil); cmd != nil {
		b.listeners.completed(*cmd, nil, nil)
		b.done()
	}

	for {
		b.listeners.pendingCountChanged(b.queue.len())
		in, ok := b.queue.take()
		if !ok {
			c.logger.Debug("queue closed, leaving read loop")
			return "", ErrClosed
		}
		b.listeners.pendingCountChanged(b.queue.len() + 1)

		switch in.kind {
		case inputComment:
			c.logger.Debug("comment", "text", in.comment)
			b.listeners.comment(in.comment)
			b.done()

		case inputResult:
			c.evaluate(ev, in)

		case inputFireAndForget:
			cmd := in.cmd
			c.logger.Debug("command for read loop", "command", cmd, "prompt", prompt)
			b.listeners.initiated(cmd)
			c.outstanding.Store(&cmd)
			return cmd.Render() + "\n", nil
		}
	}
}

// evaluate runs a result command reentrantly and settles its future.
func (c *consumer) evaluate(ev Evaluator, in *input) {
	b := c.b
	cmd := in.cmd
	c.logger.Debug("command requires result", "command", cmd)

	b.listeners.initiated(cmd)
	result, err := c.safeEval(ev, cmd.Render()+"\n")
	if err != nil {
		result = nil
		err = &EvaluationError{Command: cmd, Err: err}
		c.logger.Debug("evaluation failed", "command", cmd, "error", err)
	}
	in.future.resolve(result, err)
	b.listeners.completed(cmd, result, err)
	b.done()
}

func (c *consumer) safeEval(ev Evaluator, text string) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("evaluator panicked", "panic", r)
			result = nil
			err = fmt.Errorf("%w: %v", ErrEvalPanic, r)
		}
	}()
	return ev.Eval(text)
}

func (c *consumer) WriteOutput(text string) {
	c.logger.Debug("output", "text", text)
	c.b.listeners.output(text, c.outstanding.Load())
}

func (c *consumer) ShowMessage(text string) {
	c.logger.Warn("interpreter message", "message", text)
	c.b.listeners.message(text, c.outstanding.Load())
}

func (c *consumer) Busy(busy bool) {
	c.logger.Debug("busy state changed", "busy", busy)
}

func (c *consumer) Terminated(err error) {
	b := c.b
	b.mu.Lock()
	closed, failed := b.closed, b.failure != nil
	b.mu.Unlock()

	if failed {
		return
	}
	if closed && (err == nil || errors.Is(err, ErrClosed)) {
		c.logger.Info("interpreter read loop ended")
		return
	}
	if err == nil {
		err = ErrEngineExited
	}
	b.fail(err, c.outstanding.Swap(nil))
}
