// Package bridge serializes access to a single-threaded interpreter.
//
// Any goroutine may submit commands and comments. They are queued and handed to the
// interpreter only from inside its own NextInput callback, so interpreter code never runs
// on a caller's goroutine. Commands that need a value are evaluated reentrantly within the
// callback; fire-and-forget commands are returned to the interpreter's read loop so their
// console output is captured, and complete on the following callback.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/robbyt/go-rbridge/command"
)

const commentPrefix = "# "

// flushCommand is a silent no-op used as a barrier.
var flushCommand = command.Silent(command.Plain(`"finished flushing R commands"`))

// Bridge is the only way to reach the interpreter. Create it with Connect or Factory.Connect.
type Bridge struct {
	engine     Engine
	engineArgs []string

	queue     *inputQueue
	pending   atomic.Int64
	listeners *listenerSet
	consumer  *consumer

	mu      sync.Mutex
	started bool
	closed  bool
	failure error

	logHandler slog.Handler
	logger     *slog.Logger
}

func newBridge(engine Engine, opts ...Option) (*Bridge, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}
	cfg.applyDefaults()
	cfg.setupLogger()

	b := &Bridge{
		engine:     engine,
		engineArgs: cfg.engineArgs,
		queue:      newInputQueue(),
		listeners:  newListenerSet(cfg.logger.WithGroup("listeners")),
		logHandler: cfg.logHandler,
		logger:     cfg.logger,
	}
	b.consumer = newConsumer(b)
	return b, nil
}

func (b *Bridge) String() string {
	return "bridge.Bridge"
}

// SubmitFireAndForget queues cmd for the interpreter's read loop and returns immediately.
// Its console output is reported to listeners.
func (b *Bridge) SubmitFireAndForget(cmd command.Command) error {
	return b.enqueue(&input{kind: inputFireAndForget, cmd: cmd})
}

// SubmitForResult queues cmd for reentrant evaluation and returns a Future for its value.
// Evaluation failures arrive through the Future as *EvaluationError.
func (b *Bridge) SubmitForResult(cmd command.Command) (*Future, error) {
	in := &input{kind: inputResult, cmd: cmd, future: newFuture()}
	if err := b.enqueue(in); err != nil {
		return nil, err
	}
	return in.future, nil
}

// Evaluate submits cmd for a result and waits for it.
func (b *Bridge) Evaluate(ctx context.Context, cmd command.Command) (Result, error) {
	f, err := b.SubmitForResult(cmd)
	if err != nil {
		return nil, err
	}
	return f.Get(ctx)
}

// SubmitComment queues a transcript comment, formatted as "# text\n".
func (b *Bridge) SubmitComment(text string) error {
	return b.SubmitCommentRaw(commentPrefix + text + "\n")
}

// SubmitCommentRaw queues a comment exactly as given.
func (b *Bridge) SubmitCommentRaw(text string) error {
	return b.enqueue(&input{kind: inputComment, comment: text})
}

// Flush blocks until every item queued before the call has been processed.
func (b *Bridge) Flush(ctx context.Context) error {
	f, err := b.SubmitForResult(flushCommand)
	if err != nil {
		return err
	}
	_, err = f.Get(ctx)
	if errors.Is(err, ErrEvaluation) {
		// the barrier was reached even if the no-op itself was rejected
		return nil
	}
	return err
}

// HasPendingWork reports whether any item is still queued or executing.
func (b *Bridge) HasPendingWork() bool {
	return b.pending.Load() > 0
}

// PendingCount returns the number of items queued or executing.
func (b *Bridge) PendingCount() int {
	return int(b.pending.Load())
}

// AddListener registers l for Bridge events.
func (b *Bridge) AddListener(l Listener, opts ...ListenerOption) error {
	if l == nil {
		return ErrNilListener
	}
	b.listeners.add(l, opts...)
	return nil
}

// RemoveListener unregisters l. It is safe to call while events are being delivered.
func (b *Bridge) RemoveListener(l Listener) {
	b.listeners.remove(l)
}

// Close refuses new submissions. Items already queued are still processed, after which the
// interpreter is asked to leave its read loop.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.queue.close()
	b.logger.Info("bridge closed", "pending", b.pending.Load())
}

// Err returns the connection failure, if the interpreter could not start or died.
func (b *Bridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failure
}

// enqueue starts the engine on first use, counts the item and makes it visible to the consumer.
func (b *Bridge) enqueue(in *input) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failure != nil {
		return b.failure
	}
	if b.closed {
		return ErrClosed
	}

	if !b.started {
		b.started = true
		b.logger.Info("starting interpreter", "args", b.engineArgs)
		if err := b.engine.Start(b.engineArgs, b.consumer); err != nil {
			b.failure = &ConnectionError{Err: err}
			b.queue.close()
			b.logger.Error("interpreter failed to start", "error", err)
			return b.failure
		}
	}

	b.pending.Add(1)
	if !b.queue.push(in) {
		b.pending.Add(-1)
		return ErrClosed
	}
	return nil
}

// done marks one item as fully processed.
func (b *Bridge) done() {
	b.pending.Add(-1)
}

// fail makes the Bridge unusable and settles everything it still owes.
func (b *Bridge) fail(cause error, outstanding *command.Command) {
	b.mu.Lock()
	if b.failure == nil {
		b.failure = &ConnectionError{Err: cause}
	}
	failure := b.failure
	remaining := b.queue.drain()
	b.mu.Unlock()

	b.logger.Error("interpreter connection lost", "error", cause, "abandoned", len(remaining))

	if outstanding != nil {
		b.listeners.completed(*outstanding, nil, failure)
		b.done()
	}
	for _, in := range remaining {
		if in.future != nil {
			in.future.resolve(nil, failure)
		}
		b.done()
	}
}
