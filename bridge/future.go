package bridge

import (
	"context"
	"sync"
)

// Future is a single-assignment slot for the result of a command submitted with
// SubmitForResult. Only the consumer loop resolves it.
type Future struct {
	done   chan struct{}
	once   sync.Once
	result Result
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve sets the outcome. It reports false if the future was already resolved.
func (f *Future) resolve(result Result, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.result = result
		f.err = err
		close(f.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the future is resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Resolved reports whether a result or error is available.
func (f *Future) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Get waits for the result. Cancelling ctx stops the wait only; the command stays queued
// or keeps running in the interpreter.
func (f *Future) Get(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	default:
	}

	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
