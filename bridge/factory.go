package bridge

import "sync/atomic"

// Factory hands out at most one Bridge. Interpreters that forbid a second live instance per
// process should be connected through a single shared Factory.
type Factory struct {
	claimed atomic.Bool
}

// NewFactory creates a Factory that has not handed out a Bridge yet.
func NewFactory() *Factory {
	return &Factory{}
}

var defaultFactory = NewFactory()

// Connect creates the process-wide Bridge. A second call returns ErrAlreadyConnected.
func Connect(engine Engine, opts ...Option) (*Bridge, error) {
	return defaultFactory.Connect(engine, opts...)
}

// Connect creates this factory's Bridge. The engine is not started until the first submission.
func (f *Factory) Connect(engine Engine, opts ...Option) (*Bridge, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if !f.claimed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyConnected
	}

	b, err := newBridge(engine, opts...)
	if err != nil {
		f.claimed.Store(false)
		return nil, err
	}
	return b, nil
}
