package bridge

import (
	"errors"
	"fmt"

	"github.com/robbyt/go-rbridge/command"
)

var (
	ErrEvaluation       = errors.New("interpreter evaluation failed")
	ErrConnection       = errors.New("interpreter connection failed")
	ErrAlreadyConnected = errors.New("interpreter connection already exists")
	ErrClosed           = errors.New("bridge is closed")
	ErrNilListener      = errors.New("listener cannot be nil")
	ErrNilEngine        = errors.New("engine cannot be nil")
	ErrEngineExited     = errors.New("interpreter exited unexpectedly")
	ErrEvalPanic        = errors.New("interpreter evaluation panicked")
)

// EvaluationError is delivered through a Future when the interpreter rejects a command.
type EvaluationError struct {
	Command command.Command
	Err     error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s: %q: %v", ErrEvaluation, e.Command.Render(), e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluation
}

// ConnectionError means the interpreter failed to start or died. It is fatal to the Bridge.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %v", ErrConnection, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}
