package starlark

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-rbridge/bridge"
	"github.com/robbyt/go-rbridge/engines/starlark/internal"
	starlarkLib "go.starlark.net/starlark"
)

// result wraps the value produced by a reentrant evaluation.
type result struct {
	starlarkLib.Value
	logger *slog.Logger
}

var _ bridge.Result = (*result)(nil)

func newResult(logger *slog.Logger, v starlarkLib.Value) *result {
	if v == nil {
		v = starlarkLib.None
	}
	return &result{Value: v, logger: logger}
}

func (r *result) String() string {
	return fmt.Sprintf("Result{Type: %s, Value: %s}", r.Value.Type(), r.Value)
}

// Inspect returns the value as the console would print it.
func (r *result) Inspect() string {
	return r.Value.String()
}

// Interface returns the Go native type for the Starlark value.
func (r *result) Interface() any {
	v, err := internal.ValueToInterface(r.Value)
	if err != nil {
		r.logger.Error("failed to convert Starlark value", "error", err, "type", r.Value.Type())
		return nil
	}
	return v
}
