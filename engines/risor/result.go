package risor

import (
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/robbyt/go-rbridge/bridge"
)

// result wraps the object produced by a reentrant evaluation.
type result struct {
	object.Object
}

var _ bridge.Result = (*result)(nil)

func newResult(obj object.Object) *result {
	if obj == nil {
		obj = object.Nil
	}
	return &result{Object: obj}
}

func (r *result) String() string {
	return fmt.Sprintf("Result{Type: %s, Value: %s}", r.Object.Type(), r.Object.Inspect())
}
