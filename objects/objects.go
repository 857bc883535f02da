// Package objects inspects values living in the interpreter's global environment.
//
// Every query is issued as a silent result command, so it never shows up in a transcript.
package objects

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/robbyt/go-rbridge/bridge"
	"github.com/robbyt/go-rbridge/command"
	"github.com/robbyt/go-rbridge/rsyntax"
)

const defaultIdentifier = "object"

// Evaluator runs a command and waits for its value. *bridge.Bridge implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, cmd command.Command) (bridge.Result, error)
}

// Object is a handle on an interpreter value, addressed by an accessor expression.
type Object struct {
	Accessor string
}

// String returns the readable form of the last dotted segment of the accessor.
func (o Object) String() string {
	name := o.Accessor
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return rsyntax.ReadableNameFromIdentifier(name)
}

// Owned returns the objects whose accessor starts with this object's accessor and a dot.
func (o Object) Owned(candidates []Object) []Object {
	prefix := o.Accessor + "."
	owned := make([]Object, 0, len(candidates))
	for _, c := range candidates {
		if strings.HasPrefix(c.Accessor, prefix) {
			owned = append(owned, c)
		}
	}
	return owned
}

func evaluate(ctx context.Context, ev Evaluator, cmd command.Command) (bridge.Result, error) {
	if ev == nil {
		return nil, ErrNilEvaluator
	}
	result, err := ev.Evaluate(ctx, command.Silent(cmd))
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", cmd.Render(), err)
	}
	return result, nil
}

func call(name string, args ...string) command.Command {
	params := make([]command.Param, len(args))
	for i, a := range args {
		params[i] = command.Positional(a)
	}
	return command.Invoke(name, params...)
}

// IsTopLevel reports whether accessor names an existing top-level object.
func IsTopLevel(ctx context.Context, ev Evaluator, accessor string) (bool, error) {
	result, err := evaluate(ctx, ev, call("exists", rsyntax.String(accessor)))
	if err != nil {
		return false, err
	}
	return asBool(result)
}

// TopLevelObjects lists every object in the global environment.
func TopLevelObjects(ctx context.Context, ev Evaluator) ([]Object, error) {
	result, err := evaluate(ctx, ev, call("ls"))
	if err != nil {
		return nil, err
	}
	ids, err := asStrings(result)
	if err != nil {
		return nil, err
	}
	objs := make([]Object, len(ids))
	for i, id := range ids {
		objs[i] = Object{Accessor: id}
	}
	return objs, nil
}

// TopLevelObjectsOfType lists the top-level objects inheriting from class.
func TopLevelObjectsOfType(ctx context.Context, ev Evaluator, class string) ([]Object, error) {
	all, err := TopLevelObjects(ctx, ev)
	if err != nil {
		return nil, err
	}
	matching := make([]Object, 0, len(all))
	for _, obj := range all {
		ok, err := Inherits(ctx, ev, obj, class)
		if err != nil {
			return nil, err
		}
		if ok {
			matching = append(matching, obj)
		}
	}
	return matching, nil
}

// Inherits reports whether obj inherits from class.
func Inherits(ctx context.Context, ev Evaluator, obj Object, class string) (bool, error) {
	result, err := evaluate(ctx, ev, call("inherits", obj.Accessor, rsyntax.String(class)))
	if err != nil {
		return false, err
	}
	return asBool(result)
}

// IsNull reports whether obj is null.
func IsNull(ctx context.Context, ev Evaluator, obj Object) (bool, error) {
	result, err := evaluate(ctx, ev, call("is.null", obj.Accessor))
	if err != nil {
		return false, err
	}
	return asBool(result)
}

// Names returns names(obj), or nil when it has none.
func Names(ctx context.Context, ev Evaluator, obj Object) ([]string, error) {
	return stringsOf(ctx, ev, command.Plain(rsyntax.NamesExpression(obj.Accessor)))
}

// ColumnNames returns colnames(obj), or nil when it has none.
func ColumnNames(ctx context.Context, ev Evaluator, obj Object) ([]string, error) {
	return stringsOf(ctx, ev, call("colnames", obj.Accessor))
}

// RowNames returns rownames(obj), or nil when it has none.
func RowNames(ctx context.Context, ev Evaluator, obj Object) ([]string, error) {
	return stringsOf(ctx, ev, call("rownames", obj.Accessor))
}

// NumRows returns nrow(obj).
func NumRows(ctx context.Context, ev Evaluator, obj Object) (int, error) {
	return intOf(ctx, ev, call("nrow", obj.Accessor))
}

// NumColumns returns ncol(obj).
func NumColumns(ctx context.Context, ev Evaluator, obj Object) (int, error) {
	return intOf(ctx, ev, call("ncol", obj.Accessor))
}

// ColumnStrings returns the zero-based column of a matrix or data frame as strings.
func ColumnStrings(ctx context.Context, ev Evaluator, obj Object, column int) ([]string, error) {
	return stringsOf(ctx, ev, command.Plain(rsyntax.ColumnIndexExpression(obj.Accessor, column)))
}

// ColumnDoubles returns the zero-based column as numbers. Missing values are NaN.
func ColumnDoubles(ctx context.Context, ev Evaluator, obj Object, column int) ([]float64, error) {
	result, err := evaluate(ctx, ev, command.Plain(rsyntax.ColumnIndexExpression(obj.Accessor, column)))
	if err != nil {
		return nil, err
	}
	return asFloats(result)
}

// ColumnFactors returns the zero-based factor column as its level labels.
func ColumnFactors(ctx context.Context, ev Evaluator, obj Object, column int) ([]string, error) {
	return stringsOf(ctx, ev, call("as.character", rsyntax.ColumnIndexExpression(obj.Accessor, column)))
}

// RowStrings returns the zero-based row as strings.
func RowStrings(ctx context.Context, ev Evaluator, obj Object, row int) ([]string, error) {
	return stringsOf(ctx, ev, command.Plain(rsyntax.RowIndexExpression(obj.Accessor, row)))
}

// UniqueIdentifier returns start, or start followed by the first counter from 0 up that
// does not name an existing object. A blank start becomes "object".
func UniqueIdentifier(ctx context.Context, ev Evaluator, start string) (string, error) {
	start = strings.TrimSpace(start)
	if start == "" {
		start = defaultIdentifier
	}

	candidate := start
	for i := 0; ; i++ {
		exists, err := IsTopLevel(ctx, ev, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = start + strconv.Itoa(i)
	}
}

func stringsOf(ctx context.Context, ev Evaluator, cmd command.Command) ([]string, error) {
	result, err := evaluate(ctx, ev, cmd)
	if err != nil {
		return nil, err
	}
	return asStrings(result)
}

func intOf(ctx context.Context, ev Evaluator, cmd command.Command) (int, error) {
	result, err := evaluate(ctx, ev, cmd)
	if err != nil {
		return 0, err
	}
	return asInt(result)
}
