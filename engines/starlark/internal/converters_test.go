package internal

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	starlarkLib "go.starlark.net/starlark"
)

func TestValueToInterface(t *testing.T) {
	t.Parallel()

	mustDict := func(pairs ...starlarkLib.Value) *starlarkLib.Dict {
		d := starlarkLib.NewDict(len(pairs) / 2)
		for i := 0; i < len(pairs); i += 2 {
			require.NoError(t, d.SetKey(pairs[i], pairs[i+1]))
		}
		return d
	}
	set := starlarkLib.NewSet(2)
	require.NoError(t, set.Insert(starlarkLib.String("a")))
	require.NoError(t, set.Insert(starlarkLib.String("b")))

	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	tests := []struct {
		name     string
		input    starlarkLib.Value
		expected any
		wantErr  bool
	}{
		{name: "nil value", input: nil, expected: nil},
		{name: "none", input: starlarkLib.None, expected: nil},
		{name: "bool", input: starlarkLib.Bool(true), expected: true},
		{name: "int", input: starlarkLib.MakeInt(42), expected: int64(42)},
		{name: "big int", input: starlarkLib.MakeBigInt(huge), expected: huge},
		{name: "float", input: starlarkLib.Float(3.14), expected: 3.14},
		{name: "string", input: starlarkLib.String("hello"), expected: "hello"},
		{name: "bytes", input: starlarkLib.Bytes("raw"), expected: []byte("raw")},
		{name: "empty list", input: starlarkLib.NewList(nil), expected: []any{}},
		{
			name: "nested list",
			input: starlarkLib.NewList([]starlarkLib.Value{
				starlarkLib.NewList([]starlarkLib.Value{starlarkLib.MakeInt(1), starlarkLib.MakeInt(2)}),
				starlarkLib.String("two"),
			}),
			expected: []any{[]any{int64(1), int64(2)}, "two"},
		},
		{
			name:     "tuple",
			input:    starlarkLib.Tuple{starlarkLib.MakeInt(1), starlarkLib.Bool(false)},
			expected: []any{int64(1), false},
		},
		{name: "set keeps insertion order", input: set, expected: []any{"a", "b"}},
		{name: "empty dict", input: starlarkLib.NewDict(0), expected: map[string]any{}},
		{
			name: "nested dict",
			input: mustDict(
				starlarkLib.String("outer"), mustDict(starlarkLib.String("inner"), starlarkLib.MakeInt(1)),
			),
			expected: map[string]any{"outer": map[string]any{"inner": int64(1)}},
		},
		{
			name:     "non-string keys",
			input:    mustDict(starlarkLib.MakeInt(7), starlarkLib.String("seven")),
			expected: map[string]any{"7": "seven"},
		},
		{name: "function", input: starlarkLib.NewBuiltin("f", nil), wantErr: true},
		{
			name:    "unsupported element",
			input:   starlarkLib.NewList([]starlarkLib.Value{starlarkLib.NewBuiltin("f", nil)}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValueToInterface(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestToValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    any
		expected string
		errMsg   string
	}{
		{name: "nil", input: nil, expected: "None"},
		{name: "bool", input: true, expected: "True"},
		{name: "int", input: 42, expected: "42"},
		{name: "int64", input: int64(42), expected: "42"},
		{name: "float64", input: 3.5, expected: "3.5"},
		{name: "string", input: "hello", expected: `"hello"`},
		{name: "string slice", input: []string{"a", "b"}, expected: `["a", "b"]`},
		{name: "mixed slice", input: []any{42, "hello", true}, expected: `[42, "hello", True]`},
		{name: "map", input: map[string]any{"k": []any{1}}, expected: `{"k": [1]}`},
		{name: "starlark value", input: starlarkLib.MakeInt(9), expected: "9"},
		{name: "unsupported type", input: make(chan int), errMsg: "unsupported type chan int"},
		{name: "invalid nested type", input: []any{make(chan int)}, errMsg: "failed to convert list element"},
		{name: "invalid map value", input: map[string]any{"c": make(chan int)}, errMsg: "failed to convert dict value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ToValue(tt.input)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.String())
		})
	}
}

func TestToGlobals(t *testing.T) {
	t.Parallel()

	globals, err := ToGlobals(map[string]any{"name": "x", "n": 3})
	require.NoError(t, err)
	assert.Equal(t, starlarkLib.String("x"), globals["name"])
	assert.Equal(t, "3", globals["n"].String())

	_, err = ToGlobals(map[string]any{"good": 1, "bad": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to convert global "bad"`)
}

func TestModules(t *testing.T) {
	t.Parallel()

	a := Modules()
	b := Modules()
	for _, name := range []string{"json", "math", "time"} {
		assert.True(t, a.Has(name), name)
	}
	delete(a, "json")
	assert.True(t, b.Has("json"), "each call returns an independent set")
}
