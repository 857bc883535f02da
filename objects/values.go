package objects

import (
	"fmt"
	"math"

	"github.com/robbyt/go-rbridge/bridge"
)

// Interpreters commonly return length-one vectors where a scalar is expected, so every
// scalar conversion below also accepts a single-element slice.

func unwrapScalar(v any) any {
	switch s := v.(type) {
	case []any:
		if len(s) == 1 {
			return s[0]
		}
	case []string:
		if len(s) == 1 {
			return s[0]
		}
	case []bool:
		if len(s) == 1 {
			return s[0]
		}
	case []float64:
		if len(s) == 1 {
			return s[0]
		}
	case []int64:
		if len(s) == 1 {
			return s[0]
		}
	}
	return v
}

func resultValue(r bridge.Result) any {
	if r == nil {
		return nil
	}
	return r.Interface()
}

func asBool(r bridge.Result) (bool, error) {
	switch v := unwrapScalar(resultValue(r)).(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("%w: want bool, got %T", ErrUnexpectedType, v)
	}
}

func asInt(r bridge.Result) (int, error) {
	switch v := unwrapScalar(resultValue(r)).(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.IsNaN(v) || v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrUnexpectedType, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("%w: want integer, got %T", ErrUnexpectedType, v)
	}
}

// asString reports false when the interpreter returned nothing.
func asString(r bridge.Result) (string, bool, error) {
	switch v := unwrapScalar(resultValue(r)).(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	default:
		return "", false, fmt.Errorf("%w: want string, got %T", ErrUnexpectedType, v)
	}
}

// asStrings returns nil for a null result.
func asStrings(r bridge.Result) ([]string, error) {
	switch v := resultValue(r).(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T, not string", ErrUnexpectedType, i, elem)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: want strings, got %T", ErrUnexpectedType, v)
	}
}

// asFloats returns nil for a null result. Missing elements become NaN.
func asFloats(r bridge.Result) ([]float64, error) {
	toFloat := func(elem any) (float64, bool) {
		switch n := elem.(type) {
		case nil:
			return math.NaN(), true
		case float64:
			return n, true
		case int64:
			return float64(n), true
		case int:
			return float64(n), true
		}
		return 0, false
	}

	switch v := resultValue(r).(type) {
	case nil:
		return nil, nil
	case []float64:
		return v, nil
	case []any:
		out := make([]float64, len(v))
		for i, elem := range v {
			f, ok := toFloat(elem)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T, not a number", ErrUnexpectedType, i, elem)
			}
			out[i] = f
		}
		return out, nil
	default:
		if f, ok := toFloat(v); ok {
			return []float64{f}, nil
		}
		return nil, fmt.Errorf("%w: want numbers, got %T", ErrUnexpectedType, v)
	}
}
