// Package rsyntax converts Go values into interpreter literal text and validates identifiers.
package rsyntax

import (
	"math"
	"strconv"
	"strings"
)

const (
	vectorStart     = "c("
	vectorEnd       = ")"
	vectorSeparator = ", "
	stringQuote     = `"`
	trueLiteral     = "TRUE"
	falseLiteral    = "FALSE"
	infLiteral      = "Inf"
)

// Double renders a float64 literal. Positive infinity becomes Inf.
func Double(v float64) string {
	if math.IsInf(v, 1) {
		return infLiteral
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Int renders an integer literal.
func Int(v int) string {
	return strconv.Itoa(v)
}

// Bool renders TRUE or FALSE.
func Bool(v bool) string {
	if v {
		return trueLiteral
	}
	return falseLiteral
}

// String quotes s, escaping backslashes.
//
// Embedded double quotes are not escaped, so a string containing `"` yields text the
// interpreter cannot parse back to the same value.
func String(s string) string {
	return stringQuote + strings.ReplaceAll(s, `\`, `\\`) + stringQuote
}

// Vector joins already-rendered elements into c(...).
func Vector(elements ...string) string {
	return vectorStart + strings.Join(elements, vectorSeparator) + vectorEnd
}

// DoubleVector renders c(...) of float64 literals.
func DoubleVector(values []float64) string {
	return vectorOf(values, Double)
}

// IntVector renders c(...) of integer literals.
func IntVector(values []int) string {
	return vectorOf(values, Int)
}

// BoolVector renders c(...) of TRUE/FALSE.
func BoolVector(values []bool) string {
	return vectorOf(values, Bool)
}

// StringVector renders c(...) of quoted strings.
func StringVector(values []string) string {
	return vectorOf(values, String)
}

func vectorOf[T any](values []T, render func(T) string) string {
	elements := make([]string, len(values))
	for i, v := range values {
		elements[i] = render(v)
	}
	return Vector(elements...)
}
