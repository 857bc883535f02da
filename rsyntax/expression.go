package rsyntax

import "strconv"

// NamesExpression returns names(expr).
func NamesExpression(expr string) string {
	return "names(" + expr + ")"
}

// IndexExpression indexes expr with a zero-based index; the interpreter is one-based.
func IndexExpression(expr string, zeroBasedIndex int) string {
	return expr + "[" + strconv.Itoa(zeroBasedIndex+1) + "]"
}

// ColumnIndexExpression selects a zero-based column of a matrix-like expr.
func ColumnIndexExpression(expr string, zeroBasedColumn int) string {
	return expr + "[," + strconv.Itoa(zeroBasedColumn+1) + "]"
}

// RowIndexExpression selects a zero-based row of a matrix-like expr.
func RowIndexExpression(expr string, zeroBasedRow int) string {
	return expr + "[" + strconv.Itoa(zeroBasedRow+1) + ",]"
}
