package rsyntax

import (
	"errors"
	"fmt"
)

// ErrSyntax matches every *SyntaxError via errors.Is.
var ErrSyntax = errors.New("interpreter syntax error")

// SyntaxError reports input that cannot be encoded as interpreter text.
type SyntaxError struct {
	Input string
	Msg   string
}

func (e *SyntaxError) Error() string {
	return e.Msg
}

// Is makes errors.Is(err, ErrSyntax) true for any SyntaxError.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

func newSyntaxError(input string, format string, args ...any) *SyntaxError {
	return &SyntaxError{Input: input, Msg: fmt.Sprintf(format, args...)}
}
