package objects

import "errors"

var (
	ErrUnexpectedType = errors.New("unexpected result type")
	ErrNilEvaluator   = errors.New("evaluator cannot be nil")
)
