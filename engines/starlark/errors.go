package starlark

import "errors"

var (
	ErrAlreadyStarted  = errors.New("starlark engine already started")
	ErrOutsideCallback = errors.New("starlark evaluator used outside of the interpreter callback")
	ErrParse           = errors.New("starlark parse error")
	ErrExec            = errors.New("starlark execution error")
)
