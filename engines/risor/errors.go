package risor

import "errors"

var (
	ErrAlreadyStarted  = errors.New("risor engine already started")
	ErrOutsideCallback = errors.New("risor evaluator used outside of the interpreter callback")
	ErrParse           = errors.New("risor parse error")
	ErrCompile         = errors.New("risor compile error")
	ErrExec            = errors.New("risor execution error")
)
