package bridge

// Engine is the external, single-threaded interpreter. It owns the only goroutine that may
// execute interpreter code and drives the Bridge exclusively through Callbacks.
type Engine interface {
	// Start launches the interpreter read loop with the given arguments. It must return
	// without invoking any callback; the loop calls back from the interpreter's own goroutine.
	Start(args []string, cb Callbacks) error
}

// Callbacks is what the interpreter calls while its read loop runs. Every method is
// called from the interpreter goroutine.
type Callbacks interface {
	// NextInput is called whenever the interpreter wants its next line of input. The
	// Evaluator is only valid for the duration of this call. A non-nil error asks the
	// interpreter to leave its read loop.
	NextInput(ev Evaluator, prompt string) (string, error)

	// WriteOutput receives console text produced while executing input from NextInput.
	WriteOutput(text string)

	// ShowMessage receives diagnostic text (warnings and errors).
	ShowMessage(text string)

	// Busy reports the interpreter entering or leaving execution.
	Busy(busy bool)

	// Terminated is called once when the read loop has ended. err is nil after a
	// requested shutdown.
	Terminated(err error)
}

// Evaluator is the interpreter's reentrant evaluation entry point. It may only be used on
// the interpreter goroutine, inside Callbacks.NextInput.
type Evaluator interface {
	Eval(text string) (Result, error)
}

// Result is a structured value returned by the reentrant evaluator.
type Result interface {
	// Inspect returns a printable representation of the value.
	Inspect() string

	// Interface converts the value to a native Go value.
	Interface() any
}
