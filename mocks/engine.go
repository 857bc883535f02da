package mocks

import (
	"github.com/robbyt/go-rbridge/bridge"
	"github.com/stretchr/testify/mock"
)

// Engine is a mock implementation of bridge.Engine. It never calls back, so it suits tests
// of Start handling only.
type Engine struct {
	mock.Mock
}

// Start is a mock implementation of the Start method.
func (m *Engine) Start(args []string, cb bridge.Callbacks) error {
	a := m.Called(args, cb)
	return a.Error(0)
}

// Evaluator is a mock implementation of bridge.Evaluator.
type Evaluator struct {
	mock.Mock
}

// Eval is a mock implementation of the Eval method.
func (m *Evaluator) Eval(text string) (bridge.Result, error) {
	args := m.Called(text)
	result, _ := args.Get(0).(bridge.Result)
	return result, args.Error(1)
}
