package mocks

import (
	"github.com/robbyt/go-rbridge/bridge"
	"github.com/robbyt/go-rbridge/command"
	"github.com/stretchr/testify/mock"
)

// Listener is a mock implementation of bridge.Listener for testing purposes.
type Listener struct {
	mock.Mock
}

// InitiatedCommand is a mock implementation of the InitiatedCommand method.
func (m *Listener) InitiatedCommand(cmd command.Command) {
	m.Called(cmd)
}

// CompletedCommand is a mock implementation of the CompletedCommand method.
func (m *Listener) CompletedCommand(cmd command.Command, result bridge.Result, err error) {
	m.Called(cmd, result, err)
}

// ReceivedOutput is a mock implementation of the ReceivedOutput method.
func (m *Listener) ReceivedOutput(text string, active *command.Command) {
	m.Called(text, active)
}

// ReceivedMessage is a mock implementation of the ReceivedMessage method.
func (m *Listener) ReceivedMessage(text string, active *command.Command) {
	m.Called(text, active)
}

// ReceivedComment is a mock implementation of the ReceivedComment method.
func (m *Listener) ReceivedComment(comment string) {
	m.Called(comment)
}

// PendingCountChanged is a mock implementation of the PendingCountChanged method.
func (m *Listener) PendingCountChanged(count int) {
	m.Called(count)
}
