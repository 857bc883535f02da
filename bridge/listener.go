package bridge

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robbyt/go-rbridge/command"
)

// Listener observes Bridge activity. Methods are called synchronously on the interpreter
// goroutine, so they should return quickly. Listeners must be comparable (usually pointers)
// to be removable.
type Listener interface {
	// InitiatedCommand is called before a command is handed to the interpreter.
	InitiatedCommand(cmd command.Command)

	// CompletedCommand is called once the interpreter is finished with a command. result is
	// nil for fire-and-forget commands and for failures.
	CompletedCommand(cmd command.Command, result Result, err error)

	// ReceivedOutput delivers console output. active is the command executing at the time,
	// or nil.
	ReceivedOutput(text string, active *command.Command)

	// ReceivedMessage delivers interpreter diagnostics, tagged like ReceivedOutput.
	ReceivedMessage(text string, active *command.Command)

	// ReceivedComment is called when a queued comment reaches the interpreter.
	ReceivedComment(comment string)

	// PendingCountChanged reports the queue size sampled around the consumer's wait.
	PendingCountChanged(count int)
}

// BaseListener implements Listener with no-ops, for embedding.
type BaseListener struct{}

func (BaseListener) InitiatedCommand(command.Command)                {}
func (BaseListener) CompletedCommand(command.Command, Result, error) {}
func (BaseListener) ReceivedOutput(string, *command.Command)         {}
func (BaseListener) ReceivedMessage(string, *command.Command)        {}
func (BaseListener) ReceivedComment(string)                          {}
func (BaseListener) PendingCountChanged(int)                         {}

// ListenerOption configures a listener registration.
type ListenerOption func(*listenerEntry)

// IncludeSilent delivers events for silent commands too. Without it, command, output and
// message events of silent commands are suppressed.
func IncludeSilent() ListenerOption {
	return func(e *listenerEntry) {
		e.includeSilent = true
	}
}

type listenerEntry struct {
	listener      Listener
	includeSilent bool
}

// listenerSet is copy-on-write: mutation replaces the slice, iteration uses a snapshot.
type listenerSet struct {
	mu      sync.Mutex
	entries []listenerEntry
	logger  *slog.Logger
}

func newListenerSet(logger *slog.Logger) *listenerSet {
	return &listenerSet{logger: logger}
}

func (s *listenerSet) add(l Listener, opts ...ListenerOption) {
	entry := listenerEntry{listener: l}
	for _, opt := range opts {
		opt(&entry)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]listenerEntry, len(s.entries), len(s.entries)+1)
	copy(next, s.entries)
	s.entries = append(next, entry)
}

func (s *listenerSet) remove(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]listenerEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.listener != l {
			next = append(next, e)
		}
	}
	s.entries = next
}

func (s *listenerSet) snapshot() []listenerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries
}

// each calls fn for every listener that may see the event. A panicking listener is logged
// and skipped; the remaining listeners and the consumer loop carry on.
func (s *listenerSet) each(event string, visible bool, fn func(Listener)) {
	for _, e := range s.snapshot() {
		if !visible && !e.includeSilent {
			continue
		}
		s.call(event, e.listener, fn)
	}
}

func (s *listenerSet) call(event string, l Listener, fn func(Listener)) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("listener panicked", "event", event, "listener", fmt.Sprintf("%T", l), "panic", r)
		}
	}()
	fn(l)
}

func activeVisible(active *command.Command) bool {
	return active == nil || active.Visible()
}

func (s *listenerSet) initiated(cmd command.Command) {
	s.each("InitiatedCommand", cmd.Visible(), func(l Listener) {
		l.InitiatedCommand(cmd)
	})
}

func (s *listenerSet) completed(cmd command.Command, result Result, err error) {
	s.each("CompletedCommand", cmd.Visible(), func(l Listener) {
		l.CompletedCommand(cmd, result, err)
	})
}

func (s *listenerSet) output(text string, active *command.Command) {
	s.each("ReceivedOutput", activeVisible(active), func(l Listener) {
		l.ReceivedOutput(text, active)
	})
}

func (s *listenerSet) message(text string, active *command.Command) {
	s.each("ReceivedMessage", activeVisible(active), func(l Listener) {
		l.ReceivedMessage(text, active)
	})
}

func (s *listenerSet) comment(text string) {
	s.each("ReceivedComment", true, func(l Listener) {
		l.ReceivedComment(text)
	})
}

func (s *listenerSet) pendingCountChanged(count int) {
	s.each("PendingCountChanged", true, func(l Listener) {
		l.PendingCountChanged(count)
	})
}
