package transcript

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/robbyt/go-rbridge/bridge"
	"github.com/robbyt/go-rbridge/command"
	"github.com/robbyt/go-rbridge/internal/helpers"
)

// Recorder is a bridge.Listener that keeps the transcript of visible activity and forwards
// each entry to its sinks. Silent commands never appear, even when the Recorder was
// registered with bridge.IncludeSilent.
type Recorder struct {
	mu      sync.Mutex
	sinks   []Sink
	entries []Entry

	logger *slog.Logger
}

var _ bridge.Listener = (*Recorder)(nil)

// NewRecorder creates a Recorder writing to sinks.
func NewRecorder(handler slog.Handler, sinks ...Sink) *Recorder {
	_, logger := helpers.SetupLogger(handler, "transcript", "Recorder")
	return &Recorder{
		sinks:  sinks,
		logger: logger,
	}
}

func (r *Recorder) String() string {
	return "transcript.Recorder"
}

// AddSink starts forwarding later entries to s.
func (r *Recorder) AddSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Text returns the transcript as plain text.
func (r *Recorder) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sb strings.Builder
	for _, e := range r.entries {
		sb.WriteString(e.Text)
	}
	return sb.String()
}

func (r *Recorder) emit(entries ...Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.entries = append(r.entries, e)
		for _, s := range r.sinks {
			if err := s.Write(e); err != nil {
				r.logger.Warn("transcript sink failed", "error", err, "kind", e.Kind)
			}
		}
	}
}

func visible(active *command.Command) bool {
	return active == nil || active.Visible()
}

func (r *Recorder) InitiatedCommand(cmd command.Command) {
	if !cmd.Visible() {
		return
	}
	r.emit(Entry{Kind: KindCommand, Text: cmd.Render() + "\n"})
}

func (r *Recorder) CompletedCommand(cmd command.Command, _ bridge.Result, _ error) {
	if !cmd.Visible() {
		return
	}
	r.emit(Entry{Kind: KindPrompt, Text: Prompt})
}

func (r *Recorder) ReceivedOutput(text string, active *command.Command) {
	if !visible(active) {
		return
	}
	r.emit(Entry{Kind: KindOutput, Text: text})
}

func (r *Recorder) ReceivedMessage(text string, active *command.Command) {
	if !visible(active) {
		return
	}
	r.emit(Entry{Kind: KindMessage, Text: text})
}

func (r *Recorder) ReceivedComment(comment string) {
	r.emit(
		Entry{Kind: KindComment, Text: comment},
		Entry{Kind: KindPrompt, Text: Prompt},
	)
}

func (r *Recorder) PendingCountChanged(int) {}
