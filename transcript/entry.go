// Package transcript turns Bridge events into a session transcript.
package transcript

import (
	"fmt"
	"io"
	"sync"
)

// Prompt is written after every visible command completes and after every comment.
const Prompt = "> "

// Kind classifies a transcript entry the way a console would style it.
type Kind string

const (
	KindCommand Kind = "command"
	KindComment Kind = "comment"
	KindOutput  Kind = "output"
	KindMessage Kind = "message"
	KindPrompt  Kind = "prompt"
)

// Entry is one piece of transcript text.
type Entry struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Sink receives entries in transcript order.
type Sink interface {
	Write(e Entry) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(e Entry) error

func (f SinkFunc) Write(e Entry) error {
	return f(e)
}

// WriterSink appends the text of every entry to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Write(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, e.Text); err != nil {
		return fmt.Errorf("writing %s entry: %w", e.Kind, err)
	}
	return nil
}
