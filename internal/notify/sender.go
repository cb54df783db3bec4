package notify

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ytget/youcube/internal/model"
)

// Sender delivers progress events to the requesting client
type Sender interface {
	Send(event model.ProgressEvent) error
}

// Func adapts a plain function to the Sender interface
type Func func(model.ProgressEvent) error

// Send calls f(event)
func (f Func) Send(event model.ProgressEvent) error {
	return f(event)
}

// Discard drops every event
var Discard Sender = Func(func(model.ProgressEvent) error { return nil })

// JSONLines writes each event as one JSON object per line
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLines creates a sender writing to w
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

// Send encodes the event under a lock so lines from concurrent roles never interleave
func (j *JSONLines) Send(event model.ProgressEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.enc.Encode(event); err != nil {
		return fmt.Errorf("failed to write %s event: %w", event.Kind, err)
	}
	return nil
}

// Multi fans an event out to several senders. Every sender is tried; the
// first error is returned.
func Multi(senders ...Sender) Sender {
	return Func(func(event model.ProgressEvent) error {
		var first error
		for _, s := range senders {
			if err := s.Send(event); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
