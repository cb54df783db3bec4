package notify

import (
	"sync"

	"github.com/ytget/youcube/internal/model"
)

// Recorder keeps every event it receives in arrival order
type Recorder struct {
	mu     sync.Mutex
	events []model.ProgressEvent
}

// Send appends the event
func (r *Recorder) Send(event model.ProgressEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []model.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ProgressEvent(nil), r.events...)
}

// Count returns how many events of the given kind were recorded
func (r *Recorder) Count(kind model.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Messages returns the messages of every event of the given kind
func (r *Recorder) Messages(kind model.EventKind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e.Message)
		}
	}
	return out
}
