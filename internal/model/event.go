package model

import (
	"encoding/json"
	"fmt"
)

// EventKind tags a ProgressEvent
type EventKind string

const (
	EventStatus EventKind = "status"
	EventError  EventKind = "error"
	EventMedia  EventKind = "media"
)

// ProgressEvent is one message on the duplex channel
type ProgressEvent struct {
	Kind    EventKind
	Message string
	Media   *MediaResult
}

// Status creates a status event
func Status(message string) ProgressEvent {
	return ProgressEvent{Kind: EventStatus, Message: message}
}

// Statusf creates a formatted status event
func Statusf(format string, args ...any) ProgressEvent {
	return Status(fmt.Sprintf(format, args...))
}

// Error creates an error event
func Error(message string) ProgressEvent {
	return ProgressEvent{Kind: EventError, Message: message}
}

// Media creates the final media event
func Media(result *MediaResult) ProgressEvent {
	return ProgressEvent{Kind: EventMedia, Media: result}
}

type messageFrame struct {
	Action  EventKind `json:"action"`
	Message string    `json:"message"`
}

type mediaFrame struct {
	Action EventKind `json:"action"`
	*MediaResult
}

// MarshalJSON encodes the event as a discriminated record keyed by "action"
func (e ProgressEvent) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EventStatus, EventError:
		return json.Marshal(messageFrame{Action: e.Kind, Message: e.Message})
	case EventMedia:
		if e.Media == nil {
			return nil, fmt.Errorf("media event without payload")
		}
		return json.Marshal(mediaFrame{Action: e.Kind, MediaResult: e.Media})
	default:
		return nil, fmt.Errorf("unknown event kind: %q", e.Kind)
	}
}
