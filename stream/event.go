// Package stream turns incrementally delivered diagram text into line-safe
// document prefixes and a final document.
package stream

import (
	"errors"
	"fmt"
)

// EventType discriminates the units of a generation stream.
type EventType string

const (
	EventContent EventType = "content"
	EventDone    EventType = "done"
	EventError   EventType = "error"
)

// Event is one unit of a generation stream. Content carries a text delta,
// Done carries the full final text and Error carries a message.
type Event struct {
	Type  EventType `json:"type"`
	Text  string    `json:"text,omitempty"`
	Error string    `json:"error,omitempty"`
}

// Content returns a content event.
func Content(delta string) Event {
	return Event{Type: EventContent, Text: delta}
}

// Done returns a terminal event carrying the final text.
func Done(final string) Event {
	return Event{Type: EventDone, Text: final}
}

// Failure returns a terminal error event.
func Failure(msg string) Event {
	return Event{Type: EventError, Error: msg}
}

// ErrIncomplete is returned when a source ends before a done event.
var ErrIncomplete = errors.New("stream ended before completion")

// RemoteError is a failure reported by the generation backend.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("generation failed: %s", e.Message)
}
