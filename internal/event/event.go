// Package event implements Atlas semantic events: per-object listeners with
// a re-entrancy guard, and a bus that bubbles events through a target's
// parent chain before notifying handlers registered by source and name.
//
// Dispatch is synchronous and depth-first. An event dispatched from inside a
// handler is fully delivered before the outer dispatch continues.
package event

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/beetlebugorg/atlas/internal/apperror"
)

// Source partitions event names between UI input and the host API.
type Source string

const (
	// Intern marks events originating from UI input or from Atlas itself.
	Intern Source = "intern"

	// Extern marks events published by the host application.
	Extern Source = "extern"
)

// Event is a named occurrence delivered to targets and bus handlers.
//
// Names are slash-namespaced, e.g. "entity/select" or "input/left/click".
type Event struct {
	Source Source
	Name   string
	Args   any

	// Target is the object the event originated from. It may be nil for
	// events that only reach bus handlers.
	Target Target

	cancelled bool
}

// New creates an event.
func New(source Source, name string, args any, target Target) *Event {
	return &Event{Source: source, Name: name, Args: args, Target: target}
}

// Cancel stops the event from bubbling to further parents and from reaching
// bus handlers.
func (e *Event) Cancel() {
	e.cancelled = true
}

// Cancelled reports whether Cancel was called.
func (e *Event) Cancelled() bool {
	return e.cancelled
}

func (e *Event) String() string {
	return fmt.Sprintf("%s:%s", e.Source, e.Name)
}

// Target receives events and names the next object in the bubbling chain.
type Target interface {
	HandleEvent(ev *Event) error

	// EventParent returns the next target to bubble to, or nil.
	EventParent() Target
}

// Detachable is implemented by targets that can be removed. Dispatching to a
// removed target does nothing.
type Detachable interface {
	IsRemoved() bool
}

// Decode converts event arguments into T.
//
// Arguments published from Go code usually already have the right type.
// Arguments that arrived as decoded JSON (maps and slices) are converted by
// a JSON round trip.
//
// Example:
//
//	args, err := event.Decode[ShowArgs](ev.Args)
func Decode[T any](args any) (T, error) {
	var out T
	switch v := args.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
		return out, nil
	case nil:
		return out, nil
	}

	data, err := json.Marshal(args)
	if err != nil {
		return out, &apperror.DeveloperError{Op: "decode event args", Reason: "unencodable arguments", Err: err}
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &apperror.DeveloperError{Op: "decode event args", Reason: fmt.Sprintf("want %T", out), Err: err}
	}
	return out, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
