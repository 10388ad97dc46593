package event

import (
	"log"
	"slices"

	"github.com/google/uuid"
)

// Listener handles an event delivered to a single object.
type Listener func(ev *Event) error

type listener struct {
	id      string
	name    string
	fn      Listener
	running bool
	removed bool
}

// Emitter gives an object its own named listeners. Embed it to make a type
// an event target; the zero value is ready to use.
//
// While a listener runs, further deliveries of the same event to that
// listener are suppressed and logged. This stops objects that both listen
// for and re-dispatch an event from recursing forever.
type Emitter struct {
	listeners []*listener
	logger    *log.Logger
}

// SetLogger sets the logger used to report suppressed recursion.
func (e *Emitter) SetLogger(logger *log.Logger) {
	e.logger = logger
}

// AddEventListener registers fn for events called name and returns the
// listener ID.
func (e *Emitter) AddEventListener(name string, fn Listener) string {
	id := uuid.NewString()
	e.listeners = append(e.listeners, &listener{id: id, name: name, fn: fn})
	return id
}

// RemoveEventListener unregisters the listener with id. It reports whether
// the listener existed.
func (e *Emitter) RemoveEventListener(id string) bool {
	i := slices.IndexFunc(e.listeners, func(l *listener) bool { return l.id == id })
	if i < 0 {
		return false
	}
	e.listeners[i].removed = true
	e.listeners = slices.Delete(e.listeners, i, i+1)
	return true
}

// RemoveEventListeners unregisters every listener.
func (e *Emitter) RemoveEventListeners() {
	for _, l := range e.listeners {
		l.removed = true
	}
	e.listeners = nil
}

// ListenerCount returns the number of listeners for name.
func (e *Emitter) ListenerCount(name string) int {
	n := 0
	for _, l := range e.listeners {
		if l.name == name {
			n++
		}
	}
	return n
}

// HandleEvent delivers ev to the listeners registered for its name, in
// registration order. The first listener error is returned and stops
// delivery.
func (e *Emitter) HandleEvent(ev *Event) error {
	var matched []*listener
	for _, l := range e.listeners {
		if l.name == ev.Name {
			matched = append(matched, l)
		}
	}

	for _, l := range matched {
		if l.removed {
			continue
		}
		if l.running {
			e.log().Printf("event: suppressed recursive %s into listener %s", ev, l.id)
			continue
		}
		if err := l.call(ev); err != nil {
			return err
		}
	}
	return nil
}

func (l *listener) call(ev *Event) error {
	l.running = true
	defer func() { l.running = false }()
	return l.fn(ev)
}

func (e *Emitter) log() *log.Logger {
	if e.logger == nil {
		return discardLogger()
	}
	return e.logger
}
