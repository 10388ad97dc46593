package event

import (
	"log"
	"slices"
)

// Handler handles an event delivered through the bus.
type Handler func(ev *Event) error

type key struct {
	source Source
	name   string
}

// Handle is a registration returned by Manager.AddEventHandler.
type Handle struct {
	m         *Manager
	key       key
	fn        Handler
	cancelled bool
}

// Cancel unregisters the handler. Calling Cancel more than once is safe.
func (h *Handle) Cancel() {
	if h == nil || h.cancelled {
		return
	}
	h.cancelled = true
	hs := h.m.handlers[h.key]
	if i := slices.Index(hs, h); i >= 0 {
		h.m.handlers[h.key] = slices.Delete(hs, i, i+1)
	}
}

// Cancelled reports whether the handler was unregistered.
func (h *Handle) Cancelled() bool {
	return h.cancelled
}

// Manager is the event bus shared by all managers of one Atlas instance.
//
// Handlers are partitioned by Source so that host events and UI events with
// the same name never reach each other's handlers.
type Manager struct {
	handlers map[key][]*Handle
	logger   *log.Logger
}

// NewManager creates an event bus. A nil logger discards output.
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = discardLogger()
	}
	return &Manager{
		handlers: make(map[key][]*Handle),
		logger:   logger,
	}
}

// Logger returns the bus logger.
func (m *Manager) Logger() *log.Logger {
	return m.logger
}

// AddEventHandler registers fn for events with the given source and name.
//
// Example:
//
//	h := bus.AddEventHandler(event.Intern, "entity/select", func(ev *event.Event) error {
//	    fmt.Println("selected", ev.Args)
//	    return nil
//	})
//	defer h.Cancel()
func (m *Manager) AddEventHandler(source Source, name string, fn Handler) *Handle {
	h := &Handle{m: m, key: key{source, name}, fn: fn}
	m.handlers[h.key] = append(m.handlers[h.key], h)
	return h
}

// Subscribers returns the number of handlers registered for source and name.
func (m *Manager) Subscribers(source Source, name string) int {
	return len(m.handlers[key{source, name}])
}

// DispatchEvent delivers ev to its target, then bubbles it through the
// target's parents, then hands it to the bus handlers for its source and
// name. Cancelling the event at any point stops the remaining steps.
//
// Dispatching to a removed target does nothing. Handler errors are returned
// to the caller as is.
func (m *Manager) DispatchEvent(ev *Event) error {
	if ev.Target != nil {
		if d, ok := ev.Target.(Detachable); ok && d.IsRemoved() {
			return nil
		}
		for t := ev.Target; t != nil && !ev.Cancelled(); t = t.EventParent() {
			if err := t.HandleEvent(ev); err != nil {
				return err
			}
		}
	}
	if ev.Cancelled() {
		return nil
	}

	for _, h := range slices.Clone(m.handlers[key{ev.Source, ev.Name}]) {
		if h.cancelled {
			continue
		}
		if err := h.fn(ev); err != nil {
			return err
		}
		if ev.Cancelled() {
			break
		}
	}
	return nil
}

// HandleExternalEvent dispatches a host event with no target.
func (m *Manager) HandleExternalEvent(name string, args any) error {
	return m.DispatchEvent(New(Extern, name, args, nil))
}

// HandleInternalEvent dispatches a UI event with no target.
func (m *Manager) HandleInternalEvent(name string, args any) error {
	return m.DispatchEvent(New(Intern, name, args, nil))
}
