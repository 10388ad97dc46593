package event

import (
	"bytes"
	"errors"
	"log"
	"slices"
	"strings"
	"testing"

	"github.com/beetlebugorg/atlas/internal/apperror"
)

// node is a minimal bubbling target.
type node struct {
	Emitter
	name    string
	parent  *node
	removed bool
}

func (n *node) EventParent() Target {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *node) IsRemoved() bool { return n.removed }

func TestDispatchBubblesToParents(t *testing.T) {
	bus := NewManager(nil)
	root := &node{name: "root"}
	mid := &node{name: "mid", parent: root}
	leaf := &node{name: "leaf", parent: mid}

	var order []string
	for _, n := range []*node{root, mid, leaf} {
		n := n
		n.AddEventListener("entity/remove", func(ev *Event) error {
			order = append(order, n.name)
			return nil
		})
	}
	bus.AddEventHandler(Intern, "entity/remove", func(ev *Event) error {
		order = append(order, "bus")
		return nil
	})

	if err := bus.DispatchEvent(New(Intern, "entity/remove", nil, leaf)); err != nil {
		t.Fatalf("DispatchEvent failed: %v", err)
	}

	want := []string{"leaf", "mid", "root", "bus"}
	if !slices.Equal(order, want) {
		t.Errorf("Expected delivery order %v, got %v", want, order)
	}
}

func TestCancelStopsBubbling(t *testing.T) {
	bus := NewManager(nil)
	grandparent := &node{name: "grandparent"}
	collection := &node{name: "collection", parent: grandparent}
	child := &node{name: "child", parent: collection}

	detached := false
	collection.AddEventListener("entity/remove", func(ev *Event) error {
		detached = true
		ev.Cancel()
		return nil
	})
	grandparentSaw := false
	grandparent.AddEventListener("entity/remove", func(ev *Event) error {
		grandparentSaw = true
		return nil
	})
	busSaw := false
	bus.AddEventHandler(Intern, "entity/remove", func(ev *Event) error {
		busSaw = true
		return nil
	})

	if err := bus.DispatchEvent(New(Intern, "entity/remove", nil, child)); err != nil {
		t.Fatalf("DispatchEvent failed: %v", err)
	}
	if !detached {
		t.Error("Expected collection handler to run")
	}
	if grandparentSaw {
		t.Error("Grandparent should not observe a cancelled event")
	}
	if busSaw {
		t.Error("Bus handlers should not observe a cancelled event")
	}
}

func TestSourcesArePartitioned(t *testing.T) {
	bus := NewManager(nil)
	var got []Source
	bus.AddEventHandler(Intern, "entity/select", func(ev *Event) error {
		got = append(got, ev.Source)
		return nil
	})

	if err := bus.HandleExternalEvent("entity/select", nil); err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Intern handler received extern event: %v", got)
	}
	if err := bus.HandleInternalEvent("entity/select", nil); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []Source{Intern}) {
		t.Errorf("Expected one intern delivery, got %v", got)
	}
}

func TestHandlerErrorPropagates(t *testing.T) {
	bus := NewManager(nil)
	boom := errors.New("boom")
	second := false
	bus.AddEventHandler(Extern, "entity/show", func(ev *Event) error { return boom })
	bus.AddEventHandler(Extern, "entity/show", func(ev *Event) error {
		second = true
		return nil
	})

	err := bus.HandleExternalEvent("entity/show", nil)
	if !errors.Is(err, boom) {
		t.Errorf("Expected handler error to propagate, got %v", err)
	}
	if second {
		t.Error("Delivery should stop at the first error")
	}
}

func TestDispatchToRemovedTarget(t *testing.T) {
	bus := NewManager(nil)
	n := &node{name: "gone", removed: true}
	called := false
	n.AddEventListener("entity/select", func(ev *Event) error {
		called = true
		return nil
	})
	bus.AddEventHandler(Intern, "entity/select", func(ev *Event) error {
		called = true
		return nil
	})

	if err := bus.DispatchEvent(New(Intern, "entity/select", nil, n)); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("Dispatch to a removed target should be a no-op")
	}
}

func TestHandleCancel(t *testing.T) {
	bus := NewManager(nil)
	count := 0
	h := bus.AddEventHandler(Extern, "edit/enable", func(ev *Event) error {
		count++
		return nil
	})
	if bus.Subscribers(Extern, "edit/enable") != 1 {
		t.Fatalf("Expected 1 subscriber")
	}

	bus.HandleExternalEvent("edit/enable", nil)
	h.Cancel()
	h.Cancel()
	bus.HandleExternalEvent("edit/enable", nil)

	if count != 1 {
		t.Errorf("Expected 1 delivery, got %d", count)
	}
	if bus.Subscribers(Extern, "edit/enable") != 0 {
		t.Errorf("Expected 0 subscribers after cancel")
	}
}

func TestHandlerCancelledDuringDispatch(t *testing.T) {
	bus := NewManager(nil)
	var second *Handle
	ran := false
	bus.AddEventHandler(Extern, "x", func(ev *Event) error {
		second.Cancel()
		return nil
	})
	second = bus.AddEventHandler(Extern, "x", func(ev *Event) error {
		ran = true
		return nil
	})

	bus.HandleExternalEvent("x", nil)
	if ran {
		t.Error("Handler cancelled mid-dispatch should not run")
	}
}

func TestRecursionGuard(t *testing.T) {
	var buf bytes.Buffer
	bus := NewManager(nil)
	n := &node{name: "self"}
	n.SetLogger(log.New(&buf, "", 0))

	calls := 0
	n.AddEventListener("entity/select", func(ev *Event) error {
		calls++
		// Re-dispatching the same event into the same listener must not recurse.
		return bus.DispatchEvent(New(Intern, "entity/select", nil, n))
	})

	if err := bus.DispatchEvent(New(Intern, "entity/select", nil, n)); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("Expected listener to run once, ran %d times", calls)
	}
	if !strings.Contains(buf.String(), "suppressed recursive") {
		t.Errorf("Expected suppressed recursion to be logged, got %q", buf.String())
	}
}

func TestRemoveEventListener(t *testing.T) {
	var e Emitter
	count := 0
	id := e.AddEventListener("a", func(ev *Event) error {
		count++
		return nil
	})
	if e.ListenerCount("a") != 1 {
		t.Fatal("Expected one listener")
	}
	if !e.RemoveEventListener(id) {
		t.Error("Expected listener to be removed")
	}
	if e.RemoveEventListener(id) {
		t.Error("Second removal should report false")
	}
	e.HandleEvent(New(Intern, "a", nil, nil))
	if count != 0 {
		t.Errorf("Removed listener was called %d times", count)
	}
}

type showArgs struct {
	ID  string   `json:"id"`
	IDs []string `json:"ids"`
}

func TestDecode(t *testing.T) {
	direct, err := Decode[showArgs](showArgs{ID: "a"})
	if err != nil || direct.ID != "a" {
		t.Errorf("Expected direct value, got %+v (%v)", direct, err)
	}

	ptr, err := Decode[showArgs](&showArgs{ID: "b"})
	if err != nil || ptr.ID != "b" {
		t.Errorf("Expected pointer value, got %+v (%v)", ptr, err)
	}

	fromJSON, err := Decode[showArgs](map[string]any{"ids": []any{"x", "y"}})
	if err != nil {
		t.Fatalf("Decode map failed: %v", err)
	}
	if !slices.Equal(fromJSON.IDs, []string{"x", "y"}) {
		t.Errorf("Expected ids [x y], got %v", fromJSON.IDs)
	}

	_, err = Decode[showArgs]("not an object")
	if !errors.Is(err, apperror.ErrDeveloper) {
		t.Errorf("Expected developer error, got %v", err)
	}
}
