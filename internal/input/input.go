// Package input translates terminal mouse and keyboard events into the
// internal input/* events consumed by selection, editing and popups.
//
// Terminals report key presses but not releases, so every key produces
// keydown, keypress (printable keys only) and keyup in that order.
package input

import (
	"io"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/geo"
)

// Internal event names.
const (
	EventLeftDown     = "input/leftdown"
	EventLeftUp       = "input/leftup"
	EventLeftClick    = "input/left/click"
	EventLeftDblClick = "input/left/dblclick"
	EventMiddleDown   = "input/middledown"
	EventMiddleUp     = "input/middleup"
	EventMiddleClick  = "input/middle/click"
	EventRightDown    = "input/rightdown"
	EventRightUp      = "input/rightup"
	EventRightClick   = "input/right/click"
	EventMouseMove    = "input/mousemove"
	EventWheel        = "input/wheel"
	EventKeyDown      = "input/keydown"
	EventKeyPress     = "input/keypress"
	EventKeyUp        = "input/keyup"
)

// DefaultDoubleClick is the default double click interval.
const DefaultDoubleClick = 400 * time.Millisecond

// PointerArgs is the payload of mouse events.
type PointerArgs struct {
	Position geo.Vertex `json:"position"`
	Previous geo.Vertex `json:"previous"`
	X        int        `json:"x"`
	Y        int        `json:"y"`
	Button   string     `json:"button,omitempty"`
	Delta    int        `json:"delta,omitempty"`
	Shift    bool       `json:"shift,omitempty"`
	Ctrl     bool       `json:"ctrl,omitempty"`
	Alt      bool       `json:"alt,omitempty"`
}

// KeyArgs is the payload of key events. Key is "Escape", "Enter",
// "ArrowUp" and so on, or the typed character.
type KeyArgs struct {
	Key   string `json:"key"`
	Shift bool   `json:"shift,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
}

// Projector converts screen cells to geographic positions.
type Projector interface {
	Unproject(x, y int) geo.Vertex
}

// Options configures a Translator.
type Options struct {
	Logger *log.Logger

	// DoubleClick is the longest gap between two clicks on the same cell
	// that still counts as a double click.
	// Default: 400ms
	DoubleClick time.Duration

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// DefaultOptions returns translator options with defaults.
func DefaultOptions() Options {
	return Options{DoubleClick: DefaultDoubleClick, Now: time.Now}
}

type button struct {
	mask  tcell.ButtonMask
	name  string
	down  string
	up    string
	click string
}

var buttons = []button{
	{tcell.Button1, "left", EventLeftDown, EventLeftUp, EventLeftClick},
	{tcell.Button3, "middle", EventMiddleDown, EventMiddleUp, EventMiddleClick},
	{tcell.Button2, "right", EventRightDown, EventRightUp, EventRightClick},
}

type cell struct{ x, y int }

type pending struct {
	name string
	args PointerArgs
}

// Translator turns tcell events into input events on a bus.
type Translator struct {
	bus    *event.Manager
	proj   Projector
	opts   Options
	logger *log.Logger

	pressed   tcell.ButtonMask
	pressedAt map[tcell.ButtonMask]cell
	last      cell
	seen      bool

	lastClick     time.Time
	lastClickCell cell
}

// NewTranslator creates a translator that dispatches on bus, using proj to
// locate the cursor.
func NewTranslator(bus *event.Manager, proj Projector, opts Options) *Translator {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.DoubleClick <= 0 {
		opts.DoubleClick = DefaultDoubleClick
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Translator{
		bus:       bus,
		proj:      proj,
		opts:      opts,
		logger:    opts.Logger,
		pressedAt: make(map[tcell.ButtonMask]cell),
	}
}

// Handle dispatches the input events for ev. It reports whether ev was a
// mouse or key event. The first handler error stops the remaining events.
func (t *Translator) Handle(ev tcell.Event) (bool, error) {
	switch ev := ev.(type) {
	case *tcell.EventMouse:
		return true, t.mouse(ev)
	case *tcell.EventKey:
		return true, t.key(ev)
	}
	return false, nil
}

func (t *Translator) pointer(c cell, mods tcell.ModMask) PointerArgs {
	prev := c
	if t.seen {
		prev = t.last
	}
	return PointerArgs{
		Position: t.proj.Unproject(c.x, c.y),
		Previous: t.proj.Unproject(prev.x, prev.y),
		X:        c.x,
		Y:        c.y,
		Shift:    mods&tcell.ModShift != 0,
		Ctrl:     mods&tcell.ModCtrl != 0,
		Alt:      mods&tcell.ModAlt != 0,
	}
}

func (t *Translator) mouse(ev *tcell.EventMouse) error {
	x, y := ev.Position()
	c := cell{x, y}
	state := ev.Buttons()
	args := t.pointer(c, ev.Modifiers())

	var dispatch []pending
	add := func(name string, a PointerArgs) {
		dispatch = append(dispatch, pending{name, a})
	}

	if t.seen && c != t.last {
		add(EventMouseMove, args)
	}

	for _, b := range buttons {
		now, before := state&b.mask != 0, t.pressed&b.mask != 0
		a := args
		a.Button = b.name
		switch {
		case now && !before:
			t.pressedAt[b.mask] = c
			add(b.down, a)
		case !now && before:
			add(b.up, a)
			if at, ok := t.pressedAt[b.mask]; ok && at == c {
				add(b.click, a)
				if b.mask == tcell.Button1 && t.isDoubleClick(c) {
					add(EventLeftDblClick, a)
				}
			}
			delete(t.pressedAt, b.mask)
		}
	}

	switch {
	case state&tcell.WheelUp != 0:
		a := args
		a.Delta = 1
		add(EventWheel, a)
	case state&tcell.WheelDown != 0:
		a := args
		a.Delta = -1
		add(EventWheel, a)
	}

	t.pressed = state & (tcell.Button1 | tcell.Button2 | tcell.Button3)
	t.last = c
	t.seen = true

	for _, d := range dispatch {
		if err := t.bus.HandleInternalEvent(d.name, d.args); err != nil {
			return err
		}
	}
	return nil
}

// isDoubleClick records a left click at c and reports whether it completes
// a double click.
func (t *Translator) isDoubleClick(c cell) bool {
	now := t.opts.Now()
	double := !t.lastClick.IsZero() && c == t.lastClickCell && now.Sub(t.lastClick) <= t.opts.DoubleClick
	if double {
		t.lastClick = time.Time{}
		return true
	}
	t.lastClick = now
	t.lastClickCell = c
	return false
}

var keyNames = map[tcell.Key]string{
	tcell.KeyEscape:    "Escape",
	tcell.KeyEnter:     "Enter",
	tcell.KeyTab:       "Tab",
	tcell.KeyBackspace: "Backspace",
	tcell.KeyDelete:    "Delete",
	tcell.KeyUp:        "ArrowUp",
	tcell.KeyDown:      "ArrowDown",
	tcell.KeyLeft:      "ArrowLeft",
	tcell.KeyRight:     "ArrowRight",
	tcell.KeyHome:      "Home",
	tcell.KeyEnd:       "End",
	tcell.KeyPgUp:      "PageUp",
	tcell.KeyPgDn:      "PageDown",
}

// KeyName returns the name used in KeyArgs for ev.
func KeyName(ev *tcell.EventKey) string {
	if ev.Key() == tcell.KeyRune {
		return string(ev.Rune())
	}
	if name, ok := keyNames[ev.Key()]; ok {
		return name
	}
	return ev.Name()
}

func (t *Translator) key(ev *tcell.EventKey) error {
	mods := ev.Modifiers()
	args := KeyArgs{
		Key:   KeyName(ev),
		Shift: mods&tcell.ModShift != 0,
		Ctrl:  mods&tcell.ModCtrl != 0,
		Alt:   mods&tcell.ModAlt != 0,
	}
	names := []string{EventKeyDown}
	if ev.Key() == tcell.KeyRune {
		names = append(names, EventKeyPress)
	}
	names = append(names, EventKeyUp)
	for _, name := range names {
		if err := t.bus.HandleInternalEvent(name, args); err != nil {
			return err
		}
	}
	return nil
}
