package atlas

import (
	"io"
	"log"
	"sync"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/edit"
	"github.com/beetlebugorg/atlas/internal/entity"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/popup"
	"github.com/beetlebugorg/atlas/internal/render"
	"github.com/beetlebugorg/atlas/internal/selection"
	"github.com/beetlebugorg/atlas/internal/visual"
)

// Options configures an Atlas instance.
type Options struct {
	// Logger receives diagnostics from every manager.
	// Default: discard
	Logger *log.Logger

	// DefaultStyle is applied to descriptors without colours.
	// Default: render.DefaultStyle
	DefaultStyle render.Style

	// SelectedStyle is applied to selected entities.
	// Default: render.DefaultSelectedStyle
	SelectedStyle render.Style

	// PickTolerance is the click search radius in decimal degrees.
	// Default: 0.0005
	PickTolerance float64

	// HandleTolerance is the radius in decimal degrees within which an edit
	// handle is grabbed.
	// Default: 0.0005
	HandleTolerance float64
}

// DefaultOptions returns options with defaults.
func DefaultOptions() Options {
	em := entity.DefaultManagerOptions()
	return Options{
		DefaultStyle:    em.DefaultStyle,
		SelectedStyle:   em.SelectedStyle,
		PickTolerance:   em.PickTolerance,
		HandleTolerance: edit.DefaultOptions().HandleTolerance,
	}
}

// Atlas is the host-facing facade. It owns one set of managers sharing an
// event bus and an entity registry.
//
// Atlas is not safe for concurrent use. Work that originates on other
// goroutines goes through Serialize.
type Atlas struct {
	mu     sync.Mutex
	logger *log.Logger

	bus      *event.Manager
	surface  *render.Proxy
	entities *entity.Manager

	selection *selection.Manager
	edit      *edit.Manager
	visual    *visual.Manager
	popups    *popup.Manager

	visible bool
}

// New creates an Atlas with its managers bound to the bus. Nothing is drawn
// until a backend is attached with AttachTo.
//
// Example:
//
//	a, err := atlas.New(atlas.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	a.AttachTo(backend)
//	err = a.Publish("entity/create", c3ml.Descriptor{ID: "lot-1", Type: c3ml.TypePolygon, Coordinates: ring, Show: true})
func New(opts Options) (*Atlas, error) {
	def := DefaultOptions()
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.DefaultStyle == (render.Style{}) {
		opts.DefaultStyle = def.DefaultStyle
	}
	if opts.SelectedStyle == (render.Style{}) {
		opts.SelectedStyle = def.SelectedStyle
	}
	if opts.PickTolerance < 0 || opts.HandleTolerance < 0 {
		return nil, apperror.Developer("New", "tolerances must not be negative")
	}
	if opts.PickTolerance == 0 {
		opts.PickTolerance = def.PickTolerance
	}

	a := &Atlas{
		logger:  opts.Logger,
		bus:     event.NewManager(opts.Logger),
		surface: render.NewProxy(),
		visible: true,
	}
	a.entities = entity.NewManager(a.bus, a.surface, entity.ManagerOptions{
		Logger:        opts.Logger,
		DefaultStyle:  opts.DefaultStyle,
		SelectedStyle: opts.SelectedStyle,
		PickTolerance: opts.PickTolerance,
	})
	a.selection = selection.New(a.entities, selection.Options{Logger: opts.Logger})
	a.edit = edit.NewManager(a.entities, a.selection, edit.Options{
		Logger:          opts.Logger,
		HandleTolerance: opts.HandleTolerance,
	})
	if err := a.edit.AddModule(edit.ModuleTranslation, edit.NewTranslation(a.edit)); err != nil {
		return nil, err
	}
	if err := a.edit.AddModule(edit.ModuleDraw, edit.NewDraw(a.edit)); err != nil {
		return nil, err
	}
	a.visual = visual.NewManager(a.entities, visual.Options{Logger: opts.Logger, Serialize: a.Serialize})
	a.popups = popup.NewManager(a.entities)

	a.entities.BindEvents()
	a.selection.BindEvents()
	a.edit.BindEvents()
	a.visual.BindEvents()
	a.popups.BindEvents()
	return a, nil
}

// AttachTo draws the widget on b. Visible entities and popups are redrawn on
// the new backend.
func (a *Atlas) AttachTo(b render.Backend) error {
	if b == nil {
		return apperror.Developer("AttachTo", "backend is nil")
	}
	a.surface.Attach(b)
	b.SetWidgetVisible(a.visible)
	if err := a.entities.Redraw(); err != nil {
		return err
	}
	a.popups.Redraw()
	return nil
}

// Backend returns the attached backend, or nil.
func (a *Atlas) Backend() render.Backend { return a.surface.Target() }

// Show makes the widget visible.
func (a *Atlas) Show() {
	a.visible = true
	a.surface.SetWidgetVisible(true)
}

// Hide hides the widget. Entities keep their own visibility.
func (a *Atlas) Hide() {
	a.visible = false
	a.surface.SetWidgetVisible(false)
}

// IsVisible reports whether the widget is visible.
func (a *Atlas) IsVisible() bool { return a.visible }

// Publish dispatches an external event. args is either the typed argument
// of the event or any value that encodes to it as JSON.
func (a *Atlas) Publish(name string, args any) error {
	return a.bus.HandleExternalEvent(name, args)
}

// Subscribe registers fn for an internal event. Cancel the returned handle
// to unsubscribe.
func (a *Atlas) Subscribe(name string, fn event.Handler) *event.Handle {
	return a.bus.AddEventHandler(event.Intern, name, fn)
}

// ShowEntity shows an entity by ID.
func (a *Atlas) ShowEntity(id string) error { return a.entities.ShowEntity(id) }

// HideEntity hides an entity by ID.
func (a *Atlas) HideEntity(id string) error { return a.entities.HideEntity(id) }

// Serialize runs fn while holding the instance lock. Goroutines that use
// the Atlas, including dynamic projection playback, go through it.
func (a *Atlas) Serialize(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn()
}

// SetManager replaces one of the replaceable managers. The replacement must
// work on this instance's entity manager. The old manager is unbound and the
// new one bound to the bus.
func (a *Atlas) SetManager(m any) error {
	switch x := m.(type) {
	case *selection.Manager:
		if err := a.owns("selection", x.EntityManager()); err != nil {
			return err
		}
		if err := a.edit.SetSelection(x); err != nil {
			return err
		}
		a.selection.UnbindEvents()
		a.selection = x
		x.BindEvents()
	case *edit.Manager:
		if err := a.owns("edit", x.EntityManager()); err != nil {
			return err
		}
		if err := a.edit.Disable(); err != nil {
			return err
		}
		for _, name := range a.edit.ModuleNames() {
			if err := a.edit.RemoveModule(name); err != nil {
				return err
			}
		}
		a.edit.UnbindEvents()
		a.edit = x
		x.BindEvents()
	case *visual.Manager:
		if err := a.owns("visual", x.EntityManager()); err != nil {
			return err
		}
		if err := a.visual.RemoveAll(); err != nil {
			return err
		}
		a.visual.UnbindEvents()
		a.visual = x
		x.BindEvents()
	case *popup.Manager:
		if err := a.owns("popup", x.EntityManager()); err != nil {
			return err
		}
		a.popups.UnbindEvents()
		a.popups = x
		x.BindEvents()
	case *entity.Manager:
		return apperror.Developer("SetManager", "the entity manager cannot be replaced")
	default:
		return apperror.Developer("SetManager", "unknown manager type %T", m)
	}
	return nil
}

func (a *Atlas) owns(kind string, em *entity.Manager) error {
	if em != a.entities {
		return apperror.Developer("SetManager", "%s manager belongs to another entity manager", kind)
	}
	return nil
}

// Bus returns the event bus.
func (a *Atlas) Bus() *event.Manager { return a.bus }

// Logger returns the logger given in Options.
func (a *Atlas) Logger() *log.Logger { return a.logger }

// Entities returns the entity manager.
func (a *Atlas) Entities() *entity.Manager { return a.entities }

// Selection returns the selection manager.
func (a *Atlas) Selection() *selection.Manager { return a.selection }

// Edit returns the edit manager.
func (a *Atlas) Edit() *edit.Manager { return a.edit }

// Visual returns the visualisation manager.
func (a *Atlas) Visual() *visual.Manager { return a.visual }

// Popups returns the popup manager.
func (a *Atlas) Popups() *popup.Manager { return a.popups }
