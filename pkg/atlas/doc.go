// Package atlas is a map widget toolkit: a facade over a pluggable render
// backend that manages geospatial entities, their styling, selection,
// editing and data-driven projections.
//
// # Basic Usage
//
//	a, err := atlas.New(atlas.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.AttachTo(backend); err != nil {
//	    log.Fatal(err)
//	}
//
//	err = a.Publish("entity/create", c3ml.Descriptor{
//	    ID:          "lot-12",
//	    Type:        c3ml.TypePolygon,
//	    Coordinates: [][]float64{{144.96, -37.81}, {144.97, -37.81}, {144.97, -37.80}},
//	    Height:      30,
//	    Show:        true,
//	})
//
// # Events
//
// Hosts drive the widget with external events and observe it through
// internal events. Arguments are the typed argument structs of each manager
// package, or any value with the same JSON shape:
//
//	a.Publish("entity/display-mode", map[string]any{
//	    "ids":         []string{"lot-12"},
//	    "displayMode": "footprint",
//	})
//
//	a.Subscribe("entity/select", func(ev *atlas.Event) error {
//	    fmt.Println("selected", ev.Args)
//	    return nil
//	})
//
// Events raised on an entity bubble to its parent collection or feature
// until a handler cancels them.
//
// # Editing
//
// edit/enable starts a session on the given entities, or on the selection.
// Each vertex gets a handle; dragging a handle moves the vertex and dragging
// the entity translates it. entity/draw starts drawing a new polygon or line
// with clicks, finished by a double click.
//
//	a.Publish("edit/enable", map[string]any{"ids": []string{"lot-12"}})
//	a.Publish("edit/disable", nil)
//
// # Projections
//
// A projection maps a value per entity onto an artifact, the fill colour or
// the extrusion height:
//
//	a.Publish("projection/add", map[string]any{
//	    "id":       "population",
//	    "artifact": "colour",
//	    "values":   map[string]float64{"lot-12": 120, "lot-13": 80},
//	    "render":   true,
//	})
//
// Dynamic projections play a sequence of value frames on a ticker.
//
// # Concurrency
//
// An Atlas is not safe for concurrent use. Goroutines that drive it, such
// as an HTTP handler or a terminal event loop, run their work through
// Serialize. Dynamic projection playback already does.
//
// # Errors
//
// Contract violations match ErrDeveloper, lookups of unknown IDs supplied by
// the host match ErrNotFound, and ID collisions match ErrDuplicateID.
// Internal bookkeeping skips stale IDs and logs them instead of failing.
package atlas
