package main

import (
	"fmt"
	"log"

	"github.com/beetlebugorg/atlas/pkg/atlas"
	"github.com/beetlebugorg/atlas/pkg/c3ml"
)

func main() {
	a, err := atlas.New(atlas.DefaultOptions())
	if err != nil {
		log.Fatal(err)
	}

	// A recorder stands in for a real backend.
	backend := atlas.NewRecorder()
	if err := a.AttachTo(backend); err != nil {
		log.Fatal(err)
	}

	a.Subscribe("entity/select", func(ev *atlas.Event) error {
		fmt.Printf("selected %v\n", ev.Args)
		return nil
	})

	err = a.Publish("entity/create", c3ml.Descriptor{
		ID:          "lot-12",
		Type:        c3ml.TypePolygon,
		Coordinates: [][]float64{{144.96, -37.81}, {144.97, -37.81}, {144.97, -37.80}, {144.96, -37.80}},
		Height:      30,
		Properties:  map[string]any{"zone": "C1"},
		Show:        true,
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := a.Selection().Select([]string{"lot-12"}, false); err != nil {
		log.Fatal(err)
	}

	for _, id := range backend.IDs() {
		p, _ := backend.Primitive(id)
		fmt.Printf("%-24s %-8s visible=%v vertices=%d\n", id, p.Kind, backend.Visible(id), len(p.Vertices))
	}
}
