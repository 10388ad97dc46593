package main

import (
	"errors"
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

	pin := c3ml.Descriptor{ID: "pin", Type: c3ml.TypePoint, Coordinates: [][]float64{{151.2, -33.8}}, Show: true}
	if err := a.Publish("entity/create", pin); err != nil {
		log.Fatal(err)
	}

	attempts := []struct {
		name string
		args any
	}{
		{"entity/create", pin},
		{"entity/show", map[string]any{"id": "missing"}},
		{"entity/display-mode", map[string]any{"ids": []string{"pin"}, "displayMode": "sideways"}},
	}

	for _, at := range attempts {
		err := a.Publish(at.name, at.args)

		var dev *atlas.DeveloperError
		switch {
		case err == nil:
			fmt.Printf("%s: ok\n", at.name)
		case errors.Is(err, atlas.ErrDuplicateID):
			fmt.Printf("%s: duplicate: %v\n", at.name, err)
		case errors.Is(err, atlas.ErrNotFound):
			fmt.Printf("%s: not found: %v\n", at.name, err)
		case errors.As(err, &dev):
			fmt.Printf("%s: bad call to %s: %s\n", at.name, dev.Op, dev.Reason)
		default:
			log.Fatalf("%s: %v", at.name, err)
		}
	}
}
