// Package c3ml defines the entity descriptor format hosts use to create
// Atlas entities, and loads descriptors from JSON or YAML documents.
//
// A descriptor names its type and carries the per-type fields:
//
//   - id: lot-12
//     type: polygon
//     coordinates: [[144.96, -37.81], [144.97, -37.81], [144.97, -37.80]]
//     color: [51, 153, 204, 255]
//     height: 30
//
// Polygon, line, mesh and image descriptors describe features with a single
// form. Feature descriptors combine several forms; collection descriptors
// group other descriptors by ID through Children.
package c3ml

import "slices"

// Type identifies the kind of entity a descriptor creates.
type Type string

const (
	TypePoint      Type = "point"
	TypeLine       Type = "line"
	TypePolygon    Type = "polygon"
	TypeMesh       Type = "mesh"
	TypeImage      Type = "image"
	TypeFeature    Type = "feature"
	TypeCollection Type = "collection"
)

// Types lists every descriptor type.
var Types = []Type{TypePoint, TypeLine, TypePolygon, TypeMesh, TypeImage, TypeFeature, TypeCollection}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	return slices.Contains(Types, t)
}

// Descriptor describes one entity.
//
// Coordinates are [lon, lat] or [lon, lat, elevation] in WGS-84 decimal
// degrees and metres. Colours are [r, g, b] or [r, g, b, a] with 0-255
// channels.
type Descriptor struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Type Type   `json:"type" yaml:"type"`

	Coordinates [][]float64   `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	Holes       [][][]float64 `json:"holes,omitempty" yaml:"holes,omitempty"`

	// Positions and Triangles describe meshes: Positions is a flat list of
	// lon, lat, elevation triples and Triangles indexes into it.
	Positions []float64 `json:"positions,omitempty" yaml:"positions,omitempty"`
	Triangles []int     `json:"triangles,omitempty" yaml:"triangles,omitempty"`

	Color       []int   `json:"color,omitempty" yaml:"color,omitempty"`
	BorderColor []int   `json:"borderColor,omitempty" yaml:"borderColor,omitempty"`
	Width       float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height      float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Altitude    float64 `json:"altitude,omitempty" yaml:"altitude,omitempty"`

	// Image is the image source for image descriptors.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// Children lists the IDs grouped by a collection.
	Children []string `json:"children,omitempty" yaml:"children,omitempty"`

	// Forms of a feature descriptor.
	Line    *Descriptor `json:"line,omitempty" yaml:"line,omitempty"`
	Polygon *Descriptor `json:"polygon,omitempty" yaml:"polygon,omitempty"`
	Mesh    *Descriptor `json:"mesh,omitempty" yaml:"mesh,omitempty"`
	Img     *Descriptor `json:"img,omitempty" yaml:"img,omitempty"`

	// DisplayMode selects the initial form of a feature.
	DisplayMode string `json:"displayMode,omitempty" yaml:"displayMode,omitempty"`

	// Show renders the entity as soon as it is created.
	Show bool `json:"show,omitempty" yaml:"show,omitempty"`

	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Document is a scene file: a list of descriptors.
type Document struct {
	Entities []Descriptor `json:"entities" yaml:"entities"`
}

// IDs returns the descriptor IDs in order.
func (d Document) IDs() []string {
	ids := make([]string, 0, len(d.Entities))
	for _, e := range d.Entities {
		ids = append(ids, e.ID)
	}
	return ids
}
