// Package render defines the boundary between Atlas entities and a drawing
// surface. Entities describe their geometry and appearance as primitives; a
// Backend turns primitives into pixels, cells or draw calls.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beetlebugorg/atlas/internal/geo"
)

// Colour is an RGBA colour with 8-bit channels.
type Colour struct {
	R, G, B, A uint8
}

// RGB returns an opaque colour.
func RGB(r, g, b uint8) Colour {
	return Colour{R: r, G: g, B: b, A: 255}
}

// ParseColour parses "#rrggbb", "#rrggbbaa" or a comma separated
// "r,g,b[,a]" list.
func ParseColour(s string) (Colour, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) != 6 && len(hex) != 8 {
			return Colour{}, fmt.Errorf("parse colour %q: want 6 or 8 hex digits", s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Colour{}, fmt.Errorf("parse colour %q: %w", s, err)
		}
		if len(hex) == 6 {
			return RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
		}
		return Colour{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Colour{}, fmt.Errorf("parse colour %q: want 3 or 4 components", s)
	}
	var ch [4]uint8
	ch[3] = 255
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return Colour{}, fmt.Errorf("parse colour %q: %w", s, err)
		}
		ch[i] = uint8(v)
	}
	return Colour{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// Lerp interpolates between c and o; t is clamped to [0, 1].
func (c Colour) Lerp(o Colour, t float64) Colour {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
	}
	return Colour{R: mix(c.R, o.R), G: mix(c.G, o.G), B: mix(c.B, o.B), A: mix(c.A, o.A)}
}

func (c Colour) String() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// MarshalText encodes the colour in hex form.
func (c Colour) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts any form understood by ParseColour.
func (c *Colour) UnmarshalText(text []byte) error {
	parsed, err := ParseColour(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Style is the appearance of an entity.
type Style struct {
	FillColour   Colour  `json:"fillColour" yaml:"fillColour"`
	BorderColour Colour  `json:"borderColour" yaml:"borderColour"`
	BorderWidth  float64 `json:"borderWidth,omitempty" yaml:"borderWidth,omitempty"`
}

// Equals reports whether s and o describe the same appearance.
func (s Style) Equals(o Style) bool {
	return s == o
}

// Default styles used when none is configured.
var (
	DefaultStyle = Style{
		FillColour:   RGB(0x33, 0x99, 0xcc),
		BorderColour: RGB(0x11, 0x11, 0x11),
		BorderWidth:  1,
	}
	DefaultSelectedStyle = Style{
		FillColour:   RGB(0xff, 0xcc, 0x00),
		BorderColour: RGB(0xff, 0x66, 0x00),
		BorderWidth:  2,
	}
)

// Kind identifies the geometry of a primitive.
type Kind string

const (
	KindPoint   Kind = "point"
	KindLine    Kind = "line"
	KindPolygon Kind = "polygon"
	KindMesh    Kind = "mesh"
	KindImage   Kind = "image"
	KindHandle  Kind = "handle"
)

// Primitive is the renderer-agnostic description produced when an entity is
// built.
type Primitive struct {
	ID        string
	Kind      Kind
	Vertices  []geo.Vertex
	Holes     [][]geo.Vertex
	Triangles []int // mesh faces as vertex index triples
	Style     Style
	Height    float64 // extrusion height in metres
	Elevation float64 // base elevation in metres
	Extruded  bool
	Image     string // image source for KindImage

	// Revision increases each time the owning entity is rebuilt.
	Revision uint64
}

// Overlay is a text box anchored at a geographic position.
type Overlay struct {
	ID     string
	Anchor geo.Vertex
	Title  string
	Lines  []string
}

// Backend draws primitives and overlays.
//
// Draw replaces any previous primitive with the same ID. Drawing does not
// change visibility; newly drawn primitives stay hidden until SetVisible.
type Backend interface {
	Draw(p Primitive)
	SetVisible(id string, visible bool)
	Erase(id string)
	ShowOverlay(o Overlay)
	RemoveOverlay(id string)
	SetWidgetVisible(visible bool)
}
