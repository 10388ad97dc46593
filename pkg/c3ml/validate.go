package c3ml

import (
	"errors"
	"fmt"
	"slices"
)

// DisplayModes lists the display modes a feature descriptor may request.
var DisplayModes = []string{"line", "footprint", "extrusion", "mesh", "image"}

// ValidateCoordinate validates a single coordinate pair
// Coordinates must be within valid geographic bounds
func ValidateCoordinate(lat, lon float64) error {
	if lat < -90.0 || lat > 90.0 {
		return &ErrInvalidCoordinate{Lat: lat, Lon: lon}
	}
	if lon < -180.0 || lon > 180.0 {
		return &ErrInvalidCoordinate{Lat: lat, Lon: lon}
	}
	return nil
}

// ValidateColour validates an [r, g, b] or [r, g, b, a] colour.
func ValidateColour(c []int) error {
	if len(c) == 0 {
		return nil
	}
	if len(c) != 3 && len(c) != 4 {
		return fmt.Errorf("colour must have 3 or 4 components, got %d", len(c))
	}
	for i, v := range c {
		if v < 0 || v > 255 {
			return fmt.Errorf("colour component %d out of range: %d", i, v)
		}
	}
	return nil
}

func validateCoordinates(coords [][]float64) error {
	// Coordinates are 2D or 3D: [lon, lat] or [lon, lat, elevation]
	for i, coord := range coords {
		if len(coord) < 2 || len(coord) > 3 {
			return fmt.Errorf("coordinate %d must have 2 or 3 values [lon, lat] or [lon, lat, elevation], got %d", i, len(coord))
		}
		lon, lat := coord[0], coord[1]
		if err := ValidateCoordinate(lat, lon); err != nil {
			return fmt.Errorf("coordinate %d invalid: %w", i, err)
		}
	}
	return nil
}

// Validate checks that d can create an entity of its type.
//
// Example:
//
//	if err := c3ml.Validate(d); err != nil {
//	    log.Printf("skipping descriptor: %v", err)
//	}
func Validate(d Descriptor) error {
	invalid := func(format string, args ...any) error {
		return &ErrInvalidDescriptor{ID: d.ID, Type: d.Type, Reason: fmt.Sprintf(format, args...)}
	}

	if !d.Type.Valid() {
		return invalid("unknown type %q", d.Type)
	}
	if err := validateCoordinates(d.Coordinates); err != nil {
		return invalid("%v", err)
	}
	for i, hole := range d.Holes {
		if len(hole) < 3 {
			return invalid("hole %d needs at least 3 coordinates, got %d", i, len(hole))
		}
		if err := validateCoordinates(hole); err != nil {
			return invalid("hole %d: %v", i, err)
		}
	}
	if err := ValidateColour(d.Color); err != nil {
		return invalid("color: %v", err)
	}
	if err := ValidateColour(d.BorderColor); err != nil {
		return invalid("borderColor: %v", err)
	}
	if d.Height < 0 {
		return invalid("height must not be negative, got %g", d.Height)
	}

	switch d.Type {
	case TypePoint:
		if len(d.Coordinates) != 1 {
			return invalid("point needs exactly 1 coordinate, got %d", len(d.Coordinates))
		}

	case TypeLine:
		if len(d.Coordinates) < 2 {
			return invalid("line needs at least 2 coordinates, got %d", len(d.Coordinates))
		}

	case TypePolygon:
		if len(d.Coordinates) < 3 {
			return invalid("polygon needs at least 3 coordinates, got %d", len(d.Coordinates))
		}

	case TypeMesh:
		if err := validateMesh(d); err != nil {
			return invalid("%v", err)
		}

	case TypeImage:
		if d.Image == "" {
			return invalid("image source is required")
		}
		if len(d.Coordinates) != 2 && len(d.Coordinates) != 4 {
			return invalid("image needs 2 corner or 4 vertex coordinates, got %d", len(d.Coordinates))
		}

	case TypeFeature:
		if err := validateFeature(d); err != nil {
			return invalid("%v", err)
		}

	case TypeCollection:
		for i, child := range d.Children {
			if child == "" {
				return invalid("child %d has an empty id", i)
			}
			if d.ID != "" && child == d.ID {
				return invalid("collection cannot contain itself")
			}
		}
	}

	if d.DisplayMode != "" && d.Type != TypeFeature && !slices.Contains(DisplayModes, d.DisplayMode) {
		return invalid("unknown display mode %q", d.DisplayMode)
	}
	return nil
}

func validateMesh(d Descriptor) error {
	if len(d.Positions)%3 != 0 {
		return fmt.Errorf("positions must be lon, lat, elevation triples, got %d values", len(d.Positions))
	}
	n := len(d.Positions) / 3
	if n < 3 {
		return fmt.Errorf("mesh needs at least 3 positions, got %d", n)
	}
	for i := 0; i < n; i++ {
		if err := ValidateCoordinate(d.Positions[3*i+1], d.Positions[3*i]); err != nil {
			return fmt.Errorf("position %d invalid: %w", i, err)
		}
	}
	if len(d.Triangles)%3 != 0 {
		return fmt.Errorf("triangles must be index triples, got %d values", len(d.Triangles))
	}
	for _, idx := range d.Triangles {
		if idx < 0 || idx >= n {
			return fmt.Errorf("triangle index %d out of range [0, %d)", idx, n)
		}
	}
	return nil
}

func validateFeature(d Descriptor) error {
	forms := map[string]*Descriptor{
		"line":      d.Line,
		"footprint": d.Polygon,
		"mesh":      d.Mesh,
		"image":     d.Img,
	}
	want := map[string]Type{"line": TypeLine, "footprint": TypePolygon, "mesh": TypeMesh, "image": TypeImage}

	count := 0
	for _, mode := range []string{"line", "footprint", "mesh", "image"} {
		form := forms[mode]
		if form == nil {
			continue
		}
		count++
		f := *form
		if f.Type == "" {
			f.Type = want[mode]
		}
		if f.Type != want[mode] {
			return fmt.Errorf("%s form must have type %s, got %s", mode, want[mode], f.Type)
		}
		if err := Validate(f); err != nil {
			return fmt.Errorf("%s form: %w", mode, err)
		}
	}
	if count == 0 {
		return errors.New("feature needs at least one form")
	}

	if d.DisplayMode != "" {
		if !slices.Contains(DisplayModes, d.DisplayMode) {
			return fmt.Errorf("unknown display mode %q", d.DisplayMode)
		}
		slot := d.DisplayMode
		if slot == "extrusion" {
			slot = "footprint"
		}
		if forms[slot] == nil {
			return fmt.Errorf("display mode %q has no form", d.DisplayMode)
		}
	}
	return nil
}

// ValidateDocument validates every descriptor in doc and checks that IDs are
// unique and collection children refer to descriptors in the document.
// All problems found are joined into the returned error.
func ValidateDocument(doc Document) error {
	var errs []error
	seen := make(map[string]bool, len(doc.Entities))
	for i, d := range doc.Entities {
		if err := Validate(d); err != nil {
			errs = append(errs, fmt.Errorf("entity %d: %w", i, err))
		}
		if d.ID == "" {
			continue
		}
		if seen[d.ID] {
			errs = append(errs, fmt.Errorf("entity %d: duplicate id %q", i, d.ID))
		}
		seen[d.ID] = true
	}
	for _, d := range doc.Entities {
		for _, child := range d.Children {
			if child != "" && !seen[child] {
				errs = append(errs, fmt.Errorf("collection %q: unknown child %q", d.ID, child))
			}
		}
	}
	return errors.Join(errs...)
}
