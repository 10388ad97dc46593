package c3ml

import "fmt"

// ErrInvalidCoordinate indicates coordinate out of valid bounds
type ErrInvalidCoordinate struct {
	Lat, Lon float64
}

func (e *ErrInvalidCoordinate) Error() string {
	return fmt.Sprintf("invalid coordinate: lat=%f lon=%f (lat must be ±90, lon must be ±180)",
		e.Lat, e.Lon)
}

// ErrInvalidDescriptor indicates a descriptor that cannot create an entity
type ErrInvalidDescriptor struct {
	ID     string
	Type   Type
	Reason string
}

func (e *ErrInvalidDescriptor) Error() string {
	switch {
	case e.ID != "" && e.Type != "":
		return fmt.Sprintf("invalid %s descriptor %q: %s", e.Type, e.ID, e.Reason)
	case e.ID != "":
		return fmt.Sprintf("invalid descriptor %q: %s", e.ID, e.Reason)
	case e.Type != "":
		return fmt.Sprintf("invalid %s descriptor: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid descriptor: %s", e.Reason)
}
