// Package apperror defines the error kinds surfaced by Atlas managers.
//
// Contract violations are reported as *DeveloperError, lookups of unknown
// IDs as *NotFoundError and ID collisions as *DuplicateIDError. Each kind
// matches its sentinel through errors.Is so callers never need to type
// assert.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrDeveloper matches every *DeveloperError.
	ErrDeveloper = errors.New("developer error")

	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID matches every *DuplicateIDError.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrRemoved is returned when a removed object is used again.
	// It also matches ErrDeveloper.
	ErrRemoved = errors.New("use after remove")
)

// DeveloperError indicates host or integration misuse of the API
type DeveloperError struct {
	Op     string
	Reason string
	Err    error
}

func (e *DeveloperError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("developer error in %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("developer error: %s", e.Reason)
}

func (e *DeveloperError) Is(target error) bool {
	return target == ErrDeveloper
}

func (e *DeveloperError) Unwrap() error { return e.Err }

// NotFoundError indicates a lookup by ID that matched nothing
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DuplicateIDError indicates an ID already present in a store
type DuplicateIDError struct {
	Kind string
	ID   string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s with id %q already exists", e.Kind, e.ID)
}

func (e *DuplicateIDError) Is(target error) bool {
	return target == ErrDuplicateID
}

// Developer returns a *DeveloperError for op.
func Developer(op, format string, args ...any) error {
	return &DeveloperError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// Removed returns a developer error wrapping ErrRemoved.
func Removed(op, what string) error {
	return &DeveloperError{Op: op, Reason: what + " has been removed", Err: ErrRemoved}
}

// NotFound returns a *NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// Duplicate returns a *DuplicateIDError.
func Duplicate(kind, id string) error {
	return &DuplicateIDError{Kind: kind, ID: id}
}
