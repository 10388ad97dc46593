package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			name:     "developer",
			err:      Developer("SetDisplayMode", "invalid display mode %q", "mesh"),
			sentinel: ErrDeveloper,
			message:  `developer error in SetDisplayMode: invalid display mode "mesh"`,
		},
		{
			name:     "not found",
			err:      NotFound("entity", "a"),
			sentinel: ErrNotFound,
			message:  `entity "a" not found`,
		},
		{
			name:     "duplicate",
			err:      Duplicate("entity", "a"),
			sentinel: ErrDuplicateID,
			message:  `entity with id "a" already exists`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("Expected errors.Is(%v, %v) to be true", tt.err, tt.sentinel)
			}
			if tt.err.Error() != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, tt.err.Error())
			}
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("Expected wrapped error to match %v", tt.sentinel)
			}
		})
	}
}

func TestRemovedMatchesDeveloper(t *testing.T) {
	err := Removed("Translate", "handle")
	if !errors.Is(err, ErrRemoved) {
		t.Error("Expected removed error to match ErrRemoved")
	}
	if !errors.Is(err, ErrDeveloper) {
		t.Error("Expected removed error to match ErrDeveloper")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Removed error should not match ErrNotFound")
	}

	var devErr *DeveloperError
	if !errors.As(err, &devErr) {
		t.Fatal("Expected *DeveloperError")
	}
	if devErr.Op != "Translate" {
		t.Errorf("Expected op 'Translate', got '%s'", devErr.Op)
	}
}
