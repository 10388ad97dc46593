package atlas

import "github.com/beetlebugorg/atlas/internal/apperror"

// Error kinds returned by Atlas operations. Match them with errors.Is.
var (
	ErrDeveloper   = apperror.ErrDeveloper
	ErrNotFound    = apperror.ErrNotFound
	ErrDuplicateID = apperror.ErrDuplicateID
	ErrRemoved     = apperror.ErrRemoved
)

// Error types, for callers that need the details with errors.As.
type (
	DeveloperError   = apperror.DeveloperError
	NotFoundError    = apperror.NotFoundError
	DuplicateIDError = apperror.DuplicateIDError
)
