package types

import "errors"

// Error kinds. Package level sentinels wrap one of these so that callers
// can map them without knowing every package.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)
