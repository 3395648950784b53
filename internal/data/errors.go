package data

import "errors"

// Shared sentinel errors for storage backends.
var (
	ErrEmptyKey = errors.New("key cannot be empty")
)
