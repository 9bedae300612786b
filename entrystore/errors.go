package entrystore

import "errors"

var (
	// ErrConverterRequired is returned when a Store is created without a converter.
	ErrConverterRequired = errors.New("converter required")
)
