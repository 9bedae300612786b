package registry

import "errors"

var (
	// ErrSearcherRequired is returned when a Registry is created without a searcher.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrBuilderRequired is returned when an enabled type is registered without a builder.
	ErrBuilderRequired = errors.New("builder required for enabled type")

	// ErrAlreadyRegistered is returned when a content type is registered twice.
	ErrAlreadyRegistered = errors.New("content type already registered")
)

// errAbandoned marks a build cancelled because every caller waiting on it left.
var errAbandoned = errors.New("build abandoned by its callers")
