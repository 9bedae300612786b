// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Request errors. These are caused by the caller and are never retried.
var (
	// ErrUnknownType indicates a content type tag outside the registered set.
	ErrUnknownType = errors.New("unknown content type")

	// ErrTypeDisabled indicates a registered content type that is not enabled.
	ErrTypeDisabled = errors.New("content type disabled")

	// ErrInvalidParameter indicates a malformed request parameter.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Build and storage errors. A failed build leaves the served index untouched.
var (
	// ErrSourceRead indicates an input source could not be read or converted.
	ErrSourceRead = errors.New("source read failed")

	// ErrEmptyCorpus indicates the sources produced no entries.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrCorruptStore indicates the persisted entry file is missing or malformed.
	ErrCorruptStore = errors.New("corrupt entry store")

	// ErrCacheRead indicates the persisted embedding file is missing or malformed.
	ErrCacheRead = errors.New("embedding cache read failed")

	// ErrAlignment indicates entries and embeddings differ in length.
	ErrAlignment = errors.New("entries and embeddings are misaligned")

	// ErrEmbedding indicates the embedding function failed or returned a
	// vector of unexpected dimensionality.
	ErrEmbedding = errors.New("embedding failed")

	// ErrBuildInProgress indicates a build for the same content type is still
	// running. Callers may retry.
	ErrBuildInProgress = errors.New("build in progress")

	// ErrEmptyContent indicates an entry with empty text.
	ErrEmptyContent = errors.New("content cannot be empty")
)

// IsInputError reports whether err was caused by the request itself.
func IsInputError(err error) bool {
	return errors.Is(err, ErrUnknownType) ||
		errors.Is(err, ErrTypeDisabled) ||
		errors.Is(err, ErrInvalidParameter)
}

// IsRetryable reports whether the caller may retry the same request unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBuildInProgress)
}
