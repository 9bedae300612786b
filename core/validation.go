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

import (
	"fmt"
)

// ValidateEntry validates an Entry according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Id must match the content hash of Text
//
// NOT validated:
//   - Source (opaque provenance, may be empty for restored entries)
func ValidateEntry(entry Entry) error {
	if entry.Text == "" {
		return ErrEmptyContent
	}
	if entry.Id != IDFromContent(entry.Text) {
		return fmt.Errorf("entry id %d does not match its content", entry.Id)
	}
	return nil
}

// ValidateEmbeddings checks that embeddings align 1:1 with entries and share
// a single, non-zero dimensionality.
func ValidateEmbeddings(entries []Entry, embeddings [][]float32) error {
	if len(entries) != len(embeddings) {
		return fmt.Errorf("%w: %d entries, %d embeddings", ErrAlignment, len(entries), len(embeddings))
	}
	if len(embeddings) == 0 {
		return nil
	}

	dim := len(embeddings[0])
	if dim == 0 {
		return fmt.Errorf("%w: zero-length vector at position 0", ErrEmbedding)
	}
	for i, v := range embeddings {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrEmbedding, i, len(v), dim)
		}
	}
	return nil
}

// ValidateManifest validates a Manifest before it is persisted.
func ValidateManifest(m *Manifest) error {
	if m == nil {
		return fmt.Errorf("manifest is nil")
	}
	if _, ok := contentTypeTags[m.Type]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownType, m.Type)
	}
	if m.Fingerprint == "" {
		return fmt.Errorf("manifest fingerprint cannot be empty")
	}
	if m.EntryCount < 0 || m.SourceCount < 0 || m.Dimensions < 0 {
		return fmt.Errorf("manifest counts cannot be negative")
	}
	return nil
}
