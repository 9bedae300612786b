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


// Package storage defines how index manifests are persisted.
//
// A manifest records what produced a content type's on-disk cache: the source
// fingerprint, counts, embedding model and dimensionality. The index builder
// compares it against the current sources to decide whether cached
// embeddings can be reused.
//
// Constructors in backend packages return the ManifestRepository interface:
//
//	repo, err := badger.NewManifestRepository(backend)
//	repo, err := sqlite.NewManifestRepository(path)
//
// Tests use an in-memory Badger backend:
//
//	repo, backend, err := badger.NewMemoryManifestRepository()
//
// This package also owns the binary formats shared by backends and the
// embedding cache (MarshalManifest, MarshalEmbeddings and their inverses).
//
// # Thread Safety
//
// All repository implementations must be safe for concurrent use.
package storage
