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


package storage

import (
	"bytes"
	"fmt"

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/semindex/core"
)

// embeddingsMagic prefixes every embedding file.
var embeddingsMagic = []byte("SIXV")

// EmbeddingsVersion is the current embedding file format version.
const EmbeddingsVersion = 1

// MarshalManifest serializes a Manifest to bytes.
func MarshalManifest(m *core.Manifest) []byte {
	buf := make([]byte, core.ManifestMUS.Size(*m))
	core.ManifestMUS.Marshal(*m, buf)
	return buf
}

// UnmarshalManifest deserializes a Manifest from bytes.
func UnmarshalManifest(data []byte) (*core.Manifest, error) {
	m, _, err := core.ManifestMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return &m, nil
}

// MarshalEmbeddings serializes a vector block with a magic prefix and
// format version.
func MarshalEmbeddings(vectors [][]float32) []byte {
	size := len(embeddingsMagic) + varint.Int.Size(EmbeddingsVersion) + core.VectorsMUS.Size(vectors)
	buf := make([]byte, size)
	n := copy(buf, embeddingsMagic)
	n += varint.Int.Marshal(EmbeddingsVersion, buf[n:])
	core.VectorsMUS.Marshal(vectors, buf[n:])
	return buf
}

// UnmarshalEmbeddings deserializes a vector block written by MarshalEmbeddings.
// Trailing bytes are treated as corruption.
func UnmarshalEmbeddings(data []byte) ([][]float32, error) {
	if !bytes.HasPrefix(data, embeddingsMagic) {
		return nil, fmt.Errorf("%w: bad magic", ErrSerializationFailed)
	}
	n := len(embeddingsMagic)
	version, n1, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedData, err)
	}
	n += n1
	if version != EmbeddingsVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrSerializationFailed, version)
	}
	vectors, n1, err := core.VectorsMUS.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedData, err)
	}
	if n+n1 != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n-n1)
	}
	return vectors, nil
}
