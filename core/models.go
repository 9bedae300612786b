package core

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// EntriesDigest hashes entry IDs in order. Two entry lists share a digest
// only when they hold the same entries in the same positions.
func EntriesDigest(entries []Entry) string {
	h, _ := blake2b.New(16, nil)
	var buf [8]byte
	for _, e := range entries {
		binary.LittleEndian.PutUint64(buf[:], uint64(e.Id))
		h.Write(buf[:])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// VectorsDigest hashes the bit patterns of vectors in row order.
func VectorsDigest(vectors [][]float32) string {
	h, _ := blake2b.New(16, nil)
	var buf [4]byte
	for _, v := range vectors {
		binary.LittleEndian.PutUint32(buf[:], uint32(len(v)))
		h.Write(buf[:])
		for _, f := range v {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
			h.Write(buf[:])
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ContentType identifies one of the independently indexed content domains.
type ContentType int

const (
	// ContentTypeNotes covers org-mode and markdown notes.
	ContentTypeNotes ContentType = iota + 1
	// ContentTypeLedger covers plain-text accounting journals.
	ContentTypeLedger
	// ContentTypeMusic covers music library metadata.
	ContentTypeMusic
	// ContentTypeImage covers image collections.
	ContentTypeImage
)

var contentTypeTags = map[ContentType]string{
	ContentTypeNotes:  "notes",
	ContentTypeLedger: "ledger",
	ContentTypeMusic:  "music",
	ContentTypeImage:  "image",
}

// AllContentTypes returns every registered content type in declaration order.
func AllContentTypes() []ContentType {
	return []ContentType{ContentTypeNotes, ContentTypeLedger, ContentTypeMusic, ContentTypeImage}
}

// ParseContentType maps a tag such as "notes" to its ContentType.
// Returns ErrUnknownType for tags outside the registered set.
func ParseContentType(tag string) (ContentType, error) {
	for t, name := range contentTypeTags {
		if name == tag {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, tag)
}

// String returns the tag used for the content type in requests and file names.
func (t ContentType) String() string {
	if name, ok := contentTypeTags[t]; ok {
		return name
	}
	return fmt.Sprintf("ContentType(%d)", int(t))
}

// Entry is one indexable unit of content.
// Entries are values; a changed source produces a new Entry with a new Id.
type Entry struct {
	Id     ID     `json:"id"`
	Text   string `json:"text"`   // Canonical text used for embedding
	Source string `json:"source"` // Provenance only, never used in ranking
}

// NewEntry creates an Entry whose Id is derived from its text.
func NewEntry(text, source string) Entry {
	return Entry{
		Id:     IDFromContent(text),
		Text:   text,
		Source: source,
	}
}

// SourceInfo captures the modification state of one input source.
type SourceInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Manifest records what produced the cached files of one content type.
// It is the persisted half of the staleness check.
type Manifest struct {
	Type         ContentType
	Fingerprint  string
	SourceCount  int
	EntryCount   int
	Dimensions   int
	Model        string
	EntryDigest  string
	VectorDigest string
	BuiltAt      time.Time
}

// Index is an immutable snapshot pairing entries with their embeddings.
// Entries[i] corresponds to Embeddings[i] for every i.
// Use NewIndex to construct one; the zero value is an empty index.
type Index struct {
	Type        ContentType
	Entries     []Entry
	Embeddings  [][]float32
	Fingerprint string
	Dimensions  int
	BuildID     string
	BuiltAt     time.Time

	norms []float64
}

// NewIndex assembles an Index, validating alignment and dimensionality and
// precomputing vector magnitudes for ranking.
func NewIndex(t ContentType, entries []Entry, embeddings [][]float32, fingerprint, buildID string) (*Index, error) {
	if err := ValidateEmbeddings(entries, embeddings); err != nil {
		return nil, err
	}

	dim := 0
	if len(embeddings) > 0 {
		dim = len(embeddings[0])
	}

	norms := make([]float64, len(embeddings))
	for i, v := range embeddings {
		norms[i] = Magnitude(v)
	}

	return &Index{
		Type:        t,
		Entries:     entries,
		Embeddings:  embeddings,
		Fingerprint: fingerprint,
		Dimensions:  dim,
		BuildID:     buildID,
		BuiltAt:     time.Now().UTC(),
		norms:       norms,
	}, nil
}

// Len returns the number of entries in the index. Safe on a nil receiver.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Entries)
}

// Norm returns the precomputed magnitude of the i-th embedding.
func (idx *Index) Norm(i int) float64 {
	if i < len(idx.norms) {
		return idx.norms[i]
	}
	return Magnitude(idx.Embeddings[i])
}

// Magnitude returns the Euclidean norm of v, accumulated in float64.
func Magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// SearchResult represents a ranked entry with its similarity score.
type SearchResult struct {
	Entry Entry
	Score float32
}
