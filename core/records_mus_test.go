package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestMUS_RoundTrip(t *testing.T) {
	m := Manifest{
		Type:         ContentTypeNotes,
		Fingerprint:  "9f2c",
		SourceCount:  12,
		EntryCount:   340,
		Dimensions:   768,
		Model:        "nomic-embed-text",
		EntryDigest:  "e1d9",
		VectorDigest: "7a0b",
		BuiltAt:      time.Now().UTC().Truncate(time.Microsecond),
	}

	buf := make([]byte, ManifestMUS.Size(m))
	n := ManifestMUS.Marshal(m, buf)
	require.Equal(t, len(buf), n)

	decoded, n2, err := ManifestMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, n, n2)
	assert.Equal(t, m, decoded)

	skipped, err := ManifestMUS.Skip(buf)
	require.NoError(t, err)
	assert.Equal(t, n, skipped)
}

func TestManifestMUS_Truncated(t *testing.T) {
	m := Manifest{Type: ContentTypeLedger, Fingerprint: "abc", Model: "m", BuiltAt: time.Now()}
	buf := make([]byte, ManifestMUS.Size(m))
	ManifestMUS.Marshal(m, buf)

	_, _, err := ManifestMUS.Unmarshal(buf[:len(buf)/2])
	assert.Error(t, err)
}

func TestVectorsMUS(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float32
	}{
		{"empty", [][]float32{}},
		{"single", [][]float32{{0.5, -1, 2}}},
		{"several", [][]float32{{1, 0}, {0, 1}, {0.25, 0.75}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, VectorsMUS.Size(tt.vectors))
			n := VectorsMUS.Marshal(tt.vectors, buf)
			require.Equal(t, len(buf), n)

			decoded, _, err := VectorsMUS.Unmarshal(buf)
			require.NoError(t, err)
			assert.Len(t, decoded, len(tt.vectors))
			for i := range tt.vectors {
				assert.Equal(t, tt.vectors[i], decoded[i])
			}

			skipped, err := VectorsMUS.Skip(buf)
			require.NoError(t, err)
			assert.Equal(t, n, skipped)
		})
	}
}

func TestVectorsMUS_Malformed(t *testing.T) {
	vectors := [][]float32{{1, 2, 3}, {4, 5, 6}}
	buf := make([]byte, VectorsMUS.Size(vectors))
	VectorsMUS.Marshal(vectors, buf)

	_, _, err := VectorsMUS.Unmarshal(buf[:len(buf)-3])
	assert.True(t, errors.Is(err, ErrMalformedVectors), "got %v", err)

	_, err = VectorsMUS.Skip(buf[:len(buf)-3])
	assert.Error(t, err)
}
