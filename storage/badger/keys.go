package badger

import (
	"fmt"

	"github.com/poiesic/semindex/core"
)

// manifestPrefix namespaces manifest keys.
const manifestPrefix = "manifest"

// makeManifestKey generates the key for a content type's manifest.
// Format: manifest:<tag>
func makeManifestKey(t core.ContentType) []byte {
	return []byte(fmt.Sprintf("%s:%s", manifestPrefix, t))
}
