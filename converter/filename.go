package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var nameSeparators = strings.NewReplacer("_", " ", "-", " ", ".", " ")

// Filename indexes a file by its name without reading its contents. The
// unit is the base name with separators turned into spaces, followed by the
// parent directory name, e.g. "beach sunset 2019 (summer)".
type Filename struct{}

// Convert implements entrystore.Converter.
func (Filename) Convert(ctx context.Context, ref string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(ref)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", ref)
	}

	base := filepath.Base(ref)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.Join(strings.Fields(nameSeparators.Replace(name)), " ")
	if name == "" {
		return nil, nil
	}

	parent := filepath.Base(filepath.Dir(ref))
	if parent == "." || parent == string(filepath.Separator) {
		return []string{name}, nil
	}
	return []string{fmt.Sprintf("%s (%s)", name, parent)}, nil
}
