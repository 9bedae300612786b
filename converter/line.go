package converter

import "context"

// Line turns every non-blank line into a unit. Suited to exported track
// listings and similar one-record-per-line metadata.
type Line struct{}

// Convert implements entrystore.Converter.
func (Line) Convert(ctx context.Context, ref string) ([]string, error) {
	lines, err := readLines(ctx, ref)
	if err != nil {
		return nil, err
	}

	var units []string
	for _, line := range lines {
		units = flush(units, []string{line})
	}
	return units, nil
}
