package converter

import (
	"context"
	"strings"
)

// ledgerComment lists the characters that start a top-level comment line in
// ledger and hledger journals.
const ledgerComment = ";#%|*"

// Block splits a journal into blank-line separated blocks, one unit per
// transaction or directive. Top-level comment lines are dropped; indented
// posting comments are kept.
type Block struct{}

// Convert implements entrystore.Converter.
func (Block) Convert(ctx context.Context, ref string) ([]string, error) {
	lines, err := readLines(ctx, ref)
	if err != nil {
		return nil, err
	}

	var units, block []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			units = flush(units, block)
			block = block[:0]
			continue
		}
		if strings.IndexByte(ledgerComment, line[0]) >= 0 {
			continue
		}
		block = append(block, line)
	}
	return flush(units, block), nil
}
