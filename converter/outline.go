package converter

import (
	"context"
	"path/filepath"
	"strings"
)

// Outline splits notes into one unit per heading section. A section runs
// from its heading line to the next heading of any level. Text before the
// first heading forms its own unit.
//
// Org files (.org) use '*' headings and drop "#+" keyword lines. Markdown
// files (.md, .markdown) use '#' headings and ignore '#' inside fenced code
// blocks. Any other file becomes a single unit.
type Outline struct{}

// Convert implements entrystore.Converter.
func (Outline) Convert(ctx context.Context, ref string) ([]string, error) {
	lines, err := readLines(ctx, ref)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(ref)) {
	case ".org":
		return splitOrg(lines), nil
	case ".md", ".markdown":
		return splitMarkdown(lines), nil
	default:
		return flush(nil, lines), nil
	}
}

func splitOrg(lines []string) []string {
	var units, section []string
	for _, line := range lines {
		if strings.HasPrefix(line, "#+") {
			continue
		}
		if isHeading(line, '*') {
			units = flush(units, section)
			section = section[:0]
		}
		section = append(section, line)
	}
	return flush(units, section)
}

func splitMarkdown(lines []string) []string {
	var units, section []string
	fenced := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			fenced = !fenced
		}
		if !fenced && isHeading(line, '#') {
			units = flush(units, section)
			section = section[:0]
		}
		section = append(section, line)
	}
	return flush(units, section)
}

// isHeading reports whether line is one or more marker characters followed
// by a space and a title.
func isHeading(line string, marker byte) bool {
	i := 0
	for i < len(line) && line[i] == marker {
		i++
	}
	if i == 0 || i >= len(line) || line[i] != ' ' {
		return false
	}
	return strings.TrimSpace(line[i:]) != ""
}
