// Package converter provides the stock converters that split source files
// into indexable text units, one per content type:
//
//   - Outline splits org-mode and markdown notes into one unit per heading.
//   - Block splits plain-text accounting journals on blank lines.
//   - Line turns every non-blank line into a unit.
//   - Filename indexes a file by its name and parent directory only.
//
// All converters satisfy entrystore.Converter and are safe for concurrent use.
package converter
