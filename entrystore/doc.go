// Package entrystore turns input sources into the ordered, de-duplicated
// entry list of one content type and persists it between runs.
//
// Sources are discovered from explicit file lists and doublestar globs,
// filtered, then converted concurrently by a pluggable Converter. Entry
// order follows source order and, within a source, the order the converter
// produced units in. When two units have identical text the first one wins.
//
// The persisted form is gzip-compressed JSON lines, one entry per line:
//
//	{"id":1234,"text":"* Semantic Search via Emacs ...","source":"notes/README.org"}
package entrystore
