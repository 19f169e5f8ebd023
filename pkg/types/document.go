package types

import "strings"

// Document is one discovered source file: its decoded text and the path it
// was read from. The scanner emits exactly one Document per matched file
// whose text is non-empty after trimming.
type Document struct {
	Source string // Path the file was read from
	Text   string
}

// Empty reports whether the document text is empty after trimming.
// Empty documents are excluded from the pipeline entirely.
func (d Document) Empty() bool {
	return strings.TrimSpace(d.Text) == ""
}
