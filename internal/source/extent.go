// Package source defines source positions and extents attached to AST nodes.
package source

import "fmt"

// Position identifies a single point in a script, 1-indexed for line and
// column, 0-indexed for the byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String returns "line:column" for error messages.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Extent is the span of source text covered by an AST node.
// Extents are immutable once constructed; a node's extent always contains
// the extents of all of its descendants.
type Extent struct {
	File        string
	StartOffset int
	EndOffset   int
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
	Text        string
}

// EmptyExtent is the sentinel extent used for synthesized nodes that have no
// corresponding source text.
var EmptyExtent = Extent{StartLine: 1, StartColumn: 1, EndLine: 1, EndColumn: 1}

// NewExtent builds an extent from a pair of positions and the covered text.
func NewExtent(file string, start, end Position, text string) Extent {
	return Extent{
		File:        file,
		StartOffset: start.Offset,
		EndOffset:   end.Offset,
		StartLine:   start.Line,
		StartColumn: start.Column,
		EndLine:     end.Line,
		EndColumn:   end.Column,
		Text:        text,
	}
}

// Synthetic builds an extent for a node constructed in code rather than
// parsed; the text is carried for display, the start offset is zero and the
// end offset is the text length.
func Synthetic(text string) Extent {
	e := EmptyExtent
	e.Text = text
	e.EndOffset = len(text)
	return e
}

// IsEmpty reports whether the extent is the empty sentinel or covers no text.
func (e Extent) IsEmpty() bool {
	return e.Text == "" && e.StartOffset == e.EndOffset
}

// Start returns the extent's starting position.
func (e Extent) Start() Position {
	return Position{Line: e.StartLine, Column: e.StartColumn, Offset: e.StartOffset}
}

// End returns the extent's ending position.
func (e Extent) End() Position {
	return Position{Line: e.EndLine, Column: e.EndColumn, Offset: e.EndOffset}
}

// Contains reports whether other lies entirely within e.
// Both extents must come from the same file for the answer to be meaningful.
func (e Extent) Contains(other Extent) bool {
	return e.StartOffset <= other.StartOffset && other.EndOffset <= e.EndOffset
}

// Join returns the smallest extent covering both e and other.
// The receiver's file wins; callers only join extents from one file.
func (e Extent) Join(other Extent) Extent {
	out := e
	if other.StartOffset < out.StartOffset {
		out.StartOffset = other.StartOffset
		out.StartLine = other.StartLine
		out.StartColumn = other.StartColumn
	}
	if other.EndOffset > out.EndOffset {
		out.EndOffset = other.EndOffset
		out.EndLine = other.EndLine
		out.EndColumn = other.EndColumn
	}
	return out
}

// String returns a compact "file:line:col" description of the extent start.
func (e Extent) String() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d", e.File, e.StartLine, e.StartColumn)
	}
	return fmt.Sprintf("%d:%d", e.StartLine, e.StartColumn)
}
