// Package errors provides the diagnostic bag used by the semantic checker,
// the runtime error kind used by the operator library and compiler, and
// error formatting with source context and caret indicators.
package errors

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-psh/internal/source"
)

// Diagnostic is a single parse-time or check-time error. Diagnostics never
// unwind; they accumulate in a Bag so one pass can surface many errors.
type Diagnostic struct {
	ID      string
	Extent  source.Extent
	Message string
	Args    []any
}

// NewDiagnostic creates a diagnostic for the given message id.
// The message is formatted immediately so Args survive only as metadata.
func NewDiagnostic(extent source.Extent, id, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		ID:      id,
		Extent:  extent,
		Message: fmt.Sprintf(format, args...),
		Args:    args,
	}
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s at %s", d.ID, d.Message, d.Extent.String())
}

// Bag accumulates diagnostics during parsing and semantic analysis.
type Bag struct {
	diagnostics []*Diagnostic
}

// NewBag creates an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{diagnostics: make([]*Diagnostic, 0)}
}

// Add appends a diagnostic to the bag.
func (b *Bag) Add(d *Diagnostic) {
	b.diagnostics = append(b.diagnostics, d)
}

// Addf builds and appends a diagnostic in one call.
func (b *Bag) Addf(extent source.Extent, id, format string, args ...any) {
	b.Add(NewDiagnostic(extent, id, format, args...))
}

// HasErrors reports whether any diagnostics have been recorded.
func (b *Bag) HasErrors() bool {
	return len(b.diagnostics) > 0
}

// Len returns the number of recorded diagnostics.
func (b *Bag) Len() int {
	return len(b.diagnostics)
}

// Diagnostics returns the recorded diagnostics in insertion order.
func (b *Bag) Diagnostics() []*Diagnostic {
	return b.diagnostics
}

// Find returns the first diagnostic with the given id, or nil.
func (b *Bag) Find(id string) *Diagnostic {
	for _, d := range b.diagnostics {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Format renders every diagnostic in the bag with source context.
func (b *Bag) Format(sourceText string, color bool) string {
	if len(b.diagnostics) == 0 {
		return ""
	}
	if len(b.diagnostics) == 1 {
		return FormatDiagnostic(b.diagnostics[0], sourceText, color)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Check failed with %d error(s):\n\n", len(b.diagnostics)))
	for i, d := range b.diagnostics {
		sb.WriteString(fmt.Sprintf("[Error %d of %d]\n", i+1, len(b.diagnostics)))
		sb.WriteString(FormatDiagnostic(d, sourceText, color))
		if i < len(b.diagnostics)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// FormatDiagnostic formats a diagnostic with the offending source line and a
// caret indicator. If color is true, ANSI color codes are used.
func FormatDiagnostic(d *Diagnostic, sourceText string, color bool) string {
	var sb strings.Builder

	if d.Extent.File != "" {
		sb.WriteString(fmt.Sprintf("Error in %s:%d:%d\n", d.Extent.File, d.Extent.StartLine, d.Extent.StartColumn))
	} else {
		sb.WriteString(fmt.Sprintf("Error at line %d:%d\n", d.Extent.StartLine, d.Extent.StartColumn))
	}

	sourceLine := getSourceLine(sourceText, d.Extent.StartLine)
	if sourceLine != "" {
		lineNumStr := fmt.Sprintf("%4d | ", d.Extent.StartLine)
		sb.WriteString(lineNumStr)
		sb.WriteString(sourceLine)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+d.Extent.StartColumn-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(d.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

// getSourceLine extracts a specific line from the source code.
// Lines are 1-indexed.
func getSourceLine(sourceText string, lineNum int) string {
	if sourceText == "" {
		return ""
	}

	lines := strings.Split(sourceText, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}

	return lines[lineNum-1]
}
