package errors

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-psh/internal/source"
)

// StackFrame represents a single frame in a script call stack.
// It captures the function being executed and its location in the source code.
type StackFrame struct {
	FunctionName string
	FileName     string
	Extent       source.Extent
}

// String returns a formatted string representation of the stack frame.
// Format: "FunctionName [line: N, column: M]".
// If the extent is empty, returns just the function name.
func (sf StackFrame) String() string {
	if sf.Extent.IsEmpty() {
		return sf.FunctionName
	}
	return fmt.Sprintf("%s [line: %d, column: %d]",
		sf.FunctionName, sf.Extent.StartLine, sf.Extent.StartColumn)
}

// StackTrace represents a complete call stack as a sequence of frames.
// Frames are ordered from oldest (bottom of stack) to newest (top of stack).
type StackTrace []StackFrame

// String returns a formatted string representation of the entire stack trace.
// The most recent call is printed first.
func (st StackTrace) String() string {
	if len(st) == 0 {
		return ""
	}

	var sb strings.Builder
	for i := len(st) - 1; i >= 0; i-- {
		sb.WriteString(st[i].String())
		if i > 0 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Top returns the most recent (top) frame in the stack, or nil if empty.
func (st StackTrace) Top() *StackFrame {
	if len(st) == 0 {
		return nil
	}
	return &st[len(st)-1]
}

// Depth returns the number of frames in the stack.
func (st StackTrace) Depth() int {
	return len(st)
}

// NewStackFrame creates a new stack frame for the given function and extent.
func NewStackFrame(functionName, fileName string, extent source.Extent) StackFrame {
	return StackFrame{
		FunctionName: functionName,
		FileName:     fileName,
		Extent:       extent,
	}
}
