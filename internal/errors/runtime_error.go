package errors

import (
	"fmt"

	"github.com/cwbudde/go-psh/internal/source"
)

// InvocationInfo records where a runtime error was raised: the offending
// extent plus the script stack at the point of raise.
type InvocationInfo struct {
	Extent     source.Extent
	ScriptName string
	Stack      StackTrace
}

// RuntimeError is a dynamic failure during evaluation. It carries the message,
// the error id used by hosts for localization, the target object the operation
// was applied to, and the invocation info with the offending extent.
//
// RuntimeError is deliberately distinct from the flow-control signal family;
// lowered catch scaffolding dispatches on the concrete type.
type RuntimeError struct {
	ID      string
	Message string
	Target  any
	Info    InvocationInfo
	Wrapped error
}

// NewRuntimeError creates a runtime error with the given id at the extent.
func NewRuntimeError(extent source.Extent, id, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		ID:      id,
		Message: fmt.Sprintf(format, args...),
		Info:    InvocationInfo{Extent: extent},
	}
}

// NewWrappedRuntimeError creates a runtime error whose cause is err.
func NewWrappedRuntimeError(extent source.Extent, id string, err error) *RuntimeError {
	return &RuntimeError{
		ID:      id,
		Message: err.Error(),
		Info:    InvocationInfo{Extent: extent},
		Wrapped: err,
	}
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Info.Extent.IsEmpty() {
		return fmt.Sprintf("%s: %s", e.ID, e.Message)
	}
	return fmt.Sprintf("%s: %s at %s", e.ID, e.Message, e.Info.Extent.String())
}

// Unwrap exposes the wrapped cause for errors.Is/As chains.
func (e *RuntimeError) Unwrap() error {
	return e.Wrapped
}

// WithTarget attaches the object the failing operation was applied to.
func (e *RuntimeError) WithTarget(target any) *RuntimeError {
	e.Target = target
	return e
}

// ScriptCallDepthError is thrown by the evaluator when the script call stack
// exceeds its limit. The core passes it through unchanged.
type ScriptCallDepthError struct {
	Depth int
}

// Error implements the error interface.
func (e *ScriptCallDepthError) Error() string {
	return fmt.Sprintf("the script call depth limit of %d was exceeded", e.Depth)
}

// IncompleteParseError marks a parse diagnostic whose input is syntactically
// unfinished; hosts use it to prompt for continuation lines.
type IncompleteParseError struct {
	Diagnostic *Diagnostic
}

// Error implements the error interface.
func (e *IncompleteParseError) Error() string {
	return e.Diagnostic.Error()
}
