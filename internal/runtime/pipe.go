package runtime

import (
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/source"
)

// Pipe receives the output of compiled statements.
type Pipe interface {
	// Add appends one object to the pipe.
	Add(v Value)
	// NullPipe reports whether the pipe discards everything.
	NullPipe() bool
}

// ListPipe collects output into a list; the standard pipe for captured
// sub-expression and paren-expression output.
type ListPipe struct {
	items []Value
}

// NewListPipe creates an empty collecting pipe.
func NewListPipe() *ListPipe { return &ListPipe{} }

// Add appends v, flattening nothing: arrays arrive as single objects.
func (p *ListPipe) Add(v Value) { p.items = append(p.items, v) }

// NullPipe reports false.
func (p *ListPipe) NullPipe() bool { return false }

// Items returns the collected output.
func (p *ListPipe) Items() []Value { return p.items }

// Clear drops all collected output.
func (p *ListPipe) Clear() { p.items = p.items[:0] }

// Len returns the number of collected objects.
func (p *ListPipe) Len() int { return len(p.items) }

// DiscardPipe swallows all output.
type DiscardPipe struct{}

// Add discards v.
func (DiscardPipe) Add(Value) {}

// NullPipe reports true.
func (DiscardPipe) NullPipe() bool { return true }

// PipelineResult converts a captured output list into a single value:
// no output is null, one object is itself, several objects are an array.
func PipelineResult(list []Value) Value {
	switch len(list) {
	case 0:
		return Null
	case 1:
		return list[0]
	default:
		out := make([]Value, len(list))
		copy(out, list)
		return &ArrayValue{Elements: out}
	}
}

// FlushPipe forwards everything captured in list to the old pipe; used when
// a temporary pipe's output turns out to belong to the caller after all.
func FlushPipe(old Pipe, list *ListPipe) {
	for _, v := range list.Items() {
		old.Add(v)
	}
	list.Clear()
}

// ClearPipe drops a temporary pipe's content; used by the clear-pipe-on-
// exception wrapper so failed assignments preserve no partial results.
func ClearPipe(list *ListPipe) {
	list.Clear()
}

// GetExitException builds the exit signal for an exit statement's code value.
func GetExitException(code Value) error {
	if IsNull(code) {
		code = Int(0)
	}
	return &ExitException{Code: code}
}

// CheckAutomationNullInCommandArgument replaces the automation-null that a
// void-returning expression produced with the plain null singleton so command
// arguments never observe the internal sentinel.
func CheckAutomationNullInCommandArgument(v Value) Value {
	if IsNull(v) {
		return Null
	}
	return v
}

// CheckAutomationNullInCommandArgumentArray applies the argument scrub to
// every element of an array argument.
func CheckAutomationNullInCommandArgumentArray(vs []Value) []Value {
	for i, v := range vs {
		vs[i] = CheckAutomationNullInCommandArgument(v)
	}
	return vs
}

// NewErrorRecord builds the value bound to $_ inside catch and trap bodies
// from the caught error.
func NewErrorRecord(err error) Value {
	if re, ok := err.(*errors.RuntimeError); ok {
		return &WrappedValue{Value: re}
	}
	return &WrappedValue{Value: err}
}

// ErrorRecordMessage extracts the display message of an error record built
// by NewErrorRecord.
func ErrorRecordMessage(v Value) string {
	w, ok := v.(*WrappedValue)
	if !ok {
		return ToString(v)
	}
	switch e := w.Value.(type) {
	case *errors.RuntimeError:
		return e.Message
	case error:
		return e.Error()
	default:
		return ToString(v)
	}
}

// ConvertToException turns a thrown operand into an error carrying the
// statement's extent. A thrown error record or wrapped error rethrows its
// underlying error; anything else becomes a runtime error whose message is
// the operand's string form and whose target is the operand.
func ConvertToException(v Value, extent source.Extent) error {
	if w, ok := v.(*WrappedValue); ok {
		if err, ok := w.Value.(error); ok {
			return err
		}
	}
	return errors.NewRuntimeError(extent, "RuntimeException", "%s", ToString(v)).WithTarget(v)
}
