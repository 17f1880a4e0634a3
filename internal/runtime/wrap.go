package runtime

import (
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/source"
)

// PassesThrough reports whether err must propagate unchanged: flow-control
// signals, pipeline-stopped, call-depth overflows, and errors that are
// already runtime-error kinds.
func PassesThrough(err error) bool {
	switch err.(type) {
	case FlowControlException:
		return true
	case *errors.RuntimeError:
		return true
	case *errors.ScriptCallDepthError:
		return true
	}
	return false
}

// WrapError applies the propagation policy of the operator library: errors
// that pass through do so unchanged, anything else becomes a runtime error
// with the given id, the original as cause, and the call-site extent.
func WrapError(err error, extent source.Extent, id string) error {
	if err == nil || PassesThrough(err) {
		return err
	}
	return errors.NewWrappedRuntimeError(extent, id, err)
}
