package runtime

import (
	"fmt"
	"strings"
)

// FlowControlException is the closed family of structured non-error signals
// used to unwind for break/continue/return/exit and pipeline termination.
// They are error-shaped so they travel the same unwinding path, but they are
// distinguishable at the type level: lowered catch scaffolding rethrows them
// unchanged and the generic per-statement handler never swallows them.
type FlowControlException interface {
	error
	flowControl()
}

// BreakException unwinds to the matching loop on break.
type BreakException struct {
	Label string
}

func (e *BreakException) flowControl()  {}
func (e *BreakException) Error() string { return "break " + e.Label }

// MatchesLoop reports whether the signal targets a loop with the given label.
// A label-less break matches every loop; labels compare case-insensitively.
func (e *BreakException) MatchesLoop(label string) bool {
	return e.Label == "" || strings.EqualFold(e.Label, label)
}

// ContinueException unwinds to the matching loop on continue.
type ContinueException struct {
	Label string
}

func (e *ContinueException) flowControl()  {}
func (e *ContinueException) Error() string { return "continue " + e.Label }

// MatchesLoop reports whether the signal targets a loop with the given label.
func (e *ContinueException) MatchesLoop(label string) bool {
	return e.Label == "" || strings.EqualFold(e.Label, label)
}

// ReturnException unwinds to the enclosing function or trap frame on return.
type ReturnException struct {
	Value Value
}

func (e *ReturnException) flowControl()  {}
func (e *ReturnException) Error() string { return "return" }

// ExitException unwinds to the pipeline host on exit; the core re-raises it.
type ExitException struct {
	Code Value
}

func (e *ExitException) flowControl() {}
func (e *ExitException) Error() string {
	return fmt.Sprintf("exit %s", ToString(e.Code))
}

// PipelineStoppedException is raised when the pipeline is being stopped.
// It is always rethrown unchanged and never dispatched to user handlers.
type PipelineStoppedException struct{}

func (e *PipelineStoppedException) flowControl()  {}
func (e *PipelineStoppedException) Error() string { return "the pipeline has been stopped" }

// TerminateException terminates the current pipeline; produced by external
// collaborators, only propagated here.
type TerminateException struct{}

func (e *TerminateException) flowControl()  {}
func (e *TerminateException) Error() string { return "the pipeline was terminated" }

// StopUpstreamCommandsException asks upstream pipeline processors to stop;
// produced by Select-Object-style collaborators, only propagated here.
type StopUpstreamCommandsException struct {
	RequestingProcessor any
}

func (e *StopUpstreamCommandsException) flowControl()  {}
func (e *StopUpstreamCommandsException) Error() string { return "stop upstream commands" }

// IsFlowControl reports whether err is one of the flow-control signals.
func IsFlowControl(err error) bool {
	_, ok := err.(FlowControlException)
	return ok
}

// IsPipelineStopped reports whether err is the pipeline-stopped signal.
func IsPipelineStopped(err error) bool {
	_, ok := err.(*PipelineStoppedException)
	return ok
}
