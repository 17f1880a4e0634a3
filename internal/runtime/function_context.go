package runtime

import (
	"strings"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/source"
)

// AutomaticVariables is the fixed ordered list of language-defined variables.
// Their indexes are the first slots of every locals tuple.
var AutomaticVariables = []string{
	"_",
	"this",
	"input",
	"args",
	"PSCmdlet",
	"PSBoundParameters",
	"MyInvocation",
	"PSScriptRoot",
	"PSCommandPath",
	"switch",
	"foreach",
	"?",
}

// Tuple slot indexes of the automatic variables.
const (
	SlotUnderscore = iota
	SlotThis
	SlotInput
	SlotArgs
	SlotPSCmdlet
	SlotBoundParameters
	SlotMyInvocation
	SlotPSScriptRoot
	SlotPSCommandPath
	SlotSwitch
	SlotForeach
	SlotQuestionMark
)

// IsAutomaticVariable reports whether name is language-defined, and its slot.
func IsAutomaticVariable(name string) (int, bool) {
	for i, n := range AutomaticVariables {
		if strings.EqualFold(n, name) {
			return i, true
		}
	}
	return 0, false
}

// TupleLayout is the fixed field layout of a locals tuple, produced by
// variable analysis. Names keeps declaration order; lookup is folded.
type TupleLayout struct {
	Names []string
	index map[string]int
}

// NewTupleLayout builds a layout whose first slots are the automatic
// variables, followed by the analyzed user variables in declaration order.
func NewTupleLayout(userVariables []string) *TupleLayout {
	layout := &TupleLayout{index: make(map[string]int)}
	for _, name := range AutomaticVariables {
		layout.add(name)
	}
	for _, name := range userVariables {
		layout.add(name)
	}
	return layout
}

func (t *TupleLayout) add(name string) int {
	folded := strings.ToLower(name)
	if slot, ok := t.index[folded]; ok {
		return slot
	}
	slot := len(t.Names)
	t.Names = append(t.Names, name)
	t.index[folded] = slot
	return slot
}

// Slot returns the tuple slot of name, or -1 when the variable was forced
// dynamic and lives in the runtime variable table instead.
func (t *TupleLayout) Slot(name string) int {
	if slot, ok := t.index[strings.ToLower(name)]; ok {
		return slot
	}
	return -1
}

// Size returns the number of slots in the layout.
func (t *TupleLayout) Size() int { return len(t.Names) }

// NameToSlot returns a fresh name-to-slot map for the output contract.
func (t *TupleLayout) NameToSlot() map[string]int {
	out := make(map[string]int, len(t.index))
	for k, v := range t.index {
		out[k] = v
	}
	return out
}

// LocalsTuple is a fixed-layout record of local variables. Each field has a
// value and a was-set bit; reads of unset fields fall back to the session
// variable table.
type LocalsTuple struct {
	layout *TupleLayout
	slots  []Value
	isSet  []bool
}

// NewLocalsTuple allocates a tuple for the given layout.
func NewLocalsTuple(layout *TupleLayout) *LocalsTuple {
	return &LocalsTuple{
		layout: layout,
		slots:  make([]Value, layout.Size()),
		isSet:  make([]bool, layout.Size()),
	}
}

// Layout returns the tuple's layout.
func (lt *LocalsTuple) Layout() *TupleLayout { return lt.layout }

// GetSlot reads a slot directly. Unset slots read as null.
func (lt *LocalsTuple) GetSlot(slot int) Value {
	if slot < 0 || slot >= len(lt.slots) || !lt.isSet[slot] {
		return Null
	}
	return lt.slots[slot]
}

// SetSlot writes a slot and marks it set.
func (lt *LocalsTuple) SetSlot(slot int, v Value) {
	if slot < 0 || slot >= len(lt.slots) {
		return
	}
	lt.slots[slot] = v
	lt.isSet[slot] = true
}

// WasSet reports whether the slot has been written this invocation.
func (lt *LocalsTuple) WasSet(slot int) bool {
	return slot >= 0 && slot < len(lt.isSet) && lt.isSet[slot]
}

// GetName reads a variable by name, falling back to unset-as-null.
func (lt *LocalsTuple) GetName(name string) (Value, bool) {
	slot := lt.layout.Slot(name)
	if slot < 0 {
		return nil, false
	}
	return lt.GetSlot(slot), lt.isSet[slot]
}

// SetName writes a variable by name when it has a slot.
func (lt *LocalsTuple) SetName(name string, v Value) bool {
	slot := lt.layout.Slot(name)
	if slot < 0 {
		return false
	}
	lt.SetSlot(slot, v)
	return true
}

// ============================================================================
// Trap stack
// ============================================================================

// TrapHandler is a compiled trap body. It receives the error record bound to
// $_ and returns the trap's output; a trap signals return/continue/break by
// error like any other compiled body.
type TrapHandler func(fc *FunctionContext, errorRecord Value) error

// TrapFrame is one statement block's worth of active traps: parallel arrays
// of trap types (nil for catch-all) and their handlers.
type TrapFrame struct {
	Types    []*ast.TypeConstraint
	Handlers []TrapHandler
}

// FunctionContext is the evaluator-facing record threaded through every
// compiled entry point: one per invocation.
type FunctionContext struct {
	ScriptBlock  *ast.ScriptBlockAst
	File         string
	FunctionName string

	SequencePoints            []source.Extent
	CurrentSequencePointIndex int

	Context    ExecutionContext
	OutputPipe Pipe
	Locals     *LocalsTuple

	trapStack []*TrapFrame
}

// CurrentExtent returns the extent of the statement currently executing.
func (fc *FunctionContext) CurrentExtent() source.Extent {
	if fc.CurrentSequencePointIndex >= 0 && fc.CurrentSequencePointIndex < len(fc.SequencePoints) {
		return fc.SequencePoints[fc.CurrentSequencePointIndex]
	}
	return source.EmptyExtent
}

// PushTrapFrame activates a statement block's traps.
func (fc *FunctionContext) PushTrapFrame(frame *TrapFrame) {
	fc.trapStack = append(fc.trapStack, frame)
}

// PopTrapFrame deactivates the innermost trap frame.
func (fc *FunctionContext) PopTrapFrame() {
	if len(fc.trapStack) > 0 {
		fc.trapStack = fc.trapStack[:len(fc.trapStack)-1]
	}
}

// CurrentTrapFrames returns the active frames, innermost last.
func (fc *FunctionContext) CurrentTrapFrames() []*TrapFrame {
	return fc.trapStack
}

// CheckForInterrupts polls the execution context's stopping flag and raises
// the pipeline-stopped signal when set. The compiler emits a call per loop
// iteration.
func CheckForInterrupts(ctx ExecutionContext) error {
	if ctx.PipelineStopping() {
		return &PipelineStoppedException{}
	}
	return nil
}
