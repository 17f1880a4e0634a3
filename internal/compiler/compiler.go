// Package compiler lowers a checked script-block AST into callable entry
// points. Each AST node compiles to a closure over the function context; the
// resulting program is directly evaluable and carries the markers the
// compile-vs-interpret policy needs.
package compiler

import (
	"fmt"

	"github.com/cwbudde/go-psh/internal/analysis"
	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/params"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
)

// valueThunk is the lowered form of an expression.
type valueThunk func(fc *runtime.FunctionContext) (runtime.Value, error)

// actionThunk is the lowered form of a statement; output goes to the
// function context's pipe.
type actionThunk func(fc *runtime.FunctionContext) error

// neverOptimizeStatementLimit is the statement count above which a function
// is tagged never-JIT: compile time would dominate execution time.
const neverOptimizeStatementLimit = 300

// loopWarmupIterations is the per-loop iteration count after which a
// compile-on-demand function starts background compilation.
const loopWarmupIterations = 16

// EnterLoopMarker carries one loop's compile-on-demand state: the
// interpreter bumps Iterations each trip and compares against the threshold.
type EnterLoopMarker struct {
	Extent     source.Extent
	Iterations int
}

// ReadyToCompile reports whether the loop has run hot enough to compile.
func (m *EnterLoopMarker) ReadyToCompile() bool {
	return m.Iterations >= loopWarmupIterations
}

// CompiledScriptBlock packages the output of compilation: up to four entry
// points plus the metadata consumers need to invoke them.
type CompiledScriptBlock struct {
	Ast *ast.ScriptBlockAst

	DynamicParam actionThunk
	Begin        actionThunk
	Process      actionThunk
	End          actionThunk

	SequencePoints    []source.Extent
	Layout            *runtime.TupleLayout
	NameToSlot        map[string]int
	ParameterMetadata *params.ParameterMetadata

	// NeverOptimize tags functions whose statement count exceeds the policy
	// limit; the interpreter runs them forever.
	NeverOptimize bool

	LoopMarkers []*EnterLoopMarker

	SuspiciousContent bool
}

// NewFunctionContext creates the per-invocation context for one entry point.
func (csb *CompiledScriptBlock) NewFunctionContext(ctx runtime.ExecutionContext, output runtime.Pipe, name string) *runtime.FunctionContext {
	return &runtime.FunctionContext{
		ScriptBlock:    csb.Ast,
		File:           csb.Ast.Extent().File,
		FunctionName:   name,
		SequencePoints: csb.SequencePoints,
		Context:        ctx,
		OutputPipe:     output,
		Locals:         runtime.NewLocalsTuple(csb.Layout),
	}
}

// InvokePipeline runs the script block's entry points over pipeline input:
// begin once, process per input object with $_ bound, end once. Positional
// arguments bind to declared parameters in order; the rest land in $args.
func (csb *CompiledScriptBlock) InvokePipeline(ctx runtime.ExecutionContext, dollarUnder runtime.Value, input, args []runtime.Value) ([]runtime.Value, error) {
	pipe := runtime.NewListPipe()
	fc := csb.NewFunctionContext(ctx, pipe, "<ScriptBlock>")

	if dollarUnder != nil {
		fc.Locals.SetSlot(runtime.SlotUnderscore, dollarUnder)
	}
	fc.Locals.SetSlot(runtime.SlotInput, &runtime.ArrayValue{Elements: input})

	remaining, err := csb.bindPositionalParameters(fc, args)
	if err != nil {
		return nil, err
	}
	fc.Locals.SetSlot(runtime.SlotArgs, &runtime.ArrayValue{Elements: remaining})

	for _, entry := range []actionThunk{csb.DynamicParam, csb.Begin} {
		if entry == nil {
			continue
		}
		if err := entry(fc); err != nil {
			return nil, err
		}
	}

	if csb.Process != nil {
		for _, item := range input {
			fc.Locals.SetSlot(runtime.SlotUnderscore, item)
			if err := csb.Process(fc); err != nil {
				return nil, err
			}
		}
	}

	if csb.End != nil {
		if err := csb.End(fc); err != nil {
			return nil, err
		}
	}
	return pipe.Items(), nil
}

// bindPositionalParameters binds invocation arguments to the script block's
// declared parameters by position and returns the unbound remainder.
func (csb *CompiledScriptBlock) bindPositionalParameters(fc *runtime.FunctionContext, args []runtime.Value) ([]runtime.Value, error) {
	metadata := csb.ParameterMetadata
	if metadata == nil || len(metadata.Parameters) == 0 {
		return args, nil
	}
	consumed := 0
	for _, p := range metadata.Parameters {
		var value runtime.Value
		switch {
		case consumed < len(args) && !p.IsSwitch:
			value = args[consumed]
			consumed++
		case p.LazyDefault != nil:
			v, err := p.LazyDefault.Evaluate(fc)
			if err != nil {
				return nil, err
			}
			value = v
		default:
			value = p.DefaultValue
		}
		if value == nil {
			value = runtime.Null
		}
		if !fc.Locals.SetName(p.Name, value) {
			fc.Context.SetVariable(p.Name, value)
		}
	}
	if consumed < len(args) {
		return args[consumed:], nil
	}
	return nil, nil
}

// Options configure compilation.
type Options struct {
	// Optimize enables tuple-slot allocation for user variables; without it
	// every user variable reads through the runtime variable table.
	Optimize bool

	// IsCmdlet is forwarded to variable analysis.
	IsCmdlet bool
}

// Compiler drives the compiling visitor over one script block.
type Compiler struct {
	options Options

	sequencePoints []source.Extent
	loopMarkers    []*EnterLoopMarker
	statementCount int

	// trapDepth marks compilation inside a trap body, where return must
	// unwind to the enclosing function rather than the trap.
	trapDepth int
}

// Compile lowers a checked script block to its executable form.
// Compilation is deterministic: the same AST and options produce the same
// program shape.
func Compile(scriptBlock *ast.ScriptBlockAst, options Options) (*CompiledScriptBlock, error) {
	if !scriptBlock.PostParseChecksPerformed {
		return nil, errors.NewRuntimeError(scriptBlock.Extent(), "CompileError",
			"the script block has not been through the semantic checker")
	}
	if scriptBlock.HadErrors {
		return nil, errors.NewRuntimeError(scriptBlock.Extent(), "CompileError",
			"the script block has semantic errors")
	}

	result := analysis.Analyze(scriptBlock, options.Optimize, options.IsCmdlet)
	c := &Compiler{options: options}

	csb := &CompiledScriptBlock{
		Ast:               scriptBlock,
		Layout:            result.Layout,
		NameToSlot:        result.NameToSlot,
		SuspiciousContent: scriptBlock.HasSuspiciousContent,
	}

	if scriptBlock.ParamBlock != nil {
		metadata, err := params.MaterializeParameters(
			scriptBlock.ParamBlock.Attributes,
			scriptBlock.ParamBlock.Parameters,
			c.compileDefaultValue,
		)
		if err != nil {
			return nil, err
		}
		csb.ParameterMetadata = metadata
	} else {
		csb.ParameterMetadata = &params.ParameterMetadata{}
	}

	var err error
	if scriptBlock.DynamicParamBlock != nil {
		csb.DynamicParam, err = c.compileNamedBlock(scriptBlock.DynamicParamBlock)
		if err != nil {
			return nil, err
		}
	}
	if scriptBlock.BeginBlock != nil {
		csb.Begin, err = c.compileNamedBlock(scriptBlock.BeginBlock)
		if err != nil {
			return nil, err
		}
	}
	if scriptBlock.ProcessBlock != nil {
		csb.Process, err = c.compileNamedBlock(scriptBlock.ProcessBlock)
		if err != nil {
			return nil, err
		}
	}
	if scriptBlock.EndBlock != nil {
		csb.End, err = c.compileNamedBlock(scriptBlock.EndBlock)
		if err != nil {
			return nil, err
		}
	}

	csb.SequencePoints = c.sequencePoints
	csb.LoopMarkers = c.loopMarkers
	csb.NeverOptimize = c.statementCount > neverOptimizeStatementLimit
	return csb, nil
}

// compileDefaultValue compiles a non-constant parameter default into its
// lazy evaluator.
func (c *Compiler) compileDefaultValue(expr ast.Expression) func(*runtime.FunctionContext) (runtime.Value, error) {
	thunk, err := c.compileExpression(expr)
	if err != nil {
		return func(*runtime.FunctionContext) (runtime.Value, error) { return nil, err }
	}
	return thunk
}

// compileNamedBlock wraps a named block's statements as an entry point:
// debugger enter/exit bracketing plus the return-signal catch that gives
// return its function-level semantics.
func (c *Compiler) compileNamedBlock(block *ast.NamedBlock) (actionThunk, error) {
	body, err := c.compileStatementBlock(block.Statements)
	if err != nil {
		return nil, err
	}
	return func(fc *runtime.FunctionContext) error {
		if fc.Context.DebuggingMode() {
			fc.Context.Debugger().EnterScriptFunction(fc)
			defer fc.Context.Debugger().ExitScriptFunction(fc)
		}
		err := body(fc)
		if re, isReturn := err.(*runtime.ReturnException); isReturn {
			if re.Value != nil {
				writeToPipe(fc, fc.OutputPipe, re.Value)
			}
			return nil
		}
		return err
	}, nil
}

// ============================================================================
// Statement blocks
// ============================================================================

// newSequencePoint registers a statement's extent and returns its index.
func (c *Compiler) newSequencePoint(extent source.Extent) int {
	c.sequencePoints = append(c.sequencePoints, extent)
	return len(c.sequencePoints) - 1
}

// compileStatementBlock lowers a statement list to a single dispatch loop
// with one generic handler for the whole block: flow-control signals rethrow
// unchanged, anything else consults the action preference and either
// rethrows or continues with the next statement. The block's traps are
// pushed for its duration.
func (c *Compiler) compileStatementBlock(block *ast.StatementBlock) (actionThunk, error) {
	if block == nil || (len(block.Statements) == 0 && len(block.Traps) == 0) {
		return func(*runtime.FunctionContext) error { return nil }, nil
	}

	trapFrame, err := c.compileTraps(block.Traps)
	if err != nil {
		return nil, err
	}

	thunks := make([]actionThunk, len(block.Statements))
	for i, stmt := range block.Statements {
		seq := c.newSequencePoint(stmt.Extent())
		inner, err := c.compileStatement(stmt)
		if err != nil {
			return nil, err
		}
		first := i == 0
		thunks[i] = func(fc *runtime.FunctionContext) error {
			fc.CurrentSequencePointIndex = seq
			if !first && fc.Context.DebuggingMode() {
				fc.Context.Debugger().OnSequencePointHit(fc)
			}
			return inner(fc)
		}
	}

	return func(fc *runtime.FunctionContext) error {
		if trapFrame != nil {
			fc.PushTrapFrame(trapFrame)
			defer fc.PopTrapFrame()
		}
		for index := 0; index < len(thunks); {
			err := thunks[index](fc)
			if err != nil {
				if runtime.IsFlowControl(err) {
					return err
				}
				if rethrow := checkActionPreference(fc, err); rethrow != nil {
					return rethrow
				}
				// The handler swallowed the error; resume with the next
				// statement.
			} else {
				fc.Context.SetQuestionMarkVariableValue(true)
			}
			index++
		}
		return nil
	}, nil
}

// checkActionPreference decides what to do with an error at a statement
// boundary: traps get the first look, then the propagate-to-enclosing flag
// (set inside try bodies), then the user's error-action preference. A nil
// result means the error was swallowed and execution continues.
func checkActionPreference(fc *runtime.FunctionContext, err error) error {
	fc.Context.SetQuestionMarkVariableValue(false)

	if handled, trapResult := dispatchToTraps(fc, err); handled {
		return trapResult
	}

	if fc.Context.PropagateExceptionsToEnclosingStatementBlock() {
		return err
	}

	switch fc.Context.ErrorActionPreference() {
	case runtime.PreferenceStop:
		return err
	case runtime.PreferenceSilentlyContinue, runtime.PreferenceIgnore, runtime.PreferenceContinue:
		return nil
	default:
		return err
	}
}

// dispatchToTraps runs the innermost matching trap. The trap body's own
// flow statements pick the outcome: continue resumes at the next statement,
// break rethrows the original error, return unwinds the enclosing function.
func dispatchToTraps(fc *runtime.FunctionContext, err error) (bool, error) {
	re, ok := err.(*errors.RuntimeError)
	if !ok {
		return false, nil
	}

	frames := fc.CurrentTrapFrames()
	for i := len(frames) - 1; i >= 0; i-- {
		frame := frames[i]
		for j, trapType := range frame.Types {
			if !trapMatches(trapType, re) {
				continue
			}
			handlerErr := frame.Handlers[j](fc, runtime.NewErrorRecord(re))
			switch signal := handlerErr.(type) {
			case nil:
				return true, nil
			case *runtime.ContinueException:
				return true, nil
			case *runtime.BreakException:
				return true, err
			default:
				return true, signal
			}
		}
	}
	return false, nil
}

func trapMatches(trapType *ast.TypeConstraint, re *errors.RuntimeError) bool {
	if trapType == nil {
		return true
	}
	ref, ok := runtime.LookupType(trapType.TypeName.FullName())
	if !ok || ref.MatchesError == nil {
		return false
	}
	return ref.MatchesError(re)
}

// compileTraps builds the trap frame of a statement block. Trap bodies are
// separate entry points; return inside them unwinds the enclosing function,
// which compileNamedBlock's return catch provides.
func (c *Compiler) compileTraps(traps []*ast.TrapStatement) (*runtime.TrapFrame, error) {
	if len(traps) == 0 {
		return nil, nil
	}
	frame := &runtime.TrapFrame{}
	for _, trap := range traps {
		c.trapDepth++
		body, err := c.compileStatementBlock(trap.Body)
		c.trapDepth--
		if err != nil {
			return nil, err
		}
		frame.Types = append(frame.Types, trap.TrapType)
		frame.Handlers = append(frame.Handlers, func(fc *runtime.FunctionContext, errorRecord runtime.Value) error {
			saved := fc.Locals.GetSlot(runtime.SlotUnderscore)
			fc.Locals.SetSlot(runtime.SlotUnderscore, errorRecord)
			defer fc.Locals.SetSlot(runtime.SlotUnderscore, saved)
			return body(fc)
		})
	}
	return frame, nil
}

// compileError reports a condition the compiler cannot represent.
func compileError(extent source.Extent, format string, args ...any) error {
	return errors.NewRuntimeError(extent, "CompileError", "%s", fmt.Sprintf(format, args...))
}
