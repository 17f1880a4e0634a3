package compiler

import (
	"bufio"
	"os"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/operators"
	"github.com/cwbudde/go-psh/internal/params"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/semantic"
	"github.com/cwbudde/go-psh/internal/source"
)

// compileStatement lowers one statement node.
func (c *Compiler) compileStatement(stmt ast.Statement) (actionThunk, error) {
	c.statementCount++

	switch s := stmt.(type) {
	case *ast.PipelineAst:
		return c.compilePipeline(s)
	case *ast.CommandExpressionAst, *ast.CommandAst:
		stage, err := c.compilePipelineElement(s.(ast.PipelineElement))
		if err != nil {
			return nil, err
		}
		return func(fc *runtime.FunctionContext) error {
			return stage(fc, nil, fc.OutputPipe)
		}, nil
	case *ast.AssignmentStatement:
		return c.compileAssignment(s)
	case *ast.IfStatement:
		return c.compileIf(s)
	case *ast.SwitchStatement:
		return c.compileSwitch(s)
	case *ast.ForStatement:
		return c.compileFor(s)
	case *ast.ForEachStatement:
		return c.compileForEach(s)
	case *ast.WhileStatement:
		return c.compileWhile(s)
	case *ast.DoWhileStatement:
		return c.compileDoLoop(s.Label, s.Condition, s.Body, false, s.Extent())
	case *ast.DoUntilStatement:
		return c.compileDoLoop(s.Label, s.Condition, s.Body, true, s.Extent())
	case *ast.TryStatement:
		return c.compileTry(s)
	case *ast.ThrowStatement:
		return c.compileThrow(s)
	case *ast.ReturnStatement:
		return c.compileReturn(s)
	case *ast.ExitStatement:
		return c.compileExit(s)
	case *ast.BreakStatement:
		return c.compileBreak(s)
	case *ast.ContinueStatement:
		return c.compileContinue(s)
	case *ast.DataStatement:
		return c.compileData(s)
	case *ast.FunctionDefinition:
		return c.compileFunctionDefinition(s)
	case *ast.TypeDefinition:
		// Type emission belongs to the module loader; the definition itself
		// evaluates to nothing.
		return func(*runtime.FunctionContext) error { return nil }, nil
	case *ast.StatementBlock:
		return c.compileStatementBlock(s)
	case *ast.BlockStatement:
		return c.compileStatementBlock(s.Body)
	case *ast.ParamBlock:
		return func(*runtime.FunctionContext) error { return nil }, nil
	default:
		if expr, ok := stmt.(ast.Expression); ok {
			thunk, err := c.compileExpression(expr)
			if err != nil {
				return nil, err
			}
			return func(fc *runtime.FunctionContext) error {
				v, err := thunk(fc)
				if err != nil {
					return err
				}
				writeToPipe(fc, fc.OutputPipe, v)
				return nil
			}, nil
		}
		return nil, compileError(stmt.Extent(), "unsupported statement type %T", stmt)
	}
}

// writeToPipe writes a statement's output value, unrolling one level of
// enumeration the way pipeline output does. Nulls write nothing.
func writeToPipe(fc *runtime.FunctionContext, pipe runtime.Pipe, v runtime.Value) {
	if runtime.IsNull(v) {
		return
	}
	switch val := v.(type) {
	case *runtime.ArrayValue:
		for _, e := range val.Elements {
			pipe.Add(e)
		}
	case *runtime.WrappedValue:
		if enum, ok := val.Value.(runtime.Enumerator); ok {
			for {
				more, err := enum.MoveNext()
				if err != nil || !more {
					return
				}
				cur, err := enum.Current()
				if err != nil {
					return
				}
				pipe.Add(cur)
			}
		}
		pipe.Add(v)
	default:
		pipe.Add(v)
	}
}

// ============================================================================
// Pipelines
// ============================================================================

// pipelineStage runs one pipeline element over its input, writing to sink.
type pipelineStage func(fc *runtime.FunctionContext, input []runtime.Value, sink runtime.Pipe) error

func (c *Compiler) compilePipeline(p *ast.PipelineAst) (actionThunk, error) {
	stages := make([]pipelineStage, len(p.Elements))
	for i, element := range p.Elements {
		stage, err := c.compilePipelineElement(element)
		if err != nil {
			return nil, err
		}
		stages[i] = stage
	}

	return func(fc *runtime.FunctionContext) error {
		var input []runtime.Value
		for i, stage := range stages {
			last := i == len(stages)-1
			if last {
				return stage(fc, input, fc.OutputPipe)
			}
			temp := runtime.NewListPipe()
			if err := stage(fc, input, temp); err != nil {
				return err
			}
			input = temp.Items()
		}
		return nil
	}, nil
}

func (c *Compiler) compilePipelineElement(element ast.PipelineElement) (pipelineStage, error) {
	switch e := element.(type) {
	case *ast.CommandExpressionAst:
		thunk, err := c.compileExpression(e.Expression)
		if err != nil {
			return nil, err
		}
		stage := pipelineStage(func(fc *runtime.FunctionContext, _ []runtime.Value, sink runtime.Pipe) error {
			v, err := thunk(fc)
			if err != nil {
				return err
			}
			writeToPipe(fc, sink, v)
			return nil
		})
		return c.wrapRedirections(stage, e.Redirects)

	case *ast.CommandAst:
		stage, err := c.compileCommand(e)
		if err != nil {
			return nil, err
		}
		return c.wrapRedirections(stage, e.Redirects)

	default:
		return nil, compileError(element.Extent(), "unsupported pipeline element %T", element)
	}
}

// ============================================================================
// Assignment
// ============================================================================

func (c *Compiler) compileAssignment(a *ast.AssignmentStatement) (actionThunk, error) {
	rhs, err := c.compileStatementValue(a.Right)
	if err != nil {
		return nil, err
	}

	if a.Operator.IsCompoundAssignment() {
		getter, setter, err := c.compileAssignableValue(a.Left)
		if err != nil {
			return nil, err
		}
		site := sharedBinarySite(a.Operator.UnderlyingAssignmentOperator(), false)
		errorPos := a.ErrorPosition
		return func(fc *runtime.FunctionContext) error {
			current, err := getter(fc)
			if err != nil {
				return err
			}
			value, err := rhs(fc)
			if err != nil {
				return err
			}
			combined, err := site.Invoke(fc.Context, errorPos, current, value)
			if err != nil {
				return err
			}
			return setter(fc, combined)
		}, nil
	}

	return c.compilePlainAssignment(a.Left, rhs)
}

func (c *Compiler) compilePlainAssignment(lhs ast.Expression, rhs valueThunk) (actionThunk, error) {
	switch target := lhs.(type) {
	case *ast.MemberExpression:
		// The target is captured in a temporary before the right side runs.
		targetThunk, err := c.compileExpression(target.Target)
		if err != nil {
			return nil, err
		}
		name := target.ConstantMemberName()
		var memberThunk valueThunk
		if name == "" {
			memberThunk, err = c.compileExpression(target.Member)
			if err != nil {
				return nil, err
			}
		}
		extent := target.Extent()
		return func(fc *runtime.FunctionContext) error {
			t, err := targetThunk(fc)
			if err != nil {
				return err
			}
			memberName := name
			if memberName == "" {
				m, err := memberThunk(fc)
				if err != nil {
					return err
				}
				memberName = runtime.ToString(m)
			}
			value, err := rhs(fc)
			if err != nil {
				return err
			}
			return operators.SetMember(extent, t, memberName, value)
		}, nil

	case *ast.IndexExpression:
		// Target, then index, then right side, in source order.
		targetThunk, err := c.compileExpression(target.Target)
		if err != nil {
			return nil, err
		}
		indexThunk, err := c.compileExpression(target.Index)
		if err != nil {
			return nil, err
		}
		extent := target.Extent()
		return func(fc *runtime.FunctionContext) error {
			t, err := targetThunk(fc)
			if err != nil {
				return err
			}
			i, err := indexThunk(fc)
			if err != nil {
				return err
			}
			value, err := rhs(fc)
			if err != nil {
				return err
			}
			return operators.SetIndex(extent, t, i, value)
		}, nil

	case *ast.ArrayLiteral:
		return c.compileMultipleAssignment(target, rhs)

	default:
		_, setter, err := c.compileAssignableValue(lhs)
		if err != nil {
			return nil, err
		}
		convert := assignmentConversion(lhs)
		return func(fc *runtime.FunctionContext) error {
			value, err := rhs(fc)
			if err != nil {
				return err
			}
			if convert != nil {
				value, err = convert(fc, value)
				if err != nil {
					return err
				}
			}
			return setter(fc, value)
		}, nil
	}
}

// assignmentConversion returns the declared-cast conversion of an assignment
// target, or nil when the target is uncast.
func assignmentConversion(lhs ast.Expression) func(*runtime.FunctionContext, runtime.Value) (runtime.Value, error) {
	conv, ok := lhs.(*ast.ConvertExpression)
	if !ok || conv.Type.IsRef() {
		return nil
	}
	ref, known := runtime.LookupType(conv.Type.TypeName.FullName())
	if !known {
		return nil
	}
	extent := conv.Extent()
	return func(_ *runtime.FunctionContext, v runtime.Value) (runtime.Value, error) {
		return operators.ConvertTo(extent, ref, v)
	}
}

// compileMultipleAssignment lowers x, y = rhs: the right side is coerced to
// a list, elements are assigned in order, and the final target absorbs the
// remainder. Nested array targets recurse.
func (c *Compiler) compileMultipleAssignment(targets *ast.ArrayLiteral, rhs valueThunk) (actionThunk, error) {
	setter, err := c.compileListSetter(targets)
	if err != nil {
		return nil, err
	}
	return func(fc *runtime.FunctionContext) error {
		value, err := rhs(fc)
		if err != nil {
			return err
		}
		return setter(fc, value)
	}, nil
}

// compileListSetter builds the distributing setter of an array-literal
// assignment target; nested array targets recurse.
func (c *Compiler) compileListSetter(targets *ast.ArrayLiteral) (func(fc *runtime.FunctionContext, value runtime.Value) error, error) {
	setters := make([]func(fc *runtime.FunctionContext, value runtime.Value) error, len(targets.Elements))
	for i, element := range targets.Elements {
		if nested, ok := element.(*ast.ArrayLiteral); ok {
			setter, err := c.compileListSetter(nested)
			if err != nil {
				return nil, err
			}
			setters[i] = setter
			continue
		}
		_, setter, err := c.compileAssignableValue(element)
		if err != nil {
			return nil, err
		}
		setters[i] = setter
	}

	extent := targets.Extent()
	return func(fc *runtime.FunctionContext, value runtime.Value) error {
		elements, err := runtime.Enumerate(fc.Context, extent, value)
		if err != nil {
			return err
		}
		for i, setter := range setters {
			switch {
			case i >= len(elements):
				if err := setter(fc, runtime.Null); err != nil {
					return err
				}
			case i == len(setters)-1 && len(elements) > len(setters):
				rest := make([]runtime.Value, len(elements)-i)
				copy(rest, elements[i:])
				if err := setter(fc, &runtime.ArrayValue{Elements: rest}); err != nil {
					return err
				}
			default:
				if err := setter(fc, elements[i]); err != nil {
					return err
				}
			}
		}
		return nil
	}, nil
}

// compileAssignableValue implements the assignable-value protocol: a
// getter/setter pair over a variable slot, member, or index.
func (c *Compiler) compileAssignableValue(expr ast.Expression) (valueThunk, func(fc *runtime.FunctionContext, value runtime.Value) error, error) {
	switch e := expr.(type) {
	case *ast.VariableExpression:
		getter, err := c.compileVariableRead(e)
		if err != nil {
			return nil, nil, err
		}
		setter, err := c.compileVariableWrite(e)
		if err != nil {
			return nil, nil, err
		}
		return getter, setter, nil

	case *ast.ConvertExpression:
		getter, setter, err := c.compileAssignableValue(e.Child)
		if err != nil {
			return nil, nil, err
		}
		convert := assignmentConversion(e)
		if convert == nil {
			return getter, setter, nil
		}
		converting := func(fc *runtime.FunctionContext, value runtime.Value) error {
			converted, err := convert(fc, value)
			if err != nil {
				return err
			}
			return setter(fc, converted)
		}
		return getter, converting, nil

	case *ast.AttributedExpression:
		return c.compileAssignableValue(e.Child)

	case *ast.MemberExpression:
		getter, err := c.compileMemberAccess(e)
		if err != nil {
			return nil, nil, err
		}
		targetThunk, err := c.compileExpression(e.Target)
		if err != nil {
			return nil, nil, err
		}
		name := e.ConstantMemberName()
		extent := e.Extent()
		setter := func(fc *runtime.FunctionContext, value runtime.Value) error {
			t, err := targetThunk(fc)
			if err != nil {
				return err
			}
			return operators.SetMember(extent, t, name, value)
		}
		return getter, setter, nil

	case *ast.IndexExpression:
		getter, err := c.compileIndex(e)
		if err != nil {
			return nil, nil, err
		}
		targetThunk, err := c.compileExpression(e.Target)
		if err != nil {
			return nil, nil, err
		}
		indexThunk, err := c.compileExpression(e.Index)
		if err != nil {
			return nil, nil, err
		}
		extent := e.Extent()
		setter := func(fc *runtime.FunctionContext, value runtime.Value) error {
			t, err := targetThunk(fc)
			if err != nil {
				return err
			}
			i, err := indexThunk(fc)
			if err != nil {
				return err
			}
			return operators.SetIndex(extent, t, i, value)
		}
		return getter, setter, nil

	case *ast.ParenExpression:
		if p, ok := e.Pipeline.(*ast.PipelineAst); ok {
			if inner := p.PureExpression(); inner != nil {
				return c.compileAssignableValue(inner)
			}
		}
		return nil, nil, compileError(e.Extent(), "the expression cannot be assigned to")

	default:
		return nil, nil, compileError(expr.Extent(), "the expression cannot be assigned to")
	}
}

// ============================================================================
// If
// ============================================================================

// compileCondition lowers a condition statement to a boolean thunk.
// Evaluating a condition does not touch $?.
func (c *Compiler) compileCondition(cond ast.Statement) (func(fc *runtime.FunctionContext) (bool, error), error) {
	thunk, err := c.compileStatementValue(cond)
	if err != nil {
		return nil, err
	}
	return func(fc *runtime.FunctionContext) (bool, error) {
		saved := fc.Context.QuestionMarkVariableValue()
		v, err := thunk(fc)
		fc.Context.SetQuestionMarkVariableValue(saved)
		if err != nil {
			return false, err
		}
		return runtime.IsTruthy(v), nil
	}, nil
}

func (c *Compiler) compileIf(s *ast.IfStatement) (actionThunk, error) {
	type clause struct {
		cond func(fc *runtime.FunctionContext) (bool, error)
		body actionThunk
	}
	clauses := make([]clause, len(s.Clauses))
	for i, cl := range s.Clauses {
		cond, err := c.compileCondition(cl.Condition)
		if err != nil {
			return nil, err
		}
		body, err := c.compileStatementBlock(cl.Body)
		if err != nil {
			return nil, err
		}
		clauses[i] = clause{cond: cond, body: body}
	}
	var elseBody actionThunk
	if s.ElseClause != nil {
		var err error
		elseBody, err = c.compileStatementBlock(s.ElseClause)
		if err != nil {
			return nil, err
		}
	}
	return func(fc *runtime.FunctionContext) error {
		for _, cl := range clauses {
			ok, err := cl.cond(fc)
			if err != nil {
				return err
			}
			if ok {
				return cl.body(fc)
			}
		}
		if elseBody != nil {
			return elseBody(fc)
		}
		return nil
	}, nil
}

// ============================================================================
// Loops
// ============================================================================

// runLoop is the shared loop generator: condition placement, label-aware
// break/continue narrowing, the per-iteration interrupt poll, and the
// compile-on-demand marker bump.
func runLoop(fc *runtime.FunctionContext, label string,
	cond func(fc *runtime.FunctionContext) (bool, error),
	body actionThunk, step actionThunk, condFirst bool, marker *EnterLoopMarker) error {

	for {
		if condFirst && cond != nil {
			ok, err := cond(fc)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}

		err := body(fc)
		if err != nil {
			if be, ok := err.(*runtime.BreakException); ok && be.MatchesLoop(label) {
				return nil
			}
			if ce, ok := err.(*runtime.ContinueException); ok && ce.MatchesLoop(label) {
				err = nil
			}
			if err != nil {
				return err
			}
		}

		if err := runtime.CheckForInterrupts(fc.Context); err != nil {
			return err
		}
		if step != nil {
			if err := step(fc); err != nil {
				return err
			}
		}
		marker.Iterations++

		if !condFirst && cond != nil {
			ok, err := cond(fc)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
	}
}

// newLoopMarker registers a loop's EnterLoop marker.
func (c *Compiler) newLoopMarker(extent source.Extent) *EnterLoopMarker {
	marker := &EnterLoopMarker{Extent: extent}
	c.loopMarkers = append(c.loopMarkers, marker)
	return marker
}

func (c *Compiler) compileFor(s *ast.ForStatement) (actionThunk, error) {
	var initThunk, stepThunk actionThunk
	var err error
	if s.Initializer != nil {
		initThunk, err = c.compileStatement(s.Initializer)
		if err != nil {
			return nil, err
		}
	}
	var cond func(fc *runtime.FunctionContext) (bool, error)
	if s.Condition != nil {
		cond, err = c.compileCondition(s.Condition)
		if err != nil {
			return nil, err
		}
	}
	if s.Iterator != nil {
		step, err := c.compileStatement(s.Iterator)
		if err != nil {
			return nil, err
		}
		stepThunk = func(fc *runtime.FunctionContext) error {
			_, err := captureOutput(fc, step)
			return err
		}
	}
	body, err := c.compileStatementBlock(s.Body)
	if err != nil {
		return nil, err
	}
	marker := c.newLoopMarker(s.Extent())
	label := s.Label
	return func(fc *runtime.FunctionContext) error {
		if initThunk != nil {
			if err := initThunk(fc); err != nil {
				return err
			}
		}
		return runLoop(fc, label, cond, body, stepThunk, true, marker)
	}, nil
}

func (c *Compiler) compileWhile(s *ast.WhileStatement) (actionThunk, error) {
	cond, err := c.compileCondition(s.Condition)
	if err != nil {
		return nil, err
	}
	body, err := c.compileStatementBlock(s.Body)
	if err != nil {
		return nil, err
	}
	marker := c.newLoopMarker(s.Extent())
	label := s.Label
	return func(fc *runtime.FunctionContext) error {
		return runLoop(fc, label, cond, body, nil, true, marker)
	}, nil
}

func (c *Compiler) compileDoLoop(label string, condition ast.Statement, bodyBlock *ast.StatementBlock, negate bool, extent source.Extent) (actionThunk, error) {
	cond, err := c.compileCondition(condition)
	if err != nil {
		return nil, err
	}
	if negate {
		inner := cond
		cond = func(fc *runtime.FunctionContext) (bool, error) {
			ok, err := inner(fc)
			return !ok, err
		}
	}
	body, err := c.compileStatementBlock(bodyBlock)
	if err != nil {
		return nil, err
	}
	marker := c.newLoopMarker(extent)
	return func(fc *runtime.FunctionContext) error {
		return runLoop(fc, label, cond, body, nil, false, marker)
	}, nil
}

func (c *Compiler) compileForEach(s *ast.ForEachStatement) (actionThunk, error) {
	collection, err := c.compileStatementValue(s.Condition)
	if err != nil {
		return nil, err
	}
	setVariable, err := c.compileVariableWrite(s.Variable)
	if err != nil {
		return nil, err
	}
	body, err := c.compileStatementBlock(s.Body)
	if err != nil {
		return nil, err
	}
	marker := c.newLoopMarker(s.Extent())
	label := s.Label
	extent := s.Extent()
	return func(fc *runtime.FunctionContext) error {
		savedForeach := fc.Locals.GetSlot(runtime.SlotForeach)
		defer fc.Locals.SetSlot(runtime.SlotForeach, savedForeach)

		value, err := collection(fc)
		if err != nil {
			return err
		}
		if runtime.IsNull(value) {
			return nil
		}
		enum := runtime.GetEnumerator(value)
		if enum == nil {
			// A scalar collection iterates as a one-element array.
			enum = runtime.NewSliceEnumerator([]runtime.Value{value})
		}
		fc.Locals.SetSlot(runtime.SlotForeach, &runtime.WrappedValue{Value: enum})

		for {
			more, err := runtime.EnumeratorMoveNext(fc.Context, extent, enum)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
			current, err := runtime.EnumeratorCurrent(extent, enum)
			if err != nil {
				return err
			}
			if err := setVariable(fc, current); err != nil {
				return err
			}
			err = body(fc)
			if err != nil {
				if be, ok := err.(*runtime.BreakException); ok && be.MatchesLoop(label) {
					return nil
				}
				if ce, ok := err.(*runtime.ContinueException); ok && ce.MatchesLoop(label) {
					err = nil
				}
				if err != nil {
					return err
				}
			}
			marker.Iterations++
		}
	}, nil
}

// ============================================================================
// Switch
// ============================================================================

type switchClauseThunk struct {
	// scriptBlock is set when the clause condition is a compile-time
	// constant script block, invoked per element.
	scriptBlock *ast.ScriptBlockExpression
	compiled    *CompiledScriptBlock
	condition   valueThunk
	body        actionThunk
}

func (c *Compiler) compileSwitch(s *ast.SwitchStatement) (actionThunk, error) {
	clauses := make([]switchClauseThunk, len(s.Clauses))
	for i, clause := range s.Clauses {
		body, err := c.compileStatementBlock(clause.Body)
		if err != nil {
			return nil, err
		}
		thunk := switchClauseThunk{body: body}
		if sbe, ok := clause.Condition.(*ast.ScriptBlockExpression); ok {
			compiled, err := Compile(sbe.ScriptBlock, c.options)
			if err != nil {
				return nil, err
			}
			thunk.scriptBlock = sbe
			thunk.compiled = compiled
		} else {
			thunk.condition, err = c.compileExpression(clause.Condition)
			if err != nil {
				return nil, err
			}
		}
		clauses[i] = thunk
	}

	var defaultBody actionThunk
	if s.Default != nil {
		var err error
		defaultBody, err = c.compileStatementBlock(s.Default)
		if err != nil {
			return nil, err
		}
	}

	condition, err := c.compileStatementValue(s.Condition)
	if err != nil {
		return nil, err
	}

	flags := s.Flags
	label := s.Label
	extent := s.Extent()
	marker := c.newLoopMarker(extent)

	return func(fc *runtime.FunctionContext) error {
		savedSwitch := fc.Locals.GetSlot(runtime.SlotSwitch)
		defer fc.Locals.SetSlot(runtime.SlotSwitch, savedSwitch)

		var elements []runtime.Value
		if flags.Has(ast.SwitchFile) {
			path, err := condition(fc)
			if err != nil {
				return err
			}
			elements, err = readSwitchFile(extent, runtime.ToString(path))
			if err != nil {
				return err
			}
		} else {
			value, err := condition(fc)
			if err != nil {
				return err
			}
			elements, err = runtime.Enumerate(fc.Context, extent, value)
			if err != nil {
				return err
			}
			if elements == nil {
				elements = []runtime.Value{runtime.Null}
			}
		}

		fc.Locals.SetSlot(runtime.SlotSwitch, &runtime.ArrayValue{Elements: elements})

		for _, element := range elements {
			if err := runtime.CheckForInterrupts(fc.Context); err != nil {
				return err
			}
			marker.Iterations++

			savedUnder := fc.Locals.GetSlot(runtime.SlotUnderscore)
			fc.Locals.SetSlot(runtime.SlotUnderscore, element)

			skipDefault := false
			var clauseErr error
			for _, clause := range clauses {
				matched, err := switchClauseMatches(fc, clause, element, flags, extent)
				if err != nil {
					clauseErr = err
					break
				}
				if !matched {
					continue
				}
				skipDefault = true
				if clauseErr = clause.body(fc); clauseErr != nil {
					break
				}
			}
			if clauseErr == nil && !skipDefault && defaultBody != nil {
				clauseErr = defaultBody(fc)
			}

			fc.Locals.SetSlot(runtime.SlotUnderscore, savedUnder)

			if clauseErr != nil {
				if be, ok := clauseErr.(*runtime.BreakException); ok && be.MatchesLoop(label) {
					return nil
				}
				if ce, ok := clauseErr.(*runtime.ContinueException); ok && ce.MatchesLoop(label) {
					continue
				}
				return clauseErr
			}
		}
		return nil
	}, nil
}

func switchClauseMatches(fc *runtime.FunctionContext, clause switchClauseThunk, element runtime.Value, flags ast.SwitchFlags, extent source.Extent) (bool, error) {
	if clause.compiled != nil {
		out, err := clause.compiled.InvokePipeline(fc.Context, element, nil, nil)
		if err != nil {
			return false, err
		}
		return runtime.IsTruthy(runtime.PipelineResult(out)), nil
	}

	pattern, err := clause.condition(fc)
	if err != nil {
		return false, err
	}
	ignoreCase := !flags.Has(ast.SwitchCaseSensitive)

	switch {
	case flags.Has(ast.SwitchRegex):
		matched, err := operators.Match(fc.Context, extent, element, pattern, ignoreCase, false)
		if err != nil {
			return false, err
		}
		return runtime.IsTruthy(matched), nil
	case flags.Has(ast.SwitchWildcard):
		matched, err := operators.Like(fc.Context, extent, element, pattern, ignoreCase, false)
		if err != nil {
			return false, err
		}
		return runtime.IsTruthy(matched), nil
	default:
		return operators.CompareStrings(runtime.ToString(element), runtime.ToString(pattern), ignoreCase) == 0, nil
	}
}

// readSwitchFile reads the lines of a -file switch source. Flow-control
// signals pass through; file errors wrap as a file-read error.
func readSwitchFile(extent source.Extent, path string) ([]runtime.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewWrappedRuntimeError(extent, errors.IDFileReadError, err)
	}
	defer f.Close()

	var out []runtime.Value
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		out = append(out, runtime.Str(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, runtime.WrapError(err, extent, errors.IDFileReadError)
	}
	return out, nil
}

// ============================================================================
// Function definitions
// ============================================================================

func (c *Compiler) compileFunctionDefinition(s *ast.FunctionDefinition) (actionThunk, error) {
	if len(s.Parameters) > 0 && s.Body.ParamBlock == nil {
		// Parameters declared on the name materialize exactly like a param
		// block; checking guaranteed only one form is present.
		if _, err := params.MaterializeParameters(nil, s.Parameters, c.compileDefaultValue); err != nil {
			return nil, err
		}
	}
	compiled, err := Compile(s.Body, c.options)
	if err != nil {
		return nil, err
	}
	name := s.Name
	return func(fc *runtime.FunctionContext) error {
		ctx := fc.Context
		fc.Context.SetVariable("function:"+name, &runtime.ScriptBlockValue{
			Ast: compiled.Ast,
			Invoke: func(dollarUnder runtime.Value, input, args []runtime.Value) ([]runtime.Value, error) {
				return compiled.InvokePipeline(ctx, dollarUnder, input, args)
			},
		})
		return nil
	}, nil
}

// constantSwitchLabel resolves a break/continue label operand at compile
// time where possible.
func constantSwitchLabel(label ast.Expression) (string, bool) {
	if label == nil {
		return "", true
	}
	if v, ok := semantic.ConstantValueOf(label); ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	if lit := ast.ConstantLabel(label); lit != "" {
		return lit, true
	}
	return "", false
}

func (c *Compiler) compileBreak(s *ast.BreakStatement) (actionThunk, error) {
	if label, ok := constantSwitchLabel(s.Label); ok {
		return func(*runtime.FunctionContext) error {
			return &runtime.BreakException{Label: label}
		}, nil
	}
	labelThunk, err := c.compileExpression(s.Label)
	if err != nil {
		return nil, err
	}
	return func(fc *runtime.FunctionContext) error {
		v, err := labelThunk(fc)
		if err != nil {
			return err
		}
		return &runtime.BreakException{Label: runtime.ToString(v)}
	}, nil
}

func (c *Compiler) compileContinue(s *ast.ContinueStatement) (actionThunk, error) {
	if label, ok := constantSwitchLabel(s.Label); ok {
		return func(*runtime.FunctionContext) error {
			return &runtime.ContinueException{Label: label}
		}, nil
	}
	labelThunk, err := c.compileExpression(s.Label)
	if err != nil {
		return nil, err
	}
	return func(fc *runtime.FunctionContext) error {
		v, err := labelThunk(fc)
		if err != nil {
			return err
		}
		return &runtime.ContinueException{Label: runtime.ToString(v)}
	}, nil
}
