package compiler

import (
	"os"
	"strings"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/operators"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/semantic"
	"github.com/cwbudde/go-psh/internal/token"
)

// compileExpression lowers one expression node.
func (c *Compiler) compileExpression(expr ast.Expression) (valueThunk, error) {
	switch e := expr.(type) {
	case *ast.ConstantExpression:
		boxed := runtime.FromGo(e.Value)
		return func(*runtime.FunctionContext) (runtime.Value, error) { return boxed, nil }, nil

	case *ast.StringConstantExpression:
		boxed := runtime.Str(e.Value)
		return func(*runtime.FunctionContext) (runtime.Value, error) { return boxed, nil }, nil

	case *ast.ExpandableStringExpression:
		return c.compileExpandableString(e)

	case *ast.ArrayLiteral:
		return c.compileArrayLiteral(e)

	case *ast.HashtableAst:
		return c.compileHashtable(e, false)

	case *ast.ScriptBlockExpression:
		return c.compileScriptBlockExpression(e)

	case *ast.SubExpression:
		return c.compileSubExpression(e)

	case *ast.ParenExpression:
		return c.compileParenExpression(e)

	case *ast.VariableExpression:
		return c.compileVariableRead(e)

	case *ast.TypeExpression:
		return c.compileTypeExpression(e)

	case *ast.MemberExpression:
		return c.compileMemberAccess(e)

	case *ast.IndexExpression:
		return c.compileIndex(e)

	case *ast.BaseCtorInvokeMemberExpression:
		return c.compileInvokeMember(&e.InvokeMemberExpression)

	case *ast.InvokeMemberExpression:
		return c.compileInvokeMember(e)

	case *ast.BinaryExpression:
		return c.compileBinary(e)

	case *ast.UnaryExpression:
		return c.compileUnary(e)

	case *ast.ConvertExpression:
		return c.compileConvert(e)

	case *ast.AttributedExpression:
		return c.compileExpression(e.Child)

	case *ast.UsingExpression:
		// Outside a remoting boundary a $using: reference reads the local
		// variable it names.
		return c.compileExpression(e.Child)

	case *ast.CommandParameterAst:
		boxed := runtime.Str("-" + e.ParameterName)
		return func(*runtime.FunctionContext) (runtime.Value, error) { return boxed, nil }, nil

	case *ast.ErrorExpression:
		return nil, compileError(e.Extent(), "cannot compile an error expression")

	default:
		return nil, compileError(expr.Extent(), "unsupported expression type %T", expr)
	}
}

func (c *Compiler) compileExpandableString(e *ast.ExpandableStringExpression) (valueThunk, error) {
	nested := make([]valueThunk, len(e.NestedExpressions))
	for i, n := range e.NestedExpressions {
		thunk, err := c.compileExpression(n)
		if err != nil {
			return nil, err
		}
		nested[i] = thunk
	}
	extent := e.Extent()
	format := e.FormatString
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		args := make([]runtime.Value, len(nested))
		for i, thunk := range nested {
			v, err := thunk(fc)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		out, err := operators.FormatString(extent, format, args)
		if err != nil {
			return nil, err
		}
		return runtime.Str(out), nil
	}, nil
}

func (c *Compiler) compileArrayLiteral(e *ast.ArrayLiteral) (valueThunk, error) {
	elements := make([]valueThunk, len(e.Elements))
	for i, el := range e.Elements {
		thunk, err := c.compileExpression(el)
		if err != nil {
			return nil, err
		}
		elements[i] = thunk
	}
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		out := make([]runtime.Value, len(elements))
		for i, thunk := range elements {
			v, err := thunk(fc)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return &runtime.ArrayValue{Elements: out}, nil
	}, nil
}

func (c *Compiler) compileHashtable(e *ast.HashtableAst, ordered bool) (valueThunk, error) {
	type pairThunk struct {
		key   valueThunk
		value actionThunk
	}
	pairs := make([]pairThunk, len(e.KeyValuePairs))
	for i, kv := range e.KeyValuePairs {
		keyThunk, err := c.compileExpression(kv.Key)
		if err != nil {
			return nil, err
		}
		valueThunk, err := c.compileStatement(kv.Value)
		if err != nil {
			return nil, err
		}
		pairs[i] = pairThunk{key: keyThunk, value: valueThunk}
	}
	extent := e.Extent()
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		table := runtime.NewHashtable(ordered)
		for _, pair := range pairs {
			key, err := pair.key(fc)
			if err != nil {
				return nil, err
			}
			value, err := captureOutput(fc, pair.value)
			if err != nil {
				return nil, err
			}
			keyText := runtime.ToString(key)
			if table.Has(keyText) {
				return nil, errors.NewRuntimeError(extent, errors.IDDuplicateKey,
					"item with key %q has already been added", keyText)
			}
			table.Set(keyText, runtime.PipelineResult(value))
		}
		return table, nil
	}, nil
}

func (c *Compiler) compileScriptBlockExpression(e *ast.ScriptBlockExpression) (valueThunk, error) {
	nested, err := Compile(e.ScriptBlock, c.options)
	if err != nil {
		return nil, err
	}
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		// Each evaluation returns a fresh clone bound to the current
		// execution context.
		ctx := fc.Context
		return &runtime.ScriptBlockValue{
			Ast: nested.Ast,
			Invoke: func(dollarUnder runtime.Value, input, args []runtime.Value) ([]runtime.Value, error) {
				return nested.InvokePipeline(ctx, dollarUnder, input, args)
			},
		}, nil
	}, nil
}

func (c *Compiler) compileSubExpression(e *ast.SubExpression) (valueThunk, error) {
	body, err := c.compileStatementBlock(e.SubStatements)
	if err != nil {
		return nil, err
	}
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		out, err := captureOutput(fc, body)
		if err != nil {
			return nil, err
		}
		return runtime.PipelineResult(out), nil
	}, nil
}

func (c *Compiler) compileParenExpression(e *ast.ParenExpression) (valueThunk, error) {
	return c.compileStatementValue(e.Pipeline)
}

// compileStatementValue lowers a statement referenced in value position:
// its output is captured in a temporary pipe and collapsed to one value.
func (c *Compiler) compileStatementValue(stmt ast.Statement) (valueThunk, error) {
	if p, ok := stmt.(*ast.PipelineAst); ok {
		if inner := p.PureExpression(); inner != nil {
			return c.compileExpression(inner)
		}
	}
	body, err := c.compileStatement(stmt)
	if err != nil {
		return nil, err
	}
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		out, err := captureOutput(fc, body)
		if err != nil {
			return nil, err
		}
		return runtime.PipelineResult(out), nil
	}, nil
}

// captureOutput runs a thunk with a temporary collecting pipe. On error the
// partial output is dropped, never flushed to the caller.
func captureOutput(fc *runtime.FunctionContext, body actionThunk) ([]runtime.Value, error) {
	saved := fc.OutputPipe
	temp := runtime.NewListPipe()
	fc.OutputPipe = temp
	err := body(fc)
	fc.OutputPipe = saved
	if err != nil {
		runtime.ClearPipe(temp)
		return nil, err
	}
	return temp.Items(), nil
}

// ============================================================================
// Variables
// ============================================================================

func (c *Compiler) compileVariableRead(v *ast.VariableExpression) (valueThunk, error) {
	if constant, ok := semantic.ConstantValueOf(v); ok {
		boxed := runtime.FromGo(constant)
		return func(*runtime.FunctionContext) (runtime.Value, error) { return boxed, nil }, nil
	}

	if v.Path.Scope == ast.ScopeEnv {
		name := v.Path.Name
		return func(*runtime.FunctionContext) (runtime.Value, error) {
			return runtime.Str(os.Getenv(name)), nil
		}, nil
	}

	name := v.Path.Name
	if strings.EqualFold(name, "?") {
		return func(fc *runtime.FunctionContext) (runtime.Value, error) {
			return runtime.Bool(fc.Context.QuestionMarkVariableValue()), nil
		}, nil
	}

	slot := v.TupleIndex
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		if slot >= 0 && fc.Locals.WasSet(slot) {
			return fc.Locals.GetSlot(slot), nil
		}
		if value, ok := fc.Context.GetVariable(name); ok {
			return value, nil
		}
		return runtime.Null, nil
	}, nil
}

// compileVariableWrite returns the setter half of a variable's assignable
// value.
func (c *Compiler) compileVariableWrite(v *ast.VariableExpression) (func(fc *runtime.FunctionContext, value runtime.Value) error, error) {
	if v.Path.Scope == ast.ScopeEnv {
		name := v.Path.Name
		return func(_ *runtime.FunctionContext, value runtime.Value) error {
			return os.Setenv(name, runtime.ToString(value))
		}, nil
	}

	name := v.Path.Name
	if strings.EqualFold(name, "?") && v.Path.IsUnqualified() {
		return func(fc *runtime.FunctionContext, value runtime.Value) error {
			fc.Context.SetQuestionMarkVariableValue(runtime.IsTruthy(value))
			return nil
		}, nil
	}

	slot := v.TupleIndex
	return func(fc *runtime.FunctionContext, value runtime.Value) error {
		if slot >= 0 {
			fc.Locals.SetSlot(slot, value)
			return nil
		}
		fc.Context.SetVariable(name, value)
		return nil
	}, nil
}

// ============================================================================
// Types, members, indexes
// ============================================================================

func (c *Compiler) compileTypeExpression(e *ast.TypeExpression) (valueThunk, error) {
	name := e.TypeName.FullName()
	extent := e.Extent()
	if ref, ok := runtime.LookupType(name); ok {
		boxed := &runtime.TypeValue{Ref: ref}
		return func(*runtime.FunctionContext) (runtime.Value, error) { return boxed, nil }, nil
	}
	return func(*runtime.FunctionContext) (runtime.Value, error) {
		return nil, errors.NewRuntimeError(extent, errors.IDConvertFailed,
			"unable to find type [%s]", name)
	}, nil
}

func (c *Compiler) compileMemberAccess(e *ast.MemberExpression) (valueThunk, error) {
	target, err := c.compileExpression(e.Target)
	if err != nil {
		return nil, err
	}
	extent := e.Extent()

	if name := e.ConstantMemberName(); name != "" {
		site := &memberCallSite{name: name, static: e.Static}
		return func(fc *runtime.FunctionContext) (runtime.Value, error) {
			t, err := target(fc)
			if err != nil {
				return nil, err
			}
			return site.get(extent, t)
		}, nil
	}

	member, err := c.compileExpression(e.Member)
	if err != nil {
		return nil, err
	}
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		t, err := target(fc)
		if err != nil {
			return nil, err
		}
		m, err := member(fc)
		if err != nil {
			return nil, err
		}
		return operators.GetMember(extent, t, runtime.ToString(m))
	}, nil
}

func (c *Compiler) compileIndex(e *ast.IndexExpression) (valueThunk, error) {
	target, err := c.compileExpression(e.Target)
	if err != nil {
		return nil, err
	}
	index, err := c.compileExpression(e.Index)
	if err != nil {
		return nil, err
	}
	extent := e.Extent()
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		t, err := target(fc)
		if err != nil {
			return nil, err
		}
		i, err := index(fc)
		if err != nil {
			return nil, err
		}
		return operators.GetIndex(extent, t, i)
	}, nil
}

// staticTypeOf derives the statically known type of an argument expression
// for invocation constraints.
func staticTypeOf(expr ast.Expression) *runtime.TypeRef {
	switch e := expr.(type) {
	case *ast.ConvertExpression:
		if ref, ok := runtime.LookupType(e.Type.TypeName.FullName()); ok {
			return ref
		}
	case *ast.StringConstantExpression:
		return runtime.TypeString
	case *ast.ConstantExpression:
		switch e.Value.(type) {
		case int, int32, int64:
			return runtime.TypeInt
		case float64:
			return runtime.TypeDouble
		case bool:
			return runtime.TypeBool
		}
	}
	return nil
}

func (c *Compiler) compileInvokeMember(e *ast.InvokeMemberExpression) (valueThunk, error) {
	target, err := c.compileExpression(e.Target)
	if err != nil {
		return nil, err
	}
	name := e.ConstantMemberName()
	var member valueThunk
	if name == "" {
		member, err = c.compileExpression(e.Member)
		if err != nil {
			return nil, err
		}
	}
	args := make([]valueThunk, len(e.Arguments))
	constraints := &operators.InvocationConstraints{
		TargetType:    staticTypeOf(e.Target),
		ArgumentTypes: make([]*runtime.TypeRef, len(e.Arguments)),
	}
	for i, a := range e.Arguments {
		thunk, err := c.compileExpression(a)
		if err != nil {
			return nil, err
		}
		args[i] = thunk
		constraints.ArgumentTypes[i] = staticTypeOf(a)
	}

	extent := e.Extent()
	site := &invokeMemberCallSite{name: name, static: e.Static, constraints: constraints}
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		t, err := target(fc)
		if err != nil {
			return nil, err
		}
		methodName := site.name
		if methodName == "" {
			m, err := member(fc)
			if err != nil {
				return nil, err
			}
			methodName = runtime.ToString(m)
		}
		argValues := make([]runtime.Value, len(args))
		for i, thunk := range args {
			v, err := thunk(fc)
			if err != nil {
				return nil, err
			}
			argValues[i] = runtime.CheckAutomationNullInCommandArgument(v)
		}
		if methodName == site.name {
			return site.invoke(extent, t, argValues, nil)
		}
		return operators.CallMethod(extent, t, methodName, site.constraints, argValues, site.static, nil)
	}, nil
}

// ============================================================================
// Operators
// ============================================================================

func (c *Compiler) compileBinary(e *ast.BinaryExpression) (valueThunk, error) {
	switch e.Operator {
	case token.AndAnd, token.OrOr:
		return nil, compileError(e.ErrorPosition, "the token %q is not valid here", e.Operator.String())
	case token.And, token.Or:
		return c.compileShortCircuit(e)
	}

	left, err := c.compileExpression(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.compileExpression(e.Right)
	if err != nil {
		return nil, err
	}

	// A type test against a constant type lowers to a direct check.
	if e.Operator == token.Is || e.Operator == token.IsNot {
		if te, ok := e.Right.(*ast.TypeExpression); ok {
			if ref, found := runtime.LookupType(te.TypeName.FullName()); found {
				negate := e.Operator == token.IsNot
				return func(fc *runtime.FunctionContext) (runtime.Value, error) {
					l, err := left(fc)
					if err != nil {
						return nil, err
					}
					return runtime.Bool(ref.IsInstance(l) != negate), nil
				}, nil
			}
		}
	}

	site := sharedBinarySite(e.Operator, scalarComparisonOperand(e.Left))
	errorPos := e.ErrorPosition
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		l, err := left(fc)
		if err != nil {
			return nil, err
		}
		r, err := right(fc)
		if err != nil {
			return nil, err
		}
		return site.Invoke(fc.Context, errorPos, l, r)
	}, nil
}

// scalarComparisonOperand reports whether the left operand is statically
// known to be scalar, which keys comparison sites separately from the
// enumerable-filtering form.
func scalarComparisonOperand(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.ConstantExpression, *ast.StringConstantExpression, *ast.ExpandableStringExpression:
		return true
	default:
		return false
	}
}

func (c *Compiler) compileShortCircuit(e *ast.BinaryExpression) (valueThunk, error) {
	left, err := c.compileExpression(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.compileExpression(e.Right)
	if err != nil {
		return nil, err
	}
	and := e.Operator == token.And
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		l, err := left(fc)
		if err != nil {
			return nil, err
		}
		if runtime.IsTruthy(l) != and {
			// -and with a false left or -or with a true left decides the
			// result without evaluating the right side.
			return runtime.Bool(!and), nil
		}
		r, err := right(fc)
		if err != nil {
			return nil, err
		}
		return runtime.Bool(runtime.IsTruthy(r)), nil
	}, nil
}

func (c *Compiler) compileUnary(e *ast.UnaryExpression) (valueThunk, error) {
	switch e.Operator {
	case token.PlusPlus, token.MinusMinus, token.PostfixPlusPlus, token.PostfixMinusMinus:
		return c.compileIncrementDecrement(e)
	}

	child, err := c.compileExpression(e.Child)
	if err != nil {
		return nil, err
	}
	op := e.Operator
	extent := e.Extent()
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		v, err := child(fc)
		if err != nil {
			return nil, err
		}
		return operators.UnaryOperation(fc.Context, extent, op, v)
	}, nil
}

// compileIncrementDecrement decomposes ++/-- through the assignable-value
// protocol: read, compute, write back, and return the before- or after-value
// depending on fixity. A null operand under a postfix operator returns 0.
func (c *Compiler) compileIncrementDecrement(e *ast.UnaryExpression) (valueThunk, error) {
	getter, setter, err := c.compileAssignableValue(e.Child)
	if err != nil {
		return nil, err
	}
	increment := e.Operator == token.PlusPlus || e.Operator == token.PostfixPlusPlus
	postfix := e.Operator == token.PostfixPlusPlus || e.Operator == token.PostfixMinusMinus
	extent := e.Extent()
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		before, err := getter(fc)
		if err != nil {
			return nil, err
		}
		if runtime.IsNull(before) {
			before = runtime.Int(0)
		}
		var after runtime.Value
		if increment {
			after, err = operators.Increment(fc.Context, extent, before)
		} else {
			after, err = operators.Decrement(fc.Context, extent, before)
		}
		if err != nil {
			return nil, err
		}
		if err := setter(fc, after); err != nil {
			return nil, err
		}
		if postfix {
			return before, nil
		}
		return after, nil
	}, nil
}

func (c *Compiler) compileConvert(e *ast.ConvertExpression) (valueThunk, error) {
	if e.Type.IsOrdered() {
		hash, ok := e.Child.(*ast.HashtableAst)
		if !ok {
			return nil, compileError(e.Extent(), "[ordered] requires a hash literal")
		}
		return c.compileHashtable(hash, true)
	}
	if e.Type.IsRef() {
		// References wrap the child's assignable value; reading one reads
		// through.
		return c.compileExpression(e.Child)
	}

	child, err := c.compileExpression(e.Child)
	if err != nil {
		return nil, err
	}
	extent := e.Extent()
	name := e.Type.TypeName.FullName()
	ref, known := runtime.LookupType(name)
	if !known {
		return func(*runtime.FunctionContext) (runtime.Value, error) {
			return nil, errors.NewRuntimeError(extent, errors.IDConvertFailed,
				"unable to find type [%s]", name)
		}, nil
	}
	if e.Type.IsVoid() {
		return func(fc *runtime.FunctionContext) (runtime.Value, error) {
			if _, err := child(fc); err != nil {
				return nil, err
			}
			return runtime.Null, nil
		}, nil
	}
	return func(fc *runtime.FunctionContext) (runtime.Value, error) {
		v, err := child(fc)
		if err != nil {
			return nil, err
		}
		return operators.ConvertTo(extent, ref, v)
	}, nil
}
