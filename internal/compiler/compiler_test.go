package compiler_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/token"
	"github.com/cwbudde/go-psh/pkg/psh"
)

func run(t *testing.T, script *ast.ScriptBlockAst) []runtime.Value {
	t.Helper()
	out, err := psh.New().Run(script, nil, nil)
	require.NoError(t, err)
	return out
}

func asStrings(vs []runtime.Value) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = runtime.ToString(v)
	}
	return out
}

func binary(left ast.Expression, op token.Kind, right ast.Expression) *ast.BinaryExpression {
	return ast.NewBinaryExpression(ast.T(""), left, op, right, ast.T(""))
}

func scriptBlockExpr(statements ...ast.Statement) *ast.ScriptBlockExpression {
	return ast.NewScriptBlockExpression(ast.T("{...}"), ast.Script(statements...))
}

// ============================================================================
// End-to-end scenarios
// ============================================================================

func TestPipelineForEachObjectDoubling(t *testing.T) {
	// 1,2,3 | %{ $_ * 2 }
	literal := ast.NewArrayLiteral(ast.T("1,2,3"), []ast.Expression{
		ast.Const(1), ast.Const(2), ast.Const(3),
	})
	body := scriptBlockExpr(ast.Stmt(binary(ast.Var("_"), token.Multiply, ast.Const(2))))
	pipeline := ast.NewPipelineAst(ast.T(""), []ast.PipelineElement{
		ast.NewCommandExpressionAst(ast.T("1,2,3"), literal, nil),
		ast.NewCommandAst(ast.T("%{...}"), []ast.Expression{ast.Bare("%"), body}, nil),
	})

	out := run(t, ast.Script(pipeline))
	assert.Equal(t, []string{"2", "4", "6"}, asStrings(out))
}

func TestReplaceOperatorScenario(t *testing.T) {
	// "abc" -replace "b","BB"
	expr := binary(ast.Text("abc"), token.Ireplace,
		ast.NewArrayLiteral(ast.T(""), []ast.Expression{ast.Text("b"), ast.Text("BB")}))
	out := run(t, ast.Script(ast.Stmt(expr)))
	assert.Equal(t, []string{"aBBc"}, asStrings(out))
}

func TestForLoopScenario(t *testing.T) {
	// for ($i=0; $i -lt 3; ++$i) { "x$i" }
	init := ast.NewAssignmentStatement(ast.T("$i = 0"), ast.Var("i"), token.Equals,
		ast.Stmt(ast.Const(0)), ast.T("="))
	cond := ast.Stmt(binary(ast.Var("i"), token.Ilt, ast.Const(3)))
	step := ast.Stmt(ast.NewUnaryExpression(ast.T("++$i"), token.PlusPlus, ast.Var("i")))
	bodyExpr := ast.NewExpandableStringExpression(ast.T(`"x$i"`), "x$i", "x{0}",
		[]ast.Expression{ast.Var("i")})
	loop := ast.NewForStatement(ast.T("for"), "", init, cond, step, ast.Block(ast.Stmt(bodyExpr)))

	out := run(t, ast.Script(loop))
	assert.Equal(t, []string{"x0", "x1", "x2"}, asStrings(out))
}

func TestTryCatchFinallyScenario(t *testing.T) {
	// try { throw "e" } catch { $_.ToString() } finally { "f" }
	tryBody := ast.Block(ast.NewThrowStatement(ast.T(`throw "e"`), ast.Stmt(ast.Text("e"))))
	catchBody := ast.Block(ast.Stmt(ast.NewInvokeMemberExpression(ast.T("$_.ToString()"),
		ast.Var("_"), ast.Bare("ToString"), nil, false)))
	finallyBody := ast.Block(ast.Stmt(ast.Text("f")))
	try := ast.NewTryStatement(ast.T("try"), tryBody,
		[]*ast.CatchClause{ast.NewCatchClause(ast.T("catch"), nil, catchBody)}, finallyBody)

	engine := psh.New()
	compiled, err := engine.Compile(ast.Script(try))
	require.NoError(t, err)

	ctx := runtime.NewExecutionContext()
	out, err := engine.InvokeWithContext(ctx, compiled, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "f"}, asStrings(out))
	assert.True(t, ctx.QuestionMarkVariableValue(), "$? is true after a handled exception")
}

func TestRegexSwitchScenario(t *testing.T) {
	// switch -regex ("hello") { "^h" { "H" } "^x" { "X" } default { "D" } }
	clause := func(pattern, result string) ast.SwitchClause {
		return ast.SwitchClause{
			Condition: ast.Text(pattern),
			Body:      ast.Block(ast.Stmt(ast.Text(result))),
		}
	}
	sw := ast.NewSwitchStatement(ast.T("switch"), "", ast.Stmt(ast.Text("hello")),
		ast.SwitchRegex,
		[]ast.SwitchClause{clause("^h", "H"), clause("^x", "X")},
		ast.Block(ast.Stmt(ast.Text("D"))))

	out := run(t, ast.Script(sw))
	assert.Equal(t, []string{"H"}, asStrings(out))
}

func TestSwitchDefaultClause(t *testing.T) {
	sw := ast.NewSwitchStatement(ast.T("switch"), "", ast.Stmt(ast.Text("zzz")),
		ast.SwitchRegex,
		[]ast.SwitchClause{{Condition: ast.Text("^h"), Body: ast.Block(ast.Stmt(ast.Text("H")))}},
		ast.Block(ast.Stmt(ast.Text("D"))))
	out := run(t, ast.Script(sw))
	assert.Equal(t, []string{"D"}, asStrings(out))
}

func TestDataSectionScenario(t *testing.T) {
	// data d { ConvertFrom-StringData "a=2" } ; $d
	cmd := ast.NewCommandAst(ast.T("ConvertFrom-StringData"), []ast.Expression{
		ast.Bare("ConvertFrom-StringData"), ast.Text("a=2"),
	}, nil)
	pipeline := ast.NewPipelineAst(ast.T(""), []ast.PipelineElement{cmd})
	data := ast.NewDataStatement(ast.T("data d"), "d",
		[]string{"ConvertFrom-StringData"}, ast.Block(pipeline))

	out := run(t, ast.Script(data, ast.Stmt(ast.Var("d"))))
	require.Len(t, out, 1)
	table, ok := out[0].(*runtime.HashtableValue)
	require.True(t, ok, "the data section result should be a hashtable, got %T", out[0])
	v, _ := table.Get("a")
	assert.Equal(t, "2", runtime.ToString(v))
}

func TestDataSectionRestoresLanguageMode(t *testing.T) {
	data := ast.NewDataStatement(ast.T("data"), "", nil, ast.Block(ast.Stmt(ast.Text("x"))))
	engine := psh.New()
	compiled, err := engine.Compile(ast.Script(data))
	require.NoError(t, err)

	ctx := runtime.NewExecutionContext()
	_, err = engine.InvokeWithContext(ctx, compiled, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, runtime.FullLanguage, ctx.LanguageMode())
}

// ============================================================================
// Control flow
// ============================================================================

func TestLabelledBreakLeavesOuterLoop(t *testing.T) {
	// :outer while ($true) { while ($true) { "once"; break outer } }
	inner := ast.NewWhileStatement(ast.T("while"), "",
		ast.Stmt(ast.Const(true)),
		ast.Block(
			ast.Stmt(ast.Text("once")),
			ast.NewBreakStatement(ast.T("break outer"), ast.Bare("outer")),
		))
	outer := ast.NewWhileStatement(ast.T("while"), "outer",
		ast.Stmt(ast.Const(true)), ast.Block(inner))

	out := run(t, ast.Script(outer))
	assert.Equal(t, []string{"once"}, asStrings(out))
}

func TestContinueSkipsRestOfIteration(t *testing.T) {
	// foreach ($n in 1..4) { if ($n % 2 -eq 0) { continue }; $n }
	rangeExpr := binary(ast.Const(1), token.DotDot, ast.Const(4))
	cond := ast.Stmt(binary(
		binary(ast.Var("n"), token.Rem, ast.Const(2)),
		token.Ieq, ast.Const(0)))
	ifStmt := ast.NewIfStatement(ast.T("if"), []ast.IfClause{{
		Condition: cond,
		Body:      ast.Block(ast.NewContinueStatement(ast.T("continue"), nil)),
	}}, nil)
	loop := ast.NewForEachStatement(ast.T("foreach"), "", 0, ast.Var("n"),
		ast.Stmt(rangeExpr), ast.Block(ifStmt, ast.Stmt(ast.Var("n"))), nil)

	out := run(t, ast.Script(loop))
	assert.Equal(t, []string{"1", "3"}, asStrings(out))
}

func TestDoUntilRunsBodyAtLeastOnce(t *testing.T) {
	// do { "tick" } until ($true)
	loop := ast.NewDoUntilStatement(ast.T("do"), "",
		ast.Stmt(ast.Const(true)), ast.Block(ast.Stmt(ast.Text("tick"))))
	out := run(t, ast.Script(loop))
	assert.Equal(t, []string{"tick"}, asStrings(out))
}

func TestWhereObjectFilters(t *testing.T) {
	// 1..5 | ? { $_ -gt 3 }
	rangeExpr := binary(ast.Const(1), token.DotDot, ast.Const(5))
	filter := scriptBlockExpr(ast.Stmt(binary(ast.Var("_"), token.Igt, ast.Const(3))))
	pipeline := ast.NewPipelineAst(ast.T(""), []ast.PipelineElement{
		ast.NewCommandExpressionAst(ast.T("1..5"), rangeExpr, nil),
		ast.NewCommandAst(ast.T("? {...}"), []ast.Expression{ast.Bare("?"), filter}, nil),
	})
	out := run(t, ast.Script(pipeline))
	assert.Equal(t, []string{"4", "5"}, asStrings(out))
}

func TestExitCarriesCode(t *testing.T) {
	script := ast.Script(ast.NewExitStatement(ast.T("exit 42"), ast.Stmt(ast.Const(42))))
	_, err := psh.New().Run(script, nil, nil)
	require.Error(t, err)
	exit, ok := err.(*runtime.ExitException)
	require.True(t, ok, "exit should surface as the exit signal, got %T", err)
	assert.Equal(t, "42", runtime.ToString(exit.Code))
}

func TestRethrowWithoutCurrentException(t *testing.T) {
	// A bare throw outside any catch has nothing to rethrow.
	script := ast.Script(ast.NewThrowStatement(ast.T("throw"), nil))
	engine := psh.New()
	compiled, err := engine.Compile(script)
	require.NoError(t, err)

	ctx := runtime.NewExecutionContext()
	ctx.SetErrorActionPreference(runtime.PreferenceStop)
	_, err = engine.InvokeWithContext(ctx, compiled, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RethrowNotInCatch")
}

func TestTrapContinuesWithNextStatement(t *testing.T) {
	// trap { continue } ; throw "boom" ; "after"
	trap := ast.NewTrapStatement(ast.T("trap"), nil,
		ast.Block(ast.NewContinueStatement(ast.T("continue"), nil)))
	throw := ast.NewThrowStatement(ast.T(`throw "boom"`), ast.Stmt(ast.Text("boom")))
	block := ast.NewStatementBlock(ast.T(""), []ast.Statement{throw, ast.Stmt(ast.Text("after"))},
		[]*ast.TrapStatement{trap})
	end := ast.NewNamedBlock(ast.T(""), ast.EndBlock, block, true)
	script := ast.NewScriptBlockAst(ast.T(""), nil, nil, nil, nil, end)

	out := run(t, script)
	assert.Equal(t, []string{"after"}, asStrings(out))
}

func TestTrapBreakRethrows(t *testing.T) {
	trap := ast.NewTrapStatement(ast.T("trap"), nil,
		ast.Block(ast.NewBreakStatement(ast.T("break"), nil)))
	throw := ast.NewThrowStatement(ast.T(`throw "boom"`), ast.Stmt(ast.Text("boom")))
	block := ast.NewStatementBlock(ast.T(""), []ast.Statement{throw, ast.Stmt(ast.Text("after"))},
		[]*ast.TrapStatement{trap})
	end := ast.NewNamedBlock(ast.T(""), ast.EndBlock, block, true)
	script := ast.NewScriptBlockAst(ast.T(""), nil, nil, nil, nil, end)

	_, err := psh.New().Run(script, nil, nil)
	require.Error(t, err, "a trap ending in break rethrows the original error")
}

// ============================================================================
// Expressions and assignment
// ============================================================================

func TestIncrementDecrementRestoreValue(t *testing.T) {
	// $x = 5 ; $null = $x++ ; $null = $x-- ; $x
	statements := []ast.Statement{
		ast.NewAssignmentStatement(ast.T("$x = 5"), ast.Var("x"), token.Equals,
			ast.Stmt(ast.Const(5)), ast.T("=")),
		ast.NewAssignmentStatement(ast.T("$null = $x++"), ast.Var("null2"), token.Equals,
			ast.Stmt(ast.NewUnaryExpression(ast.T("$x++"), token.PostfixPlusPlus, ast.Var("x"))), ast.T("=")),
		ast.NewAssignmentStatement(ast.T("$null = $x--"), ast.Var("null3"), token.Equals,
			ast.Stmt(ast.NewUnaryExpression(ast.T("$x--"), token.PostfixMinusMinus, ast.Var("x"))), ast.T("=")),
		ast.Stmt(ast.Var("x")),
	}
	out := run(t, ast.Script(statements...))
	assert.Equal(t, []string{"5"}, asStrings(out))
}

func TestPostfixIncrementOnNullYieldsZero(t *testing.T) {
	// $y = $unset++ ; $y
	statements := []ast.Statement{
		ast.NewAssignmentStatement(ast.T("$y = $unset++"), ast.Var("y"), token.Equals,
			ast.Stmt(ast.NewUnaryExpression(ast.T("$unset++"), token.PostfixPlusPlus, ast.Var("unset"))), ast.T("=")),
		ast.Stmt(ast.Var("y")),
	}
	out := run(t, ast.Script(statements...))
	assert.Equal(t, []string{"0"}, asStrings(out))
}

func TestCompoundAssignment(t *testing.T) {
	statements := []ast.Statement{
		ast.NewAssignmentStatement(ast.T("$x = 10"), ast.Var("x"), token.Equals,
			ast.Stmt(ast.Const(10)), ast.T("=")),
		ast.NewAssignmentStatement(ast.T("$x += 5"), ast.Var("x"), token.PlusEquals,
			ast.Stmt(ast.Const(5)), ast.T("+=")),
		ast.Stmt(ast.Var("x")),
	}
	out := run(t, ast.Script(statements...))
	assert.Equal(t, []string{"15"}, asStrings(out))
}

func TestMultipleAssignment(t *testing.T) {
	// $a, $b = 1, 2, 3 ; $a ; $b
	targets := ast.NewArrayLiteral(ast.T("$a, $b"), []ast.Expression{ast.Var("a"), ast.Var("b")})
	rhs := ast.Stmt(ast.NewArrayLiteral(ast.T("1,2,3"), []ast.Expression{
		ast.Const(1), ast.Const(2), ast.Const(3),
	}))
	statements := []ast.Statement{
		ast.NewAssignmentStatement(ast.T(""), targets, token.Equals, rhs, ast.T("=")),
		ast.Stmt(ast.Var("a")),
		ast.Stmt(ast.Var("b")),
	}
	// $b absorbed the remainder (2, 3); statement output unrolls it.
	out := run(t, ast.Script(statements...))
	assert.Equal(t, []string{"1", "2", "3"}, asStrings(out))
}

func TestHashtableLiteralAndIndexing(t *testing.T) {
	// $h = @{name = "psh"} ; $h["name"]
	hash := ast.NewHashtableAst(ast.T("@{...}"), []ast.KeyValuePair{
		{Key: ast.Bare("name"), Value: ast.Stmt(ast.Text("psh"))},
	})
	statements := []ast.Statement{
		ast.NewAssignmentStatement(ast.T(""), ast.Var("h"), token.Equals, ast.Stmt(hash), ast.T("=")),
		ast.Stmt(ast.NewIndexExpression(ast.T(`$h["name"]`), ast.Var("h"), ast.Text("name"))),
		ast.Stmt(ast.NewMemberExpression(ast.T("$h.name"), ast.Var("h"), ast.Bare("name"), false)),
	}
	out := run(t, ast.Script(statements...))
	assert.Equal(t, []string{"psh", "psh"}, asStrings(out))
}

func TestShortCircuitEvaluation(t *testing.T) {
	// $false -and (1/0) must not divide by zero.
	division := ast.NewParenExpression(ast.T("(1/0)"),
		ast.Stmt(binary(ast.Const(1), token.Divide, ast.Const(0))))
	expr := binary(ast.Const(false), token.And, division)
	out := run(t, ast.Script(ast.Stmt(expr)))
	assert.Equal(t, []string{"False"}, asStrings(out))
}

func TestSubExpressionCapturesStatementOutput(t *testing.T) {
	// $("a"; "b")
	sub := ast.NewSubExpression(ast.T(`$("a"; "b")`),
		ast.Block(ast.Stmt(ast.Text("a")), ast.Stmt(ast.Text("b"))))
	out := run(t, ast.Script(ast.Stmt(sub)))
	assert.Equal(t, []string{"a", "b"}, asStrings(out))
}

func TestConvertExpression(t *testing.T) {
	conv := ast.NewConvertExpression(ast.T(`[int]"42"`),
		ast.NewTypeConstraint(ast.T("[int]"), &ast.TypeName{Name: "int"}),
		ast.Text("42"))
	out := run(t, ast.Script(ast.Stmt(conv)))
	require.Len(t, out, 1)
	assert.Equal(t, runtime.Int(42), out[0])
}

func TestFunctionDefinitionAndCall(t *testing.T) {
	// function Get-Greeting { "hello" } ; Get-Greeting
	body := ast.Script(ast.Stmt(ast.Text("hello")))
	def := ast.NewFunctionDefinition(ast.T("function"), "Get-Greeting", false, false, nil, body)
	call := ast.NewPipelineAst(ast.T(""), []ast.PipelineElement{
		ast.NewCommandAst(ast.T("Get-Greeting"), []ast.Expression{ast.Bare("Get-Greeting")}, nil),
	})
	out := run(t, ast.Script(def, call))
	assert.Equal(t, []string{"hello"}, asStrings(out))
}

func TestOutputRedirectionToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	redirect := ast.NewFileRedirection(ast.T("> out.txt"), ast.StreamOutput, false, ast.Text(path))
	element := ast.NewCommandExpressionAst(ast.T(`"hello"`), ast.Text("hello"), []ast.Redirection{redirect})
	pipeline := ast.NewPipelineAst(ast.T(""), []ast.PipelineElement{element})

	out := run(t, ast.Script(pipeline))
	assert.Empty(t, out, "redirected output bypasses the caller's pipe")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(content))
}

func TestStatementBlockContinuesAfterError(t *testing.T) {
	// With the default action preference the block swallows the failing
	// statement and runs the next one.
	failing := ast.Stmt(binary(ast.Const(1), token.Divide, ast.Const(0)))
	script := ast.Script(failing, ast.Stmt(ast.Text("survived")))

	engine := psh.New()
	compiled, err := engine.Compile(script)
	require.NoError(t, err)

	ctx := runtime.NewExecutionContext()
	out, err := engine.InvokeWithContext(ctx, compiled, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"survived"}, asStrings(out))

	// The same program rethrows under a Stop preference.
	stopCtx := runtime.NewExecutionContext()
	stopCtx.SetErrorActionPreference(runtime.PreferenceStop)
	compiled2, err := engine.Compile(ast.Script(
		ast.Stmt(binary(ast.Const(1), token.Divide, ast.Const(0))),
		ast.Stmt(ast.Text("survived"))))
	require.NoError(t, err)
	_, err = engine.InvokeWithContext(stopCtx, compiled2, nil, nil)
	require.Error(t, err)
}

func TestSequencePointsPerStatement(t *testing.T) {
	script := ast.Script(
		ast.Stmt(ast.Const(1)),
		ast.Stmt(ast.Const(2)),
		ast.Stmt(ast.Const(3)),
	)
	compiled, err := psh.New().Compile(script)
	require.NoError(t, err)
	assert.Len(t, compiled.SequencePoints, 3, "one sequence point per statement")
}

func TestCompileIsDeterministic(t *testing.T) {
	build := func() *ast.ScriptBlockAst {
		return ast.Script(
			ast.Stmt(binary(ast.Const(1), token.Plus, ast.Const(2))),
			ast.Stmt(ast.Text("x")),
		)
	}
	engine := psh.New()
	a, err := engine.Compile(build())
	require.NoError(t, err)
	b, err := engine.Compile(build())
	require.NoError(t, err)

	assert.Equal(t, len(a.SequencePoints), len(b.SequencePoints))
	assert.Equal(t, a.NameToSlot, b.NameToSlot)
	assert.Equal(t, a.NeverOptimize, b.NeverOptimize)

	outA, err := engine.Invoke(a, nil, nil)
	require.NoError(t, err)
	outB, err := engine.Invoke(b, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, asStrings(outA), asStrings(outB))
}

func TestCheckErrorsBlockCompilation(t *testing.T) {
	bad := ast.NewUnaryExpression(ast.T("5++"), token.PostfixPlusPlus, ast.Const(5))
	_, err := psh.New().Compile(ast.Script(ast.Stmt(bad)))
	require.Error(t, err)
	var checkErr *psh.CheckError
	require.ErrorAs(t, err, &checkErr)
	require.True(t, checkErr.Bag.HasErrors())
}

func TestParameterBinding(t *testing.T) {
	// param($name = "default") ; "hi $name"
	p := ast.NewParameter(ast.T(`$name = "default"`), ast.Var("name"), nil, ast.Text("default"))
	pb := ast.NewParamBlock(ast.T("param"), nil, []*ast.Parameter{p})
	greeting := ast.NewExpandableStringExpression(ast.T(`"hi $name"`), "hi $name", "hi {0}",
		[]ast.Expression{ast.Var("name")})
	block := ast.NewStatementBlock(ast.T(""), []ast.Statement{ast.Stmt(greeting)}, nil)
	end := ast.NewNamedBlock(ast.T(""), ast.EndBlock, block, true)
	script := ast.NewScriptBlockAst(ast.T(""), pb, nil, nil, nil, end)

	engine := psh.New()
	compiled, err := engine.Compile(script)
	require.NoError(t, err)

	out, err := engine.Invoke(compiled, nil, []runtime.Value{runtime.Str("world")})
	require.NoError(t, err)
	assert.Equal(t, []string{"hi world"}, asStrings(out))

	out, err = engine.Invoke(compiled, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hi default"}, asStrings(out))
}
