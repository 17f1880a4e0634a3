package analysis

import (
	"testing"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/token"
)

func assignTo(name string) *ast.AssignmentStatement {
	return ast.NewAssignmentStatement(ast.T("$"+name+" = 1"),
		ast.Var(name), token.Equals, ast.Stmt(ast.Const(1)), ast.T("="))
}

func TestAnalyzeAssignsSlots(t *testing.T) {
	read := ast.Var("x")
	script := ast.Script(assignTo("x"), ast.Stmt(read))

	result := Analyze(script, true, false)

	slot := result.Layout.Slot("x")
	if slot < len(runtime.AutomaticVariables) {
		t.Fatalf("user slot %d should follow the automatic variables", slot)
	}
	if read.TupleIndex != slot {
		t.Errorf("read site TupleIndex = %d, want %d", read.TupleIndex, slot)
	}
	if got := result.NameToSlot["x"]; got != slot {
		t.Errorf("NameToSlot[x] = %d, want %d", got, slot)
	}
}

func TestAnalyzeAutomaticVariables(t *testing.T) {
	under := ast.Var("_")
	script := ast.Script(ast.Stmt(under))
	Analyze(script, true, false)
	if under.TupleIndex != runtime.SlotUnderscore {
		t.Errorf("$_ TupleIndex = %d, want %d", under.TupleIndex, runtime.SlotUnderscore)
	}
}

func TestScopedVariablesForcedDynamic(t *testing.T) {
	scoped := ast.NewVariableExpression(ast.T("$global:x"), ast.NewVariablePath("global:x"), false)
	script := ast.Script(ast.Stmt(scoped))
	Analyze(script, true, false)
	if scoped.TupleIndex != ast.TupleIndexUnassigned {
		t.Errorf("scoped variable TupleIndex = %d, want unassigned", scoped.TupleIndex)
	}
}

func TestUnoptimizedForcesUserVariablesDynamic(t *testing.T) {
	read := ast.Var("x")
	script := ast.Script(assignTo("x"), ast.Stmt(read))
	Analyze(script, false, false)
	if read.TupleIndex != ast.TupleIndexUnassigned {
		t.Errorf("unoptimized user variable TupleIndex = %d, want unassigned", read.TupleIndex)
	}
}

func TestNestedScriptBlocksGetTheirOwnTuple(t *testing.T) {
	innerAssign := assignTo("inner")
	innerScript := ast.Script(innerAssign)
	sbe := ast.NewScriptBlockExpression(ast.T("{...}"), innerScript)
	outer := ast.Script(ast.Stmt(sbe))

	result := Analyze(outer, true, false)
	if result.Layout.Slot("inner") != -1 {
		t.Error("a nested block's variables must not leak into the outer tuple")
	}
}

func TestForEachVariableGetsSlot(t *testing.T) {
	loop := ast.NewForEachStatement(ast.T("foreach"), "", 0,
		ast.Var("item"), ast.Stmt(ast.Var("list")), ast.Block(), nil)
	script := ast.Script(loop)
	result := Analyze(script, true, false)
	if result.Layout.Slot("item") < 0 {
		t.Error("the foreach loop variable should receive a slot")
	}
}
