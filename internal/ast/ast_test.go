package ast

import (
	"testing"

	"github.com/cwbudde/go-psh/internal/token"
)

// collectingVisitor records visit order and post-visit count.
type collectingVisitor struct {
	visited   []Node
	postCount int
	action    func(Node) VisitAction
}

func (v *collectingVisitor) Visit(node Node) VisitAction {
	v.visited = append(v.visited, node)
	if v.action != nil {
		return v.action(node)
	}
	return Continue
}

func (v *collectingVisitor) PostVisit(Node) { v.postCount++ }

func sampleTree() (*ScriptBlockAst, *BinaryExpression) {
	expr := NewBinaryExpression(T("1 + 2"), Const(1), token.Plus, Const(2), T("+"))
	script := Script(Stmt(expr))
	return script, expr
}

func TestParentLinks(t *testing.T) {
	script, expr := sampleTree()

	if script.Parent() != nil {
		t.Error("the root script block should have no parent")
	}
	if expr.Left.Parent() != expr {
		t.Error("binary operands should point at the operator node")
	}

	// Every node reachable from the root must appear among its parent's
	// children.
	visitor := &collectingVisitor{}
	Walk(visitor, script)
	for _, node := range visitor.visited {
		parent := node.Parent()
		if parent == nil {
			if node != Node(script) {
				t.Errorf("non-root node %T has no parent", node)
			}
			continue
		}
		found := false
		for _, child := range parent.children() {
			if child == node {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("node %T missing from its parent's children", node)
		}
	}
}

func TestParentSetOnce(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("adopting a node twice should panic")
		}
	}()
	c := Const(1)
	NewBinaryExpression(T(""), c, token.Plus, Const(2), T(""))
	NewBinaryExpression(T(""), c, token.Plus, Const(3), T(""))
}

func TestExtentContainsChildren(t *testing.T) {
	left := NewConstantExpression(T("1"), 1)
	outer := T("1 + 2")
	expr := NewBinaryExpression(outer, left, token.Plus, NewConstantExpression(T("2"), 2), T("+"))
	if !expr.Extent().Contains(left.Extent()) {
		t.Error("a parent's extent should contain its children's extents")
	}
}

func TestWalkOrder(t *testing.T) {
	script, expr := sampleTree()
	visitor := &collectingVisitor{}
	Walk(visitor, script)

	indexOf := func(n Node) int {
		for i, v := range visitor.visited {
			if v == n {
				return i
			}
		}
		return -1
	}
	if indexOf(expr.Left) > indexOf(expr.Right) {
		t.Error("children should be visited left to right")
	}
	if indexOf(Node(expr)) > indexOf(expr.Left) {
		t.Error("a parent should be visited before its children")
	}
	if visitor.postCount == 0 {
		t.Error("post-visit hook should fire")
	}
}

func TestWalkSkipChildren(t *testing.T) {
	script, expr := sampleTree()
	visitor := &collectingVisitor{action: func(n Node) VisitAction {
		if _, ok := n.(*BinaryExpression); ok {
			return SkipChildren
		}
		return Continue
	}}
	Walk(visitor, script)
	for _, n := range visitor.visited {
		if n == Node(expr.Left) {
			t.Error("SkipChildren should prevent visiting operands")
		}
	}
}

func TestWalkStop(t *testing.T) {
	script, _ := sampleTree()
	count := 0
	visitor := &collectingVisitor{action: func(Node) VisitAction {
		count++
		return Stop
	}}
	if Walk(visitor, script) {
		t.Error("a stopped walk should report false")
	}
	if count != 1 {
		t.Errorf("visit count after Stop = %d, want 1", count)
	}
}

func TestVariablePathParsing(t *testing.T) {
	tests := []struct {
		userPath string
		scope    ScopeKind
		name     string
		drive    string
	}{
		{"x", ScopeUnspecified, "x", ""},
		{"global:x", ScopeGlobal, "x", ""},
		{"script:y", ScopeScript, "y", ""},
		{"private:z", ScopePrivate, "z", ""},
		{"local:w", ScopeLocal, "w", ""},
		{"env:PATH", ScopeEnv, "PATH", ""},
		{"Variable:q", ScopeDrive, "q", "Variable"},
	}
	for _, tt := range tests {
		path := NewVariablePath(tt.userPath)
		if path.Scope != tt.scope || path.Name != tt.name || path.DriveName != tt.drive {
			t.Errorf("NewVariablePath(%q) = %+v", tt.userPath, path)
		}
		if path.UserPath != tt.userPath {
			t.Errorf("original text %q not preserved", tt.userPath)
		}
	}
}

func TestTypeNameArrayDepth(t *testing.T) {
	inner := &TypeName{Name: "int"}
	wrapped := &TypeName{Name: "int", Element: &TypeName{Name: "int", Element: inner}}
	if inner.ArrayDepth() != 0 {
		t.Errorf("scalar depth = %d", inner.ArrayDepth())
	}
	if wrapped.ArrayDepth() != 2 {
		t.Errorf("nested depth = %d, want 2", wrapped.ArrayDepth())
	}
	if wrapped.FullName() != "int[][]" {
		t.Errorf("FullName() = %q", wrapped.FullName())
	}
}
