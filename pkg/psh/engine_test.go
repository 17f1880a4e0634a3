package psh_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/token"
	"github.com/cwbudde/go-psh/pkg/psh"
)

// fixture pairs a description of a program with its AST builder; outputs are
// snapshotted so behavior drift shows up in review.
type fixture struct {
	name  string
	text  string
	build func() *ast.ScriptBlockAst
}

func binary(left ast.Expression, op token.Kind, right ast.Expression) *ast.BinaryExpression {
	return ast.NewBinaryExpression(ast.T(""), left, op, right, ast.T(""))
}

var fixtures = []fixture{
	{
		name: "arithmetic",
		text: "(2 + 3) * 4",
		build: func() *ast.ScriptBlockAst {
			sum := ast.NewParenExpression(ast.T("(2 + 3)"),
				ast.Stmt(binary(ast.Const(2), token.Plus, ast.Const(3))))
			return ast.Script(ast.Stmt(binary(sum, token.Multiply, ast.Const(4))))
		},
	},
	{
		name: "string-ops",
		text: `"a,b,c" -split ","; "x" + "y"`,
		build: func() *ast.ScriptBlockAst {
			split := binary(ast.Text("a,b,c"), token.Isplit, ast.Text(","))
			return ast.Script(
				ast.Stmt(split),
				ast.Stmt(binary(ast.Text("x"), token.Plus, ast.Text("y"))),
			)
		},
	},
	{
		name: "comparison-filter",
		text: "1,2,3,2 -ieq 2",
		build: func() *ast.ScriptBlockAst {
			list := ast.NewArrayLiteral(ast.T(""), []ast.Expression{
				ast.Const(1), ast.Const(2), ast.Const(3), ast.Const(2),
			})
			return ast.Script(ast.Stmt(binary(list, token.Ieq, ast.Const(2))))
		},
	},
	{
		name: "while-countdown",
		text: "$n = 3; while ($n -gt 0) { $n; $n = $n - 1 }",
		build: func() *ast.ScriptBlockAst {
			init := ast.NewAssignmentStatement(ast.T(""), ast.Var("n"), token.Equals,
				ast.Stmt(ast.Const(3)), ast.T("="))
			dec := ast.NewAssignmentStatement(ast.T(""), ast.Var("n"), token.Equals,
				ast.Stmt(binary(ast.Var("n"), token.Minus, ast.Const(1))), ast.T("="))
			loop := ast.NewWhileStatement(ast.T(""), "",
				ast.Stmt(binary(ast.Var("n"), token.Igt, ast.Const(0))),
				ast.Block(ast.Stmt(ast.Var("n")), dec))
			return ast.Script(init, loop)
		},
	},
}

func TestEngineFixtures(t *testing.T) {
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			out, err := psh.New().Run(f.build(), nil, nil)
			if err != nil {
				t.Fatalf("fixture %q failed: %v", f.name, err)
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "program: %s\n", f.text)
			for _, v := range out {
				fmt.Fprintf(&sb, "%s: %s\n", v.Type(), v.String())
			}
			snaps.MatchSnapshot(t, sb.String())
		})
	}
}

func TestCheckErrorFormatting(t *testing.T) {
	bad := ast.NewUnaryExpression(ast.T("5++"), token.PostfixPlusPlus, ast.Const(5))
	_, err := psh.New().Run(ast.Script(ast.Stmt(bad)), nil, nil)
	if err == nil {
		t.Fatal("expected a check error")
	}
	var checkErr *psh.CheckError
	if !asCheckError(err, &checkErr) {
		t.Fatalf("expected *psh.CheckError, got %T", err)
	}
	snaps.MatchSnapshot(t, checkErr.Bag.Diagnostics()[0].ID)
}

func asCheckError(err error, target **psh.CheckError) bool {
	ce, ok := err.(*psh.CheckError)
	if ok {
		*target = ce
	}
	return ok
}

func TestUnoptimizedEngineMatchesOptimized(t *testing.T) {
	build := func() *ast.ScriptBlockAst {
		assign := ast.NewAssignmentStatement(ast.T(""), ast.Var("x"), token.Equals,
			ast.Stmt(ast.Const(7)), ast.T("="))
		return ast.Script(assign, ast.Stmt(binary(ast.Var("x"), token.Plus, ast.Const(1))))
	}

	fast, err := psh.New().Run(build(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	slow, err := psh.New(psh.WithOptimization(false)).Run(build(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(fast) != len(slow) || runtime.ToString(fast[0]) != runtime.ToString(slow[0]) {
		t.Errorf("optimized and unoptimized runs disagree: %v vs %v", fast, slow)
	}
}
