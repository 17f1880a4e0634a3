// Package analysis implements the variable-analysis pass that assigns local
// variables their fixed slots in the locals tuple. The compiler consumes its
// result to size the tuple and to read slot indexes off variable nodes.
package analysis

import (
	"strings"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/runtime"
)

// Result is the output contract of variable analysis: the tuple layout plus
// the name-to-slot map handed to the compiled script block's consumers.
type Result struct {
	Layout     *runtime.TupleLayout
	NameToSlot map[string]int
}

// Analyze walks one script block (not descending into nested script blocks,
// which get their own tuples) and assigns every locally written variable a
// tuple slot. Scope-qualified variables are forced dynamic: they keep slot
// -1 and read through the runtime variable table.
//
// With optimize false every user variable is forced dynamic and only the
// automatic variables receive slots. isCmdlet reserves nothing extra today;
// the flag is part of the contract so callers do not churn when it does.
func Analyze(scriptBlock *ast.ScriptBlockAst, optimize, isCmdlet bool) *Result {
	collector := &variableCollector{
		root:     scriptBlock,
		optimize: optimize,
		seen:     make(map[string]bool),
	}
	ast.Walk(collector, scriptBlock)

	layout := runtime.NewTupleLayout(collector.names)

	assigner := &slotAssigner{root: scriptBlock, layout: layout, optimize: optimize}
	ast.Walk(assigner, scriptBlock)

	return &Result{Layout: layout, NameToSlot: layout.NameToSlot()}
}

// variableCollector gathers the names that deserve slots: assignment
// targets, parameters, and foreach loop variables.
type variableCollector struct {
	root     *ast.ScriptBlockAst
	optimize bool
	names    []string
	seen     map[string]bool
}

func (vc *variableCollector) Visit(node ast.Node) ast.VisitAction {
	if sb, ok := node.(*ast.ScriptBlockAst); ok && sb != vc.root {
		return ast.SkipChildren
	}
	if !vc.optimize {
		return ast.Continue
	}

	switch n := node.(type) {
	case *ast.AssignmentStatement:
		vc.collectTarget(n.Left)
	case *ast.Parameter:
		vc.add(n.Name)
	case *ast.ForEachStatement:
		vc.add(n.Variable)
	}
	return ast.Continue
}

func (vc *variableCollector) PostVisit(ast.Node) {}

func (vc *variableCollector) collectTarget(lhs ast.Expression) {
	switch target := lhs.(type) {
	case *ast.VariableExpression:
		vc.add(target)
	case *ast.ConvertExpression:
		vc.collectTarget(target.Child)
	case *ast.AttributedExpression:
		vc.collectTarget(target.Child)
	case *ast.ArrayLiteral:
		for _, el := range target.Elements {
			vc.collectTarget(el)
		}
	case *ast.ParenExpression:
		if p, ok := target.Pipeline.(*ast.PipelineAst); ok {
			if inner := p.PureExpression(); inner != nil {
				vc.collectTarget(inner)
			}
		}
	}
}

func (vc *variableCollector) add(v *ast.VariableExpression) {
	if v == nil || !v.Path.IsUnqualified() {
		return
	}
	folded := strings.ToLower(v.Path.Name)
	if vc.seen[folded] {
		return
	}
	vc.seen[folded] = true
	vc.names = append(vc.names, v.Path.Name)
}

// slotAssigner stores each variable's slot on its AST node.
type slotAssigner struct {
	root     *ast.ScriptBlockAst
	layout   *runtime.TupleLayout
	optimize bool
}

func (sa *slotAssigner) Visit(node ast.Node) ast.VisitAction {
	if sb, ok := node.(*ast.ScriptBlockAst); ok && sb != sa.root {
		return ast.SkipChildren
	}
	v, ok := node.(*ast.VariableExpression)
	if !ok {
		return ast.Continue
	}
	if !v.Path.IsUnqualified() {
		v.TupleIndex = ast.TupleIndexUnassigned
		return ast.Continue
	}
	if slot, automatic := runtime.IsAutomaticVariable(v.Path.Name); automatic {
		v.TupleIndex = slot
		return ast.Continue
	}
	if !sa.optimize {
		v.TupleIndex = ast.TupleIndexUnassigned
		return ast.Continue
	}
	v.TupleIndex = sa.layout.Slot(v.Path.Name)
	return ast.Continue
}

func (sa *slotAssigner) PostVisit(ast.Node) {}
