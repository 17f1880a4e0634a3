package semantic

import (
	"strings"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/token"
)

// automaticVariableTypes maps the assignable automatic variables to the type
// a declared cast on an assignment target must match.
var automaticVariableTypes = map[string]string{
	"?":       "bool",
	"matches": "hashtable",
	"error":   "array",
}

func (c *Checker) checkAssignment(a *ast.AssignmentStatement) {
	c.checkAssignmentTarget(a.Left, a.Operator, true)
}

// checkAssignmentTarget validates the left-hand side of an assignment.
// outermost marks the top of the target expression; [ref] casts are only
// legal there.
func (c *Checker) checkAssignmentTarget(lhs ast.Expression, op token.Kind, outermost bool) {
	switch target := lhs.(type) {
	case *ast.VariableExpression:
		c.checkAutomaticAssignment(target, nil)

	case *ast.MemberExpression, *ast.IndexExpression:
		// Always assignable; the set-member/set-index site reports runtime
		// failures.

	case *ast.AttributedExpression:
		c.checkAssignmentTarget(target.Child, op, false)

	case *ast.ConvertExpression:
		if target.Type.IsRef() && !outermost {
			c.bag.Addf(target.Extent(), errors.IDReferenceNeedsToBeByItself,
				"[ref] must be the outermost type constraint on an assignment target")
		}
		if v, ok := target.Child.(*ast.VariableExpression); ok {
			c.checkAutomaticAssignment(v, target.Type)
		}
		c.checkAssignmentTarget(target.Child, op, false)

	case *ast.ArrayLiteral:
		if op.IsCompoundAssignment() {
			c.bag.Addf(target.Extent(), errors.IDArrayLiteralCompoundAssign,
				"the operator %q cannot be used on a list of assignment targets", op.String())
			return
		}
		for _, element := range target.Elements {
			c.checkAssignmentTarget(element, op, false)
		}

	case *ast.ParenExpression:
		if p, ok := target.Pipeline.(*ast.PipelineAst); ok {
			if inner := p.PureExpression(); inner != nil {
				c.checkAssignmentTarget(inner, op, outermost)
				return
			}
		}
		c.bag.Addf(target.Extent(), errors.IDInvalidAssignmentTarget,
			"the expression cannot be assigned to")

	default:
		c.bag.Addf(lhs.Extent(), errors.IDInvalidAssignmentTarget,
			"the expression cannot be assigned to")
	}
}

// checkAutomaticAssignment validates an assignment to an automatic variable:
// a declared cast must match the variable's documented type.
func (c *Checker) checkAutomaticAssignment(v *ast.VariableExpression, declared *ast.TypeConstraint) {
	if declared == nil || !v.Path.IsUnqualified() {
		return
	}
	wanted, automatic := automaticVariableTypes[strings.ToLower(v.Path.Name)]
	if !automatic {
		return
	}
	if declared.IsRef() {
		return
	}
	if !strings.EqualFold(declared.TypeName.FullName(), wanted) {
		c.bag.Addf(declared.Extent(), errors.IDAutomaticVariableTypeMismatch,
			"the automatic variable $%s can only be declared as [%s]", v.Path.Name, wanted)
	}
}
