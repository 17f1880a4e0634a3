package semantic

import (
	"strings"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/token"
)

// DefaultAllowedVariables are the variable names a data section may read
// when no explicit allowlist is supplied.
var DefaultAllowedVariables = []string{"PSCulture", "PSUICulture", "true", "false", "null"}

// restrictedPrimitiveTypes are the type literals a data section may use.
var restrictedPrimitiveTypes = map[string]bool{
	"int": true, "int32": true, "int64": true, "long": true, "short": true,
	"byte": true, "double": true, "float": true, "single": true, "decimal": true,
	"string": true, "char": true, "bool": true, "boolean": true,
}

// restrictedForbiddenOperators are the binary operators a data section
// rejects even though the full language accepts them.
var restrictedForbiddenOperators = map[token.Kind]bool{
	token.Imatch: true, token.Inotmatch: true, token.Cmatch: true, token.Cnotmatch: true,
	token.Join: true, token.Ijoin: true, token.Cjoin: true,
	token.Split: true, token.Isplit: true, token.Csplit: true,
	token.Ireplace: true, token.Creplace: true,
	token.As: true, token.Format: true, token.DotDot: true,
}

// RestrictedChecker validates the body of a data section against the
// restricted language: pipelines of allowlisted commands, constants, and a
// reduced operator and variable surface.
type RestrictedChecker struct {
	bag *errors.Bag

	// AllowedCommands is the data statement's -SupportedCommand list.
	AllowedCommands []string

	// AllowedVariables extends DefaultAllowedVariables; the single entry "*"
	// permits every variable.
	AllowedVariables []string

	// AllowEnvironmentVariables permits $env: references.
	AllowEnvironmentVariables bool
}

// NewRestrictedChecker creates a restricted checker reporting into bag.
func NewRestrictedChecker(bag *errors.Bag, allowedCommands []string) *RestrictedChecker {
	return &RestrictedChecker{bag: bag, AllowedCommands: allowedCommands}
}

// CheckDataStatement validates a data statement's body.
func CheckDataStatement(data *ast.DataStatement, bag *errors.Bag) {
	rc := NewRestrictedChecker(bag, data.CommandsAllowed)
	ast.Walk(rc, data.Body)
}

// Visit dispatches per node kind; unexpected kinds produce construct-specific
// diagnostics and their children are skipped.
func (rc *RestrictedChecker) Visit(node ast.Node) ast.VisitAction {
	switch n := node.(type) {
	case *ast.StatementBlock, *ast.ArrayLiteral, *ast.HashtableAst,
		*ast.SubExpression, *ast.ParenExpression, *ast.CommandExpressionAst,
		*ast.ConstantExpression, *ast.StringConstantExpression,
		*ast.ExpandableStringExpression:
		return ast.Continue

	case *ast.PipelineAst:
		return ast.Continue

	case *ast.CommandAst:
		rc.checkCommand(n)
		return ast.Continue

	case *ast.CommandParameterAst:
		return ast.Continue

	case *ast.TypeExpression:
		rc.checkRestrictedType(n, n.TypeName)
		return ast.Continue

	case *ast.TypeConstraint:
		rc.checkRestrictedType(n, n.TypeName)
		return ast.Continue

	case *ast.ConvertExpression:
		// The nested TypeConstraint child reports any disallowed type.
		return ast.Continue

	case *ast.BinaryExpression:
		if restrictedForbiddenOperators[n.Operator] {
			rc.bag.Addf(n.ErrorPosition, errors.IDOperatorNotSupportedInDataSection,
				"the operator %q is not allowed in a data section", n.Operator.String())
			return ast.SkipChildren
		}
		return ast.Continue

	case *ast.UnaryExpression:
		if restrictedForbiddenOperators[n.Operator] {
			rc.bag.Addf(n.Extent(), errors.IDOperatorNotSupportedInDataSection,
				"the operator %q is not allowed in a data section", n.Operator.String())
			return ast.SkipChildren
		}
		return ast.Continue

	case *ast.VariableExpression:
		rc.checkRestrictedVariable(n)
		return ast.Continue

	case ast.Statement:
		rc.bag.Addf(n.Extent(), errors.IDStatementNotAllowedInDataSection,
			"this statement is not allowed in a data section")
		return ast.SkipChildren

	default:
		rc.bag.Addf(n.Extent(), errors.IDExpressionNotAllowedInDataSection,
			"this expression is not allowed in a data section")
		return ast.SkipChildren
	}
}

// PostVisit satisfies the visitor protocol; the restricted checker keeps no
// scope state.
func (rc *RestrictedChecker) PostVisit(ast.Node) {}

func (rc *RestrictedChecker) checkCommand(cmd *ast.CommandAst) {
	name := cmd.CommandName()
	if name == "" {
		rc.bag.Addf(cmd.Extent(), errors.IDCmdletNotInAllowedList,
			"only constant command names are allowed in a data section")
		return
	}
	for _, allowed := range rc.AllowedCommands {
		if strings.EqualFold(allowed, name) {
			return
		}
	}
	rc.bag.Addf(cmd.Extent(), errors.IDCmdletNotInAllowedList,
		"the command %q is not allowed in a data section", name)
}

func (rc *RestrictedChecker) checkRestrictedType(node ast.Node, name *ast.TypeName) {
	inner := name
	for inner.Element != nil {
		inner = inner.Element
	}
	if !restrictedPrimitiveTypes[strings.ToLower(inner.Name)] {
		rc.bag.Addf(node.Extent(), errors.IDTypeNotAllowedInDataSection,
			"the type [%s] is not allowed in a data section", name.FullName())
	}
}

func (rc *RestrictedChecker) checkRestrictedVariable(v *ast.VariableExpression) {
	if v.Path.Scope == ast.ScopeEnv {
		if !rc.AllowEnvironmentVariables {
			rc.bag.Addf(v.Extent(), errors.IDEnvironmentVariableNotSupported,
				"environment variable references are not allowed in a data section")
		}
		return
	}
	if !v.Path.IsUnqualified() {
		rc.bag.Addf(v.Extent(), errors.IDVariableReferenceNotSupported,
			"the variable $%s cannot be referenced in a data section", v.Path.UserPath)
		return
	}
	for _, allowed := range rc.AllowedVariables {
		if allowed == "*" || strings.EqualFold(allowed, v.Path.Name) {
			return
		}
	}
	for _, allowed := range DefaultAllowedVariables {
		if strings.EqualFold(allowed, v.Path.Name) {
			return
		}
	}
	rc.bag.Addf(v.Extent(), errors.IDVariableReferenceNotSupported,
		"the variable $%s cannot be referenced in a data section", v.Path.Name)
}
