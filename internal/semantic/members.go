package semantic

import (
	"strings"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/errors"
)

func (c *Checker) checkFunctionMember(m *ast.FunctionMember) {
	c.checkDuplicateParameters(m.Parameters)

	body := m.Body
	if body.ParamBlock != nil {
		c.bag.Addf(body.ParamBlock.Extent(), errors.IDParamBlockNotAllowedInMethod,
			"a method body cannot declare a param(...) block")
	}
	for _, b := range []*ast.NamedBlock{body.DynamicParamBlock, body.BeginBlock, body.ProcessBlock} {
		if b != nil {
			c.bag.Addf(b.Extent(), errors.IDNamedBlockNotAllowedInMethod,
				"a method body cannot declare a %s block", b.Kind)
		}
	}
	if body.EndBlock != nil && !body.EndBlock.Unnamed {
		c.bag.Addf(body.EndBlock.Extent(), errors.IDNamedBlockNotAllowedInMethod,
			"a method body cannot declare an end block")
	}

	if m.IsConstructor() && m.ReturnType != nil {
		c.bag.Addf(m.ReturnType.Extent(), errors.IDConstructorCantHaveReturnType,
			"a constructor cannot declare a return type")
	}

	if !m.IsVoidReturn() && !m.IsConstructor() {
		if body.EndBlock == nil || !blockAlwaysReturns(body.EndBlock.Statements) {
			c.bag.Addf(m.Extent(), errors.IDMethodHasCodePathNotReturn,
				"not all code paths of method %q return a value", m.Name)
		}
	}
}

// blockAlwaysReturns reports whether every code path through the statement
// list ends in a return or a throw.
func blockAlwaysReturns(block *ast.StatementBlock) bool {
	if block == nil || len(block.Statements) == 0 {
		return false
	}
	return statementAlwaysReturns(block.Statements[len(block.Statements)-1])
}

func statementAlwaysReturns(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.ReturnStatement, *ast.ThrowStatement:
		return true
	case *ast.IfStatement:
		if s.ElseClause == nil {
			return false
		}
		for _, clause := range s.Clauses {
			if !blockAlwaysReturns(clause.Body) {
				return false
			}
		}
		return blockAlwaysReturns(s.ElseClause)
	case *ast.TryStatement:
		if s.Finally != nil && blockAlwaysReturns(s.Finally) {
			return true
		}
		if !blockAlwaysReturns(s.Body) {
			return false
		}
		for _, clause := range s.CatchClauses {
			if !blockAlwaysReturns(clause.Body) {
				return false
			}
		}
		return true
	case *ast.StatementBlock:
		return blockAlwaysReturns(s)
	default:
		return false
	}
}

func (c *Checker) checkPropertyMember(p *ast.PropertyMember) {
	if p.PropertyType != nil && p.PropertyType.IsVoid() {
		c.bag.Addf(p.PropertyType.Extent(), errors.IDVoidNotAllowedOnProperty,
			"the [void] type is not allowed on a property")
	}
}

// ============================================================================
// DSC resource classes
// ============================================================================

func attributeNamed(attrs []*ast.Attribute, name string) *ast.Attribute {
	for _, a := range attrs {
		if strings.EqualFold(a.TypeName.Name, name) {
			return a
		}
	}
	return nil
}

func (c *Checker) checkTypeDefinition(t *ast.TypeDefinition) {
	if t.Kind != ast.ClassDefinition {
		return
	}
	if attributeNamed(t.Attributes, "DscResource") == nil {
		return
	}
	c.checkDscResource(t)
	c.checkDscConstructors(t)
}

// checkDscConstructors requires an explicit default constructor whenever any
// non-default constructor exists on a DSC resource class.
func (c *Checker) checkDscConstructors(t *ast.TypeDefinition) {
	hasCtor := false
	hasDefaultCtor := false
	for _, m := range t.Members {
		fm, ok := m.(*ast.FunctionMember)
		if !ok || !fm.IsConstructor() {
			continue
		}
		hasCtor = true
		if len(fm.Parameters) == 0 {
			hasDefaultCtor = true
		}
	}
	if hasCtor && !hasDefaultCtor {
		c.bag.Addf(t.Extent(), errors.IDDscResourceMissingCtor,
			"the DSC resource class %q must define a default constructor", t.Name)
	}
}

// checkDscResource checks the required Get/Set/Test members of a DSC
// resource: Get returns the class itself, Set returns nothing, Test returns
// a boolean; none of them take parameters.
func (c *Checker) checkDscResource(t *ast.TypeDefinition) {
	required := map[string]bool{"get": false, "set": false, "test": false}
	hasKeyProperty := false

	for _, m := range t.Members {
		switch member := m.(type) {
		case *ast.FunctionMember:
			folded := strings.ToLower(member.Name)
			if _, wanted := required[folded]; wanted && len(member.Parameters) == 0 && c.dscMethodSignatureOK(folded, member) {
				required[folded] = true
			}
		case *ast.PropertyMember:
			if dsc := attributeNamed(member.Attributes, "DscProperty"); dsc != nil {
				for _, na := range dsc.NamedArguments {
					if strings.EqualFold(na.ArgumentName, "Key") {
						hasKeyProperty = true
					}
				}
			}
		}
	}

	for _, name := range []string{"Get", "Set", "Test"} {
		if !required[strings.ToLower(name)] {
			c.bag.Addf(t.Extent(), errors.IDDscResourceMissingMethod,
				"the DSC resource class %q must define a %s() method with the prescribed signature", t.Name, name)
		}
	}
	if !hasKeyProperty {
		c.bag.Addf(t.Extent(), errors.IDDscResourceMissingKeyProperty,
			"the DSC resource class %q must define at least one key property", t.Name)
	}
}

func (c *Checker) dscMethodSignatureOK(folded string, m *ast.FunctionMember) bool {
	switch folded {
	case "get":
		return m.ReturnType != nil && strings.EqualFold(m.ReturnType.TypeName.Name, enclosingTypeName(m))
	case "set":
		return m.IsVoidReturn()
	case "test":
		return m.ReturnType != nil && strings.EqualFold(m.ReturnType.TypeName.Name, "bool")
	}
	return false
}

// enclosingTypeName returns the name of the class a member belongs to.
func enclosingTypeName(m *ast.FunctionMember) string {
	if td, ok := m.Parent().(*ast.TypeDefinition); ok {
		return td.Name
	}
	return ""
}
