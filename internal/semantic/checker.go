// Package semantic implements the post-parse checker that validates a script
// block's AST and enforces language restrictions, and the stricter
// restricted-language checker used inside data sections.
package semantic

import (
	"strings"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/token"
)

// Checker walks the AST once after parsing, accumulating diagnostics.
// It maintains a member scope stack (function/property members, with a nil
// sentinel for code outside any member) and a script-block scope stack,
// both popped by the post-visit hook.
type Checker struct {
	bag *errors.Bag

	memberScopeStack []*ast.FunctionMember
	scopeStack       []*ast.ScriptBlockAst

	// workflowDepth widens the accepted surface to workflow-only constructs
	// (block statements, -parallel flags) while above zero.
	workflowDepth int
}

// NewChecker creates a checker reporting into bag.
func NewChecker(bag *errors.Bag) *Checker {
	return &Checker{bag: bag}
}

// Check runs the checker over a script block tree.
func Check(scriptBlock *ast.ScriptBlockAst, bag *errors.Bag) {
	ast.Walk(NewChecker(bag), scriptBlock)
}

// currentMember returns the innermost enclosing function member, or nil when
// checking code outside any member.
func (c *Checker) currentMember() *ast.FunctionMember {
	if len(c.memberScopeStack) == 0 {
		return nil
	}
	return c.memberScopeStack[len(c.memberScopeStack)-1]
}

// Visit dispatches per node kind.
func (c *Checker) Visit(node ast.Node) ast.VisitAction {
	switch n := node.(type) {
	case *ast.ScriptBlockAst:
		c.scopeStack = append(c.scopeStack, n)
	case *ast.FunctionMember:
		c.memberScopeStack = append(c.memberScopeStack, n)
		c.checkFunctionMember(n)
	case *ast.PropertyMember:
		c.memberScopeStack = append(c.memberScopeStack, nil)
		c.checkPropertyMember(n)
	case *ast.FunctionDefinition:
		c.checkFunctionDefinition(n)
	case *ast.ParamBlock:
		c.checkParamBlock(n)
	case *ast.Parameter:
		c.checkParameter(n)
	case *ast.Attribute:
		c.checkAttribute(n)
	case *ast.TypeConstraint:
		c.checkTypeName(n, n.TypeName)
	case *ast.TypeExpression:
		c.checkTypeName(n, n.TypeName)
	case *ast.TypeDefinition:
		c.checkTypeDefinition(n)
	case *ast.TryStatement:
		c.checkTryStatement(n)
	case *ast.BreakStatement:
		c.checkBreakContinue(n, n.Label, "break")
	case *ast.ContinueStatement:
		c.checkBreakContinue(n, n.Label, "continue")
	case *ast.ReturnStatement:
		c.checkReturn(n)
	case *ast.AssignmentStatement:
		c.checkAssignment(n)
	case *ast.BinaryExpression:
		c.checkBinaryExpression(n)
	case *ast.UnaryExpression:
		c.checkUnaryExpression(n)
	case *ast.ConvertExpression:
		c.checkConvertExpression(n)
	case *ast.UsingExpression:
		c.checkUsingExpression(n)
	case *ast.VariableExpression:
		c.checkVariable(n)
	case *ast.HashtableAst:
		c.checkHashtable(n)
	case *ast.BlockStatement:
		if !c.inWorkflow() {
			c.bag.Addf(n.Extent(), errors.IDUnexpectedKeyword,
				"the keyword %q is only allowed in a workflow", n.Kind)
		}
	case *ast.SwitchStatement:
		if n.Flags.Has(ast.SwitchParallel) && !c.inWorkflow() {
			c.bag.Addf(n.Extent(), errors.IDParallelNotSupported,
				"the -parallel switch flag is only allowed in a workflow")
		}
	case *ast.ForEachStatement:
		c.checkForEach(n)
	case *ast.DataStatement:
		CheckDataStatement(n, c.bag)
		return ast.SkipChildren
	}
	return ast.Continue
}

// PostVisit maintains the scope stacks and finalizes script blocks.
func (c *Checker) PostVisit(node ast.Node) {
	switch n := node.(type) {
	case *ast.ScriptBlockAst:
		c.scopeStack = c.scopeStack[:len(c.scopeStack)-1]
		n.HadErrors = c.bag.HasErrors()
		n.PostParseChecksPerformed = true
	case *ast.FunctionMember, *ast.PropertyMember:
		c.memberScopeStack = c.memberScopeStack[:len(c.memberScopeStack)-1]
	case *ast.FunctionDefinition:
		if n.IsWorkflow {
			c.workflowDepth--
		}
	}
}

// inWorkflow reports whether checking is inside a workflow body.
func (c *Checker) inWorkflow() bool { return c.workflowDepth > 0 }

// markAncestorsSuspicious flags every enclosing script block for host-level
// scrutiny.
func (c *Checker) markAncestorsSuspicious() {
	for _, sb := range c.scopeStack {
		sb.HasSuspiciousContent = true
	}
}

// ============================================================================
// Parameters and attributes
// ============================================================================

func (c *Checker) checkParamBlock(pb *ast.ParamBlock) {
	c.checkDuplicateParameters(pb.Parameters)
}

func (c *Checker) checkDuplicateParameters(params []*ast.Parameter) {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		folded := strings.ToLower(p.Name.Path.Name)
		if seen[folded] {
			c.bag.Addf(p.Extent(), errors.IDDuplicateParameterName,
				"duplicate parameter $%s", p.Name.Path.Name)
			continue
		}
		seen[folded] = true
	}
}

func (c *Checker) checkParameter(p *ast.Parameter) {
	if t := p.StaticType(); t != nil && t.IsVoid() {
		c.bag.Addf(t.Extent(), errors.IDVoidNotAllowedOnParameter,
			"the [void] type is not allowed on a parameter")
	}
}

func (c *Checker) checkFunctionDefinition(f *ast.FunctionDefinition) {
	if len(f.Parameters) > 0 && f.Body.ParamBlock != nil {
		c.bag.Addf(f.Extent(), errors.IDFunctionDuplicateParameters,
			"function %q cannot declare parameters both in its name and in a param(...) block", f.Name)
	}
	c.checkDuplicateParameters(f.Parameters)
	if f.IsWorkflow {
		c.workflowDepth++
	}
}

// attributeTargets names the node kinds each built-in attribute may decorate.
type attributeTarget int

const (
	targetParameter attributeTarget = 1 << iota
	targetParamBlock
	targetClass
	targetProperty
	targetMethod
)

var builtinAttributeTargets = map[string]attributeTarget{
	"parameter":              targetParameter,
	"alias":                  targetParameter | targetParamBlock,
	"validateset":            targetParameter | targetProperty,
	"validatenotnull":        targetParameter,
	"validatenotnullorempty": targetParameter,
	"cmdletbinding":          targetParamBlock,
	"outputtype":             targetParamBlock,
	"debuggerhidden":         targetParamBlock | targetMethod,
	"dscresource":            targetClass,
	"dscproperty":            targetProperty,
}

// settableAttributeProperties lists the named arguments each built-in
// attribute accepts; anything else fails to resolve to a settable property.
var settableAttributeProperties = map[string]map[string]bool{
	"parameter": {
		"mandatory": true, "position": true, "parametersetname": true,
		"valuefrompipeline": true, "valuefrompipelinebypropertyname": true,
		"valuefromremainingarguments": true, "helpmessage": true,
	},
	"cmdletbinding": {
		"supportsshouldprocess": true, "confirmimpact": true,
		"defaultparametersetname": true, "positionalbinding": true,
	},
	"validateset": {"ignorecase": true},
	"alias":       {},
	"outputtype":  {"parametersetname": true},
	"dscproperty": {"key": true, "mandatory": true},
	"dscresource": {"runascredential": true},
}

// readOnlyAttributeProperties are resolvable but not settable.
var readOnlyAttributeProperties = map[string]map[string]bool{
	"parameter": {"typeid": true},
}

func (c *Checker) checkAttribute(a *ast.Attribute) {
	name := strings.ToLower(a.TypeName.Name)

	if targets, known := builtinAttributeTargets[name]; known {
		if !c.attributeTargetMatches(a, targets) {
			c.bag.Addf(a.Extent(), errors.IDAttributeTargetMismatch,
				"the attribute %q cannot be applied to this declaration", a.TypeName.Name)
		}
	}

	onClass := false
	if _, ok := a.Parent().(*ast.TypeDefinition); ok {
		onClass = true
	}

	seen := make(map[string]bool, len(a.NamedArguments))
	for _, na := range a.NamedArguments {
		folded := strings.ToLower(na.ArgumentName)
		if seen[folded] {
			c.bag.Addf(na.Extent(), errors.IDDuplicateNamedArgument,
				"duplicate named argument %q", na.ArgumentName)
		}
		seen[folded] = true

		if props, known := settableAttributeProperties[name]; known && !props[folded] {
			if ro, hasRO := readOnlyAttributeProperties[name]; hasRO && ro[folded] {
				c.bag.Addf(na.Extent(), errors.IDReadOnlyProperty,
					"the property %q of attribute %q is read-only", na.ArgumentName, a.TypeName.Name)
			} else {
				c.bag.Addf(na.Extent(), errors.IDNamedArgumentNotSettable,
					"%q is not a settable property of attribute %q", na.ArgumentName, a.TypeName.Name)
			}
		}

		if na.Argument != nil && !na.ExpressionOmitted {
			c.checkAttributeArgumentConstant(na.Argument, onClass)
		}
	}

	for _, pa := range a.PositionalArguments {
		c.checkAttributeArgumentConstant(pa, onClass)
	}
}

func (c *Checker) checkAttributeArgumentConstant(arg ast.Expression, onClass bool) {
	if !IsConstantExpression(arg) {
		c.bag.Addf(arg.Extent(), errors.IDParameterAttributeArgNeedsConstant,
			"attribute arguments must be constants")
		return
	}
	if _, isScriptBlock := arg.(*ast.ScriptBlockExpression); isScriptBlock && onClass {
		c.bag.Addf(arg.Extent(), errors.IDParameterAttributeArgNeedsConstant,
			"a script block cannot be an argument of an attribute applied to a class")
	}
}

func (c *Checker) attributeTargetMatches(a *ast.Attribute, targets attributeTarget) bool {
	switch a.Parent().(type) {
	case *ast.Parameter:
		return targets&targetParameter != 0
	case *ast.ParamBlock, *ast.ScriptBlockAst:
		return targets&targetParamBlock != 0
	case *ast.TypeDefinition:
		return targets&targetClass != 0
	case *ast.PropertyMember:
		return targets&targetProperty != 0
	case *ast.FunctionMember:
		return targets&targetMethod != 0
	default:
		// Attributed expressions and other positions take any attribute.
		return true
	}
}

// ============================================================================
// Types
// ============================================================================

// maxTypeNestingDepth bounds nested array types.
const maxTypeNestingDepth = 200

func (c *Checker) checkTypeName(node ast.Node, name *ast.TypeName) {
	if name.ArrayDepth() > maxTypeNestingDepth {
		c.bag.Addf(node.Extent(), errors.IDScriptTooComplicated,
			"the script is too complicated: type nesting exceeds %d levels", maxTypeNestingDepth)
	}
	if strings.EqualFold(name.Name, "type") {
		c.markAncestorsSuspicious()
	}
}

// ============================================================================
// Statements
// ============================================================================

func (c *Checker) checkTryStatement(t *ast.TryStatement) {
	sawCatchAll := false
	caught := make([]string, 0, len(t.CatchClauses))
	for _, clause := range t.CatchClauses {
		if sawCatchAll {
			c.bag.Addf(clause.Extent(), errors.IDCatchAllMustBeLast,
				"a catch-all clause must be the last catch clause")
			break
		}
		if clause.IsCatchAll() {
			sawCatchAll = true
			continue
		}
		for _, ct := range clause.CatchTypes {
			folded := strings.ToLower(ct.TypeName.FullName())
			for _, prior := range caught {
				if prior == folded || isExceptionBase(prior) {
					c.bag.Addf(ct.Extent(), errors.IDExceptionTypeAlreadyCaught,
						"the exception type %q is already caught by an earlier clause", ct.TypeName.FullName())
				}
			}
			caught = append(caught, folded)
		}
	}
}

// isExceptionBase reports whether a previously caught type is assignable
// from everything (the exception root), which shadows later clauses.
func isExceptionBase(folded string) bool {
	switch folded {
	case "exception", "system.exception":
		return true
	}
	return false
}

func (c *Checker) checkBreakContinue(node ast.Statement, label ast.Expression, keyword string) {
	if c.flowLeavesFinally(node) {
		c.bag.Addf(node.Extent(), errors.IDControlLeavingFinally,
			"a %s statement cannot leave a finally block", keyword)
	}

	literal := ast.ConstantLabel(label)
	if literal == "" {
		return
	}
	for ancestor := node.Parent(); ancestor != nil; ancestor = ancestor.Parent() {
		if loop, ok := ancestor.(ast.LoopStatement); ok {
			if strings.EqualFold(loop.LoopLabel(), literal) {
				return
			}
		}
	}
	c.bag.Addf(node.Extent(), errors.IDLabelNotFound,
		"a %s label %q was not found in any enclosing loop", keyword, literal)
}

// flowLeavesFinally reports whether node sits inside a finally block with no
// intervening loop or script-block boundary that would absorb the signal.
func (c *Checker) flowLeavesFinally(node ast.Node) bool {
	child := node
	for ancestor := node.Parent(); ancestor != nil; ancestor = ancestor.Parent() {
		switch a := ancestor.(type) {
		case *ast.TryStatement:
			if block, ok := child.(*ast.StatementBlock); ok && a.Finally == block {
				return true
			}
		case ast.LoopStatement:
			if _, isBreak := node.(*ast.BreakStatement); isBreak {
				return false
			}
			if _, isContinue := node.(*ast.ContinueStatement); isContinue {
				return false
			}
		case *ast.ScriptBlockAst:
			return false
		}
		child = ancestor
	}
	return false
}

func (c *Checker) checkReturn(r *ast.ReturnStatement) {
	if c.flowLeavesFinally(r) {
		c.bag.Addf(r.Extent(), errors.IDControlLeavingFinally,
			"a return statement cannot leave a finally block")
	}

	member := c.currentMember()
	if member == nil {
		return
	}
	if member.IsVoidReturn() {
		if r.Pipeline != nil {
			c.bag.Addf(r.Extent(), errors.IDReturnValueInVoidMethod,
				"the method %q returns void and cannot return a value", member.Name)
		}
		return
	}
	if r.Pipeline == nil {
		c.bag.Addf(r.Extent(), errors.IDReturnMissingValue,
			"the method %q must return a value of type %s", member.Name, member.ReturnType.TypeName.FullName())
	}
}

func (c *Checker) checkForEach(f *ast.ForEachStatement) {
	if f.Flags&ast.ForEachParallel != 0 && !c.inWorkflow() {
		c.bag.Addf(f.Extent(), errors.IDParallelNotSupported,
			"the -parallel foreach flag is only allowed in a workflow")
	}
	if f.ThrottleLimit != nil && f.Flags&ast.ForEachParallel == 0 {
		c.bag.Addf(f.ThrottleLimit.Extent(), errors.IDThrottleLimitRequiresParallel,
			"-throttlelimit requires -parallel")
	}
}

// ============================================================================
// Expressions
// ============================================================================

func (c *Checker) checkBinaryExpression(b *ast.BinaryExpression) {
	if b.Operator == token.AndAnd || b.Operator == token.OrOr {
		c.bag.Addf(b.ErrorPosition, errors.IDInvalidEndOfLine,
			"the token %q is not a valid statement separator", b.Operator.String())
	}
}

func (c *Checker) checkUnaryExpression(u *ast.UnaryExpression) {
	switch u.Operator {
	case token.PlusPlus, token.MinusMinus, token.PostfixPlusPlus, token.PostfixMinusMinus:
		if !isAssignableOperand(u.Child) {
			c.bag.Addf(u.Extent(), errors.IDOperatorRequiresVariable,
				"the operator %q requires a variable or a property", u.Operator.String())
		}
	}
}

// isAssignableOperand reports whether expr can be read and written back:
// a variable, member access, or index access, possibly parenthesized.
func isAssignableOperand(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.VariableExpression:
		return !e.Splatted
	case *ast.MemberExpression:
		return true
	case *ast.IndexExpression:
		return true
	case *ast.ParenExpression:
		if p, ok := e.Pipeline.(*ast.PipelineAst); ok {
			if inner := p.PureExpression(); inner != nil {
				return isAssignableOperand(inner)
			}
		}
		return false
	default:
		return false
	}
}

func (c *Checker) checkConvertExpression(conv *ast.ConvertExpression) {
	if conv.Type.IsOrdered() {
		if _, ok := conv.Child.(*ast.HashtableAst); !ok {
			c.bag.Addf(conv.Extent(), errors.IDOrderedAttributeOnlyOnHash,
				"the [ordered] attribute can only be specified on a hash literal")
		}
	}
	if strings.EqualFold(conv.Type.TypeName.Name, "type") {
		c.markAncestorsSuspicious()
	}
	c.checkRefCast(conv)
}

// checkRefCast enforces that a [ref] cast is the outermost cast of an
// assignment target and never stacked.
func (c *Checker) checkRefCast(conv *ast.ConvertExpression) {
	if !conv.Type.IsRef() {
		// A [ref] below another cast is the inner cast's problem; detect it
		// from the outer node so the error lands once.
		if inner, ok := conv.Child.(*ast.ConvertExpression); ok && inner.Type.IsRef() {
			c.bag.Addf(conv.Extent(), errors.IDReferenceNeedsToBeByItself,
				"[ref] must be the only type constraint on a variable")
		}
		return
	}
	if inner, ok := conv.Child.(*ast.ConvertExpression); ok && inner.Type.IsRef() {
		c.bag.Addf(inner.Extent(), errors.IDReferenceNeedsToBeByItself,
			"[ref] cannot be nested inside another [ref]")
	}
}

func (c *Checker) checkUsingExpression(u *ast.UsingExpression) {
	switch child := u.Child.(type) {
	case *ast.VariableExpression:
		return
	case *ast.MemberExpression:
		if child.ConstantMemberName() != "" {
			if _, ok := child.Target.(*ast.VariableExpression); ok {
				return
			}
		}
	case *ast.IndexExpression:
		if _, ok := child.Target.(*ast.VariableExpression); ok {
			if IsConstantExpression(child.Index) {
				return
			}
		}
	}
	c.bag.Addf(u.Extent(), errors.IDInvalidUsingExpression,
		"a $using: expression may only reference a variable, a property of a variable, or a constant index of a variable")
}

func (c *Checker) checkVariable(v *ast.VariableExpression) {
	if v.Splatted {
		if _, ok := v.Parent().(*ast.CommandAst); !ok {
			c.bag.Addf(v.Extent(), errors.IDSplattingNotPermitted,
				"the splatting operator @ can only be used as a command argument")
		}
	}
	if strings.EqualFold(v.Path.Name, "this") && v.Path.IsUnqualified() {
		member := c.currentMember()
		if member == nil || member.IsStaticMember() {
			c.bag.Addf(v.Extent(), errors.IDThisOutsideInstanceMember,
				"$this may only be used inside an instance member")
		}
	}
}

func (c *Checker) checkHashtable(h *ast.HashtableAst) {
	seen := make(map[string]bool, len(h.KeyValuePairs))
	for _, kv := range h.KeyValuePairs {
		key, ok := ConstantKeyString(kv.Key)
		if !ok {
			continue
		}
		folded := strings.ToLower(key)
		if seen[folded] {
			id := errors.IDDuplicateKeyInHashLiteral
			message := "duplicate key %q in hash literal"
			if h.IsSchemaElement {
				id = errors.IDDuplicateKeyInSchema
				message = "duplicate key %q in schema hash literal"
			}
			c.bag.Addf(kv.Key.Extent(), id, message, key)
		}
		seen[folded] = true
	}
}
