package ast

import (
	"strings"

	"github.com/cwbudde/go-psh/internal/source"
)

// AttributeBase is either a full attribute [Name(args)] or a bare type
// constraint [typename]; both may decorate parameters and expressions.
type AttributeBase interface {
	Node
	attributeNode()
}

// TypeConstraint is a bare type literal used as an attribute: [int], [string[]].
type TypeConstraint struct {
	BaseNode
	TypeName *TypeName
}

// NewTypeConstraint creates a type constraint node.
func NewTypeConstraint(extent source.Extent, name *TypeName) *TypeConstraint {
	return &TypeConstraint{BaseNode: newBase(extent), TypeName: name}
}

func (t *TypeConstraint) attributeNode()   {}
func (t *TypeConstraint) expressionNode()  {}
func (t *TypeConstraint) children() []Node { return nil }
func (t *TypeConstraint) String() string   { return "[" + t.TypeName.FullName() + "]" }

// IsVoid reports whether the constraint names the void pseudo-type.
func (t *TypeConstraint) IsVoid() bool {
	return t.TypeName.Element == nil && strings.EqualFold(t.TypeName.Name, "void")
}

// IsRef reports whether the constraint names the ref wrapper type.
func (t *TypeConstraint) IsRef() bool {
	return t.TypeName.Element == nil && strings.EqualFold(t.TypeName.Name, "ref")
}

// IsOrdered reports whether the constraint names the ordered pseudo-type.
func (t *TypeConstraint) IsOrdered() bool {
	return t.TypeName.Element == nil && strings.EqualFold(t.TypeName.Name, "ordered")
}

// NamedAttributeArgument is Name = value inside an attribute argument list.
// ExpressionOmitted marks bare switch-style arguments (e.g. Mandatory).
type NamedAttributeArgument struct {
	BaseNode
	ArgumentName      string
	Argument          Expression
	ExpressionOmitted bool
}

// NewNamedAttributeArgument creates a named attribute argument node.
func NewNamedAttributeArgument(extent source.Extent, name string, argument Expression, omitted bool) *NamedAttributeArgument {
	n := &NamedAttributeArgument{
		BaseNode:          newBase(extent),
		ArgumentName:      name,
		Argument:          argument,
		ExpressionOmitted: omitted,
	}
	adopt(n, argument)
	return n
}

func (n *NamedAttributeArgument) children() []Node {
	if n.Argument == nil {
		return nil
	}
	return []Node{n.Argument}
}
func (n *NamedAttributeArgument) String() string {
	if n.ExpressionOmitted {
		return n.ArgumentName
	}
	return n.ArgumentName + "=" + n.Argument.String()
}

// Attribute is a full attribute: [Name(positional, Named = value)].
type Attribute struct {
	BaseNode
	TypeName            *TypeName
	PositionalArguments []Expression
	NamedArguments      []*NamedAttributeArgument
}

// NewAttribute creates an attribute node.
func NewAttribute(extent source.Extent, name *TypeName, positional []Expression, named []*NamedAttributeArgument) *Attribute {
	a := &Attribute{BaseNode: newBase(extent), TypeName: name, PositionalArguments: positional, NamedArguments: named}
	for _, p := range positional {
		adopt(a, p)
	}
	for _, n := range named {
		adopt(a, n)
	}
	return a
}

func (a *Attribute) attributeNode() {}
func (a *Attribute) children() []Node {
	out := make([]Node, 0, len(a.PositionalArguments)+len(a.NamedArguments))
	for _, p := range a.PositionalArguments {
		out = append(out, p)
	}
	for _, n := range a.NamedArguments {
		out = append(out, n)
	}
	return out
}
func (a *Attribute) String() string {
	parts := make([]string, 0, len(a.PositionalArguments)+len(a.NamedArguments))
	for _, p := range a.PositionalArguments {
		parts = append(parts, p.String())
	}
	for _, n := range a.NamedArguments {
		parts = append(parts, n.String())
	}
	return "[" + a.TypeName.FullName() + "(" + strings.Join(parts, ", ") + ")]"
}

// Parameter is one formal parameter of a param block or function.
type Parameter struct {
	BaseNode
	Name         *VariableExpression
	Attributes   []AttributeBase
	DefaultValue Expression
}

// NewParameter creates a parameter node.
func NewParameter(extent source.Extent, name *VariableExpression, attributes []AttributeBase, defaultValue Expression) *Parameter {
	p := &Parameter{BaseNode: newBase(extent), Name: name, Attributes: attributes, DefaultValue: defaultValue}
	for _, a := range attributes {
		adopt(p, a)
	}
	adopt(p, name, defaultValue)
	return p
}

func (p *Parameter) children() []Node {
	out := make([]Node, 0, len(p.Attributes)+2)
	for _, a := range p.Attributes {
		out = append(out, a)
	}
	out = append(out, p.Name)
	if p.DefaultValue != nil {
		out = append(out, p.DefaultValue)
	}
	return out
}

// StaticType returns the parameter's declared type constraint, or nil.
// When several constraints appear, the first wins (the rest are validation
// attributes in constraint clothing).
func (p *Parameter) StaticType() *TypeConstraint {
	for _, a := range p.Attributes {
		if tc, ok := a.(*TypeConstraint); ok {
			return tc
		}
	}
	return nil
}

func (p *Parameter) String() string {
	var sb strings.Builder
	for _, a := range p.Attributes {
		sb.WriteString(a.String())
	}
	sb.WriteString(p.Name.String())
	if p.DefaultValue != nil {
		sb.WriteString(" = ")
		sb.WriteString(p.DefaultValue.String())
	}
	return sb.String()
}

// ParamBlock is the param( ... ) declaration of a script block, carrying
// block-level attributes such as [CmdletBinding()].
type ParamBlock struct {
	BaseNode
	Attributes []*Attribute
	Parameters []*Parameter
}

// NewParamBlock creates a param block node.
func NewParamBlock(extent source.Extent, attributes []*Attribute, parameters []*Parameter) *ParamBlock {
	pb := &ParamBlock{BaseNode: newBase(extent), Attributes: attributes, Parameters: parameters}
	for _, a := range attributes {
		adopt(pb, a)
	}
	for _, p := range parameters {
		adopt(pb, p)
	}
	return pb
}

func (pb *ParamBlock) statementNode() {}
func (pb *ParamBlock) children() []Node {
	out := make([]Node, 0, len(pb.Attributes)+len(pb.Parameters))
	for _, a := range pb.Attributes {
		out = append(out, a)
	}
	for _, p := range pb.Parameters {
		out = append(out, p)
	}
	return out
}
func (pb *ParamBlock) String() string {
	parts := make([]string, len(pb.Parameters))
	for i, p := range pb.Parameters {
		parts[i] = p.String()
	}
	return "param(" + strings.Join(parts, ", ") + ")"
}

// BlockKind names one of the four named blocks of a script block.
type BlockKind int

const (
	DynamicParamBlock BlockKind = iota
	BeginBlock
	ProcessBlock
	EndBlock
)

var blockKindNames = map[BlockKind]string{
	DynamicParamBlock: "dynamicparam",
	BeginBlock:        "begin",
	ProcessBlock:      "process",
	EndBlock:          "end",
}

// String returns the keyword of the block kind.
func (k BlockKind) String() string { return blockKindNames[k] }

// NamedBlock is one begin/process/end/dynamicparam block. Unnamed marks the
// implicit end block of a script with no explicit block keywords.
type NamedBlock struct {
	BaseNode
	Kind       BlockKind
	Statements *StatementBlock
	Unnamed    bool
}

// NewNamedBlock creates a named block node.
func NewNamedBlock(extent source.Extent, kind BlockKind, statements *StatementBlock, unnamed bool) *NamedBlock {
	nb := &NamedBlock{BaseNode: newBase(extent), Kind: kind, Statements: statements, Unnamed: unnamed}
	adopt(nb, statements)
	return nb
}

func (nb *NamedBlock) statementNode()   {}
func (nb *NamedBlock) children() []Node { return []Node{nb.Statements} }
func (nb *NamedBlock) String() string {
	if nb.Unnamed {
		return nb.Statements.String()
	}
	return nb.Kind.String() + " {" + nb.Statements.String() + "}"
}

// ScriptBlockAst is the root node of a script block: an optional param block
// plus up to four named blocks. Analysis flags are populated by the semantic
// checker and variable analysis and are read-only afterwards.
type ScriptBlockAst struct {
	BaseNode
	ParamBlock        *ParamBlock
	UsingExpressions  []Expression
	DynamicParamBlock *NamedBlock
	BeginBlock        *NamedBlock
	ProcessBlock      *NamedBlock
	EndBlock          *NamedBlock

	// HasSuspiciousContent is set when checking sees constructs that need
	// host-level scrutiny (Type meta-type uses, computed type member names).
	HasSuspiciousContent bool

	// PostParseChecksPerformed records that the semantic checker ran.
	PostParseChecksPerformed bool

	// HadErrors records whether the checker's diagnostic bag was non-empty.
	HadErrors bool
}

// NewScriptBlockAst creates a script block root node.
func NewScriptBlockAst(extent source.Extent, paramBlock *ParamBlock, dynamicParam, begin, process, end *NamedBlock) *ScriptBlockAst {
	sb := &ScriptBlockAst{
		BaseNode:          newBase(extent),
		ParamBlock:        paramBlock,
		DynamicParamBlock: dynamicParam,
		BeginBlock:        begin,
		ProcessBlock:      process,
		EndBlock:          end,
	}
	adopt(sb, paramBlock, dynamicParam, begin, process, end)
	return sb
}

func (sb *ScriptBlockAst) expressionNode() {}
func (sb *ScriptBlockAst) children() []Node {
	out := make([]Node, 0, 5)
	if sb.ParamBlock != nil {
		out = append(out, sb.ParamBlock)
	}
	for _, b := range []*NamedBlock{sb.DynamicParamBlock, sb.BeginBlock, sb.ProcessBlock, sb.EndBlock} {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}
func (sb *ScriptBlockAst) String() string {
	parts := make([]string, 0, 5)
	if sb.ParamBlock != nil {
		parts = append(parts, sb.ParamBlock.String())
	}
	for _, b := range []*NamedBlock{sb.DynamicParamBlock, sb.BeginBlock, sb.ProcessBlock, sb.EndBlock} {
		if b != nil {
			parts = append(parts, b.String())
		}
	}
	return strings.Join(parts, " ")
}

// FunctionDefinition represents function name(params) { body } and the
// filter/workflow variants.
type FunctionDefinition struct {
	BaseNode
	Name       string
	IsFilter   bool
	IsWorkflow bool
	Parameters []*Parameter
	Body       *ScriptBlockAst
}

// NewFunctionDefinition creates a function definition node.
func NewFunctionDefinition(extent source.Extent, name string, isFilter, isWorkflow bool, parameters []*Parameter, body *ScriptBlockAst) *FunctionDefinition {
	f := &FunctionDefinition{
		BaseNode:   newBase(extent),
		Name:       name,
		IsFilter:   isFilter,
		IsWorkflow: isWorkflow,
		Parameters: parameters,
		Body:       body,
	}
	for _, p := range parameters {
		adopt(f, p)
	}
	adopt(f, body)
	return f
}

func (f *FunctionDefinition) statementNode() {}
func (f *FunctionDefinition) children() []Node {
	out := make([]Node, 0, len(f.Parameters)+1)
	for _, p := range f.Parameters {
		out = append(out, p)
	}
	out = append(out, f.Body)
	return out
}
func (f *FunctionDefinition) String() string {
	return "function " + f.Name + " {" + f.Body.String() + "}"
}

// ============================================================================
// Type definitions
// ============================================================================

// Member is a function or property member of a type definition.
type Member interface {
	Node
	MemberName() string
	IsStaticMember() bool
}

// MethodAttributes are the modifier flags on a function member.
type MethodAttributes int

const (
	MethodStatic MethodAttributes = 1 << iota
	MethodHidden
	MethodConstructor
)

// FunctionMember is a method or constructor of a class definition.
type FunctionMember struct {
	BaseNode
	Name       string
	Attributes []*Attribute
	ReturnType *TypeConstraint
	Parameters []*Parameter
	Body       *ScriptBlockAst
	Modifiers  MethodAttributes
}

// NewFunctionMember creates a method member node.
func NewFunctionMember(extent source.Extent, name string, attributes []*Attribute, returnType *TypeConstraint, parameters []*Parameter, body *ScriptBlockAst, modifiers MethodAttributes) *FunctionMember {
	m := &FunctionMember{
		BaseNode:   newBase(extent),
		Name:       name,
		Attributes: attributes,
		ReturnType: returnType,
		Parameters: parameters,
		Body:       body,
		Modifiers:  modifiers,
	}
	for _, a := range attributes {
		adopt(m, a)
	}
	adopt(m, returnType)
	for _, p := range parameters {
		adopt(m, p)
	}
	adopt(m, body)
	return m
}

func (m *FunctionMember) MemberName() string   { return m.Name }
func (m *FunctionMember) IsStaticMember() bool { return m.Modifiers&MethodStatic != 0 }

// IsConstructor reports whether the member is a constructor.
func (m *FunctionMember) IsConstructor() bool { return m.Modifiers&MethodConstructor != 0 }

// IsVoidReturn reports whether the member returns nothing: either no return
// type or an explicit [void].
func (m *FunctionMember) IsVoidReturn() bool {
	return m.ReturnType == nil || m.ReturnType.IsVoid()
}

func (m *FunctionMember) children() []Node {
	out := make([]Node, 0, len(m.Attributes)+len(m.Parameters)+2)
	for _, a := range m.Attributes {
		out = append(out, a)
	}
	if m.ReturnType != nil {
		out = append(out, m.ReturnType)
	}
	for _, p := range m.Parameters {
		out = append(out, p)
	}
	out = append(out, m.Body)
	return out
}
func (m *FunctionMember) String() string { return m.Name + "() {...}" }

// PropertyMember is a field/property of a class or enum definition.
type PropertyMember struct {
	BaseNode
	Name         string
	Attributes   []*Attribute
	PropertyType *TypeConstraint
	InitialValue Expression
	IsStatic     bool
	IsHidden     bool
}

// NewPropertyMember creates a property member node.
func NewPropertyMember(extent source.Extent, name string, attributes []*Attribute, propertyType *TypeConstraint, initialValue Expression, isStatic, isHidden bool) *PropertyMember {
	m := &PropertyMember{
		BaseNode:     newBase(extent),
		Name:         name,
		Attributes:   attributes,
		PropertyType: propertyType,
		InitialValue: initialValue,
		IsStatic:     isStatic,
		IsHidden:     isHidden,
	}
	for _, a := range attributes {
		adopt(m, a)
	}
	adopt(m, propertyType, initialValue)
	return m
}

func (m *PropertyMember) MemberName() string   { return m.Name }
func (m *PropertyMember) IsStaticMember() bool { return m.IsStatic }

func (m *PropertyMember) children() []Node {
	out := make([]Node, 0, len(m.Attributes)+2)
	for _, a := range m.Attributes {
		out = append(out, a)
	}
	if m.PropertyType != nil {
		out = append(out, m.PropertyType)
	}
	if m.InitialValue != nil {
		out = append(out, m.InitialValue)
	}
	return out
}
func (m *PropertyMember) String() string { return "$" + m.Name }

// TypeDefinitionKind distinguishes class, enum and interface definitions.
type TypeDefinitionKind int

const (
	ClassDefinition TypeDefinitionKind = iota
	EnumDefinition
	InterfaceDefinition
)

// TypeDefinition represents class/enum definitions with their members.
type TypeDefinition struct {
	BaseNode
	Name       string
	Kind       TypeDefinitionKind
	Attributes []*Attribute
	BaseTypes  []*TypeConstraint
	Members    []Member
}

// NewTypeDefinition creates a type definition node.
func NewTypeDefinition(extent source.Extent, name string, kind TypeDefinitionKind, attributes []*Attribute, baseTypes []*TypeConstraint, members []Member) *TypeDefinition {
	t := &TypeDefinition{
		BaseNode:   newBase(extent),
		Name:       name,
		Kind:       kind,
		Attributes: attributes,
		BaseTypes:  baseTypes,
		Members:    members,
	}
	for _, a := range attributes {
		adopt(t, a)
	}
	for _, b := range baseTypes {
		adopt(t, b)
	}
	for _, m := range members {
		adopt(t, m)
	}
	return t
}

func (t *TypeDefinition) statementNode() {}
func (t *TypeDefinition) children() []Node {
	out := make([]Node, 0, len(t.Attributes)+len(t.BaseTypes)+len(t.Members))
	for _, a := range t.Attributes {
		out = append(out, a)
	}
	for _, b := range t.BaseTypes {
		out = append(out, b)
	}
	for _, m := range t.Members {
		out = append(out, m)
	}
	return out
}
func (t *TypeDefinition) String() string { return "class " + t.Name + " {...}" }
