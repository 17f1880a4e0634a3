package ast

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-psh/internal/source"
	"github.com/cwbudde/go-psh/internal/token"
)

// TupleIndexUnassigned marks a variable that variable analysis has not given
// a slot; it is looked up through the runtime variable table instead.
const TupleIndexUnassigned = -1

// ConstantExpression represents a literal constant value ($true, 42, 3.14).
type ConstantExpression struct {
	BaseNode
	Value any
}

// NewConstantExpression creates a constant expression node.
func NewConstantExpression(extent source.Extent, value any) *ConstantExpression {
	return &ConstantExpression{BaseNode: newBase(extent), Value: value}
}

func (c *ConstantExpression) expressionNode()  {}
func (c *ConstantExpression) children() []Node { return nil }
func (c *ConstantExpression) String() string   { return fmt.Sprintf("%v", c.Value) }

// StringConstantKind distinguishes the quoting style of a string constant.
type StringConstantKind int

const (
	BareWord StringConstantKind = iota
	SingleQuoted
	DoubleQuoted
	SingleQuotedHereString
	DoubleQuotedHereString
)

// StringConstantExpression represents a literal string with no expandable parts.
type StringConstantExpression struct {
	BaseNode
	Value string
	Kind  StringConstantKind
}

// NewStringConstantExpression creates a string constant node.
func NewStringConstantExpression(extent source.Extent, value string, kind StringConstantKind) *StringConstantExpression {
	return &StringConstantExpression{BaseNode: newBase(extent), Value: value, Kind: kind}
}

func (s *StringConstantExpression) expressionNode()  {}
func (s *StringConstantExpression) children() []Node { return nil }
func (s *StringConstantExpression) String() string   { return "\"" + s.Value + "\"" }

// ExpandableStringExpression represents a double-quoted string containing
// nested expressions. FormatString holds the literal text with {N} holes in
// nested-expression order, ready for the format helper at evaluation time.
type ExpandableStringExpression struct {
	BaseNode
	Value             string
	FormatString      string
	NestedExpressions []Expression
}

// NewExpandableStringExpression creates an expandable string node.
func NewExpandableStringExpression(extent source.Extent, value, formatString string, nested []Expression) *ExpandableStringExpression {
	e := &ExpandableStringExpression{
		BaseNode:          newBase(extent),
		Value:             value,
		FormatString:      formatString,
		NestedExpressions: nested,
	}
	for _, n := range nested {
		adopt(e, n)
	}
	return e
}

func (e *ExpandableStringExpression) expressionNode() {}
func (e *ExpandableStringExpression) children() []Node {
	out := make([]Node, len(e.NestedExpressions))
	for i, n := range e.NestedExpressions {
		out[i] = n
	}
	return out
}
func (e *ExpandableStringExpression) String() string { return "\"" + e.Value + "\"" }

// ArrayLiteral represents a comma-separated list of expressions (1,2,3).
type ArrayLiteral struct {
	BaseNode
	Elements []Expression
}

// NewArrayLiteral creates an array literal node.
func NewArrayLiteral(extent source.Extent, elements []Expression) *ArrayLiteral {
	a := &ArrayLiteral{BaseNode: newBase(extent), Elements: elements}
	for _, el := range elements {
		adopt(a, el)
	}
	return a
}

func (a *ArrayLiteral) expressionNode() {}
func (a *ArrayLiteral) children() []Node {
	out := make([]Node, len(a.Elements))
	for i, el := range a.Elements {
		out[i] = el
	}
	return out
}
func (a *ArrayLiteral) String() string {
	parts := make([]string, len(a.Elements))
	for i, el := range a.Elements {
		parts[i] = el.String()
	}
	return strings.Join(parts, ",")
}

// KeyValuePair is one entry of a hashtable literal.
type KeyValuePair struct {
	Key   Expression
	Value Statement
}

// HashtableAst represents a hashtable literal @{k = v; ...} as an ordered
// list of key/value pairs. Duplicate keys are rejected by the checker.
type HashtableAst struct {
	BaseNode
	KeyValuePairs   []KeyValuePair
	IsSchemaElement bool
}

// NewHashtableAst creates a hashtable literal node.
func NewHashtableAst(extent source.Extent, pairs []KeyValuePair) *HashtableAst {
	h := &HashtableAst{BaseNode: newBase(extent), KeyValuePairs: pairs}
	for _, kv := range pairs {
		adopt(h, kv.Key, kv.Value)
	}
	return h
}

func (h *HashtableAst) expressionNode() {}
func (h *HashtableAst) children() []Node {
	out := make([]Node, 0, len(h.KeyValuePairs)*2)
	for _, kv := range h.KeyValuePairs {
		out = append(out, kv.Key, kv.Value)
	}
	return out
}
func (h *HashtableAst) String() string {
	var sb strings.Builder
	sb.WriteString("@{")
	for i, kv := range h.KeyValuePairs {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(kv.Key.String())
		sb.WriteString(" = ")
		sb.WriteString(kv.Value.String())
	}
	sb.WriteString("}")
	return sb.String()
}

// ScriptBlockExpression represents a script-block literal { ... }.
type ScriptBlockExpression struct {
	BaseNode
	ScriptBlock *ScriptBlockAst
}

// NewScriptBlockExpression creates a script-block expression node.
func NewScriptBlockExpression(extent source.Extent, sb *ScriptBlockAst) *ScriptBlockExpression {
	e := &ScriptBlockExpression{BaseNode: newBase(extent), ScriptBlock: sb}
	adopt(e, sb)
	return e
}

func (s *ScriptBlockExpression) expressionNode()  {}
func (s *ScriptBlockExpression) children() []Node { return []Node{s.ScriptBlock} }
func (s *ScriptBlockExpression) String() string   { return "{" + s.ScriptBlock.String() + "}" }

// SubExpression represents $( statements ), a statement list producing values.
type SubExpression struct {
	BaseNode
	SubStatements *StatementBlock
}

// NewSubExpression creates a sub-expression node.
func NewSubExpression(extent source.Extent, stmts *StatementBlock) *SubExpression {
	s := &SubExpression{BaseNode: newBase(extent), SubStatements: stmts}
	adopt(s, stmts)
	return s
}

func (s *SubExpression) expressionNode()  {}
func (s *SubExpression) children() []Node { return []Node{s.SubStatements} }
func (s *SubExpression) String() string   { return "$(" + s.SubStatements.String() + ")" }

// ParenExpression represents ( pipeline ).
type ParenExpression struct {
	BaseNode
	Pipeline Statement
}

// NewParenExpression creates a paren expression node.
func NewParenExpression(extent source.Extent, pipeline Statement) *ParenExpression {
	p := &ParenExpression{BaseNode: newBase(extent), Pipeline: pipeline}
	adopt(p, pipeline)
	return p
}

func (p *ParenExpression) expressionNode()  {}
func (p *ParenExpression) children() []Node { return []Node{p.Pipeline} }
func (p *ParenExpression) String() string   { return "(" + p.Pipeline.String() + ")" }

// VariableExpression represents a variable reference ($x, $global:y, @args).
// TupleIndex is populated by variable analysis and read-only afterwards.
type VariableExpression struct {
	BaseNode
	Path     VariablePath
	Splatted bool

	// TupleIndex is the locals-tuple slot assigned by variable analysis, or
	// TupleIndexUnassigned for variables forced through the variable table.
	TupleIndex int
}

// NewVariableExpression creates a variable reference node.
func NewVariableExpression(extent source.Extent, path VariablePath, splatted bool) *VariableExpression {
	return &VariableExpression{
		BaseNode:   newBase(extent),
		Path:       path,
		Splatted:   splatted,
		TupleIndex: TupleIndexUnassigned,
	}
}

func (v *VariableExpression) expressionNode()  {}
func (v *VariableExpression) children() []Node { return nil }
func (v *VariableExpression) String() string {
	sigil := "$"
	if v.Splatted {
		sigil = "@"
	}
	return sigil + v.Path.UserPath
}

// TypeName is the possibly array-nested name inside a type literal.
// A non-nil Element makes this an array type of that element.
type TypeName struct {
	Name    string
	Element *TypeName
	Extent  source.Extent
}

// ArrayDepth returns how many array layers wrap the innermost name.
func (t *TypeName) ArrayDepth() int {
	depth := 0
	for cur := t; cur.Element != nil; cur = cur.Element {
		depth++
	}
	return depth
}

// FullName returns the type name including array suffixes.
func (t *TypeName) FullName() string {
	if t.Element != nil {
		return t.Element.FullName() + "[]"
	}
	return t.Name
}

func (t *TypeName) String() string { return t.FullName() }

// TypeExpression represents a type literal in expression position ([int]).
type TypeExpression struct {
	BaseNode
	TypeName *TypeName
}

// NewTypeExpression creates a type expression node.
func NewTypeExpression(extent source.Extent, name *TypeName) *TypeExpression {
	return &TypeExpression{BaseNode: newBase(extent), TypeName: name}
}

func (t *TypeExpression) expressionNode()  {}
func (t *TypeExpression) children() []Node { return nil }
func (t *TypeExpression) String() string   { return "[" + t.TypeName.FullName() + "]" }

// MemberExpression represents member access: target.member or target::member
// for static access. The member name is an expression because it may be
// computed ($obj.$name).
type MemberExpression struct {
	BaseNode
	Target Expression
	Member Expression
	Static bool
}

// NewMemberExpression creates a member access node.
func NewMemberExpression(extent source.Extent, target, member Expression, static bool) *MemberExpression {
	m := &MemberExpression{BaseNode: newBase(extent), Target: target, Member: member, Static: static}
	adopt(m, target, member)
	return m
}

func (m *MemberExpression) expressionNode()  {}
func (m *MemberExpression) children() []Node { return []Node{m.Target, m.Member} }
func (m *MemberExpression) String() string {
	sep := "."
	if m.Static {
		sep = "::"
	}
	return m.Target.String() + sep + m.Member.String()
}

// ConstantMemberName returns the member name when it is a constant string,
// and "" when the name is computed.
func (m *MemberExpression) ConstantMemberName() string {
	if sc, ok := m.Member.(*StringConstantExpression); ok {
		return sc.Value
	}
	return ""
}

// IndexExpression represents target[index].
type IndexExpression struct {
	BaseNode
	Target Expression
	Index  Expression
}

// NewIndexExpression creates an index access node.
func NewIndexExpression(extent source.Extent, target, index Expression) *IndexExpression {
	ix := &IndexExpression{BaseNode: newBase(extent), Target: target, Index: index}
	adopt(ix, target, index)
	return ix
}

func (ix *IndexExpression) expressionNode()  {}
func (ix *IndexExpression) children() []Node { return []Node{ix.Target, ix.Index} }
func (ix *IndexExpression) String() string   { return ix.Target.String() + "[" + ix.Index.String() + "]" }

// InvokeMemberExpression represents a method invocation:
// target.Name(args) or target::Name(args).
type InvokeMemberExpression struct {
	BaseNode
	Target    Expression
	Member    Expression
	Arguments []Expression
	Static    bool
}

// NewInvokeMemberExpression creates a method invocation node.
func NewInvokeMemberExpression(extent source.Extent, target, member Expression, args []Expression, static bool) *InvokeMemberExpression {
	inv := &InvokeMemberExpression{
		BaseNode:  newBase(extent),
		Target:    target,
		Member:    member,
		Arguments: args,
		Static:    static,
	}
	adopt(inv, target, member)
	for _, a := range args {
		adopt(inv, a)
	}
	return inv
}

func (inv *InvokeMemberExpression) expressionNode() {}
func (inv *InvokeMemberExpression) children() []Node {
	out := []Node{inv.Target, inv.Member}
	for _, a := range inv.Arguments {
		out = append(out, a)
	}
	return out
}
func (inv *InvokeMemberExpression) String() string {
	sep := "."
	if inv.Static {
		sep = "::"
	}
	parts := make([]string, len(inv.Arguments))
	for i, a := range inv.Arguments {
		parts[i] = a.String()
	}
	return inv.Target.String() + sep + inv.Member.String() + "(" + strings.Join(parts, ", ") + ")"
}

// ConstantMemberName returns the method name when constant, "" otherwise.
func (inv *InvokeMemberExpression) ConstantMemberName() string {
	if sc, ok := inv.Member.(*StringConstantExpression); ok {
		return sc.Value
	}
	return ""
}

// BaseCtorInvokeMemberExpression represents a base-class constructor call
// inside a class constructor body.
type BaseCtorInvokeMemberExpression struct {
	InvokeMemberExpression
}

// NewBaseCtorInvokeMemberExpression creates a base-constructor call node.
func NewBaseCtorInvokeMemberExpression(extent source.Extent, target Expression, args []Expression) *BaseCtorInvokeMemberExpression {
	member := NewStringConstantExpression(extent, "new", BareWord)
	inner := NewInvokeMemberExpression(extent, target, member, args, false)
	return &BaseCtorInvokeMemberExpression{InvokeMemberExpression: *inner}
}

// BinaryExpression represents a binary operation. ErrorPosition is the
// operator's own extent, used for runtime error reporting.
type BinaryExpression struct {
	BaseNode
	Left          Expression
	Operator      token.Kind
	Right         Expression
	ErrorPosition source.Extent
}

// NewBinaryExpression creates a binary operation node.
func NewBinaryExpression(extent source.Extent, left Expression, op token.Kind, right Expression, errorPos source.Extent) *BinaryExpression {
	b := &BinaryExpression{
		BaseNode:      newBase(extent),
		Left:          left,
		Operator:      op,
		Right:         right,
		ErrorPosition: errorPos,
	}
	adopt(b, left, right)
	return b
}

func (b *BinaryExpression) expressionNode()  {}
func (b *BinaryExpression) children() []Node { return []Node{b.Left, b.Right} }
func (b *BinaryExpression) String() string {
	return "(" + b.Left.String() + " " + b.Operator.String() + " " + b.Right.String() + ")"
}

// UnaryExpression represents a unary operation: -not, -bnot, +, -, ++/--
// (prefix and postfix), -join, -split.
type UnaryExpression struct {
	BaseNode
	Operator token.Kind
	Child    Expression
}

// NewUnaryExpression creates a unary operation node.
func NewUnaryExpression(extent source.Extent, op token.Kind, child Expression) *UnaryExpression {
	u := &UnaryExpression{BaseNode: newBase(extent), Operator: op, Child: child}
	adopt(u, child)
	return u
}

func (u *UnaryExpression) expressionNode()  {}
func (u *UnaryExpression) children() []Node { return []Node{u.Child} }
func (u *UnaryExpression) String() string {
	if u.Operator == token.PostfixPlusPlus || u.Operator == token.PostfixMinusMinus {
		return "(" + u.Child.String() + u.Operator.String() + ")"
	}
	return "(" + u.Operator.String() + " " + u.Child.String() + ")"
}

// ConvertExpression represents a cast: [type] expr.
type ConvertExpression struct {
	BaseNode
	Type  *TypeConstraint
	Child Expression
}

// NewConvertExpression creates a conversion node.
func NewConvertExpression(extent source.Extent, typ *TypeConstraint, child Expression) *ConvertExpression {
	c := &ConvertExpression{BaseNode: newBase(extent), Type: typ, Child: child}
	adopt(c, typ, child)
	return c
}

func (c *ConvertExpression) expressionNode()  {}
func (c *ConvertExpression) children() []Node { return []Node{c.Type, c.Child} }
func (c *ConvertExpression) String() string   { return c.Type.String() + c.Child.String() }

// AttributedExpression represents an attribute applied to an expression,
// e.g. [ValidateNotNull()]$x in an assignment target.
type AttributedExpression struct {
	BaseNode
	Attribute AttributeBase
	Child     Expression
}

// NewAttributedExpression creates an attributed expression node.
func NewAttributedExpression(extent source.Extent, attr AttributeBase, child Expression) *AttributedExpression {
	a := &AttributedExpression{BaseNode: newBase(extent), Attribute: attr, Child: child}
	adopt(a, attr, child)
	return a
}

func (a *AttributedExpression) expressionNode()  {}
func (a *AttributedExpression) children() []Node { return []Node{a.Attribute, a.Child} }
func (a *AttributedExpression) String() string   { return a.Attribute.String() + a.Child.String() }

// UsingExpression represents $using:expr inside remoted script blocks.
type UsingExpression struct {
	BaseNode
	Child Expression
}

// NewUsingExpression creates a using expression node.
func NewUsingExpression(extent source.Extent, child Expression) *UsingExpression {
	u := &UsingExpression{BaseNode: newBase(extent), Child: child}
	adopt(u, child)
	return u
}

func (u *UsingExpression) expressionNode()  {}
func (u *UsingExpression) children() []Node { return []Node{u.Child} }
func (u *UsingExpression) String() string   { return "$using:" + u.Child.String() }

// ErrorExpression is a placeholder the parser produces for unparseable
// expression text; checking continues so later errors still surface.
type ErrorExpression struct {
	BaseNode
	NestedAst []Node
}

// NewErrorExpression creates an error placeholder node.
func NewErrorExpression(extent source.Extent, nested []Node) *ErrorExpression {
	e := &ErrorExpression{BaseNode: newBase(extent), NestedAst: nested}
	for _, n := range nested {
		adopt(e, n)
	}
	return e
}

func (e *ErrorExpression) expressionNode()  {}
func (e *ErrorExpression) children() []Node { return e.NestedAst }
func (e *ErrorExpression) String() string   { return "<error>" }
