package ast

import (
	"strings"

	"github.com/cwbudde/go-psh/internal/source"
)

// CatchClause is one catch arm of a try statement. An empty CatchTypes list
// makes it a catch-all.
type CatchClause struct {
	BaseNode
	CatchTypes []*TypeConstraint
	Body       *StatementBlock
}

// NewCatchClause creates a catch clause node.
func NewCatchClause(extent source.Extent, catchTypes []*TypeConstraint, body *StatementBlock) *CatchClause {
	c := &CatchClause{BaseNode: newBase(extent), CatchTypes: catchTypes, Body: body}
	for _, t := range catchTypes {
		adopt(c, t)
	}
	adopt(c, body)
	return c
}

func (c *CatchClause) statementNode() {}

// IsCatchAll reports whether the clause catches every exception type.
func (c *CatchClause) IsCatchAll() bool { return len(c.CatchTypes) == 0 }

func (c *CatchClause) children() []Node {
	out := make([]Node, 0, len(c.CatchTypes)+1)
	for _, t := range c.CatchTypes {
		out = append(out, t)
	}
	out = append(out, c.Body)
	return out
}

func (c *CatchClause) String() string {
	parts := make([]string, len(c.CatchTypes))
	for i, t := range c.CatchTypes {
		parts[i] = t.String()
	}
	return "catch " + strings.Join(parts, ", ") + " {" + c.Body.String() + "}"
}

// TryStatement represents try { } catch { } finally { }.
type TryStatement struct {
	BaseNode
	Body         *StatementBlock
	CatchClauses []*CatchClause
	Finally      *StatementBlock
}

// NewTryStatement creates a try statement node.
func NewTryStatement(extent source.Extent, body *StatementBlock, catches []*CatchClause, finally *StatementBlock) *TryStatement {
	t := &TryStatement{BaseNode: newBase(extent), Body: body, CatchClauses: catches, Finally: finally}
	adopt(t, body)
	for _, c := range catches {
		adopt(t, c)
	}
	adopt(t, finally)
	return t
}

func (t *TryStatement) statementNode() {}
func (t *TryStatement) children() []Node {
	out := []Node{t.Body}
	for _, c := range t.CatchClauses {
		out = append(out, c)
	}
	if t.Finally != nil {
		out = append(out, t.Finally)
	}
	return out
}
func (t *TryStatement) String() string {
	var sb strings.Builder
	sb.WriteString("try {")
	sb.WriteString(t.Body.String())
	sb.WriteString("}")
	for _, c := range t.CatchClauses {
		sb.WriteString(" ")
		sb.WriteString(c.String())
	}
	if t.Finally != nil {
		sb.WriteString(" finally {")
		sb.WriteString(t.Finally.String())
		sb.WriteString("}")
	}
	return sb.String()
}

// TrapStatement attaches a non-clause error handler to a statement block.
// A nil TrapType traps every exception.
type TrapStatement struct {
	BaseNode
	TrapType *TypeConstraint
	Body     *StatementBlock
}

// NewTrapStatement creates a trap statement node.
func NewTrapStatement(extent source.Extent, trapType *TypeConstraint, body *StatementBlock) *TrapStatement {
	t := &TrapStatement{BaseNode: newBase(extent), TrapType: trapType, Body: body}
	adopt(t, trapType, body)
	return t
}

func (t *TrapStatement) statementNode() {}
func (t *TrapStatement) children() []Node {
	if t.TrapType != nil {
		return []Node{t.TrapType, t.Body}
	}
	return []Node{t.Body}
}
func (t *TrapStatement) String() string {
	if t.TrapType != nil {
		return "trap " + t.TrapType.String() + " {" + t.Body.String() + "}"
	}
	return "trap {" + t.Body.String() + "}"
}

// ThrowStatement represents throw, with an optional operand pipeline.
// With no operand inside a catch, the current exception is rethrown.
type ThrowStatement struct {
	BaseNode
	Pipeline Statement
}

// NewThrowStatement creates a throw statement node.
func NewThrowStatement(extent source.Extent, pipeline Statement) *ThrowStatement {
	t := &ThrowStatement{BaseNode: newBase(extent), Pipeline: pipeline}
	adopt(t, pipeline)
	return t
}

func (t *ThrowStatement) statementNode() {}
func (t *ThrowStatement) children() []Node {
	if t.Pipeline == nil {
		return nil
	}
	return []Node{t.Pipeline}
}
func (t *ThrowStatement) String() string {
	if t.Pipeline != nil {
		return "throw " + t.Pipeline.String()
	}
	return "throw"
}

// ReturnStatement represents return, with an optional value pipeline.
type ReturnStatement struct {
	BaseNode
	Pipeline Statement
}

// NewReturnStatement creates a return statement node.
func NewReturnStatement(extent source.Extent, pipeline Statement) *ReturnStatement {
	r := &ReturnStatement{BaseNode: newBase(extent), Pipeline: pipeline}
	adopt(r, pipeline)
	return r
}

func (r *ReturnStatement) statementNode() {}
func (r *ReturnStatement) children() []Node {
	if r.Pipeline == nil {
		return nil
	}
	return []Node{r.Pipeline}
}
func (r *ReturnStatement) String() string {
	if r.Pipeline != nil {
		return "return " + r.Pipeline.String()
	}
	return "return"
}

// ExitStatement represents exit, with an optional exit-code pipeline.
type ExitStatement struct {
	BaseNode
	Pipeline Statement
}

// NewExitStatement creates an exit statement node.
func NewExitStatement(extent source.Extent, pipeline Statement) *ExitStatement {
	e := &ExitStatement{BaseNode: newBase(extent), Pipeline: pipeline}
	adopt(e, pipeline)
	return e
}

func (e *ExitStatement) statementNode() {}
func (e *ExitStatement) children() []Node {
	if e.Pipeline == nil {
		return nil
	}
	return []Node{e.Pipeline}
}
func (e *ExitStatement) String() string {
	if e.Pipeline != nil {
		return "exit " + e.Pipeline.String()
	}
	return "exit"
}

// BreakStatement represents break, with an optional label expression.
type BreakStatement struct {
	BaseNode
	Label Expression
}

// NewBreakStatement creates a break statement node.
func NewBreakStatement(extent source.Extent, label Expression) *BreakStatement {
	b := &BreakStatement{BaseNode: newBase(extent), Label: label}
	adopt(b, label)
	return b
}

func (b *BreakStatement) statementNode() {}
func (b *BreakStatement) children() []Node {
	if b.Label == nil {
		return nil
	}
	return []Node{b.Label}
}
func (b *BreakStatement) String() string {
	if b.Label != nil {
		return "break " + b.Label.String()
	}
	return "break"
}

// ContinueStatement represents continue, with an optional label expression.
type ContinueStatement struct {
	BaseNode
	Label Expression
}

// NewContinueStatement creates a continue statement node.
func NewContinueStatement(extent source.Extent, label Expression) *ContinueStatement {
	c := &ContinueStatement{BaseNode: newBase(extent), Label: label}
	adopt(c, label)
	return c
}

func (c *ContinueStatement) statementNode() {}
func (c *ContinueStatement) children() []Node {
	if c.Label == nil {
		return nil
	}
	return []Node{c.Label}
}
func (c *ContinueStatement) String() string {
	if c.Label != nil {
		return "continue " + c.Label.String()
	}
	return "continue"
}

// ConstantLabel returns the literal label string of a break/continue label
// expression, or "" when absent or computed.
func ConstantLabel(label Expression) string {
	if label == nil {
		return ""
	}
	if sc, ok := label.(*StringConstantExpression); ok {
		return sc.Value
	}
	return ""
}

// DataStatement represents data [-SupportedCommand ...] name { body }.
// The body is checked under the restricted-language rules and runs with the
// language mode lowered to restricted.
type DataStatement struct {
	BaseNode
	Variable        string
	CommandsAllowed []string
	Body            *StatementBlock
}

// NewDataStatement creates a data statement node.
func NewDataStatement(extent source.Extent, variable string, commandsAllowed []string, body *StatementBlock) *DataStatement {
	d := &DataStatement{BaseNode: newBase(extent), Variable: variable, CommandsAllowed: commandsAllowed, Body: body}
	adopt(d, body)
	return d
}

func (d *DataStatement) statementNode()   {}
func (d *DataStatement) children() []Node { return []Node{d.Body} }
func (d *DataStatement) String() string {
	if d.Variable != "" {
		return "data " + d.Variable + " {" + d.Body.String() + "}"
	}
	return "data {" + d.Body.String() + "}"
}

// BlockStatement represents the workflow-only sequence/parallel/inlinescript
// block forms. Outside a workflow the checker rejects it.
type BlockStatement struct {
	BaseNode
	Kind string
	Body *StatementBlock
}

// NewBlockStatement creates a block statement node.
func NewBlockStatement(extent source.Extent, kind string, body *StatementBlock) *BlockStatement {
	b := &BlockStatement{BaseNode: newBase(extent), Kind: kind, Body: body}
	adopt(b, body)
	return b
}

func (b *BlockStatement) statementNode()   {}
func (b *BlockStatement) children() []Node { return []Node{b.Body} }
func (b *BlockStatement) String() string   { return b.Kind + " {" + b.Body.String() + "}" }
