package ast

import (
	"strings"

	"github.com/cwbudde/go-psh/internal/source"
	"github.com/cwbudde/go-psh/internal/token"
)

// StatementBlock is a brace-delimited list of statements plus the traps
// attached to it.
type StatementBlock struct {
	BaseNode
	Statements []Statement
	Traps      []*TrapStatement
}

// NewStatementBlock creates a statement block node.
func NewStatementBlock(extent source.Extent, stmts []Statement, traps []*TrapStatement) *StatementBlock {
	b := &StatementBlock{BaseNode: newBase(extent), Statements: stmts, Traps: traps}
	for _, s := range stmts {
		adopt(b, s)
	}
	for _, t := range traps {
		adopt(b, t)
	}
	return b
}

func (b *StatementBlock) statementNode() {}
func (b *StatementBlock) children() []Node {
	out := make([]Node, 0, len(b.Statements)+len(b.Traps))
	for _, t := range b.Traps {
		out = append(out, t)
	}
	for _, s := range b.Statements {
		out = append(out, s)
	}
	return out
}
func (b *StatementBlock) String() string {
	parts := make([]string, len(b.Statements))
	for i, s := range b.Statements {
		parts[i] = s.String()
	}
	return strings.Join(parts, "; ")
}

// ============================================================================
// Pipelines and commands
// ============================================================================

// StreamKind names an output stream for redirection purposes.
type StreamKind int

const (
	StreamAll StreamKind = iota
	StreamOutput
	StreamError
	StreamWarning
	StreamVerbose
	StreamDebug
	StreamInformation
)

var streamNames = map[StreamKind]string{
	StreamAll:         "*",
	StreamOutput:      "1",
	StreamError:       "2",
	StreamWarning:     "3",
	StreamVerbose:     "4",
	StreamDebug:       "5",
	StreamInformation: "6",
}

// String returns the stream's redirection digit ("*" for all).
func (s StreamKind) String() string { return streamNames[s] }

// Redirection is a per-command directive rewiring an output stream.
type Redirection interface {
	Node
	FromStream() StreamKind
	redirectionNode()
}

// FileRedirection sends a stream to a file: n> file or n>> file.
type FileRedirection struct {
	BaseNode
	Stream   StreamKind
	Append   bool
	Location Expression
}

// NewFileRedirection creates a file redirection node.
func NewFileRedirection(extent source.Extent, stream StreamKind, appendMode bool, location Expression) *FileRedirection {
	r := &FileRedirection{BaseNode: newBase(extent), Stream: stream, Append: appendMode, Location: location}
	adopt(r, location)
	return r
}

func (r *FileRedirection) redirectionNode()       {}
func (r *FileRedirection) FromStream() StreamKind { return r.Stream }
func (r *FileRedirection) children() []Node       { return []Node{r.Location} }
func (r *FileRedirection) String() string {
	op := ">"
	if r.Append {
		op = ">>"
	}
	return r.Stream.String() + op + r.Location.String()
}

// MergingRedirection merges one stream into another: n>&1.
type MergingRedirection struct {
	BaseNode
	Stream StreamKind
	To     StreamKind
}

// NewMergingRedirection creates a merging redirection node.
func NewMergingRedirection(extent source.Extent, from, to StreamKind) *MergingRedirection {
	return &MergingRedirection{BaseNode: newBase(extent), Stream: from, To: to}
}

func (r *MergingRedirection) redirectionNode()       {}
func (r *MergingRedirection) FromStream() StreamKind { return r.Stream }
func (r *MergingRedirection) children() []Node       { return nil }
func (r *MergingRedirection) String() string {
	return r.Stream.String() + ">&" + r.To.String()
}

// PipelineElement is a single stage of a pipeline: a command or an
// expression, either way carrying its redirections.
type PipelineElement interface {
	Statement
	Redirections() []Redirection
}

// CommandAst represents a command invocation element (name, arguments,
// parameters) inside a pipeline.
type CommandAst struct {
	BaseNode
	CommandElements []Expression
	Redirects       []Redirection
	InvocationDot   bool
}

// NewCommandAst creates a command node.
func NewCommandAst(extent source.Extent, elements []Expression, redirections []Redirection) *CommandAst {
	c := &CommandAst{BaseNode: newBase(extent), CommandElements: elements, Redirects: redirections}
	for _, e := range elements {
		adopt(c, e)
	}
	for _, r := range redirections {
		adopt(c, r)
	}
	return c
}

func (c *CommandAst) statementNode()              {}
func (c *CommandAst) Redirections() []Redirection { return c.Redirects }
func (c *CommandAst) children() []Node {
	out := make([]Node, 0, len(c.CommandElements)+len(c.Redirects))
	for _, e := range c.CommandElements {
		out = append(out, e)
	}
	for _, r := range c.Redirects {
		out = append(out, r)
	}
	return out
}

// CommandName returns the constant command name, or "" when computed.
func (c *CommandAst) CommandName() string {
	if len(c.CommandElements) == 0 {
		return ""
	}
	if sc, ok := c.CommandElements[0].(*StringConstantExpression); ok {
		return sc.Value
	}
	return ""
}

func (c *CommandAst) String() string {
	parts := make([]string, len(c.CommandElements))
	for i, e := range c.CommandElements {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// CommandExpressionAst represents an expression element of a pipeline.
type CommandExpressionAst struct {
	BaseNode
	Expression Expression
	Redirects  []Redirection
}

// NewCommandExpressionAst creates a command-expression node.
func NewCommandExpressionAst(extent source.Extent, expr Expression, redirections []Redirection) *CommandExpressionAst {
	c := &CommandExpressionAst{BaseNode: newBase(extent), Expression: expr, Redirects: redirections}
	adopt(c, expr)
	for _, r := range redirections {
		adopt(c, r)
	}
	return c
}

func (c *CommandExpressionAst) statementNode()              {}
func (c *CommandExpressionAst) Redirections() []Redirection { return c.Redirects }
func (c *CommandExpressionAst) children() []Node {
	out := []Node{c.Expression}
	for _, r := range c.Redirects {
		out = append(out, r)
	}
	return out
}
func (c *CommandExpressionAst) String() string { return c.Expression.String() }

// CommandParameterAst represents a -Name or -Name:arg element of a command.
type CommandParameterAst struct {
	BaseNode
	ParameterName string
	Argument      Expression
}

// NewCommandParameterAst creates a command parameter node.
func NewCommandParameterAst(extent source.Extent, name string, argument Expression) *CommandParameterAst {
	p := &CommandParameterAst{BaseNode: newBase(extent), ParameterName: name, Argument: argument}
	adopt(p, argument)
	return p
}

func (p *CommandParameterAst) expressionNode() {}
func (p *CommandParameterAst) children() []Node {
	if p.Argument == nil {
		return nil
	}
	return []Node{p.Argument}
}
func (p *CommandParameterAst) String() string {
	if p.Argument != nil {
		return "-" + p.ParameterName + ":" + p.Argument.String()
	}
	return "-" + p.ParameterName
}

// PipelineAst is an ordered list of pipeline elements joined by |.
type PipelineAst struct {
	BaseNode
	Elements []PipelineElement
}

// NewPipelineAst creates a pipeline node.
func NewPipelineAst(extent source.Extent, elements []PipelineElement) *PipelineAst {
	p := &PipelineAst{BaseNode: newBase(extent), Elements: elements}
	for _, e := range elements {
		adopt(p, e)
	}
	return p
}

func (p *PipelineAst) statementNode() {}
func (p *PipelineAst) children() []Node {
	out := make([]Node, len(p.Elements))
	for i, e := range p.Elements {
		out[i] = e
	}
	return out
}
func (p *PipelineAst) String() string {
	parts := make([]string, len(p.Elements))
	for i, e := range p.Elements {
		parts[i] = e.String()
	}
	return strings.Join(parts, " | ")
}

// PureExpression returns the expression when the pipeline is a single
// expression element with no redirections, else nil.
func (p *PipelineAst) PureExpression() Expression {
	if len(p.Elements) != 1 {
		return nil
	}
	ce, ok := p.Elements[0].(*CommandExpressionAst)
	if !ok || len(ce.Redirects) != 0 {
		return nil
	}
	return ce.Expression
}

// ============================================================================
// Assignment
// ============================================================================

// AssignmentStatement represents lhs = rhs and the compound variants.
// ErrorPosition is the operator extent.
type AssignmentStatement struct {
	BaseNode
	Left          Expression
	Operator      token.Kind
	Right         Statement
	ErrorPosition source.Extent
}

// NewAssignmentStatement creates an assignment node.
func NewAssignmentStatement(extent source.Extent, left Expression, op token.Kind, right Statement, errorPos source.Extent) *AssignmentStatement {
	a := &AssignmentStatement{
		BaseNode:      newBase(extent),
		Left:          left,
		Operator:      op,
		Right:         right,
		ErrorPosition: errorPos,
	}
	adopt(a, left, right)
	return a
}

func (a *AssignmentStatement) statementNode()   {}
func (a *AssignmentStatement) children() []Node { return []Node{a.Left, a.Right} }
func (a *AssignmentStatement) String() string {
	return a.Left.String() + " " + a.Operator.String() + " " + a.Right.String()
}

// ============================================================================
// If and switch
// ============================================================================

// IfClause pairs one condition with its body.
type IfClause struct {
	Condition Statement
	Body      *StatementBlock
}

// IfStatement represents if/elseif/else.
type IfStatement struct {
	BaseNode
	Clauses    []IfClause
	ElseClause *StatementBlock
}

// NewIfStatement creates an if statement node.
func NewIfStatement(extent source.Extent, clauses []IfClause, elseClause *StatementBlock) *IfStatement {
	s := &IfStatement{BaseNode: newBase(extent), Clauses: clauses, ElseClause: elseClause}
	for _, c := range clauses {
		adopt(s, c.Condition, c.Body)
	}
	adopt(s, elseClause)
	return s
}

func (s *IfStatement) statementNode() {}
func (s *IfStatement) children() []Node {
	out := make([]Node, 0, len(s.Clauses)*2+1)
	for _, c := range s.Clauses {
		out = append(out, c.Condition, c.Body)
	}
	if s.ElseClause != nil {
		out = append(out, s.ElseClause)
	}
	return out
}
func (s *IfStatement) String() string {
	var sb strings.Builder
	for i, c := range s.Clauses {
		if i == 0 {
			sb.WriteString("if (")
		} else {
			sb.WriteString(" elseif (")
		}
		sb.WriteString(c.Condition.String())
		sb.WriteString(") {")
		sb.WriteString(c.Body.String())
		sb.WriteString("}")
	}
	if s.ElseClause != nil {
		sb.WriteString(" else {")
		sb.WriteString(s.ElseClause.String())
		sb.WriteString("}")
	}
	return sb.String()
}

// SwitchFlags are the modifier flags on a switch statement.
type SwitchFlags int

const (
	SwitchRegex SwitchFlags = 1 << iota
	SwitchWildcard
	SwitchExact
	SwitchCaseSensitive
	SwitchFile
	SwitchParallel
)

// Has reports whether flag is set.
func (f SwitchFlags) Has(flag SwitchFlags) bool { return f&flag != 0 }

// SwitchClause pairs a clause condition with its body. A nil Condition is
// only used internally; the default clause lives on the statement itself.
type SwitchClause struct {
	Condition Expression
	Body      *StatementBlock
}

// SwitchStatement represents switch with its clauses and optional default.
type SwitchStatement struct {
	BaseNode
	Label     string
	Condition Statement
	Flags     SwitchFlags
	Clauses   []SwitchClause
	Default   *StatementBlock
}

// NewSwitchStatement creates a switch statement node.
func NewSwitchStatement(extent source.Extent, label string, condition Statement, flags SwitchFlags, clauses []SwitchClause, def *StatementBlock) *SwitchStatement {
	s := &SwitchStatement{
		BaseNode:  newBase(extent),
		Label:     label,
		Condition: condition,
		Flags:     flags,
		Clauses:   clauses,
		Default:   def,
	}
	adopt(s, condition)
	for _, c := range clauses {
		adopt(s, c.Condition, c.Body)
	}
	adopt(s, def)
	return s
}

func (s *SwitchStatement) statementNode()    {}
func (s *SwitchStatement) LoopLabel() string { return s.Label }
func (s *SwitchStatement) children() []Node {
	out := []Node{s.Condition}
	for _, c := range s.Clauses {
		out = append(out, c.Condition, c.Body)
	}
	if s.Default != nil {
		out = append(out, s.Default)
	}
	return out
}
func (s *SwitchStatement) String() string {
	var sb strings.Builder
	sb.WriteString("switch (")
	sb.WriteString(s.Condition.String())
	sb.WriteString(") {")
	for _, c := range s.Clauses {
		sb.WriteString(c.Condition.String())
		sb.WriteString(" {")
		sb.WriteString(c.Body.String())
		sb.WriteString("} ")
	}
	if s.Default != nil {
		sb.WriteString("default {")
		sb.WriteString(s.Default.String())
		sb.WriteString("}")
	}
	sb.WriteString("}")
	return sb.String()
}

// ============================================================================
// Loops
// ============================================================================

// LoopStatement is implemented by every labelled loop node; the checker uses
// it to resolve break/continue labels against the ancestor chain.
type LoopStatement interface {
	Statement
	LoopLabel() string
}

// ForStatement represents for (init; cond; iter) { body }.
type ForStatement struct {
	BaseNode
	Label       string
	Initializer Statement
	Condition   Statement
	Iterator    Statement
	Body        *StatementBlock
}

// NewForStatement creates a for loop node.
func NewForStatement(extent source.Extent, label string, init, cond, iter Statement, body *StatementBlock) *ForStatement {
	s := &ForStatement{
		BaseNode:    newBase(extent),
		Label:       label,
		Initializer: init,
		Condition:   cond,
		Iterator:    iter,
		Body:        body,
	}
	adopt(s, init, cond, iter, body)
	return s
}

func (s *ForStatement) statementNode()    {}
func (s *ForStatement) LoopLabel() string { return s.Label }
func (s *ForStatement) children() []Node {
	out := make([]Node, 0, 4)
	if s.Initializer != nil {
		out = append(out, s.Initializer)
	}
	if s.Condition != nil {
		out = append(out, s.Condition)
	}
	if s.Iterator != nil {
		out = append(out, s.Iterator)
	}
	out = append(out, s.Body)
	return out
}
func (s *ForStatement) String() string { return "for (...) {" + s.Body.String() + "}" }

// ForEachFlags are the modifier flags on a foreach statement.
type ForEachFlags int

const (
	ForEachParallel ForEachFlags = 1 << iota
)

// ForEachStatement represents foreach ($v in collection) { body }.
type ForEachStatement struct {
	BaseNode
	Label         string
	Flags         ForEachFlags
	Variable      *VariableExpression
	Condition     Statement
	Body          *StatementBlock
	ThrottleLimit Expression
}

// NewForEachStatement creates a foreach loop node.
func NewForEachStatement(extent source.Extent, label string, flags ForEachFlags, variable *VariableExpression, condition Statement, body *StatementBlock, throttle Expression) *ForEachStatement {
	s := &ForEachStatement{
		BaseNode:      newBase(extent),
		Label:         label,
		Flags:         flags,
		Variable:      variable,
		Condition:     condition,
		Body:          body,
		ThrottleLimit: throttle,
	}
	adopt(s, variable, condition, body, throttle)
	return s
}

func (s *ForEachStatement) statementNode()    {}
func (s *ForEachStatement) LoopLabel() string { return s.Label }
func (s *ForEachStatement) children() []Node {
	out := []Node{s.Variable}
	if s.ThrottleLimit != nil {
		out = append(out, s.ThrottleLimit)
	}
	out = append(out, s.Condition, s.Body)
	return out
}
func (s *ForEachStatement) String() string {
	return "foreach (" + s.Variable.String() + " in " + s.Condition.String() + ") {" + s.Body.String() + "}"
}

// WhileStatement represents while (cond) { body }.
type WhileStatement struct {
	BaseNode
	Label     string
	Condition Statement
	Body      *StatementBlock
}

// NewWhileStatement creates a while loop node.
func NewWhileStatement(extent source.Extent, label string, condition Statement, body *StatementBlock) *WhileStatement {
	s := &WhileStatement{BaseNode: newBase(extent), Label: label, Condition: condition, Body: body}
	adopt(s, condition, body)
	return s
}

func (s *WhileStatement) statementNode()    {}
func (s *WhileStatement) LoopLabel() string { return s.Label }
func (s *WhileStatement) children() []Node  { return []Node{s.Condition, s.Body} }
func (s *WhileStatement) String() string {
	return "while (" + s.Condition.String() + ") {" + s.Body.String() + "}"
}

// DoWhileStatement represents do { body } while (cond).
type DoWhileStatement struct {
	BaseNode
	Label     string
	Condition Statement
	Body      *StatementBlock
}

// NewDoWhileStatement creates a do-while loop node.
func NewDoWhileStatement(extent source.Extent, label string, condition Statement, body *StatementBlock) *DoWhileStatement {
	s := &DoWhileStatement{BaseNode: newBase(extent), Label: label, Condition: condition, Body: body}
	adopt(s, body, condition)
	return s
}

func (s *DoWhileStatement) statementNode()    {}
func (s *DoWhileStatement) LoopLabel() string { return s.Label }
func (s *DoWhileStatement) children() []Node  { return []Node{s.Body, s.Condition} }
func (s *DoWhileStatement) String() string {
	return "do {" + s.Body.String() + "} while (" + s.Condition.String() + ")"
}

// DoUntilStatement represents do { body } until (cond).
type DoUntilStatement struct {
	BaseNode
	Label     string
	Condition Statement
	Body      *StatementBlock
}

// NewDoUntilStatement creates a do-until loop node.
func NewDoUntilStatement(extent source.Extent, label string, condition Statement, body *StatementBlock) *DoUntilStatement {
	s := &DoUntilStatement{BaseNode: newBase(extent), Label: label, Condition: condition, Body: body}
	adopt(s, body, condition)
	return s
}

func (s *DoUntilStatement) statementNode()    {}
func (s *DoUntilStatement) LoopLabel() string { return s.Label }
func (s *DoUntilStatement) children() []Node  { return []Node{s.Body, s.Condition} }
func (s *DoUntilStatement) String() string {
	return "do {" + s.Body.String() + "} until (" + s.Condition.String() + ")"
}
