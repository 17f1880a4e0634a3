// Package ast defines the Abstract Syntax Tree node types for the engine.
package ast

import (
	"strings"

	"github.com/cwbudde/go-psh/internal/source"
)

// Node is the base interface for all AST nodes.
// Every node carries a source extent and a non-owning back-pointer to its
// parent. Parent links are set exactly once, during bottom-up construction.
type Node interface {
	// Extent returns the span of source text this node covers.
	Extent() source.Extent

	// Parent returns the enclosing node, or nil for the root script block.
	Parent() Node

	// String returns a string representation of the node for debugging and testing.
	String() string

	setParent(Node)
	children() []Node
}

// Expression represents any node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement represents a node that performs an action.
type Statement interface {
	Node
	statementNode()
}

// BaseNode supplies the extent and parent plumbing shared by every node.
type BaseNode struct {
	extent source.Extent
	parent Node
}

// Extent returns the node's source extent.
func (b *BaseNode) Extent() source.Extent { return b.extent }

// Parent returns the node's parent, nil for the root.
func (b *BaseNode) Parent() Node { return b.parent }

func (b *BaseNode) setParent(p Node) {
	if b.parent != nil {
		panic("ast: parent link set twice")
	}
	b.parent = p
}

// newBase builds the embedded BaseNode for a node under construction.
func newBase(extent source.Extent) BaseNode {
	return BaseNode{extent: extent}
}

// adopt wires child parent links to parent. Children are created before
// their parent, so this runs once inside each constructor. Nil children
// (optional clauses) are skipped.
func adopt(parent Node, nodes ...Node) {
	for _, n := range nodes {
		if n == nil || isNilNode(n) {
			continue
		}
		n.setParent(parent)
	}
}

// isNilNode guards against typed-nil interface values from optional fields.
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *StatementBlock:
		return v == nil
	case *ParamBlock:
		return v == nil
	case *NamedBlock:
		return v == nil
	case *CatchClause:
		return v == nil
	case *TypeConstraint:
		return v == nil
	case *VariableExpression:
		return v == nil
	case *ScriptBlockAst:
		return v == nil
	}
	return false
}

// ============================================================================
// Visitor
// ============================================================================

// VisitAction tells the Walk driver how to proceed after visiting a node.
type VisitAction int

const (
	// Continue visits the node's children, then the rest of the tree.
	Continue VisitAction = iota
	// SkipChildren skips the node's children but continues the traversal.
	SkipChildren
	// Stop abandons the traversal entirely.
	Stop
)

// Visitor is the pre-order visitor protocol. Visit fires before a node's
// children; PostVisit fires after all children have been visited, or right
// after Visit when it returns SkipChildren. PostVisit does not fire for a node
// whose Visit returns Stop, nor for the nodes above a child that stopped the
// traversal.
type Visitor interface {
	Visit(node Node) VisitAction
	PostVisit(node Node)
}

// Walk traverses the tree rooted at node in source order, driving the
// visitor. Children are visited left-to-right, top-to-bottom in the node's
// logical layout. Walk returns false if the visitor stopped the traversal.
func Walk(v Visitor, node Node) bool {
	if node == nil || isNilNode(node) {
		return true
	}

	switch v.Visit(node) {
	case Stop:
		return false
	case SkipChildren:
		v.PostVisit(node)
		return true
	}

	for _, child := range node.children() {
		if child == nil || isNilNode(child) {
			continue
		}
		if !Walk(v, child) {
			return false
		}
	}

	v.PostVisit(node)
	return true
}

// ============================================================================
// Variable paths
// ============================================================================

// ScopeKind identifies the scope qualifier of a variable path.
type ScopeKind int

const (
	ScopeUnspecified ScopeKind = iota
	ScopeLocal
	ScopeScript
	ScopeGlobal
	ScopePrivate
	ScopeEnv
	ScopeDrive
)

// VariablePath is the parsed form of a variable reference: an optional scope
// or drive qualifier plus the bare name. The original user-typed text is
// preserved for error messages.
type VariablePath struct {
	Scope     ScopeKind
	DriveName string
	Name      string
	UserPath  string
}

// NewVariablePath parses "scope:name" qualifiers out of a user path.
// An unqualified path is just the name.
func NewVariablePath(userPath string) VariablePath {
	vp := VariablePath{UserPath: userPath, Name: userPath}
	idx := strings.IndexByte(userPath, ':')
	if idx < 0 {
		return vp
	}
	qualifier := userPath[:idx]
	vp.Name = userPath[idx+1:]
	switch strings.ToLower(qualifier) {
	case "local":
		vp.Scope = ScopeLocal
	case "script":
		vp.Scope = ScopeScript
	case "global":
		vp.Scope = ScopeGlobal
	case "private":
		vp.Scope = ScopePrivate
	case "env":
		vp.Scope = ScopeEnv
	default:
		vp.Scope = ScopeDrive
		vp.DriveName = qualifier
	}
	return vp
}

// IsUnqualified reports whether the path has no scope or drive qualifier.
func (vp VariablePath) IsUnqualified() bool {
	return vp.Scope == ScopeUnspecified
}

// String returns the original user-typed path.
func (vp VariablePath) String() string { return vp.UserPath }
