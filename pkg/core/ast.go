package core

import "github.com/leapstack-labs/sqllineage/pkg/token"

// Node is the base interface for all AST nodes.
type Node interface {
	node()
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a marker interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
	// GetSpan returns the source range the statement was parsed from.
	GetSpan() token.Span
}

// TableRef is a marker interface for FROM clause items.
type TableRef interface {
	Node
	tableRefNode()
}

// NodeInfo carries the source span of a statement.
type NodeInfo struct {
	Span token.Span
}

// GetSpan returns the node's source span.
func (n *NodeInfo) GetSpan() token.Span {
	return n.Span
}
