package core

import "strings"

// ---------- Statement Types ----------

// SelectStmt represents a complete query with optional WITH clause.
type SelectStmt struct {
	NodeInfo
	With *WithClause
	Body *SelectBody
}

func (*SelectStmt) node()     {}
func (*SelectStmt) stmtNode() {}

// CreateStmt represents CREATE [OR REPLACE] [TEMP] TABLE|VIEW name ...
// The body is either a query (AS SELECT) or a list of column definitions.
type CreateStmt struct {
	NodeInfo
	// With is a WITH clause written before CREATE (BigQuery scripts allow it).
	With        *WithClause
	OrReplace   bool
	Temporary   bool
	View        bool
	IfNotExists bool
	Name        *TableName
	Columns     []*ColumnDef
	Query       *SelectStmt
}

func (*CreateStmt) node()     {}
func (*CreateStmt) stmtNode() {}

// InsertStmt represents INSERT INTO name [(cols)] (query | VALUES ...).
type InsertStmt struct {
	NodeInfo
	With    *WithClause
	Table   *TableName
	Columns []string
	Query   *SelectStmt
	Values  [][]Expr
}

func (*InsertStmt) node()     {}
func (*InsertStmt) stmtNode() {}

// TruncateStmt represents TRUNCATE [TABLE] name.
type TruncateStmt struct {
	NodeInfo
	Table *TableName
}

func (*TruncateStmt) node()     {}
func (*TruncateStmt) stmtNode() {}

// ColumnDef is a column in a CREATE TABLE column list.
type ColumnDef struct {
	Name string
	Type *TypeSpec
}

// TypeSpec is a column type. Fields is non-nil for STRUCT types and
// Elem is set for ARRAY types. Args keeps type parameters such as the
// precision of NUMERIC(10, 2) verbatim.
type TypeSpec struct {
	Name   string
	Args   string
	Fields []*ColumnDef
	Elem   *TypeSpec
}

// String renders the type the way it is written in BigQuery DDL.
func (t *TypeSpec) String() string {
	if t == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(t.Name)
	switch {
	case t.Elem != nil:
		sb.WriteString("<" + t.Elem.String() + ">")
	case t.Fields != nil:
		sb.WriteString("<")
		for i, f := range t.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name + " " + f.Type.String())
		}
		sb.WriteString(">")
	case t.Args != "":
		sb.WriteString("(" + t.Args + ")")
	}
	return sb.String()
}

// Record returns the struct fields of the type, looking through ARRAY
// wrappers. The boolean is false for scalar types.
func (t *TypeSpec) Record() ([]*ColumnDef, bool) {
	for cur := t; cur != nil; cur = cur.Elem {
		if cur.Fields != nil {
			return cur.Fields, true
		}
	}
	return nil, false
}

// WithClause represents WITH [RECURSIVE] cte, ...
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE represents a Common Table Expression.
type CTE struct {
	Name    string
	Columns []string
	Select  *SelectStmt
}

// SelectBody represents the body of a SELECT with optional set operations.
type SelectBody struct {
	Left  *SelectCore
	Op    SetOpType
	Right *SelectBody
}

// SetOpType represents UNION, INTERSECT or EXCEPT.
type SetOpType string

// Set operation types.
const (
	SetOpNone      SetOpType = ""
	SetOpUnion     SetOpType = "UNION"
	SetOpUnionAll  SetOpType = "UNION ALL"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// Cores returns every SelectCore of the body in order.
func (b *SelectBody) Cores() []*SelectCore {
	var cores []*SelectCore
	for cur := b; cur != nil; cur = cur.Right {
		if cur.Left != nil {
			cores = append(cores, cur.Left)
		}
	}
	return cores
}

// SelectCore represents the core SELECT clause.
type SelectCore struct {
	Distinct bool
	Columns  []SelectItem
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	Qualify  Expr
	OrderBy  []OrderByItem
	Limit    Expr
	Offset   Expr
}

// SelectItem represents an item in the SELECT list.
type SelectItem struct {
	Star      bool     // SELECT *
	TableStar string   // SELECT t.*
	Except    []string // SELECT * EXCEPT (a, b)
	Expr      Expr
	Alias     string
}

// OrderByItem represents an ORDER BY item.
type OrderByItem struct {
	Expr       Expr
	Desc       bool
	NullsFirst *bool
}

// FromClause represents the FROM clause.
type FromClause struct {
	Source TableRef
	Joins  []*Join
}

// Refs returns the primary source followed by every joined table.
func (f *FromClause) Refs() []TableRef {
	if f == nil {
		return nil
	}
	refs := make([]TableRef, 0, len(f.Joins)+1)
	if f.Source != nil {
		refs = append(refs, f.Source)
	}
	for _, j := range f.Joins {
		if j.Right != nil {
			refs = append(refs, j.Right)
		}
	}
	return refs
}

// JoinType represents the type of join.
type JoinType string

// Join types.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
	JoinComma JoinType = ","
)

// Join represents a JOIN clause.
type Join struct {
	Type      JoinType
	Natural   bool
	Right     TableRef
	Condition Expr
	Using     []string
}
