package core

import "strings"

// ---------- Table Reference Types ----------

// TableName represents a possibly qualified table name.
type TableName struct {
	Parts []string
	Alias string
}

func (*TableName) node()         {}
func (*TableName) tableRefNode() {}

// Name returns the dotted qualified name.
func (t *TableName) Name() string {
	return strings.Join(t.Parts, ".")
}

// Base returns the unqualified last part of the name.
func (t *TableName) Base() string {
	if len(t.Parts) == 0 {
		return ""
	}
	return t.Parts[len(t.Parts)-1]
}

// AliasOrName returns the alias, falling back to the unqualified name.
func (t *TableName) AliasOrName() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Base()
}

// DerivedTable represents a subquery in FROM clause.
type DerivedTable struct {
	Select  *SelectStmt
	Alias   string
	Lateral bool
}

func (*DerivedTable) node()         {}
func (*DerivedTable) tableRefNode() {}

// UnnestTable represents UNNEST(expr) [AS] alias [(column)] [WITH OFFSET [AS name]].
type UnnestTable struct {
	Expr        Expr
	Alias       string
	ColumnAlias string
	WithOffset  bool
	OffsetAlias string
}

func (*UnnestTable) node()         {}
func (*UnnestTable) tableRefNode() {}

// ElementAlias returns the name the unnested element is referenced by.
// For UNNEST(x) AS t(e) that is e, for UNNEST(x) AS e it is e.
func (u *UnnestTable) ElementAlias() string {
	if u.ColumnAlias != "" {
		return u.ColumnAlias
	}
	return u.Alias
}
