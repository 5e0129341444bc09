package format

import (
	"github.com/leapstack-labs/sqllineage/pkg/core"
)

// SQL renders a node on a single line. Statements, select items
// (pass a *core.SelectItem), table references and expressions are
// supported; other values render as an empty string.
func SQL(n any) string {
	p := newPrinter(true)
	p.formatNode(n)
	return p.String()
}

// Pretty renders a statement over multiple lines.
func Pretty(stmt core.Stmt) string {
	p := newPrinter(false)
	p.formatNode(stmt)
	return p.String()
}

func (p *Printer) formatNode(n any) {
	switch n := n.(type) {
	case *core.SelectStmt:
		p.formatSelectStmt(n)
	case *core.CreateStmt:
		p.formatCreateStmt(n)
	case *core.InsertStmt:
		p.formatInsertStmt(n)
	case *core.TruncateStmt:
		p.formatTruncateStmt(n)
	case *core.SelectItem:
		p.formatSelectItem(*n)
	case core.SelectItem:
		p.formatSelectItem(n)
	case core.TableRef:
		p.formatTableRef(n)
	case core.Expr:
		p.formatExpr(n)
	}
}
