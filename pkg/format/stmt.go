package format

import (
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/core"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

func (p *Printer) formatSelectStmt(stmt *core.SelectStmt) {
	if stmt == nil {
		return
	}

	if stmt.With != nil {
		p.formatWithClause(stmt.With)
	}

	p.formatSelectBody(stmt.Body)
}

func (p *Printer) formatWithClause(with *core.WithClause) {
	p.kw(token.WITH)
	if with.Recursive {
		p.space()
		p.keyword("RECURSIVE")
	}
	p.space()

	for i, cte := range with.CTEs {
		if i > 0 {
			p.write(",")
			p.writeln()
		}
		p.write(cte.Name)
		if len(cte.Columns) > 0 {
			p.write(" (" + strings.Join(cte.Columns, ", ") + ")")
		}
		p.space()
		p.kw(token.AS)
		p.space()
		p.formatSubquery(cte.Select)
	}
	p.writeln()
}

func (p *Printer) formatSelectBody(body *core.SelectBody) {
	if body == nil {
		return
	}

	p.formatSelectCore(body.Left)

	if body.Op != core.SetOpNone && body.Right != nil {
		p.writeln()
		p.keyword(string(body.Op))
		p.writeln()
		p.formatSelectBody(body.Right)
	}
}

func (p *Printer) formatSelectCore(sc *core.SelectCore) {
	if sc == nil {
		return
	}

	p.kw(token.SELECT)
	if sc.Distinct {
		p.space()
		p.kw(token.DISTINCT)
	}
	p.writeln()

	p.indent()
	p.formatList(len(sc.Columns), func(i int) { p.formatSelectItem(sc.Columns[i]) }, ",", true)
	p.dedent()

	if sc.From != nil {
		p.writeln()
		p.formatFromClause(sc.From)
	}

	if sc.Where != nil {
		p.writeln()
		p.kw(token.WHERE)
		p.writeln()
		p.indent()
		p.formatExpr(sc.Where)
		p.dedent()
	}

	if len(sc.GroupBy) > 0 {
		p.writeln()
		p.kw(token.GROUP, token.BY)
		p.space()
		p.formatList(len(sc.GroupBy), func(i int) { p.formatExpr(sc.GroupBy[i]) }, ", ", false)
	}

	if sc.Having != nil {
		p.writeln()
		p.kw(token.HAVING)
		p.space()
		p.formatExpr(sc.Having)
	}

	if sc.Qualify != nil {
		p.writeln()
		p.kw(token.QUALIFY)
		p.space()
		p.formatExpr(sc.Qualify)
	}

	if len(sc.OrderBy) > 0 {
		p.writeln()
		p.kw(token.ORDER, token.BY)
		p.space()
		p.formatList(len(sc.OrderBy), func(i int) { p.formatOrderByItem(sc.OrderBy[i]) }, ", ", false)
	}

	if sc.Limit != nil {
		p.writeln()
		p.kw(token.LIMIT)
		p.space()
		p.formatExpr(sc.Limit)
	}

	if sc.Offset != nil {
		p.writeln()
		p.kw(token.OFFSET)
		p.space()
		p.formatExpr(sc.Offset)
	}
}

func (p *Printer) formatSelectItem(item core.SelectItem) {
	switch {
	case item.Star:
		p.write("*")
	case item.TableStar != "":
		p.write(item.TableStar + ".*")
	default:
		p.formatExpr(item.Expr)
		if item.Alias != "" {
			p.space()
			p.kw(token.AS)
			p.space()
			p.write(item.Alias)
		}
		return
	}

	if len(item.Except) > 0 {
		p.space()
		p.kw(token.EXCEPT)
		p.write(" (" + strings.Join(item.Except, ", ") + ")")
	}
}

func (p *Printer) formatOrderByItem(item core.OrderByItem) {
	p.formatExpr(item.Expr)
	if item.Desc {
		p.space()
		p.kw(token.DESC)
	}
	if item.NullsFirst != nil {
		p.space()
		if *item.NullsFirst {
			p.keyword("NULLS FIRST")
		} else {
			p.keyword("NULLS LAST")
		}
	}
}

func (p *Printer) formatFromClause(from *core.FromClause) {
	p.kw(token.FROM)
	p.space()
	p.formatTableRef(from.Source)

	for _, join := range from.Joins {
		p.formatJoin(join)
	}
}

func (p *Printer) formatJoin(join *core.Join) {
	if join.Type == core.JoinComma {
		p.write(", ")
		p.formatTableRef(join.Right)
		return
	}

	p.writeln()
	if join.Natural {
		p.kw(token.NATURAL)
		p.space()
	}
	if join.Type != "" {
		p.keyword(string(join.Type))
		p.space()
	}
	p.kw(token.JOIN)
	p.space()
	p.formatTableRef(join.Right)

	if join.Condition != nil {
		p.space()
		p.kw(token.ON)
		p.space()
		p.formatExpr(join.Condition)
	}
	if len(join.Using) > 0 {
		p.space()
		p.kw(token.USING)
		p.write(" (" + strings.Join(join.Using, ", ") + ")")
	}
}

func (p *Printer) formatTableRef(ref core.TableRef) {
	switch t := ref.(type) {
	case *core.TableName:
		p.write(t.Name())
		p.formatAlias(t.Alias)
	case *core.DerivedTable:
		if t.Lateral {
			p.kw(token.LATERAL)
			p.space()
		}
		p.formatSubquery(t.Select)
		p.formatAlias(t.Alias)
	case *core.UnnestTable:
		p.keyword("UNNEST")
		p.write("(")
		p.formatExpr(t.Expr)
		p.write(")")
		p.formatAlias(t.Alias)
		if t.ColumnAlias != "" {
			p.write(" (" + t.ColumnAlias + ")")
		}
		if t.WithOffset {
			p.space()
			p.kw(token.WITH, token.OFFSET)
			p.formatAlias(t.OffsetAlias)
		}
	}
}

func (p *Printer) formatAlias(alias string) {
	if alias == "" {
		return
	}
	p.space()
	p.kw(token.AS)
	p.space()
	p.write(alias)
}

func (p *Printer) formatCreateStmt(stmt *core.CreateStmt) {
	if stmt.With != nil {
		p.formatWithClause(stmt.With)
	}
	p.keyword("CREATE")
	p.space()
	if stmt.OrReplace {
		p.kw(token.OR)
		p.space()
		p.keyword("REPLACE")
		p.space()
	}
	if stmt.Temporary {
		p.keyword("TEMPORARY")
		p.space()
	}
	if stmt.View {
		p.keyword("VIEW")
	} else {
		p.keyword("TABLE")
	}
	p.space()
	if stmt.IfNotExists {
		p.keyword("IF")
		p.space()
		p.kw(token.NOT, token.EXISTS)
		p.space()
	}
	p.write(stmt.Name.Name())

	if len(stmt.Columns) > 0 {
		p.write(" (")
		p.writeln()
		p.indent()
		p.formatList(len(stmt.Columns), func(i int) {
			col := stmt.Columns[i]
			p.write(col.Name + " " + col.Type.String())
		}, ",", true)
		p.dedent()
		p.writeln()
		p.write(")")
	}

	if stmt.Query != nil {
		p.space()
		p.kw(token.AS)
		p.writeln()
		p.formatSelectStmt(stmt.Query)
	}
}

func (p *Printer) formatInsertStmt(stmt *core.InsertStmt) {
	if stmt.With != nil {
		p.formatWithClause(stmt.With)
	}
	p.keyword("INSERT")
	p.space()
	p.kw(token.INTO)
	p.space()
	p.write(stmt.Table.Name())
	if len(stmt.Columns) > 0 {
		p.write(" (" + strings.Join(stmt.Columns, ", ") + ")")
	}
	p.writeln()

	if stmt.Query != nil {
		p.formatSelectStmt(stmt.Query)
		return
	}

	p.kw(token.VALUES)
	p.space()
	p.formatList(len(stmt.Values), func(i int) {
		row := stmt.Values[i]
		p.write("(")
		p.formatList(len(row), func(j int) { p.formatExpr(row[j]) }, ", ", false)
		p.write(")")
	}, ", ", false)
}

func (p *Printer) formatTruncateStmt(stmt *core.TruncateStmt) {
	p.keyword("TRUNCATE")
	p.space()
	p.keyword("TABLE")
	p.space()
	p.write(stmt.Table.Name())
}
