package format

import (
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/core"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

const complexityThreshold = 5

func (p *Printer) formatExpr(e core.Expr) {
	if e == nil {
		return
	}

	switch expr := e.(type) {
	case *core.Literal:
		p.formatLiteral(expr)
	case *core.ColumnRef:
		p.write(expr.Path())
	case *core.BinaryExpr:
		p.formatBinaryExpr(expr)
	case *core.UnaryExpr:
		p.formatUnaryExpr(expr)
	case *core.FuncCall:
		p.formatFuncCall(expr)
	case *core.CaseExpr:
		p.formatCaseExpr(expr)
	case *core.CastExpr:
		p.formatCastExpr(expr)
	case *core.InExpr:
		p.formatInExpr(expr)
	case *core.BetweenExpr:
		p.formatBetweenExpr(expr)
	case *core.IsExpr:
		p.formatIsExpr(expr)
	case *core.LikeExpr:
		p.formatLikeExpr(expr)
	case *core.ParenExpr:
		p.write("(")
		p.formatExpr(expr.Expr)
		p.write(")")
	case *core.SubqueryExpr:
		p.formatSubquery(expr.Select)
	case *core.ExistsExpr:
		if expr.Not {
			p.kw(token.NOT)
			p.space()
		}
		p.kw(token.EXISTS)
		p.space()
		p.formatSubquery(expr.Select)
	case *core.StructLiteral:
		p.formatStructLiteral(expr)
	case *core.ArrayLiteral:
		p.formatArrayLiteral(expr)
	case *core.IndexExpr:
		p.formatExpr(expr.Expr)
		p.write("[")
		p.formatExpr(expr.Index)
		p.write("]")
	case *core.IntervalExpr:
		p.keyword("INTERVAL")
		p.space()
		p.formatExpr(expr.Value)
		if expr.Unit != "" {
			p.space()
			p.write(expr.Unit)
		}
	case *core.ExtractExpr:
		p.keyword("EXTRACT")
		p.write("(")
		p.write(expr.Unit)
		p.space()
		p.kw(token.FROM)
		p.space()
		p.formatExpr(expr.Expr)
		p.write(")")
	}
}

func exprComplexity(e core.Expr) int {
	if e == nil {
		return 0
	}

	switch expr := e.(type) {
	case *core.Literal, *core.ColumnRef:
		return 1
	case *core.BinaryExpr:
		return 1 + exprComplexity(expr.Left) + exprComplexity(expr.Right)
	case *core.UnaryExpr:
		return 1 + exprComplexity(expr.Expr)
	case *core.FuncCall:
		score := 2
		for _, arg := range expr.Args {
			score += exprComplexity(arg)
		}
		return score
	case *core.ParenExpr:
		return exprComplexity(expr.Expr)
	case *core.CaseExpr:
		score := 2
		for _, w := range expr.Whens {
			score += exprComplexity(w.Condition) + exprComplexity(w.Result)
		}
		return score
	case *core.StructLiteral:
		score := 1
		for _, f := range expr.Fields {
			score += exprComplexity(f.Value)
		}
		return score
	default:
		return 1
	}
}

func isLogicalOp(op token.TokenType) bool {
	return op == token.AND || op == token.OR
}

func (p *Printer) formatLiteral(lit *core.Literal) {
	switch lit.Type {
	case core.LiteralString:
		p.write("'" + strings.ReplaceAll(lit.Value, "'", "''") + "'")
	case core.LiteralBool:
		if strings.EqualFold(lit.Value, "TRUE") {
			p.kw(token.TRUE)
		} else {
			p.kw(token.FALSE)
		}
	case core.LiteralNull:
		p.kw(token.NULL)
	default:
		p.write(lit.Value)
	}
}

func (p *Printer) formatBinaryExpr(expr *core.BinaryExpr) {
	shouldBreak := exprComplexity(expr) > complexityThreshold && isLogicalOp(expr.Op)

	p.formatExpr(expr.Left)

	if shouldBreak {
		p.writeln()
		p.kw(expr.Op)
		p.space()
	} else {
		p.space()
		p.kw(expr.Op)
		p.space()
	}

	p.formatExpr(expr.Right)
}

func (p *Printer) formatUnaryExpr(expr *core.UnaryExpr) {
	p.kw(expr.Op)
	if expr.Op == token.NOT {
		p.space()
	}
	p.formatExpr(expr.Expr)
}

func (p *Printer) formatFuncCall(fn *core.FuncCall) {
	p.write(fn.Name)
	p.write("(")

	if fn.Distinct {
		p.kw(token.DISTINCT)
		p.space()
	}

	if fn.Star {
		p.write("*")
	} else {
		p.formatList(len(fn.Args), func(i int) { p.formatExpr(fn.Args[i]) }, ", ", false)
	}

	p.write(")")

	// FILTER clause
	if fn.Filter != nil {
		p.space()
		p.kw(token.FILTER)
		p.write(" (")
		p.kw(token.WHERE)
		p.space()
		p.formatExpr(fn.Filter)
		p.write(")")
	}

	// OVER clause (window function)
	if fn.Window != nil {
		p.space()
		p.formatWindowSpec(fn.Window)
	}
}

func (p *Printer) formatWindowSpec(w *core.WindowSpec) {
	p.kw(token.OVER)
	p.space()
	if w.Name != "" && len(w.PartitionBy) == 0 && len(w.OrderBy) == 0 && w.Frame == "" {
		p.write(w.Name)
		return
	}

	p.write("(")
	var parts []func()
	if w.Name != "" {
		parts = append(parts, func() { p.write(w.Name) })
	}
	if len(w.PartitionBy) > 0 {
		parts = append(parts, func() {
			p.kw(token.PARTITION, token.BY)
			p.space()
			p.formatList(len(w.PartitionBy), func(i int) { p.formatExpr(w.PartitionBy[i]) }, ", ", false)
		})
	}
	if len(w.OrderBy) > 0 {
		parts = append(parts, func() {
			p.kw(token.ORDER, token.BY)
			p.space()
			p.formatList(len(w.OrderBy), func(i int) { p.formatOrderByItem(w.OrderBy[i]) }, ", ", false)
		})
	}
	if w.Frame != "" {
		parts = append(parts, func() { p.write(w.Frame) })
	}
	p.formatList(len(parts), func(i int) { parts[i]() }, " ", false)
	p.write(")")
}

func (p *Printer) formatCaseExpr(c *core.CaseExpr) {
	p.kw(token.CASE)

	if c.Operand != nil {
		p.space()
		p.formatExpr(c.Operand)
	}

	p.writeln()
	p.indent()

	for _, w := range c.Whens {
		p.kw(token.WHEN)
		p.space()
		p.formatExpr(w.Condition)
		p.space()
		p.kw(token.THEN)
		p.space()
		p.formatExpr(w.Result)
		p.writeln()
	}

	if c.Else != nil {
		p.kw(token.ELSE)
		p.space()
		p.formatExpr(c.Else)
		p.writeln()
	}

	p.dedent()
	p.kw(token.END)
}

func (p *Printer) formatCastExpr(c *core.CastExpr) {
	if c.DoubleColon {
		p.formatExpr(c.Expr)
		p.write("::")
		p.write(c.TypeName)
		return
	}
	if c.Safe {
		p.keyword("SAFE_CAST")
	} else {
		p.kw(token.CAST)
	}
	p.write("(")
	p.formatExpr(c.Expr)
	p.space()
	p.kw(token.AS)
	p.space()
	p.write(c.TypeName)
	p.write(")")
}

func (p *Printer) formatInExpr(in *core.InExpr) {
	p.formatExpr(in.Expr)
	if in.Not {
		p.space()
		p.kw(token.NOT)
	}
	p.space()
	p.kw(token.IN)
	p.space()

	if in.Query != nil {
		p.formatSubquery(in.Query)
		return
	}
	if len(in.Values) == 1 {
		if fn, ok := in.Values[0].(*core.FuncCall); ok && fn.Name == "UNNEST" {
			p.formatExpr(fn)
			return
		}
	}
	p.write("(")
	p.formatList(len(in.Values), func(i int) { p.formatExpr(in.Values[i]) }, ", ", false)
	p.write(")")
}

func (p *Printer) formatBetweenExpr(b *core.BetweenExpr) {
	p.formatExpr(b.Expr)
	if b.Not {
		p.space()
		p.kw(token.NOT)
	}
	p.space()
	p.kw(token.BETWEEN)
	p.space()
	p.formatExpr(b.Low)
	p.space()
	p.kw(token.AND)
	p.space()
	p.formatExpr(b.High)
}

func (p *Printer) formatIsExpr(is *core.IsExpr) {
	p.formatExpr(is.Expr)
	p.space()
	p.kw(token.IS)
	if is.Not {
		p.space()
		p.kw(token.NOT)
	}
	p.space()
	p.kw(is.Value)
}

func (p *Printer) formatLikeExpr(like *core.LikeExpr) {
	p.formatExpr(like.Expr)
	if like.Not {
		p.space()
		p.kw(token.NOT)
	}
	p.space()
	p.kw(like.Op)
	p.space()
	p.formatExpr(like.Pattern)
}

func (p *Printer) formatSubquery(sel *core.SelectStmt) {
	p.write("(")
	p.writeln()
	p.indent()
	p.formatSelectStmt(sel)
	p.dedent()
	p.write(")")
}

func (p *Printer) formatStructLiteral(s *core.StructLiteral) {
	if s.Braces {
		p.write("{")
		for i, field := range s.Fields {
			if i > 0 {
				p.write(", ")
			}
			p.write("'" + strings.ReplaceAll(field.Name, "'", "''") + "': ")
			p.formatExpr(field.Value)
		}
		p.write("}")
		return
	}

	p.keyword("STRUCT")
	p.write("(")
	for i, field := range s.Fields {
		if i > 0 {
			p.write(", ")
		}
		p.formatExpr(field.Value)
		if field.Name != "" {
			p.space()
			p.kw(token.AS)
			p.space()
			p.write(field.Name)
		}
	}
	p.write(")")
}

func (p *Printer) formatArrayLiteral(a *core.ArrayLiteral) {
	if a.Keyword {
		p.keyword("ARRAY")
	}
	p.write("[")
	p.formatList(len(a.Elements), func(i int) { p.formatExpr(a.Elements[i]) }, ", ", false)
	p.write("]")
}
