package parser

import (
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/core"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// FROM clause parsing: table references, derived tables, UNNEST, JOINs.
//
// Grammar:
//
//	from_clause   → table_ref (join)*
//	table_ref     → table_name [[AS] alias]
//	              | [LATERAL] "(" query ")" [[AS] alias]
//	              | UNNEST "(" expr ")" [[AS] alias ["(" column ")"]] [WITH OFFSET [[AS] alias]]
//	table_name    → identifier ("." identifier)* ["(" args ")"]
//	join          → "," table_ref
//	              | [NATURAL] [join_type] JOIN table_ref [ON expr | USING "(" ident_list ")"]
//	join_type     → INNER | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER] | CROSS

// parseFromClause parses the FROM clause.
func (p *Parser) parseFromClause() *core.FromClause {
	from := &core.FromClause{}
	from.Source = p.parseTableRef()

	for !p.failed() {
		join := p.parseJoin()
		if join == nil {
			break
		}
		from.Joins = append(from.Joins, join)
	}

	return from
}

// parseTableRef parses a table reference.
func (p *Parser) parseTableRef() core.TableRef {
	// LATERAL subquery
	lateral := p.match(token.LATERAL)

	// Derived table (subquery)
	if p.check(token.LPAREN) {
		return p.parseDerivedTable(lateral)
	}

	if p.checkWord("UNNEST") && p.checkPeek(token.LPAREN) {
		return p.parseUnnest()
	}

	table := p.parseTableName()
	if p.check(token.LPAREN) {
		// Table-valued function such as read_parquet('...'). Arguments are
		// not tracked.
		p.skipParens()
	}
	table.Alias = p.parseTableAlias()
	return table
}

// parseTableName parses a dotted table name.
func (p *Parser) parseTableName() *core.TableName {
	table := &core.TableName{}
	for {
		if !p.check(token.IDENT) && !(len(table.Parts) > 0 && p.checkIdentLike()) {
			p.unexpected("table name")
			return table
		}
		if p.token.Quoted && p.dialect.SplitQuotedNames && strings.Contains(p.token.Literal, ".") {
			table.Parts = append(table.Parts, strings.Split(p.token.Literal, ".")...)
		} else {
			table.Parts = append(table.Parts, p.token.Literal)
		}
		p.nextToken()
		if !p.match(token.DOT) {
			return table
		}
	}
}

// parseTableAlias parses an optional table alias and skips a column alias
// list such as t(a, b).
func (p *Parser) parseTableAlias() string {
	if !p.check(token.AS) && !p.check(token.IDENT) {
		return ""
	}
	alias := p.parseAlias()
	if p.check(token.LPAREN) {
		p.skipParens()
	}
	return alias
}

// parseDerivedTable parses a subquery in FROM clause.
func (p *Parser) parseDerivedTable(lateral bool) core.TableRef {
	p.expect(token.LPAREN)

	// A parenthesised table reference such as FROM (t) is unwrapped.
	if !p.checkQueryStart() && !p.check(token.LPAREN) {
		inner := p.parseTableRef()
		p.expect(token.RPAREN)
		return inner
	}

	sel := p.parseQuery()
	p.expect(token.RPAREN)
	return &core.DerivedTable{
		Select:  sel,
		Alias:   p.parseTableAlias(),
		Lateral: lateral,
	}
}

// parseUnnest parses UNNEST(expr) [AS] alias [(column)] [WITH OFFSET [AS] alias].
func (p *Parser) parseUnnest() core.TableRef {
	p.expectWord("UNNEST")
	p.expect(token.LPAREN)
	u := &core.UnnestTable{Expr: p.parseExpression()}
	p.expect(token.RPAREN)

	if p.match(token.AS) {
		u.Alias = p.parseName()
	} else if p.check(token.IDENT) {
		u.Alias = p.parseIdent()
	}
	if u.Alias != "" && p.check(token.LPAREN) {
		cols := p.parseIdentList()
		if len(cols) > 0 {
			u.ColumnAlias = cols[0]
		}
	}

	if p.check(token.WITH) && p.checkPeek(token.OFFSET) {
		p.nextToken()
		p.nextToken()
		u.WithOffset = true
		if p.match(token.AS) {
			u.OffsetAlias = p.parseName()
		} else if p.check(token.IDENT) {
			u.OffsetAlias = p.parseIdent()
		}
	}
	return u
}

// parseJoin parses a JOIN clause. Returns nil when no join follows.
func (p *Parser) parseJoin() *core.Join {
	if p.match(token.COMMA) {
		return &core.Join{Type: core.JoinComma, Right: p.parseTableRef()}
	}

	join := &core.Join{}
	join.Natural = p.match(token.NATURAL)

	switch {
	case p.match(token.INNER):
		join.Type = core.JoinInner
	case p.match(token.LEFT):
		p.match(token.OUTER)
		join.Type = core.JoinLeft
	case p.match(token.RIGHT):
		p.match(token.OUTER)
		join.Type = core.JoinRight
	case p.match(token.FULL):
		p.match(token.OUTER)
		join.Type = core.JoinFull
	case p.match(token.CROSS):
		join.Type = core.JoinCross
	case p.check(token.JOIN):
		join.Type = core.JoinInner
	default:
		if join.Natural {
			p.unexpected("JOIN")
		}
		return nil
	}

	if !p.expect(token.JOIN) {
		return nil
	}

	join.Right = p.parseTableRef()

	if p.match(token.ON) {
		join.Condition = p.parseExpression()
	} else if p.match(token.USING) {
		join.Using = p.parseIdentList()
	}

	return join
}
