package parser

import (
	"fmt"

	"github.com/leapstack-labs/sqllineage/pkg/core"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Statement and query parsing.
//
// Grammar:
//
//	statement    → [with_clause] (query | create_stmt | insert_stmt)
//	             | truncate_stmt
//	with_clause  → WITH [RECURSIVE] cte ("," cte)*
//	cte          → identifier ["(" ident_list ")"] AS "(" query ")"
//	query        → [with_clause] select_body
//	select_body  → select_primary [set_op select_body]
//	select_primary → select_core | "(" query ")"
//	set_op       → UNION [ALL|DISTINCT] | INTERSECT [DISTINCT] | EXCEPT [DISTINCT]
//	select_core  → SELECT [DISTINCT [ON (...)] | ALL] [AS STRUCT|VALUE] select_list
//	               [FROM from_clause] [WHERE expr] [GROUP BY group_list]
//	               [HAVING expr] [WINDOW named_windows] [QUALIFY expr]
//	               [ORDER BY order_list] [LIMIT expr] [OFFSET expr]
//	select_item  → "*" [except] | qualified "." "*" [except] | expr [[AS] alias]
//	except       → (EXCEPT | EXCLUDE) "(" ident_list ")"

// parseStatement parses one top-level statement.
func (p *Parser) parseStatement() core.Stmt {
	var with *core.WithClause
	if p.check(token.WITH) {
		with = p.parseWithClause()
		if p.failed() {
			return nil
		}
	}

	switch {
	case p.check(token.SELECT), p.check(token.LPAREN):
		q := p.parseQuery()
		if q.With == nil {
			q.With = with
		}
		return q
	case p.check(token.CREATE):
		stmt := p.parseCreate()
		if stmt != nil && with != nil {
			stmt.With = with
		}
		return stmt
	case p.check(token.INSERT):
		stmt := p.parseInsert()
		if stmt != nil && with != nil {
			stmt.With = with
		}
		return stmt
	case with == nil && p.checkWord("TRUNCATE"):
		return p.parseTruncate()
	}

	p.addError(fmt.Sprintf(ErrUnsupportedStatement, describe(p.token)))
	return nil
}

// checkQueryStart returns true if the current token begins a query.
func (p *Parser) checkQueryStart() bool {
	return p.check(token.SELECT) || p.check(token.WITH)
}

// parseQuery parses [WITH ...] select_body. A fully parenthesised query
// is unwrapped.
func (p *Parser) parseQuery() *core.SelectStmt {
	stmt := &core.SelectStmt{}
	if p.check(token.WITH) {
		stmt.With = p.parseWithClause()
		if p.failed() {
			return stmt
		}
	}
	if stmt.With == nil && p.check(token.LPAREN) && (p.checkPeek(token.WITH) || p.checkPeek(token.LPAREN)) {
		p.nextToken()
		inner := p.parseQuery()
		p.expect(token.RPAREN)
		return inner
	}
	stmt.Body = p.parseSelectBody()
	return stmt
}

// parseWithClause parses WITH [RECURSIVE] cte, ...
func (p *Parser) parseWithClause() *core.WithClause {
	p.expect(token.WITH)
	with := &core.WithClause{Recursive: p.matchWord("RECURSIVE")}

	for {
		cte := &core.CTE{Name: p.parseIdent()}
		if p.check(token.LPAREN) {
			cte.Columns = p.parseIdentList()
		}
		if !p.expect(token.AS) {
			return with
		}
		// MATERIALIZED / NOT MATERIALIZED (postgres)
		if p.check(token.NOT) && isWord(p.peek, "MATERIALIZED") {
			p.nextToken()
		}
		p.matchWord("MATERIALIZED")
		if !p.expect(token.LPAREN) {
			return with
		}
		cte.Select = p.parseQuery()
		if !p.expect(token.RPAREN) {
			return with
		}
		with.CTEs = append(with.CTEs, cte)

		if !p.match(token.COMMA) {
			break
		}
	}
	return with
}

// parseSelectBody parses a select core followed by set operations.
func (p *Parser) parseSelectBody() *core.SelectBody {
	var body *core.SelectBody

	if p.check(token.LPAREN) {
		p.nextToken()
		inner := p.parseQuery()
		p.expect(token.RPAREN)
		if inner.Body == nil {
			return &core.SelectBody{}
		}
		body = inner.Body
	} else {
		body = &core.SelectBody{Left: p.parseSelectCore()}
	}
	if p.failed() {
		return body
	}

	op := p.parseSetOp()
	if op == core.SetOpNone {
		return body
	}

	// Attach the remainder to the tail of a possibly parenthesised chain.
	tail := body
	for tail.Right != nil {
		tail = tail.Right
	}
	tail.Op = op
	tail.Right = p.parseSelectBody()
	return body
}

func (p *Parser) parseSetOp() core.SetOpType {
	switch {
	case p.match(token.UNION):
		if p.match(token.ALL) {
			return core.SetOpUnionAll
		}
		p.match(token.DISTINCT)
		return core.SetOpUnion
	case p.match(token.INTERSECT):
		p.match(token.DISTINCT)
		return core.SetOpIntersect
	case p.match(token.EXCEPT):
		p.match(token.DISTINCT)
		return core.SetOpExcept
	}
	return core.SetOpNone
}

// parseSelectCore parses SELECT ... [FROM ...] [WHERE ...] ...
func (p *Parser) parseSelectCore() *core.SelectCore {
	sc := &core.SelectCore{}
	if !p.expect(token.SELECT) {
		return sc
	}

	if p.match(token.DISTINCT) {
		sc.Distinct = true
		if p.match(token.ON) {
			p.skipParens()
		}
	} else {
		p.match(token.ALL)
	}

	// BigQuery SELECT AS STRUCT / SELECT AS VALUE
	if p.check(token.AS) && (isWord(p.peek, "STRUCT") || isWord(p.peek, "VALUE")) {
		p.nextToken()
		p.nextToken()
	}

	sc.Columns = p.parseSelectList()
	if p.failed() {
		return sc
	}

	if p.match(token.FROM) {
		sc.From = p.parseFromClause()
	}

	if p.match(token.WHERE) {
		sc.Where = p.parseExpression()
	}

	if p.check(token.GROUP) {
		p.nextToken()
		p.expect(token.BY)
		if !p.match(token.ALL) {
			sc.GroupBy = p.parseExpressionList()
		}
	}

	if p.match(token.HAVING) {
		sc.Having = p.parseExpression()
	}

	if p.match(token.WINDOW) {
		for {
			p.parseIdent()
			p.expect(token.AS)
			p.parseWindowSpec()
			if !p.match(token.COMMA) || p.failed() {
				break
			}
		}
	}

	if p.match(token.QUALIFY) {
		sc.Qualify = p.parseExpression()
	}

	if p.check(token.ORDER) {
		p.nextToken()
		p.expect(token.BY)
		sc.OrderBy = p.parseOrderByList()
	}

	if p.match(token.LIMIT) {
		if !p.match(token.ALL) {
			sc.Limit = p.parseExpression()
		}
	}

	if p.match(token.OFFSET) {
		sc.Offset = p.parseExpression()
		if !p.matchWord("ROWS") {
			p.matchWord("ROW")
		}
	}

	return sc
}

// parseSelectList parses the comma separated select items.
func (p *Parser) parseSelectList() []core.SelectItem {
	var items []core.SelectItem
	for {
		items = append(items, p.parseSelectItem())
		if p.failed() || !p.match(token.COMMA) {
			break
		}
		// BigQuery tolerates a trailing comma before FROM.
		if p.check(token.FROM) {
			break
		}
	}
	return items
}

// parseSelectItem parses a single item in the SELECT list.
func (p *Parser) parseSelectItem() core.SelectItem {
	if p.match(token.STAR) {
		item := core.SelectItem{Star: true}
		item.Except = p.parseStarModifiers()
		return item
	}

	expr := p.parseExpression()
	if ref, ok := expr.(*core.ColumnRef); ok && len(ref.Parts) > 1 && ref.Name() == "*" {
		item := core.SelectItem{TableStar: joinParts(ref.Parts[:len(ref.Parts)-1])}
		item.Except = p.parseStarModifiers()
		return item
	}

	item := core.SelectItem{Expr: expr}
	item.Alias = p.parseAlias()
	return item
}

// parseStarModifiers parses EXCEPT/EXCLUDE lists and skips REPLACE lists
// following a wildcard.
func (p *Parser) parseStarModifiers() []string {
	var except []string
	for {
		switch {
		case p.check(token.EXCEPT) && p.checkPeek(token.LPAREN) && !p.checkPeek2(token.SELECT) && !p.checkPeek2(token.WITH):
			p.nextToken()
			except = append(except, p.parseIdentList()...)
		case p.checkWord("EXCLUDE"):
			p.nextToken()
			if p.check(token.LPAREN) {
				except = append(except, p.parseIdentList()...)
			} else {
				except = append(except, p.parseName())
			}
		case p.checkWord("REPLACE") && p.checkPeek(token.LPAREN):
			p.nextToken()
			p.skipParens()
		default:
			return except
		}
		if p.failed() {
			return except
		}
	}
}

// parseAlias parses an optional [AS] alias.
func (p *Parser) parseAlias() string {
	if p.match(token.AS) {
		return p.parseName()
	}
	if p.check(token.IDENT) {
		return p.parseIdent()
	}
	return ""
}

// parseOrderByList parses a comma separated ORDER BY list.
func (p *Parser) parseOrderByList() []core.OrderByItem {
	var items []core.OrderByItem
	for {
		item := core.OrderByItem{Expr: p.parseExpression()}
		if p.match(token.DESC) {
			item.Desc = true
		} else {
			p.match(token.ASC)
		}
		if p.matchWord("NULLS") {
			first := p.checkWord("FIRST")
			if first || p.checkWord("LAST") {
				p.nextToken()
				item.NullsFirst = &first
			} else {
				p.expectWord("FIRST")
			}
		}
		items = append(items, item)
		if p.failed() || !p.match(token.COMMA) {
			break
		}
	}
	return items
}

// parseExpressionList parses a comma separated list of expressions.
func (p *Parser) parseExpressionList() []core.Expr {
	var exprs []core.Expr
	for {
		exprs = append(exprs, p.parseExpression())
		if p.failed() || !p.match(token.COMMA) {
			break
		}
	}
	return exprs
}

func joinParts(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return (&core.ColumnRef{Parts: parts}).Path()
}
