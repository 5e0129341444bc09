package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/core"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Primary expression parsing: literals, column references, function calls,
// parenthesised expressions and subqueries.
//
// Grammar:
//
//	primary     → literal | column_ref | func_call | "(" expr ")" | "(" query ")"
//	            | case_expr | cast_expr | exists_expr | struct_expr | array_expr
//	            | interval_expr | extract_expr
//	column_ref  → identifier ("." name)* ["." "*"]
//	func_call   → name ("." name)* "(" [DISTINCT] ("*" | args) ")" [FILTER ...] [OVER ...]

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() core.Expr {
	switch p.token.Type {
	case token.NUMBER:
		lit := &core.Literal{Type: core.LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.STRING:
		lit := &core.Literal{Type: core.LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.TRUE, token.FALSE:
		lit := &core.Literal{Type: core.LiteralBool, Value: p.token.Type.String()}
		p.nextToken()
		return lit

	case token.NULL:
		p.nextToken()
		return &core.Literal{Type: core.LiteralNull, Value: "NULL"}

	case token.LPAREN:
		return p.parseParenExpr()

	case token.LBRACKET:
		return p.parseArrayLiteral(false)

	case token.LBRACE:
		return p.parseBraceStruct()

	case token.CASE:
		return p.parseCaseExpr()

	case token.CAST:
		p.nextToken()
		return p.parseCastCall(false)

	case token.EXISTS:
		p.nextToken()
		p.expect(token.LPAREN)
		sel := p.parseQuery()
		p.expect(token.RPAREN)
		return &core.ExistsExpr{Select: sel}

	case token.LEFT, token.RIGHT, token.OFFSET:
		// LEFT(s, n), RIGHT(s, n) and BigQuery arr[OFFSET(i)]
		if p.checkPeek(token.LPAREN) {
			name := p.token.Type.String()
			p.nextToken()
			return p.parseFuncCall(name)
		}

	case token.IDENT:
		if !p.token.Quoted {
			if expr, ok := p.parseSpecialForm(); ok {
				return expr
			}
		}
		return p.parseRefOrCall()
	}

	p.addError(fmt.Sprintf(ErrUnexpectedExpr, describe(p.token)))
	return nil
}

// parseParenExpr parses "(" expr ")", "(" query ")" or a row tuple.
func (p *Parser) parseParenExpr() core.Expr {
	p.expect(token.LPAREN)

	if p.checkQueryStart() {
		sel := p.parseQuery()
		p.expect(token.RPAREN)
		return &core.SubqueryExpr{Select: sel}
	}

	expr := p.parseExpression()
	if p.check(token.COMMA) {
		// Row constructor (a, b) is kept as an anonymous call.
		args := []core.Expr{expr}
		for p.match(token.COMMA) && !p.failed() {
			args = append(args, p.parseExpression())
		}
		p.expect(token.RPAREN)
		return &core.FuncCall{Args: args}
	}
	p.expect(token.RPAREN)
	return &core.ParenExpr{Expr: expr}
}

// parseRefOrCall parses a dotted column reference or a possibly qualified
// function call.
func (p *Parser) parseRefOrCall() core.Expr {
	parts := []string{p.token.Literal}
	p.nextToken()

	for p.check(token.DOT) {
		p.nextToken()
		switch {
		case p.check(token.STAR):
			// t.* is returned as a reference whose last part is "*"; the
			// select list turns it into a table wildcard.
			p.nextToken()
			return &core.ColumnRef{Parts: append(parts, "*")}
		case p.checkIdentLike():
			parts = append(parts, p.token.Literal)
			p.nextToken()
		default:
			p.unexpected("identifier")
			return nil
		}
	}

	if p.check(token.LPAREN) {
		return p.parseFuncCall(joinParts(parts))
	}
	return &core.ColumnRef{Parts: parts}
}

// parseFuncCall parses the argument list of a call to name, starting at "(".
func (p *Parser) parseFuncCall(name string) core.Expr {
	p.expect(token.LPAREN)
	fn := &core.FuncCall{Name: name}

	switch {
	case p.check(token.STAR) && p.checkPeek(token.RPAREN):
		p.nextToken()
		fn.Star = true
	case p.checkQueryStart():
		// ARRAY(SELECT ...) and similar
		sel := p.parseQuery()
		fn.Args = []core.Expr{&core.SubqueryExpr{Select: sel}}
	case !p.check(token.RPAREN):
		if p.match(token.DISTINCT) {
			fn.Distinct = true
		} else {
			p.match(token.ALL)
		}
		fn.Args = p.parseExpressionList()
		p.skipAggregateModifiers()
	}
	if !p.expect(token.RPAREN) {
		return nil
	}

	// IGNORE NULLS / RESPECT NULLS after the argument list
	if (p.checkWord("IGNORE") || p.checkWord("RESPECT")) && isWord(p.peek, "NULLS") {
		p.nextToken()
		p.nextToken()
	}

	// WITHIN GROUP (ORDER BY ...)
	if p.checkWord("WITHIN") && p.checkPeek(token.GROUP) {
		p.nextToken()
		p.nextToken()
		p.skipParens()
	}

	if p.check(token.FILTER) && p.checkPeek(token.LPAREN) {
		p.nextToken()
		p.nextToken()
		p.expect(token.WHERE)
		fn.Filter = p.parseExpression()
		p.expect(token.RPAREN)
	}

	if p.match(token.OVER) {
		fn.Window = p.parseWindowSpec()
	}

	return fn
}

// skipAggregateModifiers skips IGNORE NULLS, ORDER BY and LIMIT inside an
// aggregate argument list such as STRING_AGG(x, ',' ORDER BY y LIMIT 10).
func (p *Parser) skipAggregateModifiers() {
	if (p.checkWord("IGNORE") || p.checkWord("RESPECT")) && isWord(p.peek, "NULLS") {
		p.nextToken()
		p.nextToken()
	}
	if p.check(token.ORDER) && p.checkPeek(token.BY) {
		p.nextToken()
		p.nextToken()
		p.parseOrderByList()
	}
	if p.match(token.LIMIT) {
		p.parseExpression()
	}
}

// parseWindowSpec parses a window name or a parenthesised window definition.
func (p *Parser) parseWindowSpec() *core.WindowSpec {
	spec := &core.WindowSpec{}
	if !p.check(token.LPAREN) {
		spec.Name = p.parseIdent()
		return spec
	}
	p.nextToken()

	if p.check(token.IDENT) && !isFrameUnit(p.token) {
		spec.Name = p.parseIdent()
	}
	if p.check(token.PARTITION) {
		p.nextToken()
		p.expect(token.BY)
		spec.PartitionBy = p.parseExpressionList()
	}
	if p.check(token.ORDER) {
		p.nextToken()
		p.expect(token.BY)
		spec.OrderBy = p.parseOrderByList()
	}

	if isFrameUnit(p.token) {
		start := p.token.Pos.Offset
		depth := 0
		for !p.check(token.EOF) && !(depth == 0 && p.check(token.RPAREN)) {
			switch p.token.Type {
			case token.LPAREN:
				depth++
			case token.RPAREN:
				depth--
			}
			p.nextToken()
		}
		spec.Frame = collapseSpace(p.src[start:p.token.Pos.Offset])
	}

	p.expect(token.RPAREN)
	return spec
}

func isFrameUnit(tok token.Token) bool {
	return isWord(tok, "ROWS") || isWord(tok, "RANGE") || isWord(tok, "GROUPS")
}

// collapseSpace trims s and collapses runs of whitespace to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
