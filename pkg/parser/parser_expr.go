package parser

import (
	"github.com/leapstack-labs/sqllineage/pkg/core"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels:
//
//	precedenceNone       = 0
//	precedenceOr         = 1
//	precedenceAnd        = 2
//	precedenceNot        = 3
//	precedenceComparison = 4  (=, !=, <, >, <=, >=, IS, IN, BETWEEN, LIKE, ILIKE)
//	precedenceAddition   = 5  (+, -, ||)
//	precedenceMultiply   = 6  (*, /, %)
//	precedenceUnary      = 7  (-, +)
//	precedencePostfix    = 8  (::, [])

const (
	precedenceNone = iota
	precedenceOr
	precedenceAnd
	precedenceNot
	precedenceComparison
	precedenceAddition
	precedenceMultiply
	precedenceUnary
	precedencePostfix
)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() core.Expr {
	return p.parseExpressionWithPrecedence(precedenceNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) core.Expr {
	// Parse prefix (unary operators and primary expressions)
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	// Parse infix operators while their precedence is >= minPrecedence
	for !p.failed() {
		prec := p.infixPrecedence()
		if prec == precedenceNone || prec < minPrecedence {
			break
		}

		left = p.parseInfixExpr(left, prec)
		if left == nil {
			break
		}
	}

	return left
}

// parsePrefixExpr parses prefix expressions (unary operators and primary expressions).
func (p *Parser) parsePrefixExpr() core.Expr {
	switch p.token.Type {
	case token.NOT:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precedenceNot)
		return &core.UnaryExpr{Op: token.NOT, Expr: expr}

	case token.MINUS:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precedenceUnary)
		return &core.UnaryExpr{Op: token.MINUS, Expr: expr}

	case token.PLUS:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precedenceUnary)
		return &core.UnaryExpr{Op: token.PLUS, Expr: expr}

	default:
		return p.parsePrimary()
	}
}

// infixPrecedence returns the precedence of the current token as an infix
// operator, or precedenceNone.
func (p *Parser) infixPrecedence() int {
	switch p.token.Type {
	case token.OR:
		return precedenceOr
	case token.AND:
		return precedenceAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE,
		token.IS, token.IN, token.BETWEEN, token.LIKE, token.ILIKE:
		return precedenceComparison
	case token.NOT:
		// NOT as infix only for NOT IN, NOT BETWEEN, NOT LIKE, NOT ILIKE
		switch p.peek.Type {
		case token.IN, token.BETWEEN, token.LIKE, token.ILIKE:
			return precedenceComparison
		}
		return precedenceNone
	case token.PLUS, token.MINUS, token.DPIPE:
		return precedenceAddition
	case token.STAR, token.SLASH, token.PERCENT:
		return precedenceMultiply
	case token.DCOLON, token.LBRACKET:
		return precedencePostfix
	}
	return precedenceNone
}

// parseInfixExpr parses an infix expression given the left operand and current precedence.
func (p *Parser) parseInfixExpr(left core.Expr, prec int) core.Expr {
	switch p.token.Type {
	case token.NOT:
		p.nextToken()
		return p.parseNegatableExpr(left, true)

	case token.IS:
		return p.parseIsExpr(left)

	case token.IN, token.BETWEEN, token.LIKE, token.ILIKE:
		return p.parseNegatableExpr(left, false)

	case token.DCOLON:
		p.nextToken()
		spec := p.parseTypeSpec()
		return &core.CastExpr{Expr: left, TypeName: spec.String(), DoubleColon: true}

	case token.LBRACKET:
		p.nextToken()
		index := p.parseExpression()
		p.expect(token.RBRACKET)
		return &core.IndexExpr{Expr: left, Index: index}
	}

	// Standard binary operator
	op := p.token.Type
	p.nextToken()
	right := p.parseExpressionWithPrecedence(prec + 1)
	if right == nil {
		return nil
	}
	return &core.BinaryExpr{Left: left, Op: op, Right: right}
}

// parseNegatableExpr parses the tail of [NOT] IN, BETWEEN, LIKE and ILIKE.
func (p *Parser) parseNegatableExpr(left core.Expr, not bool) core.Expr {
	switch p.token.Type {
	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, not)
	case token.BETWEEN:
		p.nextToken()
		low := p.parseExpressionWithPrecedence(precedenceAddition)
		p.expect(token.AND)
		high := p.parseExpressionWithPrecedence(precedenceAddition)
		return &core.BetweenExpr{Expr: left, Not: not, Low: low, High: high}
	case token.LIKE, token.ILIKE:
		op := p.token.Type
		p.nextToken()
		pattern := p.parseExpressionWithPrecedence(precedenceAddition)
		return &core.LikeExpr{Expr: left, Not: not, Op: op, Pattern: pattern}
	}
	p.unexpected("IN, BETWEEN, LIKE or ILIKE")
	return nil
}

// parseInExpr parses (list), (query) or UNNEST(expr) after IN.
func (p *Parser) parseInExpr(left core.Expr, not bool) core.Expr {
	in := &core.InExpr{Expr: left, Not: not}

	if p.checkWord("UNNEST") && p.checkPeek(token.LPAREN) {
		p.nextToken()
		p.nextToken()
		in.Values = []core.Expr{&core.FuncCall{Name: "UNNEST", Args: []core.Expr{p.parseExpression()}}}
		p.expect(token.RPAREN)
		return in
	}

	if !p.expect(token.LPAREN) {
		return nil
	}
	if p.checkQueryStart() {
		in.Query = p.parseQuery()
	} else if !p.check(token.RPAREN) {
		in.Values = p.parseExpressionList()
	}
	p.expect(token.RPAREN)
	return in
}

// parseIsExpr parses IS [NOT] NULL|TRUE|FALSE.
func (p *Parser) parseIsExpr(left core.Expr) core.Expr {
	p.expect(token.IS)
	is := &core.IsExpr{Expr: left, Not: p.match(token.NOT)}

	switch p.token.Type {
	case token.NULL, token.TRUE, token.FALSE:
		is.Value = p.token.Type
		p.nextToken()
		return is
	}
	p.unexpected("NULL, TRUE or FALSE")
	return nil
}
