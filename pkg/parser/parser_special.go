package parser

import (
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/core"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Special expression forms: CASE, CAST, STRUCT, ARRAY, INTERVAL, EXTRACT.
//
// Grammar:
//
//	case_expr     → CASE [expr] (WHEN expr THEN expr)+ [ELSE expr] END
//	cast_expr     → (CAST | SAFE_CAST) "(" expr AS type ")"
//	struct_expr   → STRUCT ["<" fields ">"] "(" [expr [AS name] ("," expr [AS name])*] ")"
//	              | "{" key ":" expr ("," key ":" expr)* "}"
//	array_expr    → [ARRAY] "[" [expr ("," expr)*] "]"
//	interval_expr → INTERVAL expr [unit]
//	extract_expr  → EXTRACT "(" unit FROM expr ")"

var intervalUnits = map[string]bool{
	"MICROSECOND": true, "MILLISECOND": true, "SECOND": true, "MINUTE": true,
	"HOUR": true, "DAY": true, "WEEK": true, "MONTH": true, "QUARTER": true,
	"YEAR": true, "DAYS": true, "HOURS": true, "MINUTES": true, "SECONDS": true,
	"MONTHS": true, "YEARS": true, "WEEKS": true,
}

// parseSpecialForm handles soft-keyword expressions starting at an
// identifier. The boolean is false when the identifier is an ordinary name.
func (p *Parser) parseSpecialForm() (core.Expr, bool) {
	switch strings.ToUpper(p.token.Literal) {
	case "SAFE_CAST", "TRY_CAST":
		if p.checkPeek(token.LPAREN) {
			p.nextToken()
			return p.parseCastCall(true), true
		}
	case "STRUCT":
		if p.checkPeek(token.LPAREN) || p.checkPeek(token.LT) {
			return p.parseStructLiteral(), true
		}
	case "ARRAY":
		if p.checkPeek(token.LBRACKET) {
			p.nextToken()
			return p.parseArrayLiteral(true), true
		}
	case "INTERVAL":
		switch p.peek.Type {
		case token.STRING, token.NUMBER, token.MINUS, token.LPAREN:
			return p.parseInterval(), true
		}
	case "EXTRACT":
		if p.checkPeek(token.LPAREN) {
			return p.parseExtract(), true
		}
	case "DATE", "DATETIME", "TIME", "TIMESTAMP", "JSON", "NUMERIC", "BIGNUMERIC":
		// Typed literal such as DATE '2024-01-01'
		if p.checkPeek(token.STRING) {
			typeName := strings.ToUpper(p.token.Literal)
			p.nextToken()
			lit := &core.Literal{Type: core.LiteralString, Value: p.token.Literal}
			p.nextToken()
			return &core.CastExpr{Expr: lit, TypeName: typeName}, true
		}
	}
	return nil, false
}

// parseCaseExpr parses a CASE expression.
func (p *Parser) parseCaseExpr() core.Expr {
	p.expect(token.CASE)
	expr := &core.CaseExpr{}

	if !p.check(token.WHEN) {
		expr.Operand = p.parseExpression()
	}

	for p.match(token.WHEN) {
		cond := p.parseExpression()
		p.expect(token.THEN)
		result := p.parseExpression()
		expr.Whens = append(expr.Whens, core.WhenClause{Condition: cond, Result: result})
		if p.failed() {
			return nil
		}
	}
	if len(expr.Whens) == 0 {
		p.unexpected("WHEN")
		return nil
	}

	if p.match(token.ELSE) {
		expr.Else = p.parseExpression()
	}
	p.expect(token.END)
	return expr
}

// parseCastCall parses "(" expr AS type ")" after CAST or SAFE_CAST.
func (p *Parser) parseCastCall(safe bool) core.Expr {
	p.expect(token.LPAREN)
	expr := p.parseExpression()
	p.expect(token.AS)
	spec := p.parseTypeSpec()
	// BigQuery CAST(x AS STRING FORMAT 'YYYY')
	if p.checkWord("FORMAT") {
		p.nextToken()
		p.parseExpression()
	}
	p.expect(token.RPAREN)
	return &core.CastExpr{Expr: expr, TypeName: spec.String(), Safe: safe}
}

// parseStructLiteral parses STRUCT[<...>](expr [AS name], ...).
func (p *Parser) parseStructLiteral() core.Expr {
	p.nextToken() // STRUCT
	var typed *core.TypeSpec
	if p.check(token.LT) {
		// Typed struct: the field names come from the type.
		typed = &core.TypeSpec{Name: "STRUCT"}
		p.nextToken()
		for !p.check(token.GT) && !p.failed() {
			if p.check(token.IDENT) && !p.checkPeek(token.COMMA) && !p.checkPeek(token.GT) {
				typed.Fields = append(typed.Fields, p.parseColumnDef())
			} else {
				typed.Fields = append(typed.Fields, &core.ColumnDef{Type: p.parseTypeSpec()})
			}
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.GT)
	}

	p.expect(token.LPAREN)
	lit := &core.StructLiteral{}
	for !p.check(token.RPAREN) && !p.failed() {
		field := core.StructField{Value: p.parseExpression()}
		if p.match(token.AS) {
			field.Name = p.parseName()
		}
		lit.Fields = append(lit.Fields, field)
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)

	if typed != nil {
		for i := range lit.Fields {
			if i < len(typed.Fields) && lit.Fields[i].Name == "" {
				lit.Fields[i].Name = typed.Fields[i].Name
			}
		}
	}
	return lit
}

// parseBraceStruct parses {'key': expr, ...}.
func (p *Parser) parseBraceStruct() core.Expr {
	p.expect(token.LBRACE)
	lit := &core.StructLiteral{Braces: true}
	for !p.check(token.RBRACE) && !p.failed() {
		var name string
		switch p.token.Type {
		case token.STRING, token.IDENT:
			name = p.token.Literal
			p.nextToken()
		default:
			p.unexpected("struct key")
			return nil
		}
		p.expect(token.COLON)
		lit.Fields = append(lit.Fields, core.StructField{Name: name, Value: p.parseExpression()})
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE)
	return lit
}

// parseArrayLiteral parses "[" elements "]".
func (p *Parser) parseArrayLiteral(keyword bool) core.Expr {
	p.expect(token.LBRACKET)
	arr := &core.ArrayLiteral{Keyword: keyword}
	if !p.check(token.RBRACKET) {
		arr.Elements = p.parseExpressionList()
	}
	p.expect(token.RBRACKET)
	return arr
}

// parseInterval parses INTERVAL value [unit].
func (p *Parser) parseInterval() core.Expr {
	p.nextToken() // INTERVAL
	iv := &core.IntervalExpr{Value: p.parseExpressionWithPrecedence(precedenceUnary)}
	if p.check(token.IDENT) && intervalUnits[strings.ToUpper(p.token.Literal)] {
		iv.Unit = strings.ToUpper(p.token.Literal)
		p.nextToken()
	}
	return iv
}

// parseExtract parses EXTRACT(unit FROM expr).
func (p *Parser) parseExtract() core.Expr {
	p.nextToken() // EXTRACT
	p.expect(token.LPAREN)
	unit := strings.ToUpper(p.parseName())
	// EXTRACT(WEEK(MONDAY) FROM d)
	if p.check(token.LPAREN) {
		unit += "(" + p.skipParens() + ")"
	}
	p.expect(token.FROM)
	expr := p.parseExpression()
	p.expect(token.RPAREN)
	return &core.ExtractExpr{Unit: unit, Expr: expr}
}
