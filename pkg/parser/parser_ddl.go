package parser

import (
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/core"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// DDL and DML parsing: CREATE, INSERT, TRUNCATE and column types.
//
// Grammar:
//
//	create_stmt   → CREATE [OR REPLACE] [TEMP|TEMPORARY] (TABLE|VIEW)
//	                [IF NOT EXISTS] table_name ["(" column_defs ")"]
//	                [table_options] [(AS|FROM) query]
//	insert_stmt   → INSERT [INTO] table_name ["(" ident_list ")"]
//	                (query | VALUES row ("," row)*)
//	truncate_stmt → TRUNCATE [TABLE] table_name
//	column_def    → identifier type [constraints]
//	type          → STRUCT ("<" | "(") field ("," field)* (">" | ")")
//	              | ARRAY "<" type ">"
//	              | identifier ["(" args ")"] ["[" "]"]

// parseCreate parses a CREATE TABLE or CREATE VIEW statement.
func (p *Parser) parseCreate() *core.CreateStmt {
	p.expect(token.CREATE)
	stmt := &core.CreateStmt{}

	if p.match(token.OR) {
		p.expectWord("REPLACE")
		stmt.OrReplace = true
	}
	if p.matchWord("TEMP") || p.matchWord("TEMPORARY") {
		stmt.Temporary = true
	}
	switch {
	case p.matchWord("TABLE"):
	case p.matchWord("VIEW"):
		stmt.View = true
	case p.matchWord("MATERIALIZED"):
		p.expectWord("VIEW")
		stmt.View = true
	default:
		p.unexpected("TABLE or VIEW")
		return nil
	}
	if p.checkWord("IF") && p.checkPeek(token.NOT) {
		p.nextToken()
		p.nextToken()
		p.expect(token.EXISTS)
		stmt.IfNotExists = true
	}

	stmt.Name = p.parseTableName()
	if p.failed() {
		return nil
	}

	if p.check(token.LPAREN) && !p.checkPeek(token.SELECT) && !p.checkPeek(token.WITH) {
		stmt.Columns = p.parseColumnDefs()
		if p.failed() {
			return nil
		}
	}

	p.skipTableOptions()

	if p.match(token.AS) || p.match(token.FROM) || p.checkQueryStart() || p.check(token.LPAREN) {
		stmt.Query = p.parseQuery()
	}
	return stmt
}

// skipTableOptions skips PARTITION BY, CLUSTER BY, OPTIONS(...) and
// similar clauses between the table name and the query.
func (p *Parser) skipTableOptions() {
	for {
		switch {
		case p.check(token.AS), p.check(token.FROM), p.check(token.SEMICOLON), p.check(token.EOF):
			return
		case p.checkQueryStart():
			return
		case p.check(token.LPAREN):
			if p.checkPeek(token.SELECT) || p.checkPeek(token.WITH) {
				return
			}
			p.skipParens()
		default:
			p.nextToken()
		}
		if p.failed() {
			return
		}
	}
}

// parseColumnDefs parses "(" column_def ("," column_def)* ")".
func (p *Parser) parseColumnDefs() []*core.ColumnDef {
	p.expect(token.LPAREN)
	var cols []*core.ColumnDef
	for {
		cols = append(cols, p.parseColumnDef())
		p.skipColumnConstraints()
		if p.failed() || !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return cols
}

func (p *Parser) parseColumnDef() *core.ColumnDef {
	name := p.parseName()
	return &core.ColumnDef{Name: name, Type: p.parseTypeSpec()}
}

// skipColumnConstraints consumes NOT NULL, DEFAULT x, OPTIONS(...) and the
// like up to the next "," or ")" at the current nesting level.
func (p *Parser) skipColumnConstraints() {
	for !p.check(token.COMMA) && !p.check(token.RPAREN) && !p.check(token.EOF) && !p.failed() {
		if p.check(token.LPAREN) {
			p.skipParens()
			continue
		}
		p.nextToken()
	}
}

// parseTypeSpec parses a column type.
func (p *Parser) parseTypeSpec() *core.TypeSpec {
	if !p.checkIdentLike() {
		p.unexpected("type name")
		return nil
	}
	name := strings.ToUpper(p.token.Literal)
	p.nextToken()

	switch {
	case name == "STRUCT" || name == "ROW":
		spec := &core.TypeSpec{Name: "STRUCT", Fields: []*core.ColumnDef{}}
		closing := token.GT
		if p.match(token.LPAREN) {
			closing = token.RPAREN
		} else if !p.expect(token.LT) {
			return spec
		}
		for !p.check(closing) {
			spec.Fields = append(spec.Fields, p.parseColumnDef())
			p.skipFieldOptions(closing)
			if p.failed() || !p.match(token.COMMA) {
				break
			}
		}
		p.expect(closing)
		return spec

	case name == "ARRAY" && p.check(token.LT):
		p.nextToken()
		spec := &core.TypeSpec{Name: "ARRAY", Elem: p.parseTypeSpec()}
		p.expect(token.GT)
		return spec
	}

	// Multi-word types: DOUBLE PRECISION, CHARACTER VARYING, TIMESTAMP WITH TIME ZONE
	for p.checkWord("PRECISION") || p.checkWord("VARYING") {
		name += " " + strings.ToUpper(p.token.Literal)
		p.nextToken()
	}
	if p.check(token.WITH) && isWord(p.peek, "TIME") {
		p.nextToken()
		p.nextToken()
		p.expectWord("ZONE")
		name += " WITH TIME ZONE"
	}

	spec := &core.TypeSpec{Name: name}
	if p.check(token.LPAREN) {
		spec.Args = p.skipParens()
	}
	// Postgres/DuckDB array suffix: INT[]
	for p.check(token.LBRACKET) && p.checkPeek(token.RBRACKET) {
		p.nextToken()
		p.nextToken()
		spec = &core.TypeSpec{Name: "ARRAY", Elem: spec}
	}
	return spec
}

// skipFieldOptions skips NOT NULL and OPTIONS(...) inside a STRUCT type.
func (p *Parser) skipFieldOptions(closing token.TokenType) {
	for !p.check(token.COMMA) && !p.check(closing) && !p.check(token.EOF) && !p.failed() {
		if p.check(token.LPAREN) {
			p.skipParens()
			continue
		}
		p.nextToken()
	}
}

// parseInsert parses INSERT [INTO] name [(cols)] (query | VALUES ...).
func (p *Parser) parseInsert() *core.InsertStmt {
	p.expect(token.INSERT)
	p.match(token.INTO)
	stmt := &core.InsertStmt{Table: p.parseTableName()}
	if p.failed() {
		return nil
	}

	if p.check(token.LPAREN) && !p.checkPeek(token.SELECT) && !p.checkPeek(token.WITH) {
		stmt.Columns = p.parseIdentList()
	}

	switch {
	case p.match(token.VALUES):
		for {
			if !p.expect(token.LPAREN) {
				return stmt
			}
			stmt.Values = append(stmt.Values, p.parseExpressionList())
			p.expect(token.RPAREN)
			if p.failed() || !p.match(token.COMMA) {
				break
			}
		}
	case p.checkQueryStart(), p.check(token.LPAREN):
		stmt.Query = p.parseQuery()
	}
	return stmt
}

// parseTruncate parses TRUNCATE [TABLE] name.
func (p *Parser) parseTruncate() *core.TruncateStmt {
	p.expectWord("TRUNCATE")
	p.matchWord("TABLE")
	return &core.TruncateStmt{Table: p.parseTableName()}
}
