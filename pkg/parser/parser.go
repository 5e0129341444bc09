// Package parser provides SQL parsing for lineage extraction.
//
// # Usage
//
//	stmts := parser.ParseScript(sql, parser.BigQuery)
//	for _, s := range stmts {
//	    if s.Err != nil {
//	        // log and skip
//	        continue
//	    }
//	    use(s.Stmt)
//	}
//
// Parse is the single-statement variant. A nil dialect selects ANSI.
//
// # Grammar Overview
//
// The parser implements a recursive descent parser for the subset of SQL
// that carries lineage:
//
//	script        → statement (";" statement)* [";"]
//	statement     → [WITH cte_list] (query | create | insert) | create | insert | truncate
//	query         → [WITH cte_list] select_body
//	select_body   → select_primary [(UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_body]
//	select_core   → SELECT [DISTINCT] select_list [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [QUALIFY expr] [ORDER BY order_list] [LIMIT expr [OFFSET expr]]
//
// See each file for detailed grammar rules for that section.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/core"
	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Parser parses SQL into an AST.
type Parser struct {
	src     string
	lexer   *Lexer
	token   token.Token // current token
	peek    token.Token // lookahead token
	peek2   token.Token // second lookahead token
	errors  []error
	dialect *Dialect
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string, d *Dialect) *Parser {
	if d == nil {
		d = ANSI
	}
	p := &Parser{
		src:     sql,
		lexer:   NewLexer(sql, d),
		dialect: d,
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Statement is one statement of a script together with its source text.
// Exactly one of Stmt and Err is set.
type Statement struct {
	Index int
	Text  string
	Stmt  core.Stmt
	Err   error
}

// ParseScript splits sql on top-level semicolons and parses every
// statement. A statement that fails to parse is reported through its Err
// field and does not affect the others.
func ParseScript(sql string, d *Dialect) []*Statement {
	p := NewParser(sql, d)
	var out []*Statement
	lexSeen := 0

	for {
		if p.match(token.SEMICOLON) {
			continue
		}
		if p.check(token.EOF) {
			break
		}

		start := p.token.Pos
		p.errors = nil
		stmt := p.parseStatement()
		if !p.failed() && !p.check(token.SEMICOLON) && !p.check(token.EOF) {
			p.addError(fmt.Sprintf(ErrTrailingTokens, describe(p.token)))
		}
		failed := p.failed()
		if failed {
			p.skipStatement()
		}
		end := p.token.Pos

		s := &Statement{
			Index: len(out),
			Text:  strings.TrimSpace(token.Span{Start: start, End: end}.Text(sql)),
		}

		// Lexer errors are attributed by offset since the lexer runs ahead
		// of the parser.
		lexErrs := p.lexer.Errors()
		var lexErr error
		for lexSeen < len(lexErrs) {
			var le *LexError
			if errors.As(lexErrs[lexSeen], &le) && le.Pos.Offset >= end.Offset {
				break
			}
			if lexErr == nil {
				lexErr = lexErrs[lexSeen]
			}
			lexSeen++
		}

		switch {
		case lexErr != nil:
			s.Err = lexErr
		case failed:
			s.Err = p.errors[0]
		default:
			setSpan(stmt, token.Span{Start: start, End: end})
			s.Stmt = stmt
		}
		out = append(out, s)
	}

	return out
}

// Parse parses a single SQL statement. A trailing semicolon is allowed.
func Parse(sql string, d *Dialect) (core.Stmt, error) {
	stmts := ParseScript(sql, d)
	switch len(stmts) {
	case 0:
		return nil, &ParseError{Pos: token.Position{Line: 1, Column: 1}, Message: "empty statement"}
	case 1:
		return stmts[0].Stmt, stmts[0].Err
	default:
		if stmts[0].Err != nil {
			return nil, stmts[0].Err
		}
		return nil, &ParseError{Pos: token.Position{Line: 1, Column: 1}, Message: fmt.Sprintf("expected a single statement, found %d", len(stmts))}
	}
}

// Dialect returns the parser's dialect.
func (p *Parser) Dialect() *Dialect {
	return p.dialect
}

// Errors returns the parse errors of the statement being parsed.
func (p *Parser) Errors() []error {
	return p.errors
}

// skipStatement discards tokens up to the next semicolon or EOF.
func (p *Parser) skipStatement() {
	for !p.check(token.SEMICOLON) && !p.check(token.EOF) {
		p.nextToken()
	}
}

func setSpan(stmt core.Stmt, span token.Span) {
	switch s := stmt.(type) {
	case *core.SelectStmt:
		s.Span = span
	case *core.CreateStmt:
		s.Span = span
	case *core.InsertStmt:
		s.Span = span
	case *core.TruncateStmt:
		s.Span = span
	}
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// checkPeek2 returns true if the peek2 token is of the given type.
func (p *Parser) checkPeek2(t token.TokenType) bool {
	return p.peek2.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), t))
	return false
}

// addError adds a parse error.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// unexpected records an unexpected-token error for the current token.
func (p *Parser) unexpected(want string) {
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), want))
}

// failed reports whether any error has been recorded.
func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.NUMBER:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	case token.STRING:
		return "string literal"
	}
	return tok.Type.String()
}

// ---------- Keyword Helpers ----------

// checkWord returns true if the current token is an unquoted identifier
// spelled word (case-insensitive). Used for soft keywords.
func (p *Parser) checkWord(word string) bool {
	return isWord(p.token, word)
}

// matchWord consumes the current soft keyword if it matches.
func (p *Parser) matchWord(word string) bool {
	if p.checkWord(word) {
		p.nextToken()
		return true
	}
	return false
}

// expectWord consumes the given soft keyword or records an error.
func (p *Parser) expectWord(word string) bool {
	if p.matchWord(word) {
		return true
	}
	p.unexpected(word)
	return false
}

func isWord(tok token.Token, word string) bool {
	return tok.Type == token.IDENT && !tok.Quoted && strings.EqualFold(tok.Literal, word)
}

// checkIdentLike returns true if the current token can serve as a name:
// an identifier or, in positions where the grammar is unambiguous, a
// reserved keyword.
func (p *Parser) checkIdentLike() bool {
	return p.token.Type == token.IDENT || p.token.Type.IsKeyword()
}

// parseIdent parses an identifier and returns its literal.
func (p *Parser) parseIdent() string {
	if !p.check(token.IDENT) {
		p.unexpected("identifier")
		return ""
	}
	name := p.token.Literal
	p.nextToken()
	return name
}

// parseName parses an identifier, accepting reserved keywords as names.
func (p *Parser) parseName() string {
	if !p.checkIdentLike() {
		p.unexpected("identifier")
		return ""
	}
	name := p.token.Literal
	p.nextToken()
	return name
}

// parseIdentList parses "(" ident ("," ident)* ")".
func (p *Parser) parseIdentList() []string {
	if !p.expect(token.LPAREN) {
		return nil
	}
	var names []string
	for {
		names = append(names, p.parseName())
		if !p.match(token.COMMA) || p.failed() {
			break
		}
	}
	p.expect(token.RPAREN)
	return names
}

// skipParens consumes a balanced parenthesised token group starting at the
// current "(" and returns the raw source text between the parentheses.
func (p *Parser) skipParens() string {
	if !p.check(token.LPAREN) {
		return ""
	}
	start := p.token.Pos.Offset + 1
	depth := 0
	for {
		switch p.token.Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				end := p.token.Pos.Offset
				p.nextToken()
				return strings.TrimSpace(p.src[start:end])
			}
		case token.EOF:
			p.unexpected(")")
			return ""
		}
		p.nextToken()
	}
}
