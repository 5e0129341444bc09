package parser

import (
	"strings"
	"unicode"

	"github.com/leapstack-labs/sqllineage/pkg/token"
)

// Lexer tokenizes SQL input.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // line of ch (1-based)
	col     int  // column of ch (1-based)

	dialect *Dialect
	errors  []error
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string, d *Dialect) *Lexer {
	if d == nil {
		d = ANSI
	}
	l := &Lexer{
		input:   input,
		line:    1,
		dialect: d,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) currentPos() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	tok := token.Token{Pos: pos}

	switch l.ch {
	case 0:
		tok.Type = token.EOF
		tok.Pos.Offset = len(l.input)
		return tok
	case '+':
		tok = l.newToken(token.PLUS, "+")
	case '-':
		tok = l.newToken(token.MINUS, "-")
	case '*':
		tok = l.newToken(token.STAR, "*")
	case '/':
		tok = l.newToken(token.SLASH, "/")
	case '%':
		tok = l.newToken(token.PERCENT, "%")
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
		}
		tok = token.Token{Type: token.EQ, Literal: "=", Pos: pos}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = token.Token{Type: token.LE, Literal: "<=", Pos: pos}
		case '>':
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "<>", Pos: pos}
		default:
			tok = l.newToken(token.LT, "<")
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.GE, Literal: ">=", Pos: pos}
		} else {
			tok = l.newToken(token.GT, ">")
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "!=", Pos: pos}
		} else {
			tok = l.illegal(pos, "unexpected character '!'")
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok = token.Token{Type: token.DPIPE, Literal: "||", Pos: pos}
		} else {
			tok = l.illegal(pos, "unexpected character '|'")
		}
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			tok = token.Token{Type: token.DCOLON, Literal: "::", Pos: pos}
		} else {
			tok = l.newToken(token.COLON, ":")
		}
	case '.':
		if isDigit(l.peekChar()) {
			tok.Type = token.NUMBER
			tok.Literal = l.readNumber()
			return tok
		}
		tok = l.newToken(token.DOT, ".")
	case ',':
		tok = l.newToken(token.COMMA, ",")
	case ';':
		tok = l.newToken(token.SEMICOLON, ";")
	case '(':
		tok = l.newToken(token.LPAREN, "(")
	case ')':
		tok = l.newToken(token.RPAREN, ")")
	case '[':
		tok = l.newToken(token.LBRACKET, "[")
	case ']':
		tok = l.newToken(token.RBRACKET, "]")
	case '{':
		tok = l.newToken(token.LBRACE, "{")
	case '}':
		tok = l.newToken(token.RBRACE, "}")
	case '\'':
		return l.readString(pos, '\'')
	case '"':
		if l.dialect.DoubleQuotedStrings {
			return l.readString(pos, '"')
		}
		return l.readQuotedIdentifier(pos, '"')
	case '`':
		if l.dialect.BacktickIdentifiers {
			return l.readQuotedIdentifier(pos, '`')
		}
		tok = l.illegal(pos, "unexpected character '`'")
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_':
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			return tok
		case isDigit(l.ch):
			tok.Type = token.NUMBER
			tok.Literal = l.readNumber()
			return tok
		default:
			tok = l.illegal(pos, "unexpected character '"+string(l.ch)+"'")
		}
	}

	l.readChar()
	return tok
}

// Errors returns the lexical errors seen so far.
func (l *Lexer) Errors() []error {
	return l.errors
}

func (l *Lexer) newToken(tokenType token.TokenType, literal string) token.Token {
	return token.Token{Type: tokenType, Literal: literal, Pos: l.currentPos()}
}

func (l *Lexer) illegal(pos token.Position, msg string) token.Token {
	l.errors = append(l.errors, &LexError{Pos: pos, Message: msg})
	return token.Token{Type: token.ILLEGAL, Literal: string(l.ch), Pos: pos}
}

// skipWhitespaceAndComments skips whitespace, line comments and block comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' {
			l.readChar()
		}

		switch {
		case l.ch == '-' && l.peekChar() == '-', l.ch == '#' && l.dialect.HashComments:
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		case l.ch == '/' && l.peekChar() == '*':
			pos := l.currentPos()
			l.readChar() // skip '/'
			l.readChar() // skip '*'
			closed := false
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					closed = true
					break
				}
				l.readChar()
			}
			if !closed {
				l.errors = append(l.errors, &LexError{Pos: pos, Message: ErrUnterminatedComment})
			}
			continue
		}

		return
	}
}

// readString reads a quoted string literal.
// Handles doubled quotes as escape: 'it''s' -> it's
func (l *Lexer) readString(pos token.Position, quote byte) token.Token {
	l.readChar() // skip opening quote

	var result strings.Builder
	for {
		switch {
		case l.ch == 0:
			l.errors = append(l.errors, &LexError{Pos: pos, Message: ErrUnterminatedString})
			return token.Token{Type: token.ILLEGAL, Literal: result.String(), Pos: pos}
		case l.ch == '\\' && l.dialect.BackslashEscapes && l.peekChar() != 0:
			l.readChar()
			result.WriteByte(l.ch)
			l.readChar()
		case l.ch == quote && l.peekChar() == quote:
			result.WriteByte(quote)
			l.readChar()
			l.readChar()
		case l.ch == quote:
			l.readChar() // skip closing quote
			return token.Token{Type: token.STRING, Literal: result.String(), Pos: pos}
		default:
			result.WriteByte(l.ch)
			l.readChar()
		}
	}
}

// readQuotedIdentifier reads a "quoted" or `quoted` identifier.
func (l *Lexer) readQuotedIdentifier(pos token.Position, quote byte) token.Token {
	l.readChar() // skip opening quote

	var result strings.Builder
	for {
		switch {
		case l.ch == 0:
			l.errors = append(l.errors, &LexError{Pos: pos, Message: ErrUnterminatedIdentifier})
			return token.Token{Type: token.ILLEGAL, Literal: result.String(), Pos: pos}
		case l.ch == quote && l.peekChar() == quote:
			result.WriteByte(quote)
			l.readChar()
			l.readChar()
		case l.ch == quote:
			l.readChar()
			return token.Token{Type: token.IDENT, Literal: result.String(), Pos: pos, Quoted: true}
		default:
			result.WriteByte(l.ch)
			l.readChar()
		}
	}
}

// readIdentifier reads an unquoted identifier.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '$' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() string {
	start := l.pos

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) || l.ch == '.' && start == l.pos {
		l.readChar() // skip '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	// Exponent part (1e10, 1E-5)
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar() // skip 'e' or 'E'
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	return l.input[start:l.pos]
}

func isLetter(ch byte) bool {
	return ch >= 0x80 || unicode.IsLetter(rune(ch))
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all tokens from the input, ending with EOF.
func Tokenize(input string, d *Dialect) []token.Token {
	l := NewLexer(input, d)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return tokens
}
