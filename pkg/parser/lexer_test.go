package parser_test

import (
	"testing"

	"github.com/leapstack-labs/sqllineage/pkg/parser"
	"github.com/leapstack-labs/sqllineage/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(toks []token.Token) []token.TokenType {
	types := make([]token.TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		dialect *parser.Dialect
		want    []token.TokenType
	}{
		{
			name: "simple select",
			sql:  "SELECT a, b FROM t",
			want: []token.TokenType{token.SELECT, token.IDENT, token.COMMA, token.IDENT, token.FROM, token.IDENT, token.EOF},
		},
		{
			name: "operators",
			sql:  "a <> b != c <= d >= e || f :: g",
			want: []token.TokenType{
				token.IDENT, token.NE, token.IDENT, token.NE, token.IDENT, token.LE, token.IDENT,
				token.GE, token.IDENT, token.DPIPE, token.IDENT, token.DCOLON, token.IDENT, token.EOF,
			},
		},
		{
			name: "line and block comments",
			sql:  "SELECT -- comment\n a /* block */ FROM t",
			want: []token.TokenType{token.SELECT, token.IDENT, token.FROM, token.IDENT, token.EOF},
		},
		{
			name:    "hash comment in bigquery",
			sql:     "SELECT a # trailing\nFROM t",
			dialect: parser.BigQuery,
			want:    []token.TokenType{token.SELECT, token.IDENT, token.FROM, token.IDENT, token.EOF},
		},
		{
			name: "numbers",
			sql:  "1 2.5 .5 1e10 3E-2",
			want: []token.TokenType{token.NUMBER, token.NUMBER, token.NUMBER, token.NUMBER, token.NUMBER, token.EOF},
		},
		{
			name: "brackets and braces",
			sql:  "[1]{'k': 2}",
			want: []token.TokenType{
				token.LBRACKET, token.NUMBER, token.RBRACKET, token.LBRACE, token.STRING,
				token.COLON, token.NUMBER, token.RBRACE, token.EOF,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := parser.Tokenize(tt.sql, tt.dialect)
			assert.Equal(t, tt.want, tokenTypes(toks))
		})
	}
}

func TestTokenize_Literals(t *testing.T) {
	toks := parser.Tokenize(`SELECT 'it''s', "Col" FROM t`, nil)
	require.Len(t, toks, 7)

	assert.Equal(t, token.STRING, toks[1].Type)
	assert.Equal(t, "it's", toks[1].Literal)

	assert.Equal(t, token.IDENT, toks[3].Type)
	assert.Equal(t, "Col", toks[3].Literal)
	assert.True(t, toks[3].Quoted)
}

func TestTokenize_BigQueryQuoting(t *testing.T) {
	toks := parser.Tokenize("SELECT \"a\\\"b\" FROM `proj.ds.tbl`", parser.BigQuery)
	require.Len(t, toks, 5)

	assert.Equal(t, token.STRING, toks[1].Type)
	assert.Equal(t, `a"b`, toks[1].Literal)

	assert.Equal(t, token.IDENT, toks[3].Type)
	assert.Equal(t, "proj.ds.tbl", toks[3].Literal)
	assert.True(t, toks[3].Quoted)
}

func TestTokenize_Positions(t *testing.T) {
	toks := parser.Tokenize("SELECT a\n  FROM t", nil)
	require.Len(t, toks, 5)

	assert.Equal(t, token.Position{Line: 1, Column: 1, Offset: 0}, toks[0].Pos)
	assert.Equal(t, token.Position{Line: 1, Column: 8, Offset: 7}, toks[1].Pos)
	assert.Equal(t, token.Position{Line: 2, Column: 3, Offset: 11}, toks[2].Pos)
}

func TestLexer_Errors(t *testing.T) {
	l := parser.NewLexer("SELECT 'abc", nil)
	for l.NextToken().Type != token.EOF {
	}
	require.Len(t, l.Errors(), 1)
	assert.Contains(t, l.Errors()[0].Error(), "unterminated string literal")
}

func TestLookupDialect(t *testing.T) {
	d, err := parser.LookupDialect("BigQuery")
	require.NoError(t, err)
	assert.Same(t, parser.BigQuery, d)

	d, err = parser.LookupDialect("")
	require.NoError(t, err)
	assert.Same(t, parser.ANSI, d)

	_, err = parser.LookupDialect("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dialect")

	assert.Equal(t, []string{"ansi", "bigquery", "duckdb", "postgres", "snowflake"}, parser.DialectNames())
}
