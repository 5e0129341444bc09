package parser

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect holds the lexical differences between the supported SQL flavours.
// Grammar differences beyond these switches are not modelled.
type Dialect struct {
	Name string
	// BacktickIdentifiers enables `quoted` identifiers.
	BacktickIdentifiers bool
	// DoubleQuotedStrings makes "..." a string literal instead of an identifier.
	DoubleQuotedStrings bool
	// BackslashEscapes enables \' style escapes inside string literals.
	BackslashEscapes bool
	// HashComments enables # line comments.
	HashComments bool
	// SplitQuotedNames splits a quoted `a.b.c` identifier on dots when it
	// names a table.
	SplitQuotedNames bool
}

// Built-in dialects.
var (
	ANSI = &Dialect{Name: "ansi"}

	BigQuery = &Dialect{
		Name:                "bigquery",
		BacktickIdentifiers: true,
		DoubleQuotedStrings: true,
		BackslashEscapes:    true,
		HashComments:        true,
		SplitQuotedNames:    true,
	}

	DuckDB = &Dialect{Name: "duckdb"}

	Postgres = &Dialect{Name: "postgres"}

	Snowflake = &Dialect{Name: "snowflake"}
)

var dialects = map[string]*Dialect{
	ANSI.Name:      ANSI,
	BigQuery.Name:  BigQuery,
	DuckDB.Name:    DuckDB,
	Postgres.Name:  Postgres,
	Snowflake.Name: Snowflake,
}

// LookupDialect returns the dialect registered under name. An empty name
// selects ANSI.
func LookupDialect(name string) (*Dialect, error) {
	if name == "" {
		return ANSI, nil
	}
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (available: %s)", name, strings.Join(DialectNames(), ", "))
	}
	return d, nil
}

// DialectNames returns the names of all built-in dialects, sorted.
func DialectNames() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
