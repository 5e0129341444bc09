// Package pgsql wraps pg_query_go for Postgres statement splitting and
// syntax checks.
package pgsql

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Split splits a script into statements using the Postgres scanner. Unlike
// the parser based splitter it tolerates invalid statements, so one broken
// statement does not hide the rest of the script. Empty statements are
// dropped.
func Split(sql string) ([]string, error) {
	parts, err := pg_query.SplitWithScanner(sql, true)
	if err != nil {
		return nil, fmt.Errorf("pg_query split: %w", err)
	}

	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			stmts = append(stmts, p)
		}
	}
	return stmts, nil
}

// Validate reports a syntax error when sql is not valid Postgres.
func Validate(sql string) error {
	if _, err := pg_query.Parse(sql); err != nil {
		return fmt.Errorf("pg_query parse: %w", err)
	}
	return nil
}

// Issue is a statement rejected by Validate.
type Issue struct {
	Index int
	SQL   string
	Err   error
}

// Check splits a script and validates every statement.
func Check(sql string) ([]Issue, error) {
	stmts, err := Split(sql)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for i, stmt := range stmts {
		if err := Validate(stmt); err != nil {
			issues = append(issues, Issue{Index: i, SQL: stmt, Err: err})
		}
	}
	return issues, nil
}
