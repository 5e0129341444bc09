package lineage

import (
	"fmt"
	"strings"
)

// MissingSourceError is returned when a statement has no query to read
// lineage from, such as INSERT ... VALUES or a bodiless CREATE.
type MissingSourceError struct {
	Target    string
	Statement string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("no source found for %q", e.Target)
}

// UnresolvableStarError is returned for a SELECT * without a FROM clause.
type UnresolvableStarError struct {
	Target string
	Star   string
}

func (e *UnresolvableStarError) Error() string {
	return fmt.Sprintf("cannot expand %s for %q: no FROM clause", e.Star, e.Target)
}

// SchemaValidationError reports a malformed schema document.
type SchemaValidationError struct {
	Path    string
	Message string
}

func (e *SchemaValidationError) Error() string {
	if e.Path == "" {
		return "invalid schema: " + e.Message
	}
	return fmt.Sprintf("invalid schema at %s: %s", e.Path, e.Message)
}

// SchemaNotFoundError is returned by schema lookups for unknown tables or
// columns.
type SchemaNotFoundError struct {
	Table  string
	Column string
}

func (e *SchemaNotFoundError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("Column '%s' not found in table '%s'.", e.Column, e.Table)
	}
	return fmt.Sprintf("Table '%s' not found in schema.", e.Table)
}

// SchemaConflictError is returned when a table or column is set twice.
type SchemaConflictError struct {
	Table  string
	Column string
}

func (e *SchemaConflictError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("Column '%s' already exists in table '%s'.", e.Column, e.Table)
	}
	return fmt.Sprintf("Table '%s' already exists in the schema.", e.Table)
}

// CycleWarning lists the targets of statements that could not be ordered
// because they depend on each other. It is logged, not returned.
type CycleWarning struct {
	Targets []string
	// Path is one dependency cycle among Targets, starting and ending on
	// the same target.
	Path []string
}

func (w *CycleWarning) Error() string {
	msg := "dependency cycle between statements: " + strings.Join(w.Targets, ", ")
	if len(w.Path) > 0 {
		msg += " (" + strings.Join(w.Path, " -> ") + ")"
	}
	return msg
}
