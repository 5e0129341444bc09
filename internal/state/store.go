// Package state persists lineage extraction runs in SQLite so graphs can be
// queried later without re-parsing the SQL they came from.
package state

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted extraction.
type Run struct {
	ID          string    `json:"id" yaml:"id"`
	Source      string    `json:"source" yaml:"source"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	Expressions int       `json:"expressions" yaml:"expressions"`
	TableEdges  int       `json:"table_edges" yaml:"table_edges"`
	ColumnEdges int       `json:"column_edges" yaml:"column_edges"`
}

// timeLayout sorts lexically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
