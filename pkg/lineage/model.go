// Package lineage extracts table-level and column-level lineage from SQL.
//
// An Extractor parses a batch of statements, orders them so producers are
// resolved before consumers, and resolves every statement into a
// ParsedExpression holding deduplicated TableLineage and ColumnLineage
// edges. The schema and table store are shared across the statements of an
// Extractor so later statements can expand SELECT * over columns discovered
// by earlier ones.
package lineage

import (
	"github.com/leapstack-labs/sqllineage/pkg/core"
)

// TableKind is the kind of a DataTable.
type TableKind string

// Table kinds. TABLE is the only physical kind.
const (
	KindTable    TableKind = "TABLE"
	KindSubquery TableKind = "SUBQUERY"
	KindCTE      TableKind = "CTE"
	KindUnnest   TableKind = "UNNEST"
	KindQuery    TableKind = "QUERY"
)

// NodeType distinguishes table edges from column edges.
type NodeType string

// Node types.
const (
	NodeTable  NodeType = "TABLE"
	NodeColumn NodeType = "COLUMN"
)

// Action describes how a target column derives from its source.
type Action string

// Column lineage actions.
const (
	// ActionCopy means the value passes through unchanged.
	ActionCopy Action = "COPY"
	// ActionTransform means the value is computed from the source.
	ActionTransform Action = "TRANSFORM"
)

// DataTable identifies a table-like relation by name and kind.
type DataTable struct {
	Name string
	Kind TableKind
}

func (t DataTable) String() string {
	return t.Name
}

func (t DataTable) key() string {
	return t.Name + "\x00" + string(t.Kind)
}

// DataColumn is a column, optionally owned by a table.
type DataColumn struct {
	Table *DataTable
	Name  string
}

// String returns "table.name", or the bare name when there is no table.
func (c DataColumn) String() string {
	if c.Table == nil {
		return c.Name
	}
	return c.Table.Name + "." + c.Name
}

// Equal reports whether both columns have the same table identity and name.
func (c DataColumn) Equal(o DataColumn) bool {
	return c.key() == o.key()
}

func (c DataColumn) key() string {
	if c.Table == nil {
		return "\x00\x00" + c.Name
	}
	return c.Table.key() + "\x00" + c.Name
}

func (c DataColumn) tableKind() TableKind {
	if c.Table == nil {
		return ""
	}
	return c.Table.Kind
}

// LineageEdge is implemented by TableLineage and ColumnLineage.
type LineageEdge interface {
	SourceName() string
	TargetName() string
	SourceType() TableKind
	TargetType() TableKind
	NodeType() NodeType
	// Attrs returns the edge attributes carried into the graph.
	Attrs() map[string]string
}

// TableLineage records that Target reads from Source.
type TableLineage struct {
	Source DataTable
	Target DataTable
	Alias  string
}

func (l TableLineage) SourceName() string    { return l.Source.Name }
func (l TableLineage) TargetName() string    { return l.Target.Name }
func (l TableLineage) SourceType() TableKind { return l.Source.Kind }
func (l TableLineage) TargetType() TableKind { return l.Target.Kind }
func (l TableLineage) NodeType() NodeType    { return NodeTable }

// Attrs returns the edge attributes. Table edges also carry the target kind
// as "type".
func (l TableLineage) Attrs() map[string]string {
	attrs := edgeAttrs(l, "")
	attrs["type"] = string(l.Target.Kind)
	return attrs
}

func (l TableLineage) key() string {
	return l.Source.key() + "\x01" + l.Target.key() + "\x01" + l.Alias
}

// ColumnLineage records that Target derives from Source.
type ColumnLineage struct {
	Source DataColumn
	Target DataColumn
	Action Action
}

func (l ColumnLineage) SourceName() string    { return l.Source.String() }
func (l ColumnLineage) TargetName() string    { return l.Target.String() }
func (l ColumnLineage) SourceType() TableKind { return l.Source.tableKind() }
func (l ColumnLineage) TargetType() TableKind { return l.Target.tableKind() }
func (l ColumnLineage) NodeType() NodeType    { return NodeColumn }

func (l ColumnLineage) Attrs() map[string]string {
	return edgeAttrs(l, l.Action)
}

func (l ColumnLineage) key() string {
	return l.Source.key() + "\x01" + l.Target.key() + "\x01" + string(l.Action)
}

func edgeAttrs(e LineageEdge, action Action) map[string]string {
	attrs := map[string]string{"node_type": string(e.NodeType())}
	if action != "" {
		attrs["action"] = string(action)
	}
	if t := e.SourceType(); t != "" {
		attrs["source_type"] = string(t)
	}
	if t := e.TargetType(); t != "" {
		attrs["target_type"] = string(t)
	}
	return attrs
}

// TableSet is an insertion-ordered set of table edges.
type TableSet struct {
	items []TableLineage
	index map[string]struct{}
}

// Add inserts the edge and reports whether it was new.
func (s *TableSet) Add(l TableLineage) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	k := l.key()
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = struct{}{}
	s.items = append(s.items, l)
	return true
}

// Contains reports whether the edge is in the set.
func (s *TableSet) Contains(l TableLineage) bool {
	_, ok := s.index[l.key()]
	return ok
}

// Len returns the number of edges.
func (s *TableSet) Len() int { return len(s.items) }

// Items returns the edges in insertion order.
func (s *TableSet) Items() []TableLineage { return s.items }

// ColumnSet is an insertion-ordered set of column edges.
type ColumnSet struct {
	items []ColumnLineage
	index map[string]struct{}
}

// Add inserts the edge and reports whether it was new.
func (s *ColumnSet) Add(l ColumnLineage) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	k := l.key()
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = struct{}{}
	s.items = append(s.items, l)
	return true
}

// Contains reports whether the edge is in the set.
func (s *ColumnSet) Contains(l ColumnLineage) bool {
	_, ok := s.index[l.key()]
	return ok
}

// Len returns the number of edges.
func (s *ColumnSet) Len() int { return len(s.items) }

// Items returns the edges in insertion order.
func (s *ColumnSet) Items() []ColumnLineage { return s.items }

// targetNames returns the distinct target column names owned by table, in
// insertion order.
func (s *ColumnSet) targetNames(table DataTable) []string {
	var names []string
	seen := make(map[string]bool)
	for _, c := range s.items {
		if c.Target.Table == nil || c.Target.Table.key() != table.key() {
			continue
		}
		if !seen[c.Target.Name] {
			seen[c.Target.Name] = true
			names = append(names, c.Target.Name)
		}
	}
	return names
}

func splitPath(path string) []string {
	return core.SplitPath(path)
}
