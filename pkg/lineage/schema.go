package lineage

import (
	"fmt"
	"strings"
)

// ColumnType classifies a schema column.
type ColumnType string

// Column types.
const (
	ColumnSimple ColumnType = "SIMPLE"
	ColumnRecord ColumnType = "RECORD"
)

// SchemaColumn is a column whose Fields, when non-nil, make it a record.
type SchemaColumn struct {
	Name     string
	DataType string
	Fields   []*SchemaColumn
}

// Type returns RECORD when the column has a (possibly empty) field list.
func (c *SchemaColumn) Type() ColumnType {
	if c.Fields != nil {
		return ColumnRecord
	}
	return ColumnSimple
}

// Field returns the direct child field with the given name.
func (c *SchemaColumn) Field(name string) *SchemaColumn {
	for _, f := range c.Fields {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

// Leaves returns the dotted paths of every leaf under the column, starting
// with the column's own name. A simple column or an empty record is its own
// leaf.
func (c *SchemaColumn) Leaves() []string {
	if len(c.Fields) == 0 {
		return []string{c.Name}
	}
	var leaves []string
	for _, f := range c.Fields {
		for _, leaf := range f.Leaves() {
			leaves = append(leaves, c.Name+"."+leaf)
		}
	}
	return leaves
}

// SchemaTable is a named list of columns.
type SchemaTable struct {
	Name    string
	Columns []*SchemaColumn
}

// Column returns the top-level column with the given name.
func (t *SchemaTable) Column(name string) *SchemaColumn {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// Contains reports whether the table has a top-level column named name.
func (t *SchemaTable) Contains(name string) bool {
	return t.Column(name) != nil
}

// SetColumn appends a column, failing when one with the same name exists.
func (t *SchemaTable) SetColumn(c *SchemaColumn) error {
	if t.Contains(c.Name) {
		return &SchemaConflictError{Table: t.Name, Column: c.Name}
	}
	t.Columns = append(t.Columns, c)
	return nil
}

// Leaves returns the leaf paths of every column in declaration order.
func (t *SchemaTable) Leaves() []string {
	var leaves []string
	for _, c := range t.Columns {
		leaves = append(leaves, c.Leaves()...)
	}
	return leaves
}

// Schema is the registry of known tables and their columns. It only grows:
// entries are added as statements are resolved and never removed.
type Schema struct {
	tables []*SchemaTable
	index  map[string]*SchemaTable
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{index: make(map[string]*SchemaTable)}
}

func normalize(name string) string {
	return strings.ToLower(name)
}

// Tables returns the tables in registration order.
func (s *Schema) Tables() []*SchemaTable {
	return s.tables
}

// AddTable returns the named table, creating it when missing.
func (s *Schema) AddTable(name string) *SchemaTable {
	if t, ok := s.index[normalize(name)]; ok {
		return t
	}
	t := &SchemaTable{Name: name}
	s.tables = append(s.tables, t)
	s.index[normalize(name)] = t
	return t
}

// AddColumn registers a column path such as "a.b.c" on table, creating the
// table and any intermediate record columns that do not exist yet.
func (s *Schema) AddColumn(table, path string) {
	t := s.AddTable(table)
	parts := splitPath(path)

	col := t.Column(parts[0])
	if col == nil {
		col = &SchemaColumn{Name: parts[0]}
		t.Columns = append(t.Columns, col)
	}
	for _, part := range parts[1:] {
		if col.Fields == nil {
			col.Fields = []*SchemaColumn{}
		}
		next := col.Field(part)
		if next == nil {
			next = &SchemaColumn{Name: part}
			col.Fields = append(col.Fields, next)
		}
		col = next
	}
}

// Table returns the named table.
func (s *Schema) Table(name string) (*SchemaTable, error) {
	if t, ok := s.index[normalize(name)]; ok {
		return t, nil
	}
	return nil, &SchemaNotFoundError{Table: name}
}

// Get returns the named table, or def when it is unknown.
func (s *Schema) Get(name string, def *SchemaTable) *SchemaTable {
	if t, ok := s.index[normalize(name)]; ok {
		return t
	}
	return def
}

// Contains reports whether the table is known.
func (s *Schema) Contains(name string) bool {
	_, ok := s.index[normalize(name)]
	return ok
}

// SetTable registers t, failing when a table with the same name exists.
func (s *Schema) SetTable(t *SchemaTable) error {
	if s.Contains(t.Name) {
		return &SchemaConflictError{Table: t.Name}
	}
	s.tables = append(s.tables, t)
	s.index[normalize(t.Name)] = t
	return nil
}

// Column returns the column at path inside table.
func (s *Schema) Column(table, path string) (*SchemaColumn, error) {
	t, err := s.Table(table)
	if err != nil {
		return nil, err
	}
	parts := splitPath(path)
	col := t.Column(parts[0])
	for _, part := range parts[1:] {
		if col == nil {
			break
		}
		col = col.Field(part)
	}
	if col == nil {
		return nil, &SchemaNotFoundError{Table: table, Column: path}
	}
	return col, nil
}

// IsStruct reports whether the column at path is a record. A missing column
// is not a struct; a missing table is an error.
func (s *Schema) IsStruct(table, path string) (bool, error) {
	if !s.Contains(table) {
		return false, &SchemaNotFoundError{Table: table}
	}
	col, err := s.Column(table, path)
	if err != nil {
		return false, nil
	}
	return col.Type() == ColumnRecord, nil
}

// Merge adds every table and column of other that s does not have yet.
func (s *Schema) Merge(other *Schema) {
	if other == nil {
		return
	}
	for _, t := range other.tables {
		dst := s.AddTable(t.Name)
		for _, c := range t.Columns {
			mergeColumn(dst, c)
		}
	}
}

func mergeColumn(t *SchemaTable, c *SchemaColumn) {
	existing := t.Column(c.Name)
	if existing == nil {
		t.Columns = append(t.Columns, cloneColumn(c))
		return
	}
	mergeFields(existing, c)
}

func mergeFields(dst, src *SchemaColumn) {
	if dst.DataType == "" {
		dst.DataType = src.DataType
	}
	if src.Fields == nil {
		return
	}
	if dst.Fields == nil {
		dst.Fields = []*SchemaColumn{}
	}
	for _, f := range src.Fields {
		if existing := dst.Field(f.Name); existing != nil {
			mergeFields(existing, f)
		} else {
			dst.Fields = append(dst.Fields, cloneColumn(f))
		}
	}
}

func cloneColumn(c *SchemaColumn) *SchemaColumn {
	out := &SchemaColumn{Name: c.Name, DataType: c.DataType}
	if c.Fields != nil {
		out.Fields = make([]*SchemaColumn, 0, len(c.Fields))
		for _, f := range c.Fields {
			out.Fields = append(out.Fields, cloneColumn(f))
		}
	}
	return out
}

// String renders the schema one table per line, for debugging.
func (s *Schema) String() string {
	var sb strings.Builder
	for _, t := range s.tables {
		fmt.Fprintf(&sb, "%s(%s)\n", t.Name, strings.Join(t.Leaves(), ", "))
	}
	return sb.String()
}
