package lineage

import (
	"strings"
)

// TableStore canonicalizes table identities by qualified name for one
// Extractor. Entries are only added or upgraded, never removed.
type TableStore struct {
	tables map[string]DataTable
	order  []string
}

// NewTableStore creates an empty store.
func NewTableStore() *TableStore {
	return &TableStore{tables: make(map[string]DataTable)}
}

// Get returns the table registered under name.
func (s *TableStore) Get(name string) (DataTable, bool) {
	t, ok := s.tables[strings.ToLower(name)]
	return t, ok
}

// Set registers or replaces the table under its name.
func (s *TableStore) Set(t DataTable) {
	key := strings.ToLower(t.Name)
	if _, ok := s.tables[key]; !ok {
		s.order = append(s.order, key)
	}
	s.tables[key] = t
}

// Len returns the number of registered tables.
func (s *TableStore) Len() int {
	return len(s.tables)
}

// Tables returns the registered tables in first-seen order.
func (s *TableStore) Tables() []DataTable {
	out := make([]DataTable, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.tables[key])
	}
	return out
}
