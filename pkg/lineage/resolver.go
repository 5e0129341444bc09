package lineage

import (
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/core"
)

// TableResolver maps qualified names to canonical DataTables.
type TableResolver struct {
	store  *TableStore
	schema *Schema
}

// NewTableResolver creates a resolver over store. Newly seen physical
// tables are registered in schema.
func NewTableResolver(store *TableStore, schema *Schema) *TableResolver {
	return &TableResolver{store: store, schema: schema}
}

// Resolve joins parts with "." and returns the stored table, registering
// a new TABLE when the name has not been seen.
func (r *TableResolver) Resolve(parts []string) DataTable {
	name := strings.Join(parts, ".")
	if t, ok := r.store.Get(name); ok {
		return t
	}
	t := DataTable{Name: name, Kind: KindTable}
	r.store.Set(t)
	r.schema.AddTable(name)
	return t
}

// ResolveAs returns the table registered under name with the given kind.
// A name first guessed as TABLE is upgraded to CTE, SUBQUERY or UNNEST; a
// DDL or DML target confirms TABLE. Other kinds are kept as first seen.
func (r *TableResolver) ResolveAs(name string, kind TableKind) DataTable {
	existing, ok := r.store.Get(name)
	switch {
	case !ok:
	case existing.Kind == kind:
		return existing
	case existing.Kind == KindTable && kind != KindQuery:
	case kind == KindTable:
	default:
		return existing
	}

	t := DataTable{Name: name, Kind: kind}
	r.store.Set(t)
	if kind == KindTable {
		r.schema.AddTable(name)
	}
	return t
}

// fromSource is one relation in a FROM clause.
type fromSource struct {
	alias string
	table DataTable
	// sub is the resolved body when the source is a subquery or CTE.
	sub *ParsedExpression
}

// unnestSource is an UNNEST element alias and the array column behind it.
type unnestSource struct {
	alias   string
	table   DataTable
	backing DataTable
	path    string
	known   bool
}

// queryScope holds the CTEs visible to a query.
type queryScope struct {
	parent *queryScope
	names  map[string]DataTable
	ctes   map[string]*ParsedExpression
}

func newQueryScope(parent *queryScope) *queryScope {
	return &queryScope{
		parent: parent,
		names:  make(map[string]DataTable),
		ctes:   make(map[string]*ParsedExpression),
	}
}

func (q *queryScope) table(name string) (DataTable, bool) {
	for s := q; s != nil; s = s.parent {
		if t, ok := s.names[strings.ToLower(name)]; ok {
			return t, true
		}
	}
	return DataTable{}, false
}

func (q *queryScope) cte(table DataTable) *ParsedExpression {
	for s := q; s != nil; s = s.parent {
		if sub, ok := s.ctes[strings.ToLower(table.Name)]; ok && sub != nil && sub.Target.key() == table.key() {
			return sub
		}
	}
	return nil
}

// selectScope is the resolution context of one SELECT core.
type selectScope struct {
	expr    *ParsedExpression
	query   *queryScope
	outer   *selectScope
	sources []fromSource
	unnests []unnestSource
}

func (s *selectScope) target() DataTable {
	return s.expr.Target
}

func (s *selectScope) primary() *DataTable {
	if len(s.sources) == 0 {
		return nil
	}
	t := s.sources[0].table
	return &t
}

func (s *selectScope) findSource(alias string) (fromSource, bool) {
	for sc := s; sc != nil; sc = sc.outer {
		for _, src := range sc.sources {
			if strings.EqualFold(src.alias, alias) {
				return src, true
			}
		}
	}
	return fromSource{}, false
}

func (s *selectScope) findUnnest(alias string) (unnestSource, bool) {
	for sc := s; sc != nil; sc = sc.outer {
		for _, u := range sc.unnests {
			if strings.EqualFold(u.alias, alias) {
				return u, true
			}
		}
	}
	return unnestSource{}, false
}

// resolved returns the resolved body behind table, if it is a subquery or
// a CTE visible from this scope.
func (s *selectScope) resolved(table DataTable) *ParsedExpression {
	for sc := s; sc != nil; sc = sc.outer {
		for _, src := range sc.sources {
			if src.sub != nil && src.table.key() == table.key() {
				return src.sub
			}
		}
		if sub := sc.expr.subqueryFor(table); sub != nil {
			return sub
		}
		if sub := sc.query.cte(table); sub != nil {
			return sub
		}
	}
	return nil
}

// knownColumns lists the columns of a source: first those already
// produced into it by this statement, then those of its resolved body,
// then the schema's leaf paths.
func (b *builder) knownColumns(s *selectScope, table DataTable) []string {
	if names := s.expr.Columns.targetNames(table); len(names) > 0 {
		return names
	}
	if sub := s.resolved(table); sub != nil {
		if names := sub.Columns.targetNames(table); len(names) > 0 {
			return names
		}
	}
	if t := b.schema.Get(table.Name, nil); t != nil {
		return t.Leaves()
	}
	return nil
}

func (b *builder) hasColumn(s *selectScope, table DataTable, name string) bool {
	for _, known := range b.knownColumns(s, table) {
		if strings.EqualFold(known, name) || strings.HasPrefix(strings.ToLower(known), strings.ToLower(name)+".") {
			return true
		}
	}
	return false
}

// resolveSourceColumn finds the column a reference reads from. It never
// fails: unresolvable references fall back to their own name.
func (b *builder) resolveSourceColumn(s *selectScope, ref *core.ColumnRef) DataColumn {
	parts := ref.Parts

	// UNNEST element aliases read from the backing array column.
	if u, ok := s.findUnnest(parts[0]); ok {
		if !u.known {
			return DataColumn{Name: ref.Path()}
		}
		path := u.path
		if len(parts) > 1 {
			path += "." + core.JoinPath(parts[1:])
		}
		backing := u.backing
		return DataColumn{Table: &backing, Name: path}
	}

	if len(parts) > 1 {
		qualifier, rest := parts[0], core.JoinPath(parts[1:])

		// Qualifier names a FROM alias.
		if src, ok := s.findSource(qualifier); ok {
			table := src.table
			if src.sub != nil {
				rest = matchSubqueryColumn(src.sub, rest)
			}
			return DataColumn{Table: &table, Name: rest}
		}

		// Qualifier names a subquery of this statement.
		for alias, sub := range s.expr.Subqueries {
			if strings.EqualFold(alias, qualifier) {
				table := sub.Target
				return DataColumn{Table: &table, Name: matchSubqueryColumn(sub, rest)}
			}
		}

		// Fully qualified by a source's name.
		joined := ref.Path()
		for _, src := range s.sources {
			prefix := src.table.Name + "."
			if len(joined) > len(prefix) && strings.EqualFold(joined[:len(prefix)], prefix) {
				table := src.table
				return DataColumn{Table: &table, Name: joined[len(prefix):]}
			}
		}

		// A field path on the current source.
		if primary := s.primary(); primary != nil {
			return DataColumn{Table: primary, Name: joined}
		}

		// No source: the leading parts name the table.
		t := b.tables.Resolve(parts[:len(parts)-1])
		return DataColumn{Table: &t, Name: core.QuoteIdent(parts[len(parts)-1])}
	}

	name := core.QuoteIdent(parts[0])
	var holder *DataTable
	matches := 0
	for _, src := range s.sources {
		if b.hasColumn(s, src.table, name) {
			matches++
			t := src.table
			holder = &t
		}
	}
	if matches == 1 {
		return DataColumn{Table: holder, Name: name}
	}
	if primary := s.primary(); primary != nil {
		return DataColumn{Table: primary, Name: name}
	}
	if s.outer != nil {
		return b.resolveSourceColumn(s.outer, ref)
	}
	return DataColumn{Name: name}
}

// matchSubqueryColumn returns the subquery's own name for column, falling
// back to column itself.
func matchSubqueryColumn(sub *ParsedExpression, column string) string {
	for _, name := range sub.Columns.targetNames(sub.Target) {
		if strings.EqualFold(name, column) {
			return name
		}
	}
	return column
}
