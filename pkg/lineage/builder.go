package lineage

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/core"
	"github.com/leapstack-labs/sqllineage/pkg/format"
)

// builder resolves statements into ParsedExpressions. The table resolver
// and schema are shared by every statement of a run.
type builder struct {
	tables *TableResolver
	schema *Schema
	logger *slog.Logger
}

func newBuilder(tables *TableResolver, schema *Schema, logger *slog.Logger) *builder {
	return &builder{tables: tables, schema: schema, logger: logger}
}

// targetName returns the name of the table a statement writes, or the
// synthetic exprNNN name of a bare query.
func targetName(stmt core.Stmt, index int) string {
	switch s := stmt.(type) {
	case *core.CreateStmt:
		return s.Name.Name()
	case *core.InsertStmt:
		return s.Table.Name()
	case *core.TruncateStmt:
		return s.Table.Name()
	}
	return fmt.Sprintf("expr%03d", index)
}

// build resolves one statement. index is the statement's position in the
// batch and names bare queries.
func (b *builder) build(stmt core.Stmt, index int) (*ParsedExpression, error) {
	name := targetName(stmt, index)
	rendered := format.SQL(stmt)

	var (
		expr *ParsedExpression
		err  error
	)
	switch s := stmt.(type) {
	case *core.SelectStmt:
		expr = newParsedExpression(b.tables.ResolveAs(name, KindQuery), rendered)
		err = b.resolveQuery(expr, s, nil, newQueryScope(nil), nil)

	case *core.CreateStmt:
		expr = newParsedExpression(b.tables.ResolveAs(name, KindTable), rendered)
		if len(s.Columns) > 0 {
			b.registerColumnDefs(name, s.Columns)
		}
		if s.Query == nil {
			if len(s.Columns) > 0 {
				return expr, nil
			}
			return nil, &MissingSourceError{Target: name, Statement: rendered}
		}
		names := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			names[i] = c.Name
		}
		qs := newQueryScope(nil)
		if err = b.resolveWith(expr, s.With, qs); err == nil {
			err = b.resolveQuery(expr, s.Query, names, qs, nil)
		}

	case *core.InsertStmt:
		expr = newParsedExpression(b.tables.ResolveAs(name, KindTable), rendered)
		if s.Query == nil {
			return nil, &MissingSourceError{Target: name, Statement: rendered}
		}
		qs := newQueryScope(nil)
		if err = b.resolveWith(expr, s.With, qs); err == nil {
			err = b.resolveQuery(expr, s.Query, s.Columns, qs, nil)
		}

	case *core.TruncateStmt:
		expr = newParsedExpression(b.tables.ResolveAs(name, KindTable), rendered)

	default:
		return nil, &MissingSourceError{Target: name, Statement: rendered}
	}
	if err != nil {
		return nil, err
	}

	b.registerTarget(expr)
	b.logger.Debug("resolved statement",
		"target", expr.Target.Name,
		"tables", expr.Tables.Len(),
		"columns", expr.Columns.Len())
	return expr, nil
}

// registerTarget records the columns written to a physical target so later
// statements can expand SELECT * over it.
func (b *builder) registerTarget(expr *ParsedExpression) {
	if expr.Target.Kind != KindTable {
		return
	}
	b.schema.AddTable(expr.Target.Name)
	for _, name := range expr.Columns.targetNames(expr.Target) {
		if name != "*" {
			b.schema.AddColumn(expr.Target.Name, name)
		}
	}
}

func (b *builder) registerColumnDefs(table string, defs []*core.ColumnDef) {
	t := b.schema.AddTable(table)
	for _, def := range defs {
		if t.Contains(def.Name) {
			continue
		}
		t.Columns = append(t.Columns, schemaColumnFromDef(def))
	}
}

func schemaColumnFromDef(def *core.ColumnDef) *SchemaColumn {
	col := &SchemaColumn{Name: def.Name, DataType: def.Type.String()}
	if def.Type == nil {
		return col
	}
	if fields, ok := def.Type.Record(); ok {
		col.DataType = "RECORD"
		col.Fields = make([]*SchemaColumn, 0, len(fields))
		for _, f := range fields {
			col.Fields = append(col.Fields, schemaColumnFromDef(f))
		}
	}
	return col
}

// resolveQuery resolves every SELECT core of sel into expr. names renames
// the projected columns positionally, as an INSERT column list does.
func (b *builder) resolveQuery(expr *ParsedExpression, sel *core.SelectStmt, names []string, parent *queryScope, outer *selectScope) error {
	qs := newQueryScope(parent)
	if err := b.resolveWith(expr, sel.With, qs); err != nil {
		return err
	}
	if sel.Body == nil {
		return nil
	}
	for _, sc := range sel.Body.Cores() {
		s := &selectScope{expr: expr, query: qs, outer: outer}
		if err := b.resolveFrom(s, sc.From); err != nil {
			return err
		}
		for i, item := range sc.Columns {
			name := ""
			if i < len(names) {
				name = names[i]
			}
			if err := b.resolveItem(s, item, i, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveWith resolves each CTE in document order. A CTE's table edges
// are merged into expr; its column edges stay with its own result.
func (b *builder) resolveWith(expr *ParsedExpression, with *core.WithClause, qs *queryScope) error {
	if with == nil {
		return nil
	}
	for _, cte := range with.CTEs {
		table := b.tables.ResolveAs(cte.Name, KindCTE)
		qs.names[strings.ToLower(cte.Name)] = table

		child := newParsedExpression(table, format.SQL(cte.Select))
		if err := b.resolveQuery(child, cte.Select, cte.Columns, qs, nil); err != nil {
			return err
		}
		qs.ctes[strings.ToLower(cte.Name)] = child
		expr.Subqueries[cte.Name] = child
		for _, t := range child.Tables.Items() {
			expr.Tables.Add(t)
		}
	}
	return nil
}

// resolveFrom registers the FROM relations of a core and records a table
// edge from each into the target. UNNESTs are reconciled once every other
// relation is known.
func (b *builder) resolveFrom(s *selectScope, from *core.FromClause) error {
	if from == nil {
		return nil
	}

	var pending []*core.UnnestTable
	for _, ref := range from.Refs() {
		switch r := ref.(type) {
		case *core.TableName:
			table, ok := s.query.table(r.Name())
			if !ok {
				table = b.tables.Resolve(r.Parts)
			}
			alias := r.AliasOrName()
			s.sources = append(s.sources, fromSource{alias: alias, table: table})
			s.expr.addTable(table, s.target(), alias)

		case *core.DerivedTable:
			alias := r.Alias
			if alias == "" {
				alias = fmt.Sprintf("_q_%d", len(s.expr.Subqueries))
			}
			table := b.tables.ResolveAs(alias, KindSubquery)
			child := newParsedExpression(table, format.SQL(r.Select))
			var outer *selectScope
			if r.Lateral {
				outer = s
			}
			if err := b.resolveQuery(child, r.Select, nil, s.query, outer); err != nil {
				return err
			}
			s.expr.Subqueries[alias] = child
			s.sources = append(s.sources, fromSource{alias: alias, table: table, sub: child})
			s.expr.addTable(table, s.target(), alias)

		case *core.UnnestTable:
			pending = append(pending, r)
		}
	}

	for _, u := range pending {
		b.resolveUnnest(s, u)
	}
	return nil
}

// resolveUnnest links an UNNEST to the array column it reads. The UNNEST
// becomes its own relation between the backing table and the target.
func (b *builder) resolveUnnest(s *selectScope, u *core.UnnestTable) {
	alias := u.ElementAlias()
	if alias == "" {
		return
	}
	ref, ok := u.Expr.(*core.ColumnRef)
	if !ok {
		s.unnests = append(s.unnests, unnestSource{alias: alias})
		return
	}

	backing, path, ok := s.unnestBacking(ref.Parts)
	if !ok {
		b.logger.Debug("unnest source not found", "unnest", ref.Path())
		s.unnests = append(s.unnests, unnestSource{alias: alias})
		return
	}

	table := b.tables.ResolveAs(backing.Name+"."+path, KindUnnest)
	s.expr.addTable(backing, table, "")
	s.expr.addTable(table, s.target(), alias)
	s.unnests = append(s.unnests, unnestSource{
		alias:   alias,
		table:   table,
		backing: backing,
		path:    path,
		known:   true,
	})
}

// unnestBacking finds the table and column path behind an UNNEST argument.
// One part reads from the primary FROM, two parts from the named alias, and
// anything longer falls back to the primary FROM.
func (s *selectScope) unnestBacking(parts []string) (DataTable, string, bool) {
	if u, ok := s.findUnnest(parts[0]); ok && u.known {
		path := u.path
		if len(parts) > 1 {
			path += "." + core.JoinPath(parts[1:])
		}
		return u.backing, path, true
	}

	if len(parts) == 2 {
		if src, ok := s.findSource(parts[0]); ok {
			return src.table, parts[1], true
		}
	}

	primary := s.primary()
	if primary == nil {
		return DataTable{}, "", false
	}
	path := core.JoinPath(parts)
	prefix := primary.Name + "."
	if len(path) > len(prefix) && strings.EqualFold(path[:len(prefix)], prefix) {
		path = path[len(prefix):]
	}
	return *primary, path, true
}

func (b *builder) resolveItem(s *selectScope, item core.SelectItem, index int, name string) error {
	if item.Star || item.TableStar != "" {
		return b.expandStar(s, item)
	}

	if name == "" {
		name = item.Alias
	}
	if name == "" {
		if ref, ok := item.Expr.(*core.ColumnRef); ok {
			name = core.QuoteIdent(ref.Name())
		} else {
			name = fmt.Sprintf("_col%d", index)
		}
	}

	switch e := item.Expr.(type) {
	case *core.ColumnRef:
		b.copyColumn(s, e, name)
		return nil
	case *core.StructLiteral:
		return b.burstStruct(s, e, name)
	case *core.SubqueryExpr:
		return b.resolveScalarSubquery(s, e.Select, name)
	}
	return b.resolveComputed(s, item.Expr, stripAlias(format.SQL(item), item.Alias), name)
}

func (b *builder) targetColumn(s *selectScope, name string) DataColumn {
	t := s.target()
	return DataColumn{Table: &t, Name: name}
}

// copyColumn records a COPY edge for a plain reference. A reference to a
// record column is burst into one edge per leaf field.
func (b *builder) copyColumn(s *selectScope, ref *core.ColumnRef, name string) {
	src := b.resolveSourceColumn(s, ref)
	suffixes := b.structSuffixes(s, src)
	if len(suffixes) == 0 {
		s.expr.addColumn(src, b.targetColumn(s, name), ActionCopy)
		return
	}
	for _, suffix := range suffixes {
		leaf := src
		leaf.Name += suffix
		s.expr.addColumn(leaf, b.targetColumn(s, name+suffix), ActionCopy)
	}
}

// structSuffixes returns ".field" suffixes of the leaves under a record
// column, from the schema or from the resolved body of its table.
func (b *builder) structSuffixes(s *selectScope, col DataColumn) []string {
	if col.Table == nil {
		return nil
	}

	var suffixes []string
	if c, err := b.schema.Column(col.Table.Name, col.Name); err == nil && len(c.Fields) > 0 {
		for _, leaf := range c.Leaves() {
			suffixes = append(suffixes, leaf[len(c.Name):])
		}
		return suffixes
	}

	prefix := strings.ToLower(col.Name) + "."
	for _, known := range b.knownColumns(s, *col.Table) {
		if strings.HasPrefix(strings.ToLower(known), prefix) {
			suffixes = append(suffixes, known[len(col.Name):])
		}
	}
	return suffixes
}

// burstStruct records one edge per field of a struct literal, naming each
// target column prefix.field.
func (b *builder) burstStruct(s *selectScope, lit *core.StructLiteral, prefix string) error {
	for i, field := range lit.Fields {
		name := prefix + "." + lit.FieldName(i)
		switch v := field.Value.(type) {
		case *core.ColumnRef:
			b.copyColumn(s, v, name)
		case *core.StructLiteral:
			if err := b.burstStruct(s, v, name); err != nil {
				return err
			}
		case *core.SubqueryExpr:
			if err := b.resolveScalarSubquery(s, v.Select, name); err != nil {
				return err
			}
		default:
			if err := b.resolveComputed(s, v, format.SQL(v), name); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveComputed records an edge for every column an expression reads.
// The edge is a COPY only when the projection renders exactly as the
// column reference.
func (b *builder) resolveComputed(s *selectScope, expr core.Expr, projection, name string) error {
	var err error
	core.InspectExpr(expr, func(e core.Expr) bool {
		if err != nil {
			return false
		}
		switch n := e.(type) {
		case *core.ColumnRef:
			if n.Name() == "*" {
				return false
			}
			action := ActionTransform
			if projection == format.SQL(n) {
				action = ActionCopy
			}
			s.expr.addColumn(b.resolveSourceColumn(s, n), b.targetColumn(s, name), action)
			return false
		case *core.SubqueryExpr:
			err = b.resolveScalarSubquery(s, n.Select, name)
			return false
		case *core.ExistsExpr:
			err = b.resolveScalarSubquery(s, n.Select, name)
			return false
		}
		return true
	})
	return err
}

// resolveScalarSubquery records TRANSFORM edges from the columns a nested
// query reads, resolved against the nested query's own FROM.
func (b *builder) resolveScalarSubquery(s *selectScope, sel *core.SelectStmt, name string) error {
	if sel == nil || sel.Body == nil {
		return nil
	}
	qs := newQueryScope(s.query)
	if err := b.resolveWith(s.expr, sel.With, qs); err != nil {
		return err
	}
	for _, sc := range sel.Body.Cores() {
		inner := &selectScope{expr: s.expr, query: qs, outer: s}
		if err := b.resolveFrom(inner, sc.From); err != nil {
			return err
		}
		for _, item := range sc.Columns {
			if item.Star || item.TableStar != "" {
				// A nested star only contributes through its FROM, as in
				// EXISTS (SELECT * FROM ...).
				if len(inner.sources) == 0 && len(inner.unnests) == 0 {
					return &UnresolvableStarError{Target: s.target().Name, Star: starText(item)}
				}
				continue
			}
			if item.Expr == nil {
				continue
			}
			var err error
			core.InspectExpr(item.Expr, func(e core.Expr) bool {
				switch n := e.(type) {
				case *core.ColumnRef:
					if n.Name() != "*" {
						s.expr.addColumn(b.resolveSourceColumn(inner, n), b.targetColumn(s, name), ActionTransform)
					}
					return false
				case *core.SubqueryExpr:
					if err == nil {
						err = b.resolveScalarSubquery(inner, n.Select, name)
					}
					return false
				}
				return true
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// expandStar records COPY edges for every known column of the relations a
// wildcard covers. A relation without known columns yields a single
// source.* -> target.* edge.
func (b *builder) expandStar(s *selectScope, item core.SelectItem) error {
	if len(s.sources) == 0 && len(s.unnests) == 0 {
		return &UnresolvableStarError{Target: s.target().Name, Star: starText(item)}
	}

	except := make(map[string]bool, len(item.Except))
	for _, name := range item.Except {
		except[strings.ToLower(name)] = true
	}
	excluded := func(name string) bool {
		return except[strings.ToLower(splitPath(name)[0])]
	}

	var sources []fromSource
	var unnests []unnestSource
	switch {
	case item.TableStar == "":
		sources = s.sources
		unnests = s.unnests
	default:
		if src, ok := s.findSource(item.TableStar); ok {
			sources = []fromSource{src}
		} else if u, ok := s.findUnnest(item.TableStar); ok {
			b.expandUnnestStar(s, u, excluded)
			return nil
		} else {
			sources = []fromSource{{alias: item.TableStar, table: b.tables.Resolve(splitPath(item.TableStar))}}
		}
	}

	for _, src := range sources {
		table := src.table
		names := b.knownColumns(s, table)
		if len(names) == 0 {
			s.expr.addColumn(DataColumn{Table: &table, Name: "*"}, b.targetColumn(s, "*"), ActionCopy)
			continue
		}
		for _, name := range names {
			if excluded(name) {
				continue
			}
			s.expr.addColumn(DataColumn{Table: &table, Name: name}, b.targetColumn(s, name), ActionCopy)
		}
	}

	for _, u := range unnests {
		if !u.known || excluded(u.alias) {
			continue
		}
		backing := u.backing
		s.expr.addColumn(DataColumn{Table: &backing, Name: u.path}, b.targetColumn(s, u.alias), ActionCopy)
	}
	return nil
}

func starText(item core.SelectItem) string {
	if item.TableStar != "" {
		return item.TableStar + ".*"
	}
	return "*"
}

// expandUnnestStar expands element.* over the fields of a struct element.
func (b *builder) expandUnnestStar(s *selectScope, u unnestSource, excluded func(string) bool) {
	if !u.known {
		return
	}
	backing := u.backing
	src := DataColumn{Table: &backing, Name: u.path}
	suffixes := b.structSuffixes(s, src)
	if len(suffixes) == 0 {
		s.expr.addColumn(DataColumn{Table: &backing, Name: u.path + ".*"}, b.targetColumn(s, "*"), ActionCopy)
		return
	}
	for _, suffix := range suffixes {
		name := suffix[1:]
		if excluded(name) {
			continue
		}
		s.expr.addColumn(DataColumn{Table: &backing, Name: u.path + suffix}, b.targetColumn(s, name), ActionCopy)
	}
}

// stripAlias removes a trailing "AS alias" from a rendered projection.
func stripAlias(sql, alias string) string {
	if alias == "" {
		return sql
	}
	suffix := " AS " + alias
	if len(sql) > len(suffix) && strings.EqualFold(sql[len(sql)-len(suffix):], suffix) {
		return strings.TrimRight(sql[:len(sql)-len(suffix)], " ")
	}
	return sql
}
