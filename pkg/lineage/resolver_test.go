package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableResolver_Resolve(t *testing.T) {
	store := NewTableStore()
	schema := NewSchema()
	r := NewTableResolver(store, schema)

	users := r.Resolve([]string{"raw", "users"})
	assert.Equal(t, DataTable{Name: "raw.users", Kind: KindTable}, users)
	assert.True(t, schema.Contains("raw.users"))

	// Lookups are case-insensitive and keep the first spelling.
	again := r.Resolve([]string{"RAW", "Users"})
	assert.Equal(t, users, again)
	assert.Equal(t, 1, store.Len())
}

func TestTableResolver_ResolveAs(t *testing.T) {
	tests := []struct {
		name  string
		first TableKind
		then  TableKind
		want  TableKind
	}{
		{name: "table upgraded to cte", first: KindTable, then: KindCTE, want: KindCTE},
		{name: "table upgraded to subquery", first: KindTable, then: KindSubquery, want: KindSubquery},
		{name: "table upgraded to unnest", first: KindTable, then: KindUnnest, want: KindUnnest},
		{name: "table never becomes query", first: KindTable, then: KindQuery, want: KindTable},
		{name: "cte confirmed as table", first: KindCTE, then: KindTable, want: KindTable},
		{name: "cte kept over subquery", first: KindCTE, then: KindSubquery, want: KindCTE},
		{name: "same kind", first: KindUnnest, then: KindUnnest, want: KindUnnest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewTableResolver(NewTableStore(), NewSchema())
			r.ResolveAs("x", tt.first)
			got := r.ResolveAs("x", tt.then)
			assert.Equal(t, DataTable{Name: "x", Kind: tt.want}, got)

			stored, ok := r.store.Get("X")
			assert.True(t, ok)
			assert.Equal(t, tt.want, stored.Kind)
		})
	}
}

func TestTableResolver_CTENotInSchema(t *testing.T) {
	schema := NewSchema()
	r := NewTableResolver(NewTableStore(), schema)

	cte := r.ResolveAs("w", KindCTE)
	assert.Equal(t, KindCTE, cte.Kind)
	assert.False(t, schema.Contains("w"))

	// A later bare reference finds the stored CTE.
	assert.Equal(t, cte, r.Resolve([]string{"w"}))
}

func TestTableStore_Order(t *testing.T) {
	s := NewTableStore()
	s.Set(DataTable{Name: "b", Kind: KindTable})
	s.Set(DataTable{Name: "a", Kind: KindTable})
	s.Set(DataTable{Name: "B", Kind: KindCTE})

	assert.Equal(t, []DataTable{
		{Name: "B", Kind: KindCTE},
		{Name: "a", Kind: KindTable},
	}, s.Tables())
}

func TestResolveSourceColumn(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "qualifier names a from alias",
			sql:  "CREATE TABLE o AS SELECT u.id FROM raw.users AS u",
			want: []string{"raw.users.id -> o.id COPY"},
		},
		{
			name: "qualifier names a subquery",
			sql:  "CREATE TABLE o AS SELECT q.total FROM (SELECT amount AS total FROM raw.orders) AS q",
			want: []string{"q.total -> o.total COPY"},
		},
		{
			name: "source table prefix is stripped",
			sql:  "CREATE TABLE o AS SELECT raw.orders.id FROM raw.orders",
			want: []string{"raw.orders.id -> o.id COPY"},
		},
		{
			name: "leading parts name a table without from",
			sql:  "CREATE TABLE o AS SELECT raw.orders.id AS x",
			want: []string{"raw.orders.id -> o.x COPY"},
		},
		{
			name: "bare name with a single source",
			sql:  "CREATE TABLE o AS SELECT id FROM raw.orders",
			want: []string{"raw.orders.id -> o.id COPY"},
		},
		{
			name: "bare name without a source",
			sql:  "SELECT x",
			want: []string{"x -> expr000.x COPY"},
		},
		{
			name: "quoted name with a dot stays one column",
			sql:  `SELECT "a.b" FROM t`,
			want: []string{`t."a.b" -> expr000."a.b" COPY`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := New().ExtractStatement(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.want, columnEdges(expr.Columns.Items()))
		})
	}
}

func TestResolveSourceColumn_RegistersTable(t *testing.T) {
	e := New()
	expr, err := e.ExtractStatement("CREATE TABLE o AS SELECT raw.orders.id AS x")
	require.NoError(t, err)

	cols := expr.Columns.Items()
	require.Len(t, cols, 1)
	require.NotNil(t, cols[0].Source.Table)
	assert.Equal(t, DataTable{Name: "raw.orders", Kind: KindTable}, *cols[0].Source.Table)
	assert.True(t, e.Schema().Contains("raw.orders"))
}

func TestQuotedColumnSchema(t *testing.T) {
	e := New()
	_, err := e.ExtractStatement(`CREATE TABLE o AS SELECT "a.b" FROM t`)
	require.NoError(t, err)

	col, err := e.Schema().Column("o", `"a.b"`)
	require.NoError(t, err)
	assert.Equal(t, ColumnSimple, col.Type())
}
