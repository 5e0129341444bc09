package lineage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqllineage/internal/testutil"
)

// columnEdges renders column edges as "source -> target ACTION", sorted.
func columnEdges(cols []ColumnLineage) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, fmt.Sprintf("%s -> %s %s", c.Source, c.Target, c.Action))
	}
	sort.Strings(out)
	return out
}

// tableEdges renders table edges as "source(KIND) -> target(KIND) [alias]",
// sorted.
func tableEdges(tables []TableLineage) []string {
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		out = append(out, fmt.Sprintf("%s(%s) -> %s(%s) [%s]", t.Source.Name, t.Source.Kind, t.Target.Name, t.Target.Kind, t.Alias))
	}
	sort.Strings(out)
	return out
}

func extract(t *testing.T, sql string, opts ...Option) *ParsedResult {
	t.Helper()
	opts = append([]Option{WithLogger(testutil.NewTestLogger(t))}, opts...)
	result, err := New(opts...).ExtractLineage(sql)
	require.NoError(t, err)
	return result
}

func TestExtract_EndToEnd(t *testing.T) {
	sql := "CREATE TABLE big AS WITH w AS (SELECT id, total * 1.1 AS total_tax FROM raw.orders) SELECT * FROM w"
	result := extract(t, sql)

	require.Len(t, result.Expressions, 1)
	expr := result.Expressions[0]
	assert.Equal(t, DataTable{Name: "big", Kind: KindTable}, expr.Target)
	assert.Contains(t, expr.Subqueries, "w")

	assert.Equal(t, []string{
		"raw.orders(TABLE) -> w(CTE) [orders]",
		"w(CTE) -> big(TABLE) [w]",
	}, tableEdges(result.Tables.Items()))

	assert.Equal(t, []string{
		"raw.orders.id -> w.id COPY",
		"raw.orders.total -> w.total_tax TRANSFORM",
		"w.id -> big.id COPY",
		"w.total_tax -> big.total_tax COPY",
	}, columnEdges(result.Columns.Items()))

	// Column edges of a statement target the statement; CTE edges stay in
	// the CTE's own result.
	for _, c := range expr.Columns.Items() {
		assert.Equal(t, expr.Target, *c.Target.Table)
	}
}

func TestExtract_CTEChain(t *testing.T) {
	sql := `
WITH orders_with_tax AS (
  SELECT order_id, customer_id, order_total * 1.2 AS total_with_tax FROM raw.orders
), filtered_orders AS (
  SELECT order_id, customer_id, total_with_tax FROM orders_with_tax
)
CREATE TABLE big_orders AS SELECT * FROM filtered_orders`

	result := extract(t, sql)
	require.Len(t, result.Expressions, 1)
	assert.Equal(t, "big_orders", result.Expressions[0].Target.Name)

	assert.Equal(t, []string{
		"filtered_orders(CTE) -> big_orders(TABLE) [filtered_orders]",
		"orders_with_tax(CTE) -> filtered_orders(CTE) [orders_with_tax]",
		"raw.orders(TABLE) -> orders_with_tax(CTE) [orders]",
	}, tableEdges(result.Tables.Items()))

	assert.Equal(t, []string{
		"filtered_orders.customer_id -> big_orders.customer_id COPY",
		"filtered_orders.order_id -> big_orders.order_id COPY",
		"filtered_orders.total_with_tax -> big_orders.total_with_tax COPY",
		"orders_with_tax.customer_id -> filtered_orders.customer_id COPY",
		"orders_with_tax.order_id -> filtered_orders.order_id COPY",
		"orders_with_tax.total_with_tax -> filtered_orders.total_with_tax COPY",
		"raw.orders.customer_id -> orders_with_tax.customer_id COPY",
		"raw.orders.order_id -> orders_with_tax.order_id COPY",
		"raw.orders.order_total -> orders_with_tax.total_with_tax TRANSFORM",
	}, columnEdges(result.Columns.Items()))
}

func TestExtract_JoinSubquery(t *testing.T) {
	sql := `CREATE TABLE join_example AS
SELECT a.id AS id, a.name, b.age AS age
FROM raw.users AS a
JOIN (SELECT id, age FROM raw.user_details) AS b ON a.id = b.id
WHERE NOT a.name IS NULL AND b.age > 18`

	result := extract(t, sql)
	expr := result.Expressions[0]
	require.Contains(t, expr.Subqueries, "b")
	assert.Equal(t, DataTable{Name: "b", Kind: KindSubquery}, expr.Subqueries["b"].Target)

	assert.Equal(t, []string{
		"b(SUBQUERY) -> join_example(TABLE) [b]",
		"raw.user_details(TABLE) -> b(SUBQUERY) [user_details]",
		"raw.users(TABLE) -> join_example(TABLE) [a]",
	}, tableEdges(result.Tables.Items()))

	assert.Equal(t, []string{
		"b.age -> join_example.age COPY",
		"raw.user_details.age -> b.age COPY",
		"raw.user_details.id -> b.id COPY",
		"raw.users.id -> join_example.id COPY",
		"raw.users.name -> join_example.name COPY",
	}, columnEdges(result.Columns.Items()))
}

func TestExtract_CopyVersusTransform(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "plain",
			sql:  "SELECT a FROM raw.s",
			want: []string{"raw.s.a -> expr000.a COPY"},
		},
		{
			name: "renamed",
			sql:  "SELECT a AS b FROM raw.s",
			want: []string{"raw.s.a -> expr000.b COPY"},
		},
		{
			name: "qualified",
			sql:  "SELECT s.a FROM raw.s AS s",
			want: []string{"raw.s.a -> expr000.a COPY"},
		},
		{
			name: "cast",
			sql:  "SELECT CAST(a AS INT) AS c FROM raw.s",
			want: []string{"raw.s.a -> expr000.c TRANSFORM"},
		},
		{
			name: "arithmetic over two columns",
			sql:  "SELECT a + b AS c FROM raw.s",
			want: []string{"raw.s.a -> expr000.c TRANSFORM", "raw.s.b -> expr000.c TRANSFORM"},
		},
		{
			name: "function without alias",
			sql:  "SELECT UPPER(a) FROM raw.s",
			want: []string{"raw.s.a -> expr000._col0 TRANSFORM"},
		},
		{
			name: "case expression",
			sql:  "SELECT CASE WHEN a > 0 THEN b ELSE 0 END AS c FROM raw.s",
			want: []string{"raw.s.a -> expr000.c TRANSFORM", "raw.s.b -> expr000.c TRANSFORM"},
		},
		{
			name: "literal has no source",
			sql:  "SELECT 1 AS one FROM raw.s",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extract(t, tt.sql)
			assert.Equal(t, tt.want, columnEdges(result.Columns.Items()))
			require.Len(t, result.Expressions, 1)
			assert.Equal(t, KindQuery, result.Expressions[0].Target.Kind)
		})
	}
}

func TestExtract_InsertColumnList(t *testing.T) {
	result := extract(t, "INSERT INTO t (x, y) SELECT a, b + 1 FROM raw.s")
	assert.Equal(t, []string{
		"raw.s.a -> t.x COPY",
		"raw.s.b -> t.y TRANSFORM",
	}, columnEdges(result.Columns.Items()))
	assert.Equal(t, []string{"raw.s(TABLE) -> t(TABLE) [s]"}, tableEdges(result.Tables.Items()))
}

func TestExtract_StarExpansion(t *testing.T) {
	schema := NewSchema()
	schema.AddColumn("raw.users", "id")
	schema.AddColumn("raw.users", "name")
	schema.AddColumn("raw.users", "email")

	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "known columns",
			sql:  "CREATE TABLE t AS SELECT * FROM raw.users",
			want: []string{
				"raw.users.email -> t.email COPY",
				"raw.users.id -> t.id COPY",
				"raw.users.name -> t.name COPY",
			},
		},
		{
			name: "except",
			sql:  "CREATE TABLE t AS SELECT * EXCEPT (email, NAME) FROM raw.users",
			want: []string{"raw.users.id -> t.id COPY"},
		},
		{
			name: "table star",
			sql:  "CREATE TABLE t AS SELECT u.*, o.amount FROM raw.users AS u JOIN raw.orders AS o ON u.id = o.user_id",
			want: []string{
				"raw.orders.amount -> t.amount COPY",
				"raw.users.email -> t.email COPY",
				"raw.users.id -> t.id COPY",
				"raw.users.name -> t.name COPY",
			},
		},
		{
			name: "unknown columns",
			sql:  "CREATE TABLE t AS SELECT * FROM raw.unknown",
			want: []string{"raw.unknown.* -> t.* COPY"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSchema()
			s.Merge(schema)
			result := extract(t, tt.sql, WithSchema(s))
			assert.Equal(t, tt.want, columnEdges(result.Columns.Items()))
		})
	}
}

func TestExtract_StarWithoutFrom(t *testing.T) {
	_, err := New().ExtractStatement("SELECT *")
	var star *UnresolvableStarError
	require.True(t, errors.As(err, &star), "got %v", err)
	assert.Equal(t, "expr000", star.Target)

	_, err = New().ExtractLineage("CREATE TABLE a AS SELECT x FROM s; SELECT *")
	assert.True(t, errors.As(err, &star))

	_, err = New().ExtractStatement("SELECT (SELECT *) AS a FROM t")
	require.True(t, errors.As(err, &star), "got %v", err)
	assert.Equal(t, "expr000", star.Target)

	_, err = New().ExtractStatement("SELECT EXISTS (SELECT * FROM u) AS a FROM t")
	assert.NoError(t, err)
}

func TestStripAlias(t *testing.T) {
	tests := []struct {
		sql, alias, want string
	}{
		{sql: "a + 1 AS total", alias: "total", want: "a + 1"},
		{sql: "a + 1 as TOTAL", alias: "total", want: "a + 1"},
		{sql: "a + 1", alias: "", want: "a + 1"},
		{sql: "a AS b", alias: "c", want: "a AS b"},
		{sql: "AS x", alias: "x", want: "AS x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripAlias(tt.sql, tt.alias), tt.sql)
	}
}

func TestExtract_StarUsesEarlierStatements(t *testing.T) {
	sql := `
CREATE TABLE b AS SELECT * FROM a;
CREATE TABLE a AS SELECT id, name FROM raw.src;
`
	result := extract(t, sql)
	require.Len(t, result.Expressions, 2)
	assert.Equal(t, "a", result.Expressions[0].Target.Name, "producer resolved first")
	assert.Equal(t, "b", result.Expressions[1].Target.Name)

	assert.Equal(t, []string{
		"a.id -> b.id COPY",
		"a.name -> b.name COPY",
	}, columnEdges(result.Expressions[1].Columns.Items()))
}

func TestExtract_StatePersistsAcrossCalls(t *testing.T) {
	e := New(WithLogger(testutil.NewTestLogger(t)))

	_, err := e.ExtractLineage("CREATE TABLE a AS SELECT id FROM raw.src")
	require.NoError(t, err)
	result, err := e.ExtractLineage("CREATE TABLE b AS SELECT * FROM a")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.id -> b.id COPY"}, columnEdges(result.Columns.Items()))
	assert.Equal(t, []string{"id"}, e.Schema().Get("b", nil).Leaves())
}

func TestExtract_StructBursting(t *testing.T) {
	schema := NewSchema()
	schema.AddColumn("raw.events", "id")
	schema.AddColumn("raw.events", "payload.a")
	schema.AddColumn("raw.events", "payload.b.c")

	e := New(WithSchema(schema), WithLogger(testutil.NewTestLogger(t)))
	result, err := e.ExtractLineage("CREATE TABLE t AS SELECT payload FROM raw.events")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"raw.events.payload.a -> t.payload.a COPY",
		"raw.events.payload.b.c -> t.payload.b.c COPY",
	}, columnEdges(result.Columns.Items()))

	isStruct, err := e.Schema().IsStruct("t", "payload")
	require.NoError(t, err)
	assert.True(t, isStruct)
}

func TestExtract_StructLiteral(t *testing.T) {
	result := extract(t, "CREATE TABLE t AS SELECT STRUCT(a, b + 1 AS c) AS s FROM raw.x")
	assert.Equal(t, []string{
		"raw.x.a -> t.s.a COPY",
		"raw.x.b -> t.s.c TRANSFORM",
	}, columnEdges(result.Columns.Items()))
}

func TestExtract_ColumnDefinitions(t *testing.T) {
	e := New(WithLogger(testutil.NewTestLogger(t)))
	result, err := e.ExtractLineage(`
CREATE TABLE t (id INT64, info STRUCT<a INT64, b STRING>);
CREATE TABLE u AS SELECT * FROM t;
`)
	require.NoError(t, err)
	require.Len(t, result.Expressions, 2)
	assert.Zero(t, result.Expressions[0].Columns.Len())

	assert.Equal(t, []string{
		"t.id -> u.id COPY",
		"t.info.a -> u.info.a COPY",
		"t.info.b -> u.info.b COPY",
	}, columnEdges(result.Expressions[1].Columns.Items()))
}

func TestExtract_Unnest(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		columns []string
		tables  []string
	}{
		{
			name:    "join alias",
			sql:     "CREATE TABLE t AS SELECT o.id, item FROM raw.orders AS o, UNNEST(o.items) AS item",
			columns: []string{"raw.orders.id -> t.id COPY", "raw.orders.items -> t.item COPY"},
			tables: []string{
				"raw.orders(TABLE) -> raw.orders.items(UNNEST) []",
				"raw.orders(TABLE) -> t(TABLE) [o]",
				"raw.orders.items(UNNEST) -> t(TABLE) [item]",
			},
		},
		{
			name:    "single part reads primary from",
			sql:     "CREATE TABLE t AS SELECT item FROM raw.orders, UNNEST(items) AS item",
			columns: []string{"raw.orders.items -> t.item COPY"},
			tables: []string{
				"raw.orders(TABLE) -> raw.orders.items(UNNEST) []",
				"raw.orders(TABLE) -> t(TABLE) [orders]",
				"raw.orders.items(UNNEST) -> t(TABLE) [item]",
			},
		},
		{
			name:    "fully qualified falls back to primary from",
			sql:     "CREATE TABLE t AS SELECT item FROM raw.orders, UNNEST(raw.orders.items) AS item",
			columns: []string{"raw.orders.items -> t.item COPY"},
			tables: []string{
				"raw.orders(TABLE) -> raw.orders.items(UNNEST) []",
				"raw.orders(TABLE) -> t(TABLE) [orders]",
				"raw.orders.items(UNNEST) -> t(TABLE) [item]",
			},
		},
		{
			name:    "element field",
			sql:     "CREATE TABLE t AS SELECT item.sku AS sku FROM raw.orders AS o, UNNEST(o.items) AS item",
			columns: []string{"raw.orders.items.sku -> t.sku COPY"},
			tables: []string{
				"raw.orders(TABLE) -> raw.orders.items(UNNEST) []",
				"raw.orders(TABLE) -> t(TABLE) [o]",
				"raw.orders.items(UNNEST) -> t(TABLE) [item]",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extract(t, tt.sql)
			assert.Equal(t, tt.columns, columnEdges(result.Columns.Items()))
			assert.Equal(t, tt.tables, tableEdges(result.Tables.Items()))
		})
	}
}

func TestExtract_ScalarSubquery(t *testing.T) {
	result := extract(t, "CREATE TABLE t AS SELECT a.id, (SELECT MAX(v) FROM raw.b) AS m FROM raw.a AS a")
	assert.Equal(t, []string{
		"raw.a.id -> t.id COPY",
		"raw.b.v -> t.m TRANSFORM",
	}, columnEdges(result.Columns.Items()))
	assert.Equal(t, []string{
		"raw.a(TABLE) -> t(TABLE) [a]",
		"raw.b(TABLE) -> t(TABLE) [b]",
	}, tableEdges(result.Tables.Items()))
}

func TestExtract_RecursiveCTE(t *testing.T) {
	sql := `WITH RECURSIVE r AS (
  SELECT id FROM raw.nodes
  UNION ALL
  SELECT id FROM r
)
SELECT id FROM r`
	result := extract(t, sql)

	assert.Equal(t, []string{
		"r(CTE) -> expr000(QUERY) [r]",
		"raw.nodes(TABLE) -> r(CTE) [nodes]",
	}, tableEdges(result.Tables.Items()))
	assert.Equal(t, []string{
		"r.id -> expr000.id COPY",
		"raw.nodes.id -> r.id COPY",
	}, columnEdges(result.Columns.Items()))
}

func TestExtract_Truncate(t *testing.T) {
	result := extract(t, "TRUNCATE TABLE raw.t")
	require.Len(t, result.Expressions, 1)
	assert.Equal(t, DataTable{Name: "raw.t", Kind: KindTable}, result.Expressions[0].Target)
	assert.Empty(t, result.Edges())
}

func TestExtract_MissingSource(t *testing.T) {
	rec, logger := testutil.NewRecorder()
	e := New(WithLogger(logger))

	result, err := e.ExtractLineage("INSERT INTO t VALUES (1, 2); CREATE TABLE u AS SELECT a FROM s")
	require.NoError(t, err)
	require.Len(t, result.Expressions, 1)
	assert.Equal(t, "u", result.Expressions[0].Target.Name)
	assert.Len(t, rec.Records(slog.LevelWarn), 1)

	_, err = New().ExtractStatement("INSERT INTO t VALUES (1, 2)")
	var missing *MissingSourceError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "t", missing.Target)
}

func TestExtract_MalformedStatementIsolation(t *testing.T) {
	rec, logger := testutil.NewRecorder()
	e := New(WithLogger(logger))

	result, err := e.ExtractLineage(`
CREATE TABLE a AS SELECT x FROM s;
SELEC broken;
SELECT x FROM a;
`)
	require.NoError(t, err)
	require.Len(t, result.Expressions, 2)
	assert.Equal(t, "a", result.Expressions[0].Target.Name)
	// Statement numbering counts the malformed statement.
	assert.Equal(t, "expr002", result.Expressions[1].Target.Name)

	warnings := rec.Records(slog.LevelWarn)
	require.Len(t, warnings, 1)
	assert.Equal(t, "skipping statement", warnings[0].Message)
	assert.Equal(t, "1", warnings[0].Attrs["index"])

	_, err = New().ExtractStatement("SELEC broken")
	assert.Error(t, err)
}

func TestExtract_CycleTolerance(t *testing.T) {
	rec, logger := testutil.NewRecorder()
	e := New(WithLogger(logger))

	result, err := e.ExtractLineage(`
CREATE TABLE a AS SELECT x FROM b;
CREATE TABLE b AS SELECT x FROM a;
`)
	require.NoError(t, err)
	require.Len(t, result.Expressions, 2)
	assert.Equal(t, "a", result.Expressions[0].Target.Name)
	assert.Equal(t, "b", result.Expressions[1].Target.Name)

	warnings := rec.Records(slog.LevelWarn)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Attrs["cycle"], "a, b")
}

func TestExtract_NoSelfLoops(t *testing.T) {
	sql := `
CREATE TABLE t AS SELECT id FROM raw.src;
INSERT INTO t SELECT * FROM t;
INSERT INTO t SELECT id FROM t WHERE id > 0;
WITH RECURSIVE r AS (SELECT id FROM t UNION ALL SELECT id FROM r) SELECT id FROM r;
`
	result := extract(t, sql)
	for _, edge := range result.Tables.Items() {
		assert.NotEqual(t, edge.Source.key(), edge.Target.key(), "table self-loop %v", edge)
	}
	for _, edge := range result.Columns.Items() {
		assert.False(t, edge.Source.Equal(edge.Target), "column self-loop %v", edge)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	sql := `
CREATE TABLE b AS SELECT a.id, c.v FROM a JOIN c ON a.id = c.id;
CREATE TABLE a AS WITH w AS (SELECT id, x * 2 AS y FROM raw.one) SELECT * FROM w;
SELECT id FROM b;
`
	first, err := json.Marshal(extract(t, sql))
	require.NoError(t, err)
	for range 5 {
		again, err := json.Marshal(extract(t, sql))
		require.NoError(t, err)
		assert.JSONEq(t, string(first), string(again))
		assert.Equal(t, string(first), string(again))
	}
}

func TestParsedResult_AddIdempotent(t *testing.T) {
	result := extract(t, "CREATE TABLE big AS WITH w AS (SELECT id FROM raw.orders) SELECT * FROM w")
	tables, columns := result.Tables.Len(), result.Columns.Len()

	result.Add(result.Expressions[0])
	assert.Equal(t, tables, result.Tables.Len())
	assert.Equal(t, columns, result.Columns.Len())
	assert.Len(t, result.Expressions, 2)
}

func TestExtract_Splitter(t *testing.T) {
	split := func(sql string) ([]string, error) {
		return strings.Split(sql, ";"), nil
	}
	e := New(WithSplitter(split), WithLogger(testutil.NewTestLogger(t)))
	result, err := e.ExtractLineage("CREATE TABLE a AS SELECT x FROM s; CREATE TABLE b AS SELECT x FROM a;")
	require.NoError(t, err)
	assert.Len(t, result.Expressions, 2)

	failing := func(string) ([]string, error) { return nil, errors.New("boom") }
	e = New(WithSplitter(failing))
	result, err = e.ExtractLineage("CREATE TABLE a AS SELECT x FROM s")
	require.NoError(t, err)
	assert.Len(t, result.Expressions, 1, "falls back to the parser's splitting")
}

func TestExtractor_Plan(t *testing.T) {
	plan, cycle := New().Plan(
		"CREATE TABLE b AS SELECT x FROM a; SELEC broken",
		"CREATE TABLE a AS SELECT x FROM raw.src",
	)
	assert.Nil(t, cycle)
	require.Len(t, plan, 2)
	assert.Equal(t, StatementDeps{Index: 2, Target: "a", Sources: []string{"raw.src"}}, plan[0])
	assert.Equal(t, StatementDeps{Index: 0, Target: "b", Sources: []string{"a"}}, plan[1])
}

func TestExtract_Concurrent(t *testing.T) {
	e := New()
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.ExtractLineage(fmt.Sprintf("CREATE TABLE t%d AS SELECT id FROM raw.src", i))
		}()
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, []string{"id"}, e.Schema().Get("t3", nil).Leaves())
}

func TestExtractFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"01_b.sql":          "CREATE TABLE b AS SELECT * FROM a;",
		"02_a.sql":          "CREATE TABLE a AS SELECT id, name FROM raw.src;",
		"03_empty.sql":      "  \n",
		"nested/04_c.sql":   "CREATE TABLE c AS SELECT id FROM b;",
		"nested/readme.txt": "not sql",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	e := New(WithLogger(testutil.NewTestLogger(t)), WithReadConcurrency(2))
	result, err := e.ExtractFiles(context.Background(), dir, "")
	require.NoError(t, err)

	var targets []string
	for _, expr := range result.Expressions {
		targets = append(targets, expr.Target.Name)
	}
	assert.Equal(t, []string{"a", "b", "c"}, targets)
	assert.Contains(t, columnEdges(result.Columns.Items()), "b.id -> c.id COPY")

	_, err = e.ExtractFiles(context.Background(), filepath.Join(dir, "missing"), "")
	assert.Error(t, err)
}
