package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqllineage/internal/testutil"
	"github.com/leapstack-labs/sqllineage/pkg/graph"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate())
	return store
}

func extractResult(t *testing.T, sql string) *lineage.ParsedResult {
	t.Helper()
	result, err := lineage.New().ExtractLineage(sql)
	require.NoError(t, err)
	return result
}

const testScript = `
CREATE TABLE big AS WITH w AS (SELECT id, total * 1.1 AS total_tax FROM raw.orders) SELECT * FROM w;
INSERT INTO report SELECT id FROM big;
`

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	assert.Equal(t, ":memory:", store.Path())
	require.NoError(t, store.Close())

	var unopened SQLiteStore
	assert.NoError(t, unopened.Close())
	assert.EqualError(t, (&SQLiteStore{}).Migrate(), "database not opened")
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate())

	for _, table := range []string{"runs", "table_edges", "column_edges"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s does not exist", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_SaveResult(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	result := extractResult(t, testScript)

	run, err := store.SaveResult(ctx, "models/", result)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "models/", run.Source)
	assert.Equal(t, 2, run.Expressions)
	assert.Equal(t, result.Tables.Len(), run.TableEdges)
	assert.Equal(t, result.Columns.Len(), run.ColumnEdges)

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, run.ColumnEdges, got.ColumnEdges)

	tables, err := store.TableEdges(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Tables.Items(), tables)

	columns, err := store.ColumnEdges(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, columns, result.Columns.Len())
	for i, c := range result.Columns.Items() {
		assert.True(t, c.Source.Equal(columns[i].Source), "source %d", i)
		assert.True(t, c.Target.Equal(columns[i].Target), "target %d", i)
		assert.Equal(t, c.Action, columns[i].Action)
	}
}

func TestSQLiteStore_ColumnWithoutTable(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	result := lineage.NewParsedResult()
	result.Columns.Add(lineage.ColumnLineage{
		Source: lineage.DataColumn{Name: "x"},
		Target: lineage.DataColumn{Table: &lineage.DataTable{Name: "t", Kind: lineage.KindTable}, Name: "x"},
		Action: lineage.ActionCopy,
	})

	run, err := store.SaveResult(ctx, "inline", result)
	require.NoError(t, err)

	columns, err := store.ColumnEdges(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, columns, 1)
	assert.Nil(t, columns[0].Source.Table)
	assert.Equal(t, "t.x", columns[0].Target.String())
}

func TestSQLiteStore_Runs(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		operation func(t *testing.T, store *SQLiteStore)
	}{
		{
			name: "latest run on empty store",
			operation: func(t *testing.T, store *SQLiteStore) {
				run, err := store.LatestRun(ctx)
				require.NoError(t, err)
				assert.Nil(t, run)
			},
		},
		{
			name: "list newest first",
			operation: func(t *testing.T, store *SQLiteStore) {
				first, err := store.SaveResult(ctx, "first", extractResult(t, "CREATE TABLE a AS SELECT x FROM s"))
				require.NoError(t, err)
				second, err := store.SaveResult(ctx, "second", extractResult(t, "CREATE TABLE b AS SELECT x FROM a"))
				require.NoError(t, err)

				runs, err := store.ListRuns(ctx)
				require.NoError(t, err)
				require.Len(t, runs, 2)
				assert.Equal(t, second.ID, runs[0].ID)
				assert.Equal(t, first.ID, runs[1].ID)

				latest, err := store.LatestRun(ctx)
				require.NoError(t, err)
				assert.Equal(t, second.ID, latest.ID)
			},
		},
		{
			name: "get run not found",
			operation: func(t *testing.T, store *SQLiteStore) {
				_, err := store.GetRun(ctx, "nonexistent-id")
				assert.True(t, errors.Is(err, ErrRunNotFound))
			},
		},
		{
			name: "delete run cascades",
			operation: func(t *testing.T, store *SQLiteStore) {
				run, err := store.SaveResult(ctx, "doomed", extractResult(t, testScript))
				require.NoError(t, err)
				require.NoError(t, store.DeleteRun(ctx, run.ID))

				tables, err := store.TableEdges(ctx, run.ID)
				require.NoError(t, err)
				assert.Empty(t, tables)
				columns, err := store.ColumnEdges(ctx, run.ID)
				require.NoError(t, err)
				assert.Empty(t, columns)

				err = store.DeleteRun(ctx, run.ID)
				assert.True(t, errors.Is(err, ErrRunNotFound))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.operation(t, setupTestStore(t))
		})
	}
}

func TestSQLiteStore_LoadGraph(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	result := extractResult(t, testScript)

	run, err := store.SaveResult(ctx, "models/", result)
	require.NoError(t, err)

	loaded, err := store.LoadGraph(ctx, run.ID)
	require.NoError(t, err)
	fresh := graph.FromResult(result)
	assert.Equal(t, fresh.PrettyString(), loaded.PrettyString())

	chains := loaded.NodeLineage("report", lineage.NodeTable, 0)
	require.Len(t, chains, 1)
	assert.Equal(t, "raw.orders", chains[0][0].Source)

	_, err = store.LoadGraph(ctx, "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestSQLiteStore_FileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.Migrate())
	run, err := store.SaveResult(ctx, "file", extractResult(t, "CREATE TABLE a AS SELECT x FROM s"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "file", got.Source)
}
