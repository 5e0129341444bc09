package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqllineage/internal/cli/config"
	"github.com/leapstack-labs/sqllineage/internal/cli/output"
	"github.com/leapstack-labs/sqllineage/internal/cli/testutil"
	"github.com/leapstack-labs/sqllineage/internal/state"
	logtest "github.com/leapstack-labs/sqllineage/internal/testutil"
	"github.com/leapstack-labs/sqllineage/pkg/graph"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
)

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Output = mode
	cfg.StatePath = filepath.Join(t.TempDir(), "state", "state.db")
	return cfg
}

type result struct {
	out    string
	errOut string
	err    error
}

func execute(cmd *cobra.Command, cfg *config.Config, stdin string, args ...string) result {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	ctx := context.WithValue(context.Background(), config.ConfigKey(), cfg)
	err := cmd.ExecuteContext(ctx)
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{cmd: NewExtractCommand(), use: "extract [paths...]", flags: []string{"save"}},
		{cmd: NewGraphCommand(), use: "graph [paths...]", flags: []string{"run"}},
		{cmd: NewLineageCommand(), use: "lineage <node> [paths...]", flags: []string{"type", "max-steps", "physical", "plain", "run"}},
		{cmd: NewDescendantsCommand(), use: "descendants <node> [paths...]", flags: []string{"type", "max-steps", "physical", "plain", "run"}},
		{cmd: NewNeighboursCommand(), use: "neighbours <node> [paths...]", flags: []string{"type", "max-steps", "physical", "plain", "run"}},
		{cmd: NewOrderCommand(), use: "order [paths...]"},
		{cmd: NewWatchCommand(), use: "watch [dir]", flags: []string{"debounce", "save"}},
		{cmd: NewHistoryCommand(), use: "history", flags: []string{"delete"}},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Long, "Long should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestExtractCommand_JSON(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	res := execute(NewExtractCommand(), testConfig(t, "json"), "", dir)
	require.NoError(t, res.err)

	var doc lineage.ResultDocument
	require.NoError(t, json.Unmarshal([]byte(res.out), &doc))
	require.Len(t, doc.Expressions, 2)
	assert.Equal(t, "staging", doc.Expressions[0].Target)
	assert.Equal(t, "report", doc.Expressions[1].Target)

	var tables []string
	for _, tbl := range doc.Tables {
		tables = append(tables, tbl.Source+"->"+tbl.Target)
	}
	assert.ElementsMatch(t, []string{"raw.orders->staging", "staging->report"}, tables)
}

func TestExtractCommand_Markdown(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	res := execute(NewExtractCommand(), testConfig(t, "markdown"), "", dir)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "# Lineage")
	assert.Contains(t, res.out, "- **Statements**: 2")
	assert.Contains(t, res.out, "raw.orders.amount")
	assert.Contains(t, res.out, "TRANSFORM")
	testutil.AssertNoANSI(t, res.out)
	testutil.AssertValidMarkdown(t, res.out)
}

func TestExtractCommand_Stdin(t *testing.T) {
	sql := "CREATE TABLE t AS SELECT a, b + 1 AS c FROM raw.s"

	res := execute(NewExtractCommand(), testConfig(t, "yaml"), sql, "-")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "target: t")
	assert.Contains(t, res.out, "source: raw.s.b")
}

func TestExtractCommand_Errors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*config.Config)
		args      []string
		errSubstr string
	}{
		{
			name:      "missing path",
			args:      []string{"does/not/exist.sql"},
			errSubstr: "cannot read",
		},
		{
			name:      "unknown dialect",
			mutate:    func(c *config.Config) { c.Dialect = "oracle" },
			args:      []string{"-"},
			errSubstr: "unknown dialect",
		},
		{
			name:      "missing schema file",
			mutate:    func(c *config.Config) { c.Schema = "does/not/exist.yaml" },
			args:      []string{"-"},
			errSubstr: "failed to load schema",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, "json")
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			res := execute(NewExtractCommand(), cfg, "SELECT 1 FROM t", tt.args...)
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.errSubstr)
		})
	}
}

func TestExtractCommand_SchemaOverlay(t *testing.T) {
	schemaPath := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`tables:
  - name: raw.users
    columns:
      - name: id
      - name: email
`), 0o600))

	cfg := testConfig(t, "json")
	cfg.Schema = schemaPath
	res := execute(NewExtractCommand(), cfg, "CREATE TABLE u AS SELECT * FROM raw.users", "-")
	require.NoError(t, res.err)

	var doc lineage.ResultDocument
	require.NoError(t, json.Unmarshal([]byte(res.out), &doc))
	var targets []string
	for _, c := range doc.Columns {
		targets = append(targets, c.Target)
	}
	assert.ElementsMatch(t, []string{"u.id", "u.email"}, targets)
}

func TestExtractCommand_Postgres(t *testing.T) {
	cfg := testConfig(t, "json")
	cfg.Dialect = "postgres"
	sql := "CREATE TABLE a AS SELECT x FROM s WHERE y = 'a;b'; CREATE TABLE b AS SELECT x FROM a;"

	res := execute(NewExtractCommand(), cfg, sql, "-")
	require.NoError(t, res.err)

	var doc lineage.ResultDocument
	require.NoError(t, json.Unmarshal([]byte(res.out), &doc))
	assert.Len(t, doc.Expressions, 2)
}

func TestCheckPostgres(t *testing.T) {
	rec, logger := logtest.NewRecorder()
	cc := &CommandContext{Cfg: testConfig(t, "json"), Logger: logger}

	cc.checkPostgres([]string{"SELECT 1;", "SELECT 1; SELEC 2;"})

	warnings := rec.Records(slog.LevelWarn)
	require.Len(t, warnings, 1)
	assert.Equal(t, "invalid postgres statement", warnings[0].Message)
	assert.Equal(t, "1", warnings[0].Attrs["script"])
	assert.Equal(t, "1", warnings[0].Attrs["statement"])
}

func TestExtractSaveAndHistory(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	cfg := testConfig(t, "json")

	res := execute(NewExtractCommand(), cfg, "", "--save", dir)
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "saved run")

	res = execute(NewHistoryCommand(), cfg, "")
	require.NoError(t, res.err)
	var runs []state.Run
	require.NoError(t, json.Unmarshal([]byte(res.out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, dir, runs[0].Source)
	assert.Equal(t, 2, runs[0].Expressions)

	// A saved run answers the same query as the SQL it came from.
	fromRun := execute(NewLineageCommand(), cfg, "", "report", "--run", "latest")
	require.NoError(t, fromRun.err)
	fromSQL := execute(NewLineageCommand(), cfg, "", "report", dir)
	require.NoError(t, fromSQL.err)
	assert.JSONEq(t, fromSQL.out, fromRun.out)

	res = execute(NewHistoryCommand(), cfg, "", "--delete", runs[0].ID)
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "deleted run")

	res = execute(NewGraphCommand(), cfg, "", "--run", "latest")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "no saved runs")
}

func TestHistoryCommand_Empty(t *testing.T) {
	res := execute(NewHistoryCommand(), testConfig(t, "markdown"), "")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "# Saved Runs")
	assert.Contains(t, res.out, "(0 rows)")
}

func TestGraphCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	res := execute(NewGraphCommand(), testConfig(t, "markdown"), "", dir)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "# Lineage Graph")
	assert.Contains(t, res.out, "staging --> report [type: TABLE")
	assert.Contains(t, res.out, "staging.amount --> report.total [action: TRANSFORM")
	testutil.AssertValidMarkdown(t, res.out)

	res = execute(NewGraphCommand(), testConfig(t, "json"), "", dir)
	require.NoError(t, res.err)
	var edges []graph.Edge
	require.NoError(t, json.Unmarshal([]byte(res.out), &edges))
	assert.NotEmpty(t, edges)
}

func queryJSON(t *testing.T, cmd *cobra.Command, args ...string) [][]graph.Step {
	t.Helper()
	res := execute(cmd, testConfig(t, "json"), "", args...)
	require.NoError(t, res.err)
	var chains [][]graph.Step
	require.NoError(t, json.Unmarshal([]byte(res.out), &chains))
	return chains
}

func hops(chains [][]graph.Step) [][]string {
	out := make([][]string, 0, len(chains))
	for _, chain := range chains {
		var path []string
		for _, s := range chain {
			path = append(path, s.Source+"->"+s.Target)
		}
		out = append(out, path)
	}
	return out
}

func TestQueryCommands(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	tests := []struct {
		name string
		cmd  func() *cobra.Command
		args []string
		want [][]string
	}{
		{
			name: "table lineage",
			cmd:  NewLineageCommand,
			args: []string{"report", dir},
			want: [][]string{{"raw.orders->staging", "staging->report"}},
		},
		{
			name: "column lineage",
			cmd:  NewLineageCommand,
			args: []string{"report.total", dir, "--type", "column"},
			want: [][]string{{"raw.orders.amount->staging.amount", "staging.amount->report.total"}},
		},
		{
			name: "max steps keeps trailing hops",
			cmd:  NewLineageCommand,
			args: []string{"report", dir, "--max-steps", "1"},
			want: [][]string{{"staging->report"}},
		},
		{
			name: "descendants",
			cmd:  NewDescendantsCommand,
			args: []string{"raw.orders", dir},
			want: [][]string{{"raw.orders->staging", "staging->report"}},
		},
		{
			name: "neighbours",
			cmd:  NewNeighboursCommand,
			args: []string{"staging", dir},
			want: [][]string{{"raw.orders->staging"}, {"staging->report"}},
		},
		{
			name: "root has no lineage",
			cmd:  NewLineageCommand,
			args: []string{"raw.orders", dir},
			want: [][]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hops(queryJSON(t, tt.cmd(), tt.args...)))
		})
	}
}

func TestQueryCommand_Actions(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	chains := queryJSON(t, NewLineageCommand(), "report.total", dir, "--type", "column")
	require.Len(t, chains, 1)
	require.Len(t, chains[0], 2)
	assert.Equal(t, "COPY", chains[0][0].Action)
	assert.Equal(t, "TRANSFORM", chains[0][1].Action)
	assert.Equal(t, "COLUMN", chains[0][1].NodeType)
}

func TestQueryCommand_Physical(t *testing.T) {
	sql := "CREATE TABLE b AS WITH c AS (SELECT id FROM a) SELECT id FROM c"

	res := execute(NewNeighboursCommand(), testConfig(t, "json"), sql, "b", "-", "--physical")
	require.NoError(t, res.err)
	var chains [][]graph.Step
	require.NoError(t, json.Unmarshal([]byte(res.out), &chains))
	assert.Equal(t, [][]string{{"a->b"}}, hops(chains))
}

func TestQueryCommand_Output(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	res := execute(NewNeighboursCommand(), testConfig(t, "markdown"), "", "staging", dir)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "# Neighbours: staging")
	assert.Contains(t, res.out, "raw.orders")

	res = execute(NewNeighboursCommand(), testConfig(t, "markdown"), "", "staging", dir, "--plain")
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.out, "Neighbourhood:\n"))
	assert.Contains(t, res.out, "  ↳ {source: raw.orders, target: staging")
}

func TestQueryCommand_Errors(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{name: "missing node argument", args: []string{}, errSubstr: "requires at least 1 arg"},
		{name: "unknown type", args: []string{"report", dir, "--type", "schema"}, errSubstr: "unknown node type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(NewLineageCommand(), testConfig(t, "json"), "", tt.args...)
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.errSubstr)
		})
	}
}

func TestQueryCommand_UnknownNode(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	for _, cmd := range []func() *cobra.Command{NewLineageCommand, NewDescendantsCommand, NewNeighboursCommand} {
		res := execute(cmd(), testConfig(t, "json"), "", "nope", dir)
		require.NoError(t, res.err)
		assert.JSONEq(t, "[]", res.out)
		assert.Contains(t, res.errOut, "warning: node not found: nope")
	}

	res := execute(NewLineageCommand(), testConfig(t, "markdown"), "", "nope", dir)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "# Lineage: nope")
}

func TestOrderCommand(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	res := execute(NewOrderCommand(), testConfig(t, "json"), "", dir)
	require.NoError(t, res.err)

	var doc orderDocument
	require.NoError(t, json.Unmarshal([]byte(res.out), &doc))
	require.Len(t, doc.Statements, 2)
	assert.Equal(t, plannedStatement{Step: 1, Index: 1, Target: "staging", Sources: []string{"raw.orders"}}, doc.Statements[0])
	assert.Equal(t, plannedStatement{Step: 2, Index: 0, Target: "report", Sources: []string{"staging"}}, doc.Statements[1])
	assert.Empty(t, doc.Cycle)
	assert.Empty(t, res.errOut)
}

func TestOrderCommand_Cycle(t *testing.T) {
	sql := "CREATE TABLE a AS SELECT x FROM b; CREATE TABLE b AS SELECT x FROM a;"

	res := execute(NewOrderCommand(), testConfig(t, "markdown"), sql, "-")
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "warning: dependency cycle between statements")
	assert.Contains(t, res.errOut, "(a -> b -> a)")
	assert.Contains(t, res.out, "# Resolution Order")

	res = execute(NewOrderCommand(), testConfig(t, "json"), sql, "-")
	require.NoError(t, res.err)
	var doc orderDocument
	require.NoError(t, json.Unmarshal([]byte(res.out), &doc))
	assert.Equal(t, []string{"a", "b"}, doc.Cycle)
	assert.Equal(t, []string{"a", "b", "a"}, doc.CyclePath)
}

func TestShouldReload(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		glob  string
		want  bool
	}{
		{name: "write sql", event: fsnotify.Event{Name: "models/a.sql", Op: fsnotify.Write}, glob: "*.sql", want: true},
		{name: "create sql", event: fsnotify.Event{Name: "a.sql", Op: fsnotify.Create}, glob: "*.sql", want: true},
		{name: "remove sql", event: fsnotify.Event{Name: "a.sql", Op: fsnotify.Remove}, glob: "*.sql", want: true},
		{name: "chmod only", event: fsnotify.Event{Name: "a.sql", Op: fsnotify.Chmod}, glob: "*.sql", want: false},
		{name: "other extension", event: fsnotify.Event{Name: "a.txt", Op: fsnotify.Write}, glob: "*.sql", want: false},
		{name: "hidden file", event: fsnotify.Event{Name: "models/.a.sql", Op: fsnotify.Write}, glob: "*.sql", want: false},
		{name: "custom glob", event: fsnotify.Event{Name: "etl.hql", Op: fsnotify.Write}, glob: "*.hql", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldReload(tt.event, tt.glob))
		})
	}
}

func TestWatcher_Extract(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	tr := testutil.NewTestRenderer(output.ModeText, false)
	cc := &CommandContext{
		Cfg:      testConfig(t, "text"),
		Logger:   config.GetLogger(context.Background()),
		Renderer: tr.Renderer,
	}

	w := &watcher{cc: cc, dir: dir, save: true}
	w.extract(context.Background())
	assert.Contains(t, tr.Output(), "2 statements, 2 table edges, 4 column edges")
	testutil.AssertNoANSI(t, tr.Output())

	store, cleanup, err := cc.OpenStore()
	require.NoError(t, err)
	defer cleanup()
	runs, err := store.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, dir, runs[0].Source)
}

func TestWatchCommand_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.sql")
	require.NoError(t, os.WriteFile(file, []byte("SELECT 1"), 0o600))

	res := execute(NewWatchCommand(), testConfig(t, "markdown"), "", file)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "not a directory")
}
