package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqllineage/internal/cli/config"
	"github.com/leapstack-labs/sqllineage/internal/cli/output"
	"github.com/leapstack-labs/sqllineage/internal/loader"
	"github.com/leapstack-labs/sqllineage/internal/pgsql"
	"github.com/leapstack-labs/sqllineage/internal/state"
	"github.com/leapstack-labs/sqllineage/pkg/graph"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"github.com/leapstack-labs/sqllineage/pkg/parser"
	"github.com/spf13/cobra"
)

// stdinPath is the path argument that reads SQL from standard input.
const stdinPath = "-"

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	In       io.Reader
}

// NewCommandContext collects the config, logger and renderer for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
		In:       cmd.InOrStdin(),
	}
}

// NewExtractor builds an extractor for the configured dialect and schema.
// The postgres dialect splits scripts with the libpg_query scanner.
func (c *CommandContext) NewExtractor() (*lineage.Extractor, error) {
	dialect, err := parser.LookupDialect(c.Cfg.Dialect)
	if err != nil {
		return nil, err
	}

	opts := []lineage.Option{
		lineage.WithDialect(dialect),
		lineage.WithLogger(c.Logger),
		lineage.WithReadConcurrency(c.Cfg.ReadConcurrency),
	}
	if dialect == parser.Postgres {
		opts = append(opts, lineage.WithSplitter(pgsql.Split))
	}

	if c.Cfg.Schema != "" {
		schema, err := lineage.LoadSchemaFile(c.Cfg.Schema)
		var invalid *lineage.SchemaValidationError
		switch {
		case errors.As(err, &invalid):
			c.Logger.Warn("ignoring schema file", "path", c.Cfg.Schema, "error", err)
		case err != nil:
			return nil, fmt.Errorf("failed to load schema: %w", err)
		default:
			opts = append(opts, lineage.WithSchema(schema))
		}
	}
	return lineage.New(opts...), nil
}

// defaultPaths returns paths, or the project root when none are given.
func (c *CommandContext) defaultPaths(paths []string) []string {
	if len(paths) > 0 {
		return paths
	}
	if c.Cfg.ProjectRoot != "" {
		return []string{c.Cfg.ProjectRoot}
	}
	return []string{"."}
}

// ReadInputs reads SQL from files, directories (every file matching the
// configured glob) and "-" for standard input, in argument order.
func (c *CommandContext) ReadInputs(ctx context.Context, paths []string) ([]loader.File, error) {
	var files []loader.File
	var pending []string

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		read, err := loader.ReadAll(ctx, pending, c.Cfg.ReadConcurrency)
		if err != nil {
			return err
		}
		files = append(files, read...)
		pending = nil
		return nil
	}

	for _, p := range c.defaultPaths(paths) {
		if p == stdinPath {
			if err := flush(); err != nil {
				return nil, err
			}
			data, err := io.ReadAll(c.In)
			if err != nil {
				return nil, fmt.Errorf("failed to read stdin: %w", err)
			}
			files = append(files, loader.File{Path: stdinPath, Content: string(data)})
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", p, err)
		}
		if !info.IsDir() {
			pending = append(pending, p)
			continue
		}
		found, err := loader.Discover(p, c.Cfg.Glob)
		if err != nil {
			return nil, err
		}
		pending = append(pending, found...)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	c.Logger.Debug("read inputs", "paths", paths, "files", len(files))
	return files, nil
}

// Scripts returns the non-empty contents of the inputs.
func (c *CommandContext) Scripts(ctx context.Context, paths []string) ([]string, error) {
	files, err := c.ReadInputs(ctx, paths)
	if err != nil {
		return nil, err
	}
	scripts := make([]string, 0, len(files))
	for _, f := range files {
		if strings.TrimSpace(f.Content) == "" {
			continue
		}
		scripts = append(scripts, f.Content)
	}
	return scripts, nil
}

// Extract resolves the inputs as one batch.
func (c *CommandContext) Extract(ctx context.Context, paths []string) (*lineage.ParsedResult, error) {
	ext, err := c.NewExtractor()
	if err != nil {
		return nil, err
	}
	scripts, err := c.Scripts(ctx, paths)
	if err != nil {
		return nil, err
	}
	if d, _ := parser.LookupDialect(c.Cfg.Dialect); d == parser.Postgres {
		c.checkPostgres(scripts)
	}
	return ext.ExtractScripts(scripts...)
}

// checkPostgres logs the statements libpg_query rejects. Extraction still
// runs; such statements are skipped by the batch resolver.
func (c *CommandContext) checkPostgres(scripts []string) {
	for i, script := range scripts {
		issues, err := pgsql.Check(script)
		if err != nil {
			c.Logger.Warn("postgres syntax check failed", "script", i, "error", err)
			continue
		}
		for _, issue := range issues {
			c.Logger.Warn("invalid postgres statement",
				"script", i, "statement", issue.Index, "error", issue.Err)
		}
	}
}

// OpenStore opens and migrates the state database, creating its directory.
// The returned cleanup closes the store.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, func(), error) {
	if dir := filepath.Dir(c.Cfg.StatePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// latestRun is the --run value that selects the most recent run.
const latestRun = "latest"

// LoadGraph builds the graph of the inputs, or loads a persisted run when
// runID is set.
func (c *CommandContext) LoadGraph(ctx context.Context, paths []string, runID string) (*graph.Graph, error) {
	if runID == "" {
		result, err := c.Extract(ctx, paths)
		if err != nil {
			return nil, err
		}
		return graph.FromResult(result), nil
	}

	store, cleanup, err := c.OpenStore()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if runID == latestRun {
		run, err := store.LatestRun(ctx)
		if err != nil {
			return nil, err
		}
		if run == nil {
			return nil, fmt.Errorf("no saved runs in %s", c.Cfg.StatePath)
		}
		runID = run.ID
	}
	return store.LoadGraph(ctx, runID)
}

// status writes a progress message to the diagnostics writer so data
// output on stdout stays parseable.
func (c *CommandContext) status(format string, a ...any) {
	_, _ = fmt.Fprintf(c.Renderer.ErrWriter(), format+"\n", a...)
}
