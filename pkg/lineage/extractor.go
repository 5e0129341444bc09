package lineage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/leapstack-labs/sqllineage/internal/loader"
	"github.com/leapstack-labs/sqllineage/pkg/core"
	"github.com/leapstack-labs/sqllineage/pkg/parser"
)

// Splitter splits a script into statement texts. It replaces the parser's
// own splitting when a dialect has a more faithful splitter available.
type Splitter func(sql string) ([]string, error)

// Extractor resolves lineage across batches of statements. Its schema and
// table store persist across calls, so later batches see the tables and
// columns produced by earlier ones. Calls on one Extractor serialize.
type Extractor struct {
	mu              sync.Mutex
	dialect         *parser.Dialect
	schema          *Schema
	store           *TableStore
	tables          *TableResolver
	logger          *slog.Logger
	splitter        Splitter
	readConcurrency int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDialect sets the SQL dialect. A nil dialect parses ANSI SQL.
func WithDialect(d *parser.Dialect) Option {
	return func(e *Extractor) { e.dialect = d }
}

// WithSchema seeds the extractor with known tables and columns.
func WithSchema(s *Schema) Option {
	return func(e *Extractor) {
		if s != nil {
			e.schema = s
		}
	}
}

// WithLogger sets the logger used for skipped statements and cycles.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSplitter overrides statement splitting.
func WithSplitter(s Splitter) Option {
	return func(e *Extractor) { e.splitter = s }
}

// WithReadConcurrency bounds concurrent file reads in ExtractFiles.
func WithReadConcurrency(n int) Option {
	return func(e *Extractor) { e.readConcurrency = n }
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		schema: NewSchema(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.store = NewTableStore()
	e.tables = NewTableResolver(e.store, e.schema)
	return e
}

// Schema returns the extractor's schema registry.
func (e *Extractor) Schema() *Schema {
	return e.schema
}

// ExtractLineage resolves every statement of a script. Statements that
// fail to parse or have no source are logged and skipped.
func (e *Extractor) ExtractLineage(sql string) (*ParsedResult, error) {
	return e.ExtractScripts(sql)
}

// ExtractScripts resolves the statements of several scripts as one batch.
// Statements are numbered across scripts and processed in dependency
// order. Only an UnresolvableStarError or an unexpected failure aborts
// the batch.
func (e *Extractor) ExtractScripts(scripts ...string) (*ParsedResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var stmts []*parser.Statement
	for _, script := range scripts {
		for _, s := range e.split(script) {
			s.Index = len(stmts)
			stmts = append(stmts, s)
		}
	}

	parsed := make(map[int]core.Stmt, len(stmts))
	var deps []StatementDeps
	for _, s := range stmts {
		if s.Err != nil {
			e.logger.Warn("skipping statement", "index", s.Index, "error", s.Err)
			continue
		}
		parsed[s.Index] = s.Stmt
		deps = append(deps, Dependencies(s.Stmt, s.Index))
	}

	order, cycle := OrderStatements(deps)
	if cycle != nil {
		e.logger.Warn("statements ordered by input position", "cycle", cycle.Error())
	}

	b := newBuilder(e.tables, e.schema, e.logger)
	result := NewParsedResult()
	for _, index := range order {
		expr, err := b.build(parsed[index], index)
		if err != nil {
			var missing *MissingSourceError
			if errors.As(err, &missing) {
				e.logger.Warn("skipping statement", "index", index, "error", err)
				continue
			}
			return nil, fmt.Errorf("statement %d: %w", index, err)
		}
		result.Add(expr)
	}
	return result, nil
}

// Plan returns the dependencies of every parsable statement in the order
// ExtractScripts would resolve them, with the cycle warning if any.
func (e *Extractor) Plan(scripts ...string) ([]StatementDeps, *CycleWarning) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var deps []StatementDeps
	index := 0
	for _, script := range scripts {
		for _, s := range e.split(script) {
			if s.Err == nil {
				deps = append(deps, Dependencies(s.Stmt, index))
			}
			index++
		}
	}

	order, cycle := OrderStatements(deps)
	byIndex := make(map[int]StatementDeps, len(deps))
	for _, d := range deps {
		byIndex[d.Index] = d
	}
	planned := make([]StatementDeps, 0, len(order))
	for _, i := range order {
		planned = append(planned, byIndex[i])
	}
	return planned, cycle
}

// split returns the statements of a script, using the configured splitter
// when there is one and falling back to the parser's own splitting.
func (e *Extractor) split(script string) []*parser.Statement {
	if e.splitter == nil {
		return parser.ParseScript(script, e.dialect)
	}

	texts, err := e.splitter(script)
	if err != nil {
		e.logger.Debug("splitter failed, using parser", "error", err)
		return parser.ParseScript(script, e.dialect)
	}

	stmts := make([]*parser.Statement, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		stmt, err := parser.Parse(text, e.dialect)
		stmts = append(stmts, &parser.Statement{Text: text, Stmt: stmt, Err: err})
	}
	return stmts
}

// ExtractStatement resolves a single statement and returns every error,
// including a parse failure or a missing source.
func (e *Extractor) ExtractStatement(sql string) (*ParsedExpression, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	stmt, err := parser.Parse(sql, e.dialect)
	if err != nil {
		return nil, err
	}
	return newBuilder(e.tables, e.schema, e.logger).build(stmt, 0)
}

// ExtractFiles resolves every file under dir matching glob as one batch.
// Files are read concurrently and resolved in path order. Empty files are
// ignored.
func (e *Extractor) ExtractFiles(ctx context.Context, dir, glob string) (*ParsedResult, error) {
	paths, err := loader.Discover(dir, glob)
	if err != nil {
		return nil, err
	}
	files, err := loader.ReadAll(ctx, paths, e.readConcurrency)
	if err != nil {
		return nil, err
	}

	scripts := make([]string, 0, len(files))
	for _, f := range files {
		if strings.TrimSpace(f.Content) == "" {
			e.logger.Debug("skipping empty file", "path", f.Path)
			continue
		}
		scripts = append(scripts, f.Content)
	}
	e.logger.Debug("extracting files", "dir", dir, "files", len(scripts))
	return e.ExtractScripts(scripts...)
}
