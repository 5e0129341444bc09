package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/sqllineage/pkg/lineage"
)

// SaveResult persists result as a new run. The run row and every edge are
// written in one transaction.
func (s *SQLiteStore) SaveResult(ctx context.Context, source string, result *lineage.ParsedResult) (*Run, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	run := &Run{
		ID:          generateID(),
		Source:      source,
		CreatedAt:   time.Now().UTC(),
		Expressions: len(result.Expressions),
		TableEdges:  result.Tables.Len(),
		ColumnEdges: result.Columns.Len(),
	}
	s.logger.Debug("saving run", "id", run.ID, "source", source,
		"table_edges", run.TableEdges, "column_edges", run.ColumnEdges)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, created_at, expressions, table_edges, column_edges) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, formatTime(run.CreatedAt), run.Expressions, run.TableEdges, run.ColumnEdges,
	); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	tableStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO table_edges (run_id, seq, source, source_kind, target, target_kind, alias) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare table edge insert: %w", err)
	}
	defer func() { _ = tableStmt.Close() }()

	for i, e := range result.Tables.Items() {
		if _, err := tableStmt.ExecContext(ctx, run.ID, i,
			e.Source.Name, string(e.Source.Kind), e.Target.Name, string(e.Target.Kind), e.Alias,
		); err != nil {
			return nil, fmt.Errorf("failed to insert table edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}

	columnStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO column_edges (run_id, seq, source_table, source_kind, source_column, target_table, target_kind, target_column, action)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare column edge insert: %w", err)
	}
	defer func() { _ = columnStmt.Close() }()

	for i, e := range result.Columns.Items() {
		srcTable, srcKind := columnTable(e.Source)
		tgtTable, tgtKind := columnTable(e.Target)
		if _, err := columnStmt.ExecContext(ctx, run.ID, i,
			srcTable, srcKind, e.Source.Name, tgtTable, tgtKind, e.Target.Name, string(e.Action),
		); err != nil {
			return nil, fmt.Errorf("failed to insert column edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return run, nil
}

func columnTable(c lineage.DataColumn) (name, kind string) {
	if c.Table == nil {
		return "", ""
	}
	return c.Table.Name, string(c.Table.Kind)
}

const runColumns = `id, source, created_at, expressions, table_edges, column_edges`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var createdAt string
	if err := row.Scan(&run.ID, &run.Source, &createdAt, &run.Expressions, &run.TableEdges, &run.ColumnEdges); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	run.CreatedAt = t
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recent run, or nil when none exist.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*Run, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its edges.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
