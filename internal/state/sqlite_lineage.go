package state

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/sqllineage/pkg/graph"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
)

// TableEdges returns the table edges of a run in their original order.
func (s *SQLiteStore) TableEdges(ctx context.Context, runID string) ([]lineage.TableLineage, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, source_kind, target, target_kind, alias FROM table_edges WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get table edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var edges []lineage.TableLineage
	for rows.Next() {
		var e lineage.TableLineage
		var srcKind, tgtKind string
		if err := rows.Scan(&e.Source.Name, &srcKind, &e.Target.Name, &tgtKind, &e.Alias); err != nil {
			return nil, fmt.Errorf("failed to scan table edge: %w", err)
		}
		e.Source.Kind = lineage.TableKind(srcKind)
		e.Target.Kind = lineage.TableKind(tgtKind)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// ColumnEdges returns the column edges of a run in their original order.
func (s *SQLiteStore) ColumnEdges(ctx context.Context, runID string) ([]lineage.ColumnLineage, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_table, source_kind, source_column, target_table, target_kind, target_column, action
		 FROM column_edges WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get column edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var edges []lineage.ColumnLineage
	for rows.Next() {
		var srcTable, srcKind, tgtTable, tgtKind, action string
		var e lineage.ColumnLineage
		if err := rows.Scan(&srcTable, &srcKind, &e.Source.Name, &tgtTable, &tgtKind, &e.Target.Name, &action); err != nil {
			return nil, fmt.Errorf("failed to scan column edge: %w", err)
		}
		e.Source.Table = columnOwner(srcTable, srcKind)
		e.Target.Table = columnOwner(tgtTable, tgtKind)
		e.Action = lineage.Action(action)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func columnOwner(name, kind string) *lineage.DataTable {
	if name == "" {
		return nil
	}
	return &lineage.DataTable{Name: name, Kind: lineage.TableKind(kind)}
}

// LoadGraph rebuilds the lineage graph of a run.
func (s *SQLiteStore) LoadGraph(ctx context.Context, runID string) (*graph.Graph, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	tables, err := s.TableEdges(ctx, runID)
	if err != nil {
		return nil, err
	}
	columns, err := s.ColumnEdges(ctx, runID)
	if err != nil {
		return nil, err
	}

	g := graph.New()
	for _, e := range tables {
		g.AddEdges(e)
	}
	for _, e := range columns {
		g.AddEdges(e)
	}
	s.logger.Debug("loaded graph", "run", runID, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g, nil
}
