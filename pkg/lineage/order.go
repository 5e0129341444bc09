package lineage

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqllineage/internal/dag"
	"github.com/leapstack-labs/sqllineage/pkg/core"
)

// StatementDeps is the target a statement writes and the relations it reads.
type StatementDeps struct {
	Index   int
	Target  string
	Sources []string
}

// Dependencies collects the relations stmt reads from. CTE names and the
// statement's own target are excluded.
func Dependencies(stmt core.Stmt, index int) StatementDeps {
	deps := StatementDeps{Index: index, Target: targetName(stmt, index)}

	var own *core.TableName
	switch s := stmt.(type) {
	case *core.CreateStmt:
		own = s.Name
	case *core.InsertStmt:
		own = s.Table
	case *core.TruncateStmt:
		own = s.Table
	}

	ctes := make(map[string]bool)
	core.Inspect(stmt, func(n core.Node) bool {
		switch n := n.(type) {
		case *core.SelectStmt:
			collectCTEs(n.With, ctes)
		case *core.CreateStmt:
			collectCTEs(n.With, ctes)
		case *core.InsertStmt:
			collectCTEs(n.With, ctes)
		}
		return true
	})

	seen := make(map[string]bool)
	core.Inspect(stmt, func(n core.Node) bool {
		t, ok := n.(*core.TableName)
		if !ok || t == own {
			return true
		}
		name := t.Name()
		key := strings.ToLower(name)
		if ctes[key] || strings.EqualFold(name, deps.Target) || seen[key] {
			return true
		}
		seen[key] = true
		deps.Sources = append(deps.Sources, name)
		return true
	})
	return deps
}

func collectCTEs(w *core.WithClause, into map[string]bool) {
	if w == nil {
		return
	}
	for _, cte := range w.CTEs {
		into[strings.ToLower(cte.Name)] = true
	}
}

// OrderStatements returns statement indexes so that every statement runs
// after the statements producing the tables it reads. Independent
// statements keep their input order. Statements caught in a cycle are
// appended in input order and reported through the warning.
func OrderStatements(deps []StatementDeps) ([]int, *CycleWarning) {
	g := dag.NewGraph()
	for _, d := range deps {
		g.AddNode(strconv.Itoa(d.Index), d)
	}

	producers := make(map[string][]StatementDeps)
	for _, d := range deps {
		key := strings.ToLower(d.Target)
		producers[key] = append(producers[key], d)
	}
	for _, c := range deps {
		for _, src := range c.Sources {
			for _, p := range producers[strings.ToLower(src)] {
				if p.Index == c.Index || strings.EqualFold(p.Target, c.Target) {
					continue
				}
				// Both nodes exist and differ, so AddEdge cannot fail.
				_ = g.AddEdge(strconv.Itoa(p.Index), strconv.Itoa(c.Index))
			}
		}
	}

	sorted, remaining := g.KahnSort()
	order := make([]int, 0, len(deps))
	for _, n := range sorted {
		order = append(order, n.Data.(StatementDeps).Index)
	}
	if len(remaining) == 0 {
		return order, nil
	}

	warning := &CycleWarning{}
	for _, n := range remaining {
		d := n.Data.(StatementDeps)
		order = append(order, d.Index)
		warning.Targets = append(warning.Targets, d.Target)
	}
	if _, path := g.HasCycle(); len(path) > 0 {
		for _, id := range path {
			n, _ := g.GetNode(id)
			warning.Path = append(warning.Path, n.Data.(StatementDeps).Target)
		}
	}
	return order, warning
}
