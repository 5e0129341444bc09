// Package graph builds a directed multigraph from lineage edges and answers
// ancestor, descendant and neighbourhood queries over it.
//
// Nodes are table names or "table.column" strings. Several edges may join
// the same pair of nodes, for example a table edge and a column edge that
// share a name, so queries always say which node type they follow.
package graph

import (
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqllineage/internal/dag"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
)

// Attribute keys carried on edges and steps, in display order.
var attrOrder = []string{"type", "action", "target_type", "source_type", "node_type"}

// Edge is one edge of the multigraph.
type Edge struct {
	Source string            `json:"source" yaml:"source"`
	Target string            `json:"target" yaml:"target"`
	Attrs  map[string]string `json:"attrs" yaml:"attrs"`
}

type edgeKey struct {
	source, target string
}

// Graph is a directed multigraph of lineage edges.
type Graph struct {
	dag   *dag.Graph
	edges map[edgeKey][]Edge
	count int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		dag:   dag.NewGraph(),
		edges: make(map[edgeKey][]Edge),
	}
}

// FromParsed builds a graph from expressions, including the edges of their
// subqueries.
func FromParsed(exprs []*lineage.ParsedExpression) *Graph {
	g := New()
	for _, expr := range exprs {
		for _, t := range expr.AllTables() {
			g.AddEdges(t)
		}
		for _, c := range expr.AllColumns() {
			g.AddEdges(c)
		}
	}
	return g
}

// FromResult builds a graph from the union edge sets of a result.
func FromResult(r *lineage.ParsedResult) *Graph {
	g := New()
	g.AddEdges(r.Edges()...)
	return g
}

// AddEdges adds lineage edges with their attributes.
func (g *Graph) AddEdges(edges ...lineage.LineageEdge) {
	for _, e := range edges {
		g.AddEdge(e.SourceName(), e.TargetName(), e.Attrs())
	}
}

// AddEdge adds an edge between two named nodes. Self-loops and exact
// duplicates are ignored.
func (g *Graph) AddEdge(source, target string, attrs map[string]string) {
	if source == target {
		return
	}
	key := edgeKey{source, target}
	for _, e := range g.edges[key] {
		if maps.Equal(e.Attrs, attrs) {
			return
		}
	}

	for _, id := range []string{source, target} {
		if _, ok := g.dag.GetNode(id); !ok {
			g.dag.AddNode(id, nil)
		}
	}
	// Both nodes exist and differ, so the only possible outcome is a
	// duplicate adjacency entry, which the dag ignores.
	_ = g.dag.AddEdge(source, target)

	g.edges[key] = append(g.edges[key], Edge{Source: source, Target: target, Attrs: maps.Clone(attrs)})
	g.count++
}

// HasNode reports whether the node exists.
func (g *Graph) HasNode(node string) bool {
	_, ok := g.dag.GetNode(node)
	return ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return g.dag.NodeCount()
}

// EdgeCount returns the number of edges, counting parallel edges.
func (g *Graph) EdgeCount() int {
	return g.count
}

// Nodes returns the node names, sorted.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, g.dag.NodeCount())
	for _, n := range g.dag.Nodes() {
		nodes = append(nodes, n.ID)
	}
	sort.Strings(nodes)
	return nodes
}

// Edges returns every edge sorted by source then target. Parallel edges
// keep their insertion order.
func (g *Graph) Edges() []Edge {
	keys := slices.Collect(maps.Keys(g.edges))
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].source != keys[j].source {
			return keys[i].source < keys[j].source
		}
		return keys[i].target < keys[j].target
	})

	out := make([]Edge, 0, g.count)
	for _, k := range keys {
		out = append(out, g.edges[k]...)
	}
	return out
}

func (g *Graph) hasEdgeOfType(source, target string, nodeType lineage.NodeType) bool {
	for _, e := range g.edges[edgeKey{source, target}] {
		if e.Attrs["node_type"] == string(nodeType) {
			return true
		}
	}
	return false
}

// IsRootNode reports whether node has no incoming edge of nodeType.
func (g *Graph) IsRootNode(node string, nodeType lineage.NodeType) bool {
	for _, p := range g.dag.GetParents(node) {
		if g.hasEdgeOfType(p, node, nodeType) {
			return false
		}
	}
	return true
}

// IsLeafNode reports whether node has no outgoing edge of nodeType.
func (g *Graph) IsLeafNode(node string, nodeType lineage.NodeType) bool {
	for _, c := range g.dag.GetChildren(node) {
		if g.hasEdgeOfType(node, c, nodeType) {
			return false
		}
	}
	return true
}

// NodeLineage returns every path from a root of nodeType to node, as
// per-hop steps. With maxSteps > 0 only the last maxSteps hops of each path
// are kept. Duplicate paths are returned once; an unknown node has no
// lineage.
func (g *Graph) NodeLineage(node string, nodeType lineage.NodeType, maxSteps int) [][]Step {
	if !g.HasNode(node) {
		return nil
	}

	var chains [][]Step
	for _, root := range g.dag.GetUpstreamNodes(node) {
		if root == node || !g.IsRootNode(root, nodeType) {
			continue
		}
		for _, path := range g.dag.AllSimplePaths(root, node) {
			if maxSteps > 0 && len(path) > maxSteps+1 {
				path = path[len(path)-maxSteps-1:]
			}
			chains = appendUnique(chains, g.pathSteps(path, nodeType))
		}
	}
	return chains
}

// NodeDescendants returns every path from node to a leaf of nodeType. With
// maxSteps > 0 only the first maxSteps hops of each path are kept.
func (g *Graph) NodeDescendants(node string, nodeType lineage.NodeType, maxSteps int) [][]Step {
	if !g.HasNode(node) {
		return nil
	}

	var chains [][]Step
	for _, leaf := range g.dag.GetDownstreamNodes(node) {
		if leaf == node || !g.IsLeafNode(leaf, nodeType) {
			continue
		}
		for _, path := range g.dag.AllSimplePaths(node, leaf) {
			if maxSteps > 0 && len(path) > maxSteps+1 {
				path = path[:maxSteps+1]
			}
			chains = appendUnique(chains, g.pathSteps(path, nodeType))
		}
	}
	return chains
}

// NeighbourOptions tunes NodeNeighbours.
type NeighbourOptions struct {
	// MaxSteps bounds each path; zero means unbounded.
	MaxSteps int
	// PhysicalOnly contracts hops through CTEs, subqueries, unnests and
	// queries so paths only join TABLE nodes.
	PhysicalOnly bool
}

// NodeNeighbours returns the lineage paths of node followed by its
// descendant paths.
func (g *Graph) NodeNeighbours(node string, nodeType lineage.NodeType, opts NeighbourOptions) [][]Step {
	chains := g.NodeLineage(node, nodeType, opts.MaxSteps)
	for _, c := range g.NodeDescendants(node, nodeType, opts.MaxSteps) {
		chains = appendUnique(chains, c)
	}
	if opts.PhysicalOnly {
		chains = Contract(chains)
	}
	return chains
}

// pathSteps converts a node path into steps. Each hop uses the first edge
// of nodeType, or the first edge when none matches.
func (g *Graph) pathSteps(path []string, nodeType lineage.NodeType) []Step {
	steps := make([]Step, 0, len(path))
	for i := 0; i+1 < len(path); i++ {
		u, v := path[i], path[i+1]
		edges := g.edges[edgeKey{u, v}]
		if len(edges) == 0 {
			continue
		}
		chosen := edges[0]
		for _, e := range edges {
			if e.Attrs["node_type"] == string(nodeType) {
				chosen = e
				break
			}
		}
		steps = append(steps, newStep(u, v, chosen.Attrs))
	}
	return steps
}

func appendUnique(chains [][]Step, chain []Step) [][]Step {
	if len(chain) == 0 {
		return chains
	}
	for _, c := range chains {
		if slices.Equal(c, chain) {
			return chains
		}
	}
	return append(chains, chain)
}

// PrettyString renders one line per edge, "source --> target [attr: value, ...]",
// sorted.
func (g *Graph) PrettyString() string {
	edges := g.Edges()
	lines := make([]string, 0, len(edges))
	for _, e := range edges {
		line := e.Source + " --> " + e.Target
		if attrs := formatAttrs(e.Attrs); attrs != "" {
			line += " [" + attrs + "]"
		}
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func formatAttrs(attrs map[string]string) string {
	var parts []string
	for _, k := range attrOrder {
		if v := attrs[k]; v != "" {
			parts = append(parts, k+": "+v)
		}
	}
	return strings.Join(parts, ", ")
}
