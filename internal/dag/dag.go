// Package dag provides directed graph operations used to order statements
// and to compute reachability over lineage edges. It supports cycle
// detection, Kahn ordering with a stable tie-break, and ancestor/descendant
// enumeration.
package dag

import (
	"fmt"
	"slices"
	"sort"
)

// Node represents a node in the graph.
type Node struct {
	// ID is the unique identifier (target name or lineage node name)
	ID string
	// Data holds arbitrary node data
	Data any
}

// Graph represents a directed graph. Nodes remember their insertion order,
// which is used to break ties in KahnSort.
type Graph struct {
	nodes   map[string]*Node
	order   []string
	edges   map[string][]string // parent -> children (dependents)
	parents map[string][]string // child -> parents (dependencies)
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(id string, data any) {
	if _, exists := g.nodes[id]; !exists {
		g.nodes[id] = &Node{ID: id, Data: data}
		g.order = append(g.order, id)
		g.edges[id] = []string{}
		g.parents[id] = []string{}
	} else {
		// Update data if node already exists
		g.nodes[id].Data = data
	}
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
func (g *Graph) AddEdge(parentID, childID string) error {
	// Ensure both nodes exist
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}

	// Check for self-loops
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}

	// Add edge (avoid duplicates)
	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}

	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// GetParents returns the parents (dependencies) of a node.
func (g *Graph) GetParents(id string) []string {
	return g.parents[id]
}

// GetChildren returns the children (dependents) of a node.
func (g *Graph) GetChildren(id string) []string {
	return g.edges[id]
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// HasCycle returns true if the graph contains a cycle, along with the cycle path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string) // Track the path for error reporting

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				path[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				// Found cycle, reconstruct path
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for _, id := range g.order {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// KahnSort orders nodes so that every parent precedes its children.
// Among nodes that are ready at the same time, the one inserted first wins.
// Nodes that never become ready because they sit on or behind a cycle are
// returned separately in insertion order.
func (g *Graph) KahnSort() (sorted []*Node, remaining []*Node) {
	inDegree := make(map[string]int, len(g.nodes))
	position := make(map[string]int, len(g.order))
	for i, id := range g.order {
		inDegree[id] = len(g.parents[id])
		position[id] = i
	}

	var ready []string
	for _, id := range g.order {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	done := make(map[string]bool, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		done[id] = true
		sorted = append(sorted, g.nodes[id])

		var released []string
		for _, childID := range g.edges[id] {
			inDegree[childID]--
			if inDegree[childID] == 0 {
				released = append(released, childID)
			}
		}
		if len(released) > 0 {
			ready = append(ready, released...)
			sort.SliceStable(ready, func(i, j int) bool {
				return position[ready[i]] < position[ready[j]]
			})
		}
	}

	for _, id := range g.order {
		if !done[id] {
			remaining = append(remaining, g.nodes[id])
		}
	}
	return sorted, remaining
}

// GetDownstreamNodes returns all nodes reachable from the given node,
// excluding the node itself unless it sits on a cycle.
func (g *Graph) GetDownstreamNodes(id string) []string {
	return g.reach(id, g.edges)
}

// GetUpstreamNodes returns all nodes upstream of the given node (its dependencies and their dependencies).
func (g *Graph) GetUpstreamNodes(id string) []string {
	return g.reach(id, g.parents)
}

func (g *Graph) reach(id string, next map[string][]string) []string {
	seen := make(map[string]bool)

	var mark func(nodeID string)
	mark = func(nodeID string) {
		for _, n := range next[nodeID] {
			if !seen[n] {
				seen[n] = true
				mark(n)
			}
		}
	}

	mark(id)

	result := make([]string, 0, len(seen))
	for nodeID := range seen {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

// AllSimplePaths enumerates every path from src to dst that visits no node
// twice. Paths are returned in depth-first order following edge insertion
// order; src == dst yields no paths.
func (g *Graph) AllSimplePaths(src, dst string) [][]string {
	if _, ok := g.nodes[src]; !ok {
		return nil
	}
	if _, ok := g.nodes[dst]; !ok || src == dst {
		return nil
	}

	var paths [][]string
	onPath := map[string]bool{src: true}
	path := []string{src}

	var walk func(id string)
	walk = func(id string) {
		for _, childID := range g.edges[id] {
			if onPath[childID] {
				continue
			}
			path = append(path, childID)
			if childID == dst {
				paths = append(paths, slices.Clone(path))
			} else {
				onPath[childID] = true
				walk(childID)
				onPath[childID] = false
			}
			path = path[:len(path)-1]
		}
	}

	walk(src)
	return paths
}
