package dag

import (
	"reflect"
	"testing"
)

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := NewGraph()

	g.AddNode("a", "node A")
	g.AddNode("b", "node B")
	g.AddNode("c", "node C")

	if g.NodeCount() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.NodeCount())
	}

	// b depends on a
	if err := g.AddEdge("a", "b"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}
	// c depends on b
	if err := g.AddEdge("b", "c"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}

	if got := g.GetChildren("a"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("expected children [b], got %v", got)
	}
}

func TestGraph_AddNode_UpdatesData(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", 1)
	g.AddNode("a", 2)

	node, ok := g.GetNode("a")
	if !ok {
		t.Fatal("expected node a")
	}
	if node.Data != 2 {
		t.Errorf("expected data 2, got %v", node.Data)
	}
	if g.NodeCount() != 1 {
		t.Errorf("expected 1 node, got %d", g.NodeCount())
	}
}

func TestGraph_AddEdge_InvalidNodes(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)

	if err := g.AddEdge("a", "nonexistent"); err == nil {
		t.Error("expected error for nonexistent child node")
	}
	if err := g.AddEdge("nonexistent", "a"); err == nil {
		t.Error("expected error for nonexistent parent node")
	}
}

func TestGraph_AddEdge_SelfLoop(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)

	if err := g.AddEdge("a", "a"); err == nil {
		t.Error("expected error for self-loop")
	}
}

func TestGraph_DuplicateEdges(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)
	g.AddNode("b", nil)

	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "b")

	if got := g.GetChildren("a"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("expected 1 edge after duplicate add, got children %v", got)
	}
	if got := g.GetParents("b"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("expected parents [a], got %v", got)
	}
}

func TestGraph_HasCycle(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)
	g.AddNode("b", nil)
	g.AddNode("c", nil)
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")

	if hasCycle, _ := g.HasCycle(); hasCycle {
		t.Error("expected no cycle")
	}

	_ = g.AddEdge("c", "a")
	hasCycle, path := g.HasCycle()
	if !hasCycle {
		t.Fatal("expected cycle")
	}
	if len(path) < 3 {
		t.Errorf("expected cycle path with at least 3 entries, got %v", path)
	}
}

func TestGraph_KahnSort_InsertionOrderTieBreak(t *testing.T) {
	g := NewGraph()
	// Inserted out of dependency order on purpose.
	g.AddNode("report", nil)
	g.AddNode("staging", nil)
	g.AddNode("other", nil)
	g.AddNode("raw", nil)
	_ = g.AddEdge("raw", "staging")
	_ = g.AddEdge("staging", "report")

	sorted, remaining := g.KahnSort()
	if len(remaining) != 0 {
		t.Errorf("expected no remaining nodes, got %v", ids(remaining))
	}
	want := []string{"other", "raw", "staging", "report"}
	if got := ids(sorted); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGraph_KahnSort_Diamond(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(id, nil)
	}
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "d")
	_ = g.AddEdge("c", "d")

	sorted, _ := g.KahnSort()
	want := []string{"a", "b", "c", "d"}
	if got := ids(sorted); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGraph_KahnSort_Cycle(t *testing.T) {
	g := NewGraph()
	g.AddNode("x", nil)
	g.AddNode("a", nil)
	g.AddNode("b", nil)
	g.AddNode("c", nil)
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "a")
	_ = g.AddEdge("b", "c")

	sorted, remaining := g.KahnSort()
	if got := ids(sorted); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("expected [x] sorted, got %v", got)
	}
	if got := ids(remaining); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("expected [a b c] remaining, got %v", got)
	}
}

func TestGraph_UpstreamAndDownstream(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(id, nil)
	}
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("d", "c")

	if got := g.GetUpstreamNodes("c"); !reflect.DeepEqual(got, []string{"a", "b", "d"}) {
		t.Errorf("unexpected upstream: %v", got)
	}
	if got := g.GetDownstreamNodes("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("unexpected downstream: %v", got)
	}
	if got := g.GetDownstreamNodes("missing"); len(got) != 0 {
		t.Errorf("expected no downstream for missing node, got %v", got)
	}
}

func TestGraph_AllSimplePaths(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(id, nil)
	}
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "d")
	_ = g.AddEdge("c", "d")
	_ = g.AddEdge("d", "a")

	paths := g.AllSimplePaths("a", "d")
	want := [][]string{{"a", "b", "d"}, {"a", "c", "d"}}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("expected %v, got %v", want, paths)
	}

	if paths := g.AllSimplePaths("a", "a"); len(paths) != 0 {
		t.Errorf("expected no paths to self, got %v", paths)
	}
	if paths := g.AllSimplePaths("a", "zzz"); len(paths) != 0 {
		t.Errorf("expected no paths to missing node, got %v", paths)
	}
}
