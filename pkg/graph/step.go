package graph

import (
	"cmp"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqllineage/pkg/lineage"
)

// Step is one hop of a lineage path with the attributes of the edge it
// follows.
type Step struct {
	Source     string `json:"source" yaml:"source"`
	Target     string `json:"target" yaml:"target"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Action     string `json:"action,omitempty" yaml:"action,omitempty"`
	TargetType string `json:"target_type,omitempty" yaml:"target_type,omitempty"`
	SourceType string `json:"source_type,omitempty" yaml:"source_type,omitempty"`
	NodeType   string `json:"node_type,omitempty" yaml:"node_type,omitempty"`
}

func newStep(source, target string, attrs map[string]string) Step {
	return Step{
		Source:     source,
		Target:     target,
		Type:       attrs["type"],
		Action:     attrs["action"],
		TargetType: attrs["target_type"],
		SourceType: attrs["source_type"],
		NodeType:   attrs["node_type"],
	}
}

func (s Step) attrs() map[string]string {
	return map[string]string{
		"type":        s.Type,
		"action":      s.Action,
		"target_type": s.TargetType,
		"source_type": s.SourceType,
		"node_type":   s.NodeType,
	}
}

// String renders the step as {source: a, target: b, attr: value, ...}.
func (s Step) String() string {
	out := "{source: " + s.Source + ", target: " + s.Target
	if attrs := formatAttrs(s.attrs()); attrs != "" {
		out += ", " + attrs
	}
	return out + "}"
}

// physical reports whether a kind names a persisted table. Edges without a
// kind are treated as physical.
func physical(kind string) bool {
	return kind == "" || kind == string(lineage.KindTable)
}

// Contract rewrites paths so every hop joins two TABLE nodes. An endpoint of
// another kind is replaced by the nearest TABLE nodes reached by following
// the paths' own hops in the same direction, and every combination of
// replacements becomes its own step. An intermediate node with nothing
// further to follow stands for itself. Steps that collapse to a self-loop
// are dropped, as are paths left empty. Contracted paths are step sets:
// their steps are sorted, and paths with the same steps are kept once.
func Contract(chains [][]Step) [][]Step {
	upstream := make(map[string][]string)
	downstream := make(map[string][]string)
	kinds := make(map[string]string)
	for _, chain := range chains {
		for _, s := range chain {
			upstream[s.Target] = appendNew(upstream[s.Target], s.Source)
			downstream[s.Source] = appendNew(downstream[s.Source], s.Target)
			if _, ok := kinds[s.Source]; !ok {
				kinds[s.Source] = s.SourceType
			}
			if _, ok := kinds[s.Target]; !ok {
				kinds[s.Target] = s.TargetType
			}
		}
	}

	var out [][]Step
	for _, chain := range chains {
		var contracted []Step
		for _, s := range chain {
			if physical(s.SourceType) && physical(s.TargetType) {
				contracted = appendNewStep(contracted, s)
				continue
			}

			sources := []string{s.Source}
			if !physical(s.SourceType) {
				sources = nearestPhysical(s.Source, upstream, kinds, map[string]bool{})
			}
			targets := []string{s.Target}
			if !physical(s.TargetType) {
				targets = nearestPhysical(s.Target, downstream, kinds, map[string]bool{})
			}

			for _, src := range sources {
				for _, tgt := range targets {
					if src == tgt {
						continue
					}
					step := s
					step.Source, step.Target = src, tgt
					step.SourceType = contractedKind(src, kinds)
					step.TargetType = contractedKind(tgt, kinds)
					if step.Type != "" {
						step.Type = step.TargetType
					}
					contracted = appendNewStep(contracted, step)
				}
			}
		}
		slices.SortFunc(contracted, compareSteps)
		out = appendUnique(out, contracted)
	}
	return out
}

// nearestPhysical follows next from node until it reaches TABLE nodes.
func nearestPhysical(node string, next map[string][]string, kinds map[string]string, visiting map[string]bool) []string {
	if visiting[node] || len(next[node]) == 0 {
		return []string{node}
	}
	visiting[node] = true
	defer delete(visiting, node)

	var found []string
	for _, n := range next[node] {
		if physical(kinds[n]) {
			found = appendNew(found, n)
			continue
		}
		for _, p := range nearestPhysical(n, next, kinds, visiting) {
			found = appendNew(found, p)
		}
	}
	return found
}

func contractedKind(node string, kinds map[string]string) string {
	if physical(kinds[node]) {
		return string(lineage.KindTable)
	}
	return kinds[node]
}

func compareSteps(a, b Step) int {
	return cmp.Or(
		cmp.Compare(a.Source, b.Source),
		cmp.Compare(a.Target, b.Target),
		cmp.Compare(a.NodeType, b.NodeType),
		cmp.Compare(a.Action, b.Action),
	)
}

func appendNew(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func appendNewStep(steps []Step, s Step) []Step {
	for _, x := range steps {
		if x == s {
			return steps
		}
	}
	return append(steps, s)
}

// FormatNeighbourhood renders paths under a "Neighbourhood:" header, one
// indented line per step.
func FormatNeighbourhood(chains [][]Step) string {
	var sb strings.Builder
	sb.WriteString("Neighbourhood:\n")
	for _, chain := range chains {
		for _, s := range chain {
			sb.WriteString("  ↳ " + s.String() + "\n")
		}
	}
	return sb.String()
}
