package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/sqllineage/internal/cli/output"
	"github.com/leapstack-labs/sqllineage/pkg/graph"
	"github.com/leapstack-labs/sqllineage/pkg/lineage"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// queryKind selects which paths a query command returns.
type queryKind string

const (
	queryLineage     queryKind = "lineage"
	queryDescendants queryKind = "descendants"
	queryNeighbours  queryKind = "neighbours"
)

// QueryOptions holds options shared by the graph query commands.
type QueryOptions struct {
	NodeType string
	MaxSteps int
	Physical bool
	Plain    bool
	RunID    string
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	return newQueryCommand(queryLineage,
		"Show the upstream lineage of a table or column",
		`Print every path from a root of the graph to the node. A root is a node
with no incoming edge of the selected type.`,
		`  # Where does report.total come from?
  sqllineage lineage report.total models/ --type column

  # Only the last two hops of each path
  sqllineage lineage report models/ --max-steps 2`)
}

// NewDescendantsCommand creates the descendants command.
func NewDescendantsCommand() *cobra.Command {
	return newQueryCommand(queryDescendants,
		"Show everything downstream of a table or column",
		`Print every path from the node to a leaf of the graph. A leaf is a node
with no outgoing edge of the selected type.`,
		`  # What reads raw.orders?
  sqllineage descendants raw.orders models/`)
}

// NewNeighboursCommand creates the neighbours command.
func NewNeighboursCommand() *cobra.Command {
	return newQueryCommand(queryNeighbours,
		"Show the lineage and descendants of a table or column",
		`Print the upstream paths of the node followed by its downstream paths.

With --physical, hops through CTEs, subqueries, unnests and queries are
contracted so every step joins two persisted tables.`,
		`  # Table-to-table neighbourhood of report
  sqllineage neighbours report models/ --physical

  # Neighbourhood of a saved run in the plain listing format
  sqllineage neighbours report.total --type column --run latest --plain`)
}

func newQueryCommand(kind queryKind, short, long, example string) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:     string(kind) + " <node> [paths...]",
		Short:   short,
		Long:    long,
		Example: example,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, kind, args[0], args[1:], opts)
		},
	}

	cmd.Flags().StringVar(&opts.NodeType, "type", "table", "Node type to follow (table|column)")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "Max hops per path (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Physical, "physical", false, "Contract non-table hops so paths only join tables")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Print the neighbourhood listing instead of a table")
	cmd.Flags().StringVar(&opts.RunID, "run", "", `Load a saved run by ID ("latest" for the most recent)`)

	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "column"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func parseNodeType(s string) (lineage.NodeType, error) {
	switch strings.ToUpper(s) {
	case string(lineage.NodeTable):
		return lineage.NodeTable, nil
	case string(lineage.NodeColumn):
		return lineage.NodeColumn, nil
	default:
		return "", fmt.Errorf("unknown node type %q (available: table, column)", s)
	}
}

// queryGraph runs a query of the given kind against g.
func queryGraph(g *graph.Graph, kind queryKind, node string, nodeType lineage.NodeType, maxSteps int, physical bool) [][]graph.Step {
	var chains [][]graph.Step
	switch kind {
	case queryLineage:
		chains = g.NodeLineage(node, nodeType, maxSteps)
	case queryDescendants:
		chains = g.NodeDescendants(node, nodeType, maxSteps)
	case queryNeighbours:
		return g.NodeNeighbours(node, nodeType, graph.NeighbourOptions{MaxSteps: maxSteps, PhysicalOnly: physical})
	}
	if physical {
		chains = graph.Contract(chains)
	}
	return chains
}

func runQuery(cmd *cobra.Command, kind queryKind, node string, paths []string, opts *QueryOptions) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	nodeType, err := parseNodeType(opts.NodeType)
	if err != nil {
		return err
	}
	maxSteps := opts.MaxSteps
	if !cmd.Flags().Changed("max-steps") {
		maxSteps = cc.Cfg.MaxSteps
	}

	g, err := cc.LoadGraph(cmd.Context(), paths, opts.RunID)
	if err != nil {
		return err
	}
	chains := [][]graph.Step{}
	if g.HasNode(node) {
		chains = append(chains, queryGraph(g, kind, node, nodeType, maxSteps, opts.Physical)...)
	} else {
		cc.Logger.Warn("node not found", "node", node)
		r.Warning("node not found: " + node)
	}
	cc.Logger.Debug("query", "kind", kind, "node", node, "type", nodeType, "paths", len(chains))

	if handled, err := r.Data(chains); handled {
		return err
	}

	if opts.Plain {
		r.Printf("%s", graph.FormatNeighbourhood(chains))
		return nil
	}

	r.Header(1, cases.Title(language.English).String(string(kind))+": "+node)
	r.Println()
	r.Table([]string{"Path", "Hop", "Source", "Target", "Action", "Source Type", "Target Type"}, stepRows(r, chains))
	return nil
}

func stepRows(r *output.Renderer, chains [][]graph.Step) [][]string {
	var rows [][]string
	for i, chain := range chains {
		for j, s := range chain {
			action := s.Action
			if r.EffectiveMode() == output.ModeText {
				action = r.Styles().Action(action)
			}
			rows = append(rows, []string{
				strconv.Itoa(i + 1), strconv.Itoa(j + 1), s.Source, s.Target, action, s.SourceType, s.TargetType,
			})
		}
	}
	return rows
}
