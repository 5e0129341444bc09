package commands

import (
	"strconv"

	"github.com/leapstack-labs/sqllineage/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "graph [paths...]",
		Short: "Print the lineage graph",
		Long: `Build the lineage graph of the inputs and print every edge with its
attributes, sorted by source and target.

With --run the graph is loaded from a saved run instead of parsing SQL.`,
		Example: `  # Print the graph of a directory
  sqllineage graph models/

  # Print the graph of the last saved run as JSON
  sqllineage graph --run latest -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, args, runID)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", `Load a saved run by ID ("latest" for the most recent)`)

	return cmd
}

func runGraph(cmd *cobra.Command, paths []string, runID string) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	g, err := cc.LoadGraph(cmd.Context(), paths, runID)
	if err != nil {
		return err
	}

	if handled, err := r.Data(g.Edges()); handled {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeText:
		r.Header(1, "Lineage Graph")
		r.Muted(strconv.Itoa(g.NodeCount()) + " nodes, " + strconv.Itoa(g.EdgeCount()) + " edges")
		r.Println()
		r.Println(g.PrettyString())
	default:
		r.Header(1, "Lineage Graph")
		r.Println()
		r.Println(output.FormatKeyValue("Nodes", strconv.Itoa(g.NodeCount())))
		r.Println(output.FormatKeyValue("Edges", strconv.Itoa(g.EdgeCount())))
		r.Println()
		r.Println("```")
		r.Println(g.PrettyString())
		r.Println("```")
	}
	return nil
}
