package commands

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var deleteID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved lineage runs",
		Long: `List the runs saved with "extract --save" or "watch --save", newest first.

A saved run can be queried without re-parsing SQL by passing its ID to the
--run flag of graph, lineage, descendants or neighbours.`,
		Example: `  # List saved runs
  sqllineage history

  # Delete a run and its edges
  sqllineage history --delete 3f2b...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, deleteID)
		},
	}

	cmd.Flags().StringVar(&deleteID, "delete", "", "Delete the run with this ID")

	return cmd
}

func runHistory(cmd *cobra.Command, deleteID string) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	store, cleanup, err := cc.OpenStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if deleteID != "" {
		if err := store.DeleteRun(cmd.Context(), deleteID); err != nil {
			return err
		}
		cc.status("deleted run %s", deleteID)
		return nil
	}

	runs, err := store.ListRuns(cmd.Context())
	if err != nil {
		return err
	}

	if handled, err := r.Data(runs); handled {
		return err
	}

	r.Header(1, "Saved Runs")
	r.Println()
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.CreatedAt.Local().Format(time.DateTime),
			run.Source,
			strconv.Itoa(run.Expressions),
			strconv.Itoa(run.TableEdges),
			strconv.Itoa(run.ColumnEdges),
		})
	}
	r.Table([]string{"ID", "Created", "Source", "Statements", "Table Edges", "Column Edges"}, rows)
	return nil
}
