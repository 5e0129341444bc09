package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// plannedStatement is the serialized form of one planned statement.
type plannedStatement struct {
	Step    int      `json:"step" yaml:"step"`
	Index   int      `json:"index" yaml:"index"`
	Target  string   `json:"target" yaml:"target"`
	Sources []string `json:"sources" yaml:"sources"`
}

// orderDocument is the serialized form of a plan.
type orderDocument struct {
	Statements []plannedStatement `json:"statements" yaml:"statements"`
	Cycle      []string           `json:"cycle,omitempty" yaml:"cycle,omitempty"`
	CyclePath  []string           `json:"cycle_path,omitempty" yaml:"cycle_path,omitempty"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "order [paths...]",
		Short: "Show the order statements are resolved in",
		Long: `Print the order in which statements are resolved. A statement that reads a
table is resolved after the statement that writes it, whatever the input order.

When statements depend on each other in a cycle, the cycle is reported and
the remaining statements keep their input order.`,
		Example: `  # Show the plan for a directory
  sqllineage order models/`,
		RunE: runOrder,
	}
}

func runOrder(cmd *cobra.Command, paths []string) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	ext, err := cc.NewExtractor()
	if err != nil {
		return err
	}
	scripts, err := cc.Scripts(cmd.Context(), paths)
	if err != nil {
		return err
	}

	plan, cycle := ext.Plan(scripts...)

	doc := orderDocument{Statements: make([]plannedStatement, 0, len(plan))}
	for i, d := range plan {
		sources := d.Sources
		if sources == nil {
			sources = []string{}
		}
		doc.Statements = append(doc.Statements, plannedStatement{
			Step: i + 1, Index: d.Index, Target: d.Target, Sources: sources,
		})
	}
	if cycle != nil {
		doc.Cycle = cycle.Targets
		doc.CyclePath = cycle.Path
		r.Warning(cycle.Error())
	}

	if handled, err := r.Data(doc); handled {
		return err
	}

	r.Header(1, "Resolution Order")
	r.Println()
	rows := make([][]string, 0, len(doc.Statements))
	for _, s := range doc.Statements {
		rows = append(rows, []string{
			strconv.Itoa(s.Step), strconv.Itoa(s.Index), s.Target, strings.Join(s.Sources, ", "),
		})
	}
	r.Table([]string{"Step", "Statement", "Target", "Sources"}, rows)
	return nil
}
