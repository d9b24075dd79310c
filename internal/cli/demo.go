package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wurm"
	"github.com/roach88/wurm/internal/demo"
)

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the getting-started scenario",
		Long: `Run the getting-started scenario against a database.

The demo tables (NamedPoint, Team, Player) are emptied, two points are
inserted and listed, the point with x = 10 is looked up, a team with two
players is created and the point is moved.

Exit codes:
  0 - Scenario completed
  1 - A wurm operation failed
  2 - Usage error (bad flags or config, database cannot be opened)

Examples:
  wurm demo --db ./demo.db
  wurm demo --config ./wurm.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(rootOpts, cmd)
		},
	}

	return cmd
}

func runDemo(opts *RootOptions, cmd *cobra.Command) error {
	p := opts.printer(cmd)

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, err := wurm.Bind(cmd.Context(), st)
	if err != nil {
		return p.fail(fmt.Errorf("bind store: %w", err))
	}

	report, err := demo.Run(ctx)
	if err != nil {
		return p.fail(fmt.Errorf("demo: %w", err))
	}

	if p.json {
		return p.result(report)
	}
	return p.result(formatReport(report))
}

func formatReport(r *demo.Report) string {
	var b strings.Builder
	b.WriteString("Points:\n")
	for _, p := range r.Points {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	fmt.Fprintf(&b, "Found x = 10: %s\n", r.Found)
	fmt.Fprintf(&b, "Team %s: %s\n", r.Team, strings.Join(r.Players, ", "))
	fmt.Fprintf(&b, "Points with x > 10 after move: %d", r.Moved)
	return b.String()
}
