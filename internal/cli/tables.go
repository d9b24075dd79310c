package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wurm/internal/store"
)

// TablesResult holds the tables command result.
type TablesResult struct {
	Path   string            `json:"path"`
	Tables []store.TableInfo `json:"tables"`
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables with row counts",
		Long: `List the tables of a database with their row counts.

Examples:
  wurm tables --db ./demo.db
  wurm tables --db ./demo.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(rootOpts, cmd)
		},
	}

	return cmd
}

func runTables(opts *RootOptions, cmd *cobra.Command) error {
	p := opts.printer(cmd)

	st, err := opts.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	tables, err := st.Tables(cmd.Context())
	if err != nil {
		return p.fail(fmt.Errorf("list tables: %w", err))
	}

	switch {
	case p.json:
		return p.result(TablesResult{Path: st.Path(), Tables: tables})
	case len(tables) == 0:
		return p.result("No tables found in database.")
	}
	return p.result(formatTables(tables))
}

func formatTables(tables []store.TableInfo) string {
	width := len("TABLE")
	for _, t := range tables {
		width = max(width, len(t.Name))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-*s  %s", width, "TABLE", "ROWS")
	for _, t := range tables {
		fmt.Fprintf(&b, "\n%-*s  %d", width, t.Name, t.Rows)
	}
	return b.String()
}
