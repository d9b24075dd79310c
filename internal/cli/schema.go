package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wurm"
	"github.com/roach88/wurm/internal/demo"
)

// TableDDL holds the statements creating one table.
type TableDDL struct {
	Table      string   `json:"table"`
	Statements []string `json:"statements"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the DDL of the demo record types",
		Long: `Print the CREATE TABLE and CREATE UNIQUE INDEX statements generated
for the record types used by the demo command. No database is opened.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, cmd)
		},
	}

	return cmd
}

func runSchema(opts *RootOptions, cmd *cobra.Command) error {
	p := opts.printer(cmd)

	var tables []TableDDL
	for _, gen := range []struct {
		table string
		ddl   func() ([]string, error)
	}{
		{"NamedPoint", wurm.DDL[demo.NamedPoint]},
		{"Team", wurm.DDL[demo.Team]},
		{"Player", wurm.DDL[demo.Player]},
	} {
		stmts, err := gen.ddl()
		if err != nil {
			return p.fail(fmt.Errorf("schema of %s: %w", gen.table, err))
		}
		p.debugf("Generated %d statement(s) for %s", len(stmts), gen.table)
		tables = append(tables, TableDDL{Table: gen.table, Statements: stmts})
	}

	if p.json {
		return p.result(tables)
	}
	return p.result(formatSchema(tables))
}

func formatSchema(tables []TableDDL) string {
	blocks := make([]string, 0, len(tables))
	for _, t := range tables {
		var b strings.Builder
		b.WriteString("-- " + t.Table + "\n")
		for _, stmt := range t.Statements {
			b.WriteString(stmt + ";\n")
		}
		blocks = append(blocks, b.String())
	}
	return strings.TrimSuffix(strings.Join(blocks, "\n"), "\n")
}
