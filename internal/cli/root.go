package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/wurm/internal/config"
	"github.com/roach88/wurm/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string // overrides database.path from the config

	// Getenv resolves ${VAR} references in the config file (for testing).
	// If nil, defaults to os.Getenv.
	Getenv func(string) string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the wurm CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "wurm",
		Short: "wurm - Go structs in SQLite tables",
		Long:  "Inspect and exercise SQLite databases holding wurm record types.",

		// main prints errors no printer has reported.
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewDemoCommand(opts))
	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// printer returns the printer for cmd's stdout and stderr.
func (o *RootOptions) printer(cmd *cobra.Command) *printer {
	return &printer{
		json:    o.Format == "json",
		verbose: o.Verbose,
		out:     cmd.OutOrStdout(),
		diag:    cmd.ErrOrStderr(),
	}
}

// loadConfig reads --config, or returns the defaults when it is not set,
// and applies the flags that override it.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg := config.Defaults()
	if o.ConfigPath != "" {
		getenv := o.Getenv
		if getenv == nil {
			getenv = os.Getenv
		}
		var err error
		if cfg, err = config.Load(o.ConfigPath, getenv); err != nil {
			return nil, err
		}
	}
	if o.Database != "" {
		cfg.Database.Path = o.Database
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the database named by the config and flags. Store logs
// go to the command's stderr.
func (o *RootOptions) openStore(cmd *cobra.Command) (*store.Store, error) {
	p := o.printer(cmd)

	cfg, err := o.loadConfig()
	if err != nil {
		return nil, p.usage(CodeConfig, fmt.Errorf("load config: %w", err))
	}

	cfg.Database.Logger = cfg.Logger(cmd.ErrOrStderr())
	p.debugf("Opening %s database %s", cfg.Database.Driver, cfg.Database.Path)
	st, err := store.OpenOptions(cfg.Database)
	if err != nil {
		return nil, p.usage(CodeOpen, fmt.Errorf("open database: %w", err))
	}
	return st, nil
}
