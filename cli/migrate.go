package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/inventory-ledger/report"
	"github.com/warp/inventory-ledger/store/sqlite"
)

var migrateCommands = []string{sqlite.MigrateUp, sqlite.MigrateDown, sqlite.MigrateStatus, sqlite.MigrateVersion}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate up|down|status|version",
		Short: "Manage the database schema",
		Long: `Run goose migrations against the database. Other commands apply
pending migrations automatically; migrate is for inspection and rollback.

Example:
  inventory migrate status
  inventory migrate down --db ./inventory.db`,
		Args:          cobra.ExactArgs(1),
		ValidArgs:     migrateCommands,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd, args[0])
		},
	}
}

func runMigrate(opts *RootOptions, cmd *cobra.Command, command string) error {
	if !contains(migrateCommands, command) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("unknown migration command %q: must be one of %v", command, migrateCommands))
	}

	out := opts.output(cmd)
	store, err := sqlite.New(opts.Database, sqlite.WithoutAutoMigrate())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer store.Close()

	rep, err := store.Migrate(cmd.Context(), command)
	if err != nil {
		return WrapExitError(ExitCommandError, "migration failed", err)
	}
	opts.logger().Info(opts.logger().WithFields(cmd.Context(), map[string]any{
		"migrate": command,
		"version": rep.Version,
	}), "migration complete")

	return out.Success(rep, func(p *report.Printer) {
		w := out.Writer
		for _, path := range rep.Applied {
			fmt.Fprintf(w, "%s: %s\n", command, path)
		}
		for _, m := range rep.Migrations {
			state := "pending"
			if m.Applied {
				state = "applied " + m.AppliedAt.UTC().Format(report.TimestampLayout)
			}
			fmt.Fprintf(w, "%05d %s %s\n", m.Version, m.Source, state)
		}
		fmt.Fprintf(w, "schema version: %d\n", rep.Version)
	})
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
