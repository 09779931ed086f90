/*
Package cli implements the inventory command-line interface.

COMMANDS:
  inventory [demo]            Run a demonstration scenario (default)
  inventory add NAME QTY PRICE
  inventory sell NAME QTY PRICE
  inventory list              Current stock
  inventory logs              Log rows not archived yet
  inventory archive           Archive and clear the logs
  inventory archived [DATE]   Archived rows for DATE, or the archive dates
  inventory migrate CMD       Schema migrations (up|down|status|version)
  inventory serve             HTTP API

OUTPUT:
  Text reports go to stdout; --format json wraps results in CLIResponse.
  Logs go to stderr.

EXIT CODES:
  0 success, 1 domain failure, 2 command error (see output.go)
*/
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/warp/inventory-ledger/config"
	"github.com/warp/inventory-ledger/inventory"
	"github.com/warp/inventory-ledger/logger"
	"github.com/warp/inventory-ledger/store/sqlite"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string

	Config *config.Config
	Log    *logger.Logger

	// Now overrides the ledger clock (for testing). Nil uses time.Now.
	Now func() time.Time

	runID string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. Running it without a
// subcommand runs the default demonstration scenario.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	return newRootCommand(&RootOptions{Config: cfg})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	if opts.Config == nil {
		opts.Config = &config.Config{}
	}
	cfg := opts.Config
	demo := &DemoOptions{RootOptions: opts}

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Inventory ledger",
		Long: `Records stock additions and sales against a SQLite ledger and
archives each day's activity into permanent, date-stamped tables.

Without a subcommand, runs the demonstration scenario.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(demo, cmd)
		},
	}

	defaultDB := cfg.DB.Path
	if defaultDB == "" {
		defaultDB = "inventory.db"
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", defaultDB, "path to SQLite database")
	cmd.Flags().StringVar(&demo.Scenario, "scenario", "", "scenario to run (see demo --help)")
	cmd.Flags().StringVar(&demo.Date, "date", "", "archive date YYYY-MM-DD (default today)")

	// Add subcommands
	cmd.AddCommand(NewDemoCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewSellCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewLogsCommand(opts))
	cmd.AddCommand(NewArchiveCommand(opts))
	cmd.AddCommand(NewArchivedCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// setup validates global flags and builds the logger and run context.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	level := logger.ParseLevel(o.Config.App.LogLevel)
	if o.Config.App.LogLevel == "" {
		level = logger.ParseLevel("warn")
	}
	if o.Verbose {
		level = logger.ParseLevel("debug")
	}
	format := o.Config.App.LogFormat
	if format == "" && o.Config.App.IsDev() {
		format = "console"
	}
	o.Log = logger.New(logger.Options{
		ServiceName: "inventory",
		Level:       level,
		WarnStack:   o.Config.App.LogWarnStack,
		Format:      format,
		Output:      cmd.ErrOrStderr(),
	})

	o.runID = uuid.NewString()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = o.Log.WithRunID(ctx, o.runID)
	ctx = o.Log.WithField(ctx, "command", cmd.Name())
	cmd.SetContext(ctx)

	o.Log.Debug(ctx, "command starting")
	return nil
}

func (o *RootOptions) logger() *logger.Logger {
	if o.Log == nil {
		return logger.Nop()
	}
	return o.Log
}

// output builds the formatter for one command invocation.
func (o *RootOptions) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
		Currency:  o.Config.Report.CurrencySymbol,
	}
}

// openLedger opens the store and wraps it in a ledger. The caller closes the store.
func (o *RootOptions) openLedger(ctx context.Context, ledgerOpts ...inventory.Option) (*inventory.DefaultLedger, *sqlite.Store, error) {
	storeOpts := []sqlite.Option{}
	if o.Config.DB.BusyTimeout > 0 {
		storeOpts = append(storeOpts, sqlite.WithBusyTimeout(o.Config.DB.BusyTimeout))
	}

	store, err := sqlite.New(o.Database, storeOpts...)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	o.logger().Debug(o.logger().WithField(ctx, "db", store.Path()), "database opened")

	if o.Now != nil {
		ledgerOpts = append(ledgerOpts, inventory.WithClock(o.Now))
	}
	return inventory.NewLedger(store, ledgerOpts...), store, nil
}

// today returns the archive date for commands that default to the current day.
func (o *RootOptions) today() time.Time {
	if o.Now != nil {
		return inventory.DateOf(o.Now())
	}
	return inventory.Today()
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
