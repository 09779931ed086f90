package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warp/inventory-ledger/report"
	"github.com/warp/inventory-ledger/scenario"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Scenario string
	Date     string
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a demonstration scenario",
		Long: fmt.Sprintf(`Run a fixed sequence of ledger operations and print the report:
add stock, sell, list the inventory, archive the day and show the archive.

An insufficient-stock sale is reported and the sequence continues.

Scenarios: %s

Example:
  inventory demo
  inventory demo --scenario widget --db /tmp/demo.db`, strings.Join(scenario.IDs(), ", ")),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Scenario, "scenario", scenario.DefaultScenarioID, "scenario to run")
	cmd.Flags().StringVar(&opts.Date, "date", "", "archive date YYYY-MM-DD (default today)")

	return cmd
}

func runDemo(opts *DemoOptions, cmd *cobra.Command) error {
	id := opts.Scenario
	if id == "" {
		id = scenario.DefaultScenarioID
	}
	sc, ok := scenario.Get(id)
	if !ok {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("unknown scenario %q: must be one of %v", id, scenario.IDs()))
	}

	day, err := parseDateFlag(opts.RootOptions, opts.Date)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --date", err)
	}

	ctx := cmd.Context()
	out := opts.output(cmd)

	ledger, store, err := opts.openLedger(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var obs scenario.Observer
	if out.Format == "text" {
		obs = out.Printer()
	}

	opts.logger().Debug(opts.logger().WithField(ctx, "scenario", sc.ID), "running scenario")
	out.VerboseLog("running scenario %s against %s", sc.ID, store.Path())
	result, err := scenario.Run(ctx, ledger, sc, day, obs)
	if err != nil {
		return out.LedgerError(err)
	}

	if out.Format == "json" {
		return out.Success(result, func(*report.Printer) {})
	}
	return nil
}
