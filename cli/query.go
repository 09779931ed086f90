package cli

import (
	"github.com/spf13/cobra"
	"github.com/warp/inventory-ledger/report"
)

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "Show current inventory",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.output(cmd)
			ledger, store, err := opts.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := ledger.ListInventory(cmd.Context())
			if err != nil {
				return out.LedgerError(err)
			}
			return out.Success(items, func(p *report.Printer) {
				p.Inventory(items)
			})
		},
	}
}

// NewLogsCommand creates the logs command.
func NewLogsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logs",
		Short:         "Show additions and sales not archived yet",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.output(cmd)
			ledger, store, err := opts.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			logs, err := ledger.PendingLogs(cmd.Context())
			if err != nil {
				return out.LedgerError(err)
			}
			return out.Success(logs, func(p *report.Printer) {
				p.PendingLogs(logs)
			})
		},
	}
}
