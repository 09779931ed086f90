package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/inventory-ledger/inventory"
	"github.com/warp/inventory-ledger/report"
)

// ArchiveOptions holds flags for the archive command.
type ArchiveOptions struct {
	*RootOptions
	Date string
}

// NewArchiveCommand creates the archive command.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArchiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive and clear the day's logs",
		Long: `Copy every addition and sale log row into the archive stamped with
the archive date, then clear both logs. Runs as a single transaction.

Example:
  inventory archive
  inventory archive --date 2025-03-10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.output(cmd)
			day, err := parseDateFlag(opts.RootOptions, opts.Date)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --date", err)
			}

			ledger, store, err := opts.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := ledger.ArchiveAndClearDailyLogs(cmd.Context(), day)
			if err != nil {
				return out.LedgerError(err)
			}
			return out.Success(counts, func(p *report.Printer) {
				p.Archived(counts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "archive date YYYY-MM-DD (default today)")

	return cmd
}

// NewArchivedCommand creates the archived command.
func NewArchivedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "archived [DATE]",
		Short: "Show archived logs for a date, or list archive dates",
		Long: `With DATE (YYYY-MM-DD), print the additions and sales archived under it.
Without DATE, list every date that has archived rows.

Example:
  inventory archived
  inventory archived 2025-03-10`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.output(cmd)

			var day time.Time
			if len(args) == 1 {
				var err error
				if day, err = inventory.ParseDate(args[0]); err != nil {
					return out.LedgerError(err)
				}
			}

			ledger, store, err := opts.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 0 {
				dates, err := ledger.ArchiveDates(cmd.Context())
				if err != nil {
					return out.LedgerError(err)
				}
				formatted := make([]string, len(dates))
				for i, d := range dates {
					formatted[i] = inventory.FormatDate(d)
				}
				return out.Success(formatted, func(p *report.Printer) {
					p.ArchiveDates(dates)
				})
			}

			logs, err := ledger.GetArchivedLogs(cmd.Context(), day)
			if err != nil {
				return out.LedgerError(err)
			}
			return out.Success(logs, func(p *report.Printer) {
				p.ArchivedLogs(logs)
			})
		},
	}
}

// parseDateFlag returns today for an empty flag.
func parseDateFlag(opts *RootOptions, value string) (time.Time, error) {
	if value == "" {
		return opts.today(), nil
	}
	return inventory.ParseDate(value)
}
