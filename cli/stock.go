package cli

import (
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/inventory-ledger/inventory"
	"github.com/warp/inventory-ledger/report"
)

// NewAddCommand creates the add command.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME QUANTITY PRICE",
		Short: "Add stock for a product",
		Long: `Add QUANTITY units of NAME at PRICE each. An existing product's
quantity is increased and its unit price replaced by PRICE.

Example:
  inventory add "MacBook Pro" 5 82000`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd, args)
		},
	}
}

// NewSellCommand creates the sell command.
func NewSellCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sell NAME QUANTITY PRICE",
		Short: "Record a sale",
		Long: `Sell QUANTITY units of NAME at PRICE each. The sale is rejected,
and nothing changes, when fewer than QUANTITY units are in stock.

Example:
  inventory sell "MacBook Pro" 2 85000`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSell(opts, cmd, args)
		},
	}
}

func runAdd(opts *RootOptions, cmd *cobra.Command, args []string) error {
	out := opts.output(cmd)
	name, qty, price, err := parseStockArgs(args, "unit_price")
	if err != nil {
		return out.LedgerError(err)
	}

	ledger, store, err := opts.openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := ledger.AddStock(cmd.Context(), name, qty, price); err != nil {
		return out.LedgerError(err)
	}

	added := inventory.AdditionEntry{ProductName: name, QuantityAdded: qty}
	return out.Success(added, func(p *report.Printer) {
		p.StockAdded(name, qty, price)
	})
}

func runSell(opts *RootOptions, cmd *cobra.Command, args []string) error {
	out := opts.output(cmd)
	name, qty, price, err := parseStockArgs(args, "sale_price")
	if err != nil {
		return out.LedgerError(err)
	}

	ledger, store, err := opts.openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	sale, err := ledger.RecordSale(cmd.Context(), name, qty, price)
	if err != nil {
		return out.LedgerError(err)
	}

	return out.Success(sale, func(p *report.Printer) {
		p.Sale(sale)
	})
}

// parseStockArgs converts NAME QUANTITY PRICE; range checks are left to the ledger.
func parseStockArgs(args []string, priceField string) (string, int, decimal.Decimal, error) {
	fields := map[string]string{}

	qty, err := strconv.Atoi(args[1])
	if err != nil {
		fields["quantity"] = "must be an integer"
	}
	price, err := decimal.NewFromString(args[2])
	if err != nil {
		fields[priceField] = "must be a decimal number"
	}

	if len(fields) > 0 {
		return "", 0, decimal.Decimal{}, &inventory.ValidationError{Fields: fields}
	}
	return args[0], qty, price, nil
}
