/*
Package report renders ledger results as the human-readable text report.

The ledger returns structured values; this package owns every line a user
reads on stdout. Amounts are printed with two decimals behind a configurable
currency symbol, timestamps as "2006-01-02 15:04:05" in UTC.

USAGE:
  p := report.New(os.Stdout, "₹")
  p.StockAdded("MacBook Pro", 5, price)   // Added 5 MacBook Pro at ₹82000.00 each
  p.Sale(result)                           // Sold 2 MacBook Pro for ₹170000.00 at ₹85000.00 each
*/
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/inventory-ledger/inventory"
)

// DefaultCurrency is printed before every amount unless overridden.
const DefaultCurrency = "₹"

// TimestampLayout formats log timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Printer writes report lines to w.
type Printer struct {
	w        io.Writer
	currency string
}

func New(w io.Writer, currency string) *Printer {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Printer{w: w, currency: currency}
}

// Money formats an amount with the currency symbol and two decimals.
func (p *Printer) Money(d decimal.Decimal) string {
	return p.currency + d.StringFixed(2)
}

func (p *Printer) StockAdded(productName string, quantity int, unitPrice decimal.Decimal) {
	p.printf("Added %d %s at %s each\n", quantity, productName, p.Money(unitPrice))
}

func (p *Printer) Sale(r inventory.SaleResult) {
	p.printf("Sold %d %s for %s at %s each\n",
		r.Quantity, r.ProductName, p.Money(r.TotalPrice), p.Money(r.UnitPrice))
}

func (p *Printer) InsufficientStock(productName string) {
	p.printf("Not enough %s in inventory to complete the sale.\n", productName)
}

func (p *Printer) Inventory(items []inventory.Item) {
	p.printf("Current Inventory:\n")
	for _, it := range items {
		p.printf("%s: %d units available at %s each\n", it.ProductName, it.Quantity, p.Money(it.UnitPrice))
	}
}

func (p *Printer) Archived(c inventory.ArchiveCounts) {
	p.printf("Archived and cleared logs for %s (%d additions, %d sales)\n",
		inventory.FormatDate(c.Date), c.Additions, c.Sales)
}

func (p *Printer) ArchivedLogs(logs inventory.ArchivedLogs) {
	p.printf("\nArchived Logs for %s:\n", inventory.FormatDate(logs.Date))
	p.printf("\nInventory Additions:\n")
	for _, a := range logs.Additions {
		p.printf("+ %d %s\n", a.QuantityAdded, a.ProductName)
	}
	p.printf("\nSales Logs:\n")
	for _, s := range logs.Sales {
		p.printf("- %d %s %s (Sold on %s)\n", s.QuantitySold, s.ProductName, p.Money(s.TotalPrice), timestamp(s.SoldAt))
	}
}

func (p *Printer) PendingLogs(logs inventory.DailyLogs) {
	p.printf("Pending Logs:\n")
	p.printf("\nInventory Additions:\n")
	for _, a := range logs.Additions {
		p.printf("+ %d %s (Added on %s)\n", a.QuantityAdded, a.ProductName, timestamp(a.AddedAt))
	}
	p.printf("\nSales Logs:\n")
	for _, s := range logs.Sales {
		p.printf("- %d %s %s (Sold on %s)\n", s.QuantitySold, s.ProductName, p.Money(s.TotalPrice), timestamp(s.SoldAt))
	}
}

func (p *Printer) ArchiveDates(dates []time.Time) {
	if len(dates) == 0 {
		p.printf("No archived logs.\n")
		return
	}
	p.printf("Archived Dates:\n")
	for _, d := range dates {
		p.printf("%s\n", inventory.FormatDate(d))
	}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
