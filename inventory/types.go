/*
Package inventory provides the inventory ledger: stock, sales and daily log archival.

PURPOSE:
  Records stock additions, processes sales against available stock, and
  archives the day's activity logs into permanent, date-stamped tables.
  The ledger owns the consistency rules; storage is pluggable through
  the Store/TxStore interfaces (see store.go).

KEY CONCEPTS IN THIS FILE (types.go):
  - Item:             Current stock for one product (name, quantity, price)
  - AdditionEntry:    One stock addition since the last archive
  - SaleEntry:        One completed sale since the last archive
  - ArchivedAddition: Permanent copy of an AdditionEntry, stamped with a date
  - ArchivedSale:     Permanent copy of a SaleEntry, stamped with a date

DESIGN PRINCIPLES:
  1. Precision: Money is decimal.Decimal, never float64
  2. Stock never negative: sales are rejected, not partially applied
  3. Atomic archival: both logs are copied and cleared together, or neither is
  4. Structured results: the ledger returns values, callers own presentation

USAGE:
  store, _ := sqlite.New("inventory.db")
  ledger := inventory.NewLedger(store)

  _ = ledger.AddStock(ctx, "Widget", 10, decimal.RequireFromString("5.00"))
  sale, err := ledger.RecordSale(ctx, "Widget", 3, decimal.RequireFromString("7.50"))

SEE ALSO:
  - ledger.go: Ledger operations
  - store.go: Persistence interfaces
  - errors.go: Error taxonomy
*/
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STOCK
// =============================================================================

// Item is the current stock of one product. ProductName is unique.
type Item struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// =============================================================================
// ACTIVE LOGS - Cleared by every archive run
// =============================================================================

// AdditionEntry records one stock addition.
type AdditionEntry struct {
	ProductName   string    `json:"product_name"`
	QuantityAdded int       `json:"quantity_added"`
	AddedAt       time.Time `json:"added_at"`
}

// SaleEntry records one completed sale.
type SaleEntry struct {
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	SoldAt       time.Time       `json:"sold_at"`
}

// DailyLogs holds the log rows that have not been archived yet.
type DailyLogs struct {
	Additions []AdditionEntry `json:"additions"`
	Sales     []SaleEntry     `json:"sales"`
}

// =============================================================================
// ARCHIVE - Permanent, date-stamped copies of the logs
// =============================================================================

type ArchivedAddition struct {
	ArchiveDate   time.Time `json:"archive_date"`
	ProductName   string    `json:"product_name"`
	QuantityAdded int       `json:"quantity_added"`
	AddedAt       time.Time `json:"added_at"`
}

type ArchivedSale struct {
	ArchiveDate  time.Time       `json:"archive_date"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	SoldAt       time.Time       `json:"sold_at"`
}

// ArchivedLogs is everything archived under one date.
type ArchivedLogs struct {
	Date      time.Time          `json:"date"`
	Additions []ArchivedAddition `json:"additions"`
	Sales     []ArchivedSale     `json:"sales"`
}

// ArchiveCounts reports how many rows one archive run moved.
type ArchiveCounts struct {
	Date      time.Time `json:"date"`
	Additions int       `json:"additions"`
	Sales     int       `json:"sales"`
}

// Total returns the number of rows moved across both logs.
func (c ArchiveCounts) Total() int { return c.Additions + c.Sales }

// =============================================================================
// SALE RESULT
// =============================================================================

// SaleResult describes a committed sale.
type SaleResult struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"` // price each unit was sold at
	TotalPrice  decimal.Decimal `json:"total_price"`
	Remaining   int             `json:"remaining"` // stock left after the sale
	SoldAt      time.Time       `json:"sold_at"`
}
