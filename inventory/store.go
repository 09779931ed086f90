/*
store.go - Persistence interface for stock, logs and archives

PURPOSE:
  Defines the interface between the ledger and the database. The Store
  exposes single-statement building blocks; the ledger composes them inside
  WithTx so every operation commits or rolls back as one unit.

KEY INTERFACES:
  Store:   Data access usable inside or outside a transaction
  TxStore: Store + schema initialization + transactions

ATOMICITY:
  The ledger never calls a mutating Store method outside WithTx.
  Implementations must guarantee that when fn returns an error (or panics)
  none of its writes are visible afterwards.

ORDERING:
  "Storage-native order" means insertion order: every list method returns
  rows in the order they were written.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite via go-sqlite3 + sqlx
  - inventory/store/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Composes these calls into ledger operations
*/
package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STORE - Data access
// =============================================================================

type Store interface {
	// Item returns the stock row for name, or nil if the product is unknown.
	Item(ctx context.Context, name string) (*Item, error)

	// Items returns all stock rows in storage-native order.
	Items(ctx context.Context) ([]Item, error)

	// Restock increments quantity and overwrites the unit price,
	// creating the item when it does not exist.
	Restock(ctx context.Context, name string, quantity int, unitPrice decimal.Decimal) error

	// TakeStock decrements quantity only if at least quantity units are on hand.
	// The check and the decrement are a single step. Returns the updated item,
	// or an *InsufficientStockError and no change.
	TakeStock(ctx context.Context, name string, quantity int) (Item, error)

	// AppendAddition appends to the addition log.
	AppendAddition(ctx context.Context, entry AdditionEntry) error

	// AppendSale appends to the sale log.
	AppendSale(ctx context.Context, entry SaleEntry) error

	// Additions returns the addition log.
	Additions(ctx context.Context) ([]AdditionEntry, error)

	// Sales returns the sale log.
	Sales(ctx context.Context) ([]SaleEntry, error)

	// ArchiveAdditions copies every addition log row into the archive
	// stamped with date. Returns the number of rows copied.
	ArchiveAdditions(ctx context.Context, date time.Time) (int, error)

	// ArchiveSales copies every sale log row into the archive stamped with date.
	ArchiveSales(ctx context.Context, date time.Time) (int, error)

	// ClearLogs deletes every row from both active logs.
	ClearLogs(ctx context.Context) error

	// ArchivedAdditions returns archived additions for date.
	ArchivedAdditions(ctx context.Context, date time.Time) ([]ArchivedAddition, error)

	// ArchivedSales returns archived sales for date.
	ArchivedSales(ctx context.Context, date time.Time) ([]ArchivedSale, error)

	// ArchiveDates returns every date with archived rows, ascending.
	ArchiveDates(ctx context.Context) ([]time.Time, error)
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with schema setup and transaction support.
type TxStore interface {
	Store

	// Initialize ensures the schema exists. Safe to call repeatedly.
	Initialize(ctx context.Context) error

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
