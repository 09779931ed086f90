/*
ledger.go - Inventory ledger operations

PURPOSE:
  The Ledger owns all stock and sales state and the rules that mutate it.
  Each operation is one logical transaction: it validates its input, runs
  its writes inside TxStore.WithTx, and either commits fully or leaves no
  trace.

CRITICAL INVARIANTS:
  1. STOCK NEVER NEGATIVE: a sale larger than the stock on hand is rejected
     with InsufficientStockError and mutates nothing.
  2. ATOMIC ARCHIVE: both logs are copied and cleared together, or neither.
  3. UNIQUE PRODUCTS: product_name identifies exactly one Item.

RESTOCK PRICING:
  AddStock overwrites the unit price with the latest value. There is no
  weighted average of old and new stock.

SALE CONSISTENCY:
  The stock check and the decrement happen in one guarded step
  (Store.TakeStock) inside the sale's transaction, so two concurrent sales
  cannot both pass the check against the same units.

EXAMPLE FLOW:
  1. AddStock("Widget", 10, 5.00)     -> Widget: 10 @ 5.00
  2. RecordSale("Widget", 3, 7.50)    -> total 22.50, Widget: 7 @ 5.00
  3. RecordSale("Widget", 100, 7.50)  -> InsufficientStockError, still 7
  4. ArchiveAndClearDailyLogs(D)      -> 1 addition, 1 sale archived under D

SEE ALSO:
  - store.go: Persistence interfaces
  - errors.go: Error taxonomy
*/
package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger is the source of truth for stock, sales and their archives.
type Ledger interface {
	// Initialize ensures the schema exists. Idempotent.
	Initialize(ctx context.Context) error

	// AddStock logs an addition and increments (or creates) the item.
	AddStock(ctx context.Context, productName string, quantity int, unitPrice decimal.Decimal) error

	// RecordSale sells quantity units at salePrice each.
	RecordSale(ctx context.Context, productName string, quantity int, salePrice decimal.Decimal) (SaleResult, error)

	// ListInventory returns every item. Read-only.
	ListInventory(ctx context.Context) ([]Item, error)

	// PendingLogs returns the log rows not archived yet. Read-only.
	PendingLogs(ctx context.Context) (DailyLogs, error)

	// ArchiveAndClearDailyLogs moves both logs into the archive under archiveDate.
	ArchiveAndClearDailyLogs(ctx context.Context, archiveDate time.Time) (ArchiveCounts, error)

	// GetArchivedLogs returns everything archived under date. Read-only.
	GetArchivedLogs(ctx context.Context, date time.Time) (ArchivedLogs, error)

	// ArchiveDates lists the dates that have archived rows. Read-only.
	ArchiveDates(ctx context.Context) ([]time.Time, error)
}

// Recorder receives operation outcomes, typically for metrics.
type Recorder interface {
	ObserveOperation(op string, outcome string, elapsed time.Duration)
	AddUnitsAdded(n int)
	AddUnitsSold(n int)
	AddArchivedRows(log string, n int)
}

// Operation names reported to the Recorder and used in StorageError.Op.
const (
	OpInitialize = "initialize"
	OpAddStock   = "add_stock"
	OpRecordSale = "record_sale"
	OpList       = "list_inventory"
	OpPending    = "pending_logs"
	OpArchive    = "archive_logs"
	OpArchived   = "get_archived_logs"
	OpDates      = "archive_dates"
)

// Outcomes reported to the Recorder.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// =============================================================================
// DEFAULT LEDGER - Implementation using TxStore
// =============================================================================

type DefaultLedger struct {
	Store    TxStore
	recorder Recorder
	now      func() time.Time
}

// Option configures a DefaultLedger.
type Option func(*DefaultLedger)

// WithClock replaces time.Now as the source of log timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *DefaultLedger) { l.now = now }
}

// WithRecorder reports every operation to r.
func WithRecorder(r Recorder) Option {
	return func(l *DefaultLedger) { l.recorder = r }
}

func NewLedger(store TxStore, opts ...Option) *DefaultLedger {
	l := &DefaultLedger{Store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *DefaultLedger) Initialize(ctx context.Context) error {
	start := time.Now()
	err := l.Store.Initialize(ctx)
	l.observe(OpInitialize, start, err)
	return l.storageErr(OpInitialize, err)
}

func (l *DefaultLedger) AddStock(ctx context.Context, productName string, quantity int, unitPrice decimal.Decimal) error {
	start := time.Now()
	in := stockInput{
		ProductName: strings.TrimSpace(productName),
		Quantity:    quantity,
		Price:       unitPrice,
		priceField:  "unit_price",
	}
	if err := in.validate(); err != nil {
		l.observe(OpAddStock, start, err)
		return err
	}

	entry := AdditionEntry{
		ProductName:   in.ProductName,
		QuantityAdded: in.Quantity,
		AddedAt:       l.timestamp(),
	}
	err := l.Store.WithTx(ctx, func(s Store) error {
		if err := s.AppendAddition(ctx, entry); err != nil {
			return err
		}
		return s.Restock(ctx, in.ProductName, in.Quantity, in.Price)
	})
	l.observe(OpAddStock, start, err)
	if err != nil {
		return l.storageErr(OpAddStock, err)
	}

	if l.recorder != nil {
		l.recorder.AddUnitsAdded(in.Quantity)
	}
	return nil
}

func (l *DefaultLedger) RecordSale(ctx context.Context, productName string, quantity int, salePrice decimal.Decimal) (SaleResult, error) {
	start := time.Now()
	in := stockInput{
		ProductName: strings.TrimSpace(productName),
		Quantity:    quantity,
		Price:       salePrice,
		priceField:  "sale_price",
	}
	if err := in.validate(); err != nil {
		l.observe(OpRecordSale, start, err)
		return SaleResult{}, err
	}

	result := SaleResult{
		ProductName: in.ProductName,
		Quantity:    in.Quantity,
		UnitPrice:   in.Price,
		TotalPrice:  in.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
		SoldAt:      l.timestamp(),
	}
	err := l.Store.WithTx(ctx, func(s Store) error {
		item, err := s.TakeStock(ctx, in.ProductName, in.Quantity)
		if err != nil {
			return err
		}
		result.Remaining = item.Quantity

		return s.AppendSale(ctx, SaleEntry{
			ProductName:  in.ProductName,
			QuantitySold: in.Quantity,
			TotalPrice:   result.TotalPrice,
			SoldAt:       result.SoldAt,
		})
	})
	l.observe(OpRecordSale, start, err)
	if err != nil {
		return SaleResult{}, l.storageErr(OpRecordSale, err)
	}

	if l.recorder != nil {
		l.recorder.AddUnitsSold(in.Quantity)
	}
	return result, nil
}

func (l *DefaultLedger) ListInventory(ctx context.Context) ([]Item, error) {
	start := time.Now()
	items, err := l.Store.Items(ctx)
	l.observe(OpList, start, err)
	if err != nil {
		return nil, l.storageErr(OpList, err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func (l *DefaultLedger) PendingLogs(ctx context.Context) (DailyLogs, error) {
	start := time.Now()
	logs := DailyLogs{Additions: []AdditionEntry{}, Sales: []SaleEntry{}}

	additions, err := l.Store.Additions(ctx)
	if err == nil {
		var sales []SaleEntry
		sales, err = l.Store.Sales(ctx)
		if additions != nil {
			logs.Additions = additions
		}
		if sales != nil {
			logs.Sales = sales
		}
	}
	l.observe(OpPending, start, err)
	if err != nil {
		return DailyLogs{}, l.storageErr(OpPending, err)
	}
	return logs, nil
}

func (l *DefaultLedger) ArchiveAndClearDailyLogs(ctx context.Context, archiveDate time.Time) (ArchiveCounts, error) {
	start := time.Now()
	counts := ArchiveCounts{Date: DateOf(archiveDate)}

	err := l.Store.WithTx(ctx, func(s Store) error {
		var err error
		if counts.Additions, err = s.ArchiveAdditions(ctx, counts.Date); err != nil {
			return err
		}
		if counts.Sales, err = s.ArchiveSales(ctx, counts.Date); err != nil {
			return err
		}
		return s.ClearLogs(ctx)
	})
	l.observe(OpArchive, start, err)
	if err != nil {
		return ArchiveCounts{Date: counts.Date}, l.storageErr(OpArchive, err)
	}

	if l.recorder != nil {
		l.recorder.AddArchivedRows("additions", counts.Additions)
		l.recorder.AddArchivedRows("sales", counts.Sales)
	}
	return counts, nil
}

func (l *DefaultLedger) GetArchivedLogs(ctx context.Context, date time.Time) (ArchivedLogs, error) {
	start := time.Now()
	logs := ArchivedLogs{
		Date:      DateOf(date),
		Additions: []ArchivedAddition{},
		Sales:     []ArchivedSale{},
	}

	additions, err := l.Store.ArchivedAdditions(ctx, logs.Date)
	if err == nil {
		var sales []ArchivedSale
		sales, err = l.Store.ArchivedSales(ctx, logs.Date)
		if additions != nil {
			logs.Additions = additions
		}
		if sales != nil {
			logs.Sales = sales
		}
	}
	l.observe(OpArchived, start, err)
	if err != nil {
		return ArchivedLogs{}, l.storageErr(OpArchived, err)
	}
	return logs, nil
}

func (l *DefaultLedger) ArchiveDates(ctx context.Context) ([]time.Time, error) {
	start := time.Now()
	dates, err := l.Store.ArchiveDates(ctx)
	l.observe(OpDates, start, err)
	if err != nil {
		return nil, l.storageErr(OpDates, err)
	}
	if dates == nil {
		dates = []time.Time{}
	}
	return dates, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// timestamp matches the second precision of SQL CURRENT_TIMESTAMP.
func (l *DefaultLedger) timestamp() time.Time {
	return l.now().UTC().Truncate(time.Second)
}

// storageErr wraps store failures; domain errors pass through untouched.
func (l *DefaultLedger) storageErr(op string, err error) error {
	if err == nil || IsClientError(err) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (l *DefaultLedger) observe(op string, start time.Time, err error) {
	if l.recorder == nil {
		return
	}
	outcome := OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrInsufficientStock):
		outcome = OutcomeRejected
	case errors.Is(err, ErrInvalidInput):
		outcome = OutcomeInvalid
	default:
		outcome = OutcomeError
	}
	l.recorder.ObserveOperation(op, outcome, time.Since(start))
}
