/*
Package sqlite provides a SQLite-backed implementation of inventory.TxStore.

PURPOSE:
  Persists stock, the active addition/sale logs and their archives in a
  single SQLite file. The ledger composes this store's statements inside
  WithTx; this package only guarantees each statement and each transaction.

KEY TABLES:
  inventory:          Current stock, product_name UNIQUE, quantity >= 0
  inventory_log:      Stock additions since the last archive
  sales_log:          Completed sales since the last archive
  inventory_archive:  Archived additions, keyed by archive_date
  sales_log_archive:  Archived sales, keyed by archive_date

SINGLE CONNECTION:
  The store pins exactly one connection (SetMaxOpenConns(1)). It is the one
  shared storage handle of the process: opened by New, released by Close.
  A mutex serialises transactions so a WithTx callback never waits on a
  connection held by another caller.

GUARDED DECREMENT:
  TakeStock is a single UPDATE ... WHERE quantity >= ? statement. The stock
  check and the decrement cannot be separated by another writer.

MONEY AND TIME:
  Money columns hold exact decimal strings (shopspring/decimal).
  DATETIME columns are written as UTC timestamps; archive_date is
  YYYY-MM-DD. go-sqlite3 parses both back into time.Time.

MIGRATION:
  Schema lives in migrations/*.sql (goose format), embedded in the binary.
  New() runs Initialize, which applies pending migrations. Migrate()
  exposes goose up/down/status/version for the CLI.

USAGE:
  store, err := sqlite.New("./inventory.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := inventory.NewLedger(store)

SEE ALSO:
  - inventory/store.go: Interface definitions
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/inventory-ledger/inventory"
)

// Store implements inventory.TxStore using SQLite.
type Store struct {
	db   *sqlx.DB
	mu   sync.RWMutex
	q    *queries
	path string
}

// Option configures New.
type Option func(*options)

type options struct {
	busyTimeout time.Duration
	skipMigrate bool
}

// WithBusyTimeout sets how long SQLite waits on a locked database file.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// WithoutAutoMigrate leaves the schema untouched on open. Used by the
// migrate command, which drives goose itself.
func WithoutAutoMigrate() Option {
	return func(o *options) { o.skipMigrate = true }
}

// New opens (creating if needed) the database at dbPath and applies the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	o := options{busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=%d",
		dbPath, o.busyTimeout.Milliseconds())
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One shared connection; also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{db: db, q: &queries{ext: db}, path: dbPath}
	if o.skipMigrate {
		return store, nil
	}
	if err := store.Initialize(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path New was called with.
func (s *Store) Path() string {
	return s.path
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Initialize applies pending schema migrations. Idempotent.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := newProvider(s.db.DB)
	if err != nil {
		return err
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// =============================================================================
// STORE (inventory.Store interface)
// =============================================================================

func (s *Store) Item(ctx context.Context, name string) (*inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Item(ctx, name)
}

func (s *Store) Items(ctx context.Context) ([]inventory.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Items(ctx)
}

func (s *Store) Restock(ctx context.Context, name string, quantity int, unitPrice decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.Restock(ctx, name, quantity, unitPrice)
}

func (s *Store) TakeStock(ctx context.Context, name string, quantity int) (inventory.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.TakeStock(ctx, name, quantity)
}

func (s *Store) AppendAddition(ctx context.Context, entry inventory.AdditionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.AppendAddition(ctx, entry)
}

func (s *Store) AppendSale(ctx context.Context, entry inventory.SaleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.AppendSale(ctx, entry)
}

func (s *Store) Additions(ctx context.Context) ([]inventory.AdditionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Additions(ctx)
}

func (s *Store) Sales(ctx context.Context) ([]inventory.SaleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Sales(ctx)
}

func (s *Store) ArchiveAdditions(ctx context.Context, date time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.ArchiveAdditions(ctx, date)
}

func (s *Store) ArchiveSales(ctx context.Context, date time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.ArchiveSales(ctx, date)
}

func (s *Store) ClearLogs(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.ClearLogs(ctx)
}

func (s *Store) ArchivedAdditions(ctx context.Context, date time.Time) ([]inventory.ArchivedAddition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.ArchivedAdditions(ctx, date)
}

func (s *Store) ArchivedSales(ctx context.Context, date time.Time) ([]inventory.ArchivedSale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.ArchivedSales(ctx, date)
}

func (s *Store) ArchiveDates(ctx context.Context) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.ArchiveDates(ctx)
}

// =============================================================================
// TRANSACTIONAL STORE (inventory.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
// The transaction is rolled back if fn returns an error or panics.
func (s *Store) WithTx(ctx context.Context, fn func(inventory.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapError(err))
	}
	defer tx.Rollback()

	if err := fn(&queries{ext: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}
	return nil
}

// =============================================================================
// QUERIES - Shared by Store (bound to *sqlx.DB) and transactions (*sqlx.Tx)
// =============================================================================

type queries struct {
	ext sqlx.ExtContext
}

type itemRow struct {
	ProductName string          `db:"product_name"`
	Quantity    int             `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
}

type additionRow struct {
	ProductName   string    `db:"product_name"`
	QuantityAdded int       `db:"quantity_added"`
	AddedAt       time.Time `db:"added_at"`
}

type saleRow struct {
	ProductName  string          `db:"product_name"`
	QuantitySold int             `db:"quantity_sold"`
	TotalPrice   decimal.Decimal `db:"total_price"`
	SoldAt       time.Time       `db:"sold_at"`
}

type archivedAdditionRow struct {
	ArchiveDate   time.Time    `db:"archive_date"`
	ProductName   string       `db:"product_name"`
	QuantityAdded int          `db:"quantity_added"`
	AddedAt       sql.NullTime `db:"added_at"`
}

type archivedSaleRow struct {
	ArchiveDate  time.Time       `db:"archive_date"`
	ProductName  string          `db:"product_name"`
	QuantitySold int             `db:"quantity_sold"`
	TotalPrice   decimal.Decimal `db:"total_price"`
	SoldAt       sql.NullTime    `db:"sold_at"`
}

func (q *queries) Item(ctx context.Context, name string) (*inventory.Item, error) {
	var row itemRow
	err := sqlx.GetContext(ctx, q.ext, &row,
		"SELECT product_name, quantity, unit_price FROM inventory WHERE product_name = ?",
		name,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", mapError(err))
	}

	item := inventory.Item(row)
	return &item, nil
}

func (q *queries) Items(ctx context.Context) ([]inventory.Item, error) {
	var rows []itemRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows,
		"SELECT product_name, quantity, unit_price FROM inventory ORDER BY id",
	); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", mapError(err))
	}

	items := make([]inventory.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, inventory.Item(r))
	}
	return items, nil
}

func (q *queries) Restock(ctx context.Context, name string, quantity int, unitPrice decimal.Decimal) error {
	query := `
		INSERT INTO inventory (product_name, quantity, unit_price)
		VALUES (?, ?, ?)
		ON CONFLICT(product_name) DO UPDATE SET
			quantity = inventory.quantity + excluded.quantity,
			unit_price = excluded.unit_price
		WHERE inventory.quantity <= ? - excluded.quantity
	`
	res, err := q.ext.ExecContext(ctx, query, name, quantity, unitPrice, int64(math.MaxInt))
	if err != nil {
		return fmt.Errorf("failed to restock item: %w", mapError(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: quantity of %q would overflow", inventory.ErrConflict, name)
	}
	return nil
}

func (q *queries) TakeStock(ctx context.Context, name string, quantity int) (inventory.Item, error) {
	res, err := q.ext.ExecContext(ctx,
		"UPDATE inventory SET quantity = quantity - ? WHERE product_name = ? AND quantity >= ?",
		quantity, name, quantity,
	)
	if err != nil {
		return inventory.Item{}, fmt.Errorf("failed to take stock: %w", mapError(err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return inventory.Item{}, fmt.Errorf("failed to get affected rows: %w", err)
	}

	item, err := q.Item(ctx, name)
	if err != nil {
		return inventory.Item{}, err
	}

	if affected == 0 {
		shortage := &inventory.InsufficientStockError{ProductName: name, Requested: quantity}
		if item != nil {
			shortage.Available = item.Quantity
		}
		return inventory.Item{}, shortage
	}
	return *item, nil
}

func (q *queries) AppendAddition(ctx context.Context, entry inventory.AdditionEntry) error {
	_, err := q.ext.ExecContext(ctx,
		"INSERT INTO inventory_log (product_name, quantity_added, added_at) VALUES (?, ?, ?)",
		entry.ProductName, entry.QuantityAdded, entry.AddedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append addition: %w", mapError(err))
	}
	return nil
}

func (q *queries) AppendSale(ctx context.Context, entry inventory.SaleEntry) error {
	_, err := q.ext.ExecContext(ctx,
		"INSERT INTO sales_log (product_name, quantity_sold, total_price, sold_at) VALUES (?, ?, ?, ?)",
		entry.ProductName, entry.QuantitySold, entry.TotalPrice, entry.SoldAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append sale: %w", mapError(err))
	}
	return nil
}

func (q *queries) Additions(ctx context.Context) ([]inventory.AdditionEntry, error) {
	var rows []additionRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows,
		"SELECT product_name, quantity_added, added_at FROM inventory_log ORDER BY id",
	); err != nil {
		return nil, fmt.Errorf("failed to query additions: %w", mapError(err))
	}

	entries := make([]inventory.AdditionEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, inventory.AdditionEntry(r))
	}
	return entries, nil
}

func (q *queries) Sales(ctx context.Context) ([]inventory.SaleEntry, error) {
	var rows []saleRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows,
		"SELECT product_name, quantity_sold, total_price, sold_at FROM sales_log ORDER BY id",
	); err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", mapError(err))
	}

	entries := make([]inventory.SaleEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, inventory.SaleEntry(r))
	}
	return entries, nil
}

func (q *queries) ArchiveAdditions(ctx context.Context, date time.Time) (int, error) {
	query := `
		INSERT INTO inventory_archive (archive_date, product_name, quantity_added, added_at)
		SELECT ?, product_name, quantity_added, added_at
		FROM inventory_log
		ORDER BY id
	`
	return q.execCount(ctx, "archive additions", query, inventory.FormatDate(date))
}

func (q *queries) ArchiveSales(ctx context.Context, date time.Time) (int, error) {
	query := `
		INSERT INTO sales_log_archive (archive_date, product_name, quantity_sold, total_price, sold_at)
		SELECT ?, product_name, quantity_sold, total_price, sold_at
		FROM sales_log
		ORDER BY id
	`
	return q.execCount(ctx, "archive sales", query, inventory.FormatDate(date))
}

func (q *queries) ClearLogs(ctx context.Context) error {
	for _, table := range []string{"inventory_log", "sales_log"} {
		if _, err := q.ext.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, mapError(err))
		}
	}
	return nil
}

func (q *queries) ArchivedAdditions(ctx context.Context, date time.Time) ([]inventory.ArchivedAddition, error) {
	var rows []archivedAdditionRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, `
		SELECT archive_date, product_name, quantity_added, added_at
		FROM inventory_archive
		WHERE archive_date = ?
		ORDER BY id
	`, inventory.FormatDate(date)); err != nil {
		return nil, fmt.Errorf("failed to query archived additions: %w", mapError(err))
	}

	result := make([]inventory.ArchivedAddition, 0, len(rows))
	for _, r := range rows {
		result = append(result, inventory.ArchivedAddition{
			ArchiveDate:   r.ArchiveDate,
			ProductName:   r.ProductName,
			QuantityAdded: r.QuantityAdded,
			AddedAt:       r.AddedAt.Time,
		})
	}
	return result, nil
}

func (q *queries) ArchivedSales(ctx context.Context, date time.Time) ([]inventory.ArchivedSale, error) {
	var rows []archivedSaleRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, `
		SELECT archive_date, product_name, quantity_sold, total_price, sold_at
		FROM sales_log_archive
		WHERE archive_date = ?
		ORDER BY id
	`, inventory.FormatDate(date)); err != nil {
		return nil, fmt.Errorf("failed to query archived sales: %w", mapError(err))
	}

	result := make([]inventory.ArchivedSale, 0, len(rows))
	for _, r := range rows {
		result = append(result, inventory.ArchivedSale{
			ArchiveDate:  r.ArchiveDate,
			ProductName:  r.ProductName,
			QuantitySold: r.QuantitySold,
			TotalPrice:   r.TotalPrice,
			SoldAt:       r.SoldAt.Time,
		})
	}
	return result, nil
}

func (q *queries) ArchiveDates(ctx context.Context) ([]time.Time, error) {
	// date() yields plain text, so the driver does not coerce the column.
	var raw []string
	if err := sqlx.SelectContext(ctx, q.ext, &raw, `
		SELECT DISTINCT date(archive_date) AS d FROM (
			SELECT archive_date FROM inventory_archive
			UNION ALL
			SELECT archive_date FROM sales_log_archive
		)
		ORDER BY d
	`); err != nil {
		return nil, fmt.Errorf("failed to query archive dates: %w", mapError(err))
	}

	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := inventory.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("corrupt archive date %q: %w", s, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func (q *queries) execCount(ctx context.Context, what, query string, args ...any) (int, error) {
	res, err := q.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", what, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(n), nil
}

// Helper functions

// mapError tags driver errors with the inventory sentinel they correspond to.
func mapError(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return fmt.Errorf("%w: %w", inventory.ErrStoreBusy, err)
	case sqlite3.ErrConstraint:
		return fmt.Errorf("%w: %w", inventory.ErrConflict, err)
	default:
		return err
	}
}
