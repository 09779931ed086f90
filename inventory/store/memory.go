// Package store provides in-process inventory.TxStore implementations.
package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/inventory-ledger/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	state memoryState
}

type memoryState struct {
	items        map[string]inventory.Item
	order        []string // insertion order of items
	additions    []inventory.AdditionEntry
	sales        []inventory.SaleEntry
	archivedAdds []inventory.ArchivedAddition
	archivedSale []inventory.ArchivedSale
}

func NewMemory() *Memory {
	return &Memory{state: memoryState{items: make(map[string]inventory.Item)}}
}

// Initialize is a no-op; the maps exist from construction.
func (m *Memory) Initialize(_ context.Context) error { return nil }

func (m *Memory) Item(_ context.Context, name string) (*inventory.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.item(name), nil
}

func (m *Memory) Items(_ context.Context) ([]inventory.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.list(), nil
}

func (m *Memory) Restock(_ context.Context, name string, quantity int, unitPrice decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.restock(name, quantity, unitPrice)
}

func (m *Memory) TakeStock(_ context.Context, name string, quantity int) (inventory.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.take(name, quantity)
}

func (m *Memory) AppendAddition(_ context.Context, entry inventory.AdditionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.additions = append(m.state.additions, entry)
	return nil
}

func (m *Memory) AppendSale(_ context.Context, entry inventory.SaleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.sales = append(m.state.sales, entry)
	return nil
}

func (m *Memory) Additions(_ context.Context) ([]inventory.AdditionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]inventory.AdditionEntry{}, m.state.additions...), nil
}

func (m *Memory) Sales(_ context.Context) ([]inventory.SaleEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]inventory.SaleEntry{}, m.state.sales...), nil
}

func (m *Memory) ArchiveAdditions(_ context.Context, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.archiveAdditions(date), nil
}

func (m *Memory) ArchiveSales(_ context.Context, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.archiveSales(date), nil
}

func (m *Memory) ClearLogs(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.additions = nil
	m.state.sales = nil
	return nil
}

func (m *Memory) ArchivedAdditions(_ context.Context, date time.Time) ([]inventory.ArchivedAddition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.archivedAdditionsOn(date), nil
}

func (m *Memory) ArchivedSales(_ context.Context, date time.Time) ([]inventory.ArchivedSale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.archivedSalesOn(date), nil
}

func (m *Memory) ArchiveDates(_ context.Context) ([]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.dates(), nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(inventory.Store) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	defer func() {
		if r := recover(); r != nil {
			m.state = snapshot
			panic(r)
		}
		if err != nil {
			m.state = snapshot
		}
	}()

	return fn(&memoryView{state: &m.state})
}

// memoryView is the Store handed to WithTx callbacks. The parent lock is
// already held, so it touches state directly.
type memoryView struct {
	state *memoryState
}

func (v *memoryView) Item(_ context.Context, name string) (*inventory.Item, error) {
	return v.state.item(name), nil
}

func (v *memoryView) Items(_ context.Context) ([]inventory.Item, error) {
	return v.state.list(), nil
}

func (v *memoryView) Restock(_ context.Context, name string, quantity int, unitPrice decimal.Decimal) error {
	return v.state.restock(name, quantity, unitPrice)
}

func (v *memoryView) TakeStock(_ context.Context, name string, quantity int) (inventory.Item, error) {
	return v.state.take(name, quantity)
}

func (v *memoryView) AppendAddition(_ context.Context, entry inventory.AdditionEntry) error {
	v.state.additions = append(v.state.additions, entry)
	return nil
}

func (v *memoryView) AppendSale(_ context.Context, entry inventory.SaleEntry) error {
	v.state.sales = append(v.state.sales, entry)
	return nil
}

func (v *memoryView) Additions(_ context.Context) ([]inventory.AdditionEntry, error) {
	return append([]inventory.AdditionEntry{}, v.state.additions...), nil
}

func (v *memoryView) Sales(_ context.Context) ([]inventory.SaleEntry, error) {
	return append([]inventory.SaleEntry{}, v.state.sales...), nil
}

func (v *memoryView) ArchiveAdditions(_ context.Context, date time.Time) (int, error) {
	return v.state.archiveAdditions(date), nil
}

func (v *memoryView) ArchiveSales(_ context.Context, date time.Time) (int, error) {
	return v.state.archiveSales(date), nil
}

func (v *memoryView) ClearLogs(_ context.Context) error {
	v.state.additions = nil
	v.state.sales = nil
	return nil
}

func (v *memoryView) ArchivedAdditions(_ context.Context, date time.Time) ([]inventory.ArchivedAddition, error) {
	return v.state.archivedAdditionsOn(date), nil
}

func (v *memoryView) ArchivedSales(_ context.Context, date time.Time) ([]inventory.ArchivedSale, error) {
	return v.state.archivedSalesOn(date), nil
}

func (v *memoryView) ArchiveDates(_ context.Context) ([]time.Time, error) {
	return v.state.dates(), nil
}

// =============================================================================
// STATE - Shared by Memory and memoryView; callers hold the lock
// =============================================================================

func (s *memoryState) item(name string) *inventory.Item {
	it, ok := s.items[name]
	if !ok {
		return nil
	}
	return &it
}

func (s *memoryState) list() []inventory.Item {
	result := make([]inventory.Item, 0, len(s.order))
	for _, name := range s.order {
		result = append(result, s.items[name])
	}
	return result
}

func (s *memoryState) restock(name string, quantity int, unitPrice decimal.Decimal) error {
	it, ok := s.items[name]
	if ok && it.Quantity > math.MaxInt-quantity {
		return fmt.Errorf("%w: quantity of %q would overflow", inventory.ErrConflict, name)
	}
	if !ok {
		it = inventory.Item{ProductName: name}
		s.order = append(s.order, name)
	}
	it.Quantity += quantity
	it.UnitPrice = unitPrice
	s.items[name] = it
	return nil
}

func (s *memoryState) take(name string, quantity int) (inventory.Item, error) {
	it, ok := s.items[name]
	if !ok || it.Quantity < quantity {
		return inventory.Item{}, &inventory.InsufficientStockError{
			ProductName: name,
			Available:   it.Quantity,
			Requested:   quantity,
		}
	}
	it.Quantity -= quantity
	s.items[name] = it
	return it, nil
}

func (s *memoryState) archiveAdditions(date time.Time) int {
	for _, a := range s.additions {
		s.archivedAdds = append(s.archivedAdds, inventory.ArchivedAddition{
			ArchiveDate:   date,
			ProductName:   a.ProductName,
			QuantityAdded: a.QuantityAdded,
			AddedAt:       a.AddedAt,
		})
	}
	return len(s.additions)
}

func (s *memoryState) archiveSales(date time.Time) int {
	for _, sale := range s.sales {
		s.archivedSale = append(s.archivedSale, inventory.ArchivedSale{
			ArchiveDate:  date,
			ProductName:  sale.ProductName,
			QuantitySold: sale.QuantitySold,
			TotalPrice:   sale.TotalPrice,
			SoldAt:       sale.SoldAt,
		})
	}
	return len(s.sales)
}

func (s *memoryState) archivedAdditionsOn(date time.Time) []inventory.ArchivedAddition {
	var result []inventory.ArchivedAddition
	for _, a := range s.archivedAdds {
		if a.ArchiveDate.Equal(date) {
			result = append(result, a)
		}
	}
	return result
}

func (s *memoryState) archivedSalesOn(date time.Time) []inventory.ArchivedSale {
	var result []inventory.ArchivedSale
	for _, sale := range s.archivedSale {
		if sale.ArchiveDate.Equal(date) {
			result = append(result, sale)
		}
	}
	return result
}

func (s *memoryState) dates() []time.Time {
	seen := make(map[time.Time]bool)
	var result []time.Time
	add := func(d time.Time) {
		if !seen[d] {
			seen[d] = true
			result = append(result, d)
		}
	}
	for _, a := range s.archivedAdds {
		add(a.ArchiveDate)
	}
	for _, sale := range s.archivedSale {
		add(sale.ArchiveDate)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Before(result[j]) })
	return result
}

func (s *memoryState) clone() memoryState {
	items := make(map[string]inventory.Item, len(s.items))
	for k, v := range s.items {
		items[k] = v
	}
	return memoryState{
		items:        items,
		order:        append([]string{}, s.order...),
		additions:    append([]inventory.AdditionEntry{}, s.additions...),
		sales:        append([]inventory.SaleEntry{}, s.sales...),
		archivedAdds: append([]inventory.ArchivedAddition{}, s.archivedAdds...),
		archivedSale: append([]inventory.ArchivedSale{}, s.archivedSale...),
	}
}
