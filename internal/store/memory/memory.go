// Package memory is an in-process implementation of store.Store used by tests
// and by the server when no database is configured. A unit of work holds the
// store-wide lock; on error the state is restored from a snapshot taken at
// the start.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"wholesale-backend/internal/models"
	"wholesale-backend/internal/store"
)

type stockKey struct {
	warehouseID int
	itemID      int
}

type limitKey struct {
	customerID int
	itemID     int
}

type state struct {
	items      map[int]models.Item
	customers  map[int]models.Customer
	warehouses map[int]models.Warehouse
	limits     map[limitKey]models.CustomerOrderLimit

	stock     map[stockKey]models.WarehouseStock
	movements []models.StockMovement

	orderSeq map[string]int
	orders   map[int]models.OrderHeader
	lines    map[int]models.OrderLine
	returns  map[int]models.ReturnRecord
	ledger   map[int]models.CustomerLedgerEntry
	closings map[int]models.MonthlyClosing

	seq map[string]int
}

func newState() *state {
	return &state{
		items:      map[int]models.Item{},
		customers:  map[int]models.Customer{},
		warehouses: map[int]models.Warehouse{},
		limits:     map[limitKey]models.CustomerOrderLimit{},
		stock:      map[stockKey]models.WarehouseStock{},
		orderSeq:   map[string]int{},
		orders:     map[int]models.OrderHeader{},
		lines:      map[int]models.OrderLine{},
		returns:    map[int]models.ReturnRecord{},
		ledger:     map[int]models.CustomerLedgerEntry{},
		closings:   map[int]models.MonthlyClosing{},
		seq:        map[string]int{},
	}
}

// clone copies every table. Rows are values, so a shallow map copy is enough
// as long as writers replace rows instead of mutating through pointers.
func (s *state) clone() *state {
	return &state{
		items:      maps.Clone(s.items),
		customers:  maps.Clone(s.customers),
		warehouses: maps.Clone(s.warehouses),
		limits:     maps.Clone(s.limits),
		stock:      maps.Clone(s.stock),
		movements:  slices.Clone(s.movements),
		orderSeq:   maps.Clone(s.orderSeq),
		orders:     maps.Clone(s.orders),
		lines:      maps.Clone(s.lines),
		returns:    maps.Clone(s.returns),
		ledger:     maps.Clone(s.ledger),
		closings:   maps.Clone(s.closings),
		seq:        maps.Clone(s.seq),
	}
}

func (s *state) nextID(table string) int {
	s.seq[table]++
	return s.seq[table]
}

type Store struct {
	mu    sync.Mutex
	state *state
}

func New() *Store {
	return &Store{state: newState()}
}

// WithinTx runs fn with exclusive access to the store. Units of work must not nest.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, &tx{st: s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

type tx struct {
	st *state
}

func (t *tx) Catalog() store.CatalogRepository { return catalogRepo{t.st} }
func (t *tx) Stock() store.StockRepository     { return stockRepo{t.st} }
func (t *tx) Orders() store.OrderRepository    { return orderRepo{t.st} }
func (t *tx) Returns() store.ReturnRepository  { return returnRepo{t.st} }
func (t *tx) Ledger() store.LedgerRepository   { return ledgerRepo{t.st} }
func (t *tx) Closings() store.ClosingRepository {
	return closingRepo{t.st}
}

// page applies limit/offset the way the SQL repositories do
func page[T any](rows []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(rows) {
			return []T{}
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
