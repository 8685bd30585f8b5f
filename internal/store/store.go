// Package store defines the persistence boundary of the fulfillment engine.
// Every operation runs inside WithinTx; implementations decide how the unit of
// work is isolated (a pgx transaction for PostgreSQL, a store-wide lock for memory).
//
// Lookup conventions: Get* and Lock* return an apperr NOT_FOUND error when the row
// does not exist, Find* return (nil, nil).
package store

import (
	"context"
	"time"

	"wholesale-backend/internal/models"
)

// Store opens units of work
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the repositories bound to one unit of work
type Tx interface {
	Catalog() CatalogRepository
	Stock() StockRepository
	Orders() OrderRepository
	Returns() ReturnRepository
	Ledger() LedgerRepository
	Closings() ClosingRepository
}

type CatalogRepository interface {
	GetItem(ctx context.Context, id int) (*models.Item, error)
	GetCustomer(ctx context.Context, id int) (*models.Customer, error)
	GetWarehouse(ctx context.Context, id int) (*models.Warehouse, error)
	FindOrderLimit(ctx context.Context, customerID, itemID int) (*models.CustomerOrderLimit, error)

	CreateItem(ctx context.Context, item *models.Item) error
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	CreateWarehouse(ctx context.Context, warehouse *models.Warehouse) error
	// SetOrderLimit upserts the limit; a MaxQuantity of 0 removes it
	SetOrderLimit(ctx context.Context, limit models.CustomerOrderLimit) error

	ListItems(ctx context.Context) ([]models.Item, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	ListWarehouses(ctx context.Context) ([]models.Warehouse, error)
}

type StockRepository interface {
	// LockStock returns the (warehouse, item) row locked for update, creating it
	// with zero quantity when the key has never moved.
	LockStock(ctx context.Context, warehouseID, itemID int) (*models.WarehouseStock, error)
	UpdateQuantity(ctx context.Context, warehouseID, itemID, quantity int) error
	SetSafeQuantity(ctx context.Context, warehouseID, itemID, safeQuantity int) error
	FindStock(ctx context.Context, warehouseID, itemID int) (*models.WarehouseStock, error)
	ListStock(ctx context.Context, warehouseID int) ([]models.WarehouseStock, error)

	InsertMovement(ctx context.Context, m *models.StockMovement) error
	ListMovements(ctx context.Context, filter models.MovementFilter) ([]models.StockMovement, error)
	// SumMovements folds movements with from <= MovementDate < to
	SumMovements(ctx context.Context, warehouseID, itemID int, from, to time.Time) (models.MovementTotals, error)
	// NetQuantity is the sum of every movement quantity for the key
	NetQuantity(ctx context.Context, warehouseID, itemID int) (int, error)
}

type OrderRepository interface {
	// NextOrderNo issues the next YYYYMMDD-NNNN number for day
	NextOrderNo(ctx context.Context, day time.Time) (string, error)
	CreateOrder(ctx context.Context, order *models.OrderHeader) error
	UpdateOrder(ctx context.Context, order *models.OrderHeader) error
	GetOrder(ctx context.Context, id int) (*models.OrderHeader, error)
	LockOrder(ctx context.Context, id int) (*models.OrderHeader, error)
	DeleteOrder(ctx context.Context, id int) error
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderHeader, error)

	InsertLine(ctx context.Context, line *models.OrderLine) error
	UpdateLine(ctx context.Context, line *models.OrderLine) error
	DeleteLine(ctx context.Context, id int) error
	GetLine(ctx context.Context, id int) (*models.OrderLine, error)
	LockLine(ctx context.Context, id int) (*models.OrderLine, error)
	ListLines(ctx context.Context, orderID int) ([]models.OrderLine, error)
}

type ReturnRepository interface {
	Create(ctx context.Context, r *models.ReturnRecord) error
	Get(ctx context.Context, id int) (*models.ReturnRecord, error)
	Lock(ctx context.Context, id int) (*models.ReturnRecord, error)
	Update(ctx context.Context, r *models.ReturnRecord) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter models.ReturnFilter) ([]models.ReturnRecord, error)
}

type LedgerRepository interface {
	// LockCustomer serializes ledger writers of one customer until the unit of work ends
	LockCustomer(ctx context.Context, customerID int) error
	// EntryBefore is the greatest entry ordered strictly before (date, id)
	EntryBefore(ctx context.Context, customerID int, date time.Time, id int) (*models.CustomerLedgerEntry, error)
	LastEntry(ctx context.Context, customerID int) (*models.CustomerLedgerEntry, error)
	// EntriesFrom lists entries ordered at or after (date, id), ascending
	EntriesFrom(ctx context.Context, customerID int, date time.Time, id int) ([]models.CustomerLedgerEntry, error)
	FindByReference(ctx context.Context, referenceType string, referenceID int) (*models.CustomerLedgerEntry, error)
	Insert(ctx context.Context, e *models.CustomerLedgerEntry) error
	UpdateBalanceAfter(ctx context.Context, id int, balanceAfter int64) error
	Delete(ctx context.Context, id int) error
	// List is ordered ascending by (EntryDate, ID)
	List(ctx context.Context, filter models.LedgerFilter) ([]models.CustomerLedgerEntry, error)
	CountEntries(ctx context.Context, customerID int) (int, error)
}

type ClosingRepository interface {
	// FindForUpdate returns the locked row for the key, or nil when absent
	FindForUpdate(ctx context.Context, warehouseID, itemID int, ym models.YearMonth) (*models.MonthlyClosing, error)
	Find(ctx context.Context, warehouseID, itemID int, ym models.YearMonth) (*models.MonthlyClosing, error)
	Get(ctx context.Context, id int) (*models.MonthlyClosing, error)
	Lock(ctx context.Context, id int) (*models.MonthlyClosing, error)
	// Save upserts on (warehouse, item, year_month) and sets ID
	Save(ctx context.Context, c *models.MonthlyClosing) error
	LockWarehouseMonth(ctx context.Context, warehouseID int, ym models.YearMonth) ([]models.MonthlyClosing, error)
	// LockMonth holds the warehouse month exclusively until the unit of work ends
	// and reports whether any of its rows is closed. Closing runs take it.
	LockMonth(ctx context.Context, warehouseID int, ym models.YearMonth) (closed bool, err error)
	// ShareMonth is the shared side of LockMonth, held by stock writers
	ShareMonth(ctx context.Context, warehouseID int, ym models.YearMonth) (closed bool, err error)
	MarkClosed(ctx context.Context, ids []int, closedByUserID int, closedAt time.Time) error
	List(ctx context.Context, filter models.ClosingFilter) ([]models.MonthlyClosing, error)
}
