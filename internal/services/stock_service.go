package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/metrics"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/store"
	"wholesale-backend/internal/timeutil"
)

type StockService struct {
	Store store.Store
}

func NewStockService(s store.Store) *StockService {
	return &StockService{Store: s}
}

// stockChange is one movement to append inside an open unit of work
type stockChange struct {
	WarehouseID   int
	ItemID        int
	Delta         int
	Type          models.MovementType
	UnitPrice     int64
	Date          time.Time
	ReferenceType string
	ReferenceID   *int
	Memo          string
	UserID        int
}

func validateStockChange(c stockChange) error {
	if c.Delta == 0 {
		return apperr.Validation("quantity delta must not be zero")
	}
	if c.UnitPrice < 0 {
		return apperr.Validation("unit price must not be negative")
	}
	switch c.Type {
	case models.MovementTypeIn:
		if c.Delta < 0 {
			return apperr.Validation("IN movement requires a positive delta")
		}
	case models.MovementTypeOut:
		if c.Delta > 0 {
			return apperr.Validation("OUT movement requires a negative delta")
		}
	case models.MovementTypeAdjustment:
	default:
		return apperr.Validation(fmt.Sprintf("unknown movement type %q", c.Type))
	}
	return nil
}

// shareOpenMonth holds the shared month lock for a movement dated on and
// refuses months whose closing is sealed
func shareOpenMonth(ctx context.Context, tx store.Tx, warehouseID int, on time.Time) error {
	ym := models.YearMonthOf(timeutil.In(on))
	closed, err := tx.Closings().ShareMonth(ctx, warehouseID, ym)
	if err != nil {
		return err
	}
	if closed {
		return apperr.AlreadyClosed(warehouseID, ym.String())
	}
	return nil
}

// stockKey identifies one warehouse_stock row
type stockKey struct {
	WarehouseID int
	ItemID      int
}

// lockStockKeys takes every month share and stock row a multi-line write will
// touch, ordered by (warehouse, item). Month shares come first, matching
// applyStockChange.
func lockStockKeys(ctx context.Context, tx store.Tx, on time.Time, keys []stockKey) error {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].WarehouseID != keys[j].WarehouseID {
			return keys[i].WarehouseID < keys[j].WarehouseID
		}
		return keys[i].ItemID < keys[j].ItemID
	})
	for i, k := range keys {
		if i > 0 && k.WarehouseID == keys[i-1].WarehouseID {
			continue
		}
		if err := shareOpenMonth(ctx, tx, k.WarehouseID, on); err != nil {
			return err
		}
	}
	for i, k := range keys {
		if i > 0 && k == keys[i-1] {
			continue
		}
		if _, err := tx.Stock().LockStock(ctx, k.WarehouseID, k.ItemID); err != nil {
			return err
		}
	}
	return nil
}

// applyStockChange locks the (warehouse, item) row, moves the counter and
// appends the matching movement. The counter never goes below zero and the
// movement month must still be open.
func applyStockChange(ctx context.Context, tx store.Tx, c stockChange) (*models.StockMovement, error) {
	if err := validateStockChange(c); err != nil {
		return nil, err
	}
	if c.Date.IsZero() {
		c.Date = timeutil.Now()
	}
	if err := shareOpenMonth(ctx, tx, c.WarehouseID, c.Date); err != nil {
		return nil, err
	}

	row, err := tx.Stock().LockStock(ctx, c.WarehouseID, c.ItemID)
	if err != nil {
		return nil, err
	}

	next := row.CurrentQuantity + c.Delta
	if next < 0 {
		return nil, apperr.InsufficientStock(c.WarehouseID, c.ItemID, row.CurrentQuantity, -c.Delta)
	}
	if err := tx.Stock().UpdateQuantity(ctx, c.WarehouseID, c.ItemID, next); err != nil {
		return nil, err
	}

	m := &models.StockMovement{
		WarehouseID:     c.WarehouseID,
		ItemID:          c.ItemID,
		MovementDate:    c.Date,
		MovementType:    c.Type,
		Quantity:        c.Delta,
		UnitPrice:       c.UnitPrice,
		Amount:          int64(abs(c.Delta)) * c.UnitPrice,
		ReferenceType:   c.ReferenceType,
		ReferenceID:     c.ReferenceID,
		Memo:            c.Memo,
		CreatedByUserID: c.UserID,
	}
	if err := tx.Stock().InsertMovement(ctx, m); err != nil {
		return nil, err
	}

	metrics.StockMovementsTotal.WithLabelValues(string(c.Type)).Inc()
	return m, nil
}

// AdjustStock appends a manual movement and returns it
func (s *StockService) AdjustStock(ctx context.Context, req *models.AdjustStockRequest, userID int) (*models.StockMovement, error) {
	change := stockChange{
		WarehouseID:   req.WarehouseID,
		ItemID:        req.ItemID,
		Delta:         req.Delta,
		Type:          req.MovementType,
		UnitPrice:     req.UnitPrice,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		Memo:          req.Memo,
		UserID:        userID,
	}
	if change.ReferenceType == "" {
		change.ReferenceType = models.StockRefManual
	}
	if req.MovementDate != nil {
		change.Date = timeutil.In(*req.MovementDate)
		if timeutil.StartOfDay(change.Date).After(timeutil.StartOfDay(timeutil.Now())) {
			return nil, apperr.Validation("movement date must not be in the future").WithDetail("field", "movement_date")
		}
	}
	if err := validateStockChange(change); err != nil {
		return nil, err
	}

	var movement *models.StockMovement
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Catalog().GetWarehouse(ctx, req.WarehouseID); err != nil {
			return err
		}
		if _, err := tx.Catalog().GetItem(ctx, req.ItemID); err != nil {
			return err
		}
		var err error
		movement, err = applyStockChange(ctx, tx, change)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// CurrentQuantity returns the on-hand quantity, 0 for a key that never moved
func (s *StockService) CurrentQuantity(ctx context.Context, warehouseID, itemID int) (int, error) {
	qty := 0
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		row, err := tx.Stock().FindStock(ctx, warehouseID, itemID)
		if err != nil {
			return err
		}
		if row != nil {
			qty = row.CurrentQuantity
		}
		return nil
	})
	return qty, err
}

// GetStock returns the stock row, a zero row for a key that never moved
func (s *StockService) GetStock(ctx context.Context, warehouseID, itemID int) (*models.WarehouseStock, error) {
	var row *models.WarehouseStock
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		row, err = tx.Stock().FindStock(ctx, warehouseID, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = &models.WarehouseStock{WarehouseID: warehouseID, ItemID: itemID}
	}
	return row, nil
}

func (s *StockService) ListStock(ctx context.Context, warehouseID int) ([]models.WarehouseStock, error) {
	var rows []models.WarehouseStock
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		rows, err = tx.Stock().ListStock(ctx, warehouseID)
		return err
	})
	return rows, err
}

func (s *StockService) ListMovements(ctx context.Context, filter models.MovementFilter) ([]models.StockMovement, error) {
	var rows []models.StockMovement
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		rows, err = tx.Stock().ListMovements(ctx, filter)
		return err
	})
	return rows, err
}

// SetSafeQuantity updates the advisory threshold; it never blocks movements
func (s *StockService) SetSafeQuantity(ctx context.Context, warehouseID, itemID, safeQuantity int) (*models.WarehouseStock, error) {
	if safeQuantity < 0 {
		return nil, apperr.Validation("safe quantity must not be negative")
	}
	var row *models.WarehouseStock
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Catalog().GetWarehouse(ctx, warehouseID); err != nil {
			return err
		}
		if _, err := tx.Catalog().GetItem(ctx, itemID); err != nil {
			return err
		}
		if _, err := tx.Stock().LockStock(ctx, warehouseID, itemID); err != nil {
			return err
		}
		if err := tx.Stock().SetSafeQuantity(ctx, warehouseID, itemID, safeQuantity); err != nil {
			return err
		}
		var err error
		row, err = tx.Stock().FindStock(ctx, warehouseID, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// VerifyStock replays the movement log and compares it with the counter
func (s *StockService) VerifyStock(ctx context.Context, warehouseID, itemID int) (*models.StockVerification, error) {
	v := &models.StockVerification{WarehouseID: warehouseID, ItemID: itemID}
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		row, err := tx.Stock().FindStock(ctx, warehouseID, itemID)
		if err != nil {
			return err
		}
		if row != nil {
			v.CurrentQuantity = row.CurrentQuantity
		}
		v.LedgerQuantity, err = tx.Stock().NetQuantity(ctx, warehouseID, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	v.Drift = v.CurrentQuantity - v.LedgerQuantity
	v.Consistent = v.Drift == 0
	return v, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
