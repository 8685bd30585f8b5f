package services

import (
	"context"
	"fmt"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/cache"
	"wholesale-backend/internal/metrics"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/store"
	"wholesale-backend/internal/timeutil"
)

// ClosingService folds a month of stock movements into per-item closing rows
// and reconciles them with physical counts. Closed periods are immutable.
type ClosingService struct {
	Store store.Store
}

func NewClosingService(s store.Store) *ClosingService {
	return &ClosingService{Store: s}
}

func parseYearMonth(s string) (models.YearMonth, error) {
	ym, err := models.ParseYearMonth(s)
	if err != nil {
		return "", apperr.Validation(err.Error()).WithDetail("field", "year_month")
	}
	return ym, nil
}

// lockOpenMonth holds the warehouse month exclusively and refuses it once any
// of its rows is closed, so a sealed month never gains or changes a row.
func lockOpenMonth(ctx context.Context, tx store.Tx, warehouseID int, ym models.YearMonth) error {
	closed, err := tx.Closings().LockMonth(ctx, warehouseID, ym)
	if err != nil {
		return err
	}
	if closed {
		return apperr.AlreadyClosed(warehouseID, ym.String())
	}
	return nil
}

// computeClosingTx derives (or re-derives) the closing row of one key.
// A recorded actual is kept and its diff refreshed. Callers hold lockOpenMonth.
func computeClosingTx(ctx context.Context, tx store.Tx, warehouseID, itemID int, ym models.YearMonth) (*models.MonthlyClosing, error) {
	row, err := tx.Closings().FindForUpdate(ctx, warehouseID, itemID, ym)
	if err != nil {
		return nil, err
	}
	if row != nil && row.IsClosed {
		return nil, apperr.AlreadyClosed(warehouseID, ym.String()).WithDetail("item_id", fmt.Sprint(itemID))
	}
	if row == nil {
		row = &models.MonthlyClosing{WarehouseID: warehouseID, ItemID: itemID, YearMonth: ym}
	}

	opening := 0
	prev, err := tx.Closings().Find(ctx, warehouseID, itemID, ym.Previous())
	if err != nil {
		return nil, err
	}
	if prev != nil {
		opening = prev.CarryForwardQuantity()
	}

	from, to := ym.Range(timeutil.Location)
	totals, err := tx.Stock().SumMovements(ctx, warehouseID, itemID, from, to)
	if err != nil {
		return nil, err
	}

	row.OpeningQuantity = opening
	row.InQuantity = totals.InQuantity
	row.OutQuantity = totals.OutQuantity
	row.InAmount = totals.InAmount
	row.OutAmount = totals.OutAmount
	row.CalculatedQuantity = opening + totals.InQuantity - totals.OutQuantity
	row.ComputedAt = timeutil.Now()
	if row.ActualQuantity != nil && row.ActualUnitPrice != nil {
		row.ApplyActual(*row.ActualQuantity, *row.ActualUnitPrice)
	}

	if err := tx.Closings().Save(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// ComputeClosing derives the closing row of one (warehouse, item, month)
func (s *ClosingService) ComputeClosing(ctx context.Context, warehouseID, itemID int, yearMonth string) (*models.MonthlyClosing, error) {
	ym, err := parseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}
	release, err := cache.LockClosing(ctx, warehouseID, ym.String())
	if err != nil {
		return nil, err
	}
	defer release()

	var row *models.MonthlyClosing
	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Catalog().GetWarehouse(ctx, warehouseID); err != nil {
			return err
		}
		if _, err := tx.Catalog().GetItem(ctx, itemID); err != nil {
			return err
		}
		if err := lockOpenMonth(ctx, tx, warehouseID, ym); err != nil {
			return err
		}
		row, err = computeClosingTx(ctx, tx, warehouseID, itemID, ym)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// ComputeWarehouseClosing derives the rows of every item stocked in the warehouse
func (s *ClosingService) ComputeWarehouseClosing(ctx context.Context, warehouseID int, yearMonth string) ([]models.MonthlyClosing, error) {
	ym, err := parseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}
	release, err := cache.LockClosing(ctx, warehouseID, ym.String())
	if err != nil {
		return nil, err
	}
	defer release()

	var rows []models.MonthlyClosing
	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Catalog().GetWarehouse(ctx, warehouseID); err != nil {
			return err
		}
		if err := lockOpenMonth(ctx, tx, warehouseID, ym); err != nil {
			return err
		}
		stock, err := tx.Stock().ListStock(ctx, warehouseID)
		if err != nil {
			return err
		}
		rows = make([]models.MonthlyClosing, 0, len(stock))
		for _, st := range stock {
			row, err := computeClosingTx(ctx, tx, warehouseID, st.ItemID, ym)
			if err != nil {
				return err
			}
			rows = append(rows, *row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func validateActual(qty int, unitPrice int64) *apperr.AppError {
	if qty < 0 {
		return apperr.Validation("actual quantity must not be negative")
	}
	if unitPrice < 0 {
		return apperr.Validation("actual unit price must not be negative")
	}
	return nil
}

func observeDiff(row *models.MonthlyClosing) {
	if row.DiffQuantity != nil {
		metrics.ClosingDiffQuantity.Observe(float64(abs(*row.DiffQuantity)))
	}
}

// RecordActual stores a physical count against an existing closing row
func (s *ClosingService) RecordActual(ctx context.Context, closingID int, req *models.RecordActualRequest) (*models.MonthlyClosing, error) {
	if err := validateActual(req.ActualQuantity, req.ActualUnitPrice); err != nil {
		return nil, err
	}

	var row *models.MonthlyClosing
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		// month lock before the row lock, the same order Close takes them
		found, err := tx.Closings().Get(ctx, closingID)
		if err != nil {
			return err
		}
		if err := lockOpenMonth(ctx, tx, found.WarehouseID, found.YearMonth); err != nil {
			return err
		}
		row, err = tx.Closings().Lock(ctx, closingID)
		if err != nil {
			return err
		}
		if row.IsClosed {
			return apperr.AlreadyClosed(row.WarehouseID, row.YearMonth.String())
		}
		row.ApplyActual(req.ActualQuantity, req.ActualUnitPrice)
		return tx.Closings().Save(ctx, row)
	})
	if err != nil {
		return nil, err
	}

	observeDiff(row)
	return row, nil
}

// SaveClosing computes the listed items of a warehouse month and records their
// counts in one unit of work
func (s *ClosingService) SaveClosing(ctx context.Context, req *models.SaveClosingRequest) ([]models.MonthlyClosing, error) {
	ym, err := parseYearMonth(req.YearMonth)
	if err != nil {
		return nil, err
	}
	seen := map[int]bool{}
	for _, a := range req.Actuals {
		if err := validateActual(a.ActualQuantity, a.ActualUnitPrice); err != nil {
			return nil, err.WithDetail("item_id", fmt.Sprint(a.ItemID))
		}
		if seen[a.ItemID] {
			return nil, apperr.Validation(fmt.Sprintf("item %d appears more than once", a.ItemID))
		}
		seen[a.ItemID] = true
	}

	release, err := cache.LockClosing(ctx, req.WarehouseID, ym.String())
	if err != nil {
		return nil, err
	}
	defer release()

	var rows []models.MonthlyClosing
	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Catalog().GetWarehouse(ctx, req.WarehouseID); err != nil {
			return err
		}
		if err := lockOpenMonth(ctx, tx, req.WarehouseID, ym); err != nil {
			return err
		}
		rows = make([]models.MonthlyClosing, 0, len(req.Actuals))
		for _, a := range req.Actuals {
			if _, err := tx.Catalog().GetItem(ctx, a.ItemID); err != nil {
				return err
			}
			row, err := computeClosingTx(ctx, tx, req.WarehouseID, a.ItemID, ym)
			if err != nil {
				return err
			}
			row.ApplyActual(a.ActualQuantity, a.ActualUnitPrice)
			if err := tx.Closings().Save(ctx, row); err != nil {
				return err
			}
			rows = append(rows, *row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range rows {
		observeDiff(&rows[i])
	}
	return rows, nil
}

// Close seals every row of a warehouse month. All rows close together or none do.
func (s *ClosingService) Close(ctx context.Context, warehouseID int, yearMonth string, userID int) ([]models.MonthlyClosing, error) {
	ym, err := parseYearMonth(yearMonth)
	if err != nil {
		return nil, err
	}
	release, err := cache.LockClosing(ctx, warehouseID, ym.String())
	if err != nil {
		return nil, err
	}
	defer release()

	var rows []models.MonthlyClosing
	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := lockOpenMonth(ctx, tx, warehouseID, ym); err != nil {
			return err
		}
		locked, err := tx.Closings().LockWarehouseMonth(ctx, warehouseID, ym)
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return apperr.NotFound("closing", fmt.Sprintf("%d/%s", warehouseID, ym))
		}
		ids := make([]int, 0, len(locked))
		for _, row := range locked {
			if row.IsClosed {
				return apperr.AlreadyClosed(warehouseID, ym.String())
			}
			ids = append(ids, row.ID)
		}
		if err := tx.Closings().MarkClosed(ctx, ids, userID, timeutil.Now()); err != nil {
			return err
		}
		rows, err = tx.Closings().List(ctx, models.ClosingFilter{WarehouseID: warehouseID, YearMonth: ym})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.ClosingsClosedTotal.Add(float64(len(rows)))
	return rows, nil
}

func (s *ClosingService) GetClosing(ctx context.Context, closingID int) (*models.MonthlyClosing, error) {
	var row *models.MonthlyClosing
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		row, err = tx.Closings().Get(ctx, closingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *ClosingService) ListClosings(ctx context.Context, filter models.ClosingFilter) ([]models.MonthlyClosing, error) {
	if filter.YearMonth != "" {
		if _, err := parseYearMonth(string(filter.YearMonth)); err != nil {
			return nil, err
		}
	}
	var rows []models.MonthlyClosing
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		rows, err = tx.Closings().List(ctx, filter)
		return err
	})
	return rows, err
}
