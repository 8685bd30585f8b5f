package memory

import (
	"context"
	"sort"
	"time"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/timeutil"
)

type closingRepo struct{ st *state }

func (r closingRepo) Find(ctx context.Context, warehouseID, itemID int, ym models.YearMonth) (*models.MonthlyClosing, error) {
	for _, c := range r.st.closings {
		if c.WarehouseID == warehouseID && c.ItemID == itemID && c.YearMonth == ym {
			return &c, nil
		}
	}
	return nil, nil
}

func (r closingRepo) FindForUpdate(ctx context.Context, warehouseID, itemID int, ym models.YearMonth) (*models.MonthlyClosing, error) {
	return r.Find(ctx, warehouseID, itemID, ym)
}

func (r closingRepo) Get(ctx context.Context, id int) (*models.MonthlyClosing, error) {
	c, ok := r.st.closings[id]
	if !ok {
		return nil, apperr.NotFound("closing", id)
	}
	return &c, nil
}

func (r closingRepo) Lock(ctx context.Context, id int) (*models.MonthlyClosing, error) {
	return r.Get(ctx, id)
}

func (r closingRepo) Save(ctx context.Context, c *models.MonthlyClosing) error {
	now := timeutil.Now()
	existing, _ := r.Find(ctx, c.WarehouseID, c.ItemID, c.YearMonth)
	if existing != nil {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	} else {
		c.ID = r.st.nextID("monthly_closings")
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	r.st.closings[c.ID] = *c
	return nil
}

func (r closingRepo) LockWarehouseMonth(ctx context.Context, warehouseID int, ym models.YearMonth) ([]models.MonthlyClosing, error) {
	return r.List(ctx, models.ClosingFilter{WarehouseID: warehouseID, YearMonth: ym})
}

// LockMonth only reports the closed flag; the store-wide mutex already
// serializes units of work
func (r closingRepo) LockMonth(ctx context.Context, warehouseID int, ym models.YearMonth) (bool, error) {
	for _, c := range r.st.closings {
		if c.WarehouseID == warehouseID && c.YearMonth == ym && c.IsClosed {
			return true, nil
		}
	}
	return false, nil
}

func (r closingRepo) ShareMonth(ctx context.Context, warehouseID int, ym models.YearMonth) (bool, error) {
	return r.LockMonth(ctx, warehouseID, ym)
}

func (r closingRepo) MarkClosed(ctx context.Context, ids []int, closedByUserID int, closedAt time.Time) error {
	for _, id := range ids {
		c, ok := r.st.closings[id]
		if !ok {
			return apperr.NotFound("closing", id)
		}
		by, at := closedByUserID, closedAt
		c.IsClosed = true
		c.ClosedByUserID = &by
		c.ClosedAt = &at
		c.UpdatedAt = closedAt
		r.st.closings[id] = c
	}
	return nil
}

func (r closingRepo) List(ctx context.Context, filter models.ClosingFilter) ([]models.MonthlyClosing, error) {
	out := []models.MonthlyClosing{}
	for _, c := range r.st.closings {
		if filter.WarehouseID != 0 && c.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.ItemID != 0 && c.ItemID != filter.ItemID {
			continue
		}
		if filter.YearMonth != "" && c.YearMonth != filter.YearMonth {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].YearMonth != out[j].YearMonth {
			return out[i].YearMonth < out[j].YearMonth
		}
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID < out[j].WarehouseID
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}
