package memory

import (
	"context"
	"sort"
	"time"

	"wholesale-backend/internal/models"
	"wholesale-backend/internal/timeutil"
)

type stockRepo struct{ st *state }

func (r stockRepo) LockStock(ctx context.Context, warehouseID, itemID int) (*models.WarehouseStock, error) {
	key := stockKey{warehouseID, itemID}
	s, ok := r.st.stock[key]
	if !ok {
		s = models.WarehouseStock{WarehouseID: warehouseID, ItemID: itemID, UpdatedAt: timeutil.Now()}
		r.st.stock[key] = s
	}
	return &s, nil
}

func (r stockRepo) UpdateQuantity(ctx context.Context, warehouseID, itemID, quantity int) error {
	key := stockKey{warehouseID, itemID}
	s := r.st.stock[key]
	s.WarehouseID, s.ItemID = warehouseID, itemID
	s.CurrentQuantity = quantity
	s.UpdatedAt = timeutil.Now()
	r.st.stock[key] = s
	return nil
}

func (r stockRepo) SetSafeQuantity(ctx context.Context, warehouseID, itemID, safeQuantity int) error {
	key := stockKey{warehouseID, itemID}
	s := r.st.stock[key]
	s.WarehouseID, s.ItemID = warehouseID, itemID
	s.SafeQuantity = safeQuantity
	s.UpdatedAt = timeutil.Now()
	r.st.stock[key] = s
	return nil
}

func (r stockRepo) FindStock(ctx context.Context, warehouseID, itemID int) (*models.WarehouseStock, error) {
	s, ok := r.st.stock[stockKey{warehouseID, itemID}]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r stockRepo) ListStock(ctx context.Context, warehouseID int) ([]models.WarehouseStock, error) {
	out := []models.WarehouseStock{}
	for key, s := range r.st.stock {
		if warehouseID == 0 || key.warehouseID == warehouseID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarehouseID != out[j].WarehouseID {
			return out[i].WarehouseID < out[j].WarehouseID
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

func (r stockRepo) InsertMovement(ctx context.Context, m *models.StockMovement) error {
	m.ID = r.st.nextID("stock_movements")
	m.CreatedAt = timeutil.Now()
	r.st.movements = append(r.st.movements, *m)
	return nil
}

func (r stockRepo) ListMovements(ctx context.Context, filter models.MovementFilter) ([]models.StockMovement, error) {
	out := []models.StockMovement{}
	for _, m := range r.st.movements {
		if filter.WarehouseID != 0 && m.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.ItemID != 0 && m.ItemID != filter.ItemID {
			continue
		}
		if filter.MovementType != "" && m.MovementType != filter.MovementType {
			continue
		}
		if filter.ReferenceType != "" && m.ReferenceType != filter.ReferenceType {
			continue
		}
		if filter.ReferenceID != nil && (m.ReferenceID == nil || *m.ReferenceID != *filter.ReferenceID) {
			continue
		}
		if filter.StartDate != nil && m.MovementDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && !m.MovementDate.Before(*filter.EndDate) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].MovementDate.Equal(out[j].MovementDate) {
			return out[i].MovementDate.Before(out[j].MovementDate)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r stockRepo) SumMovements(ctx context.Context, warehouseID, itemID int, from, to time.Time) (models.MovementTotals, error) {
	var totals models.MovementTotals
	for _, m := range r.st.movements {
		if m.WarehouseID != warehouseID || m.ItemID != itemID {
			continue
		}
		if m.MovementDate.Before(from) || !m.MovementDate.Before(to) {
			continue
		}
		if m.Quantity > 0 {
			totals.InQuantity += m.Quantity
			totals.InAmount += m.Amount
		} else {
			totals.OutQuantity -= m.Quantity
			totals.OutAmount += m.Amount
		}
	}
	return totals, nil
}

func (r stockRepo) NetQuantity(ctx context.Context, warehouseID, itemID int) (int, error) {
	net := 0
	for _, m := range r.st.movements {
		if m.WarehouseID == warehouseID && m.ItemID == itemID {
			net += m.Quantity
		}
	}
	return net, nil
}
