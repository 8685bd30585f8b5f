package memory

import (
	"context"
	"sort"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/timeutil"
)

type catalogRepo struct{ st *state }

func (r catalogRepo) GetItem(ctx context.Context, id int) (*models.Item, error) {
	item, ok := r.st.items[id]
	if !ok {
		return nil, apperr.NotFound("item", id)
	}
	return &item, nil
}

func (r catalogRepo) GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	c, ok := r.st.customers[id]
	if !ok {
		return nil, apperr.NotFound("customer", id)
	}
	return &c, nil
}

func (r catalogRepo) GetWarehouse(ctx context.Context, id int) (*models.Warehouse, error) {
	w, ok := r.st.warehouses[id]
	if !ok {
		return nil, apperr.NotFound("warehouse", id)
	}
	return &w, nil
}

func (r catalogRepo) FindOrderLimit(ctx context.Context, customerID, itemID int) (*models.CustomerOrderLimit, error) {
	l, ok := r.st.limits[limitKey{customerID, itemID}]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r catalogRepo) CreateItem(ctx context.Context, item *models.Item) error {
	now := timeutil.Now()
	item.ID = r.st.nextID("items")
	item.CreatedAt, item.UpdatedAt = now, now
	r.st.items[item.ID] = *item
	return nil
}

func (r catalogRepo) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	now := timeutil.Now()
	customer.ID = r.st.nextID("customers")
	customer.CreatedAt, customer.UpdatedAt = now, now
	r.st.customers[customer.ID] = *customer
	return nil
}

func (r catalogRepo) CreateWarehouse(ctx context.Context, warehouse *models.Warehouse) error {
	warehouse.ID = r.st.nextID("warehouses")
	warehouse.CreatedAt = timeutil.Now()
	r.st.warehouses[warehouse.ID] = *warehouse
	return nil
}

func (r catalogRepo) SetOrderLimit(ctx context.Context, limit models.CustomerOrderLimit) error {
	key := limitKey{limit.CustomerID, limit.ItemID}
	if limit.MaxQuantity == 0 {
		delete(r.st.limits, key)
		return nil
	}
	r.st.limits[key] = limit
	return nil
}

func (r catalogRepo) ListItems(ctx context.Context) ([]models.Item, error) {
	return sortedByID(r.st.items, func(i models.Item) int { return i.ID }), nil
}

func (r catalogRepo) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return sortedByID(r.st.customers, func(c models.Customer) int { return c.ID }), nil
}

func (r catalogRepo) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	return sortedByID(r.st.warehouses, func(w models.Warehouse) int { return w.ID }), nil
}

func sortedByID[T any](rows map[int]T, id func(T) int) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}
