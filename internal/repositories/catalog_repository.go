package repositories

import (
	"context"
	"fmt"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
)

type CatalogRepository struct {
	DB DBTX
}

func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

const itemColumns = `id, code, name, brand_name, taxable, min_order_quantity, max_order_quantity,
	active, created_at, updated_at`

func scanItem(row rowScanner) (*models.Item, error) {
	var i models.Item
	err := row.Scan(&i.ID, &i.Code, &i.Name, &i.BrandName, &i.Taxable, &i.MinOrderQuantity,
		&i.MaxOrderQuantity, &i.Active, &i.CreatedAt, &i.UpdatedAt)
	return &i, err
}

const customerColumns = `id, code, name, phone, address, active, created_at, updated_at`

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Phone, &c.Address, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

const warehouseColumns = `id, code, name, dist_center_id, active, created_at`

func scanWarehouse(row rowScanner) (*models.Warehouse, error) {
	var w models.Warehouse
	err := row.Scan(&w.ID, &w.Code, &w.Name, &w.DistCenterID, &w.Active, &w.CreatedAt)
	return &w, err
}

func (r *CatalogRepository) GetItem(ctx context.Context, id int) (*models.Item, error) {
	item, err := scanItem(r.DB.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1`, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (r *CatalogRepository) GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	c, err := scanCustomer(r.DB.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=$1`, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("customer", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

func (r *CatalogRepository) GetWarehouse(ctx context.Context, id int) (*models.Warehouse, error) {
	w, err := scanWarehouse(r.DB.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id=$1`, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("warehouse", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get warehouse: %w", err)
	}
	return w, nil
}

func (r *CatalogRepository) FindOrderLimit(ctx context.Context, customerID, itemID int) (*models.CustomerOrderLimit, error) {
	var l models.CustomerOrderLimit
	err := r.DB.QueryRow(ctx,
		`SELECT customer_id, item_id, max_quantity FROM customer_order_limits
         WHERE customer_id=$1 AND item_id=$2`, customerID, itemID,
	).Scan(&l.CustomerID, &l.ItemID, &l.MaxQuantity)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order limit: %w", err)
	}
	return &l, nil
}

func (r *CatalogRepository) CreateItem(ctx context.Context, i *models.Item) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO items(code, name, brand_name, taxable, min_order_quantity, max_order_quantity, active)
         VALUES($1, $2, $3, $4, $5, $6, $7)
         RETURNING id, created_at, updated_at`,
		i.Code, i.Name, i.BrandName, i.Taxable, i.MinOrderQuantity, i.MaxOrderQuantity, i.Active,
	).Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
}

func (r *CatalogRepository) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO customers(code, name, phone, address, active)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id, created_at, updated_at`,
		c.Code, c.Name, c.Phone, c.Address, c.Active,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CatalogRepository) CreateWarehouse(ctx context.Context, w *models.Warehouse) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO warehouses(code, name, dist_center_id, active)
         VALUES($1, $2, $3, $4)
         RETURNING id, created_at`,
		w.Code, w.Name, w.DistCenterID, w.Active,
	).Scan(&w.ID, &w.CreatedAt)
}

func (r *CatalogRepository) SetOrderLimit(ctx context.Context, l models.CustomerOrderLimit) error {
	if l.MaxQuantity == 0 {
		_, err := r.DB.Exec(ctx,
			`DELETE FROM customer_order_limits WHERE customer_id=$1 AND item_id=$2`, l.CustomerID, l.ItemID)
		return err
	}
	_, err := r.DB.Exec(ctx,
		`INSERT INTO customer_order_limits(customer_id, item_id, max_quantity)
         VALUES($1, $2, $3)
         ON CONFLICT (customer_id, item_id) DO UPDATE SET max_quantity = EXCLUDED.max_quantity`,
		l.CustomerID, l.ItemID, l.MaxQuantity)
	return err
}

func (r *CatalogRepository) ListItems(ctx context.Context) ([]models.Item, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *CatalogRepository) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (r *CatalogRepository) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+warehouseColumns+` FROM warehouses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	warehouses := []models.Warehouse{}
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, err
		}
		warehouses = append(warehouses, *w)
	}
	return warehouses, rows.Err()
}
