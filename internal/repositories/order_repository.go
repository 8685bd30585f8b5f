package repositories

import (
	"context"
	"fmt"
	"time"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/timeutil"
)

type OrderRepository struct {
	DB DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{DB: db}
}

const orderColumns = `id, order_no, customer_id, warehouse_id, vehicle_id, delivery_status, payment_status,
	taxable_amount, tax_free_amount, supply_amount, vat_amount, total_amount, total_quantity,
	memo, ordered_at, completed_at, created_by_user_id, created_at, updated_at`

func scanOrder(row rowScanner) (*models.OrderHeader, error) {
	var o models.OrderHeader
	err := row.Scan(&o.ID, &o.OrderNo, &o.CustomerID, &o.WarehouseID, &o.VehicleID,
		&o.DeliveryStatus, &o.PaymentStatus,
		&o.TaxableAmount, &o.TaxFreeAmount, &o.SupplyAmount, &o.VatAmount, &o.TotalAmount,
		&o.TotalQuantity, &o.Memo, &o.OrderedAt, &o.CompletedAt, &o.CreatedByUserID,
		&o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

const lineColumns = `id, order_id, item_id, release_warehouse_id, unit_price, order_quantity,
	returned_quantity, taxable_amount, tax_free_amount, supply_amount, vat_amount, total_amount,
	created_at, updated_at`

func scanLine(row rowScanner) (*models.OrderLine, error) {
	var l models.OrderLine
	err := row.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.ReleaseWarehouseID, &l.UnitPrice,
		&l.OrderQuantity, &l.ReturnedQuantity,
		&l.TaxableAmount, &l.TaxFreeAmount, &l.SupplyAmount, &l.VatAmount, &l.TotalAmount,
		&l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

// NextOrderNo bumps the per-day counter; the row lock serializes concurrent creators
func (r *OrderRepository) NextOrderNo(ctx context.Context, day time.Time) (string, error) {
	prefix := timeutil.In(day).Format(timeutil.OrderDayLayout)
	var n int
	err := r.DB.QueryRow(ctx,
		`INSERT INTO order_sequences(order_day, last_no) VALUES($1, 1)
         ON CONFLICT (order_day) DO UPDATE SET last_no = order_sequences.last_no + 1
         RETURNING last_no`, prefix).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("failed to issue order number: %w", err)
	}
	return fmt.Sprintf("%s-%04d", prefix, n), nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, o *models.OrderHeader) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO order_headers(
            order_no, customer_id, warehouse_id, vehicle_id, delivery_status, payment_status,
            taxable_amount, tax_free_amount, supply_amount, vat_amount, total_amount, total_quantity,
            memo, ordered_at, completed_at, created_by_user_id
         ) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
         RETURNING id, created_at, updated_at`,
		o.OrderNo, o.CustomerID, o.WarehouseID, o.VehicleID, o.DeliveryStatus, o.PaymentStatus,
		o.TaxableAmount, o.TaxFreeAmount, o.SupplyAmount, o.VatAmount, o.TotalAmount, o.TotalQuantity,
		o.Memo, o.OrderedAt, o.CompletedAt, o.CreatedByUserID,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) UpdateOrder(ctx context.Context, o *models.OrderHeader) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE order_headers SET
            vehicle_id=$1, delivery_status=$2, payment_status=$3,
            taxable_amount=$4, tax_free_amount=$5, supply_amount=$6, vat_amount=$7, total_amount=$8,
            total_quantity=$9, memo=$10, completed_at=$11, updated_at=NOW()
         WHERE id=$12
         RETURNING updated_at`,
		o.VehicleID, o.DeliveryStatus, o.PaymentStatus,
		o.TaxableAmount, o.TaxFreeAmount, o.SupplyAmount, o.VatAmount, o.TotalAmount,
		o.TotalQuantity, o.Memo, o.CompletedAt, o.ID,
	).Scan(&o.UpdatedAt)
	if isNoRows(err) {
		return apperr.NotFound("order", o.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func (r *OrderRepository) getOrder(ctx context.Context, id int, lock string) (*models.OrderHeader, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM order_headers WHERE id=$1 `+lock, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, id int) (*models.OrderHeader, error) {
	return r.getOrder(ctx, id, "")
}

func (r *OrderRepository) LockOrder(ctx context.Context, id int) (*models.OrderHeader, error) {
	return r.getOrder(ctx, id, "FOR UPDATE")
}

func (r *OrderRepository) DeleteOrder(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM order_headers WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	return nil
}

func (r *OrderRepository) ListOrders(ctx context.Context, of models.OrderFilter) ([]models.OrderHeader, error) {
	var f filter
	if of.CustomerID != 0 {
		f.add("customer_id = $%d", of.CustomerID)
	}
	if of.WarehouseID != 0 {
		f.add("warehouse_id = $%d", of.WarehouseID)
	}
	if of.DeliveryStatus != "" {
		f.add("delivery_status = $%d", of.DeliveryStatus)
	}
	if of.StartDate != nil {
		f.add("ordered_at >= $%d", *of.StartDate)
	}
	if of.EndDate != nil {
		f.add("ordered_at < $%d", *of.EndDate)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM order_headers
		%s
		ORDER BY ordered_at DESC, id DESC
		%s
	`, orderColumns, f.where(), f.page(of.Limit, of.Offset))

	rows, err := r.DB.Query(ctx, query, f.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.OrderHeader{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) InsertLine(ctx context.Context, l *models.OrderLine) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO order_lines(
            order_id, item_id, release_warehouse_id, unit_price, order_quantity, returned_quantity,
            taxable_amount, tax_free_amount, supply_amount, vat_amount, total_amount
         ) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
         RETURNING id, created_at, updated_at`,
		l.OrderID, l.ItemID, l.ReleaseWarehouseID, l.UnitPrice, l.OrderQuantity, l.ReturnedQuantity,
		l.TaxableAmount, l.TaxFreeAmount, l.SupplyAmount, l.VatAmount, l.TotalAmount,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order line: %w", err)
	}
	return nil
}

func (r *OrderRepository) UpdateLine(ctx context.Context, l *models.OrderLine) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE order_lines SET
            item_id=$1, release_warehouse_id=$2, unit_price=$3, order_quantity=$4, returned_quantity=$5,
            taxable_amount=$6, tax_free_amount=$7, supply_amount=$8, vat_amount=$9, total_amount=$10,
            updated_at=NOW()
         WHERE id=$11
         RETURNING updated_at`,
		l.ItemID, l.ReleaseWarehouseID, l.UnitPrice, l.OrderQuantity, l.ReturnedQuantity,
		l.TaxableAmount, l.TaxFreeAmount, l.SupplyAmount, l.VatAmount, l.TotalAmount, l.ID,
	).Scan(&l.UpdatedAt)
	if isNoRows(err) {
		return apperr.NotFound("order line", l.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update order line: %w", err)
	}
	return nil
}

func (r *OrderRepository) DeleteLine(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM order_lines WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order line %d: %w", id, err)
	}
	return nil
}

func (r *OrderRepository) getLine(ctx context.Context, id int, lock string) (*models.OrderLine, error) {
	l, err := scanLine(r.DB.QueryRow(ctx,
		`SELECT `+lineColumns+` FROM order_lines WHERE id=$1 `+lock, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("order line", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order line: %w", err)
	}
	return l, nil
}

func (r *OrderRepository) GetLine(ctx context.Context, id int) (*models.OrderLine, error) {
	return r.getLine(ctx, id, "")
}

func (r *OrderRepository) LockLine(ctx context.Context, id int) (*models.OrderLine, error) {
	return r.getLine(ctx, id, "FOR UPDATE")
}

func (r *OrderRepository) ListLines(ctx context.Context, orderID int) ([]models.OrderLine, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+lineColumns+` FROM order_lines WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []models.OrderLine{}
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *l)
	}
	return lines, rows.Err()
}
