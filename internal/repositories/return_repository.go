package repositories

import (
	"context"
	"fmt"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
)

type ReturnRepository struct {
	DB DBTX
}

func NewReturnRepository(db DBTX) *ReturnRepository {
	return &ReturnRepository{DB: db}
}

const returnColumns = `id, order_id, order_line_id, customer_id, item_id, warehouse_id, quantity, unit_price,
	status, taxable_amount, tax_free_amount, supply_amount, vat_amount, total_amount, reason,
	requested_by_user_id, processed_by_user_id, processed_at, created_at, updated_at`

func scanReturn(row rowScanner) (*models.ReturnRecord, error) {
	var rec models.ReturnRecord
	err := row.Scan(&rec.ID, &rec.OrderID, &rec.OrderLineID, &rec.CustomerID, &rec.ItemID,
		&rec.WarehouseID, &rec.Quantity, &rec.UnitPrice, &rec.Status,
		&rec.TaxableAmount, &rec.TaxFreeAmount, &rec.SupplyAmount, &rec.VatAmount, &rec.TotalAmount,
		&rec.Reason, &rec.RequestedByUserID, &rec.ProcessedByUserID, &rec.ProcessedAt,
		&rec.CreatedAt, &rec.UpdatedAt)
	return &rec, err
}

func (r *ReturnRepository) Create(ctx context.Context, rec *models.ReturnRecord) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO return_records(
            order_id, order_line_id, customer_id, item_id, warehouse_id, quantity, unit_price, status,
            taxable_amount, tax_free_amount, supply_amount, vat_amount, total_amount, reason,
            requested_by_user_id
         ) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
         RETURNING id, created_at, updated_at`,
		rec.OrderID, rec.OrderLineID, rec.CustomerID, rec.ItemID, rec.WarehouseID, rec.Quantity,
		rec.UnitPrice, rec.Status,
		rec.TaxableAmount, rec.TaxFreeAmount, rec.SupplyAmount, rec.VatAmount, rec.TotalAmount,
		rec.Reason, rec.RequestedByUserID,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create return: %w", err)
	}
	return nil
}

func (r *ReturnRepository) get(ctx context.Context, id int, lock string) (*models.ReturnRecord, error) {
	rec, err := scanReturn(r.DB.QueryRow(ctx,
		`SELECT `+returnColumns+` FROM return_records WHERE id=$1 `+lock, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("return", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get return: %w", err)
	}
	return rec, nil
}

func (r *ReturnRepository) Get(ctx context.Context, id int) (*models.ReturnRecord, error) {
	return r.get(ctx, id, "")
}

func (r *ReturnRepository) Lock(ctx context.Context, id int) (*models.ReturnRecord, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

// Update persists the processing outcome; the quantity and amounts are fixed at creation
func (r *ReturnRepository) Update(ctx context.Context, rec *models.ReturnRecord) error {
	err := r.DB.QueryRow(ctx,
		`UPDATE return_records SET status=$1, processed_by_user_id=$2, processed_at=$3, updated_at=NOW()
         WHERE id=$4
         RETURNING updated_at`,
		rec.Status, rec.ProcessedByUserID, rec.ProcessedAt, rec.ID,
	).Scan(&rec.UpdatedAt)
	if isNoRows(err) {
		return apperr.NotFound("return", rec.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update return: %w", err)
	}
	return nil
}

func (r *ReturnRepository) Delete(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM return_records WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete return %d: %w", id, err)
	}
	return nil
}

func (r *ReturnRepository) List(ctx context.Context, rf models.ReturnFilter) ([]models.ReturnRecord, error) {
	var f filter
	if rf.CustomerID != 0 {
		f.add("customer_id = $%d", rf.CustomerID)
	}
	if rf.OrderID != 0 {
		f.add("order_id = $%d", rf.OrderID)
	}
	if rf.Status != "" {
		f.add("status = $%d", rf.Status)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM return_records
		%s
		ORDER BY id DESC
		%s
	`, returnColumns, f.where(), f.page(rf.Limit, rf.Offset))

	rows, err := r.DB.Query(ctx, query, f.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.ReturnRecord{}
	for rows.Next() {
		rec, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
