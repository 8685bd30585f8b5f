package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
)

type ClosingRepository struct {
	DB DBTX
}

func NewClosingRepository(db DBTX) *ClosingRepository {
	return &ClosingRepository{DB: db}
}

const closingColumns = `id, warehouse_id, item_id, year_month, opening_quantity, in_quantity, out_quantity,
	in_amount, out_amount, calculated_quantity, actual_quantity, actual_unit_price, actual_amount,
	diff_quantity, diff_amount, is_closed, closed_by_user_id, closed_at, computed_at, created_at, updated_at`

func scanClosing(row rowScanner) (*models.MonthlyClosing, error) {
	var c models.MonthlyClosing
	err := row.Scan(&c.ID, &c.WarehouseID, &c.ItemID, &c.YearMonth, &c.OpeningQuantity,
		&c.InQuantity, &c.OutQuantity, &c.InAmount, &c.OutAmount, &c.CalculatedQuantity,
		&c.ActualQuantity, &c.ActualUnitPrice, &c.ActualAmount, &c.DiffQuantity, &c.DiffAmount,
		&c.IsClosed, &c.ClosedByUserID, &c.ClosedAt, &c.ComputedAt, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *ClosingRepository) queryClosings(ctx context.Context, query string, args ...any) ([]models.MonthlyClosing, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	closings := []models.MonthlyClosing{}
	for rows.Next() {
		c, err := scanClosing(rows)
		if err != nil {
			return nil, err
		}
		closings = append(closings, *c)
	}
	return closings, rows.Err()
}

func (r *ClosingRepository) find(ctx context.Context, warehouseID, itemID int, ym models.YearMonth, lock string) (*models.MonthlyClosing, error) {
	c, err := scanClosing(r.DB.QueryRow(ctx,
		`SELECT `+closingColumns+` FROM monthly_closings
         WHERE warehouse_id=$1 AND item_id=$2 AND year_month=$3 `+lock,
		warehouseID, itemID, ym))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get closing: %w", err)
	}
	return c, nil
}

func (r *ClosingRepository) Find(ctx context.Context, warehouseID, itemID int, ym models.YearMonth) (*models.MonthlyClosing, error) {
	return r.find(ctx, warehouseID, itemID, ym, "")
}

func (r *ClosingRepository) FindForUpdate(ctx context.Context, warehouseID, itemID int, ym models.YearMonth) (*models.MonthlyClosing, error) {
	return r.find(ctx, warehouseID, itemID, ym, "FOR UPDATE")
}

func (r *ClosingRepository) get(ctx context.Context, id int, lock string) (*models.MonthlyClosing, error) {
	c, err := scanClosing(r.DB.QueryRow(ctx,
		`SELECT `+closingColumns+` FROM monthly_closings WHERE id=$1 `+lock, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("closing", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get closing: %w", err)
	}
	return c, nil
}

func (r *ClosingRepository) Get(ctx context.Context, id int) (*models.MonthlyClosing, error) {
	return r.get(ctx, id, "")
}

func (r *ClosingRepository) Lock(ctx context.Context, id int) (*models.MonthlyClosing, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *ClosingRepository) Save(ctx context.Context, c *models.MonthlyClosing) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO monthly_closings (
			warehouse_id, item_id, year_month, opening_quantity, in_quantity, out_quantity,
			in_amount, out_amount, calculated_quantity, actual_quantity, actual_unit_price,
			actual_amount, diff_quantity, diff_amount, is_closed, closed_by_user_id, closed_at,
			computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (warehouse_id, item_id, year_month) DO UPDATE SET
			opening_quantity = EXCLUDED.opening_quantity,
			in_quantity = EXCLUDED.in_quantity,
			out_quantity = EXCLUDED.out_quantity,
			in_amount = EXCLUDED.in_amount,
			out_amount = EXCLUDED.out_amount,
			calculated_quantity = EXCLUDED.calculated_quantity,
			actual_quantity = EXCLUDED.actual_quantity,
			actual_unit_price = EXCLUDED.actual_unit_price,
			actual_amount = EXCLUDED.actual_amount,
			diff_quantity = EXCLUDED.diff_quantity,
			diff_amount = EXCLUDED.diff_amount,
			is_closed = EXCLUDED.is_closed,
			closed_by_user_id = EXCLUDED.closed_by_user_id,
			closed_at = EXCLUDED.closed_at,
			computed_at = EXCLUDED.computed_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`,
		c.WarehouseID, c.ItemID, c.YearMonth, c.OpeningQuantity, c.InQuantity, c.OutQuantity,
		c.InAmount, c.OutAmount, c.CalculatedQuantity, c.ActualQuantity, c.ActualUnitPrice,
		c.ActualAmount, c.DiffQuantity, c.DiffAmount, c.IsClosed, c.ClosedByUserID, c.ClosedAt,
		c.ComputedAt,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save closing: %w", err)
	}
	return nil
}

func (r *ClosingRepository) LockWarehouseMonth(ctx context.Context, warehouseID int, ym models.YearMonth) ([]models.MonthlyClosing, error) {
	return r.queryClosings(ctx, `
		SELECT `+closingColumns+`
		FROM monthly_closings
		WHERE warehouse_id = $1 AND year_month = $2
		ORDER BY item_id
		FOR UPDATE
	`, warehouseID, ym)
}

// closingLockSpace tags warehouse-month advisory keys. They use the single
// bigint key form, which never collides with the two-int ledger keys.
const closingLockSpace = 7302

func monthLockKey(warehouseID int, ym models.YearMonth) (int64, error) {
	n, err := strconv.Atoi(string(ym))
	if err != nil {
		return 0, fmt.Errorf("invalid year month %q: %w", ym, err)
	}
	return int64(closingLockSpace)<<40 | int64(warehouseID)<<20 | int64(n), nil
}

func (r *ClosingRepository) lockMonth(ctx context.Context, warehouseID int, ym models.YearMonth, fn string) (bool, error) {
	key, err := monthLockKey(warehouseID, ym)
	if err != nil {
		return false, err
	}
	if _, err := r.DB.Exec(ctx, `SELECT `+fn+`($1)`, key); err != nil {
		return false, fmt.Errorf("failed to lock closing month: %w", err)
	}
	var closed bool
	err = r.DB.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM monthly_closings
			WHERE warehouse_id = $1 AND year_month = $2 AND is_closed
		)
	`, warehouseID, ym).Scan(&closed)
	if err != nil {
		return false, fmt.Errorf("failed to check closing month: %w", err)
	}
	return closed, nil
}

func (r *ClosingRepository) LockMonth(ctx context.Context, warehouseID int, ym models.YearMonth) (bool, error) {
	return r.lockMonth(ctx, warehouseID, ym, "pg_advisory_xact_lock")
}

func (r *ClosingRepository) ShareMonth(ctx context.Context, warehouseID int, ym models.YearMonth) (bool, error) {
	return r.lockMonth(ctx, warehouseID, ym, "pg_advisory_xact_lock_shared")
}

func (r *ClosingRepository) MarkClosed(ctx context.Context, ids []int, closedByUserID int, closedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.DB.Exec(ctx, `
		UPDATE monthly_closings
		SET is_closed = TRUE, closed_by_user_id = $1, closed_at = $2, updated_at = $2
		WHERE id = ANY($3)
	`, closedByUserID, closedAt, ids)
	if err != nil {
		return fmt.Errorf("failed to close monthly closings: %w", err)
	}
	return nil
}

func (r *ClosingRepository) List(ctx context.Context, cf models.ClosingFilter) ([]models.MonthlyClosing, error) {
	var f filter
	if cf.WarehouseID != 0 {
		f.add("warehouse_id = $%d", cf.WarehouseID)
	}
	if cf.ItemID != 0 {
		f.add("item_id = $%d", cf.ItemID)
	}
	if cf.YearMonth != "" {
		f.add("year_month = $%d", cf.YearMonth)
	}
	return r.queryClosings(ctx, fmt.Sprintf(`
		SELECT %s
		FROM monthly_closings
		%s
		ORDER BY year_month, warehouse_id, item_id
	`, closingColumns, f.where()), f.args...)
}
