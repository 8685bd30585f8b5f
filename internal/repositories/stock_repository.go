package repositories

import (
	"context"
	"fmt"
	"time"

	"wholesale-backend/internal/models"
)

type StockRepository struct {
	DB DBTX
}

func NewStockRepository(db DBTX) *StockRepository {
	return &StockRepository{DB: db}
}

const stockColumns = `warehouse_id, item_id, current_quantity, safe_quantity, updated_at`

func scanStock(row rowScanner) (*models.WarehouseStock, error) {
	var s models.WarehouseStock
	err := row.Scan(&s.WarehouseID, &s.ItemID, &s.CurrentQuantity, &s.SafeQuantity, &s.UpdatedAt)
	return &s, err
}

// LockStock creates the row on first touch so the FOR UPDATE always has a target
func (r *StockRepository) LockStock(ctx context.Context, warehouseID, itemID int) (*models.WarehouseStock, error) {
	if _, err := r.DB.Exec(ctx,
		`INSERT INTO warehouse_stock(warehouse_id, item_id) VALUES($1, $2)
         ON CONFLICT (warehouse_id, item_id) DO NOTHING`, warehouseID, itemID); err != nil {
		return nil, fmt.Errorf("failed to initialize stock row: %w", err)
	}

	s, err := scanStock(r.DB.QueryRow(ctx,
		`SELECT `+stockColumns+` FROM warehouse_stock
         WHERE warehouse_id=$1 AND item_id=$2
         FOR UPDATE`, warehouseID, itemID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock: %w", err)
	}
	return s, nil
}

func (r *StockRepository) UpdateQuantity(ctx context.Context, warehouseID, itemID, quantity int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE warehouse_stock SET current_quantity=$1, updated_at=NOW()
         WHERE warehouse_id=$2 AND item_id=$3`, quantity, warehouseID, itemID)
	if err != nil {
		return fmt.Errorf("failed to update stock quantity: %w", err)
	}
	return nil
}

func (r *StockRepository) SetSafeQuantity(ctx context.Context, warehouseID, itemID, safeQuantity int) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO warehouse_stock(warehouse_id, item_id, safe_quantity) VALUES($1, $2, $3)
         ON CONFLICT (warehouse_id, item_id)
         DO UPDATE SET safe_quantity = EXCLUDED.safe_quantity, updated_at = NOW()`,
		warehouseID, itemID, safeQuantity)
	if err != nil {
		return fmt.Errorf("failed to set safe quantity: %w", err)
	}
	return nil
}

func (r *StockRepository) FindStock(ctx context.Context, warehouseID, itemID int) (*models.WarehouseStock, error) {
	s, err := scanStock(r.DB.QueryRow(ctx,
		`SELECT `+stockColumns+` FROM warehouse_stock WHERE warehouse_id=$1 AND item_id=$2`,
		warehouseID, itemID))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return s, nil
}

func (r *StockRepository) ListStock(ctx context.Context, warehouseID int) ([]models.WarehouseStock, error) {
	var f filter
	if warehouseID != 0 {
		f.add("warehouse_id = $%d", warehouseID)
	}
	rows, err := r.DB.Query(ctx,
		`SELECT `+stockColumns+` FROM warehouse_stock `+f.where()+` ORDER BY warehouse_id, item_id`,
		f.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stock := []models.WarehouseStock{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, err
		}
		stock = append(stock, *s)
	}
	return stock, rows.Err()
}

func (r *StockRepository) InsertMovement(ctx context.Context, m *models.StockMovement) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO stock_movements(
            warehouse_id, item_id, movement_date, movement_type, quantity, unit_price, amount,
            reference_type, reference_id, memo, created_by_user_id
         ) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
         RETURNING id, created_at`,
		m.WarehouseID, m.ItemID, m.MovementDate, m.MovementType, m.Quantity, m.UnitPrice, m.Amount,
		m.ReferenceType, m.ReferenceID, m.Memo, m.CreatedByUserID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert stock movement: %w", err)
	}
	return nil
}

func (r *StockRepository) ListMovements(ctx context.Context, mf models.MovementFilter) ([]models.StockMovement, error) {
	var f filter
	if mf.WarehouseID != 0 {
		f.add("warehouse_id = $%d", mf.WarehouseID)
	}
	if mf.ItemID != 0 {
		f.add("item_id = $%d", mf.ItemID)
	}
	if mf.MovementType != "" {
		f.add("movement_type = $%d", mf.MovementType)
	}
	if mf.ReferenceType != "" {
		f.add("reference_type = $%d", mf.ReferenceType)
	}
	if mf.ReferenceID != nil {
		f.add("reference_id = $%d", *mf.ReferenceID)
	}
	if mf.StartDate != nil {
		f.add("movement_date >= $%d", *mf.StartDate)
	}
	if mf.EndDate != nil {
		f.add("movement_date < $%d", *mf.EndDate)
	}

	query := fmt.Sprintf(`
		SELECT id, warehouse_id, item_id, movement_date, movement_type, quantity, unit_price, amount,
			reference_type, reference_id, memo, created_by_user_id, created_at
		FROM stock_movements
		%s
		ORDER BY movement_date, id
		%s
	`, f.where(), f.page(mf.Limit, mf.Offset))

	rows, err := r.DB.Query(ctx, query, f.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := []models.StockMovement{}
	for rows.Next() {
		var m models.StockMovement
		err := rows.Scan(&m.ID, &m.WarehouseID, &m.ItemID, &m.MovementDate, &m.MovementType,
			&m.Quantity, &m.UnitPrice, &m.Amount, &m.ReferenceType, &m.ReferenceID, &m.Memo,
			&m.CreatedByUserID, &m.CreatedAt)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *StockRepository) SumMovements(ctx context.Context, warehouseID, itemID int, from, to time.Time) (models.MovementTotals, error) {
	var t models.MovementTotals
	err := r.DB.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(quantity) FILTER (WHERE quantity > 0), 0),
			COALESCE(-SUM(quantity) FILTER (WHERE quantity < 0), 0),
			COALESCE(SUM(amount) FILTER (WHERE quantity > 0), 0),
			COALESCE(SUM(amount) FILTER (WHERE quantity < 0), 0)
		FROM stock_movements
		WHERE warehouse_id = $1 AND item_id = $2
			AND movement_date >= $3 AND movement_date < $4
	`, warehouseID, itemID, from, to).Scan(&t.InQuantity, &t.OutQuantity, &t.InAmount, &t.OutAmount)
	if err != nil {
		return t, fmt.Errorf("failed to sum stock movements: %w", err)
	}
	return t, nil
}

func (r *StockRepository) NetQuantity(ctx context.Context, warehouseID, itemID int) (int, error) {
	var net int
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM stock_movements WHERE warehouse_id=$1 AND item_id=$2`,
		warehouseID, itemID).Scan(&net)
	if err != nil {
		return 0, fmt.Errorf("failed to replay stock movements: %w", err)
	}
	return net, nil
}
