package models

import "time"

// MovementType classifies a stock movement
type MovementType string

const (
	MovementTypeIn         MovementType = "IN"
	MovementTypeOut        MovementType = "OUT"
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
)

// Movement reference types
const (
	StockRefOrder     = "order"
	StockRefOrderLine = "order_line"
	StockRefReturn    = "return"
	StockRefManual    = "manual"
)

// WarehouseStock is the materialized quantity for one (warehouse, item)
type WarehouseStock struct {
	WarehouseID     int       `json:"warehouse_id"`
	ItemID          int       `json:"item_id"`
	CurrentQuantity int       `json:"current_quantity"`
	SafeQuantity    int       `json:"safe_quantity"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BelowSafe reports whether the stock fell under its advisory threshold
func (s *WarehouseStock) BelowSafe() bool {
	return s.SafeQuantity > 0 && s.CurrentQuantity < s.SafeQuantity
}

// StockMovement is one append-only entry of the stock log.
// Quantity is signed: positive adds to stock, negative removes.
type StockMovement struct {
	ID              int          `json:"id"`
	WarehouseID     int          `json:"warehouse_id"`
	ItemID          int          `json:"item_id"`
	MovementDate    time.Time    `json:"movement_date"`
	MovementType    MovementType `json:"movement_type"`
	Quantity        int          `json:"quantity"`
	UnitPrice       int64        `json:"unit_price"`
	Amount          int64        `json:"amount"`
	ReferenceType   string       `json:"reference_type"`
	ReferenceID     *int         `json:"reference_id"`
	Memo            string       `json:"memo"`
	CreatedByUserID int          `json:"created_by_user_id"`
	CreatedAt       time.Time    `json:"created_at"`
}

// AdjustStockRequest is the input of a single stock adjustment
type AdjustStockRequest struct {
	WarehouseID   int          `json:"warehouse_id" validate:"required,gt=0"`
	ItemID        int          `json:"item_id" validate:"required,gt=0"`
	Delta         int          `json:"delta" validate:"required"`
	MovementType  MovementType `json:"movement_type" validate:"required,oneof=IN OUT ADJUSTMENT"`
	UnitPrice     int64        `json:"unit_price" validate:"gte=0"`
	MovementDate  *time.Time   `json:"movement_date"`
	ReferenceType string       `json:"reference_type"`
	ReferenceID   *int         `json:"reference_id"`
	Memo          string       `json:"memo"`
}

type SetSafeQuantityRequest struct {
	SafeQuantity int `json:"safe_quantity" validate:"gte=0"`
}

// MovementFilter is used for listing stock movements
type MovementFilter struct {
	WarehouseID   int          `json:"warehouse_id"`
	ItemID        int          `json:"item_id"`
	MovementType  MovementType `json:"movement_type"`
	ReferenceType string       `json:"reference_type"`
	ReferenceID   *int         `json:"reference_id"`
	StartDate     *time.Time   `json:"start_date"`
	EndDate       *time.Time   `json:"end_date"` // exclusive
	Limit         int          `json:"limit"`
	Offset        int          `json:"offset"`
}

// MovementTotals folds movements of a period. OutQuantity and OutAmount are
// reported as positive magnitudes.
type MovementTotals struct {
	InQuantity  int   `json:"in_quantity"`
	OutQuantity int   `json:"out_quantity"`
	InAmount    int64 `json:"in_amount"`
	OutAmount   int64 `json:"out_amount"`
}

// Net is the signed quantity change of the period
func (t MovementTotals) Net() int {
	return t.InQuantity - t.OutQuantity
}

// StockVerification compares the materialized counter with a replay of the log
type StockVerification struct {
	WarehouseID     int  `json:"warehouse_id"`
	ItemID          int  `json:"item_id"`
	CurrentQuantity int  `json:"current_quantity"`
	LedgerQuantity  int  `json:"ledger_quantity"`
	Drift           int  `json:"drift"`
	Consistent      bool `json:"consistent"`
}
