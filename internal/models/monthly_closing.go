package models

import (
	"fmt"
	"time"
)

// YearMonth is a closing period in YYYYMM form
type YearMonth string

// ParseYearMonth validates a YYYYMM string
func ParseYearMonth(s string) (YearMonth, error) {
	if len(s) != 6 {
		return "", fmt.Errorf("year_month must be YYYYMM, got %q", s)
	}
	if _, err := time.Parse("200601", s); err != nil {
		return "", fmt.Errorf("year_month must be YYYYMM, got %q", s)
	}
	return YearMonth(s), nil
}

// YearMonthOf returns the period containing t
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth(t.Format("200601"))
}

// Range returns [first instant of the month, first instant of the next month) in loc
func (ym YearMonth) Range(loc *time.Location) (time.Time, time.Time) {
	t, _ := time.ParseInLocation("200601", string(ym), loc)
	return t, t.AddDate(0, 1, 0)
}

// Previous returns the month before ym
func (ym YearMonth) Previous() YearMonth {
	t, _ := time.Parse("200601", string(ym))
	return YearMonth(t.AddDate(0, -1, 0).Format("200601"))
}

func (ym YearMonth) String() string {
	return string(ym)
}

// MonthlyClosing is the month-end reconciliation of one (warehouse, item)
type MonthlyClosing struct {
	ID                 int        `json:"id"`
	WarehouseID        int        `json:"warehouse_id"`
	ItemID             int        `json:"item_id"`
	YearMonth          YearMonth  `json:"year_month"`
	OpeningQuantity    int        `json:"opening_quantity"`
	InQuantity         int        `json:"in_quantity"`
	OutQuantity        int        `json:"out_quantity"`
	InAmount           int64      `json:"in_amount"`
	OutAmount          int64      `json:"out_amount"`
	CalculatedQuantity int        `json:"calculated_quantity"`
	ActualQuantity     *int       `json:"actual_quantity"`
	ActualUnitPrice    *int64     `json:"actual_unit_price"`
	ActualAmount       *int64     `json:"actual_amount"`
	DiffQuantity       *int       `json:"diff_quantity"`
	DiffAmount         *int64     `json:"diff_amount"`
	IsClosed           bool       `json:"is_closed"`
	ClosedByUserID     *int       `json:"closed_by_user_id,omitempty"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`
	ComputedAt         time.Time  `json:"computed_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// CarryForwardQuantity is what the next month opens with: the recorded count,
// or the calculated quantity when the month was never counted, so an uncounted
// month does not reset the following opening to zero.
func (c *MonthlyClosing) CarryForwardQuantity() int {
	if c.ActualQuantity != nil {
		return *c.ActualQuantity
	}
	return c.CalculatedQuantity
}

// ApplyActual records a physical count and refreshes the diff fields
func (c *MonthlyClosing) ApplyActual(qty int, unitPrice int64) {
	amount := int64(qty) * unitPrice
	diff := qty - c.CalculatedQuantity
	diffAmount := int64(diff) * unitPrice
	c.ActualQuantity = &qty
	c.ActualUnitPrice = &unitPrice
	c.ActualAmount = &amount
	c.DiffQuantity = &diff
	c.DiffAmount = &diffAmount
}

type ComputeClosingRequest struct {
	WarehouseID int    `json:"warehouse_id" validate:"required,gt=0"`
	ItemID      int    `json:"item_id" validate:"gte=0"` // 0 = every stocked item
	YearMonth   string `json:"year_month" validate:"required,len=6,numeric"`
}

type RecordActualRequest struct {
	ActualQuantity  int   `json:"actual_quantity" validate:"gte=0"`
	ActualUnitPrice int64 `json:"actual_unit_price" validate:"gte=0"`
}

type ClosingActualInput struct {
	ItemID          int   `json:"item_id" validate:"required,gt=0"`
	ActualQuantity  int   `json:"actual_quantity" validate:"gte=0"`
	ActualUnitPrice int64 `json:"actual_unit_price" validate:"gte=0"`
}

type SaveClosingRequest struct {
	WarehouseID int                  `json:"warehouse_id" validate:"required,gt=0"`
	YearMonth   string               `json:"year_month" validate:"required,len=6,numeric"`
	Actuals     []ClosingActualInput `json:"actuals" validate:"dive"`
}

type CloseRequest struct {
	WarehouseID int    `json:"warehouse_id" validate:"required,gt=0"`
	YearMonth   string `json:"year_month" validate:"required,len=6,numeric"`
}

// ClosingFilter is used for listing closings
type ClosingFilter struct {
	WarehouseID int       `json:"warehouse_id"`
	ItemID      int       `json:"item_id"`
	YearMonth   YearMonth `json:"year_month"`
}
