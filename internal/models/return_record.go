package models

import "time"

// ReturnStatus is the progress of a return request
type ReturnStatus string

const (
	ReturnStatusUnapproved ReturnStatus = "UNAPPROVED"
	ReturnStatusApproved   ReturnStatus = "APPROVED"
	ReturnStatusRejected   ReturnStatus = "REJECTED"
)

// ReturnRecord is a partial-quantity return against one order line.
// The quantity is reserved on the line from creation until reject/delete.
type ReturnRecord struct {
	ID          int          `json:"id"`
	OrderID     int          `json:"order_id"`
	OrderLineID int          `json:"order_line_id"`
	CustomerID  int          `json:"customer_id"`
	ItemID      int          `json:"item_id"`
	WarehouseID int          `json:"warehouse_id"`
	Quantity    int          `json:"quantity"`
	UnitPrice   int64        `json:"unit_price"`
	Status      ReturnStatus `json:"status"`
	Amounts
	Reason            string     `json:"reason"`
	RequestedByUserID int        `json:"requested_by_user_id"`
	ProcessedByUserID *int       `json:"processed_by_user_id,omitempty"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type CreateReturnRequest struct {
	OrderLineID int    `json:"order_line_id" validate:"required,gt=0"`
	Quantity    int    `json:"quantity"`
	Reason      string `json:"reason" validate:"max=500"`
}

// ReturnFilter is used for listing returns
type ReturnFilter struct {
	CustomerID int          `json:"customer_id"`
	OrderID    int          `json:"order_id"`
	Status     ReturnStatus `json:"status"`
	Limit      int          `json:"limit"`
	Offset     int          `json:"offset"`
}
