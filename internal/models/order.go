package models

import "time"

// DeliveryStatus is the delivery state of an order
type DeliveryStatus string

const (
	DeliveryStatusRequested  DeliveryStatus = "REQUESTED"
	DeliveryStatusDelivering DeliveryStatus = "DELIVERING"
	DeliveryStatusCompleted  DeliveryStatus = "COMPLETED"
)

// deliveryTransitions lists the legal edges of the delivery state machine.
// COMPLETED is terminal.
var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusRequested:  {DeliveryStatusDelivering, DeliveryStatusCompleted},
	DeliveryStatusDelivering: {DeliveryStatusRequested, DeliveryStatusCompleted},
}

// CanTransitionTo reports whether an order may move from s to next
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, allowed := range deliveryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus is carried on the order for the billing side; the core never drives it.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// Amounts holds the monetary split shared by order headers, lines and returns.
// Supply = Taxable + TaxFree, Total = Supply + Vat.
type Amounts struct {
	TaxableAmount int64 `json:"taxable_amount"`
	TaxFreeAmount int64 `json:"tax_free_amount"`
	SupplyAmount  int64 `json:"supply_amount"`
	VatAmount     int64 `json:"vat_amount"`
	TotalAmount   int64 `json:"total_amount"`
}

// Add accumulates other into a
func (a *Amounts) Add(other Amounts) {
	a.TaxableAmount += other.TaxableAmount
	a.TaxFreeAmount += other.TaxFreeAmount
	a.SupplyAmount += other.SupplyAmount
	a.VatAmount += other.VatAmount
	a.TotalAmount += other.TotalAmount
}

// OrderHeader is one customer order
type OrderHeader struct {
	ID             int            `json:"id"`
	OrderNo        string         `json:"order_no"`
	CustomerID     int            `json:"customer_id"`
	WarehouseID    int            `json:"warehouse_id"`
	VehicleID      *int           `json:"vehicle_id,omitempty"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
	PaymentStatus  PaymentStatus  `json:"payment_status"`
	Amounts
	TotalQuantity   int        `json:"total_quantity"`
	Memo            string     `json:"memo"`
	OrderedAt       time.Time  `json:"ordered_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedByUserID int        `json:"created_by_user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// OrderLine is one item entry of an order and the unit returns operate against
type OrderLine struct {
	ID                 int   `json:"id"`
	OrderID            int   `json:"order_id"`
	ItemID             int   `json:"item_id"`
	ReleaseWarehouseID int   `json:"release_warehouse_id"`
	UnitPrice          int64 `json:"unit_price"`
	OrderQuantity      int   `json:"order_quantity"`
	ReturnedQuantity   int   `json:"returned_quantity"`
	Amounts
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvailableReturnQuantity is what can still be requested back on this line
func (l OrderLine) AvailableReturnQuantity() int {
	return l.OrderQuantity - l.ReturnedQuantity
}

// OrderDetail is an order with its lines
type OrderDetail struct {
	OrderHeader
	Lines []OrderLine `json:"lines"`
}

// OrderLineInput is one requested line on create/update.
// LineID is only meaningful on update, where it keeps an existing line.
type OrderLineInput struct {
	LineID             int   `json:"line_id,omitempty" validate:"gte=0"`
	ItemID             int   `json:"item_id" validate:"required,gt=0"`
	ReleaseWarehouseID int   `json:"release_warehouse_id,omitempty" validate:"gte=0"`
	Quantity           int   `json:"quantity" validate:"required,gt=0"`
	UnitPrice          int64 `json:"unit_price" validate:"gte=0"`
}

type CreateOrderRequest struct {
	CustomerID  int              `json:"customer_id" validate:"required,gt=0"`
	WarehouseID int              `json:"warehouse_id" validate:"required,gt=0"`
	VehicleID   *int             `json:"vehicle_id"`
	Memo        string           `json:"memo"`
	Lines       []OrderLineInput `json:"lines" validate:"required,min=1,dive"`
}

type UpdateOrderItemsRequest struct {
	Lines []OrderLineInput `json:"lines" validate:"required,min=1,dive"`
}

// OrderFilter is used for listing orders
type OrderFilter struct {
	CustomerID     int            `json:"customer_id"`
	WarehouseID    int            `json:"warehouse_id"`
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
	StartDate      *time.Time     `json:"start_date"`
	EndDate        *time.Time     `json:"end_date"`
	Limit          int            `json:"limit"`
	Offset         int            `json:"offset"`
}
