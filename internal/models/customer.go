package models

import "time"

// Customer is a wholesale account that places orders and carries a ledger balance.
type Customer struct {
	ID        int       `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustomerOrderLimit caps how many units of one item a customer may order at once
type CustomerOrderLimit struct {
	CustomerID  int `json:"customer_id"`
	ItemID      int `json:"item_id"`
	MaxQuantity int `json:"max_quantity"`
}

// CreateCustomerRequest represents the request body for creating a customer
type CreateCustomerRequest struct {
	Code    string `json:"code" validate:"required,max=32"`
	Name    string `json:"name" validate:"required,max=100"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	Address string `json:"address"`
}

// SetOrderLimitRequest represents the request body for a per-customer item limit.
// A MaxQuantity of 0 removes the limit.
type SetOrderLimitRequest struct {
	ItemID      int `json:"item_id" validate:"required,gt=0"`
	MaxQuantity int `json:"max_quantity" validate:"gte=0"`
}
