package models

import "time"

// Item is a sellable catalog entry. Taxable items carry VAT on their supply amount.
type Item struct {
	ID               int       `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	BrandName        string    `json:"brand_name"`
	Taxable          bool      `json:"taxable"`
	MinOrderQuantity int       `json:"min_order_quantity"`
	MaxOrderQuantity int       `json:"max_order_quantity"` // 0 = unbounded
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CreateItemRequest struct {
	Code             string `json:"code" validate:"required,max=32"`
	Name             string `json:"name" validate:"required,max=100"`
	BrandName        string `json:"brand_name"`
	Taxable          bool   `json:"taxable"`
	MinOrderQuantity int    `json:"min_order_quantity" validate:"gte=0"`
	MaxOrderQuantity int    `json:"max_order_quantity" validate:"gte=0"`
}

// Warehouse is a stock-holding location; DistCenterID groups warehouses.
type Warehouse struct {
	ID           int       `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	DistCenterID *int      `json:"dist_center_id,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateWarehouseRequest struct {
	Code         string `json:"code" validate:"required,max=32"`
	Name         string `json:"name" validate:"required,max=100"`
	DistCenterID *int   `json:"dist_center_id"`
}
