package services

import (
	"context"
	"strings"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/store"
)

// CatalogService maintains the reference data the fulfillment core reads:
// customers, items, warehouses and per-customer order limits.
type CatalogService struct {
	Store store.Store
}

func NewCatalogService(s store.Store) *CatalogService {
	return &CatalogService{Store: s}
}

func (s *CatalogService) CreateCustomer(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error) {
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("code and name are required")
	}

	customer := &models.Customer{
		Code:    req.Code,
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Active:  true,
	}
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Catalog().CreateCustomer(ctx, customer)
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *CatalogService) GetCustomer(ctx context.Context, id int) (*models.Customer, error) {
	var customer *models.Customer
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		customer, err = tx.Catalog().GetCustomer(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *CatalogService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		customers, err = tx.Catalog().ListCustomers(ctx)
		return err
	})
	return customers, err
}

func (s *CatalogService) CreateItem(ctx context.Context, req *models.CreateItemRequest) (*models.Item, error) {
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("code and name are required")
	}
	if req.MinOrderQuantity < 0 || req.MaxOrderQuantity < 0 {
		return nil, apperr.Validation("order quantity bounds must not be negative")
	}
	if req.MaxOrderQuantity > 0 && req.MinOrderQuantity > req.MaxOrderQuantity {
		return nil, apperr.Validation("min_order_quantity exceeds max_order_quantity")
	}

	item := &models.Item{
		Code:             req.Code,
		Name:             req.Name,
		BrandName:        req.BrandName,
		Taxable:          req.Taxable,
		MinOrderQuantity: req.MinOrderQuantity,
		MaxOrderQuantity: req.MaxOrderQuantity,
		Active:           true,
	}
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Catalog().CreateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CatalogService) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		items, err = tx.Catalog().ListItems(ctx)
		return err
	})
	return items, err
}

func (s *CatalogService) CreateWarehouse(ctx context.Context, req *models.CreateWarehouseRequest) (*models.Warehouse, error) {
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("code and name are required")
	}

	warehouse := &models.Warehouse{
		Code:         req.Code,
		Name:         req.Name,
		DistCenterID: req.DistCenterID,
		Active:       true,
	}
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.Catalog().CreateWarehouse(ctx, warehouse)
	})
	if err != nil {
		return nil, err
	}
	return warehouse, nil
}

func (s *CatalogService) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		warehouses, err = tx.Catalog().ListWarehouses(ctx)
		return err
	})
	return warehouses, err
}

// SetOrderLimit caps the per-order quantity of an item for a customer; 0 clears it
func (s *CatalogService) SetOrderLimit(ctx context.Context, customerID int, req *models.SetOrderLimitRequest) (*models.CustomerOrderLimit, error) {
	if req.MaxQuantity < 0 {
		return nil, apperr.Validation("max_quantity must not be negative")
	}
	limit := models.CustomerOrderLimit{CustomerID: customerID, ItemID: req.ItemID, MaxQuantity: req.MaxQuantity}
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Catalog().GetCustomer(ctx, customerID); err != nil {
			return err
		}
		if _, err := tx.Catalog().GetItem(ctx, req.ItemID); err != nil {
			return err
		}
		return tx.Catalog().SetOrderLimit(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	return &limit, nil
}
