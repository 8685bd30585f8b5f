package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/store"
	"wholesale-backend/internal/store/memory"
)

const testUserID = 7

// fixture wires every service over a fresh in-memory store with one customer,
// two warehouses and two items (one taxable, one tax free).
type fixture struct {
	store    *memory.Store
	catalog  *CatalogService
	stock    *StockService
	ledger   *LedgerService
	orders   *OrderService
	delivery *DeliveryService
	returns  *ReturnService
	closings *ClosingService

	customer  *models.Customer
	warehouse *models.Warehouse
	secondWH  *models.Warehouse
	item      *models.Item
	freeItem  *models.Item
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	st := memory.New()
	pricing := NewPricing(DefaultVatRate)
	f := &fixture{
		store:    st,
		catalog:  NewCatalogService(st),
		stock:    NewStockService(st),
		ledger:   NewLedgerService(st),
		orders:   NewOrderService(st, pricing),
		delivery: NewDeliveryService(st),
		returns:  NewReturnService(st, pricing),
		closings: NewClosingService(st),
	}

	var err error
	f.customer, err = f.catalog.CreateCustomer(ctx, &models.CreateCustomerRequest{Code: "C001", Name: "Corner Mart"})
	require.NoError(t, err)
	f.warehouse, err = f.catalog.CreateWarehouse(ctx, &models.CreateWarehouseRequest{Code: "W1", Name: "Main"})
	require.NoError(t, err)
	f.secondWH, err = f.catalog.CreateWarehouse(ctx, &models.CreateWarehouseRequest{Code: "W2", Name: "Annex"})
	require.NoError(t, err)
	f.item, err = f.catalog.CreateItem(ctx, &models.CreateItemRequest{Code: "X", Name: "Sparkling Water", Taxable: true})
	require.NoError(t, err)
	f.freeItem, err = f.catalog.CreateItem(ctx, &models.CreateItemRequest{Code: "Y", Name: "Rice", Taxable: false})
	require.NoError(t, err)
	return f
}

// receive books an IN movement
func (f *fixture) receive(t *testing.T, warehouseID, itemID, qty int) {
	t.Helper()
	_, err := f.stock.AdjustStock(context.Background(), &models.AdjustStockRequest{
		WarehouseID:  warehouseID,
		ItemID:       itemID,
		Delta:        qty,
		MovementType: models.MovementTypeIn,
		UnitPrice:    500,
	}, testUserID)
	require.NoError(t, err)
}

func (f *fixture) quantity(t *testing.T, warehouseID, itemID int) int {
	t.Helper()
	qty, err := f.stock.CurrentQuantity(context.Background(), warehouseID, itemID)
	require.NoError(t, err)
	return qty
}

func (f *fixture) requireConserved(t *testing.T, warehouseID, itemID int) {
	t.Helper()
	v, err := f.stock.VerifyStock(context.Background(), warehouseID, itemID)
	require.NoError(t, err)
	require.True(t, v.Consistent, "stock drift %d for warehouse %d item %d", v.Drift, warehouseID, itemID)
}

// order creates a single-line order for f.item at f.warehouse
func (f *fixture) order(t *testing.T, qty int, unitPrice int64) *models.OrderDetail {
	t.Helper()
	detail, err := f.orders.CreateOrder(context.Background(), &models.CreateOrderRequest{
		CustomerID:  f.customer.ID,
		WarehouseID: f.warehouse.ID,
		Lines:       []models.OrderLineInput{{ItemID: f.item.ID, Quantity: qty, UnitPrice: unitPrice}},
	}, testUserID)
	require.NoError(t, err)
	return detail
}

// completedOrder creates and completes a single-line order
func (f *fixture) completedOrder(t *testing.T, qty int, unitPrice int64) *models.OrderDetail {
	t.Helper()
	detail := f.order(t, qty, unitPrice)
	res := f.delivery.Complete(context.Background(), []int{detail.ID}, testUserID)
	require.Equal(t, 1, res.Succeeded)
	return detail
}

func (f *fixture) line(t *testing.T, lineID int) models.OrderLine {
	t.Helper()
	var out models.OrderLine
	err := f.store.WithinTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		l, err := tx.Orders().GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		out = *l
		return nil
	})
	require.NoError(t, err)
	return out
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, apperr.CodeOf(err), "unexpected error: %v", err)
}

func date(t *testing.T, year int, month time.Month, day int) *time.Time {
	t.Helper()
	d := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	return &d
}
