package repositories_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/database"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/repositories"
	"wholesale-backend/internal/services"
	"wholesale-backend/migrations"
)

// startPostgres boots a throwaway database with the schema applied.
// Set INTEGRATION_TESTS=1 to run; Docker must be available.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run PostgreSQL integration tests")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("wholesale"),
		postgres.WithUsername("wholesale"),
		postgres.WithPassword("wholesale"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.NewMigrator(pool, migrations.FS).RunMigrations(ctx))
	return pool
}

type pgFixture struct {
	catalog  *services.CatalogService
	stock    *services.StockService
	ledger   *services.LedgerService
	orders   *services.OrderService
	delivery *services.DeliveryService
	returns  *services.ReturnService
	closings *services.ClosingService

	customer  *models.Customer
	warehouse *models.Warehouse
	item      *models.Item
}

func newPgFixture(t *testing.T) *pgFixture {
	t.Helper()
	ctx := context.Background()
	st := repositories.NewPostgresStore(startPostgres(t))
	pricing := services.NewPricing(services.DefaultVatRate)

	f := &pgFixture{
		catalog:  services.NewCatalogService(st),
		stock:    services.NewStockService(st),
		ledger:   services.NewLedgerService(st),
		orders:   services.NewOrderService(st, pricing),
		delivery: services.NewDeliveryService(st),
		returns:  services.NewReturnService(st, pricing),
		closings: services.NewClosingService(st),
	}

	var err error
	f.customer, err = f.catalog.CreateCustomer(ctx, &models.CreateCustomerRequest{Code: "C001", Name: "Corner Mart"})
	require.NoError(t, err)
	f.warehouse, err = f.catalog.CreateWarehouse(ctx, &models.CreateWarehouseRequest{Code: "W1", Name: "Main"})
	require.NoError(t, err)
	f.item, err = f.catalog.CreateItem(ctx, &models.CreateItemRequest{Code: "X", Name: "Sparkling Water", Taxable: true})
	require.NoError(t, err)
	return f
}

func (f *pgFixture) receive(t *testing.T, qty int) {
	t.Helper()
	_, err := f.stock.AdjustStock(context.Background(), &models.AdjustStockRequest{
		WarehouseID:  f.warehouse.ID,
		ItemID:       f.item.ID,
		Delta:        qty,
		MovementType: models.MovementTypeIn,
		UnitPrice:    500,
	}, 1)
	require.NoError(t, err)
}

func TestPostgresStore_OrderLifecycle(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()
	f.receive(t, 100)

	order, err := f.orders.CreateOrder(ctx, &models.CreateOrderRequest{
		CustomerID:  f.customer.ID,
		WarehouseID: f.warehouse.ID,
		Lines:       []models.OrderLineInput{{ItemID: f.item.ID, Quantity: 10, UnitPrice: 1000}},
	}, 1)
	require.NoError(t, err)
	assert.Regexp(t, `^\d{8}-0001$`, order.OrderNo)
	assert.Equal(t, int64(11000), order.TotalAmount)

	qty, err := f.stock.CurrentQuantity(ctx, f.warehouse.ID, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, qty)

	result := f.delivery.Complete(ctx, []int{order.ID}, 1)
	require.Equal(t, 1, result.Succeeded)

	balance, err := f.ledger.CurrentBalance(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-11000), balance.Balance)

	ret, err := f.returns.CreateReturn(ctx, &models.CreateReturnRequest{OrderLineID: order.Lines[0].ID, Quantity: 3}, 1)
	require.NoError(t, err)
	_, err = f.returns.ApproveReturn(ctx, ret.ID, 1)
	require.NoError(t, err)

	qty, err = f.stock.CurrentQuantity(ctx, f.warehouse.ID, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, 93, qty)

	balance, err = f.ledger.CurrentBalance(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-11000+3300), balance.Balance)

	check, err := f.stock.VerifyStock(ctx, f.warehouse.ID, f.item.ID)
	require.NoError(t, err)
	assert.True(t, check.Consistent)

	chain, err := f.ledger.VerifyChain(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.True(t, chain.Consistent)
}

func TestPostgresStore_RollsBackOnError(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()
	f.receive(t, 5)

	_, err := f.orders.CreateOrder(ctx, &models.CreateOrderRequest{
		CustomerID:  f.customer.ID,
		WarehouseID: f.warehouse.ID,
		Lines:       []models.OrderLineInput{{ItemID: f.item.ID, Quantity: 6, UnitPrice: 1000}},
	}, 1)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInsufficientStock))

	orders, err := f.orders.ListOrders(ctx, models.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	qty, err := f.stock.CurrentQuantity(ctx, f.warehouse.ID, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, qty)
}

func TestPostgresStore_BackdatedLedgerEntry(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	today := time.Now()
	yesterday := today.AddDate(0, 0, -1)
	_, err := f.ledger.AppendEntry(ctx, &models.CreateLedgerEntryRequest{
		CustomerID: f.customer.ID, EntryType: models.LedgerEntryTypeDeposit, Amount: 1000, EntryDate: &today,
	}, 1)
	require.NoError(t, err)
	_, err = f.ledger.AppendEntry(ctx, &models.CreateLedgerEntryRequest{
		CustomerID: f.customer.ID, EntryType: models.LedgerEntryTypeWithdrawal, Amount: 300, EntryDate: &yesterday,
	}, 1)
	require.NoError(t, err)

	entries, err := f.ledger.ListEntries(ctx, models.LedgerFilter{CustomerID: f.customer.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(-300), entries[0].BalanceAfter)
	assert.Equal(t, int64(700), entries[1].BalanceAfter)
}

func TestPostgresStore_ConcurrentReturnsCannotOverReturn(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()
	f.receive(t, 10)

	order, err := f.orders.CreateOrder(ctx, &models.CreateOrderRequest{
		CustomerID:  f.customer.ID,
		WarehouseID: f.warehouse.ID,
		Lines:       []models.OrderLineInput{{ItemID: f.item.ID, Quantity: 5, UnitPrice: 1000}},
	}, 1)
	require.NoError(t, err)
	lineID := order.Lines[0].ID

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, qty := range []int{3, 4} {
		wg.Add(1)
		go func(i, qty int) {
			defer wg.Done()
			_, errs[i] = f.returns.CreateReturn(ctx, &models.CreateReturnRequest{OrderLineID: lineID, Quantity: qty}, 1)
		}(i, qty)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.True(t, apperr.Is(err, apperr.CodeOverReturn))
		}
	}
	assert.Equal(t, 1, failures)
}

// Orders naming the same items in opposite line order lock stock rows in one
// order, so neither is aborted as a deadlock victim.
func TestPostgresStore_ConcurrentOrdersWithCrossedLines(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()
	other, err := f.catalog.CreateItem(ctx, &models.CreateItemRequest{Code: "Y", Name: "Rice"})
	require.NoError(t, err)

	f.receive(t, 1000)
	_, err = f.stock.AdjustStock(ctx, &models.AdjustStockRequest{
		WarehouseID:  f.warehouse.ID,
		ItemID:       other.ID,
		Delta:        1000,
		MovementType: models.MovementTypeIn,
		UnitPrice:    300,
	}, 1)
	require.NoError(t, err)

	x := models.OrderLineInput{ItemID: f.item.ID, Quantity: 1, UnitPrice: 1000}
	y := models.OrderLineInput{ItemID: other.ID, Quantity: 1, UnitPrice: 400}
	const rounds = 20

	var wg sync.WaitGroup
	errs := make(chan error, 2*rounds)
	for i := 0; i < rounds; i++ {
		for _, lines := range [][]models.OrderLineInput{{x, y}, {y, x}} {
			wg.Add(1)
			go func(lines []models.OrderLineInput) {
				defer wg.Done()
				_, err := f.orders.CreateOrder(ctx, &models.CreateOrderRequest{
					CustomerID:  f.customer.ID,
					WarehouseID: f.warehouse.ID,
					Lines:       lines,
				}, 1)
				errs <- err
			}(lines)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, itemID := range []int{f.item.ID, other.ID} {
		v, err := f.stock.VerifyStock(ctx, f.warehouse.ID, itemID)
		require.NoError(t, err)
		assert.True(t, v.Consistent)
		assert.Equal(t, 1000-2*rounds, v.CurrentQuantity)
	}
}

func TestPostgresStore_ClosedMonthIsSealed(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()
	other, err := f.catalog.CreateItem(ctx, &models.CreateItemRequest{Code: "Y", Name: "Rice"})
	require.NoError(t, err)

	july := time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)
	_, err = f.stock.AdjustStock(ctx, &models.AdjustStockRequest{
		WarehouseID:  f.warehouse.ID,
		ItemID:       f.item.ID,
		Delta:        10,
		MovementType: models.MovementTypeIn,
		MovementDate: &july,
	}, 1)
	require.NoError(t, err)

	_, err = f.closings.ComputeWarehouseClosing(ctx, f.warehouse.ID, "202407")
	require.NoError(t, err)
	_, err = f.closings.Close(ctx, f.warehouse.ID, "202407", 1)
	require.NoError(t, err)

	_, err = f.closings.ComputeClosing(ctx, f.warehouse.ID, other.ID, "202407")
	assert.True(t, apperr.Is(err, apperr.CodeAlreadyClosed))

	late := time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC)
	_, err = f.stock.AdjustStock(ctx, &models.AdjustStockRequest{
		WarehouseID:  f.warehouse.ID,
		ItemID:       f.item.ID,
		Delta:        7,
		MovementType: models.MovementTypeIn,
		MovementDate: &late,
	}, 1)
	assert.True(t, apperr.Is(err, apperr.CodeAlreadyClosed))

	qty, err := f.stock.CurrentQuantity(ctx, f.warehouse.ID, f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, qty)
}
