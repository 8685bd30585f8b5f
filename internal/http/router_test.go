package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wholesale-backend/internal/auth"
	"wholesale-backend/internal/config"
	"wholesale-backend/internal/handlers"
	"wholesale-backend/internal/health"
	"wholesale-backend/internal/middleware"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/services"
	"wholesale-backend/internal/store/memory"
)

type apiClient struct {
	t      *testing.T
	router *mux.Router
	token  string
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "router-test"
	cfg.JWT.Issuer = "wholesale-backend"
	jwt := auth.NewJWTManager(cfg)
	token, err := jwt.GenerateToken(5, "Sam", time.Hour)
	require.NoError(t, err)

	st := memory.New()
	pricing := services.NewPricing(services.DefaultVatRate)
	router := NewRouter(Handlers{
		Catalog:  handlers.NewCatalogHandler(services.NewCatalogService(st)),
		Orders:   handlers.NewOrderHandler(services.NewOrderService(st, pricing)),
		Delivery: handlers.NewDeliveryHandler(services.NewDeliveryService(st)),
		Returns:  handlers.NewReturnHandler(services.NewReturnService(st, pricing)),
		Stock:    handlers.NewStockHandler(services.NewStockService(st)),
		Ledger:   handlers.NewLedgerHandler(services.NewLedgerService(st)),
		Closings: handlers.NewClosingHandler(services.NewClosingService(st)),
		Health:   handlers.NewHealthHandler(health.NewHealthChecker(nil, nil)),
	}, middleware.NewAuthMiddleware(jwt))

	return &apiClient{t: t, router: router, token: token}
}

// do sends body as JSON and decodes the response into out when given
func (c *apiClient) do(method, path string, body any, wantStatus int, out any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	require.Equal(c.t, wantStatus, rec.Code, "%s %s: %s", method, path, rec.Body.String())
	if out != nil {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), out))
	}
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

// seed creates one customer, warehouse and taxable item and receives 100 units
func (c *apiClient) seed() (customerID, warehouseID, itemID int) {
	var customer models.Customer
	c.do("POST", "/api/customers", map[string]any{"code": "C1", "name": "Corner Mart"}, http.StatusCreated, &customer)
	var warehouse models.Warehouse
	c.do("POST", "/api/warehouses", map[string]any{"code": "W1", "name": "Main"}, http.StatusCreated, &warehouse)
	var item models.Item
	c.do("POST", "/api/items", map[string]any{"code": "X", "name": "Water", "taxable": true}, http.StatusCreated, &item)

	c.do("POST", "/api/stock/adjust", map[string]any{
		"warehouse_id": warehouse.ID, "item_id": item.ID, "delta": 100, "movement_type": "IN", "unit_price": 500,
	}, http.StatusCreated, nil)
	return customer.ID, warehouse.ID, item.ID
}

func TestRouter_RequiresToken(t *testing.T) {
	api := newAPI(t)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_OrderToReturnFlow(t *testing.T) {
	api := newAPI(t)
	customerID, warehouseID, itemID := api.seed()

	var order models.OrderDetail
	api.do("POST", "/api/orders", map[string]any{
		"customer_id":  customerID,
		"warehouse_id": warehouseID,
		"lines":        []map[string]any{{"item_id": itemID, "quantity": 10, "unit_price": 1000}},
	}, http.StatusCreated, &order)
	assert.Equal(t, int64(11000), order.TotalAmount)
	assert.Equal(t, models.DeliveryStatusRequested, order.DeliveryStatus)
	assert.Equal(t, 5, order.CreatedByUserID)

	var stock models.WarehouseStock
	api.do("GET", fmt.Sprintf("/api/stock/%d/%d", warehouseID, itemID), nil, http.StatusOK, &stock)
	assert.Equal(t, 90, stock.CurrentQuantity)

	var batch models.DeliveryBatchResult
	api.do("POST", "/api/deliveries/complete", map[string]any{"order_ids": []int{order.ID, 999}}, http.StatusOK, &batch)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)

	var ret models.ReturnRecord
	api.do("POST", "/api/returns", map[string]any{"order_line_id": order.Lines[0].ID, "quantity": 3}, http.StatusCreated, &ret)
	api.do("PUT", fmt.Sprintf("/api/returns/%d/approve", ret.ID), nil, http.StatusOK, &ret)
	assert.Equal(t, models.ReturnStatusApproved, ret.Status)

	var over errorResponse
	api.do("POST", "/api/returns", map[string]any{"order_line_id": order.Lines[0].ID, "quantity": 8}, http.StatusConflict, &over)
	assert.Equal(t, "OVER_RETURN", over.Code)

	var balance models.LedgerBalance
	api.do("GET", fmt.Sprintf("/api/ledger/customers/%d/balance", customerID), nil, http.StatusOK, &balance)
	assert.Equal(t, int64(-11000+3300), balance.Balance)
	assert.Equal(t, 2, balance.EntryCount)

	var check models.StockVerification
	api.do("GET", fmt.Sprintf("/api/stock/%d/%d/verify", warehouseID, itemID), nil, http.StatusOK, &check)
	assert.True(t, check.Consistent)
	assert.Equal(t, 93, check.CurrentQuantity)
}

func TestRouter_ErrorMapping(t *testing.T) {
	api := newAPI(t)
	customerID, warehouseID, itemID := api.seed()

	var e errorResponse
	api.do("POST", "/api/orders", map[string]any{
		"customer_id":  customerID,
		"warehouse_id": warehouseID,
		"lines":        []map[string]any{{"item_id": itemID, "quantity": 101, "unit_price": 1000}},
	}, http.StatusConflict, &e)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)

	api.do("GET", "/api/orders/4242", nil, http.StatusNotFound, &e)
	assert.Equal(t, "NOT_FOUND", e.Code)

	api.do("POST", "/api/orders", map[string]any{"customer_id": customerID}, http.StatusBadRequest, &e)
	assert.Equal(t, "VALIDATION_ERROR", e.Code)
	assert.Contains(t, e.Details, "warehouse_id")
	assert.Contains(t, e.Details, "lines")

	api.do("GET", "/api/orders?status=LOST", nil, http.StatusBadRequest, &e)
	assert.Equal(t, "VALIDATION_ERROR", e.Code)
}

func TestRouter_LedgerEntries(t *testing.T) {
	api := newAPI(t)
	customerID, _, _ := api.seed()

	refID := 77
	api.do("POST", "/api/ledger/entries", map[string]any{
		"customer_id": customerID, "entry_type": "DEPOSIT", "amount": 5000, "reference_id": refID,
	}, http.StatusCreated, nil)
	api.do("POST", "/api/ledger/entries", map[string]any{
		"customer_id": customerID, "entry_type": "WITHDRAWAL", "amount": 1200,
	}, http.StatusCreated, nil)

	var entries []models.CustomerLedgerEntry
	api.do("GET", fmt.Sprintf("/api/ledger/customers/%d", customerID), nil, http.StatusOK, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3800), entries[1].BalanceAfter)

	api.do("GET", fmt.Sprintf("/api/ledger/customers/%d?type=DEPOSIT", customerID), nil, http.StatusOK, &entries)
	require.Len(t, entries, 1)

	api.do("DELETE", fmt.Sprintf("/api/ledger/entries?reference_type=manual&reference_id=%d", refID), nil, http.StatusOK, nil)

	var balance models.LedgerBalance
	api.do("GET", fmt.Sprintf("/api/ledger/customers/%d/balance", customerID), nil, http.StatusOK, &balance)
	assert.Equal(t, int64(-1200), balance.Balance)

	var chain models.ChainVerification
	api.do("GET", fmt.Sprintf("/api/ledger/customers/%d/verify", customerID), nil, http.StatusOK, &chain)
	assert.True(t, chain.Consistent)
}

func TestRouter_MonthlyClosing(t *testing.T) {
	api := newAPI(t)
	_, warehouseID, itemID := api.seed()
	ym := models.YearMonthOf(time.Now().UTC()).String()

	var rows []models.MonthlyClosing
	api.do("POST", "/api/closings/compute", map[string]any{"warehouse_id": warehouseID, "year_month": ym}, http.StatusOK, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, 100, rows[0].CalculatedQuantity)

	var row models.MonthlyClosing
	api.do("PUT", fmt.Sprintf("/api/closings/%d/actual", rows[0].ID), map[string]any{
		"actual_quantity": 97, "actual_unit_price": 500,
	}, http.StatusOK, &row)
	require.NotNil(t, row.DiffQuantity)
	assert.Equal(t, -3, *row.DiffQuantity)

	api.do("POST", "/api/closings/close", map[string]any{"warehouse_id": warehouseID, "year_month": ym}, http.StatusOK, &rows)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsClosed)

	var e errorResponse
	api.do("POST", "/api/closings/compute", map[string]any{
		"warehouse_id": warehouseID, "item_id": itemID, "year_month": ym,
	}, http.StatusConflict, &e)
	assert.Equal(t, "ALREADY_CLOSED", e.Code)

	api.do("GET", fmt.Sprintf("/api/closings?warehouse_id=%d&year_month=%s", warehouseID, ym), nil, http.StatusOK, &rows)
	assert.Len(t, rows, 1)
}
