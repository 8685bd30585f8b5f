package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wholesale-backend/internal/handlers"
	"wholesale-backend/internal/middleware"
)

type Handlers struct {
	Catalog  *handlers.CatalogHandler
	Orders   *handlers.OrderHandler
	Delivery *handlers.DeliveryHandler
	Returns  *handlers.ReturnHandler
	Stock    *handlers.StockHandler
	Ledger   *handlers.LedgerHandler
	Closings *handlers.ClosingHandler
	Health   *handlers.HealthHandler
}

func NewRouter(hs Handlers, authMiddleware *middleware.AuthMiddleware) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery)
	r.Use(middleware.RequestLogging)
	r.Use(middleware.MetricsMiddleware)

	// Public routes
	r.HandleFunc("/health", hs.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", hs.Health.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Catalog
	api.HandleFunc("/customers", hs.Catalog.ListCustomers).Methods("GET")
	api.HandleFunc("/customers", hs.Catalog.CreateCustomer).Methods("POST")
	api.HandleFunc("/customers/{id:[0-9]+}", hs.Catalog.GetCustomer).Methods("GET")
	api.HandleFunc("/customers/{id:[0-9]+}/order-limits", hs.Catalog.SetOrderLimit).Methods("PUT")
	api.HandleFunc("/items", hs.Catalog.ListItems).Methods("GET")
	api.HandleFunc("/items", hs.Catalog.CreateItem).Methods("POST")
	api.HandleFunc("/warehouses", hs.Catalog.ListWarehouses).Methods("GET")
	api.HandleFunc("/warehouses", hs.Catalog.CreateWarehouse).Methods("POST")

	// Orders
	api.HandleFunc("/orders", hs.Orders.ListOrders).Methods("GET")
	api.HandleFunc("/orders", hs.Orders.CreateOrder).Methods("POST")
	api.HandleFunc("/orders/{id:[0-9]+}", hs.Orders.GetOrder).Methods("GET")
	api.HandleFunc("/orders/{id:[0-9]+}", hs.Orders.DeleteOrder).Methods("DELETE")
	api.HandleFunc("/orders/{id:[0-9]+}/items", hs.Orders.UpdateOrderItems).Methods("PUT")
	api.HandleFunc("/order-lines/{id:[0-9]+}", hs.Orders.DeleteOrderLine).Methods("DELETE")

	// Delivery state machine (batch)
	api.HandleFunc("/deliveries/start", hs.Delivery.Start).Methods("POST")
	api.HandleFunc("/deliveries/cancel", hs.Delivery.Cancel).Methods("POST")
	api.HandleFunc("/deliveries/complete", hs.Delivery.Complete).Methods("POST")

	// Returns
	api.HandleFunc("/returns", hs.Returns.ListReturns).Methods("GET")
	api.HandleFunc("/returns", hs.Returns.CreateReturn).Methods("POST")
	api.HandleFunc("/returns/{id:[0-9]+}", hs.Returns.GetReturn).Methods("GET")
	api.HandleFunc("/returns/{id:[0-9]+}", hs.Returns.DeleteReturn).Methods("DELETE")
	api.HandleFunc("/returns/{id:[0-9]+}/approve", hs.Returns.ApproveReturn).Methods("PUT")
	api.HandleFunc("/returns/{id:[0-9]+}/reject", hs.Returns.RejectReturn).Methods("PUT")

	// Stock
	api.HandleFunc("/stock", hs.Stock.ListStock).Methods("GET")
	api.HandleFunc("/stock/adjust", hs.Stock.AdjustStock).Methods("POST")
	api.HandleFunc("/stock/movements", hs.Stock.ListMovements).Methods("GET")
	api.HandleFunc("/stock/{warehouse:[0-9]+}/{item:[0-9]+}", hs.Stock.GetStock).Methods("GET")
	api.HandleFunc("/stock/{warehouse:[0-9]+}/{item:[0-9]+}/safe-quantity", hs.Stock.SetSafeQuantity).Methods("PUT")
	api.HandleFunc("/stock/{warehouse:[0-9]+}/{item:[0-9]+}/verify", hs.Stock.VerifyStock).Methods("GET")

	// Customer ledger
	api.HandleFunc("/ledger/entries", hs.Ledger.AppendEntry).Methods("POST")
	api.HandleFunc("/ledger/entries", hs.Ledger.ReverseEntry).Methods("DELETE")
	api.HandleFunc("/ledger/customers/{id:[0-9]+}", hs.Ledger.ListEntries).Methods("GET")
	api.HandleFunc("/ledger/customers/{id:[0-9]+}/balance", hs.Ledger.GetBalance).Methods("GET")
	api.HandleFunc("/ledger/customers/{id:[0-9]+}/verify", hs.Ledger.VerifyChain).Methods("GET")

	// Monthly closing
	api.HandleFunc("/closings", hs.Closings.ListClosings).Methods("GET")
	api.HandleFunc("/closings", hs.Closings.Save).Methods("POST")
	api.HandleFunc("/closings/compute", hs.Closings.Compute).Methods("POST")
	api.HandleFunc("/closings/close", hs.Closings.Close).Methods("POST")
	api.HandleFunc("/closings/{id:[0-9]+}", hs.Closings.GetClosing).Methods("GET")
	api.HandleFunc("/closings/{id:[0-9]+}/actual", hs.Closings.RecordActual).Methods("PUT")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"NOT_FOUND","message":"route not found"}`))
	})

	return r
}
