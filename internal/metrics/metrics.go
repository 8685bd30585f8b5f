package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wholesale"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Business metrics
var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Orders created",
	})

	StockMovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_movements_total",
		Help:      "Stock movements appended, by type",
	}, []string{"type"})

	DeliveryTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_transitions_total",
		Help:      "Delivery transitions attempted, by target status and result",
	}, []string{"target", "result"})

	ReturnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "returns_total",
		Help:      "Return records by resulting status",
	}, []string{"status"})

	LedgerEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_entries_total",
		Help:      "Customer ledger entries appended, by type",
	}, []string{"type"})

	ClosingDiffQuantity = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "closing_diff_quantity",
		Help:      "Absolute difference between counted and calculated quantity at recording time",
		Buckets:   []float64{0, 1, 5, 10, 50, 100, 500},
	})

	ClosingsClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "closings_closed_total",
		Help:      "Monthly closing rows closed",
	})
)
