package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics exposed on /metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	ordersCreated   *prometheus.CounterVec
	ordersCompleted *prometheus.CounterVec
	stockMovements  *prometheus.CounterVec
	stockUnits      *prometheus.CounterVec
	authEvents      *prometheus.CounterVec
}

// NewMetrics initialises the registry with HTTP and domain metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockroom_http_request_duration_seconds",
		Help:    "HTTP request duration per route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_orders_created_total",
		Help: "Orders created by order type.",
	}, []string{"type"})
	ordersCompleted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_orders_completed_total",
		Help: "Orders completed by order type and outcome.",
	}, []string{"type", "outcome"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_stock_movements_total",
		Help: "Stock movements recorded by movement type and source.",
	}, []string{"type", "source"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_stock_units_total",
		Help: "Units moved by movement type.",
	}, []string{"type"})
	auth := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_auth_events_total",
		Help: "Authentication events by event and outcome.",
	}, []string{"event", "outcome"})
	registry.MustRegister(
		requests, duration,
		ordersCreated, ordersCompleted, movements, units, auth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		ordersCreated:   ordersCreated,
		ordersCompleted: ordersCompleted,
		stockMovements:  movements,
		stockUnits:      units,
		authEvents:      auth,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// RecordOrderCreated counts a created order.
func (m *Metrics) RecordOrderCreated(orderType string) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(orderType).Inc()
}

// RecordOrderCompleted counts a completion attempt.
func (m *Metrics) RecordOrderCompleted(orderType string, err error) {
	if m == nil {
		return
	}
	m.ordersCompleted.WithLabelValues(orderType, outcome(err)).Inc()
}

// RecordStockMovement counts a movement and the units it moved.
func (m *Metrics) RecordStockMovement(movementType, source string, quantity int) {
	if m == nil {
		return
	}
	m.stockMovements.WithLabelValues(movementType, source).Inc()
	if quantity > 0 {
		m.stockUnits.WithLabelValues(movementType).Add(float64(quantity))
	}
}

// RecordAuth counts a login, registration or logout.
func (m *Metrics) RecordAuth(event string, err error) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(event, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
