package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/order-fulfillment/internal/inventory/domain"
	"github.com/tair/order-fulfillment/internal/inventory/usecase/command"
	"github.com/tair/order-fulfillment/internal/inventory/usecase/query"
	"github.com/tair/order-fulfillment/internal/middleware"
)

// InventoryHandler handles HTTP requests for the stock ledger
type InventoryHandler struct {
	recordHandler *command.RecordMovementHandler
	stockHandler  *query.CurrentStockHandler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(ledger domain.LedgerRepository, cache domain.StockCache) *InventoryHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_service_requests_total",
			Help: "Total number of requests to inventory service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inventory_service_request_duration_seconds",
			Help:    "Duration of inventory service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &InventoryHandler{
		recordHandler:  command.NewRecordMovementHandler(ledger, cache),
		stockHandler:   query.NewCurrentStockHandler(ledger, cache),
		requestCounter: requestCounter,
		requestLatency: requestLatency,
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *InventoryHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// GetStock handles GET /api/inventory/stock/{productID}
func (h *InventoryHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["productID"], 10, 32)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_id", "Invalid product ID")
		return
	}

	result, err := h.stockHandler.Handle(r.Context(), query.CurrentStockQuery{ProductID: uint(id)})
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// RecordMovement handles POST /api/admin/inventory/movements
func (h *InventoryHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID  uint   `json:"product_id"`
		Kind       string `json:"kind"`
		Quantity   int64  `json:"quantity"`
		PriceCents int64  `json:"price_cents"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	cmd := command.RecordMovementCommand{
		ProductID:  req.ProductID,
		Kind:       domain.MovementKind(req.Kind),
		Quantity:   req.Quantity,
		PriceCents: req.PriceCents,
	}

	movement, err := h.recordHandler.Handle(r.Context(), cmd)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrInvalidKind):
			h.respondError(w, http.StatusBadRequest, "invalid_movement", err.Error())
		default:
			h.respondError(w, http.StatusInternalServerError, "internal", err.Error())
		}
		return
	}

	h.respondJSON(w, http.StatusCreated, movement)
}

// RegisterRoutes registers inventory routes
func (h *InventoryHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/inventory/stock/{productID}", h.metricsMiddleware("/api/inventory/stock/{productID}", h.GetStock)).Methods("GET")
	router.HandleFunc("/api/admin/inventory/movements", h.metricsMiddleware("/api/admin/inventory/movements", middleware.AdminMiddleware(h.RecordMovement))).Methods("POST")
}

// respondJSON sends a JSON response
func (h *InventoryHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response
func (h *InventoryHandler) respondError(w http.ResponseWriter, status int, kind, message string) {
	h.respondJSON(w, status, map[string]string{"kind": kind, "error": message})
}
