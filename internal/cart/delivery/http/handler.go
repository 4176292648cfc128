package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	catalogdomain "github.com/tair/order-fulfillment/internal/catalog/domain"
	"github.com/tair/order-fulfillment/internal/cart/domain"
	"github.com/tair/order-fulfillment/internal/cart/usecase/command"
	"github.com/tair/order-fulfillment/internal/cart/usecase/query"
	inventorydomain "github.com/tair/order-fulfillment/internal/inventory/domain"
	"github.com/tair/order-fulfillment/internal/middleware"
)

// CartHandler handles HTTP requests for carts
type CartHandler struct {
	addLineHandler *command.AddLineHandler
	getCartHandler *query.GetActiveCartHandler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts domain.CartRepository, products catalogdomain.ProductRepository, ledger inventorydomain.LedgerRepository) *CartHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_service_requests_total",
			Help: "Total number of requests to cart service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cart_service_request_duration_seconds",
			Help:    "Duration of cart service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &CartHandler{
		addLineHandler: command.NewAddLineHandler(carts, products, ledger),
		getCartHandler: query.NewGetActiveCartHandler(carts),
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
func (h *CartHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// AddLine handles POST /api/cart
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	customerID, online, ok := middleware.Caller(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "Customer not found in context")
		return
	}

	var req struct {
		ProductID uint  `json:"product_id"`
		Quantity  int64 `json:"quantity"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	cmd := command.AddLineCommand{
		CustomerID: customerID,
		Online:     online,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
	}

	cart, err := h.addLineHandler.Handle(r.Context(), cmd)
	if err != nil {
		h.respondCartError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, cart)
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	customerID, online, ok := middleware.Caller(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "Customer not found in context")
		return
	}

	cart, err := h.getCartHandler.Handle(r.Context(), query.GetActiveCartQuery{
		CustomerID: customerID,
		Online:     online,
	})
	if err != nil {
		h.respondCartError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, cart)
}

// RegisterRoutes registers cart routes
func (h *CartHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/cart", h.metricsMiddleware("/api/cart", middleware.AuthMiddleware(h.AddLine))).Methods("POST")
	router.HandleFunc("/api/cart", h.metricsMiddleware("/api/cart", middleware.AuthMiddleware(h.GetCart))).Methods("GET")
}

func (h *CartHandler) respondCartError(w http.ResponseWriter, err error) {
	var insufficient *inventorydomain.InsufficientStockError

	switch {
	case errors.Is(err, domain.ErrCartNotFound):
		h.respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, catalogdomain.ErrProductNotFound):
		h.respondError(w, http.StatusBadRequest, "product_not_found", err.Error())
	case errors.As(err, &insufficient):
		h.respondError(w, http.StatusBadRequest, "insufficient_stock", err.Error())
	case errors.Is(err, inventorydomain.ErrInvalidQuantity):
		h.respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, domain.ErrCartNotActive):
		h.respondError(w, http.StatusBadRequest, "cart_not_active", err.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

// respondJSON sends a JSON response
func (h *CartHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response
func (h *CartHandler) respondError(w http.ResponseWriter, status int, kind, message string) {
	h.respondJSON(w, status, map[string]string{"kind": kind, "error": message})
}
