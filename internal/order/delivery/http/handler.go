package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	cartdomain "github.com/tair/order-fulfillment/internal/cart/domain"
	coupondomain "github.com/tair/order-fulfillment/internal/coupon/domain"
	inventorydomain "github.com/tair/order-fulfillment/internal/inventory/domain"
	"github.com/tair/order-fulfillment/internal/middleware"
	"github.com/tair/order-fulfillment/internal/order/domain"
	"github.com/tair/order-fulfillment/internal/order/repository"
	"github.com/tair/order-fulfillment/internal/order/usecase/command"
	"github.com/tair/order-fulfillment/internal/order/usecase/query"
	slotdomain "github.com/tair/order-fulfillment/internal/slot/domain"
	"github.com/tair/order-fulfillment/pkg/keylock"
)

// OrderHandler handles HTTP requests for the order workflow
type OrderHandler struct {
	// Command handlers
	createHandler  *command.CreateOrderHandler
	payHandler     *command.PayOrderHandler
	cancelHandler  *command.CancelOrderHandler
	shipHandler    *command.ShipDeliveryHandler
	confirmHandler *command.ConfirmDeliveryHandler
	returnHandler  *command.CompleteReturnHandler

	// Query handlers
	getHandler  *query.GetOrderHandler
	listHandler *query.ListOrdersHandler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(store *repository.Store, cache inventorydomain.StockCache, locks *keylock.KeyLock, gateway domain.PaymentGateway, events domain.EventBus) *OrderHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_service_requests_total",
			Help: "Total number of requests to order service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "order_service_request_duration_seconds",
			Help:    "Duration of order service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &OrderHandler{
		createHandler:  command.NewCreateOrderHandler(store, cache, locks, events),
		payHandler:     command.NewPayOrderHandler(store, gateway, locks, events),
		cancelHandler:  command.NewCancelOrderHandler(store, cache, locks, events),
		shipHandler:    command.NewShipDeliveryHandler(store, events),
		confirmHandler: command.NewConfirmDeliveryHandler(store),
		returnHandler:  command.NewCompleteReturnHandler(store),
		getHandler:     query.NewGetOrderHandler(store.Orders),
		listHandler:    query.NewListOrdersHandler(store.Orders),
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
func (h *OrderHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// caller pulls the authenticated customer out of the request context.
// Orders and carts are always acted on as that customer, whatever ids the
// body carries.
func (h *OrderHandler) caller(w http.ResponseWriter, r *http.Request) (uint, bool, bool) {
	customerID, online, ok := middleware.Caller(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "Customer not found in context")
	}
	return customerID, online, ok
}

// CreateOrder handles POST /api/order
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	customerID, online, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req struct {
		CartID        uint   `json:"cart_id"`
		PaymentMethod string `json:"payment_method"`
		CouponCode    string `json:"coupon_code"`
		Description   string `json:"description"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	cmd := command.CreateOrderCommand{
		CartID:        req.CartID,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		CouponCode:    req.CouponCode,
		Description:   req.Description,
		CustomerID:    customerID,
		Online:        online,
	}

	order, err := h.createHandler.Handle(r.Context(), cmd)
	if err != nil {
		h.respondWorkflowError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, order)
}

// GetOrder handles GET /api/order/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	customerID, online, ok := h.caller(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_id", "Invalid order ID")
		return
	}

	order, err := h.getHandler.Handle(r.Context(), query.GetOrderQuery{
		OrderID:    uint(id),
		CustomerID: customerID,
		Online:     online,
	})
	if err != nil {
		h.respondWorkflowError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, order)
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	customerID, online, ok := h.caller(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.listHandler.Handle(r.Context(), query.ListOrdersQuery{
		CustomerID: customerID,
		Online:     online,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, orders)
}

// CancelOrder handles PUT /api/order/{id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	customerID, online, ok := h.caller(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_id", "Invalid order ID")
		return
	}

	result, err := h.cancelHandler.Handle(r.Context(), command.CancelOrderCommand{
		OrderID:    uint(id),
		CustomerID: customerID,
		Online:     online,
	})
	if err != nil {
		h.respondWorkflowError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// CompleteReturn handles POST /api/order/{id}/return
func (h *OrderHandler) CompleteReturn(w http.ResponseWriter, r *http.Request) {
	customerID, online, ok := h.caller(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_id", "Invalid order ID")
		return
	}

	err = h.returnHandler.Handle(r.Context(), command.CompleteReturnCommand{
		OrderID:    uint(id),
		CustomerID: customerID,
		Online:     online,
	})
	if err != nil {
		h.respondWorkflowError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Return completed"})
}

// PayOrder handles POST /api/payment
func (h *OrderHandler) PayOrder(w http.ResponseWriter, r *http.Request) {
	customerID, online, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req struct {
		OrderID     uint   `json:"order_id"`
		AmountCents int64  `json:"amount_cents"`
		Reference   string `json:"reference"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	result, err := h.payHandler.Handle(r.Context(), command.PayOrderCommand{
		OrderID:     req.OrderID,
		AmountCents: req.AmountCents,
		Reference:   req.Reference,
		CustomerID:  customerID,
		Online:      online,
	})
	if err != nil {
		h.respondWorkflowError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, result)
}

// ConfirmDelivery handles PUT /api/delivery
func (h *OrderHandler) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	customerID, online, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req struct {
		DeliveryID   uint   `json:"delivery_id"`
		TrackingCode string `json:"tracking_code"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	delivery, err := h.confirmHandler.Handle(r.Context(), command.ConfirmDeliveryCommand{
		DeliveryID:   req.DeliveryID,
		TrackingCode: req.TrackingCode,
		CustomerID:   customerID,
		Online:       online,
	})
	if err != nil {
		h.respondWorkflowError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, delivery)
}

// ShipDelivery handles POST /api/admin/delivery/{id}/ship
func (h *OrderHandler) ShipDelivery(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_id", "Invalid delivery ID")
		return
	}

	delivery, err := h.shipHandler.Handle(r.Context(), command.ShipDeliveryCommand{DeliveryID: uint(id)})
	if err != nil {
		h.respondWorkflowError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, delivery)
}

// HealthCheck handles GET /health
func (h *OrderHandler) HealthCheck(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			h.respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}

		h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

// RegisterRoutes registers order workflow routes
func (h *OrderHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/order", h.metricsMiddleware("/api/order", middleware.AuthMiddleware(h.CreateOrder))).Methods("POST")
	router.HandleFunc("/api/order/{id}", h.metricsMiddleware("/api/order/{id}", middleware.AuthMiddleware(h.GetOrder))).Methods("GET")
	router.HandleFunc("/api/orders", h.metricsMiddleware("/api/orders", middleware.AuthMiddleware(h.ListOrders))).Methods("GET")
	router.HandleFunc("/api/order/{id}/cancel", h.metricsMiddleware("/api/order/{id}/cancel", middleware.AuthMiddleware(h.CancelOrder))).Methods("PUT")
	router.HandleFunc("/api/order/{id}/return", h.metricsMiddleware("/api/order/{id}/return", middleware.AuthMiddleware(h.CompleteReturn))).Methods("POST")
	router.HandleFunc("/api/payment", h.metricsMiddleware("/api/payment", middleware.AuthMiddleware(h.PayOrder))).Methods("POST")
	router.HandleFunc("/api/delivery", h.metricsMiddleware("/api/delivery", middleware.AuthMiddleware(h.ConfirmDelivery))).Methods("PUT")

	// Warehouse operations
	router.HandleFunc("/api/admin/delivery/{id}/ship", h.metricsMiddleware("/api/admin/delivery/{id}/ship", middleware.AdminMiddleware(h.ShipDelivery))).Methods("POST")
}

// RegisterHealthCheck registers health check endpoint
func (h *OrderHandler) RegisterHealthCheck(router *mux.Router, db *sql.DB) {
	router.HandleFunc("/health", h.HealthCheck(db)).Methods("GET")
}

// respondWorkflowError maps domain errors to HTTP statuses with a
// machine-readable kind alongside the message
func (h *OrderHandler) respondWorkflowError(w http.ResponseWriter, err error) {
	var insufficient *inventorydomain.InsufficientStockError
	var transition *domain.InvalidTransitionError

	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrDeliveryNotFound),
		errors.Is(err, cartdomain.ErrCartNotFound):
		h.respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrCustomerMismatch):
		h.respondError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, domain.ErrDuplicateOrder):
		h.respondError(w, http.StatusConflict, "duplicate_order", err.Error())
	case errors.As(err, &insufficient):
		h.respondError(w, http.StatusBadRequest, "insufficient_stock", err.Error())
	case errors.As(err, &transition):
		h.respondError(w, http.StatusBadRequest, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrAmountMismatch):
		h.respondError(w, http.StatusBadRequest, "amount_mismatch", err.Error())
	case errors.Is(err, domain.ErrTrackingMismatch):
		h.respondError(w, http.StatusBadRequest, "tracking_mismatch", err.Error())
	case errors.Is(err, domain.ErrManualReturnRequired):
		h.respondError(w, http.StatusBadRequest, "manual_return_required", err.Error())
	case errors.Is(err, domain.ErrSlotRequired),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidPaymentMethod),
		errors.Is(err, domain.ErrDeliveryNotPending),
		errors.Is(err, domain.ErrDeliveryNotShipped),
		errors.Is(err, cartdomain.ErrCartNotActive):
		h.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, coupondomain.ErrCouponNotFound),
		errors.Is(err, coupondomain.ErrCouponInvalid):
		h.respondError(w, http.StatusBadRequest, "coupon_invalid", err.Error())
	case errors.Is(err, slotdomain.ErrTooCloseToDeliver):
		h.respondError(w, http.StatusBadRequest, "too_close_to_deliver", err.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

// respondJSON sends a JSON response
func (h *OrderHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response
func (h *OrderHandler) respondError(w http.ResponseWriter, status int, kind, message string) {
	h.respondJSON(w, status, map[string]string{"kind": kind, "error": message})
}
