package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	cartdomain "github.com/tair/order-fulfillment/internal/cart/domain"
	"github.com/tair/order-fulfillment/internal/middleware"
	"github.com/tair/order-fulfillment/internal/slot/domain"
	"github.com/tair/order-fulfillment/internal/slot/usecase/command"
	"github.com/tair/order-fulfillment/pkg/keylock"
)

// SlotHandler handles HTTP requests for delivery slots
type SlotHandler struct {
	reserveHandler    *command.ReserveSlotHandler
	rescheduleHandler *command.RescheduleSlotHandler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewSlotHandler creates a new slot handler
func NewSlotHandler(slots domain.SlotRepository, carts cartdomain.CartRepository, locks *keylock.KeyLock) *SlotHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slot_service_requests_total",
			Help: "Total number of requests to slot service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slot_service_request_duration_seconds",
			Help:    "Duration of slot service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &SlotHandler{
		reserveHandler:    command.NewReserveSlotHandler(slots, carts, locks),
		rescheduleHandler: command.NewRescheduleSlotHandler(slots, locks),
		requestCounter:    requestCounter,
		requestLatency:    requestLatency,
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
func (h *SlotHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// ReserveSlot handles POST /api/delivery-slot
func (h *SlotHandler) ReserveSlot(w http.ResponseWriter, r *http.Request) {
	customerID, online, ok := middleware.Caller(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "Customer not found in context")
		return
	}

	var req struct {
		CartID uint   `json:"cart_id"`
		Method string `json:"method"`
		Date   string `json:"date"`
		Window string `json:"window"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_date", "Date must be YYYY-MM-DD")
		return
	}

	cmd := command.ReserveSlotCommand{
		CustomerID: customerID,
		Online:     online,
		CartID:     req.CartID,
		Method:     domain.DeliveryMethod(req.Method),
		Date:       date,
		Window:     domain.Window(req.Window),
	}

	slot, err := h.reserveHandler.Handle(r.Context(), cmd)
	if err != nil {
		h.respondSlotError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, slot)
}

// RescheduleSlot handles PUT /api/delivery-slot/{id}
func (h *SlotHandler) RescheduleSlot(w http.ResponseWriter, r *http.Request) {
	customerID, _, ok := middleware.Caller(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "unauthorized", "Customer not found in context")
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_id", "Invalid slot ID")
		return
	}

	var req struct {
		Date   string `json:"date"`
		Window string `json:"window"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_date", "Date must be YYYY-MM-DD")
		return
	}

	cmd := command.RescheduleSlotCommand{
		SlotID:     uint(id),
		CustomerID: customerID,
		NewDate:    date,
		NewWindow:  domain.Window(req.Window),
	}

	slot, err := h.rescheduleHandler.Handle(r.Context(), cmd)
	if err != nil {
		h.respondSlotError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, slot)
}

// RegisterRoutes registers delivery slot routes
func (h *SlotHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/delivery-slot", h.metricsMiddleware("/api/delivery-slot", middleware.AuthMiddleware(h.ReserveSlot))).Methods("POST")
	router.HandleFunc("/api/delivery-slot/{id}", h.metricsMiddleware("/api/delivery-slot/{id}", middleware.AuthMiddleware(h.RescheduleSlot))).Methods("PUT")
}

func (h *SlotHandler) respondSlotError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSlotNotFound),
		errors.Is(err, cartdomain.ErrCartNotFound):
		h.respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrSlotExists):
		h.respondError(w, http.StatusConflict, "slot_exists", err.Error())
	case errors.Is(err, domain.ErrSlotFull):
		h.respondError(w, http.StatusConflict, "slot_full", err.Error())
	case errors.Is(err, domain.ErrInvalidTimeframe):
		h.respondError(w, http.StatusBadRequest, "invalid_timeframe", err.Error())
	case errors.Is(err, domain.ErrTooCloseToDeliver):
		h.respondError(w, http.StatusBadRequest, "too_close_to_deliver", err.Error())
	case errors.Is(err, domain.ErrCartMismatch),
		errors.Is(err, cartdomain.ErrCartNotActive):
		h.respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

// respondJSON sends a JSON response
func (h *SlotHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response
func (h *SlotHandler) respondError(w http.ResponseWriter, status int, kind, message string) {
	h.respondJSON(w, status, map[string]string{"kind": kind, "error": message})
}
