package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/order-fulfillment/internal/coupon/domain"
	"github.com/tair/order-fulfillment/internal/coupon/usecase/command"
	"github.com/tair/order-fulfillment/internal/coupon/usecase/query"
	"github.com/tair/order-fulfillment/internal/middleware"
)

// CouponHandler handles HTTP requests for coupons
type CouponHandler struct {
	createHandler   *command.CreateCouponHandler
	validateHandler *query.ValidateCouponHandler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(coupons domain.CouponRepository) *CouponHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_service_requests_total",
			Help: "Total number of requests to coupon service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coupon_service_request_duration_seconds",
			Help:    "Duration of coupon service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &CouponHandler{
		createHandler:   command.NewCreateCouponHandler(coupons),
		validateHandler: query.NewValidateCouponHandler(coupons),
		requestCounter:  requestCounter,
		requestLatency:  requestLatency,
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
func (h *CouponHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		h.requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		h.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// CreateCoupon handles POST /api/admin/coupons
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code               string `json:"code"`
		CategoryID         *uint  `json:"category_id"`
		DiscountPercentage int    `json:"discount_percentage"`
		MaxUsage           int64  `json:"max_usage"`
		ValidFrom          string `json:"valid_from"`
		ValidTo            string `json:"valid_to"`
		IsActive           bool   `json:"is_active"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_date", "valid_from must be RFC3339")
		return
	}
	validTo, err := time.Parse(time.RFC3339, req.ValidTo)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_date", "valid_to must be RFC3339")
		return
	}

	cmd := command.CreateCouponCommand{
		Code:               req.Code,
		CategoryID:         req.CategoryID,
		DiscountPercentage: req.DiscountPercentage,
		MaxUsage:           req.MaxUsage,
		ValidFrom:          validFrom,
		ValidTo:            validTo,
		IsActive:           req.IsActive,
	}

	coupon, err := h.createHandler.Handle(r.Context(), cmd)
	if err != nil {
		h.respondCouponError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, coupon)
}

// ValidateCoupon handles POST /api/coupon/validate
func (h *CouponHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code       string `json:"code"`
		TotalCents int64  `json:"total_cents"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	result, err := h.validateHandler.Handle(r.Context(), query.ValidateCouponQuery{
		Code:       req.Code,
		TotalCents: req.TotalCents,
	})
	if err != nil {
		h.respondCouponError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// RegisterRoutes registers coupon routes
func (h *CouponHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/coupon/validate", h.metricsMiddleware("/api/coupon/validate", middleware.AuthMiddleware(h.ValidateCoupon))).Methods("POST")
	router.HandleFunc("/api/admin/coupons", h.metricsMiddleware("/api/admin/coupons", middleware.AdminMiddleware(h.CreateCoupon))).Methods("POST")
}

func (h *CouponHandler) respondCouponError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCouponNotFound):
		h.respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrCouponInvalid):
		h.respondError(w, http.StatusBadRequest, "coupon_invalid", err.Error())
	case errors.Is(err, domain.ErrInvalidPercentage):
		h.respondError(w, http.StatusBadRequest, "invalid_percentage", err.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

// respondJSON sends a JSON response
func (h *CouponHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response
func (h *CouponHandler) respondError(w http.ResponseWriter, status int, kind, message string) {
	h.respondJSON(w, status, map[string]string{"kind": kind, "error": message})
}
