package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	cartHTTP "github.com/tair/order-fulfillment/internal/cart/delivery/http"
	cartdomain "github.com/tair/order-fulfillment/internal/cart/domain"
	catalogdomain "github.com/tair/order-fulfillment/internal/catalog/domain"
	couponHTTP "github.com/tair/order-fulfillment/internal/coupon/delivery/http"
	coupondomain "github.com/tair/order-fulfillment/internal/coupon/domain"
	"github.com/tair/order-fulfillment/internal/inventory/cache"
	inventoryHTTP "github.com/tair/order-fulfillment/internal/inventory/delivery/http"
	inventorydomain "github.com/tair/order-fulfillment/internal/inventory/domain"
	"github.com/tair/order-fulfillment/internal/middleware"
	"github.com/tair/order-fulfillment/internal/notifier"
	orderHTTP "github.com/tair/order-fulfillment/internal/order/delivery/http"
	orderdomain "github.com/tair/order-fulfillment/internal/order/domain"
	"github.com/tair/order-fulfillment/internal/order/gateway"
	orderrepo "github.com/tair/order-fulfillment/internal/order/repository"
	slotHTTP "github.com/tair/order-fulfillment/internal/slot/delivery/http"
	slotdomain "github.com/tair/order-fulfillment/internal/slot/domain"
	"github.com/tair/order-fulfillment/kafka"
	"github.com/tair/order-fulfillment/pkg/database"
	"github.com/tair/order-fulfillment/pkg/keylock"
	"github.com/tair/order-fulfillment/pkg/logger"
	"github.com/tair/order-fulfillment/pkg/redis"
	"github.com/tair/order-fulfillment/pkg/tracing"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Not an error in containers; env comes from the orchestrator
		_ = err
	}

	serviceName := getEnv("OTEL_SERVICE_NAME", "fulfillment-service")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)
	logger.SetLevel(getEnv("LOG_LEVEL", "info"))

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Msg("Starting fulfillment service")

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Connect to database
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "fulfillmentdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	err = db.AutoMigrate(
		&catalogdomain.Product{},
		&inventorydomain.StockMovement{},
		&cartdomain.Cart{},
		&cartdomain.CartLine{},
		&slotdomain.DeliverySlot{},
		&coupondomain.Coupon{},
		&orderdomain.Order{},
		&orderdomain.Transaction{},
		&orderdomain.Delivery{},
		&orderdomain.Refund{},
		&orderdomain.OrderCounter{},
		&notifier.Customer{},
	)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	// Advisory stock cache; the service runs fine without Redis
	var stockCache inventorydomain.StockCache
	if addr := getEnv("REDIS_ADDR", ""); addr != "" {
		redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
		client, err := redis.NewClient(addr, getEnv("REDIS_PASSWORD", ""), redisDB)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Redis unavailable, stock cache disabled")
		} else {
			ttl, _ := time.ParseDuration(getEnv("STOCK_CACHE_TTL", "30s"))
			stockCache = cache.NewRedisStockCache(client, ttl)
			logger.Logger.Info().Str("addr", addr).Msg("Stock cache enabled")
		}
	}

	// Lifecycle event publisher; without brokers the workflow still runs,
	// it just stays silent
	var events orderdomain.EventBus
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		publisher, err := kafka.NewPublisher(strings.Split(brokers, ","))
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka unavailable, lifecycle events disabled")
		} else {
			defer publisher.Close()
			events = publisher
			logger.Logger.Info().Str("brokers", brokers).Msg("Lifecycle events enabled")
		}
	}

	locks := keylock.New()
	store := orderrepo.NewStore(db)

	// Initialize HTTP handlers
	cartHandler := cartHTTP.NewCartHandler(store.Carts, store.Products, store.Ledger)
	slotHandler := slotHTTP.NewSlotHandler(store.Slots, store.Carts, locks)
	couponHandler := couponHTTP.NewCouponHandler(store.Coupons)
	inventoryHandler := inventoryHTTP.NewInventoryHandler(store.Ledger, stockCache)
	orderHandler := orderHTTP.NewOrderHandler(store, stockCache, locks, gateway.NewProvider(), events)

	// Setup router
	router := mux.NewRouter()
	cartHandler.RegisterRoutes(router)
	slotHandler.RegisterRoutes(router)
	couponHandler.RegisterRoutes(router)
	inventoryHandler.RegisterRoutes(router)
	orderHandler.RegisterRoutes(router)
	orderHandler.RegisterHealthCheck(router, sqlDB)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := c.Handler(middleware.LoggingMiddleware(middleware.TracingMiddleware("fulfillment", router)))

	httpPort := getEnv("HTTP_PORT", "8080")
	go func() {
		logger.Logger.Info().
			Str("port", httpPort).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")

		if err := http.ListenAndServe(":"+httpPort, handler); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
