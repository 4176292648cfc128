package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	couponrepo "github.com/tair/order-fulfillment/internal/coupon/repository"
	"github.com/tair/order-fulfillment/internal/coupon/sweeper"
	"github.com/tair/order-fulfillment/pkg/database"
	"github.com/tair/order-fulfillment/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		_ = err
	}

	serviceName := getEnv("OTEL_SERVICE_NAME", "coupon-sweeper")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)
	logger.SetLevel(getEnv("LOG_LEVEL", "info"))

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

	interval, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "30m"))
	if err != nil || interval <= 0 {
		interval = 30 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := sweeper.NewSweeper(couponrepo.NewGormCouponRepository(db), interval)
	s.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.Stop()
	cancel()
	logger.Logger.Info().Msg("Shutting down sweeper...")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
