package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/cache"
	apphttp "github.com/VishalChauhan562/nemichand-handlooms-backend/internal/http"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/logging"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/metrics"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/payment"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/publisher"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/repository"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/service"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	logger, err := logging.New("handlooms-backend")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Configuration
	httpPort := getEnv("HTTP_PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "dev-secret")
	kafkaBrokers := getEnv("KAFKA_BROKERS", "localhost:9092")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	currency := getEnv("PAYMENT_CURRENCY", "INR")

	razorpayURL := getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com")
	razorpayKeyID := getEnv("RAZORPAY_KEY_ID", "")
	razorpayKeySecret := getEnv("RAZORPAY_KEY_SECRET", "")
	webhookSecret := getEnv("RAZORPAY_WEBHOOK_SECRET", "")

	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "handlooms")
	migrationsPath := getEnv("MIGRATIONS_PATH", "./internal/repository/migrations")

	port, err := strconv.Atoi(dbPort)
	if err != nil {
		logger.Fatal("invalid_db_port", zap.String("value", dbPort))
	}

	creds := &repository.Credentials{
		Host:              dbHost,
		Port:              port,
		User:              dbUser,
		Password:          dbPass,
		DBName:            dbName,
		MigrationsDirPath: migrationsPath,
	}

	store, err := repository.NewStore(creds)
	if err != nil {
		logger.Fatal("db_connect_failed", zap.Error(err))
	}
	defer store.Close()

	if err := store.RunMigrations(creds); err != nil {
		logger.Fatal("migrations_failed", zap.Error(err))
	}
	logger.Info("migrations_completed")

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	provider := payment.NewClient(razorpayURL, razorpayKeyID, razorpayKeySecret, 10*time.Second)
	verifier := payment.NewHMACVerifier(webhookSecret)

	checkoutSvc := service.NewCheckoutService(store, provider, m, logger, currency)
	reconciliationSvc := service.NewReconciliationService(store, verifier, cartCache, logger)
	cartSvc := service.NewCartService(store, store, cartCache, logger)
	catalogSvc := service.NewCatalogService(store, store, logger)
	orderSvc := service.NewOrderService(store, logger)

	// Outbox poller publishes confirmed-order events to Kafka.
	poller := publisher.NewOutboxPoller(store, logger, strings.Split(kafkaBrokers, ",")...)
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(pollerCtx)
	}()

	router := apphttp.NewRouter(apphttp.RouterConfig{
		JWTSecret: jwtSecret,
		Registry:  registry,
		Products:  apphttp.NewProductHandler(catalogSvc),
		Cart:      apphttp.NewCartHandler(cartSvc),
		Checkout:  apphttp.NewCheckoutHandler(checkoutSvc),
		Orders:    apphttp.NewOrderHandler(orderSvc),
		Webhook:   apphttp.NewWebhookHandler(reconciliationSvc),
	})

	server := &http.Server{
		Addr:    ":" + httpPort,
		Handler: router,
	}

	go func() {
		logger.Info("http_listening", zap.String("port", httpPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http_serve_failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", zap.Error(err))
	}

	pollerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		logger.Info("outbox_poller_stopped")
	case <-shutdownCtx.Done():
		logger.Warn("outbox_poller_stop_timeout")
	}

	if err := poller.Close(); err != nil {
		logger.Error("kafka_writer_close_failed", zap.Error(err))
	}
	logger.Info("stopped")
}
