package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pay-chain.backend/internal/config"
	domainbus "pay-chain.backend/internal/domain/bus"
	domainentities "pay-chain.backend/internal/domain/entities"
	infrabus "pay-chain.backend/internal/infrastructure/bus"
	"pay-chain.backend/internal/infrastructure/migrations"
	"pay-chain.backend/internal/infrastructure/providers"
	"pay-chain.backend/internal/infrastructure/providers/payos"
	"pay-chain.backend/internal/infrastructure/providers/vnpay"
	"pay-chain.backend/internal/infrastructure/providers/zalopay"
	"pay-chain.backend/internal/infrastructure/repositories"
	"pay-chain.backend/internal/interfaces/http/handlers"
	"pay-chain.backend/internal/interfaces/http/middleware"
	"pay-chain.backend/internal/usecases"
	"pay-chain.backend/pkg/logger"
	"pay-chain.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	connectBus = func(ctx context.Context, cfg infrabus.Config) (domainbus.Publisher, error) {
		return infrabus.Connect(ctx, cfg)
	}
	runMigrations = migrations.Run
	runServer     = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB      = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := loadCfg()

	// Initialize Logger
	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// Initialize Redis
	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database using GORM
	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("connected to PostgreSQL via GORM")
	}

	if err := runMigrations(dsn); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subjects := make([]string, 0, len(domainentities.RoutingTable))
	for _, subject := range domainentities.RoutingTable {
		subjects = append(subjects, subject)
	}
	bus, err := connectBus(ctx, infrabus.Config{
		Brokers:    cfg.Bus.Brokers,
		SSL:        cfg.Bus.SSL,
		Username:   cfg.Bus.Username,
		Password:   cfg.Bus.Password,
		ClientID:   cfg.Bus.ClientID,
		StreamName: cfg.Bus.StreamName,
		Subjects:   subjects,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to message bus: %w", err)
	}

	// Initialize repositories
	paymentRepo := repositories.NewPaymentRepository(db)
	outboxRepo := repositories.NewOutboxRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Initialize provider adapters
	zaloPayAdapter := zalopay.New(zalopay.Config{
		AppID: cfg.ZaloPay.AppID,
		Key1:  cfg.ZaloPay.Key1,
		Key2:  cfg.ZaloPay.Key2,
	})
	payOSAdapter, err := payos.New(payos.Config{
		ClientID:    cfg.PayOS.ClientID,
		APIKey:      cfg.PayOS.APIKey,
		ChecksumKey: cfg.PayOS.ChecksumKey,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize payos adapter: %w", err)
	}
	vnPayAdapter := vnpay.New()
	registry := providers.NewRegistry(zaloPayAdapter, payOSAdapter, vnPayAdapter)

	idempotencyCache := usecases.NewIdempotencyCache(redis.Get, redis.Set)

	// Initialize usecases
	lifecycleUsecase := usecases.NewLifecycleUsecase(paymentRepo, outboxRepo, uow, registry, idempotencyCache, cfg.Server.WebhookBaseURL)
	paymentIntentUsecase := usecases.NewPaymentIntentUsecase(lifecycleUsecase)
	webhookUsecase := usecases.NewWebhookUsecase(registry, lifecycleUsecase)

	publisherCfg := usecases.DefaultPublisherConfig()
	publisherCfg.BatchSize = cfg.Outbox.BatchSize
	publisherCfg.MaxRetries = cfg.Outbox.MaxRetries
	publisherCfg.RetentionDays = cfg.Outbox.RetentionDays
	outboxPublisher := usecases.NewOutboxPublisher(outboxRepo, bus, publisherCfg)
	outboxPublisher.Start(ctx)

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(paymentIntentUsecase)
	webhookHandler := handlers.NewWebhookHandler(webhookUsecase)

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		paymentHandler: paymentHandler,
		webhookHandler: webhookHandler,
	})

	// Print all registered routes for debugging
	log.Println("Registered Routes:")
	for _, route := range r.Routes() {
		log.Printf("   %s %s", route.Method, route.Path)
	}

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("shutting down server...")

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := outboxPublisher.Stop(stopCtx); err != nil {
			logger.Warn(context.Background(), "outbox publisher stop timed out", zap.Error(err))
		}
		if err := bus.Close(); err != nil {
			logger.Warn(context.Background(), "bus close failed", zap.Error(err))
		}
		cancel()
	}()

	// Start server
	log.Printf("pay-chain payment service starting on port %s", cfg.Server.Port)
	log.Printf("API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
