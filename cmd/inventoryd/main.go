package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kitchenops/inventory-service/config"
	"github.com/kitchenops/inventory-service/internal/batch"
	batchRepoPkg "github.com/kitchenops/inventory-service/internal/batch/repository"
	"github.com/kitchenops/inventory-service/internal/costing"
	csRepoPkg "github.com/kitchenops/inventory-service/internal/countsheet/repository"
	csUCPkg "github.com/kitchenops/inventory-service/internal/countsheet/usecase"
	"github.com/kitchenops/inventory-service/internal/events"
	itemRepoPkg "github.com/kitchenops/inventory-service/internal/item/repository"
	"github.com/kitchenops/inventory-service/internal/ledger"
	ledgerRepoPkg "github.com/kitchenops/inventory-service/internal/ledger/repository"
	"github.com/kitchenops/inventory-service/internal/listener"
	"github.com/kitchenops/inventory-service/internal/store"
	"github.com/kitchenops/inventory-service/internal/sweeper"
	txnProcessorPkg "github.com/kitchenops/inventory-service/internal/txn/processor"
	txnRepoPkg "github.com/kitchenops/inventory-service/internal/txn/repository"
	"github.com/kitchenops/inventory-service/pkg/logger"
	"github.com/kitchenops/inventory-service/pkg/postgres"
	"github.com/kitchenops/inventory-service/pkg/redislock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "dev",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database and migrate
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if err := postgres.RunMigrations(db, cfg.Postgres.MigrationsPath); err != nil {
		appLogger.Fatal("Could not run migrations", zap.Error(err))
	}

	// 4. Initialize Redis lock
	locker, err := redislock.NewClient(&redislock.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer locker.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka
	publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, appLogger)
	defer publisher.Close()
	ordersReader := listener.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic, cfg.Kafka.OrdersGroupID)
	countsReader := listener.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.CountsTopic, cfg.Kafka.CountsGroupID)
	appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers))

	// 6. Initialize Repositories
	atomic := store.NewSQLAtomic(db)
	itemRepo := itemRepoPkg.NewPGRepository(db)
	batchRepo := batchRepoPkg.NewPGRepository(db)
	ledgerRepo := ledgerRepoPkg.NewPGRepository(db)
	txnRepo := txnRepoPkg.NewPGRepository(db)
	csRepo := csRepoPkg.NewPGRepository(db)

	// 7. Initialize Services
	tracker := batch.NewTracker(batchRepo, appLogger)
	stockLedger := ledger.New(ledgerRepo, appLogger)
	engine := costing.NewEngine(tracker, itemRepo)
	processor := txnProcessorPkg.New(
		atomic, stockLedger, tracker, engine, itemRepo, txnRepo, publisher, locker, appLogger,
	)

	tolerance, err := decimal.NewFromString(cfg.Inventory.CountTolerance)
	if err != nil {
		appLogger.Fatal("Invalid count tolerance", zap.String("value", cfg.Inventory.CountTolerance), zap.Error(err))
	}
	countSheets := csUCPkg.NewCountSheetUseCase(csRepo, stockLedger, processor, atomic, tolerance, appLogger)

	// 8. Start Listeners and Sweeper
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orderListener := listener.NewOrderListener(ordersReader, processor, appLogger)
	defer orderListener.Close()
	go orderListener.Start(ctx)

	countListener := listener.NewCountListener(countsReader, countSheets, appLogger)
	defer countListener.Close()
	go countListener.Start(ctx)

	sweep := sweeper.New(
		stockLedger, tracker, processor, publisher, appLogger,
		time.Duration(cfg.Inventory.SweepIntervalSeconds)*time.Second,
		cfg.Inventory.ExpiryWarningDays,
	)
	go sweep.Start(ctx)

	appLogger.Info("Inventory service started")

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	cancel()
	appLogger.Info("Service stopped")
}
