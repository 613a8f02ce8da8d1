package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fekuna/omnipos-stock-service/config"
	"github.com/fekuna/omnipos-stock-service/internal/events"
	"github.com/fekuna/omnipos-stock-service/internal/server"
	"github.com/fekuna/omnipos-stock-service/pkg/broker"
	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/pkg/database"
	"github.com/fekuna/omnipos-stock-service/pkg/lock"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"

	itemRepoPkg "github.com/fekuna/omnipos-stock-service/internal/item/repository"

	stockH "github.com/fekuna/omnipos-stock-service/internal/stock/handler"
	stockListenerPkg "github.com/fekuna/omnipos-stock-service/internal/stock/listener"
	stockRepoPkg "github.com/fekuna/omnipos-stock-service/internal/stock/repository"
	stockUCPkg "github.com/fekuna/omnipos-stock-service/internal/stock/usecase"

	blockH "github.com/fekuna/omnipos-stock-service/internal/block/handler"
	blockRepoPkg "github.com/fekuna/omnipos-stock-service/internal/block/repository"
	blockUCPkg "github.com/fekuna/omnipos-stock-service/internal/block/usecase"

	transferH "github.com/fekuna/omnipos-stock-service/internal/transfer/handler"
	transferRepoPkg "github.com/fekuna/omnipos-stock-service/internal/transfer/repository"
	transferUCPkg "github.com/fekuna/omnipos-stock-service/internal/transfer/usecase"

	varianceH "github.com/fekuna/omnipos-stock-service/internal/variance/handler"
	varianceRepoPkg "github.com/fekuna/omnipos-stock-service/internal/variance/repository"
	varianceUCPkg "github.com/fekuna/omnipos-stock-service/internal/variance/usecase"

	cyclicH "github.com/fekuna/omnipos-stock-service/internal/cyclic/handler"
	cyclicRepoPkg "github.com/fekuna/omnipos-stock-service/internal/cyclic/repository"
	cyclicUCPkg "github.com/fekuna/omnipos-stock-service/internal/cyclic/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Open Database
	db, err := database.NewSQLite(ctx, &database.Config{
		Path:        cfg.SQLite.Path,
		BusyTimeout: cfg.SQLite.BusyTimeout,
	})
	if err != nil {
		appLogger.Fatal("Could not open database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Opened SQLite database", zap.String("path", cfg.SQLite.Path))

	txManager := database.NewTxManager(db)

	// 4. Initialize Repositories
	itemRepo := itemRepoPkg.NewSQLiteRepository(db)
	stockRepo := stockRepoPkg.NewSQLiteRepository(db)
	blockRepo := blockRepoPkg.NewSQLiteRepository(db)
	transferRepo := transferRepoPkg.NewSQLiteRepository(db)
	varianceRepo := varianceRepoPkg.NewSQLiteRepository(db)
	cyclicRepo := cyclicRepoPkg.NewSQLiteRepository(db)

	// 5. Initialize Item Locks
	var locker lock.Locker = lock.NewKeyedMutex()
	if strings.EqualFold(cfg.Lock.Backend, "redis") {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, lock.RedisConfig{
			TTL:             cfg.Lock.TTL,
			Retries:         cfg.Lock.Retries,
			RetryDelay:      cfg.Lock.RetryDelay,
			RefreshInterval: cfg.Lock.RefreshInterval,
		}, appLogger)
		appLogger.Info("Using Redis item locks", zap.String("addr", cfg.Redis.Addr))
	} else {
		appLogger.Info("Using in-process item locks")
	}

	// 5.5 Initialize Kafka
	var publisher events.Publisher = events.NopPublisher{}
	var kafkaConsumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.EventsTopic,
		})
		defer producer.Close()
		publisher = events.NewKafkaPublisher(producer, cfg.Kafka.PublishTimeout, appLogger)

		kafkaConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.ScanTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("scan_topic", cfg.Kafka.ScanTopic),
			zap.String("events_topic", cfg.Kafka.EventsTopic),
		)
	}

	// 6. Initialize UseCases
	gate := blockUCPkg.NewGate(blockRepo, blockUCPkg.ParseMode(cfg.Inventory.BlockEnforcement), appLogger)
	stockUC := stockUCPkg.NewStockUseCase(itemRepo, stockRepo, txManager, locker, gate, publisher, appLogger)
	blockUC := blockUCPkg.NewBlockUseCase(blockRepo, itemRepo, txManager, locker, publisher, appLogger)
	transferUC := transferUCPkg.NewTransferUseCase(transferRepo, itemRepo, stockUC, txManager, locker, gate, publisher, appLogger)
	varianceUC := varianceUCPkg.NewVarianceUseCase(varianceRepo, itemRepo, stockUC, txManager, locker, gate, publisher, appLogger)
	cyclicUC := cyclicUCPkg.NewCyclicUseCase(cyclicRepo, itemRepo, txManager, cfg.Inventory.OverdueFallbackDays, appLogger)

	// 6.5 Start Listener
	if kafkaConsumer != nil {
		scanListener := stockListenerPkg.NewScanListener(kafkaConsumer, stockUC, appLogger)
		go scanListener.Start(ctx)
	}

	// 7. Initialize Handlers
	router := server.NewRouter(appLogger,
		stockH.NewStockHandler(stockUC, appLogger),
		blockH.NewBlockHandler(blockUC, appLogger),
		transferH.NewTransferHandler(transferUC, appLogger),
		varianceH.NewVarianceHandler(varianceUC, appLogger),
		cyclicH.NewCyclicHandler(cyclicUC, appLogger),
	)

	// 8. Start HTTP Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		port = ":" + port
	}
	srv := &http.Server{
		Addr:    port,
		Handler: router,
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
