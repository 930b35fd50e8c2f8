// main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"marketplace-payments/cmd"
	"marketplace-payments/internal/data/repository"
	"marketplace-payments/internal/events"
	"marketplace-payments/internal/provider"
	"marketplace-payments/internal/wire"
	"marketplace-payments/internal/worker"
	"marketplace-payments/pkg/cache"
	"marketplace-payments/pkg/database"
	"marketplace-payments/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Status cache is optional; a missing Redis only disables the projection.
	var statusCache cache.Cache
	if config.Redis.Addr != "" {
		statusCache, err = cache.NewRedisCache(config.Redis, logger)
		if err != nil {
			logger.Warn("Redis unavailable, status cache disabled", zap.Error(err))
			statusCache = nil
		}
	}

	// Event emitter: Kafka when enabled, otherwise log-only.
	var emitter events.Emitter
	if config.Kafka.Enabled {
		kafkaEmitter, err := events.NewKafkaEmitter(config.Kafka.Brokers, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Kafka", zap.Error(err))
		}
		defer kafkaEmitter.Close()
		emitter = kafkaEmitter
	} else {
		emitter = events.NewNoopEmitter(logger)
	}

	// Payment gateways
	providerTimeout := time.Duration(config.Payment.ProviderTimeoutSecs) * time.Second
	gateways := &provider.Registry{
		Checkout: provider.NewCheckoutFormGateway(config.Checkout, providerTimeout, logger),
		Iframe:   provider.NewIframeTokenGateway(config.Iframe, providerTimeout, logger),
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)
	tx := database.NewTxManager(db)

	// Wire all dependencies
	app := wire.Wiring(repos, db, tx, gateways, emitter, statusCache, config, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background sweep worker
	scheduler := worker.NewSweepScheduler(
		app.Service.Sweeper,
		time.Duration(config.Sweep.IntervalMinutes)*time.Minute,
		logger,
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()

	// Start server
	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("HTTP server error", zap.Error(err))
	}

	stop()
	wg.Wait()

	logger.Info("Application stopped")
}
