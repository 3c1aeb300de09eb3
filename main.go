package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"

	"etfRotationBot/config"
	"etfRotationBot/internal/adapters/logger"
	"etfRotationBot/internal/adapters/sqlite"
	"etfRotationBot/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()

	// 4. Initialize Bar Store
	store, err := app.NewBarStore(cfg)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize bar store")
		log.Fatalf("FATAL: Failed to initialize bar store: %v", err)
	}

	// 5. Initialize Application Service
	svc, err := app.NewBacktestService(cfg, appLogger, store, repo)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize backtest service")
		log.Fatalf("FATAL: Failed to initialize backtest service: %v", err)
	}

	// 6. Run the backtest
	record, err := svc.Run(ctx)
	if err != nil {
		appLogger.Error(ctx, err, "Backtest exited with error")
		log.Fatalf("FATAL: Backtest exited with error: %v", err)
	}

	appLogger.Info(ctx, "Application finished gracefully.", map[string]interface{}{"runID": record.Summary.ID})
}
