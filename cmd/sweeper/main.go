package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/config"
	"github.com/feral-file/covenant-witness/internal/logger"
	"github.com/feral-file/covenant-witness/internal/metrics"
	"github.com/feral-file/covenant-witness/internal/milestone"
	"github.com/feral-file/covenant-witness/internal/notification"
	"github.com/feral-file/covenant-witness/internal/providers/transport"
	"github.com/feral-file/covenant-witness/internal/store"
	"github.com/feral-file/covenant-witness/internal/sweeper"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadSweeperConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "sweeper",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Sweeper")

	deadline, err := cfg.Registry.DeadlineTime()
	if err != nil {
		logger.FatalCtx(ctx, "Invalid deadline", zap.Error(err))
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize clock adapter
	clock := adapter.NewClock()

	// No HTTP surface here, so metrics stay in a private registry
	m := metrics.New(prometheus.NewRegistry())

	sender, closeSender, err := transport.NewSender(cfg.Notification, cfg.NATS, adapter.NewNatsJetStream(), clock)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create notification sender", zap.Error(err),
			zap.String("transport", string(cfg.Notification.Transport)))
	}
	defer closeSender()

	dispatcher := notification.NewDispatcher(ctx, notification.Config{
		WorkerPoolSize:   cfg.Notification.Worker.WorkerPoolSize,
		WorkerQueueSize:  cfg.Notification.Worker.WorkerQueueSize,
		ClaimTTL:         cfg.Notification.ClaimTTL,
		BatchConcurrency: cfg.Notification.BatchConcurrency,
		Target:           cfg.Registry.Target,
		Deadline:         deadline,
	}, dataStore, sender, clock, adapter.NewJSON(), m)

	detector := milestone.NewDetector(dataStore, clock, cfg.Registry.MilestoneThresholds, cfg.Registry.Target)

	// Initialize covenant sweeper
	covenantSweeper := sweeper.NewCovenantSweeper(sweeper.CovenantSweeperConfig{
		Interval:           cfg.Sweeper.Interval,
		Deadline:           deadline,
		WelcomeGrace:       cfg.Sweeper.WelcomeGrace,
		WelcomeBatchSize:   cfg.Sweeper.WelcomeBatchSize,
		WelcomeMaxAttempts: cfg.Sweeper.WelcomeMaxAttempts,
	}, dataStore, detector, dispatcher, clock)

	logger.InfoCtx(ctx, "Initialized covenant sweeper (continuous mode)",
		zap.Duration("interval", cfg.Sweeper.Interval),
		zap.Time("deadline", deadline),
		zap.String("transport", sender.Name()),
	)

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := covenantSweeper.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	// Give the sweeper time to finish its cycle
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := covenantSweeper.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}
	dispatcher.Close()
	cancel()

	logger.InfoCtx(shutdownCtx, "Sweeper stopped")
}
