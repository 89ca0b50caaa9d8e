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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/api/middleware"
	"github.com/feral-file/covenant-witness/internal/api/server"
	"github.com/feral-file/covenant-witness/internal/config"
	"github.com/feral-file/covenant-witness/internal/logger"
	"github.com/feral-file/covenant-witness/internal/metrics"
	"github.com/feral-file/covenant-witness/internal/milestone"
	"github.com/feral-file/covenant-witness/internal/notification"
	"github.com/feral-file/covenant-witness/internal/providers/transport"
	"github.com/feral-file/covenant-witness/internal/registration"
	"github.com/feral-file/covenant-witness/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Covenant Witness API")

	deadline, err := cfg.Registry.DeadlineTime()
	if err != nil {
		logger.FatalCtx(ctx, "Invalid deadline", zap.Error(err))
	}

	clock := adapter.NewClock()
	dataStore := openStore(ctx, &cfg.Database, clock)

	// Metrics registry shared by every component and served on /metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Notification transport
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

	service := registration.NewService(registration.Config{
		Target:          cfg.Registry.Target,
		Capacity:        cfg.Registry.Capacity,
		Deadline:        deadline,
		MaxRetries:      cfg.Allocation.MaxRetries,
		InitialInterval: cfg.Allocation.InitialInterval,
		MaxInterval:     cfg.Allocation.MaxInterval,
	}, dataStore, detector, dispatcher, clock, m)

	logger.InfoCtx(ctx, "Initialized covenant registry",
		zap.Int("target", cfg.Registry.Target),
		zap.Int("capacity", cfg.Registry.Capacity),
		zap.Time("deadline", deadline),
		zap.Ints("milestone_thresholds", cfg.Registry.MilestoneThresholds),
		zap.String("transport", sender.Name()),
	)

	// Create server config
	serverConfig := server.Config{
		Debug:          cfg.Debug,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}

	srv := server.New(serverConfig, service, dispatcher, dataStore, clock, registry)

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	// Stop accepting requests first, then drain queued notifications
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err, zap.String("component", "server"))
	}
	dispatcher.Close()
	cancel()

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}

// openStore builds the configured store; postgres failures are fatal
func openStore(ctx context.Context, cfg *config.DatabaseConfig, clock adapter.Clock) store.Store {
	if cfg.Driver == config.StoreDriverMemory {
		logger.WarnCtx(ctx, "Using in-memory store, witnesses will not survive a restart")
		return store.NewMemoryStore(clock)
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)

	return store.NewPGStore(db)
}
