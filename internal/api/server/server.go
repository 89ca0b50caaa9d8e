package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/api/middleware"
	"github.com/feral-file/covenant-witness/internal/api/rest"
	"github.com/feral-file/covenant-witness/internal/logger"
	"github.com/feral-file/covenant-witness/internal/notification"
	"github.com/feral-file/covenant-witness/internal/registration"
	"github.com/feral-file/covenant-witness/internal/store"
)

// Config holds the server configuration
type Config struct {
	Debug          bool
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
	Auth           middleware.AuthConfig
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	service    registration.Service
	dispatcher notification.Dispatcher
	store      store.Store
	clock      adapter.Clock
	gatherer   prometheus.Gatherer

	// mu guards httpServer and stopped; Start and Shutdown run on different goroutines
	mu         sync.Mutex
	httpServer *http.Server
	stopped    bool
}

// New creates a new API server. A nil gatherer disables /metrics.
func New(
	cfg Config,
	service registration.Service,
	dispatcher notification.Dispatcher,
	st store.Store,
	clock adapter.Clock,
	gatherer prometheus.Gatherer,
) *Server {
	return &Server{
		config:     cfg,
		service:    service,
		dispatcher: dispatcher,
		store:      st,
		clock:      clock,
		gatherer:   gatherer,
	}
}

// Router builds the gin engine with middleware and routes
func (s *Server) Router() (*gin.Engine, error) {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	auth, err := middleware.NewAuthenticator(s.config.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	router := gin.New()

	// Setup middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS(s.config.AllowedOrigins))

	var metricsHandler http.Handler
	if s.gatherer != nil {
		metricsHandler = promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
	}

	restHandler := rest.NewHandler(s.service, s.dispatcher, s.store, s.clock)
	rest.SetupRoutes(router, restHandler, auth, metricsHandler)

	return router, nil
}

// Start initializes and starts the HTTP server. It returns nil once Shutdown is called,
// including when Shutdown ran first.
func (s *Server) Start() error {
	router, err := s.Router()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.httpServer = httpServer
	s.mu.Unlock()

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	s.mu.Lock()
	s.stopped = true
	httpServer := s.httpServer
	s.mu.Unlock()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
