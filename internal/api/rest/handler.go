package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/api/middleware"
	"github.com/feral-file/covenant-witness/internal/api/shared/dto"
	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/logger"
	"github.com/feral-file/covenant-witness/internal/notification"
	"github.com/feral-file/covenant-witness/internal/registration"
	"github.com/feral-file/covenant-witness/internal/store"
)

const healthCheckTimeout = 2 * time.Second

// Handler defines the interface for REST API handlers
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// RegisterWitness accepts a signed registration and allocates a sequence number
	// POST /witnesses
	RegisterWitness(c *gin.Context)

	// ListWitnesses returns active witnesses ordered by sequence number
	// GET /witnesses?includeStats=<bool>&limit=<limit>&offset=<offset>
	ListWitnesses(c *gin.Context)

	// GetWitness returns the public view of one witness
	// GET /witnesses/:identifier
	GetWitness(c *gin.Context)

	// GetStats returns the readiness of the covenant
	// GET /stats
	GetStats(c *gin.Context)

	// SendNotification dispatches a notification synchronously
	// POST /notifications
	SendNotification(c *gin.Context)

	// RevokeWitness revokes a witness (requires authentication)
	// POST /admin/witnesses/:identifier/revoke
	RevokeWitness(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	service    registration.Service
	dispatcher notification.Dispatcher
	store      store.Store
	clock      adapter.Clock
}

// NewHandler creates a new REST API handler
func NewHandler(
	service registration.Service,
	dispatcher notification.Dispatcher,
	st store.Store,
	clock adapter.Clock,
) Handler {
	return &handler{
		service:    service,
		dispatcher: dispatcher,
		store:      st,
		clock:      clock,
	}
}

// RegisterWitness accepts a registration. The response never waits for notifications.
func (h *handler) RegisterWitness(c *gin.Context) {
	var req dto.RegisterWitnessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	witness, err := h.service.Register(c.Request.Context(), req.ToInput())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RegisterWitnessResponse{
		Witness: dto.MapWitness(witness),
	})
}

// ListWitnesses returns a page of active witnesses and, optionally, the readiness stats
func (h *handler) ListWitnesses(c *gin.Context) {
	params, err := ParseListWitnessesQuery(c)
	if err != nil {
		respondBadRequest(c, "Invalid query parameters", err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	witnesses, err := h.service.List(ctx, params.Limit, params.Offset)
	if err != nil {
		respondInternalError(c, err, "Failed to list witnesses")
		return
	}

	resp := dto.ListWitnessesResponse{
		Witnesses: dto.MapWitnessSummaries(witnesses),
	}

	if params.IncludeStats {
		stats, err := h.service.Stats(ctx, h.clock.Now())
		if err != nil {
			respondInternalError(c, err, "Failed to compute stats")
			return
		}
		resp.Stats = dto.MapStats(stats)
	}

	c.JSON(http.StatusOK, resp)
}

// GetWitness returns a witness by identifier; revoked witnesses are still visible
func (h *handler) GetWitness(c *gin.Context) {
	witness, err := h.service.Get(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.WitnessResponse{
		Witness: dto.MapWitnessSummary(witness),
	})
}

// GetStats returns the readiness stats
func (h *handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), h.clock.Now())
	if err != nil {
		respondInternalError(c, err, "Failed to compute stats")
		return
	}

	c.JSON(http.StatusOK, dto.MapStats(stats))
}

// SendNotification dispatches the notification described by the body.
// Delivery failures are reported with success false and status 200; they never change registry state.
func (h *handler) SendNotification(c *gin.Context) {
	var req dto.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	intent, err := req.ToIntent()
	if err != nil {
		if !respondAPIError(c, err) {
			respondBadRequest(c, err.Error())
		}
		return
	}

	ctx := c.Request.Context()
	result, err := h.dispatcher.Dispatch(ctx, intent)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidIntent) {
			respondBadRequest(c, err.Error())
			return
		}

		logger.WarnCtx(ctx, "Notification dispatch failed",
			zap.String("type", req.Type),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, dto.NotificationResponse{
			Success: false,
			Error:   err.Error(),
			Kind:    intent.Kind(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.MapNotificationResult(result))
}

// RevokeWitness marks a witness revoked
func (h *handler) RevokeWitness(c *gin.Context) {
	var req dto.RevokeWitnessRequest
	// The body is optional
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "Invalid request body", err.Error())
			return
		}
	}
	if err := req.Validate(); err != nil {
		respondAPIError(c, err)
		return
	}

	ctx := c.Request.Context()
	witness, err := h.service.Revoke(ctx, c.Param("identifier"), req.Reason)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	logger.InfoCtx(ctx, "Witness revoked",
		zap.String("identifier", witness.Identifier),
		zap.Uint64("sequence_number", witness.SequenceNumber),
		zap.String("subject", c.GetString(string(middleware.AUTH_SUBJECT_KEY))),
	)

	resp := dto.RevokeWitnessResponse{
		Witness: dto.MapWitnessSummary(witness),
	}
	if witness.RevocationReason != nil {
		resp.RevocationReason = *witness.RevocationReason
	}
	c.JSON(http.StatusOK, resp)
}

// HealthCheck returns the health status of the API and its store
func (h *handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logger.WarnCtx(ctx, "Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{
			Status:  "unhealthy",
			Service: "covenant-witness-api",
			Store:   "unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:  "healthy",
		Service: "covenant-witness-api",
		Store:   "ok",
	})
}
