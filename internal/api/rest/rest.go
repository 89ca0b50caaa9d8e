package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/covenant-witness/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, auth *middleware.Authenticator, metrics http.Handler) {
	// Operational endpoints (no auth)
	router.GET("/health", handler.HealthCheck)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	// Witness registry (public)
	router.POST("/witnesses", handler.RegisterWitness)
	router.GET("/witnesses", handler.ListWitnesses)
	router.GET("/witnesses/:identifier", handler.GetWitness)
	router.GET("/stats", handler.GetStats)

	// Notifications
	router.POST("/notifications", handler.SendNotification)

	// Administration (requires authentication)
	admin := router.Group("/admin", middleware.RequireAdmin(auth))
	{
		admin.POST("/witnesses/:identifier/revoke", handler.RevokeWitness)
	}
}
