package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/covenant-witness/internal/api/shared/errors"
	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/logger"
)

// respondBadRequest responds with an invalid request error
func respondBadRequest(c *gin.Context, message string, fields ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewInvalidRequestError(message, fields...))
}

// respondAPIError responds with an error built by the dto layer
func respondAPIError(c *gin.Context, err error) bool {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	c.JSON(http.StatusBadRequest, apiErr)
	return true
}

// respondInternalError logs the error and responds with an opaque internal error
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.ErrorCtx(c.Request.Context(), err, fields...)
	c.JSON(http.StatusInternalServerError, apierrors.NewInternalError(message))
}

// respondDomainError maps a registry error to its status code and error body
func respondDomainError(c *gin.Context, err error) {
	var (
		missingErr    *domain.MissingFieldError
		identifierErr *domain.InvalidIdentifierError
		contactErr    *domain.InvalidContactError
		allocationErr *domain.AllocationError
	)

	switch {
	case errors.As(err, &missingErr):
		c.JSON(http.StatusBadRequest,
			apierrors.New(apierrors.ErrCodeMissingField, err.Error()).WithFields(missingErr.Fields...))
	case errors.As(err, &identifierErr):
		c.JSON(http.StatusBadRequest,
			apierrors.New(apierrors.ErrCodeInvalidIdentifier, err.Error()).WithFields("identifier"))
	case errors.As(err, &contactErr):
		c.JSON(http.StatusBadRequest,
			apierrors.New(apierrors.ErrCodeInvalidContact, err.Error()).WithFields("contact"))
	case errors.Is(err, domain.ErrDuplicateWitness):
		c.JSON(http.StatusConflict, apierrors.New(apierrors.ErrCodeDuplicateWitness, err.Error()))
	case errors.Is(err, domain.ErrCapacityReached):
		c.JSON(http.StatusConflict, apierrors.New(apierrors.ErrCodeCapacityReached, err.Error()))
	case errors.Is(err, domain.ErrWitnessNotFound):
		c.JSON(http.StatusNotFound, apierrors.NewNotFoundError(err.Error()))
	case errors.Is(err, domain.ErrWitnessAlreadyRevoked):
		c.JSON(http.StatusConflict, apierrors.New(apierrors.ErrCodeAlreadyRevoked, err.Error()))
	case errors.As(err, &allocationErr):
		logger.ErrorCtx(c.Request.Context(), err, zap.Int("attempts", allocationErr.Attempts))
		c.JSON(http.StatusInternalServerError, apierrors.New(apierrors.ErrCodeAllocation))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, apierrors.New(apierrors.ErrCodeUnavailable, "request cancelled"))
	default:
		respondInternalError(c, err, "Internal server error")
	}
}
