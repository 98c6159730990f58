package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storyreel-server/internal/models"
	"storyreel-server/internal/service"
)

// APIError is the JSON error body returned by every endpoint.
type APIError struct {
	Message      string   `json:"message"`
	MissingSlots []string `json:"missingSlots,omitempty"`
}

// handleServiceError maps service errors to HTTP status codes and aborts the
// request with a JSON body.
func handleServiceError(c *gin.Context, err error, logger *zap.Logger) {
	var statusCode int
	apiErr := APIError{Message: err.Error()}

	var notReady *service.AssetsNotReadyError

	switch {
	case errors.Is(err, models.ErrInvalidVariables),
		errors.Is(err, models.ErrUnknownTemplate),
		errors.Is(err, models.ErrUnknownSlot),
		errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest

	case errors.Is(err, models.ErrProjectNotFound),
		errors.Is(err, models.ErrPromptNotFound),
		errors.Is(err, models.ErrAssetNotFound),
		errors.Is(err, models.ErrJobNotFound),
		errors.Is(err, models.ErrChildNotFound),
		errors.Is(err, models.ErrEntryNotFound),
		errors.Is(err, models.ErrAssignmentNotFound),
		errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound

	case errors.Is(err, models.ErrQueueEmpty):
		statusCode = http.StatusNotFound

	case errors.Is(err, models.ErrAlreadyAssigned),
		errors.Is(err, models.ErrAlreadyInFlight),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrNotClaimOwner):
		statusCode = http.StatusConflict

	case errors.As(err, &notReady):
		statusCode = http.StatusUnprocessableEntity
		apiErr.MissingSlots = notReady.MissingSlots

	case errors.Is(err, models.ErrAssetsNotReady),
		errors.Is(err, models.ErrPromptNotReady),
		errors.Is(err, models.ErrAssetMissingURL):
		statusCode = http.StatusUnprocessableEntity

	case errors.Is(err, models.ErrProviderFailed):
		statusCode = http.StatusBadGateway

	default:
		statusCode = http.StatusInternalServerError
		apiErr.Message = "Internal server error"
		logger.Error("Unhandled service error", zap.Error(err))
	}

	c.AbortWithStatusJSON(statusCode, apiErr)
}
