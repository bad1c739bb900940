package handlers

import (
	"net/http"

	"example.com/registrar/internal/gateway"
	"example.com/registrar/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// respondError maps service errors to HTTP responses. Unrecognized errors
// become opaque 500s so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	var validationErr *gateway.ValidationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, services.ErrInvalidDecision),
		errors.Is(err, services.ErrInvalidRefundAmount),
		errors.Is(err, services.ErrAmountMismatch),
		errors.Is(err, services.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidAdminCode):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrRegistrationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyRegistered),
		errors.Is(err, services.ErrAlreadyDecided),
		errors.Is(err, services.ErrNotCompleted),
		errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, gateway.ErrPaymentDeclined),
		errors.Is(err, gateway.ErrRefundDeclined):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
