package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/al-khabib/tashkent-city-transformers/pkg/services"
)

// StatusClientClosedRequest is the non-standard status for a request abandoned by its caller.
const StatusClientClosedRequest = 499

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrCancelled):
		return StatusClientClosedRequest
	case errors.Is(err, services.ErrUnknownDistrict),
		errors.Is(err, services.ErrInvalidTargetDate),
		errors.Is(err, services.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAssistantUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success":    false,
		"error":      message,
		"request_id": requestID(c),
	})
}

func respondEngineError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == StatusClientClosedRequest {
		respondError(c, status, "Prediction request cancelled")
		return
	}
	respondError(c, status, err.Error())
}

func requestID(c *gin.Context) string {
	return c.GetString(services.RequestIDKey)
}
