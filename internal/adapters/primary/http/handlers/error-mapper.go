package handlers

import (
	"errors"
	"net/http"

	"aqi-prediction-service/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	status := statusFor(err)

	switch {
	// Validation errors carry the offending feature name
	case status == http.StatusBadRequest:
		c.JSON(status, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrReadingIncomplete):
		c.JSON(status, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		c.JSON(status, gin.H{"error": domain.ErrUpstreamUnavailable.Error()})

	case errors.Is(err, domain.ErrModelNotLoaded):
		c.JSON(status, gin.H{"error": domain.ErrModelNotLoaded.Error()})
	case errors.Is(err, domain.ErrPredictionFailed):
		c.JSON(status, gin.H{"error": domain.ErrPredictionFailed.Error()})

	default:
		c.JSON(status, gin.H{"error": "internal server error"})
	}
}

func statusFor(err error) int {
	switch {
	// Bad request / validation errors
	case errors.Is(err, domain.ErrInvalidRequestBody),
		errors.Is(err, domain.ErrMissingFeature),
		errors.Is(err, domain.ErrNonNumericFeature),
		errors.Is(err, domain.ErrUnknownFeature),
		errors.Is(err, domain.ErrInvalidLocation):
		return http.StatusBadRequest

	// Upstream errors
	case errors.Is(err, domain.ErrUpstreamUnavailable),
		errors.Is(err, domain.ErrReadingIncomplete):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
