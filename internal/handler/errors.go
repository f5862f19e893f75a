// Package handler exposes the HTTP surface over the services.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salescope/salescope/internal/model"
)

// statusFor maps service errors onto HTTP statuses. Anything unknown
// is an internal fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrUnsafeSQL),
		errors.Is(err, model.ErrInvalidDimension),
		errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrIngestion):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrCollaborator):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
