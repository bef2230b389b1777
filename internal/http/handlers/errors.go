package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tiketku/internal/domain"
	"tiketku/internal/http/middleware"
)

// RespondDomainError maps engine errors to HTTP responses. Persistence
// details never reach the client; everything else keeps its message.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error())
	case domain.IsCapacity(err):
		respondError(c, http.StatusConflict, "capacity_exceeded", err.Error())
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error())
	case domain.IsPolicyViolation(err):
		respondError(c, http.StatusUnprocessableEntity, "policy_violation", err.Error())
	case domain.IsPayment(err):
		respondError(c, http.StatusBadGateway, "payment_error", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "internal_error", "terjadi kesalahan")
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error":      message,
		"code":       code,
		"request_id": middleware.GetRequestID(c),
	})
}
