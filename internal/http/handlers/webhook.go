package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tiketku/internal/gateway"
	"tiketku/internal/http/middleware"
	"tiketku/internal/services"
)

// WebhookHandler receives provider payment notifications. Delivery is
// at-least-once and unordered; a non-2xx response makes the provider
// redeliver, so only genuinely retryable failures return errors.
type WebhookHandler struct {
	Service *services.PaymentService
}

// POST /api/payments/webhook
func (h WebhookHandler) Receive(c *gin.Context) {
	var ev gateway.WebhookEvent
	if !BindJSONOrError(c, &ev) {
		return
	}
	svc := *h.Service
	svc.RequestID = middleware.GetRequestID(c)
	svc.Audit.RequestID = svc.RequestID

	if err := svc.IngestWebhook(c.Request.Context(), ev); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
