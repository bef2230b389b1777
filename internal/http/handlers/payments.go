package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tiketku/internal/domain"
	"tiketku/internal/http/middleware"
	"tiketku/internal/services"
)

// PaymentHandler exposes payment status, retry and refund.
type PaymentHandler struct {
	Service *services.PaymentService
}

func (h PaymentHandler) service(c *gin.Context) *services.PaymentService {
	svc := *h.Service
	svc.RequestID = middleware.GetRequestID(c)
	svc.Audit.RequestID = svc.RequestID
	return &svc
}

// GET /api/payments/:ref
//
// Reads the payment and opportunistically reconciles an unsettled one
// against the provider, so a customer refreshing the status page also
// repairs missed webhooks.
func (h PaymentHandler) Get(c *gin.Context) {
	ref := strings.TrimSpace(c.Param("ref"))
	if ref == "" {
		RespondError(c, http.StatusBadRequest, "ref tidak valid", nil)
		return
	}
	p, err := h.service(c).PollStatus(c.Request.Context(), ref)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

type retryPaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
	ContactPhone  string `json:"contact_phone"`
}

// POST /api/bookings/:id/payments
//
// Starts a fresh payment attempt for a booking whose previous attempt
// failed or was never settled.
func (h PaymentHandler) RetryForBooking(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req retryPaymentRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := h.service(c)
	principal := middleware.GetPrincipal(c)

	b, err := svc.BookingRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if principal.Role != "admin" && b.RequesterID != 0 && b.RequesterID != principal.UserID {
		RespondDomainError(c, domain.NotFoundError{Resource: "booking"})
		return
	}
	p, err := svc.Initiate(c.Request.Context(), b, req.PaymentMethod, req.ContactPhone)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": p})
}

// POST /api/payments/:ref/refund
func (h PaymentHandler) Refund(c *gin.Context) {
	ref := strings.TrimSpace(c.Param("ref"))
	if ref == "" {
		RespondError(c, http.StatusBadRequest, "ref tidak valid", nil)
		return
	}
	p, err := h.service(c).Refund(c.Request.Context(), middleware.GetPrincipal(c), ref)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}
