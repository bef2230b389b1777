package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tiketku/internal/http/middleware"
	"tiketku/internal/services"
	"tiketku/internal/tickets"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Service *services.BookingService
	Tickets tickets.Service
}

// service returns a request-scoped copy carrying the request id into logs
// and audit rows.
func (h BookingHandler) service(c *gin.Context) *services.BookingService {
	svc := *h.Service
	svc.RequestID = middleware.GetRequestID(c)
	svc.Audit.RequestID = svc.RequestID
	return &svc
}

// POST /api/bookings
func (h BookingHandler) Create(c *gin.Context) {
	var req services.CreateBookingInput
	if !BindJSONOrError(c, &req) {
		return
	}
	b, err := h.service(c).CreateBooking(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

// GET /api/bookings/:id
func (h BookingHandler) Get(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	d, err := h.service(c).GetBooking(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GET /api/bookings/reference/:ref
func (h BookingHandler) GetByReference(c *gin.Context) {
	d, err := h.service(c).GetBookingByReference(c.Request.Context(), middleware.GetPrincipal(c), c.Param("ref"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// POST /api/bookings/:id/cancel
func (h BookingHandler) Cancel(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	b, err := h.service(c).CancelBooking(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// GET /api/bookings/:id/e-ticket
func (h BookingHandler) ETicket(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	svc := h.Tickets
	svc.RequestID = middleware.GetRequestID(c)
	pdf, filename, err := svc.GenerateETicket(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
