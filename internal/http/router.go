package api

import (
	"log"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	intconfig "tiketku/internal/config"
	h "tiketku/internal/http/handlers"
	"tiketku/internal/http/middleware"
	"tiketku/internal/repositories"
	"tiketku/internal/services"
	"tiketku/internal/tickets"
)

// Deps carries the wired services the router mounts.
type Deps struct {
	Env      intconfig.Env
	Bookings *services.BookingService
	Payments *services.PaymentService
	Tickets  tickets.Service
	Trips    repositories.TripRepository
	Audit    repositories.AuditRepository
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		gin.Recovery(),
		middleware.CORS(),
		middleware.Principal(d.Env.JWTSecret),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route tidak ditemukan",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	bh := h.BookingHandler{Service: d.Bookings, Tickets: d.Tickets}
	ph := h.PaymentHandler{Service: d.Payments}
	wh := h.WebhookHandler{Service: d.Payments}
	th := h.TripHandler{Repo: d.Trips}
	ah := h.AuditHandler{Repo: d.Audit}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		trips := api.Group("/trips")
		trips.GET("", th.List)
		trips.GET("/:id", th.Get)

		bookings := api.Group("/bookings")
		bookings.POST("", bh.Create)
		bookings.GET("/:id", bh.Get)
		bookings.GET("/reference/:ref", bh.GetByReference)
		bookings.POST("/:id/cancel", bh.Cancel)
		bookings.POST("/:id/payments", ph.RetryForBooking)
		bookings.GET("/:id/e-ticket", bh.ETicket)
		bookings.GET("/:id/audit", ah.ListForBooking)

		payments := api.Group("/payments")
		payments.POST("/webhook", wh.Receive)
		payments.GET("/:ref", ph.Get)
		payments.POST("/:ref/refund", ph.Refund)
	}

	return r
}
