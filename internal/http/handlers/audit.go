package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tiketku/internal/http/middleware"
	"tiketku/internal/repositories"
)

// AuditHandler serves the transition history of a booking for support
// tooling. Admin only.
type AuditHandler struct {
	Repo repositories.AuditRepository
}

// GET /api/bookings/:id/audit
func (h AuditHandler) ListForBooking(c *gin.Context) {
	if middleware.GetPrincipal(c).Role != "admin" {
		RespondError(c, http.StatusForbidden, "hanya untuk admin", nil)
		return
	}
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	entries, err := h.Repo.ListByEntity(c.Request.Context(), "booking", id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "gagal ambil riwayat", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
