package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tiketku/internal/repositories"
	"tiketku/internal/utils"
)

// TripHandler exposes the read-only trip catalog the booking flow browses.
type TripHandler struct {
	Repo repositories.TripRepository
}

// GET /api/trips?limit=n
func (h TripHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	trips, err := h.Repo.ListUpcoming(c.Request.Context(), utils.NowUTC(), limit)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

// GET /api/trips/:id
func (h TripHandler) Get(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	t, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": t})
}
