package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	intconfig "tiketku/internal/config"
)

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "tiketku engine berjalan"})
}

func DBCheck(c *gin.Context) {
	if err := intconfig.EnsureDB(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database belum terhubung: " + err.Error()})
		return
	}
	var count int
	err := intconfig.DB.QueryRow("SELECT COUNT(*) FROM bookings").Scan(&count)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "gagal query ke database: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "koneksi database OK", "bookings_in_db": count})
}
