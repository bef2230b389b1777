package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"tiketku/internal/utils"
)

// Logger prints one line per request in the shared log format.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		utils.LogEvent(GetRequestID(c), "http", c.Request.Method,
			fmt.Sprintf("path=%s status=%d latency_ms=%.3f ip=%s",
				c.Request.URL.Path,
				c.Writer.Status(),
				float64(latency.Microseconds())/1000.0,
				c.ClientIP(),
			))
	}
}
