package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"tiketku/internal/domain"
)

const principalKey = "principal"

// Principal resolves the caller from a Bearer token. Requests without a
// token proceed as guest; per-resource ownership checks downstream decide
// what a guest may see. A present but invalid token is rejected outright.
func Principal(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Set(principalKey, domain.Guest())
			c.Next()
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token tidak valid"})
			return
		}
		var p domain.Principal
		if v, ok := claims["user_id"].(float64); ok {
			p.UserID = int64(v)
		}
		if v, ok := claims["role"].(string); ok {
			p.Role = v
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// GetPrincipal returns the resolved caller, guest when unauthenticated.
func GetPrincipal(c *gin.Context) domain.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(domain.Principal); ok {
			return p
		}
	}
	return domain.Guest()
}
