package middleware

import (
	"net/http"
	"strings"

	"zenithmedia_bot/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminAuth validates the Bearer token and puts the admin ID on the context.
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		adminID, err := service.ParseJWT(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("admin_id", adminID)
		c.Next()
	}
}
