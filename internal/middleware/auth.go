package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthChecker reports whether a usable credential is configured
type AuthChecker interface {
	IsAuthenticated() bool
}

// AuthRequired middleware rejects requests while the dashboard has no usable credential
func AuthRequired(checker AuthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !checker.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "not authenticated",
			})
			return
		}

		c.Next()
	}
}
