package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"uplift/models"
	"uplift/utils"
)

const principalKey = "principal"

// JWTAuthMiddleware verifies the bearer token and attaches the authenticated
// principal to the request context. Identity issuance lives outside this
// service; the engine only verifies and trusts the {id, role} claims.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
			})
			return
		}

		id, role, err := utils.ExtractPrincipalFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		c.Set(principalKey, models.Principal{ID: id, Role: role})
		c.Next()
	}
}

// GetPrincipal returns the principal set by JWTAuthMiddleware.
func GetPrincipal(c *gin.Context) (models.Principal, bool) {
	val, exists := c.Get(principalKey)
	if !exists {
		return models.Principal{}, false
	}
	principal, ok := val.(models.Principal)
	return principal, ok
}
