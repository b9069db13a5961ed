package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/services"
	"github.com/gin-gonic/gin"
)

// ContextUserIDKey is where the middleware stores the authenticated user ID
// in the request context.
const ContextUserIDKey = "userID"

var (
	errMissingAuthHeader = errors.New("authorization header required")
	errBadAuthFormat     = errors.New("invalid authorization header format")
)

// AuthMiddleware guards the deck routes: it resolves the bearer token to a
// user ID and aborts with 401 otherwise.
func AuthMiddleware(tokenService *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		userID, err := tokenService.ValidateToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errMissingAuthHeader
	}

	fields := strings.Fields(header)
	if len(fields) != 2 || fields[0] != "Bearer" {
		return "", errBadAuthFormat
	}
	return fields[1], nil
}

// GetUserID reads the authenticated user ID placed by AuthMiddleware.
func GetUserID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := id.(string)
	return idStr, ok
}
