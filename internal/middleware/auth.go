package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/bk001juma/api-matengenezo/internal/auth"
	"github.com/bk001juma/api-matengenezo/internal/model"
	"github.com/bk001juma/api-matengenezo/internal/storage"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey   = "userID"
	UserRoleKey = "userRole"
	UsernameKey = "username"
)

// TokenVersions returns the current token version of a user. Tokens issued
// under an older version were revoked by a logout.
type TokenVersions interface {
	TokenVersion(ctx context.Context, userID int64) (int64, error)
}

// AuthMiddleware requires a valid JWT token whose version is still current.
func AuthMiddleware(jwtSecret string, versions TokenVersions) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, jwtSecret, versions)
		if !ok {
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserRoleKey, claims.Role)
		c.Set(UsernameKey, claims.Username)

		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(UserRoleKey) != model.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, jwtSecret string, versions TokenVersions) (*auth.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
		c.Abort()
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
		c.Abort()
		return nil, false
	}

	claims, err := auth.ValidateAccessToken(parts[1], jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		c.Abort()
		return nil, false
	}

	current, err := versions.TokenVersion(c.Request.Context(), claims.UserID)
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		c.Abort()
		return nil, false
	case err != nil:
		log.Printf("[Auth] Failed to load token version for user %d: %v", claims.UserID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "authentication temporarily unavailable"})
		c.Abort()
		return nil, false
	case current != claims.TokenVersion:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token has been revoked"})
		c.Abort()
		return nil, false
	}

	return claims, true
}

// UserID returns the authenticated user's id.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(UserIDKey)
}
