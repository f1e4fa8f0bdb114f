package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/review-catalog-backend/internal/config"
	"github.com/princeprakhar/review-catalog-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

const (
	userIDKey      = "user_id"
	userNameKey    = "user_name"
	userIDHeader   = "X-User-Id"
	adminKeyHeader = "X-Admin-Key"
)

// Identity resolves the caller from a bearer token or, failing that, the
// X-User-Id header. Anonymous requests pass through with no user id.
func Identity(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				utils.SendUnauthorized(c, "Bearer token required")
				c.Abort()
				return
			}

			claims, err := utils.ValidateToken(tokenString, cfg.JWTSecret)
			if err != nil {
				utils.SendUnauthorized(c, "Invalid token")
				c.Abort()
				return
			}
			c.Set(userIDKey, claims.UserID)
			c.Set(userNameKey, claims.DisplayName)
			c.Next()
			return
		}

		if id := strings.TrimSpace(c.GetHeader(userIDHeader)); id != "" {
			c.Set(userIDKey, id)
		}
		c.Next()
	}
}

// RequireUser rejects anonymous callers.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			utils.SendUnauthorized(c, "User identity required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminOnly checks the X-Admin-Key header against the configured bcrypt hash.
func AdminOnly(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(adminKeyHeader)
		if cfg.AdminAPIKeyHash == "" || key == "" {
			utils.SendForbidden(c, "Admin access required")
			c.Abort()
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(cfg.AdminAPIKeyHash), []byte(key)); err != nil {
			utils.SendForbidden(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID returns the caller's id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
