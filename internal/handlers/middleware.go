package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/SR0725/short-link-tracker-sub000/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const sessionAdminKey = "admin"

// AuthRequired admits requests carrying the admin key in X-API-Key or an
// authenticated session.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.validAPIKey(c.GetHeader("X-API-Key")) {
			c.Next()
			return
		}

		session := sessions.Default(c)
		if admin, ok := session.Get(sessionAdminKey).(bool); ok && admin {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
}

func (h *Handler) RateLimitMiddleware(limiter services.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.Request.Context(), c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}

// validAPIKey never matches when no admin key is configured.
func (h *Handler) validAPIKey(key string) bool {
	if h.cfg.AdminAPIKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.cfg.AdminAPIKey)) == 1
}
