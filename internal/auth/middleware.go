package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys for user data
const (
	ContextKeyUserID = "auth_user_id"
)

// DefaultUserID owns the library of the offline terminal reader
const DefaultUserID = uint(0)

// Middleware authenticates API requests with bearer tokens.
type Middleware struct {
	service     *Service
	publicPaths map[string]bool
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service) *Middleware {
	publicPaths := map[string]bool{
		"/health":       true,
		"/ping":         true,
		"/api/register": true,
		"/api/login":    true,
	}

	return &Middleware{
		service:     service,
		publicPaths: publicPaths,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
// A missing token is answered with 401, an invalid or expired one with 403.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			return
		}

		userID, err := m.service.ValidateToken(token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, ErrTokenExpired) {
				msg = "Token expired"
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": msg,
			})
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// isPublicPath checks if a path should be accessible without authentication.
func (m *Middleware) isPublicPath(path string) bool {
	return m.publicPaths[path]
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(authHeader string) (string, bool) {
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetUserID returns the authenticated user id, or DefaultUserID.
func GetUserID(c *gin.Context) uint {
	if v, exists := c.Get(ContextKeyUserID); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return DefaultUserID
}

// IsAuthenticated reports whether the request carried a valid token.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != DefaultUserID
}
