package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/rustypages/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	svc := setupService(t, config.Auth{})

	router := gin.New()
	router.Use(NewMiddleware(svc).Handler())
	router.GET("/api/books", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "authenticated": IsAuthenticated(c)})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	return router, svc
}

func TestMiddleware_PublicPath(t *testing.T) {
	router, _ := setupRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_MissingToken(t *testing.T) {
	router, _ := setupRouter(t)

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		assert.Contains(t, w.Body.String(), "Access token required")
	}
}

func TestMiddleware_InvalidToken(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	router, svc := setupRouter(t)
	token, _, err := svc.tokens.NewToken(7, "reader", time.Now().Add(-60*24*time.Hour))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Token expired")
}

func TestMiddleware_ValidToken(t *testing.T) {
	router, svc := setupRouter(t)
	user, err := svc.Register("reader", testPassword)
	require.NoError(t, err)
	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("Authorization", "bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":1,"authenticated":true}`, w.Body.String())
}
