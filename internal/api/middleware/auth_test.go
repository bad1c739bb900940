package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"example.com/registrar/config"
	"example.com/registrar/internal/auth"
	"example.com/registrar/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestRouter(tokens *auth.TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	authed := router.Group("/", RequireAuth(tokens))
	authed.GET("/me", func(c *gin.Context) {
		claims, _ := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})

	admin := router.Group("/admin", RequireAuth(tokens), RequireAdmin())
	admin.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return router
}

func issueToken(t *testing.T, tokens *auth.TokenManager, role string) string {
	t.Helper()
	token, err := tokens.Issue(&models.User{ID: uuid.New(), Email: "jane@example.com", Role: role})
	require.NoError(t, err)
	return token
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenManager(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})
	router := newTestRouter(tokens)

	// No token
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, models.RoleUser))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	tokens := auth.NewTokenManager(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})
	router := newTestRouter(tokens)

	// Regular users are forbidden
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, models.RoleUser))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Admins pass
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, models.RoleAdmin))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
