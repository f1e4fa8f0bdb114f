package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/review-catalog-backend/internal/config"
	"github.com/princeprakhar/review-catalog-backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityRouter(cfg *config.Config, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Identity(cfg)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	r.GET("/whoami", handlers...)
	return r
}

func get(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentity(t *testing.T) {
	cfg := &config.Config{JWTSecret: "s3cret"}
	r := identityRouter(cfg)

	w := get(r, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = get(r, map[string]string{"X-User-Id": " u-1 "})
	assert.Equal(t, "u-1", w.Body.String())

	w = get(r, map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, _, err := utils.GenerateAccessToken("u-2", "Two", cfg.JWTSecret, -time.Minute)
	require.NoError(t, err)
	w = get(r, map[string]string{"Authorization": "Bearer " + expired})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _, err := utils.GenerateAccessToken("u-2", "Two", cfg.JWTSecret, time.Minute)
	require.NoError(t, err)
	w = get(r, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, "u-2", w.Body.String())
}

func TestRequireUser(t *testing.T) {
	r := identityRouter(&config.Config{JWTSecret: "s3cret"}, RequireUser())

	assert.Equal(t, http.StatusUnauthorized, get(r, nil).Code)
	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-User-Id": "u-1"}).Code)
}

func TestAdminOnlyWithoutConfiguredKey(t *testing.T) {
	r := identityRouter(&config.Config{}, AdminOnly(&config.Config{}))
	assert.Equal(t, http.StatusForbidden, get(r, map[string]string{"X-Admin-Key": "anything"}).Code)
}
