package middleware

import (
	"context"
	"fst_cloud_backend/internal/config"
	"fst_cloud_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAdmins map[string]bool

func (s staticAdmins) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return s[userID], nil
}

func newTestRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", AuthMiddleware(cfg, staticAdmins{"root": true}))
	api.GET("/me", func(c *gin.Context) {
		util.Success(c, gin.H{"id": util.GetUserFromContext(c).UserID(), "admin": util.IsAdminFromContext(c)})
	})
	api.GET("/admin", AdminMiddleware(), func(c *gin.Context) {
		util.Success(c, nil)
	})
	return r
}

func doRequest(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
	r := newTestRouter(cfg)

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/api/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/api/me", "not-a-jwt").Code)

	forged, err := util.GenerateJWT("alice", "a@example.com", "other-secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/api/me", forged).Code)

	expired, err := util.GenerateJWT("alice", "a@example.com", "test-secret", -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/api/me", expired).Code)

	token, err := util.GenerateJWT("alice", "a@example.com", "test-secret", time.Hour)
	require.NoError(t, err)
	w := doRequest(r, "/api/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"alice"`)

	w = doRequest(r, "/api/me?token="+token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
	r := newTestRouter(cfg)

	user, err := util.GenerateJWT("alice", "", "test-secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/api/admin", user).Code)

	admin, err := util.GenerateJWT("root", "", "test-secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doRequest(r, "/api/admin", admin).Code)
}
