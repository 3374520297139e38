package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ksred/klear-recon/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(map[string]rate.Limit{
		"/api/v1/slow": rate.Every(time.Hour),
	})

	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/api/v1/slow", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/v1/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/slow", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/api/v1/slow", nil).Code)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/fast", nil).Code)
	}
}

func TestRateLimiter_KeyedByAuthenticatedClient(t *testing.T) {
	authService := auth.NewService("secret")
	authService.RegisterAPICredentials("alpha", "pass")
	authService.RegisterAPICredentials("beta", "pass")

	bearer := func(key string) map[string]string {
		token, err := authService.GenerateToken(auth.Credentials{APIKey: key, APISecret: "pass"})
		require.NoError(t, err)
		return map[string]string{"Authorization": "Bearer " + token.Token}
	}
	alpha, beta := bearer("alpha"), bearer("beta")

	limiter := NewRateLimiter(map[string]rate.Limit{
		"/api/v1/reconciliations": rate.Every(time.Hour),
	})

	r := gin.New()
	group := r.Group("/api/v1/reconciliations")
	group.Use(JWTAuth(authService, auth.PermissionReconcile), limiter.Middleware())
	group.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })

	// httptest requests share one remote address, so only the client ID
	// separates the budgets
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/reconciliations", alpha).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/api/v1/reconciliations", alpha).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/reconciliations", beta).Code)

	_, keyed := limiter.visitors["alpha:/api/v1/reconciliations"]
	assert.True(t, keyed)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(DefaultLimits())
	limiter.get("/api/v1/auth/token", "client")
	require.Len(t, limiter.visitors, 1)

	limiter.Cleanup(time.Hour)
	assert.Len(t, limiter.visitors, 1)

	limiter.Cleanup(0)
	assert.Empty(t, limiter.visitors)
}

func TestRateLimiter_LongestPrefixWins(t *testing.T) {
	limiter := NewRateLimiter(map[string]rate.Limit{
		"/api":         rate.Limit(1),
		"/api/v1/auth": rate.Limit(2),
	})
	assert.Equal(t, rate.Limit(2), limiter.limitFor("/api/v1/auth/token"))
	assert.Equal(t, rate.Limit(1), limiter.limitFor("/api/v1/funds"))
	assert.Equal(t, rate.Inf, limiter.limitFor("/health"))
}

func TestJWTAuth(t *testing.T) {
	authService := auth.NewService("secret")
	authService.RegisterAPICredentials("key", "pass")
	token, err := authService.GenerateToken(auth.Credentials{APIKey: "key", APISecret: "pass"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/reconcile", JWTAuth(authService, auth.PermissionReconcile), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextClientID))
	})
	r.GET("/admin", JWTAuth(authService, "admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(r, http.MethodGet, "/reconcile", map[string]string{"Authorization": "Bearer " + token.Token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "key", w.Body.String())

	w = serve(r, http.MethodGet, "/reconcile", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/reconcile", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + token.Token})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestLogger(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	w := serve(r, http.MethodGet, "/ping", nil)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Equal(t, w.Header().Get(HeaderRequestID), w.Body.String())

	w = serve(r, http.MethodGet, "/ping", map[string]string{HeaderRequestID: "req-123"})
	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
}
