package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ksred/klear-recon/internal/auth"
	"github.com/ksred/klear-recon/pkg/response"
)

const (
	ContextClientID  = "clientID"
	ContextClaims    = "claims"
	ContextRequestID = "requestID"
	HeaderRequestID  = "X-Request-ID"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client and route family
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limits   map[string]rate.Limit
}

// NewRateLimiter builds a limiter using per-prefix limits; unmatched paths
// are not limited
func NewRateLimiter(limits map[string]rate.Limit) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limits:   limits,
	}
}

// DefaultLimits: reconciliation runs hit upstream systems, reads are cheap
func DefaultLimits() map[string]rate.Limit {
	return map[string]rate.Limit{
		"/api/v1/auth":            rate.Limit(10.0 / 60.0),
		"/api/v1/reconciliations": rate.Limit(300.0 / 60.0),
		"/api/v1/funds":           rate.Limit(60.0 / 60.0),
	}
}

func (rl *RateLimiter) limitFor(path string) rate.Limit {
	best, limit := "", rate.Inf
	for prefix, l := range rl.limits {
		if strings.HasPrefix(path, prefix) && len(prefix) > len(best) {
			best, limit = prefix, l
		}
	}
	return limit
}

func (rl *RateLimiter) get(path, clientID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := clientID + ":" + path
	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.limitFor(path), 1)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup drops visitors idle for longer than idle
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		if time.Since(v.lastSeen) > idle {
			delete(rl.visitors, key)
		}
	}
}

// Middleware rejects requests over the limit with 429. Placed after JWTAuth
// it keys budgets by API client; elsewhere it falls back to the client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetString(ContextClientID)
		if clientID == "" {
			clientID = c.ClientIP()
		}

		if !rl.get(c.FullPath(), clientID).Allow() {
			response.TooManyRequests(c, "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}

// JWTAuth validates the bearer token and requires permission
func JWTAuth(authService *auth.Service, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.Fields(c.GetHeader("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			response.Unauthorized(c, "Invalid authorization header")
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		if permission != "" && !claims.HasPermission(permission) {
			response.Forbidden(c, "Missing permission: "+permission)
			c.Abort()
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextClientID, claims.ClientID)
		c.Next()
	}
}

// RequestLogger tags each request with an ID and logs its outcome
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ContextRequestID, requestID)
		c.Header(HeaderRequestID, requestID)

		start := time.Now()
		c.Next()

		log.Info().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_id", c.GetString(ContextClientID)).
			Msg("request handled")
	}
}
