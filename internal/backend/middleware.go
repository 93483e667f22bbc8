package backend

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

const contextUserKey = "marazul.user"

// ipRateLimiter хранит token bucket на каждый IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newIPRateLimiter(r rate.Limit, burst int) *ipRateLimiter {
	return &ipRateLimiter{limiters: make(map[string]*rate.Limiter), rate: r, burst: burst}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[ip] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

func (s *Server) rateLimitLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.allow(c.ClientIP()) {
			s.metrics.RecordLoginRateLimited()
			fail(c, http.StatusTooManyRequests, "too many login attempts, try again later")
			return
		}
		c.Next()
	}
}

// requireAuth проверяет bearer-токен и кладёт пользователя в контекст.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			fail(c, http.StatusUnauthorized, "authorization required")
			return
		}

		claims, err := s.tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			s.logger.WithError(err).Debug("rejected token")
			fail(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user, ok := s.store.User(claims.Subject)
		if !ok {
			fail(c, http.StatusUnauthorized, "user no longer exists")
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.User {
	if v, ok := c.Get(contextUserKey); ok {
		if user, ok := v.(domain.User); ok {
			return user
		}
	}
	return domain.User{}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		entry := s.logger.WithFields(log.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(started).Milliseconds(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request failed")
			return
		}
		entry.Debug("request served")
	}
}
