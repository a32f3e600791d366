package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tinygpt/internal/ratelimit"
)

const identityKey = "tinygpt.identity"

// resolveIdentity attaches the caller identity to the request context:
// the username from a valid bearer token, otherwise the client IP.
func (s *Server) resolveIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.ClientIP()
		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && s.authSvc != nil {
			if username, err := s.authSvc.Verify(token); err == nil {
				identity = username
			}
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func (s *Server) identity(c *gin.Context) string {
	return c.GetString(identityKey)
}

// authAdmission applies the auth-class quota to registration and login so
// credential guessing gets throttled independently of chat traffic.
func (s *Server) authAdmission() gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := s.limiter.Check(s.identity(c), ratelimit.ClassAuth)
		if !decision.Allowed {
			writeRateLimited(c, decision.RetryAfter)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s -> %d in %v",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func writeRateLimited(c *gin.Context, retryAfter time.Duration) {
	seconds := int(retryAfter.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"detail":      "rate limit exceeded",
		"retry_after": seconds,
	})
}
