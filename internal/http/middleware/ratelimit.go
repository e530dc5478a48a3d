package middleware

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/amolab/amorate-backend/internal/http/response"
	"github.com/amolab/amorate-backend/internal/platform/logger"
)

// SubmitRateLimit throttles submission endpoints per client IP. Raters are
// anonymous, so the IP is the only stable handle for abuse control.
func SubmitRateLimit(perMinute int, log *logger.Logger) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
			limiters[ip] = l
		}
		return l
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiterFor(ip).Allow() {
			if log != nil {
				log.Warn("submission rate limited", "ip", ip, "path", c.Request.URL.Path)
			}
			response.RespondError(c, http.StatusTooManyRequests, "rate_limited",
				errors.New("too many submissions, slow down"))
			c.Abort()
			return
		}
		c.Next()
	}
}
