package middleware

import (
	"sync"
	"time"

	resp "github.com/MrEthical07/storefront/internal/httpapi/response"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	visitorIdle  = 3 * time.Minute
	visitorSweep = 4096
)

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimit is one token bucket shared by every caller.
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if !lim.Allow() {
			resp.Abort(c, resp.CodeTooManyRequests, "")
			return
		}
		c.Next()
	}
}

// RateLimitPerIP keeps a token bucket per client IP. Idle buckets are
// dropped once the table grows past visitorSweep entries.
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var mu sync.Mutex
	visitors := make(map[string]*visitor)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		v, ok := visitors[ip]
		if !ok {
			if len(visitors) >= visitorSweep {
				for k, old := range visitors {
					if now.Sub(old.lastSeen) > visitorIdle {
						delete(visitors, k)
					}
				}
			}
			v = &visitor{lim: rate.NewLimiter(rps, burst)}
			visitors[ip] = v
		}
		v.lastSeen = now
		allowed := v.lim.AllowN(now, 1)
		mu.Unlock()

		if !allowed {
			resp.Abort(c, resp.CodeTooManyRequests, "")
			return
		}
		c.Next()
	}
}
