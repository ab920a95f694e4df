package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is an in-memory per-IP token bucket. State lives in the
// process, so limits apply per instance, not per deployment.
type RateLimiter struct {
	capacity int
	perMin   int
	mu       sync.Mutex
	buckets  map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewRateLimiter creates a limiter holding capacity tokens refilled at
// perMinute per minute.
func NewRateLimiter(capacity, perMinute int) *RateLimiter {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &RateLimiter{
		capacity: capacity,
		perMin:   perMinute,
		buckets:  make(map[string]*bucket),
	}
}

// Middleware returns a gin handler enforcing per-IP limits.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	now := time.Now()
	if !ok {
		l.buckets[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true
	}
	refill := int(now.Sub(b.last).Minutes() * float64(l.perMin))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}
