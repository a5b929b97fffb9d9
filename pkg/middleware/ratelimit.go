package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"tripweaver/pkg/utils"
)

// TokenBucket is a per-client limiter: RATE_LIMIT_MAX tokens refilled over
// RATE_LIMIT_WINDOW.
type TokenBucket struct {
	mu      sync.Mutex
	max     float64
	refill  float64 // tokens per second
	buckets map[string]*bucketState
}

type bucketState struct {
	tokens   float64
	lastSeen time.Time
}

func NewTokenBucket(max int, window time.Duration) *TokenBucket {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &TokenBucket{
		max:     float64(max),
		refill:  float64(max) / window.Seconds(),
		buckets: make(map[string]*bucketState),
	}
}

func (t *TokenBucket) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	b, ok := t.buckets[key]
	if !ok {
		b = &bucketState{tokens: t.max, lastSeen: now}
		t.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * t.refill
	if b.tokens > t.max {
		b.tokens = t.max
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func RateLimitMiddleware(bucket *TokenBucket) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !bucket.Allow(c.ClientIP()) {
			utils.RespondError(c, http.StatusTooManyRequests, "Rate limit exceeded, retry later")
			c.Abort()
			return
		}
		c.Next()
	}
}
