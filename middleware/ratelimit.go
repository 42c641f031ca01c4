package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client token bucket. Each world poke takes the engine
// lock, so a runaway console script must not starve the frame ticker.
type RateLimiter struct {
	r rate.Limit
	b int

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewRateLimiter creates a limiter allowing r requests per second with burst
// b per client. A non-positive r disables limiting.
func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{r: r, b: b, clients: make(map[string]*clientLimiter)}
}

// Sweep drops clients idle for longer than idle every interval until ctx ends.
func (l *RateLimiter) Sweep(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.evict(now.Add(-idle))
		}
	}
}

func (l *RateLimiter) evict(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, cl := range l.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(l.clients, k)
		}
	}
}

// Allow reports whether client may make another request now.
func (l *RateLimiter) Allow(client string) bool {
	if l.r <= 0 {
		return true
	}
	l.mu.Lock()
	cl, ok := l.clients[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.clients[client] = cl
	}
	cl.lastSeen = time.Now()
	l.mu.Unlock()
	return cl.limiter.Allow()
}

// Middleware keys clients by IP.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
