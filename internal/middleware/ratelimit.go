package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiter pairs a token bucket with its last activity, so idle
// entries can be evicted.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-client-IP request budget over a sliding
// window, e.g. 100 requests per 15 minutes.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter

	limit rate.Limit
	burst int

	janitorOnce sync.Once
	stopOnce    sync.Once
	stop        chan struct{}
}

// NewRateLimiter allows up to requests per window from each client IP.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests <= 0 {
		requests = 100
	}
	if window <= 0 {
		window = 15 * time.Minute
	}

	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
		stop:    make(chan struct{}),
	}
}

func (r *RateLimiter) allow(clientIP string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.clients[clientIP]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[clientIP] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter.Allow()
}

// evictIdle drops clients that have been silent long enough for their
// bucket to refill completely.
func (r *RateLimiter) evictIdle(olderThan time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	for ip, entry := range r.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(r.clients, ip)
		}
	}
}

func (r *RateLimiter) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle(30 * time.Minute)
		case <-r.stop:
			return
		}
	}
}

// Stop terminates the janitor goroutine. Safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Middleware rejects requests over the budget with 429. The first call
// starts a janitor goroutine that evicts idle client entries until Stop.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	r.janitorOnce.Do(func() { go r.janitor() })

	return func(c *gin.Context) {
		if !r.allow(c.ClientIP()) {
			message := "Too many requests from this IP, please try later"
			c.JSON(http.StatusTooManyRequests, gin.H{
				"status":  http.StatusTooManyRequests,
				"message": message,
				"error":   message,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
