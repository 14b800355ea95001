package httpx

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware keeps one token bucket per client, keyed by
// X-Forwarded-For when present and RemoteAddr otherwise.
type RateLimitMiddleware struct {
	mu       sync.RWMutex
	clients  map[string]*clientLimiter
	rate     rate.Limit
	burst    int
	staleTTL time.Duration
}

func NewRateLimitMiddleware(rps float64, burst int) *RateLimitMiddleware {
	rl := &RateLimitMiddleware{
		clients:  make(map[string]*clientLimiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		staleTTL: 5 * time.Minute,
	}

	go rl.evictStale()
	return rl
}

// evictStale drops buckets for clients not seen within staleTTL.
func (rl *RateLimitMiddleware) evictStale() {
	ticker := time.NewTicker(rl.staleTTL)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		for key, c := range rl.clients {
			if time.Since(c.lastSeen) > rl.staleTTL {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimitMiddleware) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = time.Now()
	return c.limiter
}

func (rl *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			key = fwd
		}

		if !rl.limiterFor(key).Allow() {
			JSONError(w, r, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
