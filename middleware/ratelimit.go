package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dcode-github/property_dealer/backend/utils"
)

type visitor struct {
	count    int
	lastSeen time.Time
}

// RateLimiter is a fixed-window request counter per client IP.
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	limit    int
	window   time.Duration
	message  string
	stop     chan struct{}

	// TrustProxy keys clients on the first X-Forwarded-For hop instead of
	// the connection address. Enable only behind a proxy that sets it.
	TrustProxy bool
}

func NewRateLimiter(limit int, window time.Duration, message string) *RateLimiter {
	if message == "" {
		message = "Too many requests, please try again later"
	}
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		message:  message,
		stop:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > rl.window {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

func clientIP(r *http.Request, trustProxy bool) string {
	if xff := r.Header.Get("X-Forwarded-For"); trustProxy && xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.lastSeen) > rl.window {
		rl.visitors[ip] = &visitor{count: 1, lastSeen: now}
		return true
	}
	if v.count >= rl.limit {
		return false
	}
	v.count++
	v.lastSeen = now
	return true
}

func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r, rl.TrustProxy)) {
			utils.WriteError(w, http.StatusTooManyRequests, rl.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) LimitFunc(next http.HandlerFunc) http.HandlerFunc {
	return rl.Limit(next).ServeHTTP
}
