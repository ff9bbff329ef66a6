// SPDX-License-Identifier: MIT

// Package ratelimit provides the per-client token bucket used by the
// HTTP guard. Buckets refill at rate_limit_per_minute/60 tokens per
// second up to burst, and idle buckets are reaped after ten refill
// intervals of inactivity.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// reapFactor is how many refill intervals a bucket may idle before it
// is dropped.
const reapFactor = 10

// Limiter manages one token bucket per client IP.
type Limiter struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time

	now func() time.Time
}

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing perMinute sustained requests per
// client with the given burst. Non-positive inputs fall back to a
// permissive 60/min, burst 1.
func New(perMinute, burst int) *Limiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Limit(float64(perMinute) / 60.0)
	refill := time.Duration(float64(time.Second) / float64(limit))
	return &Limiter{
		limit:   limit,
		burst:   burst,
		ttl:     reapFactor * refill,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Allow consumes one token from the bucket belonging to ip. It returns
// false when the bucket is empty.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeSweep(now)

	c, ok := l.clients[ip]
	if !ok {
		c = &client{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now

	return c.bucket.AllowN(now, 1)
}

// Len reports the number of tracked client buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// maybeSweep drops buckets idle longer than the reap TTL. Runs at most
// once per TTL so steady traffic does not pay a scan on every request.
func (l *Limiter) maybeSweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.ttl {
		return
	}
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.ttl {
			delete(l.clients, ip)
		}
	}
	l.lastSweep = now
}

// GetClientIP extracts the client address for bucketing. Proxy headers
// (X-Forwarded-For, X-Real-IP) are honored only when trustProxy is set;
// otherwise the connection's remote address wins.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
