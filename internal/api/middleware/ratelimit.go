// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/metrics"
	"github.com/simwire/omnigate/internal/ratelimit"
)

// RateLimit applies the per-IP token bucket to every request.
func RateLimit(l *ratelimit.Limiter, m *metrics.Registry, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(ratelimit.GetClientIP(r, trustProxy)) {
				m.IncrementRateLimited()
				envelope.WriteStatus(w, http.StatusTooManyRequests,
					envelope.Error(envelope.CodeRateLimited, "Too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ExpensiveRoute adds a tight sliding-window limit for endpoints that
// spawn child processes, on top of the global bucket.
func ExpensiveRoute(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			envelope.WriteStatus(w, http.StatusTooManyRequests,
				envelope.Error(envelope.CodeRateLimited, "Too many requests for this endpoint"))
		}),
	)
}
