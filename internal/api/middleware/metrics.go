// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	"github.com/simwire/omnigate/internal/metrics"
)

// statusWriter captures the response status for metrics and logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Metrics counts every request exactly once, records its duration and
// bumps the per-endpoint counter keyed by the raw route.
func Metrics(m *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.IncrementRequests()
			m.IncrementEndpoint(r.URL.Path)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			m.RecordRequestDuration(time.Since(start))
			if sw.status >= 500 {
				m.IncrementErrors()
			}
		})
	}
}
