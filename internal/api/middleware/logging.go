// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	"github.com/simwire/omnigate/internal/log"
)

// Logging emits one structured line per completed request, carrying
// the correlation id placed by RequestID.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		logger := log.WithComponentFromContext(r.Context(), "http")
		evt := logger.Info()
		if sw.status >= 500 {
			evt = logger.Error()
		} else if sw.status >= 400 {
			evt = logger.Warn()
		}
		evt.
			Str("event", "http.request").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("request completed")
	})
}
