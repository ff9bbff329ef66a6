// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"runtime"

	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/log"
)

// Recoverer is the outermost safety net: a panic in any downstream
// handler is logged with its stack and answered with a 500 envelope.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				buf := make([]byte, 8192)
				n := runtime.Stack(buf, false)

				logger := log.WithComponentFromContext(r.Context(), "panic-recovery")
				logger.Error().
					Str("event", "panic.recovered").
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("request_id", log.RequestIDFromContext(r.Context())).
					Interface("panic_value", rec).
					Str("stack_trace", string(buf[:n])).
					Msg("panic recovered in HTTP handler")

				envelope.WriteStatus(w, http.StatusInternalServerError,
					envelope.Error("INTERNAL_ERROR", "An unexpected error occurred"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
