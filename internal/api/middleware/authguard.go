// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	"github.com/simwire/omnigate/internal/auth"
	"github.com/simwire/omnigate/internal/config"
	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/log"
	"github.com/simwire/omnigate/internal/metrics"
)

// Challenge is sent on every 401 so clients can discover the signing
// scheme without out-of-band docs.
const Challenge = `HMAC-SHA256 realm="isaac-sim"`

// TimestampWindow bounds HMAC timestamp skew in both directions.
const TimestampWindow = 300 * time.Second

// unauthenticated lists routes reachable without credentials.
var unauthenticated = map[string]bool{
	"/openapi.json": true,
}

// AuthGuard verifies either an HMAC signature over
// METHOD|PATH_WITH_QUERY|TIMESTAMP or a bearer token. The policy is
// re-read from the holder per request, so a config reload takes
// effect without a restart.
func AuthGuard(holder *config.Holder, m *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac := holder.Current().Auth
			if !ac.Enabled || r.Method == http.MethodOptions || unauthenticated[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			if authorized(r, ac) {
				next.ServeHTTP(w, r)
				return
			}

			m.IncrementAuthFailures()
			logger := log.WithComponentFromContext(r.Context(), "auth")
			logger.Warn().
				Str("event", "auth.rejected").
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("request failed authentication")

			w.Header().Set("WWW-Authenticate", Challenge)
			envelope.WriteStatus(w, http.StatusUnauthorized,
				envelope.Error(envelope.CodeUnauthorized, "Authentication required"))
		})
	}
}

// authorized accepts either a valid HMAC signature or a valid bearer
// token; each scheme suffices on its own, so a failed signature does
// not disqualify a request that also carries a good token.
func authorized(r *http.Request, ac config.AuthConfig) bool {
	if ac.HMACSecret != "" {
		ts := r.Header.Get("X-Timestamp")
		sig := r.Header.Get("X-Signature")
		if ts != "" && sig != "" &&
			auth.VerifyTimestamp(ts, time.Now(), TimestampWindow) &&
			auth.VerifySignature([]byte(ac.HMACSecret), r.Method, r.URL.RequestURI(), ts, sig) {
			return true
		}
	}
	if ac.BearerToken != "" {
		if presented := auth.BearerFromHeader(r.Header.Get("Authorization")); presented != "" {
			return auth.AuthorizeToken(presented, ac.BearerToken)
		}
	}
	return false
}
