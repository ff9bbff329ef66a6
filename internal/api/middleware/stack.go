// SPDX-License-Identifier: MIT

package middleware

import (
	"github.com/go-chi/chi/v5"

	"github.com/simwire/omnigate/internal/config"
	"github.com/simwire/omnigate/internal/metrics"
	"github.com/simwire/omnigate/internal/ratelimit"
)

// StackConfig configures the canonical ingress stack. Both the service
// daemon and the MCP proxy's HTTP listener apply it, so cross-cutting
// behavior cannot drift between the two.
type StackConfig struct {
	Holder  *config.Holder
	Metrics *metrics.Registry
	Limiter *ratelimit.Limiter

	HSTS           bool
	TrustProxy     bool
	TracingService string // empty disables tracing
}

// Apply installs the middleware in its fixed order. AuthGuard runs
// innermost so rejected requests still carry security headers, a
// request id and a metrics sample.
func Apply(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(CORS())
	r.Use(SecurityHeaders(cfg.HSTS))
	if cfg.Metrics != nil {
		r.Use(Metrics(cfg.Metrics))
	}
	if cfg.TracingService != "" {
		r.Use(Tracing(cfg.TracingService))
	}
	r.Use(Logging)
	if cfg.Limiter != nil {
		r.Use(RateLimit(cfg.Limiter, cfg.Metrics, cfg.TrustProxy))
	}
	if cfg.Holder != nil {
		r.Use(AuthGuard(cfg.Holder, cfg.Metrics))
	}
}
