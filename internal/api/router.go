// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/simwire/omnigate/internal/api/middleware"
	"github.com/simwire/omnigate/internal/contracts"
	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/health"
)

// maxBodyBytes bounds POST bodies. The largest legitimate payload is a
// waypoint bundle import, which stays far under this.
const maxBodyBytes = 1 << 20

// expensiveRoutes get an extra tight per-IP window on top of the
// global limiter: each starts an external encoder process or a
// long-running capture job.
var expensiveRoutes = map[string]bool{
	"/streaming/start": true,
	"/video/start":     true,
	"/recording/start": true,
}

// Router builds the full chi handler: middleware stack, system
// endpoints, one route per contract, and the NO_ROUTE fallback.
func (s *Server) Router() http.Handler {
	cfg := s.deps.Holder.Current()

	r := chi.NewRouter()
	middleware.Apply(r, middleware.StackConfig{
		Holder:         s.deps.Holder,
		Metrics:        s.deps.Metrics,
		Limiter:        s.deps.Limiter,
		HSTS:           cfg.Security.HSTS,
		TrustProxy:     cfg.Auth.TrustProxyHeaders,
		TracingService: tracingService(cfg.Telemetry.Enabled, s.deps.Registry.Service()),
	})

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetricsJSON)
	r.Get("/metrics.prom", s.handleMetricsProm)
	r.Get("/openapi.json", s.handleOpenAPI)

	for _, ct := range s.deps.Registry.All() {
		contract := ct
		h := s.contractHandler(&contract)
		if expensiveRoutes[contract.Route] {
			h = middleware.ExpensiveRoute(6)(h).ServeHTTP
		}
		r.MethodFunc(contract.Method, contract.Route, h)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		envelope.Write(w, envelope.ErrorWithDetails(envelope.CodeNoRoute, "No such route",
			map[string]any{"method": r.Method, "path": r.URL.Path}))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		envelope.Write(w, envelope.ErrorWithDetails(envelope.CodeNoRoute, "Method not allowed for route",
			map[string]any{"method": r.Method, "path": r.URL.Path}))
	})

	return r
}

func tracingService(enabled bool, service string) string {
	if !enabled {
		return ""
	}
	return service
}

func (s *Server) contractHandler(ct *contracts.Contract) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		var errEnv envelope.Envelope
		if ct.Method == http.MethodGet {
			payload, errEnv = bindQuery(ct, r.URL.Query())
		} else {
			payload, errEnv = decodeBody(r)
		}
		if errEnv != nil {
			envelope.Write(w, errEnv)
			return
		}
		envelope.Write(w, s.deps.Controller.Dispatch(r.Context(), ct, payload))
	}
}

// decodeBody parses a POST body into the generic payload map. An empty
// body is a valid empty payload; several mutations take no parameters.
func decodeBody(r *http.Request) (map[string]any, envelope.Envelope) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, envelope.Error(envelope.CodeValidationError, "Failed to read request body")
	}
	if len(body) > maxBodyBytes {
		return nil, envelope.Error(envelope.CodeValidationError, "Request body too large")
	}
	if len(body) == 0 {
		return map[string]any{}, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, envelope.ErrorWithDetails(envelope.CodeValidationError, "Request body is not a JSON object",
			map[string]any{"parse_error": err.Error()})
	}
	return payload, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.deps.Health.Check(r.Context())

	fields := map[string]any{
		"service":        s.deps.Registry.Service(),
		"status":         report.Status,
		"server_running": report.Running,
		"version":        report.Version,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}
	if len(report.Checks) > 0 {
		fields["details"] = report.Checks
	}

	if report.Status == health.StatusUnhealthy {
		env := envelope.Error(envelope.CodeServiceUnavailable, "Service is not healthy")
		for k, v := range fields {
			env[k] = v
		}
		envelope.WriteStatus(w, http.StatusServiceUnavailable, env)
		return
	}
	envelope.Write(w, envelope.OK(fields))
}

func (s *Server) handleMetricsJSON(w http.ResponseWriter, r *http.Request) {
	envelope.Write(w, s.deps.Metrics.JSON())
}

func (s *Server) handleMetricsProm(w http.ResponseWriter, r *http.Request) {
	s.deps.Metrics.PrometheusHandler().ServeHTTP(w, r)
}
