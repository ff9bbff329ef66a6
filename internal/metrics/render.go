// SPDX-License-Identifier: MIT

package metrics

import (
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/simwire/omnigate/internal/envelope"
)

// Snapshot is a consistent view of all metric values at one instant.
type Snapshot struct {
	Requests      uint64
	Errors        uint64
	AuthFailures  uint64
	RateLimited   uint64
	DurationSumMs uint64
	DurationCount uint64
	UptimeSeconds float64
	Running       bool
	Counters      map[string]uint64
	Gauges        map[string]GaugeValue
	Endpoints     map[string]uint64
}

// GaugeValue is one gauge reading; Err is set when the callback failed.
type GaugeValue struct {
	Value float64
	Err   error
}

// Snapshot captures all metrics under the registry lock so reads are
// never torn across metrics. Gauge callbacks run while the lock is
// held; they are required to be pure and non-blocking.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Snapshot{
		Requests:      r.requests.Load(),
		Errors:        r.errors.Load(),
		AuthFailures:  r.authFailures.Load(),
		RateLimited:   r.rateLimited.Load(),
		DurationSumMs: r.durationSumMs.Load(),
		DurationCount: r.durationCount.Load(),
		Running:       r.running,
		Counters:      make(map[string]uint64, len(r.counters)),
		Gauges:        make(map[string]GaugeValue, len(r.gauges)),
		Endpoints:     make(map[string]uint64, len(r.endpoints)),
	}
	if r.running {
		s.UptimeSeconds = r.now().Sub(r.startedAt).Seconds()
	}
	for name, c := range r.counters {
		s.Counters[name] = c.value.Load()
	}
	for name, g := range r.gauges {
		v, err := g.fn()
		s.Gauges[name] = GaugeValue{Value: v, Err: err}
	}
	for route, c := range r.endpoints {
		s.Endpoints[route] = c.Load()
	}
	return s
}

// JSON renders the metrics envelope for GET /metrics. A failing gauge
// callback reads as 0 with a logged warning; the metric still appears
// so consumers see a stable key set.
func (r *Registry) JSON() envelope.Envelope {
	s := r.Snapshot()

	m := map[string]any{
		"requests_received":         s.Requests,
		"errors":                    s.Errors,
		"auth_failures":             s.AuthFailures,
		"rate_limited":              s.RateLimited,
		"request_duration_ms_sum":   s.DurationSumMs,
		"request_duration_ms_count": s.DurationCount,
		"uptime_seconds":            s.UptimeSeconds,
		"server_running":            boolToFloat(s.Running),
	}
	for name, v := range s.Counters {
		m[name] = v
	}
	for name, g := range s.Gauges {
		if g.Err != nil {
			r.log.Warn().
				Err(g.Err).
				Str("event", "metrics.gauge_callback_failed").
				Str("name", name).
				Msg("gauge read failed, reporting 0")
			m[name] = float64(0)
			continue
		}
		m[name] = g.Value
	}
	endpoints := make(map[string]any, len(s.Endpoints))
	for route, n := range s.Endpoints {
		endpoints[route] = n
	}
	if len(endpoints) > 0 {
		m["endpoints"] = endpoints
	}

	return envelope.OK(map[string]any{"metrics": m})
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Describe implements prometheus.Collector. The registry's metric set
// is dynamic (per-endpoint counters appear on first use), so it is an
// unchecked collector.
func (r *Registry) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector. A failing gauge callback
// omits the metric rather than emitting a corrupt sample.
func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	s := r.Snapshot()
	prefix := r.service + "_"

	constCounter := func(name, help string, v uint64) {
		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(prefix+name, help, nil, nil),
			prometheus.CounterValue, float64(v))
	}
	constGauge := func(name, help string, v float64) {
		ch <- prometheus.MustNewConstMetric(
			prometheus.NewDesc(prefix+name, help, nil, nil),
			prometheus.GaugeValue, v)
	}

	constCounter("requests_received_total", "Total requests accepted by the service.", s.Requests)
	constCounter("errors_total", "Total failed operations.", s.Errors)
	constCounter("auth_failures_total", "Total rejected authentication attempts.", s.AuthFailures)
	constCounter("rate_limited_total", "Total requests rejected by the rate limiter.", s.RateLimited)
	constCounter("request_duration_ms_sum", "Sum of request durations in milliseconds.", s.DurationSumMs)
	constCounter("request_duration_ms_count", "Count of timed requests.", s.DurationCount)
	constGauge("uptime_seconds", "Seconds since the service started.", s.UptimeSeconds)
	constGauge("server_running", "1 when the service is live, 0 otherwise.", boolToFloat(s.Running))

	// Registered metrics render in registration order for stable output.
	r.mu.RLock()
	order := append([]string(nil), r.order...)
	helps := make(map[string]string, len(order))
	kinds := make(map[string]bool, len(order)) // true = counter
	for name, c := range r.counters {
		helps[name] = c.help
		kinds[name] = true
	}
	for name, g := range r.gauges {
		helps[name] = g.help
	}
	r.mu.RUnlock()

	for _, name := range order {
		if kinds[name] {
			constCounter(name+"_total", helps[name], s.Counters[name])
			continue
		}
		g, ok := s.Gauges[name]
		if !ok || g.Err != nil {
			continue
		}
		constGauge(name, helps[name], g.Value)
	}

	if len(s.Endpoints) > 0 {
		desc := prometheus.NewDesc(prefix+"endpoint_requests_total",
			"Requests per endpoint route.", []string{"route"}, nil)
		routes := make([]string, 0, len(s.Endpoints))
		for route := range s.Endpoints {
			routes = append(routes, route)
		}
		sort.Strings(routes)
		for _, route := range routes {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue,
				float64(s.Endpoints[route]), route)
		}
	}
}

// PrometheusHandler serves the exposition-text rendering for
// GET /metrics.prom on a registry dedicated to this collector.
func (r *Registry) PrometheusHandler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(r)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
