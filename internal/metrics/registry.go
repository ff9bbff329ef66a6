// SPDX-License-Identifier: MIT

// Package metrics implements the per-service metrics registry: fixed
// request counters, a request-duration aggregate, uptime and liveness
// gauges, per-endpoint counters, and service-registered counters and
// gauges. The registry renders both a JSON snapshot and Prometheus
// exposition text from the same data.
package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// GaugeFunc supplies the current value of a registered gauge. It runs
// on every read, so it must be cheap and must not block.
type GaugeFunc func() (float64, error)

type counter struct {
	name  string
	help  string
	value atomic.Uint64
}

type gauge struct {
	name string
	help string
	fn   GaugeFunc
}

// Registry is the per-service metrics store. The zero value is not
// usable; construct with New.
type Registry struct {
	service string
	log     zerolog.Logger
	now     func() time.Time

	requests     atomic.Uint64
	errors       atomic.Uint64
	authFailures atomic.Uint64
	rateLimited  atomic.Uint64

	durationSumMs atomic.Uint64
	durationCount atomic.Uint64

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
	counters  map[string]*counter
	gauges    map[string]*gauge
	order     []string // registration order, for stable rendering
	endpoints map[string]*atomic.Uint64
}

// New creates a registry for the named service. The service name
// prefixes every metric in the Prometheus rendering.
func New(service string, log zerolog.Logger) *Registry {
	return &Registry{
		service:   service,
		log:       log.With().Str("component", "metrics").Logger(),
		now:       time.Now,
		counters:  make(map[string]*counter),
		gauges:    make(map[string]*gauge),
		endpoints: make(map[string]*atomic.Uint64),
	}
}

// Service returns the service name the registry was built for.
func (r *Registry) Service() string { return r.service }

// StartServer marks the service live and resets the uptime origin.
func (r *Registry) StartServer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = true
	r.startedAt = r.now()
}

// StopServer marks the service stopped. Uptime reads as zero until the
// next StartServer.
func (r *Registry) StopServer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
}

func (r *Registry) IncrementRequests()     { r.requests.Add(1) }
func (r *Registry) IncrementErrors()       { r.errors.Add(1) }
func (r *Registry) IncrementAuthFailures() { r.authFailures.Add(1) }
func (r *Registry) IncrementRateLimited()  { r.rateLimited.Add(1) }

// RecordRequestDuration folds one request's wall time into the
// millisecond sum/count aggregate.
func (r *Registry) RecordRequestDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	r.durationSumMs.Add(uint64(d.Milliseconds()))
	r.durationCount.Add(1)
}

// IncrementEndpoint bumps the per-route request counter, creating it on
// first use.
func (r *Registry) IncrementEndpoint(route string) {
	if route == "" {
		return
	}
	r.mu.RLock()
	c, ok := r.endpoints[route]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		if c, ok = r.endpoints[route]; !ok {
			c = &atomic.Uint64{}
			r.endpoints[route] = c
		}
		r.mu.Unlock()
	}
	c.Add(1)
}

// RegisterCounter adds a service-specific counter. Names must be unique
// across counters and gauges.
func (r *Registry) RegisterCounter(name, help string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkNameLocked(name); err != nil {
		return err
	}
	r.counters[name] = &counter{name: name, help: help}
	r.order = append(r.order, name)
	return nil
}

// RegisterGauge adds a service-specific gauge backed by fn.
func (r *Registry) RegisterGauge(name, help string, fn GaugeFunc) error {
	if fn == nil {
		return fmt.Errorf("metrics: gauge %q registered without callback", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkNameLocked(name); err != nil {
		return err
	}
	r.gauges[name] = &gauge{name: name, help: help, fn: fn}
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) checkNameLocked(name string) error {
	if name == "" {
		return fmt.Errorf("metrics: empty metric name")
	}
	if _, ok := r.counters[name]; ok {
		return fmt.Errorf("metrics: %q already registered", name)
	}
	if _, ok := r.gauges[name]; ok {
		return fmt.Errorf("metrics: %q already registered", name)
	}
	return nil
}

// IncrementCounter adds n to a registered counter. Unknown names are
// dropped with a warning rather than panicking in the request path.
func (r *Registry) IncrementCounter(name string, n uint64) {
	r.mu.RLock()
	c, ok := r.counters[name]
	r.mu.RUnlock()
	if !ok {
		r.log.Warn().Str("event", "metrics.unknown_counter").Str("name", name).Msg("increment dropped")
		return
	}
	c.value.Add(n)
}

// Uptime reports seconds since StartServer, zero when stopped.
func (r *Registry) Uptime() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.running {
		return 0
	}
	return r.now().Sub(r.startedAt).Seconds()
}

// Running reports the server_running gauge value.
func (r *Registry) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}
