// SPDX-License-Identifier: MIT

// Package api assembles the HTTP surface: the contract-driven router,
// the shared system endpoints (/health, /metrics, /metrics.prom,
// /openapi.json) and the server lifecycle.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/simwire/omnigate/internal/config"
	"github.com/simwire/omnigate/internal/contracts"
	"github.com/simwire/omnigate/internal/health"
	"github.com/simwire/omnigate/internal/metrics"
	"github.com/simwire/omnigate/internal/ratelimit"
	"github.com/simwire/omnigate/internal/service"
)

// Deps carries everything the HTTP layer needs. All fields are
// required except Limiter, which disables rate limiting when nil.
type Deps struct {
	Holder     *config.Holder
	Registry   *contracts.Registry
	Controller *service.Controller
	Health     *health.Manager
	Metrics    *metrics.Registry
	Limiter    *ratelimit.Limiter
	Log        zerolog.Logger
}

// Server owns the listener and its graceful shutdown.
type Server struct {
	deps Deps
	log  zerolog.Logger
	srv  *http.Server
}

func NewServer(d Deps) *Server {
	s := &Server{
		deps: d,
		log:  d.Log.With().Str("component", "api").Logger(),
	}
	cfg := d.Holder.Current()
	s.srv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Router(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      120 * time.Second, // queued ops wait for the tick executor
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

// Start serves until ctx is cancelled or the listener fails, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Str("service", s.deps.Registry.Service()).Msg("http server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown drains in-flight requests, bounded by a fixed timeout so a
// stuck queued operation cannot hold the process open.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	s.log.Info().Msg("http server shutting down")
	return s.srv.Shutdown(shutdownCtx)
}
