// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/simwire/omnigate/internal/log"
)

// Holder provides atomic access to the live configuration and hot
// reloading from file changes or an explicit trigger (SIGHUP). Reads are
// lock-free; a reload swaps the whole Config pointer, so the auth and
// rate-limit policy change atomically between requests.
type Holder struct {
	current atomic.Pointer[Config]
	loader  *Loader
	path    string
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	mu        sync.Mutex
	listeners []chan<- *Config
}

// NewHolder creates a holder seeded with the initial config.
func NewHolder(initial *Config, loader *Loader, path string) *Holder {
	h := &Holder{
		loader: loader,
		path:   path,
		logger: log.WithComponent("config"),
	}
	h.current.Store(initial)
	return h
}

// Current returns the live configuration. The returned value must be
// treated as immutable.
func (h *Holder) Current() *Config {
	return h.current.Load()
}

// Reload loads and validates a fresh config and swaps it in. On any
// failure the previous config stays active.
func (h *Holder) Reload(_ context.Context) error {
	h.logger.Info().Str("event", "config.reload_start").Msg("reloading configuration")

	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("failed to load new configuration")
		return fmt.Errorf("load config: %w", err)
	}

	old := h.current.Swap(newCfg)
	h.notifyListeners(newCfg)

	if old != nil && old.Auth != newCfg.Auth {
		h.logger.Info().
			Str("event", "config.auth_policy_changed").
			Bool("auth_enabled", newCfg.Auth.Enabled).
			Int("rate_limit_per_minute", newCfg.Auth.RateLimitPerMinute).
			Int("burst", newCfg.Auth.Burst).
			Msg("auth policy swapped")
	}
	h.logger.Info().Str("event", "config.reload_success").Msg("configuration reloaded")
	return nil
}

// StartWatcher begins watching the config file for changes. A holder
// without a file path is env-only; watching is skipped.
func (h *Holder) StartWatcher(ctx context.Context) error {
	if h.path == "" {
		h.logger.Info().
			Str("event", "config.watcher_disabled").
			Msg("config file watcher disabled (env-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	if err := watcher.Add(h.path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", h.path).
		Msg("watching config file for changes")

	go h.watchLoop(ctx)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context) {
	// Debounce rapid write bursts from editors.
	var debounce *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			if h.watcher != nil {
				_ = h.watcher.Close()
			}
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				h.logger.Debug().
					Str("event", "config.file_changed").
					Str("op", event.Op.String()).
					Msg("config file changed")
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, func() {
					if err := h.Reload(ctx); err != nil {
						h.logger.Error().
							Err(err).
							Str("event", "config.auto_reload_failed").
							Msg("automatic config reload failed")
					}
				})
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop closes the file watcher if one is running.
func (h *Holder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// RegisterListener registers a channel that receives the new config after
// every successful reload. Delivery is non-blocking; slow listeners miss
// intermediate versions but always observe the latest via Current().
func (h *Holder) RegisterListener(ch chan<- *Config) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notifyListeners(cfg *Config) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
		}
	}
}
