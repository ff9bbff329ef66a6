// SPDX-License-Identifier: MIT

// The omnigate daemon hosts one scene-authoring service: it wires the
// contract registry, controller, queue/tick executor, waypoint store
// and HTTP surface, then runs until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/simwire/omnigate/internal/api"
	"github.com/simwire/omnigate/internal/assets"
	"github.com/simwire/omnigate/internal/config"
	"github.com/simwire/omnigate/internal/contracts"
	"github.com/simwire/omnigate/internal/health"
	"github.com/simwire/omnigate/internal/log"
	"github.com/simwire/omnigate/internal/metrics"
	"github.com/simwire/omnigate/internal/queue"
	"github.com/simwire/omnigate/internal/ratelimit"
	"github.com/simwire/omnigate/internal/scene"
	"github.com/simwire/omnigate/internal/service"
	"github.com/simwire/omnigate/internal/stream"
	"github.com/simwire/omnigate/internal/telemetry"
	"github.com/simwire/omnigate/internal/tracker"
	"github.com/simwire/omnigate/internal/waypoint"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "omnigate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "path to YAML config file")
		serviceName = flag.String("service", "", "service to host (overrides config)")
		listenAddr  = flag.String("listen", "", "HTTP listen address (overrides config)")
	)
	flag.Parse()

	loader := config.NewLoader(*configPath, version)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *serviceName != "" {
		cfg.Service = *serviceName
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	log.Configure(log.Config{Level: cfg.LogLevel, Service: cfg.Service})
	logger := log.WithComponent("daemon")

	registry, ok := contracts.ForService(cfg.Service)
	if !ok {
		return fmt.Errorf("unknown service %q (want one of %v)", cfg.Service, config.Services)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return err
	}

	holder := config.NewHolder(cfg, loader, *configPath)
	if *configPath != "" {
		if err := holder.StartWatcher(ctx); err != nil {
			logger.Warn().Err(err).Msg("config file watcher unavailable; SIGHUP reload still works")
		}
		defer holder.Stop()
	}
	go reloadOnSIGHUP(ctx, holder, logger)

	tp, err := telemetry.NewProvider(ctx, cfg.Service, version, cfg.Telemetry)
	if err != nil {
		logger.Warn().Err(err).Msg("telemetry unavailable; continuing without traces")
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("telemetry shutdown error")
			}
		}()
	}

	m := metrics.New(cfg.Service, log.Base())
	tr := tracker.New(cfg.Tracker.MaxEntries, cfg.Tracker.TTL)
	q := queue.New(cfg.Queue.ChannelCapacity)
	ex := queue.NewExecutor(q, tr, cfg.Queue.MaxOperationsPerCycle, log.Base())
	host := scene.NewSimHost()

	store, err := waypoint.OpenStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("open waypoint store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("waypoint store close error")
		}
	}()

	guard, err := assets.NewPathGuard(cfg.Assets.SearchDirs, assetOptions(cfg.Assets)...)
	if err != nil {
		return fmt.Errorf("asset path guard: %w", err)
	}

	streams := stream.NewManager(streamLauncher(cfg.Streaming, logger), log.Base())
	defer func() {
		if stopped, err := streams.Stop(); err != nil {
			logger.Warn().Err(err).Msg("encoder stop error")
		} else if stopped {
			logger.Info().Msg("encoder stopped")
		}
	}()

	recorder := service.NewVideoRecorder(host, cfg.Recorder, log.Base())

	ctrl, err := service.New(service.Deps{
		Registry: registry,
		Holder:   holder,
		Host:     host,
		Tracker:  tr,
		Queue:    q,
		Executor: ex,
		Metrics:  m,
		Store:    store,
		Streams:  streams,
		Recorder: recorder,
		Guard:    guard,
		Log:      log.Base(),
	})
	if err != nil {
		return fmt.Errorf("controller: %w", err)
	}

	hm := health.NewManager(version)
	hm.Register(health.QueueChecker(q, cfg.Queue.ChannelCapacity))
	hm.Register(health.TrackerChecker(tr, cfg.Tracker.MaxEntries))
	hm.Register(health.StoreChecker(store))
	hm.Register(health.StreamChecker(streams))

	srv := api.NewServer(api.Deps{
		Holder:     holder,
		Registry:   registry,
		Controller: ctrl,
		Health:     hm,
		Metrics:    m,
		Limiter:    ratelimit.New(cfg.Auth.RateLimitPerMinute, cfg.Auth.Burst),
		Log:        log.Base(),
	})

	m.StartServer()
	hm.SetRunning(true)
	defer func() {
		hm.SetRunning(false)
		m.StopServer()
	}()

	logger.Info().
		Str("service", cfg.Service).
		Str("listen", cfg.ListenAddr).
		Str("version", version).
		Int("operations", len(registry.Operations())).
		Msg("omnigate starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := ex.Run(gctx, cfg.Tick.RateHz, recorder.Tick)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return srv.Start(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("omnigate stopped")
	return nil
}

// reloadOnSIGHUP reloads config on SIGHUP; the holder swaps the
// snapshot atomically, so AuthGuard and rate limits pick it up
// without a restart.
func reloadOnSIGHUP(ctx context.Context, holder *config.Holder, logger zerolog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := holder.Reload(ctx); err != nil {
				logger.Error().Err(err).Msg("config reload failed; keeping previous config")
				continue
			}
			logger.Info().Msg("config reloaded")
		}
	}
}

func assetOptions(cfg config.AssetsConfig) []assets.Option {
	var opts []assets.Option
	if len(cfg.Extensions) > 0 {
		opts = append(opts, assets.WithExtensions(cfg.Extensions))
	}
	if cfg.MaxFileSizeMB > 0 {
		opts = append(opts, assets.WithMaxSize(int64(cfg.MaxFileSizeMB)<<20))
	}
	if cfg.AllowAbsolute {
		opts = append(opts, assets.WithAbsolutePaths())
	}
	return opts
}

// streamLauncher picks the real encoder launcher when the binary is
// installed, the no-op launcher otherwise, so a dev box without
// GStreamer still runs the full streamer surface.
func streamLauncher(cfg config.StreamingConfig, logger zerolog.Logger) stream.Launcher {
	bin := cfg.LaunchPath
	if bin == "" {
		bin = "gst-launch-1.0"
	}
	if _, err := exec.LookPath(bin); err != nil {
		logger.Warn().Str("bin", bin).Msg("encoder binary not found; streaming runs in no-op mode")
		return stream.NopLauncher()
	}
	return nil // Manager falls back to the exec launcher
}
