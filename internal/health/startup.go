// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/simwire/omnigate/internal/config"
	"github.com/simwire/omnigate/internal/log"
)

// PerformStartupChecks validates the environment before the daemon
// starts accepting requests. Failures here abort startup; warnings
// are logged and tolerated.
func PerformStartupChecks(ctx context.Context, cfg *config.Config) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkListenAddr(logger, cfg.ListenAddr); err != nil {
		return fmt.Errorf("listen address check failed: %w", err)
	}
	if err := checkRecorderDir(logger, cfg.Recorder.OutputDir); err != nil {
		return fmt.Errorf("recorder output check failed: %w", err)
	}
	if err := checkAssetDirs(logger, cfg.Assets.SearchDirs); err != nil {
		return fmt.Errorf("asset search dirs check failed: %w", err)
	}
	if err := checkStore(logger, cfg.Store); err != nil {
		return fmt.Errorf("store check failed: %w", err)
	}
	if err := checkStreaming(logger, cfg.Streaming); err != nil {
		return fmt.Errorf("streaming check failed: %w", err)
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkListenAddr(logger zerolog.Logger, addr string) error {
	if addr == "" {
		return nil
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid listen port %q in %q", port, addr)
	}
	logger.Info().Str("addr", addr).Msg("listen address is valid")
	return nil
}

// checkRecorderDir ensures the frame output directory exists and is
// writable. Video jobs create per-job subdirectories under it at
// runtime, so a read-only root would only fail mid-capture otherwise.
func checkRecorderDir(logger zerolog.Logger, path string) error {
	if path == "" {
		return fmt.Errorf("recorder output directory not configured")
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("cannot create recorder output dir %s: %w", path, err)
	}
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("recorder output dir is not writable: %s (%v)", path, err)
	}
	_ = os.Remove(testFile)

	tempDir := filepath.Clean(os.TempDir())
	clean := filepath.Clean(path)
	if tempDir != "." && (clean == tempDir || strings.HasPrefix(clean, tempDir+string(filepath.Separator))) {
		logger.Warn().Str("output_dir", path).Msg("recorder output is under temp; captured frames may be lost on reboot")
	}

	logger.Info().Str("path", path).Msg("recorder output dir is writable")
	return nil
}

func checkAssetDirs(logger zerolog.Logger, dirs []string) error {
	missing := 0
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		switch {
		case err != nil:
			logger.Warn().Str("dir", dir).Msg("asset search dir does not exist")
			missing++
		case !info.IsDir():
			return fmt.Errorf("asset search path is not a directory: %s", dir)
		}
	}
	if len(dirs) > 0 && missing == len(dirs) {
		logger.Warn().Msg("no asset search dir exists; place_asset will reject every path")
	}
	logger.Info().Int("count", len(dirs)).Msg("asset search dirs checked")
	return nil
}

func checkStore(logger zerolog.Logger, cfg config.StoreConfig) error {
	switch cfg.Backend {
	case "", "memory":
		logger.Warn().Msg("waypoint store is in-memory; waypoints are not persistent across restarts")
	case "badger", "sqlite":
		if cfg.Path == "" {
			return fmt.Errorf("store backend %q requires a path", cfg.Backend)
		}
		dir := cfg.Path
		if cfg.Backend == "sqlite" {
			dir = filepath.Dir(cfg.Path)
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("cannot create store dir %s: %w", dir, err)
		}
		logger.Info().Str("backend", cfg.Backend).Str("path", cfg.Path).Msg("store path is available")
	case "redis":
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("store backend redis requires an address")
		}
		if _, _, err := net.SplitHostPort(cfg.Redis.Addr); err != nil {
			return fmt.Errorf("invalid redis address %q: %w", cfg.Redis.Addr, err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis store configured")
	default:
		return fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
	return nil
}

// checkStreaming verifies the encoder launcher binary and the sink
// URL syntax. A missing binary is a warning, not an error: the
// streamer falls back to the no-op launcher in dev mode.
func checkStreaming(logger zerolog.Logger, cfg config.StreamingConfig) error {
	bin := strings.TrimSpace(cfg.LaunchPath)
	if bin == "" {
		bin = "gst-launch-1.0"
	}
	if _, err := exec.LookPath(bin); err != nil {
		logger.Warn().Str("bin", bin).Msg("encoder binary not found; streaming runs in no-op mode")
	} else {
		logger.Info().Str("bin", bin).Msg("encoder binary available")
	}

	if cfg.SinkURL != "" {
		u, err := url.Parse(cfg.SinkURL)
		if err != nil {
			return fmt.Errorf("invalid sink URL: %w", err)
		}
		if u.Scheme != "srt" && u.Scheme != "rtmp" {
			return fmt.Errorf("sink URL scheme must be srt or rtmp, got: %s", u.Scheme)
		}
		logger.Info().Str("url", cfg.SinkURL).Msg("sink URL is valid")
	}
	return nil
}
