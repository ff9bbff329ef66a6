// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"strings"
)

var validBackends = map[string]bool{
	"memory": true,
	"badger": true,
	"sqlite": true,
	"redis":  true,
}

var validEncoders = map[string]bool{
	"x264":  true,
	"nvenc": true,
	"vaapi": true,
}

var validProtocols = map[string]bool{
	"srt":  true,
	"rtmp": true,
}

// Validate checks the merged configuration for operator errors. It
// aggregates all problems so a broken deploy surfaces them in one pass.
func Validate(cfg *Config) error {
	var problems []string

	serviceOK := false
	for _, s := range Services {
		if cfg.Service == s {
			serviceOK = true
			break
		}
	}
	if !serviceOK {
		problems = append(problems, fmt.Sprintf("service must be one of %s (got %q)", strings.Join(Services, ", "), cfg.Service))
	}

	if cfg.ListenAddr == "" {
		problems = append(problems, "listenAddr must not be empty")
	}

	// Auth enabled without credentials is legal: the guard passes
	// through and the daemon logs a startup warning.
	if cfg.Auth.RateLimitPerMinute <= 0 {
		problems = append(problems, "auth.rateLimitPerMinute must be positive")
	}
	if cfg.Auth.Burst <= 0 {
		problems = append(problems, "auth.burst must be positive")
	}

	if cfg.Queue.MaxOperationsPerCycle <= 0 {
		problems = append(problems, "queue.maxOperationsPerCycle must be positive")
	}
	if cfg.Queue.ChannelCapacity <= 0 {
		problems = append(problems, "queue.channelCapacity must be positive")
	}

	if cfg.Tracker.MaxEntries <= 0 {
		problems = append(problems, "tracker.maxEntries must be positive")
	}
	if cfg.Tracker.TTL <= 0 {
		problems = append(problems, "tracker.ttl must be positive")
	}

	if cfg.Tick.RateHz <= 0 || cfg.Tick.RateHz > 240 {
		problems = append(problems, "tick.rateHz must be in (0, 240]")
	}

	if !validBackends[cfg.Store.Backend] {
		problems = append(problems, fmt.Sprintf("store.backend %q is not supported", cfg.Store.Backend))
	}
	if (cfg.Store.Backend == "badger" || cfg.Store.Backend == "sqlite") && cfg.Store.Path == "" {
		problems = append(problems, fmt.Sprintf("store.backend %q requires store.path", cfg.Store.Backend))
	}
	if cfg.Store.Backend == "redis" && cfg.Store.Redis.Addr == "" {
		problems = append(problems, "store.backend redis requires store.redis.addr")
	}

	if !validEncoders[cfg.Streaming.Encoder] {
		problems = append(problems, fmt.Sprintf("streaming.encoder %q is not supported", cfg.Streaming.Encoder))
	}
	if !validProtocols[cfg.Streaming.Protocol] {
		problems = append(problems, fmt.Sprintf("streaming.protocol %q is not supported", cfg.Streaming.Protocol))
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.ExporterType {
		case "grpc", "http":
			if cfg.Telemetry.Endpoint == "" {
				problems = append(problems, "telemetry.endpoint required when telemetry is enabled")
			}
		case "noop":
		default:
			problems = append(problems, fmt.Sprintf("telemetry.exporterType %q is not supported", cfg.Telemetry.ExporterType))
		}
		if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
			problems = append(problems, "telemetry.samplingRate must be in [0, 1]")
		}
	}

	switch cfg.MCP.Transport {
	case "stdio", "http":
	default:
		problems = append(problems, fmt.Sprintf("mcp.transport %q is not supported", cfg.MCP.Transport))
	}
	if len(cfg.MCP.BaseURLs) == 0 {
		problems = append(problems, "mcp.baseUrls must name at least one candidate")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New(strings.Join(problems, "; "))
}
