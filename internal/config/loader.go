// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"
	"time"
)

// Loader builds the effective Config. Precedence, lowest to highest:
// built-in defaults, YAML file, global environment (AGENT_EXT_* and
// OMNIGATE_*), per-service environment (AGENT_<SERVICE>_*).
type Loader struct {
	path    string
	version string
}

// NewLoader creates a loader for the given config file path (may be "").
func NewLoader(path, version string) *Loader {
	return &Loader{path: path, version: version}
}

// Load reads, merges and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()
	cfg.Version = l.version

	fc, err := ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	mergeFile(cfg, fc)
	mergeEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func mergeFile(cfg *Config, fc *FileConfig) {
	if fc.Service != "" {
		cfg.Service = fc.Service
	}
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if a := fc.Auth; a != nil {
		setBool(&cfg.Auth.Enabled, a.Enabled)
		setString(&cfg.Auth.HMACSecret, a.HMACSecret)
		setString(&cfg.Auth.BearerToken, a.BearerToken)
		setInt(&cfg.Auth.RateLimitPerMinute, a.RateLimitPerMinute)
		setInt(&cfg.Auth.Burst, a.Burst)
		setBool(&cfg.Auth.TrustProxyHeaders, a.TrustProxyHeaders)
	}
	if q := fc.Queue; q != nil {
		setInt(&cfg.Queue.MaxOperationsPerCycle, q.MaxOperationsPerCycle)
		setInt(&cfg.Queue.ChannelCapacity, q.ChannelCapacity)
	}
	if tr := fc.Tracker; tr != nil {
		setInt(&cfg.Tracker.MaxEntries, tr.MaxEntries)
		setDurationString(&cfg.Tracker.TTL, tr.TTL)
	}
	if tk := fc.Tick; tk != nil {
		setInt(&cfg.Tick.RateHz, tk.RateHz)
	}
	if to := fc.Timeouts; to != nil {
		setDurationString(&cfg.Timeouts.Query, to.Query)
		setDurationString(&cfg.Timeouts.Element, to.Element)
		setDurationString(&cfg.Timeouts.Batch, to.Batch)
		setDurationString(&cfg.Timeouts.Asset, to.Asset)
		setDurationString(&cfg.Timeouts.Stream, to.Stream)
		setDurationString(&cfg.Timeouts.Record, to.Record)
	}
	if st := fc.Store; st != nil {
		setString(&cfg.Store.Backend, st.Backend)
		setString(&cfg.Store.Path, st.Path)
		if st.Redis != nil {
			setString(&cfg.Store.Redis.Addr, st.Redis.Addr)
			setString(&cfg.Store.Redis.Password, st.Redis.Password)
			setInt(&cfg.Store.Redis.DB, st.Redis.DB)
		}
	}
	if s := fc.Streaming; s != nil {
		setInt(&cfg.Streaming.Width, s.Width)
		setInt(&cfg.Streaming.Height, s.Height)
		setInt(&cfg.Streaming.FPS, s.FPS)
		setInt(&cfg.Streaming.BitrateKbps, s.BitrateKbps)
		setString(&cfg.Streaming.Encoder, s.Encoder)
		setString(&cfg.Streaming.Protocol, s.Protocol)
		setString(&cfg.Streaming.SinkURL, s.SinkURL)
		setString(&cfg.Streaming.LaunchPath, s.LaunchPath)
		setBool(&cfg.Streaming.AllowLocalhost, s.AllowLocalhost)
		setBool(&cfg.Streaming.AllowPrivate, s.AllowPrivate)
	}
	if r := fc.Recorder; r != nil {
		setString(&cfg.Recorder.OutputDir, r.OutputDir)
		setInt(&cfg.Recorder.MaxFrames, r.MaxFrames)
	}
	if a := fc.Assets; a != nil {
		if len(a.SearchDirs) > 0 {
			cfg.Assets.SearchDirs = append([]string(nil), a.SearchDirs...)
		}
		if len(a.Extensions) > 0 {
			cfg.Assets.Extensions = append([]string(nil), a.Extensions...)
		}
		setInt(&cfg.Assets.MaxFileSizeMB, a.MaxFileSizeMB)
		setBool(&cfg.Assets.AllowAbsolute, a.AllowAbsolute)
	}
	if s := fc.Security; s != nil {
		setBool(&cfg.Security.HSTS, s.HSTS)
	}
	if t := fc.Telemetry; t != nil {
		setBool(&cfg.Telemetry.Enabled, t.Enabled)
		setString(&cfg.Telemetry.ExporterType, t.ExporterType)
		setString(&cfg.Telemetry.Endpoint, t.Endpoint)
		setString(&cfg.Telemetry.Environment, t.Environment)
		if t.SamplingRate != nil {
			cfg.Telemetry.SamplingRate = *t.SamplingRate
		}
	}
	if m := fc.MCP; m != nil {
		setString(&cfg.MCP.Transport, m.Transport)
		setString(&cfg.MCP.ListenAddr, m.ListenAddr)
		if len(m.BaseURLs) > 0 {
			cfg.MCP.BaseURLs = append([]string(nil), m.BaseURLs...)
		}
		setDurationString(&cfg.MCP.RequestTimeout, m.RequestTimeout)
	}
}

func mergeEnv(cfg *Config) {
	// Operational keys.
	cfg.Service = ParseString("OMNIGATE_SERVICE", cfg.Service)
	cfg.ListenAddr = ParseString("OMNIGATE_LISTEN", cfg.ListenAddr)
	cfg.LogLevel = ParseString("OMNIGATE_LOG_LEVEL", cfg.LogLevel)

	cfg.Queue.MaxOperationsPerCycle = ParseInt("OMNIGATE_MAX_OPS_PER_CYCLE", cfg.Queue.MaxOperationsPerCycle)
	cfg.Queue.ChannelCapacity = ParseInt("OMNIGATE_QUEUE_CAPACITY", cfg.Queue.ChannelCapacity)
	cfg.Tracker.MaxEntries = ParseInt("OMNIGATE_TRACKER_MAX_ENTRIES", cfg.Tracker.MaxEntries)
	cfg.Tracker.TTL = ParseDuration("OMNIGATE_TRACKER_TTL", cfg.Tracker.TTL)
	cfg.Tick.RateHz = ParseInt("OMNIGATE_TICK_RATE_HZ", cfg.Tick.RateHz)

	cfg.Store.Backend = ParseString("OMNIGATE_STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.Path = ParseString("OMNIGATE_STORE_PATH", cfg.Store.Path)
	cfg.Store.Redis.Addr = ParseString("OMNIGATE_REDIS_ADDR", cfg.Store.Redis.Addr)
	cfg.Store.Redis.Password = ParseString("OMNIGATE_REDIS_PASSWORD", cfg.Store.Redis.Password)
	cfg.Store.Redis.DB = ParseInt("OMNIGATE_REDIS_DB", cfg.Store.Redis.DB)

	cfg.Recorder.OutputDir = ParseString("OMNIGATE_RECORDER_OUTPUT_DIR", cfg.Recorder.OutputDir)
	cfg.Streaming.LaunchPath = ParseString("OMNIGATE_GST_LAUNCH_PATH", cfg.Streaming.LaunchPath)
	cfg.Streaming.SinkURL = ParseString("OMNIGATE_STREAM_SINK_URL", cfg.Streaming.SinkURL)

	cfg.Telemetry.Enabled = ParseBool("OMNIGATE_OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.ExporterType = ParseString("OMNIGATE_OTEL_EXPORTER", cfg.Telemetry.ExporterType)
	cfg.Telemetry.Endpoint = ParseString("OMNIGATE_OTEL_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.Environment = ParseString("OMNIGATE_OTEL_ENVIRONMENT", cfg.Telemetry.Environment)
	cfg.Telemetry.SamplingRate = ParseFloat("OMNIGATE_OTEL_SAMPLING_RATE", cfg.Telemetry.SamplingRate)

	// Global inbound auth.
	cfg.Auth.Enabled = ParseBool("AGENT_EXT_AUTH_ENABLED", cfg.Auth.Enabled)
	cfg.Auth.BearerToken = ParseString("AGENT_EXT_AUTH_TOKEN", cfg.Auth.BearerToken)
	cfg.Auth.HMACSecret = ParseString("AGENT_EXT_HMAC_SECRET", cfg.Auth.HMACSecret)
	cfg.Auth.RateLimitPerMinute = ParseInt("AGENT_EXT_RATE_LIMIT_PER_MINUTE", cfg.Auth.RateLimitPerMinute)
	cfg.Auth.Burst = ParseInt("AGENT_EXT_RATE_BURST", cfg.Auth.Burst)
	cfg.Auth.TrustProxyHeaders = ParseBool("AGENT_EXT_TRUST_PROXY_HEADERS", cfg.Auth.TrustProxyHeaders)

	// Per-service overrides win over the global layer.
	prefix := EnvPrefix(cfg.Service)
	cfg.Auth.BearerToken = ParseString(prefix+"_AUTH_TOKEN", cfg.Auth.BearerToken)
	cfg.Auth.HMACSecret = ParseString(prefix+"_HMAC_SECRET", cfg.Auth.HMACSecret)
	if urls := ParseString(prefix+"_BASE_URL", ""); urls != "" {
		cfg.MCP.BaseURLs = splitList(urls)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDurationString(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
