// SPDX-License-Identifier: MIT

// Package config loads and validates the layered service configuration:
// built-in defaults, then the YAML file, then environment overrides
// (global AGENT_EXT_* first, service-scoped AGENT_<SERVICE>_* last).
package config

import (
	"strings"
	"time"
)

// Service names selectable via the "service" key.
const (
	ServiceSceneBuilder = "scene_builder"
	ServiceCamera       = "camera"
	ServiceSurveyor     = "surveyor"
	ServiceRecorder     = "recorder"
	ServiceStreamer     = "streamer"
)

// Services lists all valid service names.
var Services = []string{
	ServiceSceneBuilder,
	ServiceCamera,
	ServiceSurveyor,
	ServiceRecorder,
	ServiceStreamer,
}

// Config is the effective runtime configuration of one service process.
type Config struct {
	Service    string
	ListenAddr string
	LogLevel   string
	Version    string

	Auth      AuthConfig
	Queue     QueueConfig
	Tracker   TrackerConfig
	Tick      TickConfig
	Timeouts  TimeoutConfig
	Store     StoreConfig
	Streaming StreamingConfig
	Recorder  RecorderConfig
	Assets    AssetsConfig
	Security  SecurityConfig
	Telemetry TelemetryConfig
	MCP       MCPConfig
}

// AuthConfig is the inbound authentication and rate-limit policy.
/// It is the hot-reloadable part of the config: the holder swaps it
// atomically and the auth/ratelimit middleware read it per request.
type AuthConfig struct {
	Enabled            bool
	HMACSecret         string
	BearerToken        string
	RateLimitPerMinute int
	Burst              int
	TrustProxyHeaders  bool
}

// QueueConfig bounds the request queue.
type QueueConfig struct {
	MaxOperationsPerCycle int
	ChannelCapacity       int
}

// TrackerConfig bounds the request tracker.
type TrackerConfig struct {
	MaxEntries int
	TTL        time.Duration
}

// TickConfig drives the embedded tick loop when no external host pumps it.
type TickConfig struct {
	RateHz int
}

// TimeoutConfig holds per-operation-class dispatch timeouts.
type TimeoutConfig struct {
	Query   time.Duration
	Element time.Duration
	Batch   time.Duration
	Asset   time.Duration
	Stream  time.Duration
	Record  time.Duration
}

// StoreConfig selects the waypoint store backend.
type StoreConfig struct {
	Backend string // memory | badger | sqlite | redis
	Path    string // badger directory or sqlite file
	Redis   RedisConfig
}

// RedisConfig holds redis backend settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StreamingConfig holds encoder pipeline defaults for the streamer service.
type StreamingConfig struct {
	Width          int
	Height         int
	FPS            int
	BitrateKbps    int
	Encoder        string // x264 | nvenc | vaapi
	Protocol       string // srt | rtmp
	SinkURL        string
	LaunchPath     string // gst-launch-1.0 binary
	AllowLocalhost bool
	AllowPrivate   bool
}

// RecorderConfig holds frame/video output settings.
type RecorderConfig struct {
	OutputDir string
	MaxFrames int // per video job
}

// AssetsConfig configures sandboxed asset path resolution.
type AssetsConfig struct {
	SearchDirs    []string
	Extensions    []string
	MaxFileSizeMB int
	AllowAbsolute bool
}

// SecurityConfig holds response hardening options.
type SecurityConfig struct {
	HSTS bool
}

// TelemetryConfig configures the optional OTLP tracer.
type TelemetryConfig struct {
	Enabled      bool
	ExporterType string // grpc | http | noop
	Endpoint     string
	Environment  string
	SamplingRate float64
}

// MCPConfig configures the sibling MCP proxy process.
type MCPConfig struct {
	Transport      string // stdio | http
	ListenAddr     string
	BaseURLs       []string
	RequestTimeout time.Duration
}

// Default returns the built-in configuration for a service.
func Default() *Config {
	return &Config{
		Service:    ServiceSceneBuilder,
		ListenAddr: ":8900",
		LogLevel:   "info",
		Auth: AuthConfig{
			Enabled:            true,
			RateLimitPerMinute: 120,
			Burst:              20,
		},
		Queue: QueueConfig{
			MaxOperationsPerCycle: 2,
			ChannelCapacity:       64,
		},
		Tracker: TrackerConfig{
			MaxEntries: 500,
			TTL:        5 * time.Minute,
		},
		Tick: TickConfig{
			RateHz: 60,
		},
		Timeouts: TimeoutConfig{
			Query:   5 * time.Second,
			Element: 10 * time.Second,
			Batch:   30 * time.Second,
			Asset:   30 * time.Second,
			Stream:  15 * time.Second,
			Record:  15 * time.Second,
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Streaming: StreamingConfig{
			Width:       1920,
			Height:      1080,
			FPS:         30,
			BitrateKbps: 4000,
			Encoder:     "x264",
			Protocol:    "srt",
			LaunchPath:  "gst-launch-1.0",
		},
		Recorder: RecorderConfig{
			OutputDir: "/tmp/omnigate/frames",
			MaxFrames: 18000,
		},
		Assets: AssetsConfig{
			MaxFileSizeMB: 512,
		},
		Telemetry: TelemetryConfig{
			ExporterType: "noop",
			Environment:  "development",
			SamplingRate: 1.0,
		},
		MCP: MCPConfig{
			Transport:      "stdio",
			ListenAddr:     ":8970",
			BaseURLs:       []string{"http://127.0.0.1:8900"},
			RequestTimeout: 30 * time.Second,
		},
	}
}

// EnvPrefix returns the per-service environment prefix, e.g.
// "scene_builder" -> "AGENT_SCENE_BUILDER".
func EnvPrefix(service string) string {
	return "AGENT_" + strings.ToUpper(service)
}

// MaskSecret renders a secret for logging: empty stays empty, short
// values are fully masked, longer values keep a 4-character prefix.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}
