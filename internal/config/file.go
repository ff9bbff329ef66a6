// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML configuration structure. Pointer fields
// distinguish "absent" from zero so file values only override what they
// actually set.
type FileConfig struct {
	Service    string `yaml:"service,omitempty"`
	ListenAddr string `yaml:"listenAddr,omitempty"`
	LogLevel   string `yaml:"logLevel,omitempty"`

	Auth      *AuthFileConfig      `yaml:"auth,omitempty"`
	Queue     *QueueFileConfig     `yaml:"queue,omitempty"`
	Tracker   *TrackerFileConfig   `yaml:"tracker,omitempty"`
	Tick      *TickFileConfig      `yaml:"tick,omitempty"`
	Timeouts  *TimeoutFileConfig   `yaml:"timeouts,omitempty"`
	Store     *StoreFileConfig     `yaml:"store,omitempty"`
	Streaming *StreamingFileConfig `yaml:"streaming,omitempty"`
	Recorder  *RecorderFileConfig  `yaml:"recorder,omitempty"`
	Assets    *AssetsFileConfig    `yaml:"assets,omitempty"`
	Security  *SecurityFileConfig  `yaml:"security,omitempty"`
	Telemetry *TelemetryFileConfig `yaml:"telemetry,omitempty"`
	MCP       *MCPFileConfig       `yaml:"mcp,omitempty"`
}

// AuthFileConfig mirrors AuthConfig for YAML.
type AuthFileConfig struct {
	Enabled            *bool  `yaml:"enabled,omitempty"`
	HMACSecret         string `yaml:"hmacSecret,omitempty"`
	BearerToken        string `yaml:"bearerToken,omitempty"`
	RateLimitPerMinute *int   `yaml:"rateLimitPerMinute,omitempty"`
	Burst              *int   `yaml:"burst,omitempty"`
	TrustProxyHeaders  *bool  `yaml:"trustProxyHeaders,omitempty"`
}

// QueueFileConfig mirrors QueueConfig for YAML.
type QueueFileConfig struct {
	MaxOperationsPerCycle *int `yaml:"maxOperationsPerCycle,omitempty"`
	ChannelCapacity       *int `yaml:"channelCapacity,omitempty"`
}

// TrackerFileConfig mirrors TrackerConfig for YAML.
type TrackerFileConfig struct {
	MaxEntries *int   `yaml:"maxEntries,omitempty"`
	TTL        string `yaml:"ttl,omitempty"` // e.g. "5m"
}

// TickFileConfig mirrors TickConfig for YAML.
type TickFileConfig struct {
	RateHz *int `yaml:"rateHz,omitempty"`
}

// TimeoutFileConfig mirrors TimeoutConfig for YAML; values are Go
// durations ("10s").
type TimeoutFileConfig struct {
	Query   string `yaml:"query,omitempty"`
	Element string `yaml:"element,omitempty"`
	Batch   string `yaml:"batch,omitempty"`
	Asset   string `yaml:"asset,omitempty"`
	Stream  string `yaml:"stream,omitempty"`
	Record  string `yaml:"record,omitempty"`
}

// StoreFileConfig mirrors StoreConfig for YAML.
type StoreFileConfig struct {
	Backend string           `yaml:"backend,omitempty"`
	Path    string           `yaml:"path,omitempty"`
	Redis   *RedisFileConfig `yaml:"redis,omitempty"`
}

// RedisFileConfig mirrors RedisConfig for YAML.
type RedisFileConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       *int   `yaml:"db,omitempty"`
}

// StreamingFileConfig mirrors StreamingConfig for YAML.
type StreamingFileConfig struct {
	Width          *int   `yaml:"width,omitempty"`
	Height         *int   `yaml:"height,omitempty"`
	FPS            *int   `yaml:"fps,omitempty"`
	BitrateKbps    *int   `yaml:"bitrateKbps,omitempty"`
	Encoder        string `yaml:"encoder,omitempty"`
	Protocol       string `yaml:"protocol,omitempty"`
	SinkURL        string `yaml:"sinkUrl,omitempty"`
	LaunchPath     string `yaml:"launchPath,omitempty"`
	AllowLocalhost *bool  `yaml:"allowLocalhost,omitempty"`
	AllowPrivate   *bool  `yaml:"allowPrivate,omitempty"`
}

// RecorderFileConfig mirrors RecorderConfig for YAML.
type RecorderFileConfig struct {
	OutputDir string `yaml:"outputDir,omitempty"`
	MaxFrames *int   `yaml:"maxFrames,omitempty"`
}

// AssetsFileConfig mirrors AssetsConfig for YAML.
type AssetsFileConfig struct {
	SearchDirs    []string `yaml:"searchDirs,omitempty"`
	Extensions    []string `yaml:"extensions,omitempty"`
	MaxFileSizeMB *int     `yaml:"maxFileSizeMb,omitempty"`
	AllowAbsolute *bool    `yaml:"allowAbsolute,omitempty"`
}

// SecurityFileConfig mirrors SecurityConfig for YAML.
type SecurityFileConfig struct {
	HSTS *bool `yaml:"hsts,omitempty"`
}

// TelemetryFileConfig mirrors TelemetryConfig for YAML.
type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	ExporterType string   `yaml:"exporterType,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}

// MCPFileConfig mirrors MCPConfig for YAML.
type MCPFileConfig struct {
	Transport      string   `yaml:"transport,omitempty"`
	ListenAddr     string   `yaml:"listenAddr,omitempty"`
	BaseURLs       []string `yaml:"baseUrls,omitempty"`
	RequestTimeout string   `yaml:"requestTimeout,omitempty"`
}

// ReadFile parses a YAML config file. A missing file is not an error;
// it returns an empty FileConfig so that env-only deployments work.
func ReadFile(path string) (*FileConfig, error) {
	if path == "" {
		return &FileConfig{}, nil
	}
	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's --config flag
	if err != nil {
		if os.IsNotExist(err) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &fc, nil
}
