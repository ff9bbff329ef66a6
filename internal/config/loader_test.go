// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "omnigate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := NewLoader("", "test").Load()
	require.NoError(t, err)

	require.Equal(t, ServiceSceneBuilder, cfg.Service)
	require.Equal(t, ":8900", cfg.ListenAddr)
	require.Equal(t, 2, cfg.Queue.MaxOperationsPerCycle)
	require.Equal(t, 5*time.Minute, cfg.Tracker.TTL)
	require.Equal(t, "memory", cfg.Store.Backend)
	require.Equal(t, "x264", cfg.Streaming.Encoder)
	require.Equal(t, "srt", cfg.Streaming.Protocol)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
service: recorder
listenAddr: ":9100"
auth:
  enabled: true
  bearerToken: file-token
  rateLimitPerMinute: 60
  burst: 5
queue:
  maxOperationsPerCycle: 4
tracker:
  ttl: 90s
store:
  backend: badger
  path: /var/lib/omnigate
`)
	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)

	require.Equal(t, ServiceRecorder, cfg.Service)
	require.Equal(t, ":9100", cfg.ListenAddr)
	require.Equal(t, "file-token", cfg.Auth.BearerToken)
	require.Equal(t, 60, cfg.Auth.RateLimitPerMinute)
	require.Equal(t, 5, cfg.Auth.Burst)
	require.Equal(t, 4, cfg.Queue.MaxOperationsPerCycle)
	require.Equal(t, 90*time.Second, cfg.Tracker.TTL)
	require.Equal(t, "badger", cfg.Store.Backend)
	require.Equal(t, "/var/lib/omnigate", cfg.Store.Path)

	// Untouched keys keep their defaults.
	require.Equal(t, 64, cfg.Queue.ChannelCapacity)
	require.Equal(t, 500, cfg.Tracker.MaxEntries)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  enabled: true
  bearerToken: file-token
`)
	t.Setenv("AGENT_EXT_AUTH_TOKEN", "env-token")
	t.Setenv("AGENT_EXT_HMAC_SECRET", "env-secret")
	t.Setenv("OMNIGATE_MAX_OPS_PER_CYCLE", "7")

	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)

	require.Equal(t, "env-token", cfg.Auth.BearerToken)
	require.Equal(t, "env-secret", cfg.Auth.HMACSecret)
	require.Equal(t, 7, cfg.Queue.MaxOperationsPerCycle)
}

func TestLoadServiceScopedEnvWins(t *testing.T) {
	t.Setenv("OMNIGATE_SERVICE", "streamer")
	t.Setenv("AGENT_EXT_AUTH_TOKEN", "global-token")
	t.Setenv("AGENT_STREAMER_AUTH_TOKEN", "streamer-token")
	t.Setenv("AGENT_STREAMER_BASE_URL", "http://10.1.0.5:8905, http://10.1.0.5:8906")

	cfg, err := NewLoader("", "test").Load()
	require.NoError(t, err)

	require.Equal(t, ServiceStreamer, cfg.Service)
	require.Equal(t, "streamer-token", cfg.Auth.BearerToken)
	require.Equal(t, []string{"http://10.1.0.5:8905", "http://10.1.0.5:8906"}, cfg.MCP.BaseURLs)
}

func TestLoadAuthDisabledNeedsNoSecret(t *testing.T) {
	t.Setenv("AGENT_EXT_AUTH_ENABLED", "false")

	cfg, err := NewLoader("", "test").Load()
	require.NoError(t, err)
	require.False(t, cfg.Auth.Enabled)
}

func TestLoadRejectsUnknownService(t *testing.T) {
	t.Setenv("AGENT_EXT_AUTH_TOKEN", "tok")
	t.Setenv("OMNIGATE_SERVICE", "teleporter")

	_, err := NewLoader("", "test").Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "service must be one of")
}

func TestLoadRejectsUnknownYAMLKeys(t *testing.T) {
	path := writeConfig(t, "definitely_not_a_key: true\n")
	_, err := NewLoader(path, "test").Load()
	require.Error(t, err)
}

func TestValidateAggregatesProblems(t *testing.T) {
	cfg := Default()
	cfg.Auth.RateLimitPerMinute = 0
	cfg.Auth.Burst = -1
	cfg.Store.Backend = "papertape"

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "rateLimitPerMinute")
	require.Contains(t, err.Error(), "burst")
	require.Contains(t, err.Error(), "papertape")
}

func TestValidateStoreBackendRequirements(t *testing.T) {
	cfg := Default()

	cfg.Store.Backend = "sqlite"
	cfg.Store.Path = ""
	require.Error(t, Validate(cfg))

	cfg.Store.Path = "/tmp/omnigate.db"
	require.NoError(t, Validate(cfg))

	cfg.Store.Backend = "redis"
	require.Error(t, Validate(cfg))
	cfg.Store.Redis.Addr = "127.0.0.1:6379"
	require.NoError(t, Validate(cfg))
}

func TestMaskSecret(t *testing.T) {
	require.Equal(t, "", MaskSecret(""))
	require.Equal(t, "****", MaskSecret("short"))
	require.Equal(t, "very****", MaskSecret("verylongsecretvalue"))
}

func TestEnvPrefix(t *testing.T) {
	require.Equal(t, "AGENT_SCENE_BUILDER", EnvPrefix("scene_builder"))
	require.Equal(t, "AGENT_STREAMER", EnvPrefix("streamer"))
}
