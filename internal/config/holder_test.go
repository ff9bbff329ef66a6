// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oasdiff/yaml"
	"github.com/stretchr/testify/require"
)

func TestHolderReloadSwapsAtomically(t *testing.T) {
	path := writeConfig(t, `
auth:
  enabled: true
  bearerToken: first
`)
	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)

	holder := NewHolder(initial, loader, path)
	require.Equal(t, "first", holder.Current().Auth.BearerToken)

	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  enabled: true
  bearerToken: second
`), 0o600))

	require.NoError(t, holder.Reload(context.Background()))
	require.Equal(t, "second", holder.Current().Auth.BearerToken)
}

func TestHolderKeepsOldConfigOnBadReload(t *testing.T) {
	path := writeConfig(t, `
auth:
  enabled: true
  bearerToken: good
`)
	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)
	holder := NewHolder(initial, loader, path)

	require.NoError(t, os.WriteFile(path, []byte("service: bogus\n"), 0o600))

	require.Error(t, holder.Reload(context.Background()))
	require.Equal(t, "good", holder.Current().Auth.BearerToken)
}

func TestHolderNotifiesListeners(t *testing.T) {
	path := writeConfig(t, `
auth:
  enabled: true
  bearerToken: tok-a
`)
	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)
	holder := NewHolder(initial, loader, path)

	ch := make(chan *Config, 1)
	holder.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  enabled: true
  bearerToken: tok-b
`), 0o600))
	require.NoError(t, holder.Reload(context.Background()))

	select {
	case cfg := <-ch:
		require.Equal(t, "tok-b", cfg.Auth.BearerToken)
	case <-time.After(time.Second):
		t.Fatal("listener not notified")
	}
}

func TestHolderWatcherReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, `
auth:
  enabled: true
  bearerToken: before
`)
	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)
	holder := NewHolder(initial, loader, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, holder.StartWatcher(ctx))
	defer holder.Stop()

	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  enabled: true
  bearerToken: after
`), 0o600))

	require.Eventually(t, func() bool {
		return holder.Current().Auth.BearerToken == "after"
	}, 5*time.Second, 50*time.Millisecond, "watcher did not apply reload")
}

func TestHolderWatcherDisabledWithoutPath(t *testing.T) {
	holder := NewHolder(Default(), NewLoader("", "test"), "")
	require.NoError(t, holder.StartWatcher(context.Background()))
}

// Fixture round-trip: what the loader reads is exactly what a YAML
// round-trip of the fixture says it should read.
func TestFileConfigMatchesFixture(t *testing.T) {
	fixture := `
service: surveyor
listenAddr: ":8930"
store:
  backend: sqlite
  path: /data/waypoints.db
`
	path := filepath.Join(t.TempDir(), "omnigate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	var expect map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(fixture), &expect))

	fc, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, expect["service"], fc.Service)
	require.Equal(t, expect["listenAddr"], fc.ListenAddr)
	storeMap, ok := expect["store"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, storeMap["backend"], fc.Store.Backend)
	require.Equal(t, storeMap["path"], fc.Store.Path)
}
