// SPDX-License-Identifier: MIT

package waypoint

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simwire/omnigate/internal/config"
)

// exerciseBackend runs the persistence contract every backend must
// satisfy: records survive a reopen, deletes stick, Clear empties.
func exerciseBackend(t *testing.T, open func(t *testing.T) Backend) {
	t.Helper()

	b := open(t)
	s, err := Open(b)
	require.NoError(t, err)

	g, err := s.CreateGroup(Group{Name: "g"})
	require.NoError(t, err)
	wp, err := s.CreateWaypoint(Waypoint{Name: "wp", Position: []float64{1, 2, 3}, GroupIDs: []string{g.ID}})
	require.NoError(t, err)
	gone, err := s.CreateWaypoint(Waypoint{Name: "gone", Position: []float64{0, 0, 0}})
	require.NoError(t, err)
	require.NoError(t, s.RemoveWaypoint(gone.ID))
	require.NoError(t, s.Close())

	reopened, err := Open(open(t))
	require.NoError(t, err)
	defer func() { require.NoError(t, reopened.Close()) }()

	assert.Equal(t, 1, reopened.Count())
	assert.Equal(t, 1, reopened.GroupCount())
	got, err := reopened.GetWaypoint(wp.ID)
	require.NoError(t, err)
	assert.Equal(t, "wp", got.Name)
	assert.Equal(t, []float64{1, 2, 3}, got.Position)
	assert.Equal(t, []string{g.ID}, got.GroupIDs)
	_, err = reopened.GetWaypoint(gone.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := reopened.ClearWaypoints()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBadgerBackend(t *testing.T) {
	// The store closes each backend before the next open, so the
	// directory lock is free on reopen.
	dir := t.TempDir()
	exerciseBackend(t, func(t *testing.T) Backend {
		b, err := OpenBadgerBackend(dir)
		require.NoError(t, err)
		return b
	})
}

func TestSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoints.db")
	exerciseBackend(t, func(t *testing.T) Backend {
		b, err := OpenSQLiteBackend(path)
		require.NoError(t, err)
		return b
	})
}

func TestRedisBackend(t *testing.T) {
	srv := miniredis.RunT(t)
	exerciseBackend(t, func(t *testing.T) Backend {
		b, err := OpenRedisBackend(srv.Addr(), "", 0, "test")
		require.NoError(t, err)
		return b
	})
}

func TestRedisBackend_BadAddr(t *testing.T) {
	_, err := OpenRedisBackend("127.0.0.1:1", "", 0, "")
	assert.Error(t, err)
}

func TestOpenStore_Factory(t *testing.T) {
	t.Run("memory default", func(t *testing.T) {
		s, err := OpenStore(config.StoreConfig{})
		require.NoError(t, err)
		assert.Zero(t, s.Count())
		require.NoError(t, s.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenStore(config.StoreConfig{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "wp.db")})
		require.NoError(t, err)
		require.NoError(t, s.Close())
	})

	t.Run("badger", func(t *testing.T) {
		s, err := OpenStore(config.StoreConfig{Backend: "badger", Path: t.TempDir()})
		require.NoError(t, err)
		require.NoError(t, s.Close())
	})

	t.Run("redis", func(t *testing.T) {
		srv := miniredis.RunT(t)
		s, err := OpenStore(config.StoreConfig{Backend: "redis", Redis: config.RedisConfig{Addr: srv.Addr()}})
		require.NoError(t, err)
		require.NoError(t, s.Close())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := OpenStore(config.StoreConfig{Backend: "etcd"})
		assert.ErrorContains(t, err, "unknown store backend")
	})
}
