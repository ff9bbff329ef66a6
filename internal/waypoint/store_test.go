// SPDX-License-Identifier: MIT

package waypoint

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(NewMemoryBackend())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateWaypoint_Defaults(t *testing.T) {
	s := newTestStore(t)

	wp, err := s.CreateWaypoint(Waypoint{Position: []float64{1, 2, 3}})
	require.NoError(t, err)

	assert.NotEmpty(t, wp.ID)
	assert.Equal(t, DefaultType, wp.Type)
	assert.NotEmpty(t, wp.Name)
	assert.False(t, wp.CreatedAt.IsZero())
	assert.Equal(t, wp.CreatedAt, wp.UpdatedAt)
}

func TestCreateWaypoint_UnknownGroupRejected(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateWaypoint(Waypoint{Position: []float64{0, 0, 0}, GroupIDs: []string{"ghost"}})
	assert.ErrorIs(t, err, ErrGroupNotFound)
	assert.Zero(t, s.Count())
}

func TestListWaypoints_FiltersAndOrder(t *testing.T) {
	s := newTestStore(t)
	g, err := s.CreateGroup(Group{Name: "route"})
	require.NoError(t, err)

	a, err := s.CreateWaypoint(Waypoint{Name: "a", Type: "camera_position", Position: []float64{0, 0, 0}})
	require.NoError(t, err)
	b, err := s.CreateWaypoint(Waypoint{Name: "b", Position: []float64{1, 0, 0}, GroupIDs: []string{g.ID}})
	require.NoError(t, err)

	all, err := s.ListWaypoints("", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID, "creation order")
	assert.Equal(t, b.ID, all[1].ID)

	cams, err := s.ListWaypoints("camera_position", "")
	require.NoError(t, err)
	require.Len(t, cams, 1)
	assert.Equal(t, "a", cams[0].Name)

	inGroup, err := s.ListWaypoints("", g.ID)
	require.NoError(t, err)
	require.Len(t, inGroup, 1)
	assert.Equal(t, "b", inGroup[0].Name)

	_, err = s.ListWaypoints("", "ghost")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestUpdateWaypoint_PartialFields(t *testing.T) {
	s := newTestStore(t)
	s.now = stepClock(t)

	wp, err := s.CreateWaypoint(Waypoint{Name: "orig", Position: []float64{0, 0, 0}})
	require.NoError(t, err)

	name := "renamed"
	got, err := s.UpdateWaypoint(wp.ID, Update{Name: &name, Position: []float64{5, 6, 7}})
	require.NoError(t, err)

	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, []float64{5, 6, 7}, got.Position)
	assert.Equal(t, wp.Type, got.Type, "untouched field survives")
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	_, err = s.UpdateWaypoint("ghost", Update{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateWaypoint_SnapshotIndependence(t *testing.T) {
	s := newTestStore(t)

	wp, err := s.CreateWaypoint(Waypoint{Position: []float64{0, 0, 0}, Metadata: map[string]any{"k": "v"}})
	require.NoError(t, err)

	got, err := s.GetWaypoint(wp.ID)
	require.NoError(t, err)
	got.Position[0] = 99
	got.Metadata["k"] = "mutated"

	again, err := s.GetWaypoint(wp.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), again.Position[0])
	assert.Equal(t, "v", again.Metadata["k"])
}

func TestRemoveWaypoints_ReportsMissing(t *testing.T) {
	s := newTestStore(t)
	a, err := s.CreateWaypoint(Waypoint{Position: []float64{0, 0, 0}})
	require.NoError(t, err)
	b, err := s.CreateWaypoint(Waypoint{Position: []float64{1, 1, 1}})
	require.NoError(t, err)

	removed, missing, err := s.RemoveWaypoints([]string{a.ID, "ghost", b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"ghost"}, missing)
	assert.Zero(t, s.Count())
}

func TestClearWaypoints_KeepsGroups(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateGroup(Group{Name: "keep"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := s.CreateWaypoint(Waypoint{Position: []float64{float64(i), 0, 0}})
		require.NoError(t, err)
	}

	n, err := s.ClearWaypoints()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Zero(t, s.Count())
	assert.Equal(t, 1, s.GroupCount())
}

func TestRemoveWaypoint_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.RemoveWaypoint("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				wp, err := s.CreateWaypoint(Waypoint{Position: []float64{0, 0, 0}})
				if err != nil {
					t.Error(err)
					return
				}
				if _, err := s.GetWaypoint(wp.ID); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 160, s.Count())
}

// stepClock returns a clock advancing one second per call.
func stepClock(t *testing.T) func() time.Time {
	t.Helper()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	var mu sync.Mutex
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestOpen_RestoresCreationOrder(t *testing.T) {
	b := NewMemoryBackend()
	s, err := Open(b)
	require.NoError(t, err)
	s.now = stepClock(t)

	first, err := s.CreateWaypoint(Waypoint{Name: "first", Position: []float64{0, 0, 0}})
	require.NoError(t, err)
	second, err := s.CreateWaypoint(Waypoint{Name: "second", Position: []float64{1, 0, 0}})
	require.NoError(t, err)

	// Reopen over the same backend; order is rebuilt from CreatedAt.
	reopened, err := Open(b)
	require.NoError(t, err)
	all, err := reopened.ListWaypoints("", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
}

func TestErrorsAreBranchable(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetWaypoint("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "nope")
}
