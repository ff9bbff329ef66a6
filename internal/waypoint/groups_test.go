// SPDX-License-Identifier: MIT

package waypoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGroup(t *testing.T, s *Store, name, parent string) Group {
	t.Helper()
	g, err := s.CreateGroup(Group{Name: name, ParentGroupID: parent})
	require.NoError(t, err)
	return g
}

func TestCreateGroup_ParentMustExist(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateGroup(Group{Name: "orphan", ParentGroupID: "ghost"})
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestUpdateGroup_CycleRejected(t *testing.T) {
	s := newTestStore(t)
	s.now = stepClock(t)
	root := mustGroup(t, s, "root", "")
	mid := mustGroup(t, s, "mid", root.ID)
	leaf := mustGroup(t, s, "leaf", mid.ID)

	// root under its own grandchild
	_, err := s.UpdateGroup(root.ID, nil, nil, &leaf.ID, nil)
	assert.ErrorIs(t, err, ErrCycle)

	// self-parenting
	_, err = s.UpdateGroup(mid.ID, nil, nil, &mid.ID, nil)
	assert.ErrorIs(t, err, ErrCycle)

	// moving a leaf elsewhere is fine
	empty := ""
	got, err := s.UpdateGroup(leaf.ID, nil, nil, &empty, nil)
	require.NoError(t, err)
	assert.Empty(t, got.ParentGroupID)
}

func TestListGroups_ParentFilter(t *testing.T) {
	s := newTestStore(t)
	s.now = stepClock(t)
	root := mustGroup(t, s, "root", "")
	childA := mustGroup(t, s, "a", root.ID)
	childB := mustGroup(t, s, "b", root.ID)

	all, err := s.ListGroups(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	parent := root.ID
	children, err := s.ListGroups(&parent)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, childA.ID, children[0].ID, "creation order")
	assert.Equal(t, childB.ID, children[1].ID)

	top := ""
	roots, err := s.ListGroups(&top)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, root.ID, roots[0].ID)
}

func TestRemoveGroup_CascadeAndReparent(t *testing.T) {
	s := newTestStore(t)
	s.now = stepClock(t)
	root := mustGroup(t, s, "root", "")
	mid := mustGroup(t, s, "mid", root.ID)
	leaf := mustGroup(t, s, "leaf", mid.ID)

	wp, err := s.CreateWaypoint(Waypoint{Position: []float64{0, 0, 0}, GroupIDs: []string{leaf.ID}})
	require.NoError(t, err)

	t.Run("reparent", func(t *testing.T) {
		n, err := s.RemoveGroup(mid.ID, false)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := s.GetGroup(leaf.ID)
		require.NoError(t, err)
		assert.Equal(t, root.ID, got.ParentGroupID, "child adopted by removed group's parent")
	})

	t.Run("cascade", func(t *testing.T) {
		n, err := s.RemoveGroup(root.ID, true)
		require.NoError(t, err)
		assert.Equal(t, 2, n, "root and leaf")
		assert.Zero(t, s.GroupCount())

		got, err := s.GetWaypoint(wp.ID)
		require.NoError(t, err)
		assert.Empty(t, got.GroupIDs, "membership detached")
	})
}

func TestMembership_AddRemoveIdempotent(t *testing.T) {
	s := newTestStore(t)
	g := mustGroup(t, s, "g", "")
	wp, err := s.CreateWaypoint(Waypoint{Position: []float64{0, 0, 0}})
	require.NoError(t, err)

	got, err := s.AddWaypointToGroups(wp.ID, []string{g.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID}, got.GroupIDs)

	// second add is a no-op
	got, err = s.AddWaypointToGroups(wp.ID, []string{g.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{g.ID}, got.GroupIDs)

	_, err = s.AddWaypointToGroups(wp.ID, []string{"ghost"})
	assert.ErrorIs(t, err, ErrGroupNotFound)

	got, err = s.RemoveWaypointFromGroups(wp.ID, []string{g.ID, "never-was-member"})
	require.NoError(t, err)
	assert.Empty(t, got.GroupIDs)
}

func TestGetGroupWaypoints_Nested(t *testing.T) {
	s := newTestStore(t)
	s.now = stepClock(t)
	root := mustGroup(t, s, "root", "")
	child := mustGroup(t, s, "child", root.ID)

	direct, err := s.CreateWaypoint(Waypoint{Name: "direct", Position: []float64{0, 0, 0}, GroupIDs: []string{root.ID}})
	require.NoError(t, err)
	nested, err := s.CreateWaypoint(Waypoint{Name: "nested", Position: []float64{1, 0, 0}, GroupIDs: []string{child.ID}})
	require.NoError(t, err)

	flat, err := s.GetGroupWaypoints(root.ID, false)
	require.NoError(t, err)
	require.Len(t, flat, 1)
	assert.Equal(t, direct.ID, flat[0].ID)

	deep, err := s.GetGroupWaypoints(root.ID, true)
	require.NoError(t, err)
	require.Len(t, deep, 2)
	assert.Equal(t, direct.ID, deep[0].ID)
	assert.Equal(t, nested.ID, deep[1].ID)

	_, err = s.GetGroupWaypoints("ghost", false)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestGetWaypointGroups(t *testing.T) {
	s := newTestStore(t)
	s.now = stepClock(t)
	a := mustGroup(t, s, "a", "")
	b := mustGroup(t, s, "b", "")
	wp, err := s.CreateWaypoint(Waypoint{Position: []float64{0, 0, 0}, GroupIDs: []string{b.ID, a.ID}})
	require.NoError(t, err)

	groups, err := s.GetWaypointGroups(wp.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, a.ID, groups[0].ID, "sorted by creation time")
	assert.Equal(t, b.ID, groups[1].ID)
}

func TestHierarchy(t *testing.T) {
	s := newTestStore(t)
	s.now = stepClock(t)
	root := mustGroup(t, s, "root", "")
	childA := mustGroup(t, s, "a", root.ID)
	mustGroup(t, s, "b", root.ID)
	other := mustGroup(t, s, "other", "")

	_, err := s.CreateWaypoint(Waypoint{Position: []float64{0, 0, 0}, GroupIDs: []string{childA.ID}})
	require.NoError(t, err)
	_, err = s.CreateWaypoint(Waypoint{Position: []float64{1, 0, 0}, GroupIDs: []string{childA.ID}})
	require.NoError(t, err)

	roots := s.Hierarchy()
	require.Len(t, roots, 2)
	assert.Equal(t, root.ID, roots[0].Group.ID)
	assert.Equal(t, other.ID, roots[1].Group.ID)

	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, childA.ID, roots[0].Children[0].Group.ID)
	assert.Equal(t, 2, roots[0].Children[0].WaypointCount)
	assert.Zero(t, roots[0].WaypointCount)
}
