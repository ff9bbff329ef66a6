// SPDX-License-Identifier: MIT

package waypoint

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	s.now = stepClock(t)
	root := mustGroup(t, s, "root", "")
	child := mustGroup(t, s, "child", root.ID)
	_, err := s.CreateWaypoint(Waypoint{Name: "w1", Position: []float64{0, 0, 0}, GroupIDs: []string{root.ID}})
	require.NoError(t, err)
	_, err = s.CreateWaypoint(Waypoint{Name: "w2", Type: "camera_position", Position: []float64{1, 2, 3}, Target: []float64{0, 0, 0}, GroupIDs: []string{child.ID}})
	require.NoError(t, err)
	return s
}

func TestExportImport_ReplaceRoundTrip(t *testing.T) {
	src := seedStore(t)
	bundle := src.Export(true)
	require.Len(t, bundle.Waypoints, 2)
	require.Len(t, bundle.Groups, 2)
	assert.Equal(t, BundleVersion, bundle.Version)

	dst := newTestStore(t)
	_, err := dst.CreateWaypoint(Waypoint{Name: "stale", Position: []float64{9, 9, 9}})
	require.NoError(t, err)

	stats, err := dst.Import(bundle, MergeModeReplace)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.WaypointsAdded)
	assert.Equal(t, 2, stats.GroupsAdded)
	assert.Equal(t, 1, stats.Removed)

	// Round trip: an export of the restored store matches the bundle.
	again := dst.Export(true)
	if diff := cmp.Diff(bundle.Waypoints, again.Waypoints); diff != "" {
		t.Errorf("waypoints differ after round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(bundle.Groups, again.Groups); diff != "" {
		t.Errorf("groups differ after round trip (-want +got):\n%s", diff)
	}
}

func TestImport_MergeSkipsExistingIDs(t *testing.T) {
	src := seedStore(t)
	bundle := src.Export(true)

	dst := newTestStore(t)
	// Pre-create one of the bundle's waypoints under the same ID.
	_, err := dst.Import(&Bundle{Version: BundleVersion, Waypoints: bundle.Waypoints[:1]}, MergeModeMerge)
	require.NoError(t, err)

	stats, err := dst.Import(bundle, MergeModeMerge)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.WaypointsAdded, "existing ID skipped")
	assert.Equal(t, 2, stats.GroupsAdded)
	assert.Zero(t, stats.Removed)
	assert.Equal(t, 2, dst.Count())
}

func TestImport_DetachesUnknownReferences(t *testing.T) {
	dst := newTestStore(t)
	bundle := &Bundle{
		Version: BundleVersion,
		Groups:  []Group{{ID: "g1", Name: "g1", ParentGroupID: "missing-parent"}},
		Waypoints: []Waypoint{
			{ID: "w1", Name: "w1", Type: DefaultType, Position: []float64{0, 0, 0}, GroupIDs: []string{"g1", "missing-group"}},
		},
	}
	_, err := dst.Import(bundle, MergeModeMerge)
	require.NoError(t, err)

	g, err := dst.GetGroup("g1")
	require.NoError(t, err)
	assert.Empty(t, g.ParentGroupID)

	wp, err := dst.GetWaypoint("w1")
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, wp.GroupIDs)
}

func TestImport_Rejections(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Import(&Bundle{Version: BundleVersion + 1}, MergeModeMerge)
	assert.ErrorContains(t, err, "newer than supported")

	_, err = s.Import(&Bundle{Version: BundleVersion}, "overwrite")
	assert.ErrorContains(t, err, "unknown merge_mode")
}

func TestBundleFile_RoundTrip(t *testing.T) {
	src := seedStore(t)
	bundle := src.Export(true)

	path := filepath.Join(t.TempDir(), "waypoints.json")
	require.NoError(t, WriteBundleFile(path, bundle))

	got, err := ReadBundleFile(path)
	require.NoError(t, err)
	if diff := cmp.Diff(bundle, got); diff != "" {
		t.Errorf("bundle differs after file round trip (-want +got):\n%s", diff)
	}
}

func TestReadBundleFile_Missing(t *testing.T) {
	_, err := ReadBundleFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
