// SPDX-License-Identifier: MIT

package scene

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddElementAndGet(t *testing.T) {
	h := NewSimHost()

	path, err := h.AddElement("cube", "c1", []float64{1, 2, 3}, nil, nil, []float64{1, 0, 0}, "")
	require.NoError(t, err)
	assert.Equal(t, "/World/c1", path)

	obj, err := h.GetObject(path)
	require.NoError(t, err)
	assert.Equal(t, "cube", obj.Type)
	assert.Equal(t, []float64{1, 2, 3}, obj.Position)
	assert.Equal(t, []float64{1, 1, 1}, obj.Scale)
	assert.Equal(t, []float64{1, 0, 0}, obj.Color)
}

func TestAddElementDuplicatePath(t *testing.T) {
	h := NewSimHost()
	_, err := h.AddElement("cube", "c1", []float64{0, 0, 0}, nil, nil, nil, "")
	require.NoError(t, err)
	_, err = h.AddElement("sphere", "c1", []float64{0, 0, 0}, nil, nil, nil, "")
	assert.ErrorIs(t, err, ErrExists)
}

func TestCreateBatchAtomic(t *testing.T) {
	h := NewSimHost()
	_, err := h.CreateBatch("row", []ElementSpec{
		{Type: "cube", Name: "a", Position: []float64{0, 0, 0}},
		{Type: "cube", Name: "b", Position: []float64{1, 0, 0}},
	}, "")
	require.NoError(t, err)
	assert.Len(t, h.BatchObjects("row"), 2)

	// A colliding element fails the whole batch.
	_, err = h.CreateBatch("row", []ElementSpec{
		{Type: "cube", Name: "c", Position: []float64{2, 0, 0}},
		{Type: "cube", Name: "a", Position: []float64{0, 0, 0}},
	}, "")
	assert.ErrorIs(t, err, ErrExists)
	assert.Len(t, h.BatchObjects("row"), 2)
}

func TestClearPathIdempotent(t *testing.T) {
	h := NewSimHost()
	_, err := h.AddElement("cube", "a", []float64{0, 0, 0}, nil, nil, nil, "/World/zone")
	require.NoError(t, err)
	_, err = h.AddElement("cube", "b", []float64{0, 0, 0}, nil, nil, nil, "/World/zone")
	require.NoError(t, err)
	_, err = h.AddElement("cube", "keep", []float64{0, 0, 0}, nil, nil, nil, "/World/other")
	require.NoError(t, err)

	assert.Equal(t, 2, h.ClearPath("/World/zone"))
	assert.Equal(t, 0, h.ClearPath("/World/zone"))
	assert.Len(t, h.ListObjects(""), 1)
}

func TestTransformObjectPartial(t *testing.T) {
	h := NewSimHost()
	path, err := h.AddElement("cube", "c", []float64{0, 0, 0}, nil, nil, nil, "")
	require.NoError(t, err)

	require.NoError(t, h.TransformObject(path, Transform{Position: []float64{5, 0, 0}}))
	obj, err := h.GetObject(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 0, 0}, obj.Position)
	assert.Equal(t, []float64{1, 1, 1}, obj.Scale)

	assert.ErrorIs(t, h.TransformObject("/World/none", Transform{}), ErrNotFound)
}

func TestQueries(t *testing.T) {
	h := NewSimHost()
	mustAdd := func(typ, name string, pos []float64) {
		t.Helper()
		_, err := h.AddElement(typ, name, pos, nil, nil, nil, "")
		require.NoError(t, err)
	}
	mustAdd("cube", "a", []float64{0, 0, 0})
	mustAdd("cube", "b", []float64{5, 0, 2})
	mustAdd("sphere", "s", []float64{20, 0, 0})

	assert.Len(t, h.ObjectsByType("cube"), 2)
	assert.Len(t, h.ObjectsByType("cone"), 0)

	inBounds := h.ObjectsInBounds([]float64{-1, -1, -1}, []float64{6, 1, 3})
	assert.Len(t, inBounds, 2)

	near := h.ObjectsNearPoint([]float64{5, 0, 2}, 10)
	require.NotEmpty(t, near)
	assert.Equal(t, "/World/b", near[0].Path) // nearest first
}

func TestCalculateBounds(t *testing.T) {
	h := NewSimHost()
	_, err := h.AddElement("cube", "a", []float64{0, 0, 0}, nil, []float64{2, 2, 2}, nil, "")
	require.NoError(t, err)
	_, err = h.AddElement("cube", "b", []float64{4, 0, 0}, nil, nil, nil, "")
	require.NoError(t, err)

	b, err := h.CalculateBounds([]string{"/World/a", "/World/b"})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -1, -1}, b.Min)
	assert.Equal(t, []float64{4.5, 1, 1}, b.Max)

	_, err = h.CalculateBounds([]string{"/World/none"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindGroundLevel(t *testing.T) {
	h := NewSimHost()
	_, err := h.AddElement("cube", "floor", []float64{0, 0.5, 0}, nil, []float64{10, 1, 10}, nil, "")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, h.FindGroundLevel([]float64{0, 5, 0}, 10), 1e-9)
	assert.Zero(t, h.FindGroundLevel([]float64{100, 5, 100}, 1))
}

func TestAlignObjects(t *testing.T) {
	h := NewSimHost()
	_, err := h.AddElement("cube", "a", []float64{0, 0, 0}, nil, nil, nil, "")
	require.NoError(t, err)
	_, err = h.AddElement("cube", "b", []float64{4, 2, 0}, nil, nil, nil, "")
	require.NoError(t, err)

	require.NoError(t, h.AlignObjects([]string{"/World/a", "/World/b"}, "y", "max"))
	a, _ := h.GetObject("/World/a")
	b, _ := h.GetObject("/World/b")
	assert.Equal(t, 2.0, a.Position[1])
	assert.Equal(t, 2.0, b.Position[1])
}

func TestCameraTeleportAndOrbit(t *testing.T) {
	h := NewSimHost()
	h.SetCameraPosition([]float64{1, 2, 3}, []float64{0, 0, 0})
	st := h.CameraStatus()
	assert.Equal(t, []float64{1, 2, 3}, st.Position)
	assert.False(t, st.Moving)

	h.OrbitCamera([]float64{0, 0, 0}, 10, 0, 0)
	st = h.CameraStatus()
	assert.InDelta(t, 0, st.Position[0], 1e-9)
	assert.InDelta(t, 0, st.Position[1], 1e-9)
	assert.InDelta(t, 10, st.Position[2], 1e-9)
}

func TestSmoothMoveInterpolates(t *testing.T) {
	h := NewSimHost()
	base := time.Now()
	h.now = func() time.Time { return base }

	require.NoError(t, h.StartSmoothMove(MoveSpec{
		StartPosition: []float64{0, 0, 0},
		EndPosition:   []float64{10, 0, 0},
		DurationSec:   10,
		Easing:        "linear",
	}))

	h.now = func() time.Time { return base.Add(5 * time.Second) }
	st := h.CameraStatus()
	assert.True(t, st.Moving)
	assert.InDelta(t, 5.0, st.Position[0], 1e-9)

	ms := h.MovementStatus()
	assert.True(t, ms.Active)
	assert.InDelta(t, 0.5, ms.Progress, 1e-9)

	h.now = func() time.Time { return base.Add(11 * time.Second) }
	st = h.CameraStatus()
	assert.False(t, st.Moving)
	assert.InDelta(t, 10.0, st.Position[0], 1e-9)
	assert.False(t, h.MovementStatus().Active)
}

func TestStopMovementIdempotent(t *testing.T) {
	h := NewSimHost()
	base := time.Now()
	h.now = func() time.Time { return base }

	require.NoError(t, h.StartSmoothMove(MoveSpec{
		StartPosition: []float64{0, 0, 0},
		EndPosition:   []float64{10, 0, 0},
		DurationSec:   10,
	}))
	h.now = func() time.Time { return base.Add(2 * time.Second) }

	assert.True(t, h.StopMovement())
	frozen := h.CameraStatus()
	assert.InDelta(t, 2.0, frozen.Position[0], 1e-9)

	// Second stop is a no-op.
	assert.False(t, h.StopMovement())
}

func TestMarkerVisibilityIdempotent(t *testing.T) {
	h := NewSimHost()

	assert.False(t, h.SetMarkersVisible(true)) // already visible
	assert.True(t, h.SetMarkersVisible(false))
	assert.False(t, h.SetMarkersVisible(false)) // repeat is a no-op

	h.SetMarkerVisible("wp-1", true)
	h.SetMarkersSelective([]string{"wp-2", "wp-3"})

	dbg := h.MarkerDebug()
	assert.Equal(t, false, dbg["global_visible"])
	overrides := dbg["overrides"].(map[string]any)
	assert.Len(t, overrides, 2)
	assert.Equal(t, true, overrides["wp-2"])
}

func TestCaptureFrameWritesPPM(t *testing.T) {
	h := NewSimHost()
	out := filepath.Join(t.TempDir(), "frames", "f0001.ppm")

	require.NoError(t, h.CaptureFrame(out, 4, 2))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "P6\n4 2\n255\n", string(data[:11]))
	assert.Len(t, data, 11+4*2*3)

	assert.Error(t, h.CaptureFrame(out, 0, 2))
}
