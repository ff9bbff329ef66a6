// SPDX-License-Identifier: MIT

package scene

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultRoot is the parent path used when a request names none.
const DefaultRoot = "/World"

// SimHost is an in-memory Host. The control plane only ever calls it
// from the tick thread, but it locks internally so tests may drive it
// directly.
type SimHost struct {
	mu      sync.Mutex
	objects map[string]*Object
	order   []string // insertion order of paths

	camPos []float64
	camTgt []float64
	move   *activeMove

	markersVisible  bool
	markerOverrides map[string]bool

	now func() time.Time
}

type activeMove struct {
	spec    MoveSpec
	started time.Time
}

// NewSimHost creates an empty scene with the camera at a default pose.
func NewSimHost() *SimHost {
	return &SimHost{
		objects:         make(map[string]*Object),
		camPos:          []float64{0, 5, 10},
		camTgt:          []float64{0, 0, 0},
		markersVisible:  true,
		markerOverrides: make(map[string]bool),
		now:             time.Now,
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		parent = DefaultRoot
	}
	return strings.TrimRight(parent, "/") + "/" + name
}

func orDefault(v []float64, d []float64) []float64 {
	if len(v) == 3 {
		return append([]float64(nil), v...)
	}
	return append([]float64(nil), d...)
}

// AddElement creates a primitive and returns its scene path.
func (h *SimHost) AddElement(elementType, name string, position, rotation, scale, color []float64, parentPath string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addLocked(elementType, name, position, rotation, scale, color, parentPath, "")
}

func (h *SimHost) addLocked(elementType, name string, position, rotation, scale, color []float64, parentPath, batch string) (string, error) {
	path := joinPath(parentPath, name)
	if _, exists := h.objects[path]; exists {
		return "", fmt.Errorf("%w: %s", ErrExists, path)
	}
	obj := &Object{
		Path:     path,
		Name:     name,
		Type:     elementType,
		Position: orDefault(position, []float64{0, 0, 0}),
		Rotation: orDefault(rotation, []float64{0, 0, 0}),
		Scale:    orDefault(scale, []float64{1, 1, 1}),
		Batch:    batch,
	}
	if len(color) == 3 {
		obj.Color = append([]float64(nil), color...)
	}
	h.objects[path] = obj
	h.order = append(h.order, path)
	return path, nil
}

// CreateBatch creates all elements under <parent>/<batchName> in one
// call. It fails atomically: either every element is created or none.
func (h *SimHost) CreateBatch(batchName string, elements []ElementSpec, parentPath string) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	scope := joinPath(parentPath, batchName)
	for _, el := range elements {
		if _, exists := h.objects[joinPath(scope, el.Name)]; exists {
			return nil, fmt.Errorf("%w: %s", ErrExists, joinPath(scope, el.Name))
		}
	}
	paths := make([]string, 0, len(elements))
	for _, el := range elements {
		p, err := h.addLocked(el.Type, el.Name, el.Position, el.Rotation, el.Scale, el.Color, scope, batchName)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// PlaceAsset references an asset file into the scene.
func (h *SimHost) PlaceAsset(name, assetFile, primPath string, tf Transform) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	path := primPath
	if path == "" {
		path = joinPath(DefaultRoot, name)
	}
	if _, exists := h.objects[path]; exists {
		return "", fmt.Errorf("%w: %s", ErrExists, path)
	}
	obj := &Object{
		Path:     path,
		Name:     name,
		Type:     "asset",
		Position: orDefault(tf.Position, []float64{0, 0, 0}),
		Rotation: orDefault(tf.Rotation, []float64{0, 0, 0}),
		Scale:    orDefault(tf.Scale, []float64{1, 1, 1}),
		Asset:    assetFile,
	}
	h.objects[path] = obj
	h.order = append(h.order, path)
	return path, nil
}

// TransformObject applies a partial transform to an existing object.
func (h *SimHost) TransformObject(path string, tf Transform) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	obj, ok := h.objects[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if len(tf.Position) == 3 {
		obj.Position = append([]float64(nil), tf.Position...)
	}
	if len(tf.Rotation) == 3 {
		obj.Rotation = append([]float64(nil), tf.Rotation...)
	}
	if len(tf.Scale) == 3 {
		obj.Scale = append([]float64(nil), tf.Scale...)
	}
	return nil
}

// RemoveObject deletes one object.
func (h *SimHost) RemoveObject(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.objects[path]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	delete(h.objects, path)
	h.dropFromOrder(path)
	return nil
}

// ClearPath removes everything at or under path and returns the count.
// Clearing an empty path is a successful no-op.
func (h *SimHost) ClearPath(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	prefix := strings.TrimRight(path, "/") + "/"
	removed := 0
	for p := range h.objects {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(h.objects, p)
			h.dropFromOrder(p)
			removed++
		}
	}
	return removed
}

func (h *SimHost) dropFromOrder(path string) {
	for i, p := range h.order {
		if p == path {
			h.order = append(h.order[:i], h.order[i+1:]...)
			return
		}
	}
}

// GetObject returns a copy of one object.
func (h *SimHost) GetObject(path string) (Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	obj, ok := h.objects[path]
	if !ok {
		return Object{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return *obj, nil
}

// ListObjects returns copies of all objects under root (all when root
// is empty), in insertion order.
func (h *SimHost) ListObjects(root string) []Object {
	h.mu.Lock()
	defer h.mu.Unlock()

	prefix := ""
	if root != "" {
		prefix = strings.TrimRight(root, "/") + "/"
	}
	out := make([]Object, 0, len(h.order))
	for _, p := range h.order {
		if prefix == "" || p == root || strings.HasPrefix(p, prefix) {
			out = append(out, *h.objects[p])
		}
	}
	return out
}

// BatchObjects returns the objects created under a batch name.
func (h *SimHost) BatchObjects(batchName string) []Object {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Object
	for _, p := range h.order {
		if h.objects[p].Batch == batchName {
			out = append(out, *h.objects[p])
		}
	}
	return out
}

// ObjectsByType returns all objects of the given primitive type.
func (h *SimHost) ObjectsByType(elementType string) []Object {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Object
	for _, p := range h.order {
		if h.objects[p].Type == elementType {
			out = append(out, *h.objects[p])
		}
	}
	return out
}

// ObjectsInBounds returns objects whose position lies inside the box.
func (h *SimHost) ObjectsInBounds(min, max []float64) []Object {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Object
	for _, p := range h.order {
		obj := h.objects[p]
		inside := true
		for i := 0; i < 3; i++ {
			if obj.Position[i] < min[i] || obj.Position[i] > max[i] {
				inside = false
				break
			}
		}
		if inside {
			out = append(out, *obj)
		}
	}
	return out
}

// ObjectsNearPoint returns objects within radius of point, nearest
// first.
func (h *SimHost) ObjectsNearPoint(point []float64, radius float64) []Object {
	h.mu.Lock()
	defer h.mu.Unlock()

	type hit struct {
		obj  Object
		dist float64
	}
	var hits []hit
	for _, p := range h.order {
		obj := h.objects[p]
		d := dist3(obj.Position, point)
		if d <= radius {
			hits = append(hits, hit{*obj, d})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	out := make([]Object, len(hits))
	for i, hh := range hits {
		out[i] = hh.obj
	}
	return out
}

func dist3(a, b []float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// CalculateBounds returns the combined axis-aligned bounding box of the
// named objects, treating each as a unit primitive scaled by its scale.
func (h *SimHost) CalculateBounds(paths []string) (Bounds, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(paths) == 0 {
		return Bounds{}, fmt.Errorf("%w: no paths given", ErrNotFound)
	}
	min := []float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := []float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range paths {
		obj, ok := h.objects[p]
		if !ok {
			return Bounds{}, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		for i := 0; i < 3; i++ {
			half := obj.Scale[i] / 2
			if lo := obj.Position[i] - half; lo < min[i] {
				min[i] = lo
			}
			if hi := obj.Position[i] + half; hi > max[i] {
				max[i] = hi
			}
		}
	}
	return Bounds{Min: min, Max: max}, nil
}

// FindGroundLevel returns the highest object top within searchRadius
// horizontally of position that is not above the probe, or 0.
func (h *SimHost) FindGroundLevel(position []float64, searchRadius float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	ground := 0.0
	for _, p := range h.order {
		obj := h.objects[p]
		dx := obj.Position[0] - position[0]
		dz := obj.Position[2] - position[2]
		if math.Sqrt(dx*dx+dz*dz) > searchRadius {
			continue
		}
		top := obj.Position[1] + obj.Scale[1]/2
		if top <= position[1] && top > ground {
			ground = top
		}
	}
	return ground
}

// AlignObjects aligns the named objects along an axis at the min,
// center or max of their current coordinates.
func (h *SimHost) AlignObjects(paths []string, axis, alignment string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := map[string]int{"x": 0, "y": 1, "z": 2}[strings.ToLower(axis)]

	objs := make([]*Object, 0, len(paths))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range paths {
		obj, ok := h.objects[p]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		objs = append(objs, obj)
		if v := obj.Position[idx]; v < lo {
			lo = v
		}
		if v := obj.Position[idx]; v > hi {
			hi = v
		}
	}

	var target float64
	switch alignment {
	case "min":
		target = lo
	case "max":
		target = hi
	default:
		target = (lo + hi) / 2
	}
	for _, obj := range objs {
		obj.Position[idx] = target
	}
	return nil
}

// CameraStatus reports the camera pose. During a smooth move the pose
// is interpolated against the wall clock.
func (h *SimHost) CameraStatus() CameraState {
	h.mu.Lock()
	defer h.mu.Unlock()

	pos, tgt, moving := h.cameraPoseLocked()
	return CameraState{
		Position: pos,
		Target:   tgt,
		Moving:   moving,
	}
}

func (h *SimHost) cameraPoseLocked() (pos, tgt []float64, moving bool) {
	if h.move == nil {
		return append([]float64(nil), h.camPos...), append([]float64(nil), h.camTgt...), false
	}
	t := h.moveProgressLocked()
	e := ease(h.move.spec.Easing, t)
	pos = lerp3(h.move.spec.StartPosition, h.move.spec.EndPosition, e)
	st, et := h.move.spec.StartTarget, h.move.spec.EndTarget
	if len(st) != 3 {
		st = h.camTgt
	}
	if len(et) != 3 {
		et = st
	}
	tgt = lerp3(st, et, e)
	if t >= 1 {
		h.camPos, h.camTgt = pos, tgt
		h.move = nil
		return pos, tgt, false
	}
	return pos, tgt, true
}

func (h *SimHost) moveProgressLocked() float64 {
	d := h.move.spec.DurationSec
	if d <= 0 {
		return 1
	}
	t := h.now().Sub(h.move.started).Seconds() / d
	if t > 1 {
		t = 1
	}
	return t
}

func lerp3(a, b []float64, t float64) []float64 {
	out := make([]float64, 3)
	for i := 0; i < 3; i++ {
		out[i] = a[i] + (b[i]-a[i])*t
	}
	return out
}

func ease(name string, t float64) float64 {
	switch name {
	case "ease_in":
		return t * t
	case "ease_out":
		return 1 - (1-t)*(1-t)
	case "ease_in_out":
		if t < 0.5 {
			return 2 * t * t
		}
		return 1 - 2*(1-t)*(1-t)
	default:
		return t
	}
}

// SetCameraPosition teleports the camera, cancelling any smooth move.
func (h *SimHost) SetCameraPosition(position, target []float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.move = nil
	h.camPos = append([]float64(nil), position...)
	if len(target) == 3 {
		h.camTgt = append([]float64(nil), target...)
	}
}

// FrameObject positions the camera to look at an object from distance.
func (h *SimHost) FrameObject(path string, distance float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	obj, ok := h.objects[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if distance <= 0 {
		maxScale := math.Max(obj.Scale[0], math.Max(obj.Scale[1], obj.Scale[2]))
		distance = maxScale * 3
	}
	// Offset direction matches the default viewport framing.
	dir := []float64{0, 0.4, 1}
	n := math.Sqrt(dir[0]*dir[0] + dir[1]*dir[1] + dir[2]*dir[2])
	h.move = nil
	h.camPos = []float64{
		obj.Position[0] + dir[0]/n*distance,
		obj.Position[1] + dir[1]/n*distance,
		obj.Position[2] + dir[2]/n*distance,
	}
	h.camTgt = append([]float64(nil), obj.Position...)
	return nil
}

// OrbitCamera places the camera on an orbit around center.
func (h *SimHost) OrbitCamera(center []float64, distance, elevationDeg, azimuthDeg float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	el := elevationDeg * math.Pi / 180
	az := azimuthDeg * math.Pi / 180
	h.move = nil
	h.camPos = []float64{
		center[0] + distance*math.Cos(el)*math.Sin(az),
		center[1] + distance*math.Sin(el),
		center[2] + distance*math.Cos(el)*math.Cos(az),
	}
	h.camTgt = append([]float64(nil), center...)
}

// StartSmoothMove begins an eased camera move.
func (h *SimHost) StartSmoothMove(spec MoveSpec) error {
	if len(spec.StartPosition) != 3 || len(spec.EndPosition) != 3 {
		return fmt.Errorf("scene: smooth move requires start and end positions")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if spec.DurationSec <= 0 {
		spec.DurationSec = 3
	}
	h.camPos = append([]float64(nil), spec.StartPosition...)
	h.move = &activeMove{spec: spec, started: h.now()}
	return nil
}

// StopMovement cancels a smooth move, freezing the camera at its
// current interpolated pose. Reports whether a move was active.
func (h *SimHost) StopMovement() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.move == nil {
		return false
	}
	pos, tgt, _ := h.cameraPoseLocked()
	h.camPos, h.camTgt = pos, tgt
	h.move = nil
	return true
}

// MovementStatus reports smooth-move progress.
func (h *SimHost) MovementStatus() MoveStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.move == nil {
		return MoveStatus{}
	}
	t := h.moveProgressLocked()
	if t >= 1 {
		// Completed between reads; settle the pose.
		h.cameraPoseLocked()
		return MoveStatus{}
	}
	return MoveStatus{Active: true, Progress: t, Easing: h.move.spec.Easing}
}

// SetMarkersVisible toggles the global marker overlay, clearing any
// per-marker overrides. Reports whether the state changed.
func (h *SimHost) SetMarkersVisible(visible bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	changed := h.markersVisible != visible || len(h.markerOverrides) > 0
	h.markersVisible = visible
	h.markerOverrides = make(map[string]bool)
	return changed
}

// SetMarkerVisible overrides one marker's visibility.
func (h *SimHost) SetMarkerVisible(waypointID string, visible bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.markerOverrides[waypointID] = visible
}

// SetMarkersSelective shows only the given markers.
func (h *SimHost) SetMarkersSelective(waypointIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.markersVisible = false
	h.markerOverrides = make(map[string]bool, len(waypointIDs))
	for _, id := range waypointIDs {
		h.markerOverrides[id] = true
	}
}

// MarkerDebug reports the marker overlay state.
func (h *SimHost) MarkerDebug() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()

	overrides := make(map[string]any, len(h.markerOverrides))
	for id, v := range h.markerOverrides {
		overrides[id] = v
	}
	return map[string]any{
		"global_visible": h.markersVisible,
		"overrides":      overrides,
	}
}

// CaptureFrame writes a placeholder frame as a binary PPM so capture
// plumbing is exercised end to end without a renderer.
func (h *SimHost) CaptureFrame(outputPath string, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("scene: invalid frame size %dx%d", width, height)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "P6\n%d %d\n255\n", width, height)
	row := make([]byte, width*3)
	for i := range row {
		row[i] = 0x80
	}
	for y := 0; y < height; y++ {
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
	}
	return w.Flush()
}

var _ Host = (*SimHost)(nil)
