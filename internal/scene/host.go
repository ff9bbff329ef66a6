// SPDX-License-Identifier: MIT

// Package scene defines the seam between the control plane and the
// rendering host's scene graph. Handlers call the Host interface from
// the tick executor only; HTTP workers never touch it. SimHost is the
// in-memory implementation used by tests and the embedded dev mode.
package scene

import "errors"

// Sentinel errors returned by Host implementations.
var (
	ErrNotFound  = errors.New("scene: object not found")
	ErrExists    = errors.New("scene: object already exists")
	ErrBadParent = errors.New("scene: parent path does not exist")
)

// Object is one node in the scene graph.
type Object struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Type     string    `json:"type"` // cube, sphere, ..., asset, camera_marker
	Position []float64 `json:"position"`
	Rotation []float64 `json:"rotation"`
	Scale    []float64 `json:"scale"`
	Color    []float64 `json:"color,omitempty"`
	Asset    string    `json:"asset,omitempty"` // source file for placed assets
	Batch    string    `json:"batch,omitempty"` // batch name for batched elements
}

// Transform is a partial transform update; nil fields stay unchanged.
type Transform struct {
	Position []float64
	Rotation []float64
	Scale    []float64
}

// ElementSpec describes one element of a batch creation.
type ElementSpec struct {
	Type     string
	Name     string
	Position []float64
	Rotation []float64
	Scale    []float64
	Color    []float64
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// CameraState is the camera pose plus motion flag.
type CameraState struct {
	Position []float64 `json:"position"`
	Target   []float64 `json:"target"`
	Moving   bool      `json:"moving"`
}

// MoveSpec describes an eased camera move.
type MoveSpec struct {
	StartPosition []float64
	EndPosition   []float64
	StartTarget   []float64
	EndTarget     []float64
	DurationSec   float64
	Easing        string // linear, ease_in, ease_out, ease_in_out
}

// MoveStatus reports smooth-move progress.
type MoveStatus struct {
	Active   bool    `json:"active"`
	Progress float64 `json:"progress"` // 0..1
	Easing   string  `json:"easing,omitempty"`
}

// Graph is the scene-authoring surface.
type Graph interface {
	AddElement(elementType, name string, position, rotation, scale, color []float64, parentPath string) (string, error)
	CreateBatch(batchName string, elements []ElementSpec, parentPath string) ([]string, error)
	PlaceAsset(name, assetFile, primPath string, tf Transform) (string, error)
	TransformObject(path string, tf Transform) error
	RemoveObject(path string) error
	ClearPath(path string) int
	GetObject(path string) (Object, error)
	ListObjects(root string) []Object
	BatchObjects(batchName string) []Object
	ObjectsByType(elementType string) []Object
	ObjectsInBounds(min, max []float64) []Object
	ObjectsNearPoint(point []float64, radius float64) []Object
	CalculateBounds(paths []string) (Bounds, error)
	FindGroundLevel(position []float64, searchRadius float64) float64
	AlignObjects(paths []string, axis, alignment string) error
}

// Camera is the viewer control surface.
type Camera interface {
	CameraStatus() CameraState
	SetCameraPosition(position, target []float64)
	FrameObject(path string, distance float64) error
	OrbitCamera(center []float64, distance, elevationDeg, azimuthDeg float64)
	StartSmoothMove(spec MoveSpec) error
	StopMovement() bool
	MovementStatus() MoveStatus
}

// Markers is the waypoint-marker overlay surface.
type Markers interface {
	SetMarkersVisible(visible bool) bool
	SetMarkerVisible(waypointID string, visible bool)
	SetMarkersSelective(waypointIDs []string)
	MarkerDebug() map[string]any
}

// Viewport is the frame-capture surface.
type Viewport interface {
	CaptureFrame(outputPath string, width, height int) error
}

// Host is the complete rendering-host boundary.
type Host interface {
	Graph
	Camera
	Markers
	Viewport
}
