// SPDX-License-Identifier: MIT

package service

import (
	"context"

	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/scene"
	"github.com/simwire/omnigate/internal/validate"
)

// Easings accepted by camera_smooth_move.
var Easings = []string{"linear", "ease_in", "ease_out", "ease_in_out"}

const (
	defaultOrbitElevation = 15.0
	defaultMoveDuration   = 3.0
	maxMoveDuration       = 300.0
)

func (c *Controller) registerCameraOps() {
	c.registerQueued("camera_status", nil, c.tickCameraStatus)
	c.registerQueued("camera_set_position", c.validateSetPosition, c.tickSetPosition)
	c.registerQueued("camera_frame_object", c.validateFrameObject, c.tickFrameObject)
	c.registerQueued("camera_orbit", c.validateOrbit, c.tickOrbit)
	c.registerQueued("camera_smooth_move", c.validateSmoothMove, c.tickSmoothMove)
	c.registerQueued("camera_stop_movement", nil, c.tickStopMovement)
	c.registerQueued("camera_movement_status", nil, c.tickMovementStatus)
	c.registerQueued("get_asset_transform", c.validateAssetTransform, c.tickAssetTransform)
}

func (c *Controller) tickCameraStatus(_ context.Context, _ map[string]any) envelope.Envelope {
	state := c.Host.CameraStatus()
	return envelope.OK(map[string]any{
		"position": state.Position,
		"target":   state.Target,
		"moving":   state.Moving,
	})
}

func (c *Controller) validateSetPosition(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "position"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{"position": b.Vector3("position", p["position"])}
	if has(p, "target") {
		out["target"] = b.Vector3("target", p["target"])
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return out, nil
}

func (c *Controller) tickSetPosition(_ context.Context, p map[string]any) envelope.Envelope {
	c.Host.SetCameraPosition(floats(p, "position"), floats(p, "target"))
	state := c.Host.CameraStatus()
	return envelope.OK(map[string]any{"position": state.Position, "target": state.Target})
}

func (c *Controller) validateFrameObject(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "path"); env != nil {
		return nil, env
	}
	path, err := validate.ScenePath("path", p["path"])
	if err != nil {
		return nil, invalidParam(err)
	}
	out := map[string]any{"path": path}
	if has(p, "distance") {
		b := validate.NewBatch()
		out["distance"] = b.Number("distance", p["distance"], ptr(0.01), ptr(10000.0))
		if env := batchEnvelope(b); env != nil {
			return nil, env
		}
	}
	return out, nil
}

func (c *Controller) tickFrameObject(_ context.Context, p map[string]any) envelope.Envelope {
	distance, _ := p["distance"].(float64)
	if err := c.Host.FrameObject(str(p, "path"), distance); err != nil {
		return sceneError("frame_object", err)
	}
	state := c.Host.CameraStatus()
	return envelope.OK(map[string]any{
		"path":     str(p, "path"),
		"position": state.Position,
		"target":   state.Target,
	})
}

func (c *Controller) validateOrbit(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "center", "distance"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{
		"center":   b.Vector3("center", p["center"]),
		"distance": b.Number("distance", p["distance"], ptr(0.01), ptr(10000.0)),
	}
	if has(p, "elevation") {
		out["elevation"] = b.Number("elevation", p["elevation"], ptr(-90.0), ptr(90.0))
	}
	if has(p, "azimuth") {
		out["azimuth"] = b.Number("azimuth", p["azimuth"], ptr(-360.0), ptr(360.0))
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return out, nil
}

func (c *Controller) tickOrbit(_ context.Context, p map[string]any) envelope.Envelope {
	distance, _ := p["distance"].(float64)
	elevation, ok := p["elevation"].(float64)
	if !ok {
		elevation = defaultOrbitElevation
	}
	azimuth, _ := p["azimuth"].(float64)
	c.Host.OrbitCamera(floats(p, "center"), distance, elevation, azimuth)
	state := c.Host.CameraStatus()
	return envelope.OK(map[string]any{
		"position":  state.Position,
		"target":    state.Target,
		"distance":  distance,
		"elevation": elevation,
		"azimuth":   azimuth,
	})
}

func (c *Controller) validateSmoothMove(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "start_position", "end_position"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{
		"start_position": b.Vector3("start_position", p["start_position"]),
		"end_position":   b.Vector3("end_position", p["end_position"]),
	}
	for _, opt := range []string{"start_target", "end_target"} {
		if has(p, opt) {
			out[opt] = b.Vector3(opt, p[opt])
		}
	}
	if has(p, "duration") {
		out["duration"] = b.Number("duration", p["duration"], ptr(0.01), ptr(maxMoveDuration))
	}
	if has(p, "easing") {
		out["easing"] = b.Enum("easing", p["easing"], Easings)
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return out, nil
}

func (c *Controller) tickSmoothMove(_ context.Context, p map[string]any) envelope.Envelope {
	duration, ok := p["duration"].(float64)
	if !ok {
		duration = defaultMoveDuration
	}
	easing := str(p, "easing")
	if easing == "" {
		easing = "linear"
	}
	spec := scene.MoveSpec{
		StartPosition: floats(p, "start_position"),
		EndPosition:   floats(p, "end_position"),
		StartTarget:   floats(p, "start_target"),
		EndTarget:     floats(p, "end_target"),
		DurationSec:   duration,
		Easing:        easing,
	}
	if err := c.Host.StartSmoothMove(spec); err != nil {
		return sceneError("smooth_move", err)
	}
	return envelope.OK(map[string]any{
		"duration": duration,
		"easing":   easing,
		"started":  true,
	})
}

func (c *Controller) tickStopMovement(_ context.Context, _ map[string]any) envelope.Envelope {
	stopped := c.Host.StopMovement()
	return envelope.OK(map[string]any{"stopped": stopped})
}

func (c *Controller) tickMovementStatus(_ context.Context, _ map[string]any) envelope.Envelope {
	status := c.Host.MovementStatus()
	return envelope.OK(map[string]any{
		"active":   status.Active,
		"progress": status.Progress,
		"easing":   status.Easing,
	})
}

func (c *Controller) validateAssetTransform(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "usd_path"); env != nil {
		return nil, env
	}
	path, err := validate.ScenePath("usd_path", p["usd_path"])
	if err != nil {
		return nil, invalidParam(err)
	}
	return map[string]any{"usd_path": path}, nil
}

func (c *Controller) tickAssetTransform(_ context.Context, p map[string]any) envelope.Envelope {
	obj, err := c.Host.GetObject(str(p, "usd_path"))
	if err != nil {
		return sceneError("get_asset_transform", err)
	}
	return envelope.OK(map[string]any{
		"path":     obj.Path,
		"position": obj.Position,
		"rotation": obj.Rotation,
		"scale":    obj.Scale,
	})
}
