// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/simwire/omnigate/internal/assets"
	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/scene"
	"github.com/simwire/omnigate/internal/validate"
)

// ElementTypes are the primitive kinds add_element accepts.
var ElementTypes = []string{"cube", "sphere", "cylinder", "cone", "plane", "torus", "disk"}

// maxBatchElements bounds one create_batch request.
const maxBatchElements = 50

func (c *Controller) registerSceneOps() {
	c.registerQueued("add_element", c.validateAddElement, c.tickAddElement)
	c.registerQueued("create_batch", c.validateCreateBatch, c.tickCreateBatch)
	c.registerQueued("place_asset", c.validatePlaceAsset, c.tickPlaceAsset)
	c.registerQueued("transform_asset", c.validateTransform, c.tickTransformAsset)
	c.registerQueued("remove_element", c.validatePathOnly("element_path"), c.tickRemoveElement)
	c.registerQueued("clear_path", c.validatePathOnly("path"), c.tickClearPath)
	c.registerQueued("get_scene", nil, c.tickGetScene)
	c.registerQueued("list_elements", c.validateListElements, c.tickListElements)
	c.registerQueued("batch_info", c.validateBatchInfo, c.tickBatchInfo)
	c.registerQueued("query_objects_by_type", c.validateQueryByType, c.tickObjectsByType)
	c.registerQueued("query_objects_in_bounds", c.validateQueryInBounds, c.tickObjectsInBounds)
	c.registerQueued("query_objects_near_point", c.validateQueryNearPoint, c.tickObjectsNearPoint)
	c.registerQueued("transform_calculate_bounds", c.validatePaths, c.tickCalculateBounds)
	c.registerQueued("transform_find_ground_level", c.validateFindGround, c.tickFindGroundLevel)
	c.registerQueued("transform_align_objects", c.validateAlign, c.tickAlignObjects)
	c.registerInline("scene_status", nil, c.sceneStatus)
}

var nameOpts = validate.StringOpts{MinLen: 1, MaxLen: 128, Pattern: validate.PatternAlnumUnderscore}

func (c *Controller) validateAddElement(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "element_type", "name", "position"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{
		"element_type": b.Enum("element_type", p["element_type"], ElementTypes),
		"name":         b.String("name", p["name"], nameOpts),
		"position":     b.Vector3("position", p["position"]),
	}
	for _, opt := range []string{"rotation", "scale"} {
		if has(p, opt) {
			out[opt] = b.Vector3(opt, p[opt])
		}
	}
	if has(p, "color") {
		color, err := validate.Color("color", p["color"])
		if err != nil {
			return nil, invalidParam(err)
		}
		out["color"] = color
	}
	if has(p, "parent_path") {
		parent, err := validate.ScenePath("parent_path", p["parent_path"])
		if err != nil {
			return nil, invalidParam(err)
		}
		out["parent_path"] = parent
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return out, nil
}

func (c *Controller) tickAddElement(_ context.Context, p map[string]any) envelope.Envelope {
	path, err := c.Host.AddElement(
		str(p, "element_type"), str(p, "name"),
		floats(p, "position"), floats(p, "rotation"), floats(p, "scale"), floats(p, "color"),
		str(p, "parent_path"),
	)
	if err != nil {
		return sceneError("add_element", err)
	}
	return envelope.OK(map[string]any{"path": path, "element_type": str(p, "element_type")})
}

func (c *Controller) validateCreateBatch(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "batch_name", "elements"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{"batch_name": b.String("batch_name", p["batch_name"], nameOpts)}

	raw, ok := p["elements"].([]any)
	if !ok {
		return nil, invalidParam(&validate.Error{Field: "elements", Value: p["elements"], Message: "must be an array of element objects"})
	}
	if len(raw) == 0 || len(raw) > maxBatchElements {
		return nil, invalidParam(&validate.Error{Field: "elements", Value: len(raw),
			Message: fmt.Sprintf("must contain between 1 and %d elements", maxBatchElements)})
	}
	specs := make([]scene.ElementSpec, 0, len(raw))
	for i, el := range raw {
		m, ok := el.(map[string]any)
		if !ok {
			return nil, invalidParam(&validate.Error{Field: fmt.Sprintf("elements[%d]", i), Value: el, Message: "must be an object"})
		}
		field := func(name string) string { return fmt.Sprintf("elements[%d].%s", i, name) }
		if env := require(m, "element_type", "name", "position"); env != nil {
			return nil, env
		}
		spec := scene.ElementSpec{
			Type:     b.Enum(field("element_type"), m["element_type"], ElementTypes),
			Name:     b.String(field("name"), m["name"], nameOpts),
			Position: b.Vector3(field("position"), m["position"]),
		}
		if has(m, "rotation") {
			spec.Rotation = b.Vector3(field("rotation"), m["rotation"])
		}
		if has(m, "scale") {
			spec.Scale = b.Vector3(field("scale"), m["scale"])
		}
		if has(m, "color") {
			color, err := validate.Color(field("color"), m["color"])
			if err != nil {
				return nil, invalidParam(err)
			}
			spec.Color = color
		}
		specs = append(specs, spec)
	}
	if has(p, "parent_path") {
		parent, err := validate.ScenePath("parent_path", p["parent_path"])
		if err != nil {
			return nil, invalidParam(err)
		}
		out["parent_path"] = parent
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	out["specs"] = specs
	return out, nil
}

func (c *Controller) tickCreateBatch(_ context.Context, p map[string]any) envelope.Envelope {
	specs, _ := p["specs"].([]scene.ElementSpec)
	paths, err := c.Host.CreateBatch(str(p, "batch_name"), specs, str(p, "parent_path"))
	if err != nil {
		return sceneError("create_batch", err)
	}
	return envelope.OK(map[string]any{
		"batch_name": str(p, "batch_name"),
		"paths":      paths,
		"count":      len(paths),
	})
}

func (c *Controller) validatePlaceAsset(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "name", "asset_path"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{"name": b.String("name", p["name"], nameOpts)}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}

	resolved, err := c.Guard.Resolve(str(p, "asset_path"))
	if err != nil {
		return nil, guardEnvelope(err)
	}
	out["asset_path"] = resolved

	if has(p, "prim_path") {
		prim, verr := validate.ScenePath("prim_path", p["prim_path"])
		if verr != nil {
			return nil, invalidParam(verr)
		}
		out["prim_path"] = prim
	}
	tf, env := transformOf(p)
	if env != nil {
		return nil, env
	}
	out["transform"] = tf
	return out, nil
}

func (c *Controller) tickPlaceAsset(_ context.Context, p map[string]any) envelope.Envelope {
	tf, _ := p["transform"].(scene.Transform)
	path, err := c.Host.PlaceAsset(str(p, "name"), str(p, "asset_path"), str(p, "prim_path"), tf)
	if err != nil {
		return sceneError("place_asset", err)
	}
	return envelope.OK(map[string]any{"path": path, "asset_path": str(p, "asset_path")})
}

func (c *Controller) validateTransform(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "prim_path"); env != nil {
		return nil, env
	}
	path, err := validate.ScenePath("prim_path", p["prim_path"])
	if err != nil {
		return nil, invalidParam(err)
	}
	tf, env := transformOf(p)
	if env != nil {
		return nil, env
	}
	if tf.Position == nil && tf.Rotation == nil && tf.Scale == nil {
		return nil, missingParam("position")
	}
	return map[string]any{"prim_path": path, "transform": tf}, nil
}

func (c *Controller) tickTransformAsset(_ context.Context, p map[string]any) envelope.Envelope {
	tf, _ := p["transform"].(scene.Transform)
	if err := c.Host.TransformObject(str(p, "prim_path"), tf); err != nil {
		return sceneError("transform_asset", err)
	}
	return envelope.OK(map[string]any{"path": str(p, "prim_path")})
}

// validatePathOnly builds a validator for operations taking a single
// scene path argument.
func (c *Controller) validatePathOnly(field string) validator {
	return func(p map[string]any) (map[string]any, envelope.Envelope) {
		if env := require(p, field); env != nil {
			return nil, env
		}
		path, err := validate.ScenePath(field, p[field])
		if err != nil {
			return nil, invalidParam(err)
		}
		return map[string]any{field: path}, nil
	}
}

func (c *Controller) tickRemoveElement(_ context.Context, p map[string]any) envelope.Envelope {
	path := str(p, "element_path")
	if err := c.Host.RemoveObject(path); err != nil {
		return sceneError("remove_element", err)
	}
	return envelope.OK(map[string]any{"path": path, "removed": true})
}

func (c *Controller) tickClearPath(_ context.Context, p map[string]any) envelope.Envelope {
	path := str(p, "path")
	n := c.Host.ClearPath(path)
	return envelope.OK(map[string]any{"path": path, "removed_count": n})
}

func (c *Controller) tickGetScene(_ context.Context, _ map[string]any) envelope.Envelope {
	objects := c.Host.ListObjects(scene.DefaultRoot)
	return envelope.OK(map[string]any{
		"root":    scene.DefaultRoot,
		"objects": objects,
		"count":   len(objects),
	})
}

func (c *Controller) validateListElements(p map[string]any) (map[string]any, envelope.Envelope) {
	out := map[string]any{}
	if has(p, "root") {
		root, err := validate.ScenePath("root", p["root"])
		if err != nil {
			return nil, invalidParam(err)
		}
		out["root"] = root
	}
	return out, nil
}

func (c *Controller) tickListElements(_ context.Context, p map[string]any) envelope.Envelope {
	root := str(p, "root")
	if root == "" {
		root = scene.DefaultRoot
	}
	objects := c.Host.ListObjects(root)
	return envelope.OK(map[string]any{"root": root, "elements": objects, "count": len(objects)})
}

func (c *Controller) validateBatchInfo(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "batch_name"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{"batch_name": b.String("batch_name", p["batch_name"], nameOpts)}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return out, nil
}

func (c *Controller) tickBatchInfo(_ context.Context, p map[string]any) envelope.Envelope {
	name := str(p, "batch_name")
	objects := c.Host.BatchObjects(name)
	if len(objects) == 0 {
		return envelope.ErrorWithDetails(envelope.CodeNotFound,
			"Unknown batch: "+name, map[string]any{"batch_name": name})
	}
	return envelope.OK(map[string]any{"batch_name": name, "elements": objects, "count": len(objects)})
}

func (c *Controller) validateQueryByType(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "element_type"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{"element_type": b.Enum("element_type", p["element_type"], append(ElementTypes, "asset", "camera_marker"))}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return out, nil
}

func (c *Controller) tickObjectsByType(_ context.Context, p map[string]any) envelope.Envelope {
	objects := c.Host.ObjectsByType(str(p, "element_type"))
	return envelope.OK(map[string]any{"objects": objects, "count": len(objects)})
}

func (c *Controller) validateQueryInBounds(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "min", "max"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{
		"min": b.Vector3("min", p["min"]),
		"max": b.Vector3("max", p["max"]),
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	mn, mx := out["min"].([]float64), out["max"].([]float64)
	for i := 0; i < 3; i++ {
		if mn[i] > mx[i] {
			return nil, invalidParam(&validate.Error{Field: "min", Value: mn, Message: "must be <= max on every axis"})
		}
	}
	return out, nil
}

func (c *Controller) tickObjectsInBounds(_ context.Context, p map[string]any) envelope.Envelope {
	objects := c.Host.ObjectsInBounds(floats(p, "min"), floats(p, "max"))
	return envelope.OK(map[string]any{"objects": objects, "count": len(objects)})
}

func (c *Controller) validateQueryNearPoint(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "point", "radius"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{
		"point":  b.Vector3("point", p["point"]),
		"radius": b.Number("radius", p["radius"], ptr(0.0), ptr(10000.0)),
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return out, nil
}

func (c *Controller) tickObjectsNearPoint(_ context.Context, p map[string]any) envelope.Envelope {
	radius, _ := p["radius"].(float64)
	objects := c.Host.ObjectsNearPoint(floats(p, "point"), radius)
	return envelope.OK(map[string]any{"objects": objects, "count": len(objects)})
}

func (c *Controller) validatePaths(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "paths"); env != nil {
		return nil, env
	}
	paths, env := stringsOf(p, "paths")
	if env != nil {
		return nil, env
	}
	if len(paths) == 0 {
		return nil, invalidParam(&validate.Error{Field: "paths", Value: paths, Message: "must not be empty"})
	}
	for _, path := range paths {
		if _, err := validate.ScenePath("paths", path); err != nil {
			return nil, invalidParam(err)
		}
	}
	return map[string]any{"paths": paths}, nil
}

func (c *Controller) tickCalculateBounds(_ context.Context, p map[string]any) envelope.Envelope {
	paths, _ := p["paths"].([]string)
	bounds, err := c.Host.CalculateBounds(paths)
	if err != nil {
		return sceneError("calculate_bounds", err)
	}
	return envelope.OK(map[string]any{"bounds": bounds, "paths": paths})
}

func (c *Controller) validateFindGround(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "position"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{"position": b.Vector3("position", p["position"])}
	if has(p, "search_radius") {
		out["search_radius"] = b.Number("search_radius", p["search_radius"], ptr(0.0), ptr(1000.0))
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return out, nil
}

func (c *Controller) tickFindGroundLevel(_ context.Context, p map[string]any) envelope.Envelope {
	radius, ok := p["search_radius"].(float64)
	if !ok {
		radius = 10
	}
	level := c.Host.FindGroundLevel(floats(p, "position"), radius)
	return envelope.OK(map[string]any{"ground_level": level, "position": floats(p, "position")})
}

var (
	alignAxes  = []string{"x", "y", "z"}
	alignModes = []string{"min", "center", "max"}
)

func (c *Controller) validateAlign(p map[string]any) (map[string]any, envelope.Envelope) {
	cleaned, env := c.validatePaths(p)
	if env != nil {
		return nil, env
	}
	if e := require(p, "axis", "alignment"); e != nil {
		return nil, e
	}
	b := validate.NewBatch()
	cleaned["axis"] = b.Enum("axis", p["axis"], alignAxes)
	cleaned["alignment"] = b.Enum("alignment", p["alignment"], alignModes)
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return cleaned, nil
}

func (c *Controller) tickAlignObjects(_ context.Context, p map[string]any) envelope.Envelope {
	paths, _ := p["paths"].([]string)
	if err := c.Host.AlignObjects(paths, str(p, "axis"), str(p, "alignment")); err != nil {
		return sceneError("align_objects", err)
	}
	return envelope.OK(map[string]any{"paths": paths, "axis": str(p, "axis"), "alignment": str(p, "alignment")})
}

// sceneStatus is the inline health-style summary of the scene service.
func (c *Controller) sceneStatus(_ context.Context, _ map[string]any) envelope.Envelope {
	snap := c.Metrics.Snapshot()
	return envelope.OK(map[string]any{
		"service":        c.service,
		"uptime_seconds": snap.UptimeSeconds,
		"queue_depth":    c.Queue.Depth(),
		"tracked":        c.Tracker.Len(),
		"requests":       snap.Requests,
		"errors":         snap.Errors,
	})
}

// transformOf extracts the optional position/rotation/scale triple.
func transformOf(p map[string]any) (scene.Transform, envelope.Envelope) {
	var tf scene.Transform
	b := validate.NewBatch()
	if has(p, "position") {
		tf.Position = b.Vector3("position", p["position"])
	}
	if has(p, "rotation") {
		tf.Rotation = b.Vector3("rotation", p["rotation"])
	}
	if has(p, "scale") {
		s, err := validate.Scale("scale", p["scale"])
		if err != nil {
			return tf, invalidParam(err)
		}
		tf.Scale = s
	}
	if env := batchEnvelope(b); env != nil {
		return tf, env
	}
	return tf, nil
}

// sceneError maps host sentinels onto wire codes.
func sceneError(op string, err error) envelope.Envelope {
	switch {
	case errors.Is(err, scene.ErrNotFound):
		return envelope.Error(envelope.CodeNotFound, err.Error())
	case errors.Is(err, scene.ErrExists), errors.Is(err, scene.ErrBadParent):
		return envelope.Error(envelope.CodeInvalidParameter, err.Error())
	default:
		return envelope.Error(envelope.OperationFailed(op), err.Error())
	}
}

// guardEnvelope maps asset guard rejections onto wire codes.
// Escape attempts surface as PATH_TRAVERSAL; everything else is a
// plain validation failure.
func guardEnvelope(err error) envelope.Envelope {
	var ge *assets.GuardError
	if errors.As(err, &ge) {
		switch ge.Reason {
		case assets.ReasonTraversal, assets.ReasonOutsideRoot, assets.ReasonAbsolute:
			return envelope.ErrorWithDetails(envelope.CodePathTraversal, ge.Error(),
				map[string]any{"parameter": "asset_path"})
		case assets.ReasonNotFound:
			return envelope.ErrorWithDetails(envelope.CodeNotFound, ge.Error(),
				map[string]any{"parameter": "asset_path"})
		}
	}
	return envelope.ErrorWithDetails(envelope.CodeValidationError, err.Error(),
		map[string]any{"parameter": "asset_path"})
}
