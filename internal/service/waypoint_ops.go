// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"

	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/validate"
	"github.com/simwire/omnigate/internal/waypoint"
)

// WaypointTypes accepted by waypoint_create.
var WaypointTypes = []string{
	"camera_position", "point_of_interest", "object_anchor",
	"selection_mark", "lighting_position", "audio_source", "spawn_point",
}

var (
	wpNameOpts  = validate.StringOpts{MinLen: 1, MaxLen: 128, Reject: validate.ClassXSS}
	wpDescOpts  = validate.StringOpts{MaxLen: 512, Reject: validate.ClassXSS}
	idOpts      = validate.StringOpts{MinLen: 1, MaxLen: 64, Pattern: validate.PatternUUID4}
	bundleFiles = validate.FileOpts{Extensions: []string{".json"}}
)

func (c *Controller) registerWaypointOps() {
	c.registerInline("waypoint_create", c.validateWaypointCreate, c.waypointCreate)
	c.registerInline("waypoint_list", c.validateWaypointList, c.waypointList)
	c.registerInline("waypoint_update", c.validateWaypointUpdate, c.waypointUpdate)
	c.registerInline("waypoint_remove", c.validateWaypointRemove, c.waypointRemove)
	c.registerInline("waypoint_clear", nil, c.waypointClear)
	c.registerInline("waypoint_export", c.validateWaypointExport, c.waypointExport)
	c.registerInline("waypoint_import", c.validateWaypointImport, c.waypointImport)
	c.registerQueued("waypoint_goto", c.validateWaypointGoto, c.tickWaypointGoto)

	c.registerInline("group_create", c.validateGroupCreate, c.groupCreate)
	c.registerInline("group_list", c.validateGroupList, c.groupList)
	c.registerInline("group_get", c.validateGroupID, c.groupGet)
	c.registerInline("group_remove", c.validateGroupRemove, c.groupRemove)
	c.registerInline("group_hierarchy", nil, c.groupHierarchy)
	c.registerInline("group_add_waypoint", c.validateMembership, c.groupAddWaypoint)
	c.registerInline("group_remove_waypoint", c.validateMembership, c.groupRemoveWaypoint)
	c.registerInline("groups_of_waypoint", c.validateWaypointID, c.groupsOfWaypoint)
	c.registerInline("group_waypoints", c.validateGroupWaypoints, c.groupWaypoints)
}

func (c *Controller) validateWaypointCreate(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "position"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{"position": b.Vector3("position", p["position"])}
	if has(p, "waypoint_type") {
		out["waypoint_type"] = b.Enum("waypoint_type", p["waypoint_type"], WaypointTypes)
	}
	if has(p, "name") {
		out["name"] = b.String("name", p["name"], wpNameOpts)
	}
	if has(p, "target") {
		out["target"] = b.Vector3("target", p["target"])
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	if has(p, "metadata") {
		meta, err := validate.JSON("metadata", p["metadata"])
		if err != nil {
			return nil, invalidParam(err)
		}
		out["metadata"] = meta
	}
	if has(p, "group_ids") {
		ids, env := stringsOf(p, "group_ids")
		if env != nil {
			return nil, env
		}
		out["group_ids"] = ids
	}
	return out, nil
}

func (c *Controller) waypointCreate(_ context.Context, p map[string]any) envelope.Envelope {
	meta, _ := p["metadata"].(map[string]any)
	groupIDs, _ := p["group_ids"].([]string)
	wp, err := c.Store.CreateWaypoint(waypoint.Waypoint{
		Name:     str(p, "name"),
		Type:     str(p, "waypoint_type"),
		Position: floats(p, "position"),
		Target:   floats(p, "target"),
		Metadata: meta,
		GroupIDs: groupIDs,
	})
	if err != nil {
		return storeError("waypoint_create", err)
	}
	return envelope.OK(map[string]any{"waypoint": wp})
}

func (c *Controller) validateWaypointList(p map[string]any) (map[string]any, envelope.Envelope) {
	out := map[string]any{}
	b := validate.NewBatch()
	if has(p, "waypoint_type") {
		out["waypoint_type"] = b.Enum("waypoint_type", p["waypoint_type"], WaypointTypes)
	}
	if has(p, "group_id") {
		out["group_id"] = b.String("group_id", p["group_id"], idOpts)
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return out, nil
}

func (c *Controller) waypointList(_ context.Context, p map[string]any) envelope.Envelope {
	wps, err := c.Store.ListWaypoints(str(p, "waypoint_type"), str(p, "group_id"))
	if err != nil {
		return storeError("waypoint_list", err)
	}
	return envelope.OK(map[string]any{"waypoints": wps, "count": len(wps)})
}

func (c *Controller) validateWaypointUpdate(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "waypoint_id"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{"waypoint_id": b.String("waypoint_id", p["waypoint_id"], idOpts)}
	if has(p, "name") {
		out["name"] = b.String("name", p["name"], wpNameOpts)
	}
	if has(p, "position") {
		out["position"] = b.Vector3("position", p["position"])
	}
	if has(p, "target") {
		out["target"] = b.Vector3("target", p["target"])
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	if has(p, "metadata") {
		meta, err := validate.JSON("metadata", p["metadata"])
		if err != nil {
			return nil, invalidParam(err)
		}
		out["metadata"] = meta
	}
	return out, nil
}

func (c *Controller) waypointUpdate(_ context.Context, p map[string]any) envelope.Envelope {
	var upd waypoint.Update
	if has(p, "name") {
		upd.Name = ptr(str(p, "name"))
	}
	if has(p, "position") {
		upd.Position = floats(p, "position")
	}
	if has(p, "target") {
		upd.Target = floats(p, "target")
	}
	if meta, ok := p["metadata"].(map[string]any); ok {
		upd.Metadata = meta
	}
	wp, err := c.Store.UpdateWaypoint(str(p, "waypoint_id"), upd)
	if err != nil {
		return storeError("waypoint_update", err)
	}
	return envelope.OK(map[string]any{"waypoint": wp})
}

func (c *Controller) validateWaypointRemove(p map[string]any) (map[string]any, envelope.Envelope) {
	out := map[string]any{}
	if has(p, "waypoint_id") {
		b := validate.NewBatch()
		out["waypoint_id"] = b.String("waypoint_id", p["waypoint_id"], idOpts)
		if env := batchEnvelope(b); env != nil {
			return nil, env
		}
		return out, nil
	}
	if has(p, "waypoint_ids") {
		ids, env := stringsOf(p, "waypoint_ids")
		if env != nil {
			return nil, env
		}
		if len(ids) == 0 {
			return nil, invalidParam(&validate.Error{Field: "waypoint_ids", Value: ids, Message: "must not be empty"})
		}
		out["waypoint_ids"] = ids
		return out, nil
	}
	return nil, missingParam("waypoint_id")
}

func (c *Controller) waypointRemove(_ context.Context, p map[string]any) envelope.Envelope {
	if id := str(p, "waypoint_id"); id != "" {
		if err := c.Store.RemoveWaypoint(id); err != nil {
			return storeError("waypoint_remove", err)
		}
		return envelope.OK(map[string]any{"removed": 1})
	}
	ids, _ := p["waypoint_ids"].([]string)
	removed, missing, err := c.Store.RemoveWaypoints(ids)
	if err != nil {
		return storeError("waypoint_remove", err)
	}
	result := map[string]any{"removed": removed}
	if len(missing) > 0 {
		result["missing"] = missing
	}
	return envelope.OK(result)
}

func (c *Controller) waypointClear(_ context.Context, _ map[string]any) envelope.Envelope {
	n, err := c.Store.ClearWaypoints()
	if err != nil {
		return storeError("waypoint_clear", err)
	}
	return envelope.OK(map[string]any{"removed": n})
}

func (c *Controller) validateWaypointExport(p map[string]any) (map[string]any, envelope.Envelope) {
	out := map[string]any{}
	if has(p, "file_path") {
		path, err := validate.FilePath("file_path", p["file_path"], bundleFiles)
		if err != nil {
			return nil, invalidParam(err)
		}
		out["file_path"] = path
	}
	if has(p, "include_groups") {
		v, err := validate.Bool("include_groups", p["include_groups"])
		if err != nil {
			return nil, invalidParam(err)
		}
		out["include_groups"] = v
	}
	return out, nil
}

func (c *Controller) waypointExport(_ context.Context, p map[string]any) envelope.Envelope {
	includeGroups := boolOr(p, "include_groups", true)
	bundle := c.Store.Export(includeGroups)
	if path := str(p, "file_path"); path != "" {
		if err := waypoint.WriteBundleFile(path, bundle); err != nil {
			return envelope.Error(envelope.OperationFailed("waypoint_export"), err.Error())
		}
		return envelope.OK(map[string]any{
			"file_path": path,
			"waypoints": len(bundle.Waypoints),
			"groups":    len(bundle.Groups),
		})
	}
	return envelope.OK(map[string]any{"bundle": bundle})
}

func (c *Controller) validateWaypointImport(p map[string]any) (map[string]any, envelope.Envelope) {
	out := map[string]any{}
	if has(p, "merge_mode") {
		b := validate.NewBatch()
		out["merge_mode"] = b.Enum("merge_mode", p["merge_mode"], []string{waypoint.MergeModeMerge, waypoint.MergeModeReplace})
		if env := batchEnvelope(b); env != nil {
			return nil, env
		}
	}
	switch {
	case has(p, "bundle"):
		raw, err := validate.JSON("bundle", p["bundle"])
		if err != nil {
			return nil, invalidParam(err)
		}
		out["bundle"] = raw
	case has(p, "file_path"):
		path, err := validate.FilePath("file_path", p["file_path"], bundleFiles)
		if err != nil {
			return nil, invalidParam(err)
		}
		out["file_path"] = path
	default:
		return nil, missingParam("bundle")
	}
	return out, nil
}

func (c *Controller) waypointImport(_ context.Context, p map[string]any) envelope.Envelope {
	mode := str(p, "merge_mode")
	if mode == "" {
		mode = waypoint.MergeModeMerge
	}

	var bundle *waypoint.Bundle
	if path := str(p, "file_path"); path != "" {
		loaded, err := waypoint.ReadBundleFile(path)
		if err != nil {
			return envelope.Error(envelope.OperationFailed("waypoint_import"), err.Error())
		}
		bundle = loaded
	} else {
		raw, _ := p["bundle"].(map[string]any)
		decoded, err := waypoint.DecodeBundle(raw)
		if err != nil {
			return envelope.ErrorWithDetails(envelope.CodeValidationError, err.Error(),
				map[string]any{"parameter": "bundle"})
		}
		bundle = decoded
	}

	stats, err := c.Store.Import(bundle, mode)
	if err != nil {
		return envelope.ErrorWithDetails(envelope.CodeValidationError, err.Error(),
			map[string]any{"parameter": "bundle"})
	}
	return envelope.OK(map[string]any{
		"waypoints_added": stats.WaypointsAdded,
		"groups_added":    stats.GroupsAdded,
		"removed":         stats.Removed,
		"merge_mode":      mode,
	})
}

// validateWaypointGoto resolves the waypoint on the HTTP worker so the
// tick handler only moves the camera.
func (c *Controller) validateWaypointGoto(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "waypoint_id"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	id := b.String("waypoint_id", p["waypoint_id"], idOpts)
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	wp, err := c.Store.GetWaypoint(id)
	if err != nil {
		return nil, storeError("waypoint_goto", err)
	}
	out := map[string]any{"waypoint_id": wp.ID, "position": wp.Position}
	if wp.Target != nil {
		out["target"] = wp.Target
	}
	return out, nil
}

func (c *Controller) tickWaypointGoto(_ context.Context, p map[string]any) envelope.Envelope {
	c.Host.SetCameraPosition(floats(p, "position"), floats(p, "target"))
	state := c.Host.CameraStatus()
	return envelope.OK(map[string]any{
		"waypoint_id": str(p, "waypoint_id"),
		"position":    state.Position,
		"target":      state.Target,
	})
}

func (c *Controller) validateGroupCreate(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "name"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{"name": b.String("name", p["name"], wpNameOpts)}
	if has(p, "parent_group_id") {
		out["parent_group_id"] = b.String("parent_group_id", p["parent_group_id"], idOpts)
	}
	if has(p, "description") {
		out["description"] = b.String("description", p["description"], wpDescOpts)
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	if has(p, "color") {
		color, err := validate.Color("color", p["color"])
		if err != nil {
			return nil, invalidParam(err)
		}
		out["color"] = color
	}
	return out, nil
}

func (c *Controller) groupCreate(_ context.Context, p map[string]any) envelope.Envelope {
	g, err := c.Store.CreateGroup(waypoint.Group{
		Name:          str(p, "name"),
		ParentGroupID: str(p, "parent_group_id"),
		Description:   str(p, "description"),
		Color:         floats(p, "color"),
	})
	if err != nil {
		return storeError("group_create", err)
	}
	return envelope.OK(map[string]any{"group": g})
}

func (c *Controller) validateGroupList(p map[string]any) (map[string]any, envelope.Envelope) {
	out := map[string]any{}
	if has(p, "parent_group_id") {
		b := validate.NewBatch()
		out["parent_group_id"] = b.String("parent_group_id", p["parent_group_id"], idOpts)
		if env := batchEnvelope(b); env != nil {
			return nil, env
		}
	}
	return out, nil
}

func (c *Controller) groupList(_ context.Context, p map[string]any) envelope.Envelope {
	var parent *string
	if has(p, "parent_group_id") {
		parent = ptr(str(p, "parent_group_id"))
	}
	groups, err := c.Store.ListGroups(parent)
	if err != nil {
		return storeError("group_list", err)
	}
	return envelope.OK(map[string]any{"groups": groups, "count": len(groups)})
}

func (c *Controller) validateGroupID(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "group_id"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{"group_id": b.String("group_id", p["group_id"], idOpts)}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return out, nil
}

func (c *Controller) groupGet(_ context.Context, p map[string]any) envelope.Envelope {
	g, err := c.Store.GetGroup(str(p, "group_id"))
	if err != nil {
		return storeError("group_get", err)
	}
	return envelope.OK(map[string]any{"group": g})
}

func (c *Controller) validateGroupRemove(p map[string]any) (map[string]any, envelope.Envelope) {
	out, env := c.validateGroupID(p)
	if env != nil {
		return nil, env
	}
	if has(p, "cascade") {
		v, err := validate.Bool("cascade", p["cascade"])
		if err != nil {
			return nil, invalidParam(err)
		}
		out["cascade"] = v
	}
	return out, nil
}

func (c *Controller) groupRemove(_ context.Context, p map[string]any) envelope.Envelope {
	removed, err := c.Store.RemoveGroup(str(p, "group_id"), boolOr(p, "cascade", false))
	if err != nil {
		return storeError("group_remove", err)
	}
	return envelope.OK(map[string]any{"removed": removed})
}

func (c *Controller) groupHierarchy(_ context.Context, _ map[string]any) envelope.Envelope {
	return envelope.OK(map[string]any{
		"hierarchy":       c.Store.Hierarchy(),
		"total_groups":    c.Store.GroupCount(),
		"total_waypoints": c.Store.Count(),
	})
}

func (c *Controller) validateMembership(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "waypoint_id", "group_ids"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{"waypoint_id": b.String("waypoint_id", p["waypoint_id"], idOpts)}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	ids, env := stringsOf(p, "group_ids")
	if env != nil {
		return nil, env
	}
	if len(ids) == 0 {
		return nil, invalidParam(&validate.Error{Field: "group_ids", Value: ids, Message: "must not be empty"})
	}
	out["group_ids"] = ids
	return out, nil
}

func (c *Controller) groupAddWaypoint(_ context.Context, p map[string]any) envelope.Envelope {
	ids, _ := p["group_ids"].([]string)
	wp, err := c.Store.AddWaypointToGroups(str(p, "waypoint_id"), ids)
	if err != nil {
		return storeError("group_add_waypoint", err)
	}
	return envelope.OK(map[string]any{"waypoint": wp})
}

func (c *Controller) groupRemoveWaypoint(_ context.Context, p map[string]any) envelope.Envelope {
	ids, _ := p["group_ids"].([]string)
	wp, err := c.Store.RemoveWaypointFromGroups(str(p, "waypoint_id"), ids)
	if err != nil {
		return storeError("group_remove_waypoint", err)
	}
	return envelope.OK(map[string]any{"waypoint": wp})
}

func (c *Controller) validateWaypointID(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "waypoint_id"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{"waypoint_id": b.String("waypoint_id", p["waypoint_id"], idOpts)}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return out, nil
}

func (c *Controller) groupsOfWaypoint(_ context.Context, p map[string]any) envelope.Envelope {
	groups, err := c.Store.GetWaypointGroups(str(p, "waypoint_id"))
	if err != nil {
		return storeError("groups_of_waypoint", err)
	}
	return envelope.OK(map[string]any{"groups": groups, "count": len(groups)})
}

func (c *Controller) validateGroupWaypoints(p map[string]any) (map[string]any, envelope.Envelope) {
	out, env := c.validateGroupID(p)
	if env != nil {
		return nil, env
	}
	if has(p, "include_nested") {
		v, err := validate.Bool("include_nested", p["include_nested"])
		if err != nil {
			return nil, invalidParam(err)
		}
		out["include_nested"] = v
	}
	return out, nil
}

func (c *Controller) groupWaypoints(_ context.Context, p map[string]any) envelope.Envelope {
	wps, err := c.Store.GetGroupWaypoints(str(p, "group_id"), boolOr(p, "include_nested", false))
	if err != nil {
		return storeError("group_waypoints", err)
	}
	return envelope.OK(map[string]any{"waypoints": wps, "count": len(wps)})
}

// storeError maps waypoint store sentinels onto wire codes.
func storeError(op string, err error) envelope.Envelope {
	switch {
	case errors.Is(err, waypoint.ErrNotFound):
		return envelope.Error(envelope.CodeNotFound, err.Error())
	case errors.Is(err, waypoint.ErrGroupNotFound):
		return envelope.Error(envelope.CodeGroupNotFound, err.Error())
	case errors.Is(err, waypoint.ErrCycle):
		return envelope.Error(envelope.CodeValidationError, err.Error())
	default:
		return envelope.Error(envelope.OperationFailed(op), err.Error())
	}
}
