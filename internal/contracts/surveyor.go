// SPDX-License-Identifier: MIT

package contracts

import "net/http"

// Surveyor is the contract table of the waypoint surveyor service.
// Waypoint and group operations run inline against the store; marker
// and goto operations touch the scene and go through the queue.
var Surveyor = MustNew("surveyor", []Contract{
	{
		Operation: "waypoint_create", Route: "/waypoints/create", Method: http.MethodPost,
		MCPTool: "create_waypoint", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Create a named waypoint at a position.",
		Params: []Param{
			{Name: "position", Type: "array", Required: true, Description: "Waypoint position as [x, y, z] (exactly 3 numbers)."},
			{Name: "waypoint_type", Type: "string", Description: "Waypoint kind, e.g. camera_position, point_of_interest; defaults to point_of_interest."},
			{Name: "name", Type: "string", Description: "Display name; generated when omitted."},
			{Name: "target", Type: "array", Description: "Optional look-at target as [x, y, z]."},
			{Name: "metadata", Type: "object", Description: "Free-form metadata stored with the waypoint."},
			{Name: "group_ids", Type: "array", Description: "Group ids the waypoint joins on creation."},
		},
	},
	{
		Operation: "waypoint_list", Route: "/waypoints/list", Method: http.MethodGet,
		MCPTool: "list_waypoints", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "List waypoints, optionally filtered by type or group.",
		Params: []Param{
			{Name: "waypoint_type", Type: "string", Description: "Only return waypoints of this type."},
			{Name: "group_id", Type: "string", Description: "Only return waypoints in this group."},
		},
	},
	{
		Operation: "waypoint_update", Route: "/waypoints/update", Method: http.MethodPost,
		MCPTool: "update_waypoint", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Update a waypoint's fields.",
		Params: []Param{
			{Name: "waypoint_id", Type: "string", Required: true, Description: "Id of the waypoint to update."},
			{Name: "name", Type: "string", Description: "New display name."},
			{Name: "position", Type: "array", Description: "New position as [x, y, z]."},
			{Name: "target", Type: "array", Description: "New look-at target as [x, y, z]."},
			{Name: "metadata", Type: "object", Description: "Replacement metadata mapping."},
		},
	},
	{
		Operation: "waypoint_remove", Route: "/waypoints/remove", Method: http.MethodPost,
		MCPTool: "remove_waypoint", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Remove one waypoint or a list of waypoints.",
		Params: []Param{
			{Name: "waypoint_id", Type: "string", Description: "Single waypoint id to remove."},
			{Name: "waypoint_ids", Type: "array", Description: "Waypoint ids to remove in one call."},
		},
	},
	{
		Operation: "waypoint_clear", Route: "/waypoints/clear", Method: http.MethodPost,
		MCPTool: "clear_waypoints", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Remove all waypoints.",
	},
	{
		Operation: "waypoint_export", Route: "/waypoints/export", Method: http.MethodPost,
		MCPTool: "export_waypoints", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Export waypoints (and optionally groups) as a bundle, inline or to a file.",
		Params: []Param{
			{Name: "file_path", Type: "string", Description: "Write the bundle to this file instead of returning it inline."},
			{Name: "include_groups", Type: "boolean", Description: "Include group definitions and memberships; defaults to true."},
		},
	},
	{
		Operation: "waypoint_import", Route: "/waypoints/import", Method: http.MethodPost,
		MCPTool: "import_waypoints", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Import a waypoint bundle.",
		Params: []Param{
			{Name: "bundle", Type: "object", Description: "Bundle produced by export_waypoints."},
			{Name: "file_path", Type: "string", Description: "Read the bundle from this file instead of the body."},
			{Name: "merge_mode", Type: "string", Description: "replace (clear first) or merge (keep existing); defaults to merge."},
		},
	},
	{
		Operation: "waypoint_goto", Route: "/waypoints/goto", Method: http.MethodPost,
		MCPTool: "goto_waypoint", Dispatch: DispatchQueued, Class: ClassElement,
		Description: "Move the camera to a waypoint.",
		Params: []Param{
			{Name: "waypoint_id", Type: "string", Required: true, Description: "Id of the waypoint to go to."},
		},
	},
	{
		Operation: "group_create", Route: "/groups/create", Method: http.MethodPost,
		MCPTool: "create_group", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Create a waypoint group, optionally nested under a parent group.",
		Params: []Param{
			{Name: "name", Type: "string", Required: true, Description: "Group name."},
			{Name: "parent_group_id", Type: "string", Description: "Parent group id; omit for a top-level group."},
			{Name: "description", Type: "string", Description: "Free-form description."},
			{Name: "color", Type: "array", Description: "Display color as [r, g, b] floats in [0,1] or #RRGGBB."},
		},
	},
	{
		Operation: "group_list", Route: "/groups/list", Method: http.MethodGet,
		MCPTool: "list_groups", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "List groups, optionally restricted to one parent.",
		Params: []Param{
			{Name: "parent_group_id", Type: "string", Description: "Only return children of this group."},
		},
	},
	{
		Operation: "group_get", Route: "/groups/get", Method: http.MethodGet,
		MCPTool: "get_group", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Fetch one group by id.",
		Params: []Param{
			{Name: "group_id", Type: "string", Required: true, Description: "Group id."},
		},
	},
	{
		Operation: "group_remove", Route: "/groups/remove", Method: http.MethodPost,
		MCPTool: "remove_group", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Remove a group; cascade removes nested groups too.",
		Params: []Param{
			{Name: "group_id", Type: "string", Required: true, Description: "Group id to remove."},
			{Name: "cascade", Type: "boolean", Description: "Also remove nested groups; defaults to false."},
		},
	},
	{
		Operation: "group_hierarchy", Route: "/groups/hierarchy", Method: http.MethodGet,
		MCPTool: "group_hierarchy", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Full group tree with nesting and waypoint counts.",
	},
	{
		Operation: "group_add_waypoint", Route: "/groups/add_waypoint", Method: http.MethodPost,
		MCPTool: "add_waypoint_to_groups", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Add a waypoint to one or more groups.",
		Params: []Param{
			{Name: "waypoint_id", Type: "string", Required: true, Description: "Waypoint id."},
			{Name: "group_ids", Type: "array", Required: true, Description: "Group ids to add the waypoint to."},
		},
	},
	{
		Operation: "group_remove_waypoint", Route: "/groups/remove_waypoint", Method: http.MethodPost,
		MCPTool: "remove_waypoint_from_groups", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Remove a waypoint from one or more groups.",
		Params: []Param{
			{Name: "waypoint_id", Type: "string", Required: true, Description: "Waypoint id."},
			{Name: "group_ids", Type: "array", Required: true, Description: "Group ids to remove the waypoint from."},
		},
	},
	{
		Operation: "groups_of_waypoint", Route: "/groups/of_waypoint", Method: http.MethodGet,
		MCPTool: "get_waypoint_groups", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "List the groups a waypoint belongs to.",
		Params: []Param{
			{Name: "waypoint_id", Type: "string", Required: true, Description: "Waypoint id."},
		},
	},
	{
		Operation: "group_waypoints", Route: "/groups/waypoints", Method: http.MethodGet,
		MCPTool: "get_group_waypoints", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "List the waypoints in a group.",
		Params: []Param{
			{Name: "group_id", Type: "string", Required: true, Description: "Group id."},
			{Name: "include_nested", Type: "boolean", Description: "Also include waypoints of nested groups; defaults to false."},
		},
	},
	{
		Operation: "markers_visible", Route: "/markers/visible", Method: http.MethodPost,
		MCPTool: "set_markers_visible", Dispatch: DispatchQueued, Class: ClassElement,
		Description: "Show or hide all waypoint markers. Repeating the same state is a no-op.",
		Params: []Param{
			{Name: "visible", Type: "boolean", Required: true, Description: "Whether markers are visible."},
		},
	},
	{
		Operation: "markers_individual", Route: "/markers/individual", Method: http.MethodPost,
		MCPTool: "set_marker_visible", Dispatch: DispatchQueued, Class: ClassElement,
		Description: "Show or hide one waypoint's marker.",
		Params: []Param{
			{Name: "waypoint_id", Type: "string", Required: true, Description: "Waypoint id."},
			{Name: "visible", Type: "boolean", Required: true, Description: "Whether the marker is visible."},
		},
	},
	{
		Operation: "markers_selective", Route: "/markers/selective", Method: http.MethodPost,
		MCPTool: "set_markers_selective", Dispatch: DispatchQueued, Class: ClassElement,
		Description: "Show only the given waypoints' markers, hiding the rest.",
		Params: []Param{
			{Name: "waypoint_ids", Type: "array", Required: true, Description: "Waypoint ids whose markers stay visible."},
		},
	},
	{
		Operation: "markers_debug", Route: "/markers/debug", Method: http.MethodGet,
		MCPTool: "debug_markers", Dispatch: DispatchQueued, Class: ClassQuery,
		Description: "Marker scene state for debugging.",
	},
	{
		Operation: "request_status", Route: "/request_status", Method: http.MethodGet,
		MCPTool: "request_status", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Look up a tracked request by id.",
		Params: []Param{
			{Name: "request_id", Type: "string", Required: true, Description: "Server-assigned request id."},
		},
	},
})
