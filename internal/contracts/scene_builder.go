// SPDX-License-Identifier: MIT

package contracts

import "net/http"

// SceneBuilder is the contract table of the scene-builder service.
var SceneBuilder = MustNew("scene_builder", []Contract{
	{
		Operation: "add_element", Route: "/add_element", Method: http.MethodPost,
		MCPTool: "add_element", Dispatch: DispatchQueued, Class: ClassElement,
		Description: "Add a primitive element (cube, sphere, cylinder, cone, plane) to the scene.",
		Params: []Param{
			{Name: "element_type", Type: "string", Required: true, Description: "Primitive type: cube, sphere, cylinder, cone or plane."},
			{Name: "name", Type: "string", Required: true, Description: "Element name, unique under the parent path."},
			{Name: "position", Type: "array", Required: true, Description: "World position as [x, y, z] (exactly 3 numbers)."},
			{Name: "rotation", Type: "array", Description: "Euler rotation in degrees as [rx, ry, rz] (exactly 3 numbers)."},
			{Name: "scale", Type: "array", Description: "Scale as [sx, sy, sz]; each component at least 0.1."},
			{Name: "color", Type: "array", Description: "RGB color as [r, g, b] floats in [0,1], or a #RRGGBB string."},
			{Name: "parent_path", Type: "string", Description: "Scene path to create the element under; defaults to /World."},
		},
	},
	{
		Operation: "create_batch", Route: "/create_batch", Method: http.MethodPost,
		MCPTool: "create_batch", Dispatch: DispatchQueued, Class: ClassBatch,
		Description: "Create a named batch of elements in one tick-side operation.",
		Params: []Param{
			{Name: "batch_name", Type: "string", Required: true, Description: "Name of the batch; becomes a scope under the parent path."},
			{Name: "elements", Type: "array", Required: true, Description: "Element definitions, each shaped like an add_element payload."},
			{Name: "parent_path", Type: "string", Description: "Scene path to create the batch under; defaults to /World."},
		},
	},
	{
		Operation: "place_asset", Route: "/place_asset", Method: http.MethodPost,
		MCPTool: "place_asset", Dispatch: DispatchQueued, Class: ClassAsset,
		Description: "Reference an asset file into the scene at a transform.",
		Params: []Param{
			{Name: "name", Type: "string", Required: true, Description: "Name for the placed asset."},
			{Name: "asset_path", Type: "string", Required: true, Description: "Asset file path, resolved against the configured search directories."},
			{Name: "prim_path", Type: "string", Description: "Explicit scene path; derived from name when omitted."},
			{Name: "position", Type: "array", Description: "World position as [x, y, z]."},
			{Name: "rotation", Type: "array", Description: "Euler rotation in degrees as [rx, ry, rz]."},
			{Name: "scale", Type: "array", Description: "Scale as [sx, sy, sz]; each component at least 0.1."},
		},
	},
	{
		Operation: "transform_asset", Route: "/transform_asset", Method: http.MethodPost,
		MCPTool: "transform_asset", Dispatch: DispatchQueued, Class: ClassAsset,
		Description: "Move, rotate or scale an existing scene object.",
		Params: []Param{
			{Name: "prim_path", Type: "string", Required: true, Description: "Scene path of the object to transform."},
			{Name: "position", Type: "array", Description: "New world position as [x, y, z]."},
			{Name: "rotation", Type: "array", Description: "New Euler rotation in degrees as [rx, ry, rz]."},
			{Name: "scale", Type: "array", Description: "New scale as [sx, sy, sz]; each component at least 0.1."},
		},
	},
	{
		Operation: "remove_element", Route: "/remove_element", Method: http.MethodPost,
		MCPTool: "remove_element", Dispatch: DispatchQueued, Class: ClassElement,
		Description: "Remove one object from the scene.",
		Params: []Param{
			{Name: "usd_path", Type: "string", Required: true, Description: "Scene path of the object to remove."},
		},
	},
	{
		Operation: "clear_path", Route: "/clear_path", Method: http.MethodPost,
		MCPTool: "clear_path", Dispatch: DispatchQueued, Class: ClassElement,
		Description: "Remove everything under a scene path. Clearing an empty path succeeds as a no-op.",
		Params: []Param{
			{Name: "path", Type: "string", Required: true, Description: "Scene path to clear."},
		},
	},
	{
		Operation: "get_scene", Route: "/get_scene", Method: http.MethodGet,
		MCPTool: "get_scene", Dispatch: DispatchQueued, Class: ClassQuery,
		Description: "Return the full scene graph listing.",
	},
	{
		Operation: "scene_status", Route: "/scene_status", Method: http.MethodGet,
		MCPTool: "scene_status", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Service status: queue depth, tracked requests, uptime.",
	},
	{
		Operation: "list_elements", Route: "/list_elements", Method: http.MethodGet,
		MCPTool: "list_elements", Dispatch: DispatchQueued, Class: ClassQuery,
		Description: "List scene objects with their types and transforms.",
		Params: []Param{
			{Name: "root", Type: "string", Description: "Restrict the listing to objects under this scene path."},
		},
	},
	{
		Operation: "batch_info", Route: "/batch_info", Method: http.MethodGet,
		MCPTool: "batch_info", Dispatch: DispatchQueued, Class: ClassQuery,
		Description: "Describe a previously created batch.",
		Params: []Param{
			{Name: "batch_name", Type: "string", Required: true, Description: "Name of the batch to describe."},
		},
	},
	{
		Operation: "request_status", Route: "/request_status", Method: http.MethodGet,
		MCPTool: "request_status", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Look up a tracked request by id.",
		Params: []Param{
			{Name: "request_id", Type: "string", Required: true, Description: "Server-assigned request id."},
		},
	},
	{
		Operation: "query_objects_by_type", Route: "/query/objects_by_type", Method: http.MethodGet,
		MCPTool: "query_objects_by_type", Dispatch: DispatchQueued, Class: ClassQuery,
		Description: "Find scene objects of a given primitive type.",
		Params: []Param{
			{Name: "type", Type: "string", Required: true, Description: "Primitive type to match."},
		},
	},
	{
		Operation: "query_objects_in_bounds", Route: "/query/objects_in_bounds", Method: http.MethodGet,
		MCPTool: "query_objects_in_bounds", Dispatch: DispatchQueued, Class: ClassQuery,
		Description: "Find scene objects inside an axis-aligned bounding box.",
		Params: []Param{
			{Name: "min", Type: "string", Required: true, Description: "Box minimum corner as \"x,y,z\"."},
			{Name: "max", Type: "string", Required: true, Description: "Box maximum corner as \"x,y,z\"."},
		},
	},
	{
		Operation: "query_objects_near_point", Route: "/query/objects_near_point", Method: http.MethodGet,
		MCPTool: "query_objects_near_point", Dispatch: DispatchQueued, Class: ClassQuery,
		Description: "Find scene objects within a radius of a point.",
		Params: []Param{
			{Name: "point", Type: "string", Required: true, Description: "Center point as \"x,y,z\"."},
			{Name: "radius", Type: "number", Required: true, Description: "Search radius in scene units."},
		},
	},
	{
		Operation: "transform_calculate_bounds", Route: "/transform/calculate_bounds", Method: http.MethodPost,
		MCPTool: "calculate_bounds", Dispatch: DispatchQueued, Class: ClassQuery,
		Description: "Compute the combined bounding box of a set of objects.",
		Params: []Param{
			{Name: "paths", Type: "array", Required: true, Description: "Scene paths of the objects to bound."},
		},
	},
	{
		Operation: "transform_find_ground_level", Route: "/transform/find_ground_level", Method: http.MethodPost,
		MCPTool: "find_ground_level", Dispatch: DispatchQueued, Class: ClassQuery,
		Description: "Find the ground height near a position.",
		Params: []Param{
			{Name: "position", Type: "array", Required: true, Description: "Probe position as [x, y, z]."},
			{Name: "search_radius", Type: "number", Description: "Horizontal search radius; defaults to 10."},
		},
	},
	{
		Operation: "transform_align_objects", Route: "/transform/align_objects", Method: http.MethodPost,
		MCPTool: "align_objects", Dispatch: DispatchQueued, Class: ClassElement,
		Description: "Align a set of objects along an axis.",
		Params: []Param{
			{Name: "paths", Type: "array", Required: true, Description: "Scene paths of the objects to align."},
			{Name: "axis", Type: "string", Required: true, Description: "Axis to align on: x, y or z."},
			{Name: "alignment", Type: "string", Description: "min, center or max; defaults to center."},
		},
	},
})
