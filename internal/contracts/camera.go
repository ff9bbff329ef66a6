// SPDX-License-Identifier: MIT

package contracts

import "net/http"

// Camera is the contract table of the camera/cinematic service.
var Camera = MustNew("camera", []Contract{
	{
		Operation: "camera_status", Route: "/camera/status", Method: http.MethodGet,
		MCPTool: "camera_status", Dispatch: DispatchQueued, Class: ClassQuery,
		Description: "Current camera position, target and motion state.",
	},
	{
		Operation: "camera_set_position", Route: "/camera/set_position", Method: http.MethodPost,
		MCPTool: "set_camera_position", Dispatch: DispatchQueued, Class: ClassElement,
		Description: "Teleport the camera to a position, optionally looking at a target.",
		Params: []Param{
			{Name: "position", Type: "array", Required: true, Description: "Camera position as [x, y, z] (exactly 3 numbers)."},
			{Name: "target", Type: "array", Description: "Look-at target as [x, y, z]."},
		},
	},
	{
		Operation: "camera_frame_object", Route: "/camera/frame_object", Method: http.MethodPost,
		MCPTool: "frame_object", Dispatch: DispatchQueued, Class: ClassElement,
		Description: "Frame a scene object in the viewport at a distance.",
		Params: []Param{
			{Name: "path", Type: "string", Required: true, Description: "Scene path of the object to frame."},
			{Name: "distance", Type: "number", Description: "Camera distance from the object; defaults to a fit distance."},
		},
	},
	{
		Operation: "camera_orbit", Route: "/camera/orbit", Method: http.MethodPost,
		MCPTool: "orbit_camera", Dispatch: DispatchQueued, Class: ClassElement,
		Description: "Place the camera on an orbit around a center point.",
		Params: []Param{
			{Name: "center", Type: "array", Required: true, Description: "Orbit center as [x, y, z]."},
			{Name: "distance", Type: "number", Required: true, Description: "Orbit radius in scene units."},
			{Name: "elevation", Type: "number", Description: "Elevation angle in degrees; defaults to 15."},
			{Name: "azimuth", Type: "number", Description: "Azimuth angle in degrees; defaults to 0."},
		},
	},
	{
		Operation: "camera_smooth_move", Route: "/camera/smooth_move", Method: http.MethodPost,
		MCPTool: "smooth_move", Dispatch: DispatchQueued, Class: ClassElement,
		Description: "Start an eased camera move executed over subsequent ticks.",
		Params: []Param{
			{Name: "start_position", Type: "array", Required: true, Description: "Start position as [x, y, z]."},
			{Name: "end_position", Type: "array", Required: true, Description: "End position as [x, y, z]."},
			{Name: "start_target", Type: "array", Description: "Start look-at target as [x, y, z]."},
			{Name: "end_target", Type: "array", Description: "End look-at target as [x, y, z]."},
			{Name: "duration", Type: "number", Description: "Move duration in seconds; defaults to 3."},
			{Name: "easing", Type: "string", Description: "Easing function: linear, ease_in, ease_out or ease_in_out."},
		},
	},
	{
		Operation: "camera_stop_movement", Route: "/camera/stop_movement", Method: http.MethodPost,
		MCPTool: "stop_camera_movement", Dispatch: DispatchQueued, Class: ClassElement,
		Description: "Stop any in-progress camera movement. Stopping an idle camera succeeds as a no-op.",
	},
	{
		Operation: "camera_movement_status", Route: "/camera/movement_status", Method: http.MethodGet,
		MCPTool: "camera_movement_status", Dispatch: DispatchQueued, Class: ClassQuery,
		Description: "Progress of the current camera movement, if any.",
	},
	{
		Operation: "get_asset_transform", Route: "/get_asset_transform", Method: http.MethodGet,
		MCPTool: "get_asset_transform", Dispatch: DispatchQueued, Class: ClassQuery,
		Description: "Read an object's position, rotation and scale.",
		Params: []Param{
			{Name: "usd_path", Type: "string", Required: true, Description: "Scene path of the object."},
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
})
