// SPDX-License-Identifier: MIT

package contracts

import "net/http"

// Recorder is the contract table of the frame/video recorder service.
// The /recording/* routes are documented legacy aliases of the /video/*
// operations; both surfaces dispatch to the same handlers.
var Recorder = MustNew("recorder", []Contract{
	{
		Operation: "capture_frame", Route: "/viewport/capture_frame", Method: http.MethodPost,
		MCPTool: "capture_frame", Dispatch: DispatchQueued, Class: ClassRecord,
		Description: "Capture a single viewport frame to a file.",
		Params: []Param{
			{Name: "output_path", Type: "string", Description: "Output file path; generated under the output directory when omitted."},
			{Name: "width", Type: "integer", Description: "Frame width in pixels, 1 to 7680."},
			{Name: "height", Type: "integer", Description: "Frame height in pixels, 1 to 4320."},
		},
	},
	{
		Operation: "video_status", Route: "/video/status", Method: http.MethodGet,
		MCPTool: "video_status", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "State of the current video capture job, if any.",
	},
	{
		Operation: "start_video", Route: "/video/start", Method: http.MethodPost,
		MCPTool: "start_video", Dispatch: DispatchInline, Class: ClassRecord,
		Description: "Start a frame-sequence video capture job.",
		Params: []Param{
			{Name: "output_path", Type: "string", Description: "Output directory for the frame sequence."},
			{Name: "fps", Type: "integer", Description: "Capture rate, 1 to 120 frames per second; defaults to 30."},
			{Name: "duration_sec", Type: "number", Description: "Capture duration in seconds; omit to run until cancelled."},
			{Name: "width", Type: "integer", Description: "Frame width in pixels, 1 to 7680."},
			{Name: "height", Type: "integer", Description: "Frame height in pixels, 1 to 4320."},
		},
	},
	{
		Operation: "cancel_video", Route: "/video/cancel", Method: http.MethodPost,
		MCPTool: "cancel_video", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Cancel the current video capture job. Cancelling when idle succeeds as a no-op.",
	},
	{
		Operation: "video_status", Route: "/recording/status", Method: http.MethodGet,
		MCPTool: "get_recording_status", Alias: true, Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Legacy alias of video_status.",
	},
	{
		Operation: "start_video", Route: "/recording/start", Method: http.MethodPost,
		MCPTool: "start_recording", Alias: true, Dispatch: DispatchInline, Class: ClassRecord,
		Description: "Legacy alias of start_video.",
		Params: []Param{
			{Name: "output_path", Type: "string", Description: "Output directory for the frame sequence."},
			{Name: "fps", Type: "integer", Description: "Capture rate, 1 to 120 frames per second; defaults to 30."},
			{Name: "duration_sec", Type: "number", Description: "Capture duration in seconds; omit to run until cancelled."},
			{Name: "width", Type: "integer", Description: "Frame width in pixels, 1 to 7680."},
			{Name: "height", Type: "integer", Description: "Frame height in pixels, 1 to 4320."},
		},
	},
	{
		Operation: "cancel_video", Route: "/recording/cancel", Method: http.MethodPost,
		MCPTool: "cancel_recording", Alias: true, Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Legacy alias of cancel_video.",
	},
	{
		Operation: "cleanup_frames", Route: "/cleanup/frames", Method: http.MethodPost,
		MCPTool: "cleanup_frames", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Delete captured frames older than a threshold.",
		Params: []Param{
			{Name: "older_than_hours", Type: "number", Description: "Only delete frames older than this many hours; defaults to 24."},
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
