// SPDX-License-Identifier: MIT

package contracts

import "net/http"

// Streamer is the contract table of the live streamer service. All
// operations run inline: the encoder runs as a child process owned by
// the stream manager, never on the tick thread.
var Streamer = MustNew("streamer", []Contract{
	{
		Operation: "streaming_start", Route: "/streaming/start", Method: http.MethodPost,
		MCPTool: "start_streaming", Dispatch: DispatchInline, Class: ClassStream,
		Description: "Start the encoder pipeline. Starting an already-running stream is a no-op.",
		Params: []Param{
			{Name: "width", Type: "integer", Description: "Stream width in pixels, 1 to 7680."},
			{Name: "height", Type: "integer", Description: "Stream height in pixels, 1 to 4320."},
			{Name: "fps", Type: "integer", Description: "Frame rate, 1 to 120."},
			{Name: "bitrate_kbps", Type: "integer", Description: "Video bitrate in kbps, 100 to 100000."},
			{Name: "encoder", Type: "string", Description: "Encoder: x264, nvenc or vaapi."},
			{Name: "protocol", Type: "string", Description: "Delivery protocol: srt or rtmp."},
			{Name: "sink_url", Type: "string", Description: "Destination URL; scheme must match the protocol."},
		},
	},
	{
		Operation: "streaming_stop", Route: "/streaming/stop", Method: http.MethodPost,
		MCPTool: "stop_streaming", Dispatch: DispatchInline, Class: ClassStream,
		Description: "Stop the encoder pipeline. Stopping an idle stream is a no-op.",
	},
	{
		Operation: "streaming_status", Route: "/streaming/status", Method: http.MethodGet,
		MCPTool: "streaming_status", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Encoder process state and the active pipeline settings.",
	},
	{
		Operation: "streaming_urls", Route: "/streaming/urls", Method: http.MethodGet,
		MCPTool: "streaming_urls", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Playback and ingest URLs for the active or configured stream.",
	},
	{
		Operation: "streaming_environment_validate", Route: "/streaming/environment/validate", Method: http.MethodPost,
		MCPTool: "validate_streaming_environment", Dispatch: DispatchInline, Class: ClassQuery,
		Description: "Validate encoder availability and pipeline settings without starting a stream.",
		Params: []Param{
			{Name: "encoder", Type: "string", Description: "Encoder to validate; defaults to the configured one."},
			{Name: "protocol", Type: "string", Description: "Protocol to validate; defaults to the configured one."},
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

// ForService returns the contract registry for a service name.
func ForService(service string) (*Registry, bool) {
	switch service {
	case "scene_builder":
		return SceneBuilder, true
	case "camera":
		return Camera, true
	case "surveyor":
		return Surveyor, true
	case "recorder":
		return Recorder, true
	case "streamer":
		return Streamer, true
	default:
		return nil, false
	}
}
