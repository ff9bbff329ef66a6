// SPDX-License-Identifier: MIT

package contracts

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allRegistries() []*Registry {
	return []*Registry{SceneBuilder, Camera, Surveyor, Recorder, Streamer}
}

func TestTablesWellFormed(t *testing.T) {
	for _, r := range allRegistries() {
		t.Run(r.Service(), func(t *testing.T) {
			routes := make(map[string]bool)
			tools := make(map[string]bool)
			for _, c := range r.All() {
				rk := c.Method + " " + c.Route
				assert.False(t, routes[rk], "duplicate route %s", rk)
				assert.False(t, tools[c.MCPTool], "duplicate tool %s", c.MCPTool)
				routes[rk] = true
				tools[c.MCPTool] = true

				assert.NotEmpty(t, c.Operation)
				assert.NotEmpty(t, c.Description)
				for _, p := range c.Params {
					assert.NotEmpty(t, p.Description, "%s param %s lacks description", c.Operation, p.Name)
				}
			}
		})
	}
}

func TestLookupByRouteAndTool(t *testing.T) {
	c, ok := SceneBuilder.ByRoute(http.MethodPost, "/add_element")
	require.True(t, ok)
	assert.Equal(t, "add_element", c.Operation)

	c, ok = SceneBuilder.ByTool("query_objects_near_point")
	require.True(t, ok)
	assert.Equal(t, "/query/objects_near_point", c.Route)

	_, ok = SceneBuilder.ByRoute(http.MethodGet, "/add_element")
	assert.False(t, ok)
	_, ok = SceneBuilder.ByTool("no_such_tool")
	assert.False(t, ok)
}

func TestRecordingAliasesShareOperations(t *testing.T) {
	legacy, ok := Recorder.ByRoute(http.MethodPost, "/recording/start")
	require.True(t, ok)
	canonical, ok := Recorder.ByRoute(http.MethodPost, "/video/start")
	require.True(t, ok)

	assert.Equal(t, canonical.Operation, legacy.Operation)
	assert.True(t, legacy.Alias)
	assert.False(t, canonical.Alias)
}

func TestOperationsCollapseAliases(t *testing.T) {
	ops := Recorder.Operations()
	counts := make(map[string]int)
	for _, op := range ops {
		counts[op]++
	}
	assert.Equal(t, 1, counts["start_video"])
	assert.Equal(t, 1, counts["video_status"])
	assert.Equal(t, 1, counts["cancel_video"])
}

func TestNewRejectsMalformedTables(t *testing.T) {
	_, err := New("x", []Contract{
		{Operation: "a", Route: "no_slash", Method: http.MethodGet, MCPTool: "a"},
	})
	assert.Error(t, err)

	_, err = New("x", []Contract{
		{Operation: "a", Route: "/a", Method: "DELETE", MCPTool: "a"},
	})
	assert.Error(t, err)

	_, err = New("x", []Contract{
		{Operation: "a", Route: "/a", Method: http.MethodGet, MCPTool: "a"},
		{Operation: "b", Route: "/a", Method: http.MethodGet, MCPTool: "b"},
	})
	assert.Error(t, err)

	_, err = New("x", []Contract{
		{Operation: "a", Route: "/a", Method: http.MethodGet, MCPTool: "t"},
		{Operation: "b", Route: "/b", Method: http.MethodGet, MCPTool: "t"},
	})
	assert.Error(t, err)

	// Repeated operation without alias flag.
	_, err = New("x", []Contract{
		{Operation: "a", Route: "/a", Method: http.MethodGet, MCPTool: "t1"},
		{Operation: "a", Route: "/a2", Method: http.MethodGet, MCPTool: "t2"},
	})
	assert.Error(t, err)
}

func TestSelfCheck(t *testing.T) {
	err := SceneBuilder.SelfCheck(func(string) bool { return true })
	assert.NoError(t, err)

	err = SceneBuilder.SelfCheck(func(op string) bool { return op != "clear_path" })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear_path")
}

func TestForService(t *testing.T) {
	for _, name := range []string{"scene_builder", "camera", "surveyor", "recorder", "streamer"} {
		r, ok := ForService(name)
		require.True(t, ok, name)
		assert.Equal(t, name, r.Service())
	}
	_, ok := ForService("unknown")
	assert.False(t, ok)
}
