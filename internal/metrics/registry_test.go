// SPDX-License-Identifier: MIT

package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedCountersMonotonic(t *testing.T) {
	r := New("scene_builder", zerolog.Nop())

	r.IncrementRequests()
	r.IncrementRequests()
	r.IncrementErrors()
	r.IncrementAuthFailures()
	r.IncrementRateLimited()

	s := r.Snapshot()
	assert.Equal(t, uint64(2), s.Requests)
	assert.Equal(t, uint64(1), s.Errors)
	assert.Equal(t, uint64(1), s.AuthFailures)
	assert.Equal(t, uint64(1), s.RateLimited)
}

func TestRequestDurationAggregate(t *testing.T) {
	r := New("scene_builder", zerolog.Nop())

	r.RecordRequestDuration(120 * time.Millisecond)
	r.RecordRequestDuration(80 * time.Millisecond)

	s := r.Snapshot()
	assert.Equal(t, uint64(200), s.DurationSumMs)
	assert.Equal(t, uint64(2), s.DurationCount)
}

func TestUptimeGauge(t *testing.T) {
	r := New("scene_builder", zerolog.Nop())
	base := time.Now()
	r.now = func() time.Time { return base }

	assert.Zero(t, r.Uptime())
	r.StartServer()
	r.now = func() time.Time { return base.Add(90 * time.Second) }
	assert.InDelta(t, 90.0, r.Uptime(), 0.01)

	r.StopServer()
	assert.Zero(t, r.Uptime())
	assert.False(t, r.Running())
}

func TestRegisterDuplicateName(t *testing.T) {
	r := New("streamer", zerolog.Nop())
	require.NoError(t, r.RegisterCounter("frames_streamed", "Frames pushed to the encoder."))
	assert.Error(t, r.RegisterCounter("frames_streamed", "dup"))
	assert.Error(t, r.RegisterGauge("frames_streamed", "dup", func() (float64, error) { return 0, nil }))
}

func TestJSONRendering(t *testing.T) {
	r := New("streamer", zerolog.Nop())
	require.NoError(t, r.RegisterCounter("frames_streamed", "Frames pushed to the encoder."))
	require.NoError(t, r.RegisterGauge("stream_active", "1 while streaming.", func() (float64, error) {
		return 1, nil
	}))
	r.IncrementCounter("frames_streamed", 42)
	r.IncrementRequests()
	r.IncrementEndpoint("/streaming/status")

	env := r.JSON()
	require.True(t, env.Success())

	m, ok := env["metrics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, uint64(1), m["requests_received"])
	assert.Equal(t, uint64(42), m["frames_streamed"])
	assert.Equal(t, float64(1), m["stream_active"])

	endpoints, ok := m["endpoints"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, uint64(1), endpoints["/streaming/status"])
}

func TestJSONGaugeFailureReadsZero(t *testing.T) {
	r := New("streamer", zerolog.Nop())
	require.NoError(t, r.RegisterGauge("broken", "Always fails.", func() (float64, error) {
		return 0, errors.New("sensor offline")
	}))

	env := r.JSON()
	m := env["metrics"].(map[string]any)
	assert.Equal(t, float64(0), m["broken"])
}

func TestPrometheusRendering(t *testing.T) {
	r := New("scene_builder", zerolog.Nop())
	require.NoError(t, r.RegisterCounter("elements_created", "Elements added to the scene."))
	require.NoError(t, r.RegisterGauge("queue_depth", "Pending queue entries.", func() (float64, error) {
		return 3, nil
	}))
	require.NoError(t, r.RegisterGauge("broken", "Fails on read.", func() (float64, error) {
		return 0, errors.New("nope")
	}))
	r.IncrementCounter("elements_created", 7)
	r.IncrementRequests()
	r.IncrementEndpoint("/health")
	r.StartServer()

	srv := httptest.NewServer(r.PrometheusHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, "# HELP scene_builder_requests_received_total")
	assert.Contains(t, text, "# TYPE scene_builder_requests_received_total counter")
	assert.Contains(t, text, "scene_builder_requests_received_total 1")
	assert.Contains(t, text, "scene_builder_elements_created_total 7")
	assert.Contains(t, text, "scene_builder_queue_depth 3")
	assert.Contains(t, text, "scene_builder_server_running 1")
	assert.Contains(t, text, `scene_builder_endpoint_requests_total{route="/health"} 1`)

	// A failing gauge is omitted entirely, never emitted corrupt.
	assert.NotContains(t, text, "scene_builder_broken")
	assert.True(t, strings.HasSuffix(text, "\n"))
}

func TestIncrementUnknownCounterDropped(t *testing.T) {
	r := New("scene_builder", zerolog.Nop())
	// Must not panic in the request path.
	r.IncrementCounter("never_registered", 1)
	s := r.Snapshot()
	assert.Empty(t, s.Counters)
}

func TestPrometheusExpositionParses(t *testing.T) {
	r := New("camera", zerolog.Nop())
	require.NoError(t, r.RegisterCounter("moves", "Camera moves executed."))
	r.IncrementCounter("moves", 2)
	r.IncrementRequests()
	r.IncrementEndpoint("/camera/set_position")

	srv := httptest.NewServer(r.PrometheusHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(resp.Body)
	require.NoError(t, err, "exposition must be machine-parseable")

	moves, ok := families["camera_moves_total"]
	require.True(t, ok)
	assert.Equal(t, dto.MetricType_COUNTER, moves.GetType())
	require.Len(t, moves.GetMetric(), 1)
	assert.Equal(t, float64(2), moves.GetMetric()[0].GetCounter().GetValue())

	endpoints, ok := families["camera_endpoint_requests_total"]
	require.True(t, ok)
	require.Len(t, endpoints.GetMetric(), 1)
	labels := endpoints.GetMetric()[0].GetLabel()
	require.Len(t, labels, 1)
	assert.Equal(t, "route", labels[0].GetName())
	assert.Equal(t, "/camera/set_position", labels[0].GetValue())
}
