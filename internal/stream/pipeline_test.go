// SPDX-License-Identifier: MIT

package stream

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec() *PipelineSpec {
	return &PipelineSpec{
		Width:       1920,
		Height:      1080,
		FPS:         30,
		BitrateKbps: 4000,
		SinkURL:     "srt://relay.example.com:9000",
		Encoder:     EncoderX264,
		Protocol:    ProtocolSRT,
	}
}

func TestValidate_Bounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*PipelineSpec)
		field  string
	}{
		{"width zero", func(s *PipelineSpec) { s.Width = 0 }, "width"},
		{"width over", func(s *PipelineSpec) { s.Width = 7681 }, "width"},
		{"height over", func(s *PipelineSpec) { s.Height = 4321 }, "height"},
		{"fps zero", func(s *PipelineSpec) { s.FPS = 0 }, "fps"},
		{"fps over", func(s *PipelineSpec) { s.FPS = 121 }, "fps"},
		{"bitrate under", func(s *PipelineSpec) { s.BitrateKbps = 99 }, "bitrate_kbps"},
		{"bitrate over", func(s *PipelineSpec) { s.BitrateKbps = 100001 }, "bitrate_kbps"},
		{"bad protocol", func(s *PipelineSpec) { s.Protocol = "hls" }, "protocol"},
		{"scheme mismatch", func(s *PipelineSpec) { s.SinkURL = "rtmp://x.example.com/live" }, "sink_url"},
		{"no host", func(s *PipelineSpec) { s.SinkURL = "srt://" }, "sink_url"},
		{"bad encoder", func(s *PipelineSpec) { s.Encoder = "av1" }, "encoder"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := validSpec()
			tc.mutate(spec)
			err := spec.Validate()
			var se *SpecError
			require.True(t, errors.As(err, &se), "expected *SpecError, got %v", err)
			assert.Equal(t, tc.field, se.Field)
		})
	}
}

func TestValidate_BoundaryValuesAccepted(t *testing.T) {
	spec := validSpec()
	spec.Width = 7680
	spec.Height = 4320
	spec.FPS = 120
	spec.BitrateKbps = 100
	require.NoError(t, spec.Validate())

	spec.BitrateKbps = 100000
	require.NoError(t, spec.Validate())
}

func TestBuildArgv_SRTX264(t *testing.T) {
	argv, err := BuildArgv(validSpec())
	require.NoError(t, err)

	joined := strings.Join(argv, " ")
	assert.Equal(t, "gst-launch-1.0", argv[0])
	assert.Contains(t, joined, "rawvideoparse width=1920 height=1080 format=rgb framerate=30/1")
	assert.Contains(t, joined, "x264enc bitrate=4000 speed-preset=ultrafast tune=zerolatency key-int-max=24 bframes=0")
	assert.Contains(t, joined, "mpegtsmux alignment=7")
	assert.Contains(t, joined, "srtsink uri=srt://relay.example.com:9000 sync=false async=false")
	assert.NotContains(t, joined, "flvmux")
}

func TestBuildArgv_RTMPVariants(t *testing.T) {
	spec := validSpec()
	spec.Protocol = ProtocolRTMP
	spec.SinkURL = "rtmp://live.example.com/app/key"

	for _, tc := range []struct {
		encoder string
		want    string
	}{
		{EncoderX264, "x264enc bitrate=4000"},
		{EncoderNVENC, "nvh264enc bitrate=4000 preset=low-latency-hq"},
		{EncoderVAAPI, "vaapih264enc bitrate=4000 quality-level=7"},
	} {
		t.Run(tc.encoder, func(t *testing.T) {
			spec.Encoder = tc.encoder
			argv, err := BuildArgv(spec)
			require.NoError(t, err)
			joined := strings.Join(argv, " ")
			assert.Contains(t, joined, tc.want)
			assert.Contains(t, joined, "flvmux streamable=true")
			assert.Contains(t, joined, "rtmpsink location=rtmp://live.example.com/app/key")
			assert.NotContains(t, joined, "mpegtsmux")
		})
	}
}

func TestBuildArgv_InjectionBlocked(t *testing.T) {
	spec := validSpec()
	// URL-safe regex has no room for spaces or semicolons.
	spec.SinkURL = "srt://relay.example.com:9000/x; rm -rf /"
	_, err := BuildArgv(spec)
	assert.ErrorIs(t, err, ErrCommandInjection)
}

func TestCheckArgv_RejectsUnknownTokens(t *testing.T) {
	assert.ErrorIs(t, checkArgv([]string{"curl"}), ErrCommandInjection)
	assert.ErrorIs(t, checkArgv([]string{"x264enc", "threads=4"}), ErrCommandInjection)
	assert.ErrorIs(t, checkArgv([]string{"x264enc", "bitrate=4000k"}), ErrCommandInjection)
	assert.NoError(t, checkArgv([]string{"x264enc", "bitrate=4000", "!"}))
}

func TestValidate_UnicodeHostRejected(t *testing.T) {
	spec := validSpec()
	spec.SinkURL = "srt://exa​mple.com:9000"
	err := spec.Validate()
	var se *SpecError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "sink_url", se.Field)
}
