// SPDX-License-Identifier: MIT

// Package stream builds and supervises the external encoder pipeline.
// The argv handed to the child process is assembled exclusively from
// allow-listed tokens; anything else is treated as an injection
// attempt and aborts the build.
package stream

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// Protocols and encoders the builder knows how to chain.
const (
	ProtocolSRT  = "srt"
	ProtocolRTMP = "rtmp"

	EncoderX264  = "x264"
	EncoderNVENC = "nvenc"
	EncoderVAAPI = "vaapi"
)

// Spec bounds.
const (
	MaxWidth   = 7680
	MaxHeight  = 4320
	MaxFPS     = 120
	MinBitrate = 100
	MaxBitrate = 100000
)

// ErrCommandInjection marks a pipeline token that failed the
// allow-list; callers map it to the COMMAND_INJECTION wire code.
var ErrCommandInjection = errors.New("stream: pipeline token failed allow-list")

// SpecError reports which field of a PipelineSpec is invalid.
type SpecError struct {
	Field  string
	Detail string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// PipelineSpec describes one outbound stream.
type PipelineSpec struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	FPS         int    `json:"fps"`
	BitrateKbps int    `json:"bitrate_kbps"`
	SinkURL     string `json:"sink_url"`
	Encoder     string `json:"encoder"`
	Protocol    string `json:"protocol"`
}

// schemesByProtocol is the sink URL scheme allow-list.
var schemesByProtocol = map[string][]string{
	ProtocolSRT:  {"srt"},
	ProtocolRTMP: {"rtmp", "rtmps"},
}

// Validate checks the spec fields in a fixed order so error messages
// are stable: dimensions, rate, bitrate, sink URL, encoder.
func (s *PipelineSpec) Validate() error {
	if s == nil {
		return &SpecError{"spec", "missing pipeline spec"}
	}
	if s.Width < 1 || s.Width > MaxWidth {
		return &SpecError{"width", fmt.Sprintf("must be between 1 and %d", MaxWidth)}
	}
	if s.Height < 1 || s.Height > MaxHeight {
		return &SpecError{"height", fmt.Sprintf("must be between 1 and %d", MaxHeight)}
	}
	if s.FPS < 1 || s.FPS > MaxFPS {
		return &SpecError{"fps", fmt.Sprintf("must be between 1 and %d", MaxFPS)}
	}
	if s.BitrateKbps < MinBitrate || s.BitrateKbps > MaxBitrate {
		return &SpecError{"bitrate_kbps", fmt.Sprintf("must be between %d and %d", MinBitrate, MaxBitrate)}
	}

	schemes, ok := schemesByProtocol[s.Protocol]
	if !ok {
		return &SpecError{"protocol", "must be srt or rtmp"}
	}
	u, err := url.Parse(s.SinkURL)
	if err != nil {
		return &SpecError{"sink_url", "must be a valid URL"}
	}
	if !containsString(schemes, u.Scheme) {
		return &SpecError{"sink_url", fmt.Sprintf("scheme must be one of %s", strings.Join(schemes, ", "))}
	}
	if u.Hostname() == "" {
		return &SpecError{"sink_url", "must include a host"}
	}
	// Punycode the host so unicode lookalikes cannot smuggle bytes
	// past the URL-safe property regex.
	if _, err := idna.Lookup.ToASCII(u.Hostname()); err != nil {
		return &SpecError{"sink_url", "host is not a valid hostname"}
	}

	switch s.Encoder {
	case EncoderX264, EncoderNVENC, EncoderVAAPI:
	default:
		return &SpecError{"encoder", "must be one of x264, nvenc, vaapi"}
	}
	return nil
}

// Property value classes. Every element property in the generated
// argv must match its class regex exactly.
var propertyClasses = map[string]*regexp.Regexp{
	"numeric":  regexp.MustCompile(`^[0-9]+$`),
	"boolean":  regexp.MustCompile(`^(true|false)$`),
	"fraction": regexp.MustCompile(`^[0-9]+/[0-9]+$`),
	"ident":    regexp.MustCompile(`^[a-z0-9-]+$`),
	"url":      regexp.MustCompile(`^[A-Za-z0-9\-._~:/?#\[\]@!$&'()*+,;=%]+$`),
}

// allowedElements is the closed set of pipeline tokens. The builder
// refuses to emit anything outside it.
var allowedElements = map[string]bool{
	"gst-launch-1.0": true,
	"fdsrc":          true,
	"rawvideoparse":  true,
	"videoconvert":   true,
	"x264enc":        true,
	"nvh264enc":      true,
	"vaapih264enc":   true,
	"h264parse":      true,
	"mpegtsmux":      true,
	"flvmux":         true,
	"srtsink":        true,
	"rtmpsink":       true,
	"!":              true,
}

// allowedProperties maps property names to their value class.
var allowedProperties = map[string]string{
	"do-timestamp":    "boolean",
	"width":           "numeric",
	"height":          "numeric",
	"format":          "ident",
	"framerate":       "fraction",
	"bitrate":         "numeric",
	"speed-preset":    "ident",
	"tune":            "ident",
	"key-int-max":     "numeric",
	"bframes":         "numeric",
	"preset":          "ident",
	"quality-level":   "numeric",
	"config-interval": "numeric",
	"alignment":       "numeric",
	"streamable":      "boolean",
	"uri":             "url",
	"location":        "url",
	"sync":            "boolean",
	"async":           "boolean",
}

// BuildArgv renders the encoder command line for a validated spec.
// The result starts with the gst-launch executable and never passes
// through a shell.
func BuildArgv(spec *PipelineSpec) ([]string, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	encoder, err := encoderChain(spec)
	if err != nil {
		return nil, err
	}
	sink, err := sinkChain(spec)
	if err != nil {
		return nil, err
	}

	argv := []string{
		"gst-launch-1.0",
		"fdsrc", "do-timestamp=true", "!",
		"rawvideoparse",
		fmt.Sprintf("width=%d", spec.Width),
		fmt.Sprintf("height=%d", spec.Height),
		"format=rgb",
		fmt.Sprintf("framerate=%d/1", spec.FPS),
		"!",
		"videoconvert", "!",
	}
	argv = append(argv, encoder...)
	argv = append(argv, sink...)

	if err := checkArgv(argv); err != nil {
		return nil, err
	}
	return argv, nil
}

func encoderChain(spec *PipelineSpec) ([]string, error) {
	switch spec.Encoder {
	case EncoderX264:
		return []string{
			"x264enc",
			fmt.Sprintf("bitrate=%d", spec.BitrateKbps),
			"speed-preset=ultrafast",
			"tune=zerolatency",
			"key-int-max=24",
			"bframes=0",
			"!",
		}, nil
	case EncoderNVENC:
		return []string{
			"nvh264enc",
			fmt.Sprintf("bitrate=%d", spec.BitrateKbps),
			"preset=low-latency-hq",
			"!",
		}, nil
	case EncoderVAAPI:
		return []string{
			"vaapih264enc",
			fmt.Sprintf("bitrate=%d", spec.BitrateKbps),
			"quality-level=7",
			"!",
		}, nil
	default:
		return nil, &SpecError{"encoder", "must be one of x264, nvenc, vaapi"}
	}
}

func sinkChain(spec *PipelineSpec) ([]string, error) {
	switch spec.Protocol {
	case ProtocolSRT:
		return []string{
			"h264parse", "config-interval=1", "!",
			"mpegtsmux", "alignment=7", "!",
			"srtsink", "uri=" + spec.SinkURL, "sync=false", "async=false",
		}, nil
	case ProtocolRTMP:
		return []string{
			"h264parse", "config-interval=1", "!",
			"flvmux", "streamable=true", "!",
			"rtmpsink", "location=" + spec.SinkURL, "sync=false", "async=false",
		}, nil
	default:
		return nil, &SpecError{"protocol", "must be srt or rtmp"}
	}
}

// checkArgv re-verifies every token against the closed allow-list.
// The builder only emits known tokens, so a failure here means a
// value carried something it must not.
func checkArgv(argv []string) error {
	for _, tok := range argv {
		if allowedElements[tok] {
			continue
		}
		name, value, ok := strings.Cut(tok, "=")
		if !ok {
			return fmt.Errorf("%w: bare token %q", ErrCommandInjection, tok)
		}
		class, ok := allowedProperties[name]
		if !ok {
			return fmt.Errorf("%w: property %q", ErrCommandInjection, name)
		}
		if !propertyClasses[class].MatchString(value) {
			return fmt.Errorf("%w: property %q value fails %s check", ErrCommandInjection, name, class)
		}
	}
	return nil
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
