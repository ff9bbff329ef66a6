// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/stream"
	"github.com/simwire/omnigate/internal/telemetry"
	"github.com/simwire/omnigate/internal/validate"
)

var (
	streamEncoders  = []string{stream.EncoderX264, stream.EncoderNVENC, stream.EncoderVAAPI}
	streamProtocols = []string{stream.ProtocolSRT, stream.ProtocolRTMP}
)

func (c *Controller) registerStreamerOps() {
	c.registerInline("streaming_start", c.validateStreamingStart, c.streamingStart)
	c.registerInline("streaming_stop", nil, c.streamingStop)
	c.registerInline("streaming_status", nil, c.streamingStatus)
	c.registerInline("streaming_urls", nil, c.streamingURLs)
	c.registerInline("streaming_environment_validate", c.validateEnvironment, c.environmentValidate)
}

// streamSpec folds request overrides over the configured defaults.
// The pipeline's own Validate runs afterwards, so only type coercion
// happens here.
func (c *Controller) streamSpec(p map[string]any) (*stream.PipelineSpec, envelope.Envelope) {
	cfg := c.Holder.Current().Streaming
	spec := &stream.PipelineSpec{
		Width:       cfg.Width,
		Height:      cfg.Height,
		FPS:         cfg.FPS,
		BitrateKbps: cfg.BitrateKbps,
		Encoder:     cfg.Encoder,
		Protocol:    cfg.Protocol,
		SinkURL:     cfg.SinkURL,
	}
	b := validate.NewBatch()
	if has(p, "width") {
		spec.Width = b.Int("width", p["width"], nil, nil)
	}
	if has(p, "height") {
		spec.Height = b.Int("height", p["height"], nil, nil)
	}
	if has(p, "fps") {
		spec.FPS = b.Int("fps", p["fps"], nil, nil)
	}
	if has(p, "bitrate_kbps") {
		spec.BitrateKbps = b.Int("bitrate_kbps", p["bitrate_kbps"], nil, nil)
	}
	if has(p, "encoder") {
		spec.Encoder = b.Enum("encoder", p["encoder"], streamEncoders)
	}
	if has(p, "protocol") {
		spec.Protocol = b.Enum("protocol", p["protocol"], streamProtocols)
	}
	if has(p, "sink_url") {
		spec.SinkURL = b.String("sink_url", p["sink_url"], validate.StringOpts{MinLen: 1, MaxLen: 2048, Reject: validate.ClassURL})
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return spec, nil
}

func (c *Controller) validateStreamingStart(p map[string]any) (map[string]any, envelope.Envelope) {
	spec, env := c.streamSpec(p)
	if env != nil {
		return nil, env
	}
	if err := spec.Validate(); err != nil {
		return nil, streamError("streaming_start", err)
	}
	return map[string]any{"spec": spec}, nil
}

func (c *Controller) streamingStart(ctx context.Context, p map[string]any) envelope.Envelope {
	spec, _ := p["spec"].(*stream.PipelineSpec)
	if spec != nil {
		trace.SpanFromContext(ctx).SetAttributes(
			telemetry.StreamAttributes(spec.Protocol, spec.Encoder)...)
	}
	started, err := c.Streams.Start(spec)
	if err != nil {
		return streamError("streaming_start", err)
	}
	st := c.Streams.Status()
	return envelope.OK(map[string]any{
		"started": started,
		"running": st.Running,
		"pid":     st.PID,
		"spec":    st.Spec,
	})
}

func (c *Controller) streamingStop(_ context.Context, _ map[string]any) envelope.Envelope {
	stopped, err := c.Streams.Stop()
	if err != nil {
		return streamError("streaming_stop", err)
	}
	return envelope.OK(map[string]any{"stopped": stopped})
}

func (c *Controller) streamingStatus(_ context.Context, _ map[string]any) envelope.Envelope {
	st := c.Streams.Status()
	result := map[string]any{
		"running":        st.Running,
		"frames_written": st.FramesWritten,
	}
	if st.Running {
		result["pid"] = st.PID
		result["spec"] = st.Spec
		result["started_at"] = st.StartedAt.UTC().Format(time.RFC3339)
	}
	return envelope.OK(result)
}

// streamingURLs reports the active sink when streaming, otherwise the
// configured one.
func (c *Controller) streamingURLs(_ context.Context, _ map[string]any) envelope.Envelope {
	cfg := c.Holder.Current().Streaming
	sinkURL, protocol := cfg.SinkURL, cfg.Protocol
	st := c.Streams.Status()
	if st.Running && st.Spec != nil {
		sinkURL, protocol = st.Spec.SinkURL, st.Spec.Protocol
	}
	return envelope.OK(map[string]any{
		"protocol": protocol,
		"sink_url": sinkURL,
		"active":   st.Running,
	})
}

func (c *Controller) validateEnvironment(p map[string]any) (map[string]any, envelope.Envelope) {
	out := map[string]any{}
	b := validate.NewBatch()
	if has(p, "encoder") {
		out["encoder"] = b.Enum("encoder", p["encoder"], streamEncoders)
	}
	if has(p, "protocol") {
		out["protocol"] = b.Enum("protocol", p["protocol"], streamProtocols)
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	return out, nil
}

// environmentValidate builds the would-be pipeline and reports whether
// it passes the allow-list, without launching anything.
func (c *Controller) environmentValidate(_ context.Context, p map[string]any) envelope.Envelope {
	spec, env := c.streamSpec(p)
	if env != nil {
		return env
	}
	result := map[string]any{
		"encoder":  spec.Encoder,
		"protocol": spec.Protocol,
	}
	if err := spec.Validate(); err != nil {
		result["valid"] = false
		result["reason"] = err.Error()
		return envelope.OK(result)
	}
	argv, err := stream.BuildArgv(spec)
	if err != nil {
		result["valid"] = false
		result["reason"] = err.Error()
		return envelope.OK(result)
	}
	result["valid"] = true
	result["pipeline_elements"] = len(argv)
	return envelope.OK(result)
}

// streamError maps pipeline and manager failures onto wire codes.
func streamError(op string, err error) envelope.Envelope {
	var se *stream.SpecError
	switch {
	case errors.Is(err, stream.ErrCommandInjection):
		return envelope.Error(envelope.CodeCommandInjection, err.Error())
	case errors.As(err, &se):
		return envelope.ErrorWithDetails(envelope.CodeValidationError, se.Error(),
			map[string]any{"parameter": se.Field})
	default:
		return envelope.Error(envelope.OperationFailed(op), err.Error())
	}
}
