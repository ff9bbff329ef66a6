// SPDX-License-Identifier: MIT

// Package service implements the controller layer: one function per
// contract operation, validating its payload, running it inline or
// through the render-tick queue, and normalizing the result envelope.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/simwire/omnigate/internal/assets"
	"github.com/simwire/omnigate/internal/config"
	"github.com/simwire/omnigate/internal/contracts"
	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/metrics"
	"github.com/simwire/omnigate/internal/queue"
	"github.com/simwire/omnigate/internal/scene"
	"github.com/simwire/omnigate/internal/stream"
	"github.com/simwire/omnigate/internal/tracker"
	"github.com/simwire/omnigate/internal/waypoint"
)

// validator cleans a payload before dispatch. A non-nil envelope means
// rejection; the cleaned map is what gets executed.
type validator func(payload map[string]any) (map[string]any, envelope.Envelope)

// inlineFn runs on the HTTP worker.
type inlineFn func(ctx context.Context, payload map[string]any) envelope.Envelope

// operation is one registered controller function.
type operation struct {
	validate validator
	inline   inlineFn      // nil for queued operations
	tick     queue.Handler // nil for inline operations
}

// Deps carries everything a Controller may need. Fields unused by the
// configured service stay nil.
type Deps struct {
	Registry *contracts.Registry
	Holder   *config.Holder
	Host     scene.Host
	Tracker  *tracker.Tracker
	Queue    *queue.Queue
	Executor *queue.Executor
	Metrics  *metrics.Registry
	Store    *waypoint.Store
	Streams  *stream.Manager
	Recorder *VideoRecorder
	Guard    *assets.PathGuard
	Log      zerolog.Logger
}

// Controller dispatches contract operations for one service.
type Controller struct {
	Deps
	service string
	ops     map[string]*operation
}

// New builds the controller for the registry's service and registers
// its tick handlers on the executor.
func New(d Deps) (*Controller, error) {
	c := &Controller{
		Deps:    d,
		service: d.Registry.Service(),
		ops:     make(map[string]*operation),
	}
	c.registerStatusOps()
	switch c.service {
	case config.ServiceSceneBuilder:
		c.registerSceneOps()
	case config.ServiceCamera:
		c.registerCameraOps()
	case config.ServiceSurveyor:
		c.registerWaypointOps()
		c.registerMarkerOps()
	case config.ServiceRecorder:
		c.registerRecorderOps()
	case config.ServiceStreamer:
		c.registerStreamerOps()
	}
	if err := d.Registry.SelfCheck(c.Handles); err != nil {
		return nil, err
	}
	return c, nil
}

// Handles reports whether an operation has a controller function.
func (c *Controller) Handles(op string) bool {
	_, ok := c.ops[op]
	return ok
}

// registerInline installs an operation running on the HTTP worker.
func (c *Controller) registerInline(op string, v validator, fn inlineFn) {
	c.ops[op] = &operation{validate: v, inline: fn}
}

// registerQueued installs an operation executed by the tick executor.
func (c *Controller) registerQueued(op string, v validator, h queue.Handler) {
	c.ops[op] = &operation{validate: v, tick: h}
	c.Executor.Register(op, h)
}

// channelFor maps a contract class onto its queue channel.
func channelFor(class contracts.Class) queue.Channel {
	switch class {
	case contracts.ClassElement:
		return queue.ChannelElements
	case contracts.ClassBatch:
		return queue.ChannelBatches
	case contracts.ClassAsset:
		return queue.ChannelAssets
	default:
		return queue.ChannelOther
	}
}

// timeouts reads the current dispatch timeout table.
func (c *Controller) timeouts() contracts.Timeouts {
	t := c.Holder.Current().Timeouts
	return contracts.Timeouts{
		Query:   t.Query,
		Element: t.Element,
		Batch:   t.Batch,
		Asset:   t.Asset,
		Stream:  t.Stream,
		Record:  t.Record,
	}
}

// Dispatch validates and executes one contract operation. Queued
// operations wait for the tick result up to the class timeout; on
// expiry the entry stays queued and the tracker keeps its outcome for
// request_status polling.
func (c *Controller) Dispatch(ctx context.Context, ct *contracts.Contract, payload map[string]any) envelope.Envelope {
	op, ok := c.ops[ct.Operation]
	if !ok {
		return envelope.Error(envelope.CodeUnknownTool, "Unknown operation: "+ct.Operation)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if op.validate != nil {
		cleaned, errEnv := op.validate(payload)
		if errEnv != nil {
			return errEnv
		}
		payload = cleaned
	}

	if op.inline != nil {
		return envelope.Normalize(envelope.OperationFailed(ct.Operation), op.inline(ctx, payload))
	}

	requestID := uuid.NewString()
	c.Tracker.Add(requestID, ct.Operation, payload)
	entry, err := c.Queue.Enqueue(channelFor(ct.Class), ct.Operation, payload, requestID)
	if err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			c.Tracker.MarkCompleted(requestID, nil,
				envelope.Error(envelope.CodeQueueFull, "Request queue is full"))
			return envelope.Error(envelope.CodeQueueFull, "Request queue is full")
		}
		return envelope.Error(envelope.CodeServiceUnavailable, "Service is shutting down")
	}

	timeout := c.timeouts().For(ct.Class)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case env := <-entry.Result():
		// Carry the correlation id so callers can poll request_status.
		if _, ok := env["request_id"]; !ok {
			env = env.Clone()
			env["request_id"] = requestID
		}
		return env
	case <-timer.C:
		c.Log.Warn().
			Str("event", "dispatch.timeout").
			Str("operation", ct.Operation).
			Str("request_id", requestID).
			Dur("timeout", timeout).
			Msg("queued operation did not complete in time")
		return envelope.ErrorWithDetails(envelope.CodeRequestTimeout,
			"Operation did not complete in time",
			map[string]any{"request_id": requestID})
	case <-ctx.Done():
		return envelope.ErrorWithDetails(envelope.CodeRequestTimeout,
			"Request cancelled",
			map[string]any{"request_id": requestID})
	}
}
