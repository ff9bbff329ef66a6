// SPDX-License-Identifier: MIT

package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/telemetry"
	"github.com/simwire/omnigate/internal/tracker"
)

// Handler executes one operation against the host scene graph. It runs
// on the tick thread and must not block on I/O.
type Handler func(ctx context.Context, payload map[string]any) envelope.Envelope

// Executor drains the queue on each render tick. Exactly one executor
// exists per service; Tick is only ever called from the host's frame
// callback, so handler execution is single-threaded.
type Executor struct {
	queue    *Queue
	tracker  *tracker.Tracker
	budget   int
	handlers map[string]Handler
	log      zerolog.Logger

	tracer   trace.Tracer
	queueAge otelmetric.Float64Histogram

	tick int
}

// NewExecutor builds the tick executor. budget is
// max_operations_per_cycle; non-positive values fall back to 2.
func NewExecutor(q *Queue, tr *tracker.Tracker, budget int, log zerolog.Logger) *Executor {
	if budget <= 0 {
		budget = 2
	}
	meter := otel.Meter("github.com/simwire/omnigate/internal/queue")
	queueAge, err := meter.Float64Histogram("queue_wait_ms",
		otelmetric.WithDescription("Time an operation waited in the queue before its tick"),
		otelmetric.WithUnit("ms"))
	if err != nil {
		log.Warn().Err(err).Str("event", "tick.instrument_failed").Msg("queue wait instrument unavailable")
	}
	return &Executor{
		queue:    q,
		tracker:  tr,
		budget:   budget,
		handlers: make(map[string]Handler),
		log:      log.With().Str("component", "executor").Logger(),
		tracer:   otel.Tracer("github.com/simwire/omnigate/internal/queue"),
		queueAge: queueAge,
	}
}

// Register binds an operation name to its handler. Later registrations
// for the same name win; alias operations register the shared handler
// under each name.
func (e *Executor) Register(operation string, h Handler) {
	e.handlers[operation] = h
}

// Handles reports whether an operation has a registered handler. The
// startup self-check uses it to fail fast on contract table drift.
func (e *Executor) Handles(operation string) bool {
	_, ok := e.handlers[operation]
	return ok
}

// Budget returns max_operations_per_cycle.
func (e *Executor) Budget() int { return e.budget }

// Tick drains up to the per-cycle budget and executes each entry. It
// returns the number of entries processed.
func (e *Executor) Tick(ctx context.Context) int {
	entries := e.queue.Drain(e.budget, e.tick)
	e.tick++
	if len(entries) == 0 {
		return 0
	}

	e.log.Debug().Str("event", "tick.drain").Int("count", len(entries)).Msg("draining queue")
	for _, entry := range entries {
		e.execute(ctx, entry)
	}
	return len(entries)
}

func (e *Executor) execute(ctx context.Context, entry *Entry) {
	ctx, span := e.tracer.Start(ctx, "tick.execute",
		trace.WithAttributes(telemetry.OperationAttributes(
			entry.Operation, entry.CorrelationID, string(entry.Channel), e.tick)...))
	defer span.End()

	start := time.Now()
	if e.queueAge != nil {
		wait := start.Sub(entry.EnqueuedAt)
		e.queueAge.Record(ctx, float64(wait.Microseconds())/1000.0,
			otelmetric.WithAttributes(attribute.String("channel", string(entry.Channel))))
	}

	// Request metrics are recorded once, by the HTTP middleware; the
	// executor only logs and traces.
	env := e.invoke(ctx, entry)
	elapsed := time.Since(start)

	if !env.Success() {
		e.log.Warn().
			Str("event", "tick.operation_failed").
			Str("operation", entry.Operation).
			Str("error_code", env.Code()).
			Dur("duration", elapsed).
			Msg(env.Message())
	}

	if entry.TrackerID != "" {
		if env.Success() {
			e.tracker.MarkCompleted(entry.TrackerID, env, nil)
		} else {
			e.tracker.MarkCompleted(entry.TrackerID, nil, env)
		}
	}
	entry.deliver(env)
}

// invoke runs the handler with panic containment: a panicking handler
// must not take down the render loop.
func (e *Executor) invoke(ctx context.Context, entry *Entry) (env envelope.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().
				Str("event", "tick.handler_panic").
				Str("operation", entry.Operation).
				Interface("panic", r).
				Msg("handler panicked")
			env = envelope.Error(envelope.OperationFailed(entry.Operation),
				fmt.Sprintf("operation %s failed", entry.Operation))
		}
	}()

	h, ok := e.handlers[entry.Operation]
	if !ok {
		return envelope.Error(envelope.CodeUnknownTool,
			fmt.Sprintf("no handler registered for operation %s", entry.Operation))
	}
	return envelope.Normalize(envelope.OperationFailed(entry.Operation), h(ctx, entry.Payload))
}

// Run pumps Tick at the configured rate until ctx is cancelled. It is
// the embedded substitute for an external rendering host's frame
// callback; a real host calls Tick directly instead. frameHooks run
// after each drain, in order, on the same tick thread (the video
// recorder captures its frame here).
func (e *Executor) Run(ctx context.Context, rateHz int, frameHooks ...func()) error {
	if rateHz <= 0 {
		rateHz = 60
	}
	interval := time.Second / time.Duration(rateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.log.Info().Str("event", "tick.loop_started").Int("rate_hz", rateHz).Msg("tick loop running")
	for {
		select {
		case <-ctx.Done():
			e.log.Info().Str("event", "tick.loop_stopped").Msg("tick loop stopped")
			return ctx.Err()
		case <-ticker.C:
			e.Tick(ctx)
			for _, hook := range frameHooks {
				hook()
			}
		}
	}
}
