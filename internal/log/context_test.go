// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-9")
	ctx = ContextWithOperation(ctx, "add_element")

	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("request id = %q, want req-1", got)
	}
	if got := CorrelationIDFromContext(ctx); got != "corr-9" {
		t.Fatalf("correlation id = %q, want corr-9", got)
	}
	if got := OperationFromContext(ctx); got != "add_element" {
		t.Fatalf("operation = %q, want add_element", got)
	}
}

func TestContextAccessorsNilSafe(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	if got := RequestIDFromContext(nil); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
	if got := OperationFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty operation, got %q", got)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "abc-123")
	enriched := WithContext(ctx, logger)
	enriched.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"abc-123"`) {
		t.Fatalf("log line missing request_id: %s", out)
	}
}

func TestWithContextNoFieldsReturnsSame(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithContext(context.Background(), logger)
	enriched.Info().Msg("plain")

	out := buf.String()
	if strings.Contains(out, "request_id") {
		t.Fatalf("unexpected request_id in %s", out)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}
