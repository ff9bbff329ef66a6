// SPDX-License-Identifier: MIT

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/simwire/omnigate/internal/contracts"
	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/telemetry"
)

// Client forwards tool invocations to the service's HTTP routes with
// signed requests and per-class timeouts.
type Client struct {
	registry *contracts.Registry
	timeouts contracts.Timeouts
	neg      *Negotiator
	httpc    *http.Client
	log      zerolog.Logger

	baseURLs []string
	mu       sync.Mutex
	active   string
}

func NewClient(registry *contracts.Registry, baseURLs []string, timeouts contracts.Timeouts, requestTimeout time.Duration, log zerolog.Logger) *Client {
	c := &Client{
		registry: registry,
		timeouts: timeouts,
		neg:      NewNegotiator(registry.Service(), log),
		baseURLs: baseURLs,
		log:      log.With().Str("component", "mcp-client").Logger(),
	}
	c.httpc = newSigningClient(func() Credentials {
		return c.neg.Credentials(context.Background(), c.BaseURL())
	}, requestTimeout)
	return c
}

// BaseURL returns the active base URL, defaulting to the first
// candidate before detection has run.
func (c *Client) BaseURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != "" {
		return c.active
	}
	if len(c.baseURLs) > 0 {
		return c.baseURLs[0]
	}
	return ""
}

// Detect probes the candidate base URLs with an authenticated /health
// and activates the first that answers success=true. Services deployed
// in two protocol variants publish both candidates; only one is live.
func (c *Client) Detect(ctx context.Context) error {
	for _, base := range c.baseURLs {
		env, err := c.getJSON(ctx, base+"/health")
		if err != nil || !env.Success() {
			c.log.Debug().Str("event", "mcp.detect_miss").Str("base_url", base).Msg("candidate not live")
			continue
		}
		c.mu.Lock()
		c.active = base
		c.mu.Unlock()
		c.log.Info().Str("event", "mcp.detect_active").Str("base_url", base).Msg("service endpoint selected")
		return nil
	}
	return fmt.Errorf("mcp: no live endpoint among %d candidates", len(c.baseURLs))
}

// Call forwards one tool invocation and returns the service's envelope
// or a transport-level error envelope.
func (c *Client) Call(ctx context.Context, ct *contracts.Contract, args map[string]any) envelope.Envelope {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.For(ct.Class))
	defer cancel()

	env := c.forward(ctx, ct, args)
	if env.Code() == envelope.CodeUnauthorized && c.neg.Invalidate() {
		c.log.Warn().Str("event", "mcp.renegotiate").Str("operation", ct.Operation).
			Msg("cached credentials rejected; renegotiating once")
		env = c.forward(ctx, ct, args)
	}
	return env
}

func (c *Client) forward(ctx context.Context, ct *contracts.Contract, args map[string]any) envelope.Envelope {
	req, err := c.buildRequest(ctx, ct, args)
	if err != nil {
		return envelope.ErrorWithDetails(envelope.CodeValidationError, "Failed to build request",
			map[string]any{"operation": ct.Operation, "reason": err.Error()})
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return envelope.ErrorWithDetails(envelope.CodeRequestTimeout, "Service did not respond in time",
				map[string]any{"operation": ct.Operation})
		}
		return envelope.ErrorWithDetails(envelope.CodeConnectionError, "Service is unreachable",
			map[string]any{"operation": ct.Operation, "reason": err.Error()})
	}
	defer resp.Body.Close()
	trace.SpanFromContext(ctx).SetAttributes(
		telemetry.HTTPAttributes(ct.Method, ct.Route, req.URL.String(), resp.StatusCode)...)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope.ErrorWithDetails(envelope.CodeConnectionError, "Failed to read response",
			map[string]any{"operation": ct.Operation, "reason": err.Error()})
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return envelope.ErrorWithDetails(envelope.CodeEmptyResponse, "Service returned an empty response",
			map[string]any{"operation": ct.Operation})
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return envelope.ErrorWithDetails(envelope.CodeInvalidResponse, "Service response is not a JSON object",
			map[string]any{"operation": ct.Operation, "status": resp.StatusCode})
	}
	return envelope.Normalize(envelope.OperationFailed(ct.Operation), parsed)
}

func (c *Client) buildRequest(ctx context.Context, ct *contracts.Contract, args map[string]any) (*http.Request, error) {
	target := c.BaseURL() + ct.Route

	if ct.Method == http.MethodGet {
		q := url.Values{}
		for k, v := range args {
			s, err := queryValue(v)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", k, err)
			}
			q.Set(k, s)
		}
		if encoded := q.Encode(); encoded != "" {
			target += "?" + encoded
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// queryValue flattens a tool argument into its query-string form:
// scalars verbatim, arrays comma-joined, objects as JSON.
func queryValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			s, err := queryValue(e)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return strings.Join(parts, ","), nil
	case map[string]any:
		raw, err := json.Marshal(t)
		return string(raw), err
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported query value type %T", v)
	}
}

func (c *Client) getJSON(ctx context.Context, target string) (envelope.Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var parsed map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return envelope.Envelope(parsed), nil
}
