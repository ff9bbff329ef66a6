// SPDX-License-Identifier: MIT

// Package mcp implements the proxy between an MCP agent client and one
// omnigate service: contract-derived tool registration, outbound HMAC
// signing with credential auto-negotiation, and stdio or streamable
// HTTP transports.
package mcp

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/simwire/omnigate/internal/auth"
)

// Credentials is the outbound auth material for one service.
type Credentials struct {
	Secret string
	Token  string
}

// Empty reports whether the target requires no authentication.
func (c Credentials) Empty() bool { return c.Secret == "" && c.Token == "" }

// signingTransport signs every outbound request. The query string is
// re-encoded before signing so the canonical form (sorted keys, URL
// escaping) is both what is signed and what is sent.
type signingTransport struct {
	next  http.RoundTripper
	creds func() Credentials
	now   func() time.Time
}

func (t *signingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c := t.creds()
	if c.Empty() {
		return t.next.RoundTrip(r)
	}

	// Per RoundTripper contract the request is not mutated; sign a clone.
	req := r.Clone(r.Context())
	req.URL.RawQuery = req.URL.Query().Encode()

	if c.Secret != "" {
		ts := auth.Timestamp(t.now())
		req.Header.Set("X-Timestamp", ts)
		req.Header.Set("X-Signature", auth.Sign([]byte(c.Secret), req.Method, req.URL.RequestURI(), ts))
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return t.next.RoundTrip(req)
}

func newSigningClient(creds func() Credentials, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &signingTransport{
			next:  otelhttp.NewTransport(http.DefaultTransport),
			creds: creds,
			now:   time.Now,
		},
	}
}
