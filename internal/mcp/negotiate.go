// SPDX-License-Identifier: MIT

package mcp

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/simwire/omnigate/internal/config"
)

// probeTimeout bounds the negotiation health probe; an unreachable
// service falls back to environment credentials quickly rather than
// stalling proxy startup.
const probeTimeout = 5 * time.Second

// Negotiator discovers whether the target service requires
// authentication and which credentials to present. The result is
// cached; a cached config that starts producing 401s triggers exactly
// one re-negotiation.
type Negotiator struct {
	service string
	log     zerolog.Logger
	probe   *http.Client

	mu           sync.Mutex
	creds        Credentials
	negotiated   bool
	renegotiated bool
}

func NewNegotiator(service string, log zerolog.Logger) *Negotiator {
	return &Negotiator{
		service: service,
		log:     log.With().Str("component", "mcp-negotiate").Logger(),
		probe:   &http.Client{Timeout: probeTimeout},
	}
}

// Credentials returns the cached outbound credentials, negotiating
// against baseURL on first use.
func (n *Negotiator) Credentials(ctx context.Context, baseURL string) Credentials {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.negotiated {
		n.creds = n.negotiate(ctx, baseURL)
		n.negotiated = true
	}
	return n.creds
}

// Invalidate drops the cached result after a 401 so the next call
// re-negotiates. It may be used once per process; repeated 401s after
// a fresh negotiation mean the environment itself is wrong.
func (n *Negotiator) Invalidate() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.renegotiated {
		return false
	}
	n.renegotiated = true
	n.negotiated = false
	return true
}

func (n *Negotiator) negotiate(ctx context.Context, baseURL string) Credentials {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return envCredentials(n.service)
	}
	resp, err := n.probe.Do(req)
	if err != nil {
		n.log.Warn().Err(err).Str("event", "mcp.negotiate_unreachable").Str("base_url", baseURL).
			Msg("health probe failed; using environment auth configuration")
		return envCredentials(n.service)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		n.log.Info().Str("event", "mcp.negotiate_open").Str("base_url", baseURL).
			Msg("service accepts unauthenticated requests")
		return Credentials{}
	case http.StatusUnauthorized:
		challenge := resp.Header.Get("WWW-Authenticate")
		if !strings.Contains(challenge, "HMAC-SHA256") {
			n.log.Warn().Str("event", "mcp.negotiate_unknown_scheme").Str("challenge", challenge).
				Msg("unrecognized auth challenge; using environment auth configuration")
		} else {
			n.log.Info().Str("event", "mcp.negotiate_401").Str("base_url", baseURL).
				Msg("service requires signed requests")
		}
		return envCredentials(n.service)
	default:
		n.log.Warn().Str("event", "mcp.negotiate_unexpected").Int("status", resp.StatusCode).
			Msg("unexpected health status; using environment auth configuration")
		return envCredentials(n.service)
	}
}

// envCredentials reads the service-specific variables first, the
// global AGENT_EXT fallbacks second.
func envCredentials(service string) Credentials {
	prefix := config.EnvPrefix(service)
	return Credentials{
		Secret: config.ParseString(prefix+"_HMAC_SECRET", config.ParseString("AGENT_EXT_HMAC_SECRET", "")),
		Token:  config.ParseString(prefix+"_AUTH_TOKEN", config.ParseString("AGENT_EXT_AUTH_TOKEN", "")),
	}
}
