// SPDX-License-Identifier: MIT

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/simwire/omnigate/internal/contracts"
	"github.com/simwire/omnigate/internal/envelope"
)

// Proxy exposes one service's contracts as MCP tools and forwards
// every invocation through Client.
type Proxy struct {
	client   *Client
	registry *contracts.Registry
	srv      *server.MCPServer
	log      zerolog.Logger
}

func NewProxy(client *Client, version string, log zerolog.Logger) *Proxy {
	p := &Proxy{
		client:   client,
		registry: client.registry,
		log:      log.With().Str("component", "mcp-proxy").Logger(),
	}
	p.srv = server.NewMCPServer(
		"omnigate-"+p.registry.Service(),
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, ct := range p.registry.All() {
		contract := ct
		p.srv.AddTool(toolFromContract(&contract), p.handler(&contract))
	}
	return p
}

// ServeStdio speaks MCP over stdin/stdout until the stream closes.
func (p *Proxy) ServeStdio(ctx context.Context) error {
	p.log.Info().Str("service", p.registry.Service()).Msg("mcp proxy serving on stdio")
	return server.NewStdioServer(p.srv).Listen(ctx, os.Stdin, os.Stdout)
}

// ServeHTTP speaks MCP over the streamable HTTP transport at /mcp
// until ctx is cancelled.
func (p *Proxy) ServeHTTP(ctx context.Context, addr string) error {
	streamable := server.NewStreamableHTTPServer(p.srv, server.WithEndpointPath("/mcp"))
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           streamable,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		p.log.Info().Str("addr", addr).Msg("mcp proxy serving streamable http")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func (p *Proxy) handler(ct *contracts.Contract) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		env := p.client.Call(ctx, ct, args)
		if !env.Success() {
			p.log.Debug().
				Str("event", "mcp.tool_error").
				Str("tool", ct.MCPTool).
				Str("error_code", env.Code()).
				Msg("forwarded call failed")
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s", env.Code(), env.Message())), nil
		}
		return mcp.NewToolResultStructured(map[string]any(env), summarize(ct, env)), nil
	}
}

// toolFromContract builds the description-only input schema. Array
// length and value-range constraints stay prose; the service-side
// validators enforce them.
func toolFromContract(ct *contracts.Contract) mcp.Tool {
	properties := make(map[string]any, len(ct.Params))
	var required []string
	for _, p := range ct.Params {
		properties[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return mcp.Tool{
		Name:        ct.MCPTool,
		Description: ct.Description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

// summarize renders the human-readable fallback text for a successful
// envelope.
func summarize(ct *contracts.Contract, env envelope.Envelope) string {
	raw, err := json.Marshal(env)
	if err != nil {
		return ct.Operation + " succeeded"
	}
	return string(raw)
}
