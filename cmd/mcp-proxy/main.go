// SPDX-License-Identifier: MIT

// The mcp-proxy binary bridges an MCP agent client to one omnigate
// service: it registers the service's contracts as tools and forwards
// each call over signed HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/simwire/omnigate/internal/config"
	"github.com/simwire/omnigate/internal/contracts"
	"github.com/simwire/omnigate/internal/log"
	"github.com/simwire/omnigate/internal/mcp"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mcp-proxy: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "path to YAML config file")
		serviceName = flag.String("service", "", "service to proxy (overrides config)")
		transport   = flag.String("transport", "", "stdio or http (overrides config)")
		listenAddr  = flag.String("listen", "", "listen address for the http transport (overrides config)")
		baseURLs    = flag.String("base-urls", "", "comma-separated candidate service base URLs (overrides config)")
	)
	flag.Parse()

	loader := config.NewLoader(*configPath, version)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *serviceName != "" {
		cfg.Service = *serviceName
	}
	if *transport != "" {
		cfg.MCP.Transport = *transport
	}
	if *listenAddr != "" {
		cfg.MCP.ListenAddr = *listenAddr
	}
	if *baseURLs != "" {
		cfg.MCP.BaseURLs = strings.Split(*baseURLs, ",")
	}

	// Stdio carries the protocol itself, so logs must stay off stdout.
	log.Configure(log.Config{Level: cfg.LogLevel, Output: os.Stderr, Service: cfg.Service + "-proxy"})
	logger := log.WithComponent("mcp-proxy")

	registry, ok := contracts.ForService(cfg.Service)
	if !ok {
		return fmt.Errorf("unknown service %q (want one of %v)", cfg.Service, config.Services)
	}
	if len(cfg.MCP.BaseURLs) == 0 {
		return errors.New("no service base URLs configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	timeouts := contracts.Timeouts{
		Query:   cfg.Timeouts.Query,
		Element: cfg.Timeouts.Element,
		Batch:   cfg.Timeouts.Batch,
		Asset:   cfg.Timeouts.Asset,
		Stream:  cfg.Timeouts.Stream,
		Record:  cfg.Timeouts.Record,
	}
	client := mcp.NewClient(registry, cfg.MCP.BaseURLs, timeouts, cfg.MCP.RequestTimeout, log.Base())
	if err := client.Detect(ctx); err != nil {
		logger.Warn().Err(err).Msg("endpoint detection failed; using first candidate")
	}

	proxy := mcp.NewProxy(client, version, log.Base())

	switch cfg.MCP.Transport {
	case "", "stdio":
		return proxy.ServeStdio(ctx)
	case "http":
		return proxy.ServeHTTP(ctx, cfg.MCP.ListenAddr)
	default:
		return fmt.Errorf("unknown mcp transport %q (want stdio or http)", cfg.MCP.Transport)
	}
}
