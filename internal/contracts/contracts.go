// SPDX-License-Identifier: MIT

// Package contracts defines the transport contract registry: the static
// binding of each logical operation to its HTTP route, HTTP method and
// MCP tool name, plus the dispatch metadata (queue channel, timeout
// class) the controller layer keys on.
package contracts

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Dispatch selects how a controller executes an operation.
type Dispatch int

const (
	// DispatchInline runs on the HTTP worker: read-only or store-local
	// work that never touches the scene graph.
	DispatchInline Dispatch = iota
	// DispatchQueued enqueues the operation for the tick executor.
	DispatchQueued
)

// Class groups operations for timeout selection and queue-channel
// assignment.
type Class string

const (
	ClassQuery   Class = "query"
	ClassElement Class = "element"
	ClassBatch   Class = "batch"
	ClassAsset   Class = "asset"
	ClassStream  Class = "stream"
	ClassRecord  Class = "record"
)

// Param documents one operation parameter. The MCP input schema and the
// OpenAPI document are both generated from it; schemas carry
// descriptions only, and array lengths stay prose (the validator
// re-checks them).
type Param struct {
	Name        string
	Type        string // string | number | integer | boolean | array | object
	Required    bool
	Description string
}

// Contract binds one operation to its transport surfaces.
type Contract struct {
	Operation   string
	Route       string // always with leading slash
	Method      string // http.MethodGet or http.MethodPost
	MCPTool     string
	Alias       bool // legacy surface pointing at a shared operation
	Dispatch    Dispatch
	Class       Class
	Description string
	Params      []Param
}

// Registry holds one service's contract table with both lookup maps.
type Registry struct {
	service   string
	contracts []Contract
	byRoute   map[string]*Contract // "METHOD route"
	byTool    map[string]*Contract
}

// New validates the table and builds the lookup maps. Route+method and
// mcp_tool must be unique; a repeated operation is only legal when the
// repeat is marked as an alias.
func New(service string, table []Contract) (*Registry, error) {
	r := &Registry{
		service:   service,
		contracts: table,
		byRoute:   make(map[string]*Contract, len(table)),
		byTool:    make(map[string]*Contract, len(table)),
	}
	ops := make(map[string]bool, len(table))
	for i := range table {
		c := &table[i]
		if !strings.HasPrefix(c.Route, "/") {
			return nil, fmt.Errorf("contracts: %s: route %q lacks leading slash", c.Operation, c.Route)
		}
		if c.Method != http.MethodGet && c.Method != http.MethodPost {
			return nil, fmt.Errorf("contracts: %s: method %q not allowed", c.Operation, c.Method)
		}
		rk := c.Method + " " + c.Route
		if _, dup := r.byRoute[rk]; dup {
			return nil, fmt.Errorf("contracts: duplicate route %q", rk)
		}
		if _, dup := r.byTool[c.MCPTool]; dup {
			return nil, fmt.Errorf("contracts: duplicate mcp tool %q", c.MCPTool)
		}
		if ops[c.Operation] && !c.Alias {
			return nil, fmt.Errorf("contracts: operation %q repeated without alias flag", c.Operation)
		}
		ops[c.Operation] = true
		r.byRoute[rk] = c
		r.byTool[c.MCPTool] = c
	}
	return r, nil
}

// MustNew is New for the static per-service tables, which cannot fail
// unless the table itself is broken.
func MustNew(service string, table []Contract) *Registry {
	r, err := New(service, table)
	if err != nil {
		panic(err)
	}
	return r
}

// Service returns the service name the registry was built for.
func (r *Registry) Service() string { return r.service }

// All returns the contract table in declaration order.
func (r *Registry) All() []Contract { return r.contracts }

// ByRoute resolves (method, route) to its contract.
func (r *Registry) ByRoute(method, route string) (*Contract, bool) {
	c, ok := r.byRoute[method+" "+route]
	return c, ok
}

// ByTool resolves an MCP tool name to its contract.
func (r *Registry) ByTool(tool string) (*Contract, bool) {
	c, ok := r.byTool[tool]
	return c, ok
}

// Operations returns the distinct operation names (aliases collapse).
func (r *Registry) Operations() []string {
	seen := make(map[string]bool, len(r.contracts))
	var out []string
	for i := range r.contracts {
		op := r.contracts[i].Operation
		if !seen[op] {
			seen[op] = true
			out = append(out, op)
		}
	}
	return out
}

// SelfCheck asserts that every operation has an implementation. The
// daemon runs it at startup and fails fast on contract drift.
func (r *Registry) SelfCheck(implemented func(operation string) bool) error {
	var missing []string
	for _, op := range r.Operations() {
		if !implemented(op) {
			missing = append(missing, op)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("contracts: operations without implementation: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Timeouts maps a timeout class to its configured duration.
type Timeouts struct {
	Query   time.Duration
	Element time.Duration
	Batch   time.Duration
	Asset   time.Duration
	Stream  time.Duration
	Record  time.Duration
}

// For returns the dispatch timeout for a class, with a conservative
// fallback for anything unclassified.
func (t Timeouts) For(class Class) time.Duration {
	switch class {
	case ClassQuery:
		return t.Query
	case ClassElement:
		return t.Element
	case ClassBatch:
		return t.Batch
	case ClassAsset:
		return t.Asset
	case ClassStream:
		return t.Stream
	case ClassRecord:
		return t.Record
	default:
		return 10 * time.Second
	}
}
