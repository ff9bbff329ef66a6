// SPDX-License-Identifier: MIT

package api

import (
	"net/url"

	"github.com/oapi-codegen/runtime"

	"github.com/simwire/omnigate/internal/contracts"
	"github.com/simwire/omnigate/internal/envelope"
)

// bindQuery converts query parameters into the generic payload map
// using the contract's declared parameter types. Presence checks and
// domain validation stay with the controller validators; this layer
// only fixes the wire types so GET and POST payloads look the same
// downstream.
func bindQuery(ct *contracts.Contract, q url.Values) (map[string]any, envelope.Envelope) {
	payload := make(map[string]any, len(ct.Params))
	for _, p := range ct.Params {
		if !q.Has(p.Name) {
			continue
		}
		v, err := bindParam(p, q)
		if err != nil {
			return nil, envelope.ErrorWithDetails(envelope.CodeValidationError,
				"Invalid query parameter", map[string]any{"parameter": p.Name, "reason": err.Error()})
		}
		payload[p.Name] = v
	}
	return payload, nil
}

func bindParam(p contracts.Param, q url.Values) (any, error) {
	switch p.Type {
	case "number":
		var f float64
		if err := runtime.BindQueryParameter("form", true, false, p.Name, q, &f); err != nil {
			return nil, err
		}
		return f, nil
	case "integer":
		var n int
		if err := runtime.BindQueryParameter("form", true, false, p.Name, q, &n); err != nil {
			return nil, err
		}
		return n, nil
	case "boolean":
		var b bool
		if err := runtime.BindQueryParameter("form", true, false, p.Name, q, &b); err != nil {
			return nil, err
		}
		return b, nil
	case "array":
		// form style, explode=false: one comma-separated value.
		var items []string
		if err := runtime.BindQueryParameter("form", false, false, p.Name, q, &items); err != nil {
			return nil, err
		}
		return items, nil
	default:
		// string and object pass through verbatim; the validators parse
		// JSON-valued object parameters themselves.
		var s string
		if err := runtime.BindQueryParameter("form", true, false, p.Name, q, &s); err != nil {
			return nil, err
		}
		return s, nil
	}
}
