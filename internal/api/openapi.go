// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/simwire/omnigate/internal/contracts"
	"github.com/simwire/omnigate/internal/envelope"
)

// BuildOpenAPI renders the service's contract table as an OpenAPI 3
// document. The document is generated, never hand-edited; the contract
// table is the single source of truth for the HTTP surface.
func BuildOpenAPI(reg *contracts.Registry, version string) (*openapi3.T, error) {
	if version == "" {
		version = "dev"
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       fmt.Sprintf("omnigate %s service", reg.Service()),
			Description: "Scene authoring control plane. All responses share one envelope shape: success plus operation fields, or success=false plus error_code/error/details.",
			Version:     version,
		},
		Paths: openapi3.NewPaths(),
	}

	components := openapi3.NewComponents()
	components.SecuritySchemes = openapi3.SecuritySchemes{
		"bearerAuth": &openapi3.SecuritySchemeRef{
			Value: openapi3.NewSecurityScheme().WithType("http").WithScheme("bearer"),
		},
		"hmacSignature": &openapi3.SecuritySchemeRef{
			Value: openapi3.NewSecurityScheme().
				WithType("apiKey").
				WithIn("header").
				WithName("X-Signature").
				WithDescription("hex(HMAC-SHA256(secret, METHOD|PATH_WITH_QUERY|TIMESTAMP)); X-Timestamp carries the signing time in epoch seconds."),
		},
	}
	doc.Components = &components

	for _, ct := range reg.All() {
		op := openapi3.NewOperation()
		op.OperationID = ct.MCPTool
		op.Summary = ct.Description
		if ct.Alias {
			op.Description = "Legacy alias route; behavior is identical to the primary route for this operation."
		}

		if ct.Method == http.MethodGet {
			for _, p := range ct.Params {
				param := openapi3.NewQueryParameter(p.Name).
					WithDescription(p.Description).
					WithRequired(p.Required).
					WithSchema(paramSchema(p))
				op.AddParameter(param)
			}
		} else {
			op.RequestBody = &openapi3.RequestBodyRef{Value: requestBody(ct.Params)}
		}

		op.AddResponse(200, openapi3.NewResponse().
			WithDescription("Result envelope").
			WithJSONSchema(envelopeSchema()))
		op.AddResponse(0, openapi3.NewResponse().
			WithDescription("Error envelope").
			WithJSONSchema(envelopeSchema()))

		item := doc.Paths.Value(ct.Route)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(ct.Route, item)
		}
		item.SetOperation(ct.Method, op)
	}

	return doc, doc.Validate(context.Background())
}

func requestBody(params []contracts.Param) *openapi3.RequestBody {
	schema := openapi3.NewObjectSchema()
	for _, p := range params {
		schema = schema.WithProperty(p.Name, paramSchema(p))
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return openapi3.NewRequestBody().WithJSONSchema(schema)
}

// paramSchema carries descriptions only. Length and range constraints
// stay in the validators so the published schema never drifts from the
// enforced one.
func paramSchema(p contracts.Param) *openapi3.Schema {
	var schema *openapi3.Schema
	switch p.Type {
	case "number":
		schema = openapi3.NewFloat64Schema()
	case "integer":
		schema = openapi3.NewIntegerSchema()
	case "boolean":
		schema = openapi3.NewBoolSchema()
	case "array":
		schema = openapi3.NewArraySchema()
		// Item shapes are prose-documented; the validators enforce them.
		schema.Items = openapi3.NewSchemaRef("", openapi3.NewSchema())
	case "object":
		schema = openapi3.NewObjectSchema()
	default:
		schema = openapi3.NewStringSchema()
	}
	schema.Description = p.Description
	return schema
}

func envelopeSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("success", openapi3.NewBoolSchema()).
		WithProperty("error_code", openapi3.NewStringSchema()).
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("details", openapi3.NewObjectSchema())
}

// handleOpenAPI serves the generated document. This is the one route
// whose body is not an envelope; clients fetch it to discover the
// surface before they can parse envelopes at all.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := BuildOpenAPI(s.deps.Registry, s.deps.Holder.Current().Version)
	if err != nil {
		s.log.Error().Err(err).Msg("openapi document build failed")
		envelope.WriteStatus(w, http.StatusInternalServerError,
			envelope.Error(envelope.CodeInvalidResponse, "Failed to build OpenAPI document"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(doc)
}
