// SPDX-License-Identifier: MIT

package service

import (
	"fmt"

	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/validate"
)

// missingParam builds the MISSING_PARAMETER envelope for one field.
func missingParam(name string) envelope.Envelope {
	return envelope.ErrorWithDetails(envelope.CodeMissingParameter,
		"Missing required parameter: "+name,
		map[string]any{"parameter": name})
}

// invalidParam builds the envelope for one failed field check.
func invalidParam(e *validate.Error) envelope.Envelope {
	return envelope.ErrorWithDetails(envelope.CodeValidationError,
		e.Error(),
		map[string]any{"parameter": e.Field})
}

// batchEnvelope folds a batch validation failure into one envelope,
// reporting every failed parameter.
func batchEnvelope(b *validate.Batch) envelope.Envelope {
	errs := b.Errors()
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return invalidParam(&errs[0])
	}
	fields := make([]string, len(errs))
	msgs := make([]string, len(errs))
	for i := range errs {
		fields[i] = errs[i].Field
		msgs[i] = errs[i].Error()
	}
	return envelope.ErrorWithDetails(envelope.CodeValidationError,
		fmt.Sprintf("%d parameters failed validation", len(errs)),
		map[string]any{"parameter": fields[0], "parameters": fields, "errors": msgs})
}

// require asserts the named keys are present (and not nil).
func require(p map[string]any, names ...string) envelope.Envelope {
	for _, name := range names {
		if v, ok := p[name]; !ok || v == nil {
			return missingParam(name)
		}
	}
	return nil
}

// has reports presence of a non-nil key.
func has(p map[string]any, name string) bool {
	v, ok := p[name]
	return ok && v != nil
}

// str returns a payload value as string ("" when absent or mistyped).
func str(p map[string]any, name string) string {
	s, _ := p[name].(string)
	return s
}

// boolOr returns a payload bool with a default.
func boolOr(p map[string]any, name string, def bool) bool {
	if !has(p, name) {
		return def
	}
	b, err := validate.Bool(name, p[name])
	if err != nil {
		return def
	}
	return b
}

// floats returns a payload value already validated as a float slice.
func floats(p map[string]any, name string) []float64 {
	v, _ := p[name].([]float64)
	return v
}

// stringsOf coerces a payload array of strings.
func stringsOf(p map[string]any, name string) ([]string, envelope.Envelope) {
	raw, ok := p[name].([]any)
	if !ok {
		if typed, ok := p[name].([]string); ok {
			return typed, nil
		}
		return nil, invalidParam(&validate.Error{Field: name, Value: p[name], Message: "must be an array of strings"})
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, invalidParam(&validate.Error{Field: name, Value: v, Message: "must contain only strings"})
		}
		out = append(out, s)
	}
	return out, nil
}

// ptr returns a pointer to v; used for optional bound arguments.
func ptr[T any](v T) *T { return &v }
