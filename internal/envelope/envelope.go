// SPDX-License-Identifier: MIT

// Package envelope defines the uniform JSON response shape shared by the
// HTTP and MCP surfaces: every body is either a success envelope or an
// error envelope, never both, never neither.
package envelope

// Envelope is the wire-level response body. Keys "success", "error_code",
// "error" and "details" are reserved; all other keys are operation fields.
type Envelope map[string]any

// OK returns a success envelope carrying the given operation fields.
func OK(fields map[string]any) Envelope {
	env := Envelope{"success": true}
	for k, v := range fields {
		if k == "success" {
			continue
		}
		env[k] = v
	}
	return env
}

// Error returns an error envelope with a symbolic code and a human message.
func Error(code, message string) Envelope {
	return Envelope{
		"success":    false,
		"error_code": code,
		"error":      message,
	}
}

// ErrorWithDetails returns an error envelope with an attached details mapping.
func ErrorWithDetails(code, message string, details map[string]any) Envelope {
	env := Error(code, message)
	if len(details) > 0 {
		env["details"] = details
	}
	return env
}

// Success reports whether the envelope carries success=true.
func (e Envelope) Success() bool {
	v, ok := e["success"].(bool)
	return ok && v
}

// Code returns the symbolic error code, or "" for success envelopes.
func (e Envelope) Code() string {
	if s, ok := e["error_code"].(string); ok {
		return s
	}
	return ""
}

// Message returns the human-readable error message, or "".
func (e Envelope) Message() string {
	if s, ok := e["error"].(string); ok {
		return s
	}
	return ""
}

// Details returns the details mapping, or nil.
func (e Envelope) Details() map[string]any {
	switch d := e["details"].(type) {
	case map[string]any:
		return d
	case Envelope:
		return d
	default:
		return nil
	}
}

// Clone returns an independent deep copy. Mutating the copy never affects
// the original; the request tracker hands out clones as snapshots.
func (e Envelope) Clone() Envelope {
	if e == nil {
		return nil
	}
	out := make(Envelope, len(e))
	for k, v := range e {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Envelope:
		return t.Clone()
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	case []float64:
		s := make([]float64, len(t))
		copy(s, t)
		return s
	case []string:
		s := make([]string, len(t))
		copy(s, t)
		return s
	default:
		return v
	}
}
