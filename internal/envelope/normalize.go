// SPDX-License-Identifier: MIT

package envelope

import "fmt"

// unknownErrorMessage is injected when a failing downstream result carries
// no human-readable message.
const unknownErrorMessage = "An unknown error occurred"

// Normalize coerces an arbitrary controller result into a well-formed
// envelope. defaultCode is the operation's documented fallback error code
// (usually OperationFailed(op)) applied when a failing result names none.
//
// Rules, in order:
//   - nil (including typed-nil maps)   -> EMPTY_RESPONSE
//   - non-mapping value                -> INVALID_RESPONSE, details.type set
//   - mapping without "success"        -> success=true injected
//   - success=false without error_code -> defaultCode injected
//   - success=false without error      -> generic message injected
func Normalize(defaultCode string, v any) Envelope {
	if v == nil {
		return Error(CodeEmptyResponse, "downstream returned no response")
	}

	var env Envelope
	switch t := v.(type) {
	case Envelope:
		// A typed-nil map passes the interface nil check above.
		if t == nil {
			return Error(CodeEmptyResponse, "downstream returned no response")
		}
		env = t.Clone()
	case map[string]any:
		if t == nil {
			return Error(CodeEmptyResponse, "downstream returned no response")
		}
		env = Envelope(t).Clone()
	default:
		return ErrorWithDetails(CodeInvalidResponse, "downstream returned a non-mapping response",
			map[string]any{"type": fmt.Sprintf("%T", v)})
	}

	success, ok := env["success"].(bool)
	if !ok {
		env["success"] = true
		return env
	}
	if success {
		return env
	}

	if _, ok := env["error_code"].(string); !ok {
		code := defaultCode
		if code == "" {
			code = CodeInvalidResponse
		}
		env["error_code"] = code
	}
	if _, ok := env["error"].(string); !ok {
		env["error"] = unknownErrorMessage
	}
	return env
}
