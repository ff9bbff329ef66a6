// SPDX-License-Identifier: MIT

package envelope

import (
	"encoding/json"
	"net/http"
)

// Write renders the envelope as the HTTP response. It is the single path
// by which envelopes reach the wire; handlers and middleware must not
// write response bodies any other way.
func Write(w http.ResponseWriter, env Envelope) {
	WriteStatus(w, env.Status(), env)
}

// WriteStatus renders the envelope with an explicit status code for the
// few places where the code is not derivable from the envelope itself
// (e.g. 503 health during startup failure).
func WriteStatus(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// Encoding a map of JSON-safe values cannot fail; a broken connection
	// surfaces on the transport side and is not recoverable here.
	_ = json.NewEncoder(w).Encode(env)
}
