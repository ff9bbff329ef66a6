// SPDX-License-Identifier: MIT

package auth

import (
	"crypto/subtle"
	"strings"
)

// AuthorizeToken compares a presented bearer token against the expected
// value in constant time. Empty expected or presented tokens never match.
func AuthorizeToken(presented, expected string) bool {
	if expected == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}

// BearerFromHeader extracts the token from an Authorization header value.
// Returns "" when the header is absent or not a Bearer credential.
func BearerFromHeader(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
