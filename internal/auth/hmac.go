// SPDX-License-Identifier: MIT

// Package auth implements the request signing scheme shared by the HTTP
// guard and the MCP proxy client: HMAC-SHA256 over
// "METHOD|PATH_WITH_QUERY|TIMESTAMP" plus an optional bearer token.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampWindow is the accepted clock skew for signed requests.
const TimestampWindow = 300 * time.Second

// Scheme is the challenge scheme advertised on 401 responses.
const Scheme = "HMAC-SHA256"

// Realm is the authentication realm advertised on 401 responses.
const Realm = "isaac-sim"

// Challenge is the WWW-Authenticate header value for the 401 challenge.
const Challenge = Scheme + ` realm="` + Realm + `"`

// CanonicalString builds the signed base string. pathWithQuery must
// include the literal query string ("?k=v&...") when one is present.
func CanonicalString(method, pathWithQuery, timestamp string) string {
	return strings.ToUpper(method) + "|" + pathWithQuery + "|" + timestamp
}

// Sign computes the lowercase-hex HMAC-SHA256 signature of the canonical
// string under secret.
func Sign(secret []byte, method, pathWithQuery, timestamp string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(CanonicalString(method, pathWithQuery, timestamp)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a presented signature in constant time.
func VerifySignature(secret []byte, method, pathWithQuery, timestamp, signature string) bool {
	if len(secret) == 0 || signature == "" {
		return false
	}
	want := Sign(secret, method, pathWithQuery, timestamp)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(signature)))
}

// VerifyTimestamp checks that ts (decimal seconds since epoch, integer or
// fractional) lies within the skew window around now.
func VerifyTimestamp(ts string, now time.Time, window time.Duration) bool {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(ts), 64)
	if err != nil || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return false
	}
	delta := math.Abs(float64(now.Unix()) - seconds)
	return delta <= window.Seconds()
}

// Timestamp renders now as a decimal-seconds string for X-Timestamp.
func Timestamp(now time.Time) string {
	return strconv.FormatInt(now.Unix(), 10)
}
