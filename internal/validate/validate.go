// SPDX-License-Identifier: MIT

// Package validate provides typed request-field validation for the
// controller layer. Every check returns the converted value together with
// a *Error naming the offending field, so controllers can surface
// details.parameter without string parsing.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Error represents a single field validation failure.
type Error struct {
	Field   string // field name that failed validation
	Value   any    // the invalid value
	Message string // human-readable reason
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func fail(field string, value any, format string, args ...any) *Error {
	return &Error{Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

// Number validates a numeric value with optional inclusive bounds.
// JSON numbers, Go integer/float types and numeric strings are accepted.
func Number(field string, v any, min, max *float64) (float64, *Error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, fail(field, v, "must be a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fail(field, v, "must be a finite number")
	}
	if min != nil && f < *min {
		return 0, fail(field, v, "must be >= %v", *min)
	}
	if max != nil && f > *max {
		return 0, fail(field, v, "must be <= %v", *max)
	}
	return f, nil
}

// Int validates an integer value with optional inclusive bounds. Floats are
// accepted only when they carry no fractional part.
func Int(field string, v any, min, max *int) (int, *Error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, fail(field, v, "must be an integer")
	}
	if f != math.Trunc(f) {
		return 0, fail(field, v, "must be an integer")
	}
	n := int(f)
	if min != nil && n < *min {
		return 0, fail(field, v, "must be >= %d", *min)
	}
	if max != nil && n > *max {
		return 0, fail(field, v, "must be <= %d", *max)
	}
	return n, nil
}

// StringOpts configures String.
type StringOpts struct {
	MinLen  int       // 0 means no lower bound
	MaxLen  int       // 0 means unbounded
	Pattern string    // named pattern from the pattern set, "" to skip
	Reject  CharClass // dangerous-character class to reject, ClassNone to skip
}

// String validates a string value against length bounds, a named pattern
// and a dangerous-character class.
func String(field string, v any, opts StringOpts) (string, *Error) {
	s, ok := v.(string)
	if !ok {
		return "", fail(field, v, "must be a string")
	}
	if len(s) < opts.MinLen {
		return "", fail(field, v, "must be at least %d characters", opts.MinLen)
	}
	if opts.MaxLen > 0 && len(s) > opts.MaxLen {
		return "", fail(field, v, "must be at most %d characters", opts.MaxLen)
	}
	if opts.Pattern != "" {
		re, ok := Pattern(opts.Pattern)
		if !ok {
			return "", fail(field, v, "unknown pattern %q", opts.Pattern)
		}
		if !re.MatchString(s) {
			return "", fail(field, v, "must match pattern %s", opts.Pattern)
		}
	}
	if opts.Reject != ClassNone {
		if tok, found := Dangerous(opts.Reject, s); found {
			return "", fail(field, v, "contains forbidden sequence %q", tok)
		}
	}
	return s, nil
}

// Bool coerces truthy/falsy inputs: booleans, "true/false", "1/0",
// "yes/no", "on/off" (case-insensitive) and nonzero numbers.
func Bool(field string, v any) (bool, *Error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return false, fail(field, v, "must be a boolean")
	default:
		if f, ok := toFloat(v); ok {
			return f != 0, nil
		}
	}
	return false, fail(field, v, "must be a boolean")
}

// URLPolicy restricts the hosts a validated URL may point at.
type URLPolicy struct {
	AllowLocalhost bool
	AllowPrivate   bool
}

// URL validates a URL string against a scheme allow-list and host policy.
// Shell metacharacters in the raw string are rejected before parsing.
func URL(field string, v any, schemes []string, policy URLPolicy) (string, *Error) {
	raw, ok := v.(string)
	if !ok || raw == "" {
		return "", fail(field, v, "must be a non-empty URL string")
	}
	if tok, found := Dangerous(ClassURL, raw); found {
		return "", fail(field, v, "contains forbidden sequence %q", tok)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fail(field, v, "invalid URL: %v", err)
	}
	if u.Host == "" {
		return "", fail(field, v, "URL must have a host")
	}
	if len(schemes) > 0 {
		okScheme := false
		for _, s := range schemes {
			if u.Scheme == s {
				okScheme = true
				break
			}
		}
		if !okScheme {
			return "", fail(field, v, "scheme must be one of %s", strings.Join(schemes, ", "))
		}
	}
	host := u.Hostname()
	if !policy.AllowLocalhost && isLocalhost(host) {
		return "", fail(field, v, "localhost URLs are not allowed")
	}
	if !policy.AllowPrivate && isPrivateHost(host) {
		return "", fail(field, v, "private-range URLs are not allowed")
	}
	return raw, nil
}

func isLocalhost(host string) bool {
	h := strings.ToLower(host)
	if h == "localhost" || h == "::1" {
		return true
	}
	if ip := net.ParseIP(h); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

func isPrivateHost(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsPrivate() || ip.IsLinkLocalUnicast()
}

// Color validates either a hex "#RRGGBB" string or an explicit 3-float
// tuple and returns [r, g, b] with components in [0,1].
func Color(field string, v any) ([]float64, *Error) {
	switch t := v.(type) {
	case string:
		re, _ := Pattern(PatternHexColor)
		if !re.MatchString(t) {
			return nil, fail(field, v, "must be a hex color of the form #RRGGBB")
		}
		rgb := make([]float64, 3)
		for i := 0; i < 3; i++ {
			n, err := strconv.ParseUint(t[1+2*i:3+2*i], 16, 8)
			if err != nil {
				return nil, fail(field, v, "must be a hex color of the form #RRGGBB")
			}
			rgb[i] = float64(n) / 255.0
		}
		return rgb, nil
	default:
		rgb, verr := tuple3(field, v)
		if verr != nil {
			return nil, fail(field, v, "must be a hex color string or a 3-component tuple")
		}
		for _, c := range rgb {
			if c < 0 || c > 1 {
				return nil, fail(field, v, "color components must be in [0,1]")
			}
		}
		return rgb, nil
	}
}

// Vector3 validates an exactly-3 numeric tuple (position or rotation).
// A comma-separated string form ("5,0,2") is accepted for query parameters.
func Vector3(field string, v any) ([]float64, *Error) {
	return tuple3(field, v)
}

// Scale validates an exactly-3 numeric tuple whose components are >= 0.1.
func Scale(field string, v any) ([]float64, *Error) {
	t, err := tuple3(field, v)
	if err != nil {
		return nil, err
	}
	for _, c := range t {
		if c < 0.1 {
			return nil, fail(field, v, "scale components must be >= 0.1")
		}
	}
	return t, nil
}

func tuple3(field string, v any) ([]float64, *Error) {
	var parts []any
	switch t := v.(type) {
	case []any:
		parts = t
	case []float64:
		if len(t) != 3 {
			return nil, fail(field, v, "must have exactly 3 components")
		}
		out := make([]float64, 3)
		copy(out, t)
		return out, nil
	case string:
		fields := strings.Split(t, ",")
		parts = make([]any, len(fields))
		for i, f := range fields {
			parts[i] = strings.TrimSpace(f)
		}
	default:
		return nil, fail(field, v, "must be a 3-component tuple")
	}
	if len(parts) != 3 {
		return nil, fail(field, v, "must have exactly 3 components")
	}
	out := make([]float64, 3)
	for i, p := range parts {
		f, ok := toFloat(p)
		if !ok {
			return nil, fail(field, v, "component %d is not a number", i)
		}
		out[i] = f
	}
	return out, nil
}

// ScenePath validates a scene-graph path: absolute, restricted charset.
func ScenePath(field string, v any) (string, *Error) {
	s, ok := v.(string)
	if !ok {
		return "", fail(field, v, "must be a string")
	}
	if !strings.HasPrefix(s, "/") {
		return "", fail(field, v, "must begin with /")
	}
	re, _ := Pattern(PatternScenePath)
	if !re.MatchString(s) {
		return "", fail(field, v, "must contain only letters, digits, underscores and slashes")
	}
	return s, nil
}

// FileOpts configures FilePath.
type FileOpts struct {
	Extensions []string // allowed extensions including dot, e.g. ".png"; empty allows all
	MustExist  bool
}

// FilePath validates a filesystem path: no parent traversal, optional
// extension allow-list, optional existence check.
func FilePath(field string, v any, opts FileOpts) (string, *Error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fail(field, v, "must be a non-empty path")
	}
	if strings.Contains(s, "..") {
		return "", fail(field, v, "must not contain ..")
	}
	if strings.ContainsRune(s, 0) {
		return "", fail(field, v, "must not contain NUL")
	}
	if len(opts.Extensions) > 0 {
		ext := strings.ToLower(extOf(s))
		allowed := false
		for _, e := range opts.Extensions {
			if ext == strings.ToLower(e) {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", fail(field, v, "extension must be one of %s", strings.Join(opts.Extensions, ", "))
		}
	}
	if opts.MustExist {
		if err := statRegular(s); err != nil {
			return "", fail(field, v, "%v", err)
		}
	}
	return s, nil
}

// JSON accepts a mapping directly or parses a JSON-object string.
func JSON(field string, v any) (map[string]any, *Error) {
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(t), &m); err != nil {
			return nil, fail(field, v, "must be a JSON object: %v", err)
		}
		return m, nil
	default:
		return nil, fail(field, v, "must be a JSON object")
	}
}

// Enum validates membership in an allow-list.
func Enum(field string, v any, allowed []string) (string, *Error) {
	s, ok := v.(string)
	if !ok {
		return "", fail(field, v, "must be a string")
	}
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", fail(field, v, "must be one of %s", strings.Join(allowed, ", "))
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || idx < strings.LastIndexByte(path, '/') {
		return ""
	}
	return path[idx:]
}
