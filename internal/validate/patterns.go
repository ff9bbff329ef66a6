// SPDX-License-Identifier: MIT

package validate

import "regexp"

// Named pattern identifiers for StringOpts.Pattern.
const (
	PatternAlphanumeric    = "alphanumeric"
	PatternAlnumUnderscore = "alphanumeric_underscore"
	PatternAlnumDash       = "alphanumeric_dash"
	PatternNumeric         = "numeric"
	PatternFloat           = "float"
	PatternFraction        = "fraction"
	PatternUUID4           = "uuid4"
	PatternHexColor        = "hex_color"
	PatternSafeFilename    = "safe_filename"
	PatternSafeDirectory   = "safe_directory"
	PatternScenePath       = "scene_path"
	PatternIPv4            = "ipv4"
	PatternPort            = "port"
)

var patterns = map[string]*regexp.Regexp{
	PatternAlphanumeric:    regexp.MustCompile(`^[A-Za-z0-9]+$`),
	PatternAlnumUnderscore: regexp.MustCompile(`^[A-Za-z0-9_]+$`),
	PatternAlnumDash:       regexp.MustCompile(`^[A-Za-z0-9-]+$`),
	PatternNumeric:         regexp.MustCompile(`^[0-9]+$`),
	PatternFloat:           regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`),
	PatternFraction:        regexp.MustCompile(`^[0-9]+/[1-9][0-9]*$`),
	PatternUUID4:           regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`),
	PatternHexColor:        regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`),
	PatternSafeFilename:    regexp.MustCompile(`^[A-Za-z0-9._-]+$`),
	PatternSafeDirectory:   regexp.MustCompile(`^[A-Za-z0-9._/-]+$`),
	PatternScenePath:       regexp.MustCompile(`^/[A-Za-z0-9_/]+$`),
	PatternIPv4:            regexp.MustCompile(`^((25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`),
	PatternPort:            regexp.MustCompile(`^([1-9][0-9]{0,3}|[1-5][0-9]{4}|6[0-4][0-9]{3}|65[0-4][0-9]{2}|655[0-2][0-9]|6553[0-5])$`),
}

// Pattern returns the compiled regexp for a named pattern.
func Pattern(name string) (*regexp.Regexp, bool) {
	re, ok := patterns[name]
	return re, ok
}

// Matches reports whether s matches the named pattern. Unknown pattern
// names never match.
func Matches(name, s string) bool {
	re, ok := patterns[name]
	return ok && re.MatchString(s)
}
