// SPDX-License-Identifier: MIT

package validate

import "strings"

// CharClass selects a dangerous-character policy for String and URL checks.
type CharClass int

const (
	ClassNone CharClass = iota
	ClassShell
	ClassPath
	ClassSQL
	ClassXSS
	ClassURL
)

// Sequences rejected per class. SQL and XSS tokens are matched
// case-insensitively; the character classes are matched verbatim.
var (
	shellSequences = []string{"&", "|", ";", "`", "$", "(", ")", "<", ">", "\n", "\r", "\\"}
	pathSequences  = []string{"..", "~", "$", "`", ";", "&", "|", "\n", "\r"}
	sqlSequences   = []string{"'", "\"", ";", "--", "/*", "*/", "xp_", "sp_"}
	xssSequences   = []string{"<script", "</script", "javascript:", "data:", "vbscript:", "onload=", "onerror="}
	// Single & stays legal in URLs so query strings survive.
	urlSequences = []string{"|", ";", "`", "$", "(", ")", "<", ">", "\n", "\r", "\\"}
)

// Dangerous reports the first forbidden sequence of the class found in s.
func Dangerous(class CharClass, s string) (string, bool) {
	switch class {
	case ClassShell:
		return findVerbatim(shellSequences, s)
	case ClassPath:
		return findVerbatim(pathSequences, s)
	case ClassSQL:
		return findFolded(sqlSequences, s)
	case ClassXSS:
		return findFolded(xssSequences, s)
	case ClassURL:
		return findVerbatim(urlSequences, s)
	default:
		return "", false
	}
}

func findVerbatim(seqs []string, s string) (string, bool) {
	for _, seq := range seqs {
		if strings.Contains(s, seq) {
			return seq, true
		}
	}
	return "", false
}

func findFolded(seqs []string, s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, seq := range seqs {
		if strings.Contains(lower, seq) {
			return seq, true
		}
	}
	return "", false
}
