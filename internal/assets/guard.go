// SPDX-License-Identifier: MIT

// Package assets guards filesystem references handed in by clients
// before they reach the scene. Every asset path passes through a
// PathGuard, which normalizes the input, resolves it against the
// configured search directories and rejects anything that escapes
// them.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Reasons classify guard rejections; callers map them to wire codes.
type Reason string

const (
	ReasonTraversal    Reason = "path_traversal"
	ReasonAbsolute     Reason = "absolute_denied"
	ReasonBadExtension Reason = "bad_extension"
	ReasonOutsideRoot  Reason = "outside_root"
	ReasonNotRegular   Reason = "not_regular"
	ReasonNotFound     Reason = "not_found"
	ReasonUnreadable   Reason = "unreadable"
	ReasonTooLarge     Reason = "too_large"
)

// GuardError reports why a path was rejected.
type GuardError struct {
	Reason Reason
	Path   string
	Detail string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("asset path rejected (%s): %s", e.Reason, e.Detail)
}

func reject(reason Reason, path, format string, args ...any) *GuardError {
	return &GuardError{Reason: reason, Path: path, Detail: fmt.Sprintf(format, args...)}
}

// DefaultExtensions are the asset formats accepted out of the box.
var DefaultExtensions = []string{".usd", ".usda", ".usdc", ".usdz"}

// DefaultMaxSize bounds asset files at 2 GiB.
const DefaultMaxSize int64 = 2 << 30

// PathGuard validates asset file references. Relative paths are probed
// against the search directories in order; absolute paths are denied
// unless explicitly allowed.
type PathGuard struct {
	roots         []string // canonical (symlink-resolved) absolute search dirs
	extensions    map[string]bool
	maxSize       int64
	allowAbsolute bool
}

// Option configures a PathGuard.
type Option func(*PathGuard)

// WithExtensions replaces the extension allow-list. Empty disables
// the check.
func WithExtensions(exts []string) Option {
	return func(g *PathGuard) {
		g.extensions = make(map[string]bool, len(exts))
		for _, e := range exts {
			g.extensions[strings.ToLower(e)] = true
		}
	}
}

// WithMaxSize replaces the file size bound. Zero disables the check.
func WithMaxSize(n int64) Option {
	return func(g *PathGuard) { g.maxSize = n }
}

// WithAbsolutePaths permits caller-supplied absolute paths. They are
// still subject to every other check, including root confinement.
func WithAbsolutePaths() Option {
	return func(g *PathGuard) { g.allowAbsolute = true }
}

// NewPathGuard builds a guard over the given search directories.
// Directories are resolved through symlinks once, at construction, so
// later prefix checks compare canonical paths.
func NewPathGuard(roots []string, opts ...Option) (*PathGuard, error) {
	g := &PathGuard{maxSize: DefaultMaxSize}
	WithExtensions(DefaultExtensions)(g)
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve search dir %s: %w", root, err)
		}
		canonical, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, fmt.Errorf("resolve search dir %s: %w", root, err)
		}
		g.roots = append(g.roots, canonical)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Resolve validates an asset path and returns its canonical absolute
// location. The returned error, when non-nil, is always a *GuardError.
func (g *PathGuard) Resolve(path string) (string, error) {
	// Compose before any byte-level inspection so decomposed
	// lookalikes cannot slip past the charset checks.
	path = norm.NFC.String(path)

	if path == "" {
		return "", reject(ReasonNotFound, path, "path is empty")
	}
	if strings.ContainsRune(path, 0) {
		return "", reject(ReasonTraversal, path, "path contains NUL")
	}
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return "", reject(ReasonTraversal, path, "path contains parent traversal")
		}
	}
	if len(g.extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(path))
		if !g.extensions[ext] {
			return "", reject(ReasonBadExtension, path, "extension %q is not an accepted asset format", ext)
		}
	}

	if isAbsolute(path) {
		if !g.allowAbsolute {
			return "", reject(ReasonAbsolute, path, "absolute paths are not permitted")
		}
		return g.admit(path, path)
	}

	for _, root := range g.roots {
		candidate := filepath.Join(root, filepath.FromSlash(path))
		canonical, err := filepath.EvalSymlinks(candidate)
		if err != nil {
			continue // try the next search directory
		}
		// A symlink may point anywhere; only the resolved location
		// counts against the root.
		if !withinRoot(canonical, root) {
			return "", reject(ReasonOutsideRoot, path, "path resolves outside the search directory")
		}
		return g.checkFile(path, canonical)
	}
	return "", reject(ReasonNotFound, path, "path not found in any search directory")
}

// admit handles an allowed absolute path: canonicalize, confine when
// roots are configured, then run the file checks.
func (g *PathGuard) admit(orig, abs string) (string, error) {
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", reject(ReasonNotFound, orig, "path does not exist")
		}
		return "", reject(ReasonUnreadable, orig, "path is not accessible")
	}
	if len(g.roots) > 0 {
		ok := false
		for _, root := range g.roots {
			if withinRoot(canonical, root) {
				ok = true
				break
			}
		}
		if !ok {
			return "", reject(ReasonOutsideRoot, orig, "path resolves outside the allowed asset directories")
		}
	}
	return g.checkFile(orig, canonical)
}

func (g *PathGuard) checkFile(orig, canonical string) (string, error) {
	info, err := os.Stat(canonical)
	if err != nil {
		return "", reject(ReasonUnreadable, orig, "path is not accessible")
	}
	if !info.Mode().IsRegular() {
		return "", reject(ReasonNotRegular, orig, "path is not a regular file")
	}
	if g.maxSize > 0 && info.Size() > g.maxSize {
		return "", reject(ReasonTooLarge, orig, "file exceeds %d bytes", g.maxSize)
	}
	f, err := os.Open(canonical)
	if err != nil {
		return "", reject(ReasonUnreadable, orig, "file is not readable")
	}
	_ = f.Close()
	return canonical, nil
}

func withinRoot(canonical, root string) bool {
	return canonical == root || strings.HasPrefix(canonical, root+string(filepath.Separator))
}

// isAbsolute treats Windows drive paths as absolute on every platform,
// so a guard fronting a Windows host applies the same policy.
func isAbsolute(path string) bool {
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\\`) {
		return true
	}
	if len(path) >= 3 {
		c := path[0]
		if ((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')) && path[1] == ':' &&
			(path[2] == '/' || path[2] == '\\') {
			return true
		}
	}
	return false
}
