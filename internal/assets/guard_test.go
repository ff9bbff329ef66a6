// SPDX-License-Identifier: MIT

package assets

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAsset(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func newGuard(t *testing.T, roots []string, opts ...Option) *PathGuard {
	t.Helper()
	g, err := NewPathGuard(roots, opts...)
	require.NoError(t, err)
	return g
}

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var ge *GuardError
	require.True(t, errors.As(err, &ge), "expected *GuardError, got %v", err)
	return ge.Reason
}

func TestResolve_RelativeAgainstSearchDirs(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeAsset(t, second, "model.usd", 16)
	g := newGuard(t, []string{first, second})

	got, err := g.Resolve("model.usd")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "model.usd", filepath.Base(got))
}

func TestResolve_FirstSearchDirWins(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	want := writeAsset(t, first, "model.usd", 16)
	writeAsset(t, second, "model.usd", 16)
	g := newGuard(t, []string{first, second})

	got, err := g.Resolve("model.usd")
	require.NoError(t, err)
	resolved, err2 := filepath.EvalSymlinks(want)
	require.NoError(t, err2)
	assert.Equal(t, resolved, got)
}

func TestResolve_Rejections(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "model.usd", 16)
	writeAsset(t, dir, "notes.txt", 16)
	g := newGuard(t, []string{dir})

	cases := []struct {
		name   string
		path   string
		reason Reason
	}{
		{"empty", "", ReasonNotFound},
		{"traversal", "../model.usd", ReasonTraversal},
		{"nested traversal", "sub/../../model.usd", ReasonTraversal},
		{"nul byte", "mod\x00el.usd", ReasonTraversal},
		{"bad extension", "notes.txt", ReasonBadExtension},
		{"missing file", "absent.usd", ReasonNotFound},
		{"absolute denied", filepath.Join(dir, "model.usd"), ReasonAbsolute},
		{"windows drive denied", `C:\assets\model.usd`, ReasonAbsolute},
		{"unc denied", `\\server\share\model.usd`, ReasonAbsolute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := g.Resolve(tc.path)
			assert.Equal(t, tc.reason, reasonOf(t, err))
		})
	}
}

func TestResolve_AbsoluteWhenAllowed(t *testing.T) {
	dir := t.TempDir()
	path := writeAsset(t, dir, "model.usd", 16)
	g := newGuard(t, []string{dir}, WithAbsolutePaths())

	got, err := g.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "model.usd", filepath.Base(got))

	// Still confined to the search dirs.
	outside := writeAsset(t, t.TempDir(), "other.usd", 16)
	_, err = g.Resolve(outside)
	assert.Equal(t, ReasonOutsideRoot, reasonOf(t, err))
}

func TestResolve_SymlinkEscapeBlocked(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation needs privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	target := writeAsset(t, outside, "secret.usd", 16)
	require.NoError(t, os.Symlink(target, filepath.Join(root, "link.usd")))

	g := newGuard(t, []string{root})
	_, err := g.Resolve("link.usd")
	assert.Equal(t, ReasonOutsideRoot, reasonOf(t, err))
}

func TestResolve_SymlinkInsideRootAllowed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation needs privileges on windows")
	}
	root := t.TempDir()
	writeAsset(t, root, "real.usd", 16)
	require.NoError(t, os.Symlink(filepath.Join(root, "real.usd"), filepath.Join(root, "alias.usd")))

	g := newGuard(t, []string{root})
	got, err := g.Resolve("alias.usd")
	require.NoError(t, err)
	assert.Equal(t, "real.usd", filepath.Base(got), "canonical path is the target")
}

func TestResolve_DirectoryRejected(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir.usd"), 0o755))

	g := newGuard(t, []string{root})
	_, err := g.Resolve("dir.usd")
	assert.Equal(t, ReasonNotRegular, reasonOf(t, err))
}

func TestResolve_SizeBound(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, root, "big.usd", 64)

	g := newGuard(t, []string{root}, WithMaxSize(32))
	_, err := g.Resolve("big.usd")
	assert.Equal(t, ReasonTooLarge, reasonOf(t, err))

	unbounded := newGuard(t, []string{root}, WithMaxSize(0))
	_, err = unbounded.Resolve("big.usd")
	assert.NoError(t, err)
}

func TestResolve_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "tex.png", 8)

	g := newGuard(t, []string{dir}, WithExtensions([]string{".png"}))
	_, err := g.Resolve("tex.png")
	assert.NoError(t, err)

	anyExt := newGuard(t, []string{dir}, WithExtensions(nil))
	_, err = anyExt.Resolve("tex.png")
	assert.NoError(t, err)
}

func TestIsAbsolute_WindowsDrives(t *testing.T) {
	assert.True(t, isAbsolute(`C:\assets\model.usd`))
	assert.True(t, isAbsolute(`d:/assets/model.usd`))
	assert.False(t, isAbsolute(`assets\model.usd`))
	assert.False(t, isAbsolute(`1:\oops`))
}

func TestNewPathGuard_BadSearchDir(t *testing.T) {
	_, err := NewPathGuard([]string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
