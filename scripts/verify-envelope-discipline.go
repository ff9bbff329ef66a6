// SPDX-License-Identifier: MIT

// verify-envelope-discipline fails the build when handler code writes
// HTTP responses without going through the envelope package. Every
// response body in the services is a flat envelope; ad-hoc
// http.Error or raw json.NewEncoder(w) calls bypass the error-code
// contract and break MCP clients that parse it.
//
// Usage:
//
//	go run ./scripts/verify-envelope-discipline.go [package-pattern]
package main

import (
	"fmt"
	"go/ast"
	"go/types"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

func main() {
	pattern := "./internal/api/... ./internal/service/..."
	if len(os.Args) > 1 {
		pattern = os.Args[1]
	}

	violations, err := Analyze(strings.Fields(pattern)...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "envelope discipline violations found:")
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, "  "+v)
		}
		os.Exit(1)
	}
}

// Analyze loads the packages and reports response writes that bypass
// the envelope helpers.
func Analyze(patterns ...string) ([]string, error) {
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedFiles | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedName,
		Dir:  ".",
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	var violations []string
	for _, pkg := range pkgs {
		for i, file := range pkg.Syntax {
			filename := ""
			if i < len(pkg.CompiledGoFiles) {
				filename = pkg.CompiledGoFiles[i]
			} else if i < len(pkg.GoFiles) {
				filename = pkg.GoFiles[i]
			}
			if filename == "" || strings.HasSuffix(filename, "_test.go") {
				continue
			}
			// The middleware stack owns its own raw writes (401/429
			// envelopes are built there, status headers included), and
			// /openapi.json is the one non-envelope body.
			if strings.Contains(filename, filepath.Join("api", "middleware")) ||
				strings.HasSuffix(filename, filepath.Join("api", "openapi.go")) {
				continue
			}

			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				sel, ok := call.Fun.(*ast.SelectorExpr)
				if !ok {
					return true
				}
				if msg := classify(sel, pkg.TypesInfo); msg != "" {
					violations = append(violations, fmt.Sprintf("%s: %s", relPath(filename), msg))
				}
				return true
			})
		}
	}
	return violations, nil
}

// classify flags http.Error and direct NewEncoder(w).Encode calls. A
// bare WriteHeader is fine only inside the envelope package itself,
// which is excluded by the load patterns.
func classify(sel *ast.SelectorExpr, info *types.Info) string {
	switch sel.Sel.Name {
	case "Error":
		if isPkgFunc(sel, info, "net/http") {
			return "http.Error bypasses the envelope error codes"
		}
	case "WriteHeader":
		return "direct WriteHeader; use envelope.Write / envelope.WriteStatus"
	case "Encode":
		if inner, ok := sel.X.(*ast.CallExpr); ok {
			if innerSel, ok := inner.Fun.(*ast.SelectorExpr); ok &&
				innerSel.Sel.Name == "NewEncoder" && isPkgFunc(innerSel, info, "encoding/json") {
				return "raw json.NewEncoder(w).Encode; use envelope.Write"
			}
		}
	}
	return ""
}

func isPkgFunc(sel *ast.SelectorExpr, info *types.Info, pkgPath string) bool {
	obj := info.ObjectOf(sel.Sel)
	if obj == nil || obj.Pkg() == nil {
		return false
	}
	return obj.Pkg().Path() == pkgPath
}

func relPath(filename string) string {
	if rel, err := filepath.Rel(".", filename); err == nil {
		return rel
	}
	return filename
}
