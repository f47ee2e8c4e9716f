// Package archtest enforces the four-layer dependency contract
// (domain, application, infrastructure, sync) by statically scanning
// every file's imports. go/parser + go/ast does the same job a
// source-walking AST check would do in any language.
package archtest

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

const modulePrefix = "github.com/HollowDragonX/clinicforge/internal/"

// forbiddenImports maps each layer's directory name (relative to internal/) to
// the import path segments it may never depend on.
var forbiddenImports = map[string][]string{
	"domain":         {"application", "infrastructure", "syncengine"},
	"application":    {"infrastructure", "syncengine"},
	"infrastructure": {"application", "syncengine"},
	"syncengine":     {"application", "infrastructure"},
}

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	// archtest lives at internal/archtest; the repo root is two levels up.
	return filepath.Join(wd, "..", "..")
}

func goFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	return files
}

func importsOf(t *testing.T, path string) []string {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	var imports []string
	for _, imp := range f.Imports {
		// imp.Path.Value is a quoted string literal; strip the quotes.
		imports = append(imports, strings.Trim(imp.Path.Value, `"`))
	}
	return imports
}

func layerOf(importPath string) (string, bool) {
	if !strings.HasPrefix(importPath, modulePrefix) {
		return "", false
	}
	rest := strings.TrimPrefix(importPath, modulePrefix)
	parts := strings.SplitN(rest, "/", 2)
	return parts[0], true
}

func findViolations(t *testing.T, layerName, dir string) []string {
	t.Helper()
	forbidden := forbiddenImports[layerName]
	if len(forbidden) == 0 {
		return nil
	}

	var violations []string
	for _, file := range goFiles(t, dir) {
		for _, imp := range importsOf(t, file) {
			target, ok := layerOf(imp)
			if !ok {
				continue
			}
			if contains(forbidden, target) {
				violations = append(violations, file+" imports "+imp+
					" ("+layerName+" -> "+target+" is forbidden)")
			}
		}
	}
	sort.Strings(violations)
	return violations
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestDomainBoundary(t *testing.T) {
	root := repoRoot(t)
	violations := findViolations(t, "domain", filepath.Join(root, "internal", "domain"))
	if len(violations) > 0 {
		t.Fatalf("domain layer boundary violations:\n%s", strings.Join(violations, "\n"))
	}
}

func TestApplicationBoundary(t *testing.T) {
	root := repoRoot(t)
	violations := findViolations(t, "application", filepath.Join(root, "internal", "application"))
	if len(violations) > 0 {
		t.Fatalf("application layer boundary violations:\n%s", strings.Join(violations, "\n"))
	}
}

func TestInfrastructureBoundary(t *testing.T) {
	root := repoRoot(t)
	violations := findViolations(t, "infrastructure", filepath.Join(root, "internal", "infrastructure"))
	if len(violations) > 0 {
		t.Fatalf("infrastructure layer boundary violations:\n%s", strings.Join(violations, "\n"))
	}
}

func TestSyncEngineBoundary(t *testing.T) {
	root := repoRoot(t)
	violations := findViolations(t, "syncengine", filepath.Join(root, "internal", "syncengine"))
	if len(violations) > 0 {
		t.Fatalf("syncengine layer boundary violations:\n%s", strings.Join(violations, "\n"))
	}
}

// TestAllBoundaries runs a single combined scan, useful for a one-shot
// CI failure message covering every layer at once.
func TestAllBoundaries(t *testing.T) {
	root := repoRoot(t)
	var all []string
	for layer := range forbiddenImports {
		all = append(all, findViolations(t, layer, filepath.Join(root, "internal", layer))...)
	}
	if len(all) > 0 {
		t.Fatalf("architecture boundary violations (%d):\n%s", len(all), strings.Join(all, "\n"))
	}
}

// TestDomainDependsOnlyOnDomain additionally verifies the positive
// direction: every internal import the domain layer makes must itself
// resolve back into the domain layer (it may depend on nothing else
// in this module at all).
func TestDomainDependsOnlyOnDomain(t *testing.T) {
	root := repoRoot(t)
	dir := filepath.Join(root, "internal", "domain")
	for _, file := range goFiles(t, dir) {
		for _, imp := range importsOf(t, file) {
			layer, ok := layerOf(imp)
			if !ok {
				continue
			}
			if layer != "domain" {
				t.Fatalf("%s imports from %s, domain must depend on nothing but domain", file, layer)
			}
		}
	}
}

// TestSyncEngineDependsOnlyOnDomain enforces the dispatcher-ownership
// resolution directly: syncengine may reference domain, and nothing
// else from this module — in particular, never application, even
// though *application.EventDispatcher is what satisfies its local
// Dispatcher interface at runtime.
func TestSyncEngineDependsOnlyOnDomain(t *testing.T) {
	root := repoRoot(t)
	dir := filepath.Join(root, "internal", "syncengine")
	for _, file := range goFiles(t, dir) {
		for _, imp := range importsOf(t, file) {
			layer, ok := layerOf(imp)
			if !ok {
				continue
			}
			if layer != "domain" {
				t.Fatalf("%s imports from %s, syncengine must depend only on domain", file, layer)
			}
		}
	}
}
