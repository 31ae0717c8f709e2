// Package sandbox - static safety gate for routine text.
//
// Generated routines are untrusted. Before anything runs, the source is
// parsed and its imports checked against a fixed allow-list; file, network,
// process and unsafe primitives are never available to a routine, in either
// execution mode.
package sandbox

import (
	"fmt"
	"go/parser"
	"go/token"
	"regexp"
	"strings"
)

// allowedImports is the full capability set granted to generation routines.
var allowedImports = map[string]bool{
	"bytes":         true,
	"encoding/json": true,
	"errors":        true,
	"fmt":           true,
	"math":          true,
	"math/rand":     true,
	"sort":          true,
	"strconv":       true,
	"strings":       true,
	"time":          true,
	"unicode":       true,

	// Explicitly absent: os, os/exec, net, net/http, syscall, unsafe,
	// plugin, runtime, reflect, io, path/filepath.
}

// forbiddenCalls catches primitives reachable without an import.
var forbiddenCalls = []*regexp.Regexp{
	regexp.MustCompile(`\bunsafe\.`),
	regexp.MustCompile(`\bsyscall\.`),
	regexp.MustCompile(`\bgo:linkname\b`),
	regexp.MustCompile(`import\s+"C"`),
}

// CheckRoutine parses the routine source and verifies it declares the entry
// point and stays inside the allowed capability set.
func CheckRoutine(code string) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "routine.go", code, 0)
	if err != nil {
		return fmt.Errorf("%w: unparseable source: %v", ErrUnsafeRoutine, err)
	}

	if file.Name.Name != "main" {
		return fmt.Errorf("%w: routine must be package main, got %q", ErrUnsafeRoutine, file.Name.Name)
	}

	var violations []string
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		if !allowedImports[path] {
			violations = append(violations, "forbidden import "+path)
		}
	}
	for _, re := range forbiddenCalls {
		if re.MatchString(code) {
			violations = append(violations, "forbidden construct "+re.String())
		}
	}
	if len(violations) > 0 {
		return fmt.Errorf("%w: %s", ErrUnsafeRoutine, strings.Join(violations, "; "))
	}

	if !hasEntryPoint(code) {
		return fmt.Errorf("%w: missing entry point %s", ErrUnsafeRoutine, EntryPoint)
	}
	if strings.Contains(code, "func main(") {
		return fmt.Errorf("%w: routine must not declare func main", ErrUnsafeRoutine)
	}
	return nil
}

func hasEntryPoint(code string) bool {
	return strings.Contains(code, "func "+EntryPoint+"(")
}
