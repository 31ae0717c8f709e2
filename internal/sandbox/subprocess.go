// Package sandbox - isolated subprocess execution.
//
// The routine is written into a throwaway module together with a wrapper
// main that calls the entry point and prints the wire JSON to stdout, then
// run with `go run .` under the caller's deadline. CGO is disabled and the
// process inherits no extra environment beyond the toolchain's needs; the
// OS process boundary is the isolation boundary.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const wrapperMain = `package main

import (
	"fmt"
	"os"
)

func main() {
	out, err := GenerateTable()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Print(out)
}
`

const routineGoMod = "module routine\n\ngo 1.24\n"

// subprocessRunner executes routines via `go run` in a temp module.
type subprocessRunner struct{}

func (r *subprocessRunner) run(ctx context.Context, code string) (string, error) {
	dir, err := os.MkdirTemp("", "synthtab-routine-*")
	if err != nil {
		return "", fmt.Errorf("create routine workdir: %w", err)
	}
	defer os.RemoveAll(dir)

	files := map[string]string{
		"routine.go": code,
		"main.go":    wrapperMain,
		"go.mod":     routineGoMod,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", name, err)
		}
	}

	cmd := exec.CommandContext(ctx, "go", "run", ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0", "GOFLAGS=-mod=mod")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("routine process failed: %w: %s", err, firstLines(stderr.String(), 5))
	}
	if stdout.Len() == 0 {
		return "", fmt.Errorf("routine process produced no output")
	}
	return stdout.String(), nil
}

// firstLines truncates noisy compiler output for error messages.
func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, " | ")
}
