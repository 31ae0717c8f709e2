// Package sandbox executes externally supplied generation routines. The
// routine text is a Go source file (package main) exposing
//
//	func GenerateTable() (string, error)
//
// whose string result is the table wire JSON. The primary execution mode is
// an isolated subprocess with a hard wall-clock timeout; when the isolated
// run fails for any reason other than the timeout, one in-process fallback
// runs the routine under an interpreter restricted to the same capability
// allow-list. The fallback is strictly less safe and is logged as degraded.
package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"synthtab/internal/profile"
	"synthtab/internal/table"
)

// EntryPoint is the zero-argument function every routine must expose.
const EntryPoint = "GenerateTable"

// DefaultTimeout is the hard wall-clock execution limit.
const DefaultTimeout = 30 * time.Second

// runner executes routine text and returns its stdout/result payload.
type runner interface {
	run(ctx context.Context, code string) (string, error)
}

// Executor runs routines and validates their output.
type Executor struct {
	timeout  time.Duration
	isolated runner
	fallback runner
	logger   *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout overrides the hard execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// withRunners swaps the execution backends; test seam.
func withRunners(isolated, fallback runner) Option {
	return func(e *Executor) {
		e.isolated = isolated
		e.fallback = fallback
	}
}

// NewExecutor creates an executor with the subprocess backend and the
// interpreted in-process fallback.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.isolated == nil {
		e.isolated = &subprocessRunner{}
	}
	if e.fallback == nil {
		e.fallback = &interpRunner{}
	}
	return e
}

// Run executes the routine and decodes the produced table.
//
// Timeout expiry is fatal (ErrExecutionTimeout) and is never retried or
// degraded. Any other isolated-run failure triggers exactly one in-process
// fallback attempt; if that also fails the call returns ErrExecutionFailed.
func (e *Executor) Run(ctx context.Context, routineText string) (*table.Table, error) {
	if err := CheckRoutine(routineText); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	payload, err := e.isolated.run(runCtx, routineText)
	if err == nil {
		if t, decodeErr := decodeTable(payload); decodeErr == nil {
			e.logger.Debug("isolated execution succeeded",
				zap.Duration("elapsed", time.Since(start)))
			return t, nil
		} else {
			err = decodeErr
		}
	}

	if timedOut(runCtx, err) {
		return nil, fmt.Errorf("%w after %s", ErrExecutionTimeout, e.timeout)
	}

	// Degraded mode: the reduced-capability in-process interpreter. Flag it
	// loudly so operators notice.
	e.logger.Warn("isolated execution failed, falling back to in-process interpreter",
		zap.Error(err))

	payload, fbErr := e.fallback.run(runCtx, routineText)
	if fbErr != nil {
		if timedOut(runCtx, fbErr) {
			return nil, fmt.Errorf("%w after %s", ErrExecutionTimeout, e.timeout)
		}
		return nil, fmt.Errorf("%w: isolated: %v; fallback: %v", ErrExecutionFailed, err, fbErr)
	}
	t, decodeErr := decodeTable(payload)
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: fallback produced undecodable output: %v", ErrExecutionFailed, decodeErr)
	}
	return t, nil
}

// Validate checks the produced table against the metadata document:
// identical column count and identical column-name set, order ignored.
// Structure only - statistical fidelity is not checked here.
func Validate(t *table.Table, doc *profile.Document) error {
	want := doc.Structure.Columns
	if t.NumCols() != want {
		return fmt.Errorf("%w: column count %d, want %d", ErrValidationFailed, t.NumCols(), want)
	}
	expected := make(map[string]bool, want)
	for _, f := range doc.Structure.Fields {
		expected[f.Name] = true
	}
	for _, name := range t.ColumnNames() {
		if !expected[name] {
			return fmt.Errorf("%w: unexpected column %q", ErrValidationFailed, name)
		}
		delete(expected, name)
	}
	for name := range expected {
		return fmt.Errorf("%w: missing column %q", ErrValidationFailed, name)
	}
	return nil
}

// decodeTable parses the wire JSON a routine returns.
func decodeTable(payload string) (*table.Table, error) {
	var t table.Table
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return nil, fmt.Errorf("decode routine output: %w", err)
	}
	return &t, nil
}

// timedOut reports whether the error (or context state) is deadline expiry.
func timedOut(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded)
}
