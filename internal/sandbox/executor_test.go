package sandbox

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"synthtab/internal/profile"
	"synthtab/internal/table"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubRunner is a scriptable execution backend.
type stubRunner struct {
	payload string
	err     error
	calls   int
	// block makes run wait for the context before returning its error.
	block bool
}

func (s *stubRunner) run(ctx context.Context, code string) (string, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.payload, s.err
}

const okRoutine = `package main

func GenerateTable() (string, error) { return "", nil }
`

const wirePayload = `{"columns":[{"name":"n","kind":"int","values":[1,2,3]}],"rows":3}`

func TestRunIsolatedSuccess(t *testing.T) {
	isolated := &stubRunner{payload: wirePayload}
	fallback := &stubRunner{}
	e := NewExecutor(withRunners(isolated, fallback))

	got, err := e.Run(context.Background(), okRoutine)
	if err != nil {
		t.Fatal(err)
	}
	if got.NumRows() != 3 || got.NumCols() != 1 {
		t.Errorf("table shape = %dx%d", got.NumRows(), got.NumCols())
	}
	if fallback.calls != 0 {
		t.Error("fallback ran despite isolated success")
	}
}

func TestRunFallsBackOnFailure(t *testing.T) {
	isolated := &stubRunner{err: fmt.Errorf("go toolchain not found")}
	fallback := &stubRunner{payload: wirePayload}
	e := NewExecutor(withRunners(isolated, fallback), WithLogger(zap.NewNop()))

	got, err := e.Run(context.Background(), okRoutine)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || fallback.calls != 1 {
		t.Errorf("fallback calls = %d, want 1", fallback.calls)
	}
}

func TestRunBothFail(t *testing.T) {
	isolated := &stubRunner{err: fmt.Errorf("compile error")}
	fallback := &stubRunner{err: fmt.Errorf("eval error")}
	e := NewExecutor(withRunners(isolated, fallback))

	_, err := e.Run(context.Background(), okRoutine)
	if !errors.Is(err, ErrExecutionFailed) {
		t.Fatalf("error = %v, want ErrExecutionFailed", err)
	}
	if isolated.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", isolated.calls, fallback.calls)
	}
}

func TestRunTimeoutIsFatal(t *testing.T) {
	isolated := &stubRunner{block: true}
	fallback := &stubRunner{payload: wirePayload}
	e := NewExecutor(withRunners(isolated, fallback), WithTimeout(20*time.Millisecond))

	_, err := e.Run(context.Background(), okRoutine)
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Fatalf("error = %v, want ErrExecutionTimeout", err)
	}
	// Timeout must never degrade to the fallback.
	if fallback.calls != 0 {
		t.Errorf("fallback ran after timeout: %d calls", fallback.calls)
	}
}

func TestRunRejectsUnsafeBeforeExecution(t *testing.T) {
	isolated := &stubRunner{payload: wirePayload}
	e := NewExecutor(withRunners(isolated, &stubRunner{}))

	_, err := e.Run(context.Background(), `package main
import "os"
func GenerateTable() (string, error) { return os.Getenv("x"), nil }`)
	if !errors.Is(err, ErrUnsafeRoutine) {
		t.Fatalf("error = %v, want ErrUnsafeRoutine", err)
	}
	if isolated.calls != 0 {
		t.Error("unsafe routine reached the runner")
	}
}

func TestRunUndecodableIsolatedOutputFallsBack(t *testing.T) {
	isolated := &stubRunner{payload: "not json"}
	fallback := &stubRunner{payload: wirePayload}
	e := NewExecutor(withRunners(isolated, fallback))

	got, err := e.Run(context.Background(), okRoutine)
	if err != nil {
		t.Fatal(err)
	}
	if got.NumRows() != 3 {
		t.Errorf("rows = %d, want 3", got.NumRows())
	}
}

func docWithColumns(names ...string) *profile.Document {
	doc := &profile.Document{}
	doc.Structure.Columns = len(names)
	for _, n := range names {
		doc.Structure.Fields = append(doc.Structure.Fields, profile.FieldInfo{Name: n})
	}
	return doc
}

func tableWithColumns(names ...string) *table.Table {
	t := &table.Table{}
	for _, n := range names {
		t.Columns = append(t.Columns, table.Column{Name: n, Kind: table.KindInt})
	}
	return t
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   *table.Table
		doc     *profile.Document
		wantErr bool
	}{
		{"matching set", tableWithColumns("a", "b"), docWithColumns("a", "b"), false},
		{"order ignored", tableWithColumns("b", "a"), docWithColumns("a", "b"), false},
		{"missing column", tableWithColumns("a"), docWithColumns("a", "b"), true},
		{"extra column", tableWithColumns("a", "b", "c"), docWithColumns("a", "b"), true},
		{"renamed column", tableWithColumns("a", "x"), docWithColumns("a", "b"), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.table, tc.doc)
			if tc.wantErr {
				if !errors.Is(err, ErrValidationFailed) {
					t.Errorf("error = %v, want ErrValidationFailed", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
