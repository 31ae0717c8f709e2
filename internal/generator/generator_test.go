package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"synthtab/internal/profile"
	"synthtab/internal/table"
)

// mockClient scripts collaborator responses.
type mockClient struct {
	completeFunc func(ctx context.Context, system, user string) (string, error)
	prompts      []string
}

func (m *mockClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	m.prompts = append(m.prompts, user)
	return m.completeFunc(ctx, system, user)
}

// mockExecutor scripts sandbox results per attempt.
type mockExecutor struct {
	tables []*table.Table
	errs   []error
	calls  int
}

func (m *mockExecutor) Run(ctx context.Context, routineText string) (*table.Table, error) {
	i := m.calls
	m.calls++
	if i >= len(m.tables) {
		i = len(m.tables) - 1
	}
	return m.tables[i], m.errs[i]
}

func testDoc() *profile.Document {
	return profile.NewProfiler().Profile(&table.Table{Columns: []table.Column{
		{Name: "age", Kind: table.KindInt, Values: []table.Value{
			table.IntValue(30), table.IntValue(25), table.IntValue(35),
		}},
	}})
}

func tableOf(names ...string) *table.Table {
	t := &table.Table{}
	for _, n := range names {
		t.Columns = append(t.Columns, table.Column{Name: n, Kind: table.KindInt})
	}
	return t
}

func TestGenerateHappyPath(t *testing.T) {
	exec := &mockExecutor{tables: []*table.Table{tableOf("age")}, errs: []error{nil}}
	client := &mockClient{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		return "```go\npackage main\nfunc GenerateTable() (string, error) { return \"\", nil }\n```", nil
	}}
	g := New(exec, WithClient(client))

	res, err := g.Generate(context.Background(), testDoc(), Request{})
	if err != nil {
		t.Fatal(err)
	}
	if exec.calls != 1 {
		t.Errorf("executor calls = %d, want 1", exec.calls)
	}
	if !strings.HasPrefix(res.Routine, "package main") {
		t.Errorf("markdown fences not stripped: %q", res.Routine)
	}
}

func TestGenerateRetriesOnceOnValidationFailure(t *testing.T) {
	// First attempt produces a wrong column set, second a correct one.
	exec := &mockExecutor{
		tables: []*table.Table{tableOf("wrong"), tableOf("age")},
		errs:   []error{nil, nil},
	}
	client := &mockClient{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		return "package main\nfunc GenerateTable() (string, error) { return \"\", nil }", nil
	}}
	g := New(exec, WithClient(client))

	res, err := g.Generate(context.Background(), testDoc(), Request{MatchThreshold: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	if exec.calls != 2 {
		t.Fatalf("executor calls = %d, want exactly 2", exec.calls)
	}
	if res.Table.Columns[0].Name != "age" {
		t.Errorf("second attempt's table not returned")
	}

	// The retry prompt carries the tightened threshold.
	if len(client.prompts) != 2 {
		t.Fatalf("prompts sent = %d, want 2", len(client.prompts))
	}
	if !strings.Contains(client.prompts[0], "Match threshold: 0.8") {
		t.Errorf("first prompt missing threshold: %s", client.prompts[0])
	}
	if !strings.Contains(client.prompts[1], "Match threshold: 0.9") {
		t.Errorf("retry prompt not tightened: %s", client.prompts[1])
	}
}

func TestGenerateRetryThresholdCapped(t *testing.T) {
	exec := &mockExecutor{
		tables: []*table.Table{tableOf("wrong"), tableOf("age")},
		errs:   []error{nil, nil},
	}
	client := &mockClient{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		return "package main\nfunc GenerateTable() (string, error) { return \"\", nil }", nil
	}}
	g := New(exec, WithClient(client))

	if _, err := g.Generate(context.Background(), testDoc(), Request{MatchThreshold: 0.95}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(client.prompts[1], "Match threshold: 1") {
		t.Errorf("retry threshold not capped at 1: %s", client.prompts[1])
	}
}

func TestGenerateSecondAttemptReturnedUnvalidated(t *testing.T) {
	// Both attempts produce the wrong structure; the second is still
	// returned, validation gates only the first.
	exec := &mockExecutor{
		tables: []*table.Table{tableOf("wrong"), tableOf("still_wrong")},
		errs:   []error{nil, nil},
	}
	client := &mockClient{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		return "package main\nfunc GenerateTable() (string, error) { return \"\", nil }", nil
	}}
	g := New(exec, WithClient(client))

	res, err := g.Generate(context.Background(), testDoc(), Request{})
	if err != nil {
		t.Fatal(err)
	}
	if exec.calls != 2 {
		t.Fatalf("executor calls = %d, want 2", exec.calls)
	}
	if res.Table.Columns[0].Name != "still_wrong" {
		t.Error("second attempt's table not returned")
	}
}

func TestGenerateExecutionErrorNotRetried(t *testing.T) {
	execErr := fmt.Errorf("sandbox blew up")
	exec := &mockExecutor{tables: []*table.Table{nil}, errs: []error{execErr}}
	client := &mockClient{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		return "package main\nfunc GenerateTable() (string, error) { return \"\", nil }", nil
	}}
	g := New(exec, WithClient(client))

	_, err := g.Generate(context.Background(), testDoc(), Request{})
	if !errors.Is(err, execErr) {
		t.Fatalf("error = %v, want wrapped executor error", err)
	}
	if exec.calls != 1 {
		t.Errorf("executor calls = %d, want 1 (no retry on execution failure)", exec.calls)
	}
}

func TestGenerateCollaboratorFailureUsesFallback(t *testing.T) {
	exec := &mockExecutor{tables: []*table.Table{tableOf("age")}, errs: []error{nil}}
	client := &mockClient{completeFunc: func(ctx context.Context, system, user string) (string, error) {
		return "", ErrCollaborator
	}}
	g := New(exec, WithClient(client))

	res, err := g.Generate(context.Background(), testDoc(), Request{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Routine, "func GenerateTable()") {
		t.Error("fallback routine missing entry point")
	}
	if !strings.Contains(res.Routine, "package main") {
		t.Error("fallback routine is not package main")
	}
}

func TestGenerateWithoutClientUsesFallback(t *testing.T) {
	exec := &mockExecutor{tables: []*table.Table{tableOf("age")}, errs: []error{nil}}
	g := New(exec)

	res, err := g.Generate(context.Background(), testDoc(), Request{Rows: 50})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Routine, "numRows := 50") {
		t.Errorf("requested row count not honored:\n%s", res.Routine)
	}
}

func TestBuildPromptCarriesConstraintText(t *testing.T) {
	doc := testDoc()
	doc.Constraints = map[string]any{"age": "int"}
	doc.ConstraintText = "age: int type - min=0 - max=120 - REQUIRED"

	prompt, err := buildPrompt(doc, 10, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(prompt, "DATA DICTIONARY CONSTRAINTS (MUST BE FOLLOWED)") {
		t.Error("constraint section missing")
	}
	if !strings.Contains(prompt, doc.ConstraintText) {
		t.Errorf("constraint text not forwarded:\n%s", prompt)
	}
}

func TestBuildPromptConstraintsWithoutText(t *testing.T) {
	// Constraints set directly on the document, no dictionary rendering:
	// the JSON form still travels.
	doc := testDoc()
	doc.Constraints = map[string]any{"age": map[string]any{"min_value": 0}}

	prompt, err := buildPrompt(doc, 10, 0.8)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(prompt, "DATA DICTIONARY CONSTRAINTS (MUST BE FOLLOWED)") {
		t.Error("constraint section missing")
	}
	if !strings.Contains(prompt, "min_value") {
		t.Errorf("JSON constraints not forwarded:\n%s", prompt)
	}
}

func TestExtractCodeBlock(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{
			name:  "go fence",
			input: "Here you go:\n```go\npackage main\n```",
			want:  "package main",
		},
		{
			name:  "bare fence",
			input: "```\npackage main\n```",
			want:  "package main",
		},
		{
			name:  "no fence",
			input: "  package main  ",
			want:  "package main",
		},
		{
			name:  "first block wins",
			input: "```go\nfirst\n```\n```go\nsecond\n```",
			want:  "first",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractCodeBlock(tc.input, "go"); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
