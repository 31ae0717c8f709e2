package pipeline

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"synthtab/internal/cache"
	"synthtab/internal/generator"
	"synthtab/internal/table"
)

const cannedRoutine = `package main

func GenerateTable() (string, error) { return "{}", nil }`

type scriptedClient struct {
	calls int
}

func (c *scriptedClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	c.calls++
	return cannedRoutine, nil
}

type scriptedExecutor struct {
	table    *table.Table
	routines []string
	failures int // fail the first N runs
}

func (e *scriptedExecutor) Run(ctx context.Context, routineText string) (*table.Table, error) {
	e.routines = append(e.routines, routineText)
	if len(e.routines) <= e.failures {
		return nil, errors.New("routine crashed")
	}
	return e.table, nil
}

func sourceTable() *table.Table {
	return table.New(table.Column{Name: "age", Kind: table.KindInt, Values: []table.Value{
		table.IntValue(30), table.IntValue(25), table.IntValue(35),
	}})
}

func newTestPipeline(t *testing.T, exec *scriptedExecutor, client *scriptedClient) *Pipeline {
	t.Helper()
	c, err := cache.New(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	p, err := New(Options{
		Cache:     c,
		Generator: generator.New(exec, generator.WithClient(client)),
		Executor:  exec,
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("empty options accepted")
	}
}

func TestSynthesizeMissThenHit(t *testing.T) {
	exec := &scriptedExecutor{table: sourceTable()}
	client := &scriptedClient{}
	p := newTestPipeline(t, exec, client)

	doc := p.Profile(sourceTable())

	// First call misses the cache and generates.
	res, err := p.Synthesize(context.Background(), doc, generator.Request{})
	if err != nil {
		t.Fatal(err)
	}
	if client.calls != 1 {
		t.Fatalf("collaborator calls = %d, want 1", client.calls)
	}
	if res.Routine != cannedRoutine {
		t.Errorf("routine = %q", res.Routine)
	}
	if got := p.CacheStats(); got.Entries != 1 {
		t.Fatalf("cache entries after miss = %d, want 1", got.Entries)
	}

	// Second call for the same data replays the stored routine without
	// going back to the collaborator.
	doc2 := p.Profile(sourceTable())
	res2, err := p.Synthesize(context.Background(), doc2, generator.Request{})
	if err != nil {
		t.Fatal(err)
	}
	if client.calls != 1 {
		t.Errorf("collaborator calls after hit = %d, want still 1", client.calls)
	}
	if res2.Routine != cannedRoutine {
		t.Errorf("replayed routine = %q", res2.Routine)
	}
	if got := p.CacheStats(); got.Entries != 1 {
		t.Errorf("cache entries after hit = %d, want 1", got.Entries)
	}
}

func TestSynthesizeRegeneratesWhenCachedRoutineFails(t *testing.T) {
	exec := &scriptedExecutor{table: sourceTable()}
	client := &scriptedClient{}
	p := newTestPipeline(t, exec, client)

	doc := p.Profile(sourceTable())
	if _, err := p.Synthesize(context.Background(), doc, generator.Request{}); err != nil {
		t.Fatal(err)
	}

	// The cached routine's replay crashes; the pipeline falls through to
	// a fresh generation.
	exec2 := &scriptedExecutor{table: sourceTable(), failures: 1}
	p.executor = exec2
	p.generator = generator.New(exec2, generator.WithClient(client))

	doc2 := p.Profile(sourceTable())
	res, err := p.Synthesize(context.Background(), doc2, generator.Request{})
	if err != nil {
		t.Fatal(err)
	}
	if client.calls != 2 {
		t.Errorf("collaborator calls = %d, want 2", client.calls)
	}
	if len(exec2.routines) != 2 {
		t.Errorf("executor runs = %d, want 2 (replay then regenerate)", len(exec2.routines))
	}
	if res.Table == nil {
		t.Error("no table returned after regeneration")
	}
}

func TestEvict(t *testing.T) {
	exec := &scriptedExecutor{table: sourceTable()}
	client := &scriptedClient{}
	p := newTestPipeline(t, exec, client)

	doc := p.Profile(sourceTable())
	if _, err := p.Synthesize(context.Background(), doc, generator.Request{}); err != nil {
		t.Fatal(err)
	}
	if got := p.CacheStats(); got.Entries != 1 {
		t.Fatalf("entries = %d, want 1", got.Entries)
	}

	// Fresh entries survive age-based eviction.
	if err := p.Evict(30); err != nil {
		t.Fatal(err)
	}
	if got := p.CacheStats(); got.Entries != 1 {
		t.Errorf("entries after aged eviction = %d, want 1", got.Entries)
	}

	// Non-positive days clears everything.
	if err := p.Evict(0); err != nil {
		t.Fatal(err)
	}
	if got := p.CacheStats(); got.Entries != 0 {
		t.Errorf("entries after clear = %d, want 0", got.Entries)
	}
}
