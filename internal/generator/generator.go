// Package generator turns a metadata document into a generation routine and
// a synthetic table. The routine text comes from the collaborator model when
// a client is configured, or from the template fallback otherwise; execution
// and structural validation are delegated to the sandbox.
package generator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"synthtab/internal/profile"
	"synthtab/internal/sandbox"
	"synthtab/internal/table"
)

// DefaultMatchThreshold is how closely generated data should track the
// source statistics when the caller does not say otherwise.
const DefaultMatchThreshold = 0.8

// retryThresholdStep tightens the match threshold for the single
// regeneration attempt after a validation failure.
const retryThresholdStep = 0.1

// Executor runs routine text and returns the decoded table.
type Executor interface {
	Run(ctx context.Context, routineText string) (*table.Table, error)
}

// Result carries a successful generation: the routine text that produced the
// table (for cache registration) and the table itself.
type Result struct {
	Routine string
	Table   *table.Table
}

// Generator produces synthetic tables from metadata documents.
type Generator struct {
	client   Client
	executor Executor
	logger   *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithClient attaches a collaborator client. Without one the template
// fallback is used for every request.
func WithClient(c Client) Option {
	return func(g *Generator) { g.client = c }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New creates a Generator bound to an executor.
func New(executor Executor, opts ...Option) *Generator {
	g := &Generator{
		executor: executor,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Request holds per-call generation parameters.
type Request struct {
	// Rows is the number of rows to generate; 0 means match the source.
	Rows int
	// MatchThreshold is the statistical fidelity target in [0,1];
	// 0 means DefaultMatchThreshold.
	MatchThreshold float64
}

// Generate produces a synthetic table for the document.
//
// A structural validation failure triggers exactly one regeneration with the
// threshold tightened by retryThresholdStep (capped at 1.0); the second
// attempt's table is returned without a further validation gate. Execution
// timeouts are fatal and are never retried.
func (g *Generator) Generate(ctx context.Context, doc *profile.Document, req Request) (*Result, error) {
	rows := req.Rows
	if rows <= 0 {
		rows = doc.Structure.Rows
	}
	threshold := req.MatchThreshold
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}

	g.logger.Info("starting synthetic generation",
		zap.Int("rows", rows),
		zap.Float64("match_threshold", threshold))

	res, err := g.attempt(ctx, doc, rows, threshold)
	if err != nil {
		return nil, err
	}

	if err := sandbox.Validate(res.Table, doc); err != nil {
		g.logger.Warn("validation failed, regenerating with stricter parameters",
			zap.Error(err))
		stricter := threshold + retryThresholdStep
		if stricter > 1.0 {
			stricter = 1.0
		}
		return g.attempt(ctx, doc, rows, stricter)
	}

	g.logger.Info("generation succeeded",
		zap.Int("rows", res.Table.NumRows()),
		zap.Int("columns", res.Table.NumCols()))
	return res, nil
}

// attempt builds routine text and runs it once.
func (g *Generator) attempt(ctx context.Context, doc *profile.Document, rows int, threshold float64) (*Result, error) {
	routine, err := g.buildRoutine(ctx, doc, rows, threshold)
	if err != nil {
		return nil, err
	}

	t, err := g.executor.Run(ctx, routine)
	if err != nil {
		return nil, fmt.Errorf("execute generation routine: %w", err)
	}
	return &Result{Routine: routine, Table: t}, nil
}

// buildRoutine obtains routine text from the collaborator, degrading to the
// template fallback when no client is configured or the call fails.
func (g *Generator) buildRoutine(ctx context.Context, doc *profile.Document, rows int, threshold float64) (string, error) {
	if g.client == nil {
		g.logger.Debug("no collaborator configured, using template fallback")
		return buildFallbackRoutine(doc, rows)
	}

	prompt, err := buildPrompt(doc, rows, threshold)
	if err != nil {
		return "", err
	}

	resp, err := g.client.CompleteWithSystem(ctx, systemPrompt, prompt)
	if err != nil {
		g.logger.Warn("collaborator call failed, using template fallback", zap.Error(err))
		return buildFallbackRoutine(doc, rows)
	}

	code := extractCodeBlock(resp, "go")
	if code == "" {
		g.logger.Warn("collaborator returned empty routine, using template fallback")
		return buildFallbackRoutine(doc, rows)
	}
	return code, nil
}
