// Package pipeline wires the profiler, the fingerprint cache, the generator
// and the sandbox into one synthesis flow. A request profiles nothing itself;
// it operates on an already-extracted metadata document, so callers can
// profile once and synthesize many times.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"synthtab/internal/cache"
	"synthtab/internal/generator"
	"synthtab/internal/profile"
	"synthtab/internal/table"
)

// Pipeline owns the full profile-cache-generate cycle.
type Pipeline struct {
	profiler  *profile.Profiler
	cache     *cache.Cache
	generator *generator.Generator
	executor  generator.Executor
	logger    *zap.Logger

	// similarityThreshold is the default cache lookup threshold.
	similarityThreshold float64
}

// Options bundle the pipeline collaborators.
type Options struct {
	Profiler            *profile.Profiler
	Cache               *cache.Cache
	Generator           *generator.Generator
	Executor            generator.Executor
	Logger              *zap.Logger
	SimilarityThreshold float64
}

// New assembles a pipeline. Cache, Generator and Executor are required;
// Profiler defaults to a stock one and Logger to a nop.
func New(opts Options) (*Pipeline, error) {
	if opts.Cache == nil || opts.Generator == nil || opts.Executor == nil {
		return nil, fmt.Errorf("pipeline requires cache, generator and executor")
	}
	p := &Pipeline{
		profiler:            opts.Profiler,
		cache:               opts.Cache,
		generator:           opts.Generator,
		executor:            opts.Executor,
		logger:              opts.Logger,
		similarityThreshold: opts.SimilarityThreshold,
	}
	if p.profiler == nil {
		p.profiler = profile.NewProfiler()
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.similarityThreshold <= 0 {
		p.similarityThreshold = 0.85
	}
	return p, nil
}

// Profile extracts the metadata document for a source table.
func (p *Pipeline) Profile(t *table.Table) *profile.Document {
	return p.profiler.Profile(t)
}

// Synthesize produces a synthetic table for the document.
//
// A cached routine whose fingerprint is similar enough is replayed first;
// when it fails or none exists, a fresh routine is generated and, on
// success, registered in the cache. The returned routine text is whatever
// actually produced the table.
func (p *Pipeline) Synthesize(ctx context.Context, doc *profile.Document, req generator.Request) (*generator.Result, error) {
	requestID := uuid.NewString()
	log := p.logger.With(zap.String("request_id", requestID))

	if routine, err := p.cache.FindSimilar(doc, p.similarityThreshold); err == nil {
		log.Info("cache hit, replaying stored routine")
		t, runErr := p.executor.Run(ctx, routine)
		if runErr == nil {
			return &generator.Result{Routine: routine, Table: t}, nil
		}
		log.Warn("cached routine failed, regenerating", zap.Error(runErr))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn("cache lookup failed", zap.Error(err))
	}

	res, err := p.generator.Generate(ctx, doc, req)
	if err != nil {
		return nil, err
	}

	if key, regErr := p.cache.Register(doc, res.Routine); regErr != nil {
		log.Warn("cache registration failed", zap.Error(regErr))
	} else {
		log.Info("routine cached", zap.String("cache_key", key))
	}
	return res, nil
}

// Evict applies age-based eviction, or clears everything when days <= 0.
func (p *Pipeline) Evict(days int) error {
	if days <= 0 {
		return p.cache.Clear()
	}
	return p.cache.ClearOlderThan(days)
}

// CacheStats reports the cache's bucket and entry counts.
func (p *Pipeline) CacheStats() cache.Stats {
	return p.cache.Stats()
}
