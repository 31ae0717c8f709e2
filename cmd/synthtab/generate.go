package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"synthtab/internal/cache"
	"synthtab/internal/dictionary"
	"synthtab/internal/generator"
	"synthtab/internal/loader"
	"synthtab/internal/pipeline"
	"synthtab/internal/profile"
	"synthtab/internal/sandbox"
	"synthtab/internal/table"
)

var (
	genRows       int
	genThreshold  float64
	genOutput     string
	genDictionary string
)

// generateCmd produces a synthetic table from a source file
var generateCmd = &cobra.Command{
	Use:   "generate [file]",
	Short: "Generate a synthetic table from a source table",
	Long: `Profiles the source file and generates a synthetic table preserving its
statistical shape. The result is written as wire JSON to --output, or to
<file>.synthetic.json by default.

A data dictionary (--dictionary, YAML or JSON) adds hard constraints that
override the observed statistics during generation.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&genRows, "rows", 0, "rows to generate (default: match source)")
	generateCmd.Flags().Float64Var(&genThreshold, "match-threshold", 0, "statistical fidelity target in [0,1]")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "output path for the synthetic table")
	generateCmd.Flags().StringVar(&genDictionary, "dictionary", "", "data dictionary file with generation constraints")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	src := args[0]

	ld := loader.New(loader.WithLogger(logger))
	t, err := ld.Load(src)
	if err != nil {
		return err
	}

	profiler := profile.NewProfiler(
		profile.WithSampleSize(cfg.Profile.SampleSize),
		profile.WithLogger(logger),
	)
	doc := profiler.Profile(t)

	var dict *dictionary.Dictionary
	if genDictionary != "" {
		dict, err = dictionary.Load(genDictionary)
		if err != nil {
			return err
		}
		dict.Apply(doc)
		logger.Info("dictionary constraints applied",
			zap.Int("columns", len(dict.Columns)))
	}

	p, err := buildPipeline(cmd)
	if err != nil {
		return err
	}

	threshold := genThreshold
	if threshold == 0 {
		threshold = cfg.Generator.MatchThreshold
	}
	res, err := p.Synthesize(cmd.Context(), doc, generator.Request{
		Rows:           genRows,
		MatchThreshold: threshold,
	})
	if err != nil {
		return err
	}

	if dict != nil {
		if n := reportViolations(dict, res.Table); n > 0 {
			logger.Warn("synthetic table violates dictionary constraints",
				zap.Int("columns", n))
		}
	}

	out, err := json.MarshalIndent(res.Table, "", "  ")
	if err != nil {
		return err
	}

	dest := genOutput
	if dest == "" {
		dest = syntheticPath(src)
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return err
	}
	logger.Info("synthetic table written",
		zap.String("output", dest),
		zap.Int("rows", res.Table.NumRows()),
		zap.Int("columns", res.Table.NumCols()))
	return nil
}

// buildPipeline assembles the cache, executor and generator from config.
func buildPipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	c, err := cache.New(cfg.Cache.Dir, logger)
	if err != nil {
		return nil, err
	}

	exec := sandbox.NewExecutor(
		sandbox.WithTimeout(cfg.SandboxTimeout()),
		sandbox.WithLogger(logger),
	)

	genOpts := []generator.Option{generator.WithLogger(logger)}
	if cfg.Generator.APIKey != "" {
		client, err := generator.NewGenAIClient(cmd.Context(), cfg.Generator.APIKey, cfg.Generator.Model)
		if err != nil {
			return nil, err
		}
		genOpts = append(genOpts, generator.WithClient(client))
	} else {
		logger.Warn("no collaborator API key configured, using template fallback")
	}
	gen := generator.New(exec, genOpts...)

	return pipeline.New(pipeline.Options{
		Cache:               c,
		Generator:           gen,
		Executor:            exec,
		Logger:              logger,
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
	})
}

// reportViolations logs each dictionary violation found in the generated
// table and returns the number of offending columns.
func reportViolations(dict *dictionary.Dictionary, t *table.Table) int {
	violations := dict.Validate(t)
	for col, msgs := range violations {
		logger.Warn("dictionary constraint violated",
			zap.String("column", col),
			zap.Strings("violations", msgs))
	}
	return len(violations)
}

func syntheticPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".synthetic.json"
}
