package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"synthtab/internal/loader"
	"synthtab/internal/profile"
)

var secureOutput bool

// profileCmd extracts metadata documents from source files
var profileCmd = &cobra.Command{
	Use:   "profile [files...]",
	Short: "Extract metadata documents from source tables",
	Long: `Profiles each source file (CSV, TSV or JSON) into a metadata document
written next to the source as <file>.metadata.json.

With --secure, categorical value inventories are replaced by positional
placeholders so the document can leave the trust boundary.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().BoolVar(&secureOutput, "secure", false, "redact categorical values in the output")
}

func runProfile(cmd *cobra.Command, args []string) error {
	ld := loader.New(loader.WithLogger(logger))
	profiler := profile.NewProfiler(
		profile.WithSampleSize(cfg.Profile.SampleSize),
		profile.WithLogger(logger),
	)

	var g errgroup.Group
	for _, path := range args {
		path := path
		g.Go(func() error {
			t, err := ld.Load(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			doc := profiler.Profile(t)
			doc.Stamp(time.Now().UTC())

			out, err := renderDocument(doc)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			dest := metadataPath(path)
			if err := os.WriteFile(dest, out, 0o644); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			logger.Info("profile written",
				zap.String("source", path),
				zap.String("metadata", dest))
			return nil
		})
	}
	return g.Wait()
}

func renderDocument(doc *profile.Document) ([]byte, error) {
	if secureOutput {
		return doc.SecureJSON()
	}
	return json.MarshalIndent(doc, "", "  ")
}

func metadataPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".metadata.json"
}
