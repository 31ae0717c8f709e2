package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"synthtab/internal/cache"
)

var clearOlderThanDays int

// cacheCmd groups fingerprint-cache maintenance
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the routine cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache bucket and entry counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cache.New(cfg.Cache.Dir, logger)
		if err != nil {
			return err
		}
		stats := c.Stats()
		fmt.Printf("buckets: %d\nentries: %d\n", stats.Buckets, stats.Entries)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached routines",
	Long: `Removes cached routines and their artifacts. Without flags the whole
cache is cleared; with --older-than-days only entries registered before the
cutoff are evicted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cache.New(cfg.Cache.Dir, logger)
		if err != nil {
			return err
		}
		if clearOlderThanDays > 0 {
			return c.ClearOlderThan(clearOlderThanDays)
		}
		return c.Clear()
	},
}

func init() {
	cacheClearCmd.Flags().IntVar(&clearOlderThanDays, "older-than-days", 0, "evict only entries older than this many days")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
