// Package cache - content-addressed storage of generation routines keyed by
// document fingerprints, with an embedding-similarity fallback inside each
// format bucket.
//
// On-disk layout: one cache_index.json mapping format hash -> entries, plus
// per-entry artifact files ({key}_routine.go, {key}_metadata.json,
// {key}_embedding.json) named by the shared cache key
// {format_hash}_{full_hash}_{timestamp}.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"synthtab/internal/profile"
)

// ErrCacheMiss is returned when no entry satisfies a similarity query.
// Callers treat it (and any cache I/O failure) as "generate fresh".
var ErrCacheMiss = errors.New("no suitable cache entry")

// ExactMatchThreshold is the query threshold at or above which the full-hash
// exact-match path is attempted before any embedding comparison.
const ExactMatchThreshold = 0.95

// bucketWarnSize triggers an unbounded-growth warning; buckets grow without
// a hard cap and only age-based eviction trims them.
const bucketWarnSize = 64

const indexFileName = "cache_index.json"

// Entry is one cached generation routine inside a format bucket.
type Entry struct {
	CacheKey      string `json:"cache_key"`
	FullHash      string `json:"full_hash"`
	RoutineFile   string `json:"routine_file"`
	MetadataFile  string `json:"metadata_file"`
	EmbeddingFile string `json:"embedding_file"`
	Timestamp     string `json:"timestamp"` // RFC 3339
	SchemaVersion string `json:"schema_version"`
}

// Cache is the fingerprint cache. The in-memory index mirrors
// cache_index.json; every mutation persists before returning, via an atomic
// rename, so concurrent readers never observe a torn index file.
type Cache struct {
	mu     sync.Mutex
	dir    string
	index  map[string][]*Entry
	logger *zap.Logger
	now    func() time.Time
}

// New opens (or creates) a cache rooted at dir and loads the index. A
// corrupt or unreadable index is logged and replaced with an empty one - a
// cache failure must never take the pipeline down.
func New(dir string, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	c := &Cache{
		dir:    dir,
		index:  make(map[string][]*Entry),
		logger: logger,
		now:    time.Now,
	}
	c.loadIndex()
	return c, nil
}

func (c *Cache) indexPath() string { return filepath.Join(c.dir, indexFileName) }

// loadIndex reads cache_index.json if present.
func (c *Cache) loadIndex() {
	raw, err := os.ReadFile(c.indexPath())
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Error("failed to read cache index, starting empty", zap.Error(err))
		}
		return
	}
	if err := json.Unmarshal(raw, &c.index); err != nil {
		c.logger.Error("corrupt cache index, starting empty", zap.Error(err))
		c.index = make(map[string][]*Entry)
	}
}

// persistIndex writes the index atomically (temp file + rename).
func (c *Cache) persistIndex() error {
	raw, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache index: %w", err)
	}
	tmp := c.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write cache index: %w", err)
	}
	if err := os.Rename(tmp, c.indexPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace cache index: %w", err)
	}
	return nil
}

// Register persists a generation routine under the document's fingerprints
// and appends it to the format bucket. Returns the cache key.
func (c *Cache) Register(doc *profile.Document, routineText string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	formatHash := FormatHash(doc)
	fullHash, err := FullHash(doc)
	if err != nil {
		return "", err
	}
	embedding := Embedding(doc)

	now := c.now()
	doc.Stamp(now)
	// Nanosecond precision keeps rapid re-registrations of the same
	// document from colliding on one key.
	cacheKey := fmt.Sprintf("%s_%s_%s", formatHash, fullHash,
		strings.ReplaceAll(now.UTC().Format(time.RFC3339Nano), ":", "-"))

	entry := &Entry{
		CacheKey:      cacheKey,
		FullHash:      fullHash,
		RoutineFile:   filepath.Join(c.dir, cacheKey+"_routine.go"),
		MetadataFile:  filepath.Join(c.dir, cacheKey+"_metadata.json"),
		EmbeddingFile: filepath.Join(c.dir, cacheKey+"_embedding.json"),
		Timestamp:     now.UTC().Format(time.RFC3339),
		SchemaVersion: doc.SchemaVersion,
	}

	if err := c.writeArtifacts(entry, doc, routineText, embedding); err != nil {
		c.removeArtifacts(entry)
		return "", err
	}

	prior := c.index[formatHash]
	c.index[formatHash] = append(append([]*Entry(nil), prior...), entry)
	if err := c.persistIndex(); err != nil {
		// Leave the prior persisted state intact.
		c.index[formatHash] = prior
		c.removeArtifacts(entry)
		c.logger.Error("failed to persist cache index, entry dropped",
			zap.String("cache_key", cacheKey), zap.Error(err))
		return "", err
	}

	if n := len(c.index[formatHash]); n > bucketWarnSize {
		c.logger.Warn("cache bucket growing without bound",
			zap.String("format_hash", formatHash), zap.Int("entries", n))
	}

	c.logger.Info("registered generation routine",
		zap.String("cache_key", cacheKey),
		zap.Int("bucket_size", len(c.index[formatHash])))
	return cacheKey, nil
}

func (c *Cache) writeArtifacts(e *Entry, doc *profile.Document, routineText string, embedding []float64) error {
	if err := os.WriteFile(e.RoutineFile, []byte(routineText), 0o644); err != nil {
		return fmt.Errorf("write routine artifact: %w", err)
	}
	meta, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata artifact: %w", err)
	}
	if err := os.WriteFile(e.MetadataFile, meta, 0o644); err != nil {
		return fmt.Errorf("write metadata artifact: %w", err)
	}
	vec, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("marshal embedding artifact: %w", err)
	}
	if err := os.WriteFile(e.EmbeddingFile, vec, 0o644); err != nil {
		return fmt.Errorf("write embedding artifact: %w", err)
	}
	return nil
}

func (c *Cache) removeArtifacts(e *Entry) {
	for _, f := range []string{e.RoutineFile, e.MetadataFile, e.EmbeddingFile} {
		if f != "" {
			os.Remove(f)
		}
	}
}

// FindSimilar returns the routine text of the best cached entry for the
// document at the given threshold, or ErrCacheMiss.
//
// Thresholds >= ExactMatchThreshold first try a full-hash exact match, which
// short-circuits past the embedding scan entirely. Otherwise every bucket
// entry is scored and the highest similarity >= threshold wins, ties keeping
// the first encountered.
func (c *Cache) FindSimilar(doc *profile.Document, threshold float64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	formatHash := FormatHash(doc)
	bucket := c.index[formatHash]
	if len(bucket) == 0 {
		return "", ErrCacheMiss
	}

	if threshold >= ExactMatchThreshold {
		fullHash, err := FullHash(doc)
		if err != nil {
			return "", err
		}
		for _, e := range bucket {
			if e.FullHash == fullHash {
				c.logger.Info("exact cache match", zap.String("full_hash", fullHash))
				return c.readRoutine(e)
			}
		}
	}

	query := Embedding(doc)
	var best *Entry
	bestSim := 0.0
	for _, e := range bucket {
		cached, err := c.readEmbedding(e)
		if err != nil {
			c.logger.Warn("skipping entry with unreadable embedding",
				zap.String("cache_key", e.CacheKey), zap.Error(err))
			continue
		}
		sim := Similarity(query, cached)
		if sim >= threshold && sim > bestSim {
			best, bestSim = e, sim
		}
	}
	if best == nil {
		return "", ErrCacheMiss
	}
	c.logger.Info("similar cache match",
		zap.String("cache_key", best.CacheKey),
		zap.Float64("similarity", bestSim))
	return c.readRoutine(best)
}

func (c *Cache) readRoutine(e *Entry) (string, error) {
	raw, err := os.ReadFile(e.RoutineFile)
	if err != nil {
		return "", fmt.Errorf("read routine artifact: %w", err)
	}
	return string(raw), nil
}

func (c *Cache) readEmbedding(e *Entry) ([]float64, error) {
	raw, err := os.ReadFile(e.EmbeddingFile)
	if err != nil {
		return nil, err
	}
	var vec []float64
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// Clear removes every stored artifact and resets the index to empty. The
// index file itself stays, holding the empty index.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, de := range entries {
		if de.IsDir() || de.Name() == indexFileName {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, de.Name())); err != nil {
			c.logger.Warn("failed to remove cache artifact",
				zap.String("file", de.Name()), zap.Error(err))
		}
	}
	c.index = make(map[string][]*Entry)
	if err := c.persistIndex(); err != nil {
		return err
	}
	c.logger.Info("cleared all cache entries")
	return nil
}

// ClearOlderThan evicts entries whose timestamp predates now minus the given
// number of days, deleting their artifacts. Buckets left empty are dropped
// from the index entirely.
func (c *Cache) ClearOlderThan(days int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-time.Duration(days) * 24 * time.Hour)
	updated := make(map[string][]*Entry, len(c.index))
	removed := 0
	for formatHash, bucket := range c.index {
		var kept []*Entry
		for _, e := range bucket {
			ts, err := time.Parse(time.RFC3339, e.Timestamp)
			if err == nil && ts.After(cutoff) {
				kept = append(kept, e)
				continue
			}
			c.removeArtifacts(e)
			removed++
		}
		if len(kept) > 0 {
			updated[formatHash] = kept
		}
	}
	c.index = updated
	if err := c.persistIndex(); err != nil {
		return err
	}
	c.logger.Info("evicted old cache entries",
		zap.Int("removed", removed), zap.Int("days", days))
	return nil
}

// Stats summarizes the in-memory index.
type Stats struct {
	Buckets int `json:"buckets"`
	Entries int `json:"entries"`
}

// Stats returns bucket and entry counts.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{Buckets: len(c.index)}
	for _, bucket := range c.index {
		s.Entries += len(bucket)
	}
	return s
}
