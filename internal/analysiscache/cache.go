// Package analysiscache persists a file-path-to-content-hash map between
// runs so that unchanged files can be identified for incremental display,
// and offers an in-process memoization layer for per-run deduplication of
// file reads across the eight analyzers.
//
// Grounded on the teacher's config-loading tolerance-of-corruption pattern
// (phrazzld-thinktank internal/config/loader.go treats a missing config file
// as "use defaults", never a fatal error) generalized to a hash cache.
package analysiscache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Entry is one cached file record.
type Entry struct {
	SHA256     string `json:"sha256"`
	AnalyzedAt int64  `json:"analyzedAtMs"`
}

// Cache is the on-disk content-hash cache plus an in-memory per-run
// read-memoization layer. No locking beyond an internal mutex: the cache
// assumes a single process per repository (spec §4.2 / §5).
type Cache struct {
	path    string
	mu      sync.Mutex
	entries map[string]Entry
	dirty   bool

	memo *gocache.Cache // in-process read memoization, cleared each run
}

// New creates a cache bound to "<root>/.handover/.cache.json".
func New(root string) *Cache {
	return &Cache{
		path:    filepath.Join(root, ".handover", ".cache.json"),
		entries: make(map[string]Entry),
		memo:    gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// Load reads the on-disk cache. A missing or malformed file is treated as an
// empty cache, never an error.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		c.entries = make(map[string]Entry)
		return nil
	}
	var m map[string]Entry
	if err := json.Unmarshal(data, &m); err != nil {
		c.entries = make(map[string]Entry)
		return nil
	}
	c.entries = m
	return nil
}

// IsUnchanged reports whether path's previously recorded hash matches hash.
func (c *Cache) IsUnchanged(path, hash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	return ok && e.SHA256 == hash
}

// Update records path's current hash, marking the cache dirty.
func (c *Cache) Update(path, hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok && e.SHA256 == hash {
		return
	}
	c.entries[path] = Entry{SHA256: hash, AnalyzedAt: time.Now().UnixMilli()}
	c.dirty = true
}

// GetChangedFiles returns the subset of currentHashes whose hash differs
// from (or is absent from) the cache.
func (c *Cache) GetChangedFiles(currentHashes map[string]string) map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := make(map[string]bool)
	for path, hash := range currentHashes {
		if e, ok := c.entries[path]; !ok || e.SHA256 != hash {
			changed[path] = true
		}
	}
	return changed
}

// Save writes the cache to disk. A no-op when nothing has changed since
// Load.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// ReadFileMemoized reads path's content once per run, serving repeat reads
// from the in-process cache so the eight concurrent analyzers don't each
// re-stat and re-read files the others already visited.
func (c *Cache) ReadFileMemoized(path string) ([]byte, error) {
	if v, ok := c.memo.Get(path); ok {
		return v.([]byte), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c.memo.Set(path, data, gocache.DefaultExpiration)
	return data, nil
}

// HashFile computes the SHA-256 hex digest of a file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
