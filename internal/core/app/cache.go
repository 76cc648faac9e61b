package app

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// fileResult is what one source file contributes to a build before
// filtering.
type fileResult struct {
	Declaration bool
	Name        string
	Requires    []string
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	result  fileResult
}

// cacheKey includes the encoding because nested roots decode the same file
// with their own charsets.
type cacheKey struct {
	path     string
	encoding string
}

// scanCache keeps the most recently used per-file results keyed by path and
// source encoding. An entry is only valid while the file's modification time
// and size are unchanged.
type scanCache struct {
	entries *lru.Cache[cacheKey, cacheEntry]
}

func newScanCache(capacity int) *scanCache {
	if capacity <= 0 {
		capacity = 1
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[cacheKey, cacheEntry](capacity)
	return &scanCache{entries: entries}
}

func (c *scanCache) Get(path, encoding string, modTime time.Time, size int64) (fileResult, bool) {
	key := cacheKey{path: path, encoding: encoding}
	entry, ok := c.entries.Get(key)
	if !ok {
		return fileResult{}, false
	}
	if !entry.modTime.Equal(modTime) || entry.size != size {
		c.entries.Remove(key)
		return fileResult{}, false
	}
	return cloneResult(entry.result), true
}

func (c *scanCache) Put(path, encoding string, modTime time.Time, size int64, result fileResult) {
	c.entries.Add(cacheKey{path: path, encoding: encoding}, cacheEntry{modTime: modTime, size: size, result: cloneResult(result)})
}

// Evict drops the entries for path under every encoding.
func (c *scanCache) Evict(path string) {
	for _, key := range c.entries.Keys() {
		if key.path == path {
			c.entries.Remove(key)
		}
	}
}

func (c *scanCache) Len() int {
	return c.entries.Len()
}

func cloneResult(r fileResult) fileResult {
	r.Requires = append([]string(nil), r.Requires...)
	return r
}
