package lexer

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/danieljhkim/conflictfix/internal/hash"
)

// DefaultCacheSize bounds the number of scanned files kept in memory.
const DefaultCacheSize = 1024

// Cache memoizes Scan by content hash. Detection and resolution of the same
// file within one run then share a single scan.
type Cache struct {
	entries *lru.Cache[string, *Source]
}

// NewCache creates a cache holding up to size scanned sources.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *Source](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Scan returns the cached scan of text, scanning on a miss. A nil Cache scans
// every time.
func (c *Cache) Scan(text string) *Source {
	if c == nil || c.entries == nil {
		return Scan(text)
	}
	key := hash.Bytes([]byte(text))
	if src, ok := c.entries.Get(key); ok {
		return src
	}
	src := Scan(text)
	c.entries.Add(key, src)
	return src
}

// Len returns the number of cached sources.
func (c *Cache) Len() int {
	if c == nil || c.entries == nil {
		return 0
	}
	return c.entries.Len()
}
