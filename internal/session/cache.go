package session

import (
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"sheetbridge/pkg/contracts/domain"
)

// ParseCache memoizes parsed workbooks so repeated interactions over the
// same uploaded bytes skip re-parsing. Keys are a content fingerprint of
// the bytes plus the sheet-name hint; entries expire after a horizon. It is
// a pure memoization layer, not a concurrency primitive — though concurrent
// identical parses are collapsed to one.
type ParseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	group   singleflight.Group
	now     func() time.Time
}

type cacheEntry struct {
	table     *domain.Table
	sheetUsed string
	expires   time.Time
}

// NewParseCache creates a cache with the given eviction horizon.
func NewParseCache(ttl time.Duration) *ParseCache {
	return &ParseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Fingerprint derives the cache key from the uploaded bytes and the sheet
// hint.
func Fingerprint(data []byte, sheetHint string) string {
	h, _ := blake2b.New256(nil)
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(sheetHint))
	return hex.EncodeToString(h.Sum(nil))
}

// GetOrParse returns the cached table for key, or runs parse once (even
// under concurrent identical requests) and caches its result.
func (c *ParseCache) GetOrParse(key string, parse func() (*domain.Table, string, error)) (*domain.Table, string, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expires) {
		c.mu.Unlock()
		return e.table, e.sheetUsed, nil
	}
	delete(c.entries, key)
	c.mu.Unlock()

	type parsed struct {
		table *domain.Table
		sheet string
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		table, sheet, err := parse()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry{table: table, sheetUsed: sheet, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return parsed{table: table, sheet: sheet}, nil
	})
	if err != nil {
		return nil, "", err
	}
	p := v.(parsed)
	return p.table, p.sheet, nil
}

// Invalidate drops the entry for key.
func (c *ParseCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Sweep drops all expired entries.
func (c *ParseCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
}

// Len reports the live entry count (expired entries included until swept).
func (c *ParseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
