// Package cache keeps built drug lookup tables in memory so that resolving an
// edit does not rebuild the table from the drug registry every time.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

const lookupKey = "drug-lookup"

// Stats represents cache performance statistics
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Loads   int64 `json:"loads"`
	Errors  int64 `json:"errors"`
	Entries int   `json:"entries"`
}

// DrugLookupCache wraps a DrugRegistry with an expirable LRU.
type DrugLookupCache struct {
	registry domain.DrugRegistry
	lru      *expirable.LRU[string, domain.DrugLookup]
	logger   *logrus.Logger

	loadMu sync.Mutex

	// genMu orders Invalidate against the store of a finished load.
	genMu      sync.Mutex
	generation uint64

	statsMu sync.Mutex
	stats   Stats
}

// NewDrugLookupCache creates a cache in front of registry. Zero size or ttl
// fall back to 16 entries and 5 minutes.
func NewDrugLookupCache(registry domain.DrugRegistry, size int, ttl time.Duration, logger *logrus.Logger) *DrugLookupCache {
	if size <= 0 {
		size = 16
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DrugLookupCache{
		registry: registry,
		lru:      expirable.NewLRU[string, domain.DrugLookup](size, nil, ttl),
		logger:   logger,
	}
}

// Lookup returns the cached table, loading it from the registry on a miss.
func (c *DrugLookupCache) Lookup(ctx context.Context) (domain.DrugLookup, error) {
	if lookup, ok := c.lru.Get(lookupKey); ok {
		c.record(func(s *Stats) { s.Hits++ })
		return lookup, nil
	}
	c.record(func(s *Stats) { s.Misses++ })

	// One loader at a time; later callers find the fresh entry.
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if lookup, ok := c.lru.Get(lookupKey); ok {
		return lookup, nil
	}

	gen := c.currentGeneration()
	lookup, err := c.registry.Lookup(ctx)
	if err != nil {
		c.record(func(s *Stats) { s.Errors++ })
		return nil, fmt.Errorf("failed to load drug lookup: %w", err)
	}
	c.record(func(s *Stats) { s.Loads++ })

	// A table read before an Invalidate is returned but not cached.
	c.genMu.Lock()
	stale := gen != c.generation
	if !stale {
		c.lru.Add(lookupKey, lookup)
	}
	c.genMu.Unlock()
	if stale {
		c.logger.Debug("Drug registry changed during load, not caching lookup")
		return lookup, nil
	}

	c.logger.WithField("drugs", len(lookup)).Debug("Drug lookup loaded")
	return lookup, nil
}

// Invalidate drops the cached table; the next Lookup reloads it. Loads
// already in flight do not repopulate the cache.
func (c *DrugLookupCache) Invalidate() {
	c.genMu.Lock()
	c.generation++
	c.lru.Purge()
	c.genMu.Unlock()
}

func (c *DrugLookupCache) currentGeneration() uint64 {
	c.genMu.Lock()
	defer c.genMu.Unlock()
	return c.generation
}

// GetStats returns a snapshot of the cache statistics.
func (c *DrugLookupCache) GetStats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	s := c.stats
	s.Entries = c.lru.Len()
	return s
}

func (c *DrugLookupCache) record(update func(*Stats)) {
	c.statsMu.Lock()
	update(&c.stats)
	c.statsMu.Unlock()
}
