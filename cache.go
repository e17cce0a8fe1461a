// Package vdevcache implements a per-vdev read-ahead block cache. It
// sits between a block-addressable client and a raw storage backend:
// small reads fetch an aligned, line-sized chunk from the backend,
// return the requested slice to the caller, and retain the remainder to
// satisfy nearby reads without another device round trip. Concurrent
// readers of a line that is already filling are coalesced onto the
// single outstanding fill rather than each issuing their own I/O.
package vdevcache

import (
	"sync"

	"github.com/behrlich/vdevcache/internal/logging"
	"github.com/google/btree"
)

const btreeDegree = 32

// Options configures a Cache beyond its tunables.
type Options struct {
	// Stats, if non-nil, gives this Cache isolated counters instead of
	// sharing the process-wide "vdev_cache_stats" block.
	Stats *Stats

	// Logger overrides the package default logger.
	Logger *logging.Logger
}

// Cache is a read-ahead block cache for a single vdev. A Cache is safe
// for concurrent use by multiple goroutines.
type Cache struct {
	mu sync.Mutex

	cfg     Config
	backend Backend
	io      IOFramework

	offset *btree.BTree
	lru    *btree.BTree
	count  int64
	tick   uint64

	stats  *Stats
	logger *logging.Logger

	closed bool
}

// NewCache constructs a cache for backend, using io as the asynchronous
// I/O submission collaborator. This is the spec's init(vdev): indices
// start empty and the mutex starts unlocked.
func NewCache(backend Backend, io IOFramework, cfg Config, options *Options) *Cache {
	if options == nil {
		options = &Options{}
	}
	stats := options.Stats
	if stats == nil {
		stats = StatInit()
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.Default()
	}

	c := &Cache{
		cfg:     cfg,
		backend: backend,
		io:      io,
		offset:  btree.New(btreeDegree),
		lru:     btree.New(btreeDegree),
		stats:   stats,
		logger:  logger,
	}
	if cfg.CacheSizeLimit == 0 {
		logger.Info("cache disabled: cache_size_limit=0, misses will flow through uncached")
	}
	return c
}

// Stats returns the cache's telemetry counters.
func (c *Cache) Stats() *Stats {
	return c.stats
}

// Config returns the tunables this cache was constructed with.
func (c *Cache) Config() Config {
	return c.cfg
}

// Purge evicts every resident entry. The caller must ensure no fill is
// in flight (e.g. by quiescing the vdev first); Purge does not check
// this beyond logging a warning, matching spec.md §4.1.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked()
}

func (c *Cache) purgeLocked() {
	c.offset.Ascend(func(item btree.Item) bool {
		e := item.(offsetItem).entry
		if e.fillInFlight != nil {
			c.logger.Warn("purge: entry has a fill in flight", "offset", e.offset)
		}
		return true
	})
	c.offset = btree.New(btreeDegree)
	c.lru = btree.New(btreeDegree)
	c.count = 0
}

// Close purges the cache and marks it closed. It does not unregister the
// process-wide stats block; StatFini does that. This is the spec's
// fini(vdev) = purge + destroy indices and mutex.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked()
	c.closed = true
	return nil
}

// lookupLocked returns the resident entry for lineOffset, or nil.
func (c *Cache) lookupLocked(lineOffset int64) *Entry {
	probe := &Entry{offset: lineOffset}
	item := c.offset.Get(offsetItem{probe})
	if item == nil {
		return nil
	}
	return item.(offsetItem).entry
}

// touchLocked refreshes an entry's last-used tick, bracketing the
// update with LRU removal and reinsertion per invariant 6.
func (c *Cache) touchLocked(e *Entry) {
	c.lru.Delete(lruItem{e})
	c.tick++
	e.lastUsed = c.tick
	c.lru.ReplaceOrInsert(lruItem{e})
}

// lruFrontLocked returns the eviction candidate: the entry with the
// smallest last-used tick, or nil if the cache is empty.
func (c *Cache) lruFrontLocked() *Entry {
	item := c.lru.Min()
	if item == nil {
		return nil
	}
	return item.(lruItem).entry
}

// evictLocked removes e from both indices and releases its buffer.
// Precondition: e.fillInFlight is nil.
func (c *Cache) evictLocked(e *Entry) {
	c.offset.Delete(offsetItem{e})
	c.lru.Delete(lruItem{e})
	c.count--
	e.data = nil
	c.logger.Debug("evict", "offset", e.offset)
}
