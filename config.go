package vdevcache

import "github.com/behrlich/vdevcache/internal/constants"

// Config holds the cache's tunables. Unlike the C original, these are
// not process-global mutable integers: each Cache snapshots its own
// Config at construction time, so two caches in the same process may
// run different policies.
type Config struct {
	// CacheMax is the largest client read the cache will absorb, in
	// bytes. Larger reads bypass the cache entirely.
	CacheMax int64

	// CacheSizeLimit is the aggregate byte budget for resident entries.
	// Zero disables allocation: misses flow through uncached, but
	// entries already resident keep serving hits until evicted.
	CacheSizeLimit int64

	// LineShift is log2 of the cache line size; LineSize = 1<<LineShift.
	LineShift uint
}

// DefaultConfig returns the spec's default tunables: 16 KiB max request
// size, 10 MiB aggregate budget, 64 KiB lines.
func DefaultConfig() Config {
	return Config{
		CacheMax:       constants.DefaultCacheMax,
		CacheSizeLimit: constants.DefaultCacheSizeLimit,
		LineShift:      constants.DefaultLineShift,
	}
}

// LineSize returns 1<<LineShift, the granularity of fills and indexing.
func (c Config) LineSize() int64 {
	return int64(1) << c.LineShift
}

func alignDown(offset, line int64) int64 {
	return offset &^ (line - 1)
}

func alignUp(offset, line int64) int64 {
	return alignDown(offset+line-1, line)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
