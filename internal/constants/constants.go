// Package constants holds process-wide defaults for the vdev cache.
package constants

const (
	// DefaultCacheMax is the largest client read the cache will absorb, in bytes.
	DefaultCacheMax = 16 << 10

	// DefaultCacheSizeLimit is the aggregate byte budget per cache instance.
	DefaultCacheSizeLimit = 10 << 20

	// DefaultLineShift is log2 of the default cache line size (64 KiB).
	DefaultLineShift = 16

	// StatsName is the registry name telemetry consumers look the cache's
	// counters up under.
	StatsName = "vdev_cache_stats"
)
