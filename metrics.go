package vdevcache

import (
	"sync"
	"sync/atomic"

	"github.com/behrlich/vdevcache/internal/constants"
)

// Stats is the three-counter telemetry block the cache maintains per
// spec: hits, misses, and delegations. Counters are updated with
// relaxed atomic increments and are never read under the cache lock.
type Stats struct {
	hits        atomic.Uint64
	misses      atomic.Uint64
	delegations atomic.Uint64
}

// NewStats returns a fresh, unregistered counter block. Pass it via
// Options.Stats to give a Cache isolated counters instead of sharing the
// process-wide "vdev_cache_stats" block.
func NewStats() *Stats {
	return &Stats{}
}

// StatsSnapshot is a point-in-time copy of a Stats block's counters.
type StatsSnapshot struct {
	Hits        uint64
	Misses      uint64
	Delegations uint64
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		Delegations: s.delegations.Load(),
	}
}

var (
	registryMu sync.Mutex
	registry   = map[string]*Stats{}
)

// StatsName is the name the three-counter telemetry block is registered
// under when a Cache does not supply its own Stats.
const StatsName = constants.StatsName

// StatInit registers (creating if necessary) the process-wide counter
// block under StatsName and returns it. Safe to call repeatedly; every
// caller observes the same block until StatFini unregisters it.
func StatInit() *Stats {
	registryMu.Lock()
	defer registryMu.Unlock()
	s, ok := registry[StatsName]
	if !ok {
		s = &Stats{}
		registry[StatsName] = s
	}
	return s
}

// StatFini unregisters the process-wide counter block. A subsequent
// StatInit call starts a fresh block.
func StatFini() {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, StatsName)
}

// LookupStats returns the registered block under StatsName, if any.
func LookupStats() (*Stats, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	s, ok := registry[StatsName]
	return s, ok
}
