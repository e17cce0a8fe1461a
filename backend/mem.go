// Package backend provides concrete Backend implementations for
// vdevcache.Cache: a sharded in-memory device for tests and benchmarks,
// and a raw file-backed device for real use.
package backend

import (
	"fmt"
	"sync"

	"github.com/behrlich/vdevcache"
)

var _ vdevcache.Backend = (*Memory)(nil)

// ShardSize is the size of each memory shard (64KB). This gives good
// parallelism for concurrent fills while keeping lock overhead
// reasonable: a 256MB device has 4096 shards.
const ShardSize = 64 * 1024

// Memory is a RAM-based vdevcache.Backend. It uses sharded locking so
// concurrent fills against disjoint regions don't serialize on a single
// mutex, the way a real multi-queue block device wouldn't either.
//
// Unlike a plain byte slice, Memory also tracks which shards a cache's
// fills actually touch and can inject a one-shot read failure at a
// chosen offset — both exist so tests exercising vdevcache.Cache against
// a real (if in-memory) device can observe the cache's line-granularity
// access pattern and drive its CodeDeviceError/eviction path without
// needing a real, flaky disk.
type Memory struct {
	data   []byte
	size   int64
	shards []sync.RWMutex

	faultMu sync.Mutex
	faults  map[int64]error

	shardReads []atomicCounter
}

// atomicCounter is a tiny mutex-guarded counter; shardReads is sized once at
// construction so a plain slice of these avoids a map lookup per fill.
type atomicCounter struct {
	mu sync.Mutex
	n  uint64
}

func (c *atomicCounter) add(d uint64) {
	c.mu.Lock()
	c.n += d
	c.mu.Unlock()
}

func (c *atomicCounter) load() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// NewMemory creates a new memory backend of the specified size.
func NewMemory(size int64) *Memory {
	numShards := (size + ShardSize - 1) / ShardSize
	return &Memory{
		data:       make([]byte, size),
		size:       size,
		shards:     make([]sync.RWMutex, numShards),
		faults:     make(map[int64]error),
		shardReads: make([]atomicCounter, numShards),
	}
}

// shardRange returns the range of shards that cover [off, off+length).
func (m *Memory) shardRange(off, length int64) (start, end int) {
	start = int(off / ShardSize)
	end = int((off + length - 1) / ShardSize)
	if end >= len(m.shards) {
		end = len(m.shards) - 1
	}
	return start, end
}

// FailNextReadAt arms a one-shot failure for the next ReadAt whose range
// overlaps offset: that call returns err instead of touching m.data, and
// the fault is then cleared. This models a transient device error a real
// vdev would report for one fill attempt — exactly the CodeDeviceError
// path vdevcache.Cache evicts the entry and propagates to delegates on.
func (m *Memory) FailNextReadAt(offset int64, err error) {
	m.faultMu.Lock()
	defer m.faultMu.Unlock()
	m.faults[offset] = err
}

// takeFault returns and clears an armed fault overlapping [off, off+length).
func (m *Memory) takeFault(off, length int64) error {
	m.faultMu.Lock()
	defer m.faultMu.Unlock()
	for at, err := range m.faults {
		if at >= off && at < off+length {
			delete(m.faults, at)
			return err
		}
	}
	return nil
}

// ShardReadCounts returns a snapshot of how many ReadAt calls touched
// each shard. A cache whose line size equals ShardSize increments exactly
// one entry per fill, a larger line one entry per shard it spans; a
// smaller line size would
// still round up to a whole shard, making this a direct way to observe
// the configured line size against the backend's own granularity.
func (m *Memory) ShardReadCounts() []uint64 {
	counts := make([]uint64, len(m.shardReads))
	for i := range m.shardReads {
		counts[i] = m.shardReads[i].load()
	}
	return counts
}

// ReadAt implements vdevcache.Backend.
func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	if off >= m.size {
		return 0, nil
	}

	available := m.size - off
	if int64(len(p)) > available {
		p = p[:available]
	}

	if err := m.takeFault(off, int64(len(p))); err != nil {
		return 0, err
	}

	startShard, endShard := m.shardRange(off, int64(len(p)))
	for i := startShard; i <= endShard; i++ {
		m.shards[i].RLock()
	}

	n := copy(p, m.data[off:off+int64(len(p))])

	for i := startShard; i <= endShard; i++ {
		m.shards[i].RUnlock()
		m.shardReads[i].add(1)
	}

	return n, nil
}

// WriteAt implements vdevcache.Backend.
func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	if off >= m.size {
		return 0, fmt.Errorf("backend: write beyond end of device")
	}

	available := m.size - off
	if int64(len(p)) > available {
		p = p[:available]
	}

	startShard, endShard := m.shardRange(off, int64(len(p)))
	for i := startShard; i <= endShard; i++ {
		m.shards[i].Lock()
	}

	n := copy(m.data[off:off+int64(len(p))], p)

	for i := startShard; i <= endShard; i++ {
		m.shards[i].Unlock()
	}

	return n, nil
}

// Size implements vdevcache.Backend.
func (m *Memory) Size() int64 {
	return m.size
}

// Close implements vdevcache.Backend.
func (m *Memory) Close() error {
	m.data = nil
	return nil
}

// Discard zero-fills [offset, offset+length), modeling a TRIM/UNMAP
// passed down from a layer above the cache.
func (m *Memory) Discard(offset, length int64) error {
	if offset >= m.size {
		return nil
	}

	end := offset + length
	if end > m.size {
		end = m.size
	}
	actualLen := end - offset

	startShard, endShard := m.shardRange(offset, actualLen)
	for i := startShard; i <= endShard; i++ {
		m.shards[i].Lock()
	}

	for i := offset; i < end; i++ {
		m.data[i] = 0
	}

	for i := startShard; i <= endShard; i++ {
		m.shards[i].Unlock()
	}

	return nil
}

// Sync is a no-op: the memory backend has no durability to flush.
func (m *Memory) Sync() error {
	return nil
}
