package vdevcache

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1 — single miss then hit.
func TestScenarioMissThenHit(t *testing.T) {
	c, backend, fw := newTestCache(t, smallLineConfig())

	first := &IO{Offset: 0, Size: 512, Data: make([]byte, 512)}
	require.NoError(t, c.Read(first))
	assert.Len(t, fw.Pending, 1)
	assert.Equal(t, int64(0), fw.Pending[0].Offset)
	assert.Len(t, fw.Pending[0].Buf, int(c.cfg.LineSize()))

	fw.CompleteAll()
	assert.Equal(t, backend.Data[0:512], first.Data)
	assert.Len(t, fw.Executed, 1)

	second := &IO{Offset: 512, Size: 512, Data: make([]byte, 512)}
	require.NoError(t, c.Read(second))
	assert.Empty(t, fw.Pending, "second read must be a synchronous hit, no device I/O")
	assert.Equal(t, backend.Data[512:1024], second.Data)

	snap := c.Stats().Snapshot()
	assert.Equal(t, StatsSnapshot{Hits: 2, Misses: 1, Delegations: 0}, snap, "one hit from the delegated fill, one from the direct hit")
}

// S2 — coalesced miss: two reads on the same missing line before the
// fill completes; only one device fill, the second is delegated.
func TestScenarioCoalescedMiss(t *testing.T) {
	c, backend, fw := newTestCache(t, smallLineConfig())

	a := &IO{Offset: 0, Size: 512, Data: make([]byte, 512)}
	require.NoError(t, c.Read(a))

	b := &IO{Offset: 1024, Size: 512, Data: make([]byte, 512)}
	require.NoError(t, c.Read(b))

	assert.Len(t, fw.Pending, 1, "only one device fill should be outstanding")

	fw.CompleteAll()

	assert.Equal(t, backend.Data[0:512], a.Data)
	assert.Equal(t, backend.Data[1024:1536], b.Data)

	snap := c.Stats().Snapshot()
	assert.Equal(t, uint64(1), snap.Misses)
	assert.Equal(t, uint64(1), snap.Delegations)
	assert.Equal(t, uint64(2), snap.Hits, "each drained delegate counts as a hit once the fill lands")
}

// S3 — write during fill: the write marks the filling entry
// missedUpdate; the queued read still completes without error; the entry
// is evicted at fill completion; a later read misses again and reflects
// the write.
func TestScenarioWriteDuringFill(t *testing.T) {
	c, backend, fw := newTestCache(t, smallLineConfig())

	read := &IO{Offset: 0, Size: 512, Data: make([]byte, 512)}
	require.NoError(t, c.Read(read))
	require.Len(t, fw.Pending, 1)

	patch := make([]byte, 256)
	for i := range patch {
		patch[i] = 0xAB
	}
	// The actual device write happens one layer above the cache; model it
	// by landing the bytes in the backend directly, then notify the cache
	// the same way the real caller would.
	copy(backend.Data[256:512], patch)
	write := &IO{Offset: 256, Size: 256, Data: patch}
	c.Write(write)

	entry := c.lookupLocked(0)
	require.NotNil(t, entry)
	assert.True(t, entry.missedUpdate)

	fw.CompleteAll()
	require.NoError(t, read.Err)
	assert.Nil(t, c.lookupLocked(0), "entry must be evicted once the conflicting fill completes")

	second := &IO{Offset: 0, Size: 512, Data: make([]byte, 512)}
	require.NoError(t, c.Read(second))
	require.Len(t, fw.Pending, 1)
	fw.CompleteAll()

	assert.Equal(t, backend.Data[0:512], second.Data, "the re-fetched line reflects the earlier write")
}

// S5 — straddle rejection.
func TestScenarioStraddleRejected(t *testing.T) {
	c, _, fw := newTestCache(t, smallLineConfig())
	line := c.cfg.LineSize()

	io := &IO{Offset: line - 256, Size: 512, Data: make([]byte, 512)}
	err := c.Read(io)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeNotEligible))
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, syscall.EXDEV, cerr.Errno)
	assert.Empty(t, fw.Pending)
	assert.Equal(t, int64(0), c.count)
}

// S6 — disabled cache: every read misses uncacheably and no entries
// ever materialize.
func TestScenarioDisabledCache(t *testing.T) {
	cfg := smallLineConfig()
	cfg.CacheSizeLimit = 0
	c, _, fw := newTestCache(t, cfg)

	for i := 0; i < 3; i++ {
		io := &IO{Offset: 0, Size: 512, Data: make([]byte, 512)}
		err := c.Read(io)
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeTransient))
	}
	assert.Equal(t, int64(0), c.count)
	assert.Empty(t, fw.Pending)

	c.Write(&IO{Offset: 0, Size: 512, Data: make([]byte, 512)})
	assert.Equal(t, int64(0), c.count)
}

func TestReadRejectsDontCache(t *testing.T) {
	c, _, _ := newTestCache(t, smallLineConfig())
	io := &IO{Offset: 0, Size: 512, Data: make([]byte, 512), Flags: FlagDontCache}
	err := c.Read(io)
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, syscall.EINVAL, cerr.Errno)
}

func TestReadRejectsOversize(t *testing.T) {
	cfg := smallLineConfig()
	c, _, _ := newTestCache(t, cfg)
	io := &IO{Offset: 0, Size: int32(cfg.CacheMax) + 1, Data: make([]byte, cfg.CacheMax+1)}
	err := c.Read(io)
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, syscall.EOVERFLOW, cerr.Errno)
}

func TestReadStaleAfterMissedUpdate(t *testing.T) {
	c, _, fw := newTestCache(t, smallLineConfig())

	first := &IO{Offset: 0, Size: 512, Data: make([]byte, 512)}
	require.NoError(t, c.Read(first))
	c.Write(&IO{Offset: 0, Size: 64, Data: make([]byte, 64)})

	again := &IO{Offset: 0, Size: 512, Data: make([]byte, 512)}
	err := c.Read(again)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeStale))

	fw.CompleteAll()
}

func TestFillDeviceErrorPropagatesToDelegates(t *testing.T) {
	c, _, fw := newTestCache(t, smallLineConfig())

	a := &IO{Offset: 0, Size: 512, Data: make([]byte, 512)}
	require.NoError(t, c.Read(a))
	b := &IO{Offset: 1024, Size: 512, Data: make([]byte, 512)}
	require.NoError(t, c.Read(b))

	boom := assertError("device offline")
	fw.CompleteOldest(boom)

	require.Error(t, a.Err)
	require.Error(t, b.Err)
	assert.True(t, IsCode(a.Err, CodeDeviceError))
	assert.True(t, IsCode(b.Err, CodeDeviceError))
	assert.Nil(t, c.lookupLocked(0), "entry is evicted after a failed fill")
}

type assertError string

func (e assertError) Error() string { return string(e) }
