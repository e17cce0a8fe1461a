package vdevcache

// IOType distinguishes client read and write requests.
type IOType int

const (
	// IOTypeRead is a client read request.
	IOTypeRead IOType = iota
	// IOTypeWrite is a client write request.
	IOTypeWrite
)

// IOFlag is a bitmask of request flags, named after the ones the spec's
// I/O framework understands.
type IOFlag uint32

const (
	// FlagDontCache marks a request the cache must never absorb.
	FlagDontCache IOFlag = 1 << iota
	// FlagDontPropagate marks a fill read as not to be retried at a
	// higher level of redundancy.
	FlagDontPropagate
	// FlagDontRetry marks a fill read as not to be retried by the device.
	FlagDontRetry
	// FlagNoBookmark marks a fill read as exempt from checksum bookmarking.
	FlagNoBookmark
)

// fillFlags are the flags the cache applies to every device fill it
// submits, per spec.md §4.2 step 4.
const fillFlags = FlagDontCache | FlagDontPropagate | FlagDontRetry | FlagNoBookmark

// IO represents a single client I/O request. Data must already be sized
// to Size by the caller: Read copies into it, Write copies out of it.
//
// next is the intrusive delegate-list link described in spec.md §9: when
// an IO is queued as a delegate on a filling Entry, the cache chains it
// through next rather than allocating a side node. Once the cache has
// drained an IO off a delegate list and handed it back to the
// IOFramework via Execute, it never reads next on that IO again —
// whether a caller may still traverse it afterward is not the cache's
// concern.
type IO struct {
	Offset int64
	Size   int32
	Data   []byte
	Type   IOType
	Flags  IOFlag
	Err    error

	next *IO
}

// Backend is the raw block device underneath a Cache: the "vdev" the
// spec treats as a given. Offsets and sizes are always line-aligned by
// the time the cache calls ReadAt for a fill.
type Backend interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Size() int64
	Close() error
}
