package vdevcache

// ChildIO is a device-level fill read the cache submits to populate one
// newly allocated Entry. It carries no client-visible state; the client
// IOs waiting on it travel as the Entry's delegate list instead.
type ChildIO struct {
	Backend Backend
	Offset  int64
	Buf     []byte
	Flags   IOFlag
	Err     error

	done func(*ChildIO)
}

// IOFramework is the external I/O submission collaborator the cache
// depends on — the "zio" layer in the spec this module implements.
// Its four methods correspond to zio_vdev_child_io, zio_nowait,
// zio_vdev_io_bypass, and zio_execute: the cache never blocks on any of
// them. NewChildIO constructs but does not submit; Nowait submits
// without waiting for completion, which must arrive by invoking the
// done callback passed to NewChildIO; Bypass marks a client IO as
// satisfied by the cache layer so the framework does not also dispatch
// it downstream; Execute resumes a previously bypassed IO.
type IOFramework interface {
	NewChildIO(backend Backend, offset int64, buf []byte, flags IOFlag, done func(*ChildIO)) *ChildIO
	Nowait(child *ChildIO)
	Bypass(io *IO)
	Execute(io *IO)
}
