package vdevcache

// FakeIOFramework is a synchronous, single-threaded IOFramework
// implementation for deterministic tests. Nowait does not run the
// backend read itself: it records the pending child so the test can
// decide when to call CompleteOldest or CompleteAll, modeling a device fill that takes an
// arbitrary amount of time to land. Bypass and Execute just track which
// IOs passed through them.
type FakeIOFramework struct {
	Pending   []*ChildIO
	Bypassed  []*IO
	Executed  []*IO
}

// NewFakeIOFramework returns an empty fake framework.
func NewFakeIOFramework() *FakeIOFramework {
	return &FakeIOFramework{}
}

func (f *FakeIOFramework) NewChildIO(backend Backend, offset int64, buf []byte, flags IOFlag, done func(*ChildIO)) *ChildIO {
	return &ChildIO{Backend: backend, Offset: offset, Buf: buf, Flags: flags, done: done}
}

// Nowait queues child for later completion via CompleteOldest or
// CompleteAll, which is when the (synchronous, in-test-goroutine)
// backend read actually happens. This lets a test interleave other
// operations — like a colliding Write — between submission and fill
// completion.
func (f *FakeIOFramework) Nowait(child *ChildIO) {
	f.Pending = append(f.Pending, child)
}

func (f *FakeIOFramework) Bypass(io *IO) {
	f.Bypassed = append(f.Bypassed, io)
}

func (f *FakeIOFramework) Execute(io *IO) {
	f.Executed = append(f.Executed, io)
}

// CompleteOldest performs the oldest pending child's backend read (or,
// if forceErr is non-nil, skips the read and fails with forceErr) and
// invokes its completion callback. It panics if there is nothing
// pending, since that always indicates a test bug.
func (f *FakeIOFramework) CompleteOldest(forceErr error) *ChildIO {
	if len(f.Pending) == 0 {
		panic("vdevcache: CompleteOldest called with no pending child I/O")
	}
	child := f.Pending[0]
	f.Pending = f.Pending[1:]
	if forceErr != nil {
		child.Err = forceErr
	} else {
		_, child.Err = child.Backend.ReadAt(child.Buf, child.Offset)
	}
	child.done(child)
	return child
}

// CompleteAll drains every pending child in submission order without
// forcing an error: a child fails only if its backend read does.
func (f *FakeIOFramework) CompleteAll() {
	for len(f.Pending) > 0 {
		f.CompleteOldest(nil)
	}
}

var _ IOFramework = (*FakeIOFramework)(nil)

// FakeBackend is a minimal in-memory Backend for unit tests that do not
// need the sharded-locking backend.Memory implementation.
type FakeBackend struct {
	Data []byte
}

// NewFakeBackend returns a zero-filled backend of the given size.
func NewFakeBackend(size int64) *FakeBackend {
	return &FakeBackend{Data: make([]byte, size)}
}

func (b *FakeBackend) ReadAt(p []byte, off int64) (int, error) {
	return copy(p, b.Data[off:]), nil
}

func (b *FakeBackend) WriteAt(p []byte, off int64) (int, error) {
	return copy(b.Data[off:], p), nil
}

func (b *FakeBackend) Size() int64 { return int64(len(b.Data)) }

func (b *FakeBackend) Close() error { return nil }

var _ Backend = (*FakeBackend)(nil)
