package backend

import (
	"os"

	"github.com/behrlich/vdevcache"
	"golang.org/x/sys/unix"
)

// File is a vdevcache.Backend over a raw file or block device, using
// positioned pread(2)/pwrite(2) so concurrent fills never contend on a
// shared file offset the way Read/Write on *os.File would.
type File struct {
	f    *os.File
	size int64
}

// OpenFile opens path for positioned reads and writes. path may be a
// regular file or a raw block device node.
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	size, err := deviceSize(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{f: f, size: size}, nil
}

func deviceSize(f *os.File) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if fi.Mode().IsRegular() {
		return fi.Size(), nil
	}
	// Block devices report a zero regular size; BLKGETSIZE64 gives the
	// real capacity in bytes.
	n, err := unix.IoctlGetUint64(int(f.Fd()), unix.BLKGETSIZE64)
	return int64(n), err
}

// ReadAt implements vdevcache.Backend via pread(2).
func (b *File) ReadAt(p []byte, off int64) (int, error) {
	for {
		n, err := unix.Pread(int(b.f.Fd()), p, off)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

// WriteAt implements vdevcache.Backend via pwrite(2).
func (b *File) WriteAt(p []byte, off int64) (int, error) {
	for {
		n, err := unix.Pwrite(int(b.f.Fd()), p, off)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

// Size implements vdevcache.Backend.
func (b *File) Size() int64 {
	return b.size
}

// Close implements vdevcache.Backend.
func (b *File) Close() error {
	return b.f.Close()
}

var _ vdevcache.Backend = (*File)(nil)
