package ioframe

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/behrlich/vdevcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	data []byte
}

func (b *fakeBackend) ReadAt(p []byte, off int64) (int, error) { return copy(p, b.data[off:]), nil }
func (b *fakeBackend) WriteAt(p []byte, off int64) (int, error) {
	return copy(b.data[off:], p), nil
}
func (b *fakeBackend) Size() int64  { return int64(len(b.data)) }
func (b *fakeBackend) Close() error { return nil }

func TestPoolFillsChildAsync(t *testing.T) {
	backend := &fakeBackend{data: make([]byte, 4096)}
	for i := range backend.data {
		backend.data[i] = byte(i)
	}

	var mu sync.Mutex
	var completed []*vdevcache.IO

	pool := New(context.Background(), Config{
		Workers: 2,
		OnComplete: func(io *vdevcache.IO) {
			mu.Lock()
			completed = append(completed, io)
			mu.Unlock()
		},
	})
	defer pool.Close()

	buf := make([]byte, 512)
	var fillDone sync.WaitGroup
	fillDone.Add(1)

	var gotErr error
	child := pool.NewChildIO(backend, 0, buf, 0, func(c *vdevcache.ChildIO) {
		gotErr = c.Err
		fillDone.Done()
	})
	pool.Nowait(child)

	require.True(t, waitTimeout(&fillDone, time.Second))
	require.NoError(t, gotErr)
	assert.Equal(t, backend.data[0:512], buf)

	io := &vdevcache.IO{Offset: 0, Size: 512}
	pool.Execute(io)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, completed, io)
}

func TestPoolBypassIsNoop(t *testing.T) {
	pool := New(context.Background(), Config{Workers: 1})
	defer pool.Close()
	assert.NotPanics(t, func() {
		pool.Bypass(&vdevcache.IO{Offset: 0})
	})
}

func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
