// Package ioframe is a worker-pool vdevcache.IOFramework: the concrete
// stand-in for the "zio" layer the cache defers device I/O to. Fills are
// dispatched to a fixed set of goroutines instead of being issued
// inline, so a slow device fill does not run on the caller of Read;
// Nowait blocks only while the bounded work queue is full.
package ioframe

import (
	"context"
	"sync"

	"github.com/behrlich/vdevcache"
	"github.com/behrlich/vdevcache/internal/logging"
)

// Config configures a Pool.
type Config struct {
	// Workers is the number of goroutines servicing fills. Defaults to 4
	// if zero.
	Workers int

	// OnComplete is invoked from the goroutine that calls Execute (a
	// worker goroutine for IOs served by a fill, the Read caller's own
	// goroutine for a direct hit) whenever Execute
	// hands a client IO back to the framework — i.e. once the cache has
	// finished with it, successfully or not. It stands in for whatever
	// completion path (a ublk queue, an NBD reply, a test channel) sits
	// above the cache.
	OnComplete func(*vdevcache.IO)

	Logger *logging.Logger
}

// Pool is a fixed-size goroutine pool that executes the device reads a
// Cache submits via Nowait, and forwards completed client IOs to
// OnComplete.
type Pool struct {
	cfg Config

	ctx    context.Context
	cancel context.CancelFunc
	work   chan *vdevcache.ChildIO
	wg     sync.WaitGroup

	mu    sync.Mutex
	dones map[*vdevcache.ChildIO]func(*vdevcache.ChildIO)
}

// New constructs and starts a Pool whose context derives from ctx. The
// workers exit only when Close closes the work queue, after finishing
// the fills already queued; cancelling ctx does not stop them.
func New(ctx context.Context, cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		work:   make(chan *vdevcache.ChildIO, cfg.Workers*4),
		dones:  make(map[*vdevcache.ChildIO]func(*vdevcache.ChildIO)),
	}
	for i := 0; i < cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Close stops accepting new work and waits for in-flight fills to drain.
func (p *Pool) Close() error {
	p.cancel()
	close(p.work)
	p.wg.Wait()
	return nil
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for child := range p.work {
		_, err := child.Backend.ReadAt(child.Buf, child.Offset)
		child.Err = err

		p.mu.Lock()
		done := p.dones[child]
		delete(p.dones, child)
		p.mu.Unlock()

		if done != nil {
			done(child)
		}
	}
}

// NewChildIO implements vdevcache.IOFramework.
func (p *Pool) NewChildIO(backend vdevcache.Backend, offset int64, buf []byte, flags vdevcache.IOFlag, done func(*vdevcache.ChildIO)) *vdevcache.ChildIO {
	child := &vdevcache.ChildIO{
		Backend: backend,
		Offset:  offset,
		Buf:     buf,
		Flags:   flags,
	}
	p.mu.Lock()
	p.dones[child] = done
	p.mu.Unlock()
	return child
}

// Nowait implements vdevcache.IOFramework by queuing child for a worker.
// It panics if the pool has already been closed, since that always
// indicates the owning Cache outlived its framework.
func (p *Pool) Nowait(child *vdevcache.ChildIO) {
	select {
	case p.work <- child:
	case <-p.ctx.Done():
		p.cfg.Logger.Warn("ioframe: dropping fill submitted after shutdown", "offset", child.Offset)
	}
}

// Bypass implements vdevcache.IOFramework. It is a bookkeeping no-op:
// the cache has already decided io will complete via the cache layer
// rather than a fresh device round trip, and this framework has no
// separate dispatch queue to divert it from.
func (p *Pool) Bypass(io *vdevcache.IO) {}

// Execute implements vdevcache.IOFramework by handing the completed IO
// to OnComplete, if set.
func (p *Pool) Execute(io *vdevcache.IO) {
	if p.cfg.OnComplete != nil {
		p.cfg.OnComplete(io)
	}
}

var _ vdevcache.IOFramework = (*Pool)(nil)
