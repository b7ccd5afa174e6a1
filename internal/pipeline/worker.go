package pipeline

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dooshek/spectrolight/internal/logger"
)

// Processor turns one PCM frame into a wire message. spectrum.Analyzer
// satisfies it.
type Processor interface {
	Process(pcm []byte) []byte
}

// Emitter receives finished messages, possibly from many workers at once.
type Emitter interface {
	Emit(seq uint64, msg []byte) error
}

// Pool is a fixed set of workers consuming one queue. Each worker exits only
// when it pops a shutdown sentinel, so pushing exactly Size() sentinels after
// the last frame lets Wait return.
type Pool struct {
	queue *Queue
	proc  Processor
	out   Emitter
	size  int

	wg        sync.WaitGroup
	started   atomic.Bool
	processed atomic.Uint64

	failOnce sync.Once
	failed   chan struct{}
	err      error
}

// NewPool creates a pool of size workers. size below 1 is treated as 1.
func NewPool(q *Queue, proc Processor, out Emitter, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		queue:  q,
		proc:   proc,
		out:    out,
		size:   size,
		failed: make(chan struct{}),
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Start launches the workers. Calling it twice is a no-op.
func (p *Pool) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.wg.Add(p.size)
	for i := range p.size {
		go p.run(i)
	}
}

// Shutdown enqueues one sentinel per worker.
func (p *Pool) Shutdown() {
	p.queue.PushShutdown(p.size)
}

// Wait blocks until every worker has exited and returns the first emit error.
func (p *Pool) Wait() error {
	p.wg.Wait()
	select {
	case <-p.failed:
		return p.err
	default:
		return nil
	}
}

// Failed is closed when any worker fails to emit.
func (p *Pool) Failed() <-chan struct{} { return p.failed }

// Processed returns how many frames were turned into messages.
func (p *Pool) Processed() uint64 { return p.processed.Load() }

func (p *Pool) run(id int) {
	defer p.wg.Done()
	log := logger.With("worker")

	for {
		it := p.queue.Pop()
		if it.Kind == KindShutdown {
			log.Debug().Int("worker", id).Msg("Worker exiting")
			return
		}

		// After a failure the remaining frames are drained so that every
		// worker still reaches its sentinel.
		select {
		case <-p.failed:
			continue
		default:
		}

		msg := p.proc.Process(it.Frame.Data)
		p.processed.Add(1)
		if err := p.out.Emit(it.Frame.Seq, msg); err != nil {
			p.fail(fmt.Errorf("worker %d: emit frame %d: %w", id, it.Frame.Seq, err))
		}
	}
}

func (p *Pool) fail(err error) {
	p.failOnce.Do(func() {
		p.err = err
		close(p.failed)
		logger.Error("Worker pool stopped emitting", err)
	})
}
