package pipeline

import (
	"sync"

	"github.com/dooshek/spectrolight/internal/types"
)

// QueueStats is a snapshot of queue counters.
type QueueStats struct {
	Pushed  uint64
	Popped  uint64
	Dropped uint64
	Depth   int
	Peak    int
}

// Queue is the hand-off between the audio callback and the worker pool.
//
// Push never blocks. Pop blocks until an item is available. When capacity is
// positive and that many frames are already waiting, the overflow policy
// decides which frame is discarded. Shutdown sentinels do not count against
// capacity and are never discarded.
type Queue struct {
	mu   sync.Mutex
	cond *sync.Cond

	items  []Item
	head   int
	frames int // frames currently queued, sentinels excluded

	capacity int
	policy   types.OverflowPolicy
	onDrop   func(seq uint64)

	pushed  uint64
	popped  uint64
	dropped uint64
	peak    int
}

// NewQueue creates a queue. capacity <= 0 means unbounded. onDrop, if not
// nil, is called with the sequence number of every discarded frame, outside
// the queue lock and on the pushing goroutine, so it must not block.
func NewQueue(capacity int, policy types.OverflowPolicy, onDrop func(seq uint64)) *Queue {
	if policy == "" {
		policy = types.OverflowDropOldest
	}
	q := &Queue{
		capacity: capacity,
		policy:   policy,
		onDrop:   onDrop,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues a frame without blocking.
func (q *Queue) Push(f *PcmFrame) {
	var (
		dropped    *PcmFrame
		hasDropped bool
	)

	q.mu.Lock()
	q.pushed++
	if q.capacity > 0 && q.frames >= q.capacity {
		switch q.policy {
		case types.OverflowDropNewest:
			dropped, hasDropped = f, true
		default:
			dropped, hasDropped = q.removeOldestFrame()
		}
		q.dropped++
	}
	if !hasDropped || dropped != f {
		q.items = append(q.items, FrameItem(f))
		q.frames++
		if q.frames > q.peak {
			q.peak = q.frames
		}
		q.cond.Signal()
	}
	q.mu.Unlock()

	if hasDropped && q.onDrop != nil {
		q.onDrop(dropped.Seq)
	}
}

// PushShutdown enqueues n sentinels, one per worker that should exit.
func (q *Queue) PushShutdown(n int) {
	q.mu.Lock()
	for range n {
		q.items = append(q.items, ShutdownItem())
	}
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Pop blocks until an item is available and removes it.
func (q *Queue) Pop() Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head >= len(q.items) {
		q.cond.Wait()
	}

	it := q.items[q.head]
	q.items[q.head] = Item{}
	q.head++
	q.popped++
	if it.Kind == KindFrame {
		q.frames--
	}
	q.compact()
	return it
}

// Len returns the number of queued items, sentinels included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Pushed:  q.pushed,
		Popped:  q.popped,
		Dropped: q.dropped,
		Depth:   q.frames,
		Peak:    q.peak,
	}
}

// removeOldestFrame must be called with mu held.
func (q *Queue) removeOldestFrame() (*PcmFrame, bool) {
	for i := q.head; i < len(q.items); i++ {
		if q.items[i].Kind != KindFrame {
			continue
		}
		f := q.items[i].Frame
		if i == q.head {
			q.items[i] = Item{}
			q.head++
		} else {
			copy(q.items[i:], q.items[i+1:])
			q.items[len(q.items)-1] = Item{}
			q.items = q.items[:len(q.items)-1]
		}
		q.frames--
		q.compact()
		return f, true
	}
	return nil, false
}

// compact reclaims the consumed prefix once it dominates the slice.
func (q *Queue) compact() {
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
		return
	}
	if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
}
