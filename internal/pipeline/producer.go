package pipeline

import "sync"

// Producer slices the playback byte stream into fixed-size frames and hands
// them to the queue. Feed is called from the audio device callback, so it
// only copies and enqueues.
type Producer struct {
	queue      *Queue
	chunkBytes int

	mu  sync.Mutex
	buf []byte
	seq uint64
}

// NewProducer creates a producer emitting frames of chunkSize stereo samples.
func NewProducer(q *Queue, chunkSize int) *Producer {
	cb := chunkSize * BytesPerFrame
	return &Producer{
		queue:      q,
		chunkBytes: cb,
		buf:        make([]byte, 0, cb),
	}
}

// Feed appends played bytes and enqueues every completed frame.
func (p *Producer) Feed(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(b) > 0 {
		n := min(p.chunkBytes-len(p.buf), len(b))
		p.buf = append(p.buf, b[:n]...)
		b = b[n:]
		if len(p.buf) == p.chunkBytes {
			p.emit()
		}
	}
}

// Flush enqueues the trailing partial frame, if any. It is called once the
// track has finished playing.
func (p *Producer) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buf) > 0 {
		p.emit()
	}
}

// Frames returns how many frames have been enqueued so far.
func (p *Producer) Frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

func (p *Producer) emit() {
	data := make([]byte, len(p.buf))
	copy(data, p.buf)
	p.queue.Push(&PcmFrame{
		Seq:     p.seq,
		Data:    data,
		Samples: len(data) / 2,
	})
	p.seq++
	p.buf = p.buf[:0]
}
