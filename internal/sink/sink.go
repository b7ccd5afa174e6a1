package sink

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dooshek/spectrolight/internal/logger"
)

// ErrSinkClosed is returned by Emit after Close.
var ErrSinkClosed = errors.New("sink closed")

const defaultBacklog = 256

type msgKind int

const (
	msgData msgKind = iota
	msgReset
)

type message struct {
	kind msgKind
	seq  uint64
	data []byte
	ack  chan struct{}
}

// Stats is a snapshot of sink counters.
type Stats struct {
	Messages uint64
	Bytes    uint64
	Skipped  uint64
	Pending  int
}

// Sink serializes messages from many workers onto one byte stream. A single
// goroutine owns the underlying writer, so messages never interleave. In
// ordered mode messages are released strictly by sequence number; a sequence
// the queue dropped must be reported with Skip or later messages wait for it
// until the next Reset or Close.
type Sink struct {
	w       io.WriteCloser
	ordered bool

	in   chan message
	done chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool

	failOnce sync.Once
	failed   chan struct{}
	errMu    sync.Mutex
	err      error

	skipMu  sync.Mutex
	skipped map[uint64]struct{}

	// owned by the writer goroutine
	pending map[uint64][]byte
	next    uint64

	messages atomic.Uint64
	bytes    atomic.Uint64
	skips    atomic.Uint64
	backlog  atomic.Int64
}

// New starts a sink writing to w.
func New(w io.WriteCloser, ordered bool) *Sink {
	s := &Sink{
		w:       w,
		ordered: ordered,
		in:      make(chan message, defaultBacklog),
		done:    make(chan struct{}),
		failed:  make(chan struct{}),
		skipped: make(map[uint64]struct{}),
		pending: make(map[uint64][]byte),
	}
	go s.loop()
	return s
}

// Emit hands one message to the writer. It blocks only while the writer is
// behind by more than the internal backlog.
func (s *Sink) Emit(seq uint64, msg []byte) error {
	if s.closed.Load() {
		return ErrSinkClosed
	}
	select {
	case <-s.failed:
		return s.Err()
	default:
	}

	select {
	case s.in <- message{kind: msgData, seq: seq, data: msg}:
		return nil
	case <-s.failed:
		return s.Err()
	}
}

// Skip records that seq will never be emitted. It does not block and may be
// called from the audio callback.
func (s *Sink) Skip(seq uint64) {
	if !s.ordered {
		return
	}
	s.skipMu.Lock()
	s.skipped[seq] = struct{}{}
	s.skipMu.Unlock()
}

// Reset flushes whatever is still buffered, in order, and restarts sequence
// numbering at zero. It must only be called once every emitter of the
// previous track has returned.
func (s *Sink) Reset() error {
	if s.closed.Load() {
		return ErrSinkClosed
	}
	ack := make(chan struct{})
	select {
	case s.in <- message{kind: msgReset, ack: ack}:
	case <-s.failed:
		return s.Err()
	}
	select {
	case <-ack:
	case <-s.done:
	}
	return s.Err()
}

// Failed is closed on the first write error.
func (s *Sink) Failed() <-chan struct{} { return s.failed }

// Err returns the first write error, if any.
func (s *Sink) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Stats returns a snapshot of the sink counters.
func (s *Sink) Stats() Stats {
	return Stats{
		Messages: s.messages.Load(),
		Bytes:    s.bytes.Load(),
		Skipped:  s.skips.Load(),
		Pending:  int(s.backlog.Load()),
	}
}

// Close flushes buffered messages, stops the writer and closes the
// underlying stream. Emit must not be called concurrently with Close.
func (s *Sink) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.in)
		<-s.done
		closeErr = s.w.Close()
	})
	if err := s.Err(); err != nil {
		return err
	}
	return closeErr
}

func (s *Sink) loop() {
	defer close(s.done)

	for m := range s.in {
		switch m.kind {
		case msgReset:
			s.flushPending()
			s.next = 0
			s.skipMu.Lock()
			clear(s.skipped)
			s.skipMu.Unlock()
			close(m.ack)
		case msgData:
			if !s.ordered {
				s.write(m.data)
				continue
			}
			s.pending[m.seq] = m.data
			s.release()
		}
		s.backlog.Store(int64(len(s.pending)))
	}
	s.flushPending()
	s.backlog.Store(0)
}

// release writes every message that is next in line.
func (s *Sink) release() {
	for {
		if data, ok := s.pending[s.next]; ok {
			delete(s.pending, s.next)
			s.write(data)
			s.next++
			continue
		}
		if s.consumeSkip(s.next) {
			s.next++
			continue
		}
		return
	}
}

func (s *Sink) consumeSkip(seq uint64) bool {
	s.skipMu.Lock()
	defer s.skipMu.Unlock()
	if _, ok := s.skipped[seq]; !ok {
		return false
	}
	delete(s.skipped, seq)
	s.skips.Add(1)
	return true
}

// flushPending writes buffered messages in sequence order, jumping over gaps.
func (s *Sink) flushPending() {
	if len(s.pending) == 0 {
		return
	}
	seqs := make([]uint64, 0, len(s.pending))
	for seq := range s.pending {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	for _, seq := range seqs {
		s.write(s.pending[seq])
		delete(s.pending, seq)
	}
}

func (s *Sink) write(data []byte) {
	select {
	case <-s.failed:
		return
	default:
	}

	if _, err := s.w.Write(data); err != nil {
		s.fail(fmt.Errorf("write to sink: %w", err))
		return
	}
	s.messages.Add(1)
	s.bytes.Add(uint64(len(data)))
}

func (s *Sink) fail(err error) {
	s.failOnce.Do(func() {
		s.errMu.Lock()
		s.err = err
		s.errMu.Unlock()
		close(s.failed)
		logger.Error("Sink write failed", err)
	})
}
