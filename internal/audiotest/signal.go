package audiotest

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
)

// Sine returns n samples of a sine wave at freq Hz with the given peak amplitude.
func Sine(freq, amplitude float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = amplitude * math.Sin(2*math.Pi*freq*t)
	}
	return out
}

// Silence returns n zero samples.
func Silence(n int) []float64 {
	return make([]float64, n)
}

// StereoPCM interleaves left and right into int16 little-endian bytes. Values
// are rounded and clamped to the int16 range. right may be nil, in which case
// the right channel mirrors the left one.
func StereoPCM(left, right []float64) []byte {
	out := make([]byte, 4*len(left))
	for i, l := range left {
		r := l
		if right != nil && i < len(right) {
			r = right[i]
		}
		binary.LittleEndian.PutUint16(out[4*i:], uint16(toInt16(l)))
		binary.LittleEndian.PutUint16(out[4*i+2:], uint16(toInt16(r)))
	}
	return out
}

func toInt16(v float64) int16 {
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// MemoryTrack is an in-memory stereo int16 track. It satisfies audio.Track
// without importing it, so audio's own tests can use it.
type MemoryTrack struct {
	mu         sync.Mutex
	sampleRate int
	pcm        []byte
	pos        int
	failAt     int
	failErr    error
	closed     bool
}

// NewMemoryTrack wraps interleaved stereo PCM bytes.
func NewMemoryTrack(sampleRate int, pcm []byte) *MemoryTrack {
	return &MemoryTrack{sampleRate: sampleRate, pcm: pcm, failAt: -1}
}

// FailAt makes Read return err once offset bytes have been consumed.
func (m *MemoryTrack) FailAt(offset int, err error) *MemoryTrack {
	m.failAt = offset
	m.failErr = err
	return m
}

func (m *MemoryTrack) SampleRate() int { return m.sampleRate }
func (m *MemoryTrack) Channels() int   { return 2 }

func (m *MemoryTrack) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAt >= 0 && m.pos >= m.failAt {
		return 0, m.failErr
	}
	if m.pos >= len(m.pcm) {
		return 0, io.EOF
	}

	end := len(m.pcm)
	if m.failAt >= 0 && m.failAt < end {
		end = m.failAt
	}
	n := copy(p, m.pcm[m.pos:end])
	m.pos += n
	return n, nil
}

func (m *MemoryTrack) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MemoryTrack) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
