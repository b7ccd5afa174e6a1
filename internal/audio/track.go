package audio

import (
	"encoding/binary"
	"io"
	"math"
)

// Track is a decoded audio stream. Read always yields interleaved stereo
// int16 little-endian samples regardless of the source layout.
type Track interface {
	io.ReadCloser
	SampleRate() int
	Channels() int
}

// sampleSource yields interleaved int16 samples in the file's own layout.
type sampleSource interface {
	readSamples(dst []int16) (int, error)
}

const sourceBufSamples = 4096

// stereoTrack adapts a mono or stereo sampleSource to Track.
type stereoTrack struct {
	src      sampleSource
	rate     int
	channels int
	closer   io.Closer

	samples []int16
	out     []byte
	pending []byte
	err     error
}

func newStereoTrack(src sampleSource, rate, channels int, closer io.Closer) *stereoTrack {
	return &stereoTrack{
		src:      src,
		rate:     rate,
		channels: channels,
		closer:   closer,
		samples:  make([]int16, sourceBufSamples),
		out:      make([]byte, 0, sourceBufSamples*4),
	}
}

func (t *stereoTrack) SampleRate() int { return t.rate }
func (t *stereoTrack) Channels() int   { return 2 }

func (t *stereoTrack) Read(p []byte) (int, error) {
	for empty := 0; len(t.pending) == 0; {
		if t.err != nil {
			return 0, t.err
		}
		n, err := t.src.readSamples(t.samples)
		t.fill(t.samples[:n])
		if err != nil {
			t.err = err
		}
		if n == 0 && err == nil {
			if empty++; empty > 100 {
				return 0, io.ErrNoProgress
			}
		}
	}

	n := copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

// fill converts native samples to stereo bytes, duplicating mono.
func (t *stereoTrack) fill(samples []int16) {
	out := t.out[:0]
	put := func(v int16) {
		out = binary.LittleEndian.AppendUint16(out, uint16(v))
	}
	if t.channels == 1 {
		for _, v := range samples {
			put(v)
			put(v)
		}
	} else {
		for _, v := range samples {
			put(v)
		}
	}
	t.out = out
	t.pending = out
}

func (t *stereoTrack) Close() error {
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	return err
}

func floatToInt16(v float32) int16 {
	s := math.Round(float64(v) * 32767)
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}
