package audio

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

// VorbisDecoder reads mono or stereo Ogg Vorbis streams.
type VorbisDecoder struct{}

type oggReader interface {
	Read([]float32) (int, error)
}

type vorbisSource struct {
	dec oggReader
	buf []float32
}

func (s *vorbisSource) readSamples(dst []int16) (int, error) {
	if cap(s.buf) < len(dst) {
		s.buf = make([]float32, len(dst))
	}
	s.buf = s.buf[:len(dst)]

	n, err := s.dec.Read(s.buf)
	for i := 0; i < n; i++ {
		dst[i] = floatToInt16(s.buf[i])
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("decode vorbis: %w", err)
	}
	return n, err
}

func (VorbisDecoder) Decode(rs io.ReadSeeker) (Track, error) {
	dec, err := oggvorbis.NewReader(rs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	channels := dec.Channels()
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedLayout, channels)
	}
	return newStereoTrack(&vorbisSource{dec: dec}, dec.SampleRate(), channels, nil), nil
}
