package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// MP3Decoder uses go-mp3, which always produces 16-bit stereo.
type MP3Decoder struct{}

// mp3Reader is the subset of gomp3.Decoder the source needs.
type mp3Reader interface {
	Read([]byte) (int, error)
}

type mp3Source struct {
	dec mp3Reader
	raw []byte
}

func (s *mp3Source) readSamples(dst []int16) (int, error) {
	need := len(dst) * 2
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	s.raw = s.raw[:need]

	n, err := io.ReadFull(s.dec, s.raw)
	samples := n / 2
	for i := range samples {
		dst[i] = int16(binary.LittleEndian.Uint16(s.raw[2*i:]))
	}

	switch err {
	case nil:
		return samples, nil
	case io.EOF, io.ErrUnexpectedEOF:
		return samples, io.EOF
	default:
		return samples, fmt.Errorf("decode mp3: %w", err)
	}
}

func (MP3Decoder) Decode(rs io.ReadSeeker) (Track, error) {
	dec, err := gomp3.NewDecoder(rs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return newStereoTrack(&mp3Source{dec: dec}, dec.SampleRate(), 2, nil), nil
}
