package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVDecoder reads 16-bit PCM mono or stereo RIFF files. Other bit depths are
// rejected with ErrUnsupportedLayout so the registry can transcode them.
type WAVDecoder struct{}

type wavSource struct {
	dec *wav.Decoder
	buf *goaudio.IntBuffer
}

func (s *wavSource) readSamples(dst []int16) (int, error) {
	if cap(s.buf.Data) < len(dst) {
		s.buf.Data = make([]int, len(dst))
	}
	s.buf.Data = s.buf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.buf)
	for i := 0; i < n; i++ {
		dst[i] = int16(s.buf.Data[i])
	}
	if err != nil {
		return n, fmt.Errorf("decode wav: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (WAVDecoder) Decode(rs io.ReadSeeker) (Track, error) {
	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a wav file", ErrUnsupportedFormat)
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("read wav header: %w", err)
	}

	channels := int(dec.NumChans)
	if dec.BitDepth != 16 || dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: wav format %d, %d-bit", ErrUnsupportedLayout, dec.WavAudioFormat, dec.BitDepth)
	}
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedLayout, channels)
	}

	src := &wavSource{
		dec: dec,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
			Data:   make([]int, sourceBufSamples),
		},
	}
	return newStereoTrack(src, int(dec.SampleRate), channels, nil), nil
}
