// Package wav writes 16-bit PCM WAV data.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

// ConvertPCMToWAV prepends a canonical 44-byte header to interleaved 16-bit
// little-endian PCM.
func ConvertPCMToWAV(pcmData []byte, channels int, sampleRate int) ([]byte, error) {
	if channels < 1 || sampleRate < 1 {
		return nil, fmt.Errorf("invalid layout: %d channels at %d Hz", channels, sampleRate)
	}

	var buffer bytes.Buffer
	buffer.Grow(44 + len(pcmData))

	fields := []any{
		[]byte("RIFF"),
		uint32(len(pcmData) + 36),
		[]byte("WAVE"),

		// "fmt " chunk
		[]byte("fmt "),
		uint32(16),
		uint16(1),
		uint16(channels),
		uint32(sampleRate),
		uint32(sampleRate * channels * 2),
		uint16(channels * 2),
		uint16(16),

		// "data" chunk
		[]byte("data"),
		uint32(len(pcmData)),
		pcmData,
	}
	for _, f := range fields {
		if err := binary.Write(&buffer, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}

	return buffer.Bytes(), nil
}

// WriteFile encodes interleaved int16 samples to path with go-audio.
func WriteFile(path string, samples []int16, channels int, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := gowav.NewEncoder(f, sampleRate, 16, channels, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return f.Close()
}
