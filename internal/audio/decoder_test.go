package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dooshek/spectrolight/internal/audiotest"
	"github.com/dooshek/spectrolight/pkg/wav"
)

func wavBytes(t *testing.T, pcm []byte, channels, rate int) []byte {
	t.Helper()
	data, err := wav.ConvertPCMToWAV(pcm, channels, rate)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestWAVDecoderStereo(t *testing.T) {
	t.Parallel()

	pcm := audiotest.StereoPCM(audiotest.Sine(440, 10000, 44100, 5000), audiotest.Sine(880, 5000, 44100, 5000))
	track, err := WAVDecoder{}.Decode(bytes.NewReader(wavBytes(t, pcm, 2, 44100)))
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	defer track.Close()

	if track.SampleRate() != 44100 || track.Channels() != 2 {
		t.Errorf("layout = %d Hz, %d ch", track.SampleRate(), track.Channels())
	}
	got, err := io.ReadAll(track)
	if err != nil {
		t.Fatalf("ReadAll() = %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("decoded %d bytes, want %d identical bytes", len(got), len(pcm))
	}
}

func TestWAVDecoderUpmixesMono(t *testing.T) {
	t.Parallel()

	mono := []int16{1, -2, 300, -32768, 32767}
	raw := make([]byte, 0, 2*len(mono))
	for _, v := range mono {
		raw = binary.LittleEndian.AppendUint16(raw, uint16(v))
	}

	track, err := WAVDecoder{}.Decode(bytes.NewReader(wavBytes(t, raw, 1, 22050)))
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	got, err := io.ReadAll(track)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4*len(mono) {
		t.Fatalf("got %d bytes, want %d", len(got), 4*len(mono))
	}
	for i, v := range mono {
		l := int16(binary.LittleEndian.Uint16(got[4*i:]))
		r := int16(binary.LittleEndian.Uint16(got[4*i+2:]))
		if l != v || r != v {
			t.Errorf("frame %d = (%d, %d), want (%d, %d)", i, l, r, v, v)
		}
	}
}

func TestWAVDecoderRejects(t *testing.T) {
	t.Parallel()

	eightBit := wavBytes(t, make([]byte, 64), 2, 44100)
	binary.LittleEndian.PutUint16(eightBit[34:], 8)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"not riff", []byte("this is not a wav file at all, just some text padding"), ErrUnsupportedFormat},
		{"8-bit", eightBit, ErrUnsupportedLayout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := (WAVDecoder{}).Decode(bytes.NewReader(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("Decode() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompressedDecodersRejectGarbage(t *testing.T) {
	t.Parallel()

	garbage := bytes.Repeat([]byte{0x00}, 512)
	for name, dec := range map[string]Decoder{"mp3": MP3Decoder{}, "ogg": VorbisDecoder{}} {
		if _, err := dec.Decode(bytes.NewReader(garbage)); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("%s Decode() = %v, want ErrUnsupportedFormat", name, err)
		}
	}
}

type stuckSource struct{}

func (stuckSource) readSamples([]int16) (int, error) { return 0, nil }

func TestStereoTrackNoProgress(t *testing.T) {
	t.Parallel()

	track := newStereoTrack(stuckSource{}, 44100, 2, nil)
	if _, err := track.Read(make([]byte, 16)); !errors.Is(err, io.ErrNoProgress) {
		t.Errorf("Read() = %v, want io.ErrNoProgress", err)
	}
}

func TestRegistryOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "tone.WAV")
	samples := make([]int16, 2*1000)
	for i := range samples {
		samples[i] = int16(i)
	}
	if err := wav.WriteFile(path, samples, 2, 48000); err != nil {
		t.Fatal(err)
	}

	reg := DefaultRegistry()
	track, err := reg.Open(path)
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	if track.SampleRate() != 48000 {
		t.Errorf("SampleRate() = %d", track.SampleRate())
	}
	got, err := io.ReadAll(track)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2*len(samples) {
		t.Errorf("read %d bytes, want %d", len(got), 2*len(samples))
	}
	if v := int16(binary.LittleEndian.Uint16(got[2*1999:])); v != 1999 {
		t.Errorf("last sample = %d, want 1999", v)
	}
	if err := track.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestRegistryUnknownExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "song.xyz")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := DefaultRegistry()
	if reg.Supports(".xyz") {
		t.Error("Supports(.xyz) without transcoder")
	}
	for _, ext := range []string{"wav", ".MP3", ".ogg"} {
		if !reg.Supports(ext) {
			t.Errorf("Supports(%q) = false", ext)
		}
	}
	if _, err := reg.Open(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Open() = %v, want ErrUnsupportedFormat", err)
	}
	if got := reg.Extensions(); len(got) != 3 || got[0] != ".mp3" {
		t.Errorf("Extensions() = %v", got)
	}
}
