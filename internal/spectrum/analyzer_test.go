package spectrum

import (
	"bytes"
	"math"
	"testing"

	"github.com/dooshek/spectrolight/internal/audiotest"
	"github.com/dooshek/spectrolight/internal/types"
)

const (
	testChunk = 2048
	testRate  = 44100
)

func newDefaultAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(types.DefaultBands(), testChunk, testRate)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	return a
}

func TestNewAnalyzerRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		bands []types.Band
		chunk int
		rate  int
	}{
		{"no bands", nil, 2048, 44100},
		{"chunk not power of two", types.DefaultBands(), 1500, 44100},
		{"chunk too small", types.DefaultBands(), 1, 44100},
		{"zero rate", types.DefaultBands(), 2048, 0},
	}
	for _, tt := range tests {
		if _, err := NewAnalyzer(tt.bands, tt.chunk, tt.rate); err == nil {
			t.Errorf("%s: NewAnalyzer() error = nil", tt.name)
		}
	}
}

func TestSilentChunkIgnoresBandCount(t *testing.T) {
	t.Parallel()

	for _, count := range []int{1, 4, 7} {
		bands := make([]types.Band, count)
		for i := range bands {
			bands[i] = types.Band{Low: float64(100 * (i + 1)), High: float64(100 * (i + 2))}
		}
		a, err := NewAnalyzer(bands, testChunk, testRate)
		if err != nil {
			t.Fatal(err)
		}

		pcm := audiotest.StereoPCM(audiotest.Silence(testChunk), nil)
		if got := a.Process(pcm); string(got) != "{00000000}" {
			t.Errorf("bands=%d: Process(silence) = %q, want {00000000}", count, got)
		}
	}
}

func TestToneLandsInItsBand(t *testing.T) {
	t.Parallel()

	a := newDefaultAnalyzer(t)
	tests := []struct {
		freq float64
		band int
	}{
		{150, 0},
		{1000, 1},
		{3000, 2},
		{5000, 3},
	}

	for _, tt := range tests {
		levels, silent := a.Intensities(audiotest.Sine(tt.freq, 0.8, testRate, testChunk))
		if silent {
			t.Fatalf("%.0f Hz: spectrum reported silent", tt.freq)
		}
		for i, v := range levels {
			if i == tt.band {
				if v < 2 {
					t.Errorf("%.0f Hz: band %d = %d, want a non-trivial level", tt.freq, i, v)
				}
				continue
			}
			if v != 0 {
				t.Errorf("%.0f Hz: band %d = %d, want 0 (levels %v)", tt.freq, i, v, levels)
			}
		}
	}
}

func TestPureToneExample(t *testing.T) {
	t.Parallel()

	a := newDefaultAnalyzer(t)
	got := a.ProcessMono(audiotest.Sine(1000, 0.8, testRate, testChunk))
	if string(got) != "{00030000}" {
		t.Errorf("ProcessMono(1 kHz) = %q, want {00030000}", got)
	}
}

func TestLeftChannelOnly(t *testing.T) {
	t.Parallel()

	a := newDefaultAnalyzer(t)
	left := audiotest.Sine(1000, 8000, testRate, testChunk)
	right := audiotest.Sine(5000, 8000, testRate, testChunk)
	pcm := audiotest.StereoPCM(left, right)

	mono := a.LeftChannel(pcm)
	for i := range mono {
		if mono[i] != math.Round(left[i]) {
			t.Fatalf("LeftChannel()[%d] = %v, want %v", i, mono[i], math.Round(left[i]))
		}
	}

	if got, want := a.Process(pcm), a.ProcessMono(mono); !bytes.Equal(got, want) {
		t.Errorf("Process() = %q, ProcessMono(left) = %q", got, want)
	}
}

func TestPartialFrameIsPadded(t *testing.T) {
	t.Parallel()

	a := newDefaultAnalyzer(t)
	full := audiotest.StereoPCM(audiotest.Sine(440, 6000, testRate, testChunk), nil)

	for _, frames := range []int{1, 37, 1000, testChunk - 1} {
		partial := full[:4*frames]
		mono := a.LeftChannel(partial)
		if len(mono) != testChunk {
			t.Fatalf("frames=%d: LeftChannel() len = %d, want %d", frames, len(mono), testChunk)
		}
		for i := frames; i < testChunk; i++ {
			if mono[i] != 0 {
				t.Fatalf("frames=%d: sample %d = %v, want zero padding", frames, i, mono[i])
			}
		}

		msg := a.Process(partial)
		if len(msg) != len(a.Process(full)) {
			t.Errorf("frames=%d: message %q has different length than full frame", frames, msg)
		}
	}
}

func TestOddSampleCount(t *testing.T) {
	t.Parallel()

	a := newDefaultAnalyzer(t)
	pcm := audiotest.StereoPCM([]float64{100, 200, 300}, nil)
	// drop the final right sample: 5 samples, 3 of them left
	mono := a.LeftChannel(pcm[:10])
	if mono[0] != 100 || mono[1] != 200 || mono[2] != 300 || mono[3] != 0 {
		t.Errorf("LeftChannel(odd) = %v", mono[:4])
	}
}

func TestNaNNeverShrinksMessage(t *testing.T) {
	t.Parallel()

	bands := []types.Band{{Low: 60, High: 250}, {Low: 250, High: 2000}, {Low: 2000, High: 4000}}
	a, err := NewAnalyzer(bands, testChunk, testRate)
	if err != nil {
		t.Fatal(err)
	}

	mono := audiotest.Sine(1000, 0.8, testRate, testChunk)
	mono[10] = math.NaN()
	got := a.ProcessMono(mono)
	if string(got) != "{000000}" {
		t.Errorf("ProcessMono(NaN) = %q, want {000000}", got)
	}
}

func TestBandIntensity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		power []float64
		want  int
	}{
		{"empty", nil, 0},
		{"all zero", []float64{0, 0, 0}, 0},
		{"nan", []float64{10, math.NaN(), 10}, 0},
		{"mean 1000", []float64{500, 1500}, 3},
		{"mean just below 1000", []float64{999}, 2},
		{"mean below one clamps to zero", []float64{0.001, 0.002}, 0},
		{"one zero bin among signal", []float64{0, 2000}, 3},
		{"huge clamps to 99", []float64{1e150}, 99},
		{"inf clamps to 99", []float64{math.Inf(1)}, 99},
	}
	for _, tt := range tests {
		if got := bandIntensity(tt.power); got != tt.want {
			t.Errorf("%s: bandIntensity(%v) = %d, want %d", tt.name, tt.power, got, tt.want)
		}
	}
}

func TestAnalyzerConcurrentUse(t *testing.T) {
	t.Parallel()

	a := newDefaultAnalyzer(t)
	mono := audiotest.Sine(3000, 0.8, testRate, testChunk)
	want := a.ProcessMono(mono)

	done := make(chan []byte, 8)
	for range 8 {
		go func() { done <- a.ProcessMono(mono) }()
	}
	for range 8 {
		if got := <-done; !bytes.Equal(got, want) {
			t.Errorf("concurrent ProcessMono() = %q, want %q", got, want)
		}
	}
}
