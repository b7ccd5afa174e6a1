package spectrum

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"
	"math/cmplx"

	"github.com/dooshek/spectrolight/internal/types"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Analyzer reduces one PCM chunk to per-band intensities. It is immutable
// after construction and safe for concurrent use by many workers.
type Analyzer struct {
	bands      []types.Band
	ranges     []BinRange
	chunkSize  int
	sampleRate int
	window     []float64
}

// NewAnalyzer precomputes the Hamming window and band bin ranges for one
// track's sample rate.
func NewAnalyzer(bands []types.Band, chunkSize, sampleRate int) (*Analyzer, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("analyzer needs at least one band")
	}
	if chunkSize < 2 || bits.OnesCount(uint(chunkSize)) != 1 {
		return nil, fmt.Errorf("chunk size %d is not a power of two", chunkSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	owned := make([]types.Band, len(bands))
	copy(owned, bands)

	return &Analyzer{
		bands:      owned,
		ranges:     BinRanges(owned, chunkSize, sampleRate),
		chunkSize:  chunkSize,
		sampleRate: sampleRate,
		window:     window.Hamming(chunkSize),
	}, nil
}

func (a *Analyzer) ChunkSize() int        { return a.chunkSize }
func (a *Analyzer) SampleRate() int       { return a.sampleRate }
func (a *Analyzer) BandCount() int        { return len(a.bands) }
func (a *Analyzer) BinRanges() []BinRange { return append([]BinRange(nil), a.ranges...) }

// Process turns one interleaved stereo int16 little-endian chunk into the
// wire message for it. A chunk shorter than the nominal size is zero padded.
func (a *Analyzer) Process(pcm []byte) []byte {
	return a.ProcessMono(a.LeftChannel(pcm))
}

// ProcessMono encodes an already extracted mono chunk.
func (a *Analyzer) ProcessMono(mono []float64) []byte {
	levels, silent := a.Intensities(mono)
	if silent {
		return SilentMessage()
	}
	return Encode(levels)
}

// LeftChannel extracts the left samples of an interleaved stereo chunk into a
// buffer of exactly ChunkSize values, zero padded on the right.
func (a *Analyzer) LeftChannel(pcm []byte) []float64 {
	out := make([]float64, a.chunkSize)
	samples := len(pcm) / 2
	n := (samples + 1) / 2
	if n > a.chunkSize {
		n = a.chunkSize
	}
	for i := 0; i < n; i++ {
		off := 4 * i
		out[i] = float64(int16(binary.LittleEndian.Uint16(pcm[off : off+2])))
	}
	return out
}

// Intensities windows and transforms mono, then aggregates the power spectrum
// per band. The second result is true when every magnitude bin is exactly
// zero; the levels are nil in that case.
func (a *Analyzer) Intensities(mono []float64) ([]int, bool) {
	buf := make([]float64, a.chunkSize)
	copy(buf, mono)
	for i := range buf {
		buf[i] *= a.window[i]
	}

	coeffs := fft.FFTReal(buf)

	power := make([]float64, len(coeffs))
	silent := true
	for i, c := range coeffs {
		m := cmplx.Abs(c)
		if m != 0 {
			silent = false
		}
		power[i] = m * m
	}
	if silent {
		return nil, true
	}

	levels := make([]int, len(a.ranges))
	for i, r := range a.ranges {
		levels[i] = bandIntensity(power[r.Low:r.High])
	}
	return levels, false
}

// bandIntensity is total: every input maps to a value in [0, MaxIntensity].
// Empty, all-zero and NaN-tainted slices map to 0.
func bandIntensity(power []float64) int {
	if len(power) == 0 {
		return 0
	}

	var sum float64
	allZero := true
	for _, p := range power {
		if math.IsNaN(p) {
			return 0
		}
		if p != 0 {
			allZero = false
		}
		sum += p
	}
	if allZero {
		return 0
	}

	level := math.Log10(sum / float64(len(power)))
	switch {
	case math.IsNaN(level):
		return 0
	case math.IsInf(level, 1):
		return MaxIntensity
	case math.IsInf(level, -1):
		return 0
	}
	// Log10 of an exact power of ten can land one ulp below the integer.
	if r := math.Round(level); math.Abs(level-r) < 1e-9 {
		level = r
	}
	return clampIntensity(int(math.Trunc(level)))
}
