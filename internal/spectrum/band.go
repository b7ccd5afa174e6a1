package spectrum

import "github.com/dooshek/spectrolight/internal/types"

// BinRange is the half-open FFT bin interval [Low, High) covered by one band.
type BinRange struct {
	Low  int
	High int
}

// Len returns the number of bins in the range.
func (r BinRange) Len() int {
	if r.High <= r.Low {
		return 0
	}
	return r.High - r.Low
}

// FreqToBin converts a frequency to an FFT bin index, truncating toward zero.
func FreqToBin(hz float64, chunkSize, sampleRate int) int {
	return int(float64(chunkSize) * hz / float64(sampleRate))
}

// BinRanges maps every band to its bin interval for the given chunk size and
// sample rate. Indices are clipped to [0, chunkSize/2] so a band that reaches
// past Nyquist never reads mirrored bins.
func BinRanges(bands []types.Band, chunkSize, sampleRate int) []BinRange {
	nyquist := chunkSize / 2
	ranges := make([]BinRange, len(bands))
	for i, b := range bands {
		lo := clampBin(FreqToBin(b.Low, chunkSize, sampleRate), nyquist)
		hi := clampBin(FreqToBin(b.High, chunkSize, sampleRate), nyquist)
		if hi < lo {
			hi = lo
		}
		ranges[i] = BinRange{Low: lo, High: hi}
	}
	return ranges
}

func clampBin(bin, nyquist int) int {
	if bin < 0 {
		return 0
	}
	if bin > nyquist {
		return nyquist
	}
	return bin
}
