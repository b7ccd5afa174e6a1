package spectrum

import (
	"testing"

	"github.com/dooshek/spectrolight/internal/types"
)

func TestFreqToBin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hz   float64
		want int
	}{
		{0, 0},
		{60, 2},
		{250, 11},
		{2000, 92},
		{4000, 185},
		{6000, 278},
		{22050, 1024},
	}
	for _, tt := range tests {
		if got := FreqToBin(tt.hz, 2048, 44100); got != tt.want {
			t.Errorf("FreqToBin(%v) = %d, want %d", tt.hz, got, tt.want)
		}
	}
}

func TestBinRangesMonotonicAndBelowNyquist(t *testing.T) {
	t.Parallel()

	wide := append(types.DefaultBands(), types.Band{Low: 6000, High: 12000}, types.Band{Low: 12000, High: 20000})

	for _, chunk := range []int{256, 1024, 2048, 4096} {
		for _, rate := range []int{8000, 22050, 44100, 48000, 96000} {
			ranges := BinRanges(wide, chunk, rate)
			if len(ranges) != len(wide) {
				t.Fatalf("chunk=%d rate=%d: %d ranges for %d bands", chunk, rate, len(ranges), len(wide))
			}
			for i, r := range ranges {
				if r.Low > r.High {
					t.Errorf("chunk=%d rate=%d: band %d inverted %+v", chunk, rate, i, r)
				}
				if r.High > chunk/2 {
					t.Errorf("chunk=%d rate=%d: band %d high %d above Nyquist %d", chunk, rate, i, r.High, chunk/2)
				}
				if i > 0 {
					prev := ranges[i-1]
					if r.Low < prev.Low || r.High < prev.High {
						t.Errorf("chunk=%d rate=%d: band %d %+v not after %+v", chunk, rate, i, r, prev)
					}
				}
			}
		}
	}
}

func TestDefaultBinRanges(t *testing.T) {
	t.Parallel()

	want := []BinRange{{2, 11}, {11, 92}, {92, 185}, {185, 278}}
	got := BinRanges(types.DefaultBands(), 2048, 44100)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("range %d = %+v, want %+v", i, got[i], want[i])
		}
		if got[i].Len() != want[i].High-want[i].Low {
			t.Errorf("range %d Len() = %d", i, got[i].Len())
		}
	}
}
