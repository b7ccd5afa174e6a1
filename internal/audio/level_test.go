package audio

import (
	"math"
	"testing"

	"github.com/dooshek/spectrolight/internal/audiotest"
)

func TestLevelMeter(t *testing.T) {
	t.Parallel()

	var m LevelMeter
	if got := m.PeakDBFS(); got != silenceFloorDB {
		t.Errorf("empty meter PeakDBFS() = %v", got)
	}

	m.Process(audiotest.StereoPCM(audiotest.Silence(64), nil))
	if m.Peak() != 0 {
		t.Errorf("silence Peak() = %v", m.Peak())
	}

	m.Process(audiotest.StereoPCM(audiotest.Sine(440, 16384, 44100, 441), nil))
	m.Process(audiotest.StereoPCM(audiotest.Sine(440, 1000, 44100, 441), nil))
	if got := m.PeakDBFS(); math.Abs(got-(-6.02)) > 0.05 {
		t.Errorf("half-scale PeakDBFS() = %.2f, want about -6.02", got)
	}

	m.Process(audiotest.StereoPCM([]float64{0}, []float64{-40000}))
	if m.Peak() != 1 {
		t.Errorf("full-scale negative Peak() = %v, want 1", m.Peak())
	}

	m.Reset()
	if m.Peak() != 0 {
		t.Error("Reset() did not clear the peak")
	}
}
