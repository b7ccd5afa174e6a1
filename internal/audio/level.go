package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

// silenceFloorDB is reported for a track that never left digital silence.
const silenceFloorDB = -96.0

// LevelMeter tracks the loudest sample of interleaved int16 PCM. Process is
// called from the device callback; the readers may run on any goroutine.
type LevelMeter struct {
	peak atomic.Int32 // absolute sample value, 0..32768
}

// Process folds one buffer into the running peak.
func (m *LevelMeter) Process(pcm []byte) {
	var maxSample int32
	for i := 0; i+1 < len(pcm); i += 2 {
		v := int32(int16(binary.LittleEndian.Uint16(pcm[i:])))
		if v < 0 {
			v = -v
		}
		if v > maxSample {
			maxSample = v
		}
	}

	for {
		cur := m.peak.Load()
		if maxSample <= cur || m.peak.CompareAndSwap(cur, maxSample) {
			return
		}
	}
}

// Peak returns the normalized peak in [0,1].
func (m *LevelMeter) Peak() float64 {
	return float64(m.peak.Load()) / 32768.0
}

// PeakDBFS returns the peak in dB relative to full scale, floored at -96.
func (m *LevelMeter) PeakDBFS() float64 {
	p := m.Peak()
	if p == 0 {
		return silenceFloorDB
	}
	return math.Max(20*math.Log10(p), silenceFloorDB)
}

// Reset clears the peak.
func (m *LevelMeter) Reset() {
	m.peak.Store(0)
}
