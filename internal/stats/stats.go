package stats

import (
	"encoding/json"
	"fmt"
	"sync"
)

// TrackStats holds counters for one played track
type TrackStats struct {
	Frames   uint64  `json:"frames"`
	Dropped  uint64  `json:"dropped"`
	Messages uint64  `json:"messages"`
	Silent   uint64  `json:"silent"`
	Seconds  float64 `json:"seconds"`
	PeakDBFS float64 `json:"peak_dbfs"`
	Failed   bool    `json:"failed,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Stats holds session totals plus a per-track breakdown
type Stats struct {
	TracksPlayed    int                    `json:"tracks_played"`
	TracksFailed    int                    `json:"tracks_failed"`
	FramesProduced  uint64                 `json:"frames_produced"`
	FramesDropped   uint64                 `json:"frames_dropped"`
	MessagesEmitted uint64                 `json:"messages_emitted"`
	SilentFrames    uint64                 `json:"silent_frames"`
	BytesWritten    uint64                 `json:"bytes_written"`
	Tracks          map[string]*TrackStats `json:"tracks"`
}

// StatsManager accumulates session statistics in memory
type StatsManager struct {
	stats Stats
	mu    sync.Mutex
}

func NewStatsManager() *StatsManager {
	return &StatsManager{
		stats: Stats{Tracks: make(map[string]*TrackStats)},
	}
}

// AddTrack folds one finished (or failed) track into the totals. Playing the
// same file twice accumulates into one entry.
func (sm *StatsManager) AddTrack(name string, ts TrackStats) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if ts.Failed {
		sm.stats.TracksFailed++
	} else {
		sm.stats.TracksPlayed++
	}
	sm.stats.FramesProduced += ts.Frames
	sm.stats.FramesDropped += ts.Dropped
	sm.stats.MessagesEmitted += ts.Messages
	sm.stats.SilentFrames += ts.Silent

	entry, exists := sm.stats.Tracks[name]
	if !exists {
		entry = &TrackStats{}
		sm.stats.Tracks[name] = entry
	}
	entry.Frames += ts.Frames
	entry.Dropped += ts.Dropped
	entry.Messages += ts.Messages
	entry.Silent += ts.Silent
	entry.Seconds += ts.Seconds
	entry.PeakDBFS = ts.PeakDBFS
	entry.Failed = ts.Failed
	entry.Error = ts.Error
}

// SetBytesWritten records the sink's byte counter.
func (sm *StatsManager) SetBytesWritten(n uint64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.stats.BytesWritten = n
}

// GetStats returns a deep copy of current statistics
func (sm *StatsManager) GetStats() Stats {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	statsCopy := sm.stats
	statsCopy.Tracks = make(map[string]*TrackStats, len(sm.stats.Tracks))
	for name, ts := range sm.stats.Tracks {
		c := *ts
		statsCopy.Tracks[name] = &c
	}
	return statsCopy
}

// GetStatsJSON returns statistics as a JSON string (for D-Bus)
func (sm *StatsManager) GetStatsJSON() (string, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	data, err := json.Marshal(sm.stats)
	if err != nil {
		return "", fmt.Errorf("failed to marshal stats to JSON: %w", err)
	}

	return string(data), nil
}

// Reset clears all statistics
func (sm *StatsManager) Reset() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.stats = Stats{Tracks: make(map[string]*TrackStats)}
}
