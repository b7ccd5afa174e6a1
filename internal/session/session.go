// Package session plays a list of tracks through the analysis pipeline and
// into one output sink.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dooshek/spectrolight/internal/audio"
	"github.com/dooshek/spectrolight/internal/logger"
	"github.com/dooshek/spectrolight/internal/pipeline"
	"github.com/dooshek/spectrolight/internal/sink"
	"github.com/dooshek/spectrolight/internal/spectrum"
	"github.com/dooshek/spectrolight/internal/stats"
	"github.com/dooshek/spectrolight/internal/types"
)

var (
	ErrNoTracks = errors.New("no tracks to play")
	// ErrSinkFailed ends the session regardless of the track error policy.
	ErrSinkFailed = errors.New("output sink failed")
)

// Player starts playback of a decoded track. audio.Player implements it.
type Player interface {
	Play(track audio.Track, feed func([]byte)) (audio.Stream, error)
}

// Opener decodes a track file. audio.Registry implements it.
type Opener interface {
	Open(path string) (audio.Track, error)
}

// Output is where messages go. sink.Sink implements it.
type Output interface {
	pipeline.Emitter
	Skip(seq uint64)
	Reset() error
	Failed() <-chan struct{}
	Err() error
	Stats() sink.Stats
}

// Observer is told about track transitions. Calls are made from the session
// goroutine and should return quickly.
type Observer interface {
	TrackStarted(track string, index, total int)
	TrackFinished(track string)
	TrackFailed(track string, err error)
}

// Status describes what the session is doing right now.
type Status struct {
	Track   string
	Index   int
	Total   int
	Playing bool
}

type Options struct {
	Audio        types.AudioConfig
	Bands        []types.Band
	OnTrackError types.TrackErrorPolicy
}

type Session struct {
	opts   Options
	player Player
	opener Opener
	out    Output
	stats  *stats.StatsManager

	mu        sync.Mutex
	observers []Observer
	status    Status
	skip      context.CancelFunc
}

// New wires a session. sm may be nil.
func New(opts Options, player Player, opener Opener, out Output, sm *stats.StatsManager) *Session {
	if sm == nil {
		sm = stats.NewStatsManager()
	}
	if opts.OnTrackError == "" {
		opts.OnTrackError = types.TrackErrorSkip
	}
	return &Session{
		opts:   opts,
		player: player,
		opener: opener,
		out:    out,
		stats:  sm,
	}
}

func (s *Session) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Stats exposes the session counters.
func (s *Session) Stats() *stats.StatsManager { return s.stats }

func (s *Session) StatsJSON() (string, error) { return s.stats.GetStatsJSON() }

// Skip ends the current track early. It reports false when nothing is playing.
func (s *Session) Skip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skip == nil {
		return false
	}
	logger.Infof("⏭️  Skipping %s", s.status.Track)
	s.skip()
	return true
}

// Run plays tracks in order. It returns ctx.Err() when cancelled, an
// ErrSinkFailed-wrapped error when the output breaks, or the first track
// error under the halt policy.
func (s *Session) Run(ctx context.Context, tracks []string) error {
	if len(tracks) == 0 {
		return ErrNoTracks
	}
	defer func() {
		s.stats.SetBytesWritten(s.out.Stats().Bytes)
		s.setStatus(Status{Total: len(tracks)})
	}()

	for i, path := range tracks {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := filepath.Base(path)
		ts, err := s.playTrack(ctx, path, i, len(tracks))
		if err != nil && (errors.Is(err, ErrSinkFailed) || ctx.Err() == nil) {
			ts.Failed = true
			ts.Error = err.Error()
		}
		s.stats.AddTrack(name, ts)

		switch {
		case err == nil:
			s.notify(func(o Observer) { o.TrackFinished(name) })
		case errors.Is(err, ErrSinkFailed):
			s.notify(func(o Observer) { o.TrackFailed(name, err) })
			return err
		case ctx.Err() != nil:
			// interrupted, not failed
			return ctx.Err()
		default:
			s.notify(func(o Observer) { o.TrackFailed(name, err) })
			if s.opts.OnTrackError == types.TrackErrorHalt {
				return fmt.Errorf("track %s: %w", name, err)
			}
			logger.Warnf("Skipping %s: %v", name, err)
		}
	}

	return ctx.Err()
}

// countingEmitter tallies what the workers produce.
type countingEmitter struct {
	out      pipeline.Emitter
	messages atomic.Uint64
	silent   atomic.Uint64
}

func (c *countingEmitter) Emit(seq uint64, msg []byte) error {
	if err := c.out.Emit(seq, msg); err != nil {
		return err
	}
	c.messages.Add(1)
	if spectrum.IsSilent(msg) {
		c.silent.Add(1)
	}
	return nil
}

func (s *Session) playTrack(ctx context.Context, path string, index, total int) (stats.TrackStats, error) {
	var ts stats.TrackStats
	name := filepath.Base(path)
	log := logger.With("session")

	track, err := s.opener.Open(path)
	if err != nil {
		return ts, err
	}
	defer track.Close()

	analyzer, err := spectrum.NewAnalyzer(s.opts.Bands, s.opts.Audio.ChunkSize, track.SampleRate())
	if err != nil {
		return ts, err
	}

	trackCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := pipeline.NewQueue(s.opts.Audio.QueueCapacity, s.opts.Audio.Overflow, s.out.Skip)
	emitter := &countingEmitter{out: s.out}
	pool := pipeline.NewPool(queue, analyzer, emitter, s.opts.Audio.Workers)
	pool.Start()
	producer := pipeline.NewProducer(queue, s.opts.Audio.ChunkSize)
	meter := &audio.LevelMeter{}
	feed := func(pcm []byte) {
		meter.Process(pcm)
		producer.Feed(pcm)
	}

	stream, err := s.player.Play(track, feed)
	if err != nil {
		pool.Shutdown()
		_ = pool.Wait()
		return ts, err
	}

	s.mu.Lock()
	s.status = Status{Track: name, Index: index, Total: total, Playing: true}
	s.skip = cancel
	s.mu.Unlock()
	s.notify(func(o Observer) { o.TrackStarted(name, index, total) })

	log.Info().
		Str("track", name).
		Int("sample_rate", track.SampleRate()).
		Int("workers", pool.Size()).
		Msgf("🎵 Playing %d/%d", index+1, total)

	start := time.Now()
	var streamErr error
	select {
	case <-stream.Done():
		streamErr = stream.Err()
	case <-s.out.Failed():
	case <-pool.Failed():
	case <-trackCtx.Done():
	}

	stream.Stop()
	producer.Flush()
	pool.Shutdown()
	poolErr := pool.Wait()
	resetErr := s.out.Reset()

	s.mu.Lock()
	s.status.Playing = false
	s.skip = nil
	s.mu.Unlock()

	qs := queue.Stats()
	ts.Frames = producer.Frames()
	ts.Dropped = qs.Dropped
	ts.Messages = emitter.messages.Load()
	ts.Silent = emitter.silent.Load()
	ts.Seconds = time.Since(start).Seconds()
	ts.PeakDBFS = meter.PeakDBFS()

	log.Debug().
		Str("track", name).
		Uint64("frames", ts.Frames).
		Uint64("dropped", ts.Dropped).
		Int("queue_peak", qs.Peak).
		Float64("peak_dbfs", ts.PeakDBFS).
		Msg("Track pipeline joined")
	if ts.Dropped > 0 {
		log.Warn().Str("track", name).Uint64("dropped", ts.Dropped).Msg("Frames dropped, workers could not keep up")
	}

	if err := s.out.Err(); err != nil {
		return ts, fmt.Errorf("%w: %w", ErrSinkFailed, err)
	}
	if poolErr != nil {
		return ts, fmt.Errorf("%w: %w", ErrSinkFailed, poolErr)
	}
	if resetErr != nil {
		return ts, fmt.Errorf("%w: %w", ErrSinkFailed, resetErr)
	}
	if streamErr != nil {
		return ts, fmt.Errorf("playback of %s: %w", name, streamErr)
	}
	if err := ctx.Err(); err != nil {
		return ts, err
	}
	return ts, nil
}

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

func (s *Session) notify(fn func(Observer)) {
	s.mu.Lock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, o := range observers {
		fn(o)
	}
}
