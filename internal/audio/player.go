package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dooshek/spectrolight/internal/logger"
	"github.com/gen2brain/malgo"
)

// Stream is one track being played.
type Stream interface {
	// Done is closed once the track has been fully read or reading failed.
	Done() <-chan struct{}
	// Err returns the read error that ended the stream, nil at a clean EOF.
	Err() error
	// Stop halts the device. It is safe to call more than once.
	Stop()
}

// Player owns the malgo context shared by every track of a session.
type Player struct {
	ctx        *malgo.AllocatedContext
	periodSize int
}

// NewPlayer initializes the audio backend. periodSize is the device period in
// frames; the chunk size keeps callbacks aligned with analysis frames.
func NewPlayer(periodSize int) (*Player, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	return &Player{ctx: ctx, periodSize: periodSize}, nil
}

// Play starts track on the default output device. Every byte handed to the
// device is also passed to feed, from the device callback goroutine.
func (p *Player) Play(track Track, feed func([]byte)) (Stream, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 2
	cfg.SampleRate = uint32(track.SampleRate())
	cfg.PeriodSizeInFrames = uint32(p.periodSize)
	cfg.Alsa.NoMMap = 1

	s := &playback{done: make(chan struct{})}

	device, err := malgo.InitDevice(p.ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			s.fill(track, feed, out, int(frameCount))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	s.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	logger.Debugf("Playback device started: %d Hz, period %d frames", track.SampleRate(), p.periodSize)
	return s, nil
}

// Close releases the audio backend.
func (p *Player) Close() {
	if p.ctx == nil {
		return
	}
	_ = p.ctx.Uninit()
	p.ctx.Free()
	p.ctx = nil
}

type playback struct {
	device *malgo.Device

	finishOnce sync.Once
	done       chan struct{}
	finished   bool // touched only by the callback goroutine
	err        error

	stopOnce sync.Once
}

func (s *playback) fill(track Track, feed func([]byte), out []byte, frames int) {
	want := min(frames*4, len(out))
	buf := out[:want]
	if s.finished {
		clear(buf)
		return
	}

	n, err := io.ReadFull(track, buf)
	clear(buf[n:])
	if n > 0 {
		feed(buf[:n])
	}
	if err != nil {
		s.finished = true
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = nil
		}
		s.finish(err)
	}
}

func (s *playback) finish(err error) {
	s.finishOnce.Do(func() {
		s.err = err
		close(s.done)
	})
}

func (s *playback) Done() <-chan struct{} { return s.done }

func (s *playback) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

func (s *playback) Stop() {
	s.stopOnce.Do(func() {
		if err := s.device.Stop(); err != nil {
			logger.Warnf("Failed to stop playback device: %v", err)
		}
		s.device.Uninit()
		s.finish(nil)
	})
}
