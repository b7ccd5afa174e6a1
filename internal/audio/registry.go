package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dooshek/spectrolight/internal/logger"
)

// Decoder builds a Track from an open file.
type Decoder interface {
	Decode(rs io.ReadSeeker) (Track, error)
}

// Registry maps file extensions to decoders. With a Transcoder attached it
// also accepts any other extension, and files a native decoder rejects for
// their layout, by converting them to WAV first.
type Registry struct {
	mu         sync.RWMutex
	decoders   map[string]Decoder
	transcoder *Transcoder
}

func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

// DefaultRegistry knows wav, mp3 and ogg natively.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(".wav", WAVDecoder{})
	r.Register(".mp3", MP3Decoder{})
	r.Register(".ogg", VorbisDecoder{})
	return r
}

// Register binds ext (with or without the leading dot) to d.
func (r *Registry) Register(ext string, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[normalizeExt(ext)] = d
}

// SetTranscoder enables the ffmpeg fallback.
func (r *Registry) SetTranscoder(t *Transcoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcoder = t
}

func (r *Registry) get(ext string) (Decoder, *Transcoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decoders[normalizeExt(ext)]
	return d, r.transcoder, ok
}

// Supports reports whether Open can be expected to handle files with ext.
func (r *Registry) Supports(ext string) bool {
	_, tc, ok := r.get(ext)
	return ok || tc != nil
}

// Extensions lists the natively decoded extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.decoders))
	for ext := range r.decoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Open decodes path. Closing the returned Track closes the file.
func (r *Registry) Open(path string) (Track, error) {
	dec, tc, ok := r.get(filepath.Ext(path))
	if !ok {
		if tc == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
		}
		return r.openTranscoded(tc, path)
	}

	track, err := openWith(dec, path)
	if err != nil && tc != nil && errors.Is(err, ErrUnsupportedLayout) {
		logger.Debugf("Native decoder rejected %s (%v), transcoding", filepath.Base(path), err)
		return r.openTranscoded(tc, path)
	}
	return track, err
}

func (r *Registry) openTranscoded(tc *Transcoder, path string) (Track, error) {
	wavPath, err := tc.ToWAV(path)
	if err != nil {
		return nil, err
	}
	return openWith(WAVDecoder{}, wavPath)
}

func openWith(dec Decoder, path string) (Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track: %w", err)
	}

	track, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if st, ok := track.(*stereoTrack); ok {
		st.closer = f
	} else {
		track = &fileTrack{Track: track, f: f}
	}
	return track, nil
}

// fileTrack closes the backing file for decoders outside this package.
type fileTrack struct {
	Track
	f *os.File
}

func (t *fileTrack) Close() error {
	err := t.Track.Close()
	if ferr := t.f.Close(); err == nil {
		err = ferr
	}
	return err
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
