package audio

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dooshek/spectrolight/internal/logger"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func init() {
	ffmpeg.LogCompiledCommand = false
}

func checkFFmpegInstalled() error {
	cmd := exec.Command("ffmpeg", "-version")
	if err := cmd.Run(); err != nil {
		return ErrFFmpegNotInstalled
	}
	return nil
}

// Transcoder converts anything ffmpeg understands into 16-bit stereo WAV in a
// cache directory. Converted files are reused while the source is unchanged.
type Transcoder struct {
	cacheDir string
}

// NewTranscoder fails with ErrFFmpegNotInstalled when ffmpeg is missing.
func NewTranscoder(cacheDir string) (*Transcoder, error) {
	if err := checkFFmpegInstalled(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcode cache: %w", err)
	}
	return &Transcoder{cacheDir: cacheDir}, nil
}

// cachePath names the converted file after the source path and mtime.
func (t *Transcoder) cachePath(src string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		abs = src
	}
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d|%d", abs, info.Size(), info.ModTime().UnixNano())))
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(t.cacheDir, fmt.Sprintf("%s_%s.wav", base, hex.EncodeToString(sum[:6]))), nil
}

// ToWAV returns the path of a 16-bit stereo WAV rendition of src.
func (t *Transcoder) ToWAV(src string) (string, error) {
	dst, err := t.cachePath(src)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", src, err)
	}
	if _, err := os.Stat(dst); err == nil {
		logger.Debugf("Using cached transcode %s", dst)
		return dst, nil
	}

	start := time.Now()
	tmp := dst + ".part"
	err = ffmpeg.Input(src).
		Output(tmp, ffmpeg.KwArgs{
			"loglevel": "quiet",
			"f":        "wav",
			"acodec":   "pcm_s16le",
			"ac":       "2",
		}).
		OverWriteOutput().
		Run()
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("transcode %s: %w", filepath.Base(src), err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("transcode %s: %w", filepath.Base(src), err)
	}

	logger.Debugf("Transcoding %s took %d ms", filepath.Base(src), time.Since(start).Milliseconds())
	return dst, nil
}
