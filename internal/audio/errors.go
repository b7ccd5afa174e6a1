package audio

import "errors"

var (
	// ErrUnsupportedFormat means no decoder handles the file and it cannot be
	// transcoded.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrUnsupportedLayout means the container is known but its sample layout
	// (bit depth, channel count) is not.
	ErrUnsupportedLayout = errors.New("unsupported sample layout")

	ErrFFmpegNotInstalled = errors.New("FFmpeg is not installed. Please install FFmpeg to play formats other than wav, mp3 and ogg")
)
