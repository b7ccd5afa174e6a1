package config

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/dooshek/spectrolight/internal/fileops"
	"github.com/dooshek/spectrolight/internal/types"
	"gopkg.in/yaml.v3"
)

const (
	configFilename = "spectrolight.yaml"

	// nominalSampleRate bounds the band table at load time; tracks with other
	// rates are clipped to their own Nyquist bin by the analyzer.
	nominalSampleRate = 44100
)

var (
	ErrInvalidBands  = errors.New("invalid band table")
	ErrInvalidAudio  = errors.New("invalid audio settings")
	ErrInvalidPolicy = errors.New("invalid policy")
)

// LoadConfig reads the config file at path, or the default file in the
// config directory when path is empty. A missing file yields (nil, nil).
func LoadConfig(path string) (*types.Config, error) {
	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file operations: %w", err)
	}
	return loadWith(fileOps, path)
}

func loadWith(fileOps fileops.FileOps, path string) (*types.Config, error) {
	if path == "" {
		path = configFilename
	}

	data, err := fileOps.LoadConfig(path)
	if err != nil {
		if errors.Is(err, fileops.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config types.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig writes config as YAML to path, or to the default file when path is empty.
func SaveConfig(config *types.Config, path string) error {
	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return fmt.Errorf("failed to initialize file operations: %w", err)
	}
	return saveWith(fileOps, config, path)
}

func saveWith(fileOps fileops.FileOps, config *types.Config, path string) error {
	if path == "" {
		path = configFilename
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fileOps.SaveConfig(path, data); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks the effective (defaulted) configuration.
func Validate(config *types.Config) error {
	audio := config.GetAudioConfig()
	if audio.ChunkSize < 2 || bits.OnesCount(uint(audio.ChunkSize)) != 1 {
		return fmt.Errorf("%w: chunk_size %d is not a power of two", ErrInvalidAudio, audio.ChunkSize)
	}
	if audio.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidAudio, audio.Workers)
	}
	switch audio.Overflow {
	case types.OverflowDropOldest, types.OverflowDropNewest:
	default:
		return fmt.Errorf("%w: unknown overflow policy %q", ErrInvalidPolicy, audio.Overflow)
	}

	bands := config.GetBands()
	for i, b := range bands {
		if b.Low < 0 || b.Low >= b.High {
			return fmt.Errorf("%w: band %d has low %.1f >= high %.1f", ErrInvalidBands, i, b.Low, b.High)
		}
		if b.High > nominalSampleRate/2 {
			return fmt.Errorf("%w: band %d high %.1f exceeds Nyquist", ErrInvalidBands, i, b.High)
		}
		if i > 0 && b.Low < bands[i-1].Low {
			return fmt.Errorf("%w: band %d starts below band %d", ErrInvalidBands, i, i-1)
		}
	}

	serial := config.GetSerialConfig()
	if serial.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", serial.BaudRate)
	}

	switch config.GetPlaylistConfig().OnTrackError {
	case types.TrackErrorSkip, types.TrackErrorHalt:
	default:
		return fmt.Errorf("%w: unknown on_track_error %q", ErrInvalidPolicy, config.Playlist.OnTrackError)
	}

	return nil
}
