package notification

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dooshek/spectrolight/internal/logger"
)

const appTitle = "spectrolight"

// Notifier defines the interface for system notifications. It doubles as a
// session observer, so track changes show up on the desktop.
type Notifier interface {
	Notify(title, message string) error
	TrackStarted(track string, index, total int)
	TrackFinished(track string)
	TrackFailed(track string, err error)
}

// SilentNotifier is a no-op implementation used when notifications are off
type SilentNotifier struct{}

func NewSilent() Notifier {
	return &SilentNotifier{}
}

func (s *SilentNotifier) Notify(title, message string) error  { return nil }
func (s *SilentNotifier) TrackStarted(string, int, int)       {}
func (s *SilentNotifier) TrackFinished(string)                {}
func (s *SilentNotifier) TrackFailed(track string, err error) {}

type baseNotifier struct {
	platform platformNotifier
}

type platformNotifier interface {
	send(title, message string) error
}

// New creates a new platform-specific notification service
func New() Notifier {
	logger.Debug("Initializing notification system")
	var platform platformNotifier
	switch runtime.GOOS {
	case "darwin":
		logger.Debug("Using Darwin (macOS) notifier")
		platform = newDarwinNotifier()
	default:
		logger.Debug("Using Linux notifier")
		platform = newLinuxNotifier()
	}
	return &baseNotifier{platform: platform}
}

func (n *baseNotifier) Notify(title, message string) error {
	return n.platform.send(title, message)
}

func (n *baseNotifier) TrackStarted(track string, index, total int) {
	logger.Debug("Sending track started notification")
	_ = n.Notify(appTitle, formatNowPlaying(track, index, total))
}

// TrackFinished stays quiet; the next TrackStarted says enough.
func (n *baseNotifier) TrackFinished(string) {}

func (n *baseNotifier) TrackFailed(track string, err error) {
	_ = n.Notify(appTitle, fmt.Sprintf("Could not play %s: %v", displayName(track), err))
}

func formatNowPlaying(track string, index, total int) string {
	if total <= 1 {
		return fmt.Sprintf("Now playing: %s", displayName(track))
	}
	return fmt.Sprintf("Now playing (%d/%d): %s", index+1, total, displayName(track))
}

// displayName strips the extension and turns separators into spaces.
func displayName(track string) string {
	name := strings.TrimSuffix(filepath.Base(track), filepath.Ext(track))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
