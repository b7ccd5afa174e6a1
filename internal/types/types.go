package types

import "runtime"

// Band is one frequency interval of interest, in Hz.
type Band struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// OverflowPolicy decides what the hand-off queue does when it is full.
type OverflowPolicy string

const (
	OverflowDropOldest OverflowPolicy = "drop-oldest"
	OverflowDropNewest OverflowPolicy = "drop-newest"
)

// TrackErrorPolicy decides whether a playlist continues past a failed track.
type TrackErrorPolicy string

const (
	TrackErrorSkip TrackErrorPolicy = "skip"
	TrackErrorHalt TrackErrorPolicy = "halt"
)

type AudioConfig struct {
	ChunkSize     int            `yaml:"chunk_size"`     // frames per analysis chunk (power of two)
	Workers       int            `yaml:"workers"`        // spectrum worker pool size
	QueueCapacity int            `yaml:"queue_capacity"` // frames; -1 = unbounded
	Overflow      OverflowPolicy `yaml:"overflow"`
}

type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	Ordered  *bool  `yaml:"ordered"` // release messages in frame order (default true)
}

type PlaylistConfig struct {
	Shuffle      bool             `yaml:"shuffle"`
	OnTrackError TrackErrorPolicy `yaml:"on_track_error"`
	Extensions   []string         `yaml:"extensions"`
}

type DBusConfig struct {
	Enabled bool `yaml:"enabled"`
}

type NotificationConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	Audio         AudioConfig        `yaml:"audio"`
	Bands         []Band             `yaml:"bands"`
	Serial        SerialConfig       `yaml:"serial"`
	Playlist      PlaylistConfig     `yaml:"playlist"`
	DBus          DBusConfig         `yaml:"dbus"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// Defaults
const (
	DefaultChunkSize     = 2048
	DefaultWorkers       = 16
	DefaultQueueCapacity = 512
	DefaultBaudRate      = 115200
)

// DefaultBands is the four-band table the controller firmware expects.
func DefaultBands() []Band {
	return []Band{
		{Low: 60, High: 250},
		{Low: 250, High: 2000},
		{Low: 2000, High: 4000},
		{Low: 4000, High: 6000},
	}
}

func DefaultSerialPort() string {
	if runtime.GOOS == "windows" {
		return "COM3"
	}
	return "/dev/ttyUSB0"
}

// GetAudioConfig returns audio configuration with defaults
func (c *Config) GetAudioConfig() AudioConfig {
	config := c.Audio

	if config.ChunkSize == 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.Workers == 0 {
		config.Workers = DefaultWorkers
	}
	if config.QueueCapacity == 0 {
		config.QueueCapacity = DefaultQueueCapacity
	}
	if config.QueueCapacity < 0 {
		// explicit negative value in the file means no cap
		config.QueueCapacity = 0
	}
	if config.Overflow == "" {
		config.Overflow = OverflowDropOldest
	}

	return config
}

// GetBands returns the configured band table, or the default one.
func (c *Config) GetBands() []Band {
	if len(c.Bands) == 0 {
		return DefaultBands()
	}
	bands := make([]Band, len(c.Bands))
	copy(bands, c.Bands)
	return bands
}

// GetSerialConfig returns serial configuration with defaults
func (c *Config) GetSerialConfig() SerialConfig {
	config := c.Serial

	if config.Port == "" {
		config.Port = DefaultSerialPort()
	}
	if config.BaudRate == 0 {
		config.BaudRate = DefaultBaudRate
	}
	if config.Ordered == nil {
		ordered := true
		config.Ordered = &ordered
	}

	return config
}

// IsOrdered reports whether the sink should release messages in frame order.
func (s SerialConfig) IsOrdered() bool {
	return s.Ordered == nil || *s.Ordered
}

// GetPlaylistConfig returns playlist configuration with defaults
func (c *Config) GetPlaylistConfig() PlaylistConfig {
	config := c.Playlist

	if config.OnTrackError == "" {
		config.OnTrackError = TrackErrorSkip
	}
	if len(config.Extensions) == 0 {
		config.Extensions = []string{".wav", ".mp3", ".ogg", ".flac"}
	}

	return config
}

// Default returns a fully populated configuration, used when no file exists
// and by --write-config.
func Default() *Config {
	c := &Config{}
	c.Audio = c.GetAudioConfig()
	c.Bands = DefaultBands()
	c.Serial = c.GetSerialConfig()
	c.Playlist = c.GetPlaylistConfig()
	return c
}
