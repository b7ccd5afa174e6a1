package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dooshek/spectrolight/internal/audio"
	"github.com/dooshek/spectrolight/internal/config"
	"github.com/dooshek/spectrolight/internal/dbus"
	"github.com/dooshek/spectrolight/internal/fileops"
	"github.com/dooshek/spectrolight/internal/logger"
	"github.com/dooshek/spectrolight/internal/notification"
	"github.com/dooshek/spectrolight/internal/playlist"
	"github.com/dooshek/spectrolight/internal/session"
	"github.com/dooshek/spectrolight/internal/sink"
	"github.com/dooshek/spectrolight/internal/stats"
	"github.com/dooshek/spectrolight/internal/types"
	"github.com/fatih/color"
)

func init() {
	// Set custom usage message to show -- prefix
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(out, "  --%s", f.Name)
			name, usage := flag.UnquoteUsage(f)
			if len(name) > 0 {
				fmt.Fprintf(out, " %s", name)
			}
			fmt.Fprintf(out, "\n    \t%s", usage)
			if f.DefValue != "" && f.DefValue != "false" {
				fmt.Fprintf(out, " (default %q)", f.DefValue)
			}
			fmt.Fprintf(out, "\n")
		})
	}
}

type options struct {
	song        string
	playlistDir string
	shuffle     bool
	configPath  string
	writeConfig bool
	wizard      bool
	port        string
	dryRun      bool
	dbus        bool
	notify      bool
	listPorts   bool
	clearCache  bool
	logLevel    string
	logFilename string
}

func parseFlags() *options {
	o := &options{}
	flag.StringVar(&o.song, "song", "", "Path of a song to play")
	flag.StringVar(&o.song, "s", "", "Shorthand for --song")
	flag.StringVar(&o.playlistDir, "playlist", "", "Directory of songs to play in order")
	flag.StringVar(&o.playlistDir, "p", "", "Shorthand for --playlist")
	flag.BoolVar(&o.shuffle, "shuffle", false, "Shuffle the playlist")
	flag.BoolVar(&o.shuffle, "m", false, "Shorthand for --shuffle")
	flag.StringVar(&o.configPath, "config", "", "Config file (default ~/.config/spectrolight/spectrolight.yaml)")
	flag.BoolVar(&o.writeConfig, "write-config", false, "Write the default configuration and exit")
	flag.BoolVar(&o.wizard, "wizard", false, "Run the serial port setup wizard")
	flag.StringVar(&o.port, "port", "", "Serial port of the LED controller (overrides config)")
	flag.BoolVar(&o.dryRun, "dry-run", false, "Print spectrum bars instead of writing to the serial port")
	flag.BoolVar(&o.dbus, "dbus", false, "Expose playback status on the D-Bus session bus")
	flag.BoolVar(&o.notify, "notify", false, "Show a desktop notification on track change")
	flag.BoolVar(&o.listPorts, "list-ports", false, "List serial ports and exit")
	flag.BoolVar(&o.clearCache, "clear-cache", false, "Remove transcoded files and exit")
	flag.StringVar(&o.logLevel, "log-level", "info", "Set log level (debug|info|warn|error)")
	flag.StringVar(&o.logFilename, "log-filename", "", "Log to file instead of stdout")
	flag.Parse()
	return o
}

func main() {
	os.Exit(run(parseFlags()))
}

func run(o *options) int {
	// Set up logging level and output
	if _, ok := logger.ParseLevel(o.logLevel); !ok {
		fmt.Printf("Unknown log level %q\n", o.logLevel)
		return 2
	}
	logger.SetLevel(o.logLevel)
	if o.logFilename != "" {
		if err := logger.SetOutputFile(o.logFilename); err != nil {
			fmt.Printf("Error setting log file: %v\n", err)
			return 1
		}
		defer logger.CloseLogFile()
	}

	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		logger.Error("Failed to initialize file operations", err)
		return 1
	}
	if err := fileOps.EnsureDirectories(); err != nil {
		logger.Error("Failed to create necessary directories", err)
		return 1
	}

	switch {
	case o.writeConfig:
		if err := config.SaveConfig(types.Default(), o.configPath); err != nil {
			logger.Error("Error writing config", err)
			return 1
		}
		logger.Info("✅ Default configuration written")
		return 0
	case o.listPorts:
		return listPorts()
	case o.clearCache:
		if err := fileOps.CleanupCache(); err != nil {
			logger.Error("Failed to clear transcode cache", err)
			return 1
		}
		logger.Info("🧹 Transcode cache cleared")
		return 0
	case o.wizard:
		ports, err := sink.Ports()
		if err != nil {
			logger.Warnf("Could not list serial ports: %v", err)
		}
		if err := config.RunWizard(os.Stdin, os.Stdout, ports, o.configPath); err != nil {
			logger.Error("Error running wizard", err)
			return 1
		}
		return 0
	}

	if o.song == "" && o.playlistDir == "" {
		logger.Error("Nothing to play", errors.New("no playlist or song given"))
		flag.Usage()
		return 2
	}

	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		logger.Error("Error loading config", err)
		return 1
	}
	if cfg == nil {
		logger.Debug("No configuration found, using defaults")
		cfg = types.Default()
	}
	if o.port != "" {
		cfg.Serial.Port = o.port
	}
	if o.shuffle {
		cfg.Playlist.Shuffle = true
	}
	if o.dbus {
		cfg.DBus.Enabled = true
	}
	if o.notify {
		cfg.Notifications.Enabled = true
	}
	if err := config.Validate(cfg); err != nil {
		logger.Error("Invalid configuration", err)
		return 1
	}

	// The serial port can only have one writer
	if err := fileOps.CheckPID(); err != nil {
		if errors.Is(err, fileops.ErrProcessAlreadyRunning) {
			logger.Error("Another instance of spectrolight is already running", err)
			return 1
		}
	}
	if err := fileOps.SavePID(); err != nil {
		logger.Error("Failed to save PID file", err)
		return 1
	}
	defer func() {
		if err := fileOps.CleanupPID(); err != nil {
			logger.Error("Failed to cleanup PID file", err)
		}
	}()

	registry := audio.DefaultRegistry()
	if tc, err := audio.NewTranscoder(fileOps.GetCacheDir()); err != nil {
		logger.Warnf("%v", err)
	} else {
		registry.SetTranscoder(tc)
	}

	tracks, err := collectTracks(o, cfg.GetPlaylistConfig(), registry)
	if err != nil {
		logger.Error("Failed to build playlist", err)
		return 1
	}
	printPlaylist(tracks)

	audioCfg := cfg.GetAudioConfig()
	serialCfg := cfg.GetSerialConfig()

	var out *sink.Sink
	if o.dryRun {
		out = sink.New(sink.NewConsole(os.Stdout, 9), serialCfg.IsOrdered())
	} else {
		out, err = sink.OpenSerial(serialCfg)
		if err != nil {
			logger.Error("Failed to open LED controller", err)
			return 1
		}
	}

	player, err := audio.NewPlayer(audioCfg.ChunkSize)
	if err != nil {
		logger.Error("Failed to initialize audio output", err)
		out.Close()
		return 1
	}
	defer player.Close()

	sess := session.New(session.Options{
		Audio:        audioCfg,
		Bands:        cfg.GetBands(),
		OnTrackError: cfg.GetPlaylistConfig().OnTrackError,
	}, player, registry, out, stats.NewStatsManager())

	if cfg.Notifications.Enabled {
		sess.AddObserver(notification.New())
	}
	if cfg.DBus.Enabled {
		server := dbus.NewServer(sess)
		if err := server.Start(); err != nil {
			logger.Warnf("D-Bus service unavailable: %v", err)
		} else {
			sess.AddObserver(server)
			defer server.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := sess.Run(ctx, tracks)
	closeErr := out.Close()

	printSummary(sess.Stats().GetStats())

	switch {
	case runErr == nil && closeErr != nil:
		logger.Error("Failed to close LED controller", closeErr)
		return 1
	case runErr == nil, errors.Is(runErr, context.Canceled):
		if runErr != nil {
			logger.Info("Interrupted, shutting down...")
		}
		return 0
	default:
		logger.Error("Playback stopped", runErr)
		return 1
	}
}

// collectTracks puts --song first and the playlist after it.
func collectTracks(o *options, pl types.PlaylistConfig, registry *audio.Registry) ([]string, error) {
	var tracks []string
	if o.song != "" {
		if _, err := os.Stat(o.song); err != nil {
			return nil, err
		}
		tracks = append(tracks, o.song)
	}
	if o.playlistDir != "" {
		list, err := playlist.List(o.playlistDir, pl.Extensions, registry.Supports)
		if err != nil {
			return nil, err
		}
		if pl.Shuffle {
			list = playlist.Shuffle(list, nil)
		}
		if len(list) == 0 {
			logger.Warnf("No playable files in %s", o.playlistDir)
		}
		tracks = append(tracks, list...)
	}
	if len(tracks) == 0 {
		return nil, session.ErrNoTracks
	}
	return tracks, nil
}

func printPlaylist(tracks []string) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)

	bold.Printf("\n🎶 %d track(s) queued\n", len(tracks))
	for i, t := range tracks {
		cyan.Printf("  %2d. ", i+1)
		fmt.Println(filepath.Base(t))
	}
	fmt.Println()
}

func printSummary(st stats.Stats) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	bold.Println("\n📊 Session summary")
	green.Printf("  played:   %d\n", st.TracksPlayed)
	if st.TracksFailed > 0 {
		red.Printf("  failed:   %d\n", st.TracksFailed)
	}
	fmt.Printf("  frames:   %d (%d silent)\n", st.FramesProduced, st.SilentFrames)
	fmt.Printf("  messages: %d, %d bytes written\n", st.MessagesEmitted, st.BytesWritten)
	if st.FramesDropped > 0 {
		yellow.Printf("  dropped:  %d frames\n", st.FramesDropped)
	}
}

func listPorts() int {
	ports, err := sink.Ports()
	if err != nil {
		logger.Error("Failed to list serial ports", err)
		return 1
	}
	if len(ports) == 0 {
		fmt.Println("ℹ️ No serial ports found.")
		return 0
	}
	fmt.Println("📋 Serial ports:")
	for _, p := range ports {
		color.New(color.FgCyan).Printf("  %s\n", p)
	}
	return 0
}
