package dbus

import (
	"fmt"
	"sync"

	"github.com/dooshek/spectrolight/internal/logger"
	"github.com/dooshek/spectrolight/internal/session"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	dbusServiceName = "com.dooshek.spectrolight"
	dbusObjectPath  = "/com/dooshek/spectrolight/Player"
	dbusInterface   = "com.dooshek.spectrolight.Player"
)

// Controller is the part of a session the bus can see and steer.
type Controller interface {
	Status() session.Status
	Skip() bool
	StatsJSON() (string, error)
}

// signalConn is the subset of *dbus.Conn used for signals
type signalConn interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// Server implements the D-Bus status service for a playback session
type Server struct {
	conn       *dbus.Conn
	signals    signalConn
	controller Controller
	mu         sync.Mutex
}

// NewServer creates a new D-Bus server for controller
func NewServer(controller Controller) *Server {
	return &Server{controller: controller}
}

// Start connects to the session bus and exports the player object
func (s *Server) Start() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	// Request name
	reply, err := conn.RequestName(dbusServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return fmt.Errorf("name already taken")
	}

	if err := conn.Export(s, dbusObjectPath, dbusInterface); err != nil {
		conn.Close()
		return fmt.Errorf("failed to export object: %w", err)
	}

	err = conn.Export(introspect.NewIntrospectable(introspection()), dbusObjectPath, "org.freedesktop.DBus.Introspectable")
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.signals = conn
	s.mu.Unlock()

	logger.Infof("🔌 D-Bus service started: %s", dbusServiceName)
	return nil
}

func introspection() *introspect.Node {
	return &introspect.Node{
		Name: dbusObjectPath,
		Interfaces: []introspect.Interface{{
			Name: dbusInterface,
			Methods: []introspect.Method{
				{
					Name: "GetStatus",
					Args: []introspect.Arg{
						{Name: "track", Type: "s", Direction: "out"},
						{Name: "index", Type: "i", Direction: "out"},
						{Name: "total", Type: "i", Direction: "out"},
						{Name: "playing", Type: "b", Direction: "out"},
					},
				},
				{
					Name: "GetStats",
					Args: []introspect.Arg{
						{Name: "stats_json", Type: "s", Direction: "out"},
					},
				},
				{
					Name: "Skip",
					Args: []introspect.Arg{
						{Name: "skipped", Type: "b", Direction: "out"},
					},
				},
			},
			Signals: []introspect.Signal{
				{
					Name: "TrackStarted",
					Args: []introspect.Arg{
						{Name: "track", Type: "s"},
					},
				},
				{
					Name: "TrackFinished",
					Args: []introspect.Arg{
						{Name: "track", Type: "s"},
					},
				},
				{
					Name: "TrackFailed",
					Args: []introspect.Arg{
						{Name: "track", Type: "s"},
						{Name: "error", Type: "s"},
					},
				},
			},
		}},
	}
}

// Stop stops the D-Bus server
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.signals = nil
	logger.Infof("🔌 D-Bus service stopped")
}

// GetStatus returns the current track and position (D-Bus method)
func (s *Server) GetStatus() (string, int32, int32, bool, *dbus.Error) {
	st := s.controller.Status()
	return st.Track, int32(st.Index), int32(st.Total), st.Playing, nil
}

// GetStats returns session statistics as JSON (D-Bus method)
func (s *Server) GetStats() (string, *dbus.Error) {
	data, err := s.controller.StatsJSON()
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return data, nil
}

// Skip ends the current track (D-Bus method)
func (s *Server) Skip() (bool, *dbus.Error) {
	logger.Debugf("D-Bus: Skip called")
	return s.controller.Skip(), nil
}

func (s *Server) TrackStarted(track string, index, total int) {
	s.emitSignal("TrackStarted", track)
}

func (s *Server) TrackFinished(track string) {
	s.emitSignal("TrackFinished", track)
}

func (s *Server) TrackFailed(track string, err error) {
	s.emitSignal("TrackFailed", track, err.Error())
}

// emitSignal emits a D-Bus signal
func (s *Server) emitSignal(name string, args ...interface{}) {
	s.mu.Lock()
	conn := s.signals
	s.mu.Unlock()

	if conn == nil {
		logger.Debugf("D-Bus: Cannot emit signal %s - no connection", name)
		return
	}

	signalPath := dbus.ObjectPath(dbusObjectPath)
	signalName := dbusInterface + "." + name

	if err := conn.Emit(signalPath, signalName, args...); err != nil {
		logger.Errorf("D-Bus: Failed to emit signal %s", err, name)
	} else {
		logger.Debugf("D-Bus: Emitted signal: %s", name)
	}
}
