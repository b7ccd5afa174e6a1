package sink

import (
	"fmt"

	"github.com/dooshek/spectrolight/internal/logger"
	"github.com/dooshek/spectrolight/internal/types"
	bugserial "go.bug.st/serial"
)

// OpenSerial opens the LED controller port at 8N1 and starts a sink on it.
func OpenSerial(cfg types.SerialConfig) (*Sink, error) {
	mode := &bugserial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   bugserial.NoParity,
		StopBits: bugserial.OneStopBit,
	}

	port, err := bugserial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}

	logger.Infof("Serial port %s open at %d baud", cfg.Port, cfg.BaudRate)
	return New(port, cfg.IsOrdered()), nil
}

// Ports lists the serial ports the OS reports.
func Ports() ([]string, error) {
	ports, err := bugserial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
