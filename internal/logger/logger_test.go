package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"info", LevelInfo, true},
		{"warn", LevelWarn, true},
		{"error", LevelError, true},
		{"verbose", LevelInfo, false},
		{"", LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSetLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	defer SetLevel("info")

	SetLevel("warn")
	if GetCurrentLevel() != LevelWarn {
		t.Fatalf("GetCurrentLevel() = %v, want WARN", GetCurrentLevel())
	}

	Info("hidden message")
	Warn("visible message")
	Error("failure message", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "visible message") {
		t.Errorf("warn message missing: %q", out)
	}
	if !strings.Contains(out, "boom") {
		t.Errorf("error field missing: %q", out)
	}
}

func TestWithAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	l := With("worker")
	l.Info().Int("id", 3).Msg("started")

	out := buf.String()
	if !strings.Contains(out, "worker") || !strings.Contains(out, "started") {
		t.Errorf("component log line = %q", out)
	}
}

func TestSetOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "spectrolight.log")
	if err := SetOutputFile(path); err != nil {
		t.Fatalf("SetOutputFile() error = %v", err)
	}
	Info("written to file")
	CloseLogFile()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file content = %q", data)
	}
}
