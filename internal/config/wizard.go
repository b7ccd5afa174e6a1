package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dooshek/spectrolight/internal/logger"
	"github.com/dooshek/spectrolight/internal/types"
	"github.com/fatih/color"
)

// RunWizard asks for the LED controller port and baud rate, then saves a
// default configuration using them. ports is the list offered for selection.
func RunWizard(in io.Reader, out io.Writer, ports []string, path string) error {
	cfg, err := runWizard(in, out, ports)
	if err != nil {
		return err
	}
	if err := SaveConfig(cfg, path); err != nil {
		logger.Error("Failed to save configuration", err)
		return err
	}
	color.New(color.FgGreen).Fprintln(out, "\n✅ Configuration saved.")
	return nil
}

func runWizard(in io.Reader, out io.Writer, ports []string) (*types.Config, error) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	reader := bufio.NewReader(in)
	cfg := types.Default()

	bold.Fprintln(out, "\n💡 Welcome to spectrolight setup!")
	fmt.Fprintln(out, "\nThis wizard will set up the serial link to your LED controller.")

	for {
		cyan.Fprintln(out, "\nAvailable serial ports:")
		if len(ports) == 0 {
			fmt.Fprintln(out, "  (none detected)")
		}
		for i, p := range ports {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, p)
		}
		fmt.Fprintf(out, "Port number or path [%s]: ", cfg.Serial.Port)

		answer, err := readAnswer(reader)
		if err != nil {
			return nil, err
		}
		port, ok := pickPort(answer, ports, cfg.Serial.Port)
		if !ok {
			yellow.Fprintf(out, "\n%q is not on the list, try again.\n", answer)
			continue
		}
		cfg.Serial.Port = port
		break
	}

	for {
		fmt.Fprintf(out, "Baud rate [%d]: ", cfg.Serial.BaudRate)
		answer, err := readAnswer(reader)
		if err != nil {
			return nil, err
		}
		if answer == "" {
			break
		}
		baud, err := strconv.Atoi(answer)
		if err != nil || baud <= 0 {
			yellow.Fprintf(out, "\n%q is not a valid baud rate, try again.\n", answer)
			continue
		}
		cfg.Serial.BaudRate = baud
		break
	}

	yellow.Fprint(out, "\nSelected: ")
	fmt.Fprintf(out, "%s @ %d baud\n", cfg.Serial.Port, cfg.Serial.BaudRate)
	return cfg, nil
}

// readAnswer reads one line and strips whitespace and control characters.
func readAnswer(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", fmt.Errorf("setup cancelled")
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, line)
	return strings.TrimSpace(line), nil
}

// pickPort accepts an empty answer (default), a 1-based list index or a path.
func pickPort(answer string, ports []string, def string) (string, bool) {
	if answer == "" {
		return def, true
	}
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(ports) {
			return ports[n-1], true
		}
		return "", false
	}
	return answer, true
}
