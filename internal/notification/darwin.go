package notification

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/dooshek/spectrolight/internal/logger"
)

type darwinNotifier struct{}

func newDarwinNotifier() platformNotifier {
	return &darwinNotifier{}
}

func (n *darwinNotifier) send(title, message string) error {
	logger.Debugf("Sending macOS notification: %s - %s", title, message)
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(message), escapeAppleScript(title))
	go func() {
		if err := exec.Command("osascript", "-e", script).Run(); err != nil {
			logger.Errorf("Failed to send macOS notification", err)
		}
	}()
	return nil
}

func escapeAppleScript(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
