package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/dooshek/spectrolight/internal/spectrum"
	"github.com/fatih/color"
)

// Console renders each message as a row of coloured bars instead of sending
// it to hardware. It is what --dry-run writes to.
type Console struct {
	out   io.Writer
	width int
}

// NewConsole writes bar rows to out. width is the bar length for intensity 9;
// higher values are capped at that length.
func NewConsole(out io.Writer, width int) *Console {
	if width < 1 {
		width = 9
	}
	return &Console{out: out, width: width}
}

var barColors = []*color.Color{
	color.New(color.FgRed),
	color.New(color.FgYellow),
	color.New(color.FgGreen),
	color.New(color.FgCyan),
	color.New(color.FgBlue),
	color.New(color.FgMagenta),
}

// Write renders one message. Malformed input is printed verbatim.
func (c *Console) Write(p []byte) (int, error) {
	levels, ok := spectrum.Decode(p)
	if !ok {
		if _, err := fmt.Fprintf(c.out, "%s\n", p); err != nil {
			return 0, err
		}
		return len(p), nil
	}

	var b strings.Builder
	for i, level := range levels {
		n := min(level, 9) * c.width / 9
		bar := strings.Repeat("#", n) + strings.Repeat(".", c.width-n)
		b.WriteString(barColors[i%len(barColors)].Sprintf("%02d %s", level, bar))
		b.WriteByte(' ')
	}
	b.WriteByte('\n')

	if _, err := io.WriteString(c.out, b.String()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *Console) Close() error { return nil }
