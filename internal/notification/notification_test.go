package notification

import (
	"errors"
	"testing"
)

type capture struct {
	sent []string
}

func (c *capture) send(title, message string) error {
	c.sent = append(c.sent, title+": "+message)
	return nil
}

func TestTrackNotifications(t *testing.T) {
	t.Parallel()

	c := &capture{}
	n := &baseNotifier{platform: c}

	n.TrackStarted("/music/daft_punk-around_the_world.mp3", 1, 3)
	n.TrackFinished("/music/daft_punk-around_the_world.mp3")
	n.TrackStarted("single.wav", 0, 1)
	n.TrackFailed("broken.ogg", errors.New("bad header"))

	want := []string{
		"spectrolight: Now playing (2/3): daft punk around the world",
		"spectrolight: Now playing: single",
		"spectrolight: Could not play broken: bad header",
	}
	if len(c.sent) != len(want) {
		t.Fatalf("sent %v, want %v", c.sent, want)
	}
	for i := range want {
		if c.sent[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, c.sent[i], want[i])
		}
	}
}

func TestEscapeAppleScript(t *testing.T) {
	t.Parallel()

	if got := escapeAppleScript(`say "hi" \ bye`); got != `say \"hi\" \\ bye` {
		t.Errorf("escapeAppleScript() = %q", got)
	}
}
