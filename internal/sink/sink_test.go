package sink

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
)

type fakePort struct {
	mu     sync.Mutex
	writes []string
	failOn int // fail the n-th write (1-based); 0 never fails
	closed bool
}

func (f *fakePort) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn > 0 && len(f.writes)+1 == f.failOn {
		return 0, errors.New("device unplugged")
	}
	f.writes = append(f.writes, string(p))
	return len(p), nil
}

func (f *fakePort) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePort) got() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

func msg(seq int) []byte { return []byte(fmt.Sprintf("{%02d}", seq%100)) }

func TestOrderedSinkReleasesInSequence(t *testing.T) {
	t.Parallel()

	port := &fakePort{}
	s := New(port, true)

	const n = 200
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seq := n - 1 - w; seq >= 0; seq -= 8 {
				if err := s.Emit(uint64(seq), msg(seq)); err != nil {
					t.Errorf("Emit(%d) = %v", seq, err)
				}
			}
		}()
	}
	wg.Wait()

	if err := s.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	got := port.got()
	if len(got) != n {
		t.Fatalf("wrote %d messages, want %d", len(got), n)
	}
	for i, w := range got {
		if w != string(msg(i)) {
			t.Fatalf("write %d = %q, want %q", i, w, msg(i))
		}
	}
	if !port.closed {
		t.Error("port not closed")
	}
}

func TestOrderedSinkSkipsDroppedSequences(t *testing.T) {
	t.Parallel()

	port := &fakePort{}
	s := New(port, true)

	s.Skip(1)
	for _, seq := range []int{3, 0, 2} {
		if err := s.Emit(uint64(seq), msg(seq)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}

	want := []string{"{00}", "{02}", "{03}"}
	if got := port.got(); strings.Join(got, "") != strings.Join(want, "") {
		t.Errorf("writes = %v, want %v", got, want)
	}
	if st := s.Stats(); st.Skipped != 1 || st.Messages != 3 {
		t.Errorf("Stats() = %+v", st)
	}
	_ = s.Close()
}

func TestResetRestartsNumbering(t *testing.T) {
	t.Parallel()

	port := &fakePort{}
	s := New(port, true)

	_ = s.Emit(0, []byte("a0"))
	_ = s.Emit(2, []byte("a2")) // gap at 1 is flushed by Reset
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	_ = s.Emit(1, []byte("b1"))
	_ = s.Emit(0, []byte("b0"))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	want := "a0 a2 b0 b1"
	if got := strings.Join(port.got(), " "); got != want {
		t.Errorf("writes = %q, want %q", got, want)
	}
}

func TestUnorderedSinkWritesEveryMessageOnce(t *testing.T) {
	t.Parallel()

	port := &fakePort{}
	s := New(port, false)

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				_ = s.Emit(uint64(w*50+i), []byte(fmt.Sprintf("%d", w*50+i)))
			}
		}()
	}
	wg.Wait()
	_ = s.Close()

	seen := make(map[string]bool)
	for _, w := range port.got() {
		if seen[w] {
			t.Errorf("message %q written twice", w)
		}
		seen[w] = true
	}
	if len(seen) != 200 {
		t.Errorf("wrote %d distinct messages, want 200", len(seen))
	}
}

func TestSinkWriteFailure(t *testing.T) {
	t.Parallel()

	port := &fakePort{failOn: 3}
	s := New(port, true)

	for seq := range 10 {
		if err := s.Emit(uint64(seq), msg(seq)); err != nil {
			break
		}
	}
	<-s.Failed()

	if err := s.Emit(99, msg(99)); err == nil {
		t.Error("Emit() after failure returned nil")
	}
	if err := s.Close(); err == nil || !strings.Contains(err.Error(), "device unplugged") {
		t.Errorf("Close() = %v, want write error", err)
	}
	if got := port.got(); len(got) != 2 {
		t.Errorf("wrote %d messages before failing, want 2", len(got))
	}
}

func TestEmitAfterClose(t *testing.T) {
	t.Parallel()

	s := New(&fakePort{}, true)
	_ = s.Close()
	if err := s.Emit(0, msg(0)); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("Emit() = %v, want ErrSinkClosed", err)
	}
	if err := s.Reset(); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("Reset() = %v, want ErrSinkClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestConsoleRendersBars(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf, 9)

	if _, err := c.Write([]byte("{09000399}")); err != nil {
		t.Fatal(err)
	}
	out := ansi.ReplaceAllString(buf.String(), "")
	for _, want := range []string{"09 #########", "00 .........", "03 ###......", "99 #########"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}

	buf.Reset()
	if _, err := c.Write([]byte("garbage")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "garbage\n" {
		t.Errorf("malformed message rendered as %q", buf.String())
	}
}
