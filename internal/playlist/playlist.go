// Package playlist lists and orders the tracks of a directory.
package playlist

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// List returns the playable files directly inside dir, sorted by name.
// A file is playable when its extension is in exts (case-insensitive) and, if
// supports is not nil, supports accepts it. Hidden files and directories are
// skipped.
func List(dir string, exts []string, supports func(ext string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist directory: %w", err)
	}

	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed[e] = true
	}

	var tracks []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if len(allowed) > 0 && !allowed[ext] {
			continue
		}
		if supports != nil && !supports(ext) {
			continue
		}
		tracks = append(tracks, filepath.Join(dir, name))
	}

	sort.Strings(tracks)
	return tracks, nil
}

// Shuffle returns a shuffled copy of tracks. A nil r uses the global source.
func Shuffle(tracks []string, r *rand.Rand) []string {
	out := make([]string, len(tracks))
	copy(out, tracks)

	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if r == nil {
		rand.Shuffle(len(out), swap)
	} else {
		r.Shuffle(len(out), swap)
	}
	return out
}
