package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// AudioExtensions lists the file extensions Scan picks up, without dots.
// Each of them can be decoded by Decode.
var AudioExtensions = []string{"wav", "flac", "mp3", "ogg"}

type Entry struct {
	Path      string `json:"path"`
	Extension string `json:"extension"`
	SizeBytes uint64 `json:"size_bytes"`
}

// Scan walks dir recursively and returns the audio files in it sorted by
// path. A missing dir is created and scans as empty.
func Scan(dir string) ([]Entry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create asset directory %v: %w", dir, err)
	}
	known := map[string]bool{}
	for _, ext := range AudioExtensions {
		known[ext] = true
	}
	var ret []Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if !known[ext] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		ret = append(ret, Entry{Path: path, Extension: ext, SizeBytes: uint64(info.Size())})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not scan %v: %w", dir, err)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Path < ret[j].Path })
	return ret, nil
}
