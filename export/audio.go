// Package export writes rendered projects to wav, mp3, per track stems and
// standard midi files.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/render"
)

// TailSeconds is the silence rendered after the last clip of an export.
const TailSeconds = 1.0

// WAV renders the project and writes it to w as a stereo 16-bit wave file.
func WAV(p *voltlane.Project, w io.Writer, opts ...render.Option) error {
	buf := render.Render(p, TailSeconds, opts...)
	data, err := voltlane.Wav(buf, render.SampleRate(p), true)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("could not write wav data: %w", err)
	}
	return nil
}

// WriteWAVFile is WAV into a file, creating parent directories as needed.
func WriteWAVFile(p *voltlane.Project, path string, opts ...render.Option) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create wav output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create wav file: %w", err)
	}
	if err := WAV(p, f, opts...); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close wav file: %w", err)
	}
	slog.Debug("wav export completed", "path", path, "project", p.ID)
	return nil
}

// MP3 renders a temporary wav and encodes it to path with the ffmpeg binary.
// An empty ffmpeg path means "ffmpeg" from PATH.
func MP3(ctx context.Context, p *voltlane.Project, path, ffmpeg string, opts ...render.Option) error {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create mp3 output directory: %w", err)
	}
	tmp, err := os.MkdirTemp("", "voltlane-export-")
	if err != nil {
		return fmt.Errorf("could not create temporary export directory: %w", err)
	}
	defer os.RemoveAll(tmp)
	wav := filepath.Join(tmp, "voltlane_export.wav")
	if err := WriteWAVFile(p, wav, opts...); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, ffmpeg,
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", wav,
		"-codec:a", "libmp3lame", "-qscale:a", "2",
		path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg failed while exporting mp3: %w: %s", err, strings.TrimSpace(string(out)))
	}
	slog.Debug("mp3 export completed", "path", path, "project", p.ID)
	return nil
}

// Stems writes one wav per audible track into dir, named after the track's
// 1-based position. Each stem is rendered from a copy of the project that
// holds only that track, so bus routing does not apply.
func Stems(p *voltlane.Project, dir string, opts ...render.Option) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create stem output directory: %w", err)
	}
	var ret []string
	for i := range p.Tracks {
		t := &p.Tracks[i]
		if !t.Audible() {
			slog.Debug("skipping silent track for stem export", "track", t.ID, "name", t.Name)
			continue
		}
		stem := *p
		stem.Tracks = []voltlane.Track{t.Copy()}
		path := filepath.Join(dir, StemFileName(i, t.Name))
		if err := WriteWAVFile(&stem, path, opts...); err != nil {
			return ret, err
		}
		ret = append(ret, path)
	}
	slog.Info("stem export completed", "stems", len(ret), "dir", dir)
	return ret, nil
}

// StemFileName is the file name of the stem of the track at index.
func StemFileName(index int, name string) string {
	return fmt.Sprintf("%02d_%s.wav", index+1, sanitizeStemName(name))
}

func sanitizeStemName(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
			underscore = false
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '_' || r == '-':
			if !underscore {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	ret := strings.Trim(b.String(), "_")
	if ret == "" {
		return "track"
	}
	return ret
}
