package cmd_test

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/voltlane/voltlane/cmd"
	"github.com/voltlane/voltlane/fixtures"
	"github.com/voltlane/voltlane/meter"
	"github.com/voltlane/voltlane/tracker"
)

func TestResolveLogLevel(t *testing.T) {
	t.Setenv(cmd.LogEnv, "")
	if level, err := cmd.ResolveLogLevel(""); err != nil || level != slog.LevelWarn {
		t.Fatalf("default level: got %v (%v), expected %v", level, err, slog.LevelWarn)
	}
	t.Setenv(cmd.LogEnv, "debug")
	if level, err := cmd.ResolveLogLevel(""); err != nil || level != slog.LevelDebug {
		t.Fatalf("env level: got %v (%v), expected %v", level, err, slog.LevelDebug)
	}
	if level, err := cmd.ResolveLogLevel("ERROR"); err != nil || level != slog.LevelError {
		t.Fatalf("flag level: got %v (%v), expected %v", level, err, slog.LevelError)
	}
	if _, err := cmd.ResolveLogLevel("loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestLoadProject(t *testing.T) {
	demo, err := cmd.LoadProject(cmd.DemoArg)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "song.yml")
	if err := tracker.SaveProject(path, &demo); err != nil {
		t.Fatal(err)
	}
	loaded, err := cmd.LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	if loaded.ID != fixtures.Demo().ID {
		t.Fatalf("got project %v, expected %v", loaded.ID, fixtures.Demo().ID)
	}
	if _, err := cmd.LoadProject(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestWriteInfo(t *testing.T) {
	p := fixtures.Demo()
	var b strings.Builder
	if err := cmd.WriteInfo(&b, &p, ""); err != nil {
		t.Fatalf("WriteInfo failed: %v", err)
	}
	out := b.String()
	for _, expected := range []string{"VOLTLANE DEMO", "(9ed0a3fa)", "138 bpm", " 1. Lead", " 2. Chip Bass"} {
		if !strings.Contains(out, expected) {
			t.Fatalf("info output is missing %q:\n%v", expected, out)
		}
	}
	b.Reset()
	if err := cmd.WriteInfo(&b, &p, `{{ len .Tracks }}/{{ .Notes }}`); err != nil {
		t.Fatal(err)
	}
	if b.String() != fmt.Sprintf("2/%d", p.NoteCount()) {
		t.Fatalf("custom template: got %q", b.String())
	}
	if err := cmd.WriteInfo(&b, &p, `{{ .Nope`); err == nil {
		t.Fatal("expected a template parse error")
	}
}

func TestWriteLoudness(t *testing.T) {
	var b strings.Builder
	cmd.WriteLoudness(&b, meter.Result{IntegratedLUFS: -14, TruePeakDB: -1})
	if !strings.Contains(b.String(), "integrated -14.0 LUFS") || !strings.Contains(b.String(), "true peak -1.0 dBTP") {
		t.Fatalf("unexpected loudness output:\n%v", b.String())
	}
}
