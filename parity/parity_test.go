package parity_test

import (
	"path/filepath"
	"testing"

	"github.com/voltlane/voltlane/fixtures"
	"github.com/voltlane/voltlane/parity"
)

func TestDemoReportIsStable(t *testing.T) {
	p := fixtures.Demo()
	a, err := parity.Generate(&p)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	q := fixtures.Demo()
	b, err := parity.Generate(&q)
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if a != b {
		t.Fatalf("reports of the same project differ:\n%+v\n%+v", a, b)
	}
	if a.SchemaVersion != parity.SchemaVersion || a.TrackCount != 2 || a.ClipCount != 2 || a.NoteCount != 8 {
		t.Fatalf("unexpected report counts: %+v", a)
	}
	if a.ProjectID != "9ed0a3fa-4064-458f-b95f-1fdd0bc4f0be" {
		t.Fatalf("project id: got %v", a.ProjectID)
	}
}

func TestReportChangesWithNotes(t *testing.T) {
	p := fixtures.Demo()
	a, err := parity.Generate(&p)
	if err != nil {
		t.Fatal(err)
	}
	notes, _ := p.Tracks[0].Clips[0].Notes()
	(*notes)[0].Pitch++
	b, err := parity.Generate(&p)
	if err != nil {
		t.Fatal(err)
	}
	if a.MIDIHash == b.MIDIHash || a.AudioHash == b.AudioHash || a.ProjectHash == b.ProjectHash {
		t.Fatalf("changing a note should change every hash:\n%+v\n%+v", a, b)
	}
}

func TestReadWrite(t *testing.T) {
	p := fixtures.Demo()
	report, err := parity.Generate(&p)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "reports", "demo.json")
	if err := parity.Write(path, report); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	read, err := parity.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if read != report {
		t.Fatalf("read report: got %+v, expected %+v", read, report)
	}
}
