// Package parity fingerprints a project so that two builds of the engine can
// be compared for identical output.
package parity

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/export"
	"github.com/voltlane/voltlane/render"
)

const (
	SchemaVersion = 1
	// AudioFrames is the number of leading frames that go into the audio
	// fingerprint.
	AudioFrames = 96000
)

type Report struct {
	SchemaVersion int    `json:"schema_version"`
	ProjectID     string `json:"project_id"`
	TrackCount    int    `json:"track_count"`
	ClipCount     int    `json:"clip_count"`
	NoteCount     int    `json:"note_count"`
	ProjectHash   string `json:"project_hash"`
	MIDIHash      string `json:"midi_hash"`
	AudioHash     string `json:"audio_hash"`
}

// Generate renders the project and hashes its json form, its midi export and
// the first AudioFrames frames quantized to 16 bits.
func Generate(p *voltlane.Project, opts ...render.Option) (Report, error) {
	projectJSON, err := json.Marshal(p)
	if err != nil {
		return Report{}, fmt.Errorf("could not serialize project: %w", err)
	}
	midiBytes, err := export.MIDI(p)
	if err != nil {
		return Report{}, err
	}
	samples := render.Render(p, export.TailSeconds, opts...)
	samples = samples[:min(len(samples), AudioFrames)]
	pcm := make([]int16, len(samples))
	for i, v := range samples {
		pcm[i] = voltlane.QuantizePCM16(v)
	}
	var audio bytes.Buffer
	if err := binary.Write(&audio, binary.LittleEndian, pcm); err != nil {
		return Report{}, fmt.Errorf("could not encode audio fingerprint: %w", err)
	}
	return Report{
		SchemaVersion: SchemaVersion,
		ProjectID:     p.ID.String(),
		TrackCount:    len(p.Tracks),
		ClipCount:     p.ClipCount(),
		NoteCount:     p.NoteCount(),
		ProjectHash:   hashHex(projectJSON),
		MIDIHash:      hashHex(midiBytes),
		AudioHash:     hashHex(audio.Bytes()),
	}, nil
}

func Read(path string) (Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("could not read parity report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		return Report{}, fmt.Errorf("could not parse parity report json: %w", err)
	}
	return r, nil
}

func Write(path string, r Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create parity directory: %w", err)
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode parity report json: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("could not write parity report: %w", err)
	}
	return nil
}

func hashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
