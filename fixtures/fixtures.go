// Package fixtures builds deterministic projects for demos, parity reports
// and benchmarks.
package fixtures

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/voltlane/voltlane"
)

var demoTimestamp = time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)

// Demo returns the demo song. All ids and timestamps are fixed so that its
// serialized form and renders are stable across runs.
func Demo() voltlane.Project {
	p := voltlane.NewProject("Voltlane Demo", 138, voltlane.DefaultSampleRate)
	p.ID = uuid.MustParse("9ed0a3fa-4064-458f-b95f-1fdd0bc4f0be")
	p.SessionID = uuid.MustParse("11eb0ce5-cdb7-4f30-bc14-53a3a1e10de3")
	p.CreatedAt = demoTimestamp
	p.UpdatedAt = demoTimestamp

	lead := voltlane.NewTrack("Lead", "#00d1b2", voltlane.MidiTrack)
	lead.ID = uuid.MustParse("a959fd97-0e35-445d-a7e8-fe6d81d49235")
	lead.Clips = append(lead.Clips, voltlane.Clip{
		ID:          uuid.MustParse("fbf41a8f-c5b4-464b-a9f3-6e62eebf6efb"),
		Name:        "Lead phrase",
		LengthTicks: 1920,
		Payload: &voltlane.MidiClip{
			Instrument: "Pulse Lead",
			Notes: []voltlane.MidiNote{
				{Pitch: 72, Velocity: 118, StartTick: 0, LengthTicks: 240},
				{Pitch: 74, Velocity: 118, StartTick: 240, LengthTicks: 240},
				{Pitch: 79, Velocity: 110, StartTick: 480, LengthTicks: 720},
				{Pitch: 81, Velocity: 104, StartTick: 1200, LengthTicks: 720},
			},
		},
	})

	bass := voltlane.NewTrack("Chip Bass", "#f77f00", voltlane.ChipTrack)
	bass.ID = uuid.MustParse("2695613e-3bef-4f17-b44d-c8e753f2268e")
	bass.Clips = append(bass.Clips, voltlane.Clip{
		ID:          uuid.MustParse("0caa5e8d-6ec2-4b74-9e87-d7f60111f3f2"),
		Name:        "Bassline",
		LengthTicks: 1920,
		Payload: &voltlane.PatternClip{
			SourceChip:   "gameboy_apu",
			LinesPerBeat: voltlane.DefaultLinesPerBeat,
			Notes: []voltlane.MidiNote{
				{Pitch: 36, Velocity: 100, StartTick: 0, LengthTicks: 480, Channel: 1},
				{Pitch: 43, Velocity: 95, StartTick: 480, LengthTicks: 480, Channel: 1},
				{Pitch: 41, Velocity: 95, StartTick: 960, LengthTicks: 480, Channel: 1},
				{Pitch: 38, Velocity: 98, StartTick: 1440, LengthTicks: 480, Channel: 1},
			},
		},
	})
	p.Tracks = append(p.Tracks, lead, bass)
	return p
}

// Stress returns a synthetic project of the given size at 140 bpm. Odd tracks
// are chip tracks playing gameboy patterns, even tracks are midi tracks. Each
// clip spans one bar and holds notes placed 40 ticks apart.
func Stress(tracks, clipsPerTrack, notesPerClip int) voltlane.Project {
	p := voltlane.NewProject("Stress", 140, voltlane.DefaultSampleRate)
	for ti := 0; ti < tracks; ti++ {
		chip := ti%2 == 1
		kind := voltlane.MidiTrack
		if chip {
			kind = voltlane.ChipTrack
		}
		t := voltlane.NewTrack(fmt.Sprintf("Track %d", ti+1), "#28c4aa", kind)
		for ci := 0; ci < clipsPerTrack; ci++ {
			notes := make([]voltlane.MidiNote, notesPerClip)
			for ni := range notes {
				notes[ni] = voltlane.MidiNote{
					Pitch:       uint8(48 + (ti+ni)%24),
					Velocity:    96,
					StartTick:   uint64(ni) * 40,
					LengthTicks: 60,
				}
			}
			var payload voltlane.ClipPayload = &voltlane.MidiClip{Instrument: "Stress Synth", Notes: notes}
			if chip {
				payload = &voltlane.PatternClip{
					SourceChip:   "gameboy_apu",
					LinesPerBeat: voltlane.DefaultLinesPerBeat,
					Notes:        notes,
				}
			}
			t.Clips = append(t.Clips, voltlane.Clip{
				ID:          uuid.New(),
				Name:        fmt.Sprintf("clip-%d-%d", ti+1, ci+1),
				StartTick:   uint64(ci) * 1920,
				LengthTicks: 1920,
				Payload:     payload,
			})
		}
		p.Tracks = append(p.Tracks, t)
	}
	return p
}
