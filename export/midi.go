package export

import (
	"bytes"
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/voltlane/voltlane"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const minMIDITempo = 10

type midiEvent struct {
	tick uint64
	off  bool
	msg  midi.Message
}

// MIDI encodes the audible tracks of the project as a format 1 standard midi
// file at the project resolution. The first track carries tempo and meter.
// Pattern clips are exported with their macros applied.
func MIDI(p *voltlane.Project) ([]byte, error) {
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(max(p.PPQ, 1))
	var tempo smf.Track
	tempo.Add(0, smf.MetaTempo(max(p.BPM, minMIDITempo)))
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		return nil, fmt.Errorf("could not add midi tempo track: %w", err)
	}
	for i := range p.Tracks {
		t := &p.Tracks[i]
		if !t.Audible() {
			continue
		}
		events := trackEvents(t, p.PPQ)
		if len(events) == 0 {
			continue
		}
		var tr smf.Track
		tr.Add(0, midi.ProgramChange(0, uint8(i%128)))
		var prev uint64
		for _, e := range events {
			tr.Add(uint32(min(e.tick-prev, uint64(^uint32(0)))), e.msg)
			prev = e.tick
		}
		tr.Close(0)
		if err := sm.Add(tr); err != nil {
			return nil, fmt.Errorf("could not add midi track %v: %w", t.Name, err)
		}
	}
	var buf bytes.Buffer
	if _, err := sm.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("could not encode midi: %w", err)
	}
	return buf.Bytes(), nil
}

// trackEvents returns the note on and off events of the track sorted by
// tick, with note offs first at equal ticks.
func trackEvents(t *voltlane.Track, ppq uint16) []midiEvent {
	var ret []midiEvent
	add := func(start uint64, n voltlane.MidiNote) {
		ch, key, vel := min(n.Channel, 15), min(n.Pitch, 127), min(n.Velocity, 127)
		ret = append(ret,
			midiEvent{tick: start + n.StartTick, msg: midi.NoteOn(ch, key, vel)},
			midiEvent{tick: start + n.EndTick(), off: true, msg: midi.NoteOff(ch, key)},
		)
	}
	for i := range t.Clips {
		c := &t.Clips[i]
		if c.Disabled {
			continue
		}
		switch payload := c.Payload.(type) {
		case *voltlane.MidiClip:
			for _, n := range payload.Notes {
				add(c.StartTick, n)
			}
		case *voltlane.PatternClip:
			for _, n := range payload.Notes {
				add(c.StartTick, payload.ApplyMacros(n, ppq))
			}
		}
	}
	slices.SortStableFunc(ret, func(a, b midiEvent) int {
		if c := cmp.Compare(a.tick, b.tick); c != 0 {
			return c
		}
		switch {
		case a.off == b.off:
			return 0
		case a.off:
			return -1
		}
		return 1
	})
	return ret
}

// WriteMIDIFile is MIDI into a file, creating parent directories as needed.
func WriteMIDIFile(p *voltlane.Project, path string) error {
	data, err := MIDI(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create midi output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not write midi file: %w", err)
	}
	return nil
}
