package voltlane

import (
	"golang.org/x/text/cases"
)

type (
	// PatternClip is a chip-style clip. Notes are played on the chip backend
	// named by SourceChip and are modulated per tracker row by the macro lanes.
	// Once Rows is non-empty, the editing layer regenerates Notes from Rows.
	PatternClip struct {
		SourceChip   string       `json:"source_chip" yaml:"source_chip"`
		Notes        []MidiNote   `json:"notes" yaml:"notes"`
		Rows         []TrackerRow `json:"rows" yaml:"rows,omitempty"`
		Macros       []MacroLane  `json:"macros" yaml:"macros,omitempty"`
		LinesPerBeat uint16       `json:"lines_per_beat" yaml:"lines_per_beat"`
	}

	// TrackerRow is one entry of the tracker grid. Only gated rows with a note
	// produce sound.
	TrackerRow struct {
		Row         uint32  `json:"row" yaml:"row"`
		Note        *uint8  `json:"note" yaml:"note,omitempty"`
		Velocity    uint8   `json:"velocity" yaml:"velocity"`
		Gate        bool    `json:"gate" yaml:"gate"`
		Effect      *string `json:"effect" yaml:"effect,omitempty"`
		EffectValue *uint16 `json:"effect_value" yaml:"effect_value,omitempty"`
	}

	// MacroLane is a per-row sequence of control values. Without a loop
	// region, steps past the end hold the last value; with one, they cycle
	// inside [LoopStart, LoopEnd].
	MacroLane struct {
		Target    string  `json:"target" yaml:"target"`
		Enabled   bool    `json:"enabled" yaml:"enabled"`
		Values    []int16 `json:"values" yaml:"values,flow"`
		LoopStart *int    `json:"loop_start" yaml:"loop_start,omitempty"`
		LoopEnd   *int    `json:"loop_end" yaml:"loop_end,omitempty"`
	}
)

// Macro lane targets understood by the renderer and the midi exporter.
const (
	MacroArpeggio = "arpeggio"
	MacroEnv      = "env"
	MacroDuty     = "duty"
	MacroNoise    = "noise"
)

// Fold returns s case folded, for case-insensitive comparisons of labels.
func Fold(s string) string {
	return cases.Fold().String(s)
}

func (p *PatternClip) copyPayload() ClipPayload {
	ret := *p
	ret.Notes = append([]MidiNote(nil), p.Notes...)
	ret.Rows = make([]TrackerRow, len(p.Rows))
	for i, r := range p.Rows {
		ret.Rows[i] = r.Copy()
	}
	ret.Macros = make([]MacroLane, len(p.Macros))
	for i, m := range p.Macros {
		ret.Macros[i] = m.Copy()
	}
	return &ret
}

func (r TrackerRow) Copy() TrackerRow {
	if r.Note != nil {
		n := *r.Note
		r.Note = &n
	}
	if r.Effect != nil {
		e := *r.Effect
		r.Effect = &e
	}
	if r.EffectValue != nil {
		v := *r.EffectValue
		r.EffectValue = &v
	}
	return r
}

func (m MacroLane) Copy() MacroLane {
	m.Values = append([]int16(nil), m.Values...)
	if m.LoopStart != nil {
		s := *m.LoopStart
		m.LoopStart = &s
	}
	if m.LoopEnd != nil {
		e := *m.LoopEnd
		m.LoopEnd = &e
	}
	return m
}

// Lane returns the first enabled, non-empty lane whose target matches name
// case-insensitively.
func (p *PatternClip) Lane(name string) *MacroLane {
	folded := Fold(name)
	for i := range p.Macros {
		l := &p.Macros[i]
		if l.Enabled && len(l.Values) > 0 && Fold(l.Target) == folded {
			return l
		}
	}
	return nil
}

// ValueAt returns the lane value for the given row step.
func (m *MacroLane) ValueAt(step int) int16 {
	n := len(m.Values)
	if n == 0 {
		return 0
	}
	if m.LoopStart != nil && m.LoopEnd != nil {
		start, end := *m.LoopStart, *m.LoopEnd
		if start >= 0 && start <= end && end < n {
			if step <= end {
				return m.Values[min(step, n-1)]
			}
			loopLen := end - start + 1
			return m.Values[min(start+(step-start)%loopLen, n-1)]
		}
	}
	return m.Values[min(step, n-1)]
}

// MacroRow is the row index a note starting at startTick falls on. The
// second return value is false when the clip has no tracker resolution.
func (p *PatternClip) MacroRow(startTick uint64, ppq uint16) (int, bool) {
	if p.LinesPerBeat == 0 {
		return 0, false
	}
	ticksPerRow := max(uint64(ppq)/uint64(p.LinesPerBeat), 1)
	return int(startTick / ticksPerRow), true
}

// MacroValue returns the value of the named lane at the row of a note
// starting at startTick.
func (p *PatternClip) MacroValue(name string, startTick uint64, ppq uint16) (int16, bool) {
	lane := p.Lane(name)
	if lane == nil {
		return 0, false
	}
	row, ok := p.MacroRow(startTick, ppq)
	if !ok {
		return 0, false
	}
	return lane.ValueAt(row), true
}

// ApplyMacros returns the note with the arpeggio lane added to its pitch and
// the env lane added to its velocity.
func (p *PatternClip) ApplyMacros(note MidiNote, ppq uint16) MidiNote {
	if offset, ok := p.MacroValue(MacroArpeggio, note.StartTick, ppq); ok {
		note.Pitch = uint8(clampInt(int(note.Pitch)+int(offset), 0, 127))
	}
	if delta, ok := p.MacroValue(MacroEnv, note.StartTick, ppq); ok {
		note.Velocity = uint8(clampInt(int(note.Velocity)+int(delta), 1, 127))
	}
	return note
}

// NotesFromRows converts the tracker grid into notes. A note lasts until the
// next row entry, and the last one until the clip end, but never less than
// one row.
func (p *PatternClip) NotesFromRows(clipLengthTicks uint64, ppq uint16) []MidiNote {
	ticksPerRow := TrackerRowsToTicks(1, p.LinesPerBeat, ppq)
	notes := make([]MidiNote, 0, len(p.Rows))
	for i, r := range p.Rows {
		if !r.Gate || r.Note == nil {
			continue
		}
		start := TrackerRowsToTicks(r.Row, p.LinesPerBeat, ppq)
		end := clipLengthTicks
		if i+1 < len(p.Rows) {
			end = TrackerRowsToTicks(p.Rows[i+1].Row, p.LinesPerBeat, ppq)
		}
		length := ticksPerRow
		if end > start+ticksPerRow {
			length = end - start
		}
		notes = append(notes, MidiNote{
			Pitch:       min(*r.Note, 127),
			Velocity:    min(r.Velocity, 127),
			StartTick:   start,
			LengthTicks: length,
		})
	}
	return notes
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
