package tracker

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
	"github.com/voltlane/voltlane"
)

func findClip(p *voltlane.Project, trackID, clipID uuid.UUID) (*voltlane.Clip, error) {
	t, err := findTrack(p, trackID)
	if err != nil {
		return nil, err
	}
	for i := range t.Clips {
		if t.Clips[i].ID == clipID {
			return &t.Clips[i], nil
		}
	}
	return nil, notFound(ErrClipNotFound, "clip %v on track %v", clipID, trackID)
}

// editClip runs fn on the clip inside a change and returns a copy of the
// edited clip.
func (m *Model) editClip(kind string, trackID, clipID uuid.UUID, fn func(p *voltlane.Project, c *voltlane.Clip) error) (voltlane.Clip, error) {
	var ret voltlane.Clip
	err := m.change(kind, func(p *voltlane.Project) error {
		c, err := findClip(p, trackID, clipID)
		if err != nil {
			return err
		}
		if err := fn(p, c); err != nil {
			return err
		}
		ret = c.Copy()
		return nil
	})
	return ret, err
}

// editNotes is editClip for operations on the note list of midi and pattern
// clips.
func (m *Model) editNotes(kind string, trackID, clipID uuid.UUID, fn func(notes *[]voltlane.MidiNote) error) (voltlane.Clip, error) {
	return m.editClip(kind, trackID, clipID, func(_ *voltlane.Project, c *voltlane.Clip) error {
		notes, ok := c.Notes()
		if !ok {
			return invalid(ErrUnsupportedClipPayload, "clip %v", clipID)
		}
		return fn(notes)
	})
}

func sanitizeNote(n voltlane.MidiNote) voltlane.MidiNote {
	n.Pitch = min(n.Pitch, 127)
	n.Velocity = min(n.Velocity, 127)
	n.Channel = min(n.Channel, 15)
	n.LengthTicks = max(n.LengthTicks, 1)
	return n
}

func sortNotes(notes []voltlane.MidiNote) {
	slices.SortStableFunc(notes, func(a, b voltlane.MidiNote) int { return cmp.Compare(a.StartTick, b.StartTick) })
}

// AddClip places a new clip with a copy of payload on the track. Clips are
// at least one tick long.
func (m *Model) AddClip(trackID uuid.UUID, name string, startTick, lengthTicks uint64, payload voltlane.ClipPayload) (voltlane.Clip, error) {
	if payload == nil {
		return voltlane.Clip{}, invalid(ErrUnsupportedClipPayload, "clip %q has no payload", name)
	}
	clip := (&voltlane.Clip{
		ID:          uuid.New(),
		Name:        name,
		StartTick:   startTick,
		LengthTicks: max(lengthTicks, 1),
		Payload:     payload,
	}).Copy()
	err := m.change("AddClip", func(p *voltlane.Project) error {
		t, err := findTrack(p, trackID)
		if err != nil {
			return err
		}
		t.Clips = append(t.Clips, clip.Copy())
		return nil
	})
	return clip, err
}

func (m *Model) MoveClip(trackID, clipID uuid.UUID, startTick, lengthTicks uint64) (voltlane.Clip, error) {
	return m.editClip("MoveClip", trackID, clipID, func(_ *voltlane.Project, c *voltlane.Clip) error {
		c.StartTick = startTick
		c.LengthTicks = max(lengthTicks, 1)
		return nil
	})
}

// UpsertClipNotes replaces all notes of the clip.
func (m *Model) UpsertClipNotes(trackID, clipID uuid.UUID, notes []voltlane.MidiNote) (voltlane.Clip, error) {
	return m.editNotes("UpsertClipNotes", trackID, clipID, func(dst *[]voltlane.MidiNote) error {
		*dst = make([]voltlane.MidiNote, len(notes))
		for i, n := range notes {
			(*dst)[i] = sanitizeNote(n)
		}
		return nil
	})
}

// AddClipNote inserts the note, keeping the notes ordered by start tick.
func (m *Model) AddClipNote(trackID, clipID uuid.UUID, note voltlane.MidiNote) (voltlane.Clip, error) {
	return m.editNotes("AddClipNote", trackID, clipID, func(dst *[]voltlane.MidiNote) error {
		*dst = append(*dst, sanitizeNote(note))
		sortNotes(*dst)
		return nil
	})
}

func (m *Model) RemoveClipNote(trackID, clipID uuid.UUID, index int) (voltlane.Clip, error) {
	return m.editNotes("RemoveClipNote", trackID, clipID, func(dst *[]voltlane.MidiNote) error {
		if index < 0 || index >= len(*dst) {
			return invalid(ErrInvalidNoteIndex, "note index %d of %d", index, len(*dst))
		}
		*dst = slices.Delete(*dst, index, index+1)
		return nil
	})
}

// TransposeClipNotes shifts every note by semitones, clamping to the midi
// pitch range.
func (m *Model) TransposeClipNotes(trackID, clipID uuid.UUID, semitones int) (voltlane.Clip, error) {
	return m.editNotes("TransposeClipNotes", trackID, clipID, func(dst *[]voltlane.MidiNote) error {
		for i := range *dst {
			n := &(*dst)[i]
			n.Pitch = uint8(min(max(int(n.Pitch)+semitones, 0), 127))
		}
		return nil
	})
}

// QuantizeClipNotes rounds note starts and lengths to the nearest multiple of
// gridTicks. Lengths never drop below one grid step.
func (m *Model) QuantizeClipNotes(trackID, clipID uuid.UUID, gridTicks uint64) (voltlane.Clip, error) {
	if gridTicks == 0 {
		return voltlane.Clip{}, invalid(ErrInvalidQuantizeGrid, "grid of %d ticks", gridTicks)
	}
	return m.editNotes("QuantizeClipNotes", trackID, clipID, func(dst *[]voltlane.MidiNote) error {
		for i := range *dst {
			n := &(*dst)[i]
			n.StartTick = roundToGrid(n.StartTick, gridTicks)
			n.LengthTicks = max(roundToGrid(max(n.LengthTicks, 1), gridTicks), gridTicks)
			*n = sanitizeNote(*n)
		}
		sortNotes(*dst)
		return nil
	})
}

func roundToGrid(v, grid uint64) uint64 {
	return (v + grid/2) / grid * grid
}

// UpsertPatternRows replaces the tracker rows of a pattern clip, optionally
// changing its lines per beat. A non-empty row list regenerates the clip's
// notes from the rows; an empty one leaves the notes alone.
func (m *Model) UpsertPatternRows(trackID, clipID uuid.UUID, rows []voltlane.TrackerRow, linesPerBeat *uint16) (voltlane.Clip, error) {
	if linesPerBeat != nil && *linesPerBeat == 0 {
		return voltlane.Clip{}, invalid(ErrInvalidTrackerLinesPerBeat, "lines per beat %d", *linesPerBeat)
	}
	return m.editClip("UpsertPatternRows", trackID, clipID, func(p *voltlane.Project, c *voltlane.Clip) error {
		pattern, ok := c.Payload.(*voltlane.PatternClip)
		if !ok {
			return invalid(ErrUnsupportedPatternClip, "clip %v", clipID)
		}
		if linesPerBeat != nil {
			pattern.LinesPerBeat = *linesPerBeat
		}
		if pattern.LinesPerBeat == 0 {
			pattern.LinesPerBeat = voltlane.DefaultLinesPerBeat
		}
		pattern.Rows = make([]voltlane.TrackerRow, len(rows))
		for i, r := range rows {
			pattern.Rows[i] = r.Copy()
		}
		slices.SortStableFunc(pattern.Rows, func(a, b voltlane.TrackerRow) int { return cmp.Compare(a.Row, b.Row) })
		if len(pattern.Rows) > 0 {
			pattern.Notes = pattern.NotesFromRows(c.LengthTicks, p.PPQ)
		}
		return nil
	})
}
