package tracker

import (
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/fx"
)

const (
	minGainDB = -96
	maxGainDB = 12
)

type (
	// TrackStatePatch changes the fields whose pointers are non-nil.
	TrackStatePatch struct {
		Name    *string
		Color   *string
		Hidden  *bool
		Mute    *bool
		Solo    *bool
		Enabled *bool
	}

	// TrackMixPatch changes gain and pan when set. When SetOutputBus is true,
	// OutputBus replaces the output bus; nil routes the track to master.
	TrackMixPatch struct {
		GainDB       *float32
		Pan          *float32
		SetOutputBus bool
		OutputBus    *uuid.UUID
	}
)

func findTrack(p *voltlane.Project, id uuid.UUID) (*voltlane.Track, error) {
	i := p.TrackIndex(id)
	if i < 0 {
		return nil, notFound(ErrTrackNotFound, "track %v", id)
	}
	return &p.Tracks[i], nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// clampGain and clampPan reject non-finite values; finite values are
// clamped into range.
func clampGain(db float32, what string) (float32, error) {
	if !finite(float64(db)) {
		return 0, invalid(ErrNonFiniteValue, "%s %v", what, db)
	}
	return min(max(db, minGainDB), maxGainDB), nil
}

func clampPan(pan float32, what string) (float32, error) {
	if !finite(float64(pan)) {
		return 0, invalid(ErrNonFiniteValue, "%s %v", what, pan)
	}
	return min(max(pan, -1), 1), nil
}

func (m *Model) AddTrack(name, color string, kind voltlane.TrackKind) (voltlane.Track, error) {
	t := voltlane.NewTrack(name, color, kind)
	err := m.change("AddTrack", func(p *voltlane.Project) error {
		p.Tracks = append(p.Tracks, t)
		return nil
	})
	if err != nil {
		return voltlane.Track{}, err
	}
	return t.Copy(), nil
}

// RemoveTrack deletes the track. Tracks that were routed to it fall back to
// master and their sends to it are dropped.
func (m *Model) RemoveTrack(id uuid.UUID) error {
	return m.change("RemoveTrack", func(p *voltlane.Project) error {
		i := p.TrackIndex(id)
		if i < 0 {
			return notFound(ErrTrackNotFound, "track %v", id)
		}
		p.Tracks = slices.Delete(p.Tracks, i, i+1)
		for j := range p.Tracks {
			t := &p.Tracks[j]
			if t.OutputBus != nil && *t.OutputBus == id {
				t.OutputBus = nil
			}
			t.Sends = slices.DeleteFunc(t.Sends, func(s voltlane.Send) bool { return s.TargetBus == id })
		}
		return nil
	})
}

func (m *Model) ReorderTrack(from, to int) error {
	n := len(m.project.Tracks)
	if from < 0 || to < 0 || from >= n || to >= n {
		return invalid(ErrInvalidReorder, "reorder from %d to %d", from, to)
	}
	if from == to {
		return nil
	}
	return m.change("ReorderTrack", func(p *voltlane.Project) error {
		t := p.Tracks[from]
		p.Tracks = slices.Insert(slices.Delete(p.Tracks, from, from+1), to, t)
		return nil
	})
}

func (m *Model) PatchTrackState(id uuid.UUID, patch TrackStatePatch) (voltlane.Track, error) {
	var ret voltlane.Track
	err := m.change("PatchTrackState", func(p *voltlane.Project) error {
		t, err := findTrack(p, id)
		if err != nil {
			return err
		}
		setIf(&t.Name, patch.Name)
		setIf(&t.Color, patch.Color)
		setIf(&t.Hidden, patch.Hidden)
		setIf(&t.Mute, patch.Mute)
		setIf(&t.Solo, patch.Solo)
		setIf(&t.Enabled, patch.Enabled)
		ret = t.Copy()
		return nil
	})
	return ret, err
}

func (m *Model) PatchTrackMix(id uuid.UUID, patch TrackMixPatch) (voltlane.Track, error) {
	var ret voltlane.Track
	err := m.change("PatchTrackMix", func(p *voltlane.Project) error {
		t, err := findTrack(p, id)
		if err != nil {
			return err
		}
		if patch.GainDB != nil {
			if t.GainDB, err = clampGain(*patch.GainDB, "track gain"); err != nil {
				return err
			}
		}
		if patch.Pan != nil {
			if t.Pan, err = clampPan(*patch.Pan, "track pan"); err != nil {
				return err
			}
		}
		if patch.SetOutputBus {
			t.OutputBus = nil
			if patch.OutputBus != nil {
				bus := *patch.OutputBus
				t.OutputBus = &bus
			}
		}
		ret = t.Copy()
		return nil
	})
	return ret, err
}

// UpsertSend replaces the send with the same id, or appends it.
func (m *Model) UpsertSend(trackID uuid.UUID, send voltlane.Send) (voltlane.Track, error) {
	if send.ID == uuid.Nil {
		send.ID = uuid.New()
	}
	var err error
	if send.LevelDB, err = clampGain(send.LevelDB, "send level"); err != nil {
		return voltlane.Track{}, err
	}
	if send.Pan, err = clampPan(send.Pan, "send pan"); err != nil {
		return voltlane.Track{}, err
	}
	var ret voltlane.Track
	err = m.change("UpsertSend", func(p *voltlane.Project) error {
		t, err := findTrack(p, trackID)
		if err != nil {
			return err
		}
		if i := slices.IndexFunc(t.Sends, func(s voltlane.Send) bool { return s.ID == send.ID }); i >= 0 {
			t.Sends[i] = send
		} else {
			t.Sends = append(t.Sends, send)
		}
		ret = t.Copy()
		return nil
	})
	return ret, err
}

func (m *Model) RemoveSend(trackID, sendID uuid.UUID) (voltlane.Track, error) {
	var ret voltlane.Track
	err := m.change("RemoveSend", func(p *voltlane.Project) error {
		t, err := findTrack(p, trackID)
		if err != nil {
			return err
		}
		i := slices.IndexFunc(t.Sends, func(s voltlane.Send) bool { return s.ID == sendID })
		if i < 0 {
			return notFound(ErrSendNotFound, "send %v on track %v", sendID, trackID)
		}
		t.Sends = slices.Delete(t.Sends, i, i+1)
		ret = t.Copy()
		return nil
	})
	return ret, err
}

// AddEffect appends the effect to the track's chain. Parameters of built-in
// effects that are not set get their defaults.
func (m *Model) AddEffect(trackID uuid.UUID, e voltlane.Effect) (voltlane.Effect, error) {
	e = e.Copy()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Params == nil {
		e.Params = map[string]float32{}
	}
	for name, v := range fx.DefaultParams(e.Kind()) {
		if _, ok := e.Params[name]; !ok {
			e.Params[name] = v
		}
	}
	err := m.change("AddEffect", func(p *voltlane.Project) error {
		t, err := findTrack(p, trackID)
		if err != nil {
			return err
		}
		t.Effects = append(t.Effects, e.Copy())
		return nil
	})
	return e, err
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
