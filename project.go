package voltlane

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPPQ          uint16 = 480
	DefaultSampleRate   uint32 = 48000
	DefaultLinesPerBeat uint16 = 4
)

type (
	// Project is the complete declarative description of a song: tempo, time
	// resolution, sample rate and an ordered list of tracks. Rendering only
	// ever reads a Project; all changes go through the editing layer.
	Project struct {
		ID         uuid.UUID `json:"id" yaml:"id"`
		SessionID  uuid.UUID `json:"session_id" yaml:"session_id"`
		Title      string    `json:"title" yaml:"title"`
		BPM        float64   `json:"bpm" yaml:"bpm"`
		PPQ        uint16    `json:"ppq" yaml:"ppq"`
		SampleRate uint32    `json:"sample_rate" yaml:"sample_rate"`
		Transport  Transport `json:"transport" yaml:"transport"`
		Tracks     []Track   `json:"tracks" yaml:"tracks"`
		CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
		UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
	}

	Transport struct {
		PlayheadTick     uint64 `json:"playhead_tick" yaml:"playhead_tick"`
		LoopEnabled      bool   `json:"loop_enabled" yaml:"loop_enabled"`
		LoopStartTick    uint64 `json:"loop_start_tick" yaml:"loop_start_tick"`
		LoopEndTick      uint64 `json:"loop_end_tick" yaml:"loop_end_tick"`
		MetronomeEnabled bool   `json:"metronome_enabled" yaml:"metronome_enabled"`
		IsPlaying        bool   `json:"is_playing" yaml:"is_playing"`
	}

	// Track is one lane of the arrangement. Bus tracks hold no clips of their
	// own but receive signal from other tracks through OutputBus links and
	// Sends. OutputBus and send targets must name a Bus track other than the
	// track itself, and the resulting graph must stay acyclic.
	Track struct {
		ID      uuid.UUID `json:"id" yaml:"id"`
		Name    string    `json:"name" yaml:"name"`
		Color   string    `json:"color" yaml:"color"`
		Kind    TrackKind `json:"kind" yaml:"kind"`
		Hidden  bool      `json:"hidden" yaml:"hidden"`
		Mute    bool      `json:"mute" yaml:"mute"`
		Solo    bool      `json:"solo" yaml:"solo"`
		Enabled bool      `json:"enabled" yaml:"enabled"`

		GainDB    float32    `json:"gain_db" yaml:"gain_db"`
		Pan       float32    `json:"pan" yaml:"pan"`
		OutputBus *uuid.UUID `json:"output_bus" yaml:"output_bus,omitempty"`
		Sends     []Send     `json:"sends" yaml:"sends,omitempty"`

		Effects []Effect `json:"effects" yaml:"effects,omitempty"`
		Clips   []Clip   `json:"clips" yaml:"clips,omitempty"`
	}

	// Send routes a copy of the track signal, taken before or after the
	// fader, to a bus independently of the track's main output.
	Send struct {
		ID        uuid.UUID `json:"id" yaml:"id"`
		TargetBus uuid.UUID `json:"target_bus" yaml:"target_bus"`
		LevelDB   float32   `json:"level_db" yaml:"level_db"`
		Pan       float32   `json:"pan" yaml:"pan"`
		PreFader  bool      `json:"pre_fader" yaml:"pre_fader"`
		Enabled   bool      `json:"enabled" yaml:"enabled"`
	}

	TrackKind int
)

const (
	MidiTrack TrackKind = iota
	ChipTrack
	AudioTrack
	AutomationTrack
	BusTrack
)

var trackKindNames = [...]string{"midi", "chip", "audio", "automation", "bus"}

func (k TrackKind) String() string {
	if k < 0 || int(k) >= len(trackKindNames) {
		return fmt.Sprintf("TrackKind(%d)", int(k))
	}
	return trackKindNames[k]
}

func (k TrackKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(trackKindNames) {
		return nil, fmt.Errorf("unknown track kind %d", int(k))
	}
	return []byte(trackKindNames[k]), nil
}

func (k *TrackKind) UnmarshalText(text []byte) error {
	for i, name := range trackKindNames {
		if name == string(text) {
			*k = TrackKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown track kind %q", text)
}

// NewProject returns an empty project with fresh ids and default time
// resolution.
func NewProject(title string, bpm float64, sampleRate uint32) Project {
	now := time.Now().UTC()
	return Project{
		ID:         uuid.New(),
		SessionID:  uuid.New(),
		Title:      title,
		BPM:        bpm,
		PPQ:        DefaultPPQ,
		SampleRate: sampleRate,
		Transport:  DefaultTransport(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func DefaultTransport() Transport {
	return Transport{
		LoopEndTick:      uint64(DefaultPPQ) * 4,
		MetronomeEnabled: true,
	}
}

func NewTrack(name, color string, kind TrackKind) Track {
	return Track{
		ID:      uuid.New(),
		Name:    name,
		Color:   color,
		Kind:    kind,
		Enabled: true,
	}
}

func (p *Project) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

func (p *Project) Copy() Project {
	ret := *p
	ret.Tracks = make([]Track, len(p.Tracks))
	for i := range p.Tracks {
		ret.Tracks[i] = p.Tracks[i].Copy()
	}
	return ret
}

func (t *Track) Copy() Track {
	ret := *t
	if t.OutputBus != nil {
		bus := *t.OutputBus
		ret.OutputBus = &bus
	}
	ret.Sends = append([]Send(nil), t.Sends...)
	ret.Effects = make([]Effect, len(t.Effects))
	for i := range t.Effects {
		ret.Effects[i] = t.Effects[i].Copy()
	}
	ret.Clips = make([]Clip, len(t.Clips))
	for i := range t.Clips {
		ret.Clips[i] = t.Clips[i].Copy()
	}
	return ret
}

// Audible reports whether the track takes part in rendering and export.
func (t *Track) Audible() bool {
	return t.Enabled && !t.Mute && !t.Hidden
}

// Track returns the track with the given id, or nil.
func (p *Project) Track(id uuid.UUID) *Track {
	if i := p.TrackIndex(id); i >= 0 {
		return &p.Tracks[i]
	}
	return nil
}

// TrackIndex returns the index of the track with the given id, or -1.
func (p *Project) TrackIndex(id uuid.UUID) int {
	for i := range p.Tracks {
		if p.Tracks[i].ID == id {
			return i
		}
	}
	return -1
}

func (p *Project) ClipCount() int {
	ret := 0
	for _, t := range p.Tracks {
		ret += len(t.Clips)
	}
	return ret
}

func (p *Project) NoteCount() int {
	ret := 0
	for _, t := range p.Tracks {
		for i := range t.Clips {
			ret += t.Clips[i].NoteCount()
		}
	}
	return ret
}

// MaxTick is the latest clip end tick over all tracks, including disabled
// clips and silent tracks.
func (p *Project) MaxTick() uint64 {
	var ret uint64
	for _, t := range p.Tracks {
		for i := range t.Clips {
			if end := t.Clips[i].EndTick(); end > ret {
				ret = end
			}
		}
	}
	return ret
}
