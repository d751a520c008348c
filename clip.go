package voltlane

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type (
	// Clip places a payload on a track's timeline. Ticks are relative to the
	// project start; note ticks inside the payload are relative to the clip
	// start.
	Clip struct {
		ID          uuid.UUID   `json:"id" yaml:"id"`
		Name        string      `json:"name" yaml:"name"`
		StartTick   uint64      `json:"start_tick" yaml:"start_tick"`
		LengthTicks uint64      `json:"length_ticks" yaml:"length_ticks"`
		Disabled    bool        `json:"disabled" yaml:"disabled"`
		Payload     ClipPayload `json:"-" yaml:"-"`
	}

	// ClipPayload is one of *MidiClip, *PatternClip, *AudioClip or
	// *AutomationClip. The set is closed; consumers switch over it.
	ClipPayload interface {
		copyPayload() ClipPayload
	}

	MidiClip struct {
		Instrument string     `json:"instrument,omitempty" yaml:"instrument,omitempty"`
		Notes      []MidiNote `json:"notes" yaml:"notes"`
	}

	AudioClip struct {
		SourcePath            string         `json:"source_path" yaml:"source_path"`
		GainDB                float32        `json:"gain_db" yaml:"gain_db"`
		Pan                   float32        `json:"pan" yaml:"pan"`
		SourceSampleRate      uint32         `json:"source_sample_rate" yaml:"source_sample_rate"`
		SourceChannels        uint16         `json:"source_channels" yaml:"source_channels"`
		SourceDurationSeconds float64        `json:"source_duration_seconds" yaml:"source_duration_seconds"`
		TrimStartSeconds      float64        `json:"trim_start_seconds" yaml:"trim_start_seconds"`
		TrimEndSeconds        float64        `json:"trim_end_seconds" yaml:"trim_end_seconds"`
		FadeInSeconds         float64        `json:"fade_in_seconds" yaml:"fade_in_seconds"`
		FadeOutSeconds        float64        `json:"fade_out_seconds" yaml:"fade_out_seconds"`
		Reverse               bool           `json:"reverse" yaml:"reverse"`
		StretchRatio          float64        `json:"stretch_ratio" yaml:"stretch_ratio"`
		Waveform              *WaveformPeaks `json:"waveform,omitempty" yaml:"waveform,omitempty"`
		WaveformCachePath     string         `json:"waveform_cache_path,omitempty" yaml:"waveform_cache_path,omitempty"`
	}

	AutomationClip struct {
		TargetParameterID string            `json:"target_parameter_id" yaml:"target_parameter_id"`
		Points            []AutomationPoint `json:"points" yaml:"points"`
	}

	AutomationPoint struct {
		Tick  uint64  `json:"tick" yaml:"tick"`
		Value float32 `json:"value" yaml:"value"`
	}

	MidiNote struct {
		Pitch       uint8  `json:"pitch" yaml:"pitch"`
		Velocity    uint8  `json:"velocity" yaml:"velocity"`
		StartTick   uint64 `json:"start_tick" yaml:"start_tick"`
		LengthTicks uint64 `json:"length_ticks" yaml:"length_ticks"`
		Channel     uint8  `json:"channel" yaml:"channel"`
	}

	// WaveformPeaks holds the maximum absolute amplitude of each bucket of
	// BucketSize source frames.
	WaveformPeaks struct {
		BucketSize int       `json:"bucket_size" yaml:"bucket_size"`
		Peaks      []float32 `json:"peaks" yaml:"peaks,flow"`
	}

	// DecodedAudio is a source file mixed down to mono.
	DecodedAudio struct {
		SampleRate uint32    `json:"sample_rate"`
		Channels   uint16    `json:"channels"`
		Samples    []float32 `json:"samples"`
	}
)

func (n MidiNote) EndTick() uint64 {
	return saturatingAdd(n.StartTick, n.LengthTicks)
}

func (c *Clip) EndTick() uint64 {
	return saturatingAdd(c.StartTick, c.LengthTicks)
}

func (c *Clip) NoteCount() int {
	switch p := c.Payload.(type) {
	case *MidiClip:
		return len(p.Notes)
	case *PatternClip:
		return len(p.Notes)
	}
	return 0
}

// Notes returns the editable note list of a midi or pattern clip.
func (c *Clip) Notes() (*[]MidiNote, bool) {
	switch p := c.Payload.(type) {
	case *MidiClip:
		return &p.Notes, true
	case *PatternClip:
		return &p.Notes, true
	}
	return nil, false
}

func (c *Clip) Copy() Clip {
	ret := *c
	if c.Payload != nil {
		ret.Payload = c.Payload.copyPayload()
	}
	return ret
}

func (m *MidiClip) copyPayload() ClipPayload {
	ret := *m
	ret.Notes = append([]MidiNote(nil), m.Notes...)
	return &ret
}

func (a *AudioClip) copyPayload() ClipPayload {
	ret := *a
	if a.Waveform != nil {
		w := *a.Waveform
		w.Peaks = append([]float32(nil), a.Waveform.Peaks...)
		ret.Waveform = &w
	}
	return &ret
}

func (a *AutomationClip) copyPayload() ClipPayload {
	ret := *a
	ret.Points = append([]AutomationPoint(nil), a.Points...)
	return &ret
}

// EffectiveDurationSeconds is the length of the trimmed source window at a
// stretch ratio of one.
func (a *AudioClip) EffectiveDurationSeconds() float64 {
	return math.Max(a.TrimEndSeconds-a.TrimStartSeconds, 0)
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// payloadEnvelope is the externally tagged wire form of a ClipPayload.
type payloadEnvelope struct {
	Midi       *MidiClip       `json:"midi,omitempty" yaml:"midi,omitempty"`
	Pattern    *PatternClip    `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Audio      *AudioClip      `json:"audio,omitempty" yaml:"audio,omitempty"`
	Automation *AutomationClip `json:"automation,omitempty" yaml:"automation,omitempty"`
}

type clipFields Clip

type clipDocument struct {
	clipFields `yaml:",inline"`
	Payload    payloadEnvelope `json:"payload" yaml:"payload"`
}

var (
	errMissingPayload   = errors.New("clip has no payload")
	errMultiplePayloads = errors.New("clip has more than one payload variant")
)

func wrapPayload(p ClipPayload) payloadEnvelope {
	var e payloadEnvelope
	switch v := p.(type) {
	case *MidiClip:
		e.Midi = v
	case *PatternClip:
		e.Pattern = v
	case *AudioClip:
		e.Audio = v
	case *AutomationClip:
		e.Automation = v
	}
	return e
}

func (e payloadEnvelope) unwrap() (ClipPayload, error) {
	var ret ClipPayload
	count := 0
	if e.Midi != nil {
		ret, count = e.Midi, count+1
	}
	if e.Pattern != nil {
		ret, count = e.Pattern, count+1
	}
	if e.Audio != nil {
		ret, count = e.Audio, count+1
	}
	if e.Automation != nil {
		ret, count = e.Automation, count+1
	}
	switch count {
	case 0:
		return nil, errMissingPayload
	case 1:
		return ret, nil
	}
	return nil, errMultiplePayloads
}

func (c Clip) MarshalJSON() ([]byte, error) {
	return json.Marshal(clipDocument{clipFields: clipFields(c), Payload: wrapPayload(c.Payload)})
}

func (c *Clip) UnmarshalJSON(b []byte) error {
	var doc clipDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	return c.fromDocument(doc)
}

func (c Clip) MarshalYAML() (interface{}, error) {
	return clipDocument{clipFields: clipFields(c), Payload: wrapPayload(c.Payload)}, nil
}

func (c *Clip) UnmarshalYAML(value *yaml.Node) error {
	var doc clipDocument
	if err := value.Decode(&doc); err != nil {
		return err
	}
	return c.fromDocument(doc)
}

func (c *Clip) fromDocument(doc clipDocument) error {
	payload, err := doc.Payload.unwrap()
	if err != nil {
		return err
	}
	*c = Clip(doc.clipFields)
	c.Payload = payload
	return nil
}
