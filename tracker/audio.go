package tracker

import (
	"math"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/google/uuid"
	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/assets"
)

// AudioClipPatch changes the fields whose pointers are non-nil. Negative
// times are raised to zero.
type AudioClipPatch struct {
	GainDB           *float32
	Pan              *float32
	TrimStartSeconds *float64
	TrimEndSeconds   *float64
	FadeInSeconds    *float64
	FadeOutSeconds   *float64
	Reverse          *bool
	StretchRatio     *float64
}

const minStretchRatio = 0.01

// ImportAudioClip analyzes the source file and places it on an audio track
// as a clip spanning the whole source. With a non-empty cacheDir the waveform
// analysis is cached there.
func (m *Model) ImportAudioClip(trackID uuid.UUID, name, sourcePath string, startTick uint64, bucketSize int, cacheDir string, gainDB, pan float32) (voltlane.Clip, error) {
	if bucketSize <= 0 {
		return voltlane.Clip{}, invalid(ErrInvalidAudioBucketSize, "bucket size %d", bucketSize)
	}
	if err := checkAudioTrack(&m.project, trackID); err != nil {
		return voltlane.Clip{}, err
	}
	var analysis assets.Analysis
	var err error
	if cacheDir != "" {
		analysis, err = assets.AnalyzeWithCache(sourcePath, cacheDir, bucketSize, m.logger)
	} else {
		analysis, err = assets.Analyze(sourcePath, bucketSize)
	}
	if err != nil {
		return voltlane.Clip{}, fault.Wrap(err, fmsg.With("could not analyze audio source"))
	}
	duration := max(analysis.DurationSeconds, 0)
	peaks := analysis.Peaks
	audio := &voltlane.AudioClip{
		SourcePath:            analysis.SourcePath,
		GainDB:                gainDB,
		Pan:                   pan,
		SourceSampleRate:      analysis.SampleRate,
		SourceChannels:        max(analysis.Channels, 1),
		SourceDurationSeconds: duration,
		TrimEndSeconds:        duration,
		StretchRatio:          1,
		Waveform:              &peaks,
		WaveformCachePath:     analysis.CachePath,
	}
	if err := sanitizeAudioClip(audio); err != nil {
		return voltlane.Clip{}, err
	}
	clip := voltlane.Clip{
		ID:          uuid.New(),
		Name:        name,
		StartTick:   startTick,
		LengthTicks: m.audioLength(audio),
		Payload:     audio,
	}
	err = m.change("ImportAudioClip", func(p *voltlane.Project) error {
		if err := checkAudioTrack(p, trackID); err != nil {
			return err
		}
		t, _ := findTrack(p, trackID)
		t.Clips = append(t.Clips, clip.Copy())
		return nil
	})
	return clip, err
}

func checkAudioTrack(p *voltlane.Project, trackID uuid.UUID) error {
	t, err := findTrack(p, trackID)
	if err != nil {
		return err
	}
	if t.Kind != voltlane.AudioTrack {
		return invalid(ErrInvalidAudioTrack, "track %v is a %v track", trackID, t.Kind)
	}
	return nil
}

func (m *Model) audioLength(a *voltlane.AudioClip) uint64 {
	return max(voltlane.SecondsToTicks(a.EffectiveDurationSeconds(), m.project.BPM, m.project.PPQ), 1)
}

// PatchAudioClip edits the clip's playback settings and resizes the clip to
// the new trimmed duration.
func (m *Model) PatchAudioClip(trackID, clipID uuid.UUID, patch AudioClipPatch) (voltlane.Clip, error) {
	if patch.StretchRatio != nil && *patch.StretchRatio <= 0 {
		return voltlane.Clip{}, invalid(ErrInvalidAudioStretchRatio, "stretch ratio %v", *patch.StretchRatio)
	}
	return m.editClip("PatchAudioClip", trackID, clipID, func(_ *voltlane.Project, c *voltlane.Clip) error {
		a, ok := c.Payload.(*voltlane.AudioClip)
		if !ok {
			return invalid(ErrUnsupportedAudioClip, "clip %v", clipID)
		}
		setIf(&a.GainDB, patch.GainDB)
		setIf(&a.Pan, patch.Pan)
		setIf(&a.TrimStartSeconds, patch.TrimStartSeconds)
		setIf(&a.TrimEndSeconds, patch.TrimEndSeconds)
		setIf(&a.FadeInSeconds, patch.FadeInSeconds)
		setIf(&a.FadeOutSeconds, patch.FadeOutSeconds)
		setIf(&a.Reverse, patch.Reverse)
		setIf(&a.StretchRatio, patch.StretchRatio)
		if err := sanitizeAudioClip(a); err != nil {
			return err
		}
		c.LengthTicks = m.audioLength(a)
		return nil
	})
}

// sanitizeAudioClip clamps the clip settings into range. Fades that do not
// fit in the trimmed duration are scaled down together.
func sanitizeAudioClip(a *voltlane.AudioClip) error {
	var err error
	if a.GainDB, err = clampGain(a.GainDB, "clip gain"); err != nil {
		return err
	}
	if a.Pan, err = clampPan(a.Pan, "clip pan"); err != nil {
		return err
	}
	for _, v := range []struct {
		what  string
		value float64
	}{
		{"source duration", a.SourceDurationSeconds},
		{"trim start", a.TrimStartSeconds},
		{"trim end", a.TrimEndSeconds},
		{"fade in", a.FadeInSeconds},
		{"fade out", a.FadeOutSeconds},
	} {
		if !finite(v.value) {
			return invalid(ErrNonFiniteValue, "%s %v", v.what, v.value)
		}
	}
	a.SourceDurationSeconds = max(a.SourceDurationSeconds, 0)
	a.TrimStartSeconds = max(a.TrimStartSeconds, 0)
	a.TrimEndSeconds = max(a.TrimEndSeconds, 0)
	a.FadeInSeconds = max(a.FadeInSeconds, 0)
	a.FadeOutSeconds = max(a.FadeOutSeconds, 0)
	if !(a.StretchRatio > 0) || math.IsInf(a.StretchRatio, 0) {
		return invalid(ErrInvalidAudioStretchRatio, "stretch ratio %v", a.StretchRatio)
	}
	a.StretchRatio = max(a.StretchRatio, minStretchRatio)
	if a.TrimEndSeconds < a.TrimStartSeconds {
		return invalid(ErrInvalidAudioTrimRange, "trim %.3fs..%.3fs", a.TrimStartSeconds, a.TrimEndSeconds)
	}
	a.TrimStartSeconds = min(a.TrimStartSeconds, a.SourceDurationSeconds)
	a.TrimEndSeconds = min(a.TrimEndSeconds, a.SourceDurationSeconds)
	available := a.EffectiveDurationSeconds()
	if fades := a.FadeInSeconds + a.FadeOutSeconds; fades > available {
		if available > 0 {
			scale := available / fades
			a.FadeInSeconds *= scale
			a.FadeOutSeconds *= scale
		} else {
			a.FadeInSeconds, a.FadeOutSeconds = 0, 0
		}
	}
	return nil
}
