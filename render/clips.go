package render

import (
	"log/slog"
	"math"
	"strings"

	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/synth"
)

type decodeResult struct {
	audio voltlane.DecodedAudio
	ok    bool
}

// clipRenderer renders the clips of one project. Its decode cache lives only
// as long as the render call that created it.
type clipRenderer struct {
	project    *voltlane.Project
	sampleRate uint32
	decoder    Decoder
	logger     *slog.Logger
	cache      map[string]decodeResult
	notes      int
	audioClips int
}

func newClipRenderer(p *voltlane.Project, o options) *clipRenderer {
	return &clipRenderer{
		project:    p,
		sampleRate: SampleRate(p),
		decoder:    o.decoder,
		logger:     o.logger,
		cache:      map[string]decodeResult{},
	}
}

func (c *clipRenderer) samples(tick uint64) int {
	return int(voltlane.TicksToSamples(tick, c.project.BPM, c.project.PPQ, c.sampleRate))
}

func (c *clipRenderer) renderTrack(t *voltlane.Track, buf []float32) {
	for i := range t.Clips {
		clip := &t.Clips[i]
		if clip.Disabled {
			continue
		}
		switch p := clip.Payload.(type) {
		case *voltlane.MidiClip:
			waveform := synth.Triangle
			if t.Kind == voltlane.ChipTrack {
				waveform = synth.Pulse
			}
			for _, n := range p.Notes {
				c.renderNote(buf, clip.StartTick, n, func(v *synth.Voice) { v.Waveform = waveform })
			}
		case *voltlane.PatternClip:
			c.renderPattern(buf, clip, p)
		case *voltlane.AudioClip:
			c.renderAudio(buf, clip, p)
		case *voltlane.AutomationClip:
		}
	}
}

func (c *clipRenderer) renderPattern(buf []float32, clip *voltlane.Clip, p *voltlane.PatternClip) {
	backend := synth.BackendForChip(p.SourceChip)
	noiseChip := strings.Contains(voltlane.Fold(p.SourceChip), voltlane.MacroNoise)
	ppq := c.project.PPQ
	for _, note := range p.Notes {
		n := p.ApplyMacros(note, ppq)
		duty := synth.DefaultDuty
		if v, ok := p.MacroValue(voltlane.MacroDuty, note.StartTick, ppq); ok {
			duty = backend.Duty(v)
		}
		noise := noiseChip
		if v, ok := p.MacroValue(voltlane.MacroNoise, note.StartTick, ppq); ok && v > 0 {
			noise = true
		}
		start := clip.StartTick + n.StartTick
		c.renderNote(buf, clip.StartTick, n, func(v *synth.Voice) {
			v.Backend = backend
			v.Duty = duty
			v.Waveform = synth.Pulse
			if noise {
				v.Waveform = synth.Noise
				v.Noise = synth.NewNoiseGen(n.Pitch, start, c.sampleRate)
			}
		})
	}
}

func (c *clipRenderer) renderNote(buf []float32, clipStart uint64, n voltlane.MidiNote, setup func(*synth.Voice)) {
	start := c.samples(clipStart + n.StartTick)
	end := c.samples(clipStart + n.EndTick())
	if end <= start {
		c.logger.Warn("skipping zero-length note", "pitch", n.Pitch, "start_sample", start, "end_sample", end)
		return
	}
	v := synth.NewVoice(n.Pitch, n.Velocity, start, end, c.sampleRate)
	setup(&v)
	v.Render(buf)
	c.notes++
}

func (c *clipRenderer) decode(path string) (voltlane.DecodedAudio, bool) {
	if r, ok := c.cache[path]; ok {
		return r.audio, r.ok
	}
	audio, err := c.decoder.Decode(path)
	if err != nil {
		c.logger.Warn("could not decode audio clip source, skipping clip", "path", path, "error", err)
	}
	r := decodeResult{audio: audio, ok: err == nil}
	c.cache[path] = r
	return r.audio, r.ok
}

// trimWindow returns the source frame range selected by the clip's trim,
// clamped to the decoded source and to the clip's source duration when set.
func trimWindow(a *voltlane.AudioClip, rate uint32, frames int) (start, end int) {
	duration := float64(frames) / float64(rate)
	if a.SourceDurationSeconds > 0 {
		duration = min(duration, a.SourceDurationSeconds)
	}
	trimStart := min(max(a.TrimStartSeconds, 0), duration)
	trimEnd := a.TrimEndSeconds
	if trimEnd <= 0 {
		trimEnd = duration
	}
	trimEnd = min(max(trimEnd, trimStart), duration)
	start = min(int(math.Round(trimStart*float64(rate))), frames-1)
	end = min(int(math.Round(trimEnd*float64(rate))), frames)
	return start, end
}

func (c *clipRenderer) renderAudio(buf []float32, clip *voltlane.Clip, a *voltlane.AudioClip) {
	decoded, ok := c.decode(a.SourcePath)
	if !ok || decoded.SampleRate == 0 || len(decoded.Samples) == 0 {
		return
	}
	startFrame := c.samples(clip.StartTick)
	if startFrame >= len(buf) {
		return
	}
	outFrames := min(c.samples(max(clip.LengthTicks, 1)), len(buf)-startFrame)
	if outFrames <= 0 {
		return
	}
	srcStart, srcEnd := trimWindow(a, decoded.SampleRate, len(decoded.Samples))
	if srcEnd <= srcStart {
		return
	}
	srcFrames := srcEnd - srcStart
	fadeIn := int(math.Round(max(a.FadeInSeconds, 0) * float64(c.sampleRate)))
	fadeOut := int(math.Round(max(a.FadeOutSeconds, 0) * float64(c.sampleRate)))
	gain := voltlane.DBToGain(a.GainDB) * voltlane.PanGain(a.Pan)
	for i := 0; i < outFrames; i++ {
		var ratio float64
		if outFrames > 1 {
			ratio = float64(i) / float64(outFrames-1)
		}
		offset := ratio * float64(srcFrames-1)
		index := float64(srcStart) + offset
		if a.Reverse {
			index = float64(srcEnd-1) - offset
		}
		s := sampleLinear(decoded.Samples, index)
		buf[startFrame+i] += s * gain * fadeEnvelope(i, outFrames, fadeIn, fadeOut)
	}
	c.audioClips++
}

func sampleLinear(samples []float32, index float64) float32 {
	last := len(samples) - 1
	left := int(min(max(math.Floor(index), 0), float64(last)))
	right := min(left+1, last)
	frac := float32(min(max(index-float64(left), 0), 1))
	return samples[left] + (samples[right]-samples[left])*frac
}

// fadeEnvelope multiplies a linear fade in from the first frame with a
// linear fade out towards the last frame.
func fadeEnvelope(i, total, fadeIn, fadeOut int) float32 {
	gain := float32(1)
	if fadeIn > 0 {
		gain *= min(float32(i)/float32(fadeIn), 1)
	}
	if fadeOut > 0 {
		toEnd := max(total-i-1, 0)
		gain *= min(float32(toEnd)/float32(fadeOut), 1)
	}
	return gain
}
