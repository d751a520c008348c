// Package render turns a project into a mono sample buffer: clips are
// rendered into per-track dry buffers, which are then mixed through effect
// chains and buses into the master output.
package render

import (
	"log/slog"
	"math"

	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/assets"
)

// MinSampleRate is the lowest sample rate a project is rendered at.
const MinSampleRate = 8000

// Decoder reads an audio source as mono samples.
type Decoder interface {
	Decode(path string) (voltlane.DecodedAudio, error)
}

type (
	Option func(*options)

	options struct {
		decoder Decoder
		logger  *slog.Logger
	}
)

// WithDecoder replaces the file decoder used for audio clips.
func WithDecoder(d Decoder) Option {
	return func(o *options) { o.decoder = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// SampleRate is the rate a project renders at.
func SampleRate(p *voltlane.Project) uint32 {
	return max(p.SampleRate, MinSampleRate)
}

// Length is the number of frames Render returns for the project: the latest
// clip end plus the tail, and never less than one second.
func Length(p *voltlane.Project, tailSeconds float64) int {
	sr := SampleRate(p)
	end := voltlane.TicksToSamples(p.MaxTick(), p.BPM, p.PPQ, sr)
	tail := uint64(math.Round(math.Max(tailSeconds, 0) * float64(sr)))
	return int(max(end+tail, uint64(sr)))
}

// Render mixes the project into a mono buffer at SampleRate(p). It never
// fails: sources that cannot be decoded are skipped and logged.
func Render(p *voltlane.Project, tailSeconds float64, opts ...Option) []float32 {
	o := options{decoder: assets.FileDecoder{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	frames := Length(p, tailSeconds)
	c := newClipRenderer(p, o)
	dry := make([][]float32, len(p.Tracks))
	for i := range p.Tracks {
		if !p.Tracks[i].Audible() {
			continue
		}
		dry[i] = make([]float32, frames)
		c.renderTrack(&p.Tracks[i], dry[i])
	}
	master := mix(p, dry, frames, o.logger)
	o.logger.Debug("render completed", "frames", frames, "notes", c.notes, "audio_clips", c.audioClips)
	return master
}
