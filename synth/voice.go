package synth

import "math"

const (
	// NoteGain is the peak amplitude of a full velocity note.
	NoteGain     = 0.18
	attackTime   = 0.004
	releaseTime  = 0.03
	maxVelocity  = 127
	fullEnvelope = 1
)

// Voice is a single synthesized note event placed on a sample timeline.
type Voice struct {
	Start, End int // samples, End exclusive
	Amplitude  float32
	Increment  uint32
	Waveform   Waveform
	Duty       float32
	Backend    Backend
	Noise      NoiseGen
	Attack     int
	Release    int
}

// NewVoice prepares a voice for a note of the given pitch and velocity
// spanning [start, end) samples.
func NewVoice(pitch, velocity uint8, start, end int, sampleRate uint32) Voice {
	length := max(end-start, 0)
	return Voice{
		Start:     start,
		End:       end,
		Amplitude: float32(min(velocity, maxVelocity)) / maxVelocity * NoteGain,
		Increment: PhaseIncrement(NoteFrequency(pitch), sampleRate),
		Waveform:  Triangle,
		Duty:      DefaultDuty,
		Backend:   Generic,
		Attack:    min(int(math.Round(attackTime*float64(sampleRate))), length/2),
		Release:   min(int(math.Round(releaseTime*float64(sampleRate))), length/2),
	}
}

// Envelope is the linear attack/release gain at offset i of a voice of n
// samples.
func (v *Voice) Envelope(i, n int) float32 {
	env := float32(fullEnvelope)
	if v.Attack > 0 && i < v.Attack {
		env = float32(i) / float32(v.Attack)
	}
	if remaining := n - i; v.Release > 0 && remaining < v.Release {
		env = min(env, float32(remaining)/float32(v.Release))
	}
	return env
}

// Render adds the voice into buf. Samples past the end of buf are dropped.
func (v *Voice) Render(buf []float32) {
	start := min(max(v.Start, 0), len(buf))
	end := min(v.End, len(buf))
	n := v.End - v.Start
	level := v.Backend.Level() * v.Amplitude
	var phase uint32
	for i := start; i < end; i++ {
		var osc float32
		switch v.Waveform {
		case Pulse:
			osc = PulseAt(phase, v.Duty)
		case Noise:
			osc = v.Noise.Next()
		default:
			osc = TriangleAt(phase)
		}
		buf[i] += v.Backend.Color(osc) * level * v.Envelope(i-v.Start, n)
		phase += v.Increment
	}
}
