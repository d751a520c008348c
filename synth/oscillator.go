package synth

import "math"

type Waveform int

const (
	Triangle Waveform = iota
	Pulse
	Noise
)

// NoteFrequency returns the equal-tempered frequency of a midi pitch, A4 =
// 440 Hz.
func NoteFrequency(pitch uint8) float64 {
	return 440 * math.Pow(2, (float64(pitch)-69)/12)
}

// PhaseIncrement is the per-sample step of a 32-bit phase accumulator
// running at frequency.
func PhaseIncrement(frequency float64, sampleRate uint32) uint32 {
	normalized := frequency / float64(max(sampleRate, 1))
	return uint32(min(max(normalized*math.MaxUint32, 1), math.MaxUint32))
}

// TriangleAt ramps from -1 to 1 over the first half of the phase range and
// back to -1 over the second half.
func TriangleAt(phase uint32) float32 {
	unit := float32(phase) / math.MaxUint32
	if unit < 0.5 {
		return unit*4 - 1
	}
	return 3 - unit*4
}

// PulseAt is high for the first duty fraction of the phase range.
func PulseAt(phase uint32, duty float32) float32 {
	if float64(phase) < float64(duty)*math.MaxUint32 {
		return 1
	}
	return -1
}

// NoiseGen is a 15-bit linear feedback shift register that is clocked only
// when its own phase accumulator wraps around.
type NoiseGen struct {
	lfsr      uint16
	phase     uint32
	increment uint32
}

const noiseClockMultiplier = 8

// NewNoiseGen seeds the register from a note's pitch and start tick so the
// same note always produces the same bitstream.
func NewNoiseGen(pitch uint8, startTick uint64, sampleRate uint32) NoiseGen {
	seed := uint32(pitch)<<8 ^ uint32(startTick*2654435761>>7)
	seed &= 0x7fff
	if seed == 0 {
		seed = 1
	}
	return NoiseGen{
		lfsr:      uint16(seed),
		increment: PhaseIncrement(NoteFrequency(pitch)*noiseClockMultiplier, sampleRate),
	}
}

// Next advances the noise phase by one sample and returns the current
// output bit as -1 or 1.
func (n *NoiseGen) Next() float32 {
	prev := n.phase
	n.phase += n.increment
	if n.phase < prev {
		bit := (n.lfsr ^ n.lfsr>>1) & 1
		n.lfsr = n.lfsr>>1 | bit<<14
	}
	return float32(n.lfsr&1)*2 - 1
}
