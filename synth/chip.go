package synth

import (
	"math"
	"strings"

	"github.com/voltlane/voltlane"
)

// Backend is a set of rules emulating the character of a sound chip.
type Backend int

const (
	Generic Backend = iota
	GameBoy
	NES
	SN76489
)

const DefaultDuty float32 = 0.5

var backendLabels = []struct {
	backend Backend
	needles []string
}{
	{GameBoy, []string{"gameboy", "game boy", "dmg", "gb"}},
	{SN76489, []string{"sn76489", "sn76", "sms", "psg"}},
	{NES, []string{"nes", "2a03", "famicom"}},
}

// BackendForChip picks the backend by case-insensitive substring match on a
// free-text chip label. SN76489 labels are tried before NES since "nes" is
// a substring of "genesis". Unmatched labels use Generic.
func BackendForChip(label string) Backend {
	folded := voltlane.Fold(label)
	for _, b := range backendLabels {
		for _, needle := range b.needles {
			if strings.Contains(folded, needle) {
				return b.backend
			}
		}
	}
	return Generic
}

func (b Backend) String() string {
	switch b {
	case GameBoy:
		return "gameboy"
	case NES:
		return "nes"
	case SN76489:
		return "sn76489"
	}
	return "generic"
}

var pulseDuties = [4]float32{0.125, 0.25, 0.5, 0.75}

// Duty maps a duty macro value to a duty fraction. GameBoy and NES snap
// 0..3 to the hardware duty table; the others map -127..127 linearly to
// 0.05..0.95.
func (b Backend) Duty(value int16) float32 {
	switch b {
	case GameBoy, NES:
		return pulseDuties[min(max(int(value), 0), 3)]
	}
	v := float32(min(max(value, -127), 127))
	return 0.05 + (v+127)/254*0.9
}

// Level is the output level multiplier of the backend.
func (b Backend) Level() float32 {
	switch b {
	case GameBoy:
		return 0.95
	case SN76489:
		return 0.9
	}
	return 1
}

// Color applies the backend's post-oscillator coloration to a sample in
// [-1, 1].
func (b Backend) Color(x float32) float32 {
	switch b {
	case GameBoy:
		return quantize(x, 16) * 0.95
	case NES:
		return float32(math.Tanh(1.15 * float64(x)))
	case SN76489:
		return quantize(x, 8)
	}
	return x
}

// quantize snaps x in [-1, 1] to the nearest of levels evenly spaced values.
func quantize(x float32, levels int) float32 {
	step := 2 / float32(levels-1)
	x = min(max(x, -1), 1)
	return float32(math.Round(float64((x+1)/step)))*step - 1
}
