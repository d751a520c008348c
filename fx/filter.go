package fx

import (
	"math"

	"github.com/voltlane/voltlane"
)

// onePole is a one-pole low-pass filter.
type onePole struct {
	coeff float32
	state float32
}

func newOnePole(cutoff, sampleRate float32) onePole {
	return onePole{coeff: float32(1 - math.Exp(-2*math.Pi*float64(cutoff/sampleRate)))}
}

func (f *onePole) process(x float32) float32 {
	f.state += f.coeff * (x - f.state)
	return f.state
}

// eq splits the signal into three bands with two low-pass filters and sums
// them back with per-band gains.
func eq(buf []float32, p params, sr float32) {
	lowCut := min(p["low_cut_hz"], sr*0.45)
	highCut := min(max(p["high_cut_hz"], lowCut), sr*0.45)
	lowFilter, highFilter := newOnePole(lowCut, sr), newOnePole(highCut, sr)
	lowGain := voltlane.DBToGain(p["low_gain_db"])
	midGain := voltlane.DBToGain(p["mid_gain_db"])
	highGain := voltlane.DBToGain(p["high_gain_db"])
	for i, x := range buf {
		low := lowFilter.process(x)
		high := x - highFilter.process(x)
		mid := x - low - high
		buf[i] = low*lowGain + mid*midGain + high*highGain
	}
}
