package fx

import (
	"math"

	"github.com/voltlane/voltlane"
)

const silenceDB = -120

// timeCoeff is the per-sample smoothing coefficient of an exponential
// follower with the given time constant.
func timeCoeff(ms, sr float32) float32 {
	return float32(math.Exp(-1 / (float64(ms) / 1000 * float64(sr))))
}

func toDB(x float32) float32 {
	return float32(20 * math.Log10(math.Max(math.Abs(float64(x)), 1e-6)))
}

func compress(buf []float32, p params, sr float32) {
	threshold, ratio := p["threshold_db"], p["ratio"]
	attack, release := timeCoeff(p["attack_ms"], sr), timeCoeff(p["release_ms"], sr)
	makeup := p["makeup_db"]
	env := float32(silenceDB)
	for i, x := range buf {
		level := toDB(x)
		coeff := release
		if level > env {
			coeff = attack
		}
		env = level + coeff*(env-level)
		var reduction float32
		if env > threshold {
			reduction = threshold + (env-threshold)/ratio - env
		}
		buf[i] = x * voltlane.DBToGain(reduction+makeup)
	}
}

// limit reduces gain immediately whenever a sample would pass the ceiling
// and lets it recover exponentially. Output never exceeds the ceiling.
func limit(buf []float32, p params, sr float32) {
	ceiling := voltlane.DBToGain(p["ceiling_db"])
	release := timeCoeff(p["release_ms"], sr)
	gain := float32(1)
	for i, x := range buf {
		gain = 1 + (gain-1)*release
		if a := float32(math.Abs(float64(x))); a*gain > ceiling {
			gain = ceiling / a
		}
		buf[i] = min(max(x*gain, -ceiling), ceiling)
	}
}
