package voltlane

import "math"

// TicksToSeconds converts a tick position to seconds. Zero bpm or ppq map
// everything to zero.
func TicksToSeconds(ticks uint64, bpm float64, ppq uint16) float64 {
	if bpm <= 0 || ppq == 0 {
		return 0
	}
	beats := float64(ticks) / float64(ppq)
	return beats * (60 / bpm)
}

func SecondsToTicks(seconds, bpm float64, ppq uint16) uint64 {
	if seconds <= 0 || bpm <= 0 || ppq == 0 {
		return 0
	}
	beats := seconds * (bpm / 60)
	return uint64(math.Round(beats * float64(ppq)))
}

func TicksToSamples(ticks uint64, bpm float64, ppq uint16, sampleRate uint32) uint64 {
	seconds := TicksToSeconds(ticks, bpm, ppq)
	return uint64(math.Round(seconds * float64(sampleRate)))
}

func SamplesToTicks(samples uint64, bpm float64, ppq uint16, sampleRate uint32) uint64 {
	if sampleRate == 0 {
		return 0
	}
	return SecondsToTicks(float64(samples)/float64(sampleRate), bpm, ppq)
}

// TrackerRowsToTicks converts a tracker row count to ticks; zero lines per
// beat is undefined and returns zero.
func TrackerRowsToTicks(rows uint32, linesPerBeat, ppq uint16) uint64 {
	if linesPerBeat == 0 {
		return 0
	}
	ticksPerRow := float64(ppq) / float64(linesPerBeat)
	return uint64(math.Round(float64(rows) * ticksPerRow))
}

// DBToGain converts decibels to a linear amplitude factor.
func DBToGain(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

// PanGain is the mono gain of a panned signal.
func PanGain(pan float32) float32 {
	return 1 - 0.2*float32(math.Abs(float64(pan)))
}
