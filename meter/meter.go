// Package meter measures the loudness and peaks of a rendered buffer
// following EBU Tech 3341 and ITU-R BS.1770.
package meter

import (
	"math"

	"github.com/viterin/vek/vek32"
)

type (
	Decibel float32

	WeightingType int

	// Result describes a mono render as it plays from the exported stereo
	// file, i.e. with the signal in both channels.
	Result struct {
		IntegratedLUFS   Decibel `json:"integrated_lufs"`
		MaxMomentaryLUFS Decibel `json:"max_momentary_lufs"`
		MaxShortTermLUFS Decibel `json:"max_short_term_lufs"`
		SamplePeakDB     Decibel `json:"sample_peak_db"`
		TruePeakDB       Decibel `json:"true_peak_db"`
	}

	biquadState struct {
		x1, x2, y1, y2 float32
	}

	biquadCoeff struct {
		b0, b1, b2, a1, a2 float32
	}

	weighting struct {
		coeffs []biquadCoeff
		offset float32
	}
)

const (
	KWeighting WeightingType = iota
	AWeighting
	CWeighting
	NoWeighting
)

// Floor is reported for silence instead of negative infinity.
const Floor Decibel = -120

const (
	channels       = 2
	momentaryBlock = 4  // 400 ms in 100 ms blocks
	shortTermBlock = 30 // 3 s in 100 ms blocks
	absoluteGate   = -70
)

// Coefficients of the K-weighting are for 48 kHz; A and C are for 44.1 kHz.
var weightings = map[WeightingType]weighting{
	AWeighting: {coeffs: []biquadCoeff{
		{b0: 1, b1: 2, b2: 1, a1: -0.1405360824207108, a2: 0.0049375976155402},
		{b0: 1, b1: -2, b2: 1, a1: -1.8849012174287920, a2: 0.8864214718161675},
		{b0: 1, b1: -2, b2: 1, a1: -1.9941388812663283, a2: 0.9941474694445309},
	}},
	CWeighting: {coeffs: []biquadCoeff{
		{b0: 1, b1: 2, b2: 1, a1: -0.1405360824207108, a2: 0.0049375976155402},
		{b0: 1, b1: -2, b2: 1, a1: -1.9941388812663283, a2: 0.9941474694445309},
	}},
	KWeighting: {coeffs: []biquadCoeff{
		{b0: 1.5308412300503476, b1: -2.6509799951547293, b2: 1.1690790799215869, a1: -1.6636551132560204, a2: 0.7125954280732254},
		{b0: 0.9995600645425144, b1: -1.9991201290850289, b2: 0.9995600645425144, a1: -1.9891696736297957, a2: 0.9891990357870394},
	}, offset: -0.691}, // K-weighting is slightly above unity gain at 1 kHz
	NoWeighting: {},
}

// Measure is MeasureWeighted with K-weighting.
func Measure(buf []float32, sampleRate uint32) Result {
	return MeasureWeighted(buf, sampleRate, KWeighting)
}

// MeasureWeighted analyzes buf in 100 ms blocks. Integrated loudness gates
// the momentary blocks first at -70 LUFS, then 10 dB below the mean of the
// blocks that passed.
func MeasureWeighted(buf []float32, sampleRate uint32, w WeightingType) Result {
	block := max(int(sampleRate)/10, 1)
	l := newLoudness(weightings[w])
	var p peaks
	for start := 0; start < len(buf); start += block {
		chunk := buf[start:min(start+block, len(buf))]
		l.update(chunk)
		p.update(chunk)
	}
	return Result{
		IntegratedLUFS:   l.integrated(),
		MaxMomentaryLUFS: power2loudness(l.maxPowers[0], l.weighting.offset),
		MaxShortTermLUFS: power2loudness(l.maxPowers[1], l.weighting.offset),
		SamplePeakDB:     amplitude2db(p.sample),
		TruePeakDB:       amplitude2db(p.truePeak),
	}
}

type loudness struct {
	weighting weighting
	states    []biquadState
	windows   [2]ringBuffer // momentary and short-term
	maxPowers [2]float32
	momentary []float32
	tmp, tmp2 []float32
}

func newLoudness(w weighting) *loudness {
	return &loudness{
		weighting: w,
		states:    make([]biquadState, len(w.coeffs)),
		windows: [2]ringBuffer{
			{Buffer: make([]float32, momentaryBlock)},
			{Buffer: make([]float32, shortTermBlock)},
		},
	}
}

func (d *loudness) update(chunk []float32) {
	setSliceLength(&d.tmp, len(chunk))
	setSliceLength(&d.tmp2, len(chunk))
	copy(d.tmp, chunk)
	for k, c := range d.weighting.coeffs {
		d.states[k].filter(d.tmp, c)
	}
	power := channels * vek32.Mean(vek32.Mul_Into(d.tmp2, d.tmp, d.tmp))
	for i := range d.windows {
		d.windows[i].writeWrapSingle(power)
		mean := vek32.Mean(d.windows[i].Buffer)
		if i == 0 {
			d.momentary = append(d.momentary, mean)
		}
		d.maxPowers[i] = max(d.maxPowers[i], mean)
	}
}

func (d *loudness) integrated() Decibel {
	if len(d.momentary) == 0 {
		return Floor
	}
	mask := make([]bool, len(d.momentary))
	above := vek32.Select_Into(make([]float32, len(d.momentary)), d.momentary,
		vek32.GtNumber_Into(mask, d.momentary, loudness2power(absoluteGate, d.weighting.offset)))
	if len(above) == 0 {
		return Floor
	}
	relative := vek32.Mean(above) / 10 // 10 dB below the mean
	gated := vek32.Select_Into(make([]float32, len(above)), above, vek32.GtNumber_Into(mask[:len(above)], above, relative))
	if len(gated) == 0 {
		return Floor
	}
	return power2loudness(vek32.Mean(gated), d.weighting.offset)
}

func power2loudness(power, offset float32) Decibel {
	if power <= 0 {
		return Floor
	}
	return max(Decibel(float32(10*math.Log10(float64(power)))+offset), Floor)
}

func loudness2power(loudness Decibel, offset float32) float32 {
	return float32(math.Pow(10, (float64(loudness)-float64(offset))/10))
}

func amplitude2db(a float32) Decibel {
	if a <= 0 {
		return Floor
	}
	return max(Decibel(20*math.Log10(float64(a))), Floor)
}

func (state *biquadState) filter(buffer []float32, coeff biquadCoeff) {
	s := *state
	for i, x := range buffer {
		y := coeff.b0*x + coeff.b1*s.x1 + coeff.b2*s.x2 - coeff.a1*s.y1 - coeff.a2*s.y2
		s.x2, s.x1 = s.x1, x
		s.y2, s.y1 = s.y1, y
		buffer[i] = y
	}
	*state = s
}

// ringBuffer is a fixed window of the latest values.
type ringBuffer struct {
	Buffer []float32
	Cursor int
}

func (r *ringBuffer) writeWrapSingle(value float32) {
	r.Cursor = (r.Cursor + 1) % len(r.Buffer)
	r.Buffer[r.Cursor] = value
}

func setSliceLength[T any](slice *[]T, length int) {
	if len(*slice) < length {
		*slice = append(*slice, make([]T, length-len(*slice))...)
	}
	*slice = (*slice)[:length]
}
