package meter_test

import (
	"math"
	"testing"

	"github.com/voltlane/voltlane/meter"
)

func sine(amplitude, freq float64, seconds float64, sampleRate uint32) []float32 {
	ret := make([]float32, int(seconds*float64(sampleRate)))
	for i := range ret {
		ret[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return ret
}

func near(got meter.Decibel, expected, tolerance float64) bool {
	return math.Abs(float64(got)-expected) <= tolerance
}

func TestFullScaleSine(t *testing.T) {
	r := meter.Measure(sine(1, 1000, 3, 48000), 48000)
	if !near(r.IntegratedLUFS, 0, 0.5) {
		t.Fatalf("integrated loudness: got %v, expected about 0 LUFS", r.IntegratedLUFS)
	}
	if !near(r.MaxShortTermLUFS, 0, 0.5) || !near(r.MaxMomentaryLUFS, 0, 0.5) {
		t.Fatalf("max loudness: got %v/%v, expected about 0 LUFS", r.MaxMomentaryLUFS, r.MaxShortTermLUFS)
	}
	if !near(r.SamplePeakDB, 0, 0.01) {
		t.Fatalf("sample peak: got %v, expected about 0 dB", r.SamplePeakDB)
	}
	if r.TruePeakDB < r.SamplePeakDB {
		t.Fatalf("true peak %v should not be below sample peak %v", r.TruePeakDB, r.SamplePeakDB)
	}
}

func TestQuieterSine(t *testing.T) {
	r := meter.Measure(sine(0.1, 1000, 3, 48000), 48000)
	if !near(r.IntegratedLUFS, -20, 0.5) {
		t.Fatalf("integrated loudness: got %v, expected about -20 LUFS", r.IntegratedLUFS)
	}
	if !near(r.SamplePeakDB, -20, 0.01) {
		t.Fatalf("sample peak: got %v, expected about -20 dB", r.SamplePeakDB)
	}
}

func TestSilence(t *testing.T) {
	r := meter.Measure(make([]float32, 48000), 48000)
	if r.IntegratedLUFS != meter.Floor || r.SamplePeakDB != meter.Floor || r.TruePeakDB != meter.Floor {
		t.Fatalf("silence: got %+v, expected everything at %v", r, meter.Floor)
	}
	if r := meter.Measure(nil, 48000); r.IntegratedLUFS != meter.Floor {
		t.Fatalf("empty buffer: got %v, expected %v", r.IntegratedLUFS, meter.Floor)
	}
}

func TestShortTrailingBlock(t *testing.T) {
	buf := sine(0.5, 440, 0.1, 48000)
	buf = append(buf, 0.25, -0.25, 0.25)
	r := meter.MeasureWeighted(buf, 48000, meter.NoWeighting)
	if !near(r.SamplePeakDB, -6.02, 0.05) {
		t.Fatalf("sample peak: got %v, expected about -6 dB", r.SamplePeakDB)
	}
}

func TestIntersamplePeak(t *testing.T) {
	// a quarter sample rate sine sampled at 45 degrees peaks between samples
	buf := make([]float32, 4800)
	for i := range buf {
		buf[i] = float32(math.Sin(math.Pi/2*float64(i) + math.Pi/4))
	}
	r := meter.Measure(buf, 48000)
	if r.TruePeakDB < r.SamplePeakDB+2 {
		t.Fatalf("true peak %v should be about 3 dB over sample peak %v", r.TruePeakDB, r.SamplePeakDB)
	}
}
