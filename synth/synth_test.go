package synth_test

import (
	"math"
	"testing"

	"github.com/voltlane/voltlane/synth"
)

func TestBackendForChip(t *testing.T) {
	for label, expected := range map[string]synth.Backend{
		"gameboy_apu":      synth.GameBoy,
		"GameBoy Pulse":    synth.GameBoy,
		"nes_2a03_pulse":   synth.NES,
		"NES Triangle":     synth.NES,
		"SN76489 tone":     synth.SN76489,
		"sega psg":         synth.SN76489,
		"Sega Genesis PSG": synth.SN76489,
		"genesis_sn76489":  synth.SN76489,
		"ym2612":           synth.Generic,
		"":                 synth.Generic,
	} {
		if got := synth.BackendForChip(label); got != expected {
			t.Errorf("BackendForChip(%q) = %v, expected %v", label, got, expected)
		}
	}
}

func TestDutyQuantization(t *testing.T) {
	gb := []float32{0.125, 0.25, 0.5, 0.75}
	for i, expected := range gb {
		if got := synth.GameBoy.Duty(int16(i)); got != expected {
			t.Fatalf("GameBoy duty %v: got %v, expected %v", i, got, expected)
		}
	}
	if got := synth.NES.Duty(9); got != 0.75 {
		t.Fatalf("NES duty should clamp to the table, got %v", got)
	}
	if got := synth.SN76489.Duty(-127); math.Abs(float64(got-0.05)) > 1e-6 {
		t.Fatalf("SN76489 duty -127: got %v, expected 0.05", got)
	}
	if got := synth.Generic.Duty(127); math.Abs(float64(got-0.95)) > 1e-6 {
		t.Fatalf("Generic duty 127: got %v, expected 0.95", got)
	}
}

func TestColorIsPureAndBounded(t *testing.T) {
	for _, b := range []synth.Backend{synth.Generic, synth.GameBoy, synth.NES, synth.SN76489} {
		for x := float32(-1); x <= 1; x += 0.01 {
			y := b.Color(x)
			if y != b.Color(x) {
				t.Fatalf("%v: color is not deterministic at %v", b, x)
			}
			if y < -1 || y > 1 {
				t.Fatalf("%v: color(%v) = %v out of range", b, x, y)
			}
		}
	}
	if got := synth.Generic.Color(0.3); got != 0.3 {
		t.Fatalf("generic color should be identity, got %v", got)
	}
}

func TestOscillators(t *testing.T) {
	if got := synth.TriangleAt(0); got != -1 {
		t.Fatalf("triangle at phase 0: got %v, expected -1", got)
	}
	if got := synth.TriangleAt(math.MaxUint32 / 2); math.Abs(float64(got-1)) > 1e-3 {
		t.Fatalf("triangle at half phase: got %v, expected 1", got)
	}
	if synth.PulseAt(math.MaxUint32/10, 0.125) != 1 || synth.PulseAt(math.MaxUint32/5, 0.125) != -1 {
		t.Fatal("pulse should switch at the duty fraction")
	}
	if got := synth.NoteFrequency(69); got != 440 {
		t.Fatalf("A4 frequency: got %v, expected 440", got)
	}
}

func TestNoiseIsReproducible(t *testing.T) {
	a := synth.NewNoiseGen(60, 480, 48000)
	b := synth.NewNoiseGen(60, 480, 48000)
	c := synth.NewNoiseGen(61, 480, 48000)
	same, differs := true, false
	for i := 0; i < 4096; i++ {
		va, vb, vc := a.Next(), b.Next(), c.Next()
		if va != vb {
			same = false
		}
		if va != vc {
			differs = true
		}
	}
	if !same {
		t.Fatal("noise with the same seed should produce the same bitstream")
	}
	if !differs {
		t.Fatal("noise with different seeds should produce different bitstreams")
	}
}

func TestVoiceEnvelopeStartsAndEndsSilent(t *testing.T) {
	buf := make([]float32, 4800)
	v := synth.NewVoice(60, 127, 0, 4800, 48000)
	v.Render(buf)
	if buf[0] != 0 {
		t.Fatalf("first sample should be silent, got %v", buf[0])
	}
	var peak float32
	for _, s := range buf {
		peak = max(peak, float32(math.Abs(float64(s))))
	}
	if peak > synth.NoteGain+1e-6 || peak < synth.NoteGain/2 {
		t.Fatalf("peak %v should be near the note gain %v", peak, synth.NoteGain)
	}
}
