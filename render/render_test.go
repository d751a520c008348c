package render_test

import (
	"errors"
	"math"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/fixtures"
	"github.com/voltlane/voltlane/render"
)

const tail = 1.0

func meanAbsDiff(a, b []float32) float64 {
	n := max(min(len(a), len(b)), 1)
	var sum float64
	for i := 0; i < min(len(a), len(b)); i++ {
		sum += math.Abs(float64(a[i] - b[i]))
	}
	return sum / float64(n)
}

func peak(buf []float32) float32 {
	var ret float32
	for _, v := range buf {
		ret = max(ret, float32(math.Abs(float64(v))))
	}
	return ret
}

func midiProject(effects ...voltlane.Effect) voltlane.Project {
	p := voltlane.NewProject("FX Suite", 128, voltlane.DefaultSampleRate)
	t := voltlane.NewTrack("Lead", "#2ad9b8", voltlane.MidiTrack)
	t.Effects = effects
	t.Clips = []voltlane.Clip{{
		ID:          uuid.New(),
		Name:        "phrase",
		LengthTicks: 1920,
		Payload: &voltlane.MidiClip{Notes: []voltlane.MidiNote{
			{Pitch: 60, Velocity: 120, StartTick: 0, LengthTicks: 960},
			{Pitch: 67, Velocity: 120, StartTick: 240, LengthTicks: 960},
			{Pitch: 72, Velocity: 120, StartTick: 480, LengthTicks: 960},
		}},
	}}
	p.Tracks = append(p.Tracks, t)
	return p
}

func chipProject(chip string, lane voltlane.MacroLane) voltlane.Project {
	p := voltlane.NewProject("Chip "+chip, 132, voltlane.DefaultSampleRate)
	t := voltlane.NewTrack("Chip", "#f57f20", voltlane.ChipTrack)
	t.Clips = []voltlane.Clip{{
		ID:          uuid.New(),
		Name:        "chip-pattern",
		LengthTicks: 1920,
		Payload: &voltlane.PatternClip{
			SourceChip:   chip,
			LinesPerBeat: 8,
			Macros:       []voltlane.MacroLane{lane},
			Notes: []voltlane.MidiNote{
				{Pitch: 48, Velocity: 112, StartTick: 0, LengthTicks: 360},
				{Pitch: 55, Velocity: 108, StartTick: 360, LengthTicks: 360},
				{Pitch: 60, Velocity: 106, StartTick: 720, LengthTicks: 360},
			},
		},
	}}
	p.Tracks = append(p.Tracks, t)
	return p
}

func dutyLane(loop bool, values ...int16) voltlane.MacroLane {
	lane := voltlane.MacroLane{Target: voltlane.MacroDuty, Enabled: true, Values: values}
	if loop {
		start, end := 0, len(values)-1
		lane.LoopStart, lane.LoopEnd = &start, &end
	}
	return lane
}

func TestLength(t *testing.T) {
	p := voltlane.NewProject("Empty", 120, 0)
	if got := render.SampleRate(&p); got != render.MinSampleRate {
		t.Fatalf("sample rate: got %v, expected %v", got, render.MinSampleRate)
	}
	if got := len(render.Render(&p, 0)); got != render.MinSampleRate {
		t.Fatalf("empty project should render one second, got %v frames", got)
	}
	m := midiProject()
	expected := int(voltlane.TicksToSamples(1920, 128, voltlane.DefaultPPQ, voltlane.DefaultSampleRate)) + int(voltlane.DefaultSampleRate)
	if got := render.Length(&m, tail); got != expected {
		t.Fatalf("length: got %v, expected %v", got, expected)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	p := fixtures.Demo()
	a := render.Render(&p, tail)
	b := render.Render(&p, tail)
	if d := meanAbsDiff(a, b); d != 0 {
		t.Fatalf("two renders differ by %v", d)
	}
	if peak(a) == 0 {
		t.Fatal("demo rendered silence")
	}
}

func TestAcyclicRoutingRenders(t *testing.T) {
	p := midiProject()
	bus := voltlane.NewTrack("Bus", "#ffaa66", voltlane.BusTrack)
	bus.Effects = []voltlane.Effect{voltlane.NewEffect("reverb")}
	p.Tracks = append(p.Tracks, bus)
	p.Tracks[0].OutputBus = &bus.ID
	buf := render.Render(&p, tail)
	if len(buf) < int(voltlane.DefaultSampleRate) {
		t.Fatalf("got %v frames, expected at least one second", len(buf))
	}
	if peak(buf) == 0 {
		t.Fatal("signal routed through a bus was lost")
	}
	for i, v := range buf {
		if v > 1 || v < -1 {
			t.Fatalf("sample %v out of range: %v", i, v)
		}
	}
}

func TestMutedBusSilencesItsInputs(t *testing.T) {
	p := midiProject()
	bus := voltlane.NewTrack("Bus", "#ffaa66", voltlane.BusTrack)
	bus.Mute = true
	p.Tracks = append(p.Tracks, bus)
	p.Tracks[0].OutputBus = &bus.ID
	if got := peak(render.Render(&p, tail)); got != 0 {
		t.Fatalf("muted bus output: got peak %v, expected 0", got)
	}
}

func TestMissingBusFallsBackToMaster(t *testing.T) {
	direct := midiProject()
	routed := midiProject()
	missing := uuid.New()
	routed.Tracks[0].OutputBus = &missing
	routed.Tracks[0].Sends = []voltlane.Send{{ID: uuid.New(), TargetBus: uuid.New(), Enabled: true}}
	if d := meanAbsDiff(render.Render(&direct, tail), render.Render(&routed, tail)); d != 0 {
		t.Fatalf("route to missing bus changed output by %v", d)
	}
}

func TestSendAddsSignal(t *testing.T) {
	dry := midiProject()
	dry.Tracks = append(dry.Tracks, voltlane.NewTrack("Bus", "#ffaa66", voltlane.BusTrack))
	wet := dry.Copy()
	wet.Tracks[0].Sends = []voltlane.Send{{ID: uuid.New(), TargetBus: wet.Tracks[1].ID, LevelDB: -6, PreFader: true, Enabled: true}}
	a, b := render.Render(&dry, tail), render.Render(&wet, tail)
	if peak(b) <= peak(a) {
		t.Fatalf("send should raise the peak, got %v, dry %v", peak(b), peak(a))
	}
	wet.Tracks[0].Sends[0].Enabled = false
	if d := meanAbsDiff(a, render.Render(&wet, tail)); d != 0 {
		t.Fatalf("disabled send changed output by %v", d)
	}
}

func TestPostFaderSendFollowsFader(t *testing.T) {
	p := midiProject()
	p.Tracks = append(p.Tracks, voltlane.NewTrack("Bus", "#ffaa66", voltlane.BusTrack))
	p.Tracks[0].GainDB = -96
	p.Tracks[0].Sends = []voltlane.Send{{ID: uuid.New(), TargetBus: p.Tracks[1].ID, PreFader: true, Enabled: true}}
	pre := peak(render.Render(&p, tail))
	p.Tracks[0].Sends[0].PreFader = false
	post := peak(render.Render(&p, tail))
	if pre < 0.1 {
		t.Fatalf("pre-fader send peak: got %v, expected at least 0.1", pre)
	}
	if post > 0.001 {
		t.Fatalf("post-fader send from a -96 dB track: got peak %v, expected at most 0.001", post)
	}
}

func TestTrackFader(t *testing.T) {
	quiet := midiProject()
	quiet.Tracks[0].GainDB = -12
	louder := midiProject()
	louder.Tracks[0].GainDB = -6
	panned := midiProject()
	panned.Tracks[0].GainDB = -12
	panned.Tracks[0].Pan = 0.5
	base := peak(render.Render(&quiet, tail))
	if base == 0 {
		t.Fatal("track rendered silence")
	}
	for _, c := range []struct {
		name     string
		project  voltlane.Project
		expected float32
	}{
		{"gain", louder, voltlane.DBToGain(6)},
		{"pan", panned, voltlane.PanGain(0.5)},
	} {
		if got := peak(render.Render(&c.project, tail)) / base; math.Abs(float64(got-c.expected)) > 1e-3 {
			t.Errorf("%v ratio: got %v, expected %v", c.name, got, c.expected)
		}
	}
}

func TestNonFiniteTrackIsSilenced(t *testing.T) {
	clean := midiProject()
	broken := midiProject()
	other := broken.Tracks[0].Copy()
	other.ID = uuid.New()
	other.GainDB = float32(math.NaN())
	broken.Tracks = append(broken.Tracks, other)
	buf := render.Render(&broken, tail)
	for i, v := range buf {
		if math.IsNaN(float64(v)) {
			t.Fatalf("sample %v is NaN", i)
		}
	}
	if d := meanAbsDiff(render.Render(&clean, tail), buf); d != 0 {
		t.Fatalf("NaN track changed the other tracks by %v", d)
	}
}

func TestChipBackendsDiffer(t *testing.T) {
	gb := chipProject("gameboy_apu", dutyLane(true, 0, 1, 2, 3))
	nes := chipProject("nes_2a03_pulse", dutyLane(true, 3, 2, 1, 0))
	if d := meanAbsDiff(render.Render(&gb, tail), render.Render(&nes, tail)); d <= 0.005 {
		t.Fatalf("backend renders differ by %v, expected more than 0.005", d)
	}
}

func TestDutyMacroChangesWaveform(t *testing.T) {
	low := chipProject("gameboy_apu", dutyLane(false, 0))
	high := chipProject("gameboy_apu", dutyLane(false, 3))
	if d := meanAbsDiff(render.Render(&low, tail), render.Render(&high, tail)); d <= 0.002 {
		t.Fatalf("duty renders differ by %v, expected more than 0.002", d)
	}
}

func TestNoiseIsReproducible(t *testing.T) {
	p := chipProject("sn76489_noise", dutyLane(false, 0))
	a, b := render.Render(&p, tail), render.Render(&p, tail)
	if d := meanAbsDiff(a, b); d != 0 {
		t.Fatalf("noise renders differ by %v", d)
	}
	tone := chipProject("sn76489_tone", dutyLane(false, 0))
	if d := meanAbsDiff(a, render.Render(&tone, tail)); d == 0 {
		t.Fatal("noise channel rendered the same as the tone channel")
	}
}

func TestNoiseMacroLane(t *testing.T) {
	lane := func(v int16) voltlane.MacroLane {
		return voltlane.MacroLane{Target: voltlane.MacroNoise, Enabled: true, Values: []int16{v}}
	}
	off := chipProject("gameboy_apu", lane(0))
	on := chipProject("gameboy_apu", lane(1))
	if d := meanAbsDiff(render.Render(&off, tail), render.Render(&on, tail)); d <= 0.005 {
		t.Fatalf("noise lane changed output by %v, expected more than 0.005", d)
	}
}

func TestEffectChainChangesOutput(t *testing.T) {
	dry := midiProject()
	wet := midiProject(
		voltlane.NewEffect("eq"),
		voltlane.NewEffect("compressor"),
		voltlane.NewEffect("delay"),
		voltlane.NewEffect("reverb"),
		voltlane.NewEffect("bitcrusher"),
	)
	if d := meanAbsDiff(render.Render(&dry, tail), render.Render(&wet, tail)); d <= 0.005 {
		t.Fatalf("effect chain changed output by %v, expected more than 0.005", d)
	}
}

func TestLimiterReducesPeak(t *testing.T) {
	limiter := voltlane.NewEffect("limiter")
	limiter.Params["ceiling_db"] = -10
	limiter.Params["release_ms"] = 50
	dry := midiProject()
	limited := midiProject(limiter)
	dryPeak := peak(render.Render(&dry, tail))
	limitedPeak := peak(render.Render(&limited, tail))
	if limitedPeak >= dryPeak {
		t.Fatalf("limited peak %v should be below dry peak %v", limitedPeak, dryPeak)
	}
	if limitedPeak > 0.4 {
		t.Fatalf("limited peak: got %v, expected at most 0.4", limitedPeak)
	}
}

type fakeDecoder struct {
	audio voltlane.DecodedAudio
	err   error
	calls map[string]int
}

func (f *fakeDecoder) Decode(path string) (voltlane.DecodedAudio, error) {
	f.calls[path]++
	return f.audio, f.err
}

// audioProject places one beat long clips of the same source at beats 0
// and 2, at 120 bpm so that a beat is exactly half a second.
func audioProject(setup func(*voltlane.AudioClip)) voltlane.Project {
	p := voltlane.NewProject("Audio", 120, voltlane.DefaultSampleRate)
	t := voltlane.NewTrack("Audio", "#7ac74f", voltlane.AudioTrack)
	for _, start := range []uint64{0, 960} {
		a := &voltlane.AudioClip{SourcePath: "loop.wav", StretchRatio: 1}
		setup(a)
		t.Clips = append(t.Clips, voltlane.Clip{ID: uuid.New(), Name: "loop", StartTick: start, LengthTicks: 480, Payload: a})
	}
	p.Tracks = append(p.Tracks, t)
	return p
}

func rampDecoder() *fakeDecoder {
	samples := make([]float32, voltlane.DefaultSampleRate/2)
	for i := range samples {
		samples[i] = 0.5 * float32(i) / float32(len(samples)-1)
	}
	return &fakeDecoder{
		audio: voltlane.DecodedAudio{SampleRate: voltlane.DefaultSampleRate, Channels: 1, Samples: samples},
		calls: map[string]int{},
	}
}

func TestAudioClipPlacement(t *testing.T) {
	dec := rampDecoder()
	p := audioProject(func(*voltlane.AudioClip) {})
	buf := render.Render(&p, tail, render.WithDecoder(dec))
	if dec.calls["loop.wav"] != 1 {
		t.Fatalf("source decoded %v times, expected once", dec.calls["loop.wav"])
	}
	const beat = int(voltlane.DefaultSampleRate / 2)
	if math.Abs(float64(buf[beat-1]-0.5)) > 1e-3 {
		t.Fatalf("end of clip: got %v, expected 0.5", buf[beat-1])
	}
	if buf[beat+beat/2] != 0 {
		t.Fatalf("gap between clips should be silent, got %v", buf[beat+beat/2])
	}
	if math.Abs(float64(buf[2*beat+beat/2]-0.25)) > 1e-3 {
		t.Fatalf("middle of second clip: got %v, expected 0.25", buf[2*beat+beat/2])
	}
}

func TestAudioClipReverseAndFades(t *testing.T) {
	const beat = int(voltlane.DefaultSampleRate / 2)
	reversed := render.Render(ptr(audioProject(func(a *voltlane.AudioClip) { a.Reverse = true })), tail, render.WithDecoder(rampDecoder()))
	if math.Abs(float64(reversed[0]-0.5)) > 1e-3 || math.Abs(float64(reversed[beat-1])) > 1e-3 {
		t.Fatalf("reversed clip: got %v..%v, expected 0.5..0", reversed[0], reversed[beat-1])
	}
	faded := render.Render(ptr(audioProject(func(a *voltlane.AudioClip) {
		a.FadeInSeconds = 0.1
		a.FadeOutSeconds = 0.1
	})), tail, render.WithDecoder(rampDecoder()))
	if faded[0] != 0 || math.Abs(float64(faded[beat-1])) > 1e-6 {
		t.Fatalf("faded clip edges: got %v and %v, expected 0", faded[0], faded[beat-1])
	}
	if math.Abs(float64(faded[beat/2]-0.25)) > 1e-3 {
		t.Fatalf("faded clip middle: got %v, expected 0.25", faded[beat/2])
	}
}

func TestAudioClipTrim(t *testing.T) {
	buf := render.Render(ptr(audioProject(func(a *voltlane.AudioClip) {
		a.TrimStartSeconds = 0.25
	})), tail, render.WithDecoder(rampDecoder()))
	if math.Abs(float64(buf[0]-0.25)) > 1e-3 {
		t.Fatalf("trimmed clip start: got %v, expected 0.25", buf[0])
	}
}

func TestAudioClipSourceDuration(t *testing.T) {
	const beat = int(voltlane.DefaultSampleRate / 2)
	buf := render.Render(ptr(audioProject(func(a *voltlane.AudioClip) {
		a.SourceDurationSeconds = 0.25
	})), tail, render.WithDecoder(rampDecoder()))
	if math.Abs(float64(buf[beat-1]-0.25)) > 1e-3 {
		t.Fatalf("end of clip: got %v, expected 0.25", buf[beat-1])
	}
}

func TestUndecodableAudioIsSkipped(t *testing.T) {
	dec := &fakeDecoder{err: errors.New("corrupt"), calls: map[string]int{}}
	p := audioProject(func(*voltlane.AudioClip) {})
	buf := render.Render(&p, tail, render.WithDecoder(dec))
	if got := peak(buf); got != 0 {
		t.Fatalf("undecodable source should render silence, got peak %v", got)
	}
	if dec.calls["loop.wav"] != 1 {
		t.Fatalf("failed source decoded %v times, expected once", dec.calls["loop.wav"])
	}
}

func ptr(p voltlane.Project) *voltlane.Project {
	return &p
}

func budget(t *testing.T, key string, fallback time.Duration) time.Duration {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		t.Fatalf("could not parse %v: %v", key, err)
	}
	return time.Duration(ms) * time.Millisecond
}

func TestRenderWithinBudget(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping performance budget in short mode")
	}
	p := fixtures.Stress(8, 48, 48)
	limit := budget(t, "VOLTLANE_PERF_RENDER_BUDGET_MS", 20*time.Second)
	start := time.Now()
	buf := render.Render(&p, tail)
	if elapsed := time.Since(start); elapsed > limit {
		t.Fatalf("render took %v, budget %v", elapsed, limit)
	}
	if len(buf) == 0 {
		t.Fatal("stress project rendered no frames")
	}
}
