package fx

import "math"

// delayline is a circular buffer with a damped read-out.
type delayline struct {
	buffer []float32
	pos    int
	damp   onePole
}

func newDelayline(length int, damp onePole) *delayline {
	return &delayline{buffer: make([]float32, max(length, 1)), damp: damp}
}

// read returns the oldest sample and its damped version.
func (d *delayline) read() (raw, damped float32) {
	raw = d.buffer[d.pos]
	return raw, d.damp.process(raw)
}

func (d *delayline) write(v float32) {
	d.buffer[d.pos] = v
	d.pos++
	if d.pos >= len(d.buffer) {
		d.pos = 0
	}
}

func samplesFor(ms, sr float32) int {
	return int(math.Round(float64(ms) / 1000 * float64(sr)))
}

func delay(buf []float32, p params, sr float32) {
	line := newDelayline(samplesFor(p["time_ms"], sr), newOnePole(min(p["tone_hz"], sr*0.45), sr))
	feedback, mix := p["feedback"], p["mix"]
	for i, x := range buf {
		delayed, damped := line.read()
		line.write(x + feedback*damped)
		buf[i] = x*(1-mix) + delayed*mix
	}
}

var reverbRatios = [3]float32{1, 1.37, 1.91}

// reverb runs three cross-fed delay lines whose lengths scale with the room
// size. Each line is fed the input plus the damped output of the other two.
func reverb(buf []float32, p params, sr float32) {
	room, mix := p["room_size"], p["mix"]
	baseMs := 30 + 70*room
	feedback := 0.28 + 0.5*room
	widthGain := 0.5 + 0.5*p["width"]
	dampCutoff := min((1-p["damping"])*sr*0.45, sr*0.45)
	var lines [3]*delayline
	for i, r := range reverbRatios {
		lines[i] = newDelayline(samplesFor(baseMs*r, sr), newOnePole(max(dampCutoff, 20), sr))
	}
	var taps [3]float32
	for i, x := range buf {
		for j, l := range lines {
			_, taps[j] = l.read()
		}
		for j, l := range lines {
			other := taps[(j+1)%3] + taps[(j+2)%3]
			l.write(x + feedback*0.5*other)
		}
		wet := (taps[0] + taps[1] + taps[2]) / 3 * widthGain
		buf[i] = x*(1-mix) + wet*mix
	}
}
