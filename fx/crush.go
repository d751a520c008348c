package fx

import "math"

// bitcrush holds every downsample-th sample and quantizes it to the given
// bit depth.
func bitcrush(buf []float32, p params) {
	hold := max(int(math.Round(float64(p["downsample"]))), 1)
	levels := float32(math.Exp2(math.Round(float64(p["bits"])) - 1))
	mix := p["mix"]
	var held float32
	for i, x := range buf {
		if i%hold == 0 {
			held = float32(math.Round(float64(x*levels))) / levels
		}
		buf[i] = x*(1-mix) + held*mix
	}
}
