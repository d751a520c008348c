package meter

import "github.com/viterin/vek/vek32"

const oversamplingTaps = 12

// Polyphase coefficients of the 4x oversampling filter of ITU-R BS.1770
// annex 2.
var oversamplingCoeffs = [4][oversamplingTaps]float32{
	{0.0017089843750, 0.0109863281250, -0.0196533203125, 0.0332031250000, -0.0594482421875, 0.1373291015625, 0.9721679687500, -0.1022949218750, 0.0476074218750, -0.0266113281250, 0.0148925781250, -0.0083007812500},
	{-0.0291748046875, 0.0292968750000, -0.0517578125000, 0.0891113281250, -0.1665039062500, 0.4650878906250, 0.7797851562500, -0.2003173828125, 0.1015625000000, -0.0582275390625, 0.0330810546875, -0.0189208984375},
	{-0.0189208984375, 0.0330810546875, -0.058227539062, 0.1015625000000, -0.200317382812, 0.7797851562500, 0.4650878906250, -0.166503906250, 0.0891113281250, -0.051757812500, 0.0292968750000, -0.0291748046875},
	{-0.0083007812500, 0.0148925781250, -0.0266113281250, 0.0476074218750, -0.1022949218750, 0.9721679687500, 0.1373291015625, -0.0594482421875, 0.0332031250000, -0.0196533203125, 0.0109863281250, 0.0017089843750},
}

type oversampler struct {
	history   [oversamplingTaps - 1]float32
	tmp, tmp2 []float32
}

// oversample writes the 4x oversampled x into y and returns it. Phase q of
// output frame p is the convolution of x with row q of the coefficients:
// y[4p+q] = sum_j o[q][j] * x[p-j], where samples before x[0] come from
// the history of the previous call.
func (s *oversampler) oversample(x, y []float32) []float32 {
	setSliceLength(&s.tmp, len(x))
	setSliceLength(&s.tmp2, len(x))
	const h = oversamplingTaps - 1
	for q, coeffs := range oversamplingCoeffs {
		r := vek32.Zeros_Into(s.tmp2, len(x))
		for j, c := range coeffs {
			k := min(j, len(x))
			vek32.MulNumber_Into(s.tmp[:k], s.history[h-j:h-j+k], c)
			vek32.MulNumber_Into(s.tmp[k:], x[:len(x)-k], c)
			vek32.Add_Inplace(r, s.tmp[:len(x)])
		}
		for p, v := range r {
			y[p*4+q] = v
		}
	}
	z := min(len(x), h)
	copy(s.history[:h-z], s.history[z:h])
	copy(s.history[h-z:], x[len(x)-z:])
	return y[:len(x)*4]
}

type peaks struct {
	oversampler    oversampler
	sample         float32
	truePeak       float32
	abs, upsampled []float32
}

func (p *peaks) update(chunk []float32) {
	setSliceLength(&p.abs, len(chunk))
	setSliceLength(&p.upsampled, 4*len(chunk))
	p.sample = max(p.sample, vek32.Max(vek32.Abs_Into(p.abs, chunk)))
	o := p.oversampler.oversample(chunk, p.upsampled)
	vek32.Abs_Inplace(o)
	p.truePeak = max(p.truePeak, vek32.Max(o), p.sample)
}
