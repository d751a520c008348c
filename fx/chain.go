package fx

import (
	"log/slog"

	"github.com/voltlane/voltlane"
)

// Process runs the enabled effects over buf in list order, in place. Effects
// without a built-in processor are skipped.
func Process(buf []float32, effects []voltlane.Effect, sampleRate uint32, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	sr := float32(max(sampleRate, 1))
	for i := range effects {
		e := &effects[i]
		if !e.Enabled {
			continue
		}
		p := resolve(e)
		switch e.Kind() {
		case voltlane.EQEffect:
			eq(buf, p, sr)
		case voltlane.CompressorEffect:
			compress(buf, p, sr)
		case voltlane.DelayEffect:
			delay(buf, p, sr)
		case voltlane.ReverbEffect:
			reverb(buf, p, sr)
		case voltlane.LimiterEffect:
			limit(buf, p, sr)
		case voltlane.BitcrusherEffect:
			bitcrush(buf, p)
		default:
			logger.Debug("no built-in processor for effect", "effect", e.Name, "id", e.ID)
		}
	}
}
