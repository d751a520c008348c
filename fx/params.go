package fx

import (
	"sort"

	"github.com/voltlane/voltlane"
)

// Parameter documents one parameter of a built-in effect.
type Parameter struct {
	Name     string  // key in voltlane.Effect.Params
	Default  float32 // value used when the key is missing
	MinValue float32 // inclusive
	MaxValue float32 // inclusive
}

// Parameters lists the parameters of every built-in effect kind. Values
// outside [MinValue, MaxValue] are clamped at processing time.
var Parameters = map[voltlane.EffectKind][]Parameter{
	voltlane.EQEffect: {
		{Name: "low_cut_hz", Default: 200, MinValue: 20, MaxValue: 2000},
		{Name: "high_cut_hz", Default: 4000, MinValue: 500, MaxValue: 18000},
		{Name: "low_gain_db", Default: 2, MinValue: -24, MaxValue: 24},
		{Name: "mid_gain_db", Default: 0, MinValue: -24, MaxValue: 24},
		{Name: "high_gain_db", Default: -3, MinValue: -24, MaxValue: 24}},
	voltlane.CompressorEffect: {
		{Name: "threshold_db", Default: -18, MinValue: -60, MaxValue: 0},
		{Name: "ratio", Default: 4, MinValue: 1, MaxValue: 20},
		{Name: "attack_ms", Default: 10, MinValue: 0.1, MaxValue: 500},
		{Name: "release_ms", Default: 120, MinValue: 1, MaxValue: 5000},
		{Name: "makeup_db", Default: 6, MinValue: 0, MaxValue: 24}},
	voltlane.DelayEffect: {
		{Name: "time_ms", Default: 320, MinValue: 1, MaxValue: 2000},
		{Name: "feedback", Default: 0.35, MinValue: 0, MaxValue: 0.95},
		{Name: "mix", Default: 0.25, MinValue: 0, MaxValue: 1},
		{Name: "tone_hz", Default: 6000, MinValue: 200, MaxValue: 18000}},
	voltlane.ReverbEffect: {
		{Name: "room_size", Default: 0.6, MinValue: 0, MaxValue: 1},
		{Name: "damping", Default: 0.4, MinValue: 0, MaxValue: 0.99},
		{Name: "mix", Default: 0.2, MinValue: 0, MaxValue: 1},
		{Name: "width", Default: 1, MinValue: 0, MaxValue: 1}},
	voltlane.LimiterEffect: {
		{Name: "ceiling_db", Default: -1, MinValue: -30, MaxValue: 0},
		{Name: "release_ms", Default: 80, MinValue: 1, MaxValue: 2000}},
	voltlane.BitcrusherEffect: {
		{Name: "bits", Default: 8, MinValue: 1, MaxValue: 16},
		{Name: "downsample", Default: 4, MinValue: 1, MaxValue: 64},
		{Name: "mix", Default: 1, MinValue: 0, MaxValue: 1}},
}

// DefaultParams returns a fresh map of the default parameter values of kind.
// Unknown kinds have no parameters.
func DefaultParams(kind voltlane.EffectKind) map[string]float32 {
	ret := map[string]float32{}
	for _, p := range Parameters[kind] {
		ret[p.Name] = p.Default
	}
	return ret
}

// ParamNames returns the sorted union of the default parameter names of the
// effect's kind and the parameters set on the effect.
func ParamNames(e *voltlane.Effect) []string {
	seen := map[string]bool{}
	var ret []string
	for _, p := range Parameters[e.Kind()] {
		seen[p.Name] = true
		ret = append(ret, p.Name)
	}
	for name := range e.Params {
		if !seen[name] {
			ret = append(ret, name)
		}
	}
	sort.Strings(ret)
	return ret
}

// params resolves the clamped parameter values of an effect.
type params map[string]float32

func resolve(e *voltlane.Effect) params {
	ret := params{}
	for _, p := range Parameters[e.Kind()] {
		v := e.Param(p.Name, p.Default)
		if v != v { // NaN
			v = p.Default
		}
		ret[p.Name] = min(max(v, p.MinValue), p.MaxValue)
	}
	return ret
}
