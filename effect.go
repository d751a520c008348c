package voltlane

import (
	"maps"

	"github.com/google/uuid"
)

// Effect is one insert on a track's effect chain. Name selects the built-in
// processor; names without a built-in processor are kept but do nothing.
type Effect struct {
	ID      uuid.UUID          `json:"id" yaml:"id"`
	Name    string             `json:"name" yaml:"name"`
	Enabled bool               `json:"enabled" yaml:"enabled"`
	Params  map[string]float32 `json:"params" yaml:"params,omitempty"`
}

// EffectKind is the built-in processor an Effect name resolves to.
type EffectKind int

const (
	UnknownEffect EffectKind = iota
	EQEffect
	CompressorEffect
	DelayEffect
	ReverbEffect
	LimiterEffect
	BitcrusherEffect
)

var effectKindNames = map[string]EffectKind{
	"eq":         EQEffect,
	"compressor": CompressorEffect,
	"delay":      DelayEffect,
	"reverb":     ReverbEffect,
	"limiter":    LimiterEffect,
	"bitcrusher": BitcrusherEffect,
}

// ParseEffectKind matches name case-insensitively against the built-in set.
func ParseEffectKind(name string) EffectKind {
	return effectKindNames[Fold(name)]
}

func (k EffectKind) String() string {
	for name, kind := range effectKindNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

func NewEffect(name string) Effect {
	return Effect{
		ID:      uuid.New(),
		Name:    name,
		Enabled: true,
		Params:  map[string]float32{},
	}
}

func (e *Effect) Kind() EffectKind {
	return ParseEffectKind(e.Name)
}

func (e *Effect) Copy() Effect {
	ret := *e
	ret.Params = maps.Clone(e.Params)
	return ret
}

// Param returns the named parameter, or def when it is not set.
func (e *Effect) Param(name string, def float32) float32 {
	if v, ok := e.Params[name]; ok {
		return v
	}
	return def
}
