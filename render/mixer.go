package render

import (
	"log/slog"
	"maps"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/viterin/vek/vek32"
	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/fx"
	"github.com/voltlane/voltlane/routing"
)

// mixer accumulates signal routed to buses that have not been processed
// yet.
type mixer struct {
	frames  int
	index   map[uuid.UUID]int
	pending map[int][]float32
	scratch []float32
}

func (m *mixer) send(to int, src []float32, gain float32) {
	buf, ok := m.pending[to]
	if !ok {
		buf = make([]float32, m.frames)
		m.pending[to] = buf
	}
	vek32.MulNumber_Into(m.scratch, src, gain)
	vek32.Add_Inplace(buf, m.scratch)
}

// mix processes the tracks in routing order and returns the clamped master
// buffer. dry holds the dry buffer of each audible track, nil otherwise.
func mix(p *voltlane.Project, dry [][]float32, frames int, logger *slog.Logger) []float32 {
	sr := SampleRate(p)
	master := make([]float32, frames)
	m := mixer{
		frames:  frames,
		index:   make(map[uuid.UUID]int, len(p.Tracks)),
		pending: map[int][]float32{},
		scratch: make([]float32, frames),
	}
	for i, t := range p.Tracks {
		m.index[t.ID] = i
	}
	for _, i := range routing.Order(p.Tracks, logger) {
		t := &p.Tracks[i]
		input, routed := m.pending[i]
		delete(m.pending, i)
		if !t.Audible() {
			continue
		}
		working := dry[i]
		if routed {
			vek32.Add_Inplace(working, input)
		}
		fx.Process(working, t.Effects, sr, logger)
		zeroNonFinite(working, t.ID, logger)
		post := vek32.MulNumber(working, voltlane.DBToGain(t.GainDB)*voltlane.PanGain(t.Pan))
		zeroNonFinite(post, t.ID, logger)
		if to, ok := m.target(t.OutputBus); ok {
			m.send(to, post, 1)
		} else {
			vek32.Add_Inplace(master, post)
		}
		for _, s := range t.Sends {
			if !s.Enabled {
				continue
			}
			to, ok := m.index[s.TargetBus]
			if !ok {
				continue
			}
			src := post
			if s.PreFader {
				src = working
			}
			m.send(to, src, voltlane.DBToGain(s.LevelDB)*voltlane.PanGain(s.Pan))
		}
	}
	orphans := slices.Sorted(maps.Keys(m.pending))
	for _, i := range orphans {
		logger.Warn("bus input was never processed, folding into master", "track", p.Tracks[i].ID)
		vek32.Add_Inplace(master, m.pending[i])
	}
	vek32.MinimumNumber_Inplace(master, 1)
	vek32.MaximumNumber_Inplace(master, -1)
	return master
}

func (m *mixer) target(bus *uuid.UUID) (int, bool) {
	if bus == nil {
		return 0, false
	}
	i, ok := m.index[*bus]
	return i, ok
}

// zeroNonFinite replaces NaN and infinite samples of a track with silence.
func zeroNonFinite(buf []float32, track uuid.UUID, logger *slog.Logger) {
	n := 0
	for i, v := range buf {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			buf[i] = 0
			n++
		}
	}
	if n > 0 {
		logger.Warn("zeroed non-finite samples", "track", track, "samples", n)
	}
}
