package tracker

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/fx"
)

func gainParameterID(trackID uuid.UUID) string {
	return fmt.Sprintf("track:%v:gain_db", trackID)
}

func panParameterID(trackID uuid.UUID) string {
	return fmt.Sprintf("track:%v:pan", trackID)
}

func effectParameterID(trackID, effectID uuid.UUID, param string) string {
	return fmt.Sprintf("track:%v:effect:%v:%s", trackID, effectID, param)
}

// sanitizePoints drops points with non-finite values and orders the rest by
// tick.
func sanitizePoints(points []voltlane.AutomationPoint) []voltlane.AutomationPoint {
	ret := make([]voltlane.AutomationPoint, 0, len(points))
	for _, pt := range points {
		if v := float64(pt.Value); math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		ret = append(ret, pt)
	}
	slices.SortStableFunc(ret, func(a, b voltlane.AutomationPoint) int { return cmp.Compare(a.Tick, b.Tick) })
	return ret
}

// AddAutomationClip adds an automation clip to the track. An empty target
// automates the track's own gain.
func (m *Model) AddAutomationClip(trackID uuid.UUID, name string, startTick, lengthTicks uint64, target string, points []voltlane.AutomationPoint) (voltlane.Clip, error) {
	if target == "" {
		target = gainParameterID(trackID)
	}
	return m.AddClip(trackID, name, startTick, lengthTicks, &voltlane.AutomationClip{
		TargetParameterID: target,
		Points:            sanitizePoints(points),
	})
}

// UpsertAutomationClip replaces the points of an automation clip and, when
// target is non-nil and not empty, its target parameter.
func (m *Model) UpsertAutomationClip(trackID, clipID uuid.UUID, target *string, points []voltlane.AutomationPoint) (voltlane.Clip, error) {
	return m.editClip("UpsertAutomationClip", trackID, clipID, func(_ *voltlane.Project, c *voltlane.Clip) error {
		a, ok := c.Payload.(*voltlane.AutomationClip)
		if !ok {
			return invalid(ErrUnsupportedAutomationClip, "clip %v", clipID)
		}
		if target != nil && *target != "" {
			a.TargetParameterID = *target
		}
		a.Points = sanitizePoints(points)
		return nil
	})
}

// AutomationParameterIDs lists every automatable parameter of the project:
// the gain and pan of each track, and each parameter of each effect,
// including defaults that are not set explicitly.
func (m *Model) AutomationParameterIDs() []string {
	var ret []string
	for _, t := range m.project.Tracks {
		ret = append(ret, gainParameterID(t.ID), panParameterID(t.ID))
		for i := range t.Effects {
			e := &t.Effects[i]
			for _, name := range fx.ParamNames(e) {
				ret = append(ret, effectParameterID(t.ID, e.ID, name))
			}
		}
	}
	return ret
}
