// Package tracker is the editing layer: every change to the live project goes
// through a Model, which validates the result before accepting it and keeps
// an undo history.
package tracker

import (
	"log/slog"

	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/routing"
)

// Model owns one live project. Each mutation is applied to a copy of the
// project, validated, and only then swapped in, so a failed operation leaves
// the project untouched.
//
// A Model is not safe for concurrent use.
type Model struct {
	project   voltlane.Project
	undoStack []voltlane.Project
	redoStack []voltlane.Project
	logger    *slog.Logger
}

const maxUndo = 64

// NewModel wraps p without validating it. Use Load or Replace for projects
// from outside; while p has an invalid routing graph every change fails.
func NewModel(p voltlane.Project, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{project: p, logger: logger}
}

// Project returns the live project. Callers must not modify it; use the
// Model methods instead.
func (m *Model) Project() *voltlane.Project {
	return &m.project
}

// Snapshot returns a deep copy of the live project.
func (m *Model) Snapshot() voltlane.Project {
	return m.project.Copy()
}

// NewProject replaces the live project with an empty one. History is kept,
// so the replacement can be undone.
func (m *Model) NewProject(title string, bpm float64, sampleRate uint32) error {
	return m.Replace(voltlane.NewProject(title, bpm, sampleRate))
}

// Replace swaps in a whole project, e.g. one loaded from disk. A project
// whose routing graph does not validate is rejected and the live project is
// kept.
func (m *Model) Replace(p voltlane.Project) error {
	if err := routing.Validate(p.Tracks); err != nil {
		m.logger.Debug("replace rejected", "project", p.ID, "error", err)
		return invalid(err, "replace project %v", p.ID)
	}
	m.pushUndo()
	m.project = p
	m.logger.Info("project replaced", "project", p.ID, "tracks", len(p.Tracks))
	return nil
}

// change applies fn to a candidate copy of the project and swaps the
// candidate in if fn succeeds and the routing graph stays valid.
func (m *Model) change(kind string, fn func(p *voltlane.Project) error) error {
	candidate := m.project.Copy()
	if err := fn(&candidate); err != nil {
		m.logger.Debug("change rejected", "kind", kind, "error", err)
		return err
	}
	if err := routing.Validate(candidate.Tracks); err != nil {
		m.logger.Debug("change rejected", "kind", kind, "error", err)
		return invalid(err, "%s", kind)
	}
	candidate.Touch()
	m.pushUndo()
	m.project = candidate
	m.logger.Info("project changed", "kind", kind, "project", candidate.ID)
	return nil
}

func (m *Model) pushUndo() {
	m.undoStack = append(m.undoStack, m.project)
	if len(m.undoStack) > maxUndo {
		m.undoStack = m.undoStack[len(m.undoStack)-maxUndo:]
	}
	m.redoStack = m.redoStack[:0]
}

func (m *Model) TogglePlayback(playing bool) error {
	return m.change("TogglePlayback", func(p *voltlane.Project) error {
		p.Transport.IsPlaying = playing
		return nil
	})
}

// SetLoopRegion sets the loop range. A range with end <= start is ignored
// and reported as false with a nil error.
func (m *Model) SetLoopRegion(start, end uint64, enabled bool) (bool, error) {
	if end <= start {
		m.logger.Warn("ignored invalid loop range", "start", start, "end", end)
		return false, nil
	}
	err := m.change("SetLoopRegion", func(p *voltlane.Project) error {
		p.Transport.LoopStartTick = start
		p.Transport.LoopEndTick = end
		p.Transport.LoopEnabled = enabled
		return nil
	})
	return err == nil, err
}
