package tracker

// CanUndo reports whether there is a change to undo.
func (m *Model) CanUndo() bool { return len(m.undoStack) > 0 }

func (m *Model) CanRedo() bool { return len(m.redoStack) > 0 }

// Undo restores the project as it was before the last change.
func (m *Model) Undo() bool {
	if len(m.undoStack) == 0 {
		return false
	}
	m.redoStack = append(m.redoStack, m.project)
	if len(m.redoStack) > maxUndo {
		m.redoStack = m.redoStack[len(m.redoStack)-maxUndo:]
	}
	m.project = m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	m.logger.Debug("undo", "remaining", len(m.undoStack))
	return true
}

// Redo reapplies the last undone change.
func (m *Model) Redo() bool {
	if len(m.redoStack) == 0 {
		return false
	}
	m.undoStack = append(m.undoStack, m.project)
	if len(m.undoStack) > maxUndo {
		m.undoStack = m.undoStack[len(m.undoStack)-maxUndo:]
	}
	m.project = m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.logger.Debug("redo", "remaining", len(m.redoStack))
	return true
}
