package tracker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/voltlane/voltlane"
)

// SaveProject writes the project as json if the path ends in .json and as
// yaml otherwise. The file is written to a temporary file next to path and
// renamed over it, so a crash never leaves a half written project behind.
func SaveProject(path string, p *voltlane.Project) error {
	var contents []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		contents, err = json.MarshalIndent(p, "", "  ")
	} else {
		contents, err = yaml.Marshal(p)
	}
	if err != nil {
		return fmt.Errorf("could not marshal project: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create directory %v: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".voltlane-*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary project file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write temporary project file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not close temporary project file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not persist project %v: %w", path, err)
	}
	slog.Info("project saved", "path", path, "project", p.ID)
	return nil
}

// LoadProject reads a project saved by SaveProject. The contents are tried
// as json first and as yaml second, regardless of the file extension.
func LoadProject(path string) (voltlane.Project, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return voltlane.Project{}, fmt.Errorf("could not read project %v: %w", path, err)
	}
	return ParseProject(b)
}

func ParseProject(b []byte) (voltlane.Project, error) {
	var p voltlane.Project
	errJSON := json.Unmarshal(b, &p)
	if errJSON == nil {
		return p, nil
	}
	p = voltlane.Project{}
	if errYaml := yaml.Unmarshal(b, &p); errYaml != nil {
		return voltlane.Project{}, fmt.Errorf("project is neither json (%v) nor yaml (%v)", errJSON, errYaml)
	}
	return p, nil
}

// AutosaveFileName is the name of the autosave file of a project.
func AutosaveFileName(p *voltlane.Project) string {
	return fmt.Sprintf("%v.autosave.voltlane.json", p.ID)
}

// Autosave saves the project into dir and returns the file path.
func Autosave(p *voltlane.Project, dir string) (string, error) {
	path := filepath.Join(dir, AutosaveFileName(p))
	if err := SaveProject(path, p); err != nil {
		return "", err
	}
	return path, nil
}

func (m *Model) Save(path string) error {
	return SaveProject(path, &m.project)
}

// Load replaces the live project with the one stored at path.
func (m *Model) Load(path string) error {
	p, err := LoadProject(path)
	if err != nil {
		return err
	}
	if err := m.Replace(p); err != nil {
		return fmt.Errorf("could not load %v: %w", path, err)
	}
	return nil
}

func (m *Model) Autosave(dir string) (string, error) {
	return Autosave(&m.project, dir)
}
