package cmd

import (
	"fmt"

	"github.com/voltlane/voltlane"
	"github.com/voltlane/voltlane/fixtures"
	"github.com/voltlane/voltlane/tracker"
)

// DemoArg can be given instead of a project path to use the built-in demo.
const DemoArg = "demo"

// LoadProject reads a .json or .yml project, or returns the demo project
// for DemoArg.
func LoadProject(arg string) (voltlane.Project, error) {
	if arg == DemoArg {
		return fixtures.Demo(), nil
	}
	p, err := tracker.LoadProject(arg)
	if err != nil {
		return voltlane.Project{}, fmt.Errorf("could not load project %v: %w", arg, err)
	}
	return p, nil
}
