// Package plan loads YAML workflow plans and turns them into compensating
// shell steps.
package plan

// Plan is the YAML workflow file format.
type Plan struct {
	Name  string         `yaml:"name"`
	Vars  map[string]any `yaml:"vars"`
	Steps []StepConfig   `yaml:"steps"`

	// Set by the loader, not from YAML.
	Dir      string `yaml:"-"`
	FilePath string `yaml:"-"`
}

// StepConfig defines a single step within a plan.
type StepConfig struct {
	Name    string   `yaml:"name"`
	Run     string   `yaml:"run"`
	Revert  string   `yaml:"revert,omitempty"`
	When    string   `yaml:"when,omitempty"`
	IfFiles []string `yaml:"if_files,omitempty"`
	Capture string   `yaml:"capture,omitempty"`
}

// State is the context threaded through the steps of one plan execution.
type State struct {
	Dir  string
	Vars map[string]any
}
