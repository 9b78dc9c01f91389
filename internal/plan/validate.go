package plan

import (
	"fmt"
	"regexp"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/bmatcuk/doublestar/v4"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the plan configuration for errors.
func (p *Plan) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("plan name is required")
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan has no steps")
	}

	names := make(map[string]int)
	for i, step := range p.Steps {
		if step.Name == "" {
			return fmt.Errorf("step %d: name is required", i)
		}
		if prev, exists := names[step.Name]; exists {
			return fmt.Errorf("step %d: duplicate step name %q (first defined at step %d)", i, step.Name, prev)
		}
		names[step.Name] = i

		if err := validateStep(step); err != nil {
			return fmt.Errorf("step %q: %w", step.Name, err)
		}
	}

	return nil
}

func validateStep(step StepConfig) error {
	if step.Run == "" {
		return fmt.Errorf("run is required")
	}
	if step.Capture != "" && !identifier.MatchString(step.Capture) {
		return fmt.Errorf("capture %q is not a valid identifier", step.Capture)
	}
	for field, text := range map[string]string{"run": step.Run, "revert": step.Revert, "when": step.When} {
		if _, err := template.New(field).Funcs(sprig.TxtFuncMap()).Parse(text); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	for _, pattern := range step.IfFiles {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("if_files pattern %q is not valid", pattern)
		}
	}
	return nil
}
