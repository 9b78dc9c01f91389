package plan

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/tobbstr/saga"
)

// Workflow builds a saga workflow running every step of the plan.
func (p *Plan) Workflow(runner Runner) *saga.Workflow[*State] {
	return saga.New[*State](p.Name).Add(Build(p, runner)...)
}

// Build converts the plan's step configs into executable steps.
func Build(p *Plan, runner Runner) []saga.Step[*State] {
	steps := make([]saga.Step[*State], 0, len(p.Steps))
	for _, cfg := range p.Steps {
		step := saga.Step[*State]{
			Name: cfg.Name,
			Run:  action(cfg.Name, cfg.Run, cfg.Capture, runner),
		}
		if cfg.Revert != "" {
			step.Revert = action(cfg.Name+".revert", cfg.Revert, "", runner)
		}

		var filters []saga.Filter[*State]
		if len(cfg.IfFiles) > 0 {
			filters = append(filters, filesFilter(cfg.IfFiles))
		}
		if cfg.When != "" {
			filters = append(filters, whenFilter(cfg.Name+".when", cfg.When, runner))
		}
		if len(filters) > 0 {
			step.Filter = saga.AllOf(filters...)
		}

		steps = append(steps, step)
	}
	return steps
}

func action(name, text, capture string, runner Runner) saga.Func[*State] {
	return func(ctx context.Context, s *State) error {
		script, err := render(name, text, s.Vars)
		if err != nil {
			return err
		}

		out, err := runner.Run(ctx, s.Dir, script, environ(s.Vars))
		if err != nil {
			return err
		}

		if capture != "" {
			s.Vars[capture] = strings.TrimSpace(string(out))
		}
		return nil
	}
}

// whenFilter runs the guard script; a clean non-zero exit means skip.
func whenFilter(name, text string, runner Runner) saga.Filter[*State] {
	return func(ctx context.Context, s *State) (bool, error) {
		script, err := render(name, text, s.Vars)
		if err != nil {
			return false, err
		}

		_, err = runner.Run(ctx, s.Dir, script, environ(s.Vars))
		var exit interface{ ExitCode() int }
		switch {
		case err == nil:
			return true, nil
		case errors.As(err, &exit) && exit.ExitCode() > 0:
			return false, nil
		default:
			return false, fmt.Errorf("evaluating when: %w", err)
		}
	}
}

// filesFilter passes when any pattern matches at least one path under the
// state directory.
func filesFilter(patterns []string) saga.Filter[*State] {
	return func(_ context.Context, s *State) (bool, error) {
		fsys := os.DirFS(s.Dir)
		for _, pattern := range patterns {
			matches, err := doublestar.Glob(fsys, pattern)
			if err != nil {
				return false, fmt.Errorf("glob %q: %w", pattern, err)
			}
			if len(matches) > 0 {
				return true, nil
			}
		}
		return false, nil
	}
}

func render(name, text string, vars map[string]any) (string, error) {
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, vars); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return sb.String(), nil
}

// environ returns the process environment extended with every variable whose
// name is a valid shell identifier, in sorted order.
func environ(vars map[string]any) []string {
	env := os.Environ()
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		if !identifier.MatchString(k) {
			continue
		}
		env = append(env, k+"="+fmt.Sprint(vars[k]))
	}
	return env
}
