package plan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runner executes a rendered script and returns its standard output. A script
// that ran but exited non-zero must yield an error exposing ExitCode() int.
type Runner interface {
	Run(ctx context.Context, dir, script string, env []string) ([]byte, error)
}

// ShellRunner runs scripts through a POSIX shell.
type ShellRunner struct {
	Shell  string
	Stdout io.Writer
	Stderr io.Writer
}

// NewShellRunner returns a runner using sh, echoing script output to stdout
// and stderr. Either writer may be nil.
func NewShellRunner(stdout, stderr io.Writer) *ShellRunner {
	return &ShellRunner{Shell: "sh", Stdout: stdout, Stderr: stderr}
}

func (r *ShellRunner) Run(ctx context.Context, dir, script string, env []string) ([]byte, error) {
	var out bytes.Buffer

	cmd := exec.CommandContext(ctx, r.Shell, "-c", script)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = &out
	if r.Stdout != nil {
		cmd.Stdout = io.MultiWriter(&out, r.Stdout)
	}
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		return out.Bytes(), fmt.Errorf("running %q: %w", firstLine(script), err)
	}
	return out.Bytes(), nil
}

func firstLine(script string) string {
	script = strings.TrimSpace(script)
	if i := strings.IndexByte(script, '\n'); i >= 0 {
		return script[:i] + " ..."
	}
	return script
}
