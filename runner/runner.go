// Package runner executes the external tools the pipeline drives
// (docker, git, kubectl, trivy and the service test toolchain).
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/opsforge/deployctl/logging"
)

// Result is the outcome of one external command: its exit status and the
// combined stdout/stderr output.
type Result struct {
	Status int
	Output string
}

// OK reports whether the command exited zero.
func (r Result) OK() bool { return r.Status == 0 }

// Runner runs one external command. Implementations decide whether the
// command actually executes (ExecRunner) or is only recorded (DryRunner).
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Display renders a command the way an operator would type it.
func Display(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// ExecRunner runs commands via os/exec. A nonzero exit is not an error: it is
// surfaced through Result.Status so stages can decide what failure means.
// The returned error is reserved for commands that could not be started.
type ExecRunner struct {
	Dir    string
	Logger logging.Logger
}

func (e *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	e.Logger.Debug("executing", map[string]any{"cmd": Display(name, args)})

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	res := Result{Output: out.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Status = exitErr.ExitCode()
			return res, nil
		}
		res.Status = -1
		return res, fmt.Errorf("running %s: %w", name, err)
	}
	return res, nil
}

// DryRunner records every command it is asked to run without executing
// anything. Each command is reported through the logger so an operator can
// see exactly what a real run would do.
type DryRunner struct {
	Logger   logging.Logger
	Commands []string
}

// DryRunOutput is the synthetic output every simulated command produces.
const DryRunOutput = "dry-run"

func (d *DryRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmdline := Display(name, args)
	d.Commands = append(d.Commands, cmdline)
	d.Logger.Info("dry-run: would execute", map[string]any{"cmd": cmdline})
	return Result{Status: 0, Output: DryRunOutput}, nil
}
