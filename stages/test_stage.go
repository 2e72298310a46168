// Package stages holds the concrete pipeline stage executors: test, build,
// security scan, manifest update, sync trigger, deployment wait, health
// verify and rollback.
package stages

import (
	"context"
	"fmt"

	"github.com/opsforge/deployctl/pipeline"
)

// TestStage runs the service's test suite: unit tests, integration tests,
// lint and type-check, in that order. The first failing sub-step fails the
// stage; later sub-steps are not attempted.
type TestStage struct{}

func (s *TestStage) Name() string { return "test" }

// testSteps is the fixed sub-step order of the platform test toolchain.
var testSteps = []struct {
	name string
	cmd  []string
}{
	{"unit tests", []string{"pytest", "tests/unit", "-v", "--cov=.", "--cov-report=xml"}},
	{"integration tests", []string{"pytest", "tests/integration", "-v"}},
	{"lint", []string{"flake8", ".", "--count", "--select=E9,F63,F7,F82", "--show-source", "--statistics"}},
	{"type check", []string{"mypy", ".", "--ignore-missing-imports"}},
}

func (s *TestStage) Execute(ctx context.Context, dc *pipeline.DeployContext) error {
	for _, step := range testSteps {
		res, err := dc.Runner.Run(ctx, step.cmd[0], step.cmd[1:]...)
		if err != nil {
			return &pipeline.StageError{Stage: s.Name(), Reason: fmt.Sprintf("%s: %v", step.name, err)}
		}
		if !res.OK() {
			return &pipeline.StageError{
				Stage:  s.Name(),
				Reason: step.name + " failed",
				Output: res.Output,
			}
		}
		dc.Logger.Debug("test step passed", map[string]any{"step": step.name})
	}
	return nil
}
