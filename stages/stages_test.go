package stages

import (
	"testing"
	"time"

	"github.com/opsforge/deployctl/config"
	"github.com/opsforge/deployctl/logging"
	"github.com/opsforge/deployctl/pipeline"
	"github.com/opsforge/deployctl/runner"
)

// newContext builds a DeployContext wired to the given runner.
func newContext(t *testing.T, env string, r runner.Runner) *pipeline.DeployContext {
	t.Helper()
	return &pipeline.DeployContext{
		RunID:       "test-run",
		Service:     "user-api",
		Environment: env,
		StartedAt:   time.Now(),
		WorkDir:     t.TempDir(),
		Settings: config.Settings{
			Registry:   "registry.company.com",
			BaseDomain: "company.com",
			CommitSHA:  "deadbeefcafe1234",
			Actor:      "ci-bot",
		},
		Runner: r,
		Logger: logging.Nop(),
	}
}

func asStageError(t *testing.T, err error) *pipeline.StageError {
	t.Helper()
	if err == nil {
		t.Fatal("expected a stage error")
	}
	se, ok := err.(*pipeline.StageError)
	if !ok {
		t.Fatalf("error type = %T, want *pipeline.StageError", err)
	}
	return se
}
