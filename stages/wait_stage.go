package stages

import (
	"context"
	"fmt"
	"time"

	"github.com/opsforge/deployctl/pipeline"
)

// defaultRolloutTimeout bounds how long a rollout may take to stabilize.
const defaultRolloutTimeout = 10 * time.Minute

// DeploymentWaitStage blocks until the cluster reports the rollout stable,
// within a bounded timeout. A timeout or nonzero status is a stage failure.
type DeploymentWaitStage struct {
	Timeout time.Duration
}

func (s *DeploymentWaitStage) Name() string { return "deployment-wait" }

func (s *DeploymentWaitStage) Execute(ctx context.Context, dc *pipeline.DeployContext) error {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = defaultRolloutTimeout
	}

	// kubectl enforces the timeout itself; the context bound is a backstop
	// in case the command hangs without honoring it.
	waitCtx, cancel := context.WithTimeout(ctx, timeout+time.Minute)
	defer cancel()

	res, err := dc.Runner.Run(waitCtx, "kubectl", "rollout", "status",
		"deployment/"+dc.Service,
		"-n", dc.Environment,
		fmt.Sprintf("--timeout=%ds", int(timeout.Seconds())))
	if err != nil {
		return &pipeline.StageError{Stage: s.Name(), Reason: err.Error()}
	}
	if !res.OK() {
		return &pipeline.StageError{
			Stage:  s.Name(),
			Reason: "rollout did not stabilize",
			Output: res.Output,
		}
	}
	return nil
}
