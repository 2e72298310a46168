package stages

import (
	"context"

	"github.com/opsforge/deployctl/pipeline"
)

// RollbackStage reverts the cluster workload to its previous revision via
// the rollout-undo operation. Rollback is attempted once and never retried.
type RollbackStage struct{}

func (s *RollbackStage) Name() string { return "rollback" }

func (s *RollbackStage) Execute(ctx context.Context, dc *pipeline.DeployContext) error {
	res, err := dc.Runner.Run(ctx, "kubectl", "rollout", "undo",
		"deployment/"+dc.Service, "-n", dc.Environment)
	if err != nil {
		return &pipeline.StageError{Stage: s.Name(), Reason: err.Error()}
	}
	if !res.OK() {
		return &pipeline.StageError{
			Stage:  s.Name(),
			Reason: "rollout undo failed",
			Output: res.Output,
		}
	}
	return nil
}
