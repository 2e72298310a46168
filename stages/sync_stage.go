package stages

import (
	"context"

	"github.com/opsforge/deployctl/argocd"
	"github.com/opsforge/deployctl/pipeline"
)

// SyncTriggerStage asks the GitOps controller to reconcile the application.
// An unconfigured controller is optional infrastructure: the stage skips
// with success. A rejected sync request fails the stage.
type SyncTriggerStage struct {
	Client *argocd.Client
}

func (s *SyncTriggerStage) Name() string { return "sync-trigger" }

func (s *SyncTriggerStage) Execute(ctx context.Context, dc *pipeline.DeployContext) error {
	if !s.Client.Configured() {
		dc.Logger.Warn("argocd not configured, skipping sync trigger", nil)
		return nil
	}

	app := dc.AppName()
	if err := s.Client.Sync(ctx, app, dc.DryRun); err != nil {
		return &pipeline.StageError{Stage: s.Name(), Reason: err.Error()}
	}
	dc.Logger.Info("sync triggered", map[string]any{"app": app})
	return nil
}
