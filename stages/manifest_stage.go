package stages

import (
	"context"
	"fmt"
	"time"

	"github.com/opsforge/deployctl/manifest"
	"github.com/opsforge/deployctl/pipeline"
)

// ManifestUpdateStage rewrites the environment manifest with the new image
// tag and deployment metadata, then commits and pushes the change. A missing
// manifest is fatal. A failed push fails the stage even though the local
// file mutation stands.
type ManifestUpdateStage struct{}

func (s *ManifestUpdateStage) Name() string { return "manifest-update" }

func (s *ManifestUpdateStage) Execute(ctx context.Context, dc *pipeline.DeployContext) error {
	path := dc.ManifestPath()
	doc, err := manifest.Load(path)
	if err != nil {
		return &pipeline.StageError{Stage: s.Name(), Reason: err.Error()}
	}

	doc.SetImageTag(dc.Image.Tag)
	doc.SetDeploymentMeta(dc.Settings.Actor, time.Now())

	if dc.DryRun {
		dc.Logger.Info("dry-run: would update manifest", map[string]any{
			"manifest": path,
			"tag":      dc.Image.Tag,
		})
	} else {
		if err := doc.Save(); err != nil {
			return &pipeline.StageError{Stage: s.Name(), Reason: err.Error()}
		}
		dc.Logger.Info("manifest updated", map[string]any{"manifest": path, "tag": dc.Image.Tag})
	}

	message := fmt.Sprintf("Deploy %s:%s to %s", dc.Service, dc.Image.Tag, dc.Environment)
	for _, cmd := range [][]string{
		{"git", "add", path},
		{"git", "commit", "-m", message},
		{"git", "push", "origin", "main"},
	} {
		res, err := dc.Runner.Run(ctx, cmd[0], cmd[1:]...)
		if err != nil {
			return &pipeline.StageError{Stage: s.Name(), Reason: err.Error()}
		}
		if !res.OK() {
			return &pipeline.StageError{
				Stage:  s.Name(),
				Reason: "git " + cmd[1] + " failed",
				Output: res.Output,
			}
		}
	}
	return nil
}
