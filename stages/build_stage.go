package stages

import (
	"context"
	"strings"

	"github.com/opsforge/deployctl/pipeline"
)

// BuildStage builds the container image, tags it with a content-derived tag
// (the first 8 characters of the commit identifier) and pushes it to the
// registry. The resulting ImageRef is the artifact consumed by the scan and
// manifest stages.
type BuildStage struct{}

func (s *BuildStage) Name() string { return "build" }

func (s *BuildStage) Execute(ctx context.Context, dc *pipeline.DeployContext) error {
	sha := dc.Settings.CommitSHA
	if sha == "" {
		// The revision query goes through QueryRunner so a dry run derives
		// the same tag a real run would.
		res, err := dc.QueryRunner().Run(ctx, "git", "rev-parse", "HEAD")
		if err != nil || !res.OK() {
			return &pipeline.StageError{
				Stage:  s.Name(),
				Reason: "resolving commit hash",
				Output: res.Output,
			}
		}
		sha = strings.TrimSpace(res.Output)
	}
	if len(sha) > 8 {
		sha = sha[:8]
	}
	if sha == "" {
		return &pipeline.StageError{Stage: s.Name(), Reason: "empty commit hash"}
	}

	image := pipeline.ImageRef{
		Registry: dc.Settings.Registry,
		Name:     dc.Service,
		Tag:      sha,
	}

	res, err := dc.Runner.Run(ctx, "docker", "build", "-t", image.Local(), ".")
	if err != nil {
		return &pipeline.StageError{Stage: s.Name(), Reason: err.Error()}
	}
	if !res.OK() {
		return &pipeline.StageError{Stage: s.Name(), Reason: "docker build failed", Output: res.Output}
	}

	for _, cmd := range [][]string{
		{"docker", "tag", image.Local(), image.String()},
		{"docker", "push", image.String()},
	} {
		res, err := dc.Runner.Run(ctx, cmd[0], cmd[1:]...)
		if err != nil {
			return &pipeline.StageError{Stage: s.Name(), Reason: err.Error()}
		}
		if !res.OK() {
			return &pipeline.StageError{
				Stage:  s.Name(),
				Reason: cmd[1] + " failed for " + image.String(),
				Output: res.Output,
			}
		}
	}

	dc.Image = image
	dc.Logger.Info("image built and pushed", map[string]any{"image": image.String()})
	return nil
}
