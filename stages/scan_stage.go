package stages

import (
	"context"

	"github.com/opsforge/deployctl/pipeline"
)

// AllowsVulnerabilityBypass reports whether the environment may proceed
// despite blocking scan findings. The bypass is an explicit risk acceptance
// for non-production environments; production never bypasses.
func AllowsVulnerabilityBypass(environment string) bool {
	return environment == "dev" || environment == "staging"
}

// SecurityScanStage scans the built image for HIGH and CRITICAL
// vulnerabilities. Findings block a production deployment; in other
// environments they are logged and waved through.
type SecurityScanStage struct{}

func (s *SecurityScanStage) Name() string { return "security-scan" }

func (s *SecurityScanStage) Execute(ctx context.Context, dc *pipeline.DeployContext) error {
	res, err := dc.Runner.Run(ctx, "trivy", "image",
		"--severity", "HIGH,CRITICAL", "--exit-code", "1", dc.Image.String())
	if err != nil {
		return &pipeline.StageError{Stage: s.Name(), Reason: err.Error()}
	}
	if res.OK() {
		return nil
	}

	if AllowsVulnerabilityBypass(dc.Environment) {
		dc.ScanBypassed = true
		dc.Logger.Warn("proceeding despite vulnerabilities in non-production environment", map[string]any{
			"image": dc.Image.String(),
			"env":   dc.Environment,
		})
		return nil
	}
	return &pipeline.StageError{
		Stage:  s.Name(),
		Reason: "blocking vulnerabilities found",
		Output: res.Output,
	}
}
