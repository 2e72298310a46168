package pipeline

import (
	"path/filepath"
	"time"

	"github.com/opsforge/deployctl/config"
	"github.com/opsforge/deployctl/logging"
	"github.com/opsforge/deployctl/runner"
)

// ImageRef identifies a built container image: registry, name and
// content-derived tag.
type ImageRef struct {
	Registry string
	Name     string
	Tag      string
}

// String renders the full image reference understood by the container tooling.
func (r ImageRef) String() string {
	if r.Registry == "" {
		return r.Name + ":" + r.Tag
	}
	return r.Registry + "/" + r.Name + ":" + r.Tag
}

// Local renders the registry-less reference used before tagging for push.
func (r ImageRef) Local() string { return r.Name + ":" + r.Tag }

// DeployContext carries one pipeline run's identity and collaborators. The
// identity fields (Service, Environment, DryRun, StartedAt, RunID) are fixed
// at construction; stages only write the artifact fields below them.
type DeployContext struct {
	RunID       string
	Service     string
	Environment string
	DryRun      bool
	StartedAt   time.Time

	// CatalogPath is read once during Init; WorkDir anchors manifest and
	// command execution paths.
	CatalogPath string
	WorkDir     string

	Catalog  *config.ServiceConfig
	Settings config.Settings
	Runner   runner.Runner
	// Query runs read-only lookups (revision queries and the like). Unlike
	// Runner it executes for real even during a dry run, so the commands a
	// dry run reports carry the values a real run would use.
	Query  runner.Runner
	Logger logging.Logger

	// Artifacts crossing stage boundaries.
	Image        ImageRef // set by Build
	ScanBypassed bool     // set by SecurityScan when findings were waved through
}

// QueryRunner returns the runner for read-only lookups, falling back to the
// main runner when none was configured.
func (dc *DeployContext) QueryRunner() runner.Runner {
	if dc.Query != nil {
		return dc.Query
	}
	return dc.Runner
}

// ManifestPath returns the per-environment manifest file for this run.
func (dc *DeployContext) ManifestPath() string {
	return filepath.Join(dc.WorkDir, "deploy", dc.Environment, "values.yaml")
}

// AppName returns the sync-controller application identifier for this run.
func (dc *DeployContext) AppName() string {
	return dc.Service + "-" + dc.Environment
}
