package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opsforge/deployctl/argocd"
	"github.com/opsforge/deployctl/config"
	"github.com/opsforge/deployctl/history"
	"github.com/opsforge/deployctl/logging"
	"github.com/opsforge/deployctl/notify"
	"github.com/opsforge/deployctl/pipeline"
	"github.com/opsforge/deployctl/report"
	"github.com/opsforge/deployctl/runner"
	"github.com/opsforge/deployctl/stages"
)

var (
	deployService string
	deployEnv     string
	deployDryRun  bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Run the full release pipeline for a service",
	RunE:  runDeploy,
}

func init() {
	deployCmd.Flags().StringVar(&deployService, "service", os.Getenv("SERVICE_NAME"), "service to deploy")
	deployCmd.Flags().StringVar(&deployEnv, "env", envOr("DEPLOY_ENV", "staging"), "target environment (dev, staging, production)")
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "report commands without executing them")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runDeploy(cmd *cobra.Command, args []string) error {
	if deployService == "" {
		return fmt.Errorf("service must be provided via --service or SERVICE_NAME")
	}
	if !config.ValidEnvironment(deployEnv) {
		return fmt.Errorf("unknown environment %q (expected one of %v)", deployEnv, config.Environments)
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	cfgPath := catalogPath
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(wd, cfgPath)
	}

	var logger logging.Logger = logging.NewJSONLogger(os.Stderr, verbose)
	settings := config.SettingsFromEnv()

	store := openHistory(logger)
	defer store.Close() //nolint:errcheck

	runID := uuid.NewString()
	logger = logging.Tagged(logger, map[string]any{
		"run_id":      runID,
		"service":     deployService,
		"environment": deployEnv,
	})

	// Read-only lookups always execute for real; only mutating commands are
	// simulated in dry-run mode.
	exec := &runner.ExecRunner{Dir: wd, Logger: logger}
	var run runner.Runner = exec
	if deployDryRun {
		run = &runner.DryRunner{Logger: logger}
	}

	orch := &pipeline.Orchestrator{
		Stages: pipeline.Stages{
			Test:           &stages.TestStage{},
			Build:          &stages.BuildStage{},
			SecurityScan:   &stages.SecurityScanStage{},
			ManifestUpdate: &stages.ManifestUpdateStage{},
			SyncTrigger:    &stages.SyncTriggerStage{Client: argocd.NewClient(settings.ArgoCDURL, settings.ArgoCDToken)},
			DeploymentWait: &stages.DeploymentWaitStage{},
			HealthVerify:   &stages.HealthVerifyStage{},
			Rollback:       &stages.RollbackStage{},
		},
		Notifier: notify.NewSlackNotifier(settings.SlackWebhookURL, logger),
		History:  store,
		Logger:   logger,
	}

	dc := &pipeline.DeployContext{
		RunID:       runID,
		Service:     deployService,
		Environment: deployEnv,
		DryRun:      deployDryRun,
		StartedAt:   time.Now(),
		CatalogPath: cfgPath,
		WorkDir:     wd,
		Settings:    settings,
		Runner:      run,
		Query:       exec,
		Logger:      logger,
	}

	out := orch.Run(cmd.Context(), dc)
	printSummary(dc, out)

	if !out.Success {
		return fmt.Errorf("deployment failed: %s", out.Reason)
	}
	return nil
}

// openHistory opens the run history store, degrading to a no-op store rather
// than blocking a deployment on a broken local database.
func openHistory(logger logging.Logger) history.Store {
	if err := os.MkdirAll(filepath.Dir(historyDB), 0755); err != nil {
		logger.Warn("history unavailable", map[string]any{"error": err.Error()})
		return history.NopStore{}
	}
	store, err := history.OpenSQLite(historyDB)
	if err != nil {
		logger.Warn("history unavailable", map[string]any{"error": err.Error()})
		return history.NopStore{}
	}
	return store
}

func printSummary(dc *pipeline.DeployContext, out pipeline.Outcome) {
	status := "failed"
	if out.Success {
		status = "succeeded"
	}
	rows := []report.Row{
		{Key: "Service", Value: dc.Service},
		{Key: "Environment", Value: dc.Environment},
		{Key: "Status", Value: status},
		{Key: "Duration", Value: out.Duration.Round(time.Second).String()},
	}
	if out.Image.Tag != "" {
		rows = append(rows, report.Row{Key: "Image", Value: out.Image.String()})
	}
	if out.RolledBack {
		rows = append(rows, report.Row{Key: "Rollback", Value: "previous revision restored"})
	}
	if !out.Success {
		rows = append(rows, report.Row{Key: "Reason", Value: out.Reason})
	}
	fmt.Print(report.Render(rows, out.Success, report.IsTerminal(os.Stdout)))
}
