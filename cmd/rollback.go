package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opsforge/deployctl/config"
	"github.com/opsforge/deployctl/logging"
	"github.com/opsforge/deployctl/pipeline"
	"github.com/opsforge/deployctl/runner"
	"github.com/opsforge/deployctl/stages"
)

var (
	rollbackService string
	rollbackEnv     string
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Revert a service to its previous rollout revision",
	RunE:  runRollback,
}

func init() {
	rollbackCmd.Flags().StringVar(&rollbackService, "service", os.Getenv("SERVICE_NAME"), "service to roll back")
	rollbackCmd.Flags().StringVar(&rollbackEnv, "env", envOr("DEPLOY_ENV", "staging"), "target environment (dev, staging, production)")
}

func runRollback(cmd *cobra.Command, args []string) error {
	if rollbackService == "" {
		return fmt.Errorf("service must be provided via --service or SERVICE_NAME")
	}
	if !config.ValidEnvironment(rollbackEnv) {
		return fmt.Errorf("unknown environment %q (expected one of %v)", rollbackEnv, config.Environments)
	}

	logger := logging.NewJSONLogger(os.Stderr, verbose)
	dc := &pipeline.DeployContext{
		RunID:       uuid.NewString(),
		Service:     rollbackService,
		Environment: rollbackEnv,
		StartedAt:   time.Now(),
		Runner:      &runner.ExecRunner{Logger: logger},
		Logger:      logger,
	}

	stage := &stages.RollbackStage{}
	if err := stage.Execute(cmd.Context(), dc); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	fmt.Printf("Rolled back %s in %s\n", rollbackService, rollbackEnv)
	return nil
}
