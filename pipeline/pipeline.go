// Package pipeline implements the deployment state machine. A run moves
// through Init, Testing, Building, Scanning, Deploying and Verifying;
// any stage failure short-circuits to Failed, except a Verifying failure,
// which passes through RolledBack (invoking the rollback stage exactly once)
// first. The notifier is called exactly once per run that gets past Init.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/opsforge/deployctl/config"
	"github.com/opsforge/deployctl/history"
	"github.com/opsforge/deployctl/logging"
	"github.com/opsforge/deployctl/notify"
)

// State is one node of the pipeline state machine.
type State string

const (
	StateInit       State = "Init"
	StateTesting    State = "Testing"
	StateBuilding   State = "Building"
	StateScanning   State = "Scanning"
	StateDeploying  State = "Deploying"
	StateVerifying  State = "Verifying"
	StateSucceeded  State = "Succeeded"
	StateRolledBack State = "RolledBack"
	StateFailed     State = "Failed"
)

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateRolledBack || s == StateFailed
}

// next returns the state entered when the work of s succeeds. The sequence
// is fixed; there is no way to skip a state.
func next(s State) State {
	switch s {
	case StateInit:
		return StateTesting
	case StateTesting:
		return StateBuilding
	case StateBuilding:
		return StateScanning
	case StateScanning:
		return StateDeploying
	case StateDeploying:
		return StateVerifying
	case StateVerifying:
		return StateSucceeded
	}
	return StateFailed
}

// Stage is a single unit of pipeline work. A returned error is the stage's
// failure signal; stages do not decide policy, the orchestrator does.
type Stage interface {
	Name() string
	Execute(ctx context.Context, dc *DeployContext) error
}

// Stages holds the concrete stage for each slot of the state machine.
type Stages struct {
	Test           Stage
	Build          Stage
	SecurityScan   Stage
	ManifestUpdate Stage
	SyncTrigger    Stage
	DeploymentWait Stage
	HealthVerify   Stage
	Rollback       Stage
}

// Outcome is the final result of a run.
type Outcome struct {
	Success    bool
	State      State
	Reason     string
	RolledBack bool
	Image      ImageRef
	Duration   time.Duration
}

// Orchestrator sequences stages, applies the failure and rollback policy,
// and owns run timing. One orchestrator drives one run at a time; concurrent
// runs against the same (service, environment) must be serialized by the
// caller.
type Orchestrator struct {
	Stages   Stages
	Notifier notify.Notifier
	History  history.Store
	Logger   logging.Logger
}

// stagesFor maps each working state to its ordered stages.
func (o *Orchestrator) stagesFor(s State) []Stage {
	switch s {
	case StateTesting:
		return []Stage{o.Stages.Test}
	case StateBuilding:
		return []Stage{o.Stages.Build}
	case StateScanning:
		return []Stage{o.Stages.SecurityScan}
	case StateDeploying:
		return []Stage{o.Stages.ManifestUpdate, o.Stages.SyncTrigger}
	case StateVerifying:
		return []Stage{o.Stages.DeploymentWait, o.Stages.HealthVerify}
	}
	return nil
}

// Run executes the full pipeline for dc and returns its outcome. A failed
// run is never resumed; callers restart from Init. Panics anywhere in the
// stage chain are recovered here and converted into a generic failure.
func (o *Orchestrator) Run(ctx context.Context, dc *DeployContext) (out Outcome) {
	notified := false
	finish := func(success bool, state State, reason string, rolledBack bool) Outcome {
		res := Outcome{
			Success:    success,
			State:      state,
			Reason:     reason,
			RolledBack: rolledBack,
			Image:      dc.Image,
			Duration:   time.Since(dc.StartedAt),
		}
		if !notified {
			notified = true
			o.Notifier.Notify(ctx, notify.Outcome{
				Service:     dc.Service,
				Environment: dc.Environment,
				Success:     success,
				Reason:      reason,
				Duration:    res.Duration,
			})
		}
		o.finishHistory(dc, res)
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			o.Logger.Error("unexpected error", map[string]any{"panic": fmt.Sprint(r)})
			out = finish(false, StateFailed, fmt.Sprintf("unexpected error: %v", r), false)
		}
	}()

	o.Logger.Info("pipeline starting", map[string]any{
		"run":     dc.RunID,
		"service": dc.Service,
		"env":     dc.Environment,
		"dry_run": dc.DryRun,
	})

	// Init: load the catalog. Configuration errors abort before any stage
	// runs and are surfaced directly, without a notification.
	catalog, err := config.LoadCatalog(dc.CatalogPath)
	if err != nil {
		o.Logger.Error("configuration error", map[string]any{"error": err.Error()})
		return Outcome{
			Success:  false,
			State:    StateFailed,
			Reason:   err.Error(),
			Duration: time.Since(dc.StartedAt),
		}
	}
	dc.Catalog = catalog

	o.startHistory(dc)

	state := StateInit
	for {
		state = next(state)
		if state.Terminal() {
			break
		}
		if err := o.runState(ctx, dc, state); err != nil {
			if state == StateVerifying {
				// Rollback runs exactly once; its own outcome is reported
				// but the failure stays attributed to verification.
				o.rollback(ctx, dc)
				return finish(false, StateFailed, fmt.Sprintf("rolled back: %v", err), true)
			}
			return finish(false, StateFailed, err.Error(), false)
		}
	}

	reason := fmt.Sprintf("deployed %s to %s", dc.Image, dc.Environment)
	o.Logger.Info("pipeline succeeded", map[string]any{
		"run":      dc.RunID,
		"image":    dc.Image.String(),
		"duration": time.Since(dc.StartedAt).String(),
	})
	return finish(true, StateSucceeded, reason, false)
}

// runState drives every stage of one working state, stopping at the first
// failure.
func (o *Orchestrator) runState(ctx context.Context, dc *DeployContext, state State) error {
	for _, st := range o.stagesFor(state) {
		o.Logger.Info("stage starting", map[string]any{"state": string(state), "stage": st.Name()})
		err := st.Execute(ctx, dc)
		o.recordStage(dc, st.Name(), err)
		if err != nil {
			o.Logger.Error("stage failed", map[string]any{
				"state": string(state),
				"stage": st.Name(),
				"error": err.Error(),
			})
			return err
		}
		o.Logger.Info("stage finished", map[string]any{"state": string(state), "stage": st.Name()})
	}
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, dc *DeployContext) {
	o.Logger.Warn("verification failed, rolling back", map[string]any{"run": dc.RunID})
	err := o.Stages.Rollback.Execute(ctx, dc)
	o.recordStage(dc, o.Stages.Rollback.Name(), err)
	if err != nil {
		o.Logger.Error("rollback failed", map[string]any{"error": err.Error()})
		return
	}
	o.Logger.Info("rollback completed", map[string]any{"run": dc.RunID})
}

// History recording is best-effort: a broken local store never fails a run.

func (o *Orchestrator) startHistory(dc *DeployContext) {
	err := o.History.CreateRun(&history.Run{
		ID:          dc.RunID,
		Service:     dc.Service,
		Environment: dc.Environment,
		DryRun:      dc.DryRun,
		State:       string(StateInit),
		StartedAt:   dc.StartedAt,
	})
	if err != nil {
		o.Logger.Warn("history record failed", map[string]any{"error": err.Error()})
	}
}

func (o *Orchestrator) recordStage(dc *DeployContext, stage string, stageErr error) {
	res := history.StageResult{Stage: stage, OK: stageErr == nil}
	if stageErr != nil {
		res.Detail = stageErr.Error()
	}
	if err := o.History.RecordStage(dc.RunID, res); err != nil {
		o.Logger.Warn("history record failed", map[string]any{"error": err.Error()})
	}
}

func (o *Orchestrator) finishHistory(dc *DeployContext, out Outcome) {
	err := o.History.FinishRun(&history.Run{
		ID:          dc.RunID,
		Service:     dc.Service,
		Environment: dc.Environment,
		DryRun:      dc.DryRun,
		State:       string(out.State),
		Reason:      out.Reason,
		ImageTag:    dc.Image.Tag,
		StartedAt:   dc.StartedAt,
	})
	if err != nil {
		o.Logger.Warn("history record failed", map[string]any{"error": err.Error()})
	}
}
