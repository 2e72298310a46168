// Package history persists a local record of pipeline runs so operators can
// audit what was deployed, when, and how it ended.
package history

import "time"

// Run is one recorded pipeline invocation.
type Run struct {
	ID          string     `json:"id"`
	Service     string     `json:"service"`
	Environment string     `json:"environment"`
	DryRun      bool       `json:"dryRun"`
	State       string     `json:"state"`
	Reason      string     `json:"reason,omitempty"`
	ImageTag    string     `json:"imageTag,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	DurationMs  int64      `json:"durationMs"`
}

// StageResult is the recorded outcome of one stage within a run.
type StageResult struct {
	Stage      string    `json:"stage"`
	OK         bool      `json:"ok"`
	Detail     string    `json:"detail,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Store records runs and their stage results. Recording is best-effort for
// the pipeline: callers log store errors but never fail a deployment on them.
type Store interface {
	CreateRun(run *Run) error
	FinishRun(run *Run) error
	RecordStage(runID string, res StageResult) error
	ListRuns(limit int) ([]*Run, error)
	StageResults(runID string) ([]StageResult, error)
	Close() error
}

// NopStore discards everything. Used when the history database cannot be
// opened, so a broken local store never blocks a deployment.
type NopStore struct{}

func (NopStore) CreateRun(*Run) error                        { return nil }
func (NopStore) FinishRun(*Run) error                        { return nil }
func (NopStore) RecordStage(string, StageResult) error       { return nil }
func (NopStore) ListRuns(int) ([]*Run, error)                { return nil, nil }
func (NopStore) StageResults(string) ([]StageResult, error)  { return nil, nil }
func (NopStore) Close() error                                { return nil }
