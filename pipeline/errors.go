package pipeline

import "fmt"

// StageError is an expected, stage-local failure: a test failure, build
// error, blocked scan, missing manifest, sync rejection, rollout timeout or
// exhausted health check. It never propagates past the orchestrator, which
// interprets it per the state machine. Anything else escaping a stage is
// treated as unexpected and converted to a generic failure at the top level.
type StageError struct {
	Stage  string
	Reason string
	Output string
}

func (e *StageError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Reason, truncate(e.Output, 400))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
