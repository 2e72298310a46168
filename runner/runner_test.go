package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opsforge/deployctl/logging"
)

func TestExecRunner_CapturesOutput(t *testing.T) {
	r := &ExecRunner{Logger: logging.Nop()}
	res, err := r.Run(context.Background(), "sh", "-c", "echo hello; echo oops >&2")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !res.OK() {
		t.Errorf("Status = %d, want 0", res.Status)
	}
	if !strings.Contains(res.Output, "hello") || !strings.Contains(res.Output, "oops") {
		t.Errorf("Output = %q, want combined stdout and stderr", res.Output)
	}
}

func TestExecRunner_NonzeroExitIsNotAnError(t *testing.T) {
	r := &ExecRunner{Logger: logging.Nop()}
	res, err := r.Run(context.Background(), "sh", "-c", "exit 3")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Status != 3 {
		t.Errorf("Status = %d, want 3", res.Status)
	}
	if res.OK() {
		t.Error("OK() = true for nonzero exit")
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := &ExecRunner{Logger: logging.Nop()}
	_, err := r.Run(context.Background(), "definitely-not-a-real-binary-xyz")
	if err == nil {
		t.Error("expected error for unstartable command")
	}
}

func TestDryRunner_RecordsWithoutExecuting(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "side-effect")
	d := &DryRunner{Logger: logging.Nop()}

	res, err := d.Run(context.Background(), "touch", marker)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !res.OK() {
		t.Errorf("Status = %d, want synthetic success", res.Status)
	}
	if res.Output != DryRunOutput {
		t.Errorf("Output = %q, want %q", res.Output, DryRunOutput)
	}

	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("dry-run must not execute the command")
	}
	want := "touch " + marker
	if len(d.Commands) != 1 || d.Commands[0] != want {
		t.Errorf("Commands = %v, want [%q]", d.Commands, want)
	}
}

func TestDisplay(t *testing.T) {
	got := Display("kubectl", []string{"rollout", "undo", "deployment/user-api"})
	if got != "kubectl rollout undo deployment/user-api" {
		t.Errorf("Display() = %q", got)
	}
}
