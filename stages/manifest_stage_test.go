package stages

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opsforge/deployctl/manifest"
	"github.com/opsforge/deployctl/pipeline"
	"github.com/opsforge/deployctl/runner"
)

const stageManifest = `replicaCount: 2
image:
  repository: registry.company.com/user-api
  tag: old00000
`

func manifestContext(t *testing.T, mock *runner.MockRunner) *pipeline.DeployContext {
	dc := newContext(t, "staging", mock)
	dc.Image = pipeline.ImageRef{Registry: "registry.company.com", Name: "user-api", Tag: "deadbeef"}

	dir := filepath.Join(dc.WorkDir, "deploy", "staging")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "values.yaml"), []byte(stageManifest), 0644); err != nil {
		t.Fatal(err)
	}
	return dc
}

func TestManifestUpdateStage(t *testing.T) {
	mock := &runner.MockRunner{}
	dc := manifestContext(t, mock)

	if err := (&ManifestUpdateStage{}).Execute(context.Background(), dc); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	doc, err := manifest.Load(dc.ManifestPath())
	if err != nil {
		t.Fatal(err)
	}
	tag, _ := doc.ImageTag()
	if tag != "deadbeef" {
		t.Errorf("tag = %q, want deadbeef", tag)
	}

	if !mock.Called("git add") || !mock.Called("git push origin main") {
		t.Errorf("git calls missing: %v", mock.Calls)
	}
	for _, c := range mock.Calls {
		if strings.HasPrefix(c, "git commit") && !strings.Contains(c, "Deploy user-api:deadbeef to staging") {
			t.Errorf("commit message wrong: %q", c)
		}
	}
}

func TestManifestUpdateStage_MissingManifestIsFatal(t *testing.T) {
	mock := &runner.MockRunner{}
	dc := newContext(t, "staging", mock)
	dc.Image = pipeline.ImageRef{Name: "user-api", Tag: "deadbeef"}

	err := (&ManifestUpdateStage{}).Execute(context.Background(), dc)
	se := asStageError(t, err)
	if !strings.Contains(se.Reason, "manifest not found") {
		t.Errorf("Reason = %q", se.Reason)
	}
	if len(mock.Calls) != 0 {
		t.Errorf("no commands should run without a manifest: %v", mock.Calls)
	}
}

func TestManifestUpdateStage_PushFailureFailsStageButKeepsMutation(t *testing.T) {
	mock := &runner.MockRunner{
		Rules: []runner.MockRule{
			{Prefix: "git push", Result: runner.Result{Status: 1, Output: "remote rejected"}},
		},
	}
	dc := manifestContext(t, mock)

	err := (&ManifestUpdateStage{}).Execute(context.Background(), dc)
	se := asStageError(t, err)
	if !strings.Contains(se.Reason, "push") {
		t.Errorf("Reason = %q", se.Reason)
	}

	// The local mutation stands even though the stage failed.
	doc, loadErr := manifest.Load(dc.ManifestPath())
	if loadErr != nil {
		t.Fatal(loadErr)
	}
	if tag, _ := doc.ImageTag(); tag != "deadbeef" {
		t.Errorf("tag = %q, local mutation should persist", tag)
	}
}

func TestManifestUpdateStage_DryRunLeavesFileUntouched(t *testing.T) {
	mock := &runner.MockRunner{}
	dc := manifestContext(t, mock)
	dc.DryRun = true

	if err := (&ManifestUpdateStage{}).Execute(context.Background(), dc); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	data, err := os.ReadFile(dc.ManifestPath())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != stageManifest {
		t.Error("dry run must not mutate the manifest file")
	}
	// Commands are still reported, through whatever runner is configured.
	if !mock.Called("git push origin main") {
		t.Errorf("git push should still be reported: %v", mock.Calls)
	}
}
