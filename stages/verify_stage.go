package stages

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/opsforge/deployctl/pipeline"
)

const (
	defaultHealthAttempts = 5
	defaultHealthDelay    = 10 * time.Second
)

// HealthVerifyStage polls the service health endpoint up to a fixed number
// of attempts with a fixed delay between them. The first 200 response is
// immediate success; a network error counts as a failed attempt, not a fatal
// one. Exhausting the attempts fails the stage.
type HealthVerifyStage struct {
	Client   *http.Client
	Attempts int
	Delay    time.Duration
	// BaseURL overrides the computed service URL, for tests.
	BaseURL string
	// Sleep overrides the inter-attempt delay mechanism, for tests.
	Sleep func(time.Duration)
}

func (s *HealthVerifyStage) Name() string { return "health-verify" }

func (s *HealthVerifyStage) Execute(ctx context.Context, dc *pipeline.DeployContext) error {
	if dc.DryRun {
		dc.Logger.Info("dry-run: would verify health", map[string]any{"service": dc.Service})
		return nil
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	attempts := s.Attempts
	if attempts == 0 {
		attempts = defaultHealthAttempts
	}
	delay := s.Delay
	if delay == 0 {
		delay = defaultHealthDelay
	}
	sleep := s.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	base := s.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.%s.%s", dc.Service, dc.Environment, dc.Settings.BaseDomain)
	}
	url := base + "/health"

	for attempt := 1; attempt <= attempts; attempt++ {
		ok, err := s.probe(ctx, client, url)
		if ok {
			dc.Logger.Info("health check passed", map[string]any{"url": url, "attempt": attempt})
			return nil
		}
		fields := map[string]any{"url": url, "attempt": attempt, "max": attempts}
		if err != nil {
			fields["error"] = err.Error()
		}
		dc.Logger.Warn("health check attempt failed", fields)

		if attempt < attempts {
			sleep(delay)
		}
	}
	return &pipeline.StageError{
		Stage:  s.Name(),
		Reason: fmt.Sprintf("health check failed after %d attempts", attempts),
	}
}

func (s *HealthVerifyStage) probe(ctx context.Context, client *http.Client, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK, nil
}
