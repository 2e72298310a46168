// Package notify delivers best-effort deployment notifications. Delivery
// failures are logged and swallowed; they never influence the pipeline's
// own outcome.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/opsforge/deployctl/logging"
)

// Outcome is the final result of a pipeline run, as reported to operators.
type Outcome struct {
	Service     string
	Environment string
	Success     bool
	Reason      string
	Duration    time.Duration
}

// Notifier reports a pipeline outcome over a side channel.
type Notifier interface {
	Notify(ctx context.Context, o Outcome)
}

// SlackNotifier posts outcomes to a Slack incoming webhook. A notifier with
// an empty webhook URL is a no-op.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	logger     logging.Logger
}

// NewSlackNotifier creates a notifier posting to webhookURL.
func NewSlackNotifier(webhookURL string, logger logging.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type attachmentField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type attachment struct {
	Color  string            `json:"color"`
	Title  string            `json:"title"`
	Fields []attachmentField `json:"fields"`
}

type webhookPayload struct {
	Attachments []attachment `json:"attachments"`
}

// Notify posts the outcome. Errors are logged, never returned.
func (n *SlackNotifier) Notify(ctx context.Context, o Outcome) {
	if n.webhookURL == "" {
		return
	}

	color, title := "good", "Deployment Succeeded"
	if !o.Success {
		color, title = "danger", "Deployment Failed"
	}

	payload := webhookPayload{Attachments: []attachment{{
		Color: color,
		Title: title,
		Fields: []attachmentField{
			{Title: "Service", Value: o.Service, Short: true},
			{Title: "Environment", Value: o.Environment, Short: true},
			{Title: "Duration", Value: fmt.Sprintf("%.0fs", o.Duration.Seconds()), Short: true},
			{Title: "Status", Value: o.Reason, Short: false},
		},
	}}}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Warn("notification payload marshalling failed", map[string]any{"error": err.Error()})
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("notification request failed", map[string]any{"error": err.Error()})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("notification delivery failed", map[string]any{"error": err.Error()})
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		n.logger.Warn("notification rejected", map[string]any{"status": resp.StatusCode})
	}
}
