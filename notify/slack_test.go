package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/opsforge/deployctl/logging"
)

func TestNotify_SuccessPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, logging.Nop())
	n.Notify(context.Background(), Outcome{
		Service:     "user-api",
		Environment: "staging",
		Success:     true,
		Reason:      "deployed registry.company.com/user-api:abc12345 to staging",
		Duration:    95 * time.Second,
	})

	if len(got.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(got.Attachments))
	}
	a := got.Attachments[0]
	if a.Color != "good" {
		t.Errorf("color = %q, want good", a.Color)
	}
	if a.Title != "Deployment Succeeded" {
		t.Errorf("title = %q", a.Title)
	}

	fields := map[string]string{}
	for _, f := range a.Fields {
		fields[f.Title] = f.Value
	}
	if fields["Service"] != "user-api" || fields["Environment"] != "staging" {
		t.Errorf("fields = %v", fields)
	}
	if fields["Duration"] != "95s" {
		t.Errorf("duration field = %q, want 95s", fields["Duration"])
	}
}

func TestNotify_FailureUsesDangerColor(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, logging.Nop())
	n.Notify(context.Background(), Outcome{Service: "user-api", Environment: "production", Success: false, Reason: "tests failed"})

	if got.Attachments[0].Color != "danger" {
		t.Errorf("color = %q, want danger", got.Attachments[0].Color)
	}
	if got.Attachments[0].Title != "Deployment Failed" {
		t.Errorf("title = %q", got.Attachments[0].Title)
	}
}

func TestNotify_DeliveryFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	srv.Close() // refuse connections entirely

	n := NewSlackNotifier(srv.URL, logging.Nop())
	// Must not panic or propagate anything.
	n.Notify(context.Background(), Outcome{Service: "user-api", Environment: "dev", Success: false})
}

func TestNotify_NoWebhookConfigured(t *testing.T) {
	n := NewSlackNotifier("", logging.Nop())
	n.Notify(context.Background(), Outcome{Service: "user-api"})
}
