package argocd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSync(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-token")
	if err := c.Sync(context.Background(), "user-api-staging", true); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	if gotPath != "/api/v1/applications/user-api-staging/sync" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotBody["prune"] != false {
		t.Errorf("prune = %v, want false", gotBody["prune"])
	}
	if gotBody["dryRun"] != true {
		t.Errorf("dryRun = %v, want true", gotBody["dryRun"])
	}
}

func TestSync_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-token")
	err := c.Sync(context.Background(), "user-api-production", false)
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestConfigured(t *testing.T) {
	if NewClient("", "").Configured() {
		t.Error("empty client should not be configured")
	}
	if NewClient("https://argocd.local", "").Configured() {
		t.Error("client without token should not be configured")
	}
	if !NewClient("https://argocd.local", "tok").Configured() {
		t.Error("client with endpoint and token should be configured")
	}
}
