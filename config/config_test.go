package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog-info.yaml")
	data := `apiVersion: backstage.io/v1alpha1
kind: Component
metadata:
  name: user-api
  annotations:
    team: platform
spec:
  type: service
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() error: %v", err)
	}
	if cfg.Name() != "user-api" {
		t.Errorf("Name() = %q, want user-api", cfg.Name())
	}
	if _, ok := cfg.Raw["spec"]; !ok {
		t.Error("expected spec key to survive parsing")
	}
}

func TestLoadCatalog_Missing(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrCatalogNotFound) {
		t.Errorf("error = %v, want ErrCatalogNotFound", err)
	}
}

func TestLoadCatalog_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog-info.yaml")
	if err := os.WriteFile(path, []byte("metadata: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadCatalog(path)
	if !errors.Is(err, ErrCatalogInvalid) {
		t.Errorf("error = %v, want ErrCatalogInvalid", err)
	}
}

func TestValidEnvironment(t *testing.T) {
	for _, env := range []string{"dev", "staging", "production"} {
		if !ValidEnvironment(env) {
			t.Errorf("ValidEnvironment(%q) = false, want true", env)
		}
	}
	for _, env := range []string{"", "prod", "Production", "qa"} {
		if ValidEnvironment(env) {
			t.Errorf("ValidEnvironment(%q) = true, want false", env)
		}
	}
}

func TestSettingsFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"REGISTRY_URL", "BASE_DOMAIN", "GITHUB_SHA", "GITHUB_ACTOR"} {
		t.Setenv(key, "")
	}
	s := SettingsFromEnv()
	if s.Registry != "registry.company.com" {
		t.Errorf("Registry = %q", s.Registry)
	}
	if s.BaseDomain != "company.com" {
		t.Errorf("BaseDomain = %q", s.BaseDomain)
	}
	if s.Actor != "unknown" {
		t.Errorf("Actor = %q", s.Actor)
	}
	if s.CommitSHA != "" {
		t.Errorf("CommitSHA = %q, want empty", s.CommitSHA)
	}
}

func TestSettingsFromEnv_Overrides(t *testing.T) {
	t.Setenv("REGISTRY_URL", "ghcr.io/acme")
	t.Setenv("GITHUB_SHA", "deadbeefcafe")
	s := SettingsFromEnv()
	if s.Registry != "ghcr.io/acme" {
		t.Errorf("Registry = %q", s.Registry)
	}
	if s.CommitSHA != "deadbeefcafe" {
		t.Errorf("CommitSHA = %q", s.CommitSHA)
	}
}
