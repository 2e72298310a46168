// Package config loads the service catalog and the environment-sourced
// settings the pipeline needs.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrCatalogNotFound indicates the catalog file is absent.
var ErrCatalogNotFound = errors.New("catalog not found")

// ErrCatalogInvalid indicates the catalog file could not be parsed.
var ErrCatalogInvalid = errors.New("catalog invalid")

// ServiceConfig is the parsed service catalog. The catalog carries arbitrary
// top-level keys; only existence and parseability are enforced here.
type ServiceConfig struct {
	Raw map[string]any
}

// Name returns metadata.name from the catalog, or "" if absent.
func (c *ServiceConfig) Name() string {
	meta, ok := c.Raw["metadata"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := meta["name"].(string)
	return name
}

// LoadCatalog reads and parses the service catalog at path. Configuration
// errors are fatal: the caller must abort before any stage runs.
func LoadCatalog(path string) (*ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCatalogInvalid, path, err)
	}
	return &ServiceConfig{Raw: raw}, nil
}

// Environments is the closed set of deployable environments.
var Environments = []string{"dev", "staging", "production"}

// ValidEnvironment reports whether env is one of the known environments.
func ValidEnvironment(env string) bool {
	for _, e := range Environments {
		if e == env {
			return true
		}
	}
	return false
}
