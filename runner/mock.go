package runner

import (
	"context"
	"strings"
)

// MockRule matches commands by prefix and supplies a scripted result.
type MockRule struct {
	Prefix string
	Result Result
	Err    error
}

// MockRunner returns scripted results for matching commands and records
// every call, for use in tests. Rules are checked in order; the first
// matching prefix wins. Commands with no matching rule succeed with empty
// output.
type MockRunner struct {
	Rules []MockRule
	Calls []string
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmdline := Display(name, args)
	m.Calls = append(m.Calls, cmdline)
	for _, r := range m.Rules {
		if strings.HasPrefix(cmdline, r.Prefix) {
			return r.Result, r.Err
		}
	}
	return Result{Status: 0}, nil
}

// Called reports whether any recorded call starts with prefix.
func (m *MockRunner) Called(prefix string) bool {
	for _, c := range m.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
