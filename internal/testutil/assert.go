package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// AssertFileExists fails the test if the file does not exist.
func (p *TestProject) AssertFileExists(relPath string) {
	p.t.Helper()
	fullPath := filepath.Join(p.Path, relPath)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		p.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the substring.
func (p *TestProject) AssertFileContains(relPath, substr string) {
	p.t.Helper()
	data, err := os.ReadFile(filepath.Join(p.Path, relPath))
	if err != nil {
		p.t.Fatalf("failed to read %s: %v", relPath, err)
	}
	if !strings.Contains(string(data), substr) {
		p.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, data)
	}
}

// AssertAnswer runs a query through the CLI and compares the answer with
// want, given as JSON.
func (p *TestProject) AssertAnswer(query, want string, flags ...string) {
	p.t.Helper()
	args := append([]string{"query", query}, flags...)
	result := p.RunCLI(args...)
	result.MustSucceed(p.t)

	var expected interface{}
	if err := json.Unmarshal([]byte(want), &expected); err != nil {
		p.t.Fatalf("invalid expected answer %q: %v", want, err)
	}
	if got := result.Data["answer"]; !reflect.DeepEqual(got, expected) {
		p.t.Errorf("query %s: expected answer %v, got %v\nRaw: %s", query, expected, got, result.RawJSON)
	}
}

// AssertResultCount checks that the response meta carries the expected count.
func (r *CLIResult) AssertResultCount(t *testing.T, expected int) {
	t.Helper()
	got := 0
	if r.Meta != nil {
		got = r.Meta.Count
	}
	if got != expected {
		t.Errorf("expected count %d, got %d\nRaw: %s", expected, got, r.RawJSON)
	}
}
