// Package testutil provides golden file testing utilities.
package testutil

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var update = flag.Bool("update", false, "update golden files")

// CompareGolden compares the actual output with the golden file content.
// If the -update flag is provided, it updates the golden file with the actual output.
func CompareGolden(t *testing.T, goldenPath string, actual string) {
	t.Helper()

	if *update {
		updateGoldenFile(t, goldenPath, []byte(actual))
		return
	}

	expected := readGoldenFile(t, goldenPath)
	if actual != expected {
		t.Errorf("Golden file mismatch for %s\nExpected:\n%s\nActual:\n%s", goldenPath, expected, actual)
	}
}

// CompareGoldenJSON compares two JSON documents structurally, so key order and
// indentation in the golden file don't matter. With -update the actual
// document is written back indented.
func CompareGoldenJSON(t *testing.T, goldenPath string, actual []byte) {
	t.Helper()

	if *update {
		var out bytes.Buffer
		if err := json.Indent(&out, actual, "", "  "); err != nil {
			t.Fatalf("Failed to indent JSON for %s: %v", goldenPath, err)
		}
		updateGoldenFile(t, goldenPath, out.Bytes())
		return
	}

	var want, got any
	if err := json.Unmarshal([]byte(readGoldenFile(t, goldenPath)), &want); err != nil {
		t.Fatalf("Failed to parse JSON from golden file %s: %v", goldenPath, err)
	}
	if err := json.Unmarshal(actual, &got); err != nil {
		t.Fatalf("Failed to parse actual JSON: %v", err)
	}

	wantJSON, _ := json.Marshal(want)
	gotJSON, _ := json.Marshal(got)
	if !bytes.Equal(wantJSON, gotJSON) {
		t.Errorf("Golden JSON mismatch for %s\nExpected:\n%s\nActual:\n%s", goldenPath, wantJSON, gotJSON)
	}
}

// readGoldenFile reads a golden file, normalizing Windows line endings
func readGoldenFile(t *testing.T, goldenPath string) string {
	t.Helper()

	content, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("Failed to read golden file %s: %v", goldenPath, err)
	}
	return strings.ReplaceAll(string(content), "\r\n", "\n")
}

// updateGoldenFile updates the golden file with the actual output.
func updateGoldenFile(t *testing.T, goldenPath string, actual []byte) {
	t.Helper()

	dir := filepath.Dir(goldenPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(goldenPath, actual, 0o644); err != nil {
		t.Fatalf("Failed to update golden file %s: %v", goldenPath, err)
	}
	t.Logf("Updated golden file: %s", goldenPath)
}
