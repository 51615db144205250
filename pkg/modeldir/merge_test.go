// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package modeldir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTree materializes files under root from relative path to content.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile %s: %v", path, err)
	}
	return string(data)
}

func TestMerge(t *testing.T) {
	base := t.TempDir()
	primary := filepath.Join(base, "primary")
	secondary := filepath.Join(base, "secondary")
	dst := filepath.Join(base, "merged")

	writeTree(t, primary, map[string]string{
		"config.json":        `{"vocab_size": 32000}`,
		"model.safetensors":  "primary-weights",
		"sub/tokenizer.json": "primary-tokenizer",
	})
	writeTree(t, secondary, map[string]string{
		"model.safetensors": "secondary-weights",
		"vocab.json":        "secondary-vocab",
		"sub/merges.txt":    "secondary-merges",
	})

	report, err := Merge(primary, secondary, dst, false)
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}

	if got := readTestFile(t, filepath.Join(dst, "model.safetensors")); got != "primary-weights" {
		t.Errorf("Expected primary to win conflict, got %q", got)
	}
	if got := readTestFile(t, filepath.Join(dst, "vocab.json")); got != "secondary-vocab" {
		t.Errorf("Expected secondary file to be copied, got %q", got)
	}
	if got := readTestFile(t, filepath.Join(dst, "sub/merges.txt")); got != "secondary-merges" {
		t.Errorf("Expected nested secondary file to be copied, got %q", got)
	}

	if report.FromPrimary != 3 {
		t.Errorf("Expected 3 files from primary, got %d", report.FromPrimary)
	}
	if report.FromSecondary != 2 {
		t.Errorf("Expected 2 files from secondary, got %d", report.FromSecondary)
	}
	if report.Conflicts != 1 {
		t.Errorf("Expected 1 conflict, got %d", report.Conflicts)
	}
	if report.TotalFiles != 5 {
		t.Errorf("Expected 5 total files, got %d", report.TotalFiles)
	}
}

func TestMerge_ExistingDestination(t *testing.T) {
	base := t.TempDir()
	primary := filepath.Join(base, "primary")
	secondary := filepath.Join(base, "secondary")
	dst := filepath.Join(base, "merged")

	writeTree(t, primary, map[string]string{"a.txt": "a"})
	writeTree(t, secondary, map[string]string{"b.txt": "b"})
	writeTree(t, dst, map[string]string{"stale.txt": "stale"})

	if _, err := Merge(primary, secondary, dst, false); err == nil {
		t.Fatal("Expected error when destination exists without overwrite")
	} else if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected already-exists error, got: %v", err)
	}

	report, err := Merge(primary, secondary, dst, true)
	if err != nil {
		t.Fatalf("Merge with overwrite returned error: %v", err)
	}
	if report.TotalFiles != 2 {
		t.Errorf("Expected 2 total files, got %d", report.TotalFiles)
	}
	if _, err := os.Stat(filepath.Join(dst, "stale.txt")); !os.IsNotExist(err) {
		t.Error("Expected stale destination content to be removed")
	}
}

func TestMerge_MissingSource(t *testing.T) {
	base := t.TempDir()
	secondary := filepath.Join(base, "secondary")
	writeTree(t, secondary, map[string]string{"b.txt": "b"})

	_, err := Merge(filepath.Join(base, "nope"), secondary, filepath.Join(base, "merged"), false)
	if err == nil {
		t.Fatal("Expected error for missing primary directory")
	}
	if !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("Expected not-a-directory error, got: %v", err)
	}
}
