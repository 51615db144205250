// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package llamacpp

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsValidOuttype(t *testing.T) {
	for _, v := range ValidOuttypes {
		if !IsValidOuttype(v) {
			t.Errorf("Expected %q to be valid", v)
		}
	}
	for _, v := range []string{"", "f64", "q4_k_m", "F16"} {
		if IsValidOuttype(v) {
			t.Errorf("Expected %q to be invalid", v)
		}
	}
}

func TestResolveScript(t *testing.T) {
	dir := t.TempDir()

	_, err := ResolveScript(dir)
	if !errors.Is(err, ErrScriptNotFound) {
		t.Fatalf("Expected ErrScriptNotFound, got: %v", err)
	}

	script := filepath.Join(dir, "convert_hf_to_gguf.py")
	if err := os.WriteFile(script, []byte("#!/usr/bin/env python3\n"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ResolveScript(dir)
	if err != nil {
		t.Fatalf("ResolveScript returned error: %v", err)
	}
	if got != script {
		t.Errorf("Expected %s, got %s", script, got)
	}
}

func TestEnsureRepo(t *testing.T) {
	t.Run("ExistingCheckout", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "convert_hf_to_gguf.py"), []byte("pass\n"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if err := EnsureRepo(context.Background(), dir, false, io.Discard); err != nil {
			t.Fatalf("Expected existing checkout to be accepted, got: %v", err)
		}
	})

	t.Run("MissingWithoutClone", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "llama.cpp")
		err := EnsureRepo(context.Background(), dir, false, io.Discard)
		if err == nil {
			t.Fatal("Expected error for missing checkout")
		}
		if !strings.Contains(err.Error(), "git clone") {
			t.Errorf("Expected the error to suggest cloning, got: %v", err)
		}
	})
}

func TestConvert_InvalidOuttype(t *testing.T) {
	err := Convert(context.Background(), Config{Outtype: "f64"}, t.TempDir(), "out.gguf", io.Discard)
	if err == nil {
		t.Fatal("Expected error for invalid outtype")
	}
	if !strings.Contains(err.Error(), "f16") {
		t.Errorf("Expected the error to list valid outtypes, got: %v", err)
	}
}

func TestConvert_MissingModelDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	err := Convert(context.Background(), Config{}, missing, "out.gguf", io.Discard)
	if err == nil {
		t.Fatal("Expected error for missing model directory")
	}
	if !strings.Contains(err.Error(), "model directory not found") {
		t.Errorf("Expected missing-directory error, got: %v", err)
	}
}

func TestConvert_MissingScript(t *testing.T) {
	modelDir := t.TempDir()
	err := Convert(context.Background(), Config{Dir: filepath.Join(t.TempDir(), "llama.cpp")}, modelDir, "out.gguf", io.Discard)
	if !errors.Is(err, ErrScriptNotFound) {
		t.Fatalf("Expected ErrScriptNotFound, got: %v", err)
	}
}
