// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func runConfig(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newConfigCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestConfigInit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := runConfig(t, "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}

	home, _ := os.UserHomeDir()
	data, err := os.ReadFile(filepath.Join(home, ".config", "ggufpack.json"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	for _, key := range []string{
		"token", "retries", "backoff-initial", "backoff-max",
		"stall-timeout", "chunk-size", "limit-rate", "llama-cpp-dir", "outtype",
	} {
		if _, ok := cfg[key]; !ok {
			t.Errorf("Expected key %q in the generated config", key)
		}
	}

	err = runConfig(t, "init")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("Expected already-exists error on second init, got %v", err)
	}
	if err := runConfig(t, "init", "--force"); err != nil {
		t.Fatalf("config init --force: %v", err)
	}
}

func TestConfigInit_YAML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := runConfig(t, "init", "--yaml"); err != nil {
		t.Fatalf("config init --yaml: %v", err)
	}

	home, _ := os.UserHomeDir()
	data, err := os.ReadFile(filepath.Join(home, ".config", "ggufpack.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	var cfg map[string]any
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg["outtype"] != "f16" {
		t.Errorf("Expected outtype f16, got %v", cfg["outtype"])
	}

	// Discovery finds the YAML file and the load path parses it.
	got, err := loadConfigFile(&RootOpts{})
	if err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	if got == nil || got["llama-cpp-dir"] != "llama.cpp" {
		t.Errorf("Expected discovered YAML config, got %v", got)
	}
}
