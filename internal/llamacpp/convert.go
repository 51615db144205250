// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package llamacpp drives the llama.cpp conversion script that turns a
// Hugging Face model directory into a single GGUF file.
package llamacpp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RepoURL is the upstream llama.cpp repository cloned when no local
// checkout is available.
const RepoURL = "https://github.com/ggerganov/llama.cpp.git"

const convertScript = "convert_hf_to_gguf.py"

// Defaults used when Config fields are left empty.
const (
	DefaultDir     = "llama.cpp"
	DefaultOuttype = "f16"
)

var (
	ErrPythonNotFound = errors.New("python interpreter not found in PATH")
	ErrGitNotFound    = errors.New("git binary not found in PATH")
	ErrScriptNotFound = errors.New("convert_hf_to_gguf.py not found")
)

// ValidOuttypes lists the quantization types the conversion script accepts.
var ValidOuttypes = []string{"f32", "f16", "bf16", "q8_0", "tq1_0", "tq2_0", "auto"}

// IsValidOuttype reports whether t is an output type the conversion
// script understands.
func IsValidOuttype(t string) bool {
	for _, v := range ValidOuttypes {
		if t == v {
			return true
		}
	}
	return false
}

// Config controls how the conversion script is located and invoked.
type Config struct {
	// Dir is the llama.cpp checkout directory. Defaults to "llama.cpp"
	// relative to the working directory.
	Dir string

	// Python is the interpreter used to run the script. Defaults to
	// "python3".
	Python string

	// Outtype selects the GGUF quantization. Defaults to "f16".
	Outtype string
}

// ResolveScript returns the path of the conversion script inside dir.
func ResolveScript(dir string) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	script := filepath.Join(dir, convertScript)
	if _, err := os.Stat(script); err != nil {
		return "", fmt.Errorf("%w in %s", ErrScriptNotFound, dir)
	}
	return script, nil
}

// EnsureRepo makes sure dir holds a llama.cpp checkout with the
// conversion script. When the checkout is missing and cloneIfMissing is
// set, the upstream repository is cloned with git; clone output goes to
// out. Without cloneIfMissing a missing checkout is an error.
func EnsureRepo(ctx context.Context, dir string, cloneIfMissing bool, out io.Writer) error {
	if dir == "" {
		dir = DefaultDir
	}
	if _, err := ResolveScript(dir); err == nil {
		return nil
	}
	if !cloneIfMissing {
		return fmt.Errorf("no llama.cpp checkout at %s (pass --clone-llama-cpp or run: git clone %s %s)", dir, RepoURL, dir)
	}
	git, err := exec.LookPath("git")
	if err != nil {
		return ErrGitNotFound
	}
	cmd := exec.CommandContext(ctx, git, "clone", RepoURL, dir)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git clone %s: %w", RepoURL, err)
	}
	if _, err := ResolveScript(dir); err != nil {
		return err
	}
	return nil
}

// Convert runs the conversion script against modelDir and writes the
// resulting GGUF file to outFile. Script output is streamed to out.
func Convert(ctx context.Context, cfg Config, modelDir, outFile string, out io.Writer) error {
	outtype := cfg.Outtype
	if outtype == "" {
		outtype = DefaultOuttype
	}
	if !IsValidOuttype(outtype) {
		return fmt.Errorf("invalid outtype %q (valid: %s)", outtype, strings.Join(ValidOuttypes, ", "))
	}

	if fi, err := os.Stat(modelDir); err != nil || !fi.IsDir() {
		return fmt.Errorf("model directory not found: %s", modelDir)
	}

	script, err := ResolveScript(cfg.Dir)
	if err != nil {
		return err
	}

	python := cfg.Python
	if python == "" {
		python = "python3"
	}
	pyPath, err := exec.LookPath(python)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPythonNotFound, python)
	}

	cmd := exec.CommandContext(ctx, pyPath, script, modelDir, "--outfile", outFile, "--outtype", outtype)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	return nil
}
