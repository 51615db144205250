// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package publish turns a model artifact directory into a git repository
// with LFS-tracked weights and pushes it to a remote.
package publish

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

var (
	ErrGitNotFound = errors.New("git binary not found in PATH")
	ErrLFSNotFound = errors.New("git-lfs is not installed (see https://git-lfs.com)")
)

// DefaultLFSPatterns are the file patterns tracked with git-lfs when
// Options.LFSPatterns is empty.
var DefaultLFSPatterns = []string{"*.gguf", "*.safetensors", "*.bin"}

// Options configures a publish run.
type Options struct {
	// Dir is the artifact directory to publish.
	Dir string

	// Remote is the git remote URL. When empty the directory is
	// committed locally but nothing is pushed.
	Remote string

	// Branch is the branch pushed to the remote. Defaults to "main".
	Branch string

	// Message is the commit message. Defaults to "Add model artifacts".
	Message string

	// LFSPatterns are the globs tracked with git-lfs. Defaults to
	// DefaultLFSPatterns.
	LFSPatterns []string
}

// Report describes what a publish run actually did.
type Report struct {
	// Committed is false when the working tree was already clean.
	Committed bool

	// Pushed is false when no remote was configured.
	Pushed bool
}

// Publish initializes a repository in opts.Dir when needed, tracks the
// weight files with git-lfs, commits everything and pushes to the remote.
// Push progress is streamed to out. Re-running on an unchanged directory
// is harmless.
func Publish(ctx context.Context, opts Options, out io.Writer) (*Report, error) {
	if opts.Dir == "" {
		return nil, errors.New("publish: directory required")
	}
	if fi, err := os.Stat(opts.Dir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("publish: not a directory: %s", opts.Dir)
	}

	branch := opts.Branch
	if branch == "" {
		branch = "main"
	}
	message := opts.Message
	if message == "" {
		message = "Add model artifacts"
	}
	patterns := opts.LFSPatterns
	if len(patterns) == 0 {
		patterns = DefaultLFSPatterns
	}

	if _, err := exec.LookPath("git"); err != nil {
		return nil, ErrGitNotFound
	}
	if _, err := run(ctx, opts.Dir, "lfs", "version"); err != nil {
		return nil, ErrLFSNotFound
	}

	if _, err := os.Stat(filepath.Join(opts.Dir, ".git")); err != nil {
		if _, err := run(ctx, opts.Dir, "init"); err != nil {
			return nil, err
		}
	}
	if _, err := run(ctx, opts.Dir, "lfs", "install", "--local"); err != nil {
		return nil, err
	}
	for _, pattern := range patterns {
		if _, err := run(ctx, opts.Dir, "lfs", "track", pattern); err != nil {
			return nil, err
		}
	}
	if _, err := run(ctx, opts.Dir, "add", "-A"); err != nil {
		return nil, err
	}

	report := &Report{Committed: true}
	if msg, err := run(ctx, opts.Dir, "commit", "-m", message); err != nil {
		if !strings.Contains(msg, "nothing to commit") {
			return nil, err
		}
		report.Committed = false
	}
	if _, err := run(ctx, opts.Dir, "branch", "-M", branch); err != nil {
		return nil, err
	}

	if opts.Remote == "" {
		return report, nil
	}

	if _, err := run(ctx, opts.Dir, "remote", "get-url", "origin"); err != nil {
		if _, err := run(ctx, opts.Dir, "remote", "add", "origin", opts.Remote); err != nil {
			return nil, err
		}
	} else if _, err := run(ctx, opts.Dir, "remote", "set-url", "origin", opts.Remote); err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "Pushing %s to %s (branch %s)\n", opts.Dir, opts.Remote, branch)
	push := exec.CommandContext(ctx, "git", "push", "-u", "origin", branch)
	push.Dir = opts.Dir
	push.Stdout = out
	push.Stderr = out
	if err := push.Run(); err != nil {
		return nil, fmt.Errorf("git push: %w", err)
	}
	report.Pushed = true
	return report, nil
}

// run executes a git subcommand in dir and returns its trimmed combined
// output. Errors carry the output when git printed any.
func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	msg := strings.TrimSpace(string(out))
	if err != nil {
		if msg != "" {
			return msg, fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
		}
		return msg, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return msg, nil
}
