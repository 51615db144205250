// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package modeldir merges local Hugging Face model directories and repairs
// tokenizer artifacts that would break GGUF conversion.
package modeldir

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	cp "github.com/otiai10/copy"
	"golang.org/x/sync/errgroup"
)

// MergeReport summarizes where the files in the merged tree came from.
type MergeReport struct {
	// FromPrimary is the number of files copied from the primary tree.
	FromPrimary int

	// FromSecondary is the number of files only the secondary tree had.
	FromSecondary int

	// Conflicts counts secondary files skipped because the primary
	// already provides the same relative path.
	Conflicts int

	// TotalFiles is the number of files in the merged tree.
	TotalFiles int
}

// Merge combines two model directories into dst. The primary directory
// wins on path conflicts; the secondary contributes only files missing
// from the primary. dst must not exist unless overwrite is set, in which
// case it is replaced.
func Merge(primary, secondary, dst string, overwrite bool) (*MergeReport, error) {
	for _, dir := range []string{primary, secondary} {
		fi, err := os.Stat(dir)
		if err != nil || !fi.IsDir() {
			return nil, fmt.Errorf("source is not a directory: %s", dir)
		}
	}
	if _, err := os.Stat(dst); err == nil {
		if !overwrite {
			return nil, fmt.Errorf("destination already exists: %s (pass overwrite to replace it)", dst)
		}
		if err := os.RemoveAll(dst); err != nil {
			return nil, err
		}
	}

	var primaryFiles, secondaryFiles map[string]struct{}
	var g errgroup.Group
	g.Go(func() error {
		var err error
		primaryFiles, err = listFiles(primary)
		return err
	})
	g.Go(func() error {
		var err error
		secondaryFiles, err = listFiles(secondary)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := cp.Copy(primary, dst, cp.Options{PreserveTimes: true}); err != nil {
		return nil, fmt.Errorf("copy primary tree: %w", err)
	}

	report := &MergeReport{FromPrimary: len(primaryFiles)}
	for rel := range secondaryFiles {
		if _, ok := primaryFiles[rel]; ok {
			report.Conflicts++
			continue
		}
		target := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, err
		}
		if err := cp.Copy(filepath.Join(secondary, rel), target, cp.Options{PreserveTimes: true}); err != nil {
			return nil, fmt.Errorf("copy %s: %w", rel, err)
		}
		report.FromSecondary++
	}
	report.TotalFiles = report.FromPrimary + report.FromSecondary
	return report, nil
}

// listFiles returns the relative paths of all regular files under root.
func listFiles(root string) (map[string]struct{}, error) {
	files := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[rel] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
