// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fetch

import "os"

// fileSize returns the current size of path, or 0 when it does not exist.
// The size on disk is the resumption offset; no other state is kept.
func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// verifySize checks the finished file against the expected total.
// expected <= 0 means the server never declared a size and verification
// is skipped.
func verifySize(path string, expected int64) error {
	if expected <= 0 {
		return nil
	}
	actual := fileSize(path)
	if actual != expected {
		return &SizeMismatchError{Path: path, Expected: expected, Actual: actual}
	}
	return nil
}
