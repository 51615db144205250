// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// Common errors returned by the library.
var (
	// ErrUnauthorized is returned when the source requires authentication
	// or the supplied token does not grant access.
	ErrUnauthorized = errors.New("unauthorized: this source requires a valid token")

	// ErrNotFound is returned when the remote file does not exist.
	ErrNotFound = errors.New("remote file not found")

	// ErrRateLimited is returned when the server rejects the request for
	// sending too many.
	ErrRateLimited = errors.New("rate limited: too many requests")
)

// errStalled marks an attempt aborted by the stall watchdog. It is
// transient: the next attempt resumes from the bytes already on disk.
var errStalled = errors.New("transfer stalled: no data received within stall timeout")

// HTTPError represents an unexpected HTTP status from the server.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned %s for %s", e.Status, e.URL)
}

// IsRetryable returns true if the status might clear up on retry.
func (e *HTTPError) IsRetryable() bool {
	switch e.StatusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Is implements errors.Is for common error comparisons.
func (e *HTTPError) Is(target error) bool {
	switch e.StatusCode {
	case 401, 403:
		return errors.Is(target, ErrUnauthorized)
	case 404, 410:
		return errors.Is(target, ErrNotFound)
	case 429:
		return errors.Is(target, ErrRateLimited)
	default:
		return false
	}
}

// RangeError is returned when the server answered a ranged request with a
// partial response that does not start at the requested offset. The file is
// restarted from zero before the next attempt; appending at a guessed
// position is never safe.
type RangeError struct {
	URL       string
	Requested int64
	Header    string // raw Content-Range value, may be empty
}

func (e *RangeError) Error() string {
	if e.Header == "" {
		return fmt.Sprintf("range not honored: requested offset %d, no Content-Range in response", e.Requested)
	}
	return fmt.Sprintf("range not honored: requested offset %d, server sent %q", e.Requested, e.Header)
}

// SizeMismatchError is returned when the finished file does not match the
// size the server declared. The file is kept on disk so a later run can
// resume or restart.
type SizeMismatchError struct {
	Path     string
	Expected int64
	Actual   int64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("size mismatch for %s: expected %d bytes, have %d", e.Path, e.Expected, e.Actual)
}

// RetryError is returned when the attempt budget is exhausted. It wraps the
// last underlying error for diagnostics.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("download failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// isRetryable decides whether an attempt failure is worth another attempt.
// Retryability is a property of the classified error, never of message
// matching at call sites.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, errStalled) {
		return true
	}

	var he *HTTPError
	if errors.As(err, &he) {
		return he.IsRetryable()
	}
	var re *RangeError
	if errors.As(err, &re) {
		return true
	}
	var sm *SizeMismatchError
	if errors.As(err, &sm) {
		return false
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := err.Error()
	for _, s := range []string{"connection reset", "connection refused", "broken pipe", "EOF"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
