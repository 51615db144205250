// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestHTTPError_Is(t *testing.T) {
	cases := []struct {
		code   int
		target error
	}{
		{401, ErrUnauthorized},
		{403, ErrUnauthorized},
		{404, ErrNotFound},
		{410, ErrNotFound},
		{429, ErrRateLimited},
	}
	for _, tc := range cases {
		err := &HTTPError{StatusCode: tc.code, Status: fmt.Sprint(tc.code)}
		if !errors.Is(err, tc.target) {
			t.Errorf("Status %d should match %v", tc.code, tc.target)
		}
	}

	err := &HTTPError{StatusCode: 500, Status: "500"}
	if errors.Is(err, ErrNotFound) {
		t.Error("500 should not match ErrNotFound")
	}
}

func TestHTTPError_IsRetryable(t *testing.T) {
	retryable := []int{408, 429, 500, 502, 503, 504}
	for _, code := range retryable {
		if !(&HTTPError{StatusCode: code}).IsRetryable() {
			t.Errorf("Status %d should be retryable", code)
		}
	}
	definitive := []int{400, 401, 403, 404, 405, 410}
	for _, code := range definitive {
		if (&HTTPError{StatusCode: code}).IsRetryable() {
			t.Errorf("Status %d should not be retryable", code)
		}
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"stalled", errStalled, true},
		{"server error", &HTTPError{StatusCode: 503}, true},
		{"not found", &HTTPError{StatusCode: 404}, false},
		{"range mismatch", &RangeError{Requested: 400}, true},
		{"size mismatch", &SizeMismatchError{Path: "f", Expected: 10, Actual: 5}, false},
		{"net timeout", timeoutErr{}, true},
		{"wrapped net timeout", fmt.Errorf("do: %w", timeoutErr{}), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"plain error", errors.New("no such host"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isRetryable(tc.err); got != tc.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetryError_Unwrap(t *testing.T) {
	inner := &HTTPError{StatusCode: 503, Status: "503 Service Unavailable"}
	err := &RetryError{Attempts: 5, Err: inner}

	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatal("RetryError should unwrap to the last underlying error")
	}
	if he.StatusCode != 503 {
		t.Errorf("Expected status 503, got %d", he.StatusCode)
	}
}
