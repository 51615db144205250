// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fetch

import "time"

// Request defines one transfer: a remote URL and a local destination path.
//
// Both fields are required. A Request is immutable once the transfer starts;
// repeating a Fetch with the same Request resumes from whatever bytes the
// destination file already holds.
//
// Example:
//
//	req := fetch.Request{
//	    URL:  "https://huggingface.co/TheBloke/Mistral-7B-GGUF/resolve/main/model.Q4_0.gguf",
//	    Dest: "./Models/model.Q4_0.gguf",
//	}
type Request struct {
	// URL is the http(s) location of the remote file.
	// This field is required.
	URL string

	// Dest is the local file path the download is written to.
	// The parent directory is created if needed. If the file already
	// exists, its size is the resumption offset.
	// This field is required.
	Dest string
}

// Settings configures transfer behavior.
//
// All fields have sensible defaults; the zero value works for public files.
//
// Example with full configuration:
//
//	cfg := fetch.Settings{
//	    Token:          os.Getenv("HF_TOKEN"),
//	    Retries:        8,
//	    BackoffInitial: "1s",
//	    BackoffMax:     "1m",
//	    StallTimeout:   "30s",
//	    RateLimit:      "10MiB",
//	}
type Settings struct {
	// Token is a bearer token for authenticated sources, attached as
	// "Authorization: Bearer <token>". Leave empty for public files.
	Token string

	// Retries is the total attempt budget for the transfer, counting the
	// first attempt. Each failed attempt resumes from the bytes already
	// on disk. If <= 0, defaults to 5.
	Retries int

	// BackoffInitial is the delay before the second attempt.
	// Accepts duration strings: "500ms", "1.5s", "2s", etc.
	// If empty, defaults to "1.5s".
	BackoffInitial string

	// BackoffMax caps the delay between attempts. The delay doubles each
	// retry with jitter applied, up to this value.
	// If empty, defaults to "30s".
	BackoffMax string

	// StallTimeout aborts an attempt when no body bytes arrive for this
	// long. The aborted attempt counts as transient and is retried; bytes
	// already written stay on disk. There is no deadline on the attempt
	// as a whole, so slow-but-moving transfers of any size are fine.
	// If empty, defaults to "60s".
	StallTimeout string

	// ChunkSize is the copy buffer size for streaming writes.
	// Accepts human-readable sizes: "256KiB", "1MiB", "4MiB", etc.
	// If empty or zero, defaults to "1MiB". Negative sizes are an error.
	ChunkSize string

	// RateLimit caps the transfer speed in bytes per second.
	// Accepts human-readable sizes: "500KiB", "10MiB", etc.
	// If empty or zero, the transfer is unlimited. Negative sizes are
	// an error.
	RateLimit string
}

// Outcome reports how a completed transfer went.
type Outcome struct {
	// Path is the destination file path.
	Path string

	// Size is the final size of the destination file in bytes.
	Size int64

	// Total is the expected size learned from the server, or 0 when no
	// response ever declared one (in that case size verification was
	// skipped).
	Total int64

	// Attempts is the number of attempts used, 1 for a clean first run.
	Attempts int

	// Resumed is true when the transfer that completed began from a
	// non-zero offset. An attempt that restarted from zero mid-flight
	// (see Restarts) does not count as a resume.
	Resumed bool

	// Restarts counts how many times the file was restarted from zero
	// (server ignored the range, or a range mismatch was detected).
	Restarts int

	// Skipped is true when the destination already matched the expected
	// size and no download was performed.
	Skipped bool
}

// ProgressEvent represents a progress update during a transfer.
//
// The Event field indicates the type of event:
//   - "probe": The expected size was requested from the server
//   - "attempt": An attempt has started (Offset holds the resume point)
//   - "progress": Periodic progress update during streaming
//   - "restart": The file was restarted from zero (check Message for why)
//   - "retry": A retry is about to happen after a transient failure
//   - "done": Transfer complete (check Message for "already complete")
//   - "error": A terminal error occurred
type ProgressEvent struct {
	// Time is when the event occurred (UTC).
	Time time.Time `json:"time"`

	// Level is the log level: "debug", "info", "warn", "error".
	// Empty defaults to "info".
	Level string `json:"level,omitempty"`

	// Event is the event type identifier.
	Event string `json:"event"`

	// URL is the remote file being transferred.
	URL string `json:"url,omitempty"`

	// Path is the destination file path.
	Path string `json:"path,omitempty"`

	// Offset is the byte position an attempt resumes from.
	// Set in "attempt" events.
	Offset int64 `json:"offset,omitempty"`

	// Downloaded is the cumulative size of the destination file so far.
	Downloaded int64 `json:"downloaded,omitempty"`

	// Total is the expected size in bytes, 0 while unknown.
	Total int64 `json:"total,omitempty"`

	// Attempt is the attempt number (1-based).
	Attempt int `json:"attempt,omitempty"`

	// Message contains additional context or error details.
	Message string `json:"message,omitempty"`
}

// ProgressFunc is a callback for receiving progress events.
//
// Implement this to display progress in a UI, log events, or feed a
// machine-readable stream. The callback is invoked from the transfer
// goroutine; keep it fast or hand events off to a channel.
//
// Example:
//
//	progress := func(e fetch.ProgressEvent) {
//	    switch e.Event {
//	    case "attempt":
//	        fmt.Printf("attempt %d from offset %d\n", e.Attempt, e.Offset)
//	    case "done":
//	        fmt.Println("complete")
//	    }
//	}
type ProgressFunc func(ProgressEvent)

// DefaultSettings returns Settings with sensible defaults filled in.
//
// Use this as a starting point and override specific fields:
//
//	cfg := fetch.DefaultSettings()
//	cfg.Token = os.Getenv("HF_TOKEN")
func DefaultSettings() Settings {
	return Settings{
		Retries:        5,
		BackoffInitial: "1.5s",
		BackoffMax:     "30s",
		StallTimeout:   "60s",
		ChunkSize:      "1MiB",
	}
}
