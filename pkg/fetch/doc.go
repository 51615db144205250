// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

/*
Package fetch downloads single large files over HTTP with resume support,
surviving transient network failures without re-fetching bytes already on
disk.

# Features

  - Resumable transfers: The destination file's size is the checkpoint; an
    interrupted download continues from where it left off
  - Range validation: A server answer that does not line up with the local
    bytes triggers a clean restart from zero, never a corrupt file
  - Streaming writes: Bodies of any size are streamed chunk by chunk,
    nothing is buffered in memory
  - Retry with backoff: Transient failures retry with exponential backoff
    and jitter; definitive errors (404, 403) fail fast
  - Stall detection: An attempt that stops delivering bytes is aborted and
    retried instead of hanging forever
  - Progress events: Real-time progress callbacks for UI integration
  - Context cancellation: Aborting mid-stream leaves a valid partial file

# Quick Start

Download a file with default settings:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/ggufpack/ggufpack/pkg/fetch"
	)

	func main() {
		req := fetch.Request{
			URL:  "https://example.com/models/model.Q4_0.gguf",
			Dest: "./Models/model.Q4_0.gguf",
		}

		outcome, err := fetch.Fetch(context.Background(), req, fetch.DefaultSettings(), func(e fetch.ProgressEvent) {
			fmt.Printf("[%s] %d/%d\n", e.Event, e.Downloaded, e.Total)
		})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("done: %d bytes in %d attempt(s)\n", outcome.Size, outcome.Attempts)
	}

# Resume Behavior

Resume is always on and needs no sidecar files: the size of the destination
file is the offset of the next ranged request. Three things can happen to an
existing partial file:

  - The server honors the range (206 starting at the offset): new bytes are
    appended.
  - The server ignores the range (200): the file is truncated and rewritten
    from scratch. Appending full-object bytes to a partial file would
    corrupt it.
  - The server sends a partial response for the wrong offset: the response
    is rejected, the file restarts from zero on the next attempt.

A file that already matches the server's size is left alone entirely.

# Error Handling

Errors are classified, and classification decides retryability:

  - Transient (timeouts, connection resets, stalls, truncated bodies,
    408/429/5xx): retried with backoff until the attempt budget runs out,
    then returned wrapped in a RetryError.
  - Definitive (404, 403, 401): returned immediately. Compare with
    errors.Is against ErrNotFound, ErrUnauthorized, ErrRateLimited.
  - Size mismatch after a finished transfer: returned as a
    SizeMismatchError; the file is preserved for a later resume.

# Authentication

For protected sources, set the Token field in Settings:

	cfg := fetch.DefaultSettings()
	cfg.Token = os.Getenv("HF_TOKEN")

The token is attached as "Authorization: Bearer <token>" on every request,
including the initial size probe.
*/
package fetch
