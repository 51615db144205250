// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/juju/ratelimit"
)

const defaultChunkSize = 1 << 20 // 1MiB

// progressReader wraps an io.Reader and emits progress events during reads.
// base is the file offset the attempt started from, so Downloaded always
// reports the cumulative size of the destination file.
type progressReader struct {
	reader   io.Reader
	base     int64
	total    int64
	read     int64
	path     string
	emit     func(ProgressEvent)
	lastEmit time.Time
	interval time.Duration
}

func newProgressReader(r io.Reader, base, total int64, path string, emit func(ProgressEvent)) *progressReader {
	return &progressReader{
		reader:   r,
		base:     base,
		total:    total,
		path:     path,
		emit:     emit,
		lastEmit: time.Now(),
		interval: 200 * time.Millisecond, // Emit at most 5 times per second
	}
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		pr.read += int64(n)
		// Throttle emissions to avoid flooding
		if time.Since(pr.lastEmit) >= pr.interval || err == io.EOF {
			pr.emit(ProgressEvent{
				Event:      "progress",
				Path:       pr.path,
				Downloaded: pr.base + pr.read,
				Total:      pr.total,
			})
			pr.lastEmit = time.Now()
		}
	}
	return n, err
}

// stallReader feeds the watchdog: every read that yields bytes pushes the
// stall deadline out again.
type stallReader struct {
	reader io.Reader
	timer  *time.Timer
	d      time.Duration
}

func (sr *stallReader) Read(p []byte) (int, error) {
	n, err := sr.reader.Read(p)
	if n > 0 {
		sr.timer.Reset(sr.d)
	}
	return n, err
}

// fetcher holds one transfer's resolved configuration and mutable state.
type fetcher struct {
	httpc  *http.Client
	url    string
	dest   string
	token  string
	chunk  int64
	stall  time.Duration
	bucket *ratelimit.Bucket
	emit   func(ProgressEvent)

	total    int64 // expected size in bytes, 0 until a response declares one
	offset   int64 // offset the most recent attempt started from
	restarts int
}

// Fetch downloads req.URL to req.Dest, resuming from whatever bytes the
// destination file already holds.
//
// The destination file is the only state: its size is the resumption
// offset, and a ranged request asks the server for the remainder. A server
// that ignores the range (plain 200) causes a restart from zero rather
// than ever interleaving bytes. Transient failures (timeouts, resets,
// stalls, 5xx) are retried with exponential backoff and jitter up to the
// attempt budget, re-reading the offset from the file each time. Definitive
// client errors (404, 403, 401) are returned immediately.
//
// When the expected size is known the finished file is verified against
// it; on mismatch the file is kept so a later run can resume. A file that
// already matches the expected size is not downloaded again.
//
// Cancellation: ctx aborts connection setup, body reads, and backoff
// sleeps promptly. Whatever bytes were already written remain on disk as a
// valid resumption point.
func Fetch(ctx context.Context, req Request, cfg Settings, progress ProgressFunc) (*Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	retries := cfg.Retries
	if retries <= 0 {
		retries = 5
	}
	backoffInitial, err := parseDurationString(cfg.BackoffInitial, 1500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid backoff-initial: %w", err)
	}
	backoffMax, err := parseDurationString(cfg.BackoffMax, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid backoff-max: %w", err)
	}
	stall, err := parseDurationString(cfg.StallTimeout, 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid stall-timeout: %w", err)
	}
	chunk, err := parseSizeString(cfg.ChunkSize, defaultChunkSize)
	if err != nil {
		return nil, fmt.Errorf("invalid chunk-size: %w", err)
	}
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	rate, err := parseSizeString(cfg.RateLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("invalid rate-limit: %w", err)
	}

	emit := func(ev ProgressEvent) {
		if progress == nil {
			return
		}
		if ev.Time.IsZero() {
			ev.Time = time.Now().UTC()
		}
		if ev.Path == "" {
			ev.Path = req.Dest
		}
		progress(ev)
	}

	f := &fetcher{
		httpc: buildHTTPClient(),
		url:   req.URL,
		dest:  req.Dest,
		token: cfg.Token,
		chunk: chunk,
		stall: stall,
		emit:  emit,
	}
	if rate > 0 {
		f.bucket = ratelimit.NewBucketWithRate(float64(rate), rate)
	}

	if dir := filepath.Dir(req.Dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	// Learn the expected size up front so an already-complete file needs
	// no transfer at all.
	f.total = probeSize(ctx, f.httpc, f.token, f.url)
	if f.total > 0 {
		f.emit(ProgressEvent{Event: "probe", URL: f.url, Total: f.total})
		cur := fileSize(f.dest)
		if cur == f.total {
			f.emit(ProgressEvent{Event: "done", Downloaded: cur, Total: f.total, Message: "already complete"})
			return &Outcome{Path: f.dest, Size: cur, Total: f.total, Skipped: true}, nil
		}
		if cur > f.total {
			if err := f.restart(fmt.Sprintf("local file larger than remote (%d > %d bytes)", cur, f.total)); err != nil {
				return nil, err
			}
		}
	}

	bo := newBackOff(backoffInitial, backoffMax)
	var lastErr error

	for attempt := 1; attempt <= retries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		err := f.attempt(ctx, attempt)
		if err == nil {
			if verr := verifySize(f.dest, f.total); verr != nil {
				f.emit(ProgressEvent{Event: "error", Level: "error", Message: verr.Error()})
				return nil, verr
			}
			size := fileSize(f.dest)
			f.emit(ProgressEvent{Event: "done", Downloaded: size, Total: f.total})
			return &Outcome{
				Path:     f.dest,
				Size:     size,
				Total:    f.total,
				Attempts: attempt,
				Resumed:  f.offset > 0,
				Restarts: f.restarts,
			}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isRetryable(err) {
			f.emit(ProgressEvent{Event: "error", Level: "error", Message: err.Error()})
			return nil, err
		}

		lastErr = err
		if attempt < retries {
			f.emit(ProgressEvent{Event: "retry", Level: "warn", Attempt: attempt, Message: err.Error()})
			if !sleepCtx(ctx, bo.NextBackOff()) {
				return nil, ctx.Err()
			}
		}
	}

	rerr := &RetryError{Attempts: retries, Err: lastErr}
	f.emit(ProgressEvent{Event: "error", Level: "error", Message: rerr.Error()})
	return nil, rerr
}

// attempt runs one request cycle: re-read the offset from the file, ask the
// server for the remainder, validate its answer, stream to disk.
func (f *fetcher) attempt(ctx context.Context, attempt int) error {
	offset := fileSize(f.dest)
	f.offset = offset

	attemptCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	req, err := http.NewRequestWithContext(attemptCtx, "GET", f.url, nil)
	if err != nil {
		return err
	}
	addAuth(req, f.token)
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	f.emit(ProgressEvent{Event: "attempt", URL: f.url, Offset: offset, Total: f.total, Attempt: attempt})

	// The watchdog covers connection setup and every body read: any gap
	// longer than the stall timeout without bytes aborts the attempt.
	watchdog := time.AfterFunc(f.stall, func() { cancel(errStalled) })
	defer watchdog.Stop()

	resp, err := f.httpc.Do(req)
	if err != nil {
		return f.attemptErr(attemptCtx, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if offset > 0 {
			// Server ignored the range and is sending the full object.
			if err := f.restart("server ignored range request, downloading from scratch"); err != nil {
				return err
			}
			offset = 0
			f.offset = 0
		}
		if resp.ContentLength > 0 {
			f.total = resp.ContentLength
		}

	case http.StatusPartialContent:
		header := resp.Header.Get("Content-Range")
		start, _, crTotal, perr := parseContentRange(header)
		if perr != nil || start != offset {
			rerr := &RangeError{URL: f.url, Requested: offset, Header: header}
			if err := f.restart(rerr.Error()); err != nil {
				return err
			}
			return rerr
		}
		if crTotal > 0 {
			f.total = crTotal
		} else if f.total == 0 && resp.ContentLength > 0 {
			f.total = offset + resp.ContentLength
		}

	case http.StatusRequestedRangeNotSatisfiable:
		if f.total > 0 && offset == f.total {
			// Nothing left to ask for; the file is already complete.
			return nil
		}
		rerr := &RangeError{URL: f.url, Requested: offset, Header: resp.Header.Get("Content-Range")}
		if err := f.restart("requested range not satisfiable, downloading from scratch"); err != nil {
			return err
		}
		return rerr

	default:
		return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, URL: f.url}
	}

	out, err := os.OpenFile(f.dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	var r io.Reader = &stallReader{reader: resp.Body, timer: watchdog, d: f.stall}
	if f.bucket != nil {
		r = ratelimit.Reader(r, f.bucket)
	}
	pr := newProgressReader(r, offset, f.total, f.dest, f.emit)

	if _, err := copyChunks(out, pr, make([]byte, f.chunk)); err != nil {
		return f.attemptErr(attemptCtx, err)
	}
	return nil
}

// copyChunks streams src to dst through buf so every chunk reaches the
// file before the next read. io.Copy is not used here: *os.File's
// ReaderFrom would take over and ignore the buffer size.
func copyChunks(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			if wn < n {
				return written, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// attemptErr maps a read/request error aborted by the stall watchdog back
// to errStalled so it is classified transient rather than as cancellation.
func (f *fetcher) attemptErr(attemptCtx context.Context, err error) error {
	if errors.Is(context.Cause(attemptCtx), errStalled) {
		return errStalled
	}
	return err
}

// restart throws away the local bytes so the next write begins at zero.
// This is the only path where the file ever shrinks.
func (f *fetcher) restart(reason string) error {
	if err := os.Truncate(f.dest, 0); err != nil && !os.IsNotExist(err) {
		return err
	}
	f.restarts++
	f.emit(ProgressEvent{Event: "restart", Level: "warn", Message: reason})
	return nil
}

// validate checks that the request is usable.
func validate(req Request) error {
	if req.URL == "" {
		return errors.New("missing url")
	}
	u, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", req.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q (want http or https)", u.Scheme)
	}
	if req.Dest == "" {
		return errors.New("missing destination path")
	}
	return nil
}
