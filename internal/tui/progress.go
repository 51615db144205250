// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package tui renders fetch progress for interactive and non-interactive
// terminals.
package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/ggufpack/ggufpack/pkg/fetch"
)

// Renderer consumes progress events from a fetch and draws them.
type Renderer interface {
	// Handler returns the ProgressFunc to pass into fetch.Fetch.
	Handler() fetch.ProgressFunc

	// Close flushes any live output and releases the renderer.
	Close()
}

// NewRenderer picks a renderer for stdout: a live progress bar on
// interactive terminals, occasional plain lines otherwise. jsonOut
// switches to newline-delimited JSON events for machine consumers,
// quiet suppresses everything except errors.
func NewRenderer(jsonOut, quiet bool) Renderer {
	switch {
	case jsonOut:
		return &jsonRenderer{enc: json.NewEncoder(os.Stdout)}
	case quiet:
		return quietRenderer{}
	case term.IsTerminal(int(os.Stdout.Fd())):
		return &barRenderer{}
	default:
		return &plainRenderer{}
	}
}

// barRenderer draws a single live byte-counter bar. The bar starts on
// the first attempt and survives retries; a restart snaps it back to
// zero just like the file on disk.
type barRenderer struct {
	mu  sync.Mutex
	bar *pb.ProgressBar
}

func (r *barRenderer) Handler() fetch.ProgressFunc {
	return func(ev fetch.ProgressEvent) {
		r.mu.Lock()
		defer r.mu.Unlock()
		switch ev.Event {
		case "attempt":
			r.ensureBar(ev.Total)
			r.bar.SetCurrent(ev.Offset)
		case "progress":
			r.ensureBar(ev.Total)
			r.bar.SetCurrent(ev.Downloaded)
		case "restart":
			if r.bar != nil {
				r.bar.SetCurrent(0)
			}
			color.New(color.FgYellow).Fprintln(os.Stderr, ev.Message)
		case "retry":
			color.New(color.FgYellow).Fprintf(os.Stderr, "attempt %d failed: %s\n", ev.Attempt, ev.Message)
		case "done":
			if r.bar != nil {
				if ev.Total > 0 {
					r.bar.SetCurrent(ev.Total)
				}
				r.bar.Finish()
				r.bar = nil
			}
		case "error":
			r.finishBar()
			color.New(color.FgRed).Fprintln(os.Stderr, ev.Message)
		}
	}
}

func (r *barRenderer) ensureBar(total int64) {
	if r.bar == nil {
		r.bar = pb.Full.Start64(total)
		r.bar.Set(pb.Bytes, true)
		return
	}
	if total > 0 && r.bar.Total() != total {
		r.bar.SetTotal(total)
	}
}

func (r *barRenderer) finishBar() {
	if r.bar != nil {
		r.bar.Finish()
		r.bar = nil
	}
}

func (r *barRenderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishBar()
}

// plainRenderer prints one-line updates suitable for logs and CI, with
// progress lines throttled so a long transfer does not flood the output.
type plainRenderer struct {
	mu   sync.Mutex
	last time.Time
}

func (r *plainRenderer) Handler() fetch.ProgressFunc {
	return func(ev fetch.ProgressEvent) {
		r.mu.Lock()
		defer r.mu.Unlock()
		switch ev.Event {
		case "probe":
			fmt.Printf("remote size: %s\n", HumanBytes(ev.Total))
		case "attempt":
			if ev.Offset > 0 {
				fmt.Printf("attempt %d: resuming at %s\n", ev.Attempt, HumanBytes(ev.Offset))
			} else {
				fmt.Printf("attempt %d: downloading %s\n", ev.Attempt, ev.URL)
			}
		case "progress":
			if time.Since(r.last) < 2*time.Second {
				return
			}
			r.last = time.Now()
			if ev.Total > 0 {
				pct := float64(ev.Downloaded) / float64(ev.Total) * 100
				fmt.Printf("  %s / %s (%.0f%%)\n", HumanBytes(ev.Downloaded), HumanBytes(ev.Total), pct)
			} else {
				fmt.Printf("  %s\n", HumanBytes(ev.Downloaded))
			}
		case "restart", "retry":
			fmt.Println(ev.Message)
		case "error":
			fmt.Fprintln(os.Stderr, ev.Message)
		}
	}
}

func (r *plainRenderer) Close() {}

// jsonRenderer emits every event as one JSON line.
type jsonRenderer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (r *jsonRenderer) Handler() fetch.ProgressFunc {
	return func(ev fetch.ProgressEvent) {
		r.mu.Lock()
		defer r.mu.Unlock()
		_ = r.enc.Encode(ev)
	}
}

func (r *jsonRenderer) Close() {}

// quietRenderer drops everything except errors.
type quietRenderer struct{}

func (quietRenderer) Handler() fetch.ProgressFunc {
	return func(ev fetch.ProgressEvent) {
		if ev.Event == "error" {
			fmt.Fprintln(os.Stderr, ev.Message)
		}
	}
}

func (quietRenderer) Close() {}

// HumanBytes renders a byte count in binary units.
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for n/div >= unit && exp < 6 {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatDuration renders a duration as mm:ss, or hh:mm:ss past an hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
