// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ggufpack/ggufpack/internal/tui"
	"github.com/ggufpack/ggufpack/pkg/fetch"
)

func newFetchCmd(ro *RootOpts) *cobra.Command {
	cfg := fetch.DefaultSettings()

	cmd := &cobra.Command{
		Use:   "fetch URL DEST",
		Short: "Download one file with resume and retry",
		Long: `Fetch downloads URL into the local file DEST. An interrupted or
partially written DEST is resumed from where it left off using HTTP
range requests; re-running on a complete file transfers nothing.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("requires URL and DEST arguments (see 'ggufpack fetch --help')")
			}

			fileCfg, err := loadConfigFile(ro)
			if err != nil {
				return err
			}
			applyFetchConfig(cmd, fileCfg, &cfg)
			cfg.Token = resolveToken(ro, fileCfg)

			req := fetch.Request{URL: args[0], Dest: args[1]}
			ui := tui.NewRenderer(ro.JSONOut, ro.Quiet)
			defer ui.Close()

			start := time.Now()
			outcome, err := fetch.Fetch(cmd.Context(), req, cfg, ui.Handler())
			if err != nil {
				return err
			}
			ui.Close()

			if !ro.Quiet && !ro.JSONOut {
				if outcome.Skipped {
					fmt.Printf("✓ Already complete: %s (%s)\n", outcome.Path, tui.HumanBytes(outcome.Size))
				} else {
					fmt.Printf("✓ Downloaded %s (%s) in %s\n", outcome.Path, tui.HumanBytes(outcome.Size), tui.FormatDuration(time.Since(start)))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.Retries, "retries", cfg.Retries, "Max download attempts")
	cmd.Flags().StringVar(&cfg.BackoffInitial, "backoff-initial", cfg.BackoffInitial, "Initial retry backoff duration")
	cmd.Flags().StringVar(&cfg.BackoffMax, "backoff-max", cfg.BackoffMax, "Maximum retry backoff duration")
	cmd.Flags().StringVar(&cfg.StallTimeout, "stall-timeout", cfg.StallTimeout, "Abort an attempt when no bytes arrive for this long")
	cmd.Flags().StringVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "Read buffer size (e.g. 1MiB)")
	cmd.Flags().StringVar(&cfg.RateLimit, "limit-rate", "", "Throttle download speed (e.g. 2MiB for 2 MiB/s)")

	return cmd
}

// applyFetchConfig fills settings from the config file for flags not
// given on the command line.
func applyFetchConfig(cmd *cobra.Command, cfg map[string]any, dst *fetch.Settings) {
	applyConfigInt(cmd, cfg, "retries", func(v int) { dst.Retries = v })
	applyConfigString(cmd, cfg, "backoff-initial", func(v string) { dst.BackoffInitial = v })
	applyConfigString(cmd, cfg, "backoff-max", func(v string) { dst.BackoffMax = v })
	applyConfigString(cmd, cfg, "stall-timeout", func(v string) { dst.StallTimeout = v })
	applyConfigString(cmd, cfg, "chunk-size", func(v string) { dst.ChunkSize = v })
	applyConfigString(cmd, cfg, "limit-rate", func(v string) { dst.RateLimit = v })
}
