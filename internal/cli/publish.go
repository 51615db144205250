// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ggufpack/ggufpack/internal/publish"
)

func newPublishCmd(ro *RootOpts) *cobra.Command {
	opts := publish.Options{}

	cmd := &cobra.Command{
		Use:   "publish DIR [REMOTE]",
		Short: "Commit a model directory with git-lfs and push it to a remote",
		Long: `Publish initializes a git repository in DIR when needed, tracks the
weight files with git-lfs, commits everything and pushes to REMOTE.
Without a remote the directory is committed locally only.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Dir = args[0]
			if len(args) == 2 {
				opts.Remote = args[1]
			}

			out := io.Writer(os.Stdout)
			if ro.Quiet {
				out = io.Discard
			}

			report, err := publish.Publish(cmd.Context(), opts, out)
			if err != nil {
				return err
			}
			if ro.Quiet {
				return nil
			}
			switch {
			case report.Pushed:
				fmt.Printf("✓ Pushed %s to %s\n", args[0], opts.Remote)
			case report.Committed:
				fmt.Println("✓ Committed locally (no remote configured)")
			default:
				fmt.Println("Nothing to commit")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Branch, "branch", "main", "Branch to push")
	cmd.Flags().StringVar(&opts.Message, "message", "", `Commit message (default "Add model artifacts")`)
	cmd.Flags().StringSliceVar(&opts.LFSPatterns, "lfs", nil, "Glob tracked with git-lfs (repeatable; default *.gguf,*.safetensors,*.bin)")

	return cmd
}
