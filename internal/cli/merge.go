// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ggufpack/ggufpack/pkg/modeldir"
)

func newMergeCmd(ro *RootOpts) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "merge PRIMARY SECONDARY DEST",
		Short: "Merge two model directories; the primary wins on conflicts",
		Long: `Merge combines two local model directories into DEST. Files present
in both come from PRIMARY; SECONDARY only contributes files the primary
lacks. Tokenizer artifacts that would break GGUF conversion are removed
from the merged tree afterwards.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := modeldir.Merge(args[0], args[1], args[2], overwrite)
			if err != nil {
				return err
			}
			if !ro.Quiet {
				fmt.Printf("Merged %d files into %s (%d from primary, %d from secondary, %d conflicts)\n",
					report.TotalFiles, args[2], report.FromPrimary, report.FromSecondary, report.Conflicts)
			}
			return applyTokenizerFixes(args[2], ro.Quiet)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace DEST if it already exists")

	return cmd
}

// applyTokenizerFixes runs the tokenizer repairs on dir and reports what
// happened to each file.
func applyTokenizerFixes(dir string, quiet bool) error {
	applied, reason, err := modeldir.FixTokenizer(dir)
	if err != nil {
		return err
	}
	if !quiet {
		printFixResult("tokenizer.json", applied, reason)
	}
	applied, reason, err = modeldir.FixAddedTokens(dir)
	if err != nil {
		return err
	}
	if !quiet {
		printFixResult("added_tokens.json", applied, reason)
	}
	return nil
}

func printFixResult(name string, applied bool, reason string) {
	if applied {
		fmt.Printf("✓ Removed %s (%s)\n", name, reason)
		return
	}
	fmt.Printf("  %s: %s\n", name, reason)
}
