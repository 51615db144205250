// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ggufpack/ggufpack/internal/llamacpp"
	"github.com/ggufpack/ggufpack/pkg/modeldir"
)

func newBuildCmd(ro *RootOpts) *cobra.Command {
	var (
		outFile   string
		mergedDir string
		llamaDir  string
		outtype   string
		python    string
		clone     bool
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "build PRIMARY SECONDARY",
		Short: "Merge, repair and convert two model directories into one GGUF file",
		Long: `Build runs the whole pipeline: merge the two model directories
(the primary wins on conflicts), remove tokenizer files that would break
conversion, then run the llama.cpp converter on the merged tree. The
merged tree is kept next to the output file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := loadConfigFile(ro)
			if err != nil {
				return err
			}
			applyConfigString(cmd, fileCfg, "llama-cpp-dir", func(v string) { llamaDir = v })
			applyConfigString(cmd, fileCfg, "outtype", func(v string) { outtype = v })

			if !llamacpp.IsValidOuttype(outtype) {
				return fmt.Errorf("invalid outtype %q (valid: %s)", outtype, strings.Join(llamacpp.ValidOuttypes, ", "))
			}
			if outFile == "" {
				outFile = defaultOutFile(args[0], outtype)
			}
			if mergedDir == "" {
				mergedDir = strings.TrimSuffix(outFile, ".gguf")
			}

			out := io.Writer(os.Stdout)
			if ro.Quiet {
				out = io.Discard
			}

			// Check the checkout before the merge does any work.
			if err := llamacpp.EnsureRepo(cmd.Context(), llamaDir, clone, out); err != nil {
				return err
			}

			report, err := modeldir.Merge(args[0], args[1], mergedDir, overwrite)
			if err != nil {
				return err
			}
			if !ro.Quiet {
				fmt.Printf("Merged %d files into %s (%d from primary, %d from secondary, %d conflicts)\n",
					report.TotalFiles, mergedDir, report.FromPrimary, report.FromSecondary, report.Conflicts)
			}
			if err := applyTokenizerFixes(mergedDir, ro.Quiet); err != nil {
				return err
			}

			lcfg := llamacpp.Config{Dir: llamaDir, Python: python, Outtype: outtype}
			if err := llamacpp.Convert(cmd.Context(), lcfg, mergedDir, outFile, out); err != nil {
				return err
			}
			if !ro.Quiet {
				fmt.Printf("✓ Wrote %s (%s)\n", outFile, fileSizeString(outFile))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Output GGUF file (default derived from PRIMARY and outtype)")
	cmd.Flags().StringVar(&mergedDir, "merged-dir", "", "Where to build the merged tree (default: output file without .gguf)")
	cmd.Flags().StringVar(&llamaDir, "llama-cpp-dir", llamacpp.DefaultDir, "Path to a llama.cpp checkout")
	cmd.Flags().StringVar(&outtype, "outtype", llamacpp.DefaultOuttype, "GGUF output type: "+strings.Join(llamacpp.ValidOuttypes, "|"))
	cmd.Flags().StringVar(&python, "python", "python3", "Python interpreter used to run the conversion script")
	cmd.Flags().BoolVar(&clone, "clone-llama-cpp", false, "Clone llama.cpp when no checkout is found")
	cmd.Flags().BoolVar(&overwrite, "overwrite-merged", false, "Replace the merged tree if it already exists")

	return cmd
}
