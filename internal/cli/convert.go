// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ggufpack/ggufpack/internal/llamacpp"
	"github.com/ggufpack/ggufpack/internal/tui"
)

func newConvertCmd(ro *RootOpts) *cobra.Command {
	var (
		llamaDir string
		outtype  string
		python   string
		clone    bool
	)

	cmd := &cobra.Command{
		Use:   "convert MODELDIR [OUTFILE]",
		Short: "Convert a model directory to a GGUF file via llama.cpp",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := loadConfigFile(ro)
			if err != nil {
				return err
			}
			applyConfigString(cmd, fileCfg, "llama-cpp-dir", func(v string) { llamaDir = v })
			applyConfigString(cmd, fileCfg, "outtype", func(v string) { outtype = v })

			modelDir := args[0]
			outFile := defaultOutFile(modelDir, outtype)
			if len(args) == 2 {
				outFile = args[1]
			}

			out := io.Writer(os.Stdout)
			if ro.Quiet {
				out = io.Discard
			}

			if err := llamacpp.EnsureRepo(cmd.Context(), llamaDir, clone, out); err != nil {
				return err
			}
			lcfg := llamacpp.Config{Dir: llamaDir, Python: python, Outtype: outtype}
			if err := llamacpp.Convert(cmd.Context(), lcfg, modelDir, outFile, out); err != nil {
				return err
			}
			if !ro.Quiet {
				fmt.Printf("✓ Wrote %s (%s)\n", outFile, fileSizeString(outFile))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&llamaDir, "llama-cpp-dir", llamacpp.DefaultDir, "Path to a llama.cpp checkout")
	cmd.Flags().StringVar(&outtype, "outtype", llamacpp.DefaultOuttype, "GGUF output type: "+strings.Join(llamacpp.ValidOuttypes, "|"))
	cmd.Flags().StringVar(&python, "python", "python3", "Python interpreter used to run the conversion script")
	cmd.Flags().BoolVar(&clone, "clone-llama-cpp", false, "Clone llama.cpp when no checkout is found")

	return cmd
}

// defaultOutFile derives the GGUF file name from the model directory.
func defaultOutFile(modelDir, outtype string) string {
	base := filepath.Base(filepath.Clean(modelDir))
	if outtype == "" {
		outtype = llamacpp.DefaultOuttype
	}
	return base + "-" + outtype + ".gguf"
}

func fileSizeString(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return "unknown size"
	}
	return tui.HumanBytes(fi.Size())
}
