// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// RootOpts holds global CLI options.
type RootOpts struct {
	Token   string
	JSONOut bool
	Quiet   bool
	Config  string
}

// Execute runs the CLI with the given version string.
func Execute(version string) error {
	ro := &RootOpts{}
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	root := &cobra.Command{
		Use:           "ggufpack",
		Short:         "Resumable model downloads, directory merges and GGUF conversion",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	// Global flags
	root.PersistentFlags().StringVarP(&ro.Token, "token", "t", "", "Bearer token for authenticated downloads (also reads HF_TOKEN env)")
	root.PersistentFlags().BoolVar(&ro.JSONOut, "json", false, "Emit machine-readable JSON progress events")
	root.PersistentFlags().BoolVarP(&ro.Quiet, "quiet", "q", false, "Quiet mode (errors only)")
	root.PersistentFlags().StringVar(&ro.Config, "config", "", "Path to config file (JSON or YAML)")

	// Add commands
	fetchCmd := newFetchCmd(ro)
	root.AddCommand(fetchCmd)
	root.AddCommand(newMergeCmd(ro))
	root.AddCommand(newConvertCmd(ro))
	root.AddCommand(newBuildCmd(ro))
	root.AddCommand(newPublishCmd(ro))
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd(ro, version))

	// Make fetch the default command when no subcommand is given.
	// ArbitraryArgs lets the positional URL and DEST reach it.
	root.RunE = fetchCmd.RunE
	root.Args = cobra.ArbitraryArgs
	root.SetHelpCommand(&cobra.Command{Use: "help", Hidden: true})

	if err := root.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// configFilePath returns the first existing config file, or the default
// JSON path when none exists yet.
func configFilePath() string {
	home, _ := os.UserHomeDir()
	for _, name := range []string{"ggufpack.json", "ggufpack.yaml", "ggufpack.yml"} {
		p := filepath.Join(home, ".config", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(home, ".config", "ggufpack.json")
}

// loadConfigFile reads the config file into a flat key map. Returns nil
// when no config file exists.
func loadConfigFile(ro *RootOpts) (map[string]any, error) {
	path := ro.Config
	if path == "" {
		p := configFilePath()
		if _, err := os.Stat(p); err == nil {
			path = p
		}
	}
	if path == "" {
		return nil, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML config file: %w", err)
		}
	default: // .json or unknown
		if err := json.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("invalid JSON config file: %w", err)
		}
	}
	return cfg, nil
}

// applyConfigString copies cfg[name] into set unless the flag was given
// on the command line.
func applyConfigString(cmd *cobra.Command, cfg map[string]any, name string, set func(string)) {
	if cfg == nil || cmd.Flags().Changed(name) {
		return
	}
	if v, ok := cfg[name]; ok && v != nil {
		set(fmt.Sprint(v))
	}
}

func applyConfigInt(cmd *cobra.Command, cfg map[string]any, name string, set func(int)) {
	if cfg == nil || cmd.Flags().Changed(name) {
		return
	}
	if v, ok := cfg[name]; ok && v != nil {
		var x int
		fmt.Sscan(fmt.Sprint(v), &x)
		set(x)
	}
}

// resolveToken picks the bearer token: the --token flag wins, then the
// HF_TOKEN environment variable, then the config file.
func resolveToken(ro *RootOpts, cfg map[string]any) string {
	if tok := strings.TrimSpace(ro.Token); tok != "" {
		return tok
	}
	if tok := strings.TrimSpace(os.Getenv("HF_TOKEN")); tok != "" {
		return tok
	}
	if cfg != nil {
		if v, ok := cfg["token"]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}
