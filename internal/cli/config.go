// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// defaultConfig holds the config-file default for every tunable flag.
func defaultConfig() map[string]any {
	return map[string]any{
		"token":           "",
		"retries":         5,
		"backoff-initial": "1.5s",
		"backoff-max":     "30s",
		"stall-timeout":   "60s",
		"chunk-size":      "1MiB",
		"limit-rate":      "",
		"llama-cpp-dir":   "llama.cpp",
		"outtype":         "f16",
	}
}

// writeDefaultConfig marshals the defaults to path, YAML or JSON
// depending on the extension.
func writeDefaultConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
		data, err = yaml.Marshal(defaultConfig())
	} else {
		data, err = json.MarshalIndent(defaultConfig(), "", "  ")
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	var (
		force   bool
		useYAML bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Long: `Init writes a config file holding the default value of every tunable
flag to ~/.config/ggufpack.json (or .yaml). Explicit CLI flags always
override config file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("could not find home directory: %w", err)
			}
			ext := ".json"
			if useYAML {
				ext = ".yaml"
			}
			path := filepath.Join(home, ".config", "ggufpack"+ext)

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file already exists: %s (use --force to replace it)", path)
			}
			if err := writeDefaultConfig(path); err != nil {
				return err
			}

			fmt.Printf("✓ Created config file: %s\n", path)
			fmt.Println()
			fmt.Println("Edit this file to set your defaults. For example:")
			fmt.Println("  - Set your access token")
			fmt.Println("  - Tune retry and backoff settings")
			fmt.Println("  - Point llama-cpp-dir at an existing checkout")
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config file")
	initCmd.Flags().BoolVar(&useYAML, "yaml", false, "Create YAML config instead of JSON")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFilePath()
			data, err := os.ReadFile(path)
			if os.IsNotExist(err) {
				fmt.Println("No config file found.")
				fmt.Printf("Run 'ggufpack config init' to create one at:\n  %s\n", path)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("Config file: %s\n\n%s\n", path, data)
			return nil
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(configFilePath())
		},
	}

	cmd.AddCommand(initCmd, showCmd, pathCmd)
	return cmd
}
