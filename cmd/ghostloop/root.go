// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ghostloop/ghostloop/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// resolveConfigFile returns the explicit --config path, falling back to
// the XDG config file when one exists.
func resolveConfigFile() string {
	if configFile != "" {
		return configFile
	}
	dir, err := xdg.ConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// NewRootCmd creates the root command for the ghostloop CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ghostloop",
		Short: "Ghostloop - a deterministic record-and-replay arena engine",
		Long: `Ghostloop runs cyclic tactical arenas where committed recordings
replay as ghosts alongside live actors, tick for tick, every cycle.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewCompileCmd())

	return cmd
}
