// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package main

import (
	"os"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/script"
)

// NewCompileCmd creates the compile subcommand, a syntax and semantics
// check for boss scripts.
func NewCompileCmd() *cobra.Command {
	cfg := struct {
		tickRate     int
		cycleSeconds int
	}{}

	cmd := &cobra.Command{
		Use:   "compile <script>...",
		Short: "Check boss scripts without running the engine",
		Long: `Parse and compile boss scripts into timelines, reporting the event
count and duration of each. Nothing is written to the vault.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cycleTicks := arena.Tick(cfg.tickRate * cfg.cycleSeconds)
			for _, path := range args {
				src, err := os.ReadFile(path)
				if err != nil {
					return oops.Code("SCRIPT_UNREADABLE").With("path", path).Wrap(err)
				}
				tl, err := script.Compile(string(src), ulid.Make(), cfg.tickRate, cycleTicks)
				if err != nil {
					return oops.With("path", path).Wrap(err)
				}
				cmd.Printf("%s: ok (arena %d, %d events, %d ticks)\n",
					path, tl.Key().Arena, tl.Len(), tl.Length())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.tickRate, "tick-rate", arena.DefaultTickRate, "ticks per second")
	cmd.Flags().IntVar(&cfg.cycleSeconds, "cycle-seconds", arena.DefaultCycleSeconds, "cycle length in seconds")

	return cmd
}
