// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/config"
	"github.com/ghostloop/ghostloop/internal/store"
)

// TimelineStatus is one stored recording in the status report.
type TimelineStatus struct {
	Arena  uint8  `json:"arena"`
	Actor  string `json:"actor"`
	Events int    `json:"events"`
	Ticks  int32  `json:"ticks"`
}

// SnapshotStatus is one arena snapshot in the status report.
type SnapshotStatus struct {
	Arena   uint8  `json:"arena"`
	SavedAt string `json:"saved_at"`
	Roster  uint32 `json:"roster"`
}

// VaultStatus is the full status report.
type VaultStatus struct {
	Timelines []TimelineStatus `json:"timelines"`
	Snapshots []SnapshotStatus `json:"snapshots"`
	Skipped   int              `json:"skipped,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	arenaID    int
	actorGlob  string
	jsonOutput bool
}

// statusVaultFactory opens the vault for inspection. Overridden in tests.
var statusVaultFactory = func(ctx context.Context, cfg config.VaultConfig, tickRate int) (Vault, error) {
	vault, err := store.NewPostgresVault(ctx, cfg.DSN, tickRate)
	if err != nil {
		return nil, err
	}
	return vault, nil
}

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Inspect the timelines and snapshots stored in the vault",
		Long: `List the recordings and arena snapshots in the vault, optionally
filtered by arena ID or an actor ULID glob pattern.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, cfg)
		},
	}

	cmd.Flags().IntVar(&cfg.arenaID, "arena", -1, "only this arena ID (-1 = all)")
	cmd.Flags().StringVar(&cfg.actorGlob, "actor", "*", "actor ULID glob pattern")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, cfg *statusConfig) error {
	appCfg, err := config.Load(resolveConfigFile(), nil)
	if err != nil {
		return err
	}
	if appCfg.Vault.DSN == "" {
		return oops.Code("CONFIG_INVALID").
			With("key", "vault.dsn").
			Errorf("status needs a PostgreSQL vault DSN")
	}

	if cfg.arenaID > 255 {
		return oops.Code("INVALID_ARGS").
			With("arena", cfg.arenaID).
			Errorf("arena IDs fit in one byte")
	}

	actorMatch, err := glob.Compile(cfg.actorGlob)
	if err != nil {
		return oops.Code("INVALID_ARGS").
			With("actor", cfg.actorGlob).
			Wrap(err)
	}

	vault, err := statusVaultFactory(ctx, appCfg.Vault, appCfg.Engine.TickRate)
	if err != nil {
		return err
	}
	defer vault.Close()

	status, err := collectStatus(ctx, vault, cfg.arenaID, actorMatch)
	if err != nil {
		return err
	}

	if cfg.jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return oops.Wrap(err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Print(formatStatusTable(status))
	return nil
}

// collectStatus walks every arena's timelines and snapshots, applying the
// arena and actor filters. Corrupt rows are already skipped by the vault;
// the skipped count here is arenas with no readable data.
func collectStatus(ctx context.Context, vault Vault, arenaFilter int, actorMatch glob.Glob) (*VaultStatus, error) {
	status := &VaultStatus{}

	snapshots, err := vault.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	var arenaIDs []arena.ID
	if arenaFilter >= 0 {
		arenaIDs = []arena.ID{arena.ID(arenaFilter)}
	} else {
		// Arena IDs are a single byte; sweep the whole space rather than
		// guessing which arenas have data.
		for id := 0; id <= 255; id++ {
			arenaIDs = append(arenaIDs, arena.ID(id))
		}
	}

	for _, id := range arenaIDs {
		timelines, _, err := vault.ByArena(ctx, id)
		if err != nil {
			status.Skipped++
			continue
		}
		for _, tl := range timelines {
			key := tl.Key()
			if !actorMatch.Match(key.Actor.String()) {
				continue
			}
			status.Timelines = append(status.Timelines, TimelineStatus{
				Arena:  uint8(key.Arena),
				Actor:  key.Actor.String(),
				Events: tl.Len(),
				Ticks:  int32(tl.Length()),
			})
		}
	}

	for _, snap := range snapshots {
		if arenaFilter >= 0 && snap.Arena != arena.ID(arenaFilter) {
			continue
		}
		status.Snapshots = append(status.Snapshots, SnapshotStatus{
			Arena:   uint8(snap.Arena),
			SavedAt: snap.Time().UTC().Format(time.RFC3339),
			Roster:  snap.ActiveRosterCount,
		})
	}

	return status, nil
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status *VaultStatus) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "ARENA\tACTOR\tEVENTS\tTICKS")
	if len(status.Timelines) == 0 {
		_, _ = fmt.Fprintln(w, "-\tno recordings\t-\t-")
	}
	for _, tl := range status.Timelines {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", tl.Arena, tl.Actor, tl.Events, tl.Ticks)
	}

	_, _ = fmt.Fprintln(w, "\nARENA\tSNAPSHOT\tROSTER")
	if len(status.Snapshots) == 0 {
		_, _ = fmt.Fprintln(w, "-\tno snapshots\t-")
	}
	for _, snap := range status.Snapshots {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\n", snap.Arena, snap.SavedAt, snap.Roster)
	}

	_ = w.Flush()
	return string(buf)
}

// byteWriter is a simple writer that appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
