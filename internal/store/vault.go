// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

// Package store provides the recording vault: durable storage for finalized
// timelines and per-arena snapshots.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

// ErrNotFound is returned when no timeline or snapshot exists for a key.
var ErrNotFound = errors.New("not found")

// TimelineVault persists finalized timelines. Put is a whole-value swap:
// a new recording for the same key fully replaces the old one atomically.
type TimelineVault interface {
	// Put stores a timeline, replacing any prior timeline for its key.
	Put(ctx context.Context, t *timeline.Timeline) error

	// Get retrieves the timeline for a key. Returns ErrNotFound if none
	// exists and timeline.ErrCorrupt if the stored payload fails decoding
	// or its integrity check.
	Get(ctx context.Context, key timeline.Key) (*timeline.Timeline, error)

	// ByArena returns all stored timelines for an arena, ordered by actor
	// ID. Corrupt entries are skipped and reported through the returned
	// keys slice so callers can fail closed per recording.
	ByArena(ctx context.Context, arenaID arena.ID) ([]*timeline.Timeline, []timeline.Key, error)

	// Delete removes the timeline for a key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key timeline.Key) error
}

// Snapshot is the persisted per-arena record used for offline progression:
// the last real-world timestamp and the active roster at that moment.
type Snapshot struct {
	Arena             arena.ID
	LastTimestamp     int64 // unix milliseconds
	ActiveRosterIDs   []ulid.ULID
	ActiveRosterCount uint32
}

// Time returns the snapshot timestamp as a time.Time.
func (s Snapshot) Time() time.Time {
	return time.UnixMilli(s.LastTimestamp)
}

// SnapshotStore persists per-arena snapshots. Snapshots are refreshed on
// every recording start/stop and on process exit.
type SnapshotStore interface {
	// Save stores a snapshot, replacing any prior snapshot for its arena.
	Save(ctx context.Context, snap Snapshot) error

	// Load retrieves the snapshot for an arena. Returns ErrNotFound if no
	// snapshot has ever been saved.
	Load(ctx context.Context, arenaID arena.ID) (Snapshot, error)

	// LoadAll retrieves every stored snapshot, ordered by arena ID.
	LoadAll(ctx context.Context) ([]Snapshot, error)
}
