// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package store

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

// vaultRecord is a stored timeline payload with its integrity checksum.
type vaultRecord struct {
	payload  []byte
	checksum [32]byte
}

// MemoryVault is an in-memory TimelineVault and SnapshotStore. It stores
// encoded payloads rather than live pointers so reads exercise the same
// decode and integrity path as the PostgreSQL vault.
type MemoryVault struct {
	mu        sync.RWMutex
	tickRate  int
	timelines map[timeline.Key]vaultRecord
	snapshots map[arena.ID]Snapshot
}

// NewMemoryVault creates an empty in-memory vault.
func NewMemoryVault(tickRate int) *MemoryVault {
	if tickRate <= 0 {
		tickRate = arena.DefaultTickRate
	}
	return &MemoryVault{
		tickRate:  tickRate,
		timelines: make(map[timeline.Key]vaultRecord),
		snapshots: make(map[arena.ID]Snapshot),
	}
}

// Put stores a timeline, replacing any prior timeline for its key.
func (v *MemoryVault) Put(_ context.Context, t *timeline.Timeline) error {
	payload, err := timeline.Encode(t, v.tickRate)
	if err != nil {
		return fmt.Errorf("encode timeline %s: %w", t.Key(), err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timelines[t.Key()] = vaultRecord{payload: payload, checksum: timeline.Checksum(payload)}
	return nil
}

// Get retrieves and decodes the timeline for a key.
func (v *MemoryVault) Get(_ context.Context, key timeline.Key) (*timeline.Timeline, error) {
	v.mu.RLock()
	rec, ok := v.timelines[key]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("timeline %s: %w", key, ErrNotFound)
	}
	return decodeRecord(key, rec.payload, rec.checksum[:])
}

// ByArena returns all stored timelines for an arena, ordered by actor ID.
// Corrupt entries are skipped and their keys reported separately.
func (v *MemoryVault) ByArena(_ context.Context, arenaID arena.ID) ([]*timeline.Timeline, []timeline.Key, error) {
	v.mu.RLock()
	keys := make([]timeline.Key, 0)
	for key := range v.timelines {
		if key.Arena == arenaID {
			keys = append(keys, key)
		}
	}
	v.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Actor.Compare(keys[j].Actor) < 0
	})

	var out []*timeline.Timeline
	var corrupt []timeline.Key
	for _, key := range keys {
		t, err := v.Get(context.Background(), key)
		if err != nil {
			corrupt = append(corrupt, key)
			continue
		}
		out = append(out, t)
	}
	return out, corrupt, nil
}

// Delete removes the timeline for a key.
func (v *MemoryVault) Delete(_ context.Context, key timeline.Key) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.timelines, key)
	return nil
}

// Corrupt overwrites the stored payload for a key with garbage, preserving
// the checksum mismatch. Test hook for the fail-closed path.
func (v *MemoryVault) Corrupt(key timeline.Key) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if rec, ok := v.timelines[key]; ok {
		flipped := bytes.Clone(rec.payload)
		if len(flipped) > 0 {
			flipped[len(flipped)-1] ^= 0xFF
		}
		v.timelines[key] = vaultRecord{payload: flipped, checksum: rec.checksum}
	}
}

// Save stores a snapshot, replacing any prior snapshot for its arena.
func (v *MemoryVault) Save(_ context.Context, snap Snapshot) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.snapshots[snap.Arena] = snap
	return nil
}

// Load retrieves the snapshot for an arena.
func (v *MemoryVault) Load(_ context.Context, arenaID arena.ID) (Snapshot, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	snap, ok := v.snapshots[arenaID]
	if !ok {
		return Snapshot{}, fmt.Errorf("snapshot for arena %d: %w", arenaID, ErrNotFound)
	}
	return snap, nil
}

// LoadAll retrieves every stored snapshot, ordered by arena ID.
func (v *MemoryVault) LoadAll(_ context.Context) ([]Snapshot, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Snapshot, 0, len(v.snapshots))
	for _, snap := range v.snapshots {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Arena < out[j].Arena })
	return out, nil
}

// decodeRecord verifies the checksum and decodes a stored payload. Any
// mismatch or parse failure surfaces timeline.ErrCorrupt so callers fail
// closed.
func decodeRecord(key timeline.Key, payload, checksum []byte) (*timeline.Timeline, error) {
	sum := timeline.Checksum(payload)
	if !bytes.Equal(sum[:], checksum) {
		return nil, fmt.Errorf("timeline %s: checksum mismatch: %w", key, timeline.ErrCorrupt)
	}
	t, err := timeline.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("timeline %s: %w", key, err)
	}
	if t.Key() != key {
		return nil, fmt.Errorf("timeline %s: stored under wrong key: %w", t.Key(), timeline.ErrCorrupt)
	}
	return t, nil
}
